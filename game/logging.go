package game

import (
	"log/slog"

	"github.com/pthm-cable/squim/agent"
	"github.com/pthm-cable/squim/needs"
)

// logStatus logs one status record per living squim, carrying the rendered
// status block alongside the raw goal values.
func (g *Game) logStatus() {
	for _, a := range g.agents {
		attrs := []any{
			"tick", g.tick,
			"squim", a.Name,
			"state", a.State().String(),
			"hunger", a.Goals[needs.GoalHunger],
			"thirst", a.Goals[needs.GoalThirst],
			"fatigue", a.Goals[needs.GoalFatigue],
			"boredom", a.Goals[needs.GoalBoredom],
			"discontentment", a.Goals.Total(),
			"status", a.Status(),
		}
		if a.State() == agent.StateMoving || a.State() == agent.StateWaiting {
			c := a.Current()
			attrs = append(attrs, "action", c.Action.Kind.String(), "target", c.Target.Kind.String())
		}
		if a.State() == agent.StateWaiting {
			attrs = append(attrs, "remaining", a.Timer())
		}
		if reason := a.Disabled(); reason != "" {
			attrs = append(attrs, "disabled", reason)
		}
		slog.Info("squim_status", attrs...)
	}
}
