package game

import (
	"fmt"

	"github.com/pthm-cable/squim/agent"
	"github.com/pthm-cable/squim/config"
	"github.com/pthm-cable/squim/needs"
)

// buildProfile converts the squim sections of the config into the shared
// agent profile. Names must already have passed config validation.
func buildProfile(cfg *config.Config) (*agent.Profile, error) {
	tickEffects, err := parseEffects(cfg.Tick.Effects)
	if err != nil {
		return nil, fmt.Errorf("tick: %w", err)
	}

	menu := make([]needs.Action, 0, len(cfg.Actions))
	for _, ac := range cfg.Actions {
		kind, err := needs.ParseActionKind(ac.Name)
		if err != nil {
			return nil, err
		}
		if kind == needs.ActionTick {
			return nil, fmt.Errorf("%w: tick is not a menu action", config.ErrUnknownAction)
		}
		effects, err := parseEffects(ac.Effects)
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", ac.Name, err)
		}
		menu = append(menu, needs.Action{Kind: kind, Duration: ac.Duration, Effects: effects})
	}

	return &agent.Profile{
		Menu:                menu,
		Tick:                needs.Action{Kind: needs.ActionTick, Duration: cfg.Tick.Length, Effects: tickEffects},
		TickInterval:        cfg.Tick.Length,
		Saturation:          cfg.Goals.Saturation,
		RetargetInterval:    cfg.Squim.RetargetInterval,
		RepathDistance:      float32(cfg.Squim.RepathDistance),
		WaterArriveDistance: float32(cfg.Squim.WaterArriveDistance),
		Colors:              cfg.Squim.Colors,
	}, nil
}

func parseEffects(m map[string]float64) (needs.Effects, error) {
	effects := make(needs.Effects, len(m))
	for name, delta := range m {
		g, err := needs.ParseGoal(name)
		if err != nil {
			return nil, err
		}
		effects[g] += delta
	}
	return effects, nil
}
