package agent

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/squim/components"
	"github.com/pthm-cable/squim/needs"
)

// fakeMover teleports nothing: tests move it by setting pos and arrived.
type fakeMover struct {
	pos     components.Position
	dest    components.Position
	moving  bool
	arrived bool
	noPath  bool
	moves   int
	halts   int
}

func (m *fakeMover) MoveTo(dest components.Position) bool {
	if m.noPath {
		return false
	}
	m.dest = dest
	m.moving = true
	m.arrived = false
	m.moves++
	return true
}

func (m *fakeMover) Halt() {
	m.moving = false
	m.halts++
}

func (m *fakeMover) HasArrived() bool { return m.arrived }

func (m *fakeMover) IsProgressingToward(dest components.Position) bool {
	return m.moving && m.dest == dest
}

func (m *fakeMover) Position() components.Position { return m.pos }

type fakeLook struct{ color string }

func (l *fakeLook) Color() string      { return l.color }
func (l *fakeLook) SetColor(c string) { l.color = c }

// fakeWorld holds fish positions and charges one second per unit of distance.
type fakeWorld struct {
	fish      map[ecs.Entity]components.Position
	waypoints map[needs.TargetKind]components.Position
	consumed  []ecs.Entity
	onBed     func()
}

func (w *fakeWorld) Nearest(kind needs.TargetKind, from components.Position) (needs.Target, bool) {
	var best needs.Target
	found := false
	for e, p := range w.fish {
		if !found || from.DistSq(p) < from.DistSq(best.Pos) {
			best = needs.Target{Kind: needs.TargetFish, Entity: e, Pos: p}
			found = true
		}
	}
	return best, found
}

func (w *fakeWorld) Waypoint(kind needs.TargetKind) (needs.Target, bool) {
	if kind == needs.TargetBed && w.onBed != nil {
		w.onBed()
	}
	p, ok := w.waypoints[kind]
	return needs.Target{Kind: kind, Pos: p}, ok
}

func (w *fakeWorld) Consume(e ecs.Entity) bool {
	if _, ok := w.fish[e]; !ok {
		return false
	}
	delete(w.fish, e)
	w.consumed = append(w.consumed, e)
	return true
}

func (w *fakeWorld) EstimateTravelSeconds(from, to components.Position) float64 {
	return float64(from.Dist(to))
}

type deathLog struct {
	names, causes []string
}

func (d *deathLog) ReportDeath(name, goal string) {
	d.names = append(d.names, name)
	d.causes = append(d.causes, goal)
}

type countingObserver struct {
	started, completed []needs.ActionKind
	aborted            []AbortReason
}

func (o *countingObserver) ActionStarted(a *Agent, c needs.Choice) {
	o.started = append(o.started, c.Action.Kind)
}

func (o *countingObserver) ActionCompleted(a *Agent, k needs.ActionKind) {
	o.completed = append(o.completed, k)
}

func (o *countingObserver) ActionAborted(a *Agent, r AbortReason) {
	o.aborted = append(o.aborted, r)
}

var (
	eatFish     = needs.Action{Kind: needs.ActionEatFish, Effects: needs.Effects{needs.GoalHunger: -20, needs.GoalThirst: 5}}
	drinkWater  = needs.Action{Kind: needs.ActionDrinkWater, Duration: 5, Effects: needs.Effects{needs.GoalThirst: -20}}
	sleepInBed  = needs.Action{Kind: needs.ActionSleepInBed, Duration: 10, Effects: needs.Effects{needs.GoalFatigue: -30}}
	changeColor = needs.Action{Kind: needs.ActionChangeColor, Duration: 5, Effects: needs.Effects{needs.GoalBoredom: -15}}
)

func testProfile() *Profile {
	return &Profile{
		Menu: []needs.Action{eatFish, drinkWater, sleepInBed, changeColor},
		Tick: needs.Action{Kind: needs.ActionTick, Effects: needs.Effects{
			needs.GoalHunger: 1, needs.GoalThirst: 1, needs.GoalFatigue: 1, needs.GoalBoredom: 1,
		}},
		TickInterval:        1,
		Saturation:          100,
		RetargetInterval:    0.5,
		RepathDistance:      1,
		WaterArriveDistance: 1.5,
		Colors:              []string{"red", "green", "blue"},
	}
}

type harness struct {
	world  *fakeWorld
	deaths *deathLog
	obs    *countingObserver
	env    *Env
	bed    *Arbiter
	ecs    *ecs.World
	fishes *ecs.Map1[components.Fish]
}

func newHarness() *harness {
	w := &fakeWorld{
		fish: map[ecs.Entity]components.Position{},
		waypoints: map[needs.TargetKind]components.Position{
			needs.TargetWater: {X: 10, Y: 0},
			needs.TargetBed:   {X: 0, Y: 10},
		},
	}
	deaths := &deathLog{}
	obs := &countingObserver{}
	world := ecs.NewWorld()
	return &harness{
		world:  w,
		deaths: deaths,
		obs:    obs,
		env: &Env{
			World:    w,
			Paths:    w,
			Deaths:   deaths,
			Observer: obs,
			Rand:     rand.New(rand.NewSource(1)),
		},
		bed:    NewArbiter(),
		ecs:    world,
		fishes: ecs.NewMap1[components.Fish](world),
	}
}

func (h *harness) addFish(x, y float32) ecs.Entity {
	e := h.fishes.NewEntity(&components.Fish{})
	h.world.fish[e] = components.Position{X: x, Y: y}
	return e
}

func (h *harness) newAgent(id uint32, goals needs.Goals) (*Agent, *fakeMover, *fakeLook) {
	m := &fakeMover{}
	l := &fakeLook{color: "red"}
	a := New(id, "Squim", testProfile(), h.bed, m, l)
	a.Goals = goals
	return a, m, l
}

func TestArbiterMutualExclusion(t *testing.T) {
	b := NewArbiter()
	if !b.TryClaim(1) {
		t.Fatal("claim on free arbiter failed")
	}
	if !b.TryClaim(1) {
		t.Error("re-claim by holder failed")
	}
	if b.TryClaim(2) {
		t.Error("second agent claimed a held resource")
	}
	if b.Available(2) {
		t.Error("resource reported available to non-holder")
	}

	b.Release(2)
	if id, held := b.Holder(); !held || id != 1 {
		t.Errorf("release by non-holder changed state: holder=%d held=%v", id, held)
	}

	b.Release(1)
	if _, held := b.Holder(); held {
		t.Error("resource still held after release")
	}
	if !b.TryClaim(2) {
		t.Error("claim after release failed")
	}
}

func TestDecayDriverAdvance(t *testing.T) {
	tests := []struct {
		name     string
		interval float64
		steps    []float64
		want     int
	}{
		{"whole seconds", 1, []float64{1, 1, 1}, 3},
		{"fractional steps", 1, []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1}, 1},
		{"large step", 5, []float64{12}, 2},
		{"disabled", 0, []float64{10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DecayDriver{Interval: tt.interval}
			got := 0
			for _, dt := range tt.steps {
				got += d.Advance(dt)
			}
			if got != tt.want {
				t.Errorf("ticks = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDecayRunsWhileMoving(t *testing.T) {
	h := newHarness()
	a, _, _ := h.newAgent(1, needs.Goals{needs.GoalThirst: 60})

	a.Step(0.1, h.env)
	if a.State() != StateMoving || a.Current().Action.Kind != needs.ActionDrinkWater {
		t.Fatalf("state = %v action = %v, want moving to drink", a.State(), a.Current().Action.Kind)
	}

	for range 3 {
		a.Decay(1, h.env)
		a.Step(1, h.env)
	}
	if got := a.Goals[needs.GoalHunger]; got != 3 {
		t.Errorf("hunger = %v, want 3", got)
	}
	if a.State() != StateMoving {
		t.Errorf("state = %v, want moving", a.State())
	}
}

func TestWaypointFlow(t *testing.T) {
	h := newHarness()
	a, m, _ := h.newAgent(1, needs.Goals{needs.GoalThirst: 60})

	a.Step(0.1, h.env)
	if a.State() != StateMoving {
		t.Fatalf("state = %v, want moving", a.State())
	}
	if m.dest != h.world.waypoints[needs.TargetWater] {
		t.Errorf("move dest = %v, want water", m.dest)
	}

	// Not close enough to water yet.
	m.pos = components.Position{X: 7, Y: 0}
	a.Step(0.1, h.env)
	if a.State() != StateMoving {
		t.Fatalf("state = %v, want moving", a.State())
	}

	m.pos = components.Position{X: 9, Y: 0}
	a.Step(0.1, h.env)
	if a.State() != StateWaiting {
		t.Fatalf("state = %v, want waiting", a.State())
	}
	if m.moving {
		t.Error("mover not halted on arrival")
	}

	a.Step(4.9, h.env)
	if a.State() != StateWaiting {
		t.Fatalf("state = %v, want waiting", a.State())
	}
	a.Step(0.2, h.env)
	if a.State() != StateChoosing {
		t.Fatalf("state = %v, want choosing", a.State())
	}
	if got := a.Goals[needs.GoalThirst]; got != 40 {
		t.Errorf("thirst = %v, want 40", got)
	}
	if len(h.obs.completed) != 1 || h.obs.completed[0] != needs.ActionDrinkWater {
		t.Errorf("completed = %v", h.obs.completed)
	}
}

func TestWaypointReissuesMove(t *testing.T) {
	h := newHarness()
	a, m, _ := h.newAgent(1, needs.Goals{needs.GoalThirst: 60})

	a.Step(0.1, h.env)
	m.moving = false
	a.Step(0.1, h.env)
	if m.moves != 2 {
		t.Errorf("moves = %d, want 2", m.moves)
	}
	a.Step(0.1, h.env)
	if m.moves != 2 {
		t.Errorf("moves = %d, want 2 while progressing", m.moves)
	}
}

func TestNavigationFailureResets(t *testing.T) {
	h := newHarness()
	a, m, _ := h.newAgent(1, needs.Goals{needs.GoalFatigue: 70})
	m.noPath = true

	a.Step(0.1, h.env)
	if a.State() != StateChoosing {
		t.Errorf("state = %v, want choosing", a.State())
	}
	if _, held := h.bed.Holder(); held {
		t.Error("bed still held after navigation failure")
	}
	if len(h.obs.aborted) != 1 || h.obs.aborted[0] != AbortNavFailure {
		t.Errorf("aborted = %v, want [nav_failure]", h.obs.aborted)
	}
}

func TestSleepClaimsAndReleasesBed(t *testing.T) {
	h := newHarness()
	a, m, _ := h.newAgent(1, needs.Goals{needs.GoalFatigue: 70})

	a.Step(0.1, h.env)
	if a.Current().Action.Kind != needs.ActionSleepInBed {
		t.Fatalf("action = %v, want sleep", a.Current().Action.Kind)
	}
	if id, held := h.bed.Holder(); !held || id != 1 {
		t.Fatalf("bed holder = %d/%v, want 1", id, held)
	}

	m.arrived = true
	a.Step(0.1, h.env)
	if a.State() != StateWaiting {
		t.Fatalf("state = %v, want waiting", a.State())
	}
	a.Step(10, h.env)
	if a.State() != StateChoosing {
		t.Fatalf("state = %v, want choosing", a.State())
	}
	if _, held := h.bed.Holder(); held {
		t.Error("bed still held after sleeping")
	}
	if got := a.Goals[needs.GoalFatigue]; got != 40 {
		t.Errorf("fatigue = %v, want 40", got)
	}
}

func TestTwoAgentsContendForBed(t *testing.T) {
	h := newHarness()
	a, _, _ := h.newAgent(1, needs.Goals{needs.GoalFatigue: 70})
	b, _, _ := h.newAgent(2, needs.Goals{needs.GoalFatigue: 70})

	a.Step(0.1, h.env)
	b.Step(0.1, h.env)

	if a.Current().Action.Kind != needs.ActionSleepInBed {
		t.Errorf("a action = %v, want sleep", a.Current().Action.Kind)
	}
	if b.Current().Action.Kind == needs.ActionSleepInBed {
		t.Error("both agents committed to the bed")
	}
	if b.State() == StateChoosing {
		t.Errorf("b did not settle on another action")
	}
	if id, _ := h.bed.Holder(); id != 1 {
		t.Errorf("bed holder = %d, want 1", id)
	}
}

func TestBedClaimedBetweenScoringAndCommit(t *testing.T) {
	h := newHarness()
	a, _, _ := h.newAgent(1, needs.Goals{needs.GoalFatigue: 70})

	// Another agent grabs the bed right after a scores it.
	h.world.onBed = func() {
		h.bed.TryClaim(2)
		h.world.onBed = nil
	}

	a.Step(0.1, h.env)
	if a.Current().Action.Kind == needs.ActionSleepInBed {
		t.Fatal("committed to a bed held by another agent")
	}
	if a.State() == StateChoosing {
		t.Error("agent did not re-choose in the same step")
	}
	if len(h.obs.aborted) != 1 || h.obs.aborted[0] != AbortBedConflict {
		t.Errorf("aborted = %v, want [bed_conflict]", h.obs.aborted)
	}
	if id, _ := h.bed.Holder(); id != 2 {
		t.Errorf("bed holder = %d, want 2", id)
	}
}

func TestContactEatsFish(t *testing.T) {
	h := newHarness()
	fish := h.addFish(3, 4)
	a, _, _ := h.newAgent(1, needs.Goals{needs.GoalHunger: 60})

	a.Step(0.1, h.env)
	if a.Current().Action.Kind != needs.ActionEatFish {
		t.Fatalf("action = %v, want eat_fish", a.Current().Action.Kind)
	}
	if a.Current().Target.Entity != fish {
		t.Errorf("target entity mismatch")
	}

	if !a.OnContact(fish, h.env) {
		t.Fatal("contact not consumed")
	}
	if got := a.Goals[needs.GoalHunger]; got != 40 {
		t.Errorf("hunger = %v, want 40", got)
	}
	if got := a.Goals[needs.GoalThirst]; got != 5 {
		t.Errorf("thirst = %v, want 5", got)
	}
	if a.State() != StateChoosing {
		t.Errorf("state = %v, want choosing", a.State())
	}
	if len(h.world.consumed) != 1 {
		t.Errorf("consumed = %d, want 1", len(h.world.consumed))
	}

	// A second contact with the same fish is ignored.
	if a.OnContact(fish, h.env) {
		t.Error("consumed a fish while not hunting")
	}
}

func TestContactLeavesOtherAgentsAlone(t *testing.T) {
	h := newHarness()
	fish := h.addFish(3, 4)
	hunter, _, _ := h.newAgent(1, needs.Goals{needs.GoalHunger: 60})
	drinker, dm, _ := h.newAgent(2, needs.Goals{needs.GoalThirst: 60})

	hunter.Step(0.1, h.env)
	drinker.Step(0.1, h.env)
	before := drinker.Current()
	goals := drinker.Goals

	if !hunter.OnContact(fish, h.env) {
		t.Fatal("contact not consumed")
	}
	after := drinker.Current()
	if drinker.State() != StateMoving || after.Action.Kind != before.Action.Kind || after.Target != before.Target || drinker.Goals != goals {
		t.Errorf("unrelated agent changed: state=%v choice=%+v", drinker.State(), after)
	}
	if !dm.moving {
		t.Error("unrelated agent's mover halted")
	}
}

func TestContactIgnoredWhenNotHunting(t *testing.T) {
	h := newHarness()
	fish := h.addFish(50, 50)
	a, _, _ := h.newAgent(1, needs.Goals{needs.GoalThirst: 60})

	a.Step(0.1, h.env)
	if a.OnContact(fish, h.env) {
		t.Error("drinking agent ate a fish")
	}
	if len(h.world.consumed) != 0 {
		t.Error("fish removed from the world")
	}
}

func TestLostTargetResets(t *testing.T) {
	h := newHarness()
	fish := h.addFish(3, 4)
	a, _, _ := h.newAgent(1, needs.Goals{needs.GoalHunger: 60})

	a.Step(0.1, h.env)
	delete(h.world.fish, fish)

	a.Step(0.3, h.env)
	if a.State() != StateMoving {
		t.Fatalf("re-checked before the retarget interval")
	}
	a.Step(0.3, h.env)
	if a.State() != StateChoosing {
		t.Errorf("state = %v, want choosing", a.State())
	}
	if len(h.obs.aborted) != 1 || h.obs.aborted[0] != AbortLostTarget {
		t.Errorf("aborted = %v, want [target_lost]", h.obs.aborted)
	}
}

func TestHuntRetargetsNearestFish(t *testing.T) {
	h := newHarness()
	far := h.addFish(6, 8)
	a, m, _ := h.newAgent(1, needs.Goals{needs.GoalHunger: 60})

	a.Step(0.1, h.env)
	if a.Current().Target.Entity != far {
		t.Fatal("not hunting the only fish")
	}

	near := h.addFish(1, 1)
	a.Step(0.6, h.env)
	if a.Current().Target.Entity != near {
		t.Error("did not switch to the nearer fish")
	}
	if m.dest != (components.Position{X: 1, Y: 1}) {
		t.Errorf("mover dest = %v, want (1,1)", m.dest)
	}

	// Fish drifts beyond the repath distance.
	h.world.fish[near] = components.Position{X: 1, Y: 3}
	a.Step(0.6, h.env)
	if m.dest != (components.Position{X: 1, Y: 3}) {
		t.Errorf("mover dest = %v, want (1,3)", m.dest)
	}

	moves := m.moves
	h.world.fish[near] = components.Position{X: 1, Y: 3.5}
	a.Step(0.6, h.env)
	if m.moves != moves {
		t.Error("re-issued move for a small drift")
	}
}

func TestHuntClosesInAfterArrivingShort(t *testing.T) {
	h := newHarness()
	fish := h.addFish(4, 0)
	a, m, _ := h.newAgent(1, needs.Goals{needs.GoalHunger: 60})

	a.Step(0.1, h.env)
	if a.Current().Target.Entity != fish {
		t.Fatal("not hunting the only fish")
	}

	// The mover reached the old aim point, but the fish slipped 0.9 units
	// away (under the repath distance) and no contact fired.
	m.pos = components.Position{X: 4, Y: 0}
	m.arrived = true
	h.world.fish[fish] = components.Position{X: 4.9, Y: 0}
	moves := m.moves

	a.Step(0.6, h.env)
	if m.moves != moves+1 {
		t.Fatalf("moves = %d, want %d: hunt stalled at a stale aim point", m.moves, moves+1)
	}
	if m.dest != (components.Position{X: 4.9, Y: 0}) {
		t.Errorf("mover dest = %v, want (4.9,0)", m.dest)
	}
	if a.State() != StateMoving {
		t.Errorf("state = %v, want moving", a.State())
	}

	// A halted mover is not progressing either.
	m.moving = false
	a.Step(0.6, h.env)
	if m.moves != moves+2 {
		t.Errorf("moves = %d, want %d after the mover stopped", m.moves, moves+2)
	}
}

func TestChangeColorSingleOption(t *testing.T) {
	h := newHarness()
	a, _, look := h.newAgent(1, needs.Goals{needs.GoalBoredom: 50})
	a.profile.Colors = []string{"red"}
	a.profile.Menu = []needs.Action{changeColor}

	a.Step(0.1, h.env)
	if a.State() != StateWaiting {
		t.Fatalf("state = %v, want waiting", a.State())
	}
	a.Step(5, h.env)
	if look.color != "red" {
		t.Errorf("color = %q, want red", look.color)
	}
	if got := a.Goals[needs.GoalBoredom]; got != 35 {
		t.Errorf("boredom = %v, want 35", got)
	}
	if a.State() != StateChoosing {
		t.Errorf("state = %v, want choosing", a.State())
	}
}

func TestChangeColorPicksDifferentColor(t *testing.T) {
	h := newHarness()
	for range 20 {
		a, _, look := h.newAgent(1, needs.Goals{needs.GoalBoredom: 50})
		a.profile.Menu = []needs.Action{changeColor}
		a.Step(0.1, h.env)
		a.Step(5, h.env)
		if look.color == "red" {
			t.Fatal("color unchanged with several options")
		}
	}
}

func TestDeathIsOneShot(t *testing.T) {
	h := newHarness()
	a, m, _ := h.newAgent(1, needs.Goals{needs.GoalFatigue: 95})

	a.Step(0.1, h.env)
	if _, held := h.bed.Holder(); !held {
		t.Fatal("expected bed claim")
	}

	for range 10 {
		a.Decay(1, h.env)
	}
	if !a.Dead() {
		t.Fatal("agent survived saturation")
	}
	if cause, _ := a.Cause(); cause != needs.GoalFatigue {
		t.Errorf("cause = %v, want fatigue", cause)
	}
	if len(h.deaths.names) != 1 || h.deaths.causes[0] != "Fatigue" {
		t.Errorf("deaths = %v %v, want one Fatigue", h.deaths.names, h.deaths.causes)
	}
	if _, held := h.bed.Holder(); held {
		t.Error("bed not released on death")
	}
	if m.moving {
		t.Error("mover not halted on death")
	}

	goals := a.Goals
	a.Decay(5, h.env)
	a.Step(5, h.env)
	fish := h.addFish(1, 1)
	a.OnContact(fish, h.env)
	if a.Goals != goals {
		t.Errorf("goals changed after death: %v -> %v", goals, a.Goals)
	}
	if len(h.deaths.names) != 1 {
		t.Errorf("death reported %d times", len(h.deaths.names))
	}
}

func TestEffectCanKill(t *testing.T) {
	h := newHarness()
	fish := h.addFish(1, 1)
	a, _, _ := h.newAgent(1, needs.Goals{needs.GoalHunger: 60, needs.GoalThirst: 97})
	a.profile.Menu = []needs.Action{eatFish}

	a.Step(0.1, h.env)
	a.OnContact(fish, h.env)
	if !a.Dead() {
		t.Fatal("thirst from eating should have been fatal")
	}
	if h.deaths.causes[0] != "Thirst" {
		t.Errorf("cause = %s, want Thirst", h.deaths.causes[0])
	}
}

func TestIdleWhenNothingFeasible(t *testing.T) {
	h := newHarness()
	a, m, _ := h.newAgent(1, needs.Goals{needs.GoalHunger: 60})
	a.profile.Menu = []needs.Action{eatFish}

	a.Step(0.1, h.env)
	if a.State() != StateChoosing {
		t.Errorf("state = %v, want choosing", a.State())
	}
	if m.halts == 0 {
		t.Error("idle agent not halted")
	}
}

func TestDisabledAgentDoesNothing(t *testing.T) {
	h := newHarness()
	a, _, _ := h.newAgent(1, needs.Goals{})
	a.Disable("missing waypoint: bed")

	a.Decay(10, h.env)
	a.Step(1, h.env)
	if a.Goals != (needs.Goals{}) {
		t.Errorf("disabled agent decayed: %v", a.Goals)
	}
	if a.State() != StateChoosing {
		t.Errorf("state = %v, want choosing", a.State())
	}
	if !strings.Contains(a.Status(), "Disabled") {
		t.Errorf("status missing disabled note: %q", a.Status())
	}
}

func TestStatus(t *testing.T) {
	h := newHarness()
	a, _, _ := h.newAgent(1, needs.Goals{needs.GoalBoredom: 50})
	a.profile.Menu = []needs.Action{changeColor}
	a.Step(0.1, h.env)

	s := a.Status()
	for _, want := range []string{"Boredom: 50.0", "Discontentment: 2500.0", "Performing change_color in 5.0 seconds"} {
		if !strings.Contains(s, want) {
			t.Errorf("status %q missing %q", s, want)
		}
	}
}

func TestInfiniteTravelExcluded(t *testing.T) {
	h := newHarness()
	h.env.Paths = infinitePaths{}
	a, _, _ := h.newAgent(1, needs.Goals{needs.GoalThirst: 80})

	a.Step(0.1, h.env)
	if a.Current().Action.Kind != needs.ActionChangeColor {
		t.Errorf("action = %v, want change_color", a.Current().Action.Kind)
	}
}

type infinitePaths struct{}

func (infinitePaths) EstimateTravelSeconds(from, to components.Position) float64 {
	return math.Inf(1)
}
