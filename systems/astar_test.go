package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/squim/components"
)

// openPlanner builds a planner over an empty 40x20 pond.
func openPlanner(t *testing.T) (*TerrainSystem, *AStarPlanner) {
	t.Helper()
	terrain := NewTerrainSystem(40, 20, 0.5)
	return terrain, NewAStarPlanner(NewNavGridFromTerrain(terrain, 1, 0))
}

// wallPlanner builds a planner with a vertical wall at x in [19, 21).
// With gap the wall leaves rows y >= 16 open.
func wallPlanner(t *testing.T, gap bool) (*TerrainSystem, *AStarPlanner) {
	t.Helper()
	terrain := NewTerrainSystem(40, 20, 0.5)
	for y := 0; y < terrain.gridHeight; y++ {
		if gap && y >= 32 {
			continue
		}
		for x := 38; x < 42; x++ {
			terrain.grid[y][x] = TerrainRock
		}
	}
	return terrain, NewAStarPlanner(NewNavGridFromTerrain(terrain, 1, 0))
}

// TestAStarSimplePath verifies A* finds a straight-line path.
func TestAStarSimplePath(t *testing.T) {
	_, planner := openPlanner(t)

	path := planner.FindPath(2, 2, 35, 15)
	if path == nil {
		t.Fatal("Expected path, got nil")
	}

	first := path[0]
	if first.Dist(components.Position{X: 2, Y: 2}) > 1 {
		t.Errorf("First waypoint %v not near start (2, 2)", first)
	}
	last := path[len(path)-1]
	if last.Dist(components.Position{X: 35, Y: 15}) > 1 {
		t.Errorf("Last waypoint %v not near goal (35, 15)", last)
	}

	// Open water simplifies to a near-straight line
	length := PathLength(components.Position{X: 2, Y: 2}, path)
	straight := float32(math.Hypot(33, 13))
	if length > straight*1.1 {
		t.Errorf("Path length %f much longer than straight line %f", length, straight)
	}
}

// TestAStarAroundObstacle verifies A* navigates around obstacles.
func TestAStarAroundObstacle(t *testing.T) {
	terrain, planner := wallPlanner(t, true)

	path := planner.FindPath(5, 5, 35, 5)
	if path == nil {
		t.Fatal("Expected path around obstacle, got nil")
	}

	for i, wp := range path {
		if terrain.IsSolid(wp.X, wp.Y) {
			t.Errorf("Waypoint %d at (%f, %f) is inside terrain", i, wp.X, wp.Y)
		}
	}
	for i := 1; i < len(path); i++ {
		if !hasLineOfSight(planner.grid, path[i-1], path[i]) {
			t.Errorf("Segment %d crosses blocked cells", i)
		}
	}

	if length := PathLength(components.Position{X: 5, Y: 5}, path); length < 30 {
		t.Errorf("Path length %f too short to detour around the wall", length)
	}
}

// TestAStarNoPath verifies A* returns nil when no path exists.
func TestAStarNoPath(t *testing.T) {
	_, planner := wallPlanner(t, false)

	if path := planner.FindPath(5, 5, 35, 5); path != nil {
		t.Errorf("Expected no path through complete wall, got %d waypoints", len(path))
	}
}

func TestAStarSameCell(t *testing.T) {
	_, planner := openPlanner(t)
	path := planner.FindPath(5.2, 5.2, 5.8, 5.9)
	if len(path) != 1 {
		t.Fatalf("Expected single waypoint, got %d", len(path))
	}
}

func TestNavigatorEstimate(t *testing.T) {
	_, planner := openPlanner(t)
	nav := NewNavigator(planner, 2)

	got := nav.EstimateTravelSeconds(components.Position{X: 2.5, Y: 5.5}, components.Position{X: 22.5, Y: 5.5})
	if math.Abs(got-10) > 0.5 {
		t.Errorf("EstimateTravelSeconds = %f, want ~10", got)
	}

	_, walled := wallPlanner(t, false)
	blocked := NewNavigator(walled, 2)
	if got := blocked.EstimateTravelSeconds(components.Position{X: 5, Y: 5}, components.Position{X: 35, Y: 5}); !math.IsInf(got, 1) {
		t.Errorf("EstimateTravelSeconds across wall = %f, want +Inf", got)
	}
	if blocked.Reachable(components.Position{X: 5, Y: 5}, components.Position{X: 35, Y: 5}) {
		t.Error("Reachable across wall")
	}
}

func TestNavGridInflation(t *testing.T) {
	terrain := NewTerrainSystem(20, 20, 0.5)
	terrain.AddRock(10, 10, 1)

	tight := NewNavGridFromTerrain(terrain, 1, 0)
	wide := NewNavGridFromTerrain(terrain, 1, 2)
	if wide.OpenCells() >= tight.OpenCells() {
		t.Errorf("inflation did not block more cells: %d vs %d", wide.OpenCells(), tight.OpenCells())
	}
	if !wide.IsBlockedWorld(10, 12.5) {
		t.Error("cell next to rock should be blocked with inflation")
	}
	if !tight.IsBlockedWorld(-1, 5) {
		t.Error("out of bounds should be blocked")
	}

	p, ok := wide.NearestOpen(10, 10)
	if !ok || wide.IsBlockedWorld(p.X, p.Y) {
		t.Errorf("NearestOpen = %v, %v", p, ok)
	}
}

func TestTerrainGenerateKeepsClearings(t *testing.T) {
	terrain := NewTerrainSystem(60, 60, 0.5)
	keep := []components.Position{{X: 12, Y: 30}, {X: 48, Y: 30}}
	terrain.Generate(42, TerrainParams{Scale: 0.08, Octaves: 3, Threshold: 0.5, ClearRadius: 4}, keep)

	for _, p := range keep {
		if terrain.IsSolid(p.X, p.Y) {
			t.Errorf("clearing at %v contains rock", p)
		}
	}
	frac := terrain.RockFraction()
	if frac <= 0 || frac >= 0.9 {
		t.Errorf("rock fraction %f out of range", frac)
	}

	again := NewTerrainSystem(60, 60, 0.5)
	again.Generate(42, TerrainParams{Scale: 0.08, Octaves: 3, Threshold: 0.5, ClearRadius: 4}, keep)
	if again.RockFraction() != frac {
		t.Error("generation not deterministic for a seed")
	}
}
