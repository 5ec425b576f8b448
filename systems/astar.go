package systems

import (
	"container/heap"
	"math"

	"github.com/pthm-cable/squim/components"
)

// neighborSteps lists the 8-connected moves; the first four are orthogonal.
var neighborSteps = [8]struct {
	dx, dy int
	cost   float32
}{
	{-1, 0, 1}, {1, 0, 1}, {0, -1, 1}, {0, 1, 1},
	{-1, -1, math.Sqrt2}, {1, -1, math.Sqrt2}, {-1, 1, math.Sqrt2}, {1, 1, math.Sqrt2},
}

// AStarPlanner provides A* pathfinding over a navigation grid. Search state
// lives in per-cell slices stamped with a search generation, so nothing is
// cleared between searches. A planner is not safe for concurrent use.
type AStarPlanner struct {
	grid *NavGrid

	open   openSet
	gScore []float32
	parent []int32
	seen   []uint32 // generation in which gScore/parent were written
	closed []uint32 // generation in which the cell was expanded
	gen    uint32
}

type openEntry struct {
	cell int32
	f    float32
}

// openSet is a binary min-heap on f.
type openSet []openEntry

func (h openSet) Len() int           { return len(h) }
func (h openSet) Less(i, j int) bool { return h[i].f < h[j].f }
func (h openSet) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *openSet) Push(x any)        { *h = append(*h, x.(openEntry)) }
func (h *openSet) Pop() any {
	old := *h
	e := old[len(old)-1]
	*h = old[:len(old)-1]
	return e
}

// NewAStarPlanner creates an A* planner for the given grid.
func NewAStarPlanner(grid *NavGrid) *AStarPlanner {
	n := grid.width * grid.height
	return &AStarPlanner{
		grid:   grid,
		open:   make(openSet, 0, 256),
		gScore: make([]float32, n),
		parent: make([]int32, n),
		seen:   make([]uint32, n),
		closed: make([]uint32, n),
	}
}

// Grid returns the planner's navigation grid.
func (a *AStarPlanner) Grid() *NavGrid { return a.grid }

// FindPath computes a path from start to goal. Blocked endpoints snap to the
// nearest open cell. Returns simplified waypoints in world coordinates, or nil
// if the goal cannot be reached.
func (a *AStarPlanner) FindPath(startX, startY, goalX, goalY float32) []components.Position {
	grid := a.grid

	sx, sy, ok := grid.openCellNear(startX, startY)
	if !ok {
		return nil
	}
	gx, gy, ok := grid.openCellNear(goalX, goalY)
	if !ok {
		return nil
	}

	if sx == gx && sy == gy {
		x, y := grid.GridToWorld(gx, gy)
		return []components.Position{{X: x, Y: y}}
	}

	start := int32(sy*grid.width + sx)
	goal := int32(gy*grid.width + gx)
	if !a.search(start, goal, gx, gy) {
		return nil
	}
	return simplifyPath(a.trace(start, goal), grid)
}

// search runs A* from start to goal and reports whether goal was expanded.
func (a *AStarPlanner) search(start, goal int32, goalGX, goalGY int) bool {
	grid := a.grid
	w := int32(grid.width)

	a.gen++
	if a.gen == 0 {
		// Generation wrapped; stale stamps could alias
		clear(a.seen)
		clear(a.closed)
		a.gen = 1
	}
	a.open = a.open[:0]

	a.visit(start, -1, 0)
	heap.Push(&a.open, openEntry{cell: start, f: octile(int(start%w), int(start/w), goalGX, goalGY)})

	for a.open.Len() > 0 {
		cur := heap.Pop(&a.open).(openEntry)
		if cur.cell == goal {
			return true
		}
		if a.closed[cur.cell] == a.gen {
			continue
		}
		a.closed[cur.cell] = a.gen

		cx, cy := int(cur.cell%w), int(cur.cell/w)
		base := a.gScore[cur.cell]
		for i, step := range neighborSteps {
			nx, ny := cx+step.dx, cy+step.dy
			if grid.IsBlocked(nx, ny) {
				continue
			}
			// Diagonals may not cut corners
			if i >= 4 && (grid.IsBlocked(cx+step.dx, cy) || grid.IsBlocked(cx, cy+step.dy)) {
				continue
			}
			next := int32(ny)*w + int32(nx)
			if a.closed[next] == a.gen {
				continue
			}
			g := base + step.cost
			if a.seen[next] == a.gen && g >= a.gScore[next] {
				continue
			}
			a.visit(next, cur.cell, g)
			heap.Push(&a.open, openEntry{cell: next, f: g + octile(nx, ny, goalGX, goalGY)})
		}
	}
	return false
}

func (a *AStarPlanner) visit(cell, from int32, g float32) {
	a.seen[cell] = a.gen
	a.gScore[cell] = g
	a.parent[cell] = from
}

// trace walks parents back from goal and returns cell centers start first.
func (a *AStarPlanner) trace(start, goal int32) []components.Position {
	grid := a.grid
	w := int32(grid.width)

	n := 1
	for c := goal; c != start; c = a.parent[c] {
		n++
	}
	path := make([]components.Position, n)
	c := goal
	for i := n - 1; i >= 0; i-- {
		x, y := grid.GridToWorld(int(c%w), int(c/w))
		path[i] = components.Position{X: x, Y: y}
		if c != start {
			c = a.parent[c]
		}
	}
	return path
}

// octile is the exact 8-connected distance on an open grid, in cells.
func octile(x1, y1, x2, y2 int) float32 {
	dx := float32(absInt(x2 - x1))
	dy := float32(absInt(y2 - y1))
	return max(dx, dy) + (math.Sqrt2-1)*min(dx, dy)
}

// simplifyPath drops waypoints the squim can skip in a straight line.
func simplifyPath(path []components.Position, grid *NavGrid) []components.Position {
	if len(path) <= 2 {
		return path
	}

	out := []components.Position{path[0]}
	anchor := path[0]
	for i := 1; i < len(path)-1; i++ {
		if !hasLineOfSight(grid, anchor, path[i+1]) {
			out = append(out, path[i])
			anchor = path[i]
		}
	}
	return append(out, path[len(path)-1])
}

// hasLineOfSight samples the segment a-b at quarter-cell steps.
func hasLineOfSight(grid *NavGrid, a, b components.Position) bool {
	dist := a.Dist(b)
	if dist < 0.01 {
		return true
	}

	step := grid.cellSize * 0.25
	ux, uy := (b.X-a.X)/dist, (b.Y-a.Y)/dist
	for t := float32(0); ; t += step {
		t = min(t, dist)
		if grid.IsBlockedWorld(a.X+ux*t, a.Y+uy*t) {
			return false
		}
		if t == dist {
			return true
		}
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// PathLength returns the distance from start along every waypoint of path.
func PathLength(start components.Position, path []components.Position) float32 {
	if len(path) == 0 {
		return 0
	}
	d := start.Dist(path[0])
	for i := 1; i < len(path); i++ {
		d += path[i-1].Dist(path[i])
	}
	return d
}
