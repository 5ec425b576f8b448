package systems

import (
	"math/rand"

	"github.com/pthm-cable/squim/components"
)

// NavGrid stores a navigation grid for A* pathfinding.
// Cells are marked as blocked (true) or open (false).
type NavGrid struct {
	cells    []bool  // true = blocked
	cellSize float32 // world units per cell
	width    int     // grid width in cells
	height   int     // grid height in cells
}

// NewNavGridFromTerrain creates a navigation grid from terrain, inflated by a radius.
// A cell is blocked when a rock cell center lies within half a nav cell plus
// 'inflation' world units of the cell center.
func NewNavGridFromTerrain(terrain *TerrainSystem, cellSize, inflation float32) *NavGrid {
	w := int(terrain.width / cellSize)
	h := int(terrain.height / cellSize)

	grid := &NavGrid{
		cells:    make([]bool, w*h),
		cellSize: cellSize,
		width:    w,
		height:   h,
	}

	reach := inflation + cellSize*0.5
	reachSq := reach * reach

	for gy := 0; gy < h; gy++ {
		for gx := 0; gx < w; gx++ {
			centerX := (float32(gx) + 0.5) * cellSize
			centerY := (float32(gy) + 0.5) * cellSize

			// Convert to terrain grid coordinates
			tMinX := max(int((centerX-reach)/terrain.cellSize), 0)
			tMaxX := min(int((centerX+reach)/terrain.cellSize), terrain.gridWidth-1)
			tMinY := max(int((centerY-reach)/terrain.cellSize), 0)
			tMaxY := min(int((centerY+reach)/terrain.cellSize), terrain.gridHeight-1)

			blocked := false
			for ty := tMinY; ty <= tMaxY && !blocked; ty++ {
				for tx := tMinX; tx <= tMaxX && !blocked; tx++ {
					if terrain.grid[ty][tx] == TerrainEmpty {
						continue
					}
					tcX := (float32(tx) + 0.5) * terrain.cellSize
					tcY := (float32(ty) + 0.5) * terrain.cellSize
					dx := centerX - tcX
					dy := centerY - tcY
					if dx*dx+dy*dy < reachSq {
						blocked = true
					}
				}
			}

			grid.cells[gy*w+gx] = blocked
		}
	}

	return grid
}

// IsBlocked returns true if the given nav grid cell is blocked.
func (g *NavGrid) IsBlocked(gx, gy int) bool {
	if gx < 0 || gx >= g.width || gy < 0 || gy >= g.height {
		return true // Out of bounds is blocked
	}
	return g.cells[gy*g.width+gx]
}

// IsBlockedWorld returns true if the world position is in a blocked cell.
func (g *NavGrid) IsBlockedWorld(x, y float32) bool {
	if x < 0 || y < 0 {
		return true
	}
	gx, gy := g.WorldToGrid(x, y)
	return g.IsBlocked(gx, gy)
}

// WorldToGrid converts world coordinates to nav grid coordinates.
func (g *NavGrid) WorldToGrid(x, y float32) (gx, gy int) {
	gx = int(x / g.cellSize)
	gy = int(y / g.cellSize)
	return
}

// GridToWorld converts nav grid coordinates to world coordinates (cell center).
func (g *NavGrid) GridToWorld(gx, gy int) (x, y float32) {
	x = (float32(gx) + 0.5) * g.cellSize
	y = (float32(gy) + 0.5) * g.cellSize
	return
}

// NearestOpen returns the center of the open cell closest to (x, y).
func (g *NavGrid) NearestOpen(x, y float32) (components.Position, bool) {
	gx, gy, ok := g.openCellNear(x, y)
	if !ok {
		return components.Position{}, false
	}
	wx, wy := g.GridToWorld(gx, gy)
	return components.Position{X: wx, Y: wy}, true
}

// maxSnapRings bounds how far a blocked point may snap to open water.
const maxSnapRings = 10

// openCellNear returns the cell containing (x, y), or the first open cell on
// the square rings around it.
func (g *NavGrid) openCellNear(x, y float32) (int, int, bool) {
	gx, gy := g.WorldToGrid(x, y)
	if !g.IsBlocked(gx, gy) {
		return gx, gy, true
	}
	for r := 1; r < maxSnapRings; r++ {
		for dy := -r; dy <= r; dy++ {
			// Interior rows only need the two ring columns
			stride := 2 * r
			if dy == -r || dy == r {
				stride = 1
			}
			for dx := -r; dx <= r; dx += stride {
				if !g.IsBlocked(gx+dx, gy+dy) {
					return gx + dx, gy + dy, true
				}
			}
		}
	}
	return -1, -1, false
}

// RandomOpenNear samples an open cell within radius of (cx, cy).
// Gives up after a bounded number of tries.
func (g *NavGrid) RandomOpenNear(rng *rand.Rand, cx, cy, radius float32) (components.Position, bool) {
	for range 32 {
		x := cx + (rng.Float32()*2-1)*radius
		y := cy + (rng.Float32()*2-1)*radius
		dx, dy := x-cx, y-cy
		if dx*dx+dy*dy > radius*radius {
			continue
		}
		if !g.IsBlockedWorld(x, y) {
			return components.Position{X: x, Y: y}, true
		}
	}
	return components.Position{}, false
}

// Size returns the covered world extent.
func (g *NavGrid) Size() (w, h float32) {
	return float32(g.width) * g.cellSize, float32(g.height) * g.cellSize
}

// OpenCells returns the number of open cells.
func (g *NavGrid) OpenCells() int {
	n := 0
	for _, b := range g.cells {
		if !b {
			n++
		}
	}
	return n
}
