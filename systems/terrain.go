package systems

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/squim/components"
)

// TerrainCell represents the type of terrain in a cell.
type TerrainCell uint8

const (
	TerrainEmpty TerrainCell = iota
	TerrainRock
)

// TerrainParams controls rock generation.
type TerrainParams struct {
	Scale       float64 // Noise frequency per terrain cell
	Octaves     int
	Threshold   float64 // Normalized noise above this becomes rock
	ClearRadius float32 // Rock-free radius around each keep-clear point
}

// TerrainSystem holds the pond's rock layout.
type TerrainSystem struct {
	grid       [][]TerrainCell
	cellSize   float32
	width      float32
	height     float32
	gridWidth  int
	gridHeight int
}

// NewTerrainSystem creates an empty terrain covering width x height.
func NewTerrainSystem(width, height, cellSize float32) *TerrainSystem {
	gridWidth := int(width / cellSize)
	gridHeight := int(height / cellSize)

	grid := make([][]TerrainCell, gridHeight)
	for y := range grid {
		grid[y] = make([]TerrainCell, gridWidth)
	}

	return &TerrainSystem{
		grid:       grid,
		cellSize:   cellSize,
		width:      width,
		height:     height,
		gridWidth:  gridWidth,
		gridHeight: gridHeight,
	}
}

// Generate fills the grid with rocks from fractal simplex noise, then clears
// a circle around every point in keepClear so spawns and waypoints stay usable.
func (t *TerrainSystem) Generate(seed int64, p TerrainParams, keepClear []components.Position) {
	noise := opensimplex.NewNormalized(seed)
	octaves := p.Octaves
	if octaves < 1 {
		octaves = 1
	}

	for y := 0; y < t.gridHeight; y++ {
		for x := 0; x < t.gridWidth; x++ {
			v := octaveNoise(noise, float64(x), float64(y), octaves, p.Scale, 0.5)
			if v > p.Threshold {
				t.grid[y][x] = TerrainRock
			} else {
				t.grid[y][x] = TerrainEmpty
			}
		}
	}

	for _, c := range keepClear {
		t.ClearCircle(c.X, c.Y, p.ClearRadius)
	}
}

// octaveNoise sums octaves of noise, each at double frequency and
// persistence-scaled amplitude, normalized back to the noise range.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// ClearCircle removes rock within radius of (cx, cy).
func (t *TerrainSystem) ClearCircle(cx, cy, radius float32) {
	t.fillCircle(cx, cy, radius, TerrainEmpty)
}

// AddRock marks a circle as rock.
func (t *TerrainSystem) AddRock(cx, cy, radius float32) {
	t.fillCircle(cx, cy, radius, TerrainRock)
}

func (t *TerrainSystem) fillCircle(cx, cy, radius float32, cell TerrainCell) {
	minGX := int((cx - radius) / t.cellSize)
	maxGX := int((cx + radius) / t.cellSize)
	minGY := int((cy - radius) / t.cellSize)
	maxGY := int((cy + radius) / t.cellSize)

	radiusSq := radius * radius
	for gy := max(minGY, 0); gy <= min(maxGY, t.gridHeight-1); gy++ {
		for gx := max(minGX, 0); gx <= min(maxGX, t.gridWidth-1); gx++ {
			dx := (float32(gx)+0.5)*t.cellSize - cx
			dy := (float32(gy)+0.5)*t.cellSize - cy
			if dx*dx+dy*dy <= radiusSq {
				t.grid[gy][gx] = cell
			}
		}
	}
}

// IsSolid returns true if the world position is inside solid terrain.
func (t *TerrainSystem) IsSolid(x, y float32) bool {
	gx := int(x / t.cellSize)
	gy := int(y / t.cellSize)

	if gx < 0 || gx >= t.gridWidth || gy < 0 || gy >= t.gridHeight {
		return false
	}

	return t.grid[gy][gx] != TerrainEmpty
}

// RockFraction returns the share of cells that are rock.
func (t *TerrainSystem) RockFraction() float64 {
	if t.gridWidth == 0 || t.gridHeight == 0 {
		return 0
	}
	rock := 0
	for _, row := range t.grid {
		for _, c := range row {
			if c != TerrainEmpty {
				rock++
			}
		}
	}
	return float64(rock) / float64(t.gridWidth*t.gridHeight)
}

// Width returns the world width.
func (t *TerrainSystem) Width() float32 { return t.width }

// Height returns the world height.
func (t *TerrainSystem) Height() float32 { return t.height }
