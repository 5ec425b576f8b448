package components

import "math"

// Position represents an entity's world position.
type Position struct {
	X, Y float32
}

// DistSq returns the squared distance to o.
func (p Position) DistSq(o Position) float32 {
	dx := o.X - p.X
	dy := o.Y - p.Y
	return dx*dx + dy*dy
}

// Dist returns the distance to o.
func (p Position) Dist(o Position) float32 {
	return float32(math.Sqrt(float64(p.DistSq(o))))
}

// Nav holds path-following state for an entity that moves on the nav grid.
type Nav struct {
	Dest     Position   // Requested destination
	Path     []Position // Waypoints from the planner
	Index    int        // Next waypoint in Path
	Active   bool       // A move request is in progress
	Arrived  bool       // Remaining path is within Stopping
	Speed    float32    // World units per second
	Stopping float32    // Remaining distance that counts as arrived
}

// Remaining returns the path distance left from pos.
func (n *Nav) Remaining(pos Position) float32 {
	if !n.Active || n.Index >= len(n.Path) {
		return 0
	}
	d := pos.Dist(n.Path[n.Index])
	for i := n.Index + 1; i < len(n.Path); i++ {
		d += n.Path[i-1].Dist(n.Path[i])
	}
	return d
}
