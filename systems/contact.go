package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/squim/components"
)

// Contact records a squim touching a fish.
type Contact struct {
	SquimID uint32
	Squim   ecs.Entity
	Fish    ecs.Entity
}

// ContactQueue buffers contacts detected during one step so they can be
// handled in order at the start of the next.
type ContactQueue struct {
	events []Contact
}

// Push appends a contact.
func (q *ContactQueue) Push(c Contact) {
	q.events = append(q.events, c)
}

// Drain appends all queued contacts to dst and empties the queue.
func (q *ContactQueue) Drain(dst []Contact) []Contact {
	dst = append(dst, q.events...)
	q.events = q.events[:0]
	return dst
}

// Len returns the number of queued contacts.
func (q *ContactQueue) Len() int { return len(q.events) }

// ContactSystem finds squim/fish circle overlaps.
type ContactSystem struct {
	squims        *ecs.Filter3[components.Position, components.Body, components.Squim]
	posMap        *ecs.Map1[components.Position]
	bodyMap       *ecs.Map1[components.Body]
	maxFishRadius float32
	buf           []Neighbor
}

// NewContactSystem creates a contact detector. maxFishRadius bounds the
// spatial query around each squim.
func NewContactSystem(world *ecs.World, maxFishRadius float32) *ContactSystem {
	return &ContactSystem{
		squims:        ecs.NewFilter3[components.Position, components.Body, components.Squim](world),
		posMap:        ecs.NewMap1[components.Position](world),
		bodyMap:       ecs.NewMap1[components.Body](world),
		maxFishRadius: maxFishRadius,
		buf:           make([]Neighbor, 0, MaxQueryResults),
	}
}

// Detect queues a contact for every squim overlapping a fish in fish.
func (s *ContactSystem) Detect(fish *SpatialGrid, queue *ContactQueue) {
	query := s.squims.Query()
	for query.Next() {
		pos, body, squim := query.Get()
		e := query.Entity()

		s.buf = fish.QueryRadiusInto(s.buf[:0], pos.X, pos.Y, body.Radius+s.maxFishRadius, e, s.posMap)
		for _, n := range s.buf {
			fb := s.bodyMap.Get(n.E)
			if fb == nil {
				continue
			}
			reach := body.Radius + fb.Radius
			if n.DistSq <= reach*reach {
				queue.Push(Contact{SquimID: squim.ID, Squim: e, Fish: n.E})
			}
		}
	}
}
