package agent

// Arbiter guards a single-occupancy resource such as the bed.
// One Arbiter belongs to one simulation and is shared by all of its agents.
type Arbiter struct {
	holder uint32
	held   bool
}

// NewArbiter returns a free arbiter.
func NewArbiter() *Arbiter {
	return &Arbiter{}
}

// TryClaim takes the resource for id. It succeeds if the resource is free
// or already held by id.
func (b *Arbiter) TryClaim(id uint32) bool {
	if b.held && b.holder != id {
		return false
	}
	b.holder = id
	b.held = true
	return true
}

// Release frees the resource if id holds it. Otherwise it does nothing.
func (b *Arbiter) Release(id uint32) {
	if b.held && b.holder == id {
		b.held = false
		b.holder = 0
	}
}

// Available reports whether id could claim the resource right now.
func (b *Arbiter) Available(id uint32) bool {
	return !b.held || b.holder == id
}

// Holder returns the current holder.
func (b *Arbiter) Holder() (uint32, bool) {
	return b.holder, b.held
}
