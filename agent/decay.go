package agent

// tickEpsilon absorbs float drift from accumulating fractional steps,
// so ten steps of 0.1s fire a 1s tick on the tenth step.
const tickEpsilon = 1e-9

// DecayDriver fires a tick every Interval seconds of simulation time.
type DecayDriver struct {
	Interval float64
	elapsed  float64
}

// Advance adds dt to the accumulated time and returns how many ticks fired.
func (d *DecayDriver) Advance(dt float64) int {
	if d.Interval <= 0 || dt <= 0 {
		return 0
	}
	d.elapsed += dt
	n := 0
	for d.elapsed+tickEpsilon >= d.Interval {
		d.elapsed -= d.Interval
		n++
	}
	if d.elapsed < 0 {
		d.elapsed = 0
	}
	return n
}

// Elapsed returns the time accumulated toward the next tick.
func (d *DecayDriver) Elapsed() float64 {
	return d.elapsed
}
