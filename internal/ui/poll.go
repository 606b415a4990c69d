package ui

// pollTask is the explicit polling state of a view that fetches on a timer.
// Every start or stop bumps the generation; ticks and results carry the
// generation they were issued under and are dropped when it no longer
// matches. At most one fetch is in flight, and the next tick is only
// scheduled once that fetch has finished, so a slow source is never polled
// faster than the interval.
type pollTask struct {
	gen      uint64
	active   bool
	inFlight bool
}

// start begins a fresh polling cycle and returns its generation. Anything
// issued under an earlier generation becomes stale.
func (p *pollTask) start() uint64 {
	p.gen++
	p.active = true
	p.inFlight = false
	return p.gen
}

// stop ends polling; outstanding ticks and results become stale.
func (p *pollTask) stop() {
	p.gen++
	p.active = false
	p.inFlight = false
}

// begin claims the fetch slot for a tick issued under gen.
func (p *pollTask) begin(gen uint64) bool {
	if !p.active || gen != p.gen || p.inFlight {
		return false
	}
	p.inFlight = true
	return true
}

// finish releases the fetch slot and reports whether the result is current.
func (p *pollTask) finish(gen uint64) bool {
	if gen != p.gen {
		return false
	}
	p.inFlight = false
	return p.active
}

// current reports whether gen is the live generation of an active task.
func (p pollTask) current(gen uint64) bool {
	return p.active && gen == p.gen
}
