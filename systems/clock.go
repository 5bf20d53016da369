package systems

// Clock supplies timestamps for rate limits such as boss damage cooldowns.
type Clock interface {
	NowMs() float64
}

// SimClock advances only when the simulation steps, so runs are reproducible.
type SimClock struct {
	ms float64
}

// Advance moves the clock forward by dtMs.
func (c *SimClock) Advance(dtMs float64) {
	if dtMs > 0 {
		c.ms += dtMs
	}
}

// NowMs returns simulated milliseconds since start.
func (c *SimClock) NowMs() float64 { return c.ms }
