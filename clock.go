package memsim

// logicalClock is a per-level monotonically increasing counter used as
// the timestamp source for load_time/last_access. It is a plain
// counter ticked synchronously by the caller, never a background
// goroutine, and it advances only on stat-counted probes, never on a
// fill that merely follows one.
type logicalClock struct {
	now uint64
}

// tick advances the clock by one and returns the new value.
func (c *logicalClock) tick() uint64 {
	c.now++
	return c.now
}

// peek returns the current value without advancing it, for use by
// fill and by the replacement-policy hooks that run after a probe has
// already ticked the clock for this access.
func (c *logicalClock) peek() uint64 {
	return c.now
}
