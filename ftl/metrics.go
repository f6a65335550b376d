package ftl

import "math"

// The metric accessors in this file are side-effect free and may be
// queried at any time without mutating device or strategy state. The
// adaptive controller and external reporting both read them.

// HostWrites returns the number of host write commands issued so far.
func (c *Comp) HostWrites() uint64 {
	return c.hostWrites
}

// PhysicalWrites returns the number of page programs performed so far,
// including garbage-collection migrations.
func (c *Comp) PhysicalWrites() uint64 {
	return c.physicalWrites
}

// GCInvocations returns how many times garbage collection has been
// invoked, whether or not a victim was reclaimed.
func (c *Comp) GCInvocations() uint64 {
	return c.gcInvocations
}

// WAF returns the write amplification factor, physical writes over host
// writes. It is 1.0 before the first host write.
func (c *Comp) WAF() float64 {
	if c.hostWrites == 0 {
		return 1.0
	}

	return float64(c.physicalWrites) / float64(c.hostWrites)
}

// WearVariance returns the population variance of the per-block erase
// counts. Zero means perfectly uniform wear.
func (c *Comp) WearVariance() float64 {
	counts := c.device.EraseCounts()
	if len(counts) == 0 {
		return 0.0
	}

	mean := 0.0
	for _, count := range counts {
		mean += float64(count)
	}
	mean /= float64(len(counts))

	variance := 0.0
	for _, count := range counts {
		diff := float64(count) - mean
		variance += diff * diff
	}

	return variance / float64(len(counts))
}

// LifetimeEstimate projects how many host writes the device can absorb
// before the most-worn block reaches the erase limit. It is +Inf while no
// block has been erased.
func (c *Comp) LifetimeEstimate() float64 {
	maxErase := c.device.MaxEraseCount()
	if maxErase == 0 {
		return math.Inf(1)
	}

	return float64(c.maxEraseLimit) / float64(maxErase) *
		float64(c.hostWrites)
}

// Weights returns the adaptive strategy's current scoring weights. The
// second return value is false when the active strategy is not adaptive.
func (c *Comp) Weights() (Weights, bool) {
	s, ok := c.strategy.(*adaptiveStrategy)
	if !ok {
		return Weights{}, false
	}

	return s.controller.weights, true
}
