// Package ftl implements the flash translation layer of the simulator: the
// logical-to-physical mapping, the host write path with its proactive
// garbage-collection trigger, the two allocation/GC strategies, and the
// metric accessors that close the adaptive feedback loop.
package ftl

import (
	"errors"
	"fmt"

	"github.com/sarchlab/nandsim/nand"
)

// GC trigger tuning. The invalid-ratio threshold moves up under high write
// amplification and down under uneven wear. The computed threshold is
// clamped to [0, 1].
const (
	gcBaseThreshold = 0.20
	gcWAFCoeff      = 0.05
	gcVarianceCoeff = 0.01
)

// A Comp is one flash translation layer instance. It exclusively owns the
// device, the translation table, the active strategy, and the run counters.
// All operations are synchronous; one write completes, including any
// garbage collection it triggers, before the next is accepted.
type Comp struct {
	name     string
	device   *nand.Device
	strategy Strategy
	table    map[uint64]nand.PageAddr

	hostWrites     uint64
	physicalWrites uint64
	gcInvocations  uint64

	maxEraseLimit uint64
}

// Name returns the name of the FTL instance.
func (c *Comp) Name() string {
	return c.name
}

// Device returns the device the FTL manages.
func (c *Comp) Device() *nand.Device {
	return c.device
}

// StrategyName returns the name of the active strategy.
func (c *Comp) StrategyName() string {
	return c.strategy.Name()
}

// Write handles one host write to the given logical address. It may
// trigger garbage collection before placing the data. Write returns
// ErrStorageExhausted when no page can be allocated even after a forced
// garbage-collection pass.
func (c *Comp) Write(logicalAddr uint64) error {
	c.hostWrites++

	if c.shouldTriggerGC() {
		c.runGC()
	}

	if old, ok := c.table[logicalAddr]; ok {
		c.device.Block(old.Block).Invalidate(old.Page)
	}

	addr, err := c.strategy.AllocatePage()
	if errors.Is(err, ErrAllocationExhausted) {
		c.runGC()
		addr, err = c.strategy.AllocatePage()
	}

	if err != nil {
		return ErrStorageExhausted
	}

	index, err := c.device.Block(addr.Block).Write(logicalAddr)
	if err != nil {
		panic(fmt.Sprintf("strategy %s allocated a full block: %v",
			c.strategy.Name(), err))
	}

	c.table[logicalAddr] = nand.PageAddr{Block: addr.Block, Page: index}
	c.physicalWrites++

	if o, ok := c.strategy.(hostWriteObserver); ok {
		o.hostWriteDone()
	}

	return nil
}

// Read returns the physical location currently holding the logical
// address, or ErrNotMapped if the address has never been written.
func (c *Comp) Read(logicalAddr uint64) (nand.PageAddr, error) {
	addr, ok := c.table[logicalAddr]
	if !ok {
		return nand.PageAddr{}, ErrNotMapped
	}

	return addr, nil
}

// NumMapped returns the number of live logical addresses.
func (c *Comp) NumMapped() int {
	return len(c.table)
}

// shouldTriggerGC decides whether garbage collection should run before the
// next page placement. It triggers when free space is critically low or
// when the global invalid ratio exceeds a dynamic threshold derived from
// the current WAF and wear variance.
func (c *Comp) shouldTriggerGC() bool {
	if c.device.TotalFreePages() <= c.device.PagesPerBlock() {
		return true
	}

	threshold := gcBaseThreshold +
		gcWAFCoeff*c.WAF() -
		gcVarianceCoeff*c.WearVariance()
	threshold = clamp(threshold, 0.0, 1.0)

	invalidRatio := float64(c.device.TotalInvalidPages()) /
		float64(c.device.TotalPages())

	return invalidRatio > threshold
}

func (c *Comp) runGC() {
	c.gcInvocations++
	c.strategy.GarbageCollect()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
