package ftl

import (
	"fmt"

	"github.com/sarchlab/nandsim/nand"
)

// A StrategyKind selects which allocation/GC strategy an FTL instance
// runs.
type StrategyKind int

const (
	// StrategyBaseline is the fixed first-fit reference strategy.
	StrategyBaseline StrategyKind = iota

	// StrategyAdaptive is the feedback-tuned scoring strategy.
	StrategyAdaptive
)

// String returns the name of the strategy kind.
func (k StrategyKind) String() string {
	switch k {
	case StrategyBaseline:
		return "baseline"
	case StrategyAdaptive:
		return "adaptive"
	default:
		return "unknown"
	}
}

// defaultMaxEraseLimit is the assumed per-block P/E cycle limit used for
// lifetime projection.
const defaultMaxEraseLimit = 10000

// Builder can build FTL instances.
type Builder struct {
	device        *nand.Device
	kind          StrategyKind
	maxEraseLimit uint64
	adaptInterval uint64
}

// MakeBuilder returns a new Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		kind:          StrategyBaseline,
		maxEraseLimit: defaultMaxEraseLimit,
		adaptInterval: defaultAdaptInterval,
	}
}

// WithDevice sets the device the FTL manages.
func (b Builder) WithDevice(d *nand.Device) Builder {
	b.device = d
	return b
}

// WithStrategy sets the allocation/GC strategy kind.
func (b Builder) WithStrategy(k StrategyKind) Builder {
	b.kind = k
	return b
}

// WithMaxEraseLimit sets the per-block P/E cycle limit assumed by the
// lifetime projection.
func (b Builder) WithMaxEraseLimit(limit uint64) Builder {
	b.maxEraseLimit = limit
	return b
}

// WithAdaptationInterval sets the number of host writes between weight
// adaptation rounds of the adaptive strategy.
func (b Builder) WithAdaptationInterval(interval uint64) Builder {
	b.adaptInterval = interval
	return b
}

// Build builds a new Comp.
func (b Builder) Build(name string) *Comp {
	if b.device == nil {
		panic("ftl requires a device")
	}

	if b.adaptInterval == 0 {
		panic("adaptation interval must be positive")
	}

	c := &Comp{
		name:          name,
		device:        b.device,
		table:         make(map[uint64]nand.PageAddr),
		maxEraseLimit: b.maxEraseLimit,
	}

	switch b.kind {
	case StrategyBaseline:
		c.strategy = newBaselineStrategy(c)
	case StrategyAdaptive:
		c.strategy = newAdaptiveStrategy(c, b.adaptInterval)
	default:
		panic(fmt.Sprintf("unknown strategy kind %d", b.kind))
	}

	return c
}
