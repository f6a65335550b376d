package ftl

import (
	"math"

	"github.com/sarchlab/nandsim/nand"
)

// adaptiveStrategy scores garbage-collection victims with tunable weights
// and relies entirely on GC for wear distribution. Allocation is a pure
// first-fit scan; the weight controller periodically rewrites the scoring
// weights from metric feedback.
type adaptiveStrategy struct {
	*Comp

	controller *weightController
}

func newAdaptiveStrategy(c *Comp, interval uint64) *adaptiveStrategy {
	return &adaptiveStrategy{
		Comp:       c,
		controller: newWeightController(interval),
	}
}

func (s *adaptiveStrategy) Name() string {
	return "adaptive"
}

// AllocatePage returns the first block in index order with spare capacity.
func (s *adaptiveStrategy) AllocatePage() (nand.PageAddr, error) {
	for i := 0; i < s.device.NumBlocks(); i++ {
		block := s.device.Block(i)
		if block.FreePages() > 0 {
			return nand.PageAddr{
				Block: i,
				Page:  block.WriteCursor(),
			}, nil
		}
	}

	return nand.PageAddr{}, ErrAllocationExhausted
}

// GarbageCollect reclaims the block with the highest score
//
//	score = alpha*(invalid/cap) - gamma*(valid/cap) + beta*(1 - erase/maxErase)
//
// over all blocks holding invalid pages. Ties go to the
// first-encountered block in index order. No-op when no block is eligible.
func (s *adaptiveStrategy) GarbageCollect() {
	victim := s.findVictim()
	if victim == nil {
		return
	}

	s.migrateVictim(victim)
}

// findVictim is a pure function of the current block states and weights.
func (s *adaptiveStrategy) findVictim() *nand.Block {
	weights := s.controller.weights

	maxErase := s.device.MaxEraseCount()
	if maxErase == 0 {
		maxErase = 1
	}

	var victim *nand.Block
	bestScore := math.Inf(-1)

	for i := 0; i < s.device.NumBlocks(); i++ {
		block := s.device.Block(i)
		if block.InvalidPages() == 0 {
			continue
		}

		capacity := float64(block.Capacity())
		efficiency := float64(block.InvalidPages()) / capacity
		migrationCost := float64(block.ValidPages()) / capacity
		wearScore := 1.0 - float64(block.EraseCount())/float64(maxErase)

		score := weights.Alpha*efficiency -
			weights.Gamma*migrationCost +
			weights.Beta*wearScore

		if score > bestScore {
			bestScore = score
			victim = block
		}
	}

	return victim
}

// hostWriteDone runs one weight-adaptation round every adaptation
// interval.
func (s *adaptiveStrategy) hostWriteDone() {
	if s.hostWrites%s.controller.interval != 0 {
		return
	}

	s.controller.adapt(s.WAF(), s.WearVariance())
}
