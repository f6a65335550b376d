package ftl

import "github.com/sarchlab/nandsim/nand"

// baselineStrategy is the fixed first-fit reference strategy. It allocates
// from a rotating cursor and reclaims the block with the most invalid
// pages.
type baselineStrategy struct {
	*Comp

	cursor int
}

func newBaselineStrategy(c *Comp) *baselineStrategy {
	return &baselineStrategy{Comp: c}
}

func (s *baselineStrategy) Name() string {
	return "baseline"
}

// AllocatePage scans blocks starting from the rotating cursor and returns
// the first one with spare capacity. The cursor stays on the block it
// found so consecutive writes fill one block before moving on.
func (s *baselineStrategy) AllocatePage() (nand.PageAddr, error) {
	numBlocks := s.device.NumBlocks()

	for i := 0; i < numBlocks; i++ {
		block := s.device.Block(s.cursor)
		if block.FreePages() > 0 {
			return nand.PageAddr{
				Block: s.cursor,
				Page:  block.WriteCursor(),
			}, nil
		}

		s.cursor = (s.cursor + 1) % numBlocks
	}

	return nand.PageAddr{}, ErrAllocationExhausted
}

// GarbageCollect reclaims the block with the most invalid pages. The block
// the cursor currently allocates from is skipped while it still has free
// capacity. No-op when no block holds invalid pages.
func (s *baselineStrategy) GarbageCollect() {
	var victim *nand.Block
	maxInvalid := -1

	for i := 0; i < s.device.NumBlocks(); i++ {
		block := s.device.Block(i)

		if i == s.cursor && block.FreePages() > 0 {
			continue
		}

		if block.InvalidPages() > maxInvalid {
			maxInvalid = block.InvalidPages()
			victim = block
		}
	}

	if victim == nil || maxInvalid == 0 {
		return
	}

	s.migrateVictim(victim)
}
