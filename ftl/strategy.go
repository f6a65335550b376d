package ftl

import (
	"fmt"

	"github.com/sarchlab/nandsim/nand"
)

// A Strategy decides where page writes land and which block garbage
// collection reclaims next. Implementations must return
// ErrAllocationExhausted from AllocatePage when no block on the device has
// spare capacity.
type Strategy interface {
	// AllocatePage returns a free physical location for one page write.
	AllocatePage() (nand.PageAddr, error)

	// GarbageCollect selects a victim block, migrates its valid pages to
	// fresh locations, and erases the victim. It is a no-op when no block
	// holds invalid pages.
	GarbageCollect()

	// Name returns the name of the strategy.
	Name() string
}

// hostWriteObserver lets a strategy run bookkeeping after each completed
// host write. The adaptive strategy uses it to drive weight adaptation.
type hostWriteObserver interface {
	hostWriteDone()
}

// migrateVictim moves every valid page of the victim, in page order, to a
// location chosen by the active strategy, remapping each logical address
// and invalidating the source copy as it goes. When allocation fails
// mid-migration the remaining pages stay in place. The victim is erased
// only once it holds no valid pages anymore; the original simulation
// erased unconditionally and silently discarded unmigrated data.
func (c *Comp) migrateVictim(victim *nand.Block) {
	// Valid pages only exist below the write cursor. Snapshot it so that
	// copies the strategy places into the victim itself are not migrated
	// again.
	end := victim.WriteCursor()

	for i := 0; i < end; i++ {
		page := victim.Page(i)
		if page.State != nand.PageValid {
			continue
		}

		addr, err := c.strategy.AllocatePage()
		if err != nil {
			break
		}

		index, err := c.device.Block(addr.Block).Write(page.LogicalAddr)
		if err != nil {
			panic(fmt.Sprintf("strategy %s allocated a full block: %v",
				c.strategy.Name(), err))
		}

		victim.Invalidate(i)
		c.table[page.LogicalAddr] = nand.PageAddr{
			Block: addr.Block,
			Page:  index,
		}
		c.physicalWrites++
	}

	if victim.ValidPages() == 0 {
		victim.Erase()
	}
}
