package nand

import "fmt"

// A Device is an ordered collection of blocks. The over-provisioning ratio
// defines how much physical capacity is held back from the addressable
// logical space; the device records it for capacity queries but does not
// enforce it.
type Device struct {
	name          string
	blocks        []*Block
	pagesPerBlock int
	opRatio       float64
}

// Name returns the name of the device.
func (d *Device) Name() string {
	return d.name
}

// NumBlocks returns the number of blocks on the device.
func (d *Device) NumBlocks() int {
	return len(d.blocks)
}

// PagesPerBlock returns the capacity of each block in pages.
func (d *Device) PagesPerBlock() int {
	return d.pagesPerBlock
}

// TotalPages returns the total physical capacity of the device in pages.
func (d *Device) TotalPages() int {
	return len(d.blocks) * d.pagesPerBlock
}

// OverprovisionRatio returns the fraction of physical capacity reserved
// beyond the addressable logical space.
func (d *Device) OverprovisionRatio() float64 {
	return d.opRatio
}

// LogicalCapacity returns the number of addressable logical pages after
// over-provisioning is subtracted.
func (d *Device) LogicalCapacity() int {
	return int(float64(d.TotalPages()) * (1.0 - d.opRatio))
}

// Block returns the block with the given index.
func (d *Device) Block(id int) *Block {
	if id < 0 || id >= len(d.blocks) {
		panic(fmt.Sprintf("block %d out of range on device %s", id, d.name))
	}

	return d.blocks[id]
}

// TotalFreePages returns the number of free pages across all blocks.
func (d *Device) TotalFreePages() int {
	total := 0
	for _, b := range d.blocks {
		total += b.freePages
	}

	return total
}

// TotalValidPages returns the number of valid pages across all blocks.
func (d *Device) TotalValidPages() int {
	total := 0
	for _, b := range d.blocks {
		total += b.validPages
	}

	return total
}

// TotalInvalidPages returns the number of invalid pages across all blocks.
func (d *Device) TotalInvalidPages() int {
	total := 0
	for _, b := range d.blocks {
		total += b.invalidPages
	}

	return total
}

// EraseCounts returns the per-block erase counts in block order.
func (d *Device) EraseCounts() []uint64 {
	counts := make([]uint64, len(d.blocks))
	for i, b := range d.blocks {
		counts[i] = b.eraseCount
	}

	return counts
}

// MaxEraseCount returns the highest erase count among all blocks.
func (d *Device) MaxEraseCount() uint64 {
	max := uint64(0)
	for _, b := range d.blocks {
		if b.eraseCount > max {
			max = b.eraseCount
		}
	}

	return max
}

// MinEraseCount returns the lowest erase count among all blocks.
func (d *Device) MinEraseCount() uint64 {
	if len(d.blocks) == 0 {
		return 0
	}

	min := d.blocks[0].eraseCount
	for _, b := range d.blocks[1:] {
		if b.eraseCount < min {
			min = b.eraseCount
		}
	}

	return min
}
