package nand

import "fmt"

// Builder can build NAND flash devices.
type Builder struct {
	numBlocks     int
	pagesPerBlock int
	opRatio       float64
}

// MakeBuilder returns a new Builder with default geometry.
func MakeBuilder() Builder {
	return Builder{
		numBlocks:     50,
		pagesPerBlock: 64,
		opRatio:       0.1,
	}
}

// WithNumBlocks sets the number of blocks on the device.
func (b Builder) WithNumBlocks(n int) Builder {
	b.numBlocks = n
	return b
}

// WithPagesPerBlock sets the capacity of each block in pages.
func (b Builder) WithPagesPerBlock(n int) Builder {
	b.pagesPerBlock = n
	return b
}

// WithOverprovisionRatio sets the fraction of physical capacity reserved
// beyond the addressable logical space.
func (b Builder) WithOverprovisionRatio(r float64) Builder {
	b.opRatio = r
	return b
}

// Build builds a new Device.
func (b Builder) Build(name string) *Device {
	if b.numBlocks <= 0 {
		panic(fmt.Sprintf("device must have at least 1 block, got %d",
			b.numBlocks))
	}

	if b.pagesPerBlock <= 0 {
		panic(fmt.Sprintf("block must have at least 1 page, got %d",
			b.pagesPerBlock))
	}

	if b.opRatio < 0 || b.opRatio >= 1 {
		panic(fmt.Sprintf("over-provision ratio must be in [0, 1), got %f",
			b.opRatio))
	}

	d := &Device{
		name:          name,
		pagesPerBlock: b.pagesPerBlock,
		opRatio:       b.opRatio,
	}

	d.blocks = make([]*Block, b.numBlocks)
	for i := range d.blocks {
		d.blocks[i] = newBlock(i, b.pagesPerBlock)
	}

	return d
}
