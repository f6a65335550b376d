package nand

import "fmt"

// A Block is a fixed-size sequence of pages that can only be programmed
// in order and erased as a whole. The write cursor marks the next unused
// slot; it never moves backward between erases.
type Block struct {
	id    int
	pages []Page

	eraseCount   uint64
	freePages    int
	validPages   int
	invalidPages int
	writeCursor  int
}

func newBlock(id, pagesPerBlock int) *Block {
	return &Block{
		id:        id,
		pages:     make([]Page, pagesPerBlock),
		freePages: pagesPerBlock,
	}
}

// ID returns the index of the block on the device.
func (b *Block) ID() int {
	return b.id
}

// Capacity returns the number of pages in the block.
func (b *Block) Capacity() int {
	return len(b.pages)
}

// EraseCount returns how many times the block has been erased.
func (b *Block) EraseCount() uint64 {
	return b.eraseCount
}

// FreePages returns the number of pages that have not been programmed
// since the last erase.
func (b *Block) FreePages() int {
	return b.freePages
}

// ValidPages returns the number of pages holding live data.
func (b *Block) ValidPages() int {
	return b.validPages
}

// InvalidPages returns the number of pages holding stale data.
func (b *Block) InvalidPages() int {
	return b.invalidPages
}

// WriteCursor returns the index of the next unused page slot.
func (b *Block) WriteCursor() int {
	return b.writeCursor
}

// Page returns a copy of the page at the given index.
func (b *Block) Page(index int) Page {
	if index < 0 || index >= len(b.pages) {
		panic(fmt.Sprintf("page index %d out of range on block %d",
			index, b.id))
	}

	return b.pages[index]
}

// Write programs the page at the write cursor with the given logical
// address and returns the index of the programmed page. It returns
// ErrBlockFull when the cursor has reached the end of the block. Write
// never erases implicitly.
func (b *Block) Write(logicalAddr uint64) (int, error) {
	if b.writeCursor >= len(b.pages) {
		return 0, ErrBlockFull
	}

	page := &b.pages[b.writeCursor]
	page.State = PageValid
	page.LogicalAddr = logicalAddr

	b.freePages--
	b.validPages++
	b.writeCursor++

	return b.writeCursor - 1, nil
}

// Invalidate marks the page at the given index as stale. It is idempotent:
// pages that are not currently Valid are left untouched.
func (b *Block) Invalidate(index int) {
	if index < 0 || index >= len(b.pages) {
		panic(fmt.Sprintf("page index %d out of range on block %d",
			index, b.id))
	}

	page := &b.pages[index]
	if page.State != PageValid {
		return
	}

	page.State = PageInvalid
	page.LogicalAddr = 0

	b.validPages--
	b.invalidPages++
}

// Erase unconditionally resets every page to Free, resets the write cursor,
// and increments the erase count. Erase does not check that valid pages
// were migrated first; erasing a block that still holds valid pages
// discards their data. Guarding against that is the caller's job.
func (b *Block) Erase() {
	for i := range b.pages {
		b.pages[i] = Page{}
	}

	b.freePages = len(b.pages)
	b.validPages = 0
	b.invalidPages = 0
	b.writeCursor = 0
	b.eraseCount++
}
