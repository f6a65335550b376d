package nand

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Block", func() {
	var block *Block

	BeforeEach(func() {
		block = newBlock(0, 4)
	})

	countsMustAddUp := func() {
		Expect(block.FreePages() +
			block.ValidPages() +
			block.InvalidPages()).To(Equal(block.Capacity()))
	}

	It("should start with all pages free", func() {
		Expect(block.Capacity()).To(Equal(4))
		Expect(block.FreePages()).To(Equal(4))
		Expect(block.ValidPages()).To(Equal(0))
		Expect(block.InvalidPages()).To(Equal(0))
		Expect(block.WriteCursor()).To(Equal(0))
		Expect(block.EraseCount()).To(Equal(uint64(0)))
	})

	It("should program pages in order", func() {
		index, err := block.Write(100)
		Expect(err).ToNot(HaveOccurred())
		Expect(index).To(Equal(0))

		index, err = block.Write(101)
		Expect(err).ToNot(HaveOccurred())
		Expect(index).To(Equal(1))

		Expect(block.Page(0).State).To(Equal(PageValid))
		Expect(block.Page(0).LogicalAddr).To(Equal(uint64(100)))
		Expect(block.Page(1).LogicalAddr).To(Equal(uint64(101)))
		Expect(block.WriteCursor()).To(Equal(2))
		countsMustAddUp()
	})

	It("should refuse to write when full", func() {
		for i := 0; i < 4; i++ {
			_, err := block.Write(uint64(i))
			Expect(err).ToNot(HaveOccurred())
		}

		_, err := block.Write(99)
		Expect(err).To(MatchError(ErrBlockFull))
		Expect(block.FreePages()).To(Equal(0))
		countsMustAddUp()
	})

	It("should invalidate valid pages", func() {
		_, err := block.Write(100)
		Expect(err).ToNot(HaveOccurred())

		block.Invalidate(0)

		Expect(block.Page(0).State).To(Equal(PageInvalid))
		Expect(block.ValidPages()).To(Equal(0))
		Expect(block.InvalidPages()).To(Equal(1))
		countsMustAddUp()
	})

	It("should ignore invalidation of non-valid pages", func() {
		block.Invalidate(2)
		Expect(block.InvalidPages()).To(Equal(0))

		_, err := block.Write(100)
		Expect(err).ToNot(HaveOccurred())
		block.Invalidate(0)
		block.Invalidate(0)

		Expect(block.InvalidPages()).To(Equal(1))
		countsMustAddUp()
	})

	It("should panic on out-of-range page index", func() {
		Expect(func() { block.Invalidate(4) }).To(Panic())
		Expect(func() { block.Page(-1) }).To(Panic())
	})

	It("should reset everything on erase", func() {
		_, err := block.Write(100)
		Expect(err).ToNot(HaveOccurred())
		_, err = block.Write(101)
		Expect(err).ToNot(HaveOccurred())
		block.Invalidate(0)

		block.Erase()

		Expect(block.FreePages()).To(Equal(4))
		Expect(block.ValidPages()).To(Equal(0))
		Expect(block.InvalidPages()).To(Equal(0))
		Expect(block.WriteCursor()).To(Equal(0))
		Expect(block.EraseCount()).To(Equal(uint64(1)))
		for i := 0; i < 4; i++ {
			Expect(block.Page(i).State).To(Equal(PageFree))
		}
	})

	It("should erase even when valid pages remain", func() {
		// The migrated-first check is the caller's responsibility.
		_, err := block.Write(100)
		Expect(err).ToNot(HaveOccurred())

		block.Erase()

		Expect(block.ValidPages()).To(Equal(0))
		Expect(block.EraseCount()).To(Equal(uint64(1)))
	})

	It("should count erases monotonically", func() {
		for i := 0; i < 3; i++ {
			block.Erase()
		}

		Expect(block.EraseCount()).To(Equal(uint64(3)))
	})
})
