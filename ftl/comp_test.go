package ftl

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/nandsim/nand"
)

func buildComp(kind StrategyKind, blocks, pagesPerBlock int) *Comp {
	device := nand.MakeBuilder().
		WithNumBlocks(blocks).
		WithPagesPerBlock(pagesPerBlock).
		WithOverprovisionRatio(0.0).
		Build("Dev")

	return MakeBuilder().
		WithDevice(device).
		WithStrategy(kind).
		Build("FTL")
}

// expectInvariants checks the two structural invariants: per-block page
// counts add up to capacity, and every mapped logical address has exactly
// one valid page on the whole device.
func expectInvariants(c *Comp) {
	GinkgoHelper()

	device := c.Device()
	for i := 0; i < device.NumBlocks(); i++ {
		block := device.Block(i)
		Expect(block.FreePages()+
			block.ValidPages()+
			block.InvalidPages()).To(Equal(block.Capacity()))
	}

	Expect(device.TotalValidPages()).To(Equal(c.NumMapped()))

	for lba, addr := range c.table {
		page := device.Block(addr.Block).Page(addr.Page)
		Expect(page.State).To(Equal(nand.PageValid))
		Expect(page.LogicalAddr).To(Equal(lba))
	}
}

var _ = Describe("Comp write path", func() {
	var (
		mockCtrl *gomock.Controller
		strategy *MockStrategy
		comp     *Comp
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		strategy = NewMockStrategy(mockCtrl)
		comp = buildComp(StrategyBaseline, 4, 4)
		comp.strategy = strategy
	})

	It("should place a write where the strategy allocates", func() {
		strategy.EXPECT().
			AllocatePage().
			Return(nand.PageAddr{Block: 2, Page: 0}, nil)

		err := comp.Write(42)

		Expect(err).ToNot(HaveOccurred())
		Expect(comp.HostWrites()).To(Equal(uint64(1)))
		Expect(comp.PhysicalWrites()).To(Equal(uint64(1)))

		addr, err := comp.Read(42)
		Expect(err).ToNot(HaveOccurred())
		Expect(addr).To(Equal(nand.PageAddr{Block: 2, Page: 0}))
	})

	It("should force exactly one GC pass when allocation fails", func() {
		gomock.InOrder(
			strategy.EXPECT().
				AllocatePage().
				Return(nand.PageAddr{}, ErrAllocationExhausted),
			strategy.EXPECT().GarbageCollect(),
			strategy.EXPECT().
				AllocatePage().
				Return(nand.PageAddr{}, ErrAllocationExhausted),
		)

		err := comp.Write(42)

		Expect(err).To(MatchError(ErrStorageExhausted))
		Expect(comp.GCInvocations()).To(Equal(uint64(1)))
	})

	It("should recover when the forced GC pass frees a page", func() {
		gomock.InOrder(
			strategy.EXPECT().
				AllocatePage().
				Return(nand.PageAddr{}, ErrAllocationExhausted),
			strategy.EXPECT().GarbageCollect(),
			strategy.EXPECT().
				AllocatePage().
				Return(nand.PageAddr{Block: 1, Page: 0}, nil),
		)

		err := comp.Write(42)

		Expect(err).ToNot(HaveOccurred())
		Expect(comp.PhysicalWrites()).To(Equal(uint64(1)))
	})

	It("should invalidate the old copy on overwrite", func() {
		strategy.EXPECT().
			AllocatePage().
			Return(nand.PageAddr{Block: 0, Page: 0}, nil)
		strategy.EXPECT().
			AllocatePage().
			Return(nand.PageAddr{Block: 1, Page: 0}, nil)

		Expect(comp.Write(42)).To(Succeed())
		Expect(comp.Write(42)).To(Succeed())

		Expect(comp.Device().Block(0).InvalidPages()).To(Equal(1))
		addr, err := comp.Read(42)
		Expect(err).ToNot(HaveOccurred())
		Expect(addr).To(Equal(nand.PageAddr{Block: 1, Page: 0}))
	})
})

var _ = Describe("Comp read path", func() {
	It("should fail with ErrNotMapped before the first write", func() {
		comp := buildComp(StrategyBaseline, 4, 4)

		_, err := comp.Read(7)

		Expect(err).To(MatchError(ErrNotMapped))
	})
})

var _ = Describe("Comp fresh-fill scenario", func() {
	var comp *Comp

	BeforeEach(func() {
		comp = buildComp(StrategyBaseline, 4, 4)
	})

	It("should fill the device with WAF 1.0 and then exhaust", func() {
		for lba := uint64(0); lba < 16; lba++ {
			Expect(comp.Write(lba)).To(Succeed())
		}

		Expect(comp.Device().TotalValidPages()).To(Equal(16))
		Expect(comp.Device().TotalInvalidPages()).To(Equal(0))
		Expect(comp.WAF()).To(Equal(1.0))
		expectInvariants(comp)

		// Nothing is reclaimable, so the 17th write must fail even though
		// it triggers garbage collection.
		gcBefore := comp.GCInvocations()
		err := comp.Write(16)

		Expect(err).To(MatchError(ErrStorageExhausted))
		Expect(comp.GCInvocations()).To(BeNumerically(">", gcBefore))
		expectInvariants(comp)
	})
})

var _ = Describe("Comp single-address overwrite scenario", func() {
	It("should keep one valid copy and WAF 1.0", func() {
		comp := buildComp(StrategyBaseline, 4, 4)

		for i := 0; i < 6; i++ {
			Expect(comp.Write(7)).To(Succeed())
		}

		Expect(comp.HostWrites()).To(Equal(uint64(6)))
		Expect(comp.PhysicalWrites()).To(Equal(uint64(6)))
		Expect(comp.WAF()).To(Equal(1.0))

		Expect(comp.Device().TotalValidPages()).To(Equal(1))
		Expect(comp.Device().TotalInvalidPages()).To(BeNumerically("<=", 5))

		addr, err := comp.Read(7)
		Expect(err).ToNot(HaveOccurred())

		owner := comp.Device().Block(addr.Block)
		Expect(owner.ValidPages()).To(Equal(1))
		expectInvariants(comp)
	})
})

var _ = Describe("Comp under random traffic", func() {
	runRandomTraffic := func(kind StrategyKind) *Comp {
		comp := buildComp(kind, 8, 8)
		logicalSpace := uint64(comp.Device().LogicalCapacity()) * 3 / 4
		rng := rand.New(rand.NewSource(42))

		for i := 0; i < 5000; i++ {
			err := comp.Write(rng.Uint64() % logicalSpace)
			Expect(err).ToNot(HaveOccurred())
		}

		return comp
	}

	It("should hold the invariants under the baseline strategy", func() {
		comp := runRandomTraffic(StrategyBaseline)

		expectInvariants(comp)
		Expect(comp.WAF()).To(BeNumerically(">=", 1.0))
		Expect(comp.GCInvocations()).To(BeNumerically(">", uint64(0)))
	})

	It("should hold the invariants under the adaptive strategy", func() {
		comp := runRandomTraffic(StrategyAdaptive)

		expectInvariants(comp)
		Expect(comp.WAF()).To(BeNumerically(">=", 1.0))
		Expect(comp.GCInvocations()).To(BeNumerically(">", uint64(0)))
	})
})
