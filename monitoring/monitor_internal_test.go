package monitoring

import (
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/nandsim/ftl"
	"github.com/sarchlab/nandsim/nand"
)

func newSampleController(name string) *ftl.Comp {
	device := nand.MakeBuilder().
		WithNumBlocks(4).
		WithPagesPerBlock(4).
		WithOverprovisionRatio(0.0).
		Build(name + ".Dev")

	return ftl.MakeBuilder().
		WithDevice(device).
		WithStrategy(ftl.StrategyBaseline).
		Build(name)
}

var _ = Describe("Monitor", func() {
	var (
		m          *Monitor
		controller *ftl.Comp
	)

	BeforeEach(func() {
		m = &Monitor{}
		controller = newSampleController("FTL")
		m.RegisterController(controller)
	})

	It("should register controllers", func() {
		Expect(m.controllers).To(HaveLen(1))
	})

	It("should reject an unknown sort method", func() {
		r := httptest.NewRequest("GET",
			"/api/controller/FTL/blocks?sort=color", nil)

		_, _, _, err := m.blocksParseParams(r)

		Expect(err).To(HaveOccurred())
	})

	It("should default to sorting by wear", func() {
		r := httptest.NewRequest("GET",
			"/api/controller/FTL/blocks", nil)

		sortMethod, limit, offset, err := m.blocksParseParams(r)

		Expect(err).ToNot(HaveOccurred())
		Expect(sortMethod).To(Equal("wear"))
		Expect(limit).To(Equal(0))
		Expect(offset).To(Equal(0))
	})

	It("should parse limit and offset", func() {
		r := httptest.NewRequest("GET",
			"/api/controller/FTL/blocks?sort=invalid&limit=2&offset=1", nil)

		sortMethod, limit, offset, err := m.blocksParseParams(r)

		Expect(err).ToNot(HaveOccurred())
		Expect(sortMethod).To(Equal("invalid"))
		Expect(limit).To(Equal(2))
		Expect(offset).To(Equal(1))
	})

	It("should sort blocks by invalid pages", func() {
		// Fill block 0 and invalidate three of its pages by overwriting.
		for lba := uint64(0); lba < 4; lba++ {
			Expect(controller.Write(lba)).To(Succeed())
		}
		for lba := uint64(0); lba < 3; lba++ {
			Expect(controller.Write(lba)).To(Succeed())
		}

		blocks := m.sortAndSelectBlocks(controller, "invalid", 0, 0)

		Expect(blocks).To(HaveLen(4))
		Expect(blocks[0].Block).To(Equal(0))
		Expect(blocks[0].InvalidPages).To(Equal(3))
	})

	It("should apply limit and offset", func() {
		blocks := m.sortAndSelectBlocks(controller, "wear", 2, 1)

		Expect(blocks).To(HaveLen(2))
		Expect(blocks[0].Block).To(Equal(1))
		Expect(blocks[1].Block).To(Equal(2))
	})

	It("should tolerate an offset past the end", func() {
		blocks := m.sortAndSelectBlocks(controller, "wear", 0, 100)

		Expect(blocks).To(BeEmpty())
	})

	It("should track progress", func() {
		bar := m.CreateProgressBar("writes", 100)
		bar.IncrementInProgress(10)
		bar.MoveInProgressToFinished(10)

		Expect(bar.Finished).To(Equal(uint64(10)))
		Expect(bar.InProgress).To(Equal(uint64(0)))
		Expect(m.progressBars).To(HaveLen(1))

		m.CompleteProgressBar(bar)
		Expect(m.progressBars).To(BeEmpty())
	})
})
