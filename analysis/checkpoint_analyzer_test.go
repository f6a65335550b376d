package analysis

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/sarchlab/nandsim/ftl"
	"github.com/sarchlab/nandsim/nand"
)

var _ = Describe("CheckpointAnalyzer", func() {
	var (
		mockCtrl *gomock.Controller
		recorder *MockDataRecorder
		comp     *ftl.Comp
		analyzer *CheckpointAnalyzer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		recorder = NewMockDataRecorder(mockCtrl)

		device := nand.MakeBuilder().
			WithNumBlocks(8).
			WithPagesPerBlock(8).
			WithOverprovisionRatio(0.0).
			Build("Dev")
		comp = ftl.MakeBuilder().
			WithDevice(device).
			WithStrategy(ftl.StrategyBaseline).
			Build("FTL")

		recorder.EXPECT().ListTables().Return(nil)
		recorder.EXPECT().CreateTable("checkpoints", CheckpointEntry{})
		recorder.EXPECT().CreateTable("summaries", SummaryEntry{})

		analyzer = MakeCheckpointAnalyzerBuilder().
			WithDataRecorder(recorder).
			WithComp(comp).
			WithCheckpointInterval(4).
			Build()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should record a checkpoint once per interval", func() {
		recorder.EXPECT().InsertData("checkpoints", CheckpointEntry{
			Strategy:       "baseline",
			HostWrites:     4,
			PhysicalWrites: 4,
			WAF:            1.0,
		})

		for lba := uint64(0); lba < 4; lba++ {
			Expect(comp.Write(lba)).To(Succeed())
			analyzer.HostWriteDone()
		}
	})

	It("should not record between checkpoints", func() {
		for lba := uint64(0); lba < 3; lba++ {
			Expect(comp.Write(lba)).To(Succeed())
			analyzer.HostWriteDone()
		}
	})

	It("should record consecutive checkpoints", func() {
		recorder.EXPECT().InsertData("checkpoints", CheckpointEntry{
			Strategy:       "baseline",
			HostWrites:     4,
			PhysicalWrites: 4,
			WAF:            1.0,
		})
		recorder.EXPECT().InsertData("checkpoints", CheckpointEntry{
			Strategy:       "baseline",
			HostWrites:     8,
			PhysicalWrites: 8,
			WAF:            1.0,
		})

		for lba := uint64(0); lba < 8; lba++ {
			Expect(comp.Write(lba)).To(Succeed())
			analyzer.HostWriteDone()
		}
	})

	It("should store a zero lifetime while no block has been erased", func() {
		recorder.EXPECT().InsertData("summaries", SummaryEntry{
			Strategy:       "baseline",
			HostWrites:     2,
			PhysicalWrites: 2,
			WAF:            1.0,
		})
		recorder.EXPECT().Flush()

		Expect(comp.Write(0)).To(Succeed())
		Expect(comp.Write(1)).To(Succeed())

		analyzer.Summarize()
	})

	It("should include the tuned weights for the adaptive strategy", func() {
		device := nand.MakeBuilder().
			WithNumBlocks(8).
			WithPagesPerBlock(8).
			WithOverprovisionRatio(0.0).
			Build("Dev2")
		adaptiveComp := ftl.MakeBuilder().
			WithDevice(device).
			WithStrategy(ftl.StrategyAdaptive).
			Build("FTL2")

		recorder.EXPECT().ListTables().Return(
			[]string{"checkpoints", "summaries"})

		adaptiveAnalyzer := MakeCheckpointAnalyzerBuilder().
			WithDataRecorder(recorder).
			WithComp(adaptiveComp).
			WithCheckpointInterval(1).
			Build()

		recorder.EXPECT().InsertData("checkpoints", CheckpointEntry{
			Strategy:       "adaptive",
			HostWrites:     1,
			PhysicalWrites: 1,
			WAF:            1.0,
			AlphaWeight:    1.0,
			BetaWeight:     1.0,
			GammaWeight:    1.0,
		})

		Expect(adaptiveComp.Write(0)).To(Succeed())
		adaptiveAnalyzer.HostWriteDone()
	})

	It("should require a recorder", func() {
		Expect(func() {
			MakeCheckpointAnalyzerBuilder().
				WithComp(comp).
				Build()
		}).To(Panic())
	})

	It("should require a controller", func() {
		Expect(func() {
			MakeCheckpointAnalyzerBuilder().
				WithDataRecorder(recorder).
				Build()
		}).To(Panic())
	})
})
