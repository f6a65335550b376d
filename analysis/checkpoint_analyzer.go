// Package analysis periodically samples controller metrics during a
// simulation run and stores them through the datarecording package.
package analysis

import (
	"math"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/nandsim/datarecording"
	"github.com/sarchlab/nandsim/ftl"
)

const (
	checkpointTable = "checkpoints"
	summaryTable    = "summaries"
)

// A CheckpointEntry is one sampled snapshot of the controller metrics.
type CheckpointEntry struct {
	Strategy         string
	HostWrites       uint64
	PhysicalWrites   uint64
	WAF              float64
	WearVariance     float64
	LifetimeEstimate float64
	GCInvocations    uint64
	AlphaWeight      float64
	BetaWeight       float64
	GammaWeight      float64
}

// A SummaryEntry describes the final state of a controller after a run.
type SummaryEntry struct {
	Strategy         string
	HostWrites       uint64
	PhysicalWrites   uint64
	WAF              float64
	WearVariance     float64
	LifetimeEstimate float64
	GCInvocations    uint64
	MaxEraseCount    uint64
	MinEraseCount    uint64
}

// A CheckpointAnalyzer samples the metrics of one controller every fixed
// number of host writes.
type CheckpointAnalyzer struct {
	recorder datarecording.DataRecorder
	comp     *ftl.Comp

	checkpointEvery uint64
	lastCheckpoint  uint64
}

// HostWriteDone tells the analyzer that one host write completed. A
// checkpoint is recorded whenever the configured interval has passed.
func (a *CheckpointAnalyzer) HostWriteDone() {
	hostWrites := a.comp.HostWrites()

	if hostWrites-a.lastCheckpoint < a.checkpointEvery {
		return
	}

	a.lastCheckpoint = hostWrites
	a.recordCheckpoint()
}

func (a *CheckpointAnalyzer) recordCheckpoint() {
	entry := CheckpointEntry{
		Strategy:         a.comp.StrategyName(),
		HostWrites:       a.comp.HostWrites(),
		PhysicalWrites:   a.comp.PhysicalWrites(),
		WAF:              a.comp.WAF(),
		WearVariance:     a.comp.WearVariance(),
		LifetimeEstimate: finiteLifetime(a.comp.LifetimeEstimate()),
		GCInvocations:    a.comp.GCInvocations(),
	}

	if weights, ok := a.comp.Weights(); ok {
		entry.AlphaWeight = weights.Alpha
		entry.BetaWeight = weights.Beta
		entry.GammaWeight = weights.Gamma
	}

	a.recorder.InsertData(checkpointTable, entry)
}

// Summarize records the final state of the controller.
func (a *CheckpointAnalyzer) Summarize() {
	device := a.comp.Device()

	entry := SummaryEntry{
		Strategy:         a.comp.StrategyName(),
		HostWrites:       a.comp.HostWrites(),
		PhysicalWrites:   a.comp.PhysicalWrites(),
		WAF:              a.comp.WAF(),
		WearVariance:     a.comp.WearVariance(),
		LifetimeEstimate: finiteLifetime(a.comp.LifetimeEstimate()),
		GCInvocations:    a.comp.GCInvocations(),
		MaxEraseCount:    device.MaxEraseCount(),
		MinEraseCount:    device.MinEraseCount(),
	}

	a.recorder.InsertData(summaryTable, entry)
	a.recorder.Flush()
}

// A fresh device has no erases yet, which makes the lifetime projection
// infinite. SQLite has no representation for that, so store zero.
func finiteLifetime(estimate float64) float64 {
	if math.IsInf(estimate, 1) {
		return 0
	}

	return estimate
}

// CheckpointAnalyzerBuilder can build a CheckpointAnalyzer.
type CheckpointAnalyzerBuilder struct {
	recorder        datarecording.DataRecorder
	comp            *ftl.Comp
	checkpointEvery uint64
}

// MakeCheckpointAnalyzerBuilder creates a builder with the default
// sampling interval of 1000 host writes.
func MakeCheckpointAnalyzerBuilder() CheckpointAnalyzerBuilder {
	return CheckpointAnalyzerBuilder{
		checkpointEvery: 1000,
	}
}

// WithDataRecorder sets the recorder that stores the sampled entries.
func (b CheckpointAnalyzerBuilder) WithDataRecorder(
	r datarecording.DataRecorder,
) CheckpointAnalyzerBuilder {
	b.recorder = r
	return b
}

// WithComp sets the controller to be sampled.
func (b CheckpointAnalyzerBuilder) WithComp(
	c *ftl.Comp,
) CheckpointAnalyzerBuilder {
	b.comp = c
	return b
}

// WithCheckpointInterval sets the number of host writes between samples.
func (b CheckpointAnalyzerBuilder) WithCheckpointInterval(
	interval uint64,
) CheckpointAnalyzerBuilder {
	b.checkpointEvery = interval
	return b
}

// Build creates a CheckpointAnalyzer.
func (b CheckpointAnalyzerBuilder) Build() *CheckpointAnalyzer {
	if b.recorder == nil {
		panic("CheckpointAnalyzer requires a DataRecorder")
	}

	if b.comp == nil {
		panic("CheckpointAnalyzer requires a controller")
	}

	if b.checkpointEvery == 0 {
		panic("checkpoint interval must be positive")
	}

	createTablesOnce(b.recorder)

	a := &CheckpointAnalyzer{
		recorder:        b.recorder,
		comp:            b.comp,
		checkpointEvery: b.checkpointEvery,
	}

	atexit.Register(func() { b.recorder.Flush() })

	return a
}

// Several analyzers usually share one recorder, one per strategy under
// comparison. Only the first of them creates the tables.
func createTablesOnce(r datarecording.DataRecorder) {
	for _, table := range r.ListTables() {
		if table == checkpointTable {
			return
		}
	}

	r.CreateTable(checkpointTable, CheckpointEntry{})
	r.CreateTable(summaryTable, SummaryEntry{})
}
