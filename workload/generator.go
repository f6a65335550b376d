// Package workload produces the logical-address sequences that drive the
// simulator. Generators are deterministic for a fixed seed so that two
// strategies can be compared on the identical write sequence.
package workload

import "math/rand"

// A Generator produces logical-address sequences over a fixed address
// space.
type Generator struct {
	maxLBA uint64
	rng    *rand.Rand
}

// NewGenerator returns a generator over the address space [0, maxLBA).
func NewGenerator(maxLBA uint64, seed int64) *Generator {
	if maxLBA == 0 {
		panic("address space must not be empty")
	}

	return &Generator{
		maxLBA: maxLBA,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Sequential returns addresses walking the address space in order,
// wrapping at the end.
func (g *Generator) Sequential(numWrites int) []uint64 {
	sequence := make([]uint64, numWrites)
	for i := range sequence {
		sequence[i] = uint64(i) % g.maxLBA
	}

	return sequence
}

// Random returns uniformly random addresses.
func (g *Generator) Random(numWrites int) []uint64 {
	sequence := make([]uint64, numWrites)
	for i := range sequence {
		sequence[i] = uint64(g.rng.Int63n(int64(g.maxLBA)))
	}

	return sequence
}

// Hotspot returns a skewed sequence: hotRatio of the writes land on the
// first hotFraction of the address space, the rest on the cold remainder.
// The classic 80/20 pattern is Hotspot(n, 0.8, 0.2).
func (g *Generator) Hotspot(
	numWrites int,
	hotRatio, hotFraction float64,
) []uint64 {
	hotMax := uint64(float64(g.maxLBA) * hotFraction)
	coldSize := g.maxLBA - hotMax

	sequence := make([]uint64, numWrites)
	for i := range sequence {
		hot := g.rng.Float64() < hotRatio
		if (hot && hotMax > 0) || coldSize == 0 {
			sequence[i] = uint64(g.rng.Int63n(int64(hotMax)))
		} else {
			sequence[i] = hotMax + uint64(g.rng.Int63n(int64(coldSize)))
		}
	}

	return sequence
}

// Mixed returns an even blend of a sequential walk and random addresses.
func (g *Generator) Mixed(numWrites int) []uint64 {
	sequence := make([]uint64, numWrites)
	seq := uint64(0)

	for i := range sequence {
		if g.rng.Float64() < 0.5 {
			sequence[i] = seq % g.maxLBA
			seq++
		} else {
			sequence[i] = uint64(g.rng.Int63n(int64(g.maxLBA)))
		}
	}

	return sequence
}
