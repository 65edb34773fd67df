package benchmarks

import (
	"math/rand/v2"

	"github.com/sarchlab/bpsim/trace"
)

// Seed makes every pseudo-random workload reproducible.
const Seed = 240

// GetWorkloads returns the standard set of synthetic workloads. Each one
// exercises a specific predictor behavior.
func GetWorkloads() []Workload {
	return []Workload{
		fixedLoop(),
		nestedLoops(),
		alternating(),
		correlatedPair(),
		biasedRandom(),
		manyBranches(),
	}
}

// GetCoreWorkloads returns a minimal set for quick validation.
func GetCoreWorkloads() []Workload {
	return []Workload{
		fixedLoop(),
		alternating(),
		correlatedPair(),
	}
}

type traceBuilder struct {
	records []trace.Record
}

func (b *traceBuilder) branch(pc uint32, taken bool) {
	b.records = append(b.records, trace.Record{PC: pc, Taken: taken})
}

// loop emits the back edge of a loop with the given trip count: trip-1
// taken branches followed by the exit.
func (b *traceBuilder) loop(pc uint32, trip int) {
	for i := 1; i < trip; i++ {
		b.branch(pc, true)
	}
	b.branch(pc, false)
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(Seed, Seed))
}

// 1. Fixed Loop - a single back edge with a constant trip count
func fixedLoop() Workload {
	return Workload{
		Name:        "fixed_loop",
		Description: "one back edge, trip count 8 - rewards loop detection",
		Generate: func() []trace.Record {
			b := &traceBuilder{}
			for i := 0; i < 2500; i++ {
				b.loop(0x400100, 8)
			}
			return b.records
		},
	}
}

// 2. Nested Loops - inner trip 6 inside outer trip 4
func nestedLoops() Workload {
	return Workload{
		Name:        "nested_loops",
		Description: "inner loop of 6 inside outer loop of 4 - two interleaved periods",
		Generate: func() []trace.Record {
			b := &traceBuilder{}
			for i := 0; i < 800; i++ {
				for j := 1; j <= 4; j++ {
					b.loop(0x400240, 6)
					b.branch(0x400200, j < 4)
				}
			}
			return b.records
		},
	}
}

// 3. Alternating - T, N, T, N at one PC
func alternating() Workload {
	return Workload{
		Name:        "alternating",
		Description: "single branch alternating taken/not-taken - needs history",
		Generate: func() []trace.Record {
			b := &traceBuilder{}
			for i := 0; i < 20000; i++ {
				b.branch(0x400300, i%2 == 0)
			}
			return b.records
		},
	}
}

// 4. Correlated Pair - the second branch repeats the first
func correlatedPair() Workload {
	return Workload{
		Name:        "correlated_pair",
		Description: "random branch followed by a branch with the same outcome - needs global history",
		Generate: func() []trace.Record {
			rng := newRand()
			b := &traceBuilder{}
			for i := 0; i < 10000; i++ {
				taken := rng.IntN(2) == 1
				b.branch(0x400400, taken)
				b.branch(0x400410, taken)
			}
			return b.records
		},
	}
}

// 5. Biased Random - independent outcomes, 90% taken
func biasedRandom() Workload {
	return Workload{
		Name:        "biased_random",
		Description: "one branch taken with probability 0.9 - counters only",
		Generate: func() []trace.Record {
			rng := newRand()
			b := &traceBuilder{}
			for i := 0; i < 20000; i++ {
				b.branch(0x400500, rng.Float64() < 0.9)
			}
			return b.records
		},
	}
}

// 6. Many Branches - 4096 static branches with fixed directions
func manyBranches() Workload {
	return Workload{
		Name:        "many_branches",
		Description: "4096 distinct always-taken or never-taken branches - stresses table aliasing",
		Generate: func() []trace.Record {
			rng := newRand()
			directions := make([]bool, 4096)
			for i := range directions {
				directions[i] = rng.IntN(2) == 1
			}

			b := &traceBuilder{}
			for round := 0; round < 6; round++ {
				for i, taken := range directions {
					b.branch(0x800000+uint32(i)*4, taken)
				}
			}
			return b.records
		},
	}
}
