package predictor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bpsim/predictor"
)

// branch is one resolved trace record.
type branch struct {
	pc    uint32
	taken bool
}

// mixedTrace builds a deterministic trace with loops, alternation and
// pseudo-random branches spread over several PCs.
func mixedTrace(n int) []branch {
	trace := make([]branch, 0, n)
	state := uint32(12345)
	for i := 0; len(trace) < n; i++ {
		state = state*1664525 + 1013904223
		switch i % 4 {
		case 0:
			trace = append(trace, branch{pc: 0x400100, taken: i%40 != 36})
		case 1:
			trace = append(trace, branch{pc: 0x400200, taken: i%8 < 4})
		case 2:
			trace = append(trace, branch{pc: 0x400000 + (state>>20)&0xFFC, taken: state&0x80000 != 0})
		default:
			trace = append(trace, branch{pc: 0x400300, taken: true})
		}
	}
	return trace
}

// replay predicts then trains every record and returns the predictions.
func replay(p predictor.Predictor, trace []branch) []bool {
	predictions := make([]bool, 0, len(trace))
	for _, b := range trace {
		predictions = append(predictions, p.Predict(b.pc))
		p.Train(b.pc, b.taken)
	}
	return predictions
}

var _ = Describe("New", func() {
	It("should create the configured scheme", func() {
		config := predictor.DefaultConfig()
		Expect(predictor.New(config).Name()).To(Equal("Gshare"))

		config.Scheme = predictor.Static
		Expect(predictor.New(config).Name()).To(Equal("Static"))

		config.Scheme = predictor.Tournament
		Expect(predictor.New(config).Name()).To(Equal("Tournament"))

		config.Scheme = predictor.Custom
		Expect(predictor.New(config).Name()).To(Equal("Custom"))
	})

	It("should disable prediction for an unknown scheme", func() {
		p := predictor.New(predictor.Config{Scheme: predictor.Scheme(42)})

		for i := 0; i < 10; i++ {
			Expect(p.Predict(0x1000)).To(BeFalse())
			p.Train(0x1000, true)
		}
		Expect(p.Predict(0x1000)).To(BeFalse())
	})

	DescribeTable("should be deterministic across replays",
		func(arg string) {
			config, err := predictor.ParseScheme(arg)
			Expect(err).NotTo(HaveOccurred())

			trace := mixedTrace(3000)
			first := replay(predictor.New(config), trace)
			second := replay(predictor.New(config), trace)
			Expect(second).To(Equal(first))
		},
		Entry("static", "static"),
		Entry("gshare", "gshare:10"),
		Entry("tournament", "tournament:9:10:10"),
		Entry("custom", "custom"),
	)
})

var _ = Describe("StaticPredictor", func() {
	It("should always predict taken", func() {
		p := predictor.NewStaticPredictor()

		for _, b := range mixedTrace(200) {
			Expect(p.Predict(b.pc)).To(BeTrue())
			p.Train(b.pc, b.taken)
			Expect(p.Predict(b.pc)).To(BeTrue())
		}
	})
})

var _ = Describe("Tracker", func() {
	It("should score predictions against the following outcome", func() {
		tracker := predictor.NewTracker(predictor.NewStaticPredictor())

		tracker.Predict(0x1000)
		tracker.Train(0x1000, true)
		tracker.Predict(0x1000)
		tracker.Train(0x1000, true)
		tracker.Predict(0x1000)
		tracker.Train(0x1000, true)
		tracker.Predict(0x1000)
		tracker.Train(0x1000, false)

		stats := tracker.Stats()
		Expect(stats.Predictions).To(Equal(uint64(4)))
		Expect(stats.Correct).To(Equal(uint64(3)))
		Expect(stats.Mispredictions).To(Equal(uint64(1)))
		Expect(stats.Accuracy()).To(BeNumerically("~", 75.0, 0.1))
		Expect(stats.MispredictionRate()).To(BeNumerically("~", 25.0, 0.1))
	})

	It("should not score training without a prediction", func() {
		tracker := predictor.NewTracker(predictor.NewStaticPredictor())
		tracker.Train(0x1000, false)

		Expect(tracker.Stats()).To(Equal(predictor.Stats{}))
		Expect(tracker.Stats().Accuracy()).To(BeZero())
	})

	It("should keep the wrapped name", func() {
		tracker := predictor.NewTracker(predictor.NewCustomPredictor())
		Expect(tracker.Name()).To(Equal("Custom"))
	})

	It("should clear statistics on reset", func() {
		tracker := predictor.NewTracker(predictor.NewStaticPredictor())
		tracker.Predict(0x1000)
		tracker.ResetStats()
		tracker.Train(0x1000, false)

		Expect(tracker.Stats().Predictions).To(BeZero())
		Expect(tracker.Stats().Mispredictions).To(BeZero())
	})
})
