package loop_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bpsim/predictor/loop"
)

var _ = Describe("Table", func() {
	var t *loop.Table

	const pc = uint32(0x1000)

	BeforeEach(func() {
		t = loop.New(loop.DefaultConfig())
	})

	observe := func(pc uint32, taken bool, n int) {
		for i := 0; i < n; i++ {
			t.Observe(pc, taken)
		}
	}

	It("should derive index and tag from the PC", func() {
		Expect(t.Index(pc)).To(Equal(uint32(0x110)))
		Expect(t.Tag(pc)).To(Equal(uint32(0x400)))
	})

	It("should miss on a cold table", func() {
		_, ok := t.Entry(pc)
		Expect(ok).To(BeFalse())
		Expect(t.Lookup(pc).Hit).To(BeFalse())
	})

	It("should claim a slot on first observation", func() {
		obs := t.Observe(pc, true)
		Expect(obs.Evicted).To(BeFalse())

		entry, ok := t.Entry(pc)
		Expect(ok).To(BeTrue())
		Expect(entry.Tag).To(Equal(uint32(0x400)))
		Expect(entry.IterCount).To(Equal(uint32(1)))
		Expect(entry.Pattern).To(Equal(uint16(1)))
		Expect(entry.Confidence).To(BeZero())
		Expect(entry.IsLoop).To(BeFalse())
	})

	It("should flag a loop after three taken outcomes", func() {
		observe(pc, true, 2)
		entry, _ := t.Entry(pc)
		Expect(entry.IsLoop).To(BeFalse())

		t.Observe(pc, true)
		entry, _ = t.Entry(pc)
		Expect(entry.IsLoop).To(BeTrue())
		Expect(entry.Confidence).To(Equal(uint8(1)))
		Expect(t.Stats().Promotions).To(Equal(uint64(1)))
	})

	It("should clear the flag when confidence decays to one", func() {
		observe(pc, true, 3)
		t.Observe(pc, false)

		entry, _ := t.Entry(pc)
		Expect(entry.Confidence).To(BeZero())
		Expect(entry.IsLoop).To(BeFalse())
		Expect(t.Stats().Demotions).To(Equal(uint64(1)))
	})

	It("should keep a confident loop flagged across an exit", func() {
		observe(pc, true, 10)
		entry, _ := t.Entry(pc)
		Expect(entry.Confidence).To(Equal(uint8(8)))

		obs := t.Observe(pc, false)
		Expect(obs.Evaluated).To(BeTrue())
		Expect(obs.Correct).To(BeFalse())

		entry, _ = t.Entry(pc)
		Expect(entry.IsLoop).To(BeTrue())
		Expect(entry.Confidence).To(Equal(uint8(7)))
		Expect(entry.IterCount).To(BeZero())
		Expect(entry.Depth).To(BeZero())
		Expect(entry.LastOutcome).To(BeFalse())
	})

	It("should cap confidence at the ceiling", func() {
		observe(pc, true, 40)
		entry, _ := t.Entry(pc)
		Expect(entry.Confidence).To(Equal(uint8(loop.MaxConfidence)))
	})

	It("should evict on a tag mismatch", func() {
		other := uint32(0x1004)
		Expect(t.Index(other)).To(Equal(t.Index(pc)))
		Expect(t.Tag(other)).NotTo(Equal(t.Tag(pc)))

		observe(pc, true, 5)
		obs := t.Observe(other, false)
		Expect(obs.Evicted).To(BeTrue())

		_, ok := t.Entry(pc)
		Expect(ok).To(BeFalse())

		entry, ok := t.Entry(other)
		Expect(ok).To(BeTrue())
		Expect(entry.Confidence).To(BeZero())
		Expect(entry.IterCount).To(BeZero())
		Expect(t.Stats().Evictions).To(Equal(uint64(1)))
	})

	Describe("Lookup", func() {
		It("should not be confident below the low threshold", func() {
			observe(pc, true, 5)
			l := t.Lookup(pc)
			Expect(l.Hit).To(BeTrue())
			Expect(l.Confident).To(BeFalse())
		})

		It("should forecast taken in the low tier", func() {
			observe(pc, true, 6)
			l := t.Lookup(pc)
			Expect(l.Confident).To(BeTrue())
			Expect(l.HighConfidence).To(BeFalse())
			Expect(l.Forecast).To(BeTrue())
		})

		It("should use the loop-closing forecast in the high tier", func() {
			observe(pc, true, 20)
			l := t.Lookup(pc)
			Expect(l.Confident).To(BeTrue())
			Expect(l.HighConfidence).To(BeTrue())
			Expect(l.Forecast).To(BeTrue())

			t.Observe(pc, false)
			l = t.Lookup(pc)
			Expect(l.HighConfidence).To(BeTrue())
			// Zero iterations after the exit closes the loop
			Expect(l.Forecast).To(BeFalse())
		})

		It("should not modify the table", func() {
			observe(pc, true, 4)
			before := t.Stats()
			entry, _ := t.Entry(pc)

			t.Lookup(pc)
			t.Lookup(pc + 4)

			after, _ := t.Entry(pc)
			Expect(after).To(Equal(entry))
			Expect(t.Stats()).To(Equal(before))
		})
	})

	It("should clear everything on reset", func() {
		observe(pc, true, 5)
		t.Reset()

		_, ok := t.Entry(pc)
		Expect(ok).To(BeFalse())
		Expect(t.Stats()).To(Equal(loop.Statistics{}))
	})
})

var _ = Describe("Entry", func() {
	DescribeTable("Forecast",
		func(e loop.Entry, want bool) {
			Expect(e.Forecast()).To(Equal(want))
		},
		Entry("taken while the last outcome was taken",
			loop.Entry{Pattern: 0b1, IterCount: 8}, true),
		Entry("closes on a multiple of eight for long loops",
			loop.Entry{Pattern: 0b10, IterCount: 16}, false),
		Entry("continues between multiples",
			loop.Entry{Pattern: 0b10, IterCount: 5}, true),
		Entry("uses period four at depth one",
			loop.Entry{Pattern: 0b10, IterCount: 4, Depth: 1}, false),
		Entry("uses period two at depth two",
			loop.Entry{Pattern: 0b10, IterCount: 3, Depth: 2}, true),
		Entry("always closes at depth three",
			loop.Entry{Pattern: 0b10, IterCount: 3, Depth: 3}, false),
		Entry("clamps depths beyond three",
			loop.Entry{Pattern: 0b10, IterCount: 7, Depth: 9}, false),
	)
})
