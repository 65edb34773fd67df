package predictor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bpsim/predictor"
)

var _ = Describe("Counter", func() {
	It("should predict taken only in the taken states", func() {
		Expect(predictor.StronglyNotTaken.Taken()).To(BeFalse())
		Expect(predictor.WeaklyNotTaken.Taken()).To(BeFalse())
		Expect(predictor.WeaklyTaken.Taken()).To(BeTrue())
		Expect(predictor.StronglyTaken.Taken()).To(BeTrue())
	})

	It("should be confident only at the extremes", func() {
		Expect(predictor.StronglyNotTaken.Confident()).To(BeTrue())
		Expect(predictor.WeaklyNotTaken.Confident()).To(BeFalse())
		Expect(predictor.WeaklyTaken.Confident()).To(BeFalse())
		Expect(predictor.StronglyTaken.Confident()).To(BeTrue())
	})

	It("should clamp at its bounds", func() {
		Expect(predictor.StronglyTaken.Update(true)).To(Equal(predictor.StronglyTaken))
		Expect(predictor.StronglyNotTaken.Update(false)).To(Equal(predictor.StronglyNotTaken))
	})

	It("should require 2 mispredictions to change direction", func() {
		c := predictor.StronglyTaken

		c = c.Update(false)
		Expect(c.Taken()).To(BeTrue())

		c = c.Update(false)
		Expect(c.Taken()).To(BeFalse())
	})

	It("should stay within [0,3] for any outcome sequence", func() {
		// 16-bit patterns cover every sequence of 16 outcomes
		for pattern := 0; pattern < 1<<16; pattern += 7 {
			c := predictor.WeaklyNotTaken
			for bit := 0; bit < 16; bit++ {
				c = c.Update(pattern&(1<<bit) != 0)
				Expect(c).To(BeNumerically("<=", predictor.StronglyTaken))
			}
		}
	})
})

var _ = Describe("History", func() {
	It("should shift outcomes in at bit 0", func() {
		h := predictor.NewHistory(4)
		h.Push(true)
		h.Push(false)
		h.Push(true)
		Expect(h.Value()).To(Equal(uint32(0b101)))
	})

	It("should stay below 2^W for every width", func() {
		for width := uint(1); width <= 32; width++ {
			h := predictor.NewHistory(width)
			for i := 0; i < 40; i++ {
				h.Push(i%3 != 0)
				if width < 32 {
					Expect(h.Value()).To(BeNumerically("<", uint64(1)<<width))
				}
			}
			Expect(h.Width()).To(Equal(width))
		}
	})

	It("should saturate to all ones on a run of taken outcomes", func() {
		h := predictor.NewHistory(3)
		for i := 0; i < 10; i++ {
			h.Push(true)
		}
		Expect(h.Value()).To(Equal(uint32(0b111)))
	})
})
