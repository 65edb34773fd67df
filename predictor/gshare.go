package predictor

// GsharePredictor indexes a single table of 2-bit counters with the PC
// XORed with the global history.
type GsharePredictor struct {
	bht     table
	history History
	bits    uint
}

// NewGsharePredictor creates a Gshare predictor with 2^ghistoryBits
// counters and a ghistoryBits-wide global history.
func NewGsharePredictor(ghistoryBits uint) *GsharePredictor {
	return &GsharePredictor{
		bht:     newTable(ghistoryBits),
		history: NewHistory(ghistoryBits),
		bits:    ghistoryBits,
	}
}

// Name returns the scheme name.
func (p *GsharePredictor) Name() string { return Gshare.String() }

// index excludes the alignment bits of the PC.
func (p *GsharePredictor) index(pc uint32) uint32 {
	return ((pc >> 2) ^ p.history.Value()) & mask(p.bits)
}

// Predict returns the direction held by the indexed counter.
func (p *GsharePredictor) Predict(pc uint32) bool {
	return p.bht[p.index(pc)].Taken()
}

// Train moves the indexed counter toward the outcome, then shifts the
// outcome into the global history.
func (p *GsharePredictor) Train(pc uint32, taken bool) {
	p.bht.train(p.index(pc), taken)
	p.history.Push(taken)
}

// History returns the global history register.
func (p *GsharePredictor) History() History {
	return p.history
}

// Counter returns the counter the predictor would consult for pc.
func (p *GsharePredictor) Counter(pc uint32) Counter {
	return p.bht[p.index(pc)]
}
