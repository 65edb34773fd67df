package predictor

import (
	"github.com/sarchlab/bpsim/predictor/loop"
)

// Fixed widths of the custom predictor.
const (
	customHistoryBits = 16
	customPathBits    = 16
	customGlobalBits  = 16
	customHybridBits  = 14
	customLocalBits   = 12
	customSimpleBits  = 12
	customIntegerBits = 12
	customPCBits      = 10
	customMetaBits    = 12
)

// Arbitration thresholds, in percent of recent observations.
const (
	warmupBranches  = 500
	loopTrustWeight = 40
	bestTrustWeight = 60
	metaTrustWeight = 45
)

var tableBits = [numTables]uint{
	ComponentLocal:   customLocalBits,
	ComponentGlobal:  customGlobalBits,
	ComponentHybrid:  customHybridBits,
	ComponentSimple:  customSimpleBits,
	ComponentInteger: customIntegerBits,
}

// bestOrder is the scan order when looking for the most accurate component
// at prediction time.
var bestOrder = []Component{
	ComponentGlobal, ComponentLocal, ComponentHybrid, ComponentSimple, ComponentInteger,
}

// tieOrder is the scan order when several components were correct.
var tieOrder = []Component{
	ComponentGlobal, ComponentHybrid, ComponentSimple, ComponentLocal, ComponentInteger,
}

// Decisions counts which rule produced each custom prediction.
type Decisions struct {
	Loop uint64
	Best uint64
	Meta uint64
	Vote uint64
}

// CustomPredictor combines five counter tables, a loop detector and a
// meta-selector, and arbitrates among them using decayed accuracy.
type CustomPredictor struct {
	tables [numTables]table
	loops  *loop.Table
	// Meta-selector values 0..3 bias toward local, global, hybrid, simple.
	meta []uint8

	localHistory historyFile
	history      History
	path         History

	accuracy  Accuracy
	decisions Decisions
}

// NewCustomPredictor creates a custom hybrid predictor.
func NewCustomPredictor() *CustomPredictor {
	p := &CustomPredictor{
		loops:        loop.New(loop.DefaultConfig()),
		meta:         make([]uint8, 1<<customMetaBits),
		localHistory: newHistoryFile(customPCBits, customLocalBits),
		history:      NewHistory(customHistoryBits),
		path:         NewHistory(customPathBits),
	}

	for c := range p.tables {
		p.tables[c] = newTable(tableBits[c])
	}

	// Start biased toward the global table
	for i := range p.meta {
		p.meta[i] = uint8(ComponentGlobal)
	}

	return p
}

// Name returns the scheme name.
func (p *CustomPredictor) Name() string { return Custom.String() }

func globalIndex(pc, ghist uint32) uint32 {
	return ((pc >> 2) ^ ghist ^ ((pc >> 8) & 0xFF)) & mask(customGlobalBits)
}

func hybridIndex(pc, ghist, path uint32) uint32 {
	return ((pc >> 2) ^ (ghist << 1) ^ (ghist >> 3) ^ path) & mask(customHybridBits)
}

func localIndex(pc, lhist uint32) uint32 {
	return ((pc >> 3) ^ (lhist >> 1) ^ ((pc >> 12) & 0xF)) & mask(customLocalBits)
}

func simpleIndex(pc uint32) uint32 {
	return (pc >> 3) & mask(customSimpleBits)
}

func integerIndex(pc uint32) uint32 {
	return ((pc >> 2) ^ (pc >> 14)) & mask(customIntegerBits)
}

func metaIndex(pc, ghist uint32) uint32 {
	return ((pc >> 2) ^ ghist ^ (pc >> 10)) & mask(customMetaBits)
}

// isIntegerStyle flags 16-byte aligned branch sites.
func isIntegerStyle(pc uint32) bool {
	return (pc>>2)&3 == 0
}

// customLookup holds everything prediction and training read for a branch.
type customLookup struct {
	idx      [numTables]uint32
	counters [numTables]Counter
	loop     loop.Lookup
	metaIdx  uint32
}

func (p *CustomPredictor) lookup(pc uint32) customLookup {
	ghist := p.history.Value()

	l := customLookup{
		loop:    p.loops.Lookup(pc),
		metaIdx: metaIndex(pc, ghist),
	}
	l.idx[ComponentLocal] = localIndex(pc, p.localHistory.get(pc))
	l.idx[ComponentGlobal] = globalIndex(pc, ghist)
	l.idx[ComponentHybrid] = hybridIndex(pc, ghist, p.path.Value())
	l.idx[ComponentSimple] = simpleIndex(pc)
	l.idx[ComponentInteger] = integerIndex(pc)

	for c := range l.counters {
		l.counters[c] = p.tables[c][l.idx[c]]
	}

	return l
}

// vote weighs every component equally, plus one extra vote for each
// saturated counter and two for a confident loop forecast.
func (l customLookup) vote() bool {
	takenVotes, totalVotes := 0, 0

	for _, c := range l.counters {
		votes := 1
		if c.Confident() {
			votes++
		}
		totalVotes += votes
		if c.Taken() {
			takenVotes += votes
		}
	}

	if l.loop.Confident {
		totalVotes += 2
		if l.loop.Forecast {
			takenVotes += 2
		}
	}

	return takenVotes*2 >= totalVotes
}

// Predict returns the arbitrated prediction for pc. It only updates the
// decision counters.
func (p *CustomPredictor) Predict(pc uint32) bool {
	l := p.lookup(pc)

	if l.loop.HighConfidence &&
		l.loop.Entry.Confidence >= loop.MaxConfidence &&
		p.accuracy.Weight(ComponentLoop) >= loopTrustWeight {
		p.decisions.Loop++
		return l.loop.Forecast
	}

	if p.accuracy.Total > warmupBranches {
		best, _ := p.accuracy.best(bestOrder, nil)
		if p.accuracy.Weight(best) > bestTrustWeight && l.counters[best].Confident() {
			p.decisions.Best++
			return l.counters[best].Taken()
		}

		biased := Component(p.meta[l.metaIdx])
		if p.accuracy.Weight(biased) >= metaTrustWeight {
			p.decisions.Meta++
			return l.counters[biased].Taken()
		}
	}

	p.decisions.Vote++
	return l.vote()
}

// Train updates accuracy, the loop detector, the meta-selector, every
// counter table and the history registers.
func (p *CustomPredictor) Train(pc uint32, taken bool) {
	l := p.lookup(pc)

	var correct [numTables]bool
	for c := range correct {
		correct[c] = l.counters[c].Taken() == taken
	}
	p.accuracy.Record(correct, l.loop.Confident && l.loop.Forecast == taken)

	p.loops.Observe(pc, taken)

	p.nudgeMeta(l.metaIdx, p.chooseBest(pc, correct))

	for c := range p.tables {
		p.tables[c].train(l.idx[c], taken)
	}

	p.localHistory.push(pc, taken)
	p.history.Push(taken)
	// PC bits 0-1 are always zero for aligned branches
	p.path.Push((pc>>2)&1 == 1)
}

// chooseBest picks the component the meta-selector should learn from.
// With no correct component the selector drifts toward local. With several,
// the most accurate component wins whether or not it was right this time.
func (p *CustomPredictor) chooseBest(pc uint32, correct [numTables]bool) Component {
	n := 0
	only := ComponentLocal
	for c, ok := range correct {
		if ok {
			n++
			only = Component(c)
		}
	}

	if n <= 1 {
		return only
	}

	if isIntegerStyle(pc) && correct[ComponentLocal] &&
		p.accuracy.Weight(ComponentInteger) >= metaTrustWeight {
		return ComponentLocal
	}

	best, _ := p.accuracy.best(tieOrder, nil)
	return best
}

// nudgeMeta moves the meta value one step toward the component's bias.
// The integer table has no bias of its own and trains toward local.
func (p *CustomPredictor) nudgeMeta(idx uint32, c Component) {
	target := uint8(c)
	if c == ComponentInteger {
		target = uint8(ComponentLocal)
	}

	switch {
	case p.meta[idx] < target:
		p.meta[idx]++
	case p.meta[idx] > target:
		p.meta[idx]--
	}
}

// Reset returns the predictor to its freshly constructed state.
func (p *CustomPredictor) Reset() {
	for c := range p.tables {
		for i := range p.tables[c] {
			p.tables[c][i] = WeaklyNotTaken
		}
	}
	p.loops.Reset()
	for i := range p.meta {
		p.meta[i] = uint8(ComponentGlobal)
	}
	for i := range p.localHistory.regs {
		p.localHistory.regs[i] = 0
	}
	p.history = NewHistory(customHistoryBits)
	p.path = NewHistory(customPathBits)
	p.accuracy = Accuracy{}
	p.decisions = Decisions{}
}

// Accuracy returns the decayed accuracy statistics.
func (p *CustomPredictor) Accuracy() Accuracy {
	return p.accuracy
}

// Decisions returns how many predictions each arbitration rule produced.
func (p *CustomPredictor) Decisions() Decisions {
	return p.decisions
}

// Loops returns the loop detector.
func (p *CustomPredictor) Loops() *loop.Table {
	return p.loops
}

// Meta returns the meta-selector value consulted for pc.
func (p *CustomPredictor) Meta(pc uint32) uint8 {
	return p.meta[metaIndex(pc, p.history.Value())]
}

// History returns the global history register.
func (p *CustomPredictor) History() History {
	return p.history
}

// PathHistory returns the path history register.
func (p *CustomPredictor) PathHistory() History {
	return p.path
}
