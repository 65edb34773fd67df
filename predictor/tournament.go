package predictor

// TournamentPredictor arbitrates between a global-history table and a
// local-history table with a choice table indexed by global history.
type TournamentPredictor struct {
	globalBHT table
	localBHT  table
	// Choice counters: taken prefers the global prediction.
	choice       table
	localHistory historyFile
	history      History

	ghistoryBits uint
	lhistoryBits uint
}

// NewTournamentPredictor creates a tournament predictor.
func NewTournamentPredictor(ghistoryBits, lhistoryBits, pcIndexBits uint) *TournamentPredictor {
	return &TournamentPredictor{
		globalBHT:    newTable(ghistoryBits),
		localBHT:     newTable(lhistoryBits),
		choice:       newTable(ghistoryBits),
		localHistory: newHistoryFile(pcIndexBits, lhistoryBits),
		history:      NewHistory(ghistoryBits),
		ghistoryBits: ghistoryBits,
		lhistoryBits: lhistoryBits,
	}
}

// Name returns the scheme name.
func (p *TournamentPredictor) Name() string { return Tournament.String() }

// tournamentLookup holds the indices and component predictions for one branch.
type tournamentLookup struct {
	localIdx  uint32
	globalIdx uint32
	local     bool
	global    bool
}

func (p *TournamentPredictor) lookup(pc uint32) tournamentLookup {
	l := tournamentLookup{
		localIdx:  p.localHistory.get(pc) & mask(p.lhistoryBits),
		globalIdx: p.history.Value() & mask(p.ghistoryBits),
	}
	l.local = p.localBHT[l.localIdx].Taken()
	l.global = p.globalBHT[l.globalIdx].Taken()
	return l
}

// Predict returns the global prediction when the choice counter prefers
// global, otherwise the local prediction.
func (p *TournamentPredictor) Predict(pc uint32) bool {
	l := p.lookup(pc)
	if p.choice[l.globalIdx].Taken() {
		return l.global
	}
	return l.local
}

// Train updates the choice counter when the components disagreed, then
// both component counters and both history registers.
func (p *TournamentPredictor) Train(pc uint32, taken bool) {
	l := p.lookup(pc)

	if l.local != l.global {
		// Exactly one component matched the outcome.
		p.choice.train(l.globalIdx, l.global == taken)
	}

	p.localBHT.train(l.localIdx, taken)
	p.globalBHT.train(l.globalIdx, taken)

	p.localHistory.push(pc, taken)
	p.history.Push(taken)
}

// ChoiceAt returns the choice counter selected by a global history value.
func (p *TournamentPredictor) ChoiceAt(history uint32) Counter {
	return p.choice[history&mask(p.ghistoryBits)]
}

// LocalHistory returns the local history register consulted for pc.
func (p *TournamentPredictor) LocalHistory(pc uint32) uint32 {
	return p.localHistory.get(pc)
}

// History returns the global history register.
func (p *TournamentPredictor) History() History {
	return p.history
}
