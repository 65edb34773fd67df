package predictor

// Stats holds statistics for a tracked predictor.
type Stats struct {
	// Predictions is the total number of branch predictions made.
	Predictions uint64
	// Correct is the number of correct predictions.
	Correct uint64
	// Mispredictions is the number of incorrect predictions.
	Mispredictions uint64
}

// Accuracy returns the prediction accuracy as a percentage.
func (s Stats) Accuracy() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Predictions) * 100
}

// MispredictionRate returns the misprediction rate as a percentage.
func (s Stats) MispredictionRate() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(s.Predictions) * 100
}

// Tracker wraps a predictor and scores each prediction against the outcome
// passed to the following Train call.
type Tracker struct {
	Predictor

	pending   bool
	predicted bool
	stats     Stats
}

// NewTracker creates a tracker around p.
func NewTracker(p Predictor) *Tracker {
	return &Tracker{Predictor: p}
}

// Predict forwards to the wrapped predictor and remembers the answer.
func (t *Tracker) Predict(pc uint32) bool {
	t.predicted = t.Predictor.Predict(pc)
	t.pending = true
	t.stats.Predictions++
	return t.predicted
}

// Train scores the pending prediction, if any, and forwards the outcome.
func (t *Tracker) Train(pc uint32, taken bool) {
	if t.pending {
		if t.predicted == taken {
			t.stats.Correct++
		} else {
			t.stats.Mispredictions++
		}
		t.pending = false
	}

	t.Predictor.Train(pc, taken)
}

// Stats returns the tracker statistics.
func (t *Tracker) Stats() Stats {
	return t.stats
}

// ResetStats clears the statistics without touching predictor state.
func (t *Tracker) ResetStats() {
	t.stats = Stats{}
	t.pending = false
}
