// Package predictor provides branch direction predictors for trace-driven
// simulation: a static baseline, Gshare, a tournament predictor, and a
// custom hybrid with loop detection and an adaptive meta-selector.
//
// A predictor is driven strictly alternately: Predict for a branch, then
// Train with its resolved direction. Predictors are deterministic and are
// not safe for concurrent use.
package predictor

// Predictor predicts the direction of conditional branches.
type Predictor interface {
	// Name returns the display name of the scheme.
	Name() string
	// Predict returns true if the branch at pc is predicted taken.
	Predict(pc uint32) bool
	// Train updates the predictor with the resolved direction of the
	// branch at pc.
	Train(pc uint32, taken bool)
}

// New creates a predictor for the configured scheme. Only the state needed
// by that scheme is allocated. An unrecognized scheme yields a disabled
// predictor that always predicts not taken and ignores training.
func New(config Config) Predictor {
	switch config.Scheme {
	case Static:
		return NewStaticPredictor()
	case Gshare:
		return NewGsharePredictor(config.GHistoryBits)
	case Tournament:
		return NewTournamentPredictor(
			config.GHistoryBits, config.LHistoryBits, config.PCIndexBits)
	case Custom:
		return NewCustomPredictor()
	default:
		return disabledPredictor{}
	}
}

// disabledPredictor stands in for an unrecognized scheme.
type disabledPredictor struct{}

func (disabledPredictor) Name() string { return "Disabled" }

func (disabledPredictor) Predict(uint32) bool { return false }

func (disabledPredictor) Train(uint32, bool) {}
