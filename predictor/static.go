package predictor

// StaticPredictor always predicts taken. It is the baseline scheme.
type StaticPredictor struct{}

// NewStaticPredictor creates a static predictor.
func NewStaticPredictor() *StaticPredictor {
	return &StaticPredictor{}
}

// Name returns the scheme name.
func (p *StaticPredictor) Name() string { return Static.String() }

// Predict always returns taken.
func (p *StaticPredictor) Predict(uint32) bool { return true }

// Train is a no-op.
func (p *StaticPredictor) Train(uint32, bool) {}
