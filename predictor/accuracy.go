package predictor

// Component identifies one of the sub-predictors of the custom predictor.
// The first four values double as meta-selector biases.
type Component int

// Custom predictor components.
const (
	ComponentLocal Component = iota
	ComponentGlobal
	ComponentHybrid
	ComponentSimple
	ComponentInteger
	ComponentLoop
)

// numTables is the number of counter-table components (all but the loop).
const numTables = int(ComponentLoop)

var componentNames = [...]string{"local", "global", "hybrid", "simple", "integer", "loop"}

// String returns the component name.
func (c Component) String() string {
	if c < 0 || int(c) >= len(componentNames) {
		return "unknown"
	}
	return componentNames[c]
}

const (
	// DecayWindow is the number of observations after which all accuracy
	// counters are scaled by 8/10.
	DecayWindow = 10000

	decayNumerator   = 8
	decayDenominator = 10
)

// Accuracy holds exponentially decayed correct-counts per component.
type Accuracy struct {
	// Correct is indexed by Component.
	Correct [ComponentLoop + 1]uint32
	// Total counts observations since the last decay, scaled by decays.
	Total uint32
	// Window counts observations since the last decay.
	Window uint32
}

// Record adds one observation. Counters decay when the window fills.
func (a *Accuracy) Record(correct [numTables]bool, loopCorrect bool) {
	a.Total++
	a.Window++

	for c, ok := range correct {
		if ok {
			a.Correct[c]++
		}
	}
	if loopCorrect {
		a.Correct[ComponentLoop]++
	}

	if a.Window >= DecayWindow {
		a.decay()
	}
}

func (a *Accuracy) decay() {
	for c := range a.Correct {
		a.Correct[c] = a.Correct[c] * decayNumerator / decayDenominator
	}
	a.Total = a.Total * decayNumerator / decayDenominator
	a.Window = 0
}

// Weight returns the recent accuracy share of a component in percent.
func (a Accuracy) Weight(c Component) uint32 {
	total := a.Total
	if total == 0 {
		total = 1
	}
	return a.Correct[c] * 100 / total
}

// best returns the component with the highest weight among candidates.
// Earlier candidates win ties.
func (a Accuracy) best(candidates []Component, eligible func(Component) bool) (Component, bool) {
	best, found := Component(0), false
	for _, c := range candidates {
		if eligible != nil && !eligible(c) {
			continue
		}
		if !found || a.Weight(c) > a.Weight(best) {
			best, found = c, true
		}
	}
	return best, found
}
