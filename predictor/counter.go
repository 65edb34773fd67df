package predictor

// Counter is a 2-bit saturating counter. States: 0=Strongly Not Taken,
// 1=Weakly Not Taken, 2=Weakly Taken, 3=Strongly Taken.
type Counter uint8

// Counter states.
const (
	StronglyNotTaken Counter = iota
	WeaklyNotTaken
	WeaklyTaken
	StronglyTaken
)

// Taken reports whether the counter predicts taken (2 or 3).
func (c Counter) Taken() bool {
	return c >= WeaklyTaken
}

// Confident reports whether the counter sits at either saturated extreme.
func (c Counter) Confident() bool {
	return c == StronglyTaken || c == StronglyNotTaken
}

// Update returns the counter moved one step toward the outcome.
// The counter clamps at its bounds rather than wrapping.
func (c Counter) Update(taken bool) Counter {
	if taken {
		if c < StronglyTaken {
			return c + 1
		}
		return c
	}

	if c > StronglyNotTaken {
		return c - 1
	}
	return c
}

// table is a fixed array of saturating counters addressed by a masked index.
type table []Counter

// newTable allocates 2^bits counters initialized to weakly not taken.
func newTable(bits uint) table {
	t := make(table, 1<<bits)
	for i := range t {
		t[i] = WeaklyNotTaken
	}
	return t
}

// train moves the counter at idx toward the outcome.
func (t table) train(idx uint32, taken bool) {
	t[idx] = t[idx].Update(taken)
}
