// Package loop provides a direct-mapped, tagged loop detector. Slots are
// tracked by an Akita cache directory configured with a single way, so a
// tag mismatch silently evicts the previous owner of the slot.
package loop

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

const (
	// MaxConfidence is the ceiling of the 4-bit confidence counter.
	MaxConfidence = 15
	// HighConfidence is the confidence from which the loop-closing
	// forecast is used.
	HighConfidence = MaxConfidence - 1
	// LowConfidence is the confidence from which a flagged loop is
	// forecast taken.
	LowConfidence = 1 << 2
	// PromoteIterations is the iteration count that flags a loop.
	PromoteIterations = 3
	// MaxDepth is the largest trip-count class.
	MaxDepth = 3

	// slotBytes is the address stride of a slot inside the directory.
	slotBytes = 4
	// ways keeps the table direct-mapped.
	ways = 1
)

// periodByDepth maps a trip-count class to the iteration period at which a
// loop exit is forecast.
var periodByDepth = [MaxDepth + 1]uint32{8, 4, 2, 1}

// Config holds loop table geometry.
type Config struct {
	// IndexBits selects 2^IndexBits slots. Default: 10.
	IndexBits uint
	// TagBits is the width of the PC tag. Default: 16.
	TagBits uint
}

// DefaultConfig returns the default loop table geometry.
func DefaultConfig() Config {
	return Config{
		IndexBits: 10,
		TagBits:   16,
	}
}

// Entry is the per-branch loop record held in a slot.
type Entry struct {
	Tag         uint32
	Confidence  uint8
	IterCount   uint32
	IsLoop      bool
	LastOutcome bool
	// Pattern holds the most recent outcomes, newest in bit 0.
	Pattern uint16
	// Depth classifies the last observed trip count, 0 for long loops
	// through MaxDepth for the shortest.
	Depth uint8
}

// Forecast returns the loop-closing forecast of the entry: taken while the
// newest outcome was taken, otherwise not taken on iteration counts that are
// a multiple of the period for the entry's depth.
func (e Entry) Forecast() bool {
	if e.Pattern&1 == 1 {
		return true
	}

	depth := e.Depth
	if depth > MaxDepth {
		depth = MaxDepth
	}
	return e.IterCount%periodByDepth[depth] != 0
}

func (e *Entry) raise() {
	if e.Confidence < MaxConfidence {
		e.Confidence++
	}
}

func (e *Entry) lower() {
	if e.Confidence > 0 {
		e.Confidence--
	}
}

// depthFor classifies a completed trip count.
func depthFor(trip uint32) uint8 {
	switch {
	case trip >= 8:
		return 0
	case trip >= 4:
		return 1
	case trip >= 2:
		return 2
	default:
		return MaxDepth
	}
}

// Lookup is the read-only view of a slot used when predicting.
type Lookup struct {
	// Hit is true when the slot is owned by the looked-up branch.
	Hit bool
	// Entry is the slot contents on a hit.
	Entry Entry
	// Confident is true when the branch is a flagged loop with at least
	// LowConfidence.
	Confident bool
	// HighConfidence is true when Forecast comes from the loop-closing
	// rule rather than the taken default.
	HighConfidence bool
	// Forecast is the predicted direction when Confident.
	Forecast bool
}

// Observation reports what a training observation did to a slot.
type Observation struct {
	// Evicted is true when the slot was claimed from another branch.
	Evicted bool
	// Evaluated is true when a loop exit was checked against the forecast.
	Evaluated bool
	// Correct is true when the evaluated forecast matched the outcome.
	Correct bool
}

// Statistics holds loop table statistics.
type Statistics struct {
	Observations uint64
	TagHits      uint64
	Evictions    uint64
	Promotions   uint64
	Demotions    uint64
	Evaluations  uint64
	Correct      uint64
}

// Table is a direct-mapped loop detector.
type Table struct {
	config Config

	// Akita cache directory for tag management
	directory *akitacache.DirectoryImpl

	// Loop records, indexed by (setID * ways + wayID)
	entries []Entry

	stats Statistics
}

// New creates a loop table with the given configuration.
func New(config Config) *Table {
	numSlots := 1 << config.IndexBits

	return &Table{
		config: config,
		directory: akitacache.NewDirectory(
			numSlots,
			ways,
			slotBytes,
			akitacache.NewLRUVictimFinder(),
		),
		entries: make([]Entry, numSlots),
	}
}

// Stats returns loop table statistics.
func (t *Table) Stats() Statistics {
	return t.stats
}

// Index returns the slot index of a branch.
func (t *Table) Index(pc uint32) uint32 {
	return ((pc >> 4) ^ (pc >> 8)) & lowBits(t.config.IndexBits)
}

// Tag returns the tag a branch stores in its slot.
func (t *Table) Tag(pc uint32) uint32 {
	return (pc >> 2) & lowBits(t.config.TagBits)
}

func lowBits(bits uint) uint32 {
	return (uint32(1) << bits) - 1
}

// address places the (tag, index) pair in the directory so that the set is
// the slot index and the block tag identifies the owning branch.
func (t *Table) address(pc uint32) uint64 {
	key := uint64(t.Tag(pc))<<t.config.IndexBits | uint64(t.Index(pc))
	return key * slotBytes
}

func (t *Table) blockIndex(block *akitacache.Block) int {
	return block.SetID*ways + block.WayID
}

// Entry returns the slot record if the slot is owned by pc.
func (t *Table) Entry(pc uint32) (Entry, bool) {
	block := t.directory.Lookup(0, t.address(pc))
	if block == nil || !block.IsValid {
		return Entry{}, false
	}
	return t.entries[t.blockIndex(block)], true
}

// Lookup returns the prediction-time view of the slot for pc. It does not
// modify the table.
func (t *Table) Lookup(pc uint32) Lookup {
	e, hit := t.Entry(pc)
	result := Lookup{Hit: hit, Entry: e}
	if !hit || !e.IsLoop {
		return result
	}

	switch {
	case e.Confidence >= HighConfidence:
		result.Confident = true
		result.HighConfidence = true
		result.Forecast = e.Forecast()
	case e.Confidence >= LowConfidence:
		result.Confident = true
		result.Forecast = true
	}

	return result
}

// Observe trains the slot for pc with a resolved outcome.
func (t *Table) Observe(pc uint32, taken bool) Observation {
	t.stats.Observations++

	addr := t.address(pc)
	block := t.directory.Lookup(0, addr)

	if block == nil || !block.IsValid {
		return t.claim(pc, addr, taken)
	}

	t.stats.TagHits++
	t.directory.Visit(block)

	obs := t.update(&t.entries[t.blockIndex(block)], taken)
	if obs.Evaluated {
		t.stats.Evaluations++
		if obs.Correct {
			t.stats.Correct++
		}
	}
	return obs
}

// claim evicts the current owner of the slot and re-initializes it for pc.
func (t *Table) claim(pc uint32, addr uint64, taken bool) Observation {
	obs := Observation{}

	victim := t.directory.FindVictim(addr)
	if victim == nil {
		// This shouldn't happen with a one-way directory
		return obs
	}

	if victim.IsValid {
		t.stats.Evictions++
		obs.Evicted = true
	}

	victim.Tag = addr
	victim.IsValid = true
	victim.IsDirty = false
	t.directory.Visit(victim)

	e := Entry{
		Tag:         t.Tag(pc),
		LastOutcome: taken,
	}
	if taken {
		e.IterCount = 1
		e.Pattern = 1
	}
	t.entries[t.blockIndex(victim)] = e

	return obs
}

func (t *Table) update(e *Entry, taken bool) Observation {
	obs := Observation{}
	forecast := e.Forecast()

	if taken {
		e.IterCount++
		e.Pattern = e.Pattern<<1 | 1

		if e.IterCount >= PromoteIterations {
			if !e.IsLoop {
				t.stats.Promotions++
			}
			e.IsLoop = true

			if forecast {
				e.raise()
			} else {
				e.lower()
			}
		}
	} else {
		if e.IsLoop && e.IterCount > 0 {
			obs.Evaluated = true
			obs.Correct = !forecast
			if obs.Correct {
				e.raise()
			} else {
				e.lower()
			}
			e.Depth = depthFor(e.IterCount)
		} else {
			e.lower()
		}

		e.Pattern <<= 1
		e.IterCount = 0

		if e.IsLoop && e.Confidence <= 1 {
			e.IsLoop = false
			t.stats.Demotions++
		}
	}

	e.LastOutcome = taken
	return obs
}

// Reset invalidates every slot and clears statistics.
func (t *Table) Reset() {
	t.directory.Reset()
	for i := range t.entries {
		t.entries[i] = Entry{}
	}
	t.stats = Statistics{}
}
