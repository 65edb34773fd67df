package predictor

// mask returns a value with the low bits set.
func mask(bits uint) uint32 {
	if bits >= 32 {
		return ^uint32(0)
	}
	return (uint32(1) << bits) - 1
}

// outcomeBit converts a branch direction to the bit shifted into histories.
func outcomeBit(taken bool) uint32 {
	if taken {
		return 1
	}
	return 0
}

// History is a fixed-width shift register of branch outcomes.
type History struct {
	value uint32
	width uint
}

// NewHistory creates a history register of the given width, cleared to
// not taken.
func NewHistory(width uint) History {
	return History{width: width}
}

// Value returns the current register contents.
func (h History) Value() uint32 {
	return h.value
}

// Width returns the register width in bits.
func (h History) Width() uint {
	return h.width
}

// Push shifts an outcome into the register.
func (h *History) Push(taken bool) {
	h.value = ((h.value << 1) | outcomeBit(taken)) & mask(h.width)
}

// historyFile holds one local history register per PC-derived slot.
// Slots start at zero and are never released.
type historyFile struct {
	regs      []uint32
	indexBits uint
	width     uint
}

func newHistoryFile(indexBits, width uint) historyFile {
	return historyFile{
		regs:      make([]uint32, 1<<indexBits),
		indexBits: indexBits,
		width:     width,
	}
}

// slot returns the register index for a PC, excluding alignment bits.
func (f historyFile) slot(pc uint32) uint32 {
	return (pc >> 2) & mask(f.indexBits)
}

func (f historyFile) get(pc uint32) uint32 {
	return f.regs[f.slot(pc)]
}

func (f historyFile) push(pc uint32, taken bool) {
	i := f.slot(pc)
	f.regs[i] = ((f.regs[i] << 1) | outcomeBit(taken)) & mask(f.width)
}
