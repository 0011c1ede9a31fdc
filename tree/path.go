package tree

// SlotsPerWord is the number of position slots packed into one path word.
// Each slot is one byte holding a 1-based position; 0 marks an empty slot.
const SlotsPerWord = 8

const (
	slotBits = 8
	slotMask = uint64(0xFF)
)

// Path is the root-to-node sequence of child positions, packed into 64-bit
// words. Slots fill each word from the most significant byte downward, and a
// new word is appended only when the current one is full, so every word
// except the last is completely occupied.
type Path []uint64

// Append returns a copy of p with the 0-based position pos stored in the
// next free slot as its 1-based encoding.
func (p Path) Append(pos uint8) Path {
	n := p.Len()

	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	if n%SlotsPerWord == 0 && n/SlotsPerWord == len(out) {
		out = append(out, 0)
	}

	word := n / SlotsPerWord
	shift := uint((SlotsPerWord - 1 - n%SlotsPerWord) * slotBits)
	out[word] |= uint64(pos+1) << shift
	return out
}

// Len returns the number of occupied slots. Only the final word is scanned;
// all earlier words are full by construction.
func (p Path) Len() int {
	if len(p) == 0 {
		return 0
	}
	n := (len(p) - 1) * SlotsPerWord
	last := p[len(p)-1]
	for i := 0; i < SlotsPerWord; i++ {
		shift := uint((SlotsPerWord - 1 - i) * slotBits)
		if (last>>shift)&slotMask == 0 {
			break
		}
		n++
	}
	return n
}

// At returns the 0-based position stored in slot i.
func (p Path) At(i int) (uint8, error) {
	if i < 0 || i >= p.Len() {
		return 0, ErrPathOutOfRange
	}
	word := p[i/SlotsPerWord]
	shift := uint((SlotsPerWord - 1 - i%SlotsPerWord) * slotBits)
	slot := uint8((word >> shift) & slotMask)
	return slot - 1, nil
}

// HasPrefix reports whether the first prefixLen slots of p equal the first
// prefixLen slots of prefix. Whole words are compared first; only the final
// partial word falls back to a masked comparison.
func (p Path) HasPrefix(prefix Path, prefixLen int) bool {
	if prefixLen == 0 {
		return true
	}
	if p.Len() < prefixLen || prefix.Len() < prefixLen {
		return false
	}

	full := prefixLen / SlotsPerWord
	for i := 0; i < full; i++ {
		if p[i] != prefix[i] {
			return false
		}
	}

	rem := prefixLen % SlotsPerWord
	if rem == 0 {
		return true
	}
	mask := ^uint64(0) << uint((SlotsPerWord-rem)*slotBits)
	return p[full]&mask == prefix[full]&mask
}

// Positions unpacks the path into a slice of 0-based positions.
func (p Path) Positions() []uint8 {
	n := p.Len()
	out := make([]uint8, n)
	for i := 0; i < n; i++ {
		pos, _ := p.At(i)
		out[i] = pos
	}
	return out
}

// Clone returns an independent copy of the path.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}
