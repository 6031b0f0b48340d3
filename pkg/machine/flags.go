package machine

// 8086 flag bit positions within the 16-bit flags register. Only these six
// bits are materially computed; all other bits remain zero.
const (
	FlagC uint16 = 1 << 0  // Carry
	FlagP uint16 = 1 << 2  // Parity (even parity of the low byte of the result)
	FlagA uint16 = 1 << 4  // Auxiliary carry (carry out of bit 3)
	FlagZ uint16 = 1 << 6  // Zero
	FlagS uint16 = 1 << 7  // Sign
	FlagO uint16 = 1 << 11 // Overflow
)

// flagOrder is the printing order used by the trace and final-state summary:
// ascending bit position, matching the original implementation's symbol table.
var flagOrder = []struct {
	bit uint16
	sym string
}{
	{FlagC, "C"},
	{FlagP, "P"},
	{FlagA, "A"},
	{FlagZ, "Z"},
	{FlagS, "S"},
	{FlagO, "O"},
}

// ParityTable holds the even-parity flag for each possible byte value,
// precomputed once at init time rather than popcounted per instruction.
var ParityTable [256]uint16

func init() {
	for i := 0; i < 256; i++ {
		v := uint8(i)
		parity := uint8(0)
		for b := 0; b < 8; b++ {
			parity ^= v & 1
			v >>= 1
		}
		if parity == 0 {
			ParityTable[i] = FlagP
		}
	}
}

// SetFlag sets or clears a single flag bit.
func (m *Machine) SetFlag(bit uint16, on bool) {
	if on {
		m.Flags |= bit
	} else {
		m.Flags &^= bit
	}
}

// Flag reports whether a single flag bit is set.
func (m *Machine) Flag(bit uint16) bool {
	return m.Flags&bit != 0
}

// FlagString renders the set flags in ascending bit-position order (see
// flagOrder), e.g. "PZS". Returns "" if no flag bit is set.
func (m *Machine) FlagString() string {
	s := ""
	for _, f := range flagOrder {
		if m.Flags&f.bit != 0 {
			s += f.sym
		}
	}
	return s
}
