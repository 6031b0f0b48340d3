package machine

// TestVectors are fixed initial register states used to batch-check
// properties across a handful of representative starting points. Adapted
// from the teacher's pkg/search/verifier.go TestVectors, here repurposed from
// equivalence-search to invariant verification (see SPEC_FULL.md §2.1).
// No randomly generated states are produced here.
var TestVectors = [][NumWordRegs]uint16{
	{0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000},
	{0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF},
	{0x0001, 0x0002, 0x0003, 0x0004, 0x0005, 0x0006, 0x0007, 0x0008},
	{0x8000, 0x4000, 0x2000, 0x1000, 0x0800, 0x0400, 0x0200, 0x0100},
	{0x7FFF, 0x7FFF, 0x7FFF, 0x7FFF, 0x7FFF, 0x7FFF, 0x7FFF, 0x7FFF},
}

// NewWithRegs returns a fresh Machine seeded with the given word-register
// values (in canonical AX..DI order).
func NewWithRegs(regs [NumWordRegs]uint16) *Machine {
	m := New()
	m.Regs = regs
	return m
}

// CheckFlagMask reports whether every set flag bit is one of the six
// materially computed positions: it returns false if any bit outside them
// is set.
func (m *Machine) CheckFlagMask() bool {
	const validMask = FlagC | FlagP | FlagA | FlagZ | FlagS | FlagO
	return m.Flags&^validMask == 0
}

// CheckMutationLogDeduped reports whether the mutation log contains any
// word-register index more than once.
func (m *Machine) CheckMutationLogDeduped() bool {
	seen := make(map[int]bool, len(m.mutated))
	for _, idx := range m.mutated {
		if seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

// CheckByteAliasIsolation reports whether writing one byte half of a word
// register left the other half untouched, by comparing against a snapshot
// taken before the write.
func CheckByteAliasIsolation(before, after [NumWordRegs]uint16, wordIdx int, wroteLowHalf bool) bool {
	if wroteLowHalf {
		return before[wordIdx]&0xFF00 == after[wordIdx]&0xFF00
	}
	return before[wordIdx]&0x00FF == after[wordIdx]&0x00FF
}
