// Package machine holds the 8086 register file, flat memory, flags register,
// instruction pointer, and mutation log — the state a decode/execute cycle
// reads and mutates.
package machine

// MemorySize is the flat address space: 2^20 bytes (1 MiB), matching the
// 8086's 20-bit address bus without segmentation.
const MemorySize = 1 << 20

// Word register indices, in the canonical 8086 order.
const (
	AX = iota
	CX
	DX
	BX
	SP
	BP
	SI
	DI
	NumWordRegs
)

// WordRegNames maps a word register index to its assembly name.
var WordRegNames = [NumWordRegs]string{"ax", "cx", "dx", "bx", "sp", "bp", "si", "di"}

// Byte register indices. Byte index n < 4 aliases the low byte of word n;
// n >= 4 aliases the high byte of word n-4.
const (
	AL = iota
	CL
	DL
	BL
	AH
	CH
	DH
	BH
	NumByteRegs
)

// ByteRegNames maps a byte register index to its assembly name.
var ByteRegNames = [NumByteRegs]string{"al", "cl", "dl", "bl", "ah", "ch", "dh", "bh"}

// Machine is the full processor state. It is passed explicitly to the
// executor rather than held globally, so a run is isolated and the core is
// unit-testable in parallel. The decoder does not take a Machine; it reads
// only the program bytes and an ip.
type Machine struct {
	Regs    [NumWordRegs]uint16
	Memory  []byte
	Flags   uint16
	IP      int
	mutated []int // word-register indices written since program start, deduped
}

// New returns a Machine with a freshly allocated, zeroed 1 MiB memory.
func New() *Machine {
	return &Machine{Memory: make([]byte, MemorySize)}
}

// ReadByte returns the value of byte register idx, per the aliasing rule:
// idx < 4 reads the low byte of word idx; idx >= 4 reads the high byte of
// word idx-4.
func (m *Machine) ReadByte(idx int) uint8 {
	if idx < 4 {
		return uint8(m.Regs[idx])
	}
	return uint8(m.Regs[idx-4] >> 8)
}

// WriteByte writes byte register idx, leaving the other half of the
// containing word untouched, and records the mutation.
func (m *Machine) WriteByte(idx int, v uint8) {
	if idx < 4 {
		m.Regs[idx] = (m.Regs[idx] &^ 0x00FF) | uint16(v)
		m.RecordMutation(idx)
		return
	}
	word := idx - 4
	m.Regs[word] = (m.Regs[word] &^ 0xFF00) | (uint16(v) << 8)
	m.RecordMutation(word)
}

// ReadWord returns word register idx.
func (m *Machine) ReadWord(idx int) uint16 {
	return m.Regs[idx]
}

// WriteWord writes word register idx and records the mutation.
func (m *Machine) WriteWord(idx int, v uint16) {
	m.Regs[idx] = v
	m.RecordMutation(idx)
}

// RecordMutation appends a word-register index to the mutation log iff it is
// not already present. The log never exceeds NumWordRegs entries, so a linear
// scan is cheap.
func (m *Machine) RecordMutation(idx int) {
	for _, v := range m.mutated {
		if v == idx {
			return
		}
	}
	m.mutated = append(m.mutated, idx)
}

// Mutated returns the word-register indices written since program start, in
// first-write order.
func (m *Machine) Mutated() []int {
	return m.mutated
}

// ReadWordMem reads a little-endian 16-bit word at the given memory address.
func (m *Machine) ReadWordMem(addr int) uint16 {
	return uint16(m.Memory[addr]) | uint16(m.Memory[addr+1])<<8
}

// WriteWordMem writes a little-endian 16-bit word at the given memory address.
func (m *Machine) WriteWordMem(addr int, v uint16) {
	m.Memory[addr] = uint8(v)
	m.Memory[addr+1] = uint8(v >> 8)
}
