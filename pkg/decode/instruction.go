// Package decode turns a raw 8086 byte stream into structured instruction
// records. It never mutates machine state beyond reading the bytes it is
// given, and it never advances an instruction pointer — that is the
// executor's job.
package decode

// Op identifies the decoded operation. It is a closed sum type: dispatch in
// the executor and estimator is a switch over these values, never a string
// comparison.
type Op int

const (
	Undefined Op = iota
	MOV
	ADD
	SUB
	CMP
	TEST

	// Conditional jumps, named after their NASM mnemonics.
	JE
	JL
	JLE
	JB
	JBE
	JP
	JO
	JS
	JNE
	JNL
	JNLE
	JNB
	JNBE
	JNP
	JNO
	JNS

	// Loops.
	LOOP
	LOOPZ
	LOOPNZ
	JCXZ
)

// OperandKind classifies an operand descriptor.
type OperandKind int

const (
	KindNone OperandKind = iota
	KindRegister
	KindMemory
	KindImmediate
	KindAccumulator
	KindJumpTarget
)

// Width selects byte or word operation width.
type Width int

const (
	Byte Width = iota
	Word
)

// DecodedInstruction is the decoder's output: a complete description of one
// instruction, filled in from the bytes at Machine.IP without mutating IP.
type DecodedInstruction struct {
	Opcode Op

	Dest, Source         string // rendered operand text, for disassembly only
	DestKind, SourceKind OperandKind
	Width                Width

	RegIsDest     bool // the ISA's d bit
	SignedExtend  bool // the ISA's s bit

	Mod, Reg, RM int // ModR/M fields, when present

	// DestReg/SourceReg hold the canonical register index when the
	// corresponding Kind is KindRegister or KindAccumulator. This is the
	// representation execution dispatches on; Dest/Source strings exist
	// only to render disassembly.
	DestReg, SourceReg int

	// Immediate holds an immediate operand value (already sign-extended to
	// 16 bits per the s bit, when applicable).
	Immediate uint16

	// MemoryIndex holds the displacement or direct-address component of a
	// memory operand, as read from the instruction stream. The decoder has
	// no access to register contents (its contract is the byte stream
	// alone), so for base/index-relative addressing (mod != 11, rm != 6 at
	// mod=00) this is only half of the true effective address: the
	// executor adds the live base/index register values named by Mod/RM
	// (see EARegs) to produce the final linear address at execution time.
	// For the direct-address special case (mod=00, rm=110) this already is
	// the complete address.
	MemoryIndex int

	// DispNonZero records whether a memory operand's displacement byte(s)
	// were present and nonzero. The estimator's effective-address penalty
	// table distinguishes a nonzero displacement at mod=01/10 from every
	// other memory-addressing case.
	DispNonZero bool

	Length int // total instruction length in bytes, 1-6

	// BranchTarget holds the signed 8-bit displacement for conditional
	// jumps and loops.
	BranchTarget int8

	FlagsAffected bool
}
