// Package exec is the 8086 execution engine: it applies a decoded
// instruction to a Machine, in the order the spec mandates — advance IP by
// the instruction's length first, then perform the operation (so a taken
// branch's displacement is added to the post-length IP, matching NASM's
// "$+N" convention).
package exec

import (
	"github.com/oisee/sim8086/pkg/decode"
	"github.com/oisee/sim8086/pkg/machine"
)

// Exec applies di to m. It returns nothing; registers written by this step
// are recorded in m's mutation log.
func Exec(m *machine.Machine, di decode.DecodedInstruction) {
	m.IP += di.Length

	switch di.Opcode {
	case decode.MOV:
		execMov(m, di)
	case decode.ADD:
		execArith(m, di, addOp)
	case decode.SUB:
		execArith(m, di, subOp)
	case decode.CMP:
		execArith(m, di, cmpOp)
	case decode.TEST:
		// Decoded but not executed, per spec.
	case decode.LOOP:
		execLoop(m, di, func(zf bool) bool { return true })
	case decode.LOOPZ:
		execLoop(m, di, func(zf bool) bool { return zf })
	case decode.LOOPNZ:
		execLoop(m, di, func(zf bool) bool { return !zf })
	case decode.JCXZ:
		if m.ReadWord(machine.CX) == 0 {
			m.IP += int(di.BranchTarget)
		}
	default:
		if cond, ok := conditions[di.Opcode]; ok {
			if cond(m) {
				m.IP += int(di.BranchTarget)
			}
		}
		// decode.Undefined and anything else: no-op.
	}
}

// conditions maps a conditional-jump opcode to its Intel-documented branch
// predicate. JO/JNO/JS/JNS/JL/JLE/JNL/JNLE are deliberately the corrected
// semantics (the original homework source checks some of these backwards or
// drops the SF!=OF comparison; this emulator follows Intel's manual, not the
// buggy source — see DESIGN.md).
var conditions = map[decode.Op]func(*machine.Machine) bool{
	decode.JE:    func(m *machine.Machine) bool { return m.Flag(machine.FlagZ) },
	decode.JNE:   func(m *machine.Machine) bool { return !m.Flag(machine.FlagZ) },
	decode.JB:    func(m *machine.Machine) bool { return m.Flag(machine.FlagC) },
	decode.JNB:   func(m *machine.Machine) bool { return !m.Flag(machine.FlagC) },
	decode.JBE:   func(m *machine.Machine) bool { return m.Flag(machine.FlagC) || m.Flag(machine.FlagZ) },
	decode.JNBE:  func(m *machine.Machine) bool { return !m.Flag(machine.FlagC) && !m.Flag(machine.FlagZ) },
	decode.JP:    func(m *machine.Machine) bool { return m.Flag(machine.FlagP) },
	decode.JNP:   func(m *machine.Machine) bool { return !m.Flag(machine.FlagP) },
	decode.JO:    func(m *machine.Machine) bool { return m.Flag(machine.FlagO) },
	decode.JNO:   func(m *machine.Machine) bool { return !m.Flag(machine.FlagO) },
	decode.JS:    func(m *machine.Machine) bool { return m.Flag(machine.FlagS) },
	decode.JNS:   func(m *machine.Machine) bool { return !m.Flag(machine.FlagS) },
	decode.JL:    func(m *machine.Machine) bool { return m.Flag(machine.FlagS) != m.Flag(machine.FlagO) },
	decode.JNL:   func(m *machine.Machine) bool { return m.Flag(machine.FlagS) == m.Flag(machine.FlagO) },
	decode.JLE:   func(m *machine.Machine) bool { return m.Flag(machine.FlagZ) || m.Flag(machine.FlagS) != m.Flag(machine.FlagO) },
	decode.JNLE:  func(m *machine.Machine) bool { return !m.Flag(machine.FlagZ) && m.Flag(machine.FlagS) == m.Flag(machine.FlagO) },
}

// execLoop decrements CX, then branches iff CX != 0 and extra(ZF) holds. The
// decrement-before-test order matches Intel's documented LOOP semantics (the
// original source tests CX before decrementing — see DESIGN.md).
func execLoop(m *machine.Machine, di decode.DecodedInstruction, extra func(zf bool) bool) {
	cx := m.ReadWord(machine.CX) - 1
	m.WriteWord(machine.CX, cx)
	if cx != 0 && extra(m.Flag(machine.FlagZ)) {
		m.IP += int(di.BranchTarget)
	}
}

// effectiveAddress resolves a memory operand's final linear address by
// adding the live base/index register values named by Mod/RM to the
// decode-time displacement/direct-address component.
func effectiveAddress(m *machine.Machine, di decode.DecodedInstruction) int {
	regs, direct := decode.EARegs(di.Mod, di.RM)
	if direct {
		return di.MemoryIndex
	}
	addr := uint16(di.MemoryIndex)
	for _, r := range regs {
		addr += m.ReadWord(r)
	}
	return int(addr)
}

func readOperand(m *machine.Machine, kind decode.OperandKind, reg int, addr int, imm uint16, w decode.Width) uint16 {
	switch kind {
	case decode.KindRegister, decode.KindAccumulator:
		if w == decode.Word {
			return m.ReadWord(reg)
		}
		return uint16(m.ReadByte(reg))
	case decode.KindMemory:
		if w == decode.Word {
			return m.ReadWordMem(addr)
		}
		return uint16(m.Memory[addr])
	case decode.KindImmediate:
		return imm
	}
	return 0
}

func writeOperand(m *machine.Machine, kind decode.OperandKind, reg int, addr int, w decode.Width, v uint16) {
	switch kind {
	case decode.KindRegister, decode.KindAccumulator:
		if w == decode.Word {
			m.WriteWord(reg, v)
		} else {
			m.WriteByte(reg, uint8(v))
		}
	case decode.KindMemory:
		if w == decode.Word {
			m.WriteWordMem(addr, v)
		} else {
			m.Memory[addr] = uint8(v)
		}
	}
}

func execMov(m *machine.Machine, di decode.DecodedInstruction) {
	destAddr, srcAddr := 0, 0
	if di.DestKind == decode.KindMemory {
		destAddr = effectiveAddress(m, di)
	}
	if di.SourceKind == decode.KindMemory {
		srcAddr = effectiveAddress(m, di)
	}
	v := readOperand(m, di.SourceKind, di.SourceReg, srcAddr, di.Immediate, di.Width)
	writeOperand(m, di.DestKind, di.DestReg, destAddr, di.Width, v)
}

type arithOp int

const (
	addOp arithOp = iota
	subOp
	cmpOp
)

func execArith(m *machine.Machine, di decode.DecodedInstruction, op arithOp) {
	destAddr, srcAddr := 0, 0
	if di.DestKind == decode.KindMemory {
		destAddr = effectiveAddress(m, di)
	}
	if di.SourceKind == decode.KindMemory {
		srcAddr = effectiveAddress(m, di)
	}

	a := readOperand(m, di.DestKind, di.DestReg, destAddr, 0, di.Width)
	b := readOperand(m, di.SourceKind, di.SourceReg, srcAddr, di.Immediate, di.Width)

	var r uint16
	isAdd := op == addOp
	if isAdd {
		r = a + b
	} else {
		r = a - b
	}

	mask := uint16(0xFF)
	signBit := uint16(0x80)
	if di.Width == decode.Word {
		mask = 0xFFFF
		signBit = 0x8000
	}
	r &= mask

	setArithFlags(m, a, b, r, mask, signBit, isAdd)

	if op != cmpOp {
		writeOperand(m, di.DestKind, di.DestReg, destAddr, di.Width, r)
	}
}

// setArithFlags computes the six materially-tracked flags for a binary
// arithmetic result, per Intel semantics: A is old destination, B is the
// source operand, R is the width-truncated result.
func setArithFlags(m *machine.Machine, a, b, r, mask, signBit uint16, isAdd bool) {
	var carry bool
	if isAdd {
		carry = a > r
	} else {
		carry = a < r
	}
	m.SetFlag(machine.FlagC, carry)

	m.Flags = (m.Flags &^ machine.FlagP) | machine.ParityTable[uint8(r)]

	m.SetFlag(machine.FlagA, ((a^b^r)>>4)&1 != 0)
	m.SetFlag(machine.FlagS, r&signBit != 0)
	m.SetFlag(machine.FlagZ, r == 0)

	shift := 7
	if mask == 0xFFFF {
		shift = 15
	}
	var overflow uint16
	if isAdd {
		overflow = (^(a ^ b)) & (a ^ r)
	} else {
		overflow = (a ^ b) & (a ^ r)
	}
	m.SetFlag(machine.FlagO, (overflow>>shift)&1 != 0)
}
