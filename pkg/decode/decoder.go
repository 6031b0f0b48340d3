package decode

import (
	"fmt"

	"github.com/oisee/sim8086/pkg/machine"
)

// jumpTable maps a full opcode byte to its conditional-jump or loop
// mnemonic. All of these consume exactly one further byte: a signed 8-bit
// branch displacement.
var jumpTable = map[byte]Op{
	0x74: JE, 0x7C: JL, 0x7E: JLE, 0x72: JB,
	0x76: JBE, 0x7A: JP, 0x70: JO, 0x78: JS,
	0x75: JNE, 0x7D: JNL, 0x7F: JNLE, 0x73: JNB,
	0x77: JNBE, 0x7B: JNP, 0x71: JNO, 0x79: JNS,
	0xE2: LOOP, 0xE1: LOOPZ, 0xE0: LOOPNZ, 0xE3: JCXZ,
}

var jumpMnemonic = map[Op]string{
	JE: "je", JL: "jl", JLE: "jle", JB: "jb", JBE: "jbe", JP: "jp", JO: "jo", JS: "js",
	JNE: "jne", JNL: "jnl", JNLE: "jnle", JNB: "jnb", JNBE: "jnbe", JNP: "jnp", JNO: "jno", JNS: "jns",
	LOOP: "loop", LOOPZ: "loopz", LOOPNZ: "loopnz", JCXZ: "jcxz",
}

// eaEquation renders the base/index register expression for a ModR/M rm
// field in memory mode (mod != 11), not including displacement or brackets.
var eaEquation = [8]string{
	"bx + si", "bx + di", "bp + si", "bp + di",
	"si", "di", "bp", "bx",
}

// Decode reads the instruction at program[ip:] and returns a complete
// DecodedInstruction. It never mutates program or advances ip itself; the
// caller (the executor/driver) is responsible for advancing the instruction
// pointer by the returned Length.
func Decode(program []byte, ip int) (DecodedInstruction, error) {
	if ip >= len(program) {
		return DecodedInstruction{}, fmt.Errorf("decode: ip %d out of range (program length %d)", ip, len(program))
	}
	b0 := program[ip]

	// 1. Full 8-bit match: conditional jumps and loops.
	if op, ok := jumpTable[b0]; ok {
		if ip+1 >= len(program) {
			return DecodedInstruction{}, fmt.Errorf("decode: truncated branch instruction at %d", ip)
		}
		disp := int8(program[ip+1])
		return DecodedInstruction{
			Opcode:       op,
			Dest:         branchTargetText(int(disp) + 2),
			DestKind:     KindJumpTarget,
			Length:       2,
			BranchTarget: disp,
		}, nil
	}

	// 2. 7-bit prefix group.
	switch {
	case b0&0xFE == 0xC6: // 1100011x: MOV immediate to reg/mem
		return decodeImmToRegMem(program, ip, MOV, b0&1 == 1, false)
	case b0&0xFE == 0xA0: // 1010000x: MOV mem -> accumulator
		return decodeAccMem(program, ip, b0&1 == 1, true)
	case b0&0xFE == 0xA2: // 1010001x: MOV accumulator -> mem
		return decodeAccMem(program, ip, b0&1 == 1, false)
	case b0&0xFE == 0x04: // 0000010x: ADD imm -> accumulator
		return decodeImmToAcc(program, ip, ADD, b0&1 == 1)
	case b0&0xFE == 0x2C: // 0010110x: SUB imm -> accumulator
		return decodeImmToAcc(program, ip, SUB, b0&1 == 1)
	case b0&0xFE == 0x3C: // 0011110x: CMP imm -> accumulator
		return decodeImmToAcc(program, ip, CMP, b0&1 == 1)
	case b0&0xFE == 0xF6: // 1111011x: TEST imm & reg/mem
		return decodeImmToRegMem(program, ip, TEST, b0&1 == 1, false)
	case b0&0xFE == 0xA8: // 1010100x: TEST imm & accumulator
		return decodeImmToAcc(program, ip, TEST, b0&1 == 1)
	}

	// 3. 6-bit prefix group.
	switch {
	case b0&0xFC == 0x88: // 100010xx: MOV reg/mem <-> reg
		return decodeRegMemToReg(program, ip, MOV, b0)
	case b0&0xFC == 0x00: // 000000xx: ADD reg/mem <-> reg
		return decodeRegMemToReg(program, ip, ADD, b0)
	case b0&0xFC == 0x28: // 001010xx: SUB reg/mem <-> reg
		return decodeRegMemToReg(program, ip, SUB, b0)
	case b0&0xFC == 0x38: // 001110xx: CMP reg/mem <-> reg
		return decodeRegMemToReg(program, ip, CMP, b0)
	case b0&0xFC == 0x80: // 100000xx: immediate ADD/SUB/CMP to reg/mem
		return decodeImmArith(program, ip, b0)
	case b0&0xFC == 0x10: // 000100xx: TEST reg/mem with reg
		return decodeRegMemToReg(program, ip, TEST, b0)
	}

	// 4. 4-bit prefix group.
	if b0&0xF0 == 0xB0 { // 1011wrrr: MOV immediate to register
		return decodeImmToReg(program, ip, b0)
	}

	// 5. Unrecognized. The executor ignores this marker; the driver reports
	// "Undefined register!" and advances by one byte to guarantee progress.
	return DecodedInstruction{Opcode: Undefined, Length: 1}, nil
}

// modRM splits the ModR/M byte into its mod/reg/rm fields.
func modRM(b byte) (mod, reg, rm int) {
	return int(b >> 6), int(b>>3) & 0x7, int(b & 0x7)
}

// regName renders register idx at the given width.
func regName(w Width, idx int) string {
	if w == Word {
		return machine.WordRegNames[idx]
	}
	return machine.ByteRegNames[idx]
}

// memOperand reads (beyond the ModR/M byte, at program[pos:]) any
// displacement/direct-address bytes for a memory operand, returning its
// rendered text, resolved linear address relative to a zero base, the
// number of extra bytes consumed, and whether the displacement was zero
// (needed by the estimator's EA-penalty table).
func memOperand(program []byte, pos, mod, rm int) (text string, addr int, consumed int, dispZero bool, err error) {
	if mod == 0 && rm == 6 {
		// mod=00, rm=110: 16-bit direct address, not bp-relative.
		if pos+1 >= len(program) {
			return "", 0, 0, false, fmt.Errorf("decode: truncated direct address at %d", pos)
		}
		a := int(program[pos]) | int(program[pos+1])<<8
		return fmt.Sprintf("[%d]", a), a, 2, false, nil
	}

	base := eaEquation[rm]
	switch mod {
	case 0:
		return fmt.Sprintf("[%s]", base), 0, 0, true, nil
	case 1:
		if pos >= len(program) {
			return "", 0, 0, false, fmt.Errorf("decode: truncated 8-bit displacement at %d", pos)
		}
		d := int8(program[pos])
		return fmt.Sprintf("[%s%s]", base, dispSuffix(int(d))), int(d), 1, d == 0, nil
	case 2:
		if pos+1 >= len(program) {
			return "", 0, 0, false, fmt.Errorf("decode: truncated 16-bit displacement at %d", pos)
		}
		d := int16(uint16(program[pos]) | uint16(program[pos+1])<<8)
		return fmt.Sprintf("[%s%s]", base, dispSuffix(int(d))), int(d), 2, d == 0, nil
	default:
		return "", 0, 0, false, fmt.Errorf("decode: mod=11 has no memory operand")
	}
}

// eaRegs maps an rm field (mod != 11) to the word-register indices summed
// into the effective address. rm=6 is handled specially by the caller: at
// mod=00 it is a direct address with no base register at all; at mod=01/10
// it is BP-relative.
var eaRegs = [8][]int{
	{machine.BX, machine.SI},
	{machine.BX, machine.DI},
	{machine.BP, machine.SI},
	{machine.BP, machine.DI},
	{machine.SI},
	{machine.DI},
	{machine.BP},
	{machine.BX},
}

// EARegs returns the word-register indices that contribute to a memory
// operand's effective address, and whether the addressing mode is the
// direct-address special case (no base registers at all).
func EARegs(mod, rm int) (regs []int, direct bool) {
	if mod == 0 && rm == 6 {
		return nil, true
	}
	return eaRegs[rm], false
}

// branchTargetText renders a relative branch target in NASM's "$+N"/"$-N"
// form; Go's %d already prefixes a negative n with "-", so only the positive
// case needs an explicit "+".
func branchTargetText(n int) string {
	if n < 0 {
		return fmt.Sprintf("$%d", n)
	}
	return fmt.Sprintf("$+%d", n)
}

// dispSuffix renders a NASM-style " + N" / " - N" suffix, omitted when disp
// is zero.
func dispSuffix(disp int) string {
	switch {
	case disp == 0:
		return ""
	case disp > 0:
		return fmt.Sprintf(" + %d", disp)
	default:
		return fmt.Sprintf(" - %d", -disp)
	}
}

// decodeRegMemToReg handles the 6-bit "reg/mem <-> reg" family: MOV, ADD,
// SUB, CMP, TEST. Opcode byte layout: ......dw.
func decodeRegMemToReg(program []byte, ip int, op Op, b0 byte) (DecodedInstruction, error) {
	d := b0&0x02 != 0
	w := widthOf(b0 & 0x01)

	if ip+1 >= len(program) {
		return DecodedInstruction{}, fmt.Errorf("decode: truncated ModR/M at %d", ip)
	}
	modByte := program[ip+1]
	mod, reg, rm := modRM(modByte)

	di := DecodedInstruction{Opcode: op, Width: w, Mod: mod, Reg: reg, RM: rm, RegIsDest: d}
	length := 2

	regText := regName(w, reg)

	var rmText string
	var rmKind OperandKind
	var rmReg int
	var memAddr int
	var dispNonZero bool
	if mod == 3 {
		rmReg = rm
		rmText = regName(w, rm)
		rmKind = KindRegister
	} else {
		text, addr, consumed, dispZero, err := memOperand(program, ip+2, mod, rm)
		if err != nil {
			return DecodedInstruction{}, err
		}
		rmText = text
		memAddr = addr
		rmKind = KindMemory
		dispNonZero = !dispZero
		length += consumed
	}
	di.DispNonZero = dispNonZero

	if d {
		di.Dest, di.DestKind, di.DestReg = regText, KindRegister, reg
		di.Source, di.SourceKind = rmText, rmKind
		if rmKind == KindRegister {
			di.SourceReg = rmReg
		} else {
			di.MemoryIndex = memAddr
		}
	} else {
		di.Dest, di.DestKind = rmText, rmKind
		if rmKind == KindRegister {
			di.DestReg = rmReg
		} else {
			di.MemoryIndex = memAddr
		}
		di.Source, di.SourceKind, di.SourceReg = regText, KindRegister, reg
	}

	di.Length = length
	di.FlagsAffected = op == ADD || op == SUB || op == CMP || op == TEST
	return di, nil
}

// decodeImmToRegMem handles the 7-bit "immediate to reg/mem" family: MOV and
// TEST. For TEST, accept the undiscriminated 1111011x opcode as-is (only TEST
// is specified in this subset). Opcode byte layout: .......w.
func decodeImmToRegMem(program []byte, ip int, op Op, w bool, _ bool) (DecodedInstruction, error) {
	width := widthOf(boolToBit(w))

	if ip+1 >= len(program) {
		return DecodedInstruction{}, fmt.Errorf("decode: truncated ModR/M at %d", ip)
	}
	modByte := program[ip+1]
	mod, reg, rm := modRM(modByte)

	di := DecodedInstruction{Opcode: op, Width: width, Mod: mod, Reg: reg, RM: rm}
	length := 2

	var destText string
	var destKind OperandKind
	var destReg int
	var memAddr int
	var dispNonZero bool
	if mod == 3 {
		destReg = rm
		destText = regName(width, rm)
		destKind = KindRegister
	} else {
		text, addr, consumed, dispZero, err := memOperand(program, ip+2, mod, rm)
		if err != nil {
			return DecodedInstruction{}, err
		}
		destText = text
		memAddr = addr
		destKind = KindMemory
		dispNonZero = !dispZero
		length += consumed
	}
	di.DispNonZero = dispNonZero

	var imm uint16
	if width == Word {
		if ip+length+1 >= len(program) {
			return DecodedInstruction{}, fmt.Errorf("decode: truncated word immediate at %d", ip)
		}
		imm = uint16(program[ip+length]) | uint16(program[ip+length+1])<<8
		length += 2
	} else {
		if ip+length >= len(program) {
			return DecodedInstruction{}, fmt.Errorf("decode: truncated byte immediate at %d", ip)
		}
		imm = uint16(program[ip+length])
		length++
	}

	di.Dest, di.DestKind = destText, destKind
	if destKind == KindRegister {
		di.DestReg = destReg
	} else {
		di.MemoryIndex = memAddr
	}
	di.Source, di.SourceKind, di.Immediate = renderImmediate(imm, destKind, width), KindImmediate, imm
	di.Length = length
	di.FlagsAffected = op == TEST
	return di, nil
}

// decodeImmArith handles 100000xx: immediate ADD/SUB/CMP to reg/mem,
// discriminated by bits 5:3 of the ModR/M byte. Opcode byte layout: ......sw.
func decodeImmArith(program []byte, ip int, b0 byte) (DecodedInstruction, error) {
	s := b0&0x02 != 0
	w := widthOf(b0 & 0x01)

	if ip+1 >= len(program) {
		return DecodedInstruction{}, fmt.Errorf("decode: truncated ModR/M at %d", ip)
	}
	modByte := program[ip+1]
	mod, reg, rm := modRM(modByte)

	var op Op
	switch reg {
	case 0:
		op = ADD
	case 5:
		op = SUB
	case 7:
		op = CMP
	default:
		return DecodedInstruction{Opcode: Undefined, Length: 1}, nil
	}

	di := DecodedInstruction{Opcode: op, Width: w, Mod: mod, Reg: reg, RM: rm, SignedExtend: s}
	length := 2

	var destText string
	var destKind OperandKind
	var destReg int
	var memAddr int
	var dispNonZero bool
	if mod == 3 {
		destReg = rm
		destText = regName(w, rm)
		destKind = KindRegister
	} else {
		text, addr, consumed, dispZero, err := memOperand(program, ip+2, mod, rm)
		if err != nil {
			return DecodedInstruction{}, err
		}
		destText = text
		memAddr = addr
		destKind = KindMemory
		dispNonZero = !dispZero
		length += consumed
	}
	di.DispNonZero = dispNonZero

	// The s bit controls whether a word destination takes a 1-byte
	// sign-extended immediate or a full 2-byte immediate. Byte destinations
	// always take a 1-byte immediate.
	var imm uint16
	wide := w == Word && !s
	if wide {
		if ip+length+1 >= len(program) {
			return DecodedInstruction{}, fmt.Errorf("decode: truncated word immediate at %d", ip)
		}
		imm = uint16(program[ip+length]) | uint16(program[ip+length+1])<<8
		length += 2
	} else {
		if ip+length >= len(program) {
			return DecodedInstruction{}, fmt.Errorf("decode: truncated byte immediate at %d", ip)
		}
		raw := program[ip+length]
		if w == Word && s {
			imm = uint16(int16(int8(raw)))
		} else {
			imm = uint16(raw)
		}
		length++
	}

	di.Dest, di.DestKind = destText, destKind
	if destKind == KindRegister {
		di.DestReg = destReg
	} else {
		di.MemoryIndex = memAddr
	}
	di.Source, di.SourceKind, di.Immediate = renderImmediate(imm, destKind, w), KindImmediate, imm
	di.Length = length
	di.FlagsAffected = true
	return di, nil
}

// decodeImmToAcc handles the 7-bit "immediate to accumulator" family: ADD,
// SUB, CMP, TEST. Opcode byte layout: .......w.
func decodeImmToAcc(program []byte, ip int, op Op, w bool) (DecodedInstruction, error) {
	width := widthOf(boolToBit(w))
	length := 1

	var imm uint16
	if width == Word {
		if ip+2 >= len(program) {
			return DecodedInstruction{}, fmt.Errorf("decode: truncated word immediate at %d", ip)
		}
		imm = uint16(program[ip+1]) | uint16(program[ip+2])<<8
		length += 2
	} else {
		if ip+1 >= len(program) {
			return DecodedInstruction{}, fmt.Errorf("decode: truncated byte immediate at %d", ip)
		}
		imm = uint16(program[ip+1])
		length++
	}

	accName := "al"
	if width == Word {
		accName = "ax"
	}

	return DecodedInstruction{
		Opcode:        op,
		Width:         width,
		Dest:          accName,
		DestKind:      KindAccumulator,
		DestReg:       0,
		Source:        fmt.Sprintf("%d", int16(imm)),
		SourceKind:    KindImmediate,
		Immediate:     imm,
		Length:        length,
		FlagsAffected: true,
	}, nil
}

// decodeAccMem handles MOV mem <-> accumulator (1010000x / 1010001x): a
// 16-bit direct address follows the opcode byte.
func decodeAccMem(program []byte, ip int, w bool, memToAcc bool) (DecodedInstruction, error) {
	width := widthOf(boolToBit(w))
	if ip+2 >= len(program) {
		return DecodedInstruction{}, fmt.Errorf("decode: truncated direct address at %d", ip)
	}
	addr := int(program[ip+1]) | int(program[ip+2])<<8
	memText := fmt.Sprintf("[%d]", addr)

	accName := "al"
	if width == Word {
		accName = "ax"
	}

	di := DecodedInstruction{Opcode: MOV, Width: width, Length: 3, MemoryIndex: addr}
	if memToAcc {
		di.Dest, di.DestKind, di.DestReg = accName, KindAccumulator, 0
		di.Source, di.SourceKind = memText, KindMemory
	} else {
		di.Dest, di.DestKind = memText, KindMemory
		di.Source, di.SourceKind, di.SourceReg = accName, KindAccumulator, 0
	}
	return di, nil
}

// decodeImmToReg handles 1011wrrr: MOV immediate to register.
func decodeImmToReg(program []byte, ip int, b0 byte) (DecodedInstruction, error) {
	w := widthOf((b0 >> 3) & 0x01)
	reg := int(b0 & 0x07)

	length := 1
	var imm uint16
	if w == Word {
		if ip+2 >= len(program) {
			return DecodedInstruction{}, fmt.Errorf("decode: truncated word immediate at %d", ip)
		}
		imm = uint16(program[ip+1]) | uint16(program[ip+2])<<8
		length += 2
	} else {
		if ip+1 >= len(program) {
			return DecodedInstruction{}, fmt.Errorf("decode: truncated byte immediate at %d", ip)
		}
		imm = uint16(program[ip+1])
		length++
	}

	return DecodedInstruction{
		Opcode:     MOV,
		Width:      w,
		Dest:       regName(w, reg),
		DestKind:   KindRegister,
		DestReg:    reg,
		Source:     fmt.Sprintf("%d", int16(imm)),
		SourceKind: KindImmediate,
		Immediate:  imm,
		Length:     length,
	}, nil
}

// renderImmediate renders an immediate operand's text, prefixing "byte "/
// "word " when the destination is memory, per NASM convention.
func renderImmediate(imm uint16, destKind OperandKind, w Width) string {
	v := int16(imm)
	if destKind != KindMemory {
		return fmt.Sprintf("%d", v)
	}
	if w == Word {
		return fmt.Sprintf("word %d", v)
	}
	return fmt.Sprintf("byte %d", v)
}

func widthOf(wBit byte) Width {
	if wBit != 0 {
		return Word
	}
	return Byte
}

func boolToBit(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Mnemonic returns the NASM-style mnemonic for an Op.
func Mnemonic(op Op) string {
	switch op {
	case MOV:
		return "mov"
	case ADD:
		return "add"
	case SUB:
		return "sub"
	case CMP:
		return "cmp"
	case TEST:
		return "test"
	}
	if m, ok := jumpMnemonic[op]; ok {
		return m
	}
	return "?"
}

// Render produces the full NASM-style disassembly line for a decoded
// instruction (without a trailing newline).
func Render(di DecodedInstruction) string {
	if di.Opcode == Undefined {
		return "(undefined)"
	}
	if di.DestKind == KindJumpTarget {
		return fmt.Sprintf("%s %s", Mnemonic(di.Opcode), di.Dest)
	}
	return fmt.Sprintf("%s %s, %s", Mnemonic(di.Opcode), di.Dest, di.Source)
}
