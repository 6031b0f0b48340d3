// Package estimate implements the Intel 8086 clock-cycle estimator: a pure
// function from a decoded instruction to a (base, ea) clock pair. It reads
// nothing but its argument and has no side effects.
package estimate

import "github.com/oisee/sim8086/pkg/decode"

// eaRmClass buckets an rm field into one of three EA-penalty groups, per the
// Intel manual's table of effective-address timings.
func eaRmClass(rm int) int {
	switch rm {
	case 0, 3:
		return 0 // BX+SI, BP+DI
	case 1, 2:
		return 1 // BX+DI, BP+SI
	default:
		return 2 // single base or index register (4, 5, 6, 7)
	}
}

var eaZeroDispClocks = [3]int{7, 8, 5}
var eaNonZeroDispClocks = [3]int{11, 12, 9}

// EA returns the effective-address computation penalty for a decoded
// instruction, per the Intel manual's EA timing table. It returns 0 when
// neither operand is memory, when mod=11 (both operands registers), or when
// an operand is an accumulator using the short direct-address MOV form.
func EA(di decode.DecodedInstruction) int {
	if di.DestKind != decode.KindMemory && di.SourceKind != decode.KindMemory {
		return 0
	}
	if di.Mod == 3 {
		return 0
	}
	if di.DestKind == decode.KindAccumulator || di.SourceKind == decode.KindAccumulator {
		return 0
	}
	if di.Mod == 0 && di.RM == 6 {
		return 6 // direct address
	}
	class := eaRmClass(di.RM)
	if di.Mod != 0 && di.DispNonZero {
		return eaNonZeroDispClocks[class]
	}
	return eaZeroDispClocks[class]
}

// operandClass buckets an operand kind down to the categories the base-clock
// table distinguishes: register, memory, immediate, or accumulator.
func operandClass(k decode.OperandKind) string {
	switch k {
	case decode.KindRegister:
		return "reg"
	case decode.KindMemory:
		return "mem"
	case decode.KindImmediate:
		return "imm"
	case decode.KindAccumulator:
		return "acc"
	default:
		return ""
	}
}

type baseKey struct {
	op   decode.Op
	dest string
	src  string
}

// baseClocks is the three-level (opcode, dest-kind, source-kind) dispatch
// table from the Intel manual. Entries not listed are 0 (untimed).
var baseClocks = map[baseKey]int{
	{decode.MOV, "reg", "reg"}: 2,
	{decode.MOV, "reg", "mem"}: 8,
	{decode.MOV, "reg", "imm"}: 4,
	{decode.MOV, "mem", "reg"}: 9,
	{decode.MOV, "mem", "acc"}: 10,
	{decode.MOV, "mem", "imm"}: 10,
	{decode.MOV, "acc", "mem"}: 10,

	{decode.ADD, "reg", "reg"}: 3,
	{decode.ADD, "reg", "mem"}: 9,
	{decode.ADD, "reg", "imm"}: 4,
	{decode.ADD, "mem", "reg"}: 16,
	{decode.ADD, "mem", "imm"}: 17,
	{decode.ADD, "acc", "imm"}: 4,

	{decode.SUB, "reg", "reg"}: 3,
	{decode.SUB, "reg", "mem"}: 9,
	{decode.SUB, "reg", "imm"}: 4,
	{decode.SUB, "mem", "reg"}: 16,
	{decode.SUB, "mem", "imm"}: 17,
	{decode.SUB, "acc", "imm"}: 4,

	{decode.CMP, "reg", "reg"}: 3,
	{decode.CMP, "reg", "mem"}: 9,
	{decode.CMP, "reg", "imm"}: 4,
	{decode.CMP, "mem", "reg"}: 9,
	{decode.CMP, "mem", "imm"}: 10,
	{decode.CMP, "acc", "imm"}: 4,
}

// Base returns the base clock count for a decoded instruction, per the
// three-level opcode/destination/source dispatch table. Untimed opcodes
// (TEST, conditional jumps, loops, Undefined) return 0.
func Base(di decode.DecodedInstruction) int {
	return baseClocks[baseKey{di.Opcode, operandClass(di.DestKind), operandClass(di.SourceKind)}]
}

// Estimate returns the (base, ea) clock pair for a decoded instruction. The
// total cost of executing the instruction is base+ea.
func Estimate(di decode.DecodedInstruction) (base, ea int) {
	return Base(di), EA(di)
}
