package estimate

import (
	"testing"

	"github.com/oisee/sim8086/pkg/decode"
)

func TestEARegisterToRegisterIsZero(t *testing.T) {
	di := decode.DecodedInstruction{DestKind: decode.KindRegister, SourceKind: decode.KindRegister, Mod: 3}
	if got := EA(di); got != 0 {
		t.Errorf("EA(reg,reg) = %d, want 0", got)
	}
}

func TestEADirectAddressIsSix(t *testing.T) {
	di := decode.DecodedInstruction{DestKind: decode.KindMemory, SourceKind: decode.KindRegister, Mod: 0, RM: 6}
	if got := EA(di); got != 6 {
		t.Errorf("EA(direct address) = %d, want 6", got)
	}
}

func TestEAZeroVsNonZeroDisplacement(t *testing.T) {
	cases := []struct {
		rm          int
		mod         int
		dispNonZero bool
		want        int
	}{
		{rm: 0, mod: 0, dispNonZero: false, want: 7},  // bx+si, no disp
		{rm: 0, mod: 1, dispNonZero: true, want: 11},  // bx+si, disp8
		{rm: 1, mod: 2, dispNonZero: true, want: 12},  // bx+di, disp16
		{rm: 1, mod: 0, dispNonZero: false, want: 8},  // bx+di (class 1), no disp
		{rm: 4, mod: 0, dispNonZero: false, want: 5},  // si, no disp
		{rm: 7, mod: 1, dispNonZero: true, want: 9},   // bx, disp8
	}
	for _, c := range cases {
		di := decode.DecodedInstruction{
			DestKind: decode.KindMemory, SourceKind: decode.KindRegister,
			Mod: c.mod, RM: c.rm, DispNonZero: c.dispNonZero,
		}
		if got := EA(di); got != c.want {
			t.Errorf("EA(rm=%d,mod=%d,dispNonZero=%v) = %d, want %d", c.rm, c.mod, c.dispNonZero, got, c.want)
		}
	}
}

func TestEAAccumulatorShortFormIsZero(t *testing.T) {
	// mov ax, [addr] / mov [addr], ax: decodeAccMem leaves Mod/RM at their
	// zero defaults, which would otherwise alias bx+si zero-displacement.
	cases := []decode.DecodedInstruction{
		{DestKind: decode.KindAccumulator, SourceKind: decode.KindMemory},
		{DestKind: decode.KindMemory, SourceKind: decode.KindAccumulator},
	}
	for _, di := range cases {
		if got := EA(di); got != 0 {
			t.Errorf("EA(acc<->mem direct form) = %d, want 0", got)
		}
	}
}

func TestEANoMemoryOperandIsZero(t *testing.T) {
	di := decode.DecodedInstruction{DestKind: decode.KindAccumulator, SourceKind: decode.KindImmediate}
	if got := EA(di); got != 0 {
		t.Errorf("EA(acc,imm) = %d, want 0", got)
	}
}

func TestBaseClocksDispatch(t *testing.T) {
	cases := []struct {
		op       decode.Op
		dest     decode.OperandKind
		src      decode.OperandKind
		wantBase int
	}{
		{decode.MOV, decode.KindRegister, decode.KindRegister, 2},
		{decode.MOV, decode.KindMemory, decode.KindAccumulator, 10},
		{decode.ADD, decode.KindMemory, decode.KindImmediate, 17},
		{decode.SUB, decode.KindAccumulator, decode.KindImmediate, 4},
		{decode.CMP, decode.KindRegister, decode.KindMemory, 9},
	}
	for _, c := range cases {
		di := decode.DecodedInstruction{Opcode: c.op, DestKind: c.dest, SourceKind: c.src}
		if got := Base(di); got != c.wantBase {
			t.Errorf("Base(%v,%v,%v) = %d, want %d", c.op, c.dest, c.src, got, c.wantBase)
		}
	}
}

func TestBaseClocksUntimedOpcodeIsZero(t *testing.T) {
	di := decode.DecodedInstruction{Opcode: decode.TEST, DestKind: decode.KindRegister, SourceKind: decode.KindRegister}
	if got := Base(di); got != 0 {
		t.Errorf("Base(TEST) = %d, want 0 (untimed)", got)
	}
}

func TestEstimateSumsBaseAndEA(t *testing.T) {
	di := decode.DecodedInstruction{
		Opcode: decode.ADD, DestKind: decode.KindMemory, SourceKind: decode.KindRegister,
		Mod: 1, RM: 0, DispNonZero: true,
	}
	base, ea := Estimate(di)
	if base != 16 {
		t.Errorf("base = %d, want 16", base)
	}
	if ea != 11 {
		t.Errorf("ea = %d, want 11", ea)
	}
}
