package exec

import (
	"testing"

	"github.com/oisee/sim8086/pkg/decode"
	"github.com/oisee/sim8086/pkg/machine"
)

func TestExecMovRegisterToRegister(t *testing.T) {
	m := machine.New()
	m.WriteWord(machine.BX, 42)

	di, err := decode.Decode([]byte{0x89, 0xD8}, 0) // mov ax, bx
	if err != nil {
		t.Fatal(err)
	}
	Exec(m, di)

	if got := m.ReadWord(machine.AX); got != 42 {
		t.Errorf("AX = %d, want 42", got)
	}
	if m.IP != 2 {
		t.Errorf("IP = %d, want 2", m.IP)
	}
}

func TestExecByteSubtractionWraps(t *testing.T) {
	// sub al, 1 with al=0 wraps to 0xFF and sets carry, not zero.
	m := machine.New()
	di, err := decode.Decode([]byte{0x2C, 0x01}, 0) // sub al, 1
	if err != nil {
		t.Fatal(err)
	}
	Exec(m, di)

	if got := m.ReadByte(machine.AL); got != 0xFF {
		t.Errorf("AL = 0x%02X, want 0xFF", got)
	}
	if !m.Flag(machine.FlagC) {
		t.Error("carry flag not set on 0x00 - 0x01")
	}
	if m.Flag(machine.FlagZ) {
		t.Error("zero flag set, want clear")
	}
	if !m.Flag(machine.FlagS) {
		t.Error("sign flag not set, want set for result 0xFF")
	}
}

func TestExecWordAdditionOverflow(t *testing.T) {
	// add ax, bx with ax=0x7FFF, bx=1 overflows into the sign bit.
	m := machine.New()
	m.WriteWord(machine.AX, 0x7FFF)
	m.WriteWord(machine.BX, 1)

	di, err := decode.Decode([]byte{0x01, 0xD8}, 0) // add ax, bx
	if err != nil {
		t.Fatal(err)
	}
	Exec(m, di)

	if got := m.ReadWord(machine.AX); got != 0x8000 {
		t.Errorf("AX = 0x%04X, want 0x8000", got)
	}
	if !m.Flag(machine.FlagO) {
		t.Error("overflow flag not set on 0x7FFF + 1")
	}
	if m.Flag(machine.FlagC) {
		t.Error("carry flag set, want clear (no unsigned wrap)")
	}
	if !m.Flag(machine.FlagS) {
		t.Error("sign flag not set, want set for result 0x8000")
	}
}

func TestExecCmpDoesNotMutateDestination(t *testing.T) {
	m := machine.New()
	m.WriteWord(machine.AX, 5)
	m.WriteWord(machine.BX, 5)

	di, err := decode.Decode([]byte{0x39, 0xD8}, 0) // cmp ax, bx
	if err != nil {
		t.Fatal(err)
	}
	Exec(m, di)

	if got := m.ReadWord(machine.AX); got != 5 {
		t.Errorf("AX = %d, want unchanged 5", got)
	}
	if !m.Flag(machine.FlagZ) {
		t.Error("zero flag not set for equal operands")
	}
}

func TestExecDirectAddressWritesMemory(t *testing.T) {
	// mov [1000], ax
	m := machine.New()
	m.WriteWord(machine.AX, 0xBEEF)

	di, err := decode.Decode([]byte{0x89, 0x06, 0xE8, 0x03}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if di.Length != 4 {
		t.Fatalf("Length = %d, want 4", di.Length)
	}
	Exec(m, di)

	if got := m.ReadWordMem(1000); got != 0xBEEF {
		t.Errorf("memory[1000] = 0x%04X, want 0xBEEF", got)
	}
	if m.IP != 4 {
		t.Errorf("IP = %d, want 4", m.IP)
	}
}

func TestExecEffectiveAddressAddsLiveBaseRegister(t *testing.T) {
	// mov ax, [bx + si + 4], with bx=100, si=10 -> address 114.
	m := machine.New()
	m.WriteWord(machine.BX, 100)
	m.WriteWord(machine.SI, 10)
	m.WriteWordMem(114, 0x1234)

	di, err := decode.Decode([]byte{0x8B, 0x40, 0x04}, 0)
	if err != nil {
		t.Fatal(err)
	}
	Exec(m, di)

	if got := m.ReadWord(machine.AX); got != 0x1234 {
		t.Errorf("AX = 0x%04X, want 0x1234", got)
	}
}

func TestExecConditionalJumpsUseIntelSemantics(t *testing.T) {
	// JL: taken iff SF != OF, regardless of ZF. Set SF and OF both set (not
	// taken), distinguishing correct SF!=OF logic from a naive SF-only check.
	m := machine.New()
	m.SetFlag(machine.FlagS, true)
	m.SetFlag(machine.FlagO, true)

	di, err := decode.Decode([]byte{0x7C, 0x10}, 0) // jl $+18
	if err != nil {
		t.Fatal(err)
	}
	startIP := m.IP
	Exec(m, di)

	if m.IP != startIP+2 {
		t.Errorf("IP = %d, want %d (JL not taken when SF==OF)", m.IP, startIP+2)
	}

	// Now clear OF so SF != OF: JL must be taken.
	m2 := machine.New()
	m2.SetFlag(machine.FlagS, true)
	di2, err := decode.Decode([]byte{0x7C, 0x10}, 0)
	if err != nil {
		t.Fatal(err)
	}
	Exec(m2, di2)
	if m2.IP != 2+16 {
		t.Errorf("IP = %d, want %d (JL taken when SF!=OF)", m2.IP, 2+16)
	}
}

func TestExecLoopDecrementsBeforeTesting(t *testing.T) {
	// mov cx,3 ; loop $+0 (branch back to itself) three times, falling
	// through once CX reaches 0.
	program := []byte{0xB9, 0x03, 0x00, 0xE2, 0xFE}
	m := machine.New()

	for m.IP < len(program) {
		di, err := decode.Decode(program, m.IP)
		if err != nil {
			t.Fatal(err)
		}
		Exec(m, di)
	}

	if got := m.ReadWord(machine.CX); got != 0 {
		t.Errorf("CX = %d, want 0", got)
	}
	if m.IP != 5 {
		t.Errorf("final IP = %d, want 5 (fell through after third LOOP)", m.IP)
	}
}

func TestExecUndefinedOpcodeDoesNotMutateState(t *testing.T) {
	m := machine.New()
	di, err := decode.Decode([]byte{0x49}, 0)
	if err != nil {
		t.Fatal(err)
	}
	Exec(m, di)
	if m.IP != 1 {
		t.Errorf("IP = %d, want 1 (advance by marker length only)", m.IP)
	}
	if len(m.Mutated()) != 0 {
		t.Errorf("Mutated() = %v, want none", m.Mutated())
	}
}
