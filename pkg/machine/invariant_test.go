package machine

import "testing"

func TestCheckMutationLogDeduped(t *testing.T) {
	m := New()
	m.WriteWord(AX, 1)
	m.WriteWord(AX, 2)
	m.WriteWord(BX, 3)
	if !m.CheckMutationLogDeduped() {
		t.Error("CheckMutationLogDeduped() = false for a correctly-deduped log")
	}
}

func TestCheckByteAliasIsolation(t *testing.T) {
	before := [NumWordRegs]uint16{AX: 0x1234}
	after := [NumWordRegs]uint16{AX: 0x12FF}
	if !CheckByteAliasIsolation(before, after, AX, true) {
		t.Error("CheckByteAliasIsolation() = false for a low-byte-only write")
	}
	if CheckByteAliasIsolation(before, after, AX, false) {
		t.Error("CheckByteAliasIsolation() = true when treated as a high-byte write")
	}
}

func TestAllTestVectorsStartWithValidFlagMask(t *testing.T) {
	for i, regs := range TestVectors {
		m := NewWithRegs(regs)
		if !m.CheckFlagMask() {
			t.Errorf("TestVectors[%d]: CheckFlagMask() = false for a fresh machine", i)
		}
		if !m.CheckMutationLogDeduped() {
			t.Errorf("TestVectors[%d]: CheckMutationLogDeduped() = false for a fresh machine", i)
		}
	}
}
