package main

import (
	"fmt"
	"io"
	"os"

	"github.com/oisee/sim8086/pkg/decode"
	"github.com/oisee/sim8086/pkg/estimate"
	execpkg "github.com/oisee/sim8086/pkg/exec"
	"github.com/oisee/sim8086/pkg/machine"
)

// Mode selects how a simulate run reports its progress.
type Mode int

const (
	ModeExec Mode = iota
	ModeShowClocks
	ModeExplainClocks
	ModeDump
)

// loadProgram reads the entire binary at path into memory. Per spec.md §7,
// a file that cannot be opened is reported with its path and the process
// exits with code -1 — handled by the caller via the returned error.
func loadProgram(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s could not be opened for reading: %w", path, err)
	}
	return b, nil
}

// RunDisassemble prints (or writes to outFile, if given) the NASM-style
// disassembly of the program at path. It never executes anything.
func RunDisassemble(path, outFile string) error {
	program, err := loadProgram(path)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	header := fmt.Sprintf("%s disassembly:\nbits 16\n", path)
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
		header = "bits 16\n"
	}
	fmt.Fprint(w, header)

	ip := 0
	for ip < len(program) {
		di, err := decode.Decode(program, ip)
		if err != nil {
			return err
		}
		if di.Opcode == decode.Undefined {
			fmt.Fprint(w, "Undefined register!\n")
			ip++
			continue
		}
		fmt.Fprintln(w, decode.Render(di))
		ip += di.Length
	}
	return nil
}

// RunSimulate executes the program at path, printing a per-instruction trace
// and the final machine state to w. ModeDump additionally writes the full
// memory image to sim8086_memory_N.data.
func RunSimulate(path string, mode Mode, w io.Writer) error {
	program, err := loadProgram(path)
	if err != nil {
		return err
	}

	m := machine.New()
	totalClocks := 0

	for m.IP < len(program) {
		oldIP := m.IP
		di, err := decode.Decode(program, m.IP)
		if err != nil {
			return err
		}
		if di.Opcode == decode.Undefined {
			fmt.Fprint(w, "Undefined register!\n")
			m.IP++
			continue
		}

		oldFlags := m.Flags
		var showReg bool
		var regIdx int
		var oldRegVal uint16
		if di.DestKind == decode.KindRegister || di.DestKind == decode.KindAccumulator {
			showReg = true
			regIdx = wordRegIndex(di)
			oldRegVal = m.ReadWord(regIdx)
		}

		fmt.Fprintf(w, "%s ; ", decode.Render(di))

		if mode == ModeShowClocks || mode == ModeExplainClocks || mode == ModeDump {
			base, ea := estimate.Estimate(di)
			sum := base + ea
			totalClocks += sum
			fmt.Fprintf(w, " Clocks: +%d = %d", sum, totalClocks)
			if ea > 0 && mode == ModeExplainClocks {
				fmt.Fprintf(w, " (%d + %dea)", base, ea)
			}
			fmt.Fprint(w, " | ")
		}

		execpkg.Exec(m, di)

		if showReg {
			fmt.Fprintf(w, "%s:0x%04X->0x%04X ip:", machine.WordRegNames[regIdx], oldRegVal, m.ReadWord(regIdx))
		} else {
			fmt.Fprint(w, "ip:")
		}
		fmt.Fprintf(w, "0x%02X->0x%02X", oldIP, m.IP)

		if di.FlagsAffected {
			fmt.Fprintf(w, " flags:%s->%s", flagString(oldFlags), flagString(m.Flags))
		}
		fmt.Fprintln(w)
	}

	if mode == ModeDump {
		if err := writeMemoryDump(m); err != nil {
			return err
		}
	}

	writeFinalState(w, m)
	return nil
}

// wordRegIndex returns the canonical word-register index a register-kind
// destination refers to: direct for word width, or the containing word for
// a byte register.
func wordRegIndex(di decode.DecodedInstruction) int {
	if di.Width == decode.Word {
		return di.DestReg
	}
	if di.DestReg < 4 {
		return di.DestReg
	}
	return di.DestReg - 4
}

// flagString renders the set bits of a flags value using the same ascending
// bit-position symbol order as machine.Machine.FlagString.
func flagString(flags uint16) string {
	tmp := &machine.Machine{Flags: flags}
	return tmp.FlagString()
}

func writeMemoryDump(m *machine.Machine) error {
	for n := 0; ; n++ {
		name := fmt.Sprintf("sim8086_memory_%d.data", n)
		if _, err := os.Stat(name); os.IsNotExist(err) {
			return os.WriteFile(name, m.Memory, 0o644)
		}
	}
}

func writeFinalState(w io.Writer, m *machine.Machine) {
	fmt.Fprint(w, "\nFinal registers:\n")
	for _, idx := range m.Mutated() {
		v := m.ReadWord(idx)
		if v == 0 {
			continue
		}
		fmt.Fprintf(w, "      %s: 0x%04X (%d)\n", machine.WordRegNames[idx], v, v)
	}
	fmt.Fprintf(w, "      ip:0x%04X (%d)", m.IP, m.IP)
	if m.Flags != 0 {
		fmt.Fprintf(w, "\n  flags :%s", m.FlagString())
	}
	fmt.Fprintln(w)
}
