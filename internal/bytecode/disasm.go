package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Disassemble renders one package's instruction stream as human-
// readable text for the `bendu dis` subcommand (spec §12's
// Disassembler supplement), grounded on the teacher's
// internal/vm/disasm.go linear opcode-by-opcode walk but decoding
// Bendu's typed immediates (spec §6) instead of a constant-pool index.
func Disassemble(code []byte, imports []string) string {
	var b strings.Builder
	if len(imports) > 0 {
		fmt.Fprintf(&b, "; imports:\n")
		for i, imp := range imports {
			fmt.Fprintf(&b, ";   %d: %s\n", i, imp)
		}
	}
	ip := 0
	for ip < len(code) {
		start := ip
		op := Opcode(code[ip])
		ip++
		fmt.Fprintf(&b, "%04d  %-28s", start, op.String())
		for _, kind := range Immediates[op] {
			v, n := decodeImmediate(code, ip, kind)
			ip += n
			fmt.Fprintf(&b, " %s", v)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func decodeImmediate(code []byte, ip int, kind ImmediateKind) (string, int) {
	switch kind {
	case ImmU32:
		v := binary.BigEndian.Uint32(code[ip : ip+4])
		return fmt.Sprintf("%d", v), 4
	case ImmI32:
		v := int32(binary.BigEndian.Uint32(code[ip : ip+4]))
		return fmt.Sprintf("%d", v), 4
	case ImmF32:
		bits := binary.BigEndian.Uint32(code[ip : ip+4])
		return fmt.Sprintf("%g", math.Float32frombits(bits)), 4
	case ImmU8:
		return fmt.Sprintf("%d", code[ip]), 1
	case ImmString:
		n := binary.BigEndian.Uint32(code[ip : ip+4])
		s := string(code[ip+4 : ip+4+int(n)])
		return fmt.Sprintf("%q", s), 4 + int(n)
	case ImmU32A:
		n := binary.BigEndian.Uint32(code[ip : ip+4])
		vals := make([]string, n)
		off := ip + 4
		for i := 0; i < int(n); i++ {
			vals[i] = fmt.Sprintf("%d", binary.BigEndian.Uint32(code[off:off+4]))
			off += 4
		}
		return "[" + strings.Join(vals, ",") + "]", 4 + int(n)*4
	}
	return "", 0
}
