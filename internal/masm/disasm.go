package masm

import (
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

// Disassemble renders code as a sequence of "offset: mnemonic" lines using
// the Go x86 decoder, the `--emit-asm` flag's backing implementation
// (spec.md §6). Decoding errors for an individual instruction are rendered
// inline as "(bad)" rather than aborting the whole dump, since emit-asm is
// a debugging aid, not something a caller depends on succeeding fully.
func Disassemble(code []byte) string {
	var b strings.Builder
	for offset := 0; offset < len(code); {
		inst, err := x86asm.Decode(code[offset:], 64)
		if err != nil || inst.Len == 0 {
			fmt.Fprintf(&b, "%6d: (bad)\n", offset)
			offset++
			continue
		}
		fmt.Fprintf(&b, "%6d: %s\n", offset, x86asm.GNUSyntax(inst, uint64(offset), nil))
		offset += inst.Len
	}
	return b.String()
}
