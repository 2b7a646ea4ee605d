package stub

import "github.com/malphas-lang/malphas-lang/internal/masm"

// BuildDoraEntry assembles the trampoline from native to managed code,
// spec.md §4.5 "Dora entry stub": save callee-saved registers, install the
// top DoraToNativeInfo frame (represented here by moving the per-thread
// pointer passed in RDI, internal/safepoint's ThreadLocalData, into
// RegThread),
// jump into the compiled function passed in RSI, and restore on return.
// Grounded on original_source/dora-runtime/src/boots.rs's entry-stub
// description (the Rust source builds this trampoline as hand-written
// assembly embedded at VM startup; the callee-saved set below is the
// System V AMD64 ABI's rbx/r12-r15).
func BuildDoraEntry() *masm.MacroAssembler {
	m := masm.NewMacroAssembler()

	for _, r := range []masm.Reg{masm.RBX, masm.R12, masm.R13, masm.R14, masm.R15} {
		m.Push(r)
	}

	// arg0 (RDI) = thread-local data address, arg1 (RSI) = compiled
	// function's entry address. Move RegThread into place, then jump.
	m.MovRR(masm.RegThread, masm.RDI)
	m.CallReg(masm.RSI)

	for _, r := range []masm.Reg{masm.R15, masm.R14, masm.R13, masm.R12, masm.RBX} {
		m.Pop(r)
	}
	m.Ret()

	return m
}
