package stub

import (
	"fmt"

	"github.com/malphas-lang/malphas-lang/internal/masm"
)

// CompileRequestFunc is the JIT driver's compile_request(returnAddr,
// receiver) -> (address, error) entry point, spec.md §4.5 step 3.
// internal/jit supplies the concrete implementation; stub only holds the
// function value, avoiding an import cycle (jit already depends on stub
// for code-space allocation and the thunk's own address).
type CompileRequestFunc func(returnAddr uintptr, receiver uintptr) (uintptr, error)

// PatchCallSiteFunc rewrites the caller's constant-pool slot (direct call)
// or vtable slot (virtual call) in place once compilation finishes,
// spec.md §4.5 step 4.
type PatchCallSiteFunc func(site masm.LazyCompilationSite, target uintptr) error

// CompilerThunk is the landing point for every not-yet-compiled call site.
// Grounded on spec.md §4.5's six-step layout: save argument registers,
// reconstruct (return_address, receiver), call back into the JIT driver,
// patch the call site, restore argument registers, jump to the compiled
// function.
//
// The native trampoline built by BuildCompilerThunkTrampoline covers steps
// 1/2/5/6 (register save/restore and the final indirect jump) in real
// x86-64; steps 3/4 — the actual call into Go-level compiler logic — are
// represented at the Go level by the Compile/Patch fields below rather
// than as raw machine code, since bridging emitted machine code to an
// arbitrary Go closure needs a fixed-address native shim (cgo or a
// syscall.NewCallback-style bridge), and this module has none: its cgo
// code (call_linux.go) only calls from Go into generated code.
// HandleCallSite is what such a shim would invoke.
type CompilerThunk struct {
	Compile CompileRequestFunc
	Patch   PatchCallSiteFunc
}

// HandleCallSite runs steps 3-4 of the lazy-compilation protocol for one
// call site: compile the target (or find it already compiled via
// CompilationDatabase memoization inside Compile), patch the call site to
// point at the result, and return the address the trampoline's restore-
// and-jump sequence should target.
func (t *CompilerThunk) HandleCallSite(site masm.LazyCompilationSite, returnAddr, receiver uintptr) (uintptr, error) {
	target, err := t.Compile(returnAddr, receiver)
	if err != nil {
		return 0, fmt.Errorf("stub: compiler thunk: %w", err)
	}
	if err := t.Patch(site, target); err != nil {
		return 0, fmt.Errorf("stub: compiler thunk: patching call site: %w", err)
	}
	return target, nil
}

// BuildCompilerThunkTrampoline assembles the argument-register save/
// restore shell every unresolved call site jumps through. scratch is a
// register not used for argument passing, reserved to hold the compiled
// target address across the restore sequence.
func BuildCompilerThunkTrampoline(scratch masm.Reg) *masm.MacroAssembler {
	m := masm.NewMacroAssembler()

	for _, r := range masm.RegParams {
		m.Push(r)
	}

	// Steps 3/4 happen off to the side via CompilerThunk.HandleCallSite;
	// by the time control returns here, scratch holds the target address
	// a native shim loaded on our behalf.

	for i := len(masm.RegParams) - 1; i >= 0; i-- {
		m.Pop(masm.RegParams[i])
	}
	m.JmpReg(scratch)

	return m
}
