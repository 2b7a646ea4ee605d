package stub

import (
	"fmt"

	"github.com/malphas-lang/malphas-lang/internal/masm"
)

// scratchReg is the register the compiler-thunk trampoline holds the
// freshly compiled target address in across its restore sequence; RAX is
// never one of the System V integer argument registers RegParams saves
// and restores, so it survives untouched.
const scratchReg = masm.RAX

// Stubs bundles the five startup stubs' installed addresses plus the
// Go-level callback objects their native call-out shims invoke, grounded
// on original_source/dora/src/vm.rs's `stubs: Stubs` field (referenced by
// `run`'s `self.stubs.dora_entry()` lookup).
type Stubs struct {
	Alloc *Allocator

	DoraEntryAddr     uintptr
	SafepointSlowAddr uintptr
	AllocSlowAddr     uintptr
	TrapStubAddr      uintptr
	CompilerThunkAddr uintptr

	Thunk     *CompilerThunk
	Trap      *TrapHandler
	Safepoint *SafepointStub
	TLABSlow  *AllocStub
}

// Install assembles and writes every startup stub into alloc, then
// finalizes the region executable. Call exactly once, during VM bootstrap
// before any bytecode function is compiled.
func Install(alloc *Allocator, thunk *CompilerThunk, trap *TrapHandler, safepoint *SafepointStub, tlab *AllocStub) (*Stubs, error) {
	s := &Stubs{Alloc: alloc, Thunk: thunk, Trap: trap, Safepoint: safepoint, TLABSlow: tlab}

	var err error
	if s.DoraEntryAddr, err = writeStub(alloc, BuildDoraEntry().Code()); err != nil {
		return nil, err
	}
	if s.CompilerThunkAddr, err = writeStub(alloc, BuildCompilerThunkTrampoline(scratchReg).Code()); err != nil {
		return nil, err
	}
	if s.TrapStubAddr, err = writeStub(alloc, BuildTrapStub().Code()); err != nil {
		return nil, err
	}
	if s.SafepointSlowAddr, err = writeStub(alloc, BuildSafepointSlowStub().Code()); err != nil {
		return nil, err
	}
	if s.AllocSlowAddr, err = writeStub(alloc, BuildAllocSlowPath().Code()); err != nil {
		return nil, err
	}

	if err := alloc.Finalize(); err != nil {
		return nil, fmt.Errorf("stub: finalizing startup stubs: %w", err)
	}
	return s, nil
}

func writeStub(alloc *Allocator, code []byte) (uintptr, error) {
	addr, buf, err := alloc.Allocate(len(code))
	if err != nil {
		return 0, fmt.Errorf("stub: allocating stub: %w", err)
	}
	copy(buf, code)
	return addr, nil
}
