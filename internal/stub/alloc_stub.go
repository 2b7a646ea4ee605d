package stub

import "github.com/malphas-lang/malphas-lang/internal/masm"

// AllocSlowFunc delegates to the garbage collector when a thread-local
// allocation buffer can't satisfy a request, spec.md §4.5 "Allocation slow
// path". size is the requested byte count; the returned address is a
// freshly zeroed region of at least that size.
type AllocSlowFunc func(size int32) (uintptr, error)

// AllocStub wraps the slow-path allocation callback.
type AllocStub struct {
	Alloc AllocSlowFunc
}

// Slow runs the delegated allocation. Called by the native shim once
// emitted code's "bump the TLAB pointer, compare against its limit"
// fast-path sequence finds the buffer exhausted.
func (s *AllocStub) Slow(size int32) (uintptr, error) {
	return s.Alloc(size)
}

// BuildAllocSlowPath assembles the landing pad emitted allocation
// sequences jump to on TLAB exhaustion — a bare ret, mirroring
// BuildSafepointSlowStub: the actual GC delegation happens in
// AllocStub.Slow via the native call-out shim.
func BuildAllocSlowPath() *masm.MacroAssembler {
	m := masm.NewMacroAssembler()
	m.Ret()
	return m
}
