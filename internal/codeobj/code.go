// Package codeobj owns the finished artifacts the JIT driver produces: a
// Code object per compiled function body, the CodeObjects table that hands
// out stable CodeIds, and the CodeMap address-interval index the safepoint
// scanner and the trap/exception unwinder use to map a bare program counter
// back to the Code object (and then the GcPoint/comment/lazy-compilation
// tables) it falls inside.
//
// Grounded on original_source/dora/src/vm.rs's `code_objects: CodeObjects`
// and `code_map: CodeMap` fields (the originals, vm/code.rs and
// vm/code_map.rs, aren't present in the trimmed reference corpus — this
// package's shape is inferred from vm.rs's usage sites plus spec.md §2.7/
// §4.4's description of what a code object must carry).
package codeobj

import (
	"fmt"

	"github.com/malphas-lang/malphas-lang/internal/masm"
)

// CodeId is a dense index into CodeObjects, the Go idiom standing in for
// the original's newtype-wrapped code handle.
type CodeId uint32

// CodeKind distinguishes the handful of non-function code objects
// (trampolines, stubs) from ordinary compiled bytecode functions, mirrored
// from original_source's CodeKind variants referenced by vm.rs's
// install_code_stub.
type CodeKind int

const (
	CodeKindBaseline CodeKind = iota // produced by the cannon (baseline) backend
	CodeKindDoraEntry
	CodeKindCompilerThunk
	CodeKindTrapStub
	CodeKindSafepointStub
	CodeKindAllocStub
)

// Code is one finished, position-independent machine-code artifact: the
// instruction bytes, its constant pool (already relocated into the same
// buffer immediately after the instructions), and the side tables needed
// to make it GC-safe and patchable.
type Code struct {
	Kind CodeKind

	// FctID identifies the source function this code implements, or
	// NoFunction for non-function stubs.
	FctID uint32

	// Bytes is the complete, relocated artifact: instructions followed by
	// the constant pool, per internal/masm.MacroAssembler.ResolveConstPool.
	Bytes []byte

	// Address is the artifact's base address once placed in the code
	// space by internal/stub's allocator. Zero until installed.
	Address uintptr

	GcPoints             []masm.GcPoint
	LazyCompilationSites []masm.LazyCompilationSite
	Comments             map[int]string // byte offset -> human-readable annotation, spec.md §6 --emit-asm
}

// NoFunction marks a Code object that doesn't correspond to a source
// function (a stub or the compiler thunk).
const NoFunction = ^uint32(0)

// End returns the artifact's one-past-the-end address.
func (c *Code) End() uintptr { return c.Address + uintptr(len(c.Bytes)) }

// GcPointAt returns the GcPoint recorded at the given byte offset into
// the code object, or nil if none was recorded there (a caller asking for
// a PC that isn't a call-return site or safepoll, a programming error in
// the unwinder rather than something to paper over silently — callers that
// need a definite answer should check for nil explicitly).
func (c *Code) GcPointAt(offset int) *masm.GcPoint {
	for i := range c.GcPoints {
		if c.GcPoints[i].Offset == offset {
			return &c.GcPoints[i]
		}
	}
	return nil
}

// String renders a one-line label for logs/dumps.
func (c *Code) String() string {
	if c.FctID == NoFunction {
		return fmt.Sprintf("<%s @0x%x>", c.Kind, c.Address)
	}
	return fmt.Sprintf("<fct %d @0x%x>", c.FctID, c.Address)
}

func (k CodeKind) String() string {
	switch k {
	case CodeKindBaseline:
		return "baseline"
	case CodeKindDoraEntry:
		return "dora-entry"
	case CodeKindCompilerThunk:
		return "compiler-thunk"
	case CodeKindTrapStub:
		return "trap-stub"
	case CodeKindSafepointStub:
		return "safepoint-stub"
	case CodeKindAllocStub:
		return "alloc-stub"
	default:
		return "unknown-code-kind"
	}
}
