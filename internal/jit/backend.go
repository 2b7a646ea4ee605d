// Package jit implements the lazy, per-function JIT driver spec.md §4.6
// describes: given a function id and a concrete set of type arguments, it
// specializes the function's bytecode, walks it with a register-allocating
// visitor that emits through internal/masm, and installs the result into
// internal/codeobj's code space.
//
// Grounded on original_source/dora-runtime/src/baseline/dora_compile.rs and
// original_source/dora-runtime/src/cannon/codegen.rs for the generate()
// contract and the per-opcode lowering choices; original_source/dora/src/vm.rs
// for the ensure_compiled/run call pattern internal/vm's fields exist to
// back.
package jit

// Backend distinguishes the two compiler paths the original repository
// exposes — a classical template/baseline compiler ("cannon") and a
// self-hosted compiler written in the language itself ("boots") — per
// spec.md's Open Question (a): "faithful implementations should expose
// both behind a single driver-selectable enumeration." This package
// implements BackendCannon only; BackendBoots is a recognized value with no
// compiler behind it yet, so Generate rejects it explicitly rather than
// silently falling back to cannon.
type Backend int

const (
	BackendCannon Backend = iota
	BackendBoots
)

func (b Backend) String() string {
	switch b {
	case BackendCannon:
		return "cannon"
	case BackendBoots:
		return "boots"
	default:
		return "?"
	}
}
