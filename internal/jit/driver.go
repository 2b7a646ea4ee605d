package jit

import (
	"fmt"

	"github.com/malphas-lang/malphas-lang/internal/bcty"
	"github.com/malphas-lang/malphas-lang/internal/codeobj"
	"github.com/malphas-lang/malphas-lang/internal/masm"
	"github.com/malphas-lang/malphas-lang/internal/program"
	"github.com/malphas-lang/malphas-lang/internal/vm"
)

// Options carries the per-compilation flags spec.md §6's CLI surface
// exposes, threaded down from the command line through Generate and into
// the codegen visitor.
type Options struct {
	Backend Backend

	// DisableTLAB skips the fast-path bump allocator this baseline doesn't
	// implement anyway (see errors.go's notLowered opcode list for every
	// allocating opcode); kept as a recognized flag so a caller built
	// against the full CLI surface doesn't have to special-case this
	// backend.
	DisableTLAB bool

	// DisableBarrier skips the write barrier StoreField would otherwise
	// emit on a reference-typed field — required while there is no real
	// heap/card table behind EmitBarrier's placeholder address.
	DisableBarrier bool

	// OmitBoundsCheck skips array bounds checking. Has no effect in this
	// driver since every array opcode is rejected via notLowered.
	OmitBoundsCheck bool

	// ClearRegs names original_source's option that zeroes every bytecode
	// register's frame slot on entry. It is accepted here and not read:
	// generated code does not clear frame slots whether or not it is set.
	ClearRegs bool
}

// Generate implements spec.md §4.6's lazy-compilation contract for a
// single (function, type arguments) pair: look up an already-compiled
// artifact, specialize and lower the bytecode if none exists yet, install
// the result into the VM's code space, and return its entry address.
func Generate(v *vm.VM, fctID program.Id, typeArgs bcty.TypeArray, opts Options) (uintptr, error) {
	key := typeArgs.Key()
	if codeID, ok := v.Compilations.Lookup(fctID, key); ok {
		return v.CodeObjects.Get(codeID).Address, nil
	}

	if opts.Backend != BackendCannon {
		return 0, fmt.Errorf("jit: backend %s has no compiler behind it yet", opts.Backend)
	}

	def := v.Program.Functions[fctID]
	if def.Body == nil {
		return 0, fmt.Errorf("jit: function %d has no body to compile", fctID)
	}
	fn := def.Body.Specialize(typeArgs)
	if !fn.IsSpecialized() {
		return 0, fmt.Errorf("jit: function %d is not fully specialized after substituting %s", fctID, typeArgs.String())
	}

	cg := newCodegen(v, fn, opts)
	if err := cg.generate(); err != nil {
		return 0, fmt.Errorf("jit: compiling function %d: %w", fctID, err)
	}

	codeBytes, gcPoints, lazySites := cg.finish()

	addr, dst, err := v.CodeSpace.Allocate(len(codeBytes))
	if err != nil {
		return 0, fmt.Errorf("jit: installing function %d: %w", fctID, err)
	}
	copy(dst, codeBytes)

	code := &codeobj.Code{
		Kind:                 codeobj.CodeKindBaseline,
		FctID:                fctID,
		Bytes:                dst,
		Address:              addr,
		GcPoints:             gcPoints,
		LazyCompilationSites: lazySites,
	}
	codeID := v.CodeObjects.Add(code)
	v.CodeMap.Insert(addr, addr+uintptr(len(codeBytes)), codeID)
	v.Compilations.Insert(fctID, key, codeID)
	v.Metrics.CompilationsTotal.Inc()

	return addr, nil
}

// finish lays the constant pool out immediately after the generated code,
// resolves every RIP-relative load fixup against that final layout, and
// returns the combined bytes alongside the GC/lazy-compilation side
// tables, each now carrying offsets relative to the start of this single
// buffer.
func (cg *codegen) finish() ([]byte, []masm.GcPoint, []masm.LazyCompilationSite) {
	codeLen := len(cg.m.Code())
	// Align the pool to 8 bytes so every entry's RIP-relative load can use
	// a word-aligned displacement without splitting a cache line.
	pad := (8 - codeLen%8) % 8
	poolBase := codeLen + pad

	poolData, entryOffsets := cg.m.Pool.Layout()
	cg.m.ResolveConstPool(poolBase, entryOffsets)

	full := make([]byte, 0, poolBase+len(poolData))
	full = append(full, cg.m.Code()...)
	full = append(full, make([]byte, pad)...)
	full = append(full, poolData...)
	return full, cg.m.GcPoints, cg.m.LazyCompilationSites
}
