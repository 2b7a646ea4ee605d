package jit

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/malphas-lang/malphas-lang/internal/bcty"
	"github.com/malphas-lang/malphas-lang/internal/vm"
)

// CompileAll eagerly compiles every concrete, bodied function in v.Program
// — the ahead-of-time counterpart to the lazy-compilation thunk, used by
// cmd/malphas's bootstrap on every run (and by tests that want
// to exercise every function's codegen without driving them through actual
// calls). Generic functions are skipped: they have no single concrete
// instantiation to compile without a caller's type arguments, the same
// reason InvokeGenericDirect/InvokeGenericStatic exist as separate opcodes
// from InvokeDirect/InvokeStatic.
//
// Functions are compiled concurrently via errgroup, bounded implicitly by
// GOMAXPROCS; Generate's own internal locking (internal/codeobj's
// CompilationDatabase, CodeObjects and CodeMap all guard their state with a
// mutex) makes this safe without any additional coordination here.
func CompileAll(v *vm.VM, opts Options) error {
	var g errgroup.Group
	for id := range v.Program.Functions {
		fctID := uint32(id)
		def := v.Program.Functions[fctID]
		if def.Body == nil || len(def.TypeParams) > 0 {
			continue
		}
		g.Go(func() error {
			if _, err := Generate(v, fctID, bcty.Empty(), opts); err != nil {
				return fmt.Errorf("jit: eagerly compiling function %d: %w", fctID, err)
			}
			return nil
		})
	}
	return g.Wait()
}
