package main

import (
	"fmt"
	"os"

	"github.com/malphas-lang/malphas-lang/internal/jit"
	"github.com/malphas-lang/malphas-lang/internal/program"
	"github.com/malphas-lang/malphas-lang/internal/stub"
	"github.com/malphas-lang/malphas-lang/internal/vm"
)

func jitOptions(opts *options) jit.Options {
	backend := jit.BackendCannon
	if opts.compiler == "boots" {
		backend = jit.BackendBoots
	}
	return jit.Options{
		Backend:         backend,
		DisableTLAB:     opts.disableTLAB,
		DisableBarrier:  opts.disableBarrier,
		OmitBoundsCheck: opts.omitBoundsCheck,
		ClearRegs:       opts.clearRegs,
	}
}

// bootstrap assembles and eagerly JIT-compiles a program, mirroring
// original_source/dora/src/vm.rs's `run()` which fully compiles the
// classes/functions a program needs ahead of the first call; this
// runtime's lazy-compilation thunk (internal/stub.CompilerThunk) is
// exercised directly by internal/jit and internal/stub's own tests, not
// by this end-to-end path, since running it for real requires catching
// the trap stub's int3 with a native SIGTRAP handler this pure-Go,
// non-cgo-for-signals build doesn't install (recorded in DESIGN.md).
func bootstrap(opts *options, filename string) (*vm.VM, *program.Program, error) {
	prog, err := assemble(opts, filename)
	if err != nil {
		return nil, nil, err
	}
	if prog == nil {
		return nil, nil, nil // --check: caller stops here
	}

	v, err := vm.New(prog)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrapping vm: %w", err)
	}
	if opts.gcVerbose {
		logger, lerr := loggerForVerbose()
		if lerr == nil {
			v.Log = logger
		}
	}

	jopts := jitOptions(opts)
	if err := jit.CompileAll(v, jopts); err != nil {
		return nil, nil, fmt.Errorf("compiling program: %w", err)
	}
	if err := v.CodeSpace.Finalize(); err != nil {
		return nil, nil, fmt.Errorf("finalizing code space: %w", err)
	}

	if err := dumpRequested(opts, v, prog); err != nil {
		return nil, nil, err
	}

	return v, prog, nil
}

// runMain implements spec.md §6's main-running mode: compile the whole
// program, invoke main, and map its result to a process exit code.
func runMain(opts *options, filename string) error {
	defer recoverFatal()

	v, prog, err := bootstrap(opts, filename)
	if err != nil {
		return err
	}
	if v == nil {
		return nil // --check
	}
	defer reportGCStats(opts, v)

	mainID, err := prog.FindMainFunction()
	if err != nil {
		return err
	}

	addr, err := lookupCompiled(v, mainID)
	if err != nil {
		return err
	}

	result := stub.CallEntry(addr)
	os.Exit(int(int32(result)))
	return nil
}

// lookupCompiled returns the already-compiled entry address for fctID, as
// installed by bootstrap's eager jit.CompileAll pass.
func lookupCompiled(v *vm.VM, fctID program.Id) (uintptr, error) {
	key := "" // CompileAll only ever installs the zero-type-argument instantiation
	codeID, ok := v.Compilations.Lookup(uint32(fctID), key)
	if !ok {
		return 0, fmt.Errorf("function %d was not compiled", fctID)
	}
	return v.CodeObjects.Get(codeID).Address, nil
}

func recoverFatal() {
	if r := recover(); r != nil {
		if fe, ok := r.(vm.FatalError); ok {
			fmt.Fprintln(os.Stderr, fe.Error())
			os.Exit(1)
		}
		panic(r)
	}
}
