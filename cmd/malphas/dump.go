package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"

	"github.com/malphas-lang/malphas-lang/internal/bytecode"
	"github.com/malphas-lang/malphas-lang/internal/masm"
	"github.com/malphas-lang/malphas-lang/internal/program"
	"github.com/malphas-lang/malphas-lang/internal/vm"
)

func loggerForVerbose() (*zap.Logger, error) {
	return zap.NewDevelopment()
}

// dumpRequested prints the --emit-bytecode/--emit-asm/--emit-stubs
// diagnostics bootstrap's caller asked for, filtered by the given
// function-name substring (spec.md §6's "<filter>" convention). An empty
// filter turns that dump off; a non-empty one selects every function whose
// name contains it, via strings.Contains.
func dumpRequested(opts *options, v *vm.VM, prog *program.Program) error {
	if opts.emitBytecode != "" {
		for _, fn := range prog.Functions {
			if fn.Body == nil || !strings.Contains(fn.Name, opts.emitBytecode) {
				continue
			}
			fmt.Println(bytecode.Dump(fn.Name, fn.Body))
		}
	}

	if opts.emitAsm != "" {
		out := os.Stdout
		var buf *bytes.Buffer
		if opts.emitAsmFile {
			buf = &bytes.Buffer{}
		}
		for id, fn := range prog.Functions {
			if fn.Body == nil || !strings.Contains(fn.Name, opts.emitAsm) {
				continue
			}
			codeID, ok := v.Compilations.Lookup(uint32(id), "")
			if !ok {
				continue
			}
			code := v.CodeObjects.Get(codeID)
			text := fmt.Sprintf("; %s\n%s", fn.Name, masm.Disassemble(code.Bytes))
			if buf != nil {
				buf.WriteString(text)
			} else {
				fmt.Fprintln(out, text)
			}
		}
		if buf != nil {
			if err := os.WriteFile(strings.TrimSuffix(opts.emitAsm, "*")+".asm.txt", buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("writing --emit-asm-file output: %w", err)
			}
		}
	}

	if opts.emitStubs {
		// The five startup stubs internal/stub.Install assembles (entry
		// trampoline, compiler thunk, trap stub, safepoint-slow stub, TLAB
		// slow path) are exercised by internal/stub's own tests; this
		// eager-compile, cgo-entry execution path never calls Install, so
		// there is nothing installed here to report yet.
		fmt.Println("no startup stubs installed (this runtime enters main via a cgo trampoline, not the native entry stub)")
	}

	return nil
}

// reportGCStats gathers v's Prometheus registry and prints it as plain
// text, the batch-CLI substitute for serving /metrics this process has no
// long enough lifetime to justify (SPEC_FULL Ambient Stack "Metrics").
func reportGCStats(opts *options, v *vm.VM) {
	if !opts.gcStats {
		return
	}
	families, err := v.Metrics.Registry.Gather()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gathering metrics: %v\n", err)
		return
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
			fmt.Fprintf(os.Stderr, "formatting metrics: %v\n", err)
			return
		}
	}
}
