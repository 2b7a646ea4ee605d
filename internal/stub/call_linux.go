//go:build linux

package stub

/*
typedef long long (*entryFn)(void);

static long long malphas_call_entry(void *f) {
	return ((entryFn)f)();
}
*/
import "C"
import "unsafe"

// CallEntry jumps into a compiled function taking no arguments and
// returning a single integer, the shape spec.md §6 requires of both
// main() and @Test functions. There is no portable, assembly-free way to
// call an arbitrary native address from Go; cgo's call shim already
// establishes the platform C calling convention internal/masm targets
// (RDI/RSI/.../RAX on System V AMD64), so routing through a one-line C
// function pointer cast gets the exact trampoline this runtime needs
// without hand-writing the machine code for it — a deliberate, narrow use
// of cgo recorded in DESIGN.md rather than a routine dependency.
func CallEntry(addr uintptr) int64 {
	return int64(C.malphas_call_entry(unsafe.Pointer(addr))) //nolint:govet
}
