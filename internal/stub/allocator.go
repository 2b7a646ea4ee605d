package stub

import "fmt"

// defaultCodeSpaceSize is generous enough for this runtime's test programs
// and startup stubs; a production build would grow this on exhaustion
// instead of failing, but spec.md's scope (single-process, short-lived
// CLI runs) makes a fixed arena an acceptable simplification — noted as
// an Open Question resolution in DESIGN.md.
const defaultCodeSpaceSize = 4 << 20

// Allocator hands out executable code regions for both the startup stubs
// in this package and the per-function artifacts internal/jit produces.
type Allocator struct {
	space *codeSpace
}

// NewAllocator reserves a fresh code-space region.
func NewAllocator() (*Allocator, error) {
	cs, err := newCodeSpace(defaultCodeSpaceSize)
	if err != nil {
		return nil, err
	}
	return &Allocator{space: cs}, nil
}

// Allocate reserves size writable bytes, returning their eventual absolute
// address and a slice to copy finished machine code into.
func (a *Allocator) Allocate(size int) (uintptr, []byte, error) {
	return a.space.allocate(size)
}

// Finalize makes every byte allocated so far executable. Call once,
// after every stub and ahead-of-time artifact has been written; code
// compiled afterward (the lazy-JIT path) is not covered — spec.md §4.6's
// lazy-compilation thunk installs each function's code individually and
// re-finalizes through a dedicated writable region, represented here by
// constructing a second Allocator rather than reopening this one.
func (a *Allocator) Finalize() error {
	if err := a.space.finalize(); err != nil {
		return err
	}
	return nil
}

// Close releases the underlying region. Safe to call once the VM is
// shutting down; any code object installed from it becomes invalid.
func (a *Allocator) Close() error {
	if err := a.space.close(); err != nil {
		return fmt.Errorf("stub: closing allocator: %w", err)
	}
	return nil
}
