//go:build linux

package stub

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// codeSpace is a single mmap'd region holding every installed Code object.
// Grounded on tinyrange-rtg's runtime_linux_amd64.go raw-syscall idiom for
// code-page management, ported to golang.org/x/sys/unix's wrapped
// mmap/mprotect (the stack the rest of this module's ambient dependencies
// already settled on) instead of hand-rolled syscall numbers.
type codeSpace struct {
	mem []byte
	pos int
}

func newCodeSpace(size int) (*codeSpace, error) {
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("stub: mmap code space: %w", err)
	}
	return &codeSpace{mem: mem}, nil
}

// allocate reserves size writable bytes and returns their address plus a
// slice the caller copies finished machine code into. The region stays
// PROT_WRITE until Finalize runs mprotect to flip it to PROT_EXEC, since
// W^X must never be relaxed on the same page at once but this allocator
// never hands back already-finalized pages for new code.
func (cs *codeSpace) allocate(size int) (uintptr, []byte, error) {
	if cs.pos+size > len(cs.mem) {
		return 0, nil, fmt.Errorf("stub: code space exhausted (%d bytes requested, %d remaining)", size, len(cs.mem)-cs.pos)
	}
	start := cs.pos
	cs.pos += size
	addr := uintptr(baseAddr(cs.mem)) + uintptr(start)
	return addr, cs.mem[start : start+size], nil
}

// finalize flips the whole region from writable to executable. Called once
// after every startup stub and ahead-of-time function has been written;
// the lazy-JIT path instead keeps a second, still-writable codeSpace for
// anything compiled after this point, since mprotect operates page-wide.
func (cs *codeSpace) finalize() error {
	if err := unix.Mprotect(cs.mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return fmt.Errorf("stub: mprotect code space executable: %w", err)
	}
	return nil
}

func (cs *codeSpace) close() error {
	return unix.Munmap(cs.mem)
}
