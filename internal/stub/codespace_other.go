//go:build !linux

package stub

import "fmt"

// codeSpace on non-Linux platforms is a plain heap-backed buffer: it gives
// every other package in this module (code layout, the CodeMap, the JIT
// driver's golden-output tests) a real, addressable, W-then-R/X-ordered
// region to exercise without requiring the linux/amd64 mmap/mprotect path.
// It is not actually made executable, since a portable equivalent of
// mprotect(PROT_EXEC) doesn't exist in the stdlib or in this module's
// dependency set — only the linux/amd64 build actually runs JIT-compiled
// code.
type codeSpace struct {
	mem []byte
	pos int
}

func newCodeSpace(size int) (*codeSpace, error) {
	return &codeSpace{mem: make([]byte, size)}, nil
}

func (cs *codeSpace) allocate(size int) (uintptr, []byte, error) {
	if cs.pos+size > len(cs.mem) {
		return 0, nil, fmt.Errorf("stub: code space exhausted (%d bytes requested, %d remaining)", size, len(cs.mem)-cs.pos)
	}
	start := cs.pos
	cs.pos += size
	addr := uintptr(baseAddr(cs.mem)) + uintptr(start)
	return addr, cs.mem[start : start+size], nil
}

func (cs *codeSpace) finalize() error { return nil }

func (cs *codeSpace) close() error { return nil }
