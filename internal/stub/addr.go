package stub

import "unsafe"

// baseAddr returns the address of a byte slice's backing array. Used only
// to compute the absolute address a freshly allocated code-space region
// starts at, for CodeMap insertion and constant-pool RIP-relative
// relocation; never used to read or write through the returned value
// directly (all writes go through the slice itself).
func baseAddr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}
