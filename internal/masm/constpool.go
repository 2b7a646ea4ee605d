package masm

// ConstPool is the per-function RIP-relative data pool that internal/jit's
// driver lays out immediately after the code, grounded on original_source/dora-runtime's
// `load_constpool`/`add_addr`/`add_int`/`add_float` (masm.rs's ConstPool
// grows backward from the jump target, but forward-growth here is
// equivalent since both ends are addressed by a resolved offset rather
// than positionally).
type ConstPool struct {
	entries [][]byte
}

// addEntry appends raw bytes and returns the entry's index.
func (p *ConstPool) addEntry(raw []byte) int {
	p.entries = append(p.entries, raw)
	return len(p.entries) - 1
}

// AddInt64 interns a 64-bit integer constant (Int64 literals, and Int32
// literals sign/zero-extended to a pool-friendly width).
func (p *ConstPool) AddInt64(v int64) int {
	return p.addEntry([]byte{
		byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24),
		byte(v >> 32), byte(v >> 40), byte(v >> 48), byte(v >> 56),
	})
}

// AddFloat64Bits interns an IEEE-754 double's raw bit pattern.
func (p *ConstPool) AddFloat64Bits(bits uint64) int { return p.AddInt64(int64(bits)) }

// AddAddr interns an 8-byte absolute address (a direct-call target, or a
// class's vtable pointer baked into a stub).
func (p *ConstPool) AddAddr(addr uintptr) int { return p.AddInt64(int64(addr)) }

// Layout assigns each entry a byte offset within the pool and returns the
// pool's encoded bytes alongside those offsets (entry i starts at
// offsets[i]). Every entry is 8 bytes in the current instruction set, so
// layout is just index*8, but the indirection keeps room for variable-width
// entries (e.g. inlined SIMD constants) without changing call sites.
func (p *ConstPool) Layout() (data []byte, offsets []int) {
	offsets = make([]int, len(p.entries))
	for i, e := range p.entries {
		offsets[i] = len(data)
		data = append(data, e...)
	}
	return data, offsets
}

// Size returns the pool's total byte size once laid out.
func (p *ConstPool) Size() int {
	n := 0
	for _, e := range p.entries {
		n += len(e)
	}
	return n
}
