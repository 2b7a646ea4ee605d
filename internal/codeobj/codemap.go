package codeobj

import (
	"sort"
	"sync"
)

// CodeMap is an address-interval index over installed Code objects,
// answering "which function, if any, contains this bare program counter" —
// the question the safepoint root-scanner and the trap handler both need
// answered on every stop. Grounded on original_source/dora/src/vm.rs's
// `code_map: CodeMap` field (vm/code_map.rs itself isn't in the trimmed
// corpus; the sorted-slice-plus-binary-search shape follows the same
// RWMutex-guarded-cache pattern internal/shape.Cache already uses for its
// specialization tables).
type CodeMap struct {
	mu      sync.RWMutex
	entries []entry // kept sorted by Start; ranges never overlap
}

type entry struct {
	start uintptr
	end   uintptr
	id    CodeId
}

// NewCodeMap returns an empty map.
func NewCodeMap() *CodeMap { return &CodeMap{} }

// Insert records that id occupies [start, end). Panics if the new range
// overlaps an already-installed one — two code objects sharing an address
// range means the code-space allocator handed out overlapping memory,
// which is a fatal allocator bug, not a recoverable condition.
func (m *CodeMap) Insert(start, end uintptr, id CodeId) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].start >= start })
	if idx > 0 && m.entries[idx-1].end > start {
		panic("codeobj: CodeMap insert overlaps a preceding entry")
	}
	if idx < len(m.entries) && m.entries[idx].start < end {
		panic("codeobj: CodeMap insert overlaps a following entry")
	}

	m.entries = append(m.entries, entry{})
	copy(m.entries[idx+1:], m.entries[idx:])
	m.entries[idx] = entry{start: start, end: end, id: id}
}

// Lookup returns the CodeId whose range contains pc, and whether one was
// found — a miss is an expected outcome (pc might be native-library code
// outside any JIT-managed range), so this reports ok rather than panicking.
func (m *CodeMap) Lookup(pc uintptr) (CodeId, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].start > pc }) - 1
	if idx < 0 || idx >= len(m.entries) {
		return 0, false
	}
	e := m.entries[idx]
	if pc < e.start || pc >= e.end {
		return 0, false
	}
	return e.id, true
}
