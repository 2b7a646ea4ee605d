package codeobj

import "sync"

// CompilationDatabase memoizes which (function, type arguments) pairs have
// already been JIT-compiled, so the lazy-compilation thunk only ever
// generates code once per monomorphization. Grounded on
// original_source/dora/src/vm.rs's `compilation_database: CompilationDatabase`
// field and its `ensure_compiled` call site (vm/compilation.rs itself isn't
// kept in the trimmed corpus; the key is inferred from ensure_compiled's
// (FunctionId, BytecodeTypeArray) argument pair).
type CompilationDatabase struct {
	mu      sync.Mutex
	entries map[compKey]CodeId
}

type compKey struct {
	fctID      uint32
	typeParams string // TypeArray.Key(), matching internal/shape.Cache's specialization-cache keying
}

// NewCompilationDatabase returns an empty database.
func NewCompilationDatabase() *CompilationDatabase {
	return &CompilationDatabase{entries: make(map[compKey]CodeId)}
}

// Lookup returns the CodeId already compiled for (fctID, typeParamsKey), if
// any.
func (d *CompilationDatabase) Lookup(fctID uint32, typeParamsKey string) (CodeId, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.entries[compKey{fctID, typeParamsKey}]
	return id, ok
}

// Insert records that (fctID, typeParamsKey) now compiles to id. Calling
// this twice for the same key is a logic error in the JIT driver — it
// should have checked Lookup first — so it panics rather than silently
// overwriting.
func (d *CompilationDatabase) Insert(fctID uint32, typeParamsKey string, id CodeId) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := compKey{fctID, typeParamsKey}
	if _, exists := d.entries[key]; exists {
		panic("codeobj: CompilationDatabase already has an entry for this (function, type args) pair")
	}
	d.entries[key] = id
}

// Len reports how many distinct monomorphizations have been compiled, for
// --gc-stats / compilation-count reporting.
func (d *CompilationDatabase) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}
