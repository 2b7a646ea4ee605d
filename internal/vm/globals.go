package vm

import (
	"fmt"
	"unsafe"

	"github.com/malphas-lang/malphas-lang/internal/program"
	"github.com/malphas-lang/malphas-lang/internal/shape"
)

// GlobalMemory is a single contiguous byte arena backing every module-level
// global variable, grounded on original_source/dora/src/vm/globals.rs:
// each global gets one initialized-flag byte followed by its value region,
// naturally aligned. This mirrors the original's split between
// address_init (a Bool) and address_value. The JIT's LoadGlobal lowering
// reads the value region directly and does not check the flag byte.
type GlobalMemory struct {
	buf       []byte
	locations []globalLocation
}

type globalLocation struct {
	initOffset  int
	valueOffset int
	size        int32
}

// NewGlobalMemory lays out one arena for every global in prog, sizing each
// slot via cache (so struct/enum/tuple-typed globals get their specialized
// size, not just the scalar cases).
func NewGlobalMemory(prog *program.Program, cache *shape.Cache) *GlobalMemory {
	var size int
	locs := make([]globalLocation, len(prog.Globals))

	for idx, g := range prog.Globals {
		initOffset := size
		size += 1 // Bool-sized initialized flag

		align := int(shape.AlignOf(cache, g.Type))
		if align == 0 {
			align = 1
		}
		valueOffset := alignUsize(size, align)
		valSize := shape.SizeOf(cache, g.Type)

		locs[idx] = globalLocation{initOffset: initOffset, valueOffset: valueOffset, size: valSize}
		size = valueOffset + int(valSize)
	}

	return &GlobalMemory{buf: make([]byte, size), locations: locs}
}

func alignUsize(v, align int) int {
	if align <= 1 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

func (m *GlobalMemory) bounds(id program.Id) globalLocation {
	if int(id) >= len(m.locations) {
		panic(fmt.Sprintf("vm: global id %d out of range", id))
	}
	return m.locations[id]
}

// IsInitialized reports whether global id's initialized-flag byte has been
// set by MarkInitialized. The JIT's global-load sequence does not read
// this byte.
func (m *GlobalMemory) IsInitialized(id program.Id) bool {
	loc := m.bounds(id)
	return m.buf[loc.initOffset] != 0
}

// MarkInitialized flips global id's initialized-flag byte. Call exactly
// once, after its initializer expression has run and stored a value.
func (m *GlobalMemory) MarkInitialized(id program.Id) {
	loc := m.bounds(id)
	m.buf[loc.initOffset] = 1
}

// ValueAddress returns the byte offset of global id's value region within
// the arena — what the macro-assembler's LoadGlobal/StoreGlobal sequences
// resolve a global reference to (an absolute address once the arena is
// allocated, spec.md §4.1 "LoadGlobal/StoreGlobal").
func (m *GlobalMemory) ValueAddress(id program.Id) int {
	return m.bounds(id).valueOffset
}

// BaseAddr returns the absolute address of the arena's first byte, letting
// the JIT driver bake `base+ValueAddress(id)` in as an absolute-address
// constant-pool entry for LoadGlobal/StoreGlobal codegen. Panics if the
// program declares no globals at all, since an empty arena has no first
// byte to take the address of.
func (m *GlobalMemory) BaseAddr() uintptr {
	if len(m.buf) == 0 {
		panic("vm: BaseAddr called on an empty global arena")
	}
	return uintptr(unsafe.Pointer(&m.buf[0]))
}

// ReadInt32 and WriteInt32 are narrow test/interpreter-mode accessors; the
// JIT itself reads/writes the arena directly through emitted load/store
// instructions at ValueAddress, never through these.
func (m *GlobalMemory) ReadInt32(id program.Id) int32 {
	loc := m.bounds(id)
	b := m.buf[loc.valueOffset : loc.valueOffset+4]
	return int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16 | int32(b[3])<<24
}

func (m *GlobalMemory) WriteInt32(id program.Id, v int32) {
	loc := m.bounds(id)
	b := m.buf[loc.valueOffset : loc.valueOffset+4]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// seedLiteralGlobals writes every global's constant-folded literal value
// (program.GlobalDef.InitInt32) into the arena and marks it initialized,
// eagerly at VM construction, standing in for the lazy per-global
// first-touch initializer call the JIT's LoadGlobal lowering does not
// implement (see GlobalDef.InitInt32's doc comment). A global with no
// folded literal is left zeroed and uninitialized, identical to one
// declared with no initializer at all.
func (m *GlobalMemory) seedLiteralGlobals(prog *program.Program) {
	for idx, g := range prog.Globals {
		if g.InitInt32 == nil {
			continue
		}
		id := program.Id(idx)
		m.WriteInt32(id, *g.InitInt32)
		m.MarkInitialized(id)
	}
}
