// Package shape implements the specialization/instance layer described by
// spec.md §2.4/§4.2: turning a generic ClassDef/StructDef/EnumDef plus a
// concrete TypeArray into a concrete memory layout (size, alignment, field
// offsets, GC reference-offset list), cached per (definition id, concrete
// type args) pair.
//
// Grounded on original_source/dora/src/vm/specialize.rs (the layout
// algorithm, the InstanceSize variants, the enum-layout selection rule) and
// original_source/dora/src/vm/tuples.rs (the tuple cache).
package shape

import (
	"sync"

	"github.com/malphas-lang/malphas-lang/internal/bcty"
)

// HeaderSize is the size in bytes of the object header every heap
// allocation carries ahead of its fields (vtable pointer, gc bits).
const HeaderSize = 16

// PtrWidth is the pointer width of the only target this assembler speaks:
// x86-64.
const PtrWidth = 8

const ptrWidth = PtrWidth

// AlignI32 rounds size up to the next multiple of alignment, mirroring
// original_source's mem::align_i32.
func AlignI32(size, alignment int32) int32 {
	if alignment == 0 {
		return size
	}
	return (size + alignment - 1) &^ (alignment - 1)
}

// SizeOf and AlignOf report the in-memory footprint of a concrete
// BytecodeType. References (Ptr/Class/Trait/Lambda) and enums/structs with
// a pointer-shaped layout are always pointer-width; everything else is its
// natural scalar width.
func SizeOf(cache *Cache, ty bcty.BytecodeType) int32 {
	switch ty.Kind {
	case bcty.KindStruct:
		return cache.EnsureStructInstance(ty.DefId, ty.TypeArgs).Size
	case bcty.KindEnum:
		if cache.EnsureEnumInstance(ty.DefId, ty.TypeArgs).Layout == EnumLayoutInt {
			return 4
		}
		return int32(ptrWidth)
	case bcty.KindTuple:
		return cache.EnsureConcreteTuple(ty.TupleArgs).Size
	default:
		return int32(ty.Size(ptrWidth))
	}
}

func AlignOf(cache *Cache, ty bcty.BytecodeType) int32 {
	switch ty.Kind {
	case bcty.KindStruct:
		return cache.EnsureStructInstance(ty.DefId, ty.TypeArgs).Align
	case bcty.KindTuple:
		return cache.EnsureConcreteTuple(ty.TupleArgs).Align
	default:
		return SizeOf(cache, ty)
	}
}

// EnumLayout is the representation a specialized enum instance chooses —
// spec.md §4.2's enum layout selection rule, in priority order: an enum
// whose variants all carry no payload packs into a bare tag (Int); a
// two-variant option-shaped enum whose payload variant is itself a
// reference type reuses that pointer directly, with nil standing in for
// the empty variant (Ptr); everything else needs a heap-allocated,
// tag-plus-payload representation (Tagged).
type EnumLayout uint8

const (
	EnumLayoutInt EnumLayout = iota
	EnumLayoutPtr
	EnumLayoutTagged
)

func (l EnumLayout) String() string {
	switch l {
	case EnumLayoutInt:
		return "Int"
	case EnumLayoutPtr:
		return "Ptr"
	case EnumLayoutTagged:
		return "Tagged"
	default:
		return "?"
	}
}

// InstanceSizeKind distinguishes a class instance's fixed-size regular
// layout from the varying array/string layouts.
type InstanceSizeKind uint8

const (
	InstanceSizeFixed InstanceSizeKind = iota
	InstanceSizeObjArray
	InstanceSizeStructArray
	InstanceSizePrimitiveArray
	InstanceSizeUnitArray
	InstanceSizeStr
)

// InstanceSize mirrors original_source's InstanceSize enum: either a fixed
// byte size, or one of the variable-length array/string shapes, which carry
// their own element-size parameter where relevant.
type InstanceSize struct {
	Kind        InstanceSizeKind
	FixedSize   int32 // InstanceSizeFixed
	ElementSize int32 // InstanceSizeStructArray, InstanceSizePrimitiveArray
}

// FieldInstance is one field of a specialized class or enum-variant
// instance: a byte offset plus its concrete type.
type FieldInstance struct {
	Offset int32
	Type   bcty.BytecodeType
}

// ShapeKind records what a ClassInstance specializes — a user class, an
// enum's payload-carrying variant, a lambda's closure object, or a trait
// object's wrapper — mirroring original_source's ShapeKind.
type ShapeKindTag uint8

const (
	ShapeKindClass ShapeKindTag = iota
	ShapeKindEnumVariant
	ShapeKindLambda
	ShapeKindTraitObject
)

type ShapeKind struct {
	Tag ShapeKindTag

	ClassId Id // ShapeKindClass

	EnumId     Id // ShapeKindEnumVariant
	VariantIdx int

	LambdaFctId Id // ShapeKindLambda

	TraitId  Id // ShapeKindTraitObject
	ObjectTy bcty.BytecodeType

	TypeArgs bcty.TypeArray
}

// Id aliases the program package's dense entity id type without importing
// it, keeping this package's public surface independent of program's.
type Id = uint32

// ClassInstance is the specialized layout of a class, an enum's
// payload-carrying variant (boxed as a synthetic one-variant class), a
// lambda's closure object, or a trait object wrapper.
type ClassInstance struct {
	Kind      ShapeKind
	Size      InstanceSize
	Fields    []FieldInstance
	RefFields []int32 // byte offsets of every GC-traced field, own header excluded
	VTable    *VTable
}

// StructInstanceField is one field of a specialized value-type struct.
type StructInstanceField struct {
	Offset int32
	Type   bcty.BytecodeType
}

// StructInstance is the specialized layout of a struct: an inline
// aggregate with no header and no vtable.
type StructInstance struct {
	Size      int32
	Align     int32
	Fields    []StructInstanceField
	RefFields []int32
}

// EnumInstance is the specialized representation of an enum: its chosen
// layout, and — only when Tagged — a lazily populated table of per-variant
// ClassInstance ids (one synthetic boxed class per payload-carrying
// variant), matching original_source's RwLock<Vec<Option<ClassInstanceId>>>.
type EnumInstance struct {
	EnumId     Id
	TypeParams bcty.TypeArray
	Layout     EnumLayout

	mu       sync.Mutex // guards Variants; see cache.go EnsureClassInstanceForEnumVariant
	Variants []ClassInstanceId
}

// ClassInstanceId, StructInstanceId, EnumInstanceId are indices into the
// Cache's append-only instance tables.
type (
	ClassInstanceId  = int
	StructInstanceId = int
	EnumInstanceId   = int
)

const NoClassInstance ClassInstanceId = -1

// ConcreteTuple is the specialized layout of a tuple type: element byte
// offsets plus the GC reference offsets contained within it.
type ConcreteTuple struct {
	Offsets    []int32
	References []int32
	Size       int32
	Align      int32
}

// VTable is the per-class/trait-object dispatch table spec.md §4.2
// describes: one function pointer slot per virtual method or trait method,
// in declaration order, plus the GC metadata the collector and the
// write-barrier-bearing store sequences need at a glance.
type VTable struct {
	ClassInstanceId ClassInstanceId
	InstanceSize    InstanceSize
	RefFields       []int32
	// Entries holds a resolved function address per slot once the JIT
	// driver has compiled (or stubbed) the corresponding method; it is
	// populated by the JIT driver, not by this package (spec.md §4.6).
	Entries []uintptr
}
