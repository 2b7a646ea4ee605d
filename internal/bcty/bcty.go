// Package bcty implements the concrete/symbolic type representation shared
// by the bytecode IR, the shape layer, and the JIT driver.
package bcty

import (
	"fmt"
	"strings"
)

// Kind tags a BytecodeType variant.
type Kind uint8

const (
	KindUnit Kind = iota
	KindBool
	KindUInt8
	KindChar
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindPtr
	KindTypeParam
	KindTuple
	KindClass
	KindStruct
	KindEnum
	KindTrait
	KindLambda
)

func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "Unit"
	case KindBool:
		return "Bool"
	case KindUInt8:
		return "UInt8"
	case KindChar:
		return "Char"
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindFloat32:
		return "Float32"
	case KindFloat64:
		return "Float64"
	case KindPtr:
		return "Ptr"
	case KindTypeParam:
		return "TypeParam"
	case KindTuple:
		return "Tuple"
	case KindClass:
		return "Class"
	case KindStruct:
		return "Struct"
	case KindEnum:
		return "Enum"
	case KindTrait:
		return "Trait"
	case KindLambda:
		return "Lambda"
	default:
		return "?"
	}
}

// Id is a dense index into one of the Program's entity tables.
type Id = uint32

// BytecodeType is a tagged variant mirroring spec.md's BytecodeType union.
// Only the fields relevant to Kind are populated; callers must switch on
// Kind before reading them.
type BytecodeType struct {
	Kind Kind

	// KindTypeParam
	TypeParamIdx uint32

	// KindTuple
	TupleArgs TypeArray

	// KindClass, KindStruct, KindEnum, KindTrait
	DefId    Id
	TypeArgs TypeArray

	// KindLambda
	LambdaParams TypeArray
	LambdaReturn *BytecodeType
}

func Unit() BytecodeType    { return BytecodeType{Kind: KindUnit} }
func Bool() BytecodeType    { return BytecodeType{Kind: KindBool} }
func UInt8() BytecodeType   { return BytecodeType{Kind: KindUInt8} }
func Char() BytecodeType    { return BytecodeType{Kind: KindChar} }
func Int32() BytecodeType   { return BytecodeType{Kind: KindInt32} }
func Int64() BytecodeType   { return BytecodeType{Kind: KindInt64} }
func Float32() BytecodeType { return BytecodeType{Kind: KindFloat32} }
func Float64() BytecodeType { return BytecodeType{Kind: KindFloat64} }
func Ptr() BytecodeType     { return BytecodeType{Kind: KindPtr} }

func TypeParam(idx uint32) BytecodeType {
	return BytecodeType{Kind: KindTypeParam, TypeParamIdx: idx}
}

func Tuple(args TypeArray) BytecodeType {
	return BytecodeType{Kind: KindTuple, TupleArgs: args}
}

func Class(id Id, args TypeArray) BytecodeType {
	return BytecodeType{Kind: KindClass, DefId: id, TypeArgs: args}
}

func Struct(id Id, args TypeArray) BytecodeType {
	return BytecodeType{Kind: KindStruct, DefId: id, TypeArgs: args}
}

func Enum(id Id, args TypeArray) BytecodeType {
	return BytecodeType{Kind: KindEnum, DefId: id, TypeArgs: args}
}

func Trait(id Id, args TypeArray) BytecodeType {
	return BytecodeType{Kind: KindTrait, DefId: id, TypeArgs: args}
}

func Lambda(params TypeArray, ret BytecodeType) BytecodeType {
	return BytecodeType{Kind: KindLambda, LambdaParams: params, LambdaReturn: &ret}
}

// IsReference reports whether a value of this type is a GC-managed pointer.
func (t BytecodeType) IsReference() bool {
	switch t.Kind {
	case KindPtr, KindClass, KindTrait, KindLambda:
		return true
	default:
		return false
	}
}

// IsConcrete reports whether t contains no TypeParam anywhere in its
// structure. Only concrete types may reach the shape layer or the JIT
// driver (spec.md §3).
func (t BytecodeType) IsConcrete() bool {
	switch t.Kind {
	case KindTypeParam:
		return false
	case KindTuple:
		return t.TupleArgs.AllConcrete()
	case KindClass, KindStruct, KindEnum, KindTrait:
		return t.TypeArgs.AllConcrete()
	case KindLambda:
		return t.LambdaParams.AllConcrete() && t.LambdaReturn.IsConcrete()
	default:
		return true
	}
}

// Equal reports structural equality, used both for cache keys and for
// bytecode-round-trip tests.
func (t BytecodeType) Equal(o BytecodeType) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindTypeParam:
		return t.TypeParamIdx == o.TypeParamIdx
	case KindTuple:
		return t.TupleArgs.Equal(o.TupleArgs)
	case KindClass, KindStruct, KindEnum, KindTrait:
		return t.DefId == o.DefId && t.TypeArgs.Equal(o.TypeArgs)
	case KindLambda:
		return t.LambdaParams.Equal(o.LambdaParams) && t.LambdaReturn.Equal(*o.LambdaReturn)
	default:
		return true
	}
}

// Specialize substitutes every TypeParam(k) with args[k], recursing into
// container types. args must be fully concrete; callers (the shape layer,
// the JIT driver) are responsible for that guarantee (spec.md §4.2).
func (t BytecodeType) Specialize(args TypeArray) BytecodeType {
	switch t.Kind {
	case KindTypeParam:
		return args.Get(int(t.TypeParamIdx))
	case KindTuple:
		return Tuple(t.TupleArgs.Specialize(args))
	case KindClass:
		return Class(t.DefId, t.TypeArgs.Specialize(args))
	case KindStruct:
		return Struct(t.DefId, t.TypeArgs.Specialize(args))
	case KindEnum:
		return Enum(t.DefId, t.TypeArgs.Specialize(args))
	case KindTrait:
		return Trait(t.DefId, t.TypeArgs.Specialize(args))
	case KindLambda:
		ret := t.LambdaReturn.Specialize(args)
		return Lambda(t.LambdaParams.Specialize(args), ret)
	default:
		return t
	}
}

// Size returns the size in bytes of a primitive/reference type. Container
// types (Tuple/Struct/Enum) are sized by the shape layer, not here.
func (t BytecodeType) Size(ptrWidth int) int {
	switch t.Kind {
	case KindUnit:
		return 0
	case KindBool, KindUInt8:
		return 1
	case KindChar, KindInt32, KindFloat32:
		return 4
	case KindInt64, KindFloat64:
		return 8
	case KindPtr, KindClass, KindTrait, KindLambda:
		return ptrWidth
	default:
		panic(fmt.Sprintf("bcty: Size called on non-primitive kind %s", t.Kind))
	}
}

// Align returns the natural alignment of a primitive/reference type.
func (t BytecodeType) Align(ptrWidth int) int {
	if t.Kind == KindUnit {
		return 1
	}
	return t.Size(ptrWidth)
}

func (t BytecodeType) String() string {
	switch t.Kind {
	case KindTypeParam:
		return fmt.Sprintf("TypeParam(%d)", t.TypeParamIdx)
	case KindTuple:
		return fmt.Sprintf("Tuple(%s)", t.TupleArgs.String())
	case KindClass:
		return fmt.Sprintf("Class(%d, %s)", t.DefId, t.TypeArgs.String())
	case KindStruct:
		return fmt.Sprintf("Struct(%d, %s)", t.DefId, t.TypeArgs.String())
	case KindEnum:
		return fmt.Sprintf("Enum(%d, %s)", t.DefId, t.TypeArgs.String())
	case KindTrait:
		return fmt.Sprintf("Trait(%d, %s)", t.DefId, t.TypeArgs.String())
	case KindLambda:
		return fmt.Sprintf("Lambda(%s, %s)", t.LambdaParams.String(), t.LambdaReturn.String())
	default:
		return t.Kind.String()
	}
}

// TypeArray is an ordered, structurally-comparable sequence of
// BytecodeType, used throughout the shape layer as a cache key.
type TypeArray struct {
	items []BytecodeType
}

// Empty returns the empty TypeArray.
func Empty() TypeArray { return TypeArray{} }

// One returns a single-element TypeArray.
func One(t BytecodeType) TypeArray { return TypeArray{items: []BytecodeType{t}} }

// New builds a TypeArray from a slice, copying it so later mutation of the
// caller's slice cannot alias the TypeArray.
func New(items []BytecodeType) TypeArray {
	if len(items) == 0 {
		return TypeArray{}
	}
	cp := make([]BytecodeType, len(items))
	copy(cp, items)
	return TypeArray{items: cp}
}

func (a TypeArray) Len() int { return len(a.items) }

func (a TypeArray) Get(i int) BytecodeType { return a.items[i] }

// Append returns a new TypeArray with t appended; a is left unmodified.
func (a TypeArray) Append(t BytecodeType) TypeArray {
	out := make([]BytecodeType, len(a.items)+1)
	copy(out, a.items)
	out[len(a.items)] = t
	return TypeArray{items: out}
}

// Iter calls fn for every element in order.
func (a TypeArray) Iter(fn func(i int, t BytecodeType)) {
	for i, t := range a.items {
		fn(i, t)
	}
}

func (a TypeArray) AllConcrete() bool {
	for _, t := range a.items {
		if !t.IsConcrete() {
			return false
		}
	}
	return true
}

func (a TypeArray) Equal(o TypeArray) bool {
	if len(a.items) != len(o.items) {
		return false
	}
	for i := range a.items {
		if !a.items[i].Equal(o.items[i]) {
			return false
		}
	}
	return true
}

func (a TypeArray) Specialize(args TypeArray) TypeArray {
	if len(a.items) == 0 {
		return a
	}
	out := make([]BytecodeType, len(a.items))
	for i, t := range a.items {
		out[i] = t.Specialize(args)
	}
	return TypeArray{items: out}
}

// Key returns a content hash suitable for use as a map key, matching
// spec.md §3's requirement that TypeArray "must hash by content".
func (a TypeArray) Key() string {
	var sb strings.Builder
	for i, t := range a.items {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}

func (a TypeArray) String() string {
	parts := make([]string, len(a.items))
	for i, t := range a.items {
		parts[i] = t.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
