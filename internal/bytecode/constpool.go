package bytecode

import (
	"fmt"

	"github.com/malphas-lang/malphas-lang/internal/bcty"
)

// ConstPoolKind tags a ConstPoolEntry variant (spec.md §3).
type ConstPoolKind uint8

const (
	CPString ConstPoolKind = iota
	CPInt32
	CPInt64
	CPFloat32
	CPFloat64
	CPChar
	CPClass
	CPStruct
	CPStructField
	CPEnum
	CPEnumVariant
	CPEnumElement
	CPField
	CPFct
	CPGeneric
	CPTrait
	CPTuple
	CPTupleElement
	CPLambda
)

// ConstPoolEntry is one entry of a function's constant pool. Only the
// fields relevant to Kind are meaningful.
type ConstPoolEntry struct {
	Kind ConstPoolKind

	Str     string
	I32     int32
	I64     int64
	F32     float32
	F64     float64
	Ch      rune

	DefId      bcty.Id
	TypeArgs   bcty.TypeArray
	FieldIdx   int
	VariantIdx int
	ElementIdx int

	ObjectTy bcty.BytecodeType // Trait
	TupleTy  bcty.BytecodeType // TupleElement

	TypeParamId int     // Generic
	FctId       bcty.Id // Generic, Fct

	LambdaParams bcty.TypeArray
	LambdaReturn bcty.BytecodeType
}

func CPEString(s string) ConstPoolEntry  { return ConstPoolEntry{Kind: CPString, Str: s} }
func CPEInt32(v int32) ConstPoolEntry    { return ConstPoolEntry{Kind: CPInt32, I32: v} }
func CPEInt64(v int64) ConstPoolEntry    { return ConstPoolEntry{Kind: CPInt64, I64: v} }
func CPEFloat32(v float32) ConstPoolEntry { return ConstPoolEntry{Kind: CPFloat32, F32: v} }
func CPEFloat64(v float64) ConstPoolEntry { return ConstPoolEntry{Kind: CPFloat64, F64: v} }
func CPEChar(v rune) ConstPoolEntry      { return ConstPoolEntry{Kind: CPChar, Ch: v} }

func CPEClass(id bcty.Id, args bcty.TypeArray) ConstPoolEntry {
	return ConstPoolEntry{Kind: CPClass, DefId: id, TypeArgs: args}
}

func CPEStruct(id bcty.Id, args bcty.TypeArray) ConstPoolEntry {
	return ConstPoolEntry{Kind: CPStruct, DefId: id, TypeArgs: args}
}

func CPEStructField(id bcty.Id, args bcty.TypeArray, field int) ConstPoolEntry {
	return ConstPoolEntry{Kind: CPStructField, DefId: id, TypeArgs: args, FieldIdx: field}
}

func CPEEnum(id bcty.Id, args bcty.TypeArray) ConstPoolEntry {
	return ConstPoolEntry{Kind: CPEnum, DefId: id, TypeArgs: args}
}

func CPEEnumVariant(id bcty.Id, args bcty.TypeArray, variant int) ConstPoolEntry {
	return ConstPoolEntry{Kind: CPEnumVariant, DefId: id, TypeArgs: args, VariantIdx: variant}
}

func CPEEnumElement(id bcty.Id, args bcty.TypeArray, variant, elem int) ConstPoolEntry {
	return ConstPoolEntry{Kind: CPEnumElement, DefId: id, TypeArgs: args, VariantIdx: variant, ElementIdx: elem}
}

func CPEField(clsId bcty.Id, args bcty.TypeArray, field int) ConstPoolEntry {
	return ConstPoolEntry{Kind: CPField, DefId: clsId, TypeArgs: args, FieldIdx: field}
}

func CPEFct(fctId bcty.Id, args bcty.TypeArray) ConstPoolEntry {
	return ConstPoolEntry{Kind: CPFct, DefId: fctId, TypeArgs: args}
}

func CPEGeneric(typeParamId int, fctId bcty.Id, args bcty.TypeArray) ConstPoolEntry {
	return ConstPoolEntry{Kind: CPGeneric, TypeParamId: typeParamId, FctId: fctId, TypeArgs: args}
}

func CPETrait(traitId bcty.Id, args bcty.TypeArray, objectTy bcty.BytecodeType) ConstPoolEntry {
	return ConstPoolEntry{Kind: CPTrait, DefId: traitId, TypeArgs: args, ObjectTy: objectTy}
}

func CPETuple(args bcty.TypeArray) ConstPoolEntry {
	return ConstPoolEntry{Kind: CPTuple, TypeArgs: args}
}

func CPETupleElement(tupleTy bcty.BytecodeType, elem int) ConstPoolEntry {
	return ConstPoolEntry{Kind: CPTupleElement, TupleTy: tupleTy, ElementIdx: elem}
}

func CPELambda(params bcty.TypeArray, ret bcty.BytecodeType) ConstPoolEntry {
	return ConstPoolEntry{Kind: CPLambda, LambdaParams: params, LambdaReturn: ret}
}

func (e ConstPoolEntry) assertKind(k ConstPoolKind) {
	if e.Kind != k {
		panic(fmt.Sprintf("bytecode: const pool entry kind mismatch: have %d, want %d", e.Kind, k))
	}
}

func (e ConstPoolEntry) ToInt32() int32     { e.assertKind(CPInt32); return e.I32 }
func (e ConstPoolEntry) ToInt64() int64     { e.assertKind(CPInt64); return e.I64 }
func (e ConstPoolEntry) ToFloat32() float32 { e.assertKind(CPFloat32); return e.F32 }
func (e ConstPoolEntry) ToFloat64() float64 { e.assertKind(CPFloat64); return e.F64 }
func (e ConstPoolEntry) ToChar() rune       { e.assertKind(CPChar); return e.Ch }
func (e ConstPoolEntry) ToString() string   { e.assertKind(CPString); return e.Str }

// Equal is used by the round-trip test to compare decoded entries.
func (e ConstPoolEntry) Equal(o ConstPoolEntry) bool {
	if e.Kind != o.Kind {
		return false
	}
	switch e.Kind {
	case CPString:
		return e.Str == o.Str
	case CPInt32:
		return e.I32 == o.I32
	case CPInt64:
		return e.I64 == o.I64
	case CPFloat32:
		return e.F32 == o.F32
	case CPFloat64:
		return e.F64 == o.F64
	case CPChar:
		return e.Ch == o.Ch
	case CPClass, CPStruct, CPEnum, CPFct:
		return e.DefId == o.DefId && e.TypeArgs.Equal(o.TypeArgs)
	case CPStructField, CPField:
		return e.DefId == o.DefId && e.TypeArgs.Equal(o.TypeArgs) && e.FieldIdx == o.FieldIdx
	case CPEnumVariant:
		return e.DefId == o.DefId && e.TypeArgs.Equal(o.TypeArgs) && e.VariantIdx == o.VariantIdx
	case CPEnumElement:
		return e.DefId == o.DefId && e.TypeArgs.Equal(o.TypeArgs) &&
			e.VariantIdx == o.VariantIdx && e.ElementIdx == o.ElementIdx
	case CPGeneric:
		return e.TypeParamId == o.TypeParamId && e.FctId == o.FctId && e.TypeArgs.Equal(o.TypeArgs)
	case CPTrait:
		return e.DefId == o.DefId && e.TypeArgs.Equal(o.TypeArgs) && e.ObjectTy.Equal(o.ObjectTy)
	case CPTuple:
		return e.TypeArgs.Equal(o.TypeArgs)
	case CPTupleElement:
		return e.TupleTy.Equal(o.TupleTy) && e.ElementIdx == o.ElementIdx
	case CPLambda:
		return e.LambdaParams.Equal(o.LambdaParams) && e.LambdaReturn.Equal(o.LambdaReturn)
	default:
		return false
	}
}
