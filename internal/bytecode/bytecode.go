package bytecode

import "github.com/malphas-lang/malphas-lang/internal/bcty"

// Register is a dense index into a function's register file.
type Register = uint32

// Offset is a byte offset into a Function's Code.
type Offset = uint32

// LineLoc records that the instruction at Offset originated at source Line.
type LineLoc struct {
	Offset Offset
	Line   int
}

// Function is the stored, encoded form of one function's body: opaque
// bytes plus the metadata needed to decode and specialize them (spec.md
// §3 "Bytecode function").
type Function struct {
	Code      []byte
	Registers []bcty.BytecodeType
	ConstPool []ConstPoolEntry
	Locations []LineLoc
	Arguments uint32
}

// ConstPoolEntry is total over idx < len(ConstPool); panics otherwise, which
// matches the teacher's assert-on-misuse style for internal invariants
// (spec.md §4.1 "Const-pool contract").
func (f *Function) ConstPoolEntry(idx uint32) ConstPoolEntry {
	return f.ConstPool[idx]
}

// LineFor returns the source line recorded for the instruction at offset,
// or false if no LocationTable entry exists there.
func (f *Function) LineFor(offset Offset) (int, bool) {
	for _, loc := range f.Locations {
		if loc.Offset == offset {
			return loc.Line, true
		}
	}
	return 0, false
}

// IsSpecialized reports whether every register type is concrete. Storage
// bytecode (as produced by the front-end) may carry TypeParam registers;
// after JIT-time specialization every register must be concrete (spec.md
// §3 "Bytecode function").
func (f *Function) IsSpecialized() bool {
	for _, r := range f.Registers {
		if !r.IsConcrete() {
			return false
		}
	}
	return true
}

// Specialize returns a copy of f with every register type and const pool
// type argument substituted by args. The code bytes and instruction
// boundaries are unchanged — specialization only rewrites type metadata,
// never control flow (spec.md §4.2).
func (f *Function) Specialize(args bcty.TypeArray) *Function {
	out := &Function{
		Code:      f.Code,
		Registers: make([]bcty.BytecodeType, len(f.Registers)),
		ConstPool: make([]ConstPoolEntry, len(f.ConstPool)),
		Locations: f.Locations,
		Arguments: f.Arguments,
	}
	for i, r := range f.Registers {
		out.Registers[i] = r.Specialize(args)
	}
	for i, e := range f.ConstPool {
		out.ConstPool[i] = specializeConstPoolEntry(e, args)
	}
	return out
}

func specializeConstPoolEntry(e ConstPoolEntry, args bcty.TypeArray) ConstPoolEntry {
	out := e
	switch e.Kind {
	case CPClass, CPStruct, CPStructField, CPEnum, CPEnumVariant, CPEnumElement, CPField, CPFct, CPGeneric:
		out.TypeArgs = e.TypeArgs.Specialize(args)
	case CPTrait:
		out.TypeArgs = e.TypeArgs.Specialize(args)
		out.ObjectTy = e.ObjectTy.Specialize(args)
	case CPTuple:
		out.TypeArgs = e.TypeArgs.Specialize(args)
	case CPTupleElement:
		out.TupleTy = e.TupleTy.Specialize(args)
	case CPLambda:
		out.LambdaParams = e.LambdaParams.Specialize(args)
		out.LambdaReturn = e.LambdaReturn.Specialize(args)
	}
	return out
}
