package bytecode

// Opcode identifies one bytecode instruction. The numeric values are not a
// stable wire format by themselves — encoding always goes through Writer,
// which picks an operand width per instruction (spec.md §4.1).
type Opcode uint8

const (
	OpAdd Opcode = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg
	OpAnd
	OpOr
	OpXor
	OpNot
	OpShl
	OpShr
	OpSar

	OpMov
	OpConstTrue
	OpConstFalse
	OpConstZero
	OpConstChar
	OpConstInt32
	OpConstInt64
	OpConstFloat32
	OpConstFloat64
	OpConstString
	OpConstUInt8

	OpTestEq
	OpTestNe
	OpTestGt
	OpTestGe
	OpTestLt
	OpTestLe
	OpTestIdentity

	OpJumpIfFalse
	OpJumpIfFalseConst
	OpJumpIfTrue
	OpJumpIfTrueConst
	OpJump
	OpJumpConst
	OpJumpLoop
	OpLoopStart

	OpLoadField
	OpStoreField
	OpLoadStructField
	OpLoadTupleElement
	OpLoadEnumElement
	OpLoadEnumVariant

	OpLoadGlobal
	OpStoreGlobal

	OpLoadArray
	OpStoreArray
	OpArrayLength
	OpNewArray

	OpNewObject
	OpNewObjectInitialized
	OpNewTuple
	OpNewEnum
	OpNewStruct
	OpNewLambda
	OpNewTraitObject

	OpPushRegister
	OpInvokeDirect
	OpInvokeStatic
	OpInvokeVirtual
	OpInvokeLambda
	OpInvokeGenericStatic
	OpInvokeGenericDirect
	OpRet

	OpLoadTraitObjectValue

	opcodeCount
)

// OperandKind describes how one operand of an instruction is encoded.
type OperandKind uint8

const (
	OperandReg OperandKind = iota
	OperandConstIdx
	OperandGlobalIdx
	OperandOffset // signed byte distance, relative to the instruction following this one
	OperandImm8   // raw literal byte, used only by ConstUInt8
	OperandKindByte
)

var mnemonics = [opcodeCount]string{
	OpAdd: "Add", OpSub: "Sub", OpMul: "Mul", OpDiv: "Div", OpMod: "Mod",
	OpNeg: "Neg", OpAnd: "And", OpOr: "Or", OpXor: "Xor", OpNot: "Not",
	OpShl: "Shl", OpShr: "Shr", OpSar: "Sar",

	OpMov: "Mov", OpConstTrue: "ConstTrue", OpConstFalse: "ConstFalse",
	OpConstZero: "ConstZero", OpConstChar: "ConstChar", OpConstInt32: "ConstInt32",
	OpConstInt64: "ConstInt64", OpConstFloat32: "ConstFloat32", OpConstFloat64: "ConstFloat64",
	OpConstString: "ConstString", OpConstUInt8: "ConstUInt8",

	OpTestEq: "TestEq", OpTestNe: "TestNe", OpTestGt: "TestGt", OpTestGe: "TestGe",
	OpTestLt: "TestLt", OpTestLe: "TestLe", OpTestIdentity: "TestIdentity",

	OpJumpIfFalse: "JumpIfFalse", OpJumpIfFalseConst: "JumpIfFalseConst",
	OpJumpIfTrue: "JumpIfTrue", OpJumpIfTrueConst: "JumpIfTrueConst",
	OpJump: "Jump", OpJumpConst: "JumpConst", OpJumpLoop: "JumpLoop", OpLoopStart: "LoopStart",

	OpLoadField: "LoadField", OpStoreField: "StoreField", OpLoadStructField: "LoadStructField",
	OpLoadTupleElement: "LoadTupleElement", OpLoadEnumElement: "LoadEnumElement",
	OpLoadEnumVariant: "LoadEnumVariant",

	OpLoadGlobal: "LoadGlobal", OpStoreGlobal: "StoreGlobal",

	OpLoadArray: "LoadArray", OpStoreArray: "StoreArray", OpArrayLength: "ArrayLength",
	OpNewArray: "NewArray",

	OpNewObject: "NewObject", OpNewObjectInitialized: "NewObjectInitialized",
	OpNewTuple: "NewTuple", OpNewEnum: "NewEnum", OpNewStruct: "NewStruct",
	OpNewLambda: "NewLambda", OpNewTraitObject: "NewTraitObject",

	OpPushRegister: "PushRegister", OpInvokeDirect: "InvokeDirect",
	OpInvokeStatic: "InvokeStatic", OpInvokeVirtual: "InvokeVirtual",
	OpInvokeLambda: "InvokeLambda", OpInvokeGenericStatic: "InvokeGenericStatic",
	OpInvokeGenericDirect: "InvokeGenericDirect", OpRet: "Ret",

	OpLoadTraitObjectValue: "LoadTraitObjectValue",
}

// String renders the canonical mnemonic for op. The dumper never emits the
// "NegInt32" artifact some textual dumps in the original implementation
// produced for Neg — every kind renders as the plain opcode name (spec.md
// §9(c)).
func (op Opcode) String() string {
	if int(op) < len(mnemonics) && mnemonics[op] != "" {
		return mnemonics[op]
	}
	return "Unknown"
}

// operandKinds returns the operand shape for op, in encoding order.
func operandKinds(op Opcode) []OperandKind {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpAnd, OpOr, OpXor, OpShl, OpShr, OpSar,
		OpTestEq, OpTestNe, OpTestGt, OpTestGe, OpTestLt, OpTestLe, OpTestIdentity,
		OpLoadArray, OpStoreArray:
		return []OperandKind{OperandReg, OperandReg, OperandReg}

	case OpNeg, OpNot, OpMov, OpArrayLength, OpLoadTraitObjectValue:
		return []OperandKind{OperandReg, OperandReg}

	case OpConstTrue, OpConstFalse, OpPushRegister, OpRet:
		return []OperandKind{OperandReg}

	case OpConstZero:
		return []OperandKind{OperandReg, OperandKindByte}

	case OpConstChar, OpConstInt32, OpConstInt64, OpConstFloat32, OpConstFloat64, OpConstString,
		OpNewObject, OpNewObjectInitialized, OpNewTuple, OpNewEnum, OpNewStruct, OpNewLambda,
		OpInvokeDirect, OpInvokeStatic, OpInvokeVirtual, OpInvokeLambda,
		OpInvokeGenericStatic, OpInvokeGenericDirect:
		return []OperandKind{OperandReg, OperandConstIdx}

	case OpConstUInt8:
		return []OperandKind{OperandReg, OperandImm8}

	case OpJumpIfFalse, OpJumpIfTrue:
		return []OperandKind{OperandReg, OperandOffset}
	case OpJumpIfFalseConst, OpJumpIfTrueConst:
		return []OperandKind{OperandReg, OperandConstIdx}
	case OpJump, OpJumpLoop:
		return []OperandKind{OperandOffset}
	case OpJumpConst:
		return []OperandKind{OperandConstIdx}
	case OpLoopStart:
		return nil

	case OpLoadField, OpLoadStructField, OpLoadTupleElement, OpLoadEnumElement, OpLoadEnumVariant:
		return []OperandKind{OperandReg, OperandReg, OperandConstIdx}
	case OpStoreField:
		return []OperandKind{OperandReg, OperandConstIdx, OperandReg}

	case OpLoadGlobal, OpStoreGlobal:
		return []OperandKind{OperandReg, OperandGlobalIdx}

	case OpNewArray:
		return []OperandKind{OperandReg, OperandConstIdx, OperandReg}
	case OpNewTraitObject:
		return []OperandKind{OperandReg, OperandConstIdx, OperandReg}

	default:
		panic("bytecode: operandKinds: unknown opcode")
	}
}
