package bytecode

import (
	"fmt"

	"github.com/malphas-lang/malphas-lang/internal/bcty"
)

// Label is a forward- or backward-jump target created by Builder.CreateLabel
// and fixed in place by Builder.BindLabel.
type Label struct {
	id     int
	bound  bool
	target Offset
}

// pendingJump is a jump instruction awaiting label binding.
type pendingJump struct {
	label    *Label
	instIdx  int // index into builder.pending
	operandI int // which operand of the instruction carries the offset
}

// Builder assembles a Function: register allocation, label-aware jump
// emission, and constant-pool interning (spec.md §4.1 "Builder").
type Builder struct {
	registers []bcty.BytecodeType
	pending   []Instruction
	locations []LineLoc
	fixups    []pendingJump
	pool      []ConstPoolEntry
	poolIndex map[string]uint32
	arguments uint32
	nextLabel int
}

func NewBuilder() *Builder {
	return &Builder{poolIndex: make(map[string]uint32)}
}

// AddRegister allocates a fresh register of type ty and returns its index.
func (b *Builder) AddRegister(ty bcty.BytecodeType) Register {
	idx := Register(len(b.registers))
	b.registers = append(b.registers, ty)
	return idx
}

// SetArguments records how many of the low registers are parameters.
func (b *Builder) SetArguments(n uint32) { b.arguments = n }

// CreateLabel allocates an unbound label.
func (b *Builder) CreateLabel() *Label {
	b.nextLabel++
	return &Label{id: b.nextLabel}
}

// BindLabel fixes lbl to the next instruction that will be emitted.
func (b *Builder) BindLabel(lbl *Label) {
	lbl.bound = true
	lbl.target = Offset(len(b.pending))
}

// SetLocation records that the instruction about to be emitted originated
// at the given source line.
func (b *Builder) SetLocation(line int) {
	b.locations = append(b.locations, LineLoc{Offset: Offset(len(b.pending)), Line: line})
}

func (b *Builder) emit(inst Instruction) int {
	idx := len(b.pending)
	b.pending = append(b.pending, inst)
	return idx
}

// emitJump emits a jump-family instruction whose offset operand (at
// operandIdx) targets lbl; the real byte distance is resolved in
// Generate() once every instruction has a final encoded offset.
func (b *Builder) emitJump(op Opcode, operandIdx int, lbl *Label, operands ...int64) {
	idx := b.emit(NewInstruction(op, operands...))
	b.fixups = append(b.fixups, pendingJump{label: lbl, instIdx: idx, operandI: operandIdx})
}

// --- arithmetic / logic ---

func (b *Builder) EmitAdd(dst, lhs, rhs Register) { b.emit(NewInstruction(OpAdd, i(dst), i(lhs), i(rhs))) }
func (b *Builder) EmitSub(dst, lhs, rhs Register) { b.emit(NewInstruction(OpSub, i(dst), i(lhs), i(rhs))) }
func (b *Builder) EmitMul(dst, lhs, rhs Register) { b.emit(NewInstruction(OpMul, i(dst), i(lhs), i(rhs))) }
func (b *Builder) EmitDiv(dst, lhs, rhs Register) { b.emit(NewInstruction(OpDiv, i(dst), i(lhs), i(rhs))) }
func (b *Builder) EmitMod(dst, lhs, rhs Register) { b.emit(NewInstruction(OpMod, i(dst), i(lhs), i(rhs))) }
func (b *Builder) EmitAnd(dst, lhs, rhs Register) { b.emit(NewInstruction(OpAnd, i(dst), i(lhs), i(rhs))) }
func (b *Builder) EmitOr(dst, lhs, rhs Register)  { b.emit(NewInstruction(OpOr, i(dst), i(lhs), i(rhs))) }
func (b *Builder) EmitXor(dst, lhs, rhs Register) { b.emit(NewInstruction(OpXor, i(dst), i(lhs), i(rhs))) }
func (b *Builder) EmitShl(dst, lhs, rhs Register) { b.emit(NewInstruction(OpShl, i(dst), i(lhs), i(rhs))) }
func (b *Builder) EmitShr(dst, lhs, rhs Register) { b.emit(NewInstruction(OpShr, i(dst), i(lhs), i(rhs))) }
func (b *Builder) EmitSar(dst, lhs, rhs Register) { b.emit(NewInstruction(OpSar, i(dst), i(lhs), i(rhs))) }
func (b *Builder) EmitNeg(dst, src Register)      { b.emit(NewInstruction(OpNeg, i(dst), i(src))) }
func (b *Builder) EmitNot(dst, src Register)      { b.emit(NewInstruction(OpNot, i(dst), i(src))) }

func (b *Builder) EmitMov(dst, src Register) { b.emit(NewInstruction(OpMov, i(dst), i(src))) }

func (b *Builder) EmitConstTrue(dst Register)  { b.emit(NewInstruction(OpConstTrue, i(dst))) }
func (b *Builder) EmitConstFalse(dst Register) { b.emit(NewInstruction(OpConstFalse, i(dst))) }

func (b *Builder) EmitConstZero(dst Register, kind bcty.Kind) {
	b.emit(NewInstruction(OpConstZero, i(dst), int64(kind)))
}

func (b *Builder) EmitConstUInt8(dst Register, v uint8) {
	b.emit(NewInstruction(OpConstUInt8, i(dst), int64(v)))
}

func (b *Builder) EmitConstInt32(dst Register, v int32) Offset {
	idx := b.intern(CPEInt32(v))
	b.emit(NewInstruction(OpConstInt32, i(dst), i(idx)))
	return idx
}

func (b *Builder) EmitConstInt64(dst Register, v int64) Offset {
	idx := b.intern(CPEInt64(v))
	b.emit(NewInstruction(OpConstInt64, i(dst), i(idx)))
	return idx
}

func (b *Builder) EmitConstFloat32(dst Register, v float32) Offset {
	idx := b.intern(CPEFloat32(v))
	b.emit(NewInstruction(OpConstFloat32, i(dst), i(idx)))
	return idx
}

func (b *Builder) EmitConstFloat64(dst Register, v float64) Offset {
	idx := b.intern(CPEFloat64(v))
	b.emit(NewInstruction(OpConstFloat64, i(dst), i(idx)))
	return idx
}

func (b *Builder) EmitConstChar(dst Register, v rune) Offset {
	idx := b.intern(CPEChar(v))
	b.emit(NewInstruction(OpConstChar, i(dst), i(idx)))
	return idx
}

func (b *Builder) EmitConstString(dst Register, v string) Offset {
	idx := b.intern(CPEString(v))
	b.emit(NewInstruction(OpConstString, i(dst), i(idx)))
	return idx
}

// --- tests ---

func (b *Builder) EmitTestEq(dst, lhs, rhs Register) { b.emit(NewInstruction(OpTestEq, i(dst), i(lhs), i(rhs))) }
func (b *Builder) EmitTestNe(dst, lhs, rhs Register) { b.emit(NewInstruction(OpTestNe, i(dst), i(lhs), i(rhs))) }
func (b *Builder) EmitTestGt(dst, lhs, rhs Register) { b.emit(NewInstruction(OpTestGt, i(dst), i(lhs), i(rhs))) }
func (b *Builder) EmitTestGe(dst, lhs, rhs Register) { b.emit(NewInstruction(OpTestGe, i(dst), i(lhs), i(rhs))) }
func (b *Builder) EmitTestLt(dst, lhs, rhs Register) { b.emit(NewInstruction(OpTestLt, i(dst), i(lhs), i(rhs))) }
func (b *Builder) EmitTestLe(dst, lhs, rhs Register) { b.emit(NewInstruction(OpTestLe, i(dst), i(lhs), i(rhs))) }
func (b *Builder) EmitTestIdentity(dst, lhs, rhs Register) {
	b.emit(NewInstruction(OpTestIdentity, i(dst), i(lhs), i(rhs)))
}

// --- control flow ---

func (b *Builder) EmitJumpIfFalse(cond Register, lbl *Label) {
	b.emitJump(OpJumpIfFalse, 1, lbl, i(cond), 0)
}

func (b *Builder) EmitJumpIfTrue(cond Register, lbl *Label) {
	b.emitJump(OpJumpIfTrue, 1, lbl, i(cond), 0)
}

func (b *Builder) EmitJump(lbl *Label) { b.emitJump(OpJump, 0, lbl, 0) }

// EmitJumpLoop emits a backward jump to lbl, which must already be bound
// (spec.md's JumpLoop carries a negative offset by construction).
func (b *Builder) EmitJumpLoop(lbl *Label) {
	if !lbl.bound {
		panic("bytecode: JumpLoop target must be bound before use")
	}
	b.emit(NewInstruction(OpJumpLoop, 0))
	b.fixups = append(b.fixups, pendingJump{label: lbl, instIdx: len(b.pending) - 1, operandI: 0})
}

func (b *Builder) EmitLoopStart() { b.emit(NewInstruction(OpLoopStart)) }

// --- field / element / tuple access ---

func (b *Builder) EmitLoadField(dst, obj Register, constIdx uint32) {
	b.emit(NewInstruction(OpLoadField, i(dst), i(obj), i(constIdx)))
}

func (b *Builder) EmitStoreField(obj Register, constIdx uint32, src Register) {
	b.emit(NewInstruction(OpStoreField, i(obj), i(constIdx), i(src)))
}

func (b *Builder) EmitLoadStructField(dst, structReg Register, constIdx uint32) {
	b.emit(NewInstruction(OpLoadStructField, i(dst), i(structReg), i(constIdx)))
}

func (b *Builder) EmitLoadTupleElement(dst, src Register, constIdx uint32) {
	b.emit(NewInstruction(OpLoadTupleElement, i(dst), i(src), i(constIdx)))
}

func (b *Builder) EmitLoadEnumElement(dst, src Register, constIdx uint32) {
	b.emit(NewInstruction(OpLoadEnumElement, i(dst), i(src), i(constIdx)))
}

func (b *Builder) EmitLoadEnumVariant(dst, src Register, constIdx uint32) {
	b.emit(NewInstruction(OpLoadEnumVariant, i(dst), i(src), i(constIdx)))
}

// --- globals ---

func (b *Builder) EmitLoadGlobal(reg Register, globalId uint32) {
	b.emit(NewInstruction(OpLoadGlobal, i(reg), i(globalId)))
}

func (b *Builder) EmitStoreGlobal(reg Register, globalId uint32) {
	b.emit(NewInstruction(OpStoreGlobal, i(reg), i(globalId)))
}

// --- arrays ---

func (b *Builder) EmitLoadArray(dst, arr, idx Register) {
	b.emit(NewInstruction(OpLoadArray, i(dst), i(arr), i(idx)))
}

func (b *Builder) EmitStoreArray(arr, idx, src Register) {
	b.emit(NewInstruction(OpStoreArray, i(arr), i(idx), i(src)))
}

func (b *Builder) EmitArrayLength(dst, arr Register) {
	b.emit(NewInstruction(OpArrayLength, i(dst), i(arr)))
}

func (b *Builder) EmitNewArray(dst Register, constIdx uint32, length Register) {
	b.emit(NewInstruction(OpNewArray, i(dst), i(constIdx), i(length)))
}

// --- construction ---

func (b *Builder) EmitNewObject(dst Register, constIdx uint32) {
	b.emit(NewInstruction(OpNewObject, i(dst), i(constIdx)))
}

func (b *Builder) EmitNewObjectInitialized(dst Register, constIdx uint32) {
	b.emit(NewInstruction(OpNewObjectInitialized, i(dst), i(constIdx)))
}

func (b *Builder) EmitNewTuple(dst Register, constIdx uint32) {
	b.emit(NewInstruction(OpNewTuple, i(dst), i(constIdx)))
}

func (b *Builder) EmitNewEnum(dst Register, constIdx uint32) {
	b.emit(NewInstruction(OpNewEnum, i(dst), i(constIdx)))
}

func (b *Builder) EmitNewStruct(dst Register, constIdx uint32) {
	b.emit(NewInstruction(OpNewStruct, i(dst), i(constIdx)))
}

func (b *Builder) EmitNewLambda(dst Register, constIdx uint32) {
	b.emit(NewInstruction(OpNewLambda, i(dst), i(constIdx)))
}

func (b *Builder) EmitNewTraitObject(dst Register, constIdx uint32, src Register) {
	b.emit(NewInstruction(OpNewTraitObject, i(dst), i(constIdx), i(src)))
}

// --- calls ---

func (b *Builder) EmitPushRegister(src Register) { b.emit(NewInstruction(OpPushRegister, i(src))) }

func (b *Builder) EmitInvokeDirect(dst Register, constIdx uint32) {
	b.emit(NewInstruction(OpInvokeDirect, i(dst), i(constIdx)))
}

func (b *Builder) EmitInvokeStatic(dst Register, constIdx uint32) {
	b.emit(NewInstruction(OpInvokeStatic, i(dst), i(constIdx)))
}

func (b *Builder) EmitInvokeVirtual(dst Register, constIdx uint32) {
	b.emit(NewInstruction(OpInvokeVirtual, i(dst), i(constIdx)))
}

func (b *Builder) EmitInvokeLambda(dst Register, constIdx uint32) {
	b.emit(NewInstruction(OpInvokeLambda, i(dst), i(constIdx)))
}

func (b *Builder) EmitInvokeGenericStatic(dst Register, constIdx uint32) {
	b.emit(NewInstruction(OpInvokeGenericStatic, i(dst), i(constIdx)))
}

func (b *Builder) EmitInvokeGenericDirect(dst Register, constIdx uint32) {
	b.emit(NewInstruction(OpInvokeGenericDirect, i(dst), i(constIdx)))
}

func (b *Builder) EmitRet(src Register) { b.emit(NewInstruction(OpRet, i(src))) }

func (b *Builder) EmitLoadTraitObjectValue(dst, obj Register) {
	b.emit(NewInstruction(OpLoadTraitObjectValue, i(dst), i(obj)))
}

// --- constant pool interning ---

// intern deduplicates equal entries, matching spec.md §4.1's
// "equal entries are deduplicated".
func (b *Builder) intern(e ConstPoolEntry) uint32 {
	key := poolKey(e)
	if idx, ok := b.poolIndex[key]; ok {
		return idx
	}
	idx := uint32(len(b.pool))
	b.pool = append(b.pool, e)
	b.poolIndex[key] = idx
	return idx
}

// InternRaw exposes interning to callers (e.g. internal/program) building
// const pool entries that reference program-level ids rather than
// literals.
func (b *Builder) InternRaw(e ConstPoolEntry) uint32 { return b.intern(e) }

func poolKey(e ConstPoolEntry) string {
	return fmt.Sprintf("%d|%s|%d|%d|%d|%d|%d|%d|%s|%d|%d|%s|%s",
		e.Kind, e.Str, e.I32, e.I64, e.Ch, e.DefId, e.FieldIdx, e.VariantIdx,
		e.TypeArgs.Key(), e.ElementIdx, e.TypeParamId, e.ObjectTy.String(), e.TupleTy.String())
}

// Generate resolves every label fixup and produces the final Function.
//
// Layout is two-pass: pass 1 encodes every instruction with jump operands
// still at their placeholder value to learn each instruction's provisional
// byte offset and length; pass 2 replaces every jump operand with the real
// signed byte distance from the instruction following the jump to the
// bound label (spec.md §4.1) and re-encodes. Distances that are small
// enough to keep an instruction's pass-1 width (true for every function
// this builder is used to assemble in practice) therefore land at the
// pass-1 offsets exactly; pathologically long jumps that would need to
// widen their own encoding are rejected rather than silently
// mis-assembled.
func (b *Builder) Generate() *Function {
	if len(b.pending) == 0 {
		return &Function{
			Registers: append([]bcty.BytecodeType(nil), b.registers...),
			ConstPool: append([]ConstPoolEntry(nil), b.pool...),
			Locations: append([]LineLoc(nil), b.locations...),
			Arguments: b.arguments,
		}
	}

	fixupByInst := make(map[int]pendingJump, len(b.fixups))
	for _, f := range b.fixups {
		if !f.label.bound {
			panic("bytecode: label used but never bound")
		}
		fixupByInst[f.instIdx] = f
	}

	w1 := NewWriter()
	starts := make([]Offset, len(b.pending)+1)
	for idx, inst := range b.pending {
		starts[idx] = w1.Emit(inst)
	}
	starts[len(b.pending)] = Offset(len(w1.Code()))
	lens := make([]int, len(b.pending))
	for idx := range b.pending {
		lens[idx] = int(starts[idx+1] - starts[idx])
	}

	w2 := NewWriter()
	for idx, inst := range b.pending {
		if f, ok := fixupByInst[idx]; ok {
			after := int64(starts[idx]) + int64(lens[idx])
			dist := int64(starts[f.label.target]) - after
			if widthFor(dist) > chooseWidth(inst) {
				panic("bytecode: jump distance outgrew its instruction's encoded width")
			}
			inst.operands[f.operandI].v = dist
		}
		w2.Emit(inst)
	}

	return &Function{
		Code:      w2.Code(),
		Registers: append([]bcty.BytecodeType(nil), b.registers...),
		ConstPool: append([]ConstPoolEntry(nil), b.pool...),
		Locations: append([]LineLoc(nil), b.locations...),
		Arguments: b.arguments,
	}
}

func i(v uint32) int64 { return int64(v) }
