package jit

import (
	"fmt"
	"math"

	"github.com/malphas-lang/malphas-lang/internal/bcty"
	"github.com/malphas-lang/malphas-lang/internal/bytecode"
	"github.com/malphas-lang/malphas-lang/internal/masm"
	"github.com/malphas-lang/malphas-lang/internal/program"
	"github.com/malphas-lang/malphas-lang/internal/vm"
)

// decodedInst pairs one instruction with its byte offset and the offset of
// whatever follows it — the bound a jump's OperandOffset is measured
// from, per bytecode's Reader doc comment.
type decodedInst struct {
	offset bytecode.Offset
	next   bytecode.Offset
	inst   bytecode.Instruction
}

func decodeAll(fn *bytecode.Function) []decodedInst {
	var raw []decodedInst
	bytecode.NewReader(fn.Code).Decode(bytecode.VisitorFunc(func(offset bytecode.Offset, inst bytecode.Instruction) {
		raw = append(raw, decodedInst{offset: offset, inst: inst})
	}))
	for i := range raw {
		if i+1 < len(raw) {
			raw[i].next = raw[i+1].offset
		} else {
			raw[i].next = bytecode.Offset(len(fn.Code))
		}
	}
	return raw
}

// reg reads operand i of inst as a bytecode register index. Instruction
// stores every operand as a raw int64 regardless of kind; this package
// only ever reads OperandReg-kinded operands through reg.
func reg(inst bytecode.Instruction, i int) bytecode.Register {
	return bytecode.Register(inst.Operand(i))
}

// codegen walks one specialized function's decoded instructions, emitting
// through a masm.MacroAssembler. One codegen is used for exactly one
// function body.
type codegen struct {
	vm     *vm.VM
	m      *masm.MacroAssembler
	fn     *bytecode.Function
	layout *frameLayout
	opts   Options

	epilog *masm.Label
	trap   *masm.Label

	// labels maps a bytecode instruction offset to the masm.Label bound at
	// the point the code for that offset is emitted — built once up front
	// so forward jumps have something to reference before the code they
	// target has been generated.
	labels map[bytecode.Offset]*masm.Label

	// pending holds registers queued by OpPushRegister, consumed in order
	// by the next Invoke* instruction — the calling-convention marshaling
	// step spec.md §3's "PushRegister/InvokeDirect" pair describes.
	pending []bytecode.Register

	// extraLabels collects labels a visit* method allocates and binds
	// entirely within its own instruction (e.g. visitDivMod's overflow-guard
	// fallthrough target) — not reachable from the bytecode-offset jump-target
	// map generate() builds up front, so they must be tracked here instead to
	// reach Finalize's fixup pass.
	extraLabels []*masm.Label
}

// newLocalLabel allocates a label scoped to the current instruction's own
// codegen (see extraLabels).
func (cg *codegen) newLocalLabel() *masm.Label {
	lbl := cg.m.NewLabel()
	cg.extraLabels = append(cg.extraLabels, lbl)
	return lbl
}

func newCodegen(v *vm.VM, fn *bytecode.Function, opts Options) *codegen {
	m := masm.NewMacroAssembler()
	return &codegen{
		vm:     v,
		m:      m,
		fn:     fn,
		layout: layoutFrame(fn),
		opts:   opts,
		epilog: m.NewLabel(),
		trap:   m.NewLabel(),
	}
}

// stackLimitOffset and safepointRequestedByte are the ThreadLocalData
// field byte offsets CheckStackPointer/Safepoint read off RegThread:
// TLABTop and TLABEnd (two uintptrs) precede StackLimit, and the
// safepoint-requested flag immediately follows it.
const (
	stackLimitOffset       int32 = 16
	safepointRequestedByte int32 = 24
)

// generate emits this function's complete body: prolog, stack/safepoint
// checks, every instruction, the trap landing pad, and the epilog.
func (cg *codegen) generate() error {
	instructions := decodeAll(cg.fn)
	cg.labels = make(map[bytecode.Offset]*masm.Label, len(instructions))
	for _, d := range instructions {
		if target, ok := jumpTarget(cg.fn, d); ok {
			if _, exists := cg.labels[target]; !exists {
				cg.labels[target] = cg.m.NewLabel()
			}
		}
	}

	cg.m.Prolog(cg.layout.frameSize)
	cg.m.CheckStackPointer(stackLimitOffset, cg.trap)
	safepointSlow := cg.m.NewLabel()
	cg.m.Safepoint(safepointRequestedByte, safepointSlow)
	cg.spillIncomingArguments()

	for i, d := range instructions {
		if lbl, ok := cg.labels[d.offset]; ok {
			cg.m.Bind(lbl)
		}
		if err := cg.visit(d); err != nil {
			return fmt.Errorf("instruction %d (offset %d): %w", i, d.offset, err)
		}
	}

	cg.m.Bind(cg.epilog)
	cg.m.Epilog()

	// The safepoint-slow and trap landing pads are out-of-line code; they
	// exist so Safepoint/CheckStackPointer have somewhere to jump,
	// matching x64.rs's convention of sharing one slow path per function
	// rather than duplicating it at every check site.
	cg.m.Bind(safepointSlow)
	cg.m.Trap()
	cg.m.Bind(cg.trap)
	cg.m.Trap()

	labels := make([]*masm.Label, 0, len(cg.labels)+2)
	for _, lbl := range cg.labels {
		labels = append(labels, lbl)
	}
	labels = append(labels, cg.epilog, cg.trap, safepointSlow)
	labels = append(labels, cg.extraLabels...)
	cg.m.Finalize(labels...)
	return nil
}

// spillIncomingArguments copies the System V integer argument registers
// into their corresponding low-numbered bytecode registers' frame slots,
// per bytecode.Builder.SetArguments's "the low registers are parameters"
// convention.
func (cg *codegen) spillIncomingArguments() {
	if cg.fn.Arguments > uint32(len(masm.RegParams)) {
		panic(fmt.Sprintf("jit: function takes %d arguments, more than the %d this baseline passes through integer registers (stack-passed arguments are not yet lowered)", cg.fn.Arguments, len(masm.RegParams)))
	}
	for i := uint32(0); i < cg.fn.Arguments; i++ {
		cg.m.StoreMem(masm.RBP, cg.layout.offset(bytecode.Register(i)), masm.RegParams[i])
	}
}

func jumpTarget(fn *bytecode.Function, d decodedInst) (bytecode.Offset, bool) {
	switch d.inst.Op {
	case bytecode.OpJump, bytecode.OpJumpLoop:
		return bytecode.Offset(int64(d.next) + d.inst.Operand(0)), true
	case bytecode.OpJumpIfFalse, bytecode.OpJumpIfTrue:
		return bytecode.Offset(int64(d.next) + d.inst.Operand(1)), true
	case bytecode.OpJumpConst:
		dist := fn.ConstPoolEntry(uint32(d.inst.Operand(0))).ToInt32()
		return bytecode.Offset(int64(d.next) + int64(dist)), true
	case bytecode.OpJumpIfFalseConst, bytecode.OpJumpIfTrueConst:
		dist := fn.ConstPoolEntry(uint32(d.inst.Operand(1))).ToInt32()
		return bytecode.Offset(int64(d.next) + int64(dist)), true
	default:
		return 0, false
	}
}

func (cg *codegen) labelAt(offset bytecode.Offset) *masm.Label {
	lbl, ok := cg.labels[offset]
	if !ok {
		panic("jit: no label registered for jump target")
	}
	return lbl
}

// visit lowers one instruction. Register operands are always spilled from
// and back to their frame slots around the actual operation — this
// baseline never keeps a bytecode register resident in a machine register
// across instructions (spec.md §4.6 step 4's "simple spill-everywhere
// register allocation").
func (cg *codegen) visit(d decodedInst) error {
	op := d.inst.Op
	switch op {
	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpAnd, bytecode.OpOr, bytecode.OpXor:
		return cg.visitBinaryArith(d)
	case bytecode.OpDiv, bytecode.OpMod:
		return cg.visitDivMod(d)
	case bytecode.OpShl, bytecode.OpShr, bytecode.OpSar:
		return notLowered(op, d.offset)
	case bytecode.OpNeg:
		return cg.visitUnary(d, false)
	case bytecode.OpNot:
		return cg.visitUnary(d, true)
	case bytecode.OpMov:
		return cg.visitMov(d)

	case bytecode.OpConstTrue:
		return cg.storeImm32(reg(d.inst, 0), 1)
	case bytecode.OpConstFalse:
		return cg.storeImm32(reg(d.inst, 0), 0)
	case bytecode.OpConstZero:
		return cg.storeImm32(reg(d.inst, 0), 0)
	case bytecode.OpConstUInt8:
		return cg.storeImm32(reg(d.inst, 0), int32(d.inst.Operand(1)))
	case bytecode.OpConstChar, bytecode.OpConstInt32:
		v := cg.fn.ConstPoolEntry(uint32(d.inst.Operand(1)))
		n := v.ToInt32()
		if op == bytecode.OpConstChar {
			n = int32(v.ToChar())
		}
		return cg.storeImm32(reg(d.inst, 0), n)
	case bytecode.OpConstInt64:
		v := cg.fn.ConstPoolEntry(uint32(d.inst.Operand(1))).ToInt64()
		cg.m.MovRI64(masm.RAX, uint64(v))
		cg.storeSlot(reg(d.inst, 0), masm.RAX)
		return nil
	case bytecode.OpConstFloat32, bytecode.OpConstFloat64, bytecode.OpConstString:
		return notLowered(op, d.offset)

	case bytecode.OpTestEq, bytecode.OpTestNe, bytecode.OpTestGt, bytecode.OpTestGe,
		bytecode.OpTestLt, bytecode.OpTestLe, bytecode.OpTestIdentity:
		return cg.visitTest(d)

	case bytecode.OpJumpIfFalse, bytecode.OpJumpIfTrue,
		bytecode.OpJumpIfFalseConst, bytecode.OpJumpIfTrueConst:
		return cg.visitCondJump(d)
	case bytecode.OpJump, bytecode.OpJumpLoop, bytecode.OpJumpConst:
		target, _ := jumpTarget(cg.fn, d)
		cg.m.Jmp(cg.labelAt(target))
		return nil
	case bytecode.OpLoopStart:
		return nil

	case bytecode.OpLoadField:
		return cg.visitLoadField(d)
	case bytecode.OpStoreField:
		return cg.visitStoreField(d)

	case bytecode.OpLoadGlobal:
		return cg.visitLoadGlobal(d)
	case bytecode.OpStoreGlobal:
		return cg.visitStoreGlobal(d)

	case bytecode.OpPushRegister:
		cg.pending = append(cg.pending, reg(d.inst, 0))
		return nil
	case bytecode.OpInvokeDirect, bytecode.OpInvokeStatic,
		bytecode.OpInvokeGenericDirect, bytecode.OpInvokeGenericStatic:
		return cg.visitInvoke(d)
	case bytecode.OpInvokeVirtual, bytecode.OpInvokeLambda:
		return notLowered(op, d.offset)

	case bytecode.OpRet:
		cg.loadSlot(masm.RegResult, reg(d.inst, 0))
		cg.m.Jmp(cg.epilog)
		return nil

	case bytecode.OpLoadArray, bytecode.OpStoreArray, bytecode.OpArrayLength, bytecode.OpNewArray,
		bytecode.OpNewObject, bytecode.OpNewObjectInitialized, bytecode.OpNewTuple, bytecode.OpNewEnum,
		bytecode.OpNewStruct, bytecode.OpNewLambda, bytecode.OpNewTraitObject,
		bytecode.OpLoadStructField, bytecode.OpLoadTupleElement, bytecode.OpLoadEnumElement,
		bytecode.OpLoadEnumVariant, bytecode.OpLoadTraitObjectValue:
		return notLowered(op, d.offset)

	default:
		return notLowered(op, d.offset)
	}
}

func (cg *codegen) loadSlot(dst masm.Reg, r bytecode.Register) {
	cg.m.LoadMem(dst, masm.RBP, cg.layout.offset(r))
}

func (cg *codegen) storeSlot(r bytecode.Register, src masm.Reg) {
	cg.m.StoreMem(masm.RBP, cg.layout.offset(r), src)
}

func (cg *codegen) storeImm32(r bytecode.Register, v int32) error {
	cg.m.MovRI32(masm.RAX, v)
	cg.storeSlot(r, masm.RAX)
	return nil
}

func (cg *codegen) regType(r bytecode.Register) bcty.BytecodeType {
	return cg.fn.Registers[r]
}

func (cg *codegen) requireScalar(r bytecode.Register, offset bytecode.Offset, op fmt.Stringer) error {
	ty := cg.regType(r)
	if ty.Kind == bcty.KindFloat32 || ty.Kind == bcty.KindFloat64 {
		return fmt.Errorf("jit: floating-point register r%d at offset %d has no SSE codegen: %w", r, offset, notLowered(op, offset))
	}
	if !fitsOneSlot(ty) {
		return notLowered(op, offset)
	}
	return nil
}

func (cg *codegen) visitBinaryArith(d decodedInst) error {
	dst, lhs, rhs := reg(d.inst, 0), reg(d.inst, 1), reg(d.inst, 2)
	if err := cg.requireScalar(lhs, d.offset, d.inst.Op); err != nil {
		return err
	}
	cg.loadSlot(masm.RAX, lhs)
	cg.loadSlot(masm.RCX, rhs)
	switch d.inst.Op {
	case bytecode.OpAdd:
		cg.m.AddRR(masm.RAX, masm.RCX)
	case bytecode.OpSub:
		cg.m.SubRR(masm.RAX, masm.RCX)
	case bytecode.OpMul:
		cg.m.IMulRR(masm.RAX, masm.RCX)
	case bytecode.OpAnd:
		cg.m.AndRR(masm.RAX, masm.RCX)
	case bytecode.OpOr:
		cg.m.OrRR(masm.RAX, masm.RCX)
	case bytecode.OpXor:
		cg.m.XorRR(masm.RAX, masm.RCX)
	}
	cg.storeSlot(dst, masm.RAX)
	return nil
}

// visitDivMod lowers Div/Mod through the idiv instruction's fixed RDX:RAX
// dividend / RAX quotient / RDX remainder convention (x64.rs's div_int).
//
// idiv itself raises a hardware #DE (divide error) on a zero divisor or on
// the one quotient 32-bit two's complement cannot represent
// (Int32Min / -1, which overflows to Int32Max + 1) — indistinguishable from
// a process crash with no trap code a VM signal handler could report back
// as DIV0 vs OVERFLOW. Both cases are checked explicitly and routed to the
// shared trap landing pad before idiv ever runs, so the condition that
// walks off the representable range traps deliberately instead of faulting.
func (cg *codegen) visitDivMod(d decodedInst) error {
	dst, lhs, rhs := reg(d.inst, 0), reg(d.inst, 1), reg(d.inst, 2)
	if err := cg.requireScalar(lhs, d.offset, d.inst.Op); err != nil {
		return err
	}
	cg.loadSlot(masm.RAX, lhs)
	cg.loadSlot(masm.RCX, rhs)

	// DIV0: rhs == 0.
	cg.m.CmpRI32(masm.RCX, 0)
	cg.m.Jcc(masm.CondEqual, cg.trap)

	// OVERFLOW: rhs == -1 && lhs == Int32Min.
	noOverflow := cg.newLocalLabel()
	cg.m.CmpRI32(masm.RCX, -1)
	cg.m.Jcc(masm.CondNotEqual, noOverflow)
	cg.m.CmpRI32(masm.RAX, math.MinInt32)
	cg.m.Jcc(masm.CondEqual, cg.trap)
	cg.m.Bind(noOverflow)

	cg.m.Cqo()
	cg.m.IDivR(masm.RCX)
	if d.inst.Op == bytecode.OpDiv {
		cg.storeSlot(dst, masm.RAX)
	} else {
		cg.storeSlot(dst, masm.RDX)
	}
	return nil
}

func (cg *codegen) visitUnary(d decodedInst, isNot bool) error {
	dst, src := reg(d.inst, 0), reg(d.inst, 1)
	if err := cg.requireScalar(src, d.offset, d.inst.Op); err != nil {
		return err
	}
	cg.loadSlot(masm.RAX, src)
	if isNot {
		cg.m.NotR(masm.RAX)
	} else {
		cg.m.NegR(masm.RAX)
	}
	cg.storeSlot(dst, masm.RAX)
	return nil
}

func (cg *codegen) visitMov(d decodedInst) error {
	dst, src := reg(d.inst, 0), reg(d.inst, 1)
	if err := cg.requireScalar(src, d.offset, d.inst.Op); err != nil {
		return err
	}
	cg.loadSlot(masm.RAX, src)
	cg.storeSlot(dst, masm.RAX)
	return nil
}

func (cg *codegen) visitTest(d decodedInst) error {
	dst, lhs, rhs := reg(d.inst, 0), reg(d.inst, 1), reg(d.inst, 2)
	if err := cg.requireScalar(lhs, d.offset, d.inst.Op); err != nil {
		return err
	}
	cg.loadSlot(masm.RAX, lhs)
	cg.loadSlot(masm.RCX, rhs)
	cg.m.CmpRR(masm.RAX, masm.RCX)
	cc := testCondition(d.inst.Op)
	cg.m.SetCC(cc, masm.RAX)
	cg.m.MovzxR8(masm.RAX, masm.RAX)
	cg.storeSlot(dst, masm.RAX)
	return nil
}

func testCondition(op bytecode.Opcode) masm.Condition {
	switch op {
	case bytecode.OpTestEq, bytecode.OpTestIdentity:
		return masm.CondEqual
	case bytecode.OpTestNe:
		return masm.CondNotEqual
	case bytecode.OpTestGt:
		return masm.CondGreater
	case bytecode.OpTestGe:
		return masm.CondGreaterEqual
	case bytecode.OpTestLt:
		return masm.CondLess
	case bytecode.OpTestLe:
		return masm.CondLessEqual
	default:
		panic("jit: testCondition called with a non-test opcode")
	}
}

func (cg *codegen) visitCondJump(d decodedInst) error {
	condReg := reg(d.inst, 0)
	cg.loadSlot(masm.RAX, condReg)
	cg.m.TestRR(masm.RAX, masm.RAX)
	target, _ := jumpTarget(cg.fn, d)
	lbl := cg.labelAt(target)
	switch d.inst.Op {
	case bytecode.OpJumpIfFalse, bytecode.OpJumpIfFalseConst:
		cg.m.Jcc(masm.CondEqual, lbl) // test sets ZF=1 when the register held 0 (false)
	case bytecode.OpJumpIfTrue, bytecode.OpJumpIfTrueConst:
		cg.m.Jcc(masm.CondNotEqual, lbl)
	}
	return nil
}

// visitLoadField/visitStoreField resolve the target class's specialized
// layout through the shape cache, then load/store the field at its fixed
// byte offset from the object header — no allocation involved, so these
// are safe to lower even though NewObject itself is not.
func (cg *codegen) visitLoadField(d decodedInst) error {
	dst, obj := reg(d.inst, 0), reg(d.inst, 1)
	entry := cg.fn.ConstPoolEntry(uint32(d.inst.Operand(2)))
	fieldOffset, fieldTy, err := cg.resolveField(entry)
	if err != nil {
		return err
	}
	if !fitsOneSlot(fieldTy) {
		return notLowered(d.inst.Op, d.offset)
	}
	cg.loadSlot(masm.RAX, obj)
	cg.m.LoadMem(masm.RCX, masm.RAX, fieldOffset)
	cg.storeSlot(dst, masm.RCX)
	return nil
}

func (cg *codegen) visitStoreField(d decodedInst) error {
	obj := reg(d.inst, 0)
	entry := cg.fn.ConstPoolEntry(uint32(d.inst.Operand(1)))
	src := reg(d.inst, 2)
	fieldOffset, fieldTy, err := cg.resolveField(entry)
	if err != nil {
		return err
	}
	if !fitsOneSlot(fieldTy) {
		return notLowered(d.inst.Op, d.offset)
	}
	cg.loadSlot(masm.RAX, obj)
	cg.loadSlot(masm.RCX, src)
	cg.m.StoreMem(masm.RAX, fieldOffset, masm.RCX)
	if fieldTy.IsReference() && !cg.opts.DisableBarrier {
		cg.m.EmitBarrier(masm.RAX, cardTableShift, cardTableBase, masm.RDX)
	}
	return nil
}

// cardTableShift/cardTableBase are the write barrier's card-table geometry.
// This baseline has no garbage collector behind the card table EmitBarrier
// writes into (object allocation itself is out of scope, see errors.go), so
// cardTableBase is a placeholder zero rather than a real heap base — the
// barrier is still emitted, for mechanical parity with x64.rs's store
// sequence. A program actually exercising StoreField on a reference field
// should run with Options.DisableBarrier set until a real heap exists.
const (
	cardTableShift uint8 = 9
	cardTableBase  int64 = 0
)

func (cg *codegen) resolveField(entry bytecode.ConstPoolEntry) (int32, bcty.BytecodeType, error) {
	if entry.Kind != bytecode.CPField {
		return 0, bcty.BytecodeType{}, fmt.Errorf("jit: LoadField/StoreField const pool entry is not CPField")
	}
	inst := cg.vm.Shapes.EnsureClassInstance(entry.DefId, entry.TypeArgs)
	if entry.FieldIdx >= len(inst.Fields) {
		return 0, bcty.BytecodeType{}, fmt.Errorf("jit: field index %d out of range for class %d", entry.FieldIdx, entry.DefId)
	}
	f := inst.Fields[entry.FieldIdx]
	return f.Offset, f.Type, nil
}

func (cg *codegen) visitLoadGlobal(d decodedInst) error {
	dst := reg(d.inst, 0)
	globalID := program.Id(d.inst.Operand(1))
	g := cg.vm.Program.Globals[globalID]
	if !fitsOneSlot(g.Type) {
		return notLowered(d.inst.Op, d.offset)
	}
	addr := cg.vm.Globals.BaseAddr() + uintptr(cg.vm.Globals.ValueAddress(globalID))
	cg.loadAbsolute(masm.RAX, addr)
	cg.m.LoadMem(masm.RAX, masm.RAX, 0)
	cg.storeSlot(dst, masm.RAX)
	return nil
}

func (cg *codegen) visitStoreGlobal(d decodedInst) error {
	src := reg(d.inst, 0)
	globalID := program.Id(d.inst.Operand(1))
	g := cg.vm.Program.Globals[globalID]
	if !fitsOneSlot(g.Type) {
		return notLowered(d.inst.Op, d.offset)
	}
	addr := cg.vm.Globals.BaseAddr() + uintptr(cg.vm.Globals.ValueAddress(globalID))
	cg.loadAbsolute(masm.RCX, addr)
	cg.loadSlot(masm.RAX, src)
	cg.m.StoreMem(masm.RCX, 0, masm.RAX)
	return nil
}

// loadAbsolute materializes a fixed address through the constant pool —
// the same RIP-relative load DirectCall uses for a not-yet-compiled
// callee, generalized to any absolute-address constant (here, a global
// variable's location in internal/vm's GlobalMemory arena).
func (cg *codegen) loadAbsolute(dst masm.Reg, addr uintptr) {
	idx := cg.m.Pool.AddAddr(addr)
	cg.m.LoadConstPool(dst, idx)
}

// visitInvoke lowers InvokeDirect/InvokeStatic/InvokeGenericDirect/
// InvokeGenericStatic: every argument register queued by a preceding run
// of PushRegister instructions is moved into its System V argument
// register in order, the callee is resolved from the const-pool entry
// (CPFct for a non-generic call, CPGeneric for a call through a type
// parameter) and called via DirectCall, and the result is spilled into
// the instruction's destination register.
//
// DirectCall's typeParams argument is always passed nil here: that field
// carries an LazyCompilationSite's []uint32 type tag list, a lighter
// representation than bcty.TypeArray with no consumer in this baseline
// that reads it back out (internal/stub's compiler thunk resolves the
// callee from FctID alone), so mapping TypeArgs into it would have no
// observable effect yet.
func (cg *codegen) visitInvoke(d decodedInst) error {
	dst := reg(d.inst, 0)
	entry := cg.fn.ConstPoolEntry(uint32(d.inst.Operand(1)))

	var fctID uint32
	switch entry.Kind {
	case bytecode.CPFct:
		fctID = entry.DefId
	case bytecode.CPGeneric:
		fctID = entry.FctId
	default:
		return fmt.Errorf("jit: invoke const pool entry is neither CPFct nor CPGeneric")
	}

	args := cg.pending
	cg.pending = nil
	if len(args) > len(masm.RegParams) {
		return fmt.Errorf("jit: call passes %d arguments, more than the %d this baseline passes through integer registers", len(args), len(masm.RegParams))
	}
	for i, argReg := range args {
		cg.loadSlot(masm.RegParams[i], argReg)
	}

	cg.m.DirectCall(fctID, nil, masm.R11)
	cg.storeSlot(dst, masm.RegResult)
	return nil
}
