package masm

// LazyCompilationKind distinguishes the dispatch shape a lazy-compilation
// site records, so the compiler thunk (internal/stub) knows how to patch
// the call site once the target function is compiled.
type LazyCompilationKind int

const (
	LazyDirect LazyCompilationKind = iota
	LazyVirtual
	LazyLambda
)

// LazyCompilationSite records one call site that still targets the
// compiler thunk rather than real code, grounded on
// original_source/dora-runtime/src/cannon/codegen.rs's
// LazyCompilationSite enum (Direct/Virtual/Lambda variants).
type LazyCompilationSite struct {
	Kind LazyCompilationKind

	// Offset is the byte position, within the finished code object, of the
	// call instruction to patch once compilation completes (for every kind).
	Offset int

	// FctID/TypeParams identify the direct-call target; VtableIndex
	// identifies the virtual-call slot. Lambda sites carry only Kind and
	// Offset.
	FctID       uint32
	TypeParams  []uint32
	VtableIndex int32
}

// GcPoint is one program-counter offset, within the finished code object,
// at which a safepoint may observe live references — the table the stop-
// the-world scanner walks while the mutator thread is parked, grounded on
// original_source/dora-runtime/src/gc/pointer.rs's GcPoint.
type GcPoint struct {
	Offset     int
	RefOffsets []int32 // stack-slot byte offsets (from the frame pointer) holding live references
}

// MacroAssembler is the function-body emitter the JIT driver calls into.
// It owns an Assembler, a ConstPool, and the side tables (lazy-compilation
// sites, GC points) that together make a finished Code object
// (internal/codeobj) relocatable and GC-safe.
type MacroAssembler struct {
	Assembler
	Pool ConstPool

	LazyCompilationSites []LazyCompilationSite
	GcPoints             []GcPoint
	ConstPoolFixups      []constPoolFixup

	frameSize int32
}

// constPoolFixup is a RIP-relative load still pointing at a placeholder
// displacement, pending ResolveConstPool.
type constPoolFixup struct {
	at    int // byte offset of the 4-byte displacement field
	entry int // ConstPool entry index the load should resolve to
}

// NewMacroAssembler returns an empty emitter ready for Prolog.
func NewMacroAssembler() *MacroAssembler { return &MacroAssembler{} }

// Prolog emits the standard entry sequence: push rbp, mov rbp, rsp,
// allocate frameSize bytes of locals. Grounded on x64.rs's `prolog`
// (push_reg(RBP); mov_reg_reg(RBP, RSP); increase_stack_frame / stack
// pointer check when the frame is large enough to need a guard-page
// check).
func (m *MacroAssembler) Prolog(frameSize int32) {
	m.frameSize = frameSize
	m.Push(RBP)
	m.MovRR(RBP, RSP)
	if frameSize > 0 {
		m.AluRI32(aluSub, RSP, frameSize)
	}
}

// CheckStackPointer emits a guard-page probe comparing RSP against the
// current thread's stack_limit field (loaded off RegThread), jumping to
// trapLbl if the frame would overflow available stack. Grounded on
// x64.rs's `check_stack_pointer`.
func (m *MacroAssembler) CheckStackPointer(stackLimitOffset int32, trapLbl *Label) {
	m.LoadMem(RAX, RegThread, stackLimitOffset)
	m.AluRR(aluCmp, RSP, RAX)
	m.Jcc(CondBelow, trapLbl)
}

// Safepoint polls the per-thread "safepoint requested" byte and jumps to
// slowPathLbl if it is set, grounded on x64.rs's `safepoint` (a single
// `test`+`jcc` pair the caller is expected to keep on the instruction
// stream's common path, cheap enough to run on every loop back-edge and
// function prolog).
func (m *MacroAssembler) Safepoint(requestedOffset int32, slowPathLbl *Label) {
	m.TestMemImm8(RegThread, requestedOffset, 1)
	m.Jcc(CondNotEqual, slowPathLbl)
}

// Epilog emits the standard exit sequence: deallocate the frame, pop rbp,
// ret. Grounded on x64.rs's `epilog` / `epilog_without_return` pair — this
// always includes the return, matching the common case the JIT driver
// uses for every function exit.
func (m *MacroAssembler) Epilog() {
	if m.frameSize > 0 {
		m.AluRI32(aluAdd, RSP, m.frameSize)
	}
	m.Pop(RBP)
	m.Ret()
}

// Trap emits an int3 breakpoint, landed on by CheckStackPointer/various
// bounds-check failures; the process-level SIGTRAP handler
// (internal/stub's trap stub) maps the faulting PC back to a Trap kind via
// the code object's comment table and exits with spec.md §6's documented
// trap exit code.
func (m *MacroAssembler) Trap() { m.Int3() }

// DirectCall emits a call through the constant pool to a (possibly not yet
// compiled) function, recording a LazyCompilationSite so the compiler
// thunk can patch the pool slot in place once fctID is compiled. Grounded
// on x64.rs's `direct_call`: load the target address via
// `load_constpool`, then `call_reg` through a scratch register, rather
// than a direct rel32 call — the target isn't known at emission time.
func (m *MacroAssembler) DirectCall(fctID uint32, typeParams []uint32, scratch Reg) {
	poolIdx := m.Pool.AddAddr(0) // patched once the callee's address is known
	m.loadConstpool(scratch, poolIdx)
	callSiteOffset := m.Pos()
	m.CallReg(scratch)
	m.LazyCompilationSites = append(m.LazyCompilationSites, LazyCompilationSite{
		Kind:       LazyDirect,
		Offset:     callSiteOffset,
		FctID:      fctID,
		TypeParams: typeParams,
	})
}

// VirtualCall emits a vtable dispatch: load the receiver's vtable pointer
// from its object header, load the method slot at vtableIndex, and call
// through it. Grounded on x64.rs's `virtual_call` (load object's vtable
// word at header offset 0, then `[vtable + HeaderSize + index*8]`).
func (m *MacroAssembler) VirtualCall(receiver Reg, vtableIndex int32, headerSize int32, scratch Reg) {
	m.LoadMem(scratch, receiver, 0) // vtable pointer lives at the object header's first word
	m.LoadMem(scratch, scratch, headerSize+vtableIndex*8)
	callSiteOffset := m.Pos()
	m.CallReg(scratch)
	m.LazyCompilationSites = append(m.LazyCompilationSites, LazyCompilationSite{
		Kind:        LazyVirtual,
		Offset:      callSiteOffset,
		VtableIndex: vtableIndex,
	})
}

// LambdaCall emits a closure-object dispatch: load the lambda object's
// single function-pointer field and call through it, recording a Lambda
// lazy-compilation site so a still-uncompiled lambda body routes through
// the compiler thunk exactly once. Grounded on x64.rs's `lambda_call`.
func (m *MacroAssembler) LambdaCall(contextReg Reg, fnPtrOffset int32, scratch Reg) {
	m.LoadMem(scratch, contextReg, fnPtrOffset)
	callSiteOffset := m.Pos()
	m.CallReg(scratch)
	m.LazyCompilationSites = append(m.LazyCompilationSites, LazyCompilationSite{
		Kind:   LazyLambda,
		Offset: callSiteOffset,
	})
}

// LoadConstPool loads the 8 bytes at poolIdx's slot into dst, the same
// RIP-relative sequence DirectCall uses for a not-yet-compiled callee
// address, exposed here for callers (internal/jit) that need to
// materialize some other absolute-address constant (a global variable's
// address, a stub entry point) through the same pool.
func (m *MacroAssembler) LoadConstPool(dst Reg, poolIdx int) {
	m.loadConstpool(dst, poolIdx)
}

// loadConstpool loads the 8 bytes at poolIdx's slot into dst with a single
// RIP-relative `mov dst, [rip+disp32]`, the counterpart of x64.rs's
// `load_constpool`. The displacement is emitted as a 0 placeholder and
// recorded in ConstPoolFixups; ResolveConstPool, called by the JIT driver
// once the pool's final position after the code is known, patches it.
func (m *MacroAssembler) loadConstpool(dst Reg, poolIdx int) {
	m.emit(rex(true, dst.needsRex(), false, false))
	m.emit(0x8B, modrm(modIndirect, dst.lowBits(), ripRelativeRM))
	m.ConstPoolFixups = append(m.ConstPoolFixups, constPoolFixup{at: m.Pos(), entry: poolIdx})
	m.emitU32(0)
}

// ResolveConstPool patches every pending RIP-relative constant-pool load
// now that the pool has been laid out immediately after poolBase (the byte
// offset, within the finished code object, the pool's first entry starts
// at). Each load's displacement is measured from the end of the 4-byte
// field itself, per RIP-relative addressing's definition.
func (m *MacroAssembler) ResolveConstPool(poolBase int, entryOffsets []int) {
	for _, fx := range m.ConstPoolFixups {
		target := poolBase + entryOffsets[fx.entry]
		dist := int32(target - (fx.at + 4))
		m.patchU32At(fx.at, uint32(dist))
	}
	m.ConstPoolFixups = nil
}

// EmitBarrier emits a card-marking write barrier: store a zero byte into
// the heap's card table at `object_addr >> cardShift`, conditionally via a
// direct displacement when the card table's base address fits a 32-bit
// encoding, else by materializing the card address through scratch.
// Grounded on x64.rs's `emit_barrier`.
func (m *MacroAssembler) EmitBarrier(objectReg Reg, cardShift uint8, cardTableBase int64, scratch Reg) {
	// storeZeroByte encodes `mov byte [base+disp32], 0`.
	storeZeroByte := func(base Reg, disp int32) {
		if base.needsRex() {
			m.emit(rex(false, false, false, true))
		}
		m.emit(0xC6)
		m.emitMemOperand(0, base, disp)
		m.emit(0x00)
	}
	m.MovRR(scratch, objectReg)
	m.ShiftRI(5 /*shr*/, scratch, cardShift)
	if cardTableBase >= -(1<<31) && cardTableBase < (1<<31) {
		storeZeroByte(scratch, int32(cardTableBase))
		return
	}
	m.MovRI64(RAX, uint64(cardTableBase))
	m.AluRR(aluAdd, scratch, RAX)
	storeZeroByte(scratch, 0)
}

// RecordGcPoint appends a GcPoint at the assembler's current position,
// called by the bytecode visitor (internal/jit) immediately before any
// instruction that may trigger a GC (allocations, safepoint polls).
func (m *MacroAssembler) RecordGcPoint(refOffsets []int32) {
	m.GcPoints = append(m.GcPoints, GcPoint{Offset: m.Pos(), RefOffsets: refOffsets})
}
