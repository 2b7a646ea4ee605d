package masm

import "encoding/binary"

// Assembler is the low-level byte-buffer encoder the MacroAssembler builds
// higher-level sequences on top of. It owns only instruction encoding and
// position tracking; labels and the constant pool live in label.go and
// constpool.go.
type Assembler struct {
	code []byte
}

// Pos returns the current write offset, used as a label target or a fixup
// site recorded against the label/lazy-compilation tables.
func (a *Assembler) Pos() int { return len(a.code) }

// Code returns the assembled bytes. Valid only after Finalize has patched
// every outstanding label fixup.
func (a *Assembler) Code() []byte { return a.code }

func (a *Assembler) emit(b ...byte) { a.code = append(a.code, b...) }

func (a *Assembler) emitU32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	a.emit(buf[:]...)
}

func (a *Assembler) emitU64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	a.emit(buf[:]...)
}

func (a *Assembler) patchU32At(pos int, v uint32) {
	binary.LittleEndian.PutUint32(a.code[pos:pos+4], v)
}

// rex builds a REX prefix byte. w selects the 64-bit operand size, r/x/b
// extend the reg/index/rm fields into the r8-r15 range, matching the
// standard REX.WRXB bit layout.
func rex(w, r, x, b bool) byte {
	out := byte(0x40)
	if w {
		out |= 0x08
	}
	if r {
		out |= 0x04
	}
	if x {
		out |= 0x02
	}
	if b {
		out |= 0x01
	}
	return out
}

func modrm(mod, reg, rm byte) byte {
	return mod<<6 | (reg&0x7)<<3 | (rm & 0x7)
}

const (
	modIndirect   = 0 // [rm], or [rip+disp32] when rm==RBP encoding
	modDisp8      = 1
	modDisp32     = 2
	modRegDirect  = 3
	sibNoIndex    = 4 // rm field value meaning "consult the SIB byte"
	ripRelativeRM = 5 // rm field value meaning "[rip+disp32]" when mod==0
)

// emitRexRR emits a REX prefix sized for a register-to-register form
// touching dst (reg field) and src (rm field).
func (a *Assembler) emitRexRR(w bool, dst, src Reg) {
	a.emit(rex(w, dst.needsRex(), false, src.needsRex()))
}

// MovRR encodes `mov dst, src` (64-bit GP registers).
func (a *Assembler) MovRR(dst, src Reg) {
	a.emitRexRR(true, src, dst) // mov r/m64, r64: reg field is src, rm is dst
	a.emit(0x89, modrm(modRegDirect, src.lowBits(), dst.lowBits()))
}

// MovRI32 encodes `mov dst, imm32` sign-extended into a 64-bit register.
func (a *Assembler) MovRI32(dst Reg, imm int32) {
	a.emit(rex(true, false, false, dst.needsRex()))
	a.emit(0xC7, modrm(modRegDirect, 0, dst.lowBits()))
	a.emitU32(uint32(imm))
}

// MovRI64 encodes a full 64-bit immediate load (`movabs`).
func (a *Assembler) MovRI64(dst Reg, imm uint64) {
	a.emit(rex(true, false, false, dst.needsRex()))
	a.emit(0xB8 + dst.lowBits())
	a.emitU64(imm)
}

// LoadMem encodes `mov dst, [base+disp32]`.
func (a *Assembler) LoadMem(dst, base Reg, disp int32) {
	a.emitRexRR(true, dst, base)
	a.emit(0x8B)
	a.emitMemOperand(dst, base, disp)
}

// StoreMem encodes `mov [base+disp32], src`.
func (a *Assembler) StoreMem(base Reg, disp int32, src Reg) {
	a.emitRexRR(true, src, base)
	a.emit(0x89)
	a.emitMemOperand(src, base, disp)
}

// StoreMemImm32 encodes `mov qword [base+disp32], imm32` (REX.W: the
// immediate is sign-extended and all 8 bytes are written), used for
// StoreZero/flag-clearing sequences.
func (a *Assembler) StoreMemImm32(base Reg, disp int32, imm int32) {
	a.emit(rex(true, false, false, base.needsRex()))
	a.emit(0xC7)
	a.emitMemOperand(0, base, disp)
	a.emitU32(uint32(imm))
}

// emitMemOperand emits the ModRM(+SIB)(+disp) bytes for `[base+disp]`,
// reusing rsp's "needs a SIB byte" and rbp's "needs an explicit disp8(0)"
// quirks the x86-64 encoding carries over from 32-bit addressing.
func (a *Assembler) emitMemOperand(regField, base Reg, disp int32) {
	mod := byte(modDisp32)
	if disp == 0 && base.lowBits() != RBP.lowBits() {
		mod = modIndirect
	} else if disp >= -128 && disp <= 127 {
		mod = modDisp8
	}

	a.emit(modrm(mod, regField.lowBits(), base.lowBits()))
	if base.lowBits() == RSP.lowBits() {
		a.emit(0x24) // SIB: scale=0, index=none, base=rsp
	}
	switch mod {
	case modIndirect:
		// no displacement byte
	case modDisp8:
		a.emit(byte(int8(disp)))
	default:
		a.emitU32(uint32(disp))
	}
}

// Lea encodes `lea dst, [base+disp32]`.
func (a *Assembler) Lea(dst, base Reg, disp int32) {
	a.emitRexRR(true, dst, base)
	a.emit(0x8D)
	a.emitMemOperand(dst, base, disp)
}

// LeaRipRelative encodes `lea dst, [rip+disp32]`, the constant-pool load
// sequence's addressing mode.
func (a *Assembler) LeaRipRelative(dst Reg, disp int32) {
	a.emit(rex(true, dst.needsRex(), false, false))
	a.emit(0x8D, modrm(modIndirect, dst.lowBits(), ripRelativeRM))
	a.emitU32(uint32(disp))
}

// aluOp is one of the eight classic ALU opcodes (add/or/adc/sbb/and/sub/
// xor/cmp), selected by its "opcode extension" reg field (0-7) the same
// way x86 groups them.
type aluOp byte

const (
	aluAdd aluOp = 0
	aluOr  aluOp = 1
	aluAnd aluOp = 4
	aluSub aluOp = 5
	aluXor aluOp = 6
	aluCmp aluOp = 7
)

// AluRR encodes `op dst, src` for one of the eight ALU opcodes, register
// form (dst is both destination and one operand).
func (a *Assembler) AluRR(op aluOp, dst, src Reg) {
	a.emitRexRR(true, src, dst)
	a.emit(0x01|byte(op)<<3, modrm(modRegDirect, src.lowBits(), dst.lowBits()))
}

// AluRI32 encodes `op dst, imm32`.
func (a *Assembler) AluRI32(op aluOp, dst Reg, imm int32) {
	a.emit(rex(true, false, false, dst.needsRex()))
	a.emit(0x81, modrm(modRegDirect, byte(op), dst.lowBits()))
	a.emitU32(uint32(imm))
}

// AddRR, SubRR, AndRR, OrRR, XorRR and CmpRR are named wrappers around
// AluRR for callers outside this package (internal/jit's bytecode
// visitor), which has no way to name the unexported aluOp constants
// directly.
func (a *Assembler) AddRR(dst, src Reg) { a.AluRR(aluAdd, dst, src) }
func (a *Assembler) SubRR(dst, src Reg) { a.AluRR(aluSub, dst, src) }
func (a *Assembler) AndRR(dst, src Reg) { a.AluRR(aluAnd, dst, src) }
func (a *Assembler) OrRR(dst, src Reg)  { a.AluRR(aluOr, dst, src) }
func (a *Assembler) XorRR(dst, src Reg) { a.AluRR(aluXor, dst, src) }
func (a *Assembler) CmpRR(dst, src Reg) { a.AluRR(aluCmp, dst, src) }

// CmpRI32 encodes `cmp dst, imm32`, the trap-guard comparisons internal/jit's
// Div/Mod lowering needs ahead of idiv (zero-divisor and Int32Min/-1 checks)
// have no register operand to compare against.
func (a *Assembler) CmpRI32(dst Reg, imm int32) { a.AluRI32(aluCmp, dst, imm) }

// AddRI32 and SubRI32 are the named-wrapper equivalents of AluRI32, used by
// the JIT driver's frame setup and immediate-operand arithmetic lowering.
func (a *Assembler) AddRI32(dst Reg, imm int32) { a.AluRI32(aluAdd, dst, imm) }
func (a *Assembler) SubRI32(dst Reg, imm int32) { a.AluRI32(aluSub, dst, imm) }

// TestRR encodes `test dst, src`.
func (a *Assembler) TestRR(dst, src Reg) {
	a.emitRexRR(true, src, dst)
	a.emit(0x85, modrm(modRegDirect, src.lowBits(), dst.lowBits()))
}

// TestMemImm8 encodes `test byte [base+disp], imm8`, the safepoint-requested
// poll's instruction form (original_source's `safepoint` reads a single
// flag byte off the per-thread ThreadLocalData).
func (a *Assembler) TestMemImm8(base Reg, disp int32, imm byte) {
	if base.needsRex() {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0xF6)
	a.emitMemOperand(0, base, disp)
	a.emit(imm)
}

// Push/Pop encode single-register stack push/pop.
func (a *Assembler) Push(r Reg) {
	if r.needsRex() {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0x50 + r.lowBits())
}

func (a *Assembler) Pop(r Reg) {
	if r.needsRex() {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0x58 + r.lowBits())
}

// Ret encodes a near return.
func (a *Assembler) Ret() { a.emit(0xC3) }

// Nop encodes a single-byte nop.
func (a *Assembler) Nop() { a.emit(0x90) }

// Int3 encodes a breakpoint trap, used for stub::Trap.
func (a *Assembler) Int3() { a.emit(0xCC) }

// CallReg encodes `call reg` (near, indirect through a register).
func (a *Assembler) CallReg(r Reg) {
	if r.needsRex() {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0xFF, modrm(modRegDirect, 2, r.lowBits()))
}

// NegR / NotR encode the two-operand unary ALU group (opcode 0xF7,
// extension 3 for neg, 2 for not).
func (a *Assembler) NegR(r Reg) {
	a.emit(rex(true, false, false, r.needsRex()))
	a.emit(0xF7, modrm(modRegDirect, 3, r.lowBits()))
}

func (a *Assembler) NotR(r Reg) {
	a.emit(rex(true, false, false, r.needsRex()))
	a.emit(0xF7, modrm(modRegDirect, 2, r.lowBits()))
}

// IMulRR encodes the two-operand form of signed multiply, `imul dst, src`.
func (a *Assembler) IMulRR(dst, src Reg) {
	a.emitRexRR(true, dst, src)
	a.emit(0x0F, 0xAF, modrm(modRegDirect, dst.lowBits(), src.lowBits()))
}

// Cqo sign-extends RAX into RDX:RAX, the prerequisite for IDiv.
func (a *Assembler) Cqo() { a.emit(rex(true, false, false, false), 0x99) }

// IDivR encodes `idiv r` (RDX:RAX / r -> quotient RAX, remainder RDX).
func (a *Assembler) IDivR(r Reg) {
	a.emit(rex(true, false, false, r.needsRex()))
	a.emit(0xF7, modrm(modRegDirect, 7, r.lowBits()))
}

// ShiftRI encodes a shift/rotate-by-immediate (shl/shr/sar/rol/ror) via the
// 0xC1 opcode's extension field: 4=shl, 5=shr, 7=sar, 0=rol, 1=ror.
func (a *Assembler) ShiftRI(ext byte, dst Reg, imm byte) {
	a.emit(rex(true, false, false, dst.needsRex()))
	a.emit(0xC1, modrm(modRegDirect, ext, dst.lowBits()))
	a.emit(imm)
}

// SetCC encodes `setcc dst8`, storing the flag result as a byte (used by
// comparison instructions that materialize a Bool into a register).
func (a *Assembler) SetCC(cc Condition, dst Reg) {
	if dst.needsRex() || dst == RSP || dst == RBP || dst == RSI || dst == RDI {
		a.emit(rex(false, false, false, dst.needsRex()))
	}
	a.emit(0x0F, 0x90+cc.ccBits(), modrm(modRegDirect, 0, dst.lowBits()))
}

// MovzxR8 zero-extends the low byte of src (typically just written by
// SetCC) into a full register, completing a `cmp` -> `setcc` -> `movzx`
// comparison sequence.
func (a *Assembler) MovzxR8(dst, src Reg) {
	a.emit(rex(true, dst.needsRex(), false, src.needsRex()))
	a.emit(0x0F, 0xB6, modrm(modRegDirect, dst.lowBits(), src.lowBits()))
}
