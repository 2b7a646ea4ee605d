package masm

import "fmt"

// Label is a forward- or backward-referenceable code position, grounded on
// original_source's masm::Label plus the fixup-list pattern every x86
// assembler in the reference corpus uses (bind once, patch every use at
// Finalize time).
type Label struct {
	bound  bool
	pos    int
	fixups []fixup
}

// fixup is a pending 4-byte PC-relative displacement, patched once its
// label is bound.
type fixup struct {
	at   int // byte offset of the 4-byte field to patch
	from int // byte offset the PC-relative distance is measured from (end of the instruction)
}

// NewLabel allocates an unbound label.
func (a *Assembler) NewLabel() *Label { return &Label{} }

// Bind fixes lbl to the assembler's current position. Bind exactly once per
// label; binding twice is a programming error in the caller's control-flow
// lowering.
func (a *Assembler) Bind(lbl *Label) {
	if lbl.bound {
		panic("masm: label already bound")
	}
	lbl.bound = true
	lbl.pos = a.Pos()
}

// jumpRel32 emits opcode bytes followed by a placeholder rel32, recording a
// fixup against lbl if lbl isn't bound yet, or patching immediately if it
// is (a backward jump).
func (a *Assembler) jumpRel32(lbl *Label, opcode ...byte) {
	a.emit(opcode...)
	fieldAt := a.Pos()
	a.emitU32(0)
	if lbl.bound {
		a.patchU32At(fieldAt, uint32(int32(lbl.pos-a.Pos())))
		return
	}
	lbl.fixups = append(lbl.fixups, fixup{at: fieldAt, from: a.Pos()})
}

// Jmp encodes an unconditional near jump to lbl.
func (a *Assembler) Jmp(lbl *Label) { a.jumpRel32(lbl, 0xE9) }

// Jcc encodes a conditional near jump to lbl.
func (a *Assembler) Jcc(cc Condition, lbl *Label) {
	a.jumpRel32(lbl, 0x0F, 0x80+cc.ccBits())
}

// JmpReg encodes an unconditional indirect jump through a register, used by
// the lazy-compilation trampoline once a stub has patched in the real
// target.
func (a *Assembler) JmpReg(r Reg) {
	if r.needsRex() {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0xFF, modrm(modRegDirect, 4, r.lowBits()))
}

// Finalize patches every outstanding forward-reference fixup now that all
// labels are bound. Panics (rather than silently emitting a wrong
// displacement) if a label was used but never bound — a dangling jump
// target is a bug in the emitting pass, not something to paper over.
func (a *Assembler) Finalize(labels ...*Label) {
	for _, lbl := range labels {
		if len(lbl.fixups) == 0 {
			continue
		}
		if !lbl.bound {
			panic(fmt.Sprintf("masm: label used but never bound (%d pending fixups)", len(lbl.fixups)))
		}
		for _, fx := range lbl.fixups {
			dist := int32(lbl.pos - fx.from)
			a.patchU32At(fx.at, uint32(dist))
		}
		lbl.fixups = nil
	}
}
