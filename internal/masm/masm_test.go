package masm

import (
	"testing"

	"golang.org/x/arch/x86/x86asm"
)

// decodeAll decodes every instruction in code, failing the test if any
// instruction fails to decode — a sanity check that the encoder only ever
// emits well-formed x86-64, independent of whether the semantics are right.
func decodeAll(t *testing.T, code []byte) []x86asm.Inst {
	t.Helper()
	var insts []x86asm.Inst
	for offset := 0; offset < len(code); {
		inst, err := x86asm.Decode(code[offset:], 64)
		if err != nil {
			t.Fatalf("decode failed at offset %d: %v", offset, err)
		}
		insts = append(insts, inst)
		offset += inst.Len
	}
	return insts
}

func TestPrologEpilogDecodes(t *testing.T) {
	m := NewMacroAssembler()
	m.Prolog(32)
	m.Epilog()

	insts := decodeAll(t, m.Code())
	if len(insts) == 0 {
		t.Fatal("expected at least one decoded instruction")
	}
	if insts[0].Op != x86asm.PUSH {
		t.Fatalf("expected prolog to start with PUSH, got %v", insts[0].Op)
	}
	last := insts[len(insts)-1]
	if last.Op != x86asm.RET {
		t.Fatalf("expected epilog to end with RET, got %v", last.Op)
	}
}

func TestDirectCallRecordsLazyCompilationSite(t *testing.T) {
	m := NewMacroAssembler()
	m.Prolog(0)
	m.DirectCall(42, nil, RAX)
	m.Epilog()

	if len(m.LazyCompilationSites) != 1 {
		t.Fatalf("expected 1 lazy compilation site, got %d", len(m.LazyCompilationSites))
	}
	site := m.LazyCompilationSites[0]
	if site.Kind != LazyDirect || site.FctID != 42 {
		t.Fatalf("unexpected lazy compilation site: %+v", site)
	}

	decodeAll(t, m.Code())
}

func TestVirtualCallRecordsLazyCompilationSite(t *testing.T) {
	m := NewMacroAssembler()
	m.VirtualCall(RDI, 3, 16, RAX)

	if len(m.LazyCompilationSites) != 1 {
		t.Fatalf("expected 1 lazy compilation site, got %d", len(m.LazyCompilationSites))
	}
	if m.LazyCompilationSites[0].Kind != LazyVirtual || m.LazyCompilationSites[0].VtableIndex != 3 {
		t.Fatalf("unexpected lazy compilation site: %+v", m.LazyCompilationSites[0])
	}
	decodeAll(t, m.Code())
}

func TestForwardJumpFixupMatchesDistance(t *testing.T) {
	a := &Assembler{}
	lbl := a.NewLabel()

	a.Jmp(lbl)
	beforeNop := a.Pos()
	a.Nop()
	a.Nop()
	a.Bind(lbl)
	a.Finalize(lbl)

	insts := decodeAll(t, a.Code())
	if insts[0].Op != x86asm.JMP {
		t.Fatalf("expected first instruction to be JMP, got %v", insts[0].Op)
	}

	// the jmp's displacement, read back out of the encoded bytes, must
	// land exactly on the label's bound position.
	rel := int32(insts[0].Args[0].(x86asm.Rel))
	landedAt := int(int32(beforeNop) + rel) // rel is measured from the end of the jmp, where the nops begin
	if landedAt != lbl.pos {
		t.Fatalf("jump lands at %d, want %d", landedAt, lbl.pos)
	}
}

func TestBackwardJumpFixupMatchesDistance(t *testing.T) {
	a := &Assembler{}
	lbl := a.NewLabel()

	a.Bind(lbl)
	a.Nop()
	a.Jcc(CondEqual, lbl)
	a.Finalize(lbl)

	insts := decodeAll(t, a.Code())
	if insts[len(insts)-1].Op != x86asm.JE {
		t.Fatalf("expected last instruction to be JE, got %v", insts[len(insts)-1].Op)
	}

	// the jcc is the last instruction, so its displacement is measured from
	// the end of the code and must land back on the label.
	rel := int32(insts[len(insts)-1].Args[0].(x86asm.Rel))
	if landedAt := len(a.Code()) + int(rel); landedAt != lbl.pos {
		t.Fatalf("jump lands at %d, want %d", landedAt, lbl.pos)
	}
}

func TestConstPoolRoundTrips(t *testing.T) {
	var pool ConstPool
	i0 := pool.AddInt64(40)
	i1 := pool.AddInt64(2)

	data, offsets := pool.Layout()
	if len(data) != 16 {
		t.Fatalf("expected 16 bytes of pool data, got %d", len(data))
	}
	if offsets[i0] != 0 || offsets[i1] != 8 {
		t.Fatalf("unexpected offsets: %v", offsets)
	}
}

func TestEmitBarrierDecodes(t *testing.T) {
	m := NewMacroAssembler()
	m.EmitBarrier(RDI, 9, 0x1000, RAX)
	decodeAll(t, m.Code())
}

func TestMovRoundTrip(t *testing.T) {
	a := &Assembler{}
	a.MovRI64(RAX, 0x1122334455667788)
	a.MovRR(RCX, RAX)
	a.LoadMem(RDX, RBP, -8)
	a.StoreMem(RBP, -16, RDX)

	insts := decodeAll(t, a.Code())
	if len(insts) != 4 {
		t.Fatalf("expected 4 instructions, got %d", len(insts))
	}
	for i, inst := range insts {
		if inst.Op != x86asm.MOV {
			t.Fatalf("instruction %d: expected MOV, got %v", i, inst.Op)
		}
	}
}
