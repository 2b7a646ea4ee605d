package stub

import (
	"errors"
	"testing"

	"github.com/malphas-lang/malphas-lang/internal/masm"
)

func TestTrapExitCodes(t *testing.T) {
	cases := map[Trap]int{
		TrapDiv0:             129,
		TrapOverflow:         137,
		TrapIndexOutOfBounds: 131,
	}
	for trap, want := range cases {
		if got := trap.ExitCode(); got != want {
			t.Fatalf("%s.ExitCode() = %d, want %d", trap, got, want)
		}
	}
}

func TestTrapString(t *testing.T) {
	if got := TrapNil.String(); got != "NIL" {
		t.Fatalf("TrapNil.String() = %q, want NIL", got)
	}
}

func TestAllocatorAllocateAndFinalize(t *testing.T) {
	alloc, err := NewAllocator()
	if err != nil {
		t.Fatalf("NewAllocator: %v", err)
	}
	defer alloc.Close()

	addr, buf, err := alloc.Allocate(16)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if addr == 0 {
		t.Fatal("expected a nonzero address")
	}
	copy(buf, []byte{0xC3})

	if err := alloc.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
}

func TestAllocatorExhaustion(t *testing.T) {
	alloc, err := NewAllocator()
	if err != nil {
		t.Fatalf("NewAllocator: %v", err)
	}
	defer alloc.Close()

	if _, _, err := alloc.Allocate(defaultCodeSpaceSize + 1); err == nil {
		t.Fatal("expected an error allocating more than the code space holds")
	}
}

func TestCompilerThunkHandleCallSite(t *testing.T) {
	var patched uintptr
	thunk := &CompilerThunk{
		Compile: func(returnAddr, receiver uintptr) (uintptr, error) { return 0xdead, nil },
		Patch: func(site masm.LazyCompilationSite, target uintptr) error {
			patched = target
			return nil
		},
	}

	site := masm.LazyCompilationSite{Kind: masm.LazyDirect, FctID: 1}
	target, err := thunk.HandleCallSite(site, 0x100, 0)
	if err != nil {
		t.Fatalf("HandleCallSite: %v", err)
	}
	if target != 0xdead || patched != 0xdead {
		t.Fatalf("expected target/patched == 0xdead, got target=%#x patched=%#x", target, patched)
	}
}

func TestCompilerThunkPropagatesCompileError(t *testing.T) {
	thunk := &CompilerThunk{
		Compile: func(returnAddr, receiver uintptr) (uintptr, error) { return 0, errors.New("boom") },
	}
	if _, err := thunk.HandleCallSite(masm.LazyCompilationSite{}, 0, 0); err == nil {
		t.Fatal("expected an error from a failing Compile callback")
	}
}

func TestTrapHandlerCallsBack(t *testing.T) {
	var got Trap
	h := &TrapHandler{OnTrap: func(trap Trap, pc uintptr) { got = trap }}
	if err := h.Handle(TrapDiv0, 0x1234); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got != TrapDiv0 {
		t.Fatalf("expected OnTrap called with TrapDiv0, got %s", got)
	}
}

func TestTrapHandlerMissingCallbackErrors(t *testing.T) {
	h := &TrapHandler{}
	if err := h.Handle(TrapNil, 0); err == nil {
		t.Fatal("expected an error with no registered handler")
	}
}
