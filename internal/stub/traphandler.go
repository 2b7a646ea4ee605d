package stub

import (
	"fmt"

	"github.com/malphas-lang/malphas-lang/internal/masm"
)

// TrapHandlerFunc is the runtime handler the trap stub calls back into:
// the managed-to-native unwind that aborts the process with the trap's
// name and a stack trace, spec.md §5 "Runtime traps".
type TrapHandlerFunc func(trap Trap, pc uintptr)

// TrapHandler adapts a raised Trap code into process termination, grounded
// on spec.md §4.5's "Trap stub. Takes a Trap code in the first integer
// parameter register and calls the runtime handler."
type TrapHandler struct {
	OnTrap TrapHandlerFunc
}

// Handle is what the native trap stub's call-out shim invokes once it has
// loaded the Trap code out of the first argument register.
func (h *TrapHandler) Handle(trap Trap, pc uintptr) error {
	if h.OnTrap == nil {
		return fmt.Errorf("stub: trap %s at pc=0x%x with no registered handler", trap, pc)
	}
	h.OnTrap(trap, pc)
	return nil
}

// BuildTrapStub assembles the trap stub: the trap code already sits in the
// first integer argument register (masm.RegParams[0]) by the time emitted
// code jumps here (every Trap-raising sequence loads it immediately before
// the jump), so the stub itself is just an int3 landing pad a debugger or
// the process's SIGTRAP handler intercepts to read that register and the
// faulting PC before calling TrapHandler.Handle.
func BuildTrapStub() *masm.MacroAssembler {
	m := masm.NewMacroAssembler()
	m.Trap()
	return m
}
