package stub

import "github.com/malphas-lang/malphas-lang/internal/masm"

// SafepointWaitFunc parks the calling thread until the stop-the-world
// coordinator releases its global barrier, spec.md §4.5 "Safepoint-slow
// stub": switch thread state to Safepoint via atomic CAS, wait. The
// concrete implementation lives in internal/safepoint; stub only holds the
// function value to avoid an import cycle.
type SafepointWaitFunc func()

// SafepointStub wraps the callback every Safepoint-requested poll falls
// through to.
type SafepointStub struct {
	Wait SafepointWaitFunc
}

// Enter runs the parked wait. Called by the native shim once
// masm.MacroAssembler.Safepoint's poll has branched here.
func (s *SafepointStub) Enter() {
	if s.Wait != nil {
		s.Wait()
	}
}

// BuildSafepointSlowStub assembles the landing pad every function
// prolog/loop-back-edge safepoint poll jumps to when the requested flag is
// set — a bare ret, since all the real work (parking, CAS, barrier wait)
// happens in SafepointStub.Enter via the native call-out shim described in
// thunk.go's doc comment.
func BuildSafepointSlowStub() *masm.MacroAssembler {
	m := masm.NewMacroAssembler()
	m.Ret()
	return m
}
