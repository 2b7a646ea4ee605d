package safepoint

import "sync/atomic"

// ThreadLocalData is the per-thread block emitted code reads directly:
// TLAB bump-allocation pointers, the stack limit the prolog's guard-page
// check compares against, the safepoint_requested byte every poll tests,
// and the head of the DoraToNativeInfo frame chain the unwinder walks.
// Grounded on spec.md §5's DoraThread field list.
type ThreadLocalData struct {
	TLABTop    uintptr
	TLABEnd    uintptr
	StackLimit uintptr

	safepointRequested atomic.Int32

	// LastFrame is the most recent DoraToNativeInfo frame this thread
	// pushed crossing into managed code; nil at the native-to-native
	// boundary (the thread hasn't called in yet, or has fully returned).
	LastFrame *DoraToNativeInfo
}

// DoraToNativeInfo is one link in the chain of managed<->native call
// boundaries a thread has crossed, letting the root-scanner and the
// unwinder walk back through every JIT frame without needing the native
// call stack's own unwind tables.
type DoraToNativeInfo struct {
	ReturnAddress uintptr
	FramePointer  uintptr
	Next          *DoraToNativeInfo
}

// SetSafepointRequested and ClearSafepointRequested flip the byte emitted
// code's masm.MacroAssembler.Safepoint poll tests. Relaxed ordering
// matches spec.md §5's "Ordering" note: the poll itself is a relaxed load,
// with correctness resting on the STW routine setting this before
// inspecting thread state (a sequentially-consistent operation below).
func (t *ThreadLocalData) SetSafepointRequested()   { t.safepointRequested.Store(1) }
func (t *ThreadLocalData) ClearSafepointRequested() { t.safepointRequested.Store(0) }
func (t *ThreadLocalData) IsSafepointRequested() bool {
	return t.safepointRequested.Load() != 0
}

// DoraThread is one registered mutator thread, grounded on safepoint.rs's
// `Arc<DoraThread>` parameter and its `.tld`/`.atomic_state` fields.
type DoraThread struct {
	ID    int
	TLD   *ThreadLocalData
	state atomic.Int32
}

// NewDoraThread registers a new thread starting in the Running state.
func NewDoraThread(id int) *DoraThread {
	t := &DoraThread{ID: id, TLD: &ThreadLocalData{}}
	t.state.Store(int32(StateRunning))
	return t
}

// StateRelaxed reads the thread's current state without synchronization,
// mirroring safepoint.rs's `state_relaxed()` used as a CAS loop's initial
// guess (the loop itself still uses sequentially-consistent CAS to commit
// a transition).
func (t *DoraThread) StateRelaxed() ThreadState { return ThreadState(t.state.Load()) }

// casState attempts current -> next, retrying with the actual observed
// state on failure exactly like safepoint.rs's stop_threads loop. Returns
// the state the CAS finally succeeded from.
func (t *DoraThread) casState(transition func(ThreadState) (ThreadState, bool)) ThreadState {
	current := t.StateRelaxed()
	for {
		next, ok := transition(current)
		if !ok {
			return current
		}
		if t.state.CompareAndSwap(int32(current), int32(next)) {
			return current
		}
		current = ThreadState(t.state.Load())
	}
}

// Park transitions Running -> Parked, the state a thread must be in before
// it may call StopTheWorld itself (spec.md §5: "called on a requesting
// thread that is itself in the parked state").
func (t *DoraThread) Park() {
	t.state.Store(int32(StateParked))
}

// Unpark transitions back to Running once the requested operation (if
// this thread was the requester) has completed.
func (t *DoraThread) Unpark() {
	t.state.Store(int32(StateRunning))
}
