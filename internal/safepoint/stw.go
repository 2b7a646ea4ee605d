package safepoint

import (
	"fmt"
	"sync"
	"time"
)

// Registry tracks every live mutator thread plus the shared Barrier,
// grounded on original_source/dora/src/vm.rs's `threads` field (a
// `ThreadManager`-equivalent `threads: Mutex<Vec<Arc<DoraThread>>>` plus
// `barrier: Barrier`) referenced throughout safepoint.rs.
type Registry struct {
	mu      sync.Mutex
	threads []*DoraThread
	Barrier *Barrier

	// PauseObserved, if set, receives each completed STW pause's duration —
	// the hook internal/vm's Metrics.SafepointPauses histogram is wired
	// through.
	PauseObserved func(time.Duration)
}

// NewRegistry returns an empty thread registry with a fresh barrier.
func NewRegistry() *Registry {
	return &Registry{Barrier: NewBarrier()}
}

// Register adds t to the registry, returning t for convenient chaining at
// thread-startup call sites.
func (r *Registry) Register(t *DoraThread) *DoraThread {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threads = append(r.threads, t)
	return t
}

// Unregister removes t (a thread that has exited) from the registry.
func (r *Registry) Unregister(t *DoraThread) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, th := range r.threads {
		if th == t {
			r.threads = append(r.threads[:i], r.threads[i+1:]...)
			return
		}
	}
}

// snapshot returns a copy of the current thread list, safe to iterate
// without holding r's lock across the (potentially slow) stop-the-world
// operation.
func (r *Registry) snapshot() []*DoraThread {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*DoraThread, len(r.threads))
	copy(out, r.threads)
	return out
}

// StopTheWorld implements spec.md §5's six-step algorithm. requester must
// currently be Parked (the caller calls requester.Park() itself before
// this, matching safepoint.rs's `THREAD.with(|thread| thread.borrow().park(vm))`
// at stop_the_world's top); op runs once every other thread has reached a
// Safepoint state, and sees the full thread snapshot it ran against.
func StopTheWorld(reg *Registry, requester *DoraThread, op func(threads []*DoraThread)) {
	start := time.Now()
	threads := reg.snapshot()

	if len(threads) == 1 {
		op(threads)
		if reg.PauseObserved != nil {
			reg.PauseObserved(time.Since(start))
		}
		return
	}

	stopThreads(reg, threads)
	op(threads)
	resumeThreads(reg, threads)

	if reg.PauseObserved != nil {
		reg.PauseObserved(time.Since(start))
	}
}

// stopThreads arms the barrier, requests every thread stop, then blocks
// until they've all reported in — spec.md §5 steps 1-3, ported from
// safepoint.rs's stop_threads.
func stopThreads(reg *Registry, threads []*DoraThread) {
	reg.Barrier.Arm()

	for _, t := range threads {
		t.TLD.SetSafepointRequested()
	}

	running := 0
	for _, t := range threads {
		prev := t.casState(func(current ThreadState) (ThreadState, bool) {
			switch current {
			case StateRunning:
				return StateRequestedSafepoint, true
			case StateParked:
				return StateParkedSafepoint, true
			case StateSafepoint:
				return current, false // already stopped, nothing to transition
			default:
				panic(fmt.Sprintf("safepoint: unexpected state %s when stopping threads", current))
			}
		})
		if prev == StateRunning {
			running++
		}
	}

	reg.Barrier.WaitUntilThreadsStopped(running)
}

// resumeThreads clears the request flag and restores every thread to a
// runnable state, then disarms the barrier — spec.md §5 steps 5-6, ported
// from safepoint.rs's resume_threads.
func resumeThreads(reg *Registry, threads []*DoraThread) {
	for _, t := range threads {
		t.TLD.ClearSafepointRequested()
	}

	for _, t := range threads {
		current := t.StateRelaxed()
		var next ThreadState
		switch current {
		case StateSafepoint:
			next = StateRunning
		case StateParkedSafepoint:
			next = StateParked
		default:
			panic(fmt.Sprintf("safepoint: unexpected state %s when resuming threads", current))
		}
		if !t.state.CompareAndSwap(int32(current), int32(next)) {
			panic("safepoint: concurrent modification resuming a stopped thread")
		}
	}

	reg.Barrier.Disarm()
}

// SafepointSlow is the safepoint-slow stub's Go-level counterpart
// (internal/stub.SafepointStub.Wait), grounded on safepoint.rs's
// safepoint_slow: swap this thread's state to Safepoint, report in, and
// wait for the barrier to disarm.
func SafepointSlow(reg *Registry, self *DoraThread) {
	current := self.StateRelaxed()
	if current != StateRequestedSafepoint && current != StateRunning {
		panic(fmt.Sprintf("safepoint: safepoint-slow entered from unexpected state %s", current))
	}
	self.state.Store(int32(StateSafepoint))
	reg.Barrier.ThreadStopped()
	reg.Barrier.WaitInSafepoint()
}
