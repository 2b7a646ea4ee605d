package safepoint

import "sync"

// Barrier is the VM-wide rendezvous point stop_the_world arms before
// requesting every thread stop, and disarms after resuming them. Grounded
// on safepoint.rs's `vm.threads.barrier` usage (`arm`,
// `wait_until_threads_stopped`, `wait_in_safepoint`, `disarm`); the
// original's own Barrier type (threads.rs) isn't in the trimmed corpus, so
// this is built from stdlib sync.Cond rather than ported line-for-line.
type Barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	armed   bool
	target  int // number of Running threads that must reach Safepoint
	stopped int
}

// NewBarrier returns a disarmed barrier.
func NewBarrier() *Barrier {
	b := &Barrier{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Arm resets the stopped-thread counter and marks the barrier active.
func (b *Barrier) Arm() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.armed = true
	b.stopped = 0
}

// Disarm clears the barrier and wakes anything still waiting (there
// shouldn't be, in correct use, but this avoids a stuck waiter on an
// unexpected shutdown).
func (b *Barrier) Disarm() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.armed = false
	b.cond.Broadcast()
}

// WaitUntilThreadsStopped blocks the requesting thread until running
// previously-Running threads have each reported themselves stopped via
// ThreadStopped.
func (b *Barrier) WaitUntilThreadsStopped(running int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.target = running
	for b.stopped < b.target {
		b.cond.Wait()
	}
}

// ThreadStopped is called by a mutator thread's safepoint-slow path once
// it has swapped its own state to Safepoint, signaling the requester one
// thread closer to WaitUntilThreadsStopped's target.
func (b *Barrier) ThreadStopped() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped++
	if b.stopped >= b.target {
		b.cond.Broadcast()
	}
}

// WaitInSafepoint blocks a mutator thread (having just reported itself
// stopped) until the barrier disarms, mirroring safepoint_slow's final
// "wait in safepoint" step.
func (b *Barrier) WaitInSafepoint() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.armed {
		b.cond.Wait()
	}
}
