// Package safepoint implements the thread-state machine and stop-the-world
// coordinator spec.md §5 "Concurrency & resource model" describes: every
// mutator thread carries an atomic ThreadState and a ThreadLocalData block,
// and a requesting thread can park every other thread at its next
// safepoint poll, run an operation over the stopped set, then resume them.
//
// Grounded directly on original_source/dora/src/safepoint.rs's
// stop_the_world/stop_threads/resume_threads functions (threads.rs itself,
// holding ThreadState/DoraThread/Barrier, isn't in the trimmed corpus — its
// shape here is reconstructed from safepoint.rs's call sites and spec.md's
// own enumeration of ThreadState's five variants and DoraThread's fields).
package safepoint

import "fmt"

// ThreadState is a mutator thread's atomic state, spec.md §5's five
// variants. Encoded as int32 for atomic.Int32 CAS, mirroring safepoint.rs's
// `as usize` casts into its atomic_state field.
type ThreadState int32

const (
	StateRunning ThreadState = iota
	StateParked
	StateSafepoint
	StateRequestedSafepoint
	StateParkedSafepoint
)

func (s ThreadState) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StateParked:
		return "Parked"
	case StateSafepoint:
		return "Safepoint"
	case StateRequestedSafepoint:
		return "RequestedSafepoint"
	case StateParkedSafepoint:
		return "ParkedSafepoint"
	default:
		return fmt.Sprintf("ThreadState(%d)", int32(s))
	}
}
