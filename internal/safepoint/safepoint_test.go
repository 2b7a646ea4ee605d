package safepoint

import (
	"sync"
	"testing"
	"time"
)

func TestSingleThreadStopTheWorldRunsOperationInline(t *testing.T) {
	reg := NewRegistry()
	self := reg.Register(NewDoraThread(0))
	self.Park()

	ran := false
	StopTheWorld(reg, self, func(threads []*DoraThread) {
		ran = true
		if len(threads) != 1 {
			t.Fatalf("expected exactly 1 thread in the snapshot, got %d", len(threads))
		}
	})
	if !ran {
		t.Fatal("expected the operation to run")
	}
}

func TestStopTheWorldParksRunningMutator(t *testing.T) {
	reg := NewRegistry()
	requester := reg.Register(NewDoraThread(0))
	requester.Park()

	mutator := reg.Register(NewDoraThread(1))
	mutator.state.Store(int32(StateRunning))

	var wg sync.WaitGroup
	wg.Add(1)
	stopped := make(chan struct{})
	go func() {
		defer wg.Done()
		// Wait for the requester to mark us RequestedSafepoint, then
		// simulate hitting the safepoint poll in emitted code.
		for mutator.StateRelaxed() != StateRequestedSafepoint {
			time.Sleep(time.Millisecond)
		}
		close(stopped)
		SafepointSlow(reg, mutator)
	}()

	sawMutatorState := StateRunning
	StopTheWorld(reg, requester, func(threads []*DoraThread) {
		<-stopped
		sawMutatorState = mutator.StateRelaxed()
	})
	wg.Wait()

	if sawMutatorState != StateSafepoint {
		t.Fatalf("expected mutator to be in Safepoint state during the STW op, got %s", sawMutatorState)
	}
	if got := mutator.StateRelaxed(); got != StateRunning {
		t.Fatalf("expected mutator resumed to Running, got %s", got)
	}
	if mutator.TLD.IsSafepointRequested() {
		t.Fatal("expected safepoint_requested cleared after resume")
	}
}

func TestPauseObservedHookFires(t *testing.T) {
	reg := NewRegistry()
	self := reg.Register(NewDoraThread(0))
	self.Park()

	var observed time.Duration
	reg.PauseObserved = func(d time.Duration) { observed = d }

	StopTheWorld(reg, self, func(threads []*DoraThread) {})
	if observed < 0 {
		t.Fatal("expected a non-negative observed duration")
	}
}

func TestThreadStateString(t *testing.T) {
	if StateParkedSafepoint.String() != "ParkedSafepoint" {
		t.Fatalf("unexpected String(): %s", StateParkedSafepoint.String())
	}
}
