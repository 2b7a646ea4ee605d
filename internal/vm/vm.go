// Package vm owns the process-wide runtime state spec.md §2.5/§9 "Global
// mutable state" describes: the assembled Program, the shape
// specialization cache, global-variable memory, the well-known-element
// registry, and the ambient logging/metrics handles every other package
// reaches through a *VM rather than package-level globals of their own.
package vm

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/malphas-lang/malphas-lang/internal/codeobj"
	"github.com/malphas-lang/malphas-lang/internal/program"
	"github.com/malphas-lang/malphas-lang/internal/safepoint"
	"github.com/malphas-lang/malphas-lang/internal/shape"
	"github.com/malphas-lang/malphas-lang/internal/stub"
)

// VM is the single runtime instance a process hosts, grounded on
// original_source/dora/src/vm.rs's VM struct and its process-wide
// get_vm()/set_vm() accessor pair.
type VM struct {
	Program *program.Program
	Shapes  *shape.Cache
	Globals *GlobalMemory
	Known   KnownElements
	Threads *safepoint.Registry

	CodeObjects  *codeobj.CodeObjects
	CodeMap      *codeobj.CodeMap
	Compilations *codeobj.CompilationDatabase
	CodeSpace    *stub.Allocator

	Log     *zap.Logger
	Metrics *Metrics

	// mu guards stopped, which Shutdown sets; a second Shutdown call
	// panics, matching the teacher's fail-fast style for internal misuse
	// rather than silently no-opping.
	mu      sync.Mutex
	stopped bool
}

// Metrics are the process's Prometheus collectors, gathered and rendered
// as plain text under `--gc-stats` (SPEC_FULL Ambient Stack) rather than
// served over HTTP — this runtime has no long-lived network surface to
// attach a /metrics handler to.
type Metrics struct {
	Registry          *prometheus.Registry
	SafepointPauses   prometheus.Histogram
	CompilationsTotal prometheus.Counter
	ClassInstances    prometheus.Gauge
}

func newMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		SafepointPauses: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "malphas_safepoint_pause_seconds",
			Help:    "Stop-the-world pause duration observed by the safepoint coordinator.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 12),
		}),
		CompilationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "malphas_jit_compilations_total",
			Help: "Number of functions compiled by the JIT driver.",
		}),
		ClassInstances: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "malphas_shape_class_instances",
			Help: "Number of specialized class instances currently cached.",
		}),
	}
	reg.MustRegister(m.SafepointPauses, m.CompilationsTotal, m.ClassInstances)
	return m
}

// New assembles a VM around prog: it builds the shape cache, lays out
// global-variable memory, and wires up a production zap logger and a
// private Prometheus registry.
func New(prog *program.Program) (*VM, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("vm: building logger: %w", err)
	}

	alloc, err := stub.NewAllocator()
	if err != nil {
		return nil, fmt.Errorf("vm: allocating code space: %w", err)
	}

	cache := shape.NewCache(prog)
	metrics := newMetrics()
	v := &VM{
		Program:      prog,
		Shapes:       cache,
		Globals:      NewGlobalMemory(prog, cache),
		Known:        resolveKnownElements(prog),
		Threads:      newThreadRegistry(metrics),
		CodeObjects:  codeobj.NewCodeObjects(),
		CodeMap:      codeobj.NewCodeMap(),
		Compilations: codeobj.NewCompilationDatabase(),
		CodeSpace:    alloc,
		Log:          logger,
		Metrics:      metrics,
	}
	v.Globals.seedLiteralGlobals(prog)
	return v, nil
}

// newThreadRegistry wires a fresh safepoint.Registry's completed-pause
// callback into the SafepointPauses histogram, the hookup spec.md §5's
// stop-the-world routine reports every STW pause's wall-clock duration
// through.
func newThreadRegistry(metrics *Metrics) *safepoint.Registry {
	reg := safepoint.NewRegistry()
	reg.PauseObserved = func(d time.Duration) {
		metrics.SafepointPauses.Observe(d.Seconds())
	}
	return reg
}

// NewWithLogger is New but with an injected logger, for tests that want a
// zaptest-backed observer instead of a production encoder.
func NewWithLogger(prog *program.Program, logger *zap.Logger) *VM {
	cache := shape.NewCache(prog)
	metrics := newMetrics()
	alloc, err := stub.NewAllocator()
	if err != nil {
		// The fixed-size arena only fails to allocate on mmap exhaustion;
		// tests run far below that, so a failure here means the host
		// environment itself is broken.
		panic(fmt.Sprintf("vm: allocating code space: %v", err))
	}
	v := &VM{
		Program:      prog,
		Shapes:       cache,
		Globals:      NewGlobalMemory(prog, cache),
		Known:        resolveKnownElements(prog),
		Threads:      newThreadRegistry(metrics),
		CodeObjects:  codeobj.NewCodeObjects(),
		CodeMap:      codeobj.NewCodeMap(),
		Compilations: codeobj.NewCompilationDatabase(),
		CodeSpace:    alloc,
		Log:          logger,
		Metrics:      metrics,
	}
	v.Globals.seedLiteralGlobals(prog)
	return v
}

var (
	globalMu sync.RWMutex
	instance *VM
)

// Install registers v as the process-wide instance Get returns, mirroring
// original_source's thread-local/global VM pointer (spec.md §9 "Global
// mutable state"). Exactly one VM is live per process in this runtime —
// tests that need isolation construct their own *VM via New and pass it
// explicitly instead of calling Install.
func Install(v *VM) {
	globalMu.Lock()
	defer globalMu.Unlock()
	instance = v
}

// Get returns the process-wide VM installed by Install, panicking if none
// has been installed yet — a call site reaching for the global VM before
// bootstrap is a programming error, not a recoverable condition.
func Get() *VM {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if instance == nil {
		panic("vm: Get called before Install")
	}
	return instance
}

// Shutdown flushes the logger and marks the VM stopped. Safe to call at
// most once.
func (v *VM) Shutdown() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stopped {
		panic("vm: Shutdown called twice")
	}
	v.stopped = true
	_ = v.Log.Sync()
}
