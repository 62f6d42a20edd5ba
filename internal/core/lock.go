// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package core implements the Left-Right concurrency technique: a
// synchronization engine that protects an arbitrary mutable value so that
// readers never block, retry, or contend with writers, at the cost of keeping
// two copies of the value and applying every mutation twice.
//
// The technique is described in the paper by Pedro Ramalhete & Andreia
// Correia, "Left-Right: A Concurrency Control Technique with Wait-Free
// Population Oblivious Reads".
//
// # Key Features
//
//   - Wait-free reads: a read completes in a bounded number of its own steps
//     regardless of writer activity or the number of other readers
//   - Writers serialize on a single mutex and never invalidate in-flight reads
//   - No memory reclamation: both value instances live for the handle's whole
//     lifetime and are mutated in place
//   - All cross-thread state (selector, epoch flag, census counters) uses
//     sequentially consistent atomics
//
// # Usage
//
//	lr, err := core.New(func() []int { return nil }, 10)
//	if err != nil {
//	    // slot count was invalid
//	}
//
//	core.Write(lr, func(v *[]int) int {
//	    *v = append(*v, 1)
//	    return len(*v)
//	})
//
//	sum := core.Read(lr, readerID, func(v *[]int) int {
//	    total := 0
//	    for _, n := range *v {
//	        total += n
//	    }
//	    return total
//	})
//
// # Write Protocol
//
// A write runs a strictly ordered sequence of phases while holding the writer
// mutex: mutate the instance readers cannot see, publish it by flipping the
// selector, wait for the inactive census epoch to drain (counts left over
// from the write before last), flip the epoch flag, wait for the retired
// epoch to drain (every reader that might still hold the old instance), then
// mutate the old instance to bring the two back into agreement. The two drain
// waits spin with runtime.Gosched and are bounded by the slowest concurrent
// reader, not by the number of readers.
//
// # Dangers and Warnings
//
//   - **Double application**: the mutator passed to Write runs twice, once
//     per instance. It must be a pure function of the current state plus its
//     captured inputs; a mutator with non-deterministic effects (random
//     values, time, external reads) silently diverges the two instances.
//   - **Non-terminating callbacks**: a read callback that never returns wedges
//     every future writer in its drain wait. There is no timeout.
//   - **Reentrancy**: calling Write from inside any callback deadlocks on the
//     writer mutex. Calling Read from inside a read callback is safe but
//     should use a distinct reader id.
//   - **Mutation from readers**: read callbacks receive a pointer for
//     zero-copy access and must not mutate through it.
//
// # Thread Safety
//
// Any number of goroutines may call Read concurrently with each other and
// with Write. Write calls are mutually exclusive; callers block until the
// writer mutex is available. This is the engine's only blocking path.
package core

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/yacoder/leftright/internal/concurrency/census"
	"github.com/yacoder/leftright/internal/monitoring/metrics"
)

// LeftRight protects two instances of T behind the left-right protocol.
// Exactly one instance is reader-visible at any instant; the other belongs to
// the writer. The zero value is not usable; construct with New or NewDefault.
type LeftRight[T any] struct {
	instances [2]T
	selector  atomic.Uint32
	readers   *census.Census
	writers   sync.Mutex
	metrics   *metrics.Metrics
}

// New creates a handle protecting two instances of T. construct is invoked
// exactly twice so the instances are independent (a constructor with side
// effects must tolerate running twice); they must start logically equal.
// slots fixes the reader census size for the handle's lifetime and must be at
// least 1.
func New[T any](construct func() T, slots int) (*LeftRight[T], error) {
	readers, err := census.New(slots)
	if err != nil {
		return nil, err
	}
	return &LeftRight[T]{
		instances: [2]T{construct(), construct()},
		readers:   readers,
		metrics:   metrics.New(),
	}, nil
}

// NewDefault is New with a census sized to the number of usable processors.
func NewDefault[T any](construct func() T) *LeftRight[T] {
	lr, err := New(construct, runtime.GOMAXPROCS(0))
	if err != nil {
		// GOMAXPROCS is always >= 1.
		panic(err)
	}
	return lr
}

// Read invokes observe against the currently published instance and returns
// its result. Wait-free: no locks, no spins, no retries; the cost is bounded
// by observe alone. readerID selects a census slot by modulo and need not be
// unique. observe must not mutate the value and must not call Write.
func Read[T, R any](lr *LeftRight[T], readerID uint64, observe func(*T) R) R {
	epoch := lr.readers.Arrive(readerID)
	defer func() {
		// Runs even if observe panics; a stuck census count would wedge every
		// future writer.
		lr.readers.Depart(readerID, epoch)
		lr.metrics.RecordRead()
	}()

	return observe(&lr.instances[lr.selector.Load()])
}

// Write applies mutate to both instances in turn, returning the result of the
// second application. mutate must have equivalent observable effects both
// times it runs; see the package documentation. Writers serialize; the call
// blocks until any in-progress write finishes.
func Write[T, R any](lr *LeftRight[T], mutate func(*T) R) R {
	lr.writers.Lock()
	defer lr.writers.Unlock()

	front := lr.selector.Load()
	back := 1 - front

	// First application, against the instance no reader can observe.
	mutate(&lr.instances[back])

	// Publish. Readers arriving from here on see the mutated instance;
	// readers that already loaded the selector keep the old one, which stays
	// untouched until the census proves they are gone.
	lr.selector.Store(back)

	prev := lr.readers.Epoch()
	next := 1 - prev

	// Pre-clear: the epoch about to be reused can still carry counts from
	// readers of the write before last. Flipping onto a nonzero counter would
	// break the drain condition for this write.
	for !lr.readers.Drained(next) {
		lr.metrics.RecordPreClearYield()
		runtime.Gosched()
	}

	// No further arrivals happen under prev after this store.
	lr.readers.Flip(next)

	// Drain: every reader announced under prev may still hold the instance
	// published before this write. Wait them all out.
	for !lr.readers.Drained(prev) {
		lr.metrics.RecordDrainYield()
		runtime.Gosched()
	}

	// Second application, against the old front instance, now reader-free.
	result := mutate(&lr.instances[front])
	lr.metrics.RecordWrite()
	return result
}

// Read invokes observe against the currently published instance. See the
// package-level Read for the variant returning a result.
func (lr *LeftRight[T]) Read(readerID uint64, observe func(*T)) {
	epoch := lr.readers.Arrive(readerID)
	defer func() {
		lr.readers.Depart(readerID, epoch)
		lr.metrics.RecordRead()
	}()

	observe(&lr.instances[lr.selector.Load()])
}

// Write applies mutate to both instances in turn. See the package-level Write
// for the variant returning a result.
func (lr *LeftRight[T]) Write(mutate func(*T)) {
	Write(lr, func(v *T) struct{} {
		mutate(v)
		return struct{}{}
	})
}

// Slots returns the fixed reader census size.
func (lr *LeftRight[T]) Slots() int {
	return lr.readers.Size()
}

// Stats returns a snapshot of the handle's operation counters.
func (lr *LeftRight[T]) Stats() metrics.Stats {
	return lr.metrics.Snapshot()
}
