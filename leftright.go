// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package leftright implements the Left-Right concurrency technique as
// described in the paper by Pedro Ramalhete & Andreia Correia.
//
// Left-Right supports wait-free (population oblivious) reads at the cost of
// keeping an extra copy of the synchronized data structure and applying every
// write twice. It suits read-dominated workloads — shared configuration,
// routing tables, read-mostly indexes — where read latency predictability
// matters more than the extra memory and write cost.
//
// # Quick Start
//
//	lr, err := leftright.New(func() []int { return nil }, 10)
//	if err != nil {
//	    // invalid census size
//	}
//
//	leftright.Write(lr, func(v *[]int) int {
//	    *v = append(*v, 1)
//	    return len(*v)
//	})
//
//	sum := leftright.Read(lr, readerID, func(v *[]int) int {
//	    total := 0
//	    for _, n := range *v {
//	        total += n
//	    }
//	    return total
//	})
//
// # Sample Usage
//
// Many goroutines writing and reading concurrently:
//
//	lr := leftright.NewDefault(func() []int { return nil })
//
//	var wg sync.WaitGroup
//	for i := 0; i < 5000; i++ {
//	    wg.Add(1)
//	    go func(id uint64) {
//	        defer wg.Done()
//	        lr.Write(func(v *[]int) { *v = append(*v, 1) })
//	        sum := leftright.Read(lr, id, func(v *[]int) int {
//	            total := 0
//	            for _, n := range *v {
//	                total += n
//	            }
//	            return total
//	        })
//	        if sum == 0 {
//	            panic("a writer must observe its own write")
//	        }
//	    }(uint64(i))
//	}
//	wg.Wait()
//
// # Caller Contract
//
//   - Write mutators run twice, once per internal instance, and must have
//     equivalent observable effects both times.
//   - Read observers must not mutate the value, must terminate, and must not
//     call Write reentrantly.
//   - Reader ids need not be unique; they only pick a census slot by modulo.
//
// See the core package documentation for the full protocol description.
package leftright

import (
	"github.com/yacoder/leftright/internal/concurrency/census"
	core "github.com/yacoder/leftright/internal/core"
	"github.com/yacoder/leftright/internal/monitoring/metrics"
)

// ErrInvalidSlotCount is returned by New when the census size is less than 1.
var ErrInvalidSlotCount = census.ErrInvalidSlotCount

// Re-exported engine types.
type (
	// LeftRight protects a value of type T with wait-free reads and
	// serialized, double-applied writes.
	LeftRight[T any] = core.LeftRight[T]

	// Stats is a snapshot of a handle's operation counters.
	Stats = metrics.Stats

	// LatencyStats summarizes latency samples collected by a
	// DurationRingBuffer.
	LatencyStats = metrics.LatencyStats

	// DurationRingBuffer is a bounded buffer of latency samples, useful for
	// instrumenting calls from benchmark or monitoring code.
	DurationRingBuffer = metrics.DurationRingBuffer
)

// New creates a handle protecting two independently constructed instances of
// T. construct runs exactly twice. slots fixes the reader census size and
// must be at least 1.
func New[T any](construct func() T, slots int) (*LeftRight[T], error) {
	return core.New(construct, slots)
}

// NewDefault is New with a census sized to the number of usable processors.
func NewDefault[T any](construct func() T) *LeftRight[T] {
	return core.NewDefault(construct)
}

// Read invokes observe against the currently published instance and returns
// its result. Wait-free regardless of concurrent writer activity.
func Read[T, R any](lr *LeftRight[T], readerID uint64, observe func(*T) R) R {
	return core.Read(lr, readerID, observe)
}

// Write applies mutate to both internal instances in turn and returns the
// result of the second application. Writers serialize.
func Write[T, R any](lr *LeftRight[T], mutate func(*T) R) R {
	return core.Write(lr, mutate)
}

// NewDurationRingBuffer creates a latency sample buffer with the given
// capacity.
func NewDurationRingBuffer(capacity int) *DurationRingBuffer {
	return metrics.NewDurationRingBuffer(capacity)
}
