// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package metrics provides performance counters for the left-right engine.
//
// Two kinds of data are tracked:
//
//   - Operation counters (reads, writes, writer spin yields), recorded with
//     single atomic adds so that recording on the read path stays wait-free.
//   - Latency samples, stored in a bounded ring buffer and summarized into
//     percentile statistics. Sample recording takes a mutex and is meant for
//     benchmark harnesses wrapping whole operations, never for the engine's
//     read path.
//
// # Usage
//
//	m := metrics.New()
//	m.RecordRead()
//	m.RecordWrite()
//	snap := m.Snapshot()
//
// # Thread Safety
//
// All operations are safe for concurrent use. Counter recording never blocks;
// ring buffer operations serialize on an internal mutex.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// LatencyStats summarizes the samples held in a DurationRingBuffer.
type LatencyStats struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Mean  time.Duration
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
}

// OperationCounts tracks totals for each operation type.
type OperationCounts struct {
	Reads  uint64
	Writes uint64
}

// WriterSpinCounts tracks how often writers yielded the processor while
// waiting on the census, split by the phase doing the waiting.
type WriterSpinCounts struct {
	PreClearYields uint64
	DrainYields    uint64
}

// Stats is a point-in-time snapshot of all counters.
type Stats struct {
	Operations OperationCounts
	WriterSpin WriterSpinCounts
}

// Metrics collects operation counters for one left-right handle.
type Metrics struct {
	reads          atomic.Uint64
	writes         atomic.Uint64
	preClearYields atomic.Uint64
	drainYields    atomic.Uint64
}

// New creates an empty metrics collector.
func New() *Metrics {
	return &Metrics{}
}

// RecordRead counts one completed read.
func (m *Metrics) RecordRead() {
	m.reads.Add(1)
}

// RecordWrite counts one completed write.
func (m *Metrics) RecordWrite() {
	m.writes.Add(1)
}

// RecordPreClearYield counts one processor yield while waiting for the
// pre-clear drain (the epoch about to be reused).
func (m *Metrics) RecordPreClearYield() {
	m.preClearYields.Add(1)
}

// RecordDrainYield counts one processor yield while waiting for the retired
// epoch to drain.
func (m *Metrics) RecordDrainYield() {
	m.drainYields.Add(1)
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() Stats {
	return Stats{
		Operations: OperationCounts{
			Reads:  m.reads.Load(),
			Writes: m.writes.Load(),
		},
		WriterSpin: WriterSpinCounts{
			PreClearYields: m.preClearYields.Load(),
			DrainYields:    m.drainYields.Load(),
		},
	}
}

// DurationRingBuffer is a thread-safe bounded buffer of latency samples.
type DurationRingBuffer struct {
	buffer []time.Duration
	head   int
	tail   int
	size   int
	count  int
	mu     sync.RWMutex
}

// NewDurationRingBuffer creates a ring buffer with the given capacity.
func NewDurationRingBuffer(capacity int) *DurationRingBuffer {
	return &DurationRingBuffer{
		buffer: make([]time.Duration, capacity),
		size:   capacity,
	}
}

// Push adds a sample, evicting the oldest one once the buffer is full.
func (rb *DurationRingBuffer) Push(item time.Duration) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.buffer[rb.tail] = item
	rb.tail = (rb.tail + 1) % rb.size

	if rb.count < rb.size {
		rb.count++
	} else {
		rb.head = (rb.head + 1) % rb.size
	}
}

// Stats computes latency statistics over the buffered samples.
func (rb *DurationRingBuffer) Stats() LatencyStats {
	rb.mu.RLock()
	if rb.count == 0 {
		rb.mu.RUnlock()
		return LatencyStats{}
	}

	// Copy out so the sort happens without holding the lock.
	values := make([]time.Duration, rb.count)
	for i := 0; i < rb.count; i++ {
		values[i] = rb.buffer[(rb.head+i)%rb.size]
	}
	rb.mu.RUnlock()

	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	var total time.Duration
	for _, v := range values {
		total += v
	}

	percentile := func(p float64) time.Duration {
		idx := int(float64(len(values))*p) - 1
		if idx < 0 {
			idx = 0
		}
		return values[idx]
	}

	return LatencyStats{
		Count: uint64(len(values)),
		Min:   values[0],
		Max:   values[len(values)-1],
		Mean:  total / time.Duration(len(values)),
		P50:   percentile(0.50),
		P95:   percentile(0.95),
		P99:   percentile(0.99),
	}
}
