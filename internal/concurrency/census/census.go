// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package census tracks in-flight readers for the left-right engine.
//
// The census is a fixed array of indicator slots. Each slot holds a pair of
// counters indexed by an epoch flag (0 or 1). A reader announces itself by
// incrementing the counter at (its slot, the current epoch) before touching
// the protected value, and retires by decrementing the same counter — the
// same epoch it observed on arrival, even if a writer has since flipped the
// flag. A writer flips the epoch flag once per write and then waits for the
// retired epoch's counters to drain to zero, which proves that every reader
// from that generation has departed.
//
// # Slot Assignment
//
// Readers are mapped to slots by reducing their caller-supplied id modulo the
// slot count. Collisions are allowed: a slot's counter is a conservative
// superset of "readers potentially active", never an undercount, so sharing a
// slot only increases how long a writer may wait, never what it may conclude
// from a zero count.
//
// # Drain Stability
//
// Drained(e) is meaningful only to a caller that has already stopped new
// arrivals under e by flipping the epoch flag away from e. After that point
// the counters under e can only decrease, so a drained observation is stable.
//
// # Memory Layout
//
// Each slot is padded onto its own cache line so that readers hashed to
// neighboring slots do not invalidate each other's lines on every arrival.
//
// # Thread Safety
//
// All operations are atomic with sequentially consistent ordering. Arrive and
// Depart are wait-free; Drained is a single pass over the slots and is meant
// for writer-side polling only.
package census

import (
	"errors"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// ErrInvalidSlotCount is returned when constructing a census with fewer than
// one slot. A zero-slot census would deadlock every writer in its drain wait.
var ErrInvalidSlotCount = errors.New("census: slot count must be at least 1")

// slot is one indicator: a counter per epoch, padded to its own cache line.
type slot struct {
	counters [2]atomic.Int64
	_        cpu.CacheLinePad
}

// Census is a bounded set of reader-presence indicators plus the epoch flag
// that selects which counter of each pair new arrivals use.
type Census struct {
	slots []slot
	epoch atomic.Uint32
}

// New creates a census with the given number of indicator slots.
func New(slots int) (*Census, error) {
	if slots < 1 {
		return nil, ErrInvalidSlotCount
	}
	return &Census{slots: make([]slot, slots)}, nil
}

// Size returns the fixed slot count.
func (c *Census) Size() int {
	return len(c.slots)
}

// Epoch returns the current epoch flag (0 or 1).
func (c *Census) Epoch() uint32 {
	return c.epoch.Load()
}

// Flip sets the epoch flag to e. Writer-only; called exactly once per write,
// after the caller has verified that e's counters are drained.
func (c *Census) Flip(e uint32) {
	c.epoch.Store(e)
}

// Arrive announces a reader under the current epoch and returns the epoch it
// was announced under. The caller must pass the same value to Depart.
func (c *Census) Arrive(readerID uint64) uint32 {
	e := c.epoch.Load()
	c.slots[readerID%uint64(len(c.slots))].counters[e].Add(1)
	return e
}

// Depart retires a reader previously announced with Arrive. epoch must be the
// value Arrive returned, not a fresh load: the flag may have flipped while
// the reader was active, and the count that must come back down is the one it
// went up on.
func (c *Census) Depart(readerID uint64, epoch uint32) {
	c.slots[readerID%uint64(len(c.slots))].counters[epoch].Add(-1)
}

// Drained reports whether every slot's counter under epoch is zero.
func (c *Census) Drained(epoch uint32) bool {
	for i := range c.slots {
		if c.slots[i].counters[epoch].Load() > 0 {
			return false
		}
	}
	return true
}
