// Licensed under the MIT License. See LICENSE file in the project root for details.

package core

import (
	"testing"

	"github.com/valyala/fastrand"
)

func benchHandle(b *testing.B, slots int) *LeftRight[[]int] {
	b.Helper()
	lr, err := New(func() []int { return make([]int, 64) }, slots)
	if err != nil {
		b.Fatalf("New failed: %v", err)
	}
	return lr
}

func BenchmarkRead(b *testing.B) {
	lr := benchHandle(b, 64)

	b.RunParallel(func(pb *testing.PB) {
		id := uint64(fastrand.Uint32())
		for pb.Next() {
			lr.Read(id, func(v *[]int) {})
		}
	})
}

func BenchmarkReadUnderWriteLoad(b *testing.B) {
	lr := benchHandle(b, 64)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			lr.Write(func(v *[]int) { (*v)[0]++ })
		}
	}()
	defer close(done)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		id := uint64(fastrand.Uint32())
		for pb.Next() {
			lr.Read(id, func(v *[]int) {})
		}
	})
}

func BenchmarkWrite(b *testing.B) {
	lr := benchHandle(b, 64)

	for i := 0; i < b.N; i++ {
		lr.Write(func(v *[]int) { (*v)[i%64]++ })
	}
}

func BenchmarkMixed(b *testing.B) {
	lr := benchHandle(b, 64)

	b.RunParallel(func(pb *testing.PB) {
		id := uint64(fastrand.Uint32())
		for pb.Next() {
			// ~5% writes.
			if fastrand.Uint32n(100) < 5 {
				lr.Write(func(v *[]int) { (*v)[0]++ })
			} else {
				lr.Read(id, func(v *[]int) {})
			}
		}
	})
}

func BenchmarkSingleSlotRead(b *testing.B) {
	lr := benchHandle(b, 1)

	b.RunParallel(func(pb *testing.PB) {
		id := uint64(fastrand.Uint32())
		for pb.Next() {
			lr.Read(id, func(v *[]int) {})
		}
	})
}
