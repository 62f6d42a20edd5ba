// Licensed under the MIT License. See LICENSE file in the project root for details.

package core

import (
	"testing"

	"pgregory.net/rapid"
)

// TestPropertyAgainstSliceModel checks that a left-right protected slice
// behaves exactly like a plain slice under an arbitrary sequence of
// operations.
func TestPropertyAgainstSliceModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		slots := rapid.IntRange(1, 16).Draw(t, "slots")
		lr, err := New(func() []int { return nil }, slots)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}

		var model []int

		numOps := rapid.IntRange(1, 200).Draw(t, "numOps")
		for i := 0; i < numOps; i++ {
			op := rapid.OneOf(
				rapid.Just("append"),
				rapid.Just("set"),
				rapid.Just("sum"),
				rapid.Just("len"),
			).Draw(t, "op")

			switch op {
			case "append":
				n := rapid.IntRange(-1000, 1000).Draw(t, "n")
				lr.Write(func(v *[]int) { *v = append(*v, n) })
				model = append(model, n)
			case "set":
				if len(model) == 0 {
					continue
				}
				idx := rapid.IntRange(0, len(model)-1).Draw(t, "idx")
				n := rapid.IntRange(-1000, 1000).Draw(t, "n")
				lr.Write(func(v *[]int) { (*v)[idx] = n })
				model[idx] = n
			case "sum":
				id := rapid.Uint64().Draw(t, "readerID")
				got := Read(lr, id, func(v *[]int) int {
					total := 0
					for _, n := range *v {
						total += n
					}
					return total
				})
				want := 0
				for _, n := range model {
					want += n
				}
				if got != want {
					t.Fatalf("sum mismatch: lr=%d, model=%d", got, want)
				}
			case "len":
				id := rapid.Uint64().Draw(t, "readerID")
				got := Read(lr, id, func(v *[]int) int { return len(*v) })
				if got != len(model) {
					t.Fatalf("len mismatch: lr=%d, model=%d", got, len(model))
				}
			}
		}

		// Both instances must agree with the model once all writes returned.
		for i := 0; i < 2; i++ {
			if len(lr.instances[i]) != len(model) {
				t.Fatalf("instance %d length %d, model length %d", i, len(lr.instances[i]), len(model))
			}
			for j := range model {
				if lr.instances[i][j] != model[j] {
					t.Fatalf("instance %d diverged from model at %d", i, j)
				}
			}
		}
	})
}
