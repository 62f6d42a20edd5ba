// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package main benchmarks the left-right lock under different workloads.
//
// The suite mirrors what matters for a read-optimized primitive:
//
//   - Single-threaded baseline (uncontended read and write cost)
//   - Reader scaling ladder (wait-free reads should scale with cores)
//   - Writer contention (writers serialize; throughput should stay flat)
//   - Mixed workload with read latency percentiles under writer pressure
//
// # Usage
//
//	go run ./cmd/bench
//	go run ./cmd/bench --readers 32 --writers 8 --slots 64 --duration 2s
//
// Results are system-dependent: CPU topology, core count, and the Go
// scheduler all shift the numbers. Use consistent hardware when comparing.
package main

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/valyala/fastrand"

	"github.com/yacoder/leftright"
)

const tableSize = 256

var (
	flagReaders  int
	flagWriters  int
	flagSlots    int
	flagDuration time.Duration
)

func main() {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark the left-right lock",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Left-Right Lock Benchmarks")
			fmt.Println("==========================")

			benchmarkSingleThreaded()
			benchmarkReaderScaling()
			benchmarkWriterContention()
			benchmarkMixedWorkload()
			return nil
		},
	}

	cmd.Flags().IntVar(&flagReaders, "readers", 16, "max concurrent readers in the scaling ladder")
	cmd.Flags().IntVar(&flagWriters, "writers", 4, "concurrent writers in the contention benchmark")
	cmd.Flags().IntVar(&flagSlots, "slots", 64, "reader census size")
	cmd.Flags().DurationVar(&flagDuration, "duration", time.Second, "measurement window per scenario")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newTable() *leftright.LeftRight[[]uint64] {
	lr, err := leftright.New(func() []uint64 { return make([]uint64, tableSize) }, flagSlots)
	if err != nil {
		panic(err)
	}
	return lr
}

func sumTable(v *[]uint64) uint64 {
	var total uint64
	for _, n := range *v {
		total += n
	}
	return total
}

func benchmarkSingleThreaded() {
	fmt.Println("\n1. Single-threaded baseline")
	lr := newTable()

	const numOps = 1_000_000
	start := time.Now()
	for i := 0; i < numOps; i++ {
		leftright.Read(lr, 1, sumTable)
	}
	duration := time.Since(start)
	fmt.Printf("   Read:  %d ops in %v (%.0f ops/sec)\n", numOps, duration, float64(numOps)/duration.Seconds())

	const numWrites = 100_000
	start = time.Now()
	for i := 0; i < numWrites; i++ {
		idx := i % tableSize
		lr.Write(func(v *[]uint64) { (*v)[idx]++ })
	}
	duration = time.Since(start)
	fmt.Printf("   Write: %d ops in %v (%.0f ops/sec)\n", numWrites, duration, float64(numWrites)/duration.Seconds())
}

func benchmarkReaderScaling() {
	fmt.Println("\n2. Reader scaling (idle writer)")
	lr := newTable()

	for numReaders := 1; numReaders <= flagReaders; numReaders *= 2 {
		var total atomic.Uint64
		done := make(chan struct{})
		var wg sync.WaitGroup

		for i := 0; i < numReaders; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				id := uint64(fastrand.Uint32())
				var ops uint64
				for {
					select {
					case <-done:
						total.Add(ops)
						return
					default:
					}
					leftright.Read(lr, id, sumTable)
					ops++
				}
			}()
		}

		time.Sleep(flagDuration)
		close(done)
		wg.Wait()

		fmt.Printf("   %2d readers: %.0f ops/sec\n", numReaders, float64(total.Load())/flagDuration.Seconds())
	}
}

func benchmarkWriterContention() {
	fmt.Println("\n3. Writer contention")
	lr := newTable()

	var total atomic.Uint64
	done := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < flagWriters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var ops uint64
			for {
				select {
				case <-done:
					total.Add(ops)
					return
				default:
				}
				idx := int(fastrand.Uint32n(tableSize))
				lr.Write(func(v *[]uint64) { (*v)[idx]++ })
				ops++
			}
		}()
	}

	time.Sleep(flagDuration)
	close(done)
	wg.Wait()

	stats := lr.Stats()
	fmt.Printf("   %d writers: %.0f ops/sec (spin yields: pre-clear %d, drain %d)\n",
		flagWriters, float64(total.Load())/flagDuration.Seconds(),
		stats.WriterSpin.PreClearYields, stats.WriterSpin.DrainYields)
}

func benchmarkMixedWorkload() {
	fmt.Println("\n4. Mixed workload (95% reads, 5% writes)")
	lr := newTable()

	latencies := leftright.NewDurationRingBuffer(1 << 16)
	done := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < flagReaders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := uint64(fastrand.Uint32())
			for {
				select {
				case <-done:
					return
				default:
				}
				if fastrand.Uint32n(100) < 5 {
					idx := int(fastrand.Uint32n(tableSize))
					lr.Write(func(v *[]uint64) { (*v)[idx]++ })
				} else {
					start := time.Now()
					leftright.Read(lr, id, sumTable)
					latencies.Push(time.Since(start))
				}
			}
		}()
	}

	time.Sleep(flagDuration)
	close(done)
	wg.Wait()

	stats := latencies.Stats()
	fmt.Printf("   read latency: n=%d min=%v p50=%v p95=%v p99=%v max=%v\n",
		stats.Count, stats.Min, stats.P50, stats.P95, stats.P99, stats.Max)

	ops := lr.Stats()
	fmt.Printf("   operations:   reads=%d writes=%d\n", ops.Operations.Reads, ops.Operations.Writes)
}
