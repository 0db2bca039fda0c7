// Package parallel splits ordered work into contiguous chunks and runs one
// goroutine per chunk, waiting for all of them before returning.
package parallel

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Partition splits items into exactly n contiguous chunks whose concatenation
// is items. The first len(items)%n chunks hold one extra element; chunks are
// empty when len(items) < n. It panics if n < 1.
func Partition[T any](items []T, n int) [][]T {
	if n < 1 {
		panic(fmt.Sprintf("parallel: partition into %d chunks", n))
	}

	size := len(items) / n
	remainder := len(items) % n

	chunks := make([][]T, n)
	start := 0
	for i := range n {
		end := start + size
		if i < remainder {
			end++
		}
		// Clip capacity so a chunk cannot grow into its neighbour.
		chunks[i] = items[start:end:end]
		start = end
	}

	return chunks
}

// FanOut runs op once for every chunk, each on its own goroutine, and blocks
// until every call has returned. op receives the chunk index as worker id.
// Failures of individual items are op's responsibility; FanOut does not
// cancel or retry.
func FanOut[T any](chunks [][]T, op func(worker int, chunk []T)) {
	var g errgroup.Group
	for i, chunk := range chunks {
		g.Go(func() error {
			op(i, chunk)
			return nil
		})
	}
	// op reports nothing back; Wait is only the join.
	_ = g.Wait()
}

// Run partitions items across n workers and fans op out over the chunks
func Run[T any](items []T, n int, op func(worker int, chunk []T)) {
	FanOut(Partition(items, n), op)
}
