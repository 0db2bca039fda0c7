// Package comparator compares every pair of fingerprints in a frozen
// registry and reports the pairs that are close enough to be duplicates.
package comparator

import (
	"errors"
	"fmt"
	"sync"

	"imagedupes/imageprocessor"
	"imagedupes/logging"
	"imagedupes/parallel"
	"imagedupes/reporter"
	"imagedupes/scanner"
	"imagedupes/signalhandler"
	"imagedupes/types"
)

// DefaultThreshold is the Hamming distance below which two fingerprints are
// reported as similar: fewer than 50 of 2304 bits differ, about 97.8%
// agreement.
const DefaultThreshold = 50

var (
	// ErrRegistryNotFrozen is returned when comparison is attempted while
	// fingerprinting may still be appending
	ErrRegistryNotFrozen = errors.New("registry is not frozen")

	// ErrInvalidThreshold is returned for negative thresholds
	ErrInvalidThreshold = errors.New("threshold must not be negative")
)

// Options defines the options for the comparison stage
type Options struct {
	Threshold int // Report pairs with distance < Threshold; 0 selects DefaultThreshold
	Workers   int // Worker count; values below 1 mean one per CPU
	DebugMode bool
}

// CompareStats summarizes a finished comparison stage
type CompareStats struct {
	Pairs   int
	Matches int
}

// GeneratePairs returns every (i, j) with 0 <= i < j < n, ordered by i and
// then j
func GeneratePairs(n int) []types.IndexPair {
	if n < 2 {
		return nil
	}

	pairs := make([]types.IndexPair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, types.IndexPair{I: i, J: j})
		}
	}
	return pairs
}

// CompareAll computes the distance of every pair in the registry across the
// configured workers and reports each pair below the threshold to sink.
// Reports are serialized by a single lock. It returns after every worker has
// finished, together with the first error the sink returned.
func CompareAll(registry *scanner.Registry, options Options, sink reporter.Sink) (CompareStats, error) {
	if !registry.Frozen() {
		return CompareStats{}, ErrRegistryNotFrozen
	}

	threshold := options.Threshold
	if threshold < 0 {
		return CompareStats{}, fmt.Errorf("%w: %d", ErrInvalidThreshold, threshold)
	}
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	workers := options.Workers
	if workers < 1 {
		workers = signalhandler.GetOptimalProcs()
	}

	n := registry.Len()
	pairs := GeneratePairs(n)

	if options.DebugMode {
		logging.DebugLog("Comparing %d pairs of %d images with %d workers, threshold %d",
			len(pairs), n, workers, threshold)
	}

	var (
		mu       sync.Mutex
		matches  int
		firstErr error
	)

	parallel.Run(pairs, workers, func(_ int, chunk []types.IndexPair) {
		for _, pair := range chunk {
			if pair.I < 0 || pair.I >= pair.J || pair.J >= n {
				panic(fmt.Sprintf("comparator: pair (%d, %d) outside registry of %d", pair.I, pair.J, n))
			}

			a, b := registry.At(pair.I), registry.At(pair.J)
			distance := imageprocessor.HammingDistance(a.Fingerprint, b.Fingerprint)
			if distance >= threshold {
				continue
			}

			mu.Lock()
			matches++
			err := sink.Report(types.SimilarityResult{A: a.Path, B: b.Path, Distance: distance})
			if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("cannot report %s | %s: %w", a.Path, b.Path, err)
			}
			mu.Unlock()
		}
	})

	return CompareStats{Pairs: len(pairs), Matches: matches}, firstErr
}
