package scanner

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"imagedupes/logging"

	"github.com/schollz/progressbar/v3"
)

// ProgressTracker counts per-file results of the fingerprint stage
type ProgressTracker struct {
	mu         sync.Mutex
	processed  int
	errors     int
	totalFiles int
	bar        *progressbar.ProgressBar
	done       chan struct{}
}

// NewProgressTracker starts consuming resultsChan. The caller closes the
// channel once every worker has joined and then calls Wait.
func NewProgressTracker(totalFiles int, showBar bool, resultsChan <-chan ProcessImageResult) *ProgressTracker {
	tracker := &ProgressTracker{
		totalFiles: totalFiles,
		done:       make(chan struct{}),
	}

	if showBar {
		tracker.bar = progressbar.NewOptions(totalFiles,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Fingerprinting"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	go tracker.processResults(resultsChan)

	return tracker
}

// processResults updates the tracker state based on processing results
func (p *ProgressTracker) processResults(resultsChan <-chan ProcessImageResult) {
	defer close(p.done)

	for result := range resultsChan {
		p.mu.Lock()
		p.processed++
		if !result.Success {
			p.errors++
			if result.Error != nil {
				logging.LogImageProcessed(string(result.Path), false, result.Error.Error())
			}
		} else {
			logging.LogImageProcessed(string(result.Path), true, "")
		}
		p.mu.Unlock()

		if p.bar != nil {
			_ = p.bar.Add(1)
		}
	}

	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// Wait blocks until the results channel is closed and drained
func (p *ProgressTracker) Wait() {
	<-p.done
}

// Stats returns the counts seen so far
func (p *ProgressTracker) Stats() ScanStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return ScanStats{
		Total:         p.totalFiles,
		Fingerprinted: p.processed - p.errors,
		Failed:        p.errors,
	}
}

// PrintCompletionStats displays statistics after the fingerprint stage
func PrintCompletionStats(w io.Writer, stats ScanStats, elapsed time.Duration) {
	logging.DebugLog("Fingerprinting completed in %v. Files: %d, fingerprinted: %d, errors: %d",
		elapsed, stats.Total, stats.Fingerprinted, stats.Failed)

	fmt.Fprintf(w, "Fingerprinted %d of %d files in %v.\n",
		stats.Fingerprinted, stats.Total, elapsed.Round(time.Millisecond))

	if stats.Failed > 0 {
		fmt.Fprintf(w, "Encountered %d files that could not be decoded.\n", stats.Failed)
	}
}
