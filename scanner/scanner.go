package scanner

import (
	"imagedupes/logging"
	"imagedupes/parallel"
	"imagedupes/scanner/processor"
	"imagedupes/signalhandler"
	"imagedupes/types"
)

// ComputeAll fingerprints every file and returns the frozen registry. Files
// are split into one contiguous chunk per worker; a file that fails to
// decode is reported and skipped without affecting the rest of its chunk.
// ComputeAll returns only after every worker has finished.
func ComputeAll(files []types.FileHandle, options ScanOptions) (*Registry, ScanStats) {
	workers := options.Workers
	if workers < 1 {
		workers = signalhandler.GetOptimalProcs()
	}

	if options.DebugMode {
		logging.DebugLog("Fingerprinting %d files with %d workers", len(files), workers)
	}

	imageProcessor := processor.NewImageProcessor(options.Loader, options.DebugMode)
	registry := NewRegistry(len(files))

	resultsChan := make(chan ProcessImageResult, 100)
	tracker := NewProgressTracker(len(files), options.ShowProgress, resultsChan)

	parallel.Run(files, workers, func(worker int, chunk []types.FileHandle) {
		if options.DebugMode {
			logging.DebugLog("Worker %d fingerprinting %d files", worker, len(chunk))
		}

		for _, path := range chunk {
			fp, err := imageProcessor.ProcessImage(path)
			if err != nil {
				logging.LogError("Error loading image: %v", err)
				resultsChan <- ProcessImageResult{Path: path, Error: err}
				continue
			}

			registry.Append(types.FingerprintedImage{Path: path, Fingerprint: fp})
			resultsChan <- ProcessImageResult{Path: path, Success: true}
		}
	})

	close(resultsChan)
	tracker.Wait()
	registry.Freeze()

	return registry, tracker.Stats()
}
