package scanner

import (
	"imagedupes/imageprocessor"
	"imagedupes/types"
)

// ScanOptions defines the options for the fingerprint stage
type ScanOptions struct {
	Workers      int                        // Worker count; values below 1 mean one per CPU
	Loader       imageprocessor.ImageLoader // Decoder; nil selects the pure Go loader
	DebugMode    bool
	ShowProgress bool
}

// ProcessImageResult holds the result of fingerprinting one file
type ProcessImageResult struct {
	Path    types.FileHandle
	Success bool
	Error   error
}

// ScanStats summarizes a finished fingerprint stage
type ScanStats struct {
	Total         int
	Fingerprinted int
	Failed        int
}
