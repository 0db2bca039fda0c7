// Package pipeline runs the two stages of a duplicate search: fingerprint
// every file, freeze the registry, then compare every pair.
package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"imagedupes/comparator"
	"imagedupes/imageprocessor"
	"imagedupes/logging"
	"imagedupes/reporter"
	"imagedupes/scanner"
)

// ErrNoImages is returned when the folder contains no candidate files
var ErrNoImages = errors.New("no images found in the directory")

// State is a step of a pipeline run
type State int

const (
	Idle State = iota
	Fingerprinting
	Frozen
	Comparing
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fingerprinting:
		return "fingerprinting"
	case Frozen:
		return "frozen"
	case Comparing:
		return "comparing"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options defines the options for a run
type Options struct {
	FolderPath   string
	Threshold    int // 0 selects comparator.DefaultThreshold
	Workers      int // values below 1 mean one per CPU
	ImagesOnly   bool // skip files the loader cannot handle
	ShowProgress bool
	DebugMode    bool
	Loader       imageprocessor.ImageLoader // nil selects the pure Go loader

	// Sink receives every similar pair
	Sink reporter.Sink

	// OnFrozen, if set, sees the frozen registry before comparison starts
	OnFrozen func(*scanner.Registry) error
}

// Summary describes a finished run
type Summary struct {
	Files         int
	Fingerprinted int
	Failed        int
	Pairs         int
	Matches       int
	Elapsed       time.Duration
}

// Pipeline tracks the state of one run
type Pipeline struct {
	mu    sync.Mutex
	state State
}

// New creates an idle pipeline
func New() *Pipeline {
	return &Pipeline{state: Idle}
}

// State returns the current state
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// advance moves to the next state; any other transition is a bug
func (p *Pipeline) advance(to State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if to != p.state+1 {
		panic(fmt.Sprintf("pipeline: illegal transition %s -> %s", p.state, to))
	}
	logging.DebugLog("Pipeline %s -> %s", p.state, to)
	p.state = to
}

// Run executes a pipeline from Idle to Done
func Run(options Options) (*Summary, error) {
	return New().Run(options)
}

// Run enumerates the folder, fingerprints every file and compares every
// pair. Enumeration errors and an empty folder are returned before any
// worker starts.
func (p *Pipeline) Run(options Options) (*Summary, error) {
	if p.State() != Idle {
		return nil, fmt.Errorf("pipeline already used (state %s)", p.State())
	}
	if options.Sink == nil {
		return nil, errors.New("pipeline needs a result sink")
	}

	startTime := time.Now()

	var accept func(string) bool
	if options.ImagesOnly {
		accept = imageprocessor.IsImageFile
		if options.Loader != nil {
			accept = options.Loader.CanLoad
		}
	}

	files, err := scanner.EnumerateFiles(options.FolderPath, accept)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoImages
	}

	p.advance(Fingerprinting)
	registry, scanStats := scanner.ComputeAll(files, scanner.ScanOptions{
		Workers:      options.Workers,
		Loader:       options.Loader,
		DebugMode:    options.DebugMode,
		ShowProgress: options.ShowProgress,
	})

	p.advance(Frozen)
	summary := &Summary{
		Files:         scanStats.Total,
		Fingerprinted: scanStats.Fingerprinted,
		Failed:        scanStats.Failed,
	}

	if options.OnFrozen != nil {
		if err := options.OnFrozen(registry); err != nil {
			return summary, err
		}
	}

	p.advance(Comparing)
	compareStats, err := comparator.CompareAll(registry, comparator.Options{
		Threshold: options.Threshold,
		Workers:   options.Workers,
		DebugMode: options.DebugMode,
	}, options.Sink)
	summary.Pairs = compareStats.Pairs
	summary.Matches = compareStats.Matches
	if err != nil {
		return summary, err
	}

	p.advance(Done)
	summary.Elapsed = time.Since(startTime)

	return summary, nil
}
