package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"imagedupes/database"
	"imagedupes/imageprocessor"
	"imagedupes/imageprocessor/opencv"
	"imagedupes/logging"
	"imagedupes/pipeline"
	"imagedupes/reporter"
	"imagedupes/scanner"
	"imagedupes/signalhandler"
	"imagedupes/utils"
)

func main() {
	// Set up proper signal handling
	signalhandler.SetupHandler()

	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run executes one duplicate search and returns the process exit status.
// Results go to stdout; usage, diagnostics and summaries go to stderr.
func run(argv []string, stdout, stderr io.Writer) int {
	logging.SetOutput(stderr)

	program := filepath.Base(argv[0])
	args := utils.ParseArguments(argv[1:])

	if utils.IsSet(args, "help") {
		utils.PrintUsage(stdout, program)
		return 0
	}

	folderPath, err := utils.FolderPath(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		utils.PrintUsage(stderr, program)
		return 1
	}

	// Setup debug logging if enabled
	debugMode := utils.IsSet(args, "debug")
	if debugMode {
		logPath := utils.LogPath(args)
		if err := logging.SetupLogger(logPath); err != nil {
			logging.LogWarning("Failed to setup logging: %v", err)
		} else {
			fmt.Fprintf(stderr, "Debug mode enabled. Logging to: %s\n", logPath)
		}
		defer logging.CloseLogger()
	}

	options := pipeline.Options{
		FolderPath:   folderPath,
		ImagesOnly:   utils.IsSet(args, "images-only"),
		ShowProgress: utils.IsSet(args, "progress"),
		DebugMode:    debugMode,
	}

	if thresholdStr, ok := args["threshold"]; ok {
		if options.Threshold, err = utils.ParseThreshold(thresholdStr); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	if workersStr, ok := args["workers"]; ok {
		if options.Workers, err = utils.ParseWorkers(workersStr); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	backend, err := utils.ParseBackend(args["backend"])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	var defaultLoader imageprocessor.ImageLoader
	if backend == "opencv" {
		defaultLoader = opencv.NewLoader(debugMode)
	}
	loaders := imageprocessor.NewImageLoaderRegistry(defaultLoader)
	defer loaders.Close()
	options.Loader = loaders

	var sinks reporter.MultiSink
	sinks = append(sinks, reporter.NewTextSink(stdout))

	var db *sql.DB
	if dbPath := utils.DatabasePath(args); dbPath != "" {
		db, err = database.InitDatabase(dbPath)
		if err != nil {
			logging.LogError("Error initializing database: %v", err)
			return 1
		}
		defer db.Close()

		sinks = append(sinks, database.NewMatchSink(db))
		options.OnFrozen = func(registry *scanner.Registry) error {
			return database.StoreImages(db, registry.Images())
		}
	}
	options.Sink = sinks

	logging.LogInfo("Searching %s (backend %s, threshold %d, workers %d)",
		folderPath, backend, options.Threshold, options.Workers)

	summary, err := pipeline.Run(options)
	if errors.Is(err, pipeline.ErrNoImages) {
		fmt.Fprintln(stderr, "No images found in the directory.")
		return 1
	}
	if err != nil {
		logging.LogError("%v", err)
		return 1
	}

	if options.ShowProgress {
		scanner.PrintCompletionStats(stderr, scanner.ScanStats{
			Total:         summary.Files,
			Fingerprinted: summary.Fingerprinted,
			Failed:        summary.Failed,
		}, summary.Elapsed)
		fmt.Fprintf(stderr, "Compared %d pairs, %d similar.\n", summary.Pairs, summary.Matches)

		if db != nil {
			stats, err := database.GetScanStats(db)
			if err == nil && stats != nil {
				fmt.Fprintf(stderr, "\nDatabase summary:\n")
				fmt.Fprintf(stderr, "- Images exported: %d\n", stats.TotalImages)
				fmt.Fprintf(stderr, "- Unique fingerprints: %d\n", stats.UniqueFingerprints)
				fmt.Fprintf(stderr, "- Matches exported: %d\n", stats.MatchCount)
			}
		}
	}

	return 0
}
