package utils

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DefaultLogPath is the debug log written with --debug and no --logfile
const DefaultLogPath = "imagedupes.log"

// ErrMissingFolder is returned when no directory was given
var ErrMissingFolder = errors.New("missing directory argument")

// booleanFlags never consume the following argument as their value
var booleanFlags = map[string]bool{
	"images-only": true,
	"progress":    true,
	"debug":       true,
	"help":        true,
}

// ParseArguments converts command-line arguments (without the program name)
// into a map of flags and values. The first argument that is not a flag is
// stored under "folder" unless --folder was given.
func ParseArguments(argv []string) map[string]string {
	args := make(map[string]string)
	positional := ""

	for i := 0; i < len(argv); i++ {
		arg := argv[i]

		// Handle flags with equals sign (--key=value)
		if strings.HasPrefix(arg, "--") && strings.Contains(arg, "=") {
			parts := strings.SplitN(arg, "=", 2)
			flagName := strings.TrimPrefix(parts[0], "--")
			args[flagName] = parts[1]
			continue
		}

		// Handle flags without equals sign (--key value)
		if strings.HasPrefix(arg, "--") {
			flagName := strings.TrimPrefix(arg, "--")

			if booleanFlags[flagName] || i+1 >= len(argv) || strings.HasPrefix(argv[i+1], "--") {
				args[flagName] = "true"
			} else {
				args[flagName] = argv[i+1]
				i++
			}
			continue
		}

		if arg == "-h" {
			args["help"] = "true"
			continue
		}

		if positional == "" {
			positional = arg
		}
	}

	if _, ok := args["folder"]; !ok && positional != "" {
		args["folder"] = positional
	}

	return args
}

// FolderPath returns the directory to scan
func FolderPath(args map[string]string) (string, error) {
	folder := args["folder"]
	if folder == "" || folder == "true" {
		return "", ErrMissingFolder
	}
	return folder, nil
}

// DatabasePath returns the export database path, or "" when no export was
// requested. --db is an alias for --database.
func DatabasePath(args map[string]string) string {
	for _, name := range []string{"database", "db"} {
		if path := args[name]; path != "" && path != "true" {
			return path
		}
	}
	return ""
}

// LogPath returns the debug log path
func LogPath(args map[string]string) string {
	if path, ok := args["logfile"]; ok && path != "" && path != "true" {
		return path
	}
	return DefaultLogPath
}

// IsSet reports whether a boolean flag was given
func IsSet(args map[string]string, name string) bool {
	value, ok := args[name]
	if !ok {
		return false
	}
	enabled, err := strconv.ParseBool(value)
	return err != nil || enabled
}

// ParseThreshold parses and validates the threshold value from string.
// Pairs whose distance is strictly below the threshold are reported.
func ParseThreshold(thresholdStr string) (int, error) {
	threshold, err := strconv.Atoi(thresholdStr)
	if err != nil || threshold < 1 {
		return 0, fmt.Errorf("invalid threshold value '%s': must be a positive integer", thresholdStr)
	}
	return threshold, nil
}

// ParseWorkers parses a worker count override
func ParseWorkers(workersStr string) (int, error) {
	workers, err := strconv.Atoi(workersStr)
	if err != nil || workers < 1 {
		return 0, fmt.Errorf("invalid worker count '%s': must be a positive integer", workersStr)
	}
	return workers, nil
}

// ParseBackend validates the decoder backend name
func ParseBackend(backend string) (string, error) {
	switch backend {
	case "", "native":
		return "native", nil
	case "opencv":
		return "opencv", nil
	default:
		return "", fmt.Errorf("unknown backend '%s': use native or opencv", backend)
	}
}

// PrintUsage outputs the command-line usage instructions
func PrintUsage(w io.Writer, program string) {
	fmt.Fprintf(w, "Usage:\n")
	fmt.Fprintf(w, "  %s <directory> [--threshold=N] [--workers=N] [--backend=native|opencv] [--images-only]\n", program)
	fmt.Fprintf(w, "  %*s [--database=PATH] [--progress] [--debug] [--logfile=PATH]\n", len(program), "")
	fmt.Fprintf(w, "\nParameters:\n")
	fmt.Fprintf(w, "  --folder      : Directory to search, instead of the positional argument\n")
	fmt.Fprintf(w, "  --threshold   : Report pairs whose difference is below this value (default: 50)\n")
	fmt.Fprintf(w, "  --workers     : Number of workers (default: one per CPU)\n")
	fmt.Fprintf(w, "  --backend     : Image decoder, native or opencv (default: native)\n")
	fmt.Fprintf(w, "  --images-only : Only consider files with a known image extension\n")
	fmt.Fprintf(w, "  --database    : Export fingerprints and matches to an SQLite file\n")
	fmt.Fprintf(w, "  --progress    : Show progress and a summary on stderr\n")
	fmt.Fprintf(w, "  --debug       : Enable debug mode (logs detailed information)\n")
	fmt.Fprintf(w, "  --logfile     : Specify custom log file path (default: %s)\n", DefaultLogPath)
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  %s /path/to/photos\n", program)
	fmt.Fprintf(w, "  %s --folder=/path/to/photos --threshold=20 --database=matches.db --progress\n", program)
}
