package signalhandler

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"imagedupes/logging"
)

// SetupHandler makes SIGINT and SIGTERM flush the debug log before exiting
func SetupHandler() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logging.LogWarning("Received %v, stopping", sig)
		logging.CloseLogger()
		os.Exit(1)
	}()
}

// GetOptimalProcs returns the number of workers each stage fans out to.
// It is the hardware parallelism reported by the runtime, never less than 1.
func GetOptimalProcs() int {
	return ProcsFor(runtime.NumCPU())
}

// ProcsFor clamps a detected CPU count to a usable worker count
func ProcsFor(numCPU int) int {
	if numCPU < 1 {
		return 1
	}
	return numCPU
}
