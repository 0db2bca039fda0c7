package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	debugLogger *logrus.Logger
	diagLogger  = newDiagnosticLogger(os.Stderr)
	logFile     *os.File
	mu          sync.Mutex
	isSetup     bool
)

func newDiagnosticLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
	})
	return l
}

// SetOutput redirects warnings and errors, which go to stderr by default
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	diagLogger.SetOutput(w)
}

// SetupLogger initializes the debug logger with the specified log file
func SetupLogger(logFilePath string) error {
	mu.Lock()
	defer mu.Unlock()

	if isSetup {
		return nil
	}

	var err error
	logFile, err = os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	debugLogger = logrus.New()
	debugLogger.SetOutput(logFile)
	debugLogger.SetLevel(logrus.DebugLevel)
	debugLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableColors:   true,
	})

	debugLogger.Infof("--- imagedupes debug log started at %s ---", time.Now().Format(time.RFC3339))

	isSetup = true
	return nil
}

// CloseLogger closes the log file
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		debugLogger.Infof("--- imagedupes debug log closed at %s ---", time.Now().Format(time.RFC3339))
		logFile.Close()
		logFile = nil
		debugLogger = nil
		isSetup = false
	}
}

// LogInfo logs an information message to the debug log
func LogInfo(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger != nil {
		debugLogger.Infof(format, args...)
	}
}

// DebugLog logs a message if debug mode is enabled
func DebugLog(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger != nil {
		debugLogger.Debugf(format, args...)
	}
}

// LogError logs an error message to stderr and the debug log
func LogError(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	diagLogger.Errorf(format, args...)
	if debugLogger != nil {
		debugLogger.Errorf(format, args...)
	}
}

// LogWarning logs a warning message to stderr and the debug log
func LogWarning(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	diagLogger.Warnf(format, args...)
	if debugLogger != nil {
		debugLogger.Warnf(format, args...)
	}
}

// LogImageProcessed logs when an image is processed
func LogImageProcessed(path string, success bool, errMsg string) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger == nil {
		return
	}

	if success {
		debugLogger.WithField("path", path).Debug("PROCESSED")
	} else {
		debugLogger.WithFields(logrus.Fields{"path": path, "error": errMsg}).Debug("FAILED")
	}
}
