// Package logger provides the global log facility for device-doctor.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

var (
	globalLogger *log.Logger
	logFile      *os.File
	verbose      bool
	mu           sync.Mutex
)

// Init initializes the global logger with the specified log file path.
// When verboseMode is true, log lines are mirrored to stderr so doctor
// runs show tool invocations as they happen.
func Init(logPath string, verboseMode bool) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	logFile = f
	verbose = verboseMode

	var out io.Writer = f
	if verbose {
		out = io.MultiWriter(f, os.Stderr)
	}
	globalLogger = log.New(out, "", log.Ltime|log.Lmicroseconds)

	return nil
}

// Close closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func logf(level, format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		globalLogger.Printf(level+" "+format, v...)
	}
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	logf("[INFO]", format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	logf("[DEBUG]", format, v...)
}

// Warn logs a warning message. Best-effort probes that swallow failures
// report the swallowed error here.
func Warn(format string, v ...interface{}) {
	logf("[WARN]", format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	logf("[ERROR]", format, v...)
}

// GetWriter returns the underlying writer for subprocess output capture.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return logFile
	}
	return io.Discard
}
