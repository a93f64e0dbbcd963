package logging

import (
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Logger wraps the process-wide logger with a debug toggle.
type Logger struct {
	debugEnabled bool
	log          *charmlog.Logger
}

var globalLogger *Logger

// Initialize sets up the global logger with debug mode setting.
// All logging goes to stderr so engine output on stdout stays clean.
func Initialize(debugMode bool) {
	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	if debugMode {
		logger.SetLevel(charmlog.DebugLevel)
	}

	globalLogger = &Logger{
		debugEnabled: debugMode,
		log:          logger,
	}
}

// Info logs informational messages (always shown)
func Info(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.log.Info(fmt.Sprintf(format, args...))
	}
}

// Debug logs debug messages (only shown when debug mode is enabled)
func Debug(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.log.Debug(fmt.Sprintf(format, args...))
	}
}

// Warn logs warning messages (always shown)
func Warn(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.log.Warn(fmt.Sprintf(format, args...))
	}
}

// Error logs error messages (always shown)
func Error(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.log.Error(fmt.Sprintf(format, args...))
	}
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return globalLogger != nil && globalLogger.debugEnabled
}
