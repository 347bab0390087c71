package logger

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// ANSI color codes for console output
const (
	ColorReset        = "\033[0m"
	ColorGreen        = "\033[32m"
	ColorCyan         = "\033[36m"
	ColorBrightRed    = "\033[91m"
	ColorBrightYellow = "\033[93m"
	ColorBrightGray   = "\033[90m"
)

// Column widths for aligned console output
const (
	ServiceNameWidth = 16
	LogLevelWidth    = 7
)

// LogEntry represents a single log entry
type LogEntry struct {
	Time    time.Time
	Level   string
	Message string
	Fields  map[string]string
}

// Logger provides structured console logging for the metadata engine.
type Logger struct {
	serviceName string
	version     string

	mu           sync.RWMutex
	colorEnabled bool
	debugEnabled bool
}

// New creates a new logger instance
func New(serviceName, version string) *Logger {
	return &Logger{
		serviceName:  serviceName,
		version:      version,
		colorEnabled: isTerminal(),
	}
}

// isTerminal checks if we're outputting to a terminal (for color support)
func isTerminal() bool {
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	fileInfo, _ := os.Stdout.Stat()
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// SetDebug enables or disables debug-level output.
func (l *Logger) SetDebug(enabled bool) {
	l.mu.Lock()
	l.debugEnabled = enabled
	l.mu.Unlock()
}

func (l *Logger) getColorForLevel(level string) string {
	if !l.colorEnabled {
		return ""
	}
	switch level {
	case "DEBUG":
		return ColorBrightGray
	case "INFO":
		return ColorGreen
	case "WARN":
		return ColorBrightYellow
	case "ERROR", "FATAL":
		return ColorBrightRed
	default:
		return ColorReset
	}
}

// formatServiceName truncates and pads the service name for consistent column width
func formatServiceName(serviceName string) string {
	if len(serviceName) > ServiceNameWidth {
		return serviceName[:ServiceNameWidth-1] + "…"
	}
	return fmt.Sprintf("%-*s", ServiceNameWidth, serviceName)
}

// formatLogLevel pads the log level for consistent column width
func formatLogLevel(level string) string {
	return fmt.Sprintf("%-*s", LogLevelWidth, level)
}

func (l *Logger) log(level, message string, fields map[string]string) {
	l.mu.RLock()
	debugEnabled := l.debugEnabled
	colorEnabled := l.colorEnabled
	l.mu.RUnlock()

	if level == "DEBUG" && !debugEnabled {
		return
	}

	now := time.Now()
	timestamp := now.Format("2006-01-02 15:04:05.000")

	color := l.getColorForLevel(level)
	resetColor := ""
	if colorEnabled {
		resetColor = ColorReset
	}

	line := fmt.Sprintf("%s[%s] [%s] [%s%s%s] %s%s",
		ColorCyan, timestamp, formatServiceName(l.serviceName),
		color, formatLogLevel(level), resetColor, message, resetColor)
	for k, v := range fields {
		line += fmt.Sprintf(" %s=%s", k, v)
	}

	fmt.Println(line)
}

// Debug logs a debug message with optional formatting
func (l *Logger) Debug(message string, args ...interface{}) {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	l.log("DEBUG", message, nil)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log("DEBUG", fmt.Sprintf(format, args...), nil)
}

// Info logs an info message with optional formatting
func (l *Logger) Info(message string, args ...interface{}) {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	l.log("INFO", message, nil)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log("INFO", fmt.Sprintf(format, args...), nil)
}

// Warn logs a warning message with optional formatting
func (l *Logger) Warn(message string, args ...interface{}) {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	l.log("WARN", message, nil)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log("WARN", fmt.Sprintf(format, args...), nil)
}

// Error logs an error message with optional formatting
func (l *Logger) Error(message string, args ...interface{}) {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	l.log("ERROR", message, nil)
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log("ERROR", fmt.Sprintf(format, args...), nil)
}

// Fatal logs a fatal message and exits the process
func (l *Logger) Fatal(message string, args ...interface{}) {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	l.log("FATAL", message, nil)
	os.Exit(1)
}

// WithFields logs an info message with structured fields
func (l *Logger) WithFields(fields map[string]string, message string) {
	l.log("INFO", message, fields)
}
