// Package app wires the plugin subsystem into a runnable application.
package app

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel is the severity threshold of the logger.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

// String returns the level's log-line tag.
func (l LogLevel) String() string {
	if l < LogLevelDebug || l > LogLevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLogLevel maps a config or flag value to a level. Unrecognized values
// fall back to info.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "debug", "DEBUG":
		return LogLevelDebug
	case "info", "INFO":
		return LogLevelInfo
	case "warn", "WARN", "warning", "WARNING":
		return LogLevelWarn
	case "error", "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger is the leveled logger shared by the store, the lifecycle
// controller, and the application wiring. Component-scoped children from
// WithComponent write through the parent's output behind one mutex, so
// lines from different subsystems never interleave.
type Logger struct {
	mu        *sync.Mutex
	level     LogLevel
	output    io.Writer
	prefix    string
	component string
}

// LoggerConfig configures a root logger.
type LoggerConfig struct {
	// Level is the minimum level written.
	Level LogLevel

	// Output defaults to os.Stderr.
	Output io.Writer

	// Prefix names the process in every line.
	Prefix string
}

// NewLogger creates a root logger.
func NewLogger(cfg LoggerConfig) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	return &Logger{
		mu:     &sync.Mutex{},
		level:  cfg.Level,
		output: cfg.Output,
		prefix: cfg.Prefix,
	}
}

// WithComponent returns a child logger tagging every line with the
// subsystem name. The child shares the parent's level, output, and write
// lock.
func (l *Logger) WithComponent(component string) *Logger {
	child := *l
	child.component = component
	return &child
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(LogLevelDebug, msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	l.log(LogLevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(LogLevelWarn, msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.log(LogLevelError, msg, args...)
}

func (l *Logger) log(level LogLevel, msg string, args ...any) {
	if level < l.level {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	name := l.prefix
	if l.component != "" {
		name = l.prefix + "/" + l.component
	}
	line := fmt.Sprintf("%s [%s] %s: %s\n",
		time.Now().Format("2006-01-02T15:04:05.000"), level, name, msg)

	l.mu.Lock()
	_, _ = l.output.Write([]byte(line))
	l.mu.Unlock()
}
