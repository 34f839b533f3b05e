// Package log provides leveled, categorized logging for mdpane.
// Output goes to a file opened with tea.LogToFile so it never interferes with
// the alt-screen TUI. Logging is off until Init is called (--debug or
// MDPANE_DEBUG).
package log

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Category groups related log messages.
type Category string

const (
	CatConfig  Category = "config"  // Configuration loading
	CatFormat  Category = "format"  // Formatter engines and normalization
	CatPaste   Category = "paste"   // Clipboard reads and HTML conversion
	CatStorage Category = "storage" // Persisted editor content
	CatRender  Category = "render"  // Preview and HTML export
	CatUI      Category = "ui"      // TUI events
	CatWatch   Category = "watch"   // File watcher events
)

type logger struct {
	mu       sync.Mutex
	writer   io.Writer
	minLevel Level
}

var (
	mu      sync.RWMutex
	current *logger
)

// Init opens path for appending and enables logging at debug level.
// The returned function closes the log file.
func Init(path string) (func(), error) {
	f, err := tea.LogToFile(path, "mdpane")
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	set(&logger{writer: f, minLevel: LevelDebug})
	return func() {
		set(nil)
		_ = f.Close()
	}, nil
}

// SetOutput routes log entries to w, mainly for tests. A nil writer disables logging.
func SetOutput(w io.Writer) {
	if w == nil {
		set(nil)
		return
	}
	set(&logger{writer: w, minLevel: LevelDebug})
}

// SetMinLevel drops entries below level.
func SetMinLevel(level Level) {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l == nil {
		return
	}
	l.mu.Lock()
	l.minLevel = level
	l.mu.Unlock()
}

func set(l *logger) {
	mu.Lock()
	current = l
	mu.Unlock()
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	write(LevelDebug, cat, msg, fields...)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	write(LevelInfo, cat, msg, fields...)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	write(LevelWarn, cat, msg, fields...)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	write(LevelError, cat, msg, fields...)
}

// WarnErr logs a warning with the error value attached.
func WarnErr(cat Category, msg string, err error, fields ...any) {
	write(LevelWarn, cat, msg, append(fields, "error", errString(err))...)
}

// ErrorErr logs an error with the error value attached.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	write(LevelError, cat, msg, append(fields, "error", errString(err))...)
}

func errString(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}

func write(level Level, cat Category, msg string, fields ...any) {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.minLevel {
		return
	}

	// Format: 2026-10-14T10:45:00 [WARN] [paste] message key=value
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] [%s] %s", time.Now().Format("2006-01-02T15:04:05"), level, cat, msg)
	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&b, " %v=%v", fields[i], fields[i+1])
	}
	if len(fields)%2 != 0 {
		fmt.Fprintf(&b, " %v=<missing>", fields[len(fields)-1])
	}
	b.WriteByte('\n')
	_, _ = io.WriteString(l.writer, b.String())
}
