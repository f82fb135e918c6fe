// Package logging writes leveled log lines as plain text or JSON.
//
// Debug and info lines go to the standard writer, warnings and errors to
// the error writer. A nil *Logger discards everything.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel converts a level name such as "info" or "WARN".
func ParseLevel(s string) (Level, error) {
	for l, name := range levelNames {
		if strings.EqualFold(s, name) {
			return l, nil
		}
	}
	if strings.EqualFold(s, "warning") {
		return LevelWarn, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q (expected debug, info, warn or error)", s)
}

// Entry is a single log line in JSON format.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// Logger writes log lines at or above its level.
type Logger struct {
	stdout io.Writer
	stderr io.Writer
	format string // "json" or "text"
	level  Level
	now    func() time.Time
}

// New creates a logger. format is "text" (the default) or "json".
func New(stdout, stderr io.Writer, format string, level Level) *Logger {
	if format == "" {
		format = "text"
	}
	if stderr == nil {
		stderr = stdout
	}
	return &Logger{
		stdout: stdout,
		stderr: stderr,
		format: format,
		level:  level,
		now:    time.Now,
	}
}

// Debugf logs a debug message.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Infof logs an informational message.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Warnf logs a warning message.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Errorf logs an error message.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if l == nil || level < l.level {
		return
	}
	out := l.stdout
	if level >= LevelWarn {
		out = l.stderr
	}
	if out == nil {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if l.format == "json" {
		data, err := json.Marshal(Entry{
			Timestamp: l.now().Format(time.RFC3339),
			Level:     strings.ToLower(level.String()),
			Message:   msg,
		})
		if err != nil {
			return
		}
		fmt.Fprintf(out, "%s\n", data)
		return
	}
	fmt.Fprintf(out, "[%s] %s\n", level, msg)
}
