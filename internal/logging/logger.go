// Package logging provides the levelled key/value logger used for all
// diagnostics. Output goes to stderr so stdout stays a clean text stream.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Logger writes levelled messages with trailing key=value pairs.
type Logger struct {
	logger *log.Logger
	debug  bool
}

// New creates a logger writing to w. Debug messages are dropped unless debug is set.
func New(w io.Writer, debug bool) *Logger {
	return &Logger{
		logger: log.New(w, "", log.Ldate|log.Ltime),
		debug:  debug,
	}
}

// NewFromEnv creates a stderr logger; PDFOCR_LOG_LEVEL=debug enables debug output.
func NewFromEnv() *Logger {
	return New(os.Stderr, strings.EqualFold(os.Getenv("PDFOCR_LOG_LEVEL"), "debug"))
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, false)
}

// Info logs an informational message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV("INFO", msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV("WARN", msg, keysAndValues...)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV("ERROR", msg, keysAndValues...)
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	if !l.debug {
		return
	}
	l.logWithKV("DEBUG", msg, keysAndValues...)
}

// Block writes a multi-line text block verbatim, without level or timestamp.
// Used for OCR previews.
func (l *Logger) Block(text string) {
	w := l.logger.Writer()
	if strings.HasSuffix(text, "\n") {
		fmt.Fprint(w, text)
		return
	}
	fmt.Fprintln(w, text)
}

func (l *Logger) logWithKV(level, msg string, keysAndValues ...interface{}) {
	var kv strings.Builder
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&kv, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	l.logger.Printf("[%s] %s%s", level, msg, kv.String())
}
