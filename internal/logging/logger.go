package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Logger is a thin wrapper around slog with a one-line text format
type Logger struct {
	Logger *slog.Logger // Capitalized for direct access
	writer io.Writer
}

// Process-wide logger, set once at startup
var defaultLogger *Logger

// Init sets the default logger
func Init(logger *Logger) {
	defaultLogger = logger
}

// Get returns the default logger, falling back to the console
func Get() *Logger {
	if defaultLogger == nil {
		defaultLogger = Console(slog.LevelInfo)
	}
	return defaultLogger
}

// ParseLevel converts a config level name to a slog.Level.
// Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// lineHandler writes "time LEVEL file:line message [k=v, ...]"
type lineHandler struct {
	level     slog.Level
	addSource bool
	attrs     []slog.Attr
	w         io.Writer
}

// Enabled reports whether the handler handles records at the given level
func (h *lineHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle formats a log record and writes it to the output
func (h *lineHandler) Handle(ctx context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Time.Format("2006-01-02 15:04:05Z07:00"))
	b.WriteByte(' ')
	b.WriteString(r.Level.String())

	if h.addSource {
		file, line := "???", 0
		if r.PC != 0 {
			frames := runtime.CallersFrames([]uintptr{r.PC})
			frame, _ := frames.Next()
			file = filepath.Base(frame.File)
			line = frame.Line
		}
		fmt.Fprintf(&b, " %s:%d", file, line)
	}

	b.WriteByte(' ')
	b.WriteString(r.Message)

	attrs := make([]string, 0, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs = appendAttr(attrs, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs = appendAttr(attrs, a)
		return true
	})
	if len(attrs) > 0 {
		b.WriteString(" [" + strings.Join(attrs, ", ") + "]")
	}
	b.WriteByte('\n')

	_, err := io.WriteString(h.w, b.String())
	return err
}

func appendAttr(attrs []string, a slog.Attr) []string {
	if a.Key == "" || a.Value.String() == "" {
		return attrs
	}
	return append(attrs, fmt.Sprintf("%s=%s", a.Key, a.Value.String()))
}

// WithAttrs returns a handler that prefixes attrs to every record
func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

// WithGroup is not supported; groups are flattened away
func (h *lineHandler) WithGroup(name string) slog.Handler {
	return h
}

// New creates a logger writing to w
func New(w io.Writer, level slog.Level, addSource bool) *Logger {
	return &Logger{
		Logger: slog.New(&lineHandler{level: level, addSource: addSource, w: w}),
		writer: w,
	}
}

// File creates a logger writing to filename, creating its directory.
// Falls back to stderr if the file cannot be opened.
func File(filename string, append bool, level slog.Level) *Logger {
	flag := os.O_CREATE | os.O_WRONLY
	if append {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}

	if dir := filepath.Dir(filename); dir != "." {
		_ = os.MkdirAll(dir, 0755)
	}

	file, err := os.OpenFile(filename, flag, 0644)
	if err != nil {
		return New(os.Stderr, level, true)
	}
	return New(file, level, true)
}

// Console creates a logger that writes to stderr
func Console(level slog.Level) *Logger {
	return New(os.Stderr, level, true)
}

// DevNull creates a logger that discards all output
func DevNull() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		writer: io.Discard,
	}
}

// With returns a logger carrying extra attributes
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), writer: l.writer}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

// log records the caller of the exported method as the source
func (l *Logger) log(level slog.Level, msg string, args ...any) {
	ctx := context.Background()
	if !l.Logger.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // skip Callers, log and the level method
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.Logger.Handler().Handle(ctx, r)
}

// Close closes the underlying file, if any
func (l *Logger) Close() error {
	if l.writer == os.Stderr || l.writer == os.Stdout {
		return nil
	}
	if closer, ok := l.writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
