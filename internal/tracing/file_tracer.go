package tracing

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultBufferSize is the default size in bytes before flushing (4KB)
const DefaultBufferSize = 4 * 1024

// DefaultFlushInterval is the default time interval between flushes
const DefaultFlushInterval = 5 * time.Second

// FileTracer appends events to a file through a buffer flushed by size or timer
type FileTracer struct {
	file          *os.File
	buffer        *bytes.Buffer
	bufferSize    int
	flushInterval time.Duration
	timer         *time.Timer
	level         Level
	mu            sync.Mutex
}

// FileTracerOptions contains options for creating a FileTracer
type FileTracerOptions struct {
	FilePath      string
	Append        bool
	BufferSize    int
	FlushInterval time.Duration
	Level         Level
}

// DefaultFileTracerOptions returns the default options for FileTracer
func DefaultFileTracerOptions() FileTracerOptions {
	return FileTracerOptions{
		FilePath:      "data/trace.log",
		Append:        true,
		BufferSize:    DefaultBufferSize,
		FlushInterval: DefaultFlushInterval,
		Level:         LevelInfo,
	}
}

// FileTracerOptionFunc configures FileTracerOptions
type FileTracerOptionFunc func(*FileTracerOptions)

// WithFilePath sets the file path for the tracer
func WithFilePath(path string) FileTracerOptionFunc {
	return func(o *FileTracerOptions) {
		o.FilePath = path
	}
}

// WithFlushInterval sets the flush interval
func WithFlushInterval(interval time.Duration) FileTracerOptionFunc {
	return func(o *FileTracerOptions) {
		o.FlushInterval = interval
	}
}

// WithLevel sets the trace level
func WithLevel(level Level) FileTracerOptionFunc {
	return func(o *FileTracerOptions) {
		o.Level = level
	}
}

// NewFileTracerWithOptions creates a file tracer from the defaults plus opts
func NewFileTracerWithOptions(opts ...FileTracerOptionFunc) (*FileTracer, error) {
	options := DefaultFileTracerOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return NewFileTracer(options)
}

// NewFileTracer opens (or creates) the trace file and starts the flush timer
func NewFileTracer(options FileTracerOptions) (*FileTracer, error) {
	if dir := filepath.Dir(options.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for trace file: %w", err)
		}
	}

	flag := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}

	file, err := os.OpenFile(options.FilePath, flag, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	if options.BufferSize <= 0 {
		options.BufferSize = DefaultBufferSize
	}
	if options.FlushInterval <= 0 {
		options.FlushInterval = DefaultFlushInterval
	}

	tracer := &FileTracer{
		file:          file,
		buffer:        bytes.NewBuffer(make([]byte, 0, options.BufferSize)),
		bufferSize:    options.BufferSize,
		flushInterval: options.FlushInterval,
		level:         options.Level,
	}

	tracer.mu.Lock()
	tracer.resetTimerLocked()
	tracer.mu.Unlock()

	return tracer, nil
}

// resetTimerLocked re-arms the flush timer (lock must be held)
func (t *FileTracer) resetTimerLocked() {
	if t.timer != nil {
		t.timer.Stop()
	}

	t.timer = time.AfterFunc(t.flushInterval, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.file == nil {
			return
		}
		_ = t.flushLocked()
		t.resetTimerLocked()
	})
}

// Trace buffers the event if it meets the level threshold
func (t *FileTracer) Trace(event Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil || event.Level > t.level {
		return nil
	}

	if _, err := t.buffer.WriteString(formatEventLine(event) + "\n"); err != nil {
		return err
	}

	if t.buffer.Len() >= t.bufferSize {
		return t.flushLocked()
	}
	return nil
}

// flushLocked writes the buffer to the file (lock must be held)
func (t *FileTracer) flushLocked() error {
	if t.buffer.Len() > 0 {
		_, err := t.buffer.WriteTo(t.file)
		return err
	}
	return nil
}

// Flush forces the buffer to be written to the file
func (t *FileTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil {
		return nil
	}
	return t.flushLocked()
}

// Close flushes the buffer and closes the file
func (t *FileTracer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil {
		return nil
	}

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}

	if err := t.flushLocked(); err != nil {
		return err
	}

	err := t.file.Close()
	t.file = nil
	return err
}

// SetLevel sets the most verbose level that is still recorded
func (t *FileTracer) SetLevel(level Level) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.level = level
}
