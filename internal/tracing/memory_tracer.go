package tracing

import (
	"bytes"
	"sync"
)

// MemoryTracer keeps events in memory, for tests
type MemoryTracer struct {
	events []Event
	buffer *bytes.Buffer
	level  Level
	mu     sync.Mutex
}

// NewMemoryTracer creates a MemoryTracer recording everything up to debug
func NewMemoryTracer() *MemoryTracer {
	return &MemoryTracer{
		buffer: &bytes.Buffer{},
		level:  LevelDebug,
	}
}

// Trace stores the event and its formatted line
func (t *MemoryTracer) Trace(event Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if event.Level > t.level {
		return nil
	}

	t.events = append(t.events, event)
	t.buffer.WriteString(formatEventLine(event))
	t.buffer.WriteString("\n")
	return nil
}

// Events returns a copy of the recorded events
func (t *MemoryTracer) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}

// Operations returns the operation of every recorded event, in order
func (t *MemoryTracer) Operations() []Operation {
	t.mu.Lock()
	defer t.mu.Unlock()

	ops := make([]Operation, len(t.events))
	for i, e := range t.events {
		ops[i] = e.Operation
	}
	return ops
}

// GetOutput returns the formatted lines recorded so far
func (t *MemoryTracer) GetOutput() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.buffer.String()
}

// Clear drops everything recorded so far
func (t *MemoryTracer) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.events = nil
	t.buffer.Reset()
}

// Flush does nothing for memory tracer
func (t *MemoryTracer) Flush() error {
	return nil
}

// Close does nothing for memory tracer
func (t *MemoryTracer) Close() error {
	return nil
}

// SetLevel sets the most verbose level that is still recorded
func (t *MemoryTracer) SetLevel(level Level) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.level = level
}
