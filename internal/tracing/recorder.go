package tracing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Recorder stamps events with a session ID and forwards them to a Tracer
type Recorder struct {
	tracer    Tracer
	sessionID string
	now       func() time.Time
}

// NewRecorder wraps tracer; a nil tracer records nothing
func NewRecorder(tracer Tracer) *Recorder {
	if tracer == nil {
		tracer = NewNoopTracer()
	}
	return &Recorder{
		tracer:    tracer,
		sessionID: uuid.NewString(),
		now:       time.Now,
	}
}

// SessionID identifies every event recorded during this process
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// Record sends one event
func (r *Recorder) Record(component Component, op Operation, level Level, objectID, message string, metadata map[string]interface{}) {
	_ = r.tracer.Trace(Event{
		Timestamp: r.now(),
		SessionID: r.sessionID,
		Component: component,
		Operation: op,
		Level:     level,
		ObjectID:  objectID,
		Message:   message,
		Metadata:  metadata,
	})
}

// Info records an informational event
func (r *Recorder) Info(component Component, op Operation, format string, args ...interface{}) {
	r.Record(component, op, LevelInfo, "", fmt.Sprintf(format, args...), nil)
}

// Error records a failed operation
func (r *Recorder) Error(component Component, op Operation, err error) {
	r.Record(component, op, LevelError, "", err.Error(), nil)
}

// Flush flushes the underlying tracer
func (r *Recorder) Flush() error {
	return r.tracer.Flush()
}

// Close closes the underlying tracer
func (r *Recorder) Close() error {
	return r.tracer.Close()
}
