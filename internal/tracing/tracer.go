package tracing

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Component identifies the part of the system generating the event
type Component string

const (
	// ComponentStore identifies the record store and its backend
	ComponentStore Component = "store"
	// ComponentQuery identifies searches, filters, sorts and statistics
	ComponentQuery Component = "query"
	// ComponentMenu identifies the interactive menu
	ComponentMenu Component = "menu"
)

// Operation identifies what happened
type Operation string

const (
	OperationLoad    Operation = "load"
	OperationCreate  Operation = "create"
	OperationAppend  Operation = "append"
	OperationReplace Operation = "replace"
	OperationSkip    Operation = "skip"
	OperationSearch  Operation = "search"
	OperationFilter  Operation = "filter"
	OperationSort    Operation = "sort"
	OperationStats   Operation = "stats"
	OperationCommand Operation = "command"
)

// Level defines the verbosity of an event
type Level int

const (
	// LevelError only traces errors
	LevelError Level = iota
	// LevelWarning traces warnings and errors
	LevelWarning
	// LevelInfo traces general information, warnings, and errors
	LevelInfo
	// LevelDebug traces detailed information for debugging
	LevelDebug
)

// ParseLevel maps a config name to a Level; unknown names give LevelInfo
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "error":
		return LevelError
	case "warn", "warning":
		return LevelWarning
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// Event is one entry of the audit trail
type Event struct {
	Timestamp time.Time              `json:"timestamp"`
	SessionID string                 `json:"session_id,omitempty"`
	Component Component              `json:"component"`
	Operation Operation              `json:"operation"`
	Level     Level                  `json:"level"`
	ObjectID  string                 `json:"object_id,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Tracer receives audit events
type Tracer interface {
	// Trace records an event
	Trace(event Event) error

	// Flush forces any buffered data to be written
	Flush() error

	// Close flushes all data and closes the tracer
	Close() error

	// SetLevel sets the most verbose level that is still recorded
	SetLevel(level Level)
}

// NoopTracer drops every event
type NoopTracer struct{}

// NewNoopTracer creates a new NoopTracer
func NewNoopTracer() *NoopTracer {
	return &NoopTracer{}
}

func (t *NoopTracer) Trace(event Event) error { return nil }
func (t *NoopTracer) Flush() error            { return nil }
func (t *NoopTracer) Close() error            { return nil }
func (t *NoopTracer) SetLevel(level Level)    {}

// formatEventLine renders an event as a single JSON line
func formatEventLine(event Event) string {
	line := struct {
		Timestamp string                 `json:"timestamp"`
		SessionID string                 `json:"session_id,omitempty"`
		Component string                 `json:"component"`
		Operation string                 `json:"operation"`
		Level     int                    `json:"level"`
		ObjectID  string                 `json:"object_id,omitempty"`
		Message   string                 `json:"message,omitempty"`
		Metadata  map[string]interface{} `json:"metadata,omitempty"`
	}{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		SessionID: event.SessionID,
		Component: string(event.Component),
		Operation: string(event.Operation),
		Level:     int(event.Level),
		ObjectID:  sanitizeString(event.ObjectID),
		Message:   sanitizeString(event.Message),
		Metadata:  sanitizeMetadata(event.Metadata),
	}

	data, err := json.Marshal(line)
	if err != nil {
		return fmt.Sprintf("%s|%s|%s|%d|%s|%s",
			line.Timestamp, line.Component, line.Operation, line.Level, line.ObjectID, line.Message)
	}
	return string(data)
}

// sanitizeString flattens whitespace so an event always fits on one line.
// Non-ASCII letters are kept: country names routinely carry accents.
func sanitizeString(s string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case unicode.IsPrint(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// sanitizeMetadata applies sanitizeString to every string value, recursively
func sanitizeMetadata(metadata map[string]interface{}) map[string]interface{} {
	if metadata == nil {
		return nil
	}

	result := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		key := sanitizeString(k)
		switch val := v.(type) {
		case string:
			result[key] = sanitizeString(val)
		case map[string]interface{}:
			result[key] = sanitizeMetadata(val)
		default:
			result[key] = val
		}
	}
	return result
}
