package store

import (
	"fmt"
	"sync"

	"countrydb/internal/country"
)

// MemoryBackend keeps rows in process memory. It backs the "memory" backend
// kind and the tests.
type MemoryBackend struct {
	rows   []country.Fields
	exists bool
	fail   error
	mu     sync.RWMutex
}

// NewMemoryBackend creates a backend whose dataset does not exist yet
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// NewMemoryBackendWithRows creates an existing dataset holding rows
func NewMemoryBackendWithRows(rows ...country.Fields) *MemoryBackend {
	b := &MemoryBackend{exists: true}
	for _, r := range rows {
		b.rows = append(b.rows, copyFields(r))
	}
	return b
}

// FailWith makes every later write return err; nil clears it
func (b *MemoryBackend) FailWith(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.fail = err
}

// Name returns "memory"
func (b *MemoryBackend) Name() string {
	return "memory"
}

// Open is a no-op
func (b *MemoryBackend) Open() error {
	return nil
}

// Load returns a copy of the stored rows
func (b *MemoryBackend) Load() ([]country.Fields, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.exists {
		return nil, fmt.Errorf("%w: memory dataset", ErrNotFound)
	}
	return b.copyRows(), nil
}

// Create marks the dataset as existing and empty
func (b *MemoryBackend) Create() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fail != nil {
		return b.fail
	}
	b.exists = true
	b.rows = nil
	return nil
}

// AppendRow stores the record as a raw row
func (b *MemoryBackend) AppendRow(record country.Country) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fail != nil {
		return b.fail
	}
	b.exists = true
	b.rows = append(b.rows, record.Fields())
	return nil
}

// RewriteAll replaces every row
func (b *MemoryBackend) RewriteAll(records []country.Country) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fail != nil {
		return b.fail
	}
	rows := make([]country.Fields, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Fields())
	}
	b.exists = true
	b.rows = rows
	return nil
}

// Rows returns a copy of the stored rows
func (b *MemoryBackend) Rows() []country.Fields {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.copyRows()
}

// Close is a no-op
func (b *MemoryBackend) Close() error {
	return nil
}

// Info provides information about the memory backend
func (b *MemoryBackend) Info() (map[string]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return map[string]string{
		"implementation": "MemoryBackend",
		"row_count":      fmt.Sprintf("%d", len(b.rows)),
	}, nil
}

func (b *MemoryBackend) copyRows() []country.Fields {
	out := make([]country.Fields, 0, len(b.rows))
	for _, r := range b.rows {
		out = append(out, copyFields(r))
	}
	return out
}

func copyFields(f country.Fields) country.Fields {
	out := make(country.Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
