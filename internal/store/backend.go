package store

import (
	"errors"
	"fmt"

	"countrydb/internal/country"
)

// ErrNotFound is returned by Backend.Load when the dataset does not exist yet
var ErrNotFound = errors.New("dataset not found")

// Backend persists the records owned by a Store
type Backend interface {
	// Name is the short implementation name used in logs
	Name() string

	// Open opens files or connections
	Open() error

	// Load reads every raw row in order; the error wraps ErrNotFound when
	// the dataset does not exist
	Load() ([]country.Fields, error)

	// Create creates an empty dataset
	Create() error

	// AppendRow adds one record at the end
	AppendRow(record country.Country) error

	// RewriteAll replaces the whole dataset
	RewriteAll(records []country.Country) error

	// Close releases files or connections
	Close() error

	// Info provides implementation specific information
	Info() (map[string]string, error)
}

// LineLocator is implemented by backends that know on which line of their
// source each loaded row starts
type LineLocator interface {
	// RowLine returns the 1-based line of row index from the last Load,
	// or 0 if it is not known
	RowLine(index int) int
}

// PersistenceError reports a failure of the backing storage
type PersistenceError struct {
	Op      string // open, load, create, append, rewrite
	Backend string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s backend: %s failed: %v", e.Backend, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
