package store

import (
	"errors"
	"strconv"
	"sync"

	"countrydb/internal/country"
	"countrydb/internal/logging"
	"countrydb/internal/tracing"
)

// Diagnostic describes a raw row that was skipped on load
type Diagnostic struct {
	Index      int   // 0-based position among the loaded rows
	SourceLine int   // Line where the row starts in its file, 0 if unknown
	Err        error // Why the row was rejected
}

// Row returns the 1-based data row number, header excluded
func (d Diagnostic) Row() int {
	return d.Index + 1
}

// Line returns the 1-based file line, counting the header. Without a
// SourceLine it assumes one line per row.
func (d Diagnostic) Line() int {
	if d.SourceLine > 0 {
		return d.SourceLine
	}
	return d.Index + 2
}

// LoadReport summarizes Store.Open
type LoadReport struct {
	Loaded  int          // Records kept
	Skipped []Diagnostic // Rows rejected by the parser
	Created bool         // The dataset did not exist and was created empty
}

// Load parses raw rows into records. Invalid rows are skipped and reported;
// a bad row never fails the whole load.
func Load(rows []country.Fields) ([]country.Country, []Diagnostic) {
	records := make([]country.Country, 0, len(rows))
	var diags []Diagnostic

	for i, row := range rows {
		c, err := country.ParseRecord(row)
		if err != nil {
			diags = append(diags, Diagnostic{Index: i, Err: err})
			continue
		}
		records = append(records, c)
	}

	return records, diags
}

// Store owns the ordered, in-memory list of countries and keeps its
// backend in step with every mutation
type Store struct {
	backend  Backend
	records  []country.Country
	logger   *logging.Logger
	recorder *tracing.Recorder
	mu       sync.RWMutex
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for diagnostics
func WithLogger(logger *logging.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithTracer records the audit trail to tracer under a new session
func WithTracer(tracer tracing.Tracer) Option {
	return func(s *Store) {
		s.recorder = tracing.NewRecorder(tracer)
	}
}

// WithRecorder sets the audit trail recorder, sharing its session
func WithRecorder(recorder *tracing.Recorder) Option {
	return func(s *Store) {
		s.recorder = recorder
	}
}

// New creates an empty store bound to backend
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		records: make([]country.Country, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Get()
	}
	if s.recorder == nil {
		s.recorder = tracing.NewRecorder(nil)
	}
	return s
}

// Open loads the dataset from the backend.
//
// A missing dataset is created empty. Any other failure returns a
// PersistenceError and leaves the store empty but usable.
func (s *Store) Open() (LoadReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make([]country.Country, 0)
	name := s.backend.Name()

	if err := s.backend.Open(); err != nil {
		return LoadReport{}, s.fail("open", err)
	}

	rows, err := s.backend.Load()
	if errors.Is(err, ErrNotFound) {
		s.logger.Warn("Dataset not found, creating it", "backend", name)
		if err := s.backend.Create(); err != nil {
			return LoadReport{}, s.fail("create", err)
		}
		s.recorder.Info(tracing.ComponentStore, tracing.OperationCreate, "created empty %s dataset", name)
		return LoadReport{Created: true}, nil
	}
	if err != nil {
		return LoadReport{}, s.fail("load", err)
	}

	records, diags := Load(rows)
	if loc, ok := s.backend.(LineLocator); ok {
		for i := range diags {
			diags[i].SourceLine = loc.RowLine(diags[i].Index)
		}
	}
	for _, d := range diags {
		s.logger.Warn("Skipping invalid row", "backend", name, "row", d.Row(), "line", d.Line(), "error", d.Err)
		s.recorder.Record(tracing.ComponentStore, tracing.OperationSkip, tracing.LevelWarning,
			strconv.Itoa(d.Row()), d.Err.Error(), nil)
	}

	s.records = records
	s.logger.Info("Dataset loaded", "backend", name, "records", len(records), "skipped", len(diags))
	s.recorder.Info(tracing.ComponentStore, tracing.OperationLoad, "loaded %d records, skipped %d", len(records), len(diags))

	return LoadReport{Loaded: len(records), Skipped: diags}, nil
}

// Append persists record and adds it at the end of the list.
// If the backend fails the list is left unchanged.
func (s *Store) Append(record country.Country) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.AppendRow(record); err != nil {
		return s.fail("append", err)
	}

	s.records = append(s.records, record)
	s.recorder.Record(tracing.ComponentStore, tracing.OperationAppend, tracing.LevelInfo,
		strconv.Itoa(len(s.records)-1), record.Name, nil)
	return nil
}

// ReplaceAt overwrites the record at index and rewrites the whole dataset.
// If the rewrite fails the list is left unchanged.
func (s *Store) ReplaceAt(index int, record country.Country) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.records) {
		return &country.ValidationError{Field: "index", Value: strconv.Itoa(index), Message: "index out of range"}
	}

	next := make([]country.Country, len(s.records))
	copy(next, s.records)
	next[index] = record

	if err := s.backend.RewriteAll(next); err != nil {
		return s.fail("rewrite", err)
	}

	previous := s.records[index]
	s.records = next
	s.recorder.Record(tracing.ComponentStore, tracing.OperationReplace, tracing.LevelInfo,
		strconv.Itoa(index), record.Name, map[string]interface{}{"previous": previous.Name})
	return nil
}

// Records returns a copy of the current list
func (s *Store) Records() []country.Country {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]country.Country, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// At returns the record at index
func (s *Store) At(index int) (country.Country, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.records) {
		return country.Country{}, &country.ValidationError{Field: "index", Value: strconv.Itoa(index), Message: "index out of range"}
	}
	return s.records[index], nil
}

// Info merges store and backend information
func (s *Store) Info() (map[string]string, error) {
	info, err := s.backend.Info()
	if err != nil {
		return nil, err
	}
	if info == nil {
		info = make(map[string]string)
	}
	info["backend"] = s.backend.Name()
	info["loaded_count"] = strconv.Itoa(s.Len())
	return info, nil
}

// Close releases the backend
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.Close()
}

// fail wraps, logs and traces a backend failure (lock must be held)
func (s *Store) fail(op string, err error) error {
	perr := &PersistenceError{Op: op, Backend: s.backend.Name(), Err: err}
	s.logger.Error("Backend operation failed", "backend", perr.Backend, "op", op, "error", err)
	s.recorder.Error(tracing.ComponentStore, tracing.Operation(op), perr)
	return perr
}
