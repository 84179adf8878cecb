package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"countrydb/internal/country"
)

// Columns maps each record field to its header name in the CSV file
type Columns struct {
	Name       string `yaml:"name"`
	Continent  string `yaml:"continent"`
	Population string `yaml:"population"`
	Area       string `yaml:"area"`
}

// DefaultColumns is the header written for new datasets
func DefaultColumns() Columns {
	return Columns{
		Name:       country.FieldName,
		Continent:  country.FieldContinent,
		Population: country.FieldPopulation,
		Area:       country.FieldArea,
	}
}

// Header returns the header row in field order
func (c Columns) Header() []string {
	return []string{c.Name, c.Continent, c.Population, c.Area}
}

// byField returns field key -> header name
func (c Columns) byField() map[string]string {
	return map[string]string{
		country.FieldName:       c.Name,
		country.FieldContinent:  c.Continent,
		country.FieldPopulation: c.Population,
		country.FieldArea:       c.Area,
	}
}

// csvLayout is the header of a dataset file and where each field lives in it
type csvLayout struct {
	header    []string
	positions map[string]int // field key -> column index
}

// row places record at the layout's positions. Columns not mapped to a
// field take their value from extra, or stay empty.
func (l *csvLayout) row(record country.Country, extra []string) []string {
	out := make([]string, len(l.header))
	copy(out, extra)
	values := record.Fields()
	for key, pos := range l.positions {
		out[pos] = values[key]
	}
	return out
}

// CSVBackend stores the dataset as a delimited text file with a header row.
// Files may order their columns freely and carry columns of their own; both
// survive appends and rewrites.
type CSVBackend struct {
	path    string
	columns Columns
	layout  *csvLayout            // Header seen by the last Load or write
	extra   map[string][][]string // Raw rows by country name, for unmapped columns
	lines   []int                 // File line of each loaded row
	mu      sync.Mutex
}

// NewCSVBackend creates a CSV backend for path using the given header names
func NewCSVBackend(path string, columns Columns) *CSVBackend {
	return &CSVBackend{
		path:    path,
		columns: columns,
	}
}

// Name returns "csv"
func (b *CSVBackend) Name() string {
	return "csv"
}

// Open makes sure the dataset directory exists
func (b *CSVBackend) Open() error {
	dir := filepath.Dir(b.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory for dataset: %w", err)
		}
	}
	return nil
}

// Load reads every data row. Columns are matched by header name, ignoring
// case and surrounding spaces; extra columns are remembered for rewrites.
// A missing or empty file wraps ErrNotFound.
func (b *CSVBackend) Load() ([]country.Fields, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	file, err := os.Open(b.path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, b.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	reader := newCSVReader(file)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s is empty", ErrNotFound, b.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	layout, err := b.newLayout(header)
	if err != nil {
		return nil, err
	}

	rows := make([]country.Fields, 0)
	lines := make([]int, 0)
	extra := make(map[string][][]string)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		fields := country.Fields{}
		var parseErr *csv.ParseError
		if err != nil && !errors.As(err, &parseErr) {
			return nil, fmt.Errorf("failed to read dataset: %w", err)
		}
		// An unparsable line still occupies its row so diagnostics keep positions
		if err != nil {
			lines = append(lines, parseErr.StartLine)
		} else {
			line, _ := reader.FieldPos(0)
			lines = append(lines, line)
			for key, pos := range layout.positions {
				if pos < len(record) {
					fields[key] = record[pos]
				}
			}
			name := strings.TrimSpace(fields[country.FieldName])
			extra[name] = append(extra[name], record)
		}
		rows = append(rows, fields)
	}

	b.layout = layout
	b.extra = extra
	b.lines = lines
	return rows, nil
}

// RowLine returns the file line on which loaded row index starts, or 0 if
// it is not known
func (b *CSVBackend) RowLine(index int) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index < 0 || index >= len(b.lines) {
		return 0
	}
	return b.lines[index]
}

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// newLayout checks that header names every configured column
func (b *CSVBackend) newLayout(header []string) (*csvLayout, error) {
	header = append([]string(nil), header...)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	positions, err := b.headerPositions(header)
	if err != nil {
		return nil, err
	}
	return &csvLayout{header: header, positions: positions}, nil
}

// defaultLayout is the layout of files this backend creates
func (b *CSVBackend) defaultLayout() *csvLayout {
	positions := make(map[string]int, len(country.FieldOrder))
	for i, key := range country.FieldOrder {
		positions[key] = i
	}
	return &csvLayout{header: b.columns.Header(), positions: positions}
}

// fileLayout reads the header of the dataset file. A missing or empty file
// has the default layout.
func (b *CSVBackend) fileLayout() (*csvLayout, error) {
	file, err := os.Open(b.path)
	if os.IsNotExist(err) {
		return b.defaultLayout(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	header, err := newCSVReader(file).Read()
	if errors.Is(err, io.EOF) {
		return b.defaultLayout(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	return b.newLayout(header)
}

// headerPositions resolves every field to its column index
func (b *CSVBackend) headerPositions(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}

	positions := make(map[string]int, 4)
	var missing []string
	for key, name := range b.columns.byField() {
		pos, ok := index[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			missing = append(missing, name)
			continue
		}
		positions[key] = pos
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("malformed header %q: missing columns %s", strings.Join(header, ","), strings.Join(missing, ", "))
	}
	return positions, nil
}

// Create writes a file holding only the configured header row
func (b *CSVBackend) Create() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.layout = b.defaultLayout()
	return b.rewriteLocked(nil)
}

// AppendRow appends one line laid out by the file's header, creating the
// file if needed
func (b *CSVBackend) AppendRow(record country.Country) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	layout, err := b.fileLayout()
	if err != nil {
		return err
	}
	b.layout = layout

	if st, err := os.Stat(b.path); os.IsNotExist(err) || (err == nil && st.Size() == 0) {
		return b.rewriteLocked([]country.Country{record})
	}

	file, err := os.OpenFile(b.path, os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open dataset for append: %w", err)
	}
	defer file.Close()

	// A hand-edited file may lack its final newline
	if needsNewline(file) {
		if _, err := file.WriteString("\n"); err != nil {
			return fmt.Errorf("failed to append to dataset: %w", err)
		}
	}

	w := csv.NewWriter(file)
	if err := w.Write(layout.row(record, nil)); err != nil {
		return fmt.Errorf("failed to append to dataset: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to append to dataset: %w", err)
	}
	return nil
}

// RewriteAll writes header and records to a temp file, then renames it over
// the dataset so readers never see a half-written file. The header is the
// one last loaded; unmapped columns keep the values of the loaded row with
// the same country name.
func (b *CSVBackend) RewriteAll(records []country.Country) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.layout == nil {
		layout, err := b.fileLayout()
		if err != nil {
			return err
		}
		b.layout = layout
	}
	return b.rewriteLocked(records)
}

func (b *CSVBackend) rewriteLocked(records []country.Country) error {
	layout := b.layout
	if layout == nil {
		layout = b.defaultLayout()
	}

	pending := make(map[string][][]string, len(b.extra))
	for name, raw := range b.extra {
		pending[name] = raw
	}
	rows := make([][]string, 0, len(records))
	kept := make(map[string][][]string, len(records))
	for _, r := range records {
		var extra []string
		if raw := pending[r.Name]; len(raw) > 0 {
			extra, pending[r.Name] = raw[0], raw[1:]
		}
		row := layout.row(r, extra)
		rows = append(rows, row)
		kept[r.Name] = append(kept[r.Name], row)
	}

	dir, base := filepath.Split(b.path)
	tempFile := filepath.Join(dir, "."+base+"."+uuid.NewString()+".tmp")

	file, err := os.OpenFile(tempFile, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temp dataset: %w", err)
	}

	if err := writeRows(file, layout.header, rows); err != nil {
		file.Close()
		os.Remove(tempFile)
		return err
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempFile)
		return fmt.Errorf("failed to sync temp dataset: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close temp dataset: %w", err)
	}

	if err := os.Rename(tempFile, b.path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to save dataset: %w", err)
	}

	b.layout = layout
	b.extra = kept
	return nil
}

func writeRows(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	return nil
}

// needsNewline reports whether a non-empty file does not end in '\n'
func needsNewline(file *os.File) bool {
	info, err := file.Stat()
	if err != nil || info.Size() == 0 {
		return false
	}
	last := make([]byte, 1)
	if _, err := file.ReadAt(last, info.Size()-1); err != nil {
		return false
	}
	return last[0] != '\n'
}

// Close is a no-op; files are opened per operation
func (b *CSVBackend) Close() error {
	return nil
}

// Info provides information about the CSV backend
func (b *CSVBackend) Info() (map[string]string, error) {
	b.mu.Lock()
	header := b.columns.Header()
	if b.layout != nil {
		header = b.layout.header
	}
	b.mu.Unlock()

	info := map[string]string{
		"implementation": "CSVBackend",
		"file_path":      b.path,
		"file_name":      filepath.Base(b.path),
		"header":         strings.Join(header, ","),
	}

	if st, err := os.Stat(b.path); err == nil {
		info["file_size"] = fmt.Sprintf("%d", st.Size())
	}
	return info, nil
}
