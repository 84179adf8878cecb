package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"countrydb/internal/country"
)

//go:embed sqlite_schema.sql
var sqliteSchema string

// sqliteSchemaVersion is stored in PRAGMA user_version
const sqliteSchemaVersion = 1

const (
	sqlSelectDataset  = `SELECT COUNT(*) FROM dataset`
	sqlInsertDataset  = `INSERT OR IGNORE INTO dataset (id, created_at) VALUES (1, ?)`
	sqlSelectRows     = `SELECT name, continent, population, area FROM countries ORDER BY position`
	sqlDeleteRows     = `DELETE FROM countries`
	sqlInsertRow      = `INSERT INTO countries (position, name, continent, population, area) VALUES (?, ?, ?, ?, ?)`
	sqlAppendRow      = `INSERT INTO countries (position, name, continent, population, area) SELECT COALESCE(MAX(position), -1) + 1, ?, ?, ?, ? FROM countries`
	sqlCountRows      = `SELECT COUNT(*) FROM countries`
	sqlSelectUserVers = `PRAGMA user_version`
)

// SQLiteBackend stores the dataset in a single-file SQLite database
type SQLiteBackend struct {
	path string
	db   *sql.DB
}

// NewSQLiteBackend creates a backend for the database at path
func NewSQLiteBackend(path string) *SQLiteBackend {
	return &SQLiteBackend{path: path}
}

// Name returns "sqlite"
func (b *SQLiteBackend) Name() string {
	return "sqlite"
}

// Open creates or opens the database and applies pragmas and schema.
// It is safe to call more than once.
func (b *SQLiteBackend) Open() error {
	if b.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite3", b.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", sqliteSchemaVersion)); err != nil {
		db.Close()
		return fmt.Errorf("set user_version: %w", err)
	}

	b.db = db
	return nil
}

// Load reads every row ordered by position. The dataset exists once Create
// or a write has run.
func (b *SQLiteBackend) Load() ([]country.Fields, error) {
	if b.db == nil {
		return nil, fmt.Errorf("database not open")
	}

	var marked int
	if err := b.db.QueryRow(sqlSelectDataset).Scan(&marked); err != nil {
		return nil, fmt.Errorf("failed to check dataset: %w", err)
	}
	if marked == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, b.path)
	}

	rows, err := b.db.Query(sqlSelectRows)
	if err != nil {
		return nil, fmt.Errorf("failed to query countries: %w", err)
	}
	defer rows.Close()

	out := make([]country.Fields, 0)
	for rows.Next() {
		var (
			name, continent string
			population      int64
			area            float64
		)
		if err := rows.Scan(&name, &continent, &population, &area); err != nil {
			return nil, fmt.Errorf("failed to scan country: %w", err)
		}
		out = append(out, country.Fields{
			country.FieldName:       name,
			country.FieldContinent:  continent,
			country.FieldPopulation: strconv.FormatInt(population, 10),
			country.FieldArea:       country.FormatArea(area),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read countries: %w", err)
	}

	return out, nil
}

// Create marks the dataset as existing
func (b *SQLiteBackend) Create() error {
	if b.db == nil {
		return fmt.Errorf("database not open")
	}
	if _, err := b.db.Exec(sqlInsertDataset, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}
	return nil
}

// AppendRow inserts the record after the current last position
func (b *SQLiteBackend) AppendRow(record country.Country) error {
	if b.db == nil {
		return fmt.Errorf("database not open")
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if _, err := tx.Exec(sqlInsertDataset, time.Now().UTC().Format(time.RFC3339)); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create dataset: %w", err)
	}

	if _, err := tx.Exec(sqlAppendRow, record.Name, record.Continent, record.Population, record.Area); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert country: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit append: %w", err)
	}
	return nil
}

// RewriteAll replaces every row in one transaction
func (b *SQLiteBackend) RewriteAll(records []country.Country) error {
	if b.db == nil {
		return fmt.Errorf("database not open")
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if _, err := tx.Exec(sqlInsertDataset, time.Now().UTC().Format(time.RFC3339)); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create dataset: %w", err)
	}

	if _, err := tx.Exec(sqlDeleteRows); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear countries: %w", err)
	}

	stmt, err := tx.Prepare(sqlInsertRow)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.Exec(i, r.Name, r.Continent, r.Population, r.Area); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert country %q: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rewrite: %w", err)
	}
	return nil
}

// Close closes the database connection
func (b *SQLiteBackend) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// Info provides information about the SQLite backend
func (b *SQLiteBackend) Info() (map[string]string, error) {
	info := map[string]string{
		"implementation": "SQLiteBackend",
		"file_path":      b.path,
	}
	if b.db == nil {
		return info, nil
	}

	var count, version int
	if err := b.db.QueryRow(sqlCountRows).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count countries: %w", err)
	}
	if err := b.db.QueryRow(sqlSelectUserVers).Scan(&version); err != nil {
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}
	info["row_count"] = strconv.Itoa(count)
	info["schema_version"] = strconv.Itoa(version)
	return info, nil
}
