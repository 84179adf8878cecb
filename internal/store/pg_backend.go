package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"countrydb/internal/country"
)

// Connection pool defaults
const (
	DefaultPgMaxConns     = 10
	DefaultPgIdleConns    = 5
	DefaultPgConnLifetime = 3600
)

const (
	TableCountryDataset = "country_dataset"
	TableCountryRecord  = "country_record"
	TableSchemaVersion  = "country_schema_version"

	CurrentSchemaVersion = 1
)

const (
	sqlPgSelectDataset = `SELECT EXISTS(SELECT 1 FROM country_dataset WHERE dataset_id = $1)`
	sqlPgInsertDataset = `INSERT INTO country_dataset (dataset_id) VALUES ($1) ON CONFLICT (dataset_id) DO NOTHING`
	sqlPgSelectRows    = `
		SELECT name, continent, population, area
		FROM country_record
		WHERE dataset_id = $1
		ORDER BY position
	`
	sqlPgAppendRow = `
		INSERT INTO country_record (dataset_id, position, name, continent, population, area)
		SELECT $1::uuid, COALESCE(MAX(position), -1) + 1, $2::text, $3::text, $4::bigint, $5::double precision
		FROM country_record
		WHERE dataset_id = $1::uuid
	`
	sqlPgDeleteRows = `DELETE FROM country_record WHERE dataset_id = $1`
	sqlPgLockRows   = `SELECT pg_advisory_xact_lock(hashtext($1))`
	sqlPgInfo       = `
		SELECT COUNT(*), COALESCE(array_agg(DISTINCT continent) FILTER (WHERE continent IS NOT NULL), '{}')
		FROM country_record
		WHERE dataset_id = $1
	`
)

// PgConfig holds PostgreSQL configuration options
type PgConfig struct {
	ConnStr      string
	DdlConnStr   string // Defaults to ConnStr
	DatasetID    string
	MaxConns     int
	IdleConns    int
	ConnLifetime time.Duration
}

// PgBackend stores the dataset in PostgreSQL. Several datasets share the
// tables, each scoped by its dataset ID.
type PgBackend struct {
	config    PgConfig
	crudDB    *sql.DB
	ddlDB     *sql.DB
	datasetID string
	mu        sync.Mutex
}

// NewPgBackend validates config and creates an unopened backend
func NewPgBackend(config PgConfig) (*PgBackend, error) {
	if config.DatasetID == "" {
		return nil, errors.New("dataset ID cannot be empty")
	}

	id, err := uuid.Parse(config.DatasetID)
	if err != nil {
		return nil, fmt.Errorf("invalid dataset ID format: %w", err)
	}

	if id == uuid.Nil {
		return nil, errors.New("dataset ID cannot be nil UUID")
	}

	if config.ConnStr == "" {
		return nil, errors.New("connection string cannot be empty")
	}

	if config.DdlConnStr == "" {
		config.DdlConnStr = config.ConnStr
	}

	if config.MaxConns <= 0 {
		config.MaxConns = DefaultPgMaxConns
	}

	if config.IdleConns <= 0 {
		config.IdleConns = DefaultPgIdleConns
	}

	if config.ConnLifetime <= 0 {
		config.ConnLifetime = time.Second * DefaultPgConnLifetime
	}

	return &PgBackend{
		config:    config,
		datasetID: id.String(),
	}, nil
}

// Name returns "postgres"
func (p *PgBackend) Name() string {
	return "postgres"
}

// Open connects to PostgreSQL and runs migrations if needed
func (p *PgBackend) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.crudDB != nil {
		return nil
	}

	crudDB, err := p.connect(p.config.ConnStr)
	if err != nil {
		return fmt.Errorf("CRUD connection: %w", err)
	}

	ddlDB, err := p.connect(p.config.DdlConnStr)
	if err != nil {
		crudDB.Close()
		return fmt.Errorf("DDL connection: %w", err)
	}

	if err := runPgMigrations(ddlDB); err != nil {
		crudDB.Close()
		ddlDB.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	p.crudDB = crudDB
	p.ddlDB = ddlDB
	return nil
}

func (p *PgBackend) connect(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(p.config.MaxConns)
	db.SetMaxIdleConns(p.config.IdleConns)
	db.SetConnMaxLifetime(p.config.ConnLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Load reads the dataset's rows ordered by position
func (p *PgBackend) Load() ([]country.Fields, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.crudDB == nil {
		return nil, errors.New("backend not open")
	}

	var exists bool
	if err := p.crudDB.QueryRow(sqlPgSelectDataset, p.datasetID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check dataset: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: dataset %s", ErrNotFound, p.datasetID)
	}

	rows, err := p.crudDB.Query(sqlPgSelectRows, p.datasetID)
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

// Create registers the dataset ID
func (p *PgBackend) Create() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.crudDB == nil {
		return errors.New("backend not open")
	}
	if _, err := p.crudDB.Exec(sqlPgInsertDataset, p.datasetID); err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}
	return nil
}

// AppendRow inserts the record after the dataset's last position
func (p *PgBackend) AppendRow(record country.Country) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.crudDB == nil {
		return errors.New("backend not open")
	}

	tx, err := p.crudDB.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if err := p.prepareWriteTx(tx); err != nil {
		tx.Rollback()
		return err
	}

	if _, err := tx.Exec(sqlPgAppendRow, p.datasetID, record.Name, record.Continent, record.Population, record.Area); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert country: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit append: %w", err)
	}
	return nil
}

// RewriteAll replaces the dataset's rows with a bulk COPY in one transaction
func (p *PgBackend) RewriteAll(records []country.Country) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.crudDB == nil {
		return errors.New("backend not open")
	}

	tx, err := p.crudDB.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if err := p.prepareWriteTx(tx); err != nil {
		tx.Rollback()
		return err
	}

	if _, err := tx.Exec(sqlPgDeleteRows, p.datasetID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear countries: %w", err)
	}

	stmt, err := tx.Prepare(pq.CopyIn(TableCountryRecord,
		"dataset_id", "position", "name", "continent", "population", "area"))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare copy: %w", err)
	}

	for i, r := range records {
		if _, err := stmt.Exec(p.datasetID, i, r.Name, r.Continent, r.Population, r.Area); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("failed to copy country %q: %w", r.Name, err)
		}
	}

	if _, err := stmt.Exec(); err != nil {
		stmt.Close()
		tx.Rollback()
		return fmt.Errorf("failed to flush copy: %w", err)
	}

	if err := stmt.Close(); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to close copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rewrite: %w", err)
	}
	return nil
}

// prepareWriteTx serializes writers of the same dataset and makes sure the
// dataset is registered
func (p *PgBackend) prepareWriteTx(tx *sql.Tx) error {
	if _, err := tx.Exec(sqlPgLockRows, p.datasetID); err != nil {
		return fmt.Errorf("failed to lock dataset: %w", err)
	}
	if _, err := tx.Exec(sqlPgInsertDataset, p.datasetID); err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}
	return nil
}

// Close closes database connections
func (p *PgBackend) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.crudDB != nil {
		if err := p.crudDB.Close(); err != nil {
			return fmt.Errorf("error closing CRUD database connection: %w", err)
		}
		p.crudDB = nil
	}

	if p.ddlDB != nil {
		if err := p.ddlDB.Close(); err != nil {
			return fmt.Errorf("error closing DDL database connection: %w", err)
		}
		p.ddlDB = nil
	}
	return nil
}

// Info provides information about the PostgreSQL backend
func (p *PgBackend) Info() (map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	info := map[string]string{
		"implementation": "PgBackend",
		"dataset_id":     p.datasetID,
		"persistent":     "true",
	}
	if p.crudDB == nil {
		return info, nil
	}

	var (
		count      int
		continents []string
	)
	err := p.crudDB.QueryRow(sqlPgInfo, p.datasetID).Scan(&count, pq.Array(&continents))
	if err != nil {
		info["record_count"] = "error"
		return info, nil
	}
	info["record_count"] = strconv.Itoa(count)
	info["continents"] = strings.Join(continents, ", ")
	return info, nil
}
