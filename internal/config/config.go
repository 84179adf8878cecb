// Package config loads countrydb settings.
//
// Values are resolved in order: struct defaults, an optional YAML file, then
// environment variables. Command line flags are applied by the caller on top.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Backend kinds
const (
	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Dataset DatasetConfig `yaml:"dataset"`
	Backend BackendConfig `yaml:"backend"`
	Logging LoggingConfig `yaml:"logging"`
	Trace   TraceConfig   `yaml:"trace"`
}

// DatasetConfig locates the CSV dataset and names its columns
type DatasetConfig struct {
	// Path is the CSV file used by the csv backend
	Path string `yaml:"path" env:"COUNTRYDB_DATA" default:"data/paises.csv"`

	Columns ColumnsConfig `yaml:"columns"`
}

// ColumnsConfig holds the CSV header name of each field
type ColumnsConfig struct {
	Name       string `yaml:"name" env:"COUNTRYDB_COLUMN_NAME" default:"nombre"`
	Continent  string `yaml:"continent" env:"COUNTRYDB_COLUMN_CONTINENT" default:"continente"`
	Population string `yaml:"population" env:"COUNTRYDB_COLUMN_POPULATION" default:"poblacion"`
	Area       string `yaml:"area" env:"COUNTRYDB_COLUMN_AREA" default:"area"`
}

// BackendConfig selects and configures the persistence backend
type BackendConfig struct {
	// Kind is one of csv, sqlite, postgres, memory
	Kind string `yaml:"kind" env:"COUNTRYDB_BACKEND" default:"csv"`

	SQLitePath string `yaml:"sqlite_path" env:"COUNTRYDB_SQLITE_PATH" default:"data/countries.db"`

	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	// URL is the connection string; DATABASE_URL is honoured as a fallback
	URL string `yaml:"url" env:"COUNTRYDB_PG_URL" envAlt:"DATABASE_URL"`

	// DDLURL is used for migrations (default: URL)
	DDLURL string `yaml:"ddl_url" env:"COUNTRYDB_PG_DDL_URL"`

	// DatasetID scopes the rows of this dataset
	DatasetID string `yaml:"dataset_id" env:"COUNTRYDB_PG_DATASET_ID"`

	MaxConns     int           `yaml:"max_conns" env:"COUNTRYDB_PG_MAX_CONNS" default:"10"`
	IdleConns    int           `yaml:"idle_conns" env:"COUNTRYDB_PG_IDLE_CONNS" default:"5"`
	ConnLifetime time.Duration `yaml:"conn_lifetime" env:"COUNTRYDB_PG_CONN_LIFETIME" default:"1h"`
}

// LoggingConfig holds application log settings
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level" env:"COUNTRYDB_LOG_LEVEL" default:"info"`

	// File receives the log; "-" logs to stderr
	File string `yaml:"file" env:"COUNTRYDB_LOG_FILE" default:"data/countrydb.log"`
}

// TraceConfig holds audit trail settings
type TraceConfig struct {
	Enabled       bool          `yaml:"enabled" env:"COUNTRYDB_TRACE" default:"true"`
	File          string        `yaml:"file" env:"COUNTRYDB_TRACE_FILE" default:"data/trace.log"`
	Level         string        `yaml:"level" env:"COUNTRYDB_TRACE_LEVEL" default:"info"`
	FlushInterval time.Duration `yaml:"flush_interval" env:"COUNTRYDB_TRACE_FLUSH_INTERVAL" default:"5s"`
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}

// Validate checks that the configuration is usable.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	switch c.Backend.Kind {
	case BackendCSV:
		if strings.TrimSpace(c.Dataset.Path) == "" {
			errs = append(errs, "COUNTRYDB_DATA is required for the csv backend")
		}
		cols := []string{c.Dataset.Columns.Name, c.Dataset.Columns.Continent, c.Dataset.Columns.Population, c.Dataset.Columns.Area}
		seen := make(map[string]bool, len(cols))
		for _, col := range cols {
			key := strings.ToLower(strings.TrimSpace(col))
			if key == "" {
				errs = append(errs, "dataset column names cannot be empty")
				break
			}
			if seen[key] {
				errs = append(errs, fmt.Sprintf("dataset column %q is used twice", col))
			}
			seen[key] = true
		}
	case BackendSQLite:
		if strings.TrimSpace(c.Backend.SQLitePath) == "" {
			errs = append(errs, "COUNTRYDB_SQLITE_PATH is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.Backend.Postgres.URL == "" {
			errs = append(errs, "COUNTRYDB_PG_URL is required for the postgres backend")
		}
		if c.Backend.Postgres.DatasetID == "" {
			errs = append(errs, "COUNTRYDB_PG_DATASET_ID is required for the postgres backend")
		}
		if c.Backend.Postgres.MaxConns <= 0 {
			errs = append(errs, "COUNTRYDB_PG_MAX_CONNS must be positive")
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Sprintf("COUNTRYDB_BACKEND (%q) must be one of: csv, sqlite, postgres, memory", c.Backend.Kind))
	}

	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("COUNTRYDB_LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	if c.Trace.Enabled {
		if !validLevels[strings.ToLower(c.Trace.Level)] {
			errs = append(errs, fmt.Sprintf("COUNTRYDB_TRACE_LEVEL (%q) must be one of: debug, info, warn, error", c.Trace.Level))
		}
		if c.Trace.FlushInterval <= 0 {
			errs = append(errs, "COUNTRYDB_TRACE_FLUSH_INTERVAL must be positive")
		}
		if strings.TrimSpace(c.Trace.File) == "" {
			errs = append(errs, "COUNTRYDB_TRACE_FILE is required when tracing is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe representation for logging; connection strings are masked
func (c *Config) String() string {
	pgURL := ""
	if c.Backend.Postgres.URL != "" {
		pgURL = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Backend: {Kind: %q, SQLitePath: %q, Postgres: {URL: %s, DatasetID: %q}}, ",
		c.Backend.Kind, c.Backend.SQLitePath, pgURL, c.Backend.Postgres.DatasetID))
	b.WriteString(fmt.Sprintf("Dataset: {Path: %q}, ", c.Dataset.Path))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, File: %q}, ", c.Logging.Level, c.Logging.File))
	b.WriteString(fmt.Sprintf("Trace: {Enabled: %v, File: %q}", c.Trace.Enabled, c.Trace.File))
	b.WriteString("}")
	return b.String()
}
