package store

import (
	"database/sql"
	"fmt"

	"countrydb/internal/logging"
)

// Migration represents a database schema migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// List of migrations in order
var pgMigrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema creation",
		SQL: `
CREATE TABLE IF NOT EXISTS country_schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    description TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS country_dataset (
    dataset_id UUID PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS country_record (
    dataset_id UUID NOT NULL REFERENCES country_dataset(dataset_id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    continent TEXT NOT NULL,
    population BIGINT NOT NULL CHECK (population >= 0),
    area DOUBLE PRECISION NOT NULL CHECK (area >= 0),

    PRIMARY KEY (dataset_id, position)
);

CREATE INDEX IF NOT EXISTS country_record_continent_idx ON country_record(dataset_id, continent);
`,
	},
}

// runPgMigrations checks the current schema version and applies the missing migrations
func runPgMigrations(db *sql.DB) error {
	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT FROM pg_tables
			WHERE schemaname = 'public'
			AND tablename = 'country_schema_version'
		)
	`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if schema version table exists: %w", err)
	}

	currentVersion := 0
	if exists {
		err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM country_schema_version`).Scan(&currentVersion)
		if err != nil {
			return fmt.Errorf("failed to get current schema version: %w", err)
		}
	}

	for _, migration := range pgMigrations {
		if migration.Version <= currentVersion {
			continue
		}

		logging.Get().Info("Applying migration", "version", migration.Version, "description", migration.Description)

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to start transaction for migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec(migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}

		_, err = tx.Exec(`
			INSERT INTO country_schema_version (version, description)
			VALUES ($1, $2)
		`, migration.Version, migration.Description)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	if currentVersion > CurrentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d",
			currentVersion, CurrentSchemaVersion)
	}
	return nil
}
