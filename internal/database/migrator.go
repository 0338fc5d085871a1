package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// MigrationsTable records which version of the talent schema is applied.
const MigrationsTable = "talent_schema_migrations"

// ErrDirtySchema is returned when an earlier migration stopped part way.
// The schema has to be repaired by hand and the version forced before any
// further migration runs.
var ErrDirtySchema = errors.New("schema is dirty")

// SchemaVersion describes the migration state of the database.
type SchemaVersion struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
	// Applied is false until the first migration has run.
	Applied bool `json:"applied"`
}

// Migrator applies the SQL migrations under a directory to the talent schema.
type Migrator struct {
	migrate *migrate.Migrate
	sqlDB   *sql.DB // database/sql view of the pgx pool, closed with the migrator
	logger  zerolog.Logger
}

// NewMigrator creates a migrator for the migrations in migrationsPath.
func NewMigrator(db *DB, migrationsPath string, logger zerolog.Logger) (*Migrator, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if db.pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	if migrationsPath == "" {
		return nil, fmt.Errorf("migrations path is required")
	}
	if _, err := os.Stat(migrationsPath); err != nil {
		return nil, fmt.Errorf("migrations path validation failed: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(db.pool)

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{
		MigrationsTable: MigrationsTable,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return &Migrator{
		migrate: m,
		sqlDB:   sqlDB,
		logger:  logger.With().Str("migrations_path", migrationsPath).Logger(),
	}, nil
}

// Up applies every pending migration.
func (m *Migrator) Up() error {
	before, err := m.cleanVersion()
	if err != nil {
		return err
	}

	if err := m.migrate.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info().Uint("version", before.Version).Msg("talent schema is up to date")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.logMoved("talent schema migrated", before)
	return nil
}

// Down rolls back every applied migration, dropping the talent tables.
func (m *Migrator) Down() error {
	before, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Warn().Uint("version", before.Version).Msg("rolling back talent schema")

	if err := m.migrate.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info().Msg("no migrations to roll back")
			return nil
		}
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}

	m.logMoved("talent schema rolled back", before)
	return nil
}

// Steps moves n migrations up (n > 0) or down (n < 0). Moving past the
// newest or oldest migration is not an error.
func (m *Migrator) Steps(n int) error {
	before, err := m.cleanVersion()
	if err != nil {
		return err
	}

	if err := m.migrate.Steps(n); err != nil {
		// golang-migrate reports a missing next/previous file when the
		// schema is already at the end it is moving towards.
		if errors.Is(err, migrate.ErrNoChange) || errors.Is(err, os.ErrNotExist) {
			m.logger.Info().Int("steps", n).Uint("version", before.Version).Msg("no further migrations in that direction")
			return nil
		}
		return fmt.Errorf("failed to run migration steps: %w", err)
	}

	m.logMoved("talent schema stepped", before)
	return nil
}

// Version returns the applied schema version. A database that has never
// been migrated reports a zero SchemaVersion rather than an error.
func (m *Migrator) Version() (SchemaVersion, error) {
	v, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return SchemaVersion{}, nil
	}
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("failed to read schema version: %w", err)
	}
	return SchemaVersion{Version: v, Dirty: dirty, Applied: true}, nil
}

// Force records version as applied and clean without running any SQL.
// It is the recovery path for ErrDirtySchema.
func (m *Migrator) Force(version int) error {
	before, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Warn().
		Uint("from", before.Version).
		Bool("was_dirty", before.Dirty).
		Int("to", version).
		Msg("forcing talent schema version")

	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Close releases the migration source and the database/sql wrapper.
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()

	var sqlErr error
	if m.sqlDB != nil {
		sqlErr = m.sqlDB.Close()
	}

	if err := errors.Join(sourceErr, dbErr, sqlErr); err != nil {
		return fmt.Errorf("failed to close migrator: %w", err)
	}
	return nil
}

// cleanVersion returns the current version, or ErrDirtySchema when the last
// migration did not finish.
func (m *Migrator) cleanVersion() (SchemaVersion, error) {
	v, err := m.Version()
	if err != nil {
		return v, err
	}
	if v.Dirty {
		return v, fmt.Errorf("%w at version %d: repair it, then force the version", ErrDirtySchema, v.Version)
	}
	return v, nil
}

func (m *Migrator) logMoved(msg string, before SchemaVersion) {
	after, err := m.Version()
	if err != nil {
		m.logger.Warn().Err(err).Msg("could not determine schema version")
		return
	}
	m.logger.Info().
		Uint("from", before.Version).
		Uint("to", after.Version).
		Msg(msg)
}
