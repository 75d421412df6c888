// Package migration runs embedded SQL schema migrations against the
// metadata database at application startup.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	dbadapter "github.com/opencatalog/bulkops/pkg/bulkops/adapter/database"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/logger"
)

// migrationsTable is the bookkeeping table used by golang-migrate.
const migrationsTable = "bulkops_schema_migrations"

// Migrator applies embedded migrations to one database connection.
type Migrator struct {
	conn *dbadapter.Connection
}

// NewMigrator creates a Migrator for the given connection.
func NewMigrator(conn *dbadapter.Connection) *Migrator {
	return &Migrator{conn: conn}
}

// databaseDriver retrieves a migrate/v4 driver matching the connection type.
func (m *Migrator) databaseDriver(sqlDB *sql.DB) (migratedb.Driver, error) {
	switch m.conn.Type() {
	case "postgres":
		return postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: migrationsTable})
	case "mysql":
		return mysql.WithInstance(sqlDB, &mysql.Config{MigrationsTable: migrationsTable})
	case "sqlite":
		return sqlite3.WithInstance(sqlDB, &sqlite3.Config{MigrationsTable: migrationsTable})
	default:
		return nil, fmt.Errorf("unsupported database type for migration: %s", m.conn.Type())
	}
}

// Up applies all pending migrations from the embedded filesystem rooted at
// path. A no-change outcome is not an error.
func (m *Migrator) Up(migrationFS fs.FS, path string) error {
	sqlDB, err := m.conn.DB().DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sourceDriver, err := iofs.New(migrationFS, path)
	if err != nil {
		return fmt.Errorf("failed to create iofs source driver for path %s: %w", path, err)
	}

	dbDriver, err := m.databaseDriver(sqlDB)
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	instance, err := migrate.NewWithInstance("iofs", sourceDriver, m.conn.Type(), dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	logger.Infof("Applying schema migrations (path: %s, table: %s)", path, migrationsTable)
	if err := instance.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debugf("Schema already up to date.")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
