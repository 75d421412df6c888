// Package postgres registers the PostgreSQL dialector factory with the
// database adapter. Importing this package for side effects enables
// "postgres" adapter configurations.
package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	dbadapter "github.com/opencatalog/bulkops/pkg/bulkops/adapter/database"
	dbconfig "github.com/opencatalog/bulkops/pkg/bulkops/adapter/database/config"
)

func init() {
	dbadapter.RegisterDialector("postgres", func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		return postgres.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString generates the DSN for PostgreSQL connections.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.Sslmode)
}
