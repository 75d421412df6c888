// Package sqlite registers the SQLite dialector factory with the database
// adapter. Importing this package for side effects enables "sqlite" adapter
// configurations; it is also used by repository tests.
package sqlite

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbadapter "github.com/opencatalog/bulkops/pkg/bulkops/adapter/database"
	dbconfig "github.com/opencatalog/bulkops/pkg/bulkops/adapter/database/config"
)

func init() {
	dbadapter.RegisterDialector("sqlite", func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		return sqlite.Open(cfg.Database), nil
	})
}
