// Package mysql registers the MySQL dialector factory with the database
// adapter. Importing this package for side effects enables "mysql" adapter
// configurations.
package mysql

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	dbadapter "github.com/opencatalog/bulkops/pkg/bulkops/adapter/database"
	dbconfig "github.com/opencatalog/bulkops/pkg/bulkops/adapter/database/config"
)

func init() {
	dbadapter.RegisterDialector("mysql", func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		return mysql.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString generates the DSN for MySQL connections.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}
