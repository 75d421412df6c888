// Package database provides GORM-backed database connectivity behind a
// dialector registry. Driver subpackages (postgres, mysql, sqlite) register
// their dialector factories on import, so the entry point chooses drivers by
// blank import.
package database

import (
	"fmt"
	"sync"

	"github.com/mitchellh/mapstructure"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	dbconfig "github.com/opencatalog/bulkops/pkg/bulkops/adapter/database/config"
	config "github.com/opencatalog/bulkops/pkg/bulkops/core/config"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/logger"
)

// DialectorFactory generates a gorm.Dialector from a dbconfig.DatabaseConfig.
type DialectorFactory func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error)

var (
	dialectorRegistry = make(map[string]DialectorFactory)
	dialectorMutex    sync.RWMutex
)

// RegisterDialector registers a DialectorFactory for the given database type.
func RegisterDialector(dbType string, factory DialectorFactory) {
	dialectorMutex.Lock()
	defer dialectorMutex.Unlock()
	if _, exists := dialectorRegistry[dbType]; exists {
		logger.Warnf("Dialector for type '%s' already registered. Overwriting.", dbType)
	}
	dialectorRegistry[dbType] = factory
}

// GetDialectorFactory retrieves the DialectorFactory for the specified DB type.
func GetDialectorFactory(dbType string) (DialectorFactory, error) {
	dialectorMutex.RLock()
	defer dialectorMutex.RUnlock()
	factory, ok := dialectorRegistry[dbType]
	if !ok {
		return nil, fmt.Errorf("no dialector registered for database type: %s", dbType)
	}
	return factory, nil
}

// Connection wraps an open GORM handle along with the adapter type that
// produced it.
type Connection struct {
	db     *gorm.DB
	dbType string
	name   string
}

// NewConnection wraps an already-open GORM handle. Used by tests and by
// callers that manage the handle themselves; production code goes through
// Open.
func NewConnection(db *gorm.DB, dbType, name string) *Connection {
	return &Connection{db: db, dbType: dbType, name: name}
}

// DB returns the underlying GORM handle.
func (c *Connection) DB() *gorm.DB {
	return c.db
}

// Type returns the database type of this connection.
func (c *Connection) Type() string {
	return c.dbType
}

// Name returns the adapter configuration name of this connection.
func (c *Connection) Name() string {
	return c.name
}

// Close closes the underlying SQL connection pool.
func (c *Connection) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Open resolves the named adapter block from the application configuration,
// decodes it and opens a GORM connection through the registered dialector.
func Open(cfg *config.Config, name string) (*Connection, error) {
	raw, ok := cfg.Bulkops.Adapter.Database[name]
	if !ok {
		return nil, fmt.Errorf("database configuration '%s' not found in adapter.database configs", name)
	}

	var dbCfg dbconfig.DatabaseConfig
	// Weakly typed so values injected via ${VAR} expansion (always strings)
	// still decode into numeric fields.
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &dbCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build decoder for database config '%s': %w", name, err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode database config for '%s': %w", name, err)
	}

	factory, err := GetDialectorFactory(dbCfg.Type)
	if err != nil {
		return nil, err
	}
	dialector, err := factory(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create dialector for '%s': %w", name, err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection '%s': %w", name, err)
	}

	logger.Infof("Opened database connection '%s' (type %s).", name, dbCfg.Type)
	return &Connection{db: db, dbType: dbCfg.Type, name: name}, nil
}
