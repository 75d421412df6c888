// Package config defines the configuration structure for database adapters.
package config

// DatabaseConfig holds connection settings for one named database adapter.
// Blocks under `bulkops.adapter.database` are decoded into this struct with
// mapstructure.
type DatabaseConfig struct {
	// Type selects the registered dialector ("postgres", "mysql", "sqlite").
	Type     string `mapstructure:"type"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Sslmode  string `mapstructure:"sslmode"`
}
