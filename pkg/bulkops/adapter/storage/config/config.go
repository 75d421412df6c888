// Package config defines the configuration structure for storage adapters.
package config

// StorageConfig holds settings for one named storage adapter. Blocks under
// `bulkops.adapter.storage` are decoded into this struct with mapstructure.
type StorageConfig struct {
	// Type selects the storage provider ("local").
	Type string `mapstructure:"type"`
	// BaseDir is the root directory for the local provider.
	BaseDir string `mapstructure:"base_dir"`
}
