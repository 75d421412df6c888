package config

// Package config provides structures and utilities for managing application configuration.

// EmbeddedConfig holds the content of the configuration file, typically passed from main.go.
type EmbeddedConfig []byte

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Timezone is the application timezone (e.g., "UTC").
	Timezone string `yaml:"timezone"`
	// MetricsAddr is the listen address of the Prometheus scrape endpoint.
	MetricsAddr string `yaml:"metrics_addr"`
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// PipelineConfig holds settings for the bulk operation pipeline stages.
type PipelineConfig struct {
	// MarcChunkSize is the number of instance ids fetched from the source
	// record store per request during chunked MARC retrieval.
	MarcChunkSize int `yaml:"marc_chunk_size"`
	// QueryPollIntervalSeconds is the interval for polling saved-query status.
	QueryPollIntervalSeconds int `yaml:"query_poll_interval_seconds"`
	// QueryPageSize is the page size used when streaming saved-query results.
	QueryPageSize int `yaml:"query_page_size"`
	// RetentionDays is the age in days past an operation's end time after
	// which its file artifacts are purged and the operation marked expired.
	RetentionDays int `yaml:"retention_days"`
	// IdentifierWorkers is the number of background workers saving
	// identifiers after query execution.
	IdentifierWorkers int `yaml:"identifier_workers"`
}

// RedisConfig holds connection settings for the Redis cache provider.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CacheConfig holds settings for the reference-value lookup cache.
type CacheConfig struct {
	// Provider selects the cache implementation ("memory" or "redis").
	Provider string `yaml:"provider"`
	// TTLSeconds is the time-to-live for cached entries.
	TTLSeconds int `yaml:"ttl_seconds"`
	// Redis is the Redis connection configuration, used when Provider is "redis".
	Redis RedisConfig `yaml:"redis"`
}

// ClientConfig holds connection settings for the remote catalog services
// (export system, query engine, source record store, reference catalogs).
type ClientConfig struct {
	// BaseURL is the root URL of the remote gateway.
	BaseURL string `yaml:"base_url"`
	// Tenant is the tenant id sent with every request.
	Tenant string `yaml:"tenant"`
	// Token is the authentication token sent with every request.
	Token string `yaml:"token"`
	// TimeoutSeconds bounds each remote call.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// InfrastructureConfig holds logical dependency settings for infrastructure components.
type InfrastructureConfig struct {
	// RepositoryDBRef is the name of the database adapter configuration used
	// by the bulk operation repositories (e.g., "metadata").
	RepositoryDBRef string `yaml:"repository_db_ref"`
	// ArtifactStorageRef is the name of the storage adapter configuration
	// used for stage file artifacts (e.g., "artifacts").
	ArtifactStorageRef string `yaml:"artifact_storage_ref"`
}

// AdapterConfig holds raw adapter configuration blocks keyed by name.
// Each block is decoded by the owning adapter with mapstructure.
type AdapterConfig struct {
	Database map[string]interface{} `yaml:"database"`
	Storage  map[string]interface{} `yaml:"storage"`
}

// BulkopsConfig is the root of the service-specific configuration tree.
type BulkopsConfig struct {
	System         SystemConfig         `yaml:"system"`
	Pipeline       PipelineConfig       `yaml:"pipeline"`
	Cache          CacheConfig          `yaml:"cache"`
	Client         ClientConfig         `yaml:"client"`
	Infrastructure InfrastructureConfig `yaml:"infrastructure"`
	Adapter        AdapterConfig        `yaml:"adapter"`
}

// Config is the top-level application configuration.
type Config struct {
	Bulkops BulkopsConfig `yaml:"bulkops"`
}

// GlobalConfig holds the loaded application configuration.
// It is set once by NewConfigProvider during startup.
var GlobalConfig *Config

// NewConfig returns a Config populated with defaults. Values from the
// embedded YAML and environment variables are merged over these.
func NewConfig() *Config {
	return &Config{
		Bulkops: BulkopsConfig{
			System: SystemConfig{
				Timezone:    "UTC",
				MetricsAddr: ":9464",
				Logging:     LoggingConfig{Level: "INFO"},
			},
			Pipeline: PipelineConfig{
				MarcChunkSize:            100,
				QueryPollIntervalSeconds: 5,
				QueryPageSize:            100,
				RetentionDays:            30,
				IdentifierWorkers:        2,
			},
			Cache: CacheConfig{
				Provider:   "memory",
				TTLSeconds: 600,
			},
			Client: ClientConfig{
				TimeoutSeconds: 30,
			},
			Infrastructure: InfrastructureConfig{
				RepositoryDBRef:    "metadata",
				ArtifactStorageRef: "artifacts",
			},
		},
	}
}
