package config

import (
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go.uber.org/fx"

	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/exception"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/logger"
)

// Package config provides utilities for loading and managing application
// configuration from YAML files and environment variables.

const moduleName = "config"

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig // EmbeddedConfig contains the raw bytes of the configuration file.
	EnvFilePath    string         `name:"envFilePath" optional:"true"` // EnvFilePath is the path to the .env file, if any.
}

// loadConfig loads configuration from the embedded file and environment
// variables. It is intended to be called only once during application
// startup.
func loadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	cfg := NewConfig()

	// Expand ${VAR} placeholders before parsing so secrets can be injected
	// through the environment.
	expander := NewOsEnvironmentExpander()
	expanded, err := expander.Expand(embeddedConfig)
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to expand environment variables in embedded config", err, false, false)
	}

	var yamlConfig Config
	if err := yaml.Unmarshal(expanded, &yamlConfig); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to unmarshal embedded config", err, false, false)
	}

	mergeConfig(cfg, &yamlConfig)
	return cfg, nil
}

// NewConfigProvider is an Fx provider that loads and provides *Config.
// It initializes the application configuration by loading defaults and
// merging the embedded YAML over them, then sets the global logger level.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := loadConfig(params.EnvFilePath, params.EmbeddedConfig)
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to load configuration", err, false, false)
	}

	GlobalConfig = cfg

	logger.SetLogLevel(cfg.Bulkops.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Bulkops.System.Logging.Level)

	return cfg, nil
}

// LoadConfig loads configuration from the embedded file and environment
// variables. Exposed for tests and tooling; the application itself goes
// through NewConfigProvider.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	return loadConfig(envFilePath, embeddedConfig)
}

// mergeConfig performs a merge from sourceConfig into destConfig. Values in
// sourceConfig overwrite corresponding values in destConfig when they are
// not zero values for their type.
func mergeConfig(destConfig, sourceConfig *Config) {
	dest, source := &destConfig.Bulkops, &sourceConfig.Bulkops

	if source.System.Timezone != "" {
		dest.System.Timezone = source.System.Timezone
	}
	if source.System.MetricsAddr != "" {
		dest.System.MetricsAddr = source.System.MetricsAddr
	}
	if source.System.Logging.Level != "" {
		dest.System.Logging.Level = source.System.Logging.Level
	}

	if source.Pipeline.MarcChunkSize != 0 {
		dest.Pipeline.MarcChunkSize = source.Pipeline.MarcChunkSize
	}
	if source.Pipeline.QueryPollIntervalSeconds != 0 {
		dest.Pipeline.QueryPollIntervalSeconds = source.Pipeline.QueryPollIntervalSeconds
	}
	if source.Pipeline.QueryPageSize != 0 {
		dest.Pipeline.QueryPageSize = source.Pipeline.QueryPageSize
	}
	if source.Pipeline.RetentionDays != 0 {
		dest.Pipeline.RetentionDays = source.Pipeline.RetentionDays
	}
	if source.Pipeline.IdentifierWorkers != 0 {
		dest.Pipeline.IdentifierWorkers = source.Pipeline.IdentifierWorkers
	}

	if source.Cache.Provider != "" {
		dest.Cache.Provider = source.Cache.Provider
	}
	if source.Cache.TTLSeconds != 0 {
		dest.Cache.TTLSeconds = source.Cache.TTLSeconds
	}
	if source.Cache.Redis.Addr != "" {
		dest.Cache.Redis = source.Cache.Redis
	}

	if source.Client.BaseURL != "" {
		dest.Client.BaseURL = source.Client.BaseURL
	}
	if source.Client.Tenant != "" {
		dest.Client.Tenant = source.Client.Tenant
	}
	if source.Client.Token != "" {
		dest.Client.Token = source.Client.Token
	}
	if source.Client.TimeoutSeconds != 0 {
		dest.Client.TimeoutSeconds = source.Client.TimeoutSeconds
	}

	if source.Infrastructure.RepositoryDBRef != "" {
		dest.Infrastructure.RepositoryDBRef = source.Infrastructure.RepositoryDBRef
	}
	if source.Infrastructure.ArtifactStorageRef != "" {
		dest.Infrastructure.ArtifactStorageRef = source.Infrastructure.ArtifactStorageRef
	}

	// Adapter configs are raw blocks; merge per key so partial overrides work.
	if source.Adapter.Database != nil {
		if dest.Adapter.Database == nil {
			dest.Adapter.Database = make(map[string]interface{})
		}
		for key, value := range source.Adapter.Database {
			dest.Adapter.Database[key] = value
		}
	}
	if source.Adapter.Storage != nil {
		if dest.Adapter.Storage == nil {
			dest.Adapter.Storage = make(map[string]interface{})
		}
		for key, value := range source.Adapter.Storage {
			dest.Adapter.Storage[key] = value
		}
	}
}
