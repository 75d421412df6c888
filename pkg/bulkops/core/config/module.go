// Package config provides core configuration structures and utilities.
// This module defines Fx providers for configuration-related components.
package config

import "go.uber.org/fx"

// NewPipelineConfigProvider extracts and provides *PipelineConfig from *Config.
// This allows pipeline components to depend only on their own configuration.
func NewPipelineConfigProvider(cfg *Config) *PipelineConfig {
	return &cfg.Bulkops.Pipeline
}

// NewCacheConfigProvider extracts and provides *CacheConfig from *Config.
func NewCacheConfigProvider(cfg *Config) *CacheConfig {
	return &cfg.Bulkops.Cache
}

// Module provides configuration-related components to Fx.
var Module = fx.Options(
	fx.Provide(NewConfigProvider),
	fx.Provide(NewPipelineConfigProvider),
	fx.Provide(NewCacheConfigProvider),
	fx.Provide(func() EnvironmentExpander {
		return NewOsEnvironmentExpander()
	}),
)
