package gorm

import (
	"context"

	"go.uber.org/fx"

	"github.com/opencatalog/bulkops/pkg/bulkops/adapter/database"
	config "github.com/opencatalog/bulkops/pkg/bulkops/core/config"
)

// NewMetadataConnection opens the metadata database connection named by
// infrastructure.repository-db-ref (default "metadata") and closes it on
// application shutdown.
func NewMetadataConnection(lc fx.Lifecycle, cfg *config.Config) (*database.Connection, error) {
	name := cfg.Bulkops.Infrastructure.RepositoryDBRef
	if name == "" {
		name = "metadata"
	}

	conn, err := database.Open(cfg, name)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return conn.Close()
		},
	})
	return conn, nil
}

// Module provides the metadata connection and all repositories to Fx.
var Module = fx.Options(
	fx.Provide(
		NewMetadataConnection,
		NewOperationRepository,
		NewContentRepository,
		NewExecutionRepository,
		NewRuleRepository,
	),
)
