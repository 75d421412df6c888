package client

import (
	"go.uber.org/fx"

	"github.com/opencatalog/bulkops/pkg/bulkops/cache"
	config "github.com/opencatalog/bulkops/pkg/bulkops/core/config"
	port "github.com/opencatalog/bulkops/pkg/bulkops/core/port"
)

// newResolver assembles the cached reference resolver.
func newResolver(base *Client, store cache.Cache, cfg *config.CacheConfig) port.ReferenceResolver {
	return NewCachingResolver(NewReferenceClient(base), store, cfg)
}

// Module provides the outbound port implementations to Fx.
var Module = fx.Options(
	fx.Provide(
		New,
		fx.Annotate(NewExportClient, fx.As(new(port.DataExportClient))),
		fx.Annotate(NewQueryClient, fx.As(new(port.QueryClient))),
		fx.Annotate(NewSourceClient, fx.As(new(port.SourceRecordClient))),
		fx.Annotate(NewPermissionClient, fx.As(new(port.PermissionChecker))),
		newResolver,
	),
)
