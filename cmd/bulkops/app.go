package main

import (
	"context"
	"embed"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	_ "github.com/opencatalog/bulkops/pkg/bulkops/adapter/database/mysql"
	_ "github.com/opencatalog/bulkops/pkg/bulkops/adapter/database/postgres"
	_ "github.com/opencatalog/bulkops/pkg/bulkops/adapter/database/sqlite"

	"github.com/opencatalog/bulkops/pkg/bulkops/adapter/database"
	"github.com/opencatalog/bulkops/pkg/bulkops/adapter/storage/local"
	"github.com/opencatalog/bulkops/pkg/bulkops/cache"
	config "github.com/opencatalog/bulkops/pkg/bulkops/core/config"
	"github.com/opencatalog/bulkops/pkg/bulkops/infrastructure/client"
	inframetrics "github.com/opencatalog/bulkops/pkg/bulkops/infrastructure/metrics"
	"github.com/opencatalog/bulkops/pkg/bulkops/infrastructure/migration"
	gormrepo "github.com/opencatalog/bulkops/pkg/bulkops/infrastructure/repository/gorm"
	"github.com/opencatalog/bulkops/pkg/bulkops/ledger"
	"github.com/opencatalog/bulkops/pkg/bulkops/orchestrator"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/logger"
)

// migrationsPath is the root of the migration scripts inside the embedded
// filesystem.
const migrationsPath = "resources/migrations"

// RunApplication assembles the Fx application and runs it until the context
// is cancelled.
func RunApplication(ctx context.Context, envFilePath string, embedded []byte, migrationsFS embed.FS) {
	app := fx.New(
		fx.Supply(
			config.EmbeddedConfig(embedded),
			fx.Annotate(envFilePath, fx.ResultTags(`name:"envFilePath"`)),
		),

		config.Module,
		cache.Module,
		inframetrics.Module,
		gormrepo.Module,
		local.Module,
		client.Module,
		ledger.Module,
		orchestrator.Module,

		fx.Invoke(func(conn *database.Connection) error {
			return migration.NewMigrator(conn).Up(migrationsFS, migrationsPath)
		}),
		fx.Invoke(serveMetrics),
	)

	startCtx, cancelStart := context.WithTimeout(ctx, 30*time.Second)
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		logger.Fatalf("Failed to start application: %v", err)
	}
	logger.Infof("Bulk operations service started.")

	select {
	case <-ctx.Done():
	case <-app.Done():
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		logger.Errorf("Failed to stop application cleanly: %v", err)
	}
}

// serveMetrics exposes the Prometheus scrape endpoint for the lifetime of
// the application.
func serveMetrics(lc fx.Lifecycle, cfg *config.Config, recorder *inframetrics.PrometheusRecorder) {
	addr := cfg.Bulkops.System.MetricsAddr
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(recorder.Registry(), promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Errorf("Metrics endpoint failed: %v", err)
				}
			}()
			logger.Infof("Serving metrics on %s.", addr)
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			return server.Shutdown(stopCtx)
		},
	})
}
