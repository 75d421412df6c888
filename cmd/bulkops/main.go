package main

import (
	"context"
	"embed"
	"os"
	"os/signal"
	"syscall"

	_ "embed"

	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/logger"
)

// embeddedConfig embeds the application's YAML configuration. It is merged
// over the built-in defaults at startup; ${VAR} placeholders are expanded
// from the environment.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

// migrationsFS bundles the schema migration scripts into the binary.
//
//go:embed all:resources/migrations
var migrationsFS embed.FS

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Shutting down.", sig)
		cancel()
	}()

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	RunApplication(ctx, envFilePath, embeddedConfig, migrationsFS)
}
