package local

import (
	"go.uber.org/fx"

	storageAdapter "github.com/opencatalog/bulkops/pkg/bulkops/adapter/storage"
	coreConfig "github.com/opencatalog/bulkops/pkg/bulkops/core/config"
)

// NewArtifactStore resolves the storage adapter named by
// infrastructure.artifact-storage-ref (default "artifacts").
func NewArtifactStore(cfg *coreConfig.Config) (storageAdapter.ArtifactStore, error) {
	name := cfg.Bulkops.Infrastructure.ArtifactStorageRef
	if name == "" {
		name = "artifacts"
	}
	return NewFromConfig(cfg, name)
}

// Module provides the artifact store to Fx.
var Module = fx.Options(
	fx.Provide(NewArtifactStore),
)
