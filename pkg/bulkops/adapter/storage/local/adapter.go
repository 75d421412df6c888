// Package local provides a local file system implementation of the artifact
// store interface.
package local

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"

	storageAdapter "github.com/opencatalog/bulkops/pkg/bulkops/adapter/storage"
	storageConfig "github.com/opencatalog/bulkops/pkg/bulkops/adapter/storage/config"
	coreConfig "github.com/opencatalog/bulkops/pkg/bulkops/core/config"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/logger"
)

const (
	// ProviderType defines the type identifier for this local storage provider.
	ProviderType = "local"
)

// localStore implements the storage.ArtifactStore interface for local file
// system operations.
type localStore struct {
	cfg  storageConfig.StorageConfig
	name string
}

// Verify that localStore implements the storage.ArtifactStore interface.
var _ storageAdapter.ArtifactStore = (*localStore)(nil)

// NewLocalStore creates a new local artifact store. It validates the
// BaseDir configuration and attempts to create it if it doesn't exist.
func NewLocalStore(cfg storageConfig.StorageConfig, name string) (storageAdapter.ArtifactStore, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("local storage adapter '%s': BaseDir must be specified in configuration", name)
	}
	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(cfg.BaseDir, 0755); err != nil {
				return nil, fmt.Errorf("local storage adapter '%s': failed to create BaseDir '%s': %w", name, cfg.BaseDir, err)
			}
		} else {
			return nil, fmt.Errorf("local storage adapter '%s': failed to stat BaseDir '%s': %w", name, cfg.BaseDir, err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("local storage adapter '%s': BaseDir '%s' is not a directory", name, cfg.BaseDir)
	}

	return &localStore{cfg: cfg, name: name}, nil
}

// NewFromConfig resolves the named storage adapter block from the application
// configuration and constructs the matching store.
func NewFromConfig(cfg *coreConfig.Config, name string) (storageAdapter.ArtifactStore, error) {
	raw, ok := cfg.Bulkops.Adapter.Storage[name]
	if !ok {
		return nil, fmt.Errorf("storage configuration '%s' not found in adapter.storage configs", name)
	}
	var storageCfg storageConfig.StorageConfig
	if err := mapstructure.Decode(raw, &storageCfg); err != nil {
		return nil, fmt.Errorf("failed to decode storage config for '%s': %w", name, err)
	}
	if storageCfg.Type != ProviderType {
		return nil, fmt.Errorf("unsupported storage provider type '%s' for adapter '%s'", storageCfg.Type, name)
	}
	return NewLocalStore(storageCfg, name)
}

// Upload writes data under the given artifact path, creating intermediate
// directories as needed, and returns the path.
func (s *localStore) Upload(ctx context.Context, path string, data io.Reader, contentType string) (string, error) {
	fullPath, err := s.resolvePath(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path for upload: %w", err)
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file '%s': %w", fullPath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		return "", fmt.Errorf("failed to write data to file '%s': %w", fullPath, err)
	}
	logger.Debugf("Uploaded artifact to '%s' (local store '%s').", fullPath, s.name)
	return path, nil
}

// Download opens the artifact at the given path. The returned ReadCloser
// must be closed by the caller.
func (s *localStore) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath, err := s.resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path for download: %w", err)
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file '%s': %w", fullPath, err)
	}
	return file, nil
}

// Delete removes the artifact at the given path. A missing artifact logs a
// warning and returns nil.
func (s *localStore) Delete(ctx context.Context, path string) error {
	fullPath, err := s.resolvePath(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path for delete: %w", err)
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			logger.Warnf("Attempted to delete non-existent artifact '%s' (local store '%s').", fullPath, s.name)
			return nil
		}
		return fmt.Errorf("failed to delete file '%s': %w", fullPath, err)
	}
	logger.Debugf("Deleted artifact '%s' (local store '%s').", fullPath, s.name)
	return nil
}

// List walks the store and calls fn for every artifact path under prefix.
func (s *localStore) List(ctx context.Context, prefix string, fn func(path string) error) error {
	baseDir := s.cfg.BaseDir

	err := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for '%s' from '%s': %w", path, baseDir, err)
		}
		rel = strings.ReplaceAll(rel, "\\", "/")

		if prefix != "" && !strings.HasPrefix(rel, prefix) {
			return nil
		}
		return fn(rel)
	})
	if err != nil {
		return fmt.Errorf("failed to list artifacts with prefix '%s': %w", prefix, err)
	}
	return nil
}

// resolvePath resolves the full path of an artifact relative to BaseDir and
// ensures the resolved path does not escape it.
func (s *localStore) resolvePath(path string) (string, error) {
	cleaned := filepath.Clean(filepath.Join(s.cfg.BaseDir, path))
	absBase, err := filepath.Abs(s.cfg.BaseDir)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return "", err
	}
	if absPath != absBase && !strings.HasPrefix(absPath, absBase+string(os.PathSeparator)) {
		return "", fmt.Errorf("artifact path '%s' escapes base directory", path)
	}
	return cleaned, nil
}
