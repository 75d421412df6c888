// Package storage defines the interface for the file artifact store. Every
// stage of the pipeline writes its artifacts through this boundary; paths
// follow the pattern {operationId}/[json/]{derivedName}.{csv|json|mrc}.
package storage

import (
	"context"
	"io"
)

// ArtifactStore abstracts the remote artifact storage. Writers and readers
// are scoped resources: the caller must close every reader on all exit
// paths. Artifacts are written once and read many times.
type ArtifactStore interface {
	// Upload writes data under the given artifact path and returns the path.
	Upload(ctx context.Context, path string, data io.Reader, contentType string) (string, error)
	// Download opens the artifact at the given path. The returned
	// ReadCloser must be closed by the caller.
	Download(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete removes the artifact at the given path. Deleting an absent
	// path is not an error.
	Delete(ctx context.Context, path string) error
	// List calls fn for every artifact path under the given prefix.
	List(ctx context.Context, prefix string, fn func(path string) error) error
}
