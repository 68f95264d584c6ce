// Package blobstore defines the byte storage used for uploaded files and
// picks an adapter (S3, local filesystem or memory) from configuration.
//
// Adapters report every failure wrapped in common.ErrorStorage; a missing
// object additionally wraps common.ErrorBlobNotFound.
package blobstore

import (
	"context"
	"io"
)

// BlobStore stores and retrieves opaque byte streams by key.
type BlobStore interface {
	// Put stores exactly size bytes read from r under key.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get returns the stream stored under key. The caller closes it.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}
