package blobstore

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cloudservice/internal/logging"
	"github.com/dmitrijs2005/cloudservice/internal/server/blobstore/local"
	"github.com/dmitrijs2005/cloudservice/internal/server/blobstore/memory"
	s3store "github.com/dmitrijs2005/cloudservice/internal/server/blobstore/s3"
	"github.com/dmitrijs2005/cloudservice/internal/server/config"
)

// New builds the adapter selected by cfg.BlobBackend and wraps it with
// metrics when m is not nil. The S3 bucket is created if it is missing.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger, m *Metrics) (BlobStore, error) {
	var (
		store BlobStore
		err   error
	)

	switch cfg.BlobBackend {
	case "s3":
		var s *s3store.Store
		s, err = s3store.New(ctx, s3store.Config{
			Endpoint:  cfg.S3BaseEndpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3RootUser,
			SecretKey: cfg.S3RootPassword,
			Region:    cfg.S3Region,
		})
		if err == nil {
			err = s.EnsureBucket(ctx)
			if err == nil {
				logger.Info(ctx, "bucket ready", "bucket", cfg.S3Bucket)
			}
		}
		store = s
	case "local":
		store, err = local.New(cfg.LocalRootPath)
	case "memory":
		store = memory.New()
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("blob backend %s: %w", cfg.BlobBackend, err)
	}

	logger.Info(ctx, "blob backend initialised", "backend", cfg.BlobBackend)

	if m == nil {
		return store, nil
	}
	return NewInstrumented(store, cfg.BlobBackend, m), nil
}
