package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ashmitsharp/trackmoney-api/internal/config"
)

// New opens the backend selected by cfg.StorageBackend
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory, "":
		logger.Warn("using in-memory storage, documents are lost on restart")
		return NewMemoryStore(), nil

	case config.BackendPostgres:
		s, err := NewPostgresStore(ctx, cfg.DatabaseURL, cfg.DBMaxConnections, cfg.DBConnectionTimeout)
		if err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}
		logger.Info("postgres store ready", "max_connections", cfg.DBMaxConnections)
		return s, nil

	case config.BackendSQLite:
		s, err := NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		logger.Info("sqlite store ready", "path", cfg.SQLiteDBPath)
		return s, nil

	case config.BackendS3:
		s, err := NewS3Store(cfg.S3Bucket, cfg.S3Region, cfg.AWSEndpoint, cfg.S3Prefix)
		if err != nil {
			return nil, fmt.Errorf("s3 store: %w", err)
		}
		logger.Info("s3 store ready", "bucket", cfg.S3Bucket, "region", cfg.S3Region, "endpoint", cfg.AWSEndpoint)
		return s, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
