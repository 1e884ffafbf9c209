// This file defines the narrow object-storage interface the pipeline
// persists artifacts through. Backends are interchangeable; the pipeline
// only sees relative paths going in and URLs coming out.

package storage

import (
	"context"
	"fmt"

	"github.com/athulyan/docforge-go/internal/config"
)

// Backend stores and retrieves artifact files under relative paths.
type Backend interface {
	Save(ctx context.Context, path string, data []byte) (string, error)
	Exists(ctx context.Context, path string) (bool, error)
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, dir string) ([]string, error)
}

// FromConfig selects a backend implementation by configuration.
func FromConfig(cfg *config.Config) (Backend, error) {
	switch cfg.Storage.Backend {
	case "", "local":
		return NewLocal(cfg.WorkspacePath, retryPolicy(cfg)), nil
	case "s3":
		return NewS3(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
