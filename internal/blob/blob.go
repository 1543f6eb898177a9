// Package blob opens the configured artifact store used for board exports.
package blob

import (
	"context"
	"fmt"

	"todoboard/internal/blob/core"
	"todoboard/internal/config"
	fsstore "todoboard/internal/infra/blob/fs"
	memstore "todoboard/internal/infra/blob/memory"
	s3store "todoboard/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	DriverMemory     = core.DriverMemory
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
)

var (
	ErrNotFound    = core.ErrNotFound
	ErrExists      = core.ErrExists
	ErrUnsupported = core.ErrUnsupported
)

// Open selects a Store implementation from cfg.
func Open(ctx context.Context, cfg config.Blob) (Store, error) {
	switch Driver(cfg.Driver) {
	case "", DriverMemory:
		return memstore.New(), nil
	case DriverFilesystem:
		s, err := fsstore.New(cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverS3:
		s, err := s3store.New(ctx, s3store.Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}

// NewMemory returns an in-memory Store.
func NewMemory() Store { return memstore.New() }
