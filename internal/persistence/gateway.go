// Package persistence durably stores and reloads the full service state.
package persistence

import (
	"context"
	"fmt"

	"civic_trust/internal/config"
	"civic_trust/internal/models"
)

// Gateway is the sole writer of durable storage and the sole reader at
// startup. Save always receives the full state.
type Gateway interface {
	Load(ctx context.Context) (models.Snapshot, error)
	Save(ctx context.Context, snap models.Snapshot) error
	Name() string
	Close() error
}

// Open returns the gateway selected by cfg.StorageDriver.
func Open(cfg *config.Config) (Gateway, error) {
	switch cfg.StorageDriver {
	case config.StorageFile, "":
		return NewFileGateway(cfg.DataFile), nil
	case config.StoragePostgres:
		db, err := config.OpenDB(cfg.Database)
		if err != nil {
			return nil, err
		}
		return NewPostgresGateway(db)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
