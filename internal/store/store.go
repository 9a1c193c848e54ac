package store

import (
	"context"
	"fmt"

	"operation-list/internal/config"
	"operation-list/internal/models"
)

// Archive is the persistence surface for booking rows. Row order is insertion
// order and is preserved by every implementation.
type Archive interface {
	List(ctx context.Context) ([]*models.Booking, error)
	Append(ctx context.Context, b *models.Booking) error
	// Replace rewrites the whole archive with rows.
	Replace(ctx context.Context, rows []*models.Booking) error
	Close() error
}

var (
	_ Archive = (*CSVStore)(nil)
	_ Archive = (*SQLStore)(nil)
)

// Open returns the archive selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Archive, error) {
	switch cfg.Driver {
	case "", "csv":
		return NewCSVStore(cfg.Path)
	case "sqlite":
		return OpenSQLite(ctx, cfg.Path)
	case "postgres":
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
