package booking

import (
	"context"

	"operation-list/internal/models"
)

// Store defines the persistence operations the service needs.
type Store interface {
	List(ctx context.Context) ([]*models.Booking, error)
	Append(ctx context.Context, b *models.Booking) error
	Replace(ctx context.Context, rows []*models.Booking) error
}

// Mirror copies the archive somewhere else after every change.
type Mirror interface {
	Push(ctx context.Context, rows []*models.Booking, message string) error
}
