package mirror

import (
	"bytes"
	"context"
	"fmt"

	"operation-list/internal/models"
	"operation-list/internal/store"
)

// Archive publishes booking rows as the archive CSV at a fixed repository path.
type Archive struct {
	client *Client
	path   string
}

func NewArchive(client *Client, path string) *Archive {
	return &Archive{client: client, path: path}
}

func (a *Archive) Path() string { return a.path }

// Push satisfies booking.Mirror.
func (a *Archive) Push(ctx context.Context, rows []*models.Booking, message string) error {
	data, err := store.Encode(rows)
	if err != nil {
		return fmt.Errorf("encode archive: %w", err)
	}
	return a.client.Push(ctx, a.path, data, message)
}

// PushFile uploads already-encoded archive bytes.
func (a *Archive) PushFile(ctx context.Context, data []byte, message string) error {
	return a.client.Push(ctx, a.path, data, message)
}

// Fetch downloads and decodes the remote archive.
func (a *Archive) Fetch(ctx context.Context) ([]*models.Booking, error) {
	data, err := a.client.Pull(ctx, a.path)
	if err != nil {
		return nil, err
	}
	rows, err := store.DecodeCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode remote archive: %w", err)
	}
	return rows, nil
}
