package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"operation-list/internal/db"
	"operation-list/internal/models"
)

// SQLStore keeps the archive in a bookings table.
type SQLStore struct {
	q    *db.Queries
	conn *sql.DB
}

func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return NewSQLStore(ctx, conn, db.Postgres)
}

func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer.
	conn.SetMaxOpenConns(1)
	return NewSQLStore(ctx, conn, db.SQLite)
}

// NewSQLStore takes ownership of conn and creates the schema if needed.
func NewSQLStore(ctx context.Context, conn *sql.DB, dialect db.Dialect) (*SQLStore, error) {
	s := &SQLStore{q: db.New(conn, dialect), conn: conn}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := s.q.Migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) List(ctx context.Context) ([]*models.Booking, error) {
	items, err := s.q.ListBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	rows := make([]*models.Booking, 0, len(items))
	for _, i := range items {
		rows = append(rows, fromRow(i))
	}
	return rows, nil
}

func (s *SQLStore) Append(ctx context.Context, b *models.Booking) error {
	return s.inTx(ctx, func(q *db.Queries) error {
		pos, err := q.NextPosition(ctx)
		if err != nil {
			return err
		}
		return q.CreateBooking(ctx, toRow(b, pos))
	})
}

func (s *SQLStore) Replace(ctx context.Context, rows []*models.Booking) error {
	return s.inTx(ctx, func(q *db.Queries) error {
		if err := q.DeleteAllBookings(ctx); err != nil {
			return err
		}
		for i, b := range rows {
			if err := q.CreateBooking(ctx, toRow(b, int64(i+1))); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLStore) Close() error { return s.conn.Close() }

func (s *SQLStore) inTx(ctx context.Context, fn func(q *db.Queries) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(s.q.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func toRow(b *models.Booking, pos int64) db.Booking {
	created := ""
	if !b.CreatedAt.IsZero() {
		created = b.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return db.Booking{
		ID:          b.ID,
		Position:    pos,
		BookingDate: b.DateString(),
		Doctor:      b.Doctor,
		Hour:        b.Hour,
		Surgery:     b.Surgery,
		Room:        b.Room,
		Status:      b.StatusOrDefault(),
		CreatedAt:   created,
	}
}

func fromRow(i db.Booking) *models.Booking {
	b := &models.Booking{
		ID:      i.ID,
		Doctor:  i.Doctor,
		Hour:    i.Hour,
		Surgery: i.Surgery,
		Room:    i.Room,
		Status:  i.Status,
	}
	if d, ok := models.ParseDate(i.BookingDate); ok {
		b.Date = d
	} else {
		b.RawDate = i.BookingDate
	}
	if i.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, i.CreatedAt); err == nil {
			b.CreatedAt = t
		}
	}
	return b
}
