package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Dialect picks the placeholder style of the underlying driver.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

type Booking struct {
	ID          string
	Position    int64
	BookingDate string
	Doctor      string
	Hour        string
	Surgery     string
	Room        string
	Status      string
	CreatedAt   string
}

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries interface mimicking sqlc generated code
type Queries struct {
	db      DBTX
	dialect Dialect
}

func New(db DBTX, dialect Dialect) *Queries {
	return &Queries{db: db, dialect: dialect}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx, dialect: q.dialect}
}

// rebind rewrites $n placeholders for drivers that only understand '?'.
func (q *Queries) rebind(query string) string {
	if q.dialect != SQLite {
		return query
	}
	var sb strings.Builder
	for i := 0; i < len(query); i++ {
		if query[i] == '$' && i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
			sb.WriteByte('?')
			for i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				i++
			}
			continue
		}
		sb.WriteByte(query[i])
	}
	return sb.String()
}

const schema = `
CREATE TABLE IF NOT EXISTS bookings (
	id           TEXT PRIMARY KEY,
	position     BIGINT NOT NULL,
	booking_date TEXT NOT NULL,
	doctor       TEXT NOT NULL,
	hour         TEXT NOT NULL,
	surgery      TEXT NOT NULL,
	room         TEXT NOT NULL,
	status       TEXT NOT NULL,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS bookings_slot_idx ON bookings (booking_date, room, hour);
`

func (q *Queries) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := q.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

const listBookings = `SELECT id, position, booking_date, doctor, hour, surgery, room, status, created_at
FROM bookings ORDER BY position ASC`

func (q *Queries) ListBookings(ctx context.Context) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx, listBookings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Booking
	for rows.Next() {
		var i Booking
		if err := rows.Scan(&i.ID, &i.Position, &i.BookingDate, &i.Doctor, &i.Hour, &i.Surgery, &i.Room, &i.Status, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (q *Queries) NextPosition(ctx context.Context) (int64, error) {
	var last sql.NullInt64
	if err := q.db.QueryRowContext(ctx, "SELECT MAX(position) FROM bookings").Scan(&last); err != nil {
		return 0, err
	}
	return last.Int64 + 1, nil
}

const createBooking = `INSERT INTO bookings (id, position, booking_date, doctor, hour, surgery, room, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

func (q *Queries) CreateBooking(ctx context.Context, arg Booking) error {
	_, err := q.db.ExecContext(ctx, q.rebind(createBooking),
		arg.ID, arg.Position, arg.BookingDate, arg.Doctor, arg.Hour, arg.Surgery, arg.Room, arg.Status, arg.CreatedAt,
	)
	return err
}

func (q *Queries) DeleteAllBookings(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM bookings")
	return err
}
