package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"operation-list/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newBooking(id string, date time.Time, room, hour, doctor string) *models.Booking {
	return &models.Booking{
		ID:        id,
		Date:      date,
		Doctor:    doctor,
		Hour:      hour,
		Surgery:   "Phaco",
		Room:      room,
		Status:    models.StatusBooked,
		CreatedAt: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestNewCSVStore_CreatesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "Operation Archive.csv")
	s, err := NewCSVStore(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Date,Doctor,Hour,Surgery Type,Room,Status,ID,Created At\n", string(data))

	rows, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCSVStore_AppendAndList(t *testing.T) {
	ctx := context.Background()
	s, err := NewCSVStore(filepath.Join(t.TempDir(), "archive.csv"))
	require.NoError(t, err)

	first := newBooking("a", day(2025, 5, 1), "Room 1", "10:00", "Dr. Karwan")
	second := newBooking("b", day(2025, 5, 1), "Room 2", "10:00", "Dr. Lana, MD")
	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, second))

	rows, err := s.List(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff([]*models.Booking{first, second}, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVStore_LegacyHeaders(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	variants := map[string]string{
		"original":  "Date,Doctor,Hour,Surgery Type,Room\n2025-01-01,Dr.Test,10:00,Phaco,Room 1\n",
		"hall":      "Date,Hall,Doctor,Hour,Surgery\n2025-01-01,Room 1,Dr.Test,10:00,Phaco\n",
		"messy":     " date ,DOCTOR,hour,surgery type,room,Notes\n2025-01-01 00:00:00,Dr.Test,10:00:00,Phaco,Room 1,x\n",
		"no_status": "Date,Doctor,Hour,Surgery,Room\n2025-01-01, Dr.Test ,10:00,Phaco,Room 1\n",
	}

	for name, content := range variants {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".csv")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			s, err := NewCSVStore(path)
			require.NoError(t, err)

			rows, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, rows, 1)

			b := rows[0]
			assert.True(t, day(2025, 1, 1).Equal(b.Date))
			assert.Equal(t, "Dr.Test", b.Doctor)
			assert.Equal(t, "10:00", b.Hour)
			assert.Equal(t, "Phaco", b.Surgery)
			assert.Equal(t, "Room 1", b.Room)
			assert.True(t, b.Active())
			assert.NotEmpty(t, b.ID)

			again, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, b.ID, again[0].ID, "legacy ids are stable across loads")
		})
	}
}

func TestCSVStore_AppendUpgradesLegacyHeader(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "archive.csv")
	legacy := "Date,Doctor,Hour,Surgery Type,Room\n2025-01-01,Dr.Test,10:00,Phaco,Room 1"
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	s, err := NewCSVStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, newBooking("new", day(2025, 1, 2), "Room 2", "11:30", "Dr. Lana")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(Header, ","), lines[0])

	rows, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Dr.Test", rows[0].Doctor)
	assert.Equal(t, "new", rows[1].ID)
}

func TestCSVStore_AppendWithoutTrailingNewline(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "archive.csv")
	content := strings.Join(Header, ",") + "\n2025-01-01,Dr.Test,10:00,Phaco,Room 1,Booked,x,"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := NewCSVStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, newBooking("y", day(2025, 1, 1), "Room 2", "10:00", "Dr. Lana")))

	rows, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "x", rows[0].ID)
	assert.Equal(t, "y", rows[1].ID)
}

func TestCSVStore_Replace(t *testing.T) {
	ctx := context.Background()
	s, err := NewCSVStore(filepath.Join(t.TempDir(), "archive.csv"))
	require.NoError(t, err)

	a := newBooking("a", day(2025, 5, 1), "Room 1", "10:00", "Dr. A")
	b := newBooking("b", day(2025, 5, 2), "Room 1", "10:00", "Dr. B")
	require.NoError(t, s.Append(ctx, a))
	require.NoError(t, s.Append(ctx, b))

	b.Status = models.StatusCancelled
	require.NoError(t, s.Replace(ctx, []*models.Booking{b}))

	rows, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0].ID)
	assert.False(t, rows[0].Active())

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestCSVStore_CanceledContext(t *testing.T) {
	s, err := NewCSVStore(filepath.Join(t.TempDir(), "archive.csv"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Append(ctx, newBooking("a", day(2025, 5, 1), "Room 1", "10:00", "Dr. A")), context.Canceled)
}

func TestEncodeDecodeKeepsUnreadableDates(t *testing.T) {
	rows, err := DecodeCSV(strings.NewReader("Date,Doctor,Hour,Surgery Type,Room\nsoon,Dr.Test,noon,Phaco,Room 1\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Date.IsZero())
	assert.Equal(t, "soon", rows[0].RawDate)
	assert.Equal(t, "noon", rows[0].Hour)

	data, err := Encode(rows)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\nsoon,Dr.Test,noon,Phaco,Room 1,Booked,")
}

func TestCSVStore_RewriteKeepsUnreadableDates(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "archive.csv")
	legacy := "Date,Doctor,Hour,Surgery Type,Room\n12/06/2025,Dr. Old,10:00,Phaco,Room 1\n"
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	s, err := NewCSVStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, newBooking("new", day(2025, 6, 12), "Room 1", "10:00", "Dr. New")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n12/06/2025,Dr. Old,10:00,Phaco,Room 1,Booked,")

	rows, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Date.IsZero())
	assert.Equal(t, "12/06/2025", rows[0].DateString())

	rows[1].Status = models.StatusCancelled
	require.NoError(t, s.Replace(ctx, rows))

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n12/06/2025,Dr. Old,10:00,Phaco,Room 1,Booked,")
}
