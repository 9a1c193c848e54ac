package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"operation-list/internal/models"
)

const (
	colDate      = "Date"
	colDoctor    = "Doctor"
	colHour      = "Hour"
	colSurgery   = "Surgery"
	colRoom      = "Room"
	colStatus    = "Status"
	colID        = "ID"
	colCreatedAt = "CreatedAt"
)

// Header is the column layout written for new archives. The first five columns
// match the layout of archives written before status and ids were tracked.
var Header = []string{"Date", "Doctor", "Hour", "Surgery Type", "Room", "Status", "ID", "Created At"}

var headerKeys = []string{colDate, colDoctor, colHour, colSurgery, colRoom, colStatus, colID, colCreatedAt}

var headerAliases = map[string]string{
	"Date":         colDate,
	"Doctor":       colDoctor,
	"Hour":         colHour,
	"Surgery":      colSurgery,
	"Surgery Type": colSurgery,
	"Room":         colRoom,
	"Hall":         colRoom,
	"Status":       colStatus,
	"Id":           colID,
	"Created At":   colCreatedAt,
	"Createdat":    colCreatedAt,
}

var titleCaser = cases.Title(language.Und)

// normalizeHeader maps a raw column name to its column key, or "" when the
// column is not part of a booking.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.Join(strings.Fields(h), " ")
	return headerAliases[titleCaser.String(h)]
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// isCurrentHeader reports whether rows can be appended under header without
// losing any booking field.
func isCurrentHeader(header []string) bool {
	idx := headerIndex(header)
	for _, key := range headerKeys {
		if _, ok := idx[key]; !ok {
			return false
		}
	}
	return true
}

// DecodeCSV reads an archive. Column names are matched case-insensitively and
// legacy names are accepted; missing columns read as empty. Rows without an id
// get one derived from their position and content.
func DecodeCSV(r io.Reader) ([]*models.Booking, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := headerIndex(header)

	var rows []*models.Booking
	seen := make(map[string]bool)
	for n := 1; ; n++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", n, err)
		}

		field := func(key string) string {
			i, ok := idx[key]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		b := &models.Booking{
			Doctor:  field(colDoctor),
			Hour:    field(colHour),
			Surgery: field(colSurgery),
			Room:    field(colRoom),
			Status:  field(colStatus),
			ID:      field(colID),
		}
		if d, ok := models.ParseDate(field(colDate)); ok {
			b.Date = d
		} else {
			b.RawDate = field(colDate)
		}
		if h, ok := models.NormalizeHour(b.Hour); ok {
			b.Hour = h
		}
		if ts := field(colCreatedAt); ts != "" {
			if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				b.CreatedAt = t
			}
		}
		if b.ID == "" || seen[b.ID] {
			b.ID = legacyID(n, rec)
		}
		seen[b.ID] = true
		rows = append(rows, b)
	}
	return rows, nil
}

func legacyID(n int, rec []string) string {
	name := fmt.Sprintf("%d|%s", n, strings.Join(rec, ","))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// columnWriter lays booking fields out in the column order of an existing header.
type columnWriter struct {
	keys []string
}

func newColumnWriter(header []string) *columnWriter {
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = normalizeHeader(h)
	}
	return &columnWriter{keys: keys}
}

func (c *columnWriter) record(b *models.Booking) []string {
	rec := make([]string, len(c.keys))
	for i, key := range c.keys {
		rec[i] = c.value(b, key)
	}
	return rec
}

func (c *columnWriter) value(b *models.Booking, key string) string {
	switch key {
	case colDate:
		return b.DateString()
	case colDoctor:
		return b.Doctor
	case colHour:
		return b.Hour
	case colSurgery:
		return b.Surgery
	case colRoom:
		return b.Room
	case colStatus:
		return b.StatusOrDefault()
	case colID:
		return b.ID
	case colCreatedAt:
		if b.CreatedAt.IsZero() {
			return ""
		}
		return b.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return ""
}

// EncodeCSV writes rows under the current Header.
func EncodeCSV(w io.Writer, rows []*models.Booking) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	cols := newColumnWriter(Header)
	for _, b := range rows {
		if err := cw.Write(cols.record(b)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Encode returns rows as archive CSV bytes.
func Encode(rows []*models.Booking) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
