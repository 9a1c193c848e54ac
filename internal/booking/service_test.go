package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"operation-list/internal/logger"
	"operation-list/internal/models"
)

var fixedNow = time.Date(2025, 6, 10, 8, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Helper for boilerplate setup
func setupService(t testing.TB, rows []*models.Booking, opts ...Option) (*Service, *MockStore) {
	store := &MockStore{rows: rows}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow }), WithLocation(time.UTC)}, opts...)
	return NewService(store, models.DefaultReferenceData(), logger.Test(t), opts...), store
}

func validRequest() Request {
	return Request{Date: "2025-06-12", Room: "Room 1", Hour: "10:30", Doctor: "  Dr. Karwan ", Surgery: "Phaco"}
}

func TestBook_AppendsExactlyOneRow(t *testing.T) {
	svc, store := setupService(t, []*models.Booking{
		{ID: "x", Date: day(2025, 6, 12), Room: "Room 2", Hour: "10:30", Doctor: "Dr. Lana"},
	})

	receipt, err := svc.Book(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if store.Len() != 2 {
		t.Errorf("Expected 2 rows, got %d", store.Len())
	}

	b := receipt.Booking
	if b.Doctor != "Dr. Karwan" {
		t.Errorf("Doctor not trimmed: %q", b.Doctor)
	}
	if b.ID == "" || b.Status != models.StatusBooked {
		t.Errorf("Expected id and Booked status, got %q %q", b.ID, b.Status)
	}
	if !b.CreatedAt.Equal(fixedNow) {
		t.Errorf("CreatedAt = %v", b.CreatedAt)
	}
	if receipt.Mirrored || receipt.MirrorErr != nil {
		t.Errorf("No mirror configured, got %+v", receipt)
	}
}

func TestBook_RejectsTakenSlot(t *testing.T) {
	svc, store := setupService(t, []*models.Booking{
		{ID: "x", Date: day(2025, 6, 12), Room: "Room 1", Hour: "10:30", Doctor: "Dr. Lana", Status: ""},
	})

	_, err := svc.Book(context.Background(), validRequest())
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("Expected ErrSlotTaken, got %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("Row appended despite overlap")
	}
}

func TestBook_CancelledSlotIsFree(t *testing.T) {
	svc, store := setupService(t, []*models.Booking{
		{ID: "x", Date: day(2025, 6, 12), Room: "Room 1", Hour: "10:30", Status: models.StatusCancelled},
	})

	if _, err := svc.Book(context.Background(), validRequest()); err != nil {
		t.Fatalf("Expected cancelled slot to be bookable, got %v", err)
	}
	if store.Len() != 2 {
		t.Errorf("Expected 2 rows, got %d", store.Len())
	}
}

func TestBook_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		want   error
		field  string
	}{
		{"empty doctor", func(r *Request) { r.Doctor = "   " }, ErrDoctorRequired, ""},
		{"bad date", func(r *Request) { r.Date = "12/06" }, ErrInvalidField, "date"},
		{"unknown room", func(r *Request) { r.Room = "Room 9" }, ErrInvalidField, "room"},
		{"off-grid hour", func(r *Request) { r.Hour = "10:15" }, ErrInvalidField, "hour"},
		{"late hour", func(r *Request) { r.Hour = "22:30" }, ErrInvalidField, "hour"},
		{"unknown surgery", func(r *Request) { r.Surgery = "LASIK" }, ErrInvalidField, "surgery type"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, store := setupService(t, nil)
			req := validRequest()
			tc.mutate(&req)

			_, err := svc.Book(context.Background(), req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Expected %v, got %v", tc.want, err)
			}
			var fe *FieldError
			if tc.field != "" && (!errors.As(err, &fe) || fe.Field != tc.field) {
				t.Errorf("Expected field %q, got %v", tc.field, err)
			}
			if store.Len() != 0 {
				t.Errorf("Row appended on invalid request")
			}
		})
	}
}

func TestBook_NormalisesHour(t *testing.T) {
	svc, _ := setupService(t, nil)
	req := validRequest()
	req.Hour = "10:00:00"
	receipt, err := svc.Book(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if receipt.Booking.Hour != "10:00" {
		t.Errorf("Hour = %q", receipt.Booking.Hour)
	}
}

func TestBook_StoreErrors(t *testing.T) {
	boom := errors.New("disk full")

	svc, _ := setupService(t, nil)
	svc.store = &MockStore{AppendFunc: func(ctx context.Context, b *models.Booking) error { return boom }}
	if _, err := svc.Book(context.Background(), validRequest()); !errors.Is(err, boom) {
		t.Errorf("Expected wrapped append error, got %v", err)
	}

	svc.store = &MockStore{ListFunc: func(ctx context.Context) ([]*models.Booking, error) { return nil, boom }}
	if _, err := svc.Book(context.Background(), validRequest()); !errors.Is(err, boom) {
		t.Errorf("Expected wrapped list error, got %v", err)
	}
}

func TestBook_MirrorFailureKeepsBooking(t *testing.T) {
	var pushed []*models.Booking
	var message string
	mirror := &MockMirror{PushFunc: func(ctx context.Context, rows []*models.Booking, msg string) error {
		pushed, message = rows, msg
		return errors.New("github: 401")
	}}
	svc, store := setupService(t, nil, WithMirror(mirror))

	receipt, err := svc.Book(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Mirror failure must not fail the booking: %v", err)
	}
	if receipt.Mirrored || receipt.MirrorErr == nil {
		t.Errorf("Expected mirror error in receipt, got %+v", receipt)
	}
	if store.Len() != 1 || len(pushed) != 1 {
		t.Errorf("Expected 1 stored and 1 pushed row, got %d and %d", store.Len(), len(pushed))
	}
	if message != "Update Operation Archive via app" {
		t.Errorf("Unexpected commit message %q", message)
	}
}

func TestBook_ConcurrentSameSlot(t *testing.T) {
	svc, store := setupService(t, nil)

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	var booked, taken int
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Book(context.Background(), validRequest())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				booked++
			case errors.Is(err, ErrSlotTaken):
				taken++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if booked != 1 || taken != workers-1 {
		t.Errorf("Expected 1 booking and %d rejections, got %d and %d", workers-1, booked, taken)
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 row, got %d", store.Len())
	}
}

func TestCancel(t *testing.T) {
	svc, store := setupService(t, []*models.Booking{
		{ID: "a", Date: day(2025, 6, 12), Room: "Room 1", Hour: "10:30", Doctor: "Dr. A"},
		{ID: "b", Date: day(2025, 6, 12), Room: "Room 2", Hour: "10:30", Doctor: "Dr. B"},
	})
	ctx := context.Background()

	if _, err := svc.Cancel(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	got, err := svc.Find(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if got.Active() {
		t.Errorf("Expected a to be cancelled")
	}
	if store.Len() != 2 {
		t.Errorf("Cancel must keep the row, got %d rows", store.Len())
	}

	if _, err := svc.Cancel(ctx, "a"); err != nil {
		t.Errorf("Second cancel should be a no-op, got %v", err)
	}
	if _, err := svc.Cancel(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if _, err := svc.Book(ctx, validRequest()); err != nil {
		t.Errorf("Slot should be free after cancel: %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc, store := setupService(t, []*models.Booking{
		{ID: "a", Date: day(2025, 6, 12), Room: "Room 1", Hour: "10:30"},
		{ID: "b", Date: day(2025, 6, 13), Room: "Room 1", Hour: "10:30"},
		{ID: "c", Date: day(2025, 6, 14), Room: "Room 1", Hour: "10:30"},
	})
	ctx := context.Background()

	if _, err := svc.Delete(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	rows, _ := svc.All(ctx)
	if len(rows) != 2 || rows[0].ID != "a" || rows[1].ID != "c" {
		t.Errorf("Unexpected rows after delete: %v", rows)
	}
	if store.Len() != 2 {
		t.Errorf("Expected 2 rows, got %d", store.Len())
	}
	if _, err := svc.Delete(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCheckOverlap(t *testing.T) {
	rows := []*models.Booking{
		{Date: day(2025, 6, 12), Room: "Room 1", Hour: "10:00"},
		{Date: day(2025, 6, 12), Room: "Room 2", Hour: "11:00", Status: models.StatusCancelled},
		{Room: "Room 1", Hour: "12:00"},
	}
	slot := func(room, hour string) models.Slot {
		return models.Slot{Date: day(2025, 6, 12), Room: room, Hour: hour}
	}

	if !CheckOverlap(rows, slot("Room 1", "10:00")) {
		t.Errorf("Expected overlap with active row")
	}
	if CheckOverlap(rows, slot("Room 2", "11:00")) {
		t.Errorf("Cancelled rows must not overlap")
	}
	if CheckOverlap(rows, slot("Room 1", "12:00")) {
		t.Errorf("Rows without a date must not overlap")
	}
	if CheckOverlap(nil, slot("Room 1", "10:00")) {
		t.Errorf("Empty archive cannot overlap")
	}
}
