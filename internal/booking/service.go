package booking

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"operation-list/internal/logger"
	"operation-list/internal/models"
)

const (
	messageBooked    = "Update Operation Archive via app"
	messageCancelled = "Cancel booking via app"
	messageDeleted   = "Delete booking via app"
)

// Service validates booking requests and serialises writes to the archive.
type Service struct {
	// mu serialises every read-modify-write of the archive, so two
	// submissions for one slot cannot both pass the overlap check.
	mu sync.Mutex

	store  Store
	mirror Mirror
	ref    *models.ReferenceData
	lggr   logger.Logger
	now    func() time.Time
	loc    *time.Location
}

// Option configures a Service.
type Option func(*Service)

// WithMirror pushes the archive to m after every write.
func WithMirror(m Mirror) Option {
	return func(s *Service) { s.mirror = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the clinic timezone used to decide what today is.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// NewService returns a Service over store. It names lggr "booking".
func NewService(store Store, ref *models.ReferenceData, lggr logger.Logger, opts ...Option) *Service {
	if ref == nil {
		ref = models.DefaultReferenceData()
	}
	s := &Service{
		store: store,
		ref:   ref,
		lggr:  lggr.Named("booking"),
		now:   time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Reference() *models.ReferenceData { return s.ref }

// Today is the current calendar day in the clinic timezone.
func (s *Service) Today() time.Time {
	return models.DateOf(s.now().In(s.loc))
}

// Request is a booking as submitted through the form.
type Request struct {
	Date    string
	Room    string
	Hour    string
	Doctor  string
	Surgery string
}

// Receipt describes a stored booking. MirrorErr is set when the booking was
// saved but copying the archive failed.
type Receipt struct {
	Booking   *models.Booking
	Mirrored  bool
	MirrorErr error
}

// CheckOverlap reports whether any active row already occupies slot.
func CheckOverlap(rows []*models.Booking, slot models.Slot) bool {
	for _, b := range rows {
		if b.Active() && b.Slot().Equal(slot) {
			return true
		}
	}
	return false
}

func (s *Service) validate(req Request) (*models.Booking, error) {
	doctor := strings.TrimSpace(req.Doctor)
	if doctor == "" {
		return nil, ErrDoctorRequired
	}
	date, ok := models.ParseDate(req.Date)
	if !ok {
		return nil, &FieldError{Field: "date", Value: req.Date}
	}
	if !s.ref.HasRoom(req.Room) {
		return nil, &FieldError{Field: "room", Value: req.Room}
	}
	hour, ok := models.NormalizeHour(req.Hour)
	if !ok || !s.ref.HasHour(hour) {
		return nil, &FieldError{Field: "hour", Value: req.Hour}
	}
	if !s.ref.HasSurgery(req.Surgery) {
		return nil, &FieldError{Field: "surgery type", Value: req.Surgery}
	}
	return &models.Booking{
		Date:    date,
		Doctor:  doctor,
		Hour:    hour,
		Surgery: req.Surgery,
		Room:    req.Room,
		Status:  models.StatusBooked,
	}, nil
}

// Book validates req, rejects it when its slot is taken and appends it otherwise.
func (s *Service) Book(ctx context.Context, req Request) (*Receipt, error) {
	b, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	rows, err := s.store.List(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	if CheckOverlap(rows, b.Slot()) {
		s.mu.Unlock()
		s.lggr.Infow("slot taken", "date", b.DateString(), "room", b.Room, "hour", b.Hour)
		return nil, ErrSlotTaken
	}
	b.ID = uuid.NewString()
	b.CreatedAt = s.now().UTC()
	if err := s.store.Append(ctx, b); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("append booking: %w", err)
	}
	rows = append(rows, b)
	s.mu.Unlock()

	s.lggr.Infow("booked", "id", b.ID, "date", b.DateString(), "room", b.Room, "hour", b.Hour, "doctor", b.Doctor)
	receipt := &Receipt{Booking: b}
	receipt.Mirrored, receipt.MirrorErr = s.push(ctx, rows, messageBooked)
	return receipt, nil
}

// Cancel marks a booking cancelled, freeing its slot. Cancelling twice is a no-op.
func (s *Service) Cancel(ctx context.Context, id string) (*Receipt, error) {
	return s.rewrite(ctx, id, messageCancelled, func(rows []*models.Booking, i int) ([]*models.Booking, bool) {
		if !rows[i].Active() {
			return rows, false
		}
		rows[i].Status = models.StatusCancelled
		return rows, true
	})
}

// Delete removes a booking from the archive.
func (s *Service) Delete(ctx context.Context, id string) (*Receipt, error) {
	return s.rewrite(ctx, id, messageDeleted, func(rows []*models.Booking, i int) ([]*models.Booking, bool) {
		return append(rows[:i:i], rows[i+1:]...), true
	})
}

func (s *Service) rewrite(ctx context.Context, id, message string, edit func([]*models.Booking, int) ([]*models.Booking, bool)) (*Receipt, error) {
	s.mu.Lock()
	rows, err := s.store.List(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	i := indexOf(rows, id)
	if i < 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	target := rows[i]
	rows, changed := edit(rows, i)
	if !changed {
		s.mu.Unlock()
		return &Receipt{Booking: target}, nil
	}
	if err := s.store.Replace(ctx, rows); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("rewrite archive: %w", err)
	}
	s.mu.Unlock()

	s.lggr.Infow(strings.ToLower(message), "id", id)
	receipt := &Receipt{Booking: target}
	receipt.Mirrored, receipt.MirrorErr = s.push(ctx, rows, message)
	return receipt, nil
}

func (s *Service) push(ctx context.Context, rows []*models.Booking, message string) (bool, error) {
	if s.mirror == nil {
		return false, nil
	}
	if err := s.mirror.Push(ctx, rows, message); err != nil {
		s.lggr.Warnw("mirror push failed", "err", err)
		return false, err
	}
	return true, nil
}

func indexOf(rows []*models.Booking, id string) int {
	for i, b := range rows {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the booking with id.
func (s *Service) Find(ctx context.Context, id string) (*models.Booking, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(rows, id); i >= 0 {
		return rows[i], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// All returns every row in archive order.
func (s *Service) All(ctx context.Context) ([]*models.Booking, error) {
	return s.store.List(ctx)
}

// Restore replaces the archive with rows, e.g. after pulling the mirror.
func (s *Service) Restore(ctx context.Context, rows []*models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Replace(ctx, rows); err != nil {
		return fmt.Errorf("restore archive: %w", err)
	}
	s.lggr.Infow("archive restored", "rows", len(rows))
	return nil
}
