package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"operation-list/internal/booking"
	"operation-list/internal/models"
	"operation-list/internal/store"
)

const (
	msgDoctorRequired = "Doctor name required."
	msgSlotTaken      = "Room already booked at this time."
	msgSaveFailed     = "Could not save the booking. Please try again."
	msgBadPassword    = "Incorrect password"
	msgMirrorFailed   = "The remote archive could not be updated."
)

type UpcomingData struct {
	Groups []booking.DayGroup
	Ref    *models.ReferenceData
	Form   booking.Request
	Error  string
}

type ArchiveData struct {
	Bookings []*models.Booking
}

type LoginData struct {
	Error string
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func (a *App) serverError(w http.ResponseWriter, r *http.Request, err error) {
	a.lggr.Errorw("request failed", "path", r.URL.Path, "err", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// flashFromQuery turns the redirect markers set after a write into a banner.
func flashFromQuery(q url.Values) *Flash {
	var f *Flash
	switch {
	case q.Get("booked") == "1":
		f = &Flash{Kind: "success", Message: "Booking saved."}
	case q.Get("cancelled") == "1":
		f = &Flash{Kind: "success", Message: "Booking cancelled."}
	case q.Get("deleted") == "1":
		f = &Flash{Kind: "success", Message: "Booking deleted."}
	}
	if q.Get("mirror") == "failed" {
		if f == nil {
			return &Flash{Kind: "warning", Message: msgMirrorFailed}
		}
		f.Kind = "warning"
		f.Message += " " + msgMirrorFailed
	}
	return f
}

func (a *App) defaultForm() booking.Request {
	ref := a.svc.Reference()
	form := booking.Request{Date: a.svc.Today().Format(models.DateLayout)}
	if len(ref.Rooms) > 0 {
		form.Room = ref.Rooms[0]
	}
	if len(ref.Hours) > 0 {
		form.Hour = ref.Hours[0]
	}
	if len(ref.SurgeryTypes) > 0 {
		form.Surgery = ref.SurgeryTypes[0]
	}
	return form
}

func (a *App) renderUpcoming(w http.ResponseWriter, r *http.Request, status int, form booking.Request, formErr string, flash *Flash) {
	groups, err := a.svc.Upcoming(r.Context())
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	a.render(w, r, status, "upcoming", Page{
		Title:   "Upcoming",
		Active:  "upcoming",
		ShowNav: true,
		Flash:   flash,
		Data: UpcomingData{
			Groups: groups,
			Ref:    a.svc.Reference(),
			Form:   form,
			Error:  formErr,
		},
	})
}

func (a *App) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	a.renderUpcoming(w, r, http.StatusOK, a.defaultForm(), "", flashFromQuery(r.URL.Query()))
}

// bookingError maps a Book failure to the inline form message and status.
func bookingError(err error) (string, int) {
	var fieldErr *booking.FieldError
	switch {
	case errors.Is(err, booking.ErrDoctorRequired):
		return msgDoctorRequired, http.StatusUnprocessableEntity
	case errors.Is(err, booking.ErrSlotTaken):
		return msgSlotTaken, http.StatusUnprocessableEntity
	case errors.As(err, &fieldErr):
		return "Invalid " + fieldErr.Field + ".", http.StatusUnprocessableEntity
	default:
		return msgSaveFailed, http.StatusInternalServerError
	}
}

func (a *App) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	req := booking.Request{
		Date:    r.FormValue("date"),
		Room:    r.FormValue("room"),
		Hour:    r.FormValue("hour"),
		Doctor:  r.FormValue("doctor"),
		Surgery: r.FormValue("surgery"),
	}

	receipt, err := a.svc.Book(r.Context(), req)
	if err != nil {
		msg, status := bookingError(err)
		if status == http.StatusInternalServerError {
			a.lggr.Errorw("booking failed", "err", err)
		}
		a.renderUpcoming(w, r, status, req, msg, nil)
		return
	}

	q := url.Values{"booked": {"1"}}
	if receipt.MirrorErr != nil {
		q.Set("mirror", "failed")
	}
	http.Redirect(w, r, "/?"+q.Encode(), http.StatusSeeOther)
}

// returnPath only follows local paths.
func returnPath(r *http.Request) string {
	switch r.FormValue("return") {
	case "/archive":
		return "/archive"
	case "/calendar":
		return "/calendar"
	default:
		return "/"
	}
}

func (a *App) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	a.updateBooking(w, r, "cancelled", a.svc.Cancel)
}

func (a *App) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	a.updateBooking(w, r, "deleted", a.svc.Delete)
}

func (a *App) updateBooking(w http.ResponseWriter, r *http.Request, marker string, op func(ctx context.Context, id string) (*booking.Receipt, error)) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	id := r.FormValue("id")
	if id == "" {
		http.Error(w, "Missing id", http.StatusBadRequest)
		return
	}

	receipt, err := op(r.Context(), id)
	if errors.Is(err, booking.ErrNotFound) {
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}
	if err != nil {
		a.serverError(w, r, err)
		return
	}

	q := url.Values{marker: {"1"}}
	if receipt.MirrorErr != nil {
		q.Set("mirror", "failed")
	}
	http.Redirect(w, r, returnPath(r)+"?"+q.Encode(), http.StatusSeeOther)
}

func (a *App) handleArchive(w http.ResponseWriter, r *http.Request) {
	rows, err := a.svc.Archive(r.Context())
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "archive", Page{
		Title:   "Archive",
		Active:  "archive",
		ShowNav: true,
		Flash:   flashFromQuery(r.URL.Query()),
		Data:    ArchiveData{Bookings: rows},
	})
}

func (a *App) handleCalendar(w http.ResponseWriter, r *http.Request) {
	month := a.svc.Today()
	if v := r.URL.Query().Get("month"); v != "" {
		parsed, err := time.Parse("2006-01", v)
		if err != nil {
			http.Error(w, "Invalid month, expected YYYY-MM", http.StatusBadRequest)
			return
		}
		month = parsed
	}

	view, err := a.svc.Month(r.Context(), month.Year(), month.Month())
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "calendar", Page{
		Title:   view.Month.Format("January 2006"),
		Active:  "calendar",
		ShowNav: true,
		Data:    view,
	})
}

func (a *App) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := a.svc.All(r.Context())
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	data, err := store.Encode(rows)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="Operation Archive.csv"`)
	w.Write(data)
}

func (a *App) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if !a.sessions.Enabled() || a.sessions.Valid(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	a.render(w, r, http.StatusOK, "login", Page{Title: "Log in", Data: LoginData{}})
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if !a.sessions.Login(w, r.FormValue("password")) {
		a.lggr.Warnw("failed login", "remote", r.RemoteAddr)
		a.render(w, r, http.StatusUnauthorized, "login", Page{Title: "Log in", Data: LoginData{Error: msgBadPassword}})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	a.sessions.Logout(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
