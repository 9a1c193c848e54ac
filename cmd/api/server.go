package main

import (
	"html/template"
	"io/fs"
	"net/http"

	"operation-list/internal/booking"
	"operation-list/internal/config"
	"operation-list/internal/logger"
	"operation-list/internal/middleware"
	"operation-list/ui"
)

// App serves the booking pages over one booking service.
type App struct {
	svc      *booking.Service
	sessions *middleware.Sessions
	lggr     logger.Logger
	clinic   string
	secure   bool
	pages    map[string]*template.Template
}

func NewApp(cfg *config.Config, svc *booking.Service, lggr logger.Logger) (*App, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &App{
		svc:      svc,
		sessions: middleware.NewSessions(cfg.Auth.Password, cfg.Auth.SessionTTL, cfg.Server.SecureCookies),
		lggr:     lggr.Named("web"),
		clinic:   cfg.Clinic.Name,
		secure:   cfg.Server.SecureCookies,
		pages:    pages,
	}, nil
}

func (a *App) Routes() http.Handler {
	mux := http.NewServeMux()

	static, _ := fs.Sub(ui.Files, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	mux.HandleFunc("GET /healthz", handleHealthz)

	mux.HandleFunc("GET /login", a.handleLoginPage)
	mux.HandleFunc("POST /login", a.handleLogin)
	mux.HandleFunc("POST /logout", a.handleLogout)

	mux.HandleFunc("GET /{$}", a.handleUpcoming)
	mux.HandleFunc("GET /archive", a.handleArchive)
	mux.HandleFunc("GET /calendar", a.handleCalendar)
	mux.HandleFunc("GET /active_search", a.handleActiveSearch)

	mux.HandleFunc("POST /api/bookings", a.handleCreateBooking)
	mux.HandleFunc("POST /api/bookings/cancel", a.handleCancelBooking)
	mux.HandleFunc("POST /api/bookings/delete", a.handleDeleteBooking)
	mux.HandleFunc("GET /api/bookings.csv", a.handleExportCSV)

	return middleware.Chain(mux,
		middleware.Logging(a.lggr),
		a.sessions.Require,
		middleware.CSRF(a.secure),
	)
}
