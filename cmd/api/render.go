package main

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"operation-list/internal/middleware"
	"operation-list/ui"
)

var pageNames = []string{"upcoming", "archive", "calendar", "login"}

type Flash struct {
	Kind    string // success, warning or error
	Message string
}

// Page is the value every template executes against.
type Page struct {
	Title       string
	Active      string
	Clinic      string
	CSRFToken   string
	ShowNav     bool
	GateEnabled bool
	Flash       *Flash
	Data        any
}

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

// parsePages pairs the layout with each page once at startup.
func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New("layout").Funcs(funcs).ParseFS(ui.Files, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

func (a *App) render(w http.ResponseWriter, r *http.Request, status int, name string, page Page) {
	tmpl, ok := a.pages[name]
	if !ok {
		http.Error(w, "Template Not Found: "+name, http.StatusInternalServerError)
		return
	}

	page.Clinic = a.clinic
	page.CSRFToken = middleware.CSRFToken(r.Context())
	page.GateEnabled = a.sessions.Enabled()

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		a.lggr.Errorw("template execute failed", "page", name, "err", err)
		http.Error(w, "Template Execute Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
