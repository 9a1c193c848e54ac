package main

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"
)

type ActiveSearchSignals struct {
	DoctorSearch string `json:"doctorSearch"`
}

// Selecting a suggestion copies it into the bound input and clears the list.
var doctorResults = template.Must(template.New("doctor-results").Parse(`<div id="doctor-results" class="list">
{{- range .}}
	<a class="row waves-effect" data-on-click="$doctorSearch = {{.}}; document.getElementById('doctor-results').replaceChildren()">
		<div class="max"><span>{{.}}</span></div>
	</a>
{{- end}}
</div>`))

func (a *App) handleActiveSearch(w http.ResponseWriter, r *http.Request) {
	signals := &ActiveSearchSignals{}
	if err := datastar.ReadSignals(r, signals); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var names []string
	if signals.DoctorSearch != "" {
		var err error
		names, err = a.svc.Doctors(r.Context(), signals.DoctorSearch)
		if err != nil {
			a.serverError(w, r, err)
			return
		}
	}

	var buf bytes.Buffer
	if err := doctorResults.Execute(&buf, names); err != nil {
		a.serverError(w, r, err)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElements(buf.String()); err != nil {
		a.lggr.Debugw("active search patch failed", "err", err)
	}
}
