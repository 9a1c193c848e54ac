package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(CSRFToken(r.Context())))
}

func TestCSRF_IssuesTokenOnGet(t *testing.T) {
	h := CSRF(true)(http.HandlerFunc(okHandler))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != csrfCookie {
		t.Fatalf("expected csrf cookie, got %v", cookies)
	}
	if !cookies[0].Secure || !cookies[0].HttpOnly {
		t.Errorf("cookie flags not set: %+v", cookies[0])
	}
	if rr.Body.String() != cookies[0].Value {
		t.Errorf("context token %q does not match cookie %q", rr.Body.String(), cookies[0].Value)
	}
}

func TestCSRF_Post(t *testing.T) {
	h := CSRF(false)(http.HandlerFunc(okHandler))
	token := GenerateToken()

	tests := []struct {
		name   string
		form   url.Values
		header string
		want   int
	}{
		{"form field", url.Values{"csrf_token": {token}}, "", http.StatusOK},
		{"header", url.Values{}, token, http.StatusOK},
		{"missing", url.Values{}, "", http.StatusForbidden},
		{"wrong", url.Values{"csrf_token": {"nope"}}, "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.AddCookie(&http.Cookie{Name: csrfCookie, Value: token})
			if tt.header != "" {
				req.Header.Set(csrfHeader, tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rr.Code)
			}
		})
	}
}
