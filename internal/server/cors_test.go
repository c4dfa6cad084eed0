package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	tests := []struct {
		name       string
		origins    []string
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantAllow  string
		wantCreds  string
	}{
		{"allowed origin", []string{"http://localhost:3000"}, http.MethodGet, "http://localhost:3000", false, http.StatusTeapot, "http://localhost:3000", "true"},
		{"other origin", []string{"http://localhost:3000"}, http.MethodGet, "http://evil.test", false, http.StatusTeapot, "", ""},
		{"no origin", []string{"http://localhost:3000"}, http.MethodGet, "", false, http.StatusTeapot, "", ""},
		{"wildcard without credentials", []string{"*"}, http.MethodPost, "http://app.test", false, http.StatusTeapot, "*", ""},
		{"disabled", []string{}, http.MethodGet, "http://localhost:3000", false, http.StatusTeapot, "", ""},
		{"preflight", []string{"http://localhost:3000/"}, http.MethodOptions, "http://localhost:3000", true, http.StatusOK, "http://localhost:3000", "true"},
		{"preflight denied", []string{"http://localhost:3000"}, http.MethodOptions, "http://evil.test", true, http.StatusOK, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := corsMiddleware(tt.origins)(next)
			r := httptest.NewRequest(tt.method, "/api/v1/search", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				r.Header.Set("Access-Control-Request-Method", http.MethodPost)
				r.Header.Set("Access-Control-Request-Headers", "Content-Type")
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Allow-Origin: got %q, want %q", got, tt.wantAllow)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCreds {
				t.Errorf("Allow-Credentials: got %q, want %q", got, tt.wantCreds)
			}
			if tt.preflight && tt.wantAllow != "" && w.Header().Get("Access-Control-Allow-Headers") != "Content-Type" {
				t.Errorf("Allow-Headers: got %q", w.Header().Get("Access-Control-Allow-Headers"))
			}
		})
	}
}
