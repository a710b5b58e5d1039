package middleware

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
)

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestLoggerKeepsStatus(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot || rec.Body.String() != "short" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		origins    []string
		method     string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{"allowed", []string{"http://a"}, http.MethodGet, "http://a", http.StatusOK, "http://a"},
		{"other origin", []string{"http://a"}, http.MethodGet, "http://b", http.StatusOK, ""},
		{"wildcard", []string{"*"}, http.MethodGet, "http://b", http.StatusOK, "http://b"},
		{"preflight", []string{"http://a"}, http.MethodOptions, "http://a", http.StatusNoContent, "http://a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			CORS(tt.origins)(ok).ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("allow origin = %q, want %q", got, tt.wantAllow)
			}
		})
	}
}

func TestOriginHosts(t *testing.T) {
	got := OriginHosts([]string{"http://localhost:5173", "example.com"})
	if want := []string{"localhost:5173", "example.com"}; !slices.Equal(got, want) {
		t.Errorf("OriginHosts = %q, want %q", got, want)
	}
}
