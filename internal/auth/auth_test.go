package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newService(t *testing.T, secret string) *Service {
	t.Helper()
	s, err := NewService(secret)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return s
}

func TestNewServiceNeedsSecret(t *testing.T) {
	if _, err := NewService(""); !errors.Is(err, ErrNoSecret) {
		t.Errorf("err = %v", err)
	}
}

func TestIssueAndValidate(t *testing.T) {
	s := newService(t, "secret")
	token, err := s.IssueToken("user-1")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	tests := []struct {
		name    string
		svc     *Service
		token   string
		wantErr bool
	}{
		{"valid", s, token, false},
		{"other secret", newService(t, "other"), token, true},
		{"garbage", s, "abc.def.ghi", true},
		{"expired", &Service{jwtSecret: []byte("secret"), ttl: DefaultTTL, now: func() time.Time {
			return time.Now().Add(48 * time.Hour)
		}}, token, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, err := tt.svc.ValidateToken(tt.token)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Errorf("err = %v, want ErrInvalidToken", err)
				}
				return
			}
			if err != nil || userID != "user-1" {
				t.Errorf("ValidateToken = %q, %v", userID, err)
			}
		})
	}
}

func TestGuest(t *testing.T) {
	s := newService(t, "secret")
	res, err := s.Guest()
	if err != nil {
		t.Fatalf("Guest: %v", err)
	}
	if !strings.HasPrefix(res.UserID, "anon-") {
		t.Errorf("user id = %q", res.UserID)
	}
	if got, err := s.ValidateToken(res.Token); err != nil || got != res.UserID {
		t.Errorf("ValidateToken = %q, %v", got, err)
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := newService(t, "secret")
	token, _ := s.IssueToken("user-1")
	h := s.AuthMiddleware(http.HandlerFunc(NewHandler(s).Me))

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"header", "Bearer " + token, "", http.StatusOK},
		{"query", "", "?token=" + token, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK {
				var body map[string]string
				_ = json.NewDecoder(rec.Body).Decode(&body)
				if body["userId"] != "user-1" {
					t.Errorf("body = %v", body)
				}
			}
		})
	}
}

func TestGuestHandler(t *testing.T) {
	s := newService(t, "secret")
	rec := httptest.NewRecorder()
	NewHandler(s).Guest(rec, httptest.NewRequest(http.MethodPost, "/auth/guest", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	var res TokenResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil || res.Token == "" {
		t.Errorf("result = %+v, %v", res, err)
	}
}
