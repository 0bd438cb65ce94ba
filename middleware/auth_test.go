package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dosada05/tournament-tracker/models"
)

type stubTokens map[string]int

func (s stubTokens) ParseUserToken(token string) (int, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, errors.New("invalid token")
}

type stubUsers map[int]*models.User

func (s stubUsers) Me(ctx context.Context, userID int) (*models.User, error) {
	if u, ok := s[userID]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

var (
	tokens = stubTokens{"member-token": 1, "admin-token": 2, "ghost-token": 3}
	users  = stubUsers{
		1: {ID: 1, Username: "member"},
		2: {ID: 2, Username: "admin", Admin: true},
	}
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func whoAmI(w http.ResponseWriter, r *http.Request) {
	if user := UserFromContext(r.Context()); user != nil {
		io.WriteString(w, user.Username)
		return
	}
	io.WriteString(w, "anonymous")
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(r *http.Request)
		want    string
	}{
		{"no credentials", func(r *http.Request) {}, "anonymous"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer member-token") }, "member"},
		{"lowercase scheme", func(r *http.Request) { r.Header.Set("Authorization", "bearer admin-token") }, "admin"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: LoginCookie, Value: "admin-token"}) }, "admin"},
		{"header wins over cookie", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer member-token")
			r.AddCookie(&http.Cookie{Name: LoginCookie, Value: "admin-token"})
		}, "member"},
		{"invalid token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, "anonymous"},
		{"deleted user", func(r *http.Request) { r.Header.Set("Authorization", "Bearer ghost-token") }, "anonymous"},
		{"basic auth", func(r *http.Request) { r.SetBasicAuth("member", "x") }, "anonymous"},
	}

	handler := Authenticate(tokens, users, logger)(http.HandlerFunc(whoAmI))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("user = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequireAuthAndAdmin(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		guard      func(http.Handler) http.Handler
		wantStatus int
	}{
		{"auth anonymous", "", RequireAuth, http.StatusUnauthorized},
		{"auth member", "member-token", RequireAuth, http.StatusOK},
		{"admin anonymous", "", RequireAdmin, http.StatusUnauthorized},
		{"admin member", "member-token", RequireAdmin, http.StatusForbidden},
		{"admin admin", "admin-token", RequireAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Authenticate(tokens, users, logger)(tt.guard(http.HandlerFunc(whoAmI)))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
