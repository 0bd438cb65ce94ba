package routes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/tournament-tracker/handlers"
	"github.com/Dosada05/tournament-tracker/models"
)

type stubTokens map[string]int

func (s stubTokens) ParseUserToken(token string) (int, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, errors.New("invalid")
}

type stubUsers map[int]*models.User

func (s stubUsers) Me(ctx context.Context, id int) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func newRouter() http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	SetupRoutes(r, Handlers{
		Auth:      handlers.NewAuthHandler(nil, false),
		User:      handlers.NewUserHandler(nil, nil),
		Team:      handlers.NewTeamHandler(nil),
		Match:     handlers.NewMatchHandler(nil),
		Admin:     handlers.NewAdminHandler(nil, nil, nil),
		WebSocket: handlers.NewWebSocketHandler(nil, []string{"*"}, logger),
	}, Options{
		CORSOrigins: []string{"*"},
		Tokens:      stubTokens{"member": 1},
		Users:       stubUsers{1: {ID: 1, Username: "member"}},
		Logger:      logger,
	})
	return r
}

func TestPublicRoutes(t *testing.T) {
	router := newRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/health status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/teams" {
		t.Errorf("/ = %d -> %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestGuardedRoutes(t *testing.T) {
	tests := []struct {
		method, path string
		token        string
		wantStatus   int
	}{
		{http.MethodGet, "/matches/pending", "", http.StatusUnauthorized},
		{http.MethodPost, "/matches", "", http.StatusUnauthorized},
		{http.MethodPost, "/matches/3/approve", "", http.StatusUnauthorized},
		{http.MethodPost, "/matches/3/delete", "", http.StatusUnauthorized},
		{http.MethodDelete, "/matches/3", "", http.StatusUnauthorized},
		{http.MethodGet, "/users/me", "", http.StatusUnauthorized},
		{http.MethodPost, "/users/me/pushtokens", "", http.StatusUnauthorized},
		{http.MethodGet, "/admin/teams", "", http.StatusUnauthorized},
		{http.MethodGet, "/admin/teams", "member", http.StatusForbidden},
		{http.MethodPost, "/admin/scores/recalculate", "member", http.StatusForbidden},
		{http.MethodGet, "/admin/dashboard", "member", http.StatusForbidden},
		{http.MethodPut, "/admin/teams/1/logo", "member", http.StatusForbidden},
	}

	router := newRouter()
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
