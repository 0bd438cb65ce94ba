package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/tournament-tracker/middleware"
	"github.com/Dosada05/tournament-tracker/models"
	"github.com/Dosada05/tournament-tracker/services"
)

// stubMatchService records the viewer of the last call and answers from
// fixed values.
type stubMatchService struct {
	services.MatchService
	viewer *models.User
	added  services.AddMatchInput
	err    error
}

func (s *stubMatchService) History(ctx context.Context) ([]models.MatchView, error) {
	return []models.MatchView{{Match: models.Match{ID: 3}, TeamOneScoreChange: 50}}, s.err
}

func (s *stubMatchService) Add(ctx context.Context, viewer *models.User, input services.AddMatchInput) (*models.Match, error) {
	s.viewer, s.added = viewer, input
	if s.err != nil {
		return nil, s.err
	}
	return &models.Match{ID: 9, TeamOneID: input.TeamOneID, TeamTwoID: input.TeamTwoID}, nil
}

func (s *stubMatchService) Approve(ctx context.Context, viewer *models.User, id int) (*models.Match, error) {
	s.viewer = viewer
	if s.err != nil {
		return nil, s.err
	}
	return &models.Match{ID: id, Approved: true}, nil
}

func (s *stubMatchService) Delta(ctx context.Context, matchID, teamID int) (float64, error) {
	return 37.5, s.err
}

func (s *stubMatchService) Delete(ctx context.Context, viewer *models.User, id int) error {
	s.viewer = viewer
	return s.err
}

func matchRouter(svc services.MatchService, viewer *models.User) http.Handler {
	h := NewMatchHandler(svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if viewer != nil {
				req = req.WithContext(middleware.WithUser(req.Context(), viewer))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/matches", h.History)
	r.Post("/matches", h.Add)
	r.Get("/matches/{matchID}/delta", h.Delta)
	r.Post("/matches/{matchID}/approve", h.Approve)
	r.Delete("/matches/{matchID}", h.Delete)
	return r
}

func TestMatchHistory(t *testing.T) {
	rec := httptest.NewRecorder()
	matchRouter(&stubMatchService{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/matches", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Matches []map[string]interface{} `json:"matches"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(body.Matches) != 1 || body.Matches[0]["team_one_score_change"] != 50.0 {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestMatchAddPassesViewerAndInput(t *testing.T) {
	viewer := &models.User{ID: 4, TeamID: new(int)}
	svc := &stubMatchService{}
	body := `{"team_one_id":1,"team_two_id":2,"team_one_score":3,"team_two_score":1}`

	rec := httptest.NewRecorder()
	matchRouter(svc, viewer).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/matches", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if svc.viewer != viewer {
		t.Error("viewer was not passed to the service")
	}
	want := services.AddMatchInput{TeamOneID: 1, TeamTwoID: 2, TeamOneScore: 3, TeamTwoScore: 1}
	if svc.added != want {
		t.Errorf("input = %+v, want %+v", svc.added, want)
	}
}

func TestMatchApproveErrors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
	}{
		{"ok", "/matches/5/approve", nil, http.StatusOK},
		{"bad id", "/matches/abc/approve", nil, http.StatusBadRequest},
		{"forbidden", "/matches/5/approve", services.ErrForbiddenOperation, http.StatusForbidden},
		{"older pending", "/matches/5/approve", &services.OlderMatchPendingError{Team: "Alpha"}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router := matchRouter(&stubMatchService{err: tt.err}, &models.User{ID: 1})
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestMatchOlderPendingMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	router := matchRouter(&stubMatchService{err: &services.OlderMatchPendingError{Team: "Alpha"}}, &models.User{ID: 1})
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/matches/5/approve", nil))

	if !strings.Contains(rec.Body.String(), "The team Alpha has to approve an older match first.") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestMatchDelta(t *testing.T) {
	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/matches/5/delta?team_id=2", http.StatusOK},
		{"/matches/5/delta", http.StatusBadRequest},
		{"/matches/5/delta?team_id=-1", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			matchRouter(&stubMatchService{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && !strings.Contains(rec.Body.String(), `"delta": 37.5`) {
				t.Errorf("body = %s", rec.Body.String())
			}
		})
	}
}

func TestMatchDelete(t *testing.T) {
	rec := httptest.NewRecorder()
	matchRouter(&stubMatchService{}, &models.User{ID: 1, Admin: true}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/matches/5", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}
