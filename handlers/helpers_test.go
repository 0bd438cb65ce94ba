package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/tournament-tracker/services"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{services.ErrMatchNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", services.ErrTeamNotFound), http.StatusNotFound},
		{services.ErrUserExists, http.StatusConflict},
		{&services.OlderMatchPendingError{Team: "Alpha"}, http.StatusConflict},
		{services.ErrSameTeams, http.StatusBadRequest},
		{services.ErrInvalidToken, http.StatusBadRequest},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrForbiddenOperation, http.StatusForbidden},
		{services.ErrAccountNotVerified, http.StatusForbidden},
		{services.ErrStorageUnavailable, http.StatusServiceUnavailable},
		{&services.ValidationError{Fields: map[string]string{"name": "required"}}, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestValidationErrorBody(t *testing.T) {
	rec := httptest.NewRecorder()
	err := &services.ValidationError{Fields: map[string]string{"team_one_score": "out of range"}}
	mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil), err)

	var body struct {
		Error map[string]string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if body.Error["team_one_score"] != "out of range" {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestServerErrorHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	serverErrorResponse(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: password authentication failed"))
	if strings.Contains(rec.Body.String(), "pq:") {
		t.Errorf("body leaks internal error: %s", rec.Body.String())
	}
}

func TestReadJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"name":"Alpha"}`, ""},
		{"empty", ``, "body must not be empty"},
		{"syntax", `{"name":`, "badly-formed JSON"},
		{"unknown field", `{"nme":"Alpha"}`, "unknown key"},
		{"wrong type", `{"name":5}`, `incorrect JSON type for field "name"`},
		{"two values", `{"name":"A"}{"name":"B"}`, "single JSON value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst services.CreateTeamInput
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := readJSON(rec, req, &dst)
			switch {
			case tt.wantErr == "" && err != nil:
				t.Fatalf("readJSON() error = %v", err)
			case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
				t.Fatalf("readJSON() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
