package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/tournament-tracker/middleware"
	"github.com/Dosada05/tournament-tracker/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

// History godoc
// @Summary История подтверждённых матчей с изменением очков
// @Tags matches
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /matches [get]
func (h *MatchHandler) History(w http.ResponseWriter, r *http.Request) {
	matches, err := h.matchService.History(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Get godoc
// @Summary Матч по ID
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /matches/{matchID} [get]
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Get(r.Context(), middleware.UserFromContext(r.Context()), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Delta godoc
// @Summary Сколько очков матч принёс команде
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Param team_id query int true "Team ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /matches/{matchID}/delta [get]
func (h *MatchHandler) Delta(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	raw := r.URL.Query().Get("team_id")
	if raw == "" {
		badRequestResponse(w, r, errors.New("team_id query parameter is required"))
		return
	}
	teamID, err := parseID("team_id", raw)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	delta, err := h.matchService.Delta(r.Context(), matchID, teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"match_id": matchID, "team_id": teamID, "delta": delta}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Pending godoc
// @Summary Матчи, ожидающие подтверждения
// @Tags matches
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Security BearerAuth
// @Router /matches/pending [get]
func (h *MatchHandler) Pending(w http.ResponseWriter, r *http.Request) {
	matches, err := h.matchService.Pending(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Add godoc
// @Summary Добавить результат матча
// @Tags matches
// @Description Участник может добавить только матч своей команды (team one). Администратор может сразу подтвердить матч.
// @Accept json
// @Produce json
// @Param input body services.AddMatchInput true "Результат"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /matches [post]
func (h *MatchHandler) Add(w http.ResponseWriter, r *http.Request) {
	var input services.AddMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Add(r.Context(), middleware.UserFromContext(r.Context()), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Approve godoc
// @Summary Подтвердить матч
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string "Уже подтверждён или есть более старый неподтверждённый матч"
// @Security BearerAuth
// @Router /matches/{matchID}/approve [post]
func (h *MatchHandler) Approve(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Approve(r.Context(), middleware.UserFromContext(r.Context()), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Delete godoc
// @Summary Удалить матч
// @Tags matches
// @Param matchID path int true "Match ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /matches/{matchID} [delete]
func (h *MatchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.Delete(r.Context(), middleware.UserFromContext(r.Context()), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
