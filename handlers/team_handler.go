package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/tournament-tracker/middleware"
	"github.com/Dosada05/tournament-tracker/models"
	"github.com/Dosada05/tournament-tracker/services"
)

type TeamHandler struct {
	teamService services.TeamService
}

func NewTeamHandler(ts services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: ts}
}

// Standings godoc
// @Summary Таблица команд по очкам
// @Tags teams
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /teams [get]
func (h *TeamHandler) Standings(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamService.Standings(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListAll godoc
// @Summary Все команды (для формы регистрации)
// @Tags teams
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /teams/all [get]
func (h *TeamHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamService.ListAll(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type addMemberInput struct {
	UserID int `json:"user_id"`
}

// GetTeam godoc
// @Summary Команда с участниками и матчами
// @Tags admin
// @Produce json
// @Param teamID path int true "Team ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /admin/teams/{teamID} [get]
func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.Get(r.Context(), middleware.UserFromContext(r.Context()), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateTeam godoc
// @Summary Создать команду
// @Tags admin
// @Accept json
// @Produce json
// @Param input body services.CreateTeamInput true "Название"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /admin/teams [post]
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateTeam godoc
// @Summary Переименовать команду
// @Tags admin
// @Accept json
// @Produce json
// @Param teamID path int true "Team ID"
// @Param input body models.TeamPatch true "Изменения"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/teams/{teamID} [patch]
func (h *TeamHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var patch models.TeamPatch
	if err := readJSON(w, r, &patch); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.Update(r.Context(), teamID, patch)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// EligibleMembers godoc
// @Summary Пользователи без команды
// @Tags admin
// @Produce json
// @Param teamID path int true "Team ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/teams/{teamID}/members/eligible [get]
func (h *TeamHandler) EligibleMembers(w http.ResponseWriter, r *http.Request) {
	if _, err := getIDFromURL(r, "teamID"); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	users, err := h.teamService.EligibleMembers(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"users": users}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AddMember godoc
// @Summary Добавить пользователя в команду
// @Tags admin
// @Accept json
// @Produce json
// @Param teamID path int true "Team ID"
// @Param input body addMemberInput true "Пользователь"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Пользователь уже в команде"
// @Security BearerAuth
// @Router /admin/teams/{teamID}/members [post]
func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input addMemberInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.UserID <= 0 {
		badRequestResponse(w, r, errors.New("user_id is required"))
		return
	}

	if err := h.teamService.AddMember(r.Context(), teamID, input.UserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
