package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Dosada05/tournament-tracker/services"
)

const maxLogoSize = 2 << 20

// AdminHandler serves the admin-only operations that are not plain team CRUD.
type AdminHandler struct {
	teamService      services.TeamService
	matchService     services.MatchService
	dashboardService services.DashboardService
}

func NewAdminHandler(ts services.TeamService, ms services.MatchService, ds services.DashboardService) *AdminHandler {
	return &AdminHandler{
		teamService:      ts,
		matchService:     ms,
		dashboardService: ds,
	}
}

// UploadLogo godoc
// @Summary Загрузить логотип команды
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param teamID path int true "Team ID"
// @Param logo formData file true "PNG, JPEG, WebP или SVG, до 2 МБ"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string "Хранилище не настроено"
// @Security BearerAuth
// @Router /admin/teams/{teamID}/logo [put]
func (h *AdminHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxLogoSize+(64<<10))
	if err := r.ParseMultipartForm(maxLogoSize); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to get logo file from form: %w", err))
		return
	}
	defer file.Close()

	if header.Size > maxLogoSize {
		badRequestResponse(w, r, fmt.Errorf("logo must not be larger than %d bytes", maxLogoSize))
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content-type header is required for logo"))
		return
	}

	team, err := h.teamService.UploadLogo(r.Context(), teamID, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Recalculate godoc
// @Summary Пересчитать очки всех команд
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/scores/recalculate [post]
func (h *AdminHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	teams, err := h.matchService.Recalculate(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Dashboard godoc
// @Summary Сводная статистика
// @Tags admin
// @Produce json
// @Success 200 {object} models.DashboardStats
// @Security BearerAuth
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.GetStats(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, stats, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
