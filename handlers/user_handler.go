package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/tournament-tracker/middleware"
	"github.com/Dosada05/tournament-tracker/services"
)

type UserHandler struct {
	userService services.UserService
	pushService services.PushService
}

func NewUserHandler(us services.UserService, ps services.PushService) *UserHandler {
	return &UserHandler{
		userService: us,
		pushService: ps,
	}
}

type emailInput struct {
	Email string `json:"email"`
}

type pushTokenInput struct {
	Token string `json:"token"`
}

// Register godoc
// @Summary Регистрация участника команды
// @Tags users
// @Accept json
// @Produce json
// @Param input body services.RegisterInput true "Данные регистрации"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Команда не найдена"
// @Failure 409 {object} map[string]string "Пользователь уже существует"
// @Failure 422 {object} map[string]interface{} "Ошибки валидации по полям"
// @Router /users [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Me godoc
// @Summary Текущий пользователь
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Security BearerAuth
// @Router /users/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ConfirmEmail godoc
// @Summary Подтверждение email по ссылке из письма
// @Tags users
// @Produce json
// @Param token query string true "Токен подтверждения"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /users/confirmemail [get]
func (h *UserHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		badRequestResponse(w, r, errors.New("confirmation token is required"))
		return
	}

	if err := h.userService.ConfirmEmail(r.Context(), token); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "your account has been activated"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RequestConfirmation godoc
// @Summary Повторная отправка письма подтверждения
// @Tags users
// @Accept json
// @Produce json
// @Param input body emailInput true "Email"
// @Success 202 {object} map[string]string
// @Router /users/requestconfirmemail [post]
func (h *UserHandler) RequestConfirmation(w http.ResponseWriter, r *http.Request) {
	var input emailInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.userService.RequestConfirmation(r.Context(), input.Email); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusAccepted, jsonResponse{"message": "a confirmation email has been sent"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RequestPasswordReset godoc
// @Summary Запрос на сброс пароля
// @Tags users
// @Accept json
// @Produce json
// @Param input body emailInput true "Email"
// @Success 202 {object} map[string]string
// @Router /users/requestresetpassword [post]
func (h *UserHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var input emailInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.userService.RequestPasswordReset(r.Context(), input.Email); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"message": "if the address is registered, a reset link has been sent"}
	if err := writeJSON(w, http.StatusAccepted, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResetPassword godoc
// @Summary Сброс пароля по токену
// @Tags users
// @Accept json
// @Produce json
// @Param input body services.ResetPasswordInput true "Email, токен и новый пароль"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /users/resetpassword [post]
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var input services.ResetPasswordInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.userService.ResetPassword(r.Context(), input); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "your password has been changed"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListPushTokens godoc
// @Summary Push-токены текущего пользователя
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /users/me/pushtokens [get]
func (h *UserHandler) ListPushTokens(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	tokens, err := h.pushService.List(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"push_tokens": tokens}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AddPushToken godoc
// @Summary Регистрация push-токена устройства
// @Tags users
// @Accept json
// @Produce json
// @Param input body pushTokenInput true "Токен устройства"
// @Success 201 {object} map[string]interface{}
// @Security BearerAuth
// @Router /users/me/pushtokens [post]
func (h *UserHandler) AddPushToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input pushTokenInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	token, err := h.pushService.Register(r.Context(), userID, input.Token)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"push_token": token}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeletePushToken godoc
// @Summary Удаление push-токена
// @Tags users
// @Param pushTokenID path int true "Push token ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /users/me/pushtokens/{pushTokenID} [delete]
func (h *UserHandler) DeletePushToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	tokenID, err := getIDFromURL(r, "pushTokenID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.pushService.Remove(r.Context(), userID, tokenID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
