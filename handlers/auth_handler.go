package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Dosada05/tournament-tracker/middleware"
	"github.com/Dosada05/tournament-tracker/services"
)

type AuthHandler struct {
	authService  services.AuthService
	cookieSecure bool
}

func NewAuthHandler(authService services.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieSecure: cookieSecure,
	}
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshInput struct {
	UserID       int    `json:"user_id"`
	RefreshToken string `json:"refresh_token"`
}

// Login godoc
// @Summary Вход по email и паролю
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginInput true "Учётные данные"
// @Success 200 {object} map[string]interface{} "Пользователь и токены, cookie login установлена"
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string "Неверные учётные данные"
// @Failure 403 {object} map[string]string "Аккаунт не подтверждён"
// @Router /users/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input loginInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Email == "" || input.Password == "" {
		badRequestResponse(w, r, errors.New("email and password are required"))
		return
	}

	h.login(w, r, services.PasswordCredentials{Email: input.Email, Password: input.Password})
}

// Refresh godoc
// @Summary Обмен refresh-токена на новую пару токенов
// @Tags auth
// @Accept json
// @Produce json
// @Param input body refreshInput true "Refresh-токен"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Router /users/token/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var input refreshInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.UserID <= 0 || input.RefreshToken == "" {
		badRequestResponse(w, r, errors.New("user_id and refresh_token are required"))
		return
	}

	h.login(w, r, services.RefreshCredentials{UserID: input.UserID, Token: input.RefreshToken})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, creds services.Credentials) {
	result, err := h.authService.Login(r.Context(), creds)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	http.SetCookie(w, h.loginCookie(result.Cookie, result.CookieExpires))

	response := jsonResponse{
		"user":   result.User,
		"tokens": result.Tokens,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Logout godoc
// @Summary Выход: удаляет cookie login
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /users/logout [get]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie := h.loginCookie("", time.Unix(0, 0))
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "logged out"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) loginCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.LoginCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
