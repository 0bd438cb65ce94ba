package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Dosada05/tournament-tracker/models"
)

// LoginCookie holds the browser session JWT.
const LoginCookie = "login"

type TokenParser interface {
	ParseUserToken(token string) (int, error)
}

type UserLoader interface {
	Me(ctx context.Context, userID int) (*models.User, error)
}

// Authenticate resolves the current user from the login cookie or a bearer
// token. Requests without valid credentials continue anonymously; use
// RequireAuth to reject them.
func Authenticate(tokens TokenParser, users UserLoader, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := tokens.ParseUserToken(raw)
			if err != nil {
				logger.Debug("ignoring invalid token", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.Me(r.Context(), userID)
			if err != nil {
				logger.Warn("token refers to unavailable user", "user_id", userID, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// tokenFromRequest prefers the Authorization header over the cookie.
func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(LoginCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "you must be logged in to access this resource")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		switch {
		case user == nil:
			writeError(w, http.StatusUnauthorized, "you must be logged in to access this resource")
		case !user.Admin:
			writeError(w, http.StatusForbidden, "administrator access required")
		default:
			next.ServeHTTP(w, r)
		}
	})
}
