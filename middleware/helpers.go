package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Dosada05/tournament-tracker/models"
)

type contextKey string

const userContextKey contextKey = "user"

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user or nil.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

func GetUserIDFromContext(ctx context.Context) (int, bool) {
	user := UserFromContext(ctx)
	if user == nil {
		return 0, false
	}
	return user.ID, true
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
