package models

import "time"

// RefreshToken is a persisted, single-use refresh JWT identified by its jti.
type RefreshToken struct {
	ID        int       `json:"id" db:"id"`
	Token     string    `json:"-" db:"token"`
	UUID      string    `json:"-" db:"uuid"`
	UserID    int       `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// UserSession is a short-lived token used for email confirmation and password reset links.
type UserSession struct {
	ID        int       `json:"id" db:"id"`
	UUID      string    `json:"-" db:"uuid"`
	UserID    int       `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

func (s *UserSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type PushToken struct {
	ID        int       `json:"id" db:"id"`
	Token     string    `json:"token" db:"token"`
	UserID    int       `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TokenPair is returned to API clients after a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	UserID       int    `json:"user_id"`
}
