package utils

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/Dosada05/tournament-tracker/models"
	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 6

var (
	ErrPasswordTooShort = errors.New("password is too short")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrScoreOutOfRange  = errors.New("score must be between 0 and 10")
)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash reports whether password matches hash. A malformed hash
// is treated as a mismatch.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidatePassword checks the length rule and that both entries agree.
func ValidatePassword(password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	if len([]rune(password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// NormalizeEmail returns the bare, lower-cased address or ErrInvalidEmail.
func NormalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Name != "" || !strings.Contains(addr.Address, ".") {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

func ValidateScore(score int) error {
	if score < models.MinMatchScore || score > models.MaxMatchScore {
		return ErrScoreOutOfRange
	}
	return nil
}
