package services

import (
	"errors"
	"fmt"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed   = errors.New("validation failed")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidScore       = errors.New("scores must be between 0 and 10")
	ErrSameTeams          = errors.New("a team cannot play against itself")
	ErrTeamNameRequired   = errors.New("team name is required")
	ErrUserAlreadyInTeam  = errors.New("user is already in a team")
	ErrUserHasNoTeam      = errors.New("user is not a member of any team")
	ErrOlderMatchPending  = errors.New("an older match has to be approved first")
	ErrMatchApproved      = errors.New("match is already approved")
	ErrUnsupportedImage   = errors.New("unsupported image type")
	ErrStorageUnavailable = errors.New("file storage is not configured")

	// Ошибки конфликтов
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrUserUsernameConflict = errors.New("username is already in use")
	ErrUserExists           = errors.New("a user with these credentials already exists")
	ErrTeamNameConflict     = errors.New("team name is already in use")

	// Ошибки аутентификации и авторизации
	ErrInvalidCredentials   = errors.New("invalid login credentials")
	ErrAccountNotVerified   = errors.New("this account has not yet been activated")
	ErrAlreadyVerified      = errors.New("this account has already been activated")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound      = errors.New("user not found")
	ErrTeamNotFound      = errors.New("team not found")
	ErrMatchNotFound     = errors.New("match not found")
	ErrPushTokenNotFound = errors.New("push token not found")
)

// ValidationError carries per-field messages. It matches ErrValidationFailed
// under errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d invalid field(s)", len(e.Fields))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// orNil returns nil when no field failed.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// OlderMatchPendingError names the team whose older match blocks an approval.
type OlderMatchPendingError struct {
	Team string
}

func (e *OlderMatchPendingError) Error() string {
	return fmt.Sprintf("The team %s has to approve an older match first.", e.Team)
}

func (e *OlderMatchPendingError) Is(target error) bool {
	return target == ErrOlderMatchPending
}
