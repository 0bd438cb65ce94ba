package services

import (
	"context"
	"errors"

	"github.com/Dosada05/tournament-tracker/repositories"
	"github.com/Dosada05/tournament-tracker/utils"
)

// TxRunner runs fn inside one database transaction. Every repository call in
// fn must use the executor it receives.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error
}

// repoErrors translates repository sentinels into service sentinels.
var repoErrors = map[error]error{
	repositories.ErrUserNotFound:         ErrUserNotFound,
	repositories.ErrUserEmailConflict:    ErrUserEmailConflict,
	repositories.ErrUserUsernameConflict: ErrUserUsernameConflict,
	repositories.ErrUserTeamInvalid:      ErrTeamNotFound,
	repositories.ErrTeamNotFound:         ErrTeamNotFound,
	repositories.ErrTeamNameConflict:     ErrTeamNameConflict,
	repositories.ErrMemberUnavailable:    ErrUserAlreadyInTeam,
	repositories.ErrMatchNotFound:        ErrMatchNotFound,
	repositories.ErrMatchTeamInvalid:     ErrTeamNotFound,
	repositories.ErrMatchScoreInvalid:    ErrInvalidScore,
	repositories.ErrMatchSameTeam:        ErrSameTeams,
	repositories.ErrMatchAlreadyDecided:  ErrMatchApproved,
	repositories.ErrPushTokenNotFound:    ErrPushTokenNotFound,
	repositories.ErrRefreshTokenNotFound: ErrInvalidToken,
	repositories.ErrUserSessionNotFound:  ErrInvalidToken,
	utils.ErrPasswordTooShort:            ErrPasswordTooShort,
	utils.ErrPasswordMismatch:            ErrPasswordMismatch,
	utils.ErrInvalidEmail:                ErrInvalidEmail,
	utils.ErrScoreOutOfRange:             ErrInvalidScore,
}

// handleRepositoryError returns the service sentinel for a known repository
// error and err unchanged otherwise.
func handleRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	for repoErr, svcErr := range repoErrors {
		if errors.Is(err, repoErr) {
			return svcErr
		}
	}
	return err
}
