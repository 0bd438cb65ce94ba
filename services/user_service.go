package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/tournament-tracker/config"
	"github.com/Dosada05/tournament-tracker/models"
	"github.com/Dosada05/tournament-tracker/repositories"
	"github.com/Dosada05/tournament-tracker/utils"
)

const maxUsernameLength = 50

type RegisterInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	TeamID          int    `json:"team_id"`
}

type ResetPasswordInput struct {
	Email           string `json:"email"`
	Token           string `json:"token"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type UserService interface {
	// Register creates an unverified member of an existing team and sends the
	// confirmation email.
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	RequestConfirmation(ctx context.Context, email string) error
	ConfirmEmail(ctx context.Context, token string) error
	// RequestPasswordReset does not reveal whether the address is registered.
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, input ResetPasswordInput) error
	Me(ctx context.Context, userID int) (*models.User, error)
}

type userService struct {
	userRepo    repositories.UserRepository
	teamRepo    repositories.TeamRepository
	sessionRepo repositories.UserSessionRepository
	email       EmailService
	tx          TxRunner
	sessionTTL  time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

func NewUserService(
	cfg *config.Config,
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	sessionRepo repositories.UserSessionRepository,
	email EmailService,
	tx TxRunner,
	logger *slog.Logger,
) UserService {
	return &userService{
		userRepo:    userRepo,
		teamRepo:    teamRepo,
		sessionRepo: sessionRepo,
		email:       email,
		tx:          tx,
		sessionTTL:  cfg.UserSessionTTL,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *userService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	verr := &ValidationError{}

	username := strings.TrimSpace(input.Username)
	switch {
	case username == "":
		verr.add("username", "must be provided")
	case len([]rune(username)) > maxUsernameLength:
		verr.add("username", fmt.Sprintf("must be at most %d characters", maxUsernameLength))
	}

	email, err := utils.NormalizeEmail(input.Email)
	if err != nil {
		verr.add("email", "must be a valid email address")
	}

	if err := utils.ValidatePassword(input.Password, input.PasswordConfirm); err != nil {
		verr.add("password", err.Error())
	}

	if input.TeamID <= 0 {
		verr.add("team_id", "must be provided")
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}

	if _, err := s.teamRepo.GetByID(ctx, nil, input.TeamID); err != nil {
		return nil, handleRepositoryError(err)
	}

	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, nil, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	teamID := input.TeamID
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		TeamID:       &teamID,
	}
	if err := s.userRepo.Create(ctx, nil, user); err != nil {
		return nil, handleRepositoryError(err)
	}

	// The account exists either way; a failed email can be re-requested.
	if err := s.sendConfirmation(ctx, user); err != nil {
		s.logger.Error("failed to send confirmation email", "user_id", user.ID, "error", err)
	}

	return user, nil
}

func (s *userService) RequestConfirmation(ctx context.Context, email string) error {
	normalized, err := utils.NormalizeEmail(email)
	if err != nil {
		return ErrInvalidEmail
	}

	user, err := s.userRepo.GetByEmail(ctx, nil, normalized)
	if err != nil {
		return handleRepositoryError(err)
	}
	if user.Verified {
		return ErrAlreadyVerified
	}
	return s.sendConfirmation(ctx, user)
}

func (s *userService) ConfirmEmail(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidToken
	}

	return s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		session, err := s.sessionRepo.GetByUUID(ctx, exec, token)
		if err != nil {
			return handleRepositoryError(err)
		}
		if session.Expired(s.now()) {
			return ErrInvalidToken
		}

		user, err := s.userRepo.GetByID(ctx, exec, session.UserID)
		if err != nil {
			return handleRepositoryError(err)
		}
		user.Verified = true
		if err := s.userRepo.Update(ctx, exec, user); err != nil {
			return handleRepositoryError(err)
		}
		return handleRepositoryError(s.sessionRepo.Delete(ctx, exec, session.ID))
	})
}

func (s *userService) RequestPasswordReset(ctx context.Context, email string) error {
	normalized, err := utils.NormalizeEmail(email)
	if err != nil {
		return ErrInvalidEmail
	}

	user, err := s.userRepo.GetByEmail(ctx, nil, normalized)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return err
	}
	if err := s.email.SendPasswordResetEmail(user.Email, session.UUID); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if err := utils.ValidatePassword(input.Password, input.PasswordConfirm); err != nil {
		return handleRepositoryError(err)
	}
	email, err := utils.NormalizeEmail(input.Email)
	if err != nil {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(input.Token) == "" {
		return ErrInvalidToken
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		user, err := s.userRepo.GetByEmail(ctx, exec, email)
		if err != nil {
			return handleRepositoryError(err)
		}
		session, err := s.sessionRepo.GetByUUID(ctx, exec, input.Token)
		if err != nil {
			return handleRepositoryError(err)
		}
		if session.UserID != user.ID || session.Expired(s.now()) {
			return ErrInvalidToken
		}

		user.PasswordHash = hash
		if err := s.userRepo.Update(ctx, exec, user); err != nil {
			return handleRepositoryError(err)
		}
		return handleRepositoryError(s.sessionRepo.Delete(ctx, exec, session.ID))
	})
}

func (s *userService) Me(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return user, nil
}

func (s *userService) sendConfirmation(ctx context.Context, user *models.User) error {
	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return err
	}
	if err := s.email.SendConfirmationEmail(user.Email, session.UUID); err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}
	return nil
}

func (s *userService) createSession(ctx context.Context, userID int) (*models.UserSession, error) {
	session := &models.UserSession{
		UUID:      "r_" + uuid.NewString(),
		UserID:    userID,
		ExpiresAt: s.now().Add(s.sessionTTL),
	}
	if err := s.sessionRepo.Create(ctx, nil, session); err != nil {
		return nil, fmt.Errorf("failed to create user session: %w", err)
	}
	return session, nil
}
