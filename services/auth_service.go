package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-tracker/models"
	"github.com/Dosada05/tournament-tracker/repositories"
	"github.com/Dosada05/tournament-tracker/utils"
)

// Credentials is implemented only by the credential kinds of this package.
// Each kind carries its own verification.
type Credentials interface {
	authenticate(ctx context.Context, s *authService) (*models.User, error)
}

// PasswordCredentials logs a user in by email and password.
type PasswordCredentials struct {
	Email    string
	Password string
}

// RefreshCredentials redeems a refresh token issued to UserID.
type RefreshCredentials struct {
	UserID int
	Token  string
}

type LoginResult struct {
	User          models.User
	Tokens        models.TokenPair
	Cookie        string
	CookieExpires time.Time
}

type AuthService interface {
	Authenticate(ctx context.Context, creds Credentials) (*models.User, error)
	// Login authenticates and issues a fresh access token, refresh token
	// and login cookie value.
	Login(ctx context.Context, creds Credentials) (*LoginResult, error)
}

type authService struct {
	userRepo    repositories.UserRepository
	refreshRepo repositories.RefreshTokenRepository
	tokens      *TokenService
	tx          TxRunner
}

func NewAuthService(
	userRepo repositories.UserRepository,
	refreshRepo repositories.RefreshTokenRepository,
	tokens *TokenService,
	tx TxRunner,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		refreshRepo: refreshRepo,
		tokens:      tokens,
		tx:          tx,
	}
}

func (s *authService) Authenticate(ctx context.Context, creds Credentials) (*models.User, error) {
	if creds == nil {
		return nil, ErrInvalidCredentials
	}
	return creds.authenticate(ctx, s)
}

func (s *authService) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	user, err := s.Authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}

	access, _, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return nil, err
	}
	cookie, cookieExpires, err := s.tokens.IssueCookieToken(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefreshToken(ctx, nil, user.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User: *user,
		Tokens: models.TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
			TokenType:    "Bearer",
			UserID:       user.ID,
		},
		Cookie:        cookie,
		CookieExpires: cookieExpires,
	}, nil
}

func (c PasswordCredentials) authenticate(ctx context.Context, s *authService) (*models.User, error) {
	email, err := utils.NormalizeEmail(c.Email)
	if err != nil || c.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if !utils.CheckPasswordHash(c.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.Verified {
		return nil, ErrAccountNotVerified
	}
	return user, nil
}

func (c RefreshCredentials) authenticate(ctx context.Context, s *authService) (*models.User, error) {
	if c.UserID <= 0 || c.Token == "" {
		return nil, ErrInvalidCredentials
	}

	jti, err := s.tokens.ParseRefreshToken(c.Token)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	var user *models.User
	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		stored, err := s.refreshRepo.GetByUUID(ctx, exec, jti, c.UserID)
		if err != nil {
			return err
		}
		if stored.Token != c.Token {
			return ErrInvalidCredentials
		}
		// Refresh tokens are single-use.
		if err := s.refreshRepo.DeleteByToken(ctx, exec, c.UserID, c.Token); err != nil {
			return err
		}
		user, err = s.userRepo.GetByID(ctx, exec, c.UserID)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrRefreshTokenNotFound),
			errors.Is(err, repositories.ErrUserNotFound),
			errors.Is(err, ErrInvalidCredentials):
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to redeem refresh token: %w", err)
	}
	return user, nil
}
