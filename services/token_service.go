package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/Dosada05/tournament-tracker/config"
	"github.com/Dosada05/tournament-tracker/models"
	"github.com/Dosada05/tournament-tracker/repositories"
)

const (
	jwtClaimUserID   = "user_id"
	jwtClaimType     = "typ"
	tokenTypeAccess  = "access"
	tokenTypeCookie  = "cookie"
	tokenTypeRefresh = "refresh"

	// refreshLeeway is the clock skew tolerated on refresh token expiry.
	refreshLeeway = 120 * time.Second
)

// TokenService signs and verifies every JWT the API hands out.
type TokenService struct {
	secret      []byte
	accessTTL   time.Duration
	refreshTTL  time.Duration
	cookieTTL   time.Duration
	refreshRepo repositories.RefreshTokenRepository
	now         func() time.Time
}

func NewTokenService(cfg *config.Config, refreshRepo repositories.RefreshTokenRepository) *TokenService {
	return &TokenService{
		secret:      []byte(cfg.JWTSecretKey),
		accessTTL:   cfg.AccessTokenTTL,
		refreshTTL:  cfg.RefreshTokenTTL,
		cookieTTL:   cfg.CookieTTL,
		refreshRepo: refreshRepo,
		now:         time.Now,
	}
}

func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// IssueAccessToken returns a bearer token for API clients.
func (s *TokenService) IssueAccessToken(userID int) (string, time.Time, error) {
	return s.issueUserToken(userID, tokenTypeAccess, s.accessTTL)
}

// IssueCookieToken returns the value of the "login" cookie.
func (s *TokenService) IssueCookieToken(userID int) (string, time.Time, error) {
	return s.issueUserToken(userID, tokenTypeCookie, s.cookieTTL)
}

func (s *TokenService) issueUserToken(userID int, typ string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)
	claims := jwt.MapClaims{
		jwtClaimUserID: userID,
		jwtClaimType:   typ,
		"iat":          now.Unix(),
		"exp":          expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseUserToken validates an access or cookie token and returns its user id.
func (s *TokenService) ParseUserToken(tokenString string) (int, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return 0, err
	}
	if !claims.VerifyExpiresAt(s.now().Unix(), true) {
		return 0, ErrInvalidToken
	}
	if typ, _ := claims[jwtClaimType].(string); typ == tokenTypeRefresh {
		return 0, ErrInvalidToken
	}
	return userIDFromClaims(claims)
}

// IssueRefreshToken signs a refresh token identified by a random jti and
// stores it so that it can be redeemed exactly once.
func (s *TokenService) IssueRefreshToken(ctx context.Context, exec repositories.SQLExecutor, userID int) (string, error) {
	jti := uuid.NewString()
	expiresAt := s.now().Add(s.refreshTTL)
	claims := jwt.MapClaims{
		"jti":        jti,
		jwtClaimType: tokenTypeRefresh,
		"exp":        expiresAt.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	record := &models.RefreshToken{
		Token:     signed,
		UUID:      jti,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}
	if err := s.refreshRepo.Create(ctx, exec, record); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return signed, nil
}

// ParseRefreshToken verifies the signature and expiry (with leeway) of a
// refresh token and returns its jti.
func (s *TokenService) ParseRefreshToken(tokenString string) (string, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return "", err
	}
	if typ, _ := claims[jwtClaimType].(string); typ != tokenTypeRefresh {
		return "", ErrInvalidToken
	}
	if !claims.VerifyExpiresAt(s.now().Add(-refreshLeeway).Unix(), true) {
		return "", ErrInvalidToken
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return "", ErrInvalidToken
	}
	return jti, nil
}

// parse checks the signature only; expiry is checked by the callers so that
// each token kind can apply its own leeway.
func (s *TokenService) parse(tokenString string) (jwt.MapClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	token, err := parser.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func userIDFromClaims(claims jwt.MapClaims) (int, error) {
	switch v := claims[jwtClaimUserID].(type) {
	case float64:
		if v > 0 && v == float64(int(v)) {
			return int(v), nil
		}
	case string:
		if id, err := strconv.Atoi(v); err == nil && id > 0 {
			return id, nil
		}
	}
	return 0, ErrInvalidToken
}
