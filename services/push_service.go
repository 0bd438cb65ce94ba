package services

import (
	"context"
	"strings"

	"github.com/Dosada05/tournament-tracker/models"
	"github.com/Dosada05/tournament-tracker/repositories"
)

const maxPushTokenLength = 4096

type PushService interface {
	Register(ctx context.Context, userID int, token string) (*models.PushToken, error)
	List(ctx context.Context, userID int) ([]models.PushToken, error)
	Remove(ctx context.Context, userID, pushTokenID int) error
}

type pushService struct {
	repo repositories.PushTokenRepository
}

func NewPushService(repo repositories.PushTokenRepository) PushService {
	return &pushService{repo: repo}
}

func (s *pushService) Register(ctx context.Context, userID int, token string) (*models.PushToken, error) {
	token = strings.TrimSpace(token)
	if token == "" || len(token) > maxPushTokenLength {
		return nil, &ValidationError{Fields: map[string]string{"token": "must be a non-empty device token"}}
	}

	pt := &models.PushToken{Token: token, UserID: userID}
	if err := s.repo.Upsert(ctx, nil, pt); err != nil {
		return nil, handleRepositoryError(err)
	}
	return pt, nil
}

func (s *pushService) List(ctx context.Context, userID int) ([]models.PushToken, error) {
	return s.repo.ListByUser(ctx, nil, userID)
}

func (s *pushService) Remove(ctx context.Context, userID, pushTokenID int) error {
	return handleRepositoryError(s.repo.Delete(ctx, nil, userID, pushTokenID))
}
