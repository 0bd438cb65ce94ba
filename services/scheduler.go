package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Dosada05/tournament-tracker/repositories"
)

const scheduledJobTimeout = 2 * time.Minute

// Scheduler runs the periodic maintenance jobs: a full score recalculation
// and removal of expired refresh tokens and user sessions.
type Scheduler struct {
	cron        *cron.Cron
	matches     MatchService
	refreshRepo repositories.RefreshTokenRepository
	sessionRepo repositories.UserSessionRepository
	logger      *slog.Logger
}

func NewScheduler(
	matches MatchService,
	refreshRepo repositories.RefreshTokenRepository,
	sessionRepo repositories.UserSessionRepository,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		matches:     matches,
		refreshRepo: refreshRepo,
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// Register adds both jobs. An empty spec disables that job.
func (s *Scheduler) Register(recalculateSpec, cleanupSpec string) error {
	if recalculateSpec != "" {
		if _, err := s.cron.AddFunc(recalculateSpec, s.runRecalculation); err != nil {
			return fmt.Errorf("invalid recalculation schedule %q: %w", recalculateSpec, err)
		}
	}
	if cleanupSpec != "" {
		if _, err := s.cron.AddFunc(cleanupSpec, s.runCleanup); err != nil {
			return fmt.Errorf("invalid token cleanup schedule %q: %w", cleanupSpec, err)
		}
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}

func (s *Scheduler) runRecalculation() {
	ctx, cancel := context.WithTimeout(context.Background(), scheduledJobTimeout)
	defer cancel()

	if _, err := s.matches.Recalculate(ctx); err != nil {
		s.logger.Error("scheduled recalculation failed", "error", err)
	}
}

func (s *Scheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), scheduledJobTimeout)
	defer cancel()

	now := time.Now()
	tokens, err := s.refreshRepo.DeleteExpired(ctx, nil, now)
	if err != nil {
		s.logger.Error("failed to delete expired refresh tokens", "error", err)
	}
	sessions, err := s.sessionRepo.DeleteExpired(ctx, nil, now)
	if err != nil {
		s.logger.Error("failed to delete expired user sessions", "error", err)
	}
	if tokens > 0 || sessions > 0 {
		s.logger.Info("expired credentials removed", "refresh_tokens", tokens, "user_sessions", sessions)
	}
}
