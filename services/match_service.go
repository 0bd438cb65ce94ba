package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/tournament-tracker/models"
	"github.com/Dosada05/tournament-tracker/repositories"
	"github.com/Dosada05/tournament-tracker/scoring"
	"github.com/Dosada05/tournament-tracker/utils"
)

// StandingsNotifier is told about the new standings after every committed
// recalculation.
type StandingsNotifier interface {
	PublishStandings(ctx context.Context, teams []models.Team) error
}

type AddMatchInput struct {
	TeamOneID    int  `json:"team_one_id"`
	TeamTwoID    int  `json:"team_two_id"`
	TeamOneScore int  `json:"team_one_score"`
	TeamTwoScore int  `json:"team_two_score"`
	Approve      bool `json:"approve"`
}

type MatchService interface {
	// History returns approved matches, newest first, with the score change
	// each match caused.
	History(ctx context.Context) ([]models.MatchView, error)
	Get(ctx context.Context, viewer *models.User, id int) (*models.MatchView, error)
	// Pending returns the matches the viewer's team still has to approve, or
	// every unapproved match for an admin.
	Pending(ctx context.Context, viewer *models.User) ([]models.MatchView, error)
	Add(ctx context.Context, viewer *models.User, input AddMatchInput) (*models.Match, error)
	Approve(ctx context.Context, viewer *models.User, id int) (*models.Match, error)
	Delete(ctx context.Context, viewer *models.User, id int) error
	// Recalculate replays every approved match and persists the scores.
	Recalculate(ctx context.Context) ([]models.Team, error)
	Delta(ctx context.Context, matchID, teamID int) (float64, error)
}

type matchService struct {
	matchRepo repositories.MatchRepository
	teamRepo  repositories.TeamRepository
	tx        TxRunner
	notifier  StandingsNotifier
	logger    *slog.Logger
	loc       *time.Location

	// mu serialises recalculations within the process; LockScores does the
	// same across processes.
	mu sync.Mutex
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	tx TxRunner,
	notifier StandingsNotifier,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo: matchRepo,
		teamRepo:  teamRepo,
		tx:        tx,
		notifier:  notifier,
		logger:    logger,
		loc:       time.Local,
	}
}

func (s *matchService) History(ctx context.Context) ([]models.MatchView, error) {
	teams, approved, err := s.loadTimeline(ctx)
	if err != nil {
		return nil, err
	}

	names := teamNames(teams)
	steps := scoring.History(teams, approved)

	views := make([]models.MatchView, 0, len(steps))
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		views = append(views, s.view(step.Match, names, step.TeamOneChange, step.TeamTwoChange, nil))
	}
	return views, nil
}

func (s *matchService) Get(ctx context.Context, viewer *models.User, id int) (*models.MatchView, error) {
	var (
		match    *models.Match
		teams    []models.Team
		approved []models.Match
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		match, err = s.matchRepo.GetByID(gCtx, nil, id)
		return handleRepositoryError(err)
	})
	g.Go(func() error {
		var err error
		teams, approved, err = s.loadTimeline(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var one, two float64
	if match.Approved {
		one = scoring.Delta(teams, approved, match.ID, match.TeamOneID)
		two = scoring.Delta(teams, approved, match.ID, match.TeamTwoID)
	}
	view := s.view(*match, teamNames(teams), one, two, viewer)
	return &view, nil
}

func (s *matchService) Pending(ctx context.Context, viewer *models.User) ([]models.MatchView, error) {
	if viewer == nil {
		return nil, ErrAuthenticationFailed
	}

	var filter *int
	if !viewer.Admin {
		if !viewer.HasTeam() {
			return nil, ErrUserHasNoTeam
		}
		filter = viewer.TeamID
	}

	var (
		pending []models.Match
		teams   []models.Team
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pending, err = s.matchRepo.ListPending(gCtx, nil, filter)
		return err
	})
	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.ListAll(gCtx, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load pending matches: %w", err)
	}

	names := teamNames(teams)
	views := make([]models.MatchView, 0, len(pending))
	for _, m := range pending {
		views = append(views, s.view(m, names, 0, 0, viewer))
	}
	return views, nil
}

func (s *matchService) Add(ctx context.Context, viewer *models.User, input AddMatchInput) (*models.Match, error) {
	if viewer == nil {
		return nil, ErrAuthenticationFailed
	}

	verr := &ValidationError{}
	if err := utils.ValidateScore(input.TeamOneScore); err != nil {
		verr.add("team_one_score", err.Error())
	}
	if err := utils.ValidateScore(input.TeamTwoScore); err != nil {
		verr.add("team_two_score", err.Error())
	}
	if input.TeamOneID <= 0 {
		verr.add("team_one_id", "must be provided")
	}
	if input.TeamTwoID <= 0 {
		verr.add("team_two_id", "must be provided")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	if input.TeamOneID == input.TeamTwoID {
		return nil, ErrSameTeams
	}
	if !viewer.Admin && !viewer.OnTeam(input.TeamOneID) {
		return nil, ErrForbiddenOperation
	}

	match := &models.Match{
		TeamOneID:    input.TeamOneID,
		TeamTwoID:    input.TeamTwoID,
		TeamOneScore: input.TeamOneScore,
		TeamTwoScore: input.TeamTwoScore,
	}

	if !(viewer.Admin && input.Approve) {
		if err := s.matchRepo.Create(ctx, nil, match); err != nil {
			return nil, handleRepositoryError(err)
		}
		return match, nil
	}

	// Admin results count immediately.
	*match = match.Apply(approvedPatch())
	_, err := s.withRecalculation(ctx, func(exec repositories.SQLExecutor) error {
		return handleRepositoryError(s.matchRepo.Create(ctx, exec, match))
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

func (s *matchService) Approve(ctx context.Context, viewer *models.User, id int) (*models.Match, error) {
	if viewer == nil {
		return nil, ErrAuthenticationFailed
	}

	var approved *models.Match
	_, err := s.withRecalculation(ctx, func(exec repositories.SQLExecutor) error {
		match, err := s.matchRepo.GetByID(ctx, exec, id)
		if err != nil {
			return handleRepositoryError(err)
		}
		if match.Approved {
			return ErrMatchApproved
		}
		if !viewer.Admin && !viewer.OnTeam(match.TeamTwoID) {
			return ErrForbiddenOperation
		}

		for _, teamID := range []int{match.TeamOneID, match.TeamTwoID} {
			older, err := s.matchRepo.CountOlderPending(ctx, exec, teamID, match.Timestamp)
			if err != nil {
				return err
			}
			if older > 0 {
				return s.olderPendingError(ctx, exec, teamID)
			}
		}

		if err := s.matchRepo.SetApproved(ctx, exec, match.ID); err != nil {
			return handleRepositoryError(err)
		}
		updated := match.Apply(approvedPatch())
		approved = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

func (s *matchService) Delete(ctx context.Context, viewer *models.User, id int) error {
	if viewer == nil {
		return ErrAuthenticationFailed
	}

	// The match is read under the score lock so approval cannot interleave.
	_, err := s.withRecalculation(ctx, func(exec repositories.SQLExecutor) error {
		match, err := s.matchRepo.GetByID(ctx, exec, id)
		if err != nil {
			return handleRepositoryError(err)
		}
		if !canDelete(viewer, *match) {
			return ErrForbiddenOperation
		}
		return handleRepositoryError(s.matchRepo.Delete(ctx, exec, id))
	})
	return err
}

// canDelete allows members of either team to withdraw a pending match.
// Approved matches rewrite history and are admin only.
func canDelete(viewer *models.User, m models.Match) bool {
	if viewer.Admin {
		return true
	}
	return !m.Approved && (viewer.OnTeam(m.TeamOneID) || viewer.OnTeam(m.TeamTwoID))
}

func approvedPatch() models.MatchPatch {
	approved := true
	return models.MatchPatch{Approved: &approved}
}

func (s *matchService) Recalculate(ctx context.Context) ([]models.Team, error) {
	return s.withRecalculation(ctx, nil)
}

func (s *matchService) Delta(ctx context.Context, matchID, teamID int) (float64, error) {
	if _, err := s.matchRepo.GetByID(ctx, nil, matchID); err != nil {
		return 0, handleRepositoryError(err)
	}

	teams, approved, err := s.loadTimeline(ctx)
	if err != nil {
		return 0, err
	}
	if _, ok := teamNames(teams)[teamID]; !ok {
		return 0, ErrTeamNotFound
	}
	return scoring.Delta(teams, approved, matchID, teamID), nil
}

// withRecalculation runs change and a full score recalculation in one
// transaction, then publishes and returns the committed standings. A nil
// change only recalculates.
func (s *matchService) withRecalculation(ctx context.Context, change func(exec repositories.SQLExecutor) error) ([]models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var standings []models.Team
	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.teamRepo.LockScores(ctx, exec); err != nil {
			return err
		}
		if change != nil {
			if err := change(exec); err != nil {
				return err
			}
		}

		teams, err := s.teamRepo.ListAll(ctx, exec)
		if err != nil {
			return fmt.Errorf("failed to load teams: %w", err)
		}
		approved, err := s.matchRepo.ListApproved(ctx, exec)
		if err != nil {
			return fmt.Errorf("failed to load approved matches: %w", err)
		}

		result := scoring.Recalculate(teams, approved)
		if len(result.Skipped) > 0 {
			s.logger.Warn("matches reference missing teams and were skipped", "match_ids", result.Skipped)
		}
		if err := s.teamRepo.UpdateScores(ctx, exec, result.Scores()); err != nil {
			return err
		}
		standings = scoring.Rank(result.Teams)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("scores recalculated", "teams", len(standings))
	s.publish(ctx, standings)
	return standings, nil
}

func (s *matchService) publish(ctx context.Context, standings []models.Team) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishStandings(ctx, standings); err != nil {
		s.logger.Warn("failed to publish standings", "error", err)
	}
}

func (s *matchService) olderPendingError(ctx context.Context, exec repositories.SQLExecutor, teamID int) error {
	team, err := s.teamRepo.GetByID(ctx, exec, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrOlderMatchPending
		}
		return err
	}
	return &OlderMatchPendingError{Team: team.Name}
}

// loadTimeline loads every team and the approved matches in replay order.
func (s *matchService) loadTimeline(ctx context.Context) ([]models.Team, []models.Match, error) {
	var (
		teams    []models.Team
		approved []models.Match
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.ListAll(gCtx, nil)
		return err
	})
	g.Go(func() error {
		var err error
		approved, err = s.matchRepo.ListApproved(gCtx, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to load match timeline: %w", err)
	}
	return teams, approved, nil
}

func (s *matchService) view(m models.Match, names map[int]string, one, two float64, viewer *models.User) models.MatchView {
	return buildMatchView(m, names, one, two, viewer, s.loc)
}

func buildMatchView(m models.Match, names map[int]string, one, two float64, viewer *models.User, loc *time.Location) models.MatchView {
	return models.MatchView{
		Match:              m,
		TeamOneName:        names[m.TeamOneID],
		TeamTwoName:        names[m.TeamTwoID],
		Date:               m.Timestamp.In(loc).Format(models.MatchDateLayout),
		CanApprove:         canApprove(viewer, m),
		TeamOneScoreChange: displayChange(one),
		TeamTwoScoreChange: displayChange(two),
	}
}

// displayChange truncates a score change to whole points. Changes that award
// nothing are reported as zero and omitted from the JSON.
func displayChange(change float64) int {
	if change <= 0 {
		return 0
	}
	return int(change)
}

func canApprove(viewer *models.User, m models.Match) bool {
	if viewer == nil || m.Approved {
		return false
	}
	return viewer.Admin || viewer.OnTeam(m.TeamTwoID)
}

func teamNames(teams []models.Team) map[int]string {
	names := make(map[int]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}
	return names
}
