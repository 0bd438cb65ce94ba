package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/tournament-tracker/models"
	"github.com/Dosada05/tournament-tracker/repositories"
	"github.com/Dosada05/tournament-tracker/scoring"
	"github.com/Dosada05/tournament-tracker/storage"
)

const (
	maxTeamNameLength = 100
	// memberLoadConcurrency bounds the parallel member queries of Standings.
	memberLoadConcurrency = 4
)

type CreateTeamInput struct {
	Name string `json:"name"`
}

type TeamService interface {
	// Standings returns every team ranked by score, with member names.
	Standings(ctx context.Context) ([]models.Team, error)
	ListAll(ctx context.Context) ([]models.Team, error)
	// Get returns a team with its members and every match it played.
	Get(ctx context.Context, viewer *models.User, id int) (*models.Team, error)
	Create(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	Update(ctx context.Context, id int, patch models.TeamPatch) (*models.Team, error)
	AddMember(ctx context.Context, teamID, userID int) error
	EligibleMembers(ctx context.Context) ([]models.User, error)
	UploadLogo(ctx context.Context, teamID int, contentType string, r io.Reader) (*models.Team, error)
}

type teamService struct {
	teamRepo  repositories.TeamRepository
	matchRepo repositories.MatchRepository
	userRepo  repositories.UserRepository
	store     storage.ObjectStore
	logger    *slog.Logger
	loc       *time.Location
}

// NewTeamService accepts a nil store; logo uploads then fail with
// ErrStorageUnavailable.
func NewTeamService(
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
	store storage.ObjectStore,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		teamRepo:  teamRepo,
		matchRepo: matchRepo,
		userRepo:  userRepo,
		store:     store,
		logger:    logger,
		loc:       time.Local,
	}
}

func (s *teamService) Standings(ctx context.Context) ([]models.Team, error) {
	teams, err := s.teamRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(memberLoadConcurrency)
	for i := range teams {
		g.Go(func() error {
			members, err := s.teamRepo.ListMembers(gCtx, nil, teams[i].ID)
			if err != nil {
				return fmt.Errorf("failed to list members of team %d: %w", teams[i].ID, err)
			}
			teams[i].Members = publicUsers(members)
			teams[i].MemberNames = memberNames(members)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranked := scoring.Rank(teams)
	for i := range ranked {
		s.withLogoURL(&ranked[i])
	}
	return ranked, nil
}

func (s *teamService) ListAll(ctx context.Context) ([]models.Team, error) {
	teams, err := s.teamRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	for i := range teams {
		s.withLogoURL(&teams[i])
	}
	return teams, nil
}

func (s *teamService) Get(ctx context.Context, viewer *models.User, id int) (*models.Team, error) {
	var (
		team     *models.Team
		members  []models.User
		played   []models.Match
		teams    []models.Team
		approved []models.Match
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		team, err = s.teamRepo.GetByID(gCtx, nil, id)
		return handleRepositoryError(err)
	})
	g.Go(func() error {
		var err error
		members, err = s.teamRepo.ListMembers(gCtx, nil, id)
		return err
	})
	g.Go(func() error {
		var err error
		played, err = s.matchRepo.ListByTeam(gCtx, nil, id)
		return err
	})
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
		return nil, err
	}

	changes := make(map[int]scoring.Step, len(approved))
	for _, step := range scoring.History(teams, approved) {
		changes[step.Match.ID] = step
	}

	names := teamNames(teams)
	team.Members = publicUsers(members)
	team.MemberNames = memberNames(members)
	team.Matches = make([]models.MatchView, 0, len(played))
	for _, m := range played {
		step := changes[m.ID]
		team.Matches = append(team.Matches,
			buildMatchView(m, names, step.TeamOneChange, step.TeamTwoChange, viewer, s.loc))
	}
	s.withLogoURL(team)
	return team, nil
}

func (s *teamService) Create(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	name, err := validateTeamName(input.Name)
	if err != nil {
		return nil, err
	}

	team := &models.Team{Name: name}
	if err := s.teamRepo.Create(ctx, nil, team); err != nil {
		return nil, handleRepositoryError(err)
	}
	return team, nil
}

func (s *teamService) Update(ctx context.Context, id int, patch models.TeamPatch) (*models.Team, error) {
	if patch.Name != nil {
		name, err := validateTeamName(*patch.Name)
		if err != nil {
			return nil, err
		}
		patch.Name = &name
	}

	current, err := s.teamRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if patch.Empty() {
		s.withLogoURL(current)
		return current, nil
	}

	updated := current.Apply(patch)
	if err := s.teamRepo.Update(ctx, nil, &updated); err != nil {
		return nil, handleRepositoryError(err)
	}
	s.withLogoURL(&updated)
	return &updated, nil
}

func (s *teamService) AddMember(ctx context.Context, teamID, userID int) error {
	if _, err := s.teamRepo.GetByID(ctx, nil, teamID); err != nil {
		return handleRepositoryError(err)
	}
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return handleRepositoryError(err)
	}
	if user.HasTeam() {
		return ErrUserAlreadyInTeam
	}
	return handleRepositoryError(s.teamRepo.AddMember(ctx, nil, teamID, userID))
}

func (s *teamService) EligibleMembers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.ListWithoutTeam(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list users without team: %w", err)
	}
	return publicUsers(users), nil
}

func (s *teamService) UploadLogo(ctx context.Context, teamID int, contentType string, r io.Reader) (*models.Team, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}

	team, err := s.teamRepo.GetByID(ctx, nil, teamID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	key, err := storage.LogoKey(teamID, contentType, uuid.NewString()[:8])
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) {
			return nil, ErrUnsupportedImage
		}
		return nil, err
	}

	if _, err := s.store.Upload(ctx, key, contentType, r); err != nil {
		return nil, fmt.Errorf("failed to upload logo for team %d: %w", teamID, err)
	}

	previous := team.LogoKey
	updated := team.Apply(models.TeamPatch{LogoKey: &key})
	if err := s.teamRepo.Update(ctx, nil, &updated); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove orphaned logo", "key", key, "error", delErr)
		}
		return nil, handleRepositoryError(err)
	}

	if previous != nil && *previous != key {
		if err := s.store.Delete(ctx, *previous); err != nil {
			s.logger.Warn("failed to remove previous logo", "key", *previous, "error", err)
		}
	}

	s.withLogoURL(&updated)
	return &updated, nil
}

func (s *teamService) withLogoURL(team *models.Team) {
	if s.store == nil || team.LogoKey == nil || *team.LogoKey == "" {
		return
	}
	url := s.store.PublicURL(*team.LogoKey)
	team.LogoURL = &url
}

func validateTeamName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ErrTeamNameRequired
	}
	if len([]rune(name)) > maxTeamNameLength {
		return "", &ValidationError{Fields: map[string]string{
			"name": fmt.Sprintf("must be at most %d characters", maxTeamNameLength),
		}}
	}
	return name, nil
}

func publicUsers(users []models.User) []models.User {
	out := make([]models.User, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out
}

func memberNames(users []models.User) string {
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}
	return strings.Join(names, ", ")
}
