package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/tournament-tracker/models"
	"github.com/Dosada05/tournament-tracker/repositories"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var epoch = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

// memStore backs every fake repository so that a test can inspect the
// combined state after a service call.
type memStore struct {
	mu       sync.Mutex
	teams    map[int]models.Team
	users    map[int]models.User
	matches  map[int]models.Match
	refresh  map[int]models.RefreshToken
	sessions map[int]models.UserSession
	push     map[int]models.PushToken
	nextID   int
	locks    int
}

func newMemStore() *memStore {
	return &memStore{
		teams:    map[int]models.Team{},
		users:    map[int]models.User{},
		matches:  map[int]models.Match{},
		refresh:  map[int]models.RefreshToken{},
		sessions: map[int]models.UserSession{},
		push:     map[int]models.PushToken{},
		nextID:   100,
	}
}

func (s *memStore) id() int {
	s.nextID++
	return s.nextID
}

func (s *memStore) addTeam(id int, name string) {
	s.teams[id] = models.Team{ID: id, Name: name}
}

func (s *memStore) addUser(u models.User) *models.User {
	s.users[u.ID] = u
	return &u
}

func (s *memStore) addMatch(m models.Match) {
	s.matches[m.ID] = m
}

func newUser(id int) models.User {
	return models.User{ID: id, Username: "user"}
}

func matchAt(id int, approved bool) models.Match {
	return models.Match{ID: id, TeamOneID: 1, TeamTwoID: 2, Timestamp: epoch.Add(time.Duration(id) * time.Minute), Approved: approved}
}

type fakeTx struct{ calls int }

func (f *fakeTx) RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	f.calls++
	return fn(nil)
}

type recordingNotifier struct {
	published [][]models.Team
}

func (n *recordingNotifier) PublishStandings(ctx context.Context, teams []models.Team) error {
	n.published = append(n.published, teams)
	return nil
}

// Поддельные репозитории

type fakeTeamRepo struct{ s *memStore }

func (r fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.teams {
		if strings.EqualFold(t.Name, team.Name) {
			return repositories.ErrTeamNameConflict
		}
	}
	team.ID = r.s.id()
	r.s.teams[team.ID] = *team
	return nil
}

func (r fakeTeamRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return &t, nil
}

func (r fakeTeamRepo) ListAll(ctx context.Context, exec repositories.SQLExecutor) ([]models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Team, 0, len(r.s.teams))
	for _, t := range r.s.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeTeamRepo) Update(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.teams[team.ID]; !ok {
		return repositories.ErrTeamNotFound
	}
	r.s.teams[team.ID] = *team
	return nil
}

func (r fakeTeamRepo) UpdateScores(ctx context.Context, exec repositories.SQLExecutor, scores map[int]float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, score := range scores {
		t := r.s.teams[id]
		t.Score = score
		r.s.teams[id] = t
	}
	return nil
}

func (r fakeTeamRepo) LockScores(ctx context.Context, exec repositories.SQLExecutor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.locks++
	return nil
}

func (r fakeTeamRepo) AddMember(ctx context.Context, exec repositories.SQLExecutor, teamID, userID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok || u.TeamID != nil {
		return repositories.ErrMemberUnavailable
	}
	u.TeamID = &teamID
	r.s.users[userID] = u
	return nil
}

func (r fakeTeamRepo) ListMembers(ctx context.Context, exec repositories.SQLExecutor, teamID int) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.User
	for _, u := range r.s.users {
		if u.OnTeam(teamID) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r fakeTeamRepo) Count(ctx context.Context, exec repositories.SQLExecutor) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.teams), nil
}

type fakeMatchRepo struct{ s *memStore }

func (r fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.teams[match.TeamOneID]; !ok {
		return repositories.ErrMatchTeamInvalid
	}
	if _, ok := r.s.teams[match.TeamTwoID]; !ok {
		return repositories.ErrMatchTeamInvalid
	}
	match.ID = r.s.id()
	if match.Timestamp.IsZero() {
		match.Timestamp = epoch.Add(time.Duration(match.ID) * time.Minute)
	}
	r.s.matches[match.ID] = *match
	return nil
}

func (r fakeMatchRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return &m, nil
}

func (r fakeMatchRepo) filter(keep func(models.Match) bool) []models.Match {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Match
	for _, m := range r.s.matches {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r fakeMatchRepo) ListApproved(ctx context.Context, exec repositories.SQLExecutor) ([]models.Match, error) {
	return r.filter(func(m models.Match) bool { return m.Approved }), nil
}

func (r fakeMatchRepo) ListPending(ctx context.Context, exec repositories.SQLExecutor, teamTwoID *int) ([]models.Match, error) {
	return r.filter(func(m models.Match) bool {
		return !m.Approved && (teamTwoID == nil || m.TeamTwoID == *teamTwoID)
	}), nil
}

func (r fakeMatchRepo) ListByTeam(ctx context.Context, exec repositories.SQLExecutor, teamID int) ([]models.Match, error) {
	out := r.filter(func(m models.Match) bool { return m.Involves(teamID) })
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r fakeMatchRepo) CountOlderPending(ctx context.Context, exec repositories.SQLExecutor, teamID int, before time.Time) (int, error) {
	return len(r.filter(func(m models.Match) bool {
		return !m.Approved && m.TeamTwoID == teamID && m.Timestamp.Before(before)
	})), nil
}

func (r fakeMatchRepo) SetApproved(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if m.Approved {
		return repositories.ErrMatchAlreadyDecided
	}
	m.Approved = true
	r.s.matches[id] = m
	return nil
}

func (r fakeMatchRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.s.matches, id)
	return nil
}

func (r fakeMatchRepo) Count(ctx context.Context, exec repositories.SQLExecutor, approved *bool) (int, error) {
	return len(r.filter(func(m models.Match) bool { return approved == nil || m.Approved == *approved })), nil
}

type fakeUserRepo struct{ s *memStore }

func (r fakeUserRepo) Create(ctx context.Context, exec repositories.SQLExecutor, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
		if u.Username == user.Username {
			return repositories.ErrUserUsernameConflict
		}
	}
	user.ID = r.s.id()
	user.CreatedAt = epoch
	r.s.users[user.ID] = *user
	return nil
}

func (r fakeUserRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (r fakeUserRepo) GetByEmail(ctx context.Context, exec repositories.SQLExecutor, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r fakeUserRepo) ExistsByUsernameOrEmail(ctx context.Context, exec repositories.SQLExecutor, username, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username || strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeUserRepo) Update(ctx context.Context, exec repositories.SQLExecutor, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r fakeUserRepo) ListWithoutTeam(ctx context.Context, exec repositories.SQLExecutor) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.User
	for _, u := range r.s.users {
		if u.TeamID == nil {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeUserRepo) Count(ctx context.Context, exec repositories.SQLExecutor) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.users), nil
}

type fakeRefreshRepo struct{ s *memStore }

func (r fakeRefreshRepo) Create(ctx context.Context, exec repositories.SQLExecutor, token *models.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token.ID = r.s.id()
	r.s.refresh[token.ID] = *token
	return nil
}

func (r fakeRefreshRepo) GetByUUID(ctx context.Context, exec repositories.SQLExecutor, uuid string, userID int) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.refresh {
		if t.UUID == uuid && t.UserID == userID {
			return &t, nil
		}
	}
	return nil, repositories.ErrRefreshTokenNotFound
}

func (r fakeRefreshRepo) DeleteByToken(ctx context.Context, exec repositories.SQLExecutor, userID int, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, t := range r.s.refresh {
		if t.UserID == userID && t.Token == token {
			delete(r.s.refresh, id)
			return nil
		}
	}
	return repositories.ErrRefreshTokenNotFound
}

func (r fakeRefreshRepo) DeleteExpired(ctx context.Context, exec repositories.SQLExecutor, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, t := range r.s.refresh {
		if !now.Before(t.ExpiresAt) {
			delete(r.s.refresh, id)
			n++
		}
	}
	return n, nil
}

type fakeSessionRepo struct{ s *memStore }

func (r fakeSessionRepo) Create(ctx context.Context, exec repositories.SQLExecutor, session *models.UserSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session.ID = r.s.id()
	r.s.sessions[session.ID] = *session
	return nil
}

func (r fakeSessionRepo) GetByUUID(ctx context.Context, exec repositories.SQLExecutor, uuid string) (*models.UserSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, s := range r.s.sessions {
		if s.UUID == uuid {
			return &s, nil
		}
	}
	return nil, repositories.ErrUserSessionNotFound
}

func (r fakeSessionRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sessions[id]; !ok {
		return repositories.ErrUserSessionNotFound
	}
	delete(r.s.sessions, id)
	return nil
}

func (r fakeSessionRepo) DeleteExpired(ctx context.Context, exec repositories.SQLExecutor, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, s := range r.s.sessions {
		if s.Expired(now) {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

type fakePushRepo struct{ s *memStore }

func (r fakePushRepo) Upsert(ctx context.Context, exec repositories.SQLExecutor, token *models.PushToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.push {
		if t.UserID == token.UserID && t.Token == token.Token {
			*token = t
			return nil
		}
	}
	token.ID = r.s.id()
	token.CreatedAt = epoch
	r.s.push[token.ID] = *token
	return nil
}

func (r fakePushRepo) ListByUser(ctx context.Context, exec repositories.SQLExecutor, userID int) ([]models.PushToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.PushToken
	for _, t := range r.s.push {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakePushRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, userID, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.push[id]
	if !ok || t.UserID != userID {
		return repositories.ErrPushTokenNotFound
	}
	delete(r.s.push, id)
	return nil
}

type sentEmail struct {
	kind, to, token string
}

type fakeEmail struct {
	sent []sentEmail
	err  error
}

func (f *fakeEmail) SendConfirmationEmail(to, token string) error {
	f.sent = append(f.sent, sentEmail{"confirm", to, token})
	return f.err
}

func (f *fakeEmail) SendPasswordResetEmail(to, token string) error {
	f.sent = append(f.sent, sentEmail{"reset", to, token})
	return f.err
}
