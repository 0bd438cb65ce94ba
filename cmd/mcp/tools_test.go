package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Dosada05/tournament-tracker/models"
)

type stubTeams struct {
	teams []models.Team
	err   error
}

func (s *stubTeams) Standings(ctx context.Context) ([]models.Team, error) {
	return s.teams, s.err
}

type stubMatches struct {
	history []models.MatchView
	delta   float64
	err     error
}

func (s *stubMatches) History(ctx context.Context) ([]models.MatchView, error) {
	return s.history, s.err
}

func (s *stubMatches) Delta(ctx context.Context, matchID, teamID int) (float64, error) {
	return s.delta, s.err
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(res.Content))
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func view(id, one, two int) models.MatchView {
	return models.MatchView{Match: models.Match{ID: id, TeamOneID: one, TeamTwoID: two}}
}

func TestMatchHistoryFiltersByTeam(t *testing.T) {
	tools := &toolset{matches: &stubMatches{history: []models.MatchView{view(3, 1, 2), view(2, 2, 3), view(1, 3, 1)}}}

	res, _, err := tools.matchHistory(context.Background(), nil, MatchHistoryArgs{TeamID: 1})
	if err != nil || res.IsError {
		t.Fatalf("unexpected failure: %v %s", err, resultText(t, res))
	}

	var body struct {
		Matches []models.MatchView `json:"matches"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(body.Matches) != 2 || body.Matches[0].ID != 3 || body.Matches[1].ID != 1 {
		t.Errorf("unexpected matches: %+v", body.Matches)
	}
}

func TestMatchDelta(t *testing.T) {
	tests := []struct {
		name    string
		args    MatchDeltaArgs
		stub    *stubMatches
		wantErr string
		want    string
	}{
		{name: "found", args: MatchDeltaArgs{MatchID: 4, TeamID: 2}, stub: &stubMatches{delta: 1.5},
			want: `{"match_id":4,"team_id":2,"delta":1.5}`},
		{name: "missing arguments", args: MatchDeltaArgs{MatchID: 4}, stub: &stubMatches{},
			wantErr: "match_id and team_id are required"},
		{name: "service error", args: MatchDeltaArgs{MatchID: 4, TeamID: 2}, stub: &stubMatches{err: errors.New("match not found")},
			wantErr: "match not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tools := &toolset{matches: tt.stub}
			res, _, err := tools.matchDelta(context.Background(), nil, tt.args)
			if err != nil {
				t.Fatalf("handler returned protocol error: %v", err)
			}
			text := resultText(t, res)
			if tt.wantErr != "" {
				if !res.IsError || !strings.Contains(text, tt.wantErr) {
					t.Errorf("expected tool error %q, got %q", tt.wantErr, text)
				}
				return
			}
			if text != tt.want {
				t.Errorf("got %s, want %s", text, tt.want)
			}
		})
	}
}

func TestStandingsTool(t *testing.T) {
	tools := &toolset{teams: &stubTeams{teams: []models.Team{{ID: 1, Name: "Alpha", Score: 52, Position: 1}}}}

	res, _, _ := tools.standings(context.Background(), nil, StandingsArgs{})
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	if text := resultText(t, res); !strings.Contains(text, `"name":"Alpha"`) {
		t.Errorf("standings missing team: %s", text)
	}
}

func TestRegisterListsTools(t *testing.T) {
	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "0"}, nil)
	registry := (&toolset{teams: &stubTeams{}, matches: &stubMatches{}}).register(server)

	var names []string
	for _, tool := range registry {
		names = append(names, tool.Name)
	}
	if got := strings.Join(names, ","); got != "standings,match_history,match_delta" {
		t.Errorf("registered tools = %s", got)
	}
}

func TestRequireAPIKey(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name   string
		key    string
		header string
		value  string
		want   int
	}{
		{name: "disabled", key: "", want: http.StatusNoContent},
		{name: "header", key: "secret", header: "X-API-Key", value: "secret", want: http.StatusNoContent},
		{name: "bearer", key: "secret", header: "Authorization", value: "Bearer secret", want: http.StatusNoContent},
		{name: "wrong key", key: "secret", header: "X-API-Key", value: "nope", want: http.StatusUnauthorized},
		{name: "missing", key: "secret", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, mcpPath, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			requireAPIKey(tt.key)(ok).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
