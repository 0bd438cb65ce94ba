package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Dosada05/tournament-tracker/models"
)

type StandingsArgs struct{}

type MatchHistoryArgs struct {
	TeamID int `json:"team_id,omitempty" jsonschema:"only matches played by this team"`
}

type MatchDeltaArgs struct {
	MatchID int `json:"match_id" jsonschema:"approved match id"`
	TeamID  int `json:"team_id" jsonschema:"team that played the match"`
}

type MatchDeltaResult struct {
	MatchID int     `json:"match_id"`
	TeamID  int     `json:"team_id"`
	Delta   float64 `json:"delta"`
}

type standingsSource interface {
	Standings(ctx context.Context) ([]models.Team, error)
}

type matchSource interface {
	History(ctx context.Context) ([]models.MatchView, error)
	Delta(ctx context.Context, matchID, teamID int) (float64, error)
}

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// toolset exposes the read side of the tracker as MCP tools.
type toolset struct {
	teams   standingsSource
	matches matchSource
}

func (t *toolset) register(server *mcp.Server) []toolInfo {
	registry := make([]toolInfo, 0, 3)

	addTool(server, &registry, &mcp.Tool{
		Name:        "standings",
		Description: "Teams ranked by score with their members",
	}, t.standings)

	addTool(server, &registry, &mcp.Tool{
		Name:        "match_history",
		Description: "Approved matches, newest first, with the score change of each team",
	}, t.matchHistory)

	addTool(server, &registry, &mcp.Tool{
		Name:        "match_delta",
		Description: "Score change one team received from one approved match",
	}, t.matchDelta)

	return registry
}

func (t *toolset) standings(ctx context.Context, _ *mcp.CallToolRequest, _ StandingsArgs) (*mcp.CallToolResult, any, error) {
	teams, err := t.teams.Standings(ctx)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(map[string]any{"standings": teams})
}

func (t *toolset) matchHistory(ctx context.Context, _ *mcp.CallToolRequest, args MatchHistoryArgs) (*mcp.CallToolResult, any, error) {
	if args.TeamID < 0 {
		return toolError(errors.New("team_id must be positive")), nil, nil
	}
	history, err := t.matches.History(ctx)
	if err != nil {
		return toolError(err), nil, nil
	}
	if args.TeamID > 0 {
		filtered := history[:0]
		for _, m := range history {
			if m.Involves(args.TeamID) {
				filtered = append(filtered, m)
			}
		}
		history = filtered
	}
	return toolJSON(map[string]any{"matches": history})
}

func (t *toolset) matchDelta(ctx context.Context, _ *mcp.CallToolRequest, args MatchDeltaArgs) (*mcp.CallToolResult, any, error) {
	if args.MatchID <= 0 || args.TeamID <= 0 {
		return toolError(errors.New("match_id and team_id are required")), nil, nil
	}
	delta, err := t.matches.Delta(ctx, args.MatchID, args.TeamID)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(MatchDeltaResult{MatchID: args.MatchID, TeamID: args.TeamID, Delta: delta})
}

func addTool[T any](server *mcp.Server, registry *[]toolInfo, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) {
	*registry = append(*registry, toolInfo{Name: tool.Name, Description: tool.Description})
	mcp.AddTool(server, tool, handler)
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
