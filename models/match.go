package models

import "time"

// MatchResult is the outcome of a match from one side's point of view.
type MatchResult int

const (
	ResultLoss MatchResult = iota
	ResultVictory
	ResultDraw
)

func (r MatchResult) String() string {
	switch r {
	case ResultVictory:
		return "victory"
	case ResultDraw:
		return "draw"
	default:
		return "loss"
	}
}

const (
	MinMatchScore = 0
	MaxMatchScore = 10
)

type Match struct {
	ID           int       `json:"id" db:"id"`
	TeamOneID    int       `json:"team_one_id" db:"team_one_id"`
	TeamTwoID    int       `json:"team_two_id" db:"team_two_id"`
	TeamOneScore int       `json:"team_one_score" db:"team_one_score"`
	TeamTwoScore int       `json:"team_two_score" db:"team_two_score"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
	Approved     bool      `json:"approved" db:"approved"`
}

func (m Match) TeamOneResult() MatchResult {
	return resultFor(m.TeamOneScore, m.TeamTwoScore)
}

func (m Match) TeamTwoResult() MatchResult {
	return resultFor(m.TeamTwoScore, m.TeamOneScore)
}

// Involves reports whether teamID played in the match.
func (m Match) Involves(teamID int) bool {
	return m.TeamOneID == teamID || m.TeamTwoID == teamID
}

func resultFor(own, other int) MatchResult {
	switch {
	case own > other:
		return ResultVictory
	case own == other:
		return ResultDraw
	default:
		return ResultLoss
	}
}

// MatchPatch describes a partial update. Nil fields are left untouched.
type MatchPatch struct {
	Approved *bool
}

// Apply returns a copy of m with the patch applied.
func (m Match) Apply(p MatchPatch) Match {
	if p.Approved != nil {
		m.Approved = *p.Approved
	}
	return m
}

// MatchView is a match enriched for display: team names, the score change the
// match caused for each side and whether the viewer may approve it.
type MatchView struct {
	Match
	TeamOneName        string  `json:"team_one_name"`
	TeamTwoName        string  `json:"team_two_name"`
	Date               string  `json:"date"`
	CanApprove         bool    `json:"can_approve"`
	TeamOneScoreChange int    `json:"team_one_score_change,omitempty"`
	TeamTwoScoreChange int    `json:"team_two_score_change,omitempty"`
}

const MatchDateLayout = "02-01-2006 15:04"
