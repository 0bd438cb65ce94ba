package scoring

import (
	"sort"
	"strings"

	"github.com/Dosada05/tournament-tracker/models"
)

// Step records the effect of one match in a replay.
type Step struct {
	Match         models.Match
	TeamOneChange float64
	TeamTwoChange float64
	Skipped       bool
}

// History orders the matches, folds them once and snapshots the change of
// every step. For each match and side the change equals Delta.
func History(teams []models.Team, matches []models.Match) []Step {
	matches = sortedCopy(matches)
	scores := make(map[int]float64, len(teams))
	for _, t := range teams {
		scores[t.ID] = 0
	}

	steps := make([]Step, 0, len(matches))
	for _, m := range matches {
		s1, okOne := scores[m.TeamOneID]
		s2, okTwo := scores[m.TeamTwoID]
		if !okOne || !okTwo {
			steps = append(steps, Step{Match: m, Skipped: true})
			continue
		}
		n1, n2 := ApplyMatch(m, s1, s2)
		scores[m.TeamOneID] = n1
		scores[m.TeamTwoID] = n2
		steps = append(steps, Step{Match: m, TeamOneChange: n1 - s1, TeamTwoChange: n2 - s2})
	}
	return steps
}

// Rank returns a copy of teams sorted by score, highest first, with Position
// set from 1. Equal scores are ordered by name and then id so the table is stable.
func Rank(teams []models.Team) []models.Team {
	ranked := make([]models.Team, len(teams))
	copy(ranked, teams)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
	for i := range ranked {
		ranked[i].Position = i + 1
	}
	return ranked
}
