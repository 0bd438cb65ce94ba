package scoring

import (
	"sort"

	"github.com/Dosada05/tournament-tracker/models"
)

// Cutoff selects the point in the history at which a replay stops.
type Cutoff struct {
	matchID int
	include bool
	set     bool
}

// NoCutoff replays the whole history.
func NoCutoff() Cutoff { return Cutoff{} }

// Before stops right before matchID is applied.
func Before(matchID int) Cutoff { return Cutoff{matchID: matchID, set: true} }

// Through applies matchID and then stops.
func Through(matchID int) Cutoff { return Cutoff{matchID: matchID, include: true, set: true} }

// Result is a score snapshot produced by Replay.
type Result struct {
	// Teams holds one entry per input team, in input order, with the replayed score.
	Teams []models.Team
	// Skipped lists the ids of matches that referenced a team absent from the input.
	Skipped []int
}

// Score returns the replayed score of teamID.
func (r Result) Score(teamID int) (float64, bool) {
	for _, t := range r.Teams {
		if t.ID == teamID {
			return t.Score, true
		}
	}
	return 0, false
}

// Scores returns the replayed scores keyed by team id.
func (r Result) Scores() map[int]float64 {
	scores := make(map[int]float64, len(r.Teams))
	for _, t := range r.Teams {
		scores[t.ID] = t.Score
	}
	return scores
}

// SortMatches orders matches chronologically in place. Matches sharing a
// timestamp are ordered by id, which follows insertion order.
func SortMatches(matches []models.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.ID < b.ID
	})
}

func sortedCopy(matches []models.Match) []models.Match {
	ordered := make([]models.Match, len(matches))
	copy(ordered, matches)
	SortMatches(ordered)
	return ordered
}

// Replay folds matches, which must already be in chronological order, over a
// copy of teams whose scores start at zero. The input slices are not modified.
func Replay(teams []models.Team, matches []models.Match, cutoff Cutoff) Result {
	working := make([]models.Team, len(teams))
	index := make(map[int]int, len(teams))
	for i, t := range teams {
		working[i] = t.WithScore(0)
		index[t.ID] = i
	}

	var skipped []int
	for _, m := range matches {
		atCutoff := cutoff.set && m.ID == cutoff.matchID
		if atCutoff && !cutoff.include {
			break
		}

		one, okOne := index[m.TeamOneID]
		two, okTwo := index[m.TeamTwoID]
		if okOne && okTwo {
			s1, s2 := ApplyMatch(m, working[one].Score, working[two].Score)
			working[one] = working[one].WithScore(s1)
			working[two] = working[two].WithScore(s2)
		} else {
			skipped = append(skipped, m.ID)
		}

		if atCutoff {
			break
		}
	}

	return Result{Teams: working, Skipped: skipped}
}

// Delta is the score change match matchID caused for teamID at the time it was
// applied. matches may come in any order. It replays the prefix twice; History
// computes the same numbers for every match in one pass.
func Delta(teams []models.Team, matches []models.Match, matchID, teamID int) float64 {
	ordered := sortedCopy(matches)
	after, _ := Replay(teams, ordered, Through(matchID)).Score(teamID)
	before, _ := Replay(teams, ordered, Before(matchID)).Score(teamID)
	return after - before
}

// Recalculate filters the approved matches, orders them and replays the full
// history.
func Recalculate(teams []models.Team, matches []models.Match) Result {
	return Replay(teams, Approved(matches), NoCutoff())
}

// Approved returns a chronologically ordered copy of the approved matches.
func Approved(matches []models.Match) []models.Match {
	approved := make([]models.Match, 0, len(matches))
	for _, m := range matches {
		if m.Approved {
			approved = append(approved, m)
		}
	}
	SortMatches(approved)
	return approved
}
