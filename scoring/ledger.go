// Package scoring computes team scores from the approved match history.
//
// Scores are never updated in place: every change to the set of approved
// matches is followed by a full replay from zero, so a team's score is always
// the ordered sum of the contributions of the matches it played.
package scoring

import (
	"math"

	"github.com/Dosada05/tournament-tracker/models"
)

const (
	VictoryPoints = 50.0
	DrawPoints    = 25.0

	victoryGapDivisor = 2.0
	drawGapDivisor    = 3.0
)

// ApplyOutcome returns the new score of a team that obtained result against an
// opponent. Both scores must be the values from before the match: the two
// sides of a match are applied simultaneously.
//
// A win or draw against a higher ranked opponent earns a share of the gap on
// top of the flat award. Beating a lower ranked opponent earns the flat award
// only. A loss never costs points.
func ApplyOutcome(result models.MatchResult, ownScore, opponentScore float64) float64 {
	gap := math.Max(0, opponentScore-ownScore)
	switch result {
	case models.ResultVictory:
		return ownScore + VictoryPoints + gap/victoryGapDivisor
	case models.ResultDraw:
		return ownScore + DrawPoints + gap/drawGapDivisor
	default:
		return ownScore
	}
}

// ApplyMatch applies both sides of m given the pre-match scores and returns the
// new scores in the same order.
func ApplyMatch(m models.Match, teamOneScore, teamTwoScore float64) (float64, float64) {
	return ApplyOutcome(m.TeamOneResult(), teamOneScore, teamTwoScore),
		ApplyOutcome(m.TeamTwoResult(), teamTwoScore, teamOneScore)
}
