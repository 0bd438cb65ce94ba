package models

import "time"

type Team struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Score     float64   `json:"score" db:"score"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Position is the 1-based rank in the standings, assigned after sorting.
	Position int `json:"position,omitempty" db:"-"`

	Members     []User      `json:"members,omitempty" db:"-"`
	MemberNames string      `json:"member_names,omitempty" db:"-"`
	Matches     []MatchView `json:"matches,omitempty" db:"-"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`
}

// WithScore returns a copy of t carrying the given score.
func (t Team) WithScore(score float64) Team {
	t.Score = score
	return t
}

// TeamPatch describes a partial update of a team. Score is absent on purpose:
// it is only ever produced by a replay.
type TeamPatch struct {
	Name    *string `json:"name"`
	LogoKey *string `json:"-"`
}

func (p TeamPatch) Empty() bool {
	return p.Name == nil && p.LogoKey == nil
}

// Apply returns a copy of t with the patch applied.
func (t Team) Apply(p TeamPatch) Team {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.LogoKey != nil {
		t.LogoKey = p.LogoKey
	}
	return t
}
