package models

import "time"

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Verified     bool      `json:"verified"`
	Admin        bool      `json:"admin"`
	TeamID       *int      `json:"team_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasTeam reports whether the user belongs to a team.
func (u *User) HasTeam() bool {
	return u != nil && u.TeamID != nil
}

// OnTeam reports whether the user is a member of teamID.
func (u *User) OnTeam(teamID int) bool {
	return u.HasTeam() && *u.TeamID == teamID
}

// Public strips fields that must never leave the server.
func (u User) Public() User {
	u.PasswordHash = ""
	u.Email = ""
	return u
}
