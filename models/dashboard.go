package models

type DashboardStats struct {
	UsersTotal      int `json:"users_total"`
	TeamsTotal      int `json:"teams_total"`
	ApprovedMatches int `json:"approved_matches"`
	PendingMatches  int `json:"pending_matches"`
}
