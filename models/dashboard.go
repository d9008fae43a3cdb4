package models

type DashboardStats struct {
	UsersTotal        int `json:"users_total"`
	BannedUsers       int `json:"banned_users"`
	TournamentsTotal  int `json:"tournaments_total"`
	ActiveTournaments int `json:"active_tournaments"`
	GamesTotal        int `json:"games_total"`
	FormulasTotal     int `json:"formulas_total"`
}
