package models

import "time"

// TournamentStanding is a row of the final standings snapshot written when a
// tournament completes. Live standings are always recomputed from games.
type TournamentStanding struct {
	ID              int       `json:"id" db:"id"`
	TournamentID    int       `json:"tournament_id" db:"tournament_id"`
	EntrantID       int       `json:"entrant_id" db:"entrant_id"`
	EntrantName     string    `json:"entrant_name" db:"entrant_name"`
	Rank            int       `json:"rank" db:"rank"`
	Points          int       `json:"points" db:"points"`
	GamesPlayed     int       `json:"games_played" db:"games_played"`
	Wins            int       `json:"wins" db:"wins"`
	Draws           int       `json:"draws" db:"draws"`
	Losses          int       `json:"losses" db:"losses"`
	ScoreFor        int       `json:"score_for" db:"score_for"`
	ScoreAgainst    int       `json:"score_against" db:"score_against"`
	ScoreDifference int       `json:"score_difference" db:"score_difference"`
	FormulaName     string    `json:"formula_name" db:"formula_name"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
