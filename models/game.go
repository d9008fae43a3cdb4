package models

import "time"

// Game is an immutable record of a played game. Corrections are made by
// deleting the game and recording a new one.
type Game struct {
	ID           int        `json:"id" db:"id"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	PlayedAt     time.Time  `json:"played_at" db:"played_at"`
	Notes        *string    `json:"notes,omitempty" db:"notes"`
	CreatedBy    int        `json:"created_by" db:"created_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	Sides        []GameSide `json:"sides" db:"-"`
}

// GameSide is one participant's recorded result in a game.
type GameSide struct {
	ID            int  `json:"id" db:"id"`
	GameID        int  `json:"game_id" db:"game_id"`
	ParticipantID int  `json:"participant_id" db:"participant_id"`
	Score         int  `json:"score" db:"score"`
	IsWinner      bool `json:"is_winner" db:"is_winner"`

	// Resolved from the participant when loaded for standings.
	UserID      *int   `json:"user_id,omitempty" db:"-"`
	TeamID      *int   `json:"team_id,omitempty" db:"-"`
	DisplayName string `json:"display_name,omitempty" db:"-"`
}
