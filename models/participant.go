package models

import (
	"fmt"
	"time"
)

type ParticipantStatus string

const (
	ParticipantStatusActive    ParticipantStatus = "participant"
	ParticipantStatusWithdrawn ParticipantStatus = "withdrawn"
)

// Participant registers either a user or a team in a tournament.
type Participant struct {
	ID           int               `json:"id" db:"id"`
	TournamentID int               `json:"tournament_id" db:"tournament_id"`
	UserID       *int              `json:"user_id,omitempty" db:"user_id"`
	TeamID       *int              `json:"team_id,omitempty" db:"team_id"`
	Status       ParticipantStatus `json:"status" db:"status"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`

	User *User `json:"user,omitempty" db:"-"`
	Team *Team `json:"team,omitempty" db:"-"`
}

func (p *Participant) DisplayName() string {
	if p == nil {
		return "N/A"
	}
	if p.Team != nil && p.Team.Name != "" {
		return p.Team.Name
	}
	if name := p.User.DisplayName(); name != "" {
		return name
	}
	return fmt.Sprintf("Participant %d", p.ID)
}
