package models

import "time"

// TournamentStatus mirrors the tournament_status ENUM in the database.
type TournamentStatus string

const (
	StatusSoon         TournamentStatus = "soon"
	StatusRegistration TournamentStatus = "registration"
	StatusActive       TournamentStatus = "active"
	StatusCompleted    TournamentStatus = "completed"
	StatusCanceled     TournamentStatus = "canceled"
)

type ParticipantType string

const (
	ParticipantTypeSolo ParticipantType = "solo"
	ParticipantTypeTeam ParticipantType = "team"
)

type Tournament struct {
	ID              int              `json:"id" db:"id"`
	Slug            string           `json:"slug" db:"slug"`
	Name            string           `json:"name" db:"name"`
	Description     *string          `json:"description,omitempty" db:"description"`
	OrganizerID     int              `json:"organizer_id" db:"organizer_id"`
	ParticipantType ParticipantType  `json:"participant_type" db:"participant_type"`
	Status          TournamentStatus `json:"status" db:"status"`
	StartDate       time.Time        `json:"start_date" db:"start_date"`
	EndDate         time.Time        `json:"end_date" db:"end_date"`
	FormulaID       *int             `json:"formula_id,omitempty" db:"formula_id"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`

	Organizer *User           `json:"organizer,omitempty" db:"-"`
	Formula   *ScoringFormula `json:"formula,omitempty" db:"-"`
}

func (t *Tournament) IsTeamBased() bool {
	return t != nil && t.ParticipantType == ParticipantTypeTeam
}
