package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-standings/models"
)

// Actor is the authenticated user on whose behalf a service call runs.
type Actor struct {
	UserID int
	Role   models.UserRole
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// CanOrganize reports whether the actor may create tournaments and formulas.
func (a Actor) CanOrganize() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleOrganizer
}

func canManageTournament(a Actor, t *models.Tournament) bool {
	return a.IsAdmin() || (t != nil && t.OrganizerID == a.UserID)
}

func canManageFormula(a Actor, f *models.ScoringFormula) bool {
	if a.IsAdmin() {
		return true
	}
	return f != nil && f.OwnerID != nil && *f.OwnerID == a.UserID
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func validateTournamentDates(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return ErrTournamentDatesRequired
	}
	if end.Before(start) {
		return fmt.Errorf("%w: start %s, end %s", ErrTournamentInvalidDateRange, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

func isValidStatus(s models.TournamentStatus) bool {
	switch s {
	case models.StatusSoon, models.StatusRegistration, models.StatusActive, models.StatusCompleted, models.StatusCanceled:
		return true
	}
	return false
}

var allowedTransitions = map[models.TournamentStatus][]models.TournamentStatus{
	models.StatusSoon:         {models.StatusRegistration, models.StatusCanceled},
	models.StatusRegistration: {models.StatusActive, models.StatusCanceled},
	models.StatusActive:       {models.StatusCompleted, models.StatusCanceled},
	models.StatusCompleted:    {},
	models.StatusCanceled:     {},
}

func isValidStatusTransition(current, next models.TournamentStatus) bool {
	if current == next {
		return true
	}
	for _, allowed := range allowedTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

func isLocked(s models.TournamentStatus) bool {
	return s == models.StatusCompleted || s == models.StatusCanceled
}

// translateError returns the service error registered for a repository
// error, or wraps err with op when none matches.
func translateError(err error, op string, table map[error]error) error {
	if err == nil {
		return nil
	}
	for repoErr, svcErr := range table {
		if errors.Is(err, repoErr) {
			return svcErr
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
