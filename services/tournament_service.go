package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/tournament-standings/models"
	"github.com/Dosada05/tournament-standings/repositories"
	"github.com/Dosada05/tournament-standings/utils"
)

const slugAttempts = 5

type CreateTournamentInput struct {
	Name            string                 `json:"name"`
	Description     *string                `json:"description,omitempty"`
	ParticipantType models.ParticipantType `json:"participant_type"`
	StartDate       time.Time              `json:"start_date"`
	EndDate         time.Time              `json:"end_date"`
	FormulaID       *int                   `json:"formula_id,omitempty"`
}

type UpdateTournamentInput struct {
	Name            *string                 `json:"name,omitempty"`
	Description     *string                 `json:"description,omitempty"`
	ParticipantType *models.ParticipantType `json:"participant_type,omitempty"`
	StartDate       *time.Time              `json:"start_date,omitempty"`
	EndDate         *time.Time              `json:"end_date,omitempty"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, actor Actor, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	GetTournamentBySlug(ctx context.Context, slug string) (*models.Tournament, error)
	ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	UpdateTournament(ctx context.Context, actor Actor, id int, input UpdateTournamentInput) (*models.Tournament, error)
	UpdateStatus(ctx context.Context, actor Actor, id int, status models.TournamentStatus) (*models.Tournament, error)
	// AssignFormula sets the scoring formula of a tournament; nil restores
	// the default formula.
	AssignFormula(ctx context.Context, actor Actor, id int, formulaID *int) (*models.Tournament, error)
	DeleteTournament(ctx context.Context, actor Actor, id int) error
	// AutoUpdateStatuses moves tournaments along by their dates and returns
	// how many changed.
	AutoUpdateStatuses(ctx context.Context, now time.Time) (int, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	formulaRepo    repositories.FormulaRepository
	standings      StandingsService
	logger         *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	formulaRepo repositories.FormulaRepository,
	standings StandingsService,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		formulaRepo:    formulaRepo,
		standings:      standings,
		logger:         logger,
	}
}

var tournamentErrors = map[error]error{
	repositories.ErrTournamentNotFound:       ErrTournamentNotFound,
	repositories.ErrTournamentSlugConflict:   ErrTournamentSlugConflict,
	repositories.ErrTournamentInvalidOrg:     ErrUserNotFound,
	repositories.ErrTournamentInvalidFormula: ErrFormulaNotFound,
	repositories.ErrTournamentInvalidDates:   ErrTournamentInvalidDateRange,
}

func (s *tournamentService) CreateTournament(ctx context.Context, actor Actor, input CreateTournamentInput) (*models.Tournament, error) {
	if !actor.CanOrganize() {
		return nil, ErrForbiddenOperation
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTournamentNameRequired
	}
	if input.ParticipantType != models.ParticipantTypeSolo && input.ParticipantType != models.ParticipantTypeTeam {
		return nil, ErrTournamentInvalidParticipantType
	}
	if err := validateTournamentDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}
	if input.FormulaID != nil {
		if err := s.ensureFormula(ctx, *input.FormulaID); err != nil {
			return nil, err
		}
	}

	t := &models.Tournament{
		Name:            name,
		Description:     input.Description,
		OrganizerID:     actor.UserID,
		ParticipantType: input.ParticipantType,
		Status:          models.StatusSoon,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		FormulaID:       input.FormulaID,
	}
	err := s.withUniqueSlug(name, func(slug string) error {
		t.Slug = slug
		return s.tournamentRepo.Create(ctx, t)
	})
	if err != nil {
		return nil, translateError(err, "failed to create tournament", tournamentErrors)
	}

	s.logger.Info("tournament created",
		slog.Int("tournament_id", t.ID),
		slog.String("slug", t.Slug),
		slog.Int("organizer_id", t.OrganizerID))
	return t, nil
}

// withUniqueSlug retries store with numbered slugs while the slug is taken.
func (s *tournamentService) withUniqueSlug(name string, store func(slug string) error) error {
	base := utils.Slugify(name)
	if base == "" {
		base = "tournament"
	}
	var err error
	for attempt := 1; attempt <= slugAttempts; attempt++ {
		slug := base
		if attempt > 1 {
			slug = fmt.Sprintf("%s-%d", base, attempt)
		}
		err = store(slug)
		if !errors.Is(err, repositories.ErrTournamentSlugConflict) {
			return err
		}
	}
	return err
}

func (s *tournamentService) ensureFormula(ctx context.Context, formulaID int) error {
	if _, err := s.formulaRepo.GetByID(ctx, formulaID); err != nil {
		return translateError(err, fmt.Sprintf("failed to check scoring formula %d", formulaID), map[error]error{
			repositories.ErrFormulaNotFound: ErrFormulaNotFound,
		})
	}
	return nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to get tournament %d", id), tournamentErrors)
	}
	s.populateFormula(ctx, t)
	return t, nil
}

func (s *tournamentService) GetTournamentBySlug(ctx context.Context, slug string) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to get tournament %q", slug), tournamentErrors)
	}
	s.populateFormula(ctx, t)
	return t, nil
}

func (s *tournamentService) populateFormula(ctx context.Context, t *models.Tournament) {
	if t.FormulaID == nil {
		return
	}
	f, err := s.formulaRepo.GetByID(ctx, *t.FormulaID)
	if err != nil {
		s.logger.Warn("failed to load tournament formula",
			slog.Int("tournament_id", t.ID),
			slog.Int("formula_id", *t.FormulaID),
			slog.Any("error", err))
		return
	}
	t.Formula = f
}

func (s *tournamentService) ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	if filter.Status != nil && !isValidStatus(*filter.Status) {
		return nil, ErrTournamentInvalidStatus
	}
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

func (s *tournamentService) loadManaged(ctx context.Context, actor Actor, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to get tournament %d", id), tournamentErrors)
	}
	if !canManageTournament(actor, t) {
		return nil, ErrForbiddenOperation
	}
	return t, nil
}

func (s *tournamentService) UpdateTournament(ctx context.Context, actor Actor, id int, input UpdateTournamentInput) (*models.Tournament, error) {
	t, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if isLocked(t.Status) {
		return nil, ErrTournamentLocked
	}

	renamed := false
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrTournamentNameRequired
		}
		renamed = name != t.Name
		t.Name = name
	}
	if input.Description != nil {
		t.Description = input.Description
	}
	if input.ParticipantType != nil && *input.ParticipantType != t.ParticipantType {
		if *input.ParticipantType != models.ParticipantTypeSolo && *input.ParticipantType != models.ParticipantTypeTeam {
			return nil, ErrTournamentInvalidParticipantType
		}
		if t.Status != models.StatusSoon {
			return nil, fmt.Errorf("%w: participant type can only change before registration opens", ErrValidationFailed)
		}
		t.ParticipantType = *input.ParticipantType
	}
	if input.StartDate != nil {
		t.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		t.EndDate = *input.EndDate
	}
	if err := validateTournamentDates(t.StartDate, t.EndDate); err != nil {
		return nil, err
	}

	store := func(slug string) error {
		t.Slug = slug
		return s.tournamentRepo.Update(ctx, t)
	}
	if renamed {
		err = s.withUniqueSlug(t.Name, store)
	} else {
		err = store(t.Slug)
	}
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to update tournament %d", id), tournamentErrors)
	}
	return t, nil
}

func (s *tournamentService) UpdateStatus(ctx context.Context, actor Actor, id int, status models.TournamentStatus) (*models.Tournament, error) {
	if !isValidStatus(status) {
		return nil, ErrTournamentInvalidStatus
	}
	t, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !isValidStatusTransition(t.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrTournamentInvalidStatusTransition, t.Status, status)
	}
	if t.Status == status {
		return t, nil
	}
	if err := s.changeStatus(ctx, t, status); err != nil {
		return nil, err
	}
	return t, nil
}

// changeStatus stores the new status and finalizes standings on completion.
// A failed finalization is logged; the status change stands.
func (s *tournamentService) changeStatus(ctx context.Context, t *models.Tournament, status models.TournamentStatus) error {
	if err := s.tournamentRepo.UpdateStatus(ctx, nil, t.ID, status); err != nil {
		return translateError(err, fmt.Sprintf("failed to update status of tournament %d", t.ID), tournamentErrors)
	}
	s.logger.Info("tournament status changed",
		slog.Int("tournament_id", t.ID),
		slog.String("from", string(t.Status)),
		slog.String("to", string(status)))
	t.Status = status

	if status == models.StatusCompleted {
		if err := s.standings.Finalize(ctx, t.ID); err != nil {
			s.logger.Error("failed to finalize standings",
				slog.Int("tournament_id", t.ID),
				slog.Any("error", err))
		}
	}
	return nil
}

func (s *tournamentService) AssignFormula(ctx context.Context, actor Actor, id int, formulaID *int) (*models.Tournament, error) {
	t, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if isLocked(t.Status) {
		return nil, ErrTournamentLocked
	}
	if formulaID != nil {
		if err := s.ensureFormula(ctx, *formulaID); err != nil {
			return nil, err
		}
	}
	if err := s.tournamentRepo.UpdateFormula(ctx, id, formulaID); err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to assign formula to tournament %d", id), tournamentErrors)
	}
	t.FormulaID = formulaID
	s.populateFormula(ctx, t)

	if t.Status == models.StatusActive {
		s.standings.Refresh(ctx, id)
	}
	return t, nil
}

func (s *tournamentService) DeleteTournament(ctx context.Context, actor Actor, id int) error {
	if _, err := s.loadManaged(ctx, actor, id); err != nil {
		return err
	}
	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		return translateError(err, fmt.Sprintf("failed to delete tournament %d", id), tournamentErrors)
	}
	return nil
}

func (s *tournamentService) AutoUpdateStatuses(ctx context.Context, now time.Time) (int, error) {
	due, err := s.tournamentRepo.GetTournamentsForAutoStatusUpdate(ctx, nil, now)
	if err != nil {
		return 0, fmt.Errorf("failed to find tournaments due for a status change: %w", err)
	}

	changed := 0
	for _, t := range due {
		path := autoStatusPath(t, now)
		done := len(path) > 0
		for _, next := range path {
			if err := s.changeStatus(ctx, t, next); err != nil {
				s.logger.Error("automatic status change failed",
					slog.Int("tournament_id", t.ID),
					slog.String("to", string(next)),
					slog.Any("error", err))
				done = false
				break
			}
		}
		if done {
			changed++
		}
	}
	return changed, nil
}

// autoStatusPath lists the transitions that bring t up to date at now,
// following the same steps an organizer would take.
func autoStatusPath(t *models.Tournament, now time.Time) []models.TournamentStatus {
	var path []models.TournamentStatus
	status := t.Status
	if (status == models.StatusSoon || status == models.StatusRegistration) && !t.StartDate.After(now) {
		if status == models.StatusSoon {
			path = append(path, models.StatusRegistration)
		}
		path = append(path, models.StatusActive)
		status = models.StatusActive
	}
	if status == models.StatusActive && !t.EndDate.After(now) {
		path = append(path, models.StatusCompleted)
	}
	return path
}
