package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-standings/models"
	"github.com/Dosada05/tournament-standings/repositories"
)

type RegisterParticipantInput struct {
	// TeamID is required for team tournaments and must be empty otherwise.
	TeamID *int `json:"team_id,omitempty"`
}

type ParticipantService interface {
	Register(ctx context.Context, actor Actor, tournamentID int, input RegisterParticipantInput) (*models.Participant, error)
	ListParticipants(ctx context.Context, tournamentID int, status *models.ParticipantStatus) ([]*models.Participant, error)
	// Withdraw removes a registration before play starts and marks it
	// withdrawn afterwards, so recorded games keep counting.
	Withdraw(ctx context.Context, actor Actor, tournamentID, participantID int) error
}

type participantService struct {
	repo           repositories.ParticipantRepository
	teamRepo       repositories.TeamRepository
	tournamentRepo repositories.TournamentRepository
	logger         *slog.Logger
}

func NewParticipantService(
	repo repositories.ParticipantRepository,
	teamRepo repositories.TeamRepository,
	tournamentRepo repositories.TournamentRepository,
	logger *slog.Logger,
) ParticipantService {
	return &participantService{
		repo:           repo,
		teamRepo:       teamRepo,
		tournamentRepo: tournamentRepo,
		logger:         logger,
	}
}

var participantErrors = map[error]error{
	repositories.ErrParticipantNotFound:          ErrParticipantNotFound,
	repositories.ErrParticipantConflict:          ErrRegistrationConflict,
	repositories.ErrParticipantUserInvalid:       ErrUserNotFound,
	repositories.ErrParticipantTeamInvalid:       ErrTeamNotFound,
	repositories.ErrParticipantTournamentInvalid: ErrTournamentNotFound,
	repositories.ErrParticipantTypeViolation:     ErrParticipantMismatch,
}

func (s *participantService) Register(ctx context.Context, actor Actor, tournamentID int, input RegisterParticipantInput) (*models.Participant, error) {
	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to get tournament %d", tournamentID), tournamentErrors)
	}
	if t.Status != models.StatusRegistration {
		return nil, ErrRegistrationNotOpen
	}

	p := &models.Participant{TournamentID: tournamentID, Status: models.ParticipantStatusActive}
	if t.IsTeamBased() {
		if input.TeamID == nil {
			return nil, fmt.Errorf("%w: team_id is required for team tournaments", ErrParticipantMismatch)
		}
		team, err := s.teamRepo.GetByID(ctx, *input.TeamID)
		if err != nil {
			return nil, translateError(err, "failed to get team", teamErrors)
		}
		if team.CaptainID != actor.UserID {
			return nil, ErrCaptainActionForbidden
		}
		p.TeamID = &team.ID
	} else {
		if input.TeamID != nil {
			return nil, fmt.Errorf("%w: solo tournaments do not accept teams", ErrParticipantMismatch)
		}
		userID := actor.UserID
		p.UserID = &userID
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, translateError(err, "failed to register participant", participantErrors)
	}
	s.logger.Info("participant registered",
		slog.Int("tournament_id", tournamentID),
		slog.Int("participant_id", p.ID))
	return p, nil
}

func (s *participantService) ListParticipants(ctx context.Context, tournamentID int, status *models.ParticipantStatus) ([]*models.Participant, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to get tournament %d", tournamentID), tournamentErrors)
	}
	participants, err := s.repo.ListByTournament(ctx, tournamentID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants of tournament %d: %w", tournamentID, err)
	}
	return participants, nil
}

func (s *participantService) Withdraw(ctx context.Context, actor Actor, tournamentID, participantID int) error {
	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return translateError(err, fmt.Sprintf("failed to get tournament %d", tournamentID), tournamentErrors)
	}
	p, err := s.repo.FindByID(ctx, participantID)
	if err != nil {
		return translateError(err, fmt.Sprintf("failed to get participant %d", participantID), participantErrors)
	}
	if p.TournamentID != tournamentID {
		return ErrParticipantNotFound
	}

	allowed, err := s.canWithdraw(ctx, actor, t, p)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbiddenOperation
	}

	switch t.Status {
	case models.StatusSoon, models.StatusRegistration:
		err = s.repo.Delete(ctx, participantID)
	case models.StatusActive:
		err = s.repo.UpdateStatus(ctx, participantID, models.ParticipantStatusWithdrawn)
	default:
		return ErrTournamentLocked
	}
	if err != nil {
		return translateError(err, fmt.Sprintf("failed to withdraw participant %d", participantID), participantErrors)
	}
	return nil
}

func (s *participantService) canWithdraw(ctx context.Context, actor Actor, t *models.Tournament, p *models.Participant) (bool, error) {
	if canManageTournament(actor, t) {
		return true, nil
	}
	if p.UserID != nil {
		return *p.UserID == actor.UserID, nil
	}
	if p.TeamID == nil {
		return false, nil
	}
	team, err := s.teamRepo.GetByID(ctx, *p.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get team %d: %w", *p.TeamID, err)
	}
	return team.CaptainID == actor.UserID, nil
}
