package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-standings/models"
	"github.com/Dosada05/tournament-standings/repositories"
)

type GameSideInput struct {
	ParticipantID int  `json:"participant_id"`
	Score         int  `json:"score"`
	IsWinner      bool `json:"is_winner,omitempty"`
}

type RecordGameInput struct {
	PlayedAt *time.Time      `json:"played_at,omitempty"`
	Notes    *string         `json:"notes,omitempty"`
	Sides    []GameSideInput `json:"sides"`
}

// GameService records games. Games are immutable: a wrong result is
// corrected by deleting the game and recording it again.
type GameService interface {
	RecordGame(ctx context.Context, actor Actor, tournamentID int, input RecordGameInput) (*models.Game, error)
	GetGame(ctx context.Context, tournamentID, gameID int) (*models.Game, error)
	ListGames(ctx context.Context, tournamentID int) ([]models.Game, error)
	DeleteGame(ctx context.Context, actor Actor, tournamentID, gameID int) error
}

type gameService struct {
	gameRepo        repositories.GameRepository
	participantRepo repositories.ParticipantRepository
	tournamentRepo  repositories.TournamentRepository
	standings       StandingsService
	logger          *slog.Logger
	now             func() time.Time
}

func NewGameService(
	gameRepo repositories.GameRepository,
	participantRepo repositories.ParticipantRepository,
	tournamentRepo repositories.TournamentRepository,
	standings StandingsService,
	logger *slog.Logger,
) GameService {
	return &gameService{
		gameRepo:        gameRepo,
		participantRepo: participantRepo,
		tournamentRepo:  tournamentRepo,
		standings:       standings,
		logger:          logger,
		now:             time.Now,
	}
}

var gameErrors = map[error]error{
	repositories.ErrGameNotFound:           ErrGameNotFound,
	repositories.ErrGameTournamentInvalid:  ErrTournamentNotFound,
	repositories.ErrGameParticipantInvalid: ErrParticipantNotFound,
	repositories.ErrGameDuplicateSide:      ErrGameInvalid,
	repositories.ErrGameNegativeScore:      ErrGameInvalid,
}

func (s *gameService) RecordGame(ctx context.Context, actor Actor, tournamentID int, input RecordGameInput) (*models.Game, error) {
	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to get tournament %d", tournamentID), tournamentErrors)
	}
	if !canManageTournament(actor, t) {
		return nil, ErrForbiddenOperation
	}
	if t.Status != models.StatusActive {
		return nil, ErrTournamentNotActive
	}

	active := models.ParticipantStatusActive
	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID, &active)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants of tournament %d: %w", tournamentID, err)
	}
	registered := make(map[int]bool, len(participants))
	for _, p := range participants {
		registered[p.ID] = true
	}
	if err := validateSides(input.Sides, registered); err != nil {
		return nil, err
	}

	playedAt := s.now().UTC()
	if input.PlayedAt != nil {
		playedAt = *input.PlayedAt
	}
	game := &models.Game{
		TournamentID: tournamentID,
		PlayedAt:     playedAt,
		Notes:        input.Notes,
		CreatedBy:    actor.UserID,
		Sides:        make([]models.GameSide, 0, len(input.Sides)),
	}
	for _, side := range input.Sides {
		game.Sides = append(game.Sides, models.GameSide{
			ParticipantID: side.ParticipantID,
			Score:         side.Score,
			IsWinner:      side.IsWinner,
		})
	}

	if err := s.gameRepo.Create(ctx, game); err != nil {
		return nil, translateError(err, "failed to record game", gameErrors)
	}
	s.logger.Info("game recorded",
		slog.Int("tournament_id", tournamentID),
		slog.Int("game_id", game.ID),
		slog.Int("sides", len(game.Sides)))

	s.standings.Refresh(ctx, tournamentID)

	stored, err := s.gameRepo.GetByID(ctx, game.ID)
	if err != nil {
		return game, nil
	}
	return stored, nil
}

// validateSides rejects games the standings could not use.
func validateSides(sides []GameSideInput, registered map[int]bool) error {
	fields := make(map[string]string)
	if len(sides) < 1 || len(sides) > 2 {
		fields["sides"] = "a game has one side (a bye) or two sides"
		return &FieldErrors{Err: ErrGameInvalid, Fields: fields}
	}

	seen := make(map[int]bool, len(sides))
	winners := 0
	for i, side := range sides {
		key := fmt.Sprintf("sides[%d]", i)
		switch {
		case !registered[side.ParticipantID]:
			fields[key+".participant_id"] = "not an active participant of this tournament"
		case seen[side.ParticipantID]:
			fields[key+".participant_id"] = "participant appears twice"
		}
		seen[side.ParticipantID] = true
		if side.Score < 0 {
			fields[key+".score"] = "must not be negative"
		}
		if side.IsWinner {
			winners++
		}
	}
	if winners > 1 {
		fields["sides"] = "at most one side can be flagged as winner"
	}
	if len(sides) == 2 && winners == 1 && sides[0].Score == sides[1].Score {
		fields["sides"] = "a game with equal scores is a draw and has no winner"
	}

	if len(fields) > 0 {
		return &FieldErrors{Err: ErrGameInvalid, Fields: fields}
	}
	return nil
}

func (s *gameService) GetGame(ctx context.Context, tournamentID, gameID int) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to get game %d", gameID), gameErrors)
	}
	if game.TournamentID != tournamentID {
		return nil, ErrGameNotFound
	}
	return game, nil
}

func (s *gameService) ListGames(ctx context.Context, tournamentID int) ([]models.Game, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to get tournament %d", tournamentID), tournamentErrors)
	}
	games, err := s.gameRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games of tournament %d: %w", tournamentID, err)
	}
	return games, nil
}

func (s *gameService) DeleteGame(ctx context.Context, actor Actor, tournamentID, gameID int) error {
	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return translateError(err, fmt.Sprintf("failed to get tournament %d", tournamentID), tournamentErrors)
	}
	if !canManageTournament(actor, t) {
		return ErrForbiddenOperation
	}
	if isLocked(t.Status) {
		return ErrTournamentLocked
	}
	if _, err := s.GetGame(ctx, tournamentID, gameID); err != nil {
		return err
	}
	if err := s.gameRepo.Delete(ctx, gameID); err != nil {
		return translateError(err, fmt.Sprintf("failed to delete game %d", gameID), gameErrors)
	}
	s.logger.Info("game deleted", slog.Int("tournament_id", tournamentID), slog.Int("game_id", gameID))

	s.standings.Refresh(ctx, tournamentID)
	return nil
}
