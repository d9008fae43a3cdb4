package services

import (
	"context"
	"errors"

	"github.com/Dosada05/tournament-standings/models"
	"github.com/Dosada05/tournament-standings/repositories"
	"github.com/Dosada05/tournament-standings/scoring"
)

// gameHistoryStore serves tournament games to the scoring engine.
type gameHistoryStore struct {
	tournaments repositories.TournamentRepository
	games       repositories.GameRepository
}

func NewGameHistoryStore(tournaments repositories.TournamentRepository, games repositories.GameRepository) scoring.GameStore {
	return &gameHistoryStore{tournaments: tournaments, games: games}
}

func (s *gameHistoryStore) GameHistory(ctx context.Context, tournamentID int) (scoring.History, error) {
	t, err := s.tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		return scoring.History{}, err
	}
	games, err := s.games.ListByTournament(ctx, tournamentID)
	if err != nil {
		return scoring.History{}, err
	}
	return scoring.History{
		EntrantType: entrantTypeOf(t),
		Games:       toGameRecords(games),
	}, nil
}

func entrantTypeOf(t *models.Tournament) scoring.EntrantType {
	if t.IsTeamBased() {
		return scoring.EntrantTeam
	}
	return scoring.EntrantPlayer
}

func toGameRecords(games []models.Game) []scoring.GameRecord {
	records := make([]scoring.GameRecord, 0, len(games))
	for _, g := range games {
		rec := scoring.GameRecord{
			ID:       g.ID,
			PlayedAt: g.PlayedAt,
			Sides:    make([]scoring.Side, 0, len(g.Sides)),
		}
		for _, side := range g.Sides {
			s := scoring.Side{
				Name:     side.DisplayName,
				Score:    side.Score,
				IsWinner: side.IsWinner,
			}
			if side.UserID != nil {
				s.PlayerID = *side.UserID
			}
			if side.TeamID != nil {
				s.TeamID = *side.TeamID
			}
			rec.Sides = append(rec.Sides, s)
		}
		records = append(records, rec)
	}
	return records
}

// formulaStore answers the resolver from the tournament and formula tables.
type formulaStore struct {
	tournaments repositories.TournamentRepository
	formulas    repositories.FormulaRepository
}

func NewFormulaStore(tournaments repositories.TournamentRepository, formulas repositories.FormulaRepository) scoring.FormulaStore {
	return &formulaStore{tournaments: tournaments, formulas: formulas}
}

func (s *formulaStore) GetAssignment(ctx context.Context, tournamentID int) (*int, error) {
	return s.tournaments.GetFormulaID(ctx, tournamentID)
}

func (s *formulaStore) GetFormula(ctx context.Context, formulaID int) (*models.ScoringFormula, error) {
	f, err := s.formulas.GetByID(ctx, formulaID)
	if errors.Is(err, repositories.ErrFormulaNotFound) {
		return nil, scoring.ErrFormulaNotFound
	}
	return f, err
}
