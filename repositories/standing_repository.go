package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-standings/models"
)

var (
	ErrStandingsSnapshotNotFound = errors.New("standings snapshot not found")
	ErrStandingTournamentInvalid = errors.New("standing tournament conflict or invalid")
)

// TournamentStandingRepository stores the final standings written when a
// tournament completes. Live standings never read from it.
type TournamentStandingRepository interface {
	// ReplaceSnapshot atomically swaps the stored snapshot of a tournament.
	ReplaceSnapshot(ctx context.Context, tournamentID int, standings []*models.TournamentStanding) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.TournamentStanding, error)
	DeleteByTournamentID(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresTournamentStandingRepository struct {
	db *sql.DB
}

func NewPostgresTournamentStandingRepository(db *sql.DB) TournamentStandingRepository {
	return &postgresTournamentStandingRepository{db: db}
}

func (r *postgresTournamentStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentStandingRepository) ReplaceSnapshot(ctx context.Context, tournamentID int, standings []*models.TournamentStanding) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ReplaceSnapshot failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if err = r.DeleteByTournamentID(ctx, tx, tournamentID); err != nil {
		return err
	}
	if len(standings) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tournament_standings
		    (tournament_id, entrant_id, entrant_name, rank, points, games_played, wins, draws, losses,
		     score_for, score_against, score_difference, formula_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`)
	if err != nil {
		return fmt.Errorf("ReplaceSnapshot failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range standings {
		s.TournamentID = tournamentID
		err = stmt.QueryRowContext(ctx,
			s.TournamentID, s.EntrantID, s.EntrantName, s.Rank, s.Points, s.GamesPlayed,
			s.Wins, s.Draws, s.Losses, s.ScoreFor, s.ScoreAgainst, s.ScoreDifference, s.FormulaName,
		).Scan(&s.ID, &s.CreatedAt)
		if err != nil {
			if mapped, ok := constraintError(err, map[string]error{
				"tournament_standings_tournament_id_fkey": ErrStandingTournamentInvalid,
			}); ok {
				return mapped
			}
			return fmt.Errorf("ReplaceSnapshot failed for entrant %d: %w", s.EntrantID, err)
		}
	}
	return nil
}

func (r *postgresTournamentStandingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.TournamentStanding, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, tournament_id, entrant_id, entrant_name, rank, points, games_played, wins, draws, losses,
		       score_for, score_against, score_difference, formula_name, created_at
		FROM tournament_standings
		WHERE tournament_id = $1
		ORDER BY rank ASC`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings snapshot: %w", err)
	}
	defer rows.Close()

	standings := make([]*models.TournamentStanding, 0)
	for rows.Next() {
		var s models.TournamentStanding
		if err := rows.Scan(
			&s.ID, &s.TournamentID, &s.EntrantID, &s.EntrantName, &s.Rank, &s.Points, &s.GamesPlayed,
			&s.Wins, &s.Draws, &s.Losses, &s.ScoreFor, &s.ScoreAgainst, &s.ScoreDifference,
			&s.FormulaName, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan standing: %w", err)
		}
		standings = append(standings, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate standings: %w", err)
	}
	return standings, nil
}

func (r *postgresTournamentStandingRepository) DeleteByTournamentID(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM tournament_standings WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to delete standings for tournament %d: %w", tournamentID, err)
	}
	return nil
}
