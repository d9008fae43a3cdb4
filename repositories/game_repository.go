package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-standings/models"
)

var (
	ErrGameNotFound           = errors.New("game not found")
	ErrGameTournamentInvalid  = errors.New("game tournament conflict or invalid")
	ErrGameParticipantInvalid = errors.New("game participant invalid")
	ErrGameDuplicateSide      = errors.New("participant appears twice in the same game")
	ErrGameNegativeScore      = errors.New("game score must not be negative")
)

var gameConstraints = map[string]error{
	"games_tournament_id_fkey":        ErrGameTournamentInvalid,
	"game_sides_participant_id_fkey":  ErrGameParticipantInvalid,
	"game_sides_game_participant_key": ErrGameDuplicateSide,
	"game_sides_score_check":          ErrGameNegativeScore,
}

type GameRepository interface {
	// Create stores a game and its sides atomically.
	Create(ctx context.Context, game *models.Game) error
	GetByID(ctx context.Context, id int) (*models.Game, error)
	// ListByTournament returns games in play order with sides resolved to
	// their user or team and display name.
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Game, error)
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) Create(ctx context.Context, g *models.Game) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO games (tournament_id, played_at, notes, created_by) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		g.TournamentID, g.PlayedAt, g.Notes, g.CreatedBy,
	).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		return r.handleGameError(err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO game_sides (game_id, participant_id, score, is_winner) VALUES ($1, $2, $3, $4) RETURNING id`)
	if err != nil {
		return fmt.Errorf("failed to prepare game side insert: %w", err)
	}
	defer stmt.Close()

	for i := range g.Sides {
		side := &g.Sides[i]
		side.GameID = g.ID
		if err = stmt.QueryRowContext(ctx, g.ID, side.ParticipantID, side.Score, side.IsWinner).Scan(&side.ID); err != nil {
			return r.handleGameError(err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit game: %w", err)
	}
	return nil
}

const gameWithSidesSQL = `
	SELECT
		g.id, g.tournament_id, g.played_at, g.notes, g.created_by, g.created_at,
		s.id, s.participant_id, s.score, s.is_winner,
		p.user_id, p.team_id,
		COALESCE(t.name, NULLIF(u.nickname, ''), TRIM(u.first_name || ' ' || u.last_name), '')
	FROM games g
	LEFT JOIN game_sides s ON s.game_id = g.id
	LEFT JOIN participants p ON p.id = s.participant_id
	LEFT JOIN users u ON u.id = p.user_id
	LEFT JOIN teams t ON t.id = p.team_id`

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	games, err := r.queryGames(ctx, gameWithSidesSQL+` WHERE g.id = $1 ORDER BY s.id`, id)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, ErrGameNotFound
	}
	return &games[0], nil
}

func (r *postgresGameRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Game, error) {
	return r.queryGames(ctx,
		gameWithSidesSQL+` WHERE g.tournament_id = $1 ORDER BY g.played_at, g.id, s.id`, tournamentID)
}

// queryGames folds one row per side back into games, keeping row order.
func (r *postgresGameRepository) queryGames(ctx context.Context, query string, args ...interface{}) ([]models.Game, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	games := make([]models.Game, 0)
	index := make(map[int]int)
	for rows.Next() {
		var (
			g              models.Game
			sideID, partID sql.NullInt64
			score          sql.NullInt64
			isWinner       sql.NullBool
			userID, teamID *int
			displayName    sql.NullString
		)
		if err := rows.Scan(
			&g.ID, &g.TournamentID, &g.PlayedAt, &g.Notes, &g.CreatedBy, &g.CreatedAt,
			&sideID, &partID, &score, &isWinner,
			&userID, &teamID,
			&displayName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}

		pos, seen := index[g.ID]
		if !seen {
			g.Sides = make([]models.GameSide, 0, 2)
			games = append(games, g)
			pos = len(games) - 1
			index[g.ID] = pos
		}
		if !sideID.Valid {
			continue
		}
		games[pos].Sides = append(games[pos].Sides, models.GameSide{
			ID:            int(sideID.Int64),
			GameID:        g.ID,
			ParticipantID: int(partID.Int64),
			Score:         int(score.Int64),
			IsWinner:      isWinner.Bool,
			UserID:        userID,
			TeamID:        teamID,
			DisplayName:   displayName.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate games: %w", err)
	}
	return games, nil
}

func (r *postgresGameRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete game %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count games: %w", err)
	}
	return n, nil
}

func (r *postgresGameRepository) handleGameError(err error) error {
	if mapped, ok := constraintError(err, gameConstraints); ok {
		return mapped
	}
	return fmt.Errorf("failed to store game: %w", err)
}
