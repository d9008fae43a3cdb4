package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/tournament-standings/models"
)

var (
	ErrParticipantNotFound          = errors.New("participant not found")
	ErrParticipantConflict          = errors.New("participant conflict: user or team already registered for this tournament")
	ErrParticipantUserInvalid       = errors.New("participant user conflict or invalid")
	ErrParticipantTeamInvalid       = errors.New("participant team conflict or invalid")
	ErrParticipantTournamentInvalid = errors.New("participant tournament conflict or invalid")
	ErrParticipantTypeViolation     = errors.New("participant type violation: either user_id or team_id must be set, but not both")
)

var participantConstraints = map[string]error{
	"participants_tournament_user_key": ErrParticipantConflict,
	"participants_tournament_team_key": ErrParticipantConflict,
	"participants_user_id_fkey":        ErrParticipantUserInvalid,
	"participants_team_id_fkey":        ErrParticipantTeamInvalid,
	"participants_tournament_id_fkey":  ErrParticipantTournamentInvalid,
	"participants_entrant_check":       ErrParticipantTypeViolation,
}

type ParticipantRepository interface {
	Create(ctx context.Context, p *models.Participant) error
	UpdateStatus(ctx context.Context, id int, status models.ParticipantStatus) error
	FindByID(ctx context.Context, id int) (*models.Participant, error)
	FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.Participant, error)
	FindByTeamAndTournament(ctx context.Context, teamID, tournamentID int) (*models.Participant, error)
	ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.ParticipantStatus) ([]*models.Participant, error)
	Delete(ctx context.Context, id int) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) Create(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO participants (user_id, team_id, tournament_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	if p.Status == "" {
		p.Status = models.ParticipantStatusActive
	}
	err := r.db.QueryRowContext(ctx, query,
		p.UserID,
		p.TeamID,
		p.TournamentID,
		p.Status,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if mapped, ok := constraintError(err, participantConstraints); ok {
			return mapped
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) UpdateStatus(ctx context.Context, id int, status models.ParticipantStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE participants SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update participant status: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) FindByID(ctx context.Context, id int) (*models.Participant, error) {
	return r.findOne(ctx, `WHERE p.id = $1`, id)
}

func (r *postgresParticipantRepository) FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.Participant, error) {
	return r.findOne(ctx, `WHERE p.user_id = $1 AND p.tournament_id = $2`, userID, tournamentID)
}

func (r *postgresParticipantRepository) FindByTeamAndTournament(ctx context.Context, teamID, tournamentID int) (*models.Participant, error) {
	return r.findOne(ctx, `WHERE p.team_id = $1 AND p.tournament_id = $2`, teamID, tournamentID)
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.ParticipantStatus) ([]*models.Participant, error) {
	var qb strings.Builder
	args := []interface{}{tournamentID}

	qb.WriteString(participantSelectSQL)
	qb.WriteString(" WHERE p.tournament_id = $1")
	if statusFilter != nil {
		args = append(args, *statusFilter)
		qb.WriteString(fmt.Sprintf(" AND p.status = $%d", len(args)))
	}
	qb.WriteString(" ORDER BY p.created_at ASC, p.id ASC")

	rows, err := r.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants by tournament: %w", err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

const participantSelectSQL = `
	SELECT
		p.id, p.user_id, p.team_id, p.tournament_id, p.status, p.created_at,
		COALESCE(u.id, 0), COALESCE(u.first_name, ''), COALESCE(u.last_name, ''), u.nickname,
		COALESCE(t.id, 0), COALESCE(t.name, '')
	FROM participants p
	LEFT JOIN users u ON p.user_id = u.id
	LEFT JOIN teams t ON p.team_id = t.id`

func (r *postgresParticipantRepository) findOne(ctx context.Context, where string, args ...interface{}) (*models.Participant, error) {
	p, err := scanParticipant(r.db.QueryRowContext(ctx, participantSelectSQL+" "+where, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}
	return p, nil
}

func scanParticipant(row rowScanner) (*models.Participant, error) {
	var (
		p models.Participant
		u models.User
		t models.Team
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.TeamID, &p.TournamentID, &p.Status, &p.CreatedAt,
		&u.ID, &u.FirstName, &u.LastName, &u.Nickname,
		&t.ID, &t.Name,
	)
	if err != nil {
		return nil, err
	}
	if p.UserID != nil && u.ID > 0 {
		p.User = &u
	}
	if p.TeamID != nil && t.ID > 0 {
		p.Team = &t
	}
	return &p, nil
}
