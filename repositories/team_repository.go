package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-standings/models"
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamNameConflict   = errors.New("team name conflict")
	ErrTeamCaptainInvalid = errors.New("team captain conflict or invalid")
	ErrTeamMemberConflict = errors.New("user is already a member of this team")
	ErrTeamMemberInvalid  = errors.New("team member user invalid")
)

var teamConstraints = map[string]error{
	"teams_name_key":            ErrTeamNameConflict,
	"teams_captain_id_fkey":     ErrTeamCaptainInvalid,
	"team_members_pkey":         ErrTeamMemberConflict,
	"team_members_user_id_fkey": ErrTeamMemberInvalid,
	"team_members_team_id_fkey": ErrTeamNotFound,
}

type TeamRepository interface {
	// Create inserts the team and enrolls its captain as the first member.
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	AddMember(ctx context.Context, teamID, userID int) error
	IsMember(ctx context.Context, teamID, userID int) (bool, error)
	ListMembers(ctx context.Context, teamID int) ([]models.User, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO teams (name, captain_id) VALUES ($1, $2) RETURNING id, created_at`,
		team.Name, team.CaptainID,
	).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		if mapped, ok := constraintError(err, teamConstraints); ok {
			return mapped
		}
		return fmt.Errorf("failed to create team: %w", err)
	}

	if err = r.addMember(ctx, tx, team.ID, team.CaptainID); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit team creation: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	var t models.Team
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, captain_id, created_at FROM teams WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.CaptainID, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", id, err)
	}
	return &t, nil
}

func (r *postgresTeamRepository) AddMember(ctx context.Context, teamID, userID int) error {
	return r.addMember(ctx, r.db, teamID, userID)
}

func (r *postgresTeamRepository) addMember(ctx context.Context, exec SQLExecutor, teamID, userID int) error {
	_, err := exec.ExecContext(ctx,
		`INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)`, teamID, userID)
	if err != nil {
		if mapped, ok := constraintError(err, teamConstraints); ok {
			return mapped
		}
		return fmt.Errorf("failed to add user %d to team %d: %w", userID, teamID, err)
	}
	return nil
}

func (r *postgresTeamRepository) IsMember(ctx context.Context, teamID, userID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2)`,
		teamID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check team membership: %w", err)
	}
	return exists, nil
}

func (r *postgresTeamRepository) ListMembers(ctx context.Context, teamID int) ([]models.User, error) {
	query := `
		SELECT u.id, u.first_name, u.last_name, u.nickname, u.email, u.password_hash, u.role, u.status, u.created_at
		FROM team_members tm
		JOIN users u ON u.id = tm.user_id
		WHERE tm.team_id = $1
		ORDER BY tm.joined_at ASC, u.id ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %d: %w", teamID, err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = ""
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate team members: %w", err)
	}
	return users, nil
}
