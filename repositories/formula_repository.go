package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-standings/models"
)

var (
	ErrFormulaNotFound     = errors.New("scoring formula not found")
	ErrFormulaNameConflict = errors.New("scoring formula name conflict")
	ErrFormulaInUse        = errors.New("scoring formula is assigned to a tournament")
)

var formulaConstraints = map[string]error{
	"scoring_formulas_name_key":   ErrFormulaNameConflict,
	"tournaments_formula_id_fkey": ErrFormulaInUse,
}

type FormulaRepository interface {
	Create(ctx context.Context, formula *models.ScoringFormula) error
	GetByID(ctx context.Context, id int) (*models.ScoringFormula, error)
	GetAll(ctx context.Context) ([]models.ScoringFormula, error)
	// Update replaces every editable field, rules included.
	Update(ctx context.Context, formula *models.ScoringFormula) error
	Delete(ctx context.Context, id int) error
	// UpsertTemplate creates or refreshes a built-in formula matched by name.
	UpsertTemplate(ctx context.Context, formula *models.ScoringFormula) error
	Count(ctx context.Context) (int, error)
}

type postgresFormulaRepository struct {
	db *sql.DB
}

func NewPostgresFormulaRepository(db *sql.DB) FormulaRepository {
	return &postgresFormulaRepository{db: db}
}

const formulaColumns = `id, name, description, default_winner_points, default_loser_points, draw_points, rules, is_template, owner_id, created_at, updated_at`

func (r *postgresFormulaRepository) Create(ctx context.Context, f *models.ScoringFormula) error {
	query := `
		INSERT INTO scoring_formulas (name, description, default_winner_points, default_loser_points, draw_points, rules, is_template, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		f.Name, f.Description, f.DefaultWinnerPoints, f.DefaultLoserPoints, f.DrawPoints, f.Rules, f.IsTemplate, f.OwnerID,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if mapped, ok := constraintError(err, formulaConstraints); ok {
			return mapped
		}
		return fmt.Errorf("failed to create scoring formula: %w", err)
	}
	return nil
}

func (r *postgresFormulaRepository) GetByID(ctx context.Context, id int) (*models.ScoringFormula, error) {
	query := `SELECT ` + formulaColumns + ` FROM scoring_formulas WHERE id = $1`
	return scanFormula(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresFormulaRepository) GetAll(ctx context.Context) ([]models.ScoringFormula, error) {
	query := `SELECT ` + formulaColumns + ` FROM scoring_formulas ORDER BY is_template DESC, name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list scoring formulas: %w", err)
	}
	defer rows.Close()

	formulas := make([]models.ScoringFormula, 0)
	for rows.Next() {
		f, err := scanFormula(rows)
		if err != nil {
			return nil, err
		}
		formulas = append(formulas, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scoring formulas: %w", err)
	}
	return formulas, nil
}

func (r *postgresFormulaRepository) Update(ctx context.Context, f *models.ScoringFormula) error {
	query := `
		UPDATE scoring_formulas SET
			name = $1,
			description = $2,
			default_winner_points = $3,
			default_loser_points = $4,
			draw_points = $5,
			rules = $6,
			updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		f.Name, f.Description, f.DefaultWinnerPoints, f.DefaultLoserPoints, f.DrawPoints, f.Rules, f.ID,
	).Scan(&f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrFormulaNotFound
		}
		if mapped, ok := constraintError(err, formulaConstraints); ok {
			return mapped
		}
		return fmt.Errorf("failed to update scoring formula %d: %w", f.ID, err)
	}
	return nil
}

func (r *postgresFormulaRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scoring_formulas WHERE id = $1`, id)
	if err != nil {
		if mapped, ok := constraintError(err, formulaConstraints); ok {
			return mapped
		}
		return fmt.Errorf("failed to delete scoring formula %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrFormulaNotFound)
}

func (r *postgresFormulaRepository) UpsertTemplate(ctx context.Context, f *models.ScoringFormula) error {
	query := `
		INSERT INTO scoring_formulas (name, description, default_winner_points, default_loser_points, draw_points, rules, is_template)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT (name) DO UPDATE SET
			description = EXCLUDED.description,
			default_winner_points = EXCLUDED.default_winner_points,
			default_loser_points = EXCLUDED.default_loser_points,
			draw_points = EXCLUDED.draw_points,
			rules = EXCLUDED.rules,
			updated_at = NOW()
		WHERE scoring_formulas.is_template
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		f.Name, f.Description, f.DefaultWinnerPoints, f.DefaultLoserPoints, f.DrawPoints, f.Rules,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// A user formula already owns the name.
		return ErrFormulaNameConflict
	}
	if err != nil {
		return fmt.Errorf("failed to upsert template %q: %w", f.Name, err)
	}
	f.IsTemplate = true
	return nil
}

func (r *postgresFormulaRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scoring_formulas`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count scoring formulas: %w", err)
	}
	return n, nil
}

func scanFormula(row rowScanner) (*models.ScoringFormula, error) {
	f := &models.ScoringFormula{}
	err := row.Scan(
		&f.ID, &f.Name, &f.Description, &f.DefaultWinnerPoints, &f.DefaultLoserPoints,
		&f.DrawPoints, &f.Rules, &f.IsTemplate, &f.OwnerID, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFormulaNotFound
		}
		return nil, fmt.Errorf("failed to scan scoring formula: %w", err)
	}
	return f, nil
}
