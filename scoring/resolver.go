package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-standings/models"
)

// ErrFormulaNotFound is returned by a FormulaStore when a formula id does
// not exist. The resolver treats it as "use the default".
var ErrFormulaNotFound = errors.New("scoring formula not found")

// FormulaStore is the read side of formula persistence.
type FormulaStore interface {
	// GetAssignment returns the formula id assigned to a tournament, or nil.
	GetAssignment(ctx context.Context, tournamentID int) (*int, error)
	GetFormula(ctx context.Context, formulaID int) (*models.ScoringFormula, error)
}

type Resolver struct {
	store  FormulaStore
	logger *slog.Logger
}

func NewResolver(store FormulaStore, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, logger: logger}
}

// Resolve returns the formula that applies to a tournament. A missing
// assignment or a deleted formula yields DefaultFormula. Only store
// failures are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, tournamentID int) (Formula, error) {
	formulaID, err := r.store.GetAssignment(ctx, tournamentID)
	if err != nil {
		return Formula{}, fmt.Errorf("fetch formula assignment for tournament %d: %w", tournamentID, err)
	}
	if formulaID == nil {
		return DefaultFormula(), nil
	}

	sf, err := r.store.GetFormula(ctx, *formulaID)
	if errors.Is(err, ErrFormulaNotFound) || (err == nil && sf == nil) {
		r.logger.Warn("assigned formula is gone, using default",
			slog.Int("tournament_id", tournamentID),
			slog.Int("formula_id", *formulaID))
		return DefaultFormula(), nil
	}
	if err != nil {
		return Formula{}, fmt.Errorf("fetch formula %d: %w", *formulaID, err)
	}

	f := Compile(*sf)
	if bad := f.MalformedRules(); len(bad) > 0 {
		r.logger.Warn("formula has rules that will never match",
			slog.Int("formula_id", f.ID),
			slog.Any("rules", bad))
	}
	return f, nil
}
