package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/tournament-standings/models"
	"github.com/Dosada05/tournament-standings/repositories"
	"github.com/Dosada05/tournament-standings/scoring"
	"github.com/google/uuid"
)

const (
	maxFormulaNameLength = 100
	maxFormulaRules      = 50
)

// FieldErrors is a validation failure with one message per offending field.
type FieldErrors struct {
	Err    error
	Fields map[string]string
}

func (e *FieldErrors) Error() string {
	return fmt.Sprintf("%v: %d invalid field(s)", e.Err, len(e.Fields))
}

func (e *FieldErrors) Unwrap() error { return e.Err }

type FormulaInput struct {
	Name                string               `json:"name"`
	Description         *string              `json:"description,omitempty"`
	DefaultWinnerPoints int                  `json:"default_winner_points"`
	DefaultLoserPoints  int                  `json:"default_loser_points"`
	DrawPoints          *int                 `json:"draw_points,omitempty"`
	Rules               []models.ScoringRule `json:"rules"`
}

type PreviewOutcome struct {
	WinnerScore int  `json:"winner_score"`
	LoserScore  int  `json:"loser_score"`
	Draw        bool `json:"draw,omitempty"`
}

type PreviewInput struct {
	Outcomes []PreviewOutcome `json:"outcomes,omitempty"`
	// TournamentID recomputes that tournament's games with the formula
	// without assigning it.
	TournamentID *int `json:"tournament_id,omitempty"`
}

type PreviewAward struct {
	Outcome PreviewOutcome `json:"outcome"`
	Award   scoring.Award  `json:"award"`
}

type PreviewResult struct {
	FormulaID int            `json:"formula_id"`
	Awards    []PreviewAward `json:"awards"`
	Standings *StandingsView `json:"standings,omitempty"`
}

type FormulaService interface {
	CreateFormula(ctx context.Context, actor Actor, input FormulaInput) (*models.ScoringFormula, error)
	GetFormula(ctx context.Context, id int) (*models.ScoringFormula, error)
	ListFormulas(ctx context.Context) ([]models.ScoringFormula, error)
	// UpdateFormula replaces every field of a formula, rules included.
	UpdateFormula(ctx context.Context, actor Actor, id int, input FormulaInput) (*models.ScoringFormula, error)
	DeleteFormula(ctx context.Context, actor Actor, id int) error
	PreviewFormula(ctx context.Context, id int, input PreviewInput) (*PreviewResult, error)
	// SeedTemplates creates or refreshes the built-in formulas.
	SeedTemplates(ctx context.Context) error
}

type formulaService struct {
	formulaRepo    repositories.FormulaRepository
	tournamentRepo repositories.TournamentRepository
	standings      StandingsService
	logger         *slog.Logger
	newRuleID      func() string
}

func NewFormulaService(
	formulaRepo repositories.FormulaRepository,
	tournamentRepo repositories.TournamentRepository,
	standings StandingsService,
	logger *slog.Logger,
) FormulaService {
	return &formulaService{
		formulaRepo:    formulaRepo,
		tournamentRepo: tournamentRepo,
		standings:      standings,
		logger:         logger,
		newRuleID:      uuid.NewString,
	}
}

var formulaErrors = map[error]error{
	repositories.ErrFormulaNotFound:     ErrFormulaNotFound,
	repositories.ErrFormulaNameConflict: ErrFormulaNameConflict,
	repositories.ErrFormulaInUse:        ErrFormulaInUse,
}

func (s *formulaService) CreateFormula(ctx context.Context, actor Actor, input FormulaInput) (*models.ScoringFormula, error) {
	if !actor.CanOrganize() {
		return nil, ErrForbiddenOperation
	}
	formula, err := s.buildFormula(input)
	if err != nil {
		return nil, err
	}
	ownerID := actor.UserID
	formula.OwnerID = &ownerID

	if err := s.formulaRepo.Create(ctx, formula); err != nil {
		return nil, translateError(err, "failed to create scoring formula", formulaErrors)
	}
	s.logger.Info("scoring formula created",
		slog.Int("formula_id", formula.ID),
		slog.Int("owner_id", ownerID),
		slog.Int("rules", len(formula.Rules)))
	return formula, nil
}

func (s *formulaService) GetFormula(ctx context.Context, id int) (*models.ScoringFormula, error) {
	formula, err := s.formulaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to get scoring formula %d", id), formulaErrors)
	}
	return formula, nil
}

func (s *formulaService) ListFormulas(ctx context.Context) ([]models.ScoringFormula, error) {
	formulas, err := s.formulaRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scoring formulas: %w", err)
	}
	if formulas == nil {
		return []models.ScoringFormula{}, nil
	}
	return formulas, nil
}

func (s *formulaService) UpdateFormula(ctx context.Context, actor Actor, id int, input FormulaInput) (*models.ScoringFormula, error) {
	current, err := s.GetFormula(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.IsTemplate {
		return nil, ErrFormulaProtected
	}
	if !canManageFormula(actor, current) {
		return nil, ErrForbiddenOperation
	}

	next, err := s.buildFormula(input)
	if err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.OwnerID = current.OwnerID
	next.CreatedAt = current.CreatedAt

	if err := s.formulaRepo.Update(ctx, next); err != nil {
		return nil, translateError(err, fmt.Sprintf("failed to update scoring formula %d", id), formulaErrors)
	}
	s.refreshTournamentsUsing(ctx, id)
	return next, nil
}

// refreshTournamentsUsing pushes new standings to every running tournament
// scored by the formula.
func (s *formulaService) refreshTournamentsUsing(ctx context.Context, formulaID int) {
	tournaments, err := s.tournamentRepo.List(ctx, repositories.ListTournamentsFilter{FormulaID: &formulaID})
	if err != nil {
		s.logger.Warn("failed to list tournaments for formula refresh",
			slog.Int("formula_id", formulaID), slog.Any("error", err))
		return
	}
	for _, t := range tournaments {
		if t.Status == models.StatusActive {
			s.standings.Refresh(ctx, t.ID)
		}
	}
}

func (s *formulaService) DeleteFormula(ctx context.Context, actor Actor, id int) error {
	current, err := s.GetFormula(ctx, id)
	if err != nil {
		return err
	}
	if current.IsTemplate {
		return ErrFormulaProtected
	}
	if !canManageFormula(actor, current) {
		return ErrForbiddenOperation
	}

	inUse, err := s.tournamentRepo.CountByFormula(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check usage of scoring formula %d: %w", id, err)
	}
	if inUse > 0 {
		return ErrFormulaInUse
	}

	if err := s.formulaRepo.Delete(ctx, id); err != nil {
		return translateError(err, fmt.Sprintf("failed to delete scoring formula %d", id), formulaErrors)
	}
	return nil
}

func (s *formulaService) PreviewFormula(ctx context.Context, id int, input PreviewInput) (*PreviewResult, error) {
	stored, err := s.GetFormula(ctx, id)
	if err != nil {
		return nil, err
	}
	formula := scoring.Compile(*stored)

	fields := make(map[string]string)
	result := &PreviewResult{FormulaID: id, Awards: make([]PreviewAward, 0, len(input.Outcomes))}
	for i, po := range input.Outcomes {
		key := fmt.Sprintf("outcomes[%d]", i)
		switch {
		case po.WinnerScore < 0 || po.LoserScore < 0:
			fields[key] = "scores must not be negative"
			continue
		case po.LoserScore > po.WinnerScore:
			fields[key] = "loser_score must not exceed winner_score"
			continue
		}
		outcome := scoring.Outcome{
			WinnerScore: po.WinnerScore,
			LoserScore:  po.LoserScore,
			Draw:        po.Draw || po.WinnerScore == po.LoserScore,
		}
		po.Draw = outcome.Draw
		result.Awards = append(result.Awards, PreviewAward{Outcome: po, Award: scoring.Evaluate(formula, outcome)})
	}
	if len(fields) > 0 {
		return nil, &FieldErrors{Err: ErrValidationFailed, Fields: fields}
	}

	if input.TournamentID != nil {
		view, err := s.standings.Preview(ctx, *input.TournamentID, *stored)
		if err != nil {
			return nil, err
		}
		result.Standings = view
	}
	return result, nil
}

func (s *formulaService) SeedTemplates(ctx context.Context) error {
	templates, err := scoring.Templates()
	if err != nil {
		return fmt.Errorf("failed to load built-in formulas: %w", err)
	}
	for i := range templates {
		t := &templates[i]
		if err := s.formulaRepo.UpsertTemplate(ctx, t); err != nil {
			if errors.Is(err, repositories.ErrFormulaNameConflict) {
				s.logger.Warn("built-in formula name taken by a user formula, skipping",
					slog.String("name", t.Name))
				continue
			}
			return fmt.Errorf("failed to seed formula %q: %w", t.Name, err)
		}
		s.logger.Debug("built-in formula seeded", slog.String("name", t.Name), slog.Int("formula_id", t.ID))
	}
	return nil
}

// buildFormula validates input strictly and fills in missing rule ids.
// Stored formulas are still evaluated leniently.
func (s *formulaService) buildFormula(input FormulaInput) (*models.ScoringFormula, error) {
	fields := make(map[string]string)

	name := strings.TrimSpace(input.Name)
	switch {
	case name == "":
		fields["name"] = "name is required"
	case len(name) > maxFormulaNameLength:
		fields["name"] = fmt.Sprintf("name must be at most %d characters", maxFormulaNameLength)
	}
	if input.DefaultWinnerPoints < 0 {
		fields["default_winner_points"] = "must not be negative"
	}
	if input.DefaultLoserPoints < 0 {
		fields["default_loser_points"] = "must not be negative"
	}
	if input.DrawPoints != nil && *input.DrawPoints < 0 {
		fields["draw_points"] = "must not be negative"
	}
	if len(input.Rules) > maxFormulaRules {
		fields["rules"] = fmt.Sprintf("at most %d rules are allowed", maxFormulaRules)
	}

	rules := make(models.ScoringRules, 0, len(input.Rules))
	seen := make(map[string]int, len(input.Rules))
	for i, r := range input.Rules {
		r.ID = strings.TrimSpace(r.ID)
		if r.ID == "" {
			r.ID = s.newRuleID()
		}
		if first, dup := seen[r.ID]; dup {
			fields[fmt.Sprintf("rules[%d].id", i)] = fmt.Sprintf("duplicates rules[%d].id", first)
		}
		seen[r.ID] = i
		if inv, bad := scoring.CompileCondition(r.Condition).(scoring.Invalid); bad {
			fields[fmt.Sprintf("rules[%d].condition", i)] = inv.Reason
		}
		r.Description = strings.TrimSpace(r.Description)
		rules = append(rules, r)
	}

	if len(fields) > 0 {
		return nil, &FieldErrors{Err: ErrFormulaInvalid, Fields: fields}
	}

	var description *string
	if d := strings.TrimSpace(derefString(input.Description)); d != "" {
		description = &d
	}
	return &models.ScoringFormula{
		Name:                name,
		Description:         description,
		DefaultWinnerPoints: input.DefaultWinnerPoints,
		DefaultLoserPoints:  input.DefaultLoserPoints,
		DrawPoints:          input.DrawPoints,
		Rules:               rules,
	}, nil
}
