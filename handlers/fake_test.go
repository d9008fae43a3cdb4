package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Dosada05/tournament-standings/achievements"
	"github.com/Dosada05/tournament-standings/middleware"
	"github.com/Dosada05/tournament-standings/models"
	"github.com/Dosada05/tournament-standings/repositories"
	"github.com/Dosada05/tournament-standings/services"
	"github.com/golang-jwt/jwt/v4"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// asUser attaches the claims Authenticate would have stored.
func asUser(r *http.Request, id int, role models.UserRole) *http.Request {
	claims := jwt.MapClaims{middleware.ClaimUserID: float64(id), middleware.ClaimRole: string(role)}
	return r.WithContext(middleware.ContextWithClaims(r.Context(), claims))
}

type FakeAuthService struct {
	RegisterFunc func(ctx context.Context, input services.RegisterInput) (*models.User, error)
	LoginFunc    func(ctx context.Context, input services.LoginInput) (*models.User, error)
}

func (f *FakeAuthService) Register(ctx context.Context, input services.RegisterInput) (*models.User, error) {
	if f.RegisterFunc != nil {
		return f.RegisterFunc(ctx, input)
	}
	return &models.User{ID: 1, Email: input.Email, Role: models.RolePlayer}, nil
}

func (f *FakeAuthService) Login(ctx context.Context, input services.LoginInput) (*models.User, error) {
	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, input)
	}
	return nil, services.ErrInvalidCredentials
}

type FakeTournamentService struct {
	CreateFunc        func(ctx context.Context, actor services.Actor, input services.CreateTournamentInput) (*models.Tournament, error)
	GetFunc           func(ctx context.Context, id int) (*models.Tournament, error)
	ListFunc          func(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	UpdateStatusFunc  func(ctx context.Context, actor services.Actor, id int, status models.TournamentStatus) (*models.Tournament, error)
	AssignFormulaFunc func(ctx context.Context, actor services.Actor, id int, formulaID *int) (*models.Tournament, error)
	DeleteFunc        func(ctx context.Context, actor services.Actor, id int) error
}

func (f *FakeTournamentService) CreateTournament(ctx context.Context, actor services.Actor, input services.CreateTournamentInput) (*models.Tournament, error) {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, actor, input)
	}
	return &models.Tournament{ID: 1, Name: input.Name, OrganizerID: actor.UserID}, nil
}

func (f *FakeTournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	if f.GetFunc != nil {
		return f.GetFunc(ctx, id)
	}
	return nil, services.ErrTournamentNotFound
}

func (f *FakeTournamentService) GetTournamentBySlug(ctx context.Context, slug string) (*models.Tournament, error) {
	return nil, services.ErrTournamentNotFound
}

func (f *FakeTournamentService) ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	if f.ListFunc != nil {
		return f.ListFunc(ctx, filter)
	}
	return []models.Tournament{}, nil
}

func (f *FakeTournamentService) UpdateTournament(ctx context.Context, actor services.Actor, id int, input services.UpdateTournamentInput) (*models.Tournament, error) {
	return &models.Tournament{ID: id}, nil
}

func (f *FakeTournamentService) UpdateStatus(ctx context.Context, actor services.Actor, id int, status models.TournamentStatus) (*models.Tournament, error) {
	if f.UpdateStatusFunc != nil {
		return f.UpdateStatusFunc(ctx, actor, id, status)
	}
	return &models.Tournament{ID: id, Status: status}, nil
}

func (f *FakeTournamentService) AssignFormula(ctx context.Context, actor services.Actor, id int, formulaID *int) (*models.Tournament, error) {
	if f.AssignFormulaFunc != nil {
		return f.AssignFormulaFunc(ctx, actor, id, formulaID)
	}
	return &models.Tournament{ID: id, FormulaID: formulaID}, nil
}

func (f *FakeTournamentService) DeleteTournament(ctx context.Context, actor services.Actor, id int) error {
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, actor, id)
	}
	return nil
}

func (f *FakeTournamentService) AutoUpdateStatuses(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

type FakeFormulaService struct {
	CreateFunc  func(ctx context.Context, actor services.Actor, input services.FormulaInput) (*models.ScoringFormula, error)
	PreviewFunc func(ctx context.Context, id int, input services.PreviewInput) (*services.PreviewResult, error)
	DeleteFunc  func(ctx context.Context, actor services.Actor, id int) error
}

func (f *FakeFormulaService) CreateFormula(ctx context.Context, actor services.Actor, input services.FormulaInput) (*models.ScoringFormula, error) {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, actor, input)
	}
	return &models.ScoringFormula{ID: 1, Name: input.Name}, nil
}

func (f *FakeFormulaService) GetFormula(ctx context.Context, id int) (*models.ScoringFormula, error) {
	return nil, services.ErrFormulaNotFound
}

func (f *FakeFormulaService) ListFormulas(ctx context.Context) ([]models.ScoringFormula, error) {
	return []models.ScoringFormula{}, nil
}

func (f *FakeFormulaService) UpdateFormula(ctx context.Context, actor services.Actor, id int, input services.FormulaInput) (*models.ScoringFormula, error) {
	return &models.ScoringFormula{ID: id, Name: input.Name}, nil
}

func (f *FakeFormulaService) DeleteFormula(ctx context.Context, actor services.Actor, id int) error {
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, actor, id)
	}
	return nil
}

func (f *FakeFormulaService) PreviewFormula(ctx context.Context, id int, input services.PreviewInput) (*services.PreviewResult, error) {
	if f.PreviewFunc != nil {
		return f.PreviewFunc(ctx, id, input)
	}
	return &services.PreviewResult{FormulaID: id}, nil
}

func (f *FakeFormulaService) SeedTemplates(ctx context.Context) error { return nil }

type FakeStandingsService struct {
	StandingsFunc func(ctx context.Context, tournamentID int) (*services.StandingsView, error)
	ExportFunc    func(ctx context.Context, tournamentID int, w io.Writer) error
	SnapshotFunc  func(ctx context.Context, tournamentID int) ([]*models.TournamentStanding, error)
}

func (f *FakeStandingsService) Standings(ctx context.Context, tournamentID int) (*services.StandingsView, error) {
	if f.StandingsFunc != nil {
		return f.StandingsFunc(ctx, tournamentID)
	}
	return nil, services.ErrTournamentNotFound
}

func (f *FakeStandingsService) Preview(ctx context.Context, tournamentID int, formula models.ScoringFormula) (*services.StandingsView, error) {
	return nil, services.ErrTournamentNotFound
}

func (f *FakeStandingsService) Refresh(ctx context.Context, tournamentID int) {}

func (f *FakeStandingsService) Finalize(ctx context.Context, tournamentID int) error { return nil }

func (f *FakeStandingsService) Snapshot(ctx context.Context, tournamentID int) ([]*models.TournamentStanding, error) {
	if f.SnapshotFunc != nil {
		return f.SnapshotFunc(ctx, tournamentID)
	}
	return nil, services.ErrSnapshotNotFound
}

func (f *FakeStandingsService) Achievements(ctx context.Context, tournamentID int) ([]achievements.Achievement, error) {
	return []achievements.Achievement{}, nil
}

func (f *FakeStandingsService) ExportXLSX(ctx context.Context, tournamentID int, w io.Writer) error {
	if f.ExportFunc != nil {
		return f.ExportFunc(ctx, tournamentID, w)
	}
	return services.ErrTournamentNotFound
}

type FakeGameService struct {
	RecordFunc func(ctx context.Context, actor services.Actor, tournamentID int, input services.RecordGameInput) (*models.Game, error)
	DeleteFunc func(ctx context.Context, actor services.Actor, tournamentID, gameID int) error
}

func (f *FakeGameService) RecordGame(ctx context.Context, actor services.Actor, tournamentID int, input services.RecordGameInput) (*models.Game, error) {
	if f.RecordFunc != nil {
		return f.RecordFunc(ctx, actor, tournamentID, input)
	}
	return &models.Game{ID: 1, TournamentID: tournamentID}, nil
}

func (f *FakeGameService) GetGame(ctx context.Context, tournamentID, gameID int) (*models.Game, error) {
	return nil, services.ErrGameNotFound
}

func (f *FakeGameService) ListGames(ctx context.Context, tournamentID int) ([]models.Game, error) {
	return []models.Game{}, nil
}

func (f *FakeGameService) DeleteGame(ctx context.Context, actor services.Actor, tournamentID, gameID int) error {
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, actor, tournamentID, gameID)
	}
	return nil
}

type FakeParticipantService struct {
	RegisterFunc func(ctx context.Context, actor services.Actor, tournamentID int, input services.RegisterParticipantInput) (*models.Participant, error)
}

func (f *FakeParticipantService) Register(ctx context.Context, actor services.Actor, tournamentID int, input services.RegisterParticipantInput) (*models.Participant, error) {
	if f.RegisterFunc != nil {
		return f.RegisterFunc(ctx, actor, tournamentID, input)
	}
	return &models.Participant{ID: 1, TournamentID: tournamentID}, nil
}

func (f *FakeParticipantService) ListParticipants(ctx context.Context, tournamentID int, status *models.ParticipantStatus) ([]*models.Participant, error) {
	return []*models.Participant{}, nil
}

func (f *FakeParticipantService) Withdraw(ctx context.Context, actor services.Actor, tournamentID, participantID int) error {
	return nil
}
