package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/tournament-standings/achievements"
	"github.com/Dosada05/tournament-standings/live"
	"github.com/Dosada05/tournament-standings/models"
	"github.com/Dosada05/tournament-standings/repositories"
	"github.com/Dosada05/tournament-standings/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// tracer records calls; services fan some of them out concurrently.
type tracer struct {
	mu    sync.Mutex
	trace []string
}

func (t *tracer) record(step string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.trace = append(t.trace, step)
}

func (t *tracer) Trace() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.trace...)
}

// ------------------------
// Fake User Repository
// ------------------------

type FakeUserRepo struct {
	tracer
	CreateFunc       func(ctx context.Context, user *models.User) error
	GetByIDFunc      func(ctx context.Context, id int) (*models.User, error)
	GetByEmailFunc   func(ctx context.Context, email string) (*models.User, error)
	UpdateFunc       func(ctx context.Context, user *models.User) error
	UpdateStatusFunc func(ctx context.Context, id int, status models.UserStatus) error
	DeleteFunc       func(ctx context.Context, id int) error
	ListFunc         func(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	CountFunc        func(ctx context.Context, status *models.UserStatus) (int, error)
}

func (f *FakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, user)
	}
	return nil
}

func (f *FakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	f.record("GetByID")
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, id)
	}
	return &models.User{ID: id}, nil
}

func (f *FakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.record("GetByEmail")
	if f.GetByEmailFunc != nil {
		return f.GetByEmailFunc(ctx, email)
	}
	return nil, repositories.ErrUserNotFound
}

func (f *FakeUserRepo) Update(ctx context.Context, user *models.User) error {
	f.record("Update")
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, user)
	}
	return nil
}

func (f *FakeUserRepo) UpdateStatus(ctx context.Context, id int, status models.UserStatus) error {
	f.record("UpdateStatus")
	if f.UpdateStatusFunc != nil {
		return f.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

func (f *FakeUserRepo) Delete(ctx context.Context, id int) error {
	f.record("Delete")
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, id)
	}
	return nil
}

func (f *FakeUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	f.record("List")
	if f.ListFunc != nil {
		return f.ListFunc(ctx, filter)
	}
	return []models.User{}, 0, nil
}

func (f *FakeUserRepo) Count(ctx context.Context, status *models.UserStatus) (int, error) {
	f.record("Count")
	if f.CountFunc != nil {
		return f.CountFunc(ctx, status)
	}
	return 0, nil
}

// ------------------------
// Fake Team Repository
// ------------------------

type FakeTeamRepo struct {
	tracer
	CreateFunc      func(ctx context.Context, team *models.Team) error
	GetByIDFunc     func(ctx context.Context, id int) (*models.Team, error)
	AddMemberFunc   func(ctx context.Context, teamID, userID int) error
	IsMemberFunc    func(ctx context.Context, teamID, userID int) (bool, error)
	ListMembersFunc func(ctx context.Context, teamID int) ([]models.User, error)
}

func (f *FakeTeamRepo) Create(ctx context.Context, team *models.Team) error {
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, team)
	}
	return nil
}

func (f *FakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	f.record("GetByID")
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, id)
	}
	return nil, repositories.ErrTeamNotFound
}

func (f *FakeTeamRepo) AddMember(ctx context.Context, teamID, userID int) error {
	f.record("AddMember")
	if f.AddMemberFunc != nil {
		return f.AddMemberFunc(ctx, teamID, userID)
	}
	return nil
}

func (f *FakeTeamRepo) IsMember(ctx context.Context, teamID, userID int) (bool, error) {
	f.record("IsMember")
	if f.IsMemberFunc != nil {
		return f.IsMemberFunc(ctx, teamID, userID)
	}
	return false, nil
}

func (f *FakeTeamRepo) ListMembers(ctx context.Context, teamID int) ([]models.User, error) {
	f.record("ListMembers")
	if f.ListMembersFunc != nil {
		return f.ListMembersFunc(ctx, teamID)
	}
	return []models.User{}, nil
}

// ------------------------
// Fake Tournament Repository
// ------------------------

type FakeTournamentRepo struct {
	tracer
	CreateFunc         func(ctx context.Context, t *models.Tournament) error
	GetByIDFunc        func(ctx context.Context, id int) (*models.Tournament, error)
	GetBySlugFunc      func(ctx context.Context, slug string) (*models.Tournament, error)
	ListFunc           func(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	UpdateFunc         func(ctx context.Context, t *models.Tournament) error
	UpdateStatusFunc   func(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error
	UpdateFormulaFunc  func(ctx context.Context, id int, formulaID *int) error
	GetFormulaIDFunc   func(ctx context.Context, id int) (*int, error)
	DeleteFunc         func(ctx context.Context, id int) error
	CountFunc          func(ctx context.Context, status *models.TournamentStatus) (int, error)
	CountByFormulaFunc func(ctx context.Context, formulaID int) (int, error)
	AutoUpdateFunc     func(ctx context.Context, exec repositories.SQLExecutor, now time.Time) ([]*models.Tournament, error)
}

func (f *FakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, t)
	}
	return nil
}

func (f *FakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	f.record("GetByID")
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, id)
	}
	return nil, repositories.ErrTournamentNotFound
}

func (f *FakeTournamentRepo) GetBySlug(ctx context.Context, slug string) (*models.Tournament, error) {
	f.record("GetBySlug")
	if f.GetBySlugFunc != nil {
		return f.GetBySlugFunc(ctx, slug)
	}
	return nil, repositories.ErrTournamentNotFound
}

func (f *FakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	f.record("List")
	if f.ListFunc != nil {
		return f.ListFunc(ctx, filter)
	}
	return []models.Tournament{}, nil
}

func (f *FakeTournamentRepo) Update(ctx context.Context, t *models.Tournament) error {
	f.record("Update")
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, t)
	}
	return nil
}

func (f *FakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	f.record("UpdateStatus:" + string(status))
	if f.UpdateStatusFunc != nil {
		return f.UpdateStatusFunc(ctx, exec, id, status)
	}
	return nil
}

func (f *FakeTournamentRepo) UpdateFormula(ctx context.Context, id int, formulaID *int) error {
	f.record("UpdateFormula")
	if f.UpdateFormulaFunc != nil {
		return f.UpdateFormulaFunc(ctx, id, formulaID)
	}
	return nil
}

func (f *FakeTournamentRepo) GetFormulaID(ctx context.Context, id int) (*int, error) {
	f.record("GetFormulaID")
	if f.GetFormulaIDFunc != nil {
		return f.GetFormulaIDFunc(ctx, id)
	}
	return nil, nil
}

func (f *FakeTournamentRepo) Delete(ctx context.Context, id int) error {
	f.record("Delete")
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, id)
	}
	return nil
}

func (f *FakeTournamentRepo) Count(ctx context.Context, status *models.TournamentStatus) (int, error) {
	f.record("Count")
	if f.CountFunc != nil {
		return f.CountFunc(ctx, status)
	}
	return 0, nil
}

func (f *FakeTournamentRepo) CountByFormula(ctx context.Context, formulaID int) (int, error) {
	f.record("CountByFormula")
	if f.CountByFormulaFunc != nil {
		return f.CountByFormulaFunc(ctx, formulaID)
	}
	return 0, nil
}

func (f *FakeTournamentRepo) GetTournamentsForAutoStatusUpdate(ctx context.Context, exec repositories.SQLExecutor, now time.Time) ([]*models.Tournament, error) {
	f.record("GetTournamentsForAutoStatusUpdate")
	if f.AutoUpdateFunc != nil {
		return f.AutoUpdateFunc(ctx, exec, now)
	}
	return nil, nil
}

// ------------------------
// Fake Participant Repository
// ------------------------

type FakeParticipantRepo struct {
	tracer
	CreateFunc                  func(ctx context.Context, p *models.Participant) error
	UpdateStatusFunc            func(ctx context.Context, id int, status models.ParticipantStatus) error
	FindByIDFunc                func(ctx context.Context, id int) (*models.Participant, error)
	FindByUserAndTournamentFunc func(ctx context.Context, userID, tournamentID int) (*models.Participant, error)
	FindByTeamAndTournamentFunc func(ctx context.Context, teamID, tournamentID int) (*models.Participant, error)
	ListByTournamentFunc        func(ctx context.Context, tournamentID int, status *models.ParticipantStatus) ([]*models.Participant, error)
	DeleteFunc                  func(ctx context.Context, id int) error
}

func (f *FakeParticipantRepo) Create(ctx context.Context, p *models.Participant) error {
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, p)
	}
	return nil
}

func (f *FakeParticipantRepo) UpdateStatus(ctx context.Context, id int, status models.ParticipantStatus) error {
	f.record("UpdateStatus:" + string(status))
	if f.UpdateStatusFunc != nil {
		return f.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

func (f *FakeParticipantRepo) FindByID(ctx context.Context, id int) (*models.Participant, error) {
	f.record("FindByID")
	if f.FindByIDFunc != nil {
		return f.FindByIDFunc(ctx, id)
	}
	return nil, repositories.ErrParticipantNotFound
}

func (f *FakeParticipantRepo) FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.Participant, error) {
	f.record("FindByUserAndTournament")
	if f.FindByUserAndTournamentFunc != nil {
		return f.FindByUserAndTournamentFunc(ctx, userID, tournamentID)
	}
	return nil, repositories.ErrParticipantNotFound
}

func (f *FakeParticipantRepo) FindByTeamAndTournament(ctx context.Context, teamID, tournamentID int) (*models.Participant, error) {
	f.record("FindByTeamAndTournament")
	if f.FindByTeamAndTournamentFunc != nil {
		return f.FindByTeamAndTournamentFunc(ctx, teamID, tournamentID)
	}
	return nil, repositories.ErrParticipantNotFound
}

func (f *FakeParticipantRepo) ListByTournament(ctx context.Context, tournamentID int, status *models.ParticipantStatus) ([]*models.Participant, error) {
	f.record("ListByTournament")
	if f.ListByTournamentFunc != nil {
		return f.ListByTournamentFunc(ctx, tournamentID, status)
	}
	return []*models.Participant{}, nil
}

func (f *FakeParticipantRepo) Delete(ctx context.Context, id int) error {
	f.record("Delete")
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, id)
	}
	return nil
}

// ------------------------
// Fake Game Repository
// ------------------------

type FakeGameRepo struct {
	tracer
	CreateFunc           func(ctx context.Context, g *models.Game) error
	GetByIDFunc          func(ctx context.Context, id int) (*models.Game, error)
	ListByTournamentFunc func(ctx context.Context, tournamentID int) ([]models.Game, error)
	DeleteFunc           func(ctx context.Context, id int) error
	CountFunc            func(ctx context.Context) (int, error)
}

func (f *FakeGameRepo) Create(ctx context.Context, g *models.Game) error {
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, g)
	}
	return nil
}

func (f *FakeGameRepo) GetByID(ctx context.Context, id int) (*models.Game, error) {
	f.record("GetByID")
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, id)
	}
	return nil, repositories.ErrGameNotFound
}

func (f *FakeGameRepo) ListByTournament(ctx context.Context, tournamentID int) ([]models.Game, error) {
	f.record("ListByTournament")
	if f.ListByTournamentFunc != nil {
		return f.ListByTournamentFunc(ctx, tournamentID)
	}
	return []models.Game{}, nil
}

func (f *FakeGameRepo) Delete(ctx context.Context, id int) error {
	f.record("Delete")
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, id)
	}
	return nil
}

func (f *FakeGameRepo) Count(ctx context.Context) (int, error) {
	f.record("Count")
	if f.CountFunc != nil {
		return f.CountFunc(ctx)
	}
	return 0, nil
}

// ------------------------
// Fake Formula Repository
// ------------------------

type FakeFormulaRepo struct {
	tracer
	CreateFunc         func(ctx context.Context, f *models.ScoringFormula) error
	GetByIDFunc        func(ctx context.Context, id int) (*models.ScoringFormula, error)
	GetAllFunc         func(ctx context.Context) ([]models.ScoringFormula, error)
	UpdateFunc         func(ctx context.Context, f *models.ScoringFormula) error
	DeleteFunc         func(ctx context.Context, id int) error
	UpsertTemplateFunc func(ctx context.Context, f *models.ScoringFormula) error
	CountFunc          func(ctx context.Context) (int, error)
}

func (f *FakeFormulaRepo) Create(ctx context.Context, sf *models.ScoringFormula) error {
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, sf)
	}
	return nil
}

func (f *FakeFormulaRepo) GetByID(ctx context.Context, id int) (*models.ScoringFormula, error) {
	f.record("GetByID")
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, id)
	}
	return nil, repositories.ErrFormulaNotFound
}

func (f *FakeFormulaRepo) GetAll(ctx context.Context) ([]models.ScoringFormula, error) {
	f.record("GetAll")
	if f.GetAllFunc != nil {
		return f.GetAllFunc(ctx)
	}
	return nil, nil
}

func (f *FakeFormulaRepo) Update(ctx context.Context, sf *models.ScoringFormula) error {
	f.record("Update")
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, sf)
	}
	return nil
}

func (f *FakeFormulaRepo) Delete(ctx context.Context, id int) error {
	f.record("Delete")
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, id)
	}
	return nil
}

func (f *FakeFormulaRepo) UpsertTemplate(ctx context.Context, sf *models.ScoringFormula) error {
	f.record("UpsertTemplate")
	if f.UpsertTemplateFunc != nil {
		return f.UpsertTemplateFunc(ctx, sf)
	}
	return nil
}

func (f *FakeFormulaRepo) Count(ctx context.Context) (int, error) {
	f.record("Count")
	if f.CountFunc != nil {
		return f.CountFunc(ctx)
	}
	return 0, nil
}

// ------------------------
// Fake Standings Snapshot Repository
// ------------------------

type FakeSnapshotRepo struct {
	tracer
	ReplaceSnapshotFunc  func(ctx context.Context, tournamentID int, rows []*models.TournamentStanding) error
	ListByTournamentFunc func(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.TournamentStanding, error)
}

func (f *FakeSnapshotRepo) ReplaceSnapshot(ctx context.Context, tournamentID int, rows []*models.TournamentStanding) error {
	f.record("ReplaceSnapshot")
	if f.ReplaceSnapshotFunc != nil {
		return f.ReplaceSnapshotFunc(ctx, tournamentID, rows)
	}
	return nil
}

func (f *FakeSnapshotRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.TournamentStanding, error) {
	f.record("ListByTournament")
	if f.ListByTournamentFunc != nil {
		return f.ListByTournamentFunc(ctx, exec, tournamentID)
	}
	return []*models.TournamentStanding{}, nil
}

func (f *FakeSnapshotRepo) DeleteByTournamentID(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	f.record("DeleteByTournamentID")
	return nil
}

// ------------------------
// Fake Standings Service
// ------------------------

type FakeStandingsService struct {
	tracer
	StandingsFunc    func(ctx context.Context, tournamentID int) (*StandingsView, error)
	PreviewFunc      func(ctx context.Context, tournamentID int, formula models.ScoringFormula) (*StandingsView, error)
	FinalizeFunc     func(ctx context.Context, tournamentID int) error
	SnapshotFunc     func(ctx context.Context, tournamentID int) ([]*models.TournamentStanding, error)
	AchievementsFunc func(ctx context.Context, tournamentID int) ([]achievements.Achievement, error)
	ExportXLSXFunc   func(ctx context.Context, tournamentID int, w io.Writer) error
	Refreshed        []int
}

func (f *FakeStandingsService) Standings(ctx context.Context, tournamentID int) (*StandingsView, error) {
	f.record("Standings")
	if f.StandingsFunc != nil {
		return f.StandingsFunc(ctx, tournamentID)
	}
	return &StandingsView{TournamentID: tournamentID}, nil
}

func (f *FakeStandingsService) Preview(ctx context.Context, tournamentID int, formula models.ScoringFormula) (*StandingsView, error) {
	f.record("Preview")
	if f.PreviewFunc != nil {
		return f.PreviewFunc(ctx, tournamentID, formula)
	}
	return &StandingsView{TournamentID: tournamentID}, nil
}

func (f *FakeStandingsService) Refresh(_ context.Context, tournamentID int) {
	f.record("Refresh")
	f.Refreshed = append(f.Refreshed, tournamentID)
}

func (f *FakeStandingsService) Finalize(ctx context.Context, tournamentID int) error {
	f.record("Finalize")
	if f.FinalizeFunc != nil {
		return f.FinalizeFunc(ctx, tournamentID)
	}
	return nil
}

func (f *FakeStandingsService) Snapshot(ctx context.Context, tournamentID int) ([]*models.TournamentStanding, error) {
	f.record("Snapshot")
	if f.SnapshotFunc != nil {
		return f.SnapshotFunc(ctx, tournamentID)
	}
	return []*models.TournamentStanding{}, nil
}

func (f *FakeStandingsService) Achievements(ctx context.Context, tournamentID int) ([]achievements.Achievement, error) {
	f.record("Achievements")
	if f.AchievementsFunc != nil {
		return f.AchievementsFunc(ctx, tournamentID)
	}
	return []achievements.Achievement{}, nil
}

func (f *FakeStandingsService) ExportXLSX(ctx context.Context, tournamentID int, w io.Writer) error {
	f.record("ExportXLSX")
	if f.ExportXLSXFunc != nil {
		return f.ExportXLSXFunc(ctx, tournamentID, w)
	}
	return nil
}

// ------------------------
// Fake Broadcaster and Archiver
// ------------------------

type FakeBroadcaster struct {
	Messages map[string][]live.Message
}

func (f *FakeBroadcaster) BroadcastToRoom(room string, msg live.Message) int {
	if f.Messages == nil {
		f.Messages = make(map[string][]live.Message)
	}
	f.Messages[room] = append(f.Messages[room], msg)
	return 1
}

type FakeArchiver struct {
	ArchiveFunc func(ctx context.Context, tournamentID int, doc interface{}) (*storage.UploadResult, error)
	Docs        []interface{}
}

func (f *FakeArchiver) Archive(ctx context.Context, tournamentID int, doc interface{}) (*storage.UploadResult, error) {
	f.Docs = append(f.Docs, doc)
	if f.ArchiveFunc != nil {
		return f.ArchiveFunc(ctx, tournamentID, doc)
	}
	return &storage.UploadResult{Key: "standings/archive.json"}, nil
}
