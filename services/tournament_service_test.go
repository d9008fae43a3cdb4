package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/tournament-standings/models"
	"github.com/Dosada05/tournament-standings/repositories"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testStart = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2026, 5, 3, 18, 0, 0, 0, time.UTC)
)

func TestTournamentService_CreateTournament_SlugRetry(t *testing.T) {
	var tried []string
	repo := &FakeTournamentRepo{
		CreateFunc: func(_ context.Context, tr *models.Tournament) error {
			tried = append(tried, tr.Slug)
			if len(tried) < 3 {
				return repositories.ErrTournamentSlugConflict
			}
			tr.ID = 42
			return nil
		},
	}
	svc := NewTournamentService(repo, &FakeFormulaRepo{}, &FakeStandingsService{}, testLogger())

	got, err := svc.CreateTournament(context.Background(), Actor{UserID: 5, Role: models.RoleOrganizer}, CreateTournamentInput{
		Name:            "Spring Open",
		ParticipantType: models.ParticipantTypeSolo,
		StartDate:       testStart,
		EndDate:         testEnd,
	})
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"spring-open", "spring-open-2", "spring-open-3"}, tried); diff != "" {
		t.Errorf("slug attempts mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "spring-open-3", got.Slug)
	assert.Equal(t, models.StatusSoon, got.Status)
	assert.Equal(t, 5, got.OrganizerID)
}

func TestTournamentService_CreateTournament_SlugExhausted(t *testing.T) {
	repo := &FakeTournamentRepo{
		CreateFunc: func(context.Context, *models.Tournament) error {
			return repositories.ErrTournamentSlugConflict
		},
	}
	svc := NewTournamentService(repo, &FakeFormulaRepo{}, &FakeStandingsService{}, testLogger())

	_, err := svc.CreateTournament(context.Background(), Actor{UserID: 5, Role: models.RoleAdmin}, CreateTournamentInput{
		Name:            "Cup",
		ParticipantType: models.ParticipantTypeTeam,
		StartDate:       testStart,
		EndDate:         testEnd,
	})
	assert.ErrorIs(t, err, ErrTournamentSlugConflict)
	assert.Len(t, repo.Trace(), slugAttempts)
}

func TestTournamentService_CreateTournament_Validation(t *testing.T) {
	organizer := Actor{UserID: 5, Role: models.RoleOrganizer}
	tests := []struct {
		name    string
		actor   Actor
		input   CreateTournamentInput
		wantErr error
	}{
		{
			name:    "players cannot organize",
			actor:   Actor{UserID: 5, Role: models.RolePlayer},
			input:   CreateTournamentInput{Name: "x", ParticipantType: models.ParticipantTypeSolo, StartDate: testStart, EndDate: testEnd},
			wantErr: ErrForbiddenOperation,
		},
		{
			name:    "name required",
			actor:   organizer,
			input:   CreateTournamentInput{Name: "  ", ParticipantType: models.ParticipantTypeSolo, StartDate: testStart, EndDate: testEnd},
			wantErr: ErrTournamentNameRequired,
		},
		{
			name:    "participant type",
			actor:   organizer,
			input:   CreateTournamentInput{Name: "x", ParticipantType: "duo", StartDate: testStart, EndDate: testEnd},
			wantErr: ErrTournamentInvalidParticipantType,
		},
		{
			name:    "dates required",
			actor:   organizer,
			input:   CreateTournamentInput{Name: "x", ParticipantType: models.ParticipantTypeSolo},
			wantErr: ErrTournamentDatesRequired,
		},
		{
			name:    "end before start",
			actor:   organizer,
			input:   CreateTournamentInput{Name: "x", ParticipantType: models.ParticipantTypeSolo, StartDate: testEnd, EndDate: testStart},
			wantErr: ErrTournamentInvalidDateRange,
		},
		{
			name:    "unknown formula",
			actor:   organizer,
			input:   CreateTournamentInput{Name: "x", ParticipantType: models.ParticipantTypeSolo, StartDate: testStart, EndDate: testEnd, FormulaID: intPtr(77)},
			wantErr: ErrFormulaNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &FakeTournamentRepo{}
			svc := NewTournamentService(repo, &FakeFormulaRepo{}, &FakeStandingsService{}, testLogger())
			_, err := svc.CreateTournament(context.Background(), tt.actor, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NotContains(t, repo.Trace(), "Create")
		})
	}
}

func TestTournamentService_UpdateStatus(t *testing.T) {
	organizer := Actor{UserID: 5, Role: models.RoleOrganizer}
	tests := []struct {
		name         string
		actor        Actor
		from         models.TournamentStatus
		to           models.TournamentStatus
		wantErr      error
		wantFinalize bool
	}{
		{name: "open registration", actor: organizer, from: models.StatusSoon, to: models.StatusRegistration},
		{name: "complete finalizes", actor: organizer, from: models.StatusActive, to: models.StatusCompleted, wantFinalize: true},
		{name: "skip ahead rejected", actor: organizer, from: models.StatusSoon, to: models.StatusActive, wantErr: ErrTournamentInvalidStatusTransition},
		{name: "completed is terminal", actor: organizer, from: models.StatusCompleted, to: models.StatusActive, wantErr: ErrTournamentInvalidStatusTransition},
		{name: "unknown status", actor: organizer, from: models.StatusSoon, to: "paused", wantErr: ErrTournamentInvalidStatus},
		{name: "not the organizer", actor: Actor{UserID: 6, Role: models.RoleOrganizer}, from: models.StatusSoon, to: models.StatusCanceled, wantErr: ErrForbiddenOperation},
		{name: "admin may cancel", actor: Actor{UserID: 1, Role: models.RoleAdmin}, from: models.StatusActive, to: models.StatusCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &FakeTournamentRepo{
				GetByIDFunc: func(_ context.Context, id int) (*models.Tournament, error) {
					return &models.Tournament{ID: id, OrganizerID: 5, Status: tt.from}, nil
				},
			}
			standings := &FakeStandingsService{}
			svc := NewTournamentService(repo, &FakeFormulaRepo{}, standings, testLogger())

			got, err := svc.UpdateStatus(context.Background(), tt.actor, 3, tt.to)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, standings.Trace())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, got.Status)
			assert.Contains(t, repo.Trace(), "UpdateStatus:"+string(tt.to))
			assert.Equal(t, tt.wantFinalize, len(standings.Trace()) == 1 && standings.Trace()[0] == "Finalize")
		})
	}
}

func TestTournamentService_UpdateStatus_FinalizeFailureKeepsStatus(t *testing.T) {
	repo := &FakeTournamentRepo{
		GetByIDFunc: func(_ context.Context, id int) (*models.Tournament, error) {
			return &models.Tournament{ID: id, OrganizerID: 5, Status: models.StatusActive}, nil
		},
	}
	standings := &FakeStandingsService{
		FinalizeFunc: func(context.Context, int) error { return errors.New("disk full") },
	}
	svc := NewTournamentService(repo, &FakeFormulaRepo{}, standings, testLogger())

	got, err := svc.UpdateStatus(context.Background(), Actor{UserID: 5, Role: models.RoleOrganizer}, 3, models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
}

func TestTournamentService_AssignFormula(t *testing.T) {
	formulas := &FakeFormulaRepo{
		GetByIDFunc: func(_ context.Context, id int) (*models.ScoringFormula, error) {
			return &models.ScoringFormula{ID: id, Name: "League"}, nil
		},
	}

	t.Run("active tournament is refreshed", func(t *testing.T) {
		repo := &FakeTournamentRepo{
			GetByIDFunc: func(_ context.Context, id int) (*models.Tournament, error) {
				return &models.Tournament{ID: id, OrganizerID: 5, Status: models.StatusActive}, nil
			},
		}
		standings := &FakeStandingsService{}
		svc := NewTournamentService(repo, formulas, standings, testLogger())

		got, err := svc.AssignFormula(context.Background(), Actor{UserID: 5, Role: models.RoleOrganizer}, 3, intPtr(2))
		require.NoError(t, err)
		require.NotNil(t, got.Formula)
		assert.Equal(t, "League", got.Formula.Name)
		assert.Equal(t, []int{3}, standings.Refreshed)
	})

	t.Run("completed tournament is locked", func(t *testing.T) {
		repo := &FakeTournamentRepo{
			GetByIDFunc: func(_ context.Context, id int) (*models.Tournament, error) {
				return &models.Tournament{ID: id, OrganizerID: 5, Status: models.StatusCompleted}, nil
			},
		}
		svc := NewTournamentService(repo, formulas, &FakeStandingsService{}, testLogger())
		_, err := svc.AssignFormula(context.Background(), Actor{UserID: 5, Role: models.RoleOrganizer}, 3, intPtr(2))
		assert.ErrorIs(t, err, ErrTournamentLocked)
		assert.NotContains(t, repo.Trace(), "UpdateFormula")
	})

	t.Run("nil restores the default", func(t *testing.T) {
		assigned := intPtr(-1)
		repo := &FakeTournamentRepo{
			GetByIDFunc: func(_ context.Context, id int) (*models.Tournament, error) {
				return &models.Tournament{ID: id, OrganizerID: 5, Status: models.StatusSoon, FormulaID: intPtr(2)}, nil
			},
			UpdateFormulaFunc: func(_ context.Context, _ int, formulaID *int) error {
				assigned = formulaID
				return nil
			},
		}
		standings := &FakeStandingsService{}
		svc := NewTournamentService(repo, formulas, standings, testLogger())
		got, err := svc.AssignFormula(context.Background(), Actor{UserID: 5, Role: models.RoleOrganizer}, 3, nil)
		require.NoError(t, err)
		assert.Nil(t, assigned)
		assert.Nil(t, got.FormulaID)
		assert.Empty(t, standings.Refreshed)
	})
}

func TestTournamentService_UpdateTournament(t *testing.T) {
	current := func(status models.TournamentStatus) func(context.Context, int) (*models.Tournament, error) {
		return func(_ context.Context, id int) (*models.Tournament, error) {
			return &models.Tournament{
				ID: id, Slug: "old-name", Name: "Old Name", OrganizerID: 5, Status: status,
				ParticipantType: models.ParticipantTypeSolo, StartDate: testStart, EndDate: testEnd,
			}, nil
		}
	}
	actor := Actor{UserID: 5, Role: models.RoleOrganizer}

	t.Run("rename regenerates slug", func(t *testing.T) {
		repo := &FakeTournamentRepo{GetByIDFunc: current(models.StatusRegistration)}
		svc := NewTournamentService(repo, &FakeFormulaRepo{}, &FakeStandingsService{}, testLogger())
		name := "New Name"
		got, err := svc.UpdateTournament(context.Background(), actor, 1, UpdateTournamentInput{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "new-name", got.Slug)
	})

	t.Run("participant type fixed once registration opens", func(t *testing.T) {
		repo := &FakeTournamentRepo{GetByIDFunc: current(models.StatusRegistration)}
		svc := NewTournamentService(repo, &FakeFormulaRepo{}, &FakeStandingsService{}, testLogger())
		team := models.ParticipantTypeTeam
		_, err := svc.UpdateTournament(context.Background(), actor, 1, UpdateTournamentInput{ParticipantType: &team})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("canceled tournaments are locked", func(t *testing.T) {
		repo := &FakeTournamentRepo{GetByIDFunc: current(models.StatusCanceled)}
		svc := NewTournamentService(repo, &FakeFormulaRepo{}, &FakeStandingsService{}, testLogger())
		name := "x"
		_, err := svc.UpdateTournament(context.Background(), actor, 1, UpdateTournamentInput{Name: &name})
		assert.ErrorIs(t, err, ErrTournamentLocked)
	})

	t.Run("end date before start", func(t *testing.T) {
		repo := &FakeTournamentRepo{GetByIDFunc: current(models.StatusSoon)}
		svc := NewTournamentService(repo, &FakeFormulaRepo{}, &FakeStandingsService{}, testLogger())
		end := testStart.Add(-time.Hour)
		_, err := svc.UpdateTournament(context.Background(), actor, 1, UpdateTournamentInput{EndDate: &end})
		assert.ErrorIs(t, err, ErrTournamentInvalidDateRange)
	})
}

func TestAutoStatusPath(t *testing.T) {
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		status models.TournamentStatus
		start  time.Time
		end    time.Time
		want   []models.TournamentStatus
	}{
		{name: "not started", status: models.StatusSoon, start: now.Add(time.Hour), end: now.Add(48 * time.Hour)},
		{name: "soon to active", status: models.StatusSoon, start: now.Add(-time.Hour), end: now.Add(time.Hour),
			want: []models.TournamentStatus{models.StatusRegistration, models.StatusActive}},
		{name: "registration to active", status: models.StatusRegistration, start: now, end: now.Add(time.Hour),
			want: []models.TournamentStatus{models.StatusActive}},
		{name: "active to completed", status: models.StatusActive, start: now.Add(-48 * time.Hour), end: now,
			want: []models.TournamentStatus{models.StatusCompleted}},
		{name: "missed the whole window", status: models.StatusSoon, start: now.Add(-48 * time.Hour), end: now.Add(-time.Hour),
			want: []models.TournamentStatus{models.StatusRegistration, models.StatusActive, models.StatusCompleted}},
		{name: "canceled stays", status: models.StatusCanceled, start: now.Add(-48 * time.Hour), end: now.Add(-time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := autoStatusPath(&models.Tournament{Status: tt.status, StartDate: tt.start, EndDate: tt.end}, now)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("autoStatusPath mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTournamentService_AutoUpdateStatuses(t *testing.T) {
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	repo := &FakeTournamentRepo{
		AutoUpdateFunc: func(context.Context, repositories.SQLExecutor, time.Time) ([]*models.Tournament, error) {
			return []*models.Tournament{
				{ID: 1, Status: models.StatusRegistration, StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour)},
				{ID: 2, Status: models.StatusActive, StartDate: now.Add(-48 * time.Hour), EndDate: now.Add(-time.Minute)},
				{ID: 3, Status: models.StatusActive, StartDate: now.Add(-48 * time.Hour), EndDate: now.Add(time.Hour)},
				{ID: 4, Status: models.StatusSoon, StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour)},
			}, nil
		},
		UpdateStatusFunc: func(_ context.Context, _ repositories.SQLExecutor, id int, _ models.TournamentStatus) error {
			if id == 4 {
				return errors.New("deadlock detected")
			}
			return nil
		},
	}
	standings := &FakeStandingsService{}
	svc := NewTournamentService(repo, &FakeFormulaRepo{}, standings, testLogger())

	changed, err := svc.AutoUpdateStatuses(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
	assert.Equal(t, []string{"Finalize"}, standings.Trace())
}
