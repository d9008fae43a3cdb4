package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/Dosada05/tournament-standings/achievements"
	"github.com/Dosada05/tournament-standings/live"
	"github.com/Dosada05/tournament-standings/metrics"
	"github.com/Dosada05/tournament-standings/models"
	"github.com/Dosada05/tournament-standings/repositories"
	"github.com/Dosada05/tournament-standings/scoring"
	"github.com/Dosada05/tournament-standings/storage"
	"golang.org/x/sync/singleflight"
)

// Broadcaster pushes messages to websocket rooms.
type Broadcaster interface {
	BroadcastToRoom(room string, msg live.Message) int
}

// Archiver stores a final standings document outside the database.
type Archiver interface {
	Archive(ctx context.Context, tournamentID int, doc interface{}) (*storage.UploadResult, error)
}

// FormulaSummary names the formula a leaderboard was computed with.
type FormulaSummary struct {
	ID             *int              `json:"id,omitempty"`
	Name           string            `json:"name"`
	IsDefault      bool              `json:"is_default"`
	MalformedRules map[string]string `json:"malformed_rules,omitempty"`
}

// StandingsView is the leaderboard of a tournament as served by the API.
type StandingsView struct {
	TournamentID int                   `json:"tournament_id"`
	Formula      FormulaSummary        `json:"formula"`
	EntrantType  scoring.EntrantType   `json:"entrant_type"`
	Entries      []scoring.Entry       `json:"entries"`
	Games        []scoring.ScoredGame  `json:"games"`
	Skipped      []scoring.SkippedGame `json:"skipped"`
	ComputedAt   time.Time             `json:"computed_at"`
}

// FinalStandings is the document archived when a tournament completes.
type FinalStandings struct {
	Tournament *models.Tournament `json:"tournament"`
	Standings  *StandingsView     `json:"standings"`
}

// StandingsService computes, publishes and stores tournament leaderboards.
type StandingsService interface {
	// Standings recomputes the live leaderboard from the stored games.
	Standings(ctx context.Context, tournamentID int) (*StandingsView, error)
	// Preview computes the leaderboard of a tournament under an unsaved formula.
	Preview(ctx context.Context, tournamentID int, formula models.ScoringFormula) (*StandingsView, error)
	// Refresh recomputes and pushes the leaderboard to live followers.
	// Failures are logged, never returned.
	Refresh(ctx context.Context, tournamentID int)
	// Finalize stores the final snapshot of a completed tournament and
	// archives it when object storage is configured.
	Finalize(ctx context.Context, tournamentID int) error
	Snapshot(ctx context.Context, tournamentID int) ([]*models.TournamentStanding, error)
	Achievements(ctx context.Context, tournamentID int) ([]achievements.Achievement, error)
	ExportXLSX(ctx context.Context, tournamentID int, w io.Writer) error
}

type standingsService struct {
	engine      *scoring.Engine
	history     scoring.GameStore
	tournaments repositories.TournamentRepository
	snapshots   repositories.TournamentStandingRepository
	hub         Broadcaster
	archiver    Archiver
	metrics     *metrics.Standings
	logger      *slog.Logger
	group       singleflight.Group
	now         func() time.Time
}

// StandingsServiceDeps are the collaborators of NewStandingsService.
type StandingsServiceDeps struct {
	Engine      *scoring.Engine
	History     scoring.GameStore
	Tournaments repositories.TournamentRepository
	Snapshots   repositories.TournamentStandingRepository
	Hub         Broadcaster
	// Archiver is optional.
	Archiver Archiver
	Metrics  *metrics.Standings
	Logger   *slog.Logger
}

func NewStandingsService(deps StandingsServiceDeps) StandingsService {
	return &standingsService{
		engine:      deps.Engine,
		history:     deps.History,
		tournaments: deps.Tournaments,
		snapshots:   deps.Snapshots,
		hub:         deps.Hub,
		archiver:    deps.Archiver,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		now:         time.Now,
	}
}

func (s *standingsService) Standings(ctx context.Context, tournamentID int) (*StandingsView, error) {
	return s.standings(ctx, tournamentID, false)
}

// standings shares one computation between concurrent callers of the same
// tournament. The shared computation outlives any single caller's
// cancellation; each caller stops waiting on its own context. With fresh set
// the caller never joins a computation that started before it was called.
func (s *standingsService) standings(ctx context.Context, tournamentID int, fresh bool) (*StandingsView, error) {
	key := strconv.Itoa(tournamentID)
	if fresh {
		s.group.Forget(key)
	}
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		return s.compute(shared, tournamentID)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to compute standings for tournament %d: %w", tournamentID, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			if errors.Is(res.Err, repositories.ErrTournamentNotFound) {
				return nil, ErrTournamentNotFound
			}
			return nil, fmt.Errorf("failed to compute standings for tournament %d: %w", tournamentID, res.Err)
		}
		return res.Val.(*StandingsView), nil
	}
}

func (s *standingsService) compute(ctx context.Context, tournamentID int) (*StandingsView, error) {
	started := s.now()
	report, err := s.engine.Compute(ctx, tournamentID)
	s.metrics.ObserveComputation(started, len(report.Skipped), err)
	if err != nil {
		return nil, err
	}
	if len(report.Skipped) > 0 {
		s.logger.Warn("standings computed with skipped games",
			slog.Int("tournament_id", tournamentID),
			slog.Int("skipped", len(report.Skipped)))
	}
	return s.view(report), nil
}

func (s *standingsService) Preview(ctx context.Context, tournamentID int, sf models.ScoringFormula) (*StandingsView, error) {
	history, err := s.history.GameHistory(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load games of tournament %d: %w", tournamentID, err)
	}
	formula := scoring.Compile(sf)
	return s.view(scoring.Report{
		TournamentID: tournamentID,
		Formula:      formula,
		EntrantType:  history.EntrantType,
		Result:       scoring.Aggregate(formula, history.EntrantType, history.Games),
	}), nil
}

func (s *standingsService) view(r scoring.Report) *StandingsView {
	summary := FormulaSummary{
		Name:      r.Formula.Name,
		IsDefault: r.Formula.IsDefault(),
	}
	if r.Formula.ID != 0 {
		id := r.Formula.ID
		summary.ID = &id
	}
	if bad := r.Formula.MalformedRules(); len(bad) > 0 {
		summary.MalformedRules = bad
	}
	return &StandingsView{
		TournamentID: r.TournamentID,
		Formula:      summary,
		EntrantType:  r.EntrantType,
		Entries:      r.Entries,
		Games:        r.Games,
		Skipped:      r.Skipped,
		ComputedAt:   s.now().UTC(),
	}
}

func (s *standingsService) Refresh(ctx context.Context, tournamentID int) {
	view, err := s.standings(ctx, tournamentID, true)
	if err != nil {
		s.logger.Error("failed to refresh standings",
			slog.Int("tournament_id", tournamentID),
			slog.Any("error", err))
		return
	}
	s.publish(tournamentID, live.MessageStandingsUpdated, view)
}

func (s *standingsService) publish(tournamentID int, kind string, view *StandingsView) {
	if s.hub == nil {
		return
	}
	delivered := s.hub.BroadcastToRoom(live.RoomForTournament(tournamentID), live.Message{
		Type:    kind,
		Payload: view,
	})
	if delivered > 0 {
		s.metrics.Broadcast()
	}
}

func (s *standingsService) Finalize(ctx context.Context, tournamentID int) error {
	view, err := s.standings(ctx, tournamentID, true)
	if err != nil {
		return err
	}

	rows := make([]*models.TournamentStanding, 0, len(view.Entries))
	for _, e := range view.Entries {
		rows = append(rows, &models.TournamentStanding{
			TournamentID:    tournamentID,
			EntrantID:       e.EntrantID,
			EntrantName:     e.EntrantName,
			Rank:            e.Rank,
			Points:          e.Points,
			GamesPlayed:     e.GamesPlayed,
			Wins:            e.Wins,
			Draws:           e.Draws,
			Losses:          e.Losses,
			ScoreFor:        e.ScoreFor,
			ScoreAgainst:    e.ScoreAgainst,
			ScoreDifference: e.ScoreDifference,
			FormulaName:     view.Formula.Name,
		})
	}
	if err := s.snapshots.ReplaceSnapshot(ctx, tournamentID, rows); err != nil {
		return fmt.Errorf("failed to store final standings of tournament %d: %w", tournamentID, err)
	}
	s.logger.Info("final standings stored",
		slog.Int("tournament_id", tournamentID),
		slog.Int("entries", len(rows)),
		slog.String("formula", view.Formula.Name))

	if s.archiver != nil {
		s.archive(ctx, tournamentID, view)
	}
	s.publish(tournamentID, live.MessageTournamentCompleted, view)
	return nil
}

// archive failures never undo a completion; the snapshot row set is the
// source of truth.
func (s *standingsService) archive(ctx context.Context, tournamentID int, view *StandingsView) {
	t, err := s.tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		s.metrics.Archive(err)
		s.logger.Error("failed to load tournament for archive", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return
	}
	res, err := s.archiver.Archive(ctx, tournamentID, FinalStandings{Tournament: t, Standings: view})
	s.metrics.Archive(err)
	if err != nil {
		s.logger.Error("failed to archive final standings", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return
	}
	s.logger.Info("final standings archived",
		slog.Int("tournament_id", tournamentID),
		slog.String("key", res.Key),
		slog.String("location", res.Location))
}

func (s *standingsService) Snapshot(ctx context.Context, tournamentID int) ([]*models.TournamentStanding, error) {
	t, err := s.tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, translateError(err, "failed to get tournament", map[error]error{
			repositories.ErrTournamentNotFound: ErrTournamentNotFound,
		})
	}
	if t.Status != models.StatusCompleted {
		return nil, ErrSnapshotNotFound
	}
	rows, err := s.snapshots.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load final standings of tournament %d: %w", tournamentID, err)
	}
	return rows, nil
}

func (s *standingsService) Achievements(ctx context.Context, tournamentID int) ([]achievements.Achievement, error) {
	view, err := s.Standings(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return achievements.Evaluate(scoring.Result{
		Entries: view.Entries,
		Games:   view.Games,
		Skipped: view.Skipped,
	}, achievements.Catalog), nil
}

func (s *standingsService) ExportXLSX(ctx context.Context, tournamentID int, w io.Writer) error {
	view, err := s.Standings(ctx, tournamentID)
	if err != nil {
		return err
	}
	return writeStandingsWorkbook(view, w)
}
