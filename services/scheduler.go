package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StatusAutomator is the part of TournamentService the scheduler drives.
type StatusAutomator interface {
	AutoUpdateStatuses(ctx context.Context, now time.Time) (int, error)
}

// Scheduler periodically moves tournaments through their statuses by date.
type Scheduler struct {
	sched    gocron.Scheduler
	statuses StatusAutomator
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

func NewScheduler(statuses StatusAutomator, interval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{
		sched:    sched,
		statuses: statuses,
		interval: interval,
		timeout:  interval,
		logger:   logger,
	}, nil
}

// Start registers the status job and starts the scheduler. The job also
// runs once immediately.
func (s *Scheduler) Start() error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.runStatusUpdate),
		gocron.WithName("tournament-status-update"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule status job: %w", err)
	}
	s.sched.Start()
	s.logger.Info("scheduler started", slog.Duration("interval", s.interval))
	return nil
}

func (s *Scheduler) runStatusUpdate() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	changed, err := s.statuses.AutoUpdateStatuses(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("automatic status update failed", slog.Any("error", err))
		return
	}
	if changed > 0 {
		s.logger.Info("tournament statuses updated", slog.Int("changed", changed))
	}
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
