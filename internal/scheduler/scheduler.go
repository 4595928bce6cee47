package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/wordwise/internal/database"
	"github.com/example/wordwise/pkg/models"
)

// Notifier sends a review reminder to a learner
type Notifier interface {
	SendReminder(learnerID string, kind models.Kind, count int) error
}

// Maintenance is the cross-learner store the jobs run against
type Maintenance interface {
	PruneCheckpoints(ctx context.Context, before time.Time) (int64, error)
	WrongSetSizes(ctx context.Context) ([]database.WrongSetSize, error)
}

// Config controls the scheduled jobs
type Config struct {
	CheckpointTTL time.Duration
	ReminderHour  int
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	store     Maintenance
	notifier  Notifier
	cfg       Config
	log       *slog.Logger
	now       func() time.Time
}

// New creates a new scheduler instance. notifier may be nil, then reminders are only logged.
func New(store Maintenance, notifier Notifier, cfg Config, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		store:     store,
		notifier:  notifier,
		cfg:       cfg,
		log:       log.With("component", "scheduler"),
		now:       time.Now,
	}
}

// Start registers the jobs and runs them in the background
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(1).Hour().Do(s.pruneJob); err != nil {
		return fmt.Errorf("schedule checkpoint pruning: %w", err)
	}
	at := fmt.Sprintf("%02d:00", s.cfg.ReminderHour)
	if _, err := s.scheduler.Every(1).Day().At(at).Do(s.reminderJob); err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}

	s.scheduler.StartAsync()
	s.log.Info("scheduler started", "reminder_at", at, "checkpoint_ttl", s.cfg.CheckpointTTL)
	return nil
}

// Every registers an extra job run at a fixed interval
func (s *Scheduler) Every(interval time.Duration, name string, fn func()) error {
	if _, err := s.scheduler.Every(interval).Name(name).Do(fn); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) pruneJob() {
	if _, err := s.PruneCheckpoints(context.Background()); err != nil {
		s.log.Error("checkpoint pruning failed", "error", err)
	}
}

func (s *Scheduler) reminderJob() {
	if _, err := s.SendReminders(context.Background()); err != nil {
		s.log.Error("sending reminders failed", "error", err)
	}
}

// PruneCheckpoints removes checkpoints of sessions abandoned for longer than CheckpointTTL
func (s *Scheduler) PruneCheckpoints(ctx context.Context) (int64, error) {
	if s.cfg.CheckpointTTL <= 0 {
		return 0, nil
	}
	n, err := s.store.PruneCheckpoints(ctx, s.now().Add(-s.cfg.CheckpointTTL))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("pruned abandoned checkpoints", "count", n)
	}
	return n, nil
}

// SendReminders notifies every learner with a non-empty wrong set and returns how many were sent.
// A failed notification is logged and does not stop the others.
func (s *Scheduler) SendReminders(ctx context.Context) (int, error) {
	sizes, err := s.store.WrongSetSizes(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, sz := range sizes {
		if sz.Count == 0 {
			continue
		}
		if s.notifier == nil {
			s.log.Info("review reminder", "learner", sz.LearnerID, "kind", sz.Kind, "count", sz.Count)
			continue
		}
		if err := s.notifier.SendReminder(sz.LearnerID, sz.Kind, sz.Count); err != nil {
			s.log.Warn("error sending reminder", "learner", sz.LearnerID, "kind", sz.Kind, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}
