package scheduler

import (
	"context"
	"fmt"

	"PipForge/internal/usecase"
	"PipForge/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic retraining sweep. The cadence gate inside
// the retrainer decides per context whether a run actually happens, so
// the cron expression only controls how often we check.
type Scheduler struct {
	cron      *cron.Cron
	retrainer *usecase.Retrainer
	algorithm string
	log       *logger.Logger
	ctx       context.Context
}

// New creates a scheduler around the retrainer.
func New(ctx context.Context, retrainer *usecase.Retrainer, algorithm string, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		retrainer: retrainer,
		algorithm: algorithm,
		log:       log,
		ctx:       ctx,
	}
}

// Register adds the retraining sweep on the given cron expression
// (standard 5-field spec, e.g. "0 */6 * * *").
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return fmt.Errorf("register retraining sweep: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info("scheduler stopped")
}

// RunNow executes the sweep immediately (manual trigger).
func (s *Scheduler) RunNow() {
	s.sweep()
}

func (s *Scheduler) sweep() {
	s.log.Info("running retraining sweep", logger.String("algorithm", s.algorithm))
	s.retrainer.TrainAll(s.ctx, s.algorithm)
}
