package scheduler

import (
	"context"
	"time"

	"github.com/fadedpez/playtimeshop/internal/logging"
)

// CheckpointTaskName is the scheduler task that credits online players
const CheckpointTaskName = "accrual_checkpoint"

// Checkpointer credits playtime for connected players
type Checkpointer interface {
	Checkpoint(ctx context.Context) (int, error)
}

// CheckpointScheduler periodically persists accrued points for online
// players, bounding what a crash can lose to one interval
type CheckpointScheduler struct {
	scheduler *Scheduler
	shop      Checkpointer
	logger    *logging.Logger
}

// NewCheckpointScheduler creates a scheduler running shop.Checkpoint every interval.
// A non-positive interval disables the task.
func NewCheckpointScheduler(shop Checkpointer, interval time.Duration, logger *logging.Logger) *CheckpointScheduler {
	s := &CheckpointScheduler{
		scheduler: NewScheduler(logger),
		shop:      shop,
		logger:    logging.OrDefault(logger),
	}
	s.scheduler.AddTask(CheckpointTaskName, interval, s.checkpoint)
	return s
}

// Start begins running checkpoints
func (s *CheckpointScheduler) Start(ctx context.Context) {
	s.scheduler.Start(ctx)
}

// Stop halts checkpoints, waiting for one in progress
func (s *CheckpointScheduler) Stop() {
	s.scheduler.Stop()
}

func (s *CheckpointScheduler) checkpoint(ctx context.Context) error {
	updated, err := s.shop.Checkpoint(ctx)
	if updated > 0 {
		s.logger.Debug("[CHECKPOINT] Credited playtime for %d players", updated)
	}
	return err
}
