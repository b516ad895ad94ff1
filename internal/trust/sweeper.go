// AngelaMos | 2026
// sweeper.go

package trust

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/carterperez-dev/inkpost/internal/config"
)

type StaleLister interface {
	ListStaleIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// Sweeper periodically reconciles users whose suspension or subscription
// lapsed without a follow-up request. It is off unless trust.sweep_enabled
// is set; the request path never depends on it.
type Sweeper struct {
	gate      *Gate
	lister    StaleLister
	cron      *cron.Cron
	schedule  string
	batchSize int
	timeout   time.Duration
	logger    *slog.Logger
}

func NewSweeper(
	gate *Gate,
	lister StaleLister,
	cfg config.TrustConfig,
	logger *slog.Logger,
) *Sweeper {
	batch := cfg.SweepBatchSize
	if batch <= 0 {
		batch = 200
	}
	return &Sweeper{
		gate:      gate,
		lister:    lister,
		cron:      cron.New(),
		schedule:  cfg.SweepSchedule,
		batchSize: batch,
		timeout:   time.Minute,
		logger:    logger,
	}
}

func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("trust sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule trust sweep: %w", err)
	}

	s.cron.Start()
	s.logger.Info("trust sweep started", "schedule", s.schedule)
	return nil
}

func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("trust sweep stopped")
}

// Sweep reconciles one batch of stale users and returns how many were
// corrected. Failures on a single user are logged and skipped.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	ids, err := s.lister.ListStaleIDs(ctx, s.gate.now(), s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list stale users: %w", err)
	}

	if len(ids) == 0 {
		return 0, nil
	}

	corrected := 0
	for _, id := range ids {
		effects, err := s.gate.Reconcile(ctx, id)
		if err != nil {
			s.logger.Error("reconcile user failed", "user_id", id, "error", err)
			continue
		}
		if effects.Any() {
			corrected++
		}
	}

	s.logger.Info("trust sweep finished",
		"candidates", len(ids),
		"corrected", corrected,
	)

	return corrected, nil
}
