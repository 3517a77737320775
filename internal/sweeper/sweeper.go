package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/userauth-api/internal/clock"
	"github.com/ErlanBelekov/userauth-api/internal/metrics"
	"github.com/robfig/cron/v3"
)

const DefaultSchedule = "@every 15m"

// resetTokenStore is the subset of repository.UserRepository the sweeper needs.
type resetTokenStore interface {
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically clears reset token state that has expired. Expired
// tokens are already rejected on use; this only keeps the store tidy.
type Sweeper struct {
	store    resetTokenStore
	schedule string
	clock    clock.Clock
	logger   *slog.Logger
}

func New(store resetTokenStore, schedule string, clk clock.Clock, logger *slog.Logger) *Sweeper {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Sweeper{
		store:    store,
		schedule: schedule,
		clock:    clk,
		logger:   logger.With("component", "sweeper"),
	}
}

// Start runs sweeps on the schedule until ctx is cancelled, then waits for a
// running sweep to finish.
func (s *Sweeper) Start(ctx context.Context) error {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(s.schedule, func() { s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("parse sweep schedule %q: %w", s.schedule, err)
	}

	s.logger.Info("sweeper started", "schedule", s.schedule)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("sweeper shut down")
	return nil
}

// Sweep runs one cycle and returns how many users were cleared.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	start := time.Now()
	defer func() { metrics.SweepCycleDuration.Observe(time.Since(start).Seconds()) }()

	n, err := s.store.ClearExpiredResetTokens(ctx, s.clock.Now())
	if err != nil {
		s.logger.ErrorContext(ctx, "clear expired reset tokens", "error", err)
		return 0
	}
	if n > 0 {
		metrics.SweptResetTokensTotal.Add(float64(n))
		s.logger.InfoContext(ctx, "cleared expired reset tokens", "count", n)
	}
	return n
}
