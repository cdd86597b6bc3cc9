/*
scheduler.go - In-process reminder scheduler

PURPOSE:
  Runs the reminder job on a fixed interval inside the API process, for
  deployments without an external cron hitting /api/cron/payment-reminders.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Runs once immediately on start
  - Stop cancels the in-flight run; items already started still finish
    (the job detaches them from cancellation)
  - Safe to combine with the HTTP trigger when a ReminderGuard is set

CONFIGURATION:
  - Interval: How often to run (SCHEDULER_INTERVAL, default 24h)
  - Enabled:  Whether the scheduler is active (SCHEDULER_ENABLED)

USAGE:
  scheduler := NewReminderScheduler(job, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - cron.go: RunReminders endpoint (manual/external trigger)
  - payments/reminders.go: ReminderJob
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/boma/rent-engine/payments"
)

// ReminderScheduler runs the reminder job periodically.
type ReminderScheduler struct {
	Job      *payments.ReminderJob
	Interval time.Duration
	Enabled  bool
	Logger   *slog.Logger

	ticker  *time.Ticker
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	lastRun *payments.RunResult
}

// NewReminderScheduler creates a new scheduler.
func NewReminderScheduler(job *payments.ReminderJob, logger *slog.Logger) *ReminderScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderScheduler{
		Job:      job,
		Interval: 24 * time.Hour,
		Enabled:  true,
		Logger:   logger.With("component", "scheduler"),
	}
}

// Start begins the scheduler.
func (rs *ReminderScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Logger.Info("disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	rs.cancel = cancel
	rs.ticker = time.NewTicker(rs.Interval)
	rs.wg.Add(1)

	go rs.run(ctx, rs.ticker)

	rs.Logger.Info("started", "interval", rs.Interval)
}

// Stop stops the scheduler and waits for the current run to return.
func (rs *ReminderScheduler) Stop() {
	rs.mu.Lock()
	if rs.ticker == nil {
		rs.mu.Unlock()
		return
	}
	rs.ticker.Stop()
	rs.cancel()
	rs.ticker = nil
	rs.mu.Unlock()

	rs.wg.Wait()
	rs.Logger.Info("stopped")
}

func (rs *ReminderScheduler) run(ctx context.Context, ticker *time.Ticker) {
	defer rs.wg.Done()

	// Run immediately on start
	rs.RunNow(ctx)

	for {
		select {
		case <-ticker.C:
			rs.RunNow(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RunNow runs the job once and records the result.
func (rs *ReminderScheduler) RunNow(ctx context.Context) {
	res, err := rs.Job.Run(ctx)
	if err != nil {
		rs.Logger.Error("reminder run failed", "error", err)
		return
	}

	rs.mu.Lock()
	rs.lastRun = res
	rs.mu.Unlock()

	rs.Logger.Info("reminder run completed",
		"reminders", res.UpcomingReminders,
		"overdue_notices", res.OverdueNotices,
		"penalties", res.PenaltiesApplied,
		"lease_notices", res.LeaseNotices,
		"errors", len(res.Errors),
		"skipped", len(res.Skipped),
	)
}

// LastRun returns the result of the most recent successful run, or nil.
func (rs *ReminderScheduler) LastRun() *payments.RunResult {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.lastRun
}
