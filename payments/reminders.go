/*
reminders.go - Recurring reminder job

ONE RUN, THREE PASSES:
  1. upcoming  PENDING payments due in [now, now+ReminderWindow]
               -> PAYMENT_REMINDER email
  2. overdue   PENDING payments due before now
               -> OVERDUE_NOTICE email, then ApplyPenalty (default formula)
  3. leases    ACTIVE leases ending in [now, now+LeaseWindow]
               -> LEASE_EXPIRY notification + email to the landlord

  A CRON_JOB summary notification for the system user closes the run.

FAILURE MODEL:
  One item failing is recorded in RunResult.Errors and the run carries on.
  Only a failed ledger query aborts the run.

TIMEOUT:
  With Config.Timeout set, items not started before the deadline are listed
  in RunResult.Skipped. Started items finish; committed writes stay.

DEDUPLICATION:
  With a Guard, an email of a given kind goes to a payment (or lease) at
  most once per UTC day. Penalties are still applied when the notice is
  deduplicated.
*/
package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// JobConfig tunes ReminderJob.
type JobConfig struct {
	Workers        int
	ReminderWindow time.Duration
	LeaseWindow    time.Duration
	Timeout        time.Duration
	// Formula is the default-penalty formula used in the overdue pass.
	Formula Formula
	// GuardTTL is how long a reminder claim lasts.
	GuardTTL time.Duration
}

func DefaultJobConfig() JobConfig {
	return JobConfig{
		Workers:        5,
		ReminderWindow: 3 * 24 * time.Hour,
		LeaseWindow:    30 * 24 * time.Hour,
		Formula:        FormulaFlat,
		GuardTTL:       24 * time.Hour,
	}
}

// ReminderJob walks the ledger and applies reminders and penalties.
type ReminderJob struct {
	Lifecycle *Lifecycle
	Guard     ReminderGuard // optional
	Config    JobConfig
	Logger    *slog.Logger
}

func NewReminderJob(lc *Lifecycle, guard ReminderGuard, cfg JobConfig, logger *slog.Logger) *ReminderJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderJob{Lifecycle: lc, Guard: guard, Config: cfg, Logger: logger}
}

// =============================================================================
// RESULTS
// =============================================================================

type ItemStatus string

const (
	ItemOK      ItemStatus = "ok"
	ItemFailed  ItemStatus = "failed"
	ItemSkipped ItemStatus = "skipped"
)

// ItemResult is the outcome for one payment or lease in a run.
type ItemResult struct {
	Kind   string
	ID     string
	Status ItemStatus
	Error  string
}

type RunResult struct {
	UpcomingReminders int
	OverdueNotices    int
	PenaltiesApplied  int
	LeaseNotices      int
	RemindersSkipped  int

	Errors  []string
	Skipped []string
	Items   []ItemResult

	StartedAt  time.Time
	FinishedAt time.Time

	mu sync.Mutex
}

func (r *RunResult) record(kind, id string, status ItemStatus, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item := ItemResult{Kind: kind, ID: id, Status: status}
	if err != nil {
		item.Error = err.Error()
		r.Errors = append(r.Errors, fmt.Sprintf("%s %s: %v", kind, id, err))
	}
	r.Items = append(r.Items, item)
}

func (r *RunResult) fail(kind, id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, fmt.Sprintf("%s %s: %v", kind, id, err))
}

func (r *RunResult) skip(kind, id, why string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Skipped = append(r.Skipped, fmt.Sprintf("%s %s: %s", kind, id, why))
	r.Items = append(r.Items, ItemResult{Kind: kind, ID: id, Status: ItemSkipped, Error: why})
}

func (r *RunResult) add(counter *int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*counter++
}

// =============================================================================
// RUN
// =============================================================================

const (
	kindReminder = "reminder"
	kindOverdue  = "overdue"
	kindLease    = "lease"
)

// Run executes one full pass over the ledger.
func (j *ReminderJob) Run(ctx context.Context) (*RunResult, error) {
	if j.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Config.Timeout)
		defer cancel()
	}

	now := j.Lifecycle.now()
	res := &RunResult{StartedAt: now}
	j.Logger.Info("reminder job started", "now", now.Format(time.RFC3339))

	passes := []struct {
		name string
		run  func(context.Context, time.Time, *RunResult) error
	}{
		{kindReminder, j.upcomingPass},
		{kindOverdue, j.overduePass},
		{kindLease, j.leasePass},
	}
	for _, pass := range passes {
		if ctx.Err() != nil {
			res.Skipped = append(res.Skipped, pass.name+" pass: not started before deadline")
			continue
		}
		if err := pass.run(ctx, now, res); err != nil {
			// A query cut off by the run's deadline skips the pass; the
			// passes before it are already committed.
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				j.Logger.Warn("pass interrupted", "pass", pass.name, "error", err)
				res.Skipped = append(res.Skipped, pass.name+" pass: deadline exceeded during query")
				continue
			}
			return nil, fmt.Errorf("%s pass: %w", pass.name, err)
		}
	}

	summary := Notification{
		Title: "Automated Tasks Completed",
		Message: fmt.Sprintf("Automated tasks completed: %d reminders, %d overdue notices, %d penalties applied",
			res.UpcomingReminders, res.OverdueNotices, res.PenaltiesApplied),
		Type:   NotifyCronJob,
		UserID: SystemUserID,
	}
	if err := j.Lifecycle.Sink.CreateNotification(context.WithoutCancel(ctx), summary); err != nil {
		res.Errors = append(res.Errors, (&DependencyError{Op: "create summary notification", Err: err}).Error())
	}

	res.FinishedAt = j.Lifecycle.now()
	j.Logger.Info("reminder job finished",
		"reminders", res.UpcomingReminders,
		"overdue_notices", res.OverdueNotices,
		"penalties", res.PenaltiesApplied,
		"lease_notices", res.LeaseNotices,
		"errors", len(res.Errors),
		"skipped", len(res.Skipped))
	return res, nil
}

// claim consults the guard. A guard failure is logged and the send goes
// ahead; duplicate reminders are preferable to missing ones.
func (j *ReminderJob) claim(ctx context.Context, kind, id string, now time.Time) bool {
	if j.Guard == nil {
		return true
	}
	ttl := j.Config.GuardTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	ok, err := j.Guard.Claim(ctx, ReminderKey(kind, id, now), ttl)
	if err != nil {
		j.Logger.Warn("reminder guard unavailable", "kind", kind, "id", id, "error", err)
		return true
	}
	return ok
}

// =============================================================================
// PASS 1: UPCOMING
// =============================================================================

func (j *ReminderJob) upcomingPass(ctx context.Context, now time.Time, res *RunResult) error {
	to := now.Add(j.Config.ReminderWindow)
	due, err := j.Lifecycle.Repo.FindPayments(ctx, PaymentFilter{
		Statuses: []Status{StatusPending},
		DueFrom:  &now,
		DueTo:    &to,
	})
	if err != nil {
		return err
	}

	skipped := forEach(ctx, j.Config.Workers, due, func(ctx context.Context, p Payment) {
		if !j.claim(ctx, kindReminder, p.ID, now) {
			res.add(&res.RemindersSkipped)
			res.skip(kindReminder, p.ID, "already reminded today")
			return
		}
		msg := fmt.Sprintf("Your rent payment of %s is due on %s.",
			j.Lifecycle.Money(p.Amount), p.DueDate.Format("January 2, 2006"))
		if err := j.Lifecycle.Sink.SendPaymentEmail(ctx, EmailPaymentReminder, p, msg); err != nil {
			res.record(kindReminder, p.ID, ItemFailed, &DependencyError{Op: "send reminder", Err: err})
			return
		}
		res.add(&res.UpcomingReminders)
		res.record(kindReminder, p.ID, ItemOK, nil)
	})
	for _, p := range skipped {
		res.skip(kindReminder, p.ID, "deadline exceeded")
	}
	return nil
}

// =============================================================================
// PASS 2: OVERDUE
// =============================================================================

func (j *ReminderJob) overduePass(ctx context.Context, now time.Time, res *RunResult) error {
	overdue, err := j.Lifecycle.Repo.FindPayments(ctx, PaymentFilter{
		Statuses:  []Status{StatusPending},
		DueBefore: &now,
	})
	if err != nil {
		return err
	}

	skipped := forEach(ctx, j.Config.Workers, overdue, func(ctx context.Context, listed Payment) {
		// Re-read so the penalty is computed from current state.
		p, err := j.Lifecycle.Load(ctx, listed.ID)
		if err != nil {
			res.record(kindOverdue, listed.ID, ItemFailed, err)
			return
		}
		if p.Status != StatusPending {
			res.skip(kindOverdue, p.ID, "status changed to "+string(p.Status))
			return
		}
		days := DaysOverdue(p.DueDate, now)
		if days <= 0 {
			res.skip(kindOverdue, p.ID, "not overdue")
			return
		}

		if j.claim(ctx, kindOverdue, p.ID, now) {
			msg := fmt.Sprintf("Your rent payment of %s was due on %s and is now %d days overdue.",
				j.Lifecycle.Money(p.Amount), p.DueDate.Format("January 2, 2006"), days)
			if err := j.Lifecycle.Sink.SendPaymentEmail(ctx, EmailOverdueNotice, *p, msg); err != nil {
				res.fail(kindOverdue, p.ID, &DependencyError{Op: "send overdue notice", Err: err})
			} else {
				res.add(&res.OverdueNotices)
			}
		} else {
			res.add(&res.RemindersSkipped)
		}

		amount := j.Lifecycle.Policy.DefaultPenalty(p.Amount, days, j.Config.Formula)
		m, err := j.Lifecycle.ApplyPenalty(ctx, p, PenaltyInput{
			Amount:         amount,
			Reason:         fmt.Sprintf("Automatic late penalty (%d days overdue)", days),
			SuppressNotice: true,
		})
		if err != nil {
			res.record(kindOverdue, p.ID, ItemFailed, err)
			return
		}
		for _, w := range m.Warnings {
			res.fail(kindOverdue, p.ID, errors.New(w))
		}
		res.add(&res.PenaltiesApplied)
		res.record(kindOverdue, p.ID, ItemOK, nil)
	})
	for _, p := range skipped {
		res.skip(kindOverdue, p.ID, "deadline exceeded")
	}
	return nil
}

// =============================================================================
// PASS 3: LEASE EXPIRY
// =============================================================================

func (j *ReminderJob) leasePass(ctx context.Context, now time.Time, res *RunResult) error {
	to := now.Add(j.Config.LeaseWindow)
	leases, err := j.Lifecycle.Repo.FindExpiringLeases(ctx, now, to)
	if err != nil {
		return err
	}

	skipped := forEach(ctx, j.Config.Workers, leases, func(ctx context.Context, l Lease) {
		if !j.claim(ctx, kindLease, l.ID, now) {
			res.add(&res.RemindersSkipped)
			res.skip(kindLease, l.ID, "already notified today")
			return
		}
		daysLeft := -DaysOverdue(l.EndDate, now)
		msg := fmt.Sprintf("Lease %s ends on %s (%d days remaining).",
			l.ID, l.EndDate.Format("January 2, 2006"), daysLeft)

		err := j.Lifecycle.Sink.CreateNotification(ctx, Notification{
			Title:   "Lease Expiring Soon",
			Message: msg,
			Type:    NotifyLeaseExpiry,
			UserID:  l.LandlordID,
		})
		if err != nil {
			res.record(kindLease, l.ID, ItemFailed, &DependencyError{Op: "create lease notification", Err: err})
			return
		}
		res.add(&res.LeaseNotices)
		if err := j.Lifecycle.Sink.SendLeaseEmail(ctx, l, msg); err != nil {
			res.record(kindLease, l.ID, ItemFailed, &DependencyError{Op: "send lease email", Err: err})
			return
		}
		res.record(kindLease, l.ID, ItemOK, nil)
	})
	for _, l := range skipped {
		res.skip(kindLease, l.ID, "deadline exceeded")
	}
	return nil
}
