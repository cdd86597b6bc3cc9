package payments

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
)

// BulkPenalty applies penalties across one landlord's overdue payments.
//
// Only PENDING payments that are past due and carry no penalty are
// selected, so a second run right after the first finds nothing to do.
type BulkPenalty struct {
	Lifecycle *Lifecycle
	Workers   int
	Logger    *slog.Logger
}

func NewBulkPenalty(lc *Lifecycle, workers int, logger *slog.Logger) *BulkPenalty {
	if logger == nil {
		logger = slog.Default()
	}
	return &BulkPenalty{Lifecycle: lc, Workers: workers, Logger: logger}
}

type BulkRequest struct {
	LandlordID string
	// Rule overrides the canonical default formula when set.
	Rule   PenaltyRule
	Reason string
}

type BulkResult struct {
	Processed          int
	PenaltiesApplied   int
	TotalPenaltyAmount decimal.Decimal
	Errors             []string
	Items              []ItemResult

	mu sync.Mutex
}

func (r *BulkResult) record(id string, status ItemStatus, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item := ItemResult{Kind: "penalty", ID: id, Status: status}
	if err != nil {
		item.Error = err.Error()
		r.Errors = append(r.Errors, fmt.Sprintf("payment %s: %v", id, err))
	}
	r.Items = append(r.Items, item)
}

func (r *BulkResult) applied(id string, amount decimal.Decimal, warnings []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.PenaltiesApplied++
	r.TotalPenaltyAmount = r.TotalPenaltyAmount.Add(amount)
	for _, w := range warnings {
		r.Errors = append(r.Errors, fmt.Sprintf("payment %s: %s", id, w))
	}
	r.Items = append(r.Items, ItemResult{Kind: "penalty", ID: id, Status: ItemOK})
}

// Run applies the penalties. It fails only on bad input or when the
// payment query itself fails.
func (b *BulkPenalty) Run(ctx context.Context, req BulkRequest) (*BulkResult, error) {
	if req.LandlordID == "" {
		return nil, Invalid("landlordId", "is required")
	}
	lc := b.Lifecycle
	landlord, err := lc.Repo.GetLandlord(ctx, req.LandlordID)
	if err != nil {
		return nil, fmt.Errorf("load landlord %s: %w", req.LandlordID, err)
	}
	if landlord == nil {
		return nil, &NotFoundError{Kind: "landlord", ID: req.LandlordID}
	}

	now := lc.now()
	candidates, err := lc.Repo.FindPayments(ctx, PaymentFilter{
		LandlordID:  req.LandlordID,
		Statuses:    []Status{StatusPending},
		DueBefore:   &now,
		PenaltyZero: true,
	})
	if err != nil {
		return nil, fmt.Errorf("find overdue payments: %w", err)
	}

	reason := req.Reason
	if reason == "" {
		reason = "Bulk late penalty"
		if req.Rule != nil {
			reason += " (" + req.Rule.String() + ")"
		}
	}

	res := &BulkResult{Processed: len(candidates), TotalPenaltyAmount: decimal.Zero}
	skipped := forEach(ctx, b.Workers, candidates, func(ctx context.Context, listed Payment) {
		p, err := lc.Load(ctx, listed.ID)
		if err != nil {
			res.record(listed.ID, ItemFailed, err)
			return
		}
		if p.Status != StatusPending || p.HasPenalty() {
			res.record(p.ID, ItemSkipped, nil)
			return
		}
		days := DaysOverdue(p.DueDate, now)

		amount := lc.Policy.DefaultPenalty(p.Amount, days, FormulaDaily)
		if req.Rule != nil {
			if amount, err = RuledPenalty(p.Amount, days, req.Rule); err != nil {
				res.record(p.ID, ItemFailed, err)
				return
			}
		}
		if amount.IsZero() {
			res.record(p.ID, ItemSkipped, nil)
			return
		}

		m, err := lc.ApplyPenalty(ctx, p, PenaltyInput{Amount: amount, Reason: reason})
		if err != nil {
			res.record(p.ID, ItemFailed, err)
			return
		}
		res.applied(p.ID, amount, m.Warnings)
	})
	for _, p := range skipped {
		res.record(p.ID, ItemSkipped, nil)
	}

	err = lc.Sink.CreateNotification(context.WithoutCancel(ctx), Notification{
		Title: "Bulk Penalties Applied",
		Message: fmt.Sprintf("Applied penalties to %d overdue payments. Total penalty amount: %s",
			res.PenaltiesApplied, lc.Money(res.TotalPenaltyAmount)),
		Type:   NotifyBulkPenalties,
		UserID: req.LandlordID,
	})
	if err != nil {
		res.Errors = append(res.Errors, (&DependencyError{Op: "create summary notification", Err: err}).Error())
	}

	b.Logger.Info("bulk penalties applied",
		"landlord_id", req.LandlordID,
		"processed", res.Processed,
		"applied", res.PenaltiesApplied,
		"total", res.TotalPenaltyAmount.String(),
		"errors", len(res.Errors))
	return res, nil
}
