/*
lifecycle.go - Mutations on a single payment

STATE MACHINE:

	PENDING ──(> OverdueAfterDays late, via ApplyPenalty)──> OVERDUE
	   │                                                      │
	   └──────────────(RecordPayment)──────> PAID <───────────┘

	PARTIAL is only reachable through Update (landlord edit).

WRITE PATH:
  Every operation copies the payment, changes the copy, and writes it with
  the revision it was read at. A concurrent writer makes UpdatePayment fail
  with *ConflictError and the caller's value is left untouched.

SIDE EFFECTS:
  After a successful write the sink is told about it. Sink failures turn
  into Mutation.Warnings; they never undo the write.
*/
package payments

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lifecycle applies policy actions to individual payments.
type Lifecycle struct {
	Repo     Repository
	Sink     NotificationSink
	Policy   PenaltyPolicy
	Currency string
	Logger   *slog.Logger

	// Now is the clock used for overdue checks and notes. Defaults to time.Now.
	Now func() time.Time
}

func NewLifecycle(repo Repository, sink NotificationSink, policy PenaltyPolicy, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{
		Repo:     repo,
		Sink:     sink,
		Policy:   policy,
		Currency: "KES",
		Logger:   logger,
		Now:      time.Now,
	}
}

// Mutation is the outcome of one successful write.
type Mutation struct {
	Payment     Payment
	DaysOverdue int
	// Warnings carries sink failures that happened after the write.
	Warnings []string
}

func (l *Lifecycle) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

// Money formats an amount in the lifecycle's currency.
func (l *Lifecycle) Money(d decimal.Decimal) string {
	return FormatMoney(l.Currency, d)
}

// Load fetches a payment or fails with *NotFoundError.
func (l *Lifecycle) Load(ctx context.Context, id string) (*Payment, error) {
	p, err := l.Repo.GetPayment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load payment %s: %w", id, err)
	}
	if p == nil {
		return nil, &NotFoundError{Kind: "payment", ID: id}
	}
	return p, nil
}

// =============================================================================
// CREATE
// =============================================================================

type NewPayment struct {
	LeaseID       string
	TenantID      string
	PropertyID    string
	LandlordID    string
	Amount        decimal.Decimal
	DueDate       time.Time
	PaymentMethod Method
	Notes         string
}

// Create inserts a PENDING payment after checking that the lease belongs
// to the stated tenant, property and landlord.
func (l *Lifecycle) Create(ctx context.Context, in NewPayment) (*Mutation, error) {
	switch {
	case in.LeaseID == "":
		return nil, Invalid("leaseId", "is required")
	case in.TenantID == "":
		return nil, Invalid("tenantId", "is required")
	case in.PropertyID == "":
		return nil, Invalid("propertyId", "is required")
	case in.LandlordID == "":
		return nil, Invalid("landlordId", "is required")
	case in.DueDate.IsZero():
		return nil, Invalid("dueDate", "is required")
	case !in.Amount.IsPositive():
		return nil, Invalid("amount", "must be positive")
	case in.PaymentMethod != "" && !in.PaymentMethod.Valid():
		return nil, Invalid("paymentMethod", "unknown method %q", in.PaymentMethod)
	}

	lease, err := l.Repo.GetLease(ctx, in.LeaseID)
	if err != nil {
		return nil, fmt.Errorf("load lease %s: %w", in.LeaseID, err)
	}
	if lease == nil ||
		lease.TenantID != in.TenantID ||
		lease.PropertyID != in.PropertyID ||
		lease.LandlordID != in.LandlordID {
		return nil, &AuthorizationError{Reason: "Invalid lease or unauthorized access", Forbidden: true}
	}

	now := l.now().UTC()
	p := Payment{
		ID:            uuid.NewString(),
		LeaseID:       in.LeaseID,
		TenantID:      in.TenantID,
		PropertyID:    in.PropertyID,
		LandlordID:    in.LandlordID,
		Amount:        in.Amount,
		DueDate:       in.DueDate.UTC(),
		Status:        StatusPending,
		PenaltyAmount: decimal.Zero,
		PaymentMethod: in.PaymentMethod,
		Notes:         in.Notes,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := l.Repo.CreatePayment(ctx, &p); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	l.Logger.Info("payment created", "payment_id", p.ID, "lease_id", p.LeaseID, "amount", p.Amount.String())
	return &Mutation{Payment: p, DaysOverdue: DaysOverdue(p.DueDate, now)}, nil
}

// =============================================================================
// PENALTIES
// =============================================================================

type PenaltyInput struct {
	Amount decimal.Decimal
	Reason string
	// SuppressNotice skips the overdue-notice email, for callers that
	// already sent one.
	SuppressNotice bool
}

// ApplyPenalty sets the payment's penalty to in.Amount. The payment must be
// past due; otherwise a *PolicyError is returned and nothing is written.
func (l *Lifecycle) ApplyPenalty(ctx context.Context, p *Payment, in PenaltyInput) (*Mutation, error) {
	now := l.now()
	days := DaysOverdue(p.DueDate, now)
	if days <= 0 {
		return nil, &PolicyError{PaymentID: p.ID, DaysOverdue: days, Err: ErrNotOverdue}
	}
	if in.Amount.IsNegative() {
		return nil, Invalid("penaltyAmount", "must not be negative")
	}

	next := *p
	next.PenaltyAmount = in.Amount
	next.Status = l.Policy.ResultingStatus(p.Status, days)
	next.Notes = appendNote(p.Notes, now, fmt.Sprintf("Penalty applied: %s (%d days overdue). Reason: %s",
		l.Money(in.Amount), days, reasonOr(in.Reason, "Late payment")))

	if err := l.Repo.UpdatePayment(ctx, &next); err != nil {
		return nil, err
	}

	m := &Mutation{Payment: next, DaysOverdue: days}
	l.Logger.Info("penalty applied",
		"payment_id", next.ID, "amount", in.Amount.String(), "days_overdue", days, "status", next.Status)

	l.notify(ctx, m, Notification{
		Title:   "Penalty Applied",
		Message: fmt.Sprintf("A late penalty of %s was applied to payment %s (%d days overdue)", l.Money(in.Amount), next.ID, days),
		Type:    NotifyPenaltyApplied,
		UserID:  next.LandlordID,
	})
	if !in.SuppressNotice {
		msg := fmt.Sprintf("A late penalty of %s has been applied to your rent payment. Reason: %s",
			l.Money(in.Amount), reasonOr(in.Reason, "Late payment"))
		if err := l.Sink.SendPaymentEmail(ctx, EmailOverdueNotice, next, msg); err != nil {
			l.warn(m, "send overdue notice", err)
		}
	}
	return m, nil
}

// WaivePenalty clears the penalty and records what was waived. Waiving a
// payment with no penalty still writes the note.
func (l *Lifecycle) WaivePenalty(ctx context.Context, p *Payment, reason string) (*Mutation, error) {
	now := l.now()
	waived := p.PenaltyAmount

	next := *p
	next.PenaltyAmount = decimal.Zero
	next.Notes = appendNote(p.Notes, now, fmt.Sprintf("Penalty waived: %s. Reason: %s",
		l.Money(waived), reasonOr(reason, "Waived by landlord")))

	if err := l.Repo.UpdatePayment(ctx, &next); err != nil {
		return nil, err
	}

	m := &Mutation{Payment: next, DaysOverdue: DaysOverdue(next.DueDate, now)}
	l.Logger.Info("penalty waived", "payment_id", next.ID, "waived", waived.String())

	l.notify(ctx, m, Notification{
		Title:   "Penalty Waived",
		Message: fmt.Sprintf("A penalty of %s was waived on payment %s", l.Money(waived), next.ID),
		Type:    NotifyPenaltyWaived,
		UserID:  next.LandlordID,
	})
	return m, nil
}

// =============================================================================
// RECORD PAYMENT
// =============================================================================

type RecordInput struct {
	PaidDate      time.Time // zero means now
	Method        Method
	TransactionID string
}

// RecordPayment marks the payment PAID.
func (l *Lifecycle) RecordPayment(ctx context.Context, p *Payment, in RecordInput) (*Mutation, error) {
	if in.Method != "" && !in.Method.Valid() {
		return nil, Invalid("paymentMethod", "unknown method %q", in.Method)
	}
	now := l.now()
	paid := in.PaidDate
	if paid.IsZero() {
		paid = now
	}
	paid = paid.UTC()

	next := *p
	next.Status = StatusPaid
	next.PaidDate = &paid
	if in.Method != "" {
		next.PaymentMethod = in.Method
	}
	if in.TransactionID != "" {
		next.TransactionID = in.TransactionID
	}
	line := "Payment recorded"
	if next.PaymentMethod != "" {
		line += " via " + string(next.PaymentMethod)
	}
	if next.TransactionID != "" {
		line += " (ref " + next.TransactionID + ")"
	}
	next.Notes = appendNote(p.Notes, now, line)

	if err := l.Repo.UpdatePayment(ctx, &next); err != nil {
		return nil, err
	}

	m := &Mutation{Payment: next, DaysOverdue: DaysOverdue(next.DueDate, paid)}
	l.Logger.Info("payment recorded", "payment_id", next.ID, "method", next.PaymentMethod)

	l.notify(ctx, m, Notification{
		Title:   "Payment Received",
		Message: fmt.Sprintf("Payment of %s received for payment %s", l.Money(next.TotalDue()), next.ID),
		Type:    NotifyPaymentReceived,
		UserID:  next.LandlordID,
	})
	if err := l.Sink.SendPaymentEmail(ctx, EmailPaymentConfirmation, next, ""); err != nil {
		l.warn(m, "send payment confirmation", err)
	}
	return m, nil
}

// =============================================================================
// DIRECT UPDATE
// =============================================================================

// PaymentPatch is a partial landlord edit. Nil fields are left alone.
type PaymentPatch struct {
	Status        *Status
	PaidDate      *time.Time
	PaymentMethod *Method
	TransactionID *string
	PenaltyAmount *decimal.Decimal
	Notes         *string

	// Version, when set, must match the stored revision.
	Version *int
}

func (l *Lifecycle) Update(ctx context.Context, p *Payment, patch PaymentPatch) (*Mutation, error) {
	if patch.Version != nil && *patch.Version != p.Version {
		return nil, &ConflictError{PaymentID: p.ID, ExpectedVersion: *patch.Version}
	}

	next := *p
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, Invalid("status", "unknown status %q", *patch.Status)
		}
		next.Status = *patch.Status
	}
	if patch.PenaltyAmount != nil {
		if patch.PenaltyAmount.IsNegative() {
			return nil, Invalid("penaltyAmount", "must not be negative")
		}
		next.PenaltyAmount = *patch.PenaltyAmount
	}
	if patch.PaymentMethod != nil {
		if *patch.PaymentMethod != "" && !patch.PaymentMethod.Valid() {
			return nil, Invalid("paymentMethod", "unknown method %q", *patch.PaymentMethod)
		}
		next.PaymentMethod = *patch.PaymentMethod
	}
	if patch.PaidDate != nil {
		paid := patch.PaidDate.UTC()
		next.PaidDate = &paid
	}
	if patch.TransactionID != nil {
		next.TransactionID = *patch.TransactionID
	}
	if patch.Notes != nil {
		next.Notes = *patch.Notes
	}

	now := l.now()
	if next.Status == StatusPaid && next.PaidDate == nil {
		paid := now.UTC()
		next.PaidDate = &paid
	}

	if err := l.Repo.UpdatePayment(ctx, &next); err != nil {
		return nil, err
	}

	m := &Mutation{Payment: next, DaysOverdue: DaysOverdue(next.DueDate, now)}
	l.Logger.Info("payment updated", "payment_id", next.ID, "status", next.Status, "version", next.Version)

	l.notify(ctx, m, Notification{
		Title:   "Payment Updated",
		Message: fmt.Sprintf("Payment %s was updated (status %s)", next.ID, next.Status),
		Type:    NotifyPaymentUpdated,
		UserID:  next.LandlordID,
	})
	return m, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (l *Lifecycle) notify(ctx context.Context, m *Mutation, n Notification) {
	if err := l.Sink.CreateNotification(ctx, n); err != nil {
		l.warn(m, "create notification", err)
	}
}

func (l *Lifecycle) warn(m *Mutation, op string, err error) {
	derr := &DependencyError{Op: op, Err: err}
	m.Warnings = append(m.Warnings, derr.Error())
	l.Logger.Warn("notification sink failed", "payment_id", m.Payment.ID, "op", op, "error", err)
}

// appendNote adds a dated line. Existing notes are never rewritten.
func appendNote(notes string, at time.Time, line string) string {
	entry := fmt.Sprintf("[%s] %s", at.UTC().Format(time.DateOnly), line)
	if strings.TrimSpace(notes) == "" {
		return entry
	}
	return notes + "\n" + entry
}

func reasonOr(reason, fallback string) string {
	if r := strings.TrimSpace(reason); r != "" {
		return r
	}
	return fallback
}

// FormatMoney renders d as "KES 45,000" or "KES 1,234.50".
func FormatMoney(currency string, d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole := d.Truncate(0)
	frac := d.Sub(whole)

	digits := whole.String()
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := sign + b.String()
	if !frac.IsZero() {
		out += "." + frac.StringFixed(2)[2:]
	}
	if currency == "" {
		return out
	}
	return currency + " " + out
}
