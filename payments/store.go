package payments

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// =============================================================================
// REPOSITORY
// =============================================================================

// PaymentFilter narrows FindPayments / CountPayments. Zero values mean
// "no constraint" for every field.
type PaymentFilter struct {
	LandlordID string
	Statuses   []Status

	// DueFrom and DueTo bound the due date inclusively.
	DueFrom *time.Time
	DueTo   *time.Time
	// DueBefore is an exclusive upper bound.
	DueBefore *time.Time

	PenaltyZero     bool // only payments with no penalty
	PenaltyPositive bool // only payments carrying a penalty

	// Ordered by due date descending when Limit > 0, ascending otherwise.
	Offset int
	Limit  int
}

// Repository is the persistence surface the engine needs.
//
// Lookups return (nil, nil) when the record does not exist.
// UpdatePayment compares p.Version with the stored revision and fails with
// *ConflictError on mismatch; on success p.Version and p.UpdatedAt are
// advanced in place.
type Repository interface {
	GetPayment(ctx context.Context, id string) (*Payment, error)
	CreatePayment(ctx context.Context, p *Payment) error
	UpdatePayment(ctx context.Context, p *Payment) error
	// DeletePayment returns *NotFoundError when id is unknown.
	DeletePayment(ctx context.Context, id string) error
	FindPayments(ctx context.Context, f PaymentFilter) ([]Payment, error)
	CountPayments(ctx context.Context, f PaymentFilter) (int, error)

	GetLease(ctx context.Context, id string) (*Lease, error)
	// FindExpiringLeases returns ACTIVE leases whose end date is in [from, to].
	FindExpiringLeases(ctx context.Context, from, to time.Time) ([]Lease, error)

	GetTenant(ctx context.Context, id string) (*Tenant, error)
	GetProperty(ctx context.Context, id string) (*Property, error)
	GetLandlord(ctx context.Context, id string) (*Landlord, error)
}

// =============================================================================
// NOTIFICATION SINK
// =============================================================================

// NotificationSink records in-app notifications and dispatches email.
// Every method may fail independently; the engine reports failures but
// never rolls a payment write back because of them.
type NotificationSink interface {
	CreateNotification(ctx context.Context, n Notification) error
	SendPaymentEmail(ctx context.Context, kind EmailKind, p Payment, customMessage string) error
	SendLeaseEmail(ctx context.Context, l Lease, message string) error
}

// =============================================================================
// REMINDER GUARD
// =============================================================================

// ReminderGuard limits a reminder of one kind to once per subject per day.
// Claim returns true the first time a key is seen within ttl.
type ReminderGuard interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// ReminderKey builds the guard key for kind/subject on the UTC day of at.
func ReminderKey(kind, subjectID string, at time.Time) string {
	return fmt.Sprintf("%s:%s:%s", kind, subjectID, at.UTC().Format(time.DateOnly))
}

// Match reports whether p satisfies every constraint of f except paging.
func (f PaymentFilter) Match(p Payment) bool {
	if f.LandlordID != "" && p.LandlordID != f.LandlordID {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, p.Status) {
		return false
	}
	if f.DueFrom != nil && p.DueDate.Before(*f.DueFrom) {
		return false
	}
	if f.DueTo != nil && p.DueDate.After(*f.DueTo) {
		return false
	}
	if f.DueBefore != nil && !p.DueDate.Before(*f.DueBefore) {
		return false
	}
	if f.PenaltyZero && !p.PenaltyAmount.IsZero() {
		return false
	}
	if f.PenaltyPositive && !p.PenaltyAmount.IsPositive() {
		return false
	}
	return true
}
