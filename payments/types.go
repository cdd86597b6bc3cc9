/*
Package payments provides the rent payment lifecycle and penalty engine.

PURPOSE:
  Decides when a scheduled rent payment becomes overdue, how a late penalty
  is computed, how penalties are waived or bulk-applied, and how the
  recurring reminder job walks the payment ledger.

KEY CONCEPTS IN THIS FILE (types.go):
  - Payment: one scheduled or recorded rent charge tied to a lease
  - Lease: contract binding a tenant to a property for a date range
  - Tenant / Property / Landlord: read-only lookup records
  - Notification: audit record written whenever the engine acts

MONEY:
  All amounts are decimal.Decimal. Floats only appear at the API boundary.

SEE ALSO:
  - policy.go: Penalty computation
  - lifecycle.go: Payment mutations
  - reminders.go: Recurring reminder job
  - bulk.go: Landlord-scoped bulk penalties
*/
package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PAYMENT
// =============================================================================

type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
	StatusOverdue Status = "OVERDUE"
	StatusPartial Status = "PARTIAL"
)

// Valid reports whether s is one of the known payment statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue, StatusPartial:
		return true
	}
	return false
}

type Method string

const (
	MethodCash         Method = "CASH"
	MethodBankTransfer Method = "BANK_TRANSFER"
	MethodMobileMoney  Method = "MOBILE_MONEY"
	MethodCheck        Method = "CHECK"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodMobileMoney, MethodCheck:
		return true
	}
	return false
}

// Payment is the unit of work for the engine.
//
// INVARIANTS:
//   - PenaltyAmount >= 0
//   - Status == StatusPaid implies PaidDate != nil
//   - Version increases by one on every successful write
type Payment struct {
	ID            string
	LeaseID       string
	TenantID      string
	PropertyID    string
	LandlordID    string
	Amount        decimal.Decimal
	DueDate       time.Time
	PaidDate      *time.Time
	Status        Status
	PenaltyAmount decimal.Decimal
	PaymentMethod Method
	TransactionID string
	Notes         string
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TotalDue is rent plus any penalty currently carried.
func (p Payment) TotalDue() decimal.Decimal {
	return p.Amount.Add(p.PenaltyAmount)
}

// HasPenalty reports whether a non-zero penalty is carried.
func (p Payment) HasPenalty() bool {
	return !p.PenaltyAmount.IsZero()
}

// =============================================================================
// LEASE AND LOOKUP RECORDS
// =============================================================================

type LeaseStatus string

const (
	LeaseActive     LeaseStatus = "ACTIVE"
	LeasePending    LeaseStatus = "PENDING"
	LeaseEnded      LeaseStatus = "ENDED"
	LeaseTerminated LeaseStatus = "TERMINATED"
)

type Lease struct {
	ID          string
	TenantID    string
	PropertyID  string
	LandlordID  string
	StartDate   time.Time
	EndDate     time.Time
	MonthlyRent decimal.Decimal
	Status      LeaseStatus
}

type Tenant struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

func (t Tenant) FullName() string {
	if t.LastName == "" {
		return t.FirstName
	}
	return t.FirstName + " " + t.LastName
}

type Property struct {
	ID         string
	LandlordID string
	Title      string
	Address    string
	City       string
}

type Landlord struct {
	ID    string
	Name  string
	Email string
}

// =============================================================================
// NOTIFICATION
// =============================================================================

type NotificationType string

const (
	NotifyPaymentReminder NotificationType = "PAYMENT_REMINDER"
	NotifyOverdueNotice   NotificationType = "OVERDUE_NOTICE"
	NotifyPenaltyApplied  NotificationType = "PENALTY_APPLIED"
	NotifyPenaltyWaived   NotificationType = "PENALTY_WAIVED"
	NotifyPaymentReceived NotificationType = "PAYMENT_RECEIVED"
	NotifyPaymentUpdated  NotificationType = "PAYMENT_UPDATED"
	NotifyLeaseExpiry     NotificationType = "LEASE_EXPIRY"
	NotifyCronJob         NotificationType = "CRON_JOB"
	NotifyBulkPenalties   NotificationType = "BULK_PENALTIES"
	NotifyEmailSent       NotificationType = "EMAIL_SENT"
)

// SystemUserID receives notifications that belong to no landlord (job summaries).
const SystemUserID = "system"

// Notification is write-only from the engine's perspective.
type Notification struct {
	ID        string
	Title     string
	Message   string
	Type      NotificationType
	UserID    string
	CreatedAt time.Time
}

// EmailKind selects the outbound template for a payment email.
type EmailKind string

const (
	EmailPaymentReminder     EmailKind = "PAYMENT_REMINDER"
	EmailOverdueNotice       EmailKind = "OVERDUE_NOTICE"
	EmailPaymentConfirmation EmailKind = "PAYMENT_CONFIRMATION"
)

func (k EmailKind) Valid() bool {
	switch k {
	case EmailPaymentReminder, EmailOverdueNotice, EmailPaymentConfirmation:
		return true
	}
	return false
}
