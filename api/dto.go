/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Field names are
  camelCase to stay compatible with the dashboard that consumes them.

MONEY:
  Requests decode amounts straight into decimal.Decimal (numbers or
  strings are both accepted). Responses carry float64 so the dashboard
  can do arithmetic without parsing.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
  - payments/types.go: Domain model
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/boma/rent-engine/payments"
)

// =============================================================================
// PAYMENTS
// =============================================================================

type PaymentDTO struct {
	ID            string  `json:"id"`
	LeaseID       string  `json:"leaseId"`
	TenantID      string  `json:"tenantId"`
	PropertyID    string  `json:"propertyId"`
	LandlordID    string  `json:"landlordId"`
	Amount        float64 `json:"amount"`
	DueDate       string  `json:"dueDate"`
	PaidDate      *string `json:"paidDate,omitempty"`
	Status        string  `json:"status"`
	PenaltyAmount float64 `json:"penaltyAmount"`
	TotalDue      float64 `json:"totalDue"`
	PaymentMethod string  `json:"paymentMethod,omitempty"`
	TransactionID string  `json:"transactionId,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	Version       int     `json:"version"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

type CreatePaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	DueDate       string          `json:"dueDate"`
	LeaseID       string          `json:"leaseId"`
	TenantID      string          `json:"tenantId"`
	LandlordID    string          `json:"landlordId"`
	PropertyID    string          `json:"propertyId"`
	PaymentMethod string          `json:"paymentMethod"`
	Notes         string          `json:"notes"`
}

type UpdatePaymentRequest struct {
	Status        *string          `json:"status"`
	PaidDate      *string          `json:"paidDate"`
	PaymentMethod *string          `json:"paymentMethod"`
	TransactionID *string          `json:"transactionId"`
	PenaltyAmount *decimal.Decimal `json:"penaltyAmount"`
	Notes         *string          `json:"notes"`
	Version       *int             `json:"version"`
}

type RecordPaymentRequest struct {
	PaidDate      string `json:"paidDate"`
	PaymentMethod string `json:"paymentMethod"`
	TransactionID string `json:"transactionId"`
}

// MutationResponse wraps every single-payment write.
type MutationResponse struct {
	Message     string     `json:"message"`
	Payment     PaymentDTO `json:"payment"`
	DaysOverdue int        `json:"daysOverdue"`
	Warnings    []string   `json:"warnings,omitempty"`
}

type PaginationDTO struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type PaymentListResponse struct {
	Payments   []PaymentDTO  `json:"payments"`
	Pagination PaginationDTO `json:"pagination"`
}

// =============================================================================
// PENALTIES
// =============================================================================

type RuleRequest struct {
	Type       string           `json:"type"`
	Percentage *decimal.Decimal `json:"percentage"`
	Amount     *decimal.Decimal `json:"amount"`
	DailyRate  *decimal.Decimal `json:"dailyRate"`
}

func (r RuleRequest) toRuleSpec() payments.RuleSpec {
	return payments.RuleSpec{Type: r.Type, Percentage: r.Percentage, Amount: r.Amount, DailyRate: r.DailyRate}
}

// PenaltyRequest applies or waives one payment's penalty. A missing or
// zero PenaltyAmount is computed: from Rule when given, else the default
// daily formula.
type PenaltyRequest struct {
	PaymentID     string           `json:"paymentId"`
	PenaltyAmount *decimal.Decimal `json:"penaltyAmount"`
	Reason        string           `json:"reason"`
	WaiveExisting bool             `json:"waiveExisting"`
	Rule          *RuleRequest     `json:"rule"`
}

type PenaltyResponse struct {
	Message       string     `json:"message"`
	Payment       PaymentDTO `json:"payment"`
	PenaltyAmount float64    `json:"penaltyAmount"`
	DaysOverdue   int        `json:"daysOverdue"`
	Warnings      []string   `json:"warnings,omitempty"`
}

type BulkPenaltyRequest struct {
	LandlordID   string       `json:"landlordId"`
	PenaltyRules *RuleRequest `json:"penaltyRules"`
	Reason       string       `json:"reason"`
}

type ItemResultDTO struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type BulkResultDTO struct {
	Processed          int             `json:"processed"`
	PenaltiesApplied   int             `json:"penaltiesApplied"`
	TotalPenaltyAmount float64         `json:"totalPenaltyAmount"`
	Errors             []string        `json:"errors"`
	Items              []ItemResultDTO `json:"items"`
}

type BulkPenaltyResponse struct {
	Message string        `json:"message"`
	Results BulkResultDTO `json:"results"`
}

type PenaltyStatsDTO struct {
	TotalPenalties    float64 `json:"totalPenalties"`
	PaidPenalties     float64 `json:"paidPenalties"`
	PendingPenalties  float64 `json:"pendingPenalties"`
	TotalPenaltyCount int     `json:"totalPenaltyCount"`
	AveragePenalty    float64 `json:"averagePenalty"`
}

type PenaltyListResponse struct {
	Penalties  []PaymentDTO    `json:"penalties"`
	Statistics PenaltyStatsDTO `json:"statistics"`
}

// =============================================================================
// CRON
// =============================================================================

type RunResultDTO struct {
	UpcomingReminders int             `json:"upcomingReminders"`
	OverdueNotices    int             `json:"overdueNotices"`
	PenaltiesApplied  int             `json:"penaltiesApplied"`
	LeaseNotices      int             `json:"leaseNotices"`
	RemindersSkipped  int             `json:"remindersSkipped"`
	Errors            []string        `json:"errors"`
	Skipped           []string        `json:"skipped"`
	Items             []ItemResultDTO `json:"items"`
	StartedAt         string          `json:"startedAt"`
	FinishedAt        string          `json:"finishedAt"`
}

type CronResponse struct {
	Message string       `json:"message"`
	Results RunResultDTO `json:"results"`
}

// =============================================================================
// EMAILS & NOTIFICATIONS
// =============================================================================

type SendEmailRequest struct {
	Type          string `json:"type"`
	PaymentID     string `json:"paymentId"`
	CustomMessage string `json:"customMessage"`
}

type EmailResultDTO struct {
	PaymentID   string `json:"paymentId"`
	TenantEmail string `json:"tenantEmail"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

type BulkEmailResponse struct {
	Message        string           `json:"message"`
	Results        []EmailResultDTO `json:"results"`
	TotalProcessed int              `json:"totalProcessed"`
	Successful     int              `json:"successful"`
	Failed         int              `json:"failed"`
}

type NotificationDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	UserID    string `json:"userId"`
	CreatedAt string `json:"createdAt"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION
// =============================================================================

func toPaymentDTO(p payments.Payment) PaymentDTO {
	dto := PaymentDTO{
		ID:            p.ID,
		LeaseID:       p.LeaseID,
		TenantID:      p.TenantID,
		PropertyID:    p.PropertyID,
		LandlordID:    p.LandlordID,
		Amount:        p.Amount.InexactFloat64(),
		DueDate:       p.DueDate.UTC().Format(time.RFC3339),
		Status:        string(p.Status),
		PenaltyAmount: p.PenaltyAmount.InexactFloat64(),
		TotalDue:      p.TotalDue().InexactFloat64(),
		PaymentMethod: string(p.PaymentMethod),
		TransactionID: p.TransactionID,
		Notes:         p.Notes,
		Version:       p.Version,
		CreatedAt:     p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     p.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if p.PaidDate != nil {
		s := p.PaidDate.UTC().Format(time.RFC3339)
		dto.PaidDate = &s
	}
	return dto
}

func toPaymentDTOs(ps []payments.Payment) []PaymentDTO {
	out := make([]PaymentDTO, len(ps))
	for i, p := range ps {
		out[i] = toPaymentDTO(p)
	}
	return out
}

func toItemDTOs(items []payments.ItemResult) []ItemResultDTO {
	out := make([]ItemResultDTO, len(items))
	for i, it := range items {
		out[i] = ItemResultDTO{Kind: it.Kind, ID: it.ID, Status: string(it.Status), Error: it.Error}
	}
	return out
}

func toRunResultDTO(r *payments.RunResult) RunResultDTO {
	return RunResultDTO{
		UpcomingReminders: r.UpcomingReminders,
		OverdueNotices:    r.OverdueNotices,
		PenaltiesApplied:  r.PenaltiesApplied,
		LeaseNotices:      r.LeaseNotices,
		RemindersSkipped:  r.RemindersSkipped,
		Errors:            nonNil(r.Errors),
		Skipped:           nonNil(r.Skipped),
		Items:             toItemDTOs(r.Items),
		StartedAt:         r.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt:        r.FinishedAt.UTC().Format(time.RFC3339),
	}
}

func toBulkResultDTO(r *payments.BulkResult) BulkResultDTO {
	return BulkResultDTO{
		Processed:          r.Processed,
		PenaltiesApplied:   r.PenaltiesApplied,
		TotalPenaltyAmount: r.TotalPenaltyAmount.InexactFloat64(),
		Errors:             nonNil(r.Errors),
		Items:              toItemDTOs(r.Items),
	}
}

func toNotificationDTO(n payments.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		UserID:    n.UserID,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// nonNil keeps empty lists as [] rather than null in JSON.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
