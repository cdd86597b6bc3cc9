/*
handlers.go - HTTP API handlers for the rent payment engine

PURPOSE:
  Exposes the payment lifecycle, penalty engine and reminder job via REST.
  Handlers parse and validate HTTP input, call into payments, and map the
  engine's error taxonomy onto status codes.

ENDPOINTS:
  Payments:
    GET    /api/payments?landlordId&status&page&limit  Paginated listing
    POST   /api/payments                               Create (403 on lease mismatch)
    GET    /api/payments/{id}                          Fetch one
    PATCH  /api/payments/{id}                          Partial update
    DELETE /api/payments/{id}                          Hard delete
    POST   /api/payments/{id}/record                   Mark paid

  Penalties (penalties.go):
    GET    /api/penalties?landlordId&status            Listing plus statistics
    POST   /api/penalties                              Apply or waive one
    PUT    /api/penalties                              Bulk apply

  Jobs, email, notifications (cron.go, emails.go):
    GET    /api/cron/payment-reminders?secret=         Run the reminder job
    POST   /api/emails                                 Send one payment email
    GET    /api/emails?landlordId&type                 Bulk upcoming/overdue emails
    GET    /api/notifications?userId&limit             Recent notifications

ERROR HANDLING:
  Errors are returned as JSON {"error", "details"} with:
  - 400: ValidationError, PolicyError, malformed JSON
  - 401: bad cron secret
  - 403: lease does not belong to the stated landlord/tenant/property
  - 404: unknown payment, lease, landlord
  - 409: version conflict
  - 429: cron endpoint rate limit
  - 500: anything else (details are logged, not returned)

SECURITY NOTE:
  Session auth is handled in front of this service. Only the cron trigger
  is gated here.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/boma/rent-engine/payments"
	"github.com/boma/rent-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Lifecycle *payments.Lifecycle
	Reminders *payments.ReminderJob
	Bulk      *payments.BulkPenalty
	Logger    *slog.Logger

	cronSecret  string
	cronLimiter *rate.Limiter

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// Options carries the settings that are not part of the engine itself.
type Options struct {
	CronSecret string
	// CronRatePerMinute <= 0 disables rate limiting.
	CronRatePerMinute float64
	CronBurst         int

	Job   payments.JobConfig
	Guard payments.ReminderGuard
}

// NewHandler wires the reminder job and bulk operation around lc.
func NewHandler(store *sqlite.Store, lc *payments.Lifecycle, opts Options, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.CronRatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.CronRatePerMinute/60), max(opts.CronBurst, 1))
	}
	return &Handler{
		Store:       store,
		Lifecycle:   lc,
		Reminders:   payments.NewReminderJob(lc, opts.Guard, opts.Job, logger),
		Bulk:        payments.NewBulkPenalty(lc, opts.Job.Workers, logger),
		Logger:      logger,
		cronSecret:  opts.CronSecret,
		cronLimiter: limiter,
	}
}

func (h *Handler) now() time.Time {
	if h.Lifecycle.Now == nil {
		return time.Now()
	}
	return h.Lifecycle.Now()
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// ListPayments returns one landlord's payments, newest due date first.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	landlordID := q.Get("landlordId")
	if landlordID == "" {
		writeError(w, http.StatusBadRequest, "Landlord ID is required", nil)
		return
	}

	filter := payments.PaymentFilter{LandlordID: landlordID}
	if s := q.Get("status"); s != "" && s != "all" {
		status := payments.Status(strings.ToUpper(s))
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "Invalid status", fmt.Errorf("unknown status %q", s))
			return
		}
		filter.Statuses = []payments.Status{status}
	}

	page, err := intParam(q.Get("page"), 1, 1, maxPage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid page", err)
		return
	}
	limit, err := intParam(q.Get("limit"), 10, 1, 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}
	filter.Offset = (page - 1) * limit
	filter.Limit = limit

	ctx := r.Context()
	list, err := h.Store.FindPayments(ctx, filter)
	if err != nil {
		h.fail(w, r, "Failed to list payments", err)
		return
	}
	total, err := h.Store.CountPayments(ctx, filter)
	if err != nil {
		h.fail(w, r, "Failed to count payments", err)
		return
	}

	writeJSON(w, http.StatusOK, PaymentListResponse{
		Payments: toPaymentDTOs(list),
		Pagination: PaginationDTO{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: (total + limit - 1) / limit,
		},
	})
}

// CreatePayment schedules a PENDING payment against a lease.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if !decode(w, r, &req) {
		return
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid dueDate", err)
		return
	}

	m, err := h.Lifecycle.Create(r.Context(), payments.NewPayment{
		LeaseID:       req.LeaseID,
		TenantID:      req.TenantID,
		PropertyID:    req.PropertyID,
		LandlordID:    req.LandlordID,
		Amount:        req.Amount,
		DueDate:       due,
		PaymentMethod: payments.Method(req.PaymentMethod),
		Notes:         req.Notes,
	})
	if err != nil {
		h.fail(w, r, "Failed to create payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, mutationResponse("Payment recorded successfully", m))
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.Lifecycle.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Payment not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(*p))
}

// UpdatePayment applies a partial edit. A "version" in the body turns on
// the optimistic check against the stored revision.
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req UpdatePaymentRequest
	if !decode(w, r, &req) {
		return
	}

	patch := payments.PaymentPatch{
		TransactionID: req.TransactionID,
		PenaltyAmount: req.PenaltyAmount,
		Notes:         req.Notes,
		Version:       req.Version,
	}
	if req.Status != nil {
		s := payments.Status(strings.ToUpper(*req.Status))
		patch.Status = &s
	}
	if req.PaymentMethod != nil {
		m := payments.Method(*req.PaymentMethod)
		patch.PaymentMethod = &m
	}
	if req.PaidDate != nil {
		paid, err := parseDate(*req.PaidDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid paidDate", err)
			return
		}
		patch.PaidDate = &paid
	}

	p, err := h.Lifecycle.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Payment not found", err)
		return
	}
	m, err := h.Lifecycle.Update(r.Context(), p, patch)
	if err != nil {
		h.fail(w, r, "Failed to update payment", err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse("Payment updated successfully", m))
}

func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeletePayment(r.Context(), id); err != nil {
		h.fail(w, r, "Failed to delete payment", err)
		return
	}
	h.Logger.Info("payment deleted", "payment_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Payment deleted successfully"})
}

// RecordPayment marks a payment PAID and sends the confirmation email.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if !decode(w, r, &req) {
		return
	}
	in := payments.RecordInput{
		Method:        payments.Method(req.PaymentMethod),
		TransactionID: req.TransactionID,
	}
	if req.PaidDate != "" {
		paid, err := parseDate(req.PaidDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid paidDate", err)
			return
		}
		in.PaidDate = paid
	}

	p, err := h.Lifecycle.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Payment not found", err)
		return
	}
	m, err := h.Lifecycle.RecordPayment(r.Context(), p, in)
	if err != nil {
		h.fail(w, r, "Failed to record payment", err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse("Payment marked as paid", m))
}

// =============================================================================
// NOTIFICATIONS & HEALTH
// =============================================================================

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"), 50, 1, 500)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}
	list, err := h.Store.ListNotifications(r.Context(), r.URL.Query().Get("userId"), limit)
	if err != nil {
		h.fail(w, r, "Failed to list notifications", err)
		return
	}
	dtos := make([]NotificationDTO, len(list))
	for i, n := range list {
		dtos[i] = toNotificationDTO(n)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusFor maps the engine's error taxonomy onto HTTP.
func statusFor(err error) int {
	var authErr *payments.AuthorizationError
	switch {
	case errors.As(err, &authErr):
		if authErr.Forbidden {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case errors.Is(err, payments.ErrValidation), errors.Is(err, payments.ErrPolicy):
		return http.StatusBadRequest
	case errors.Is(err, payments.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, payments.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes err with the status its type calls for. Client errors carry
// their own message; server errors are logged and answered generically.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, fallback string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error(fallback, "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, "Internal server error", nil)
		return
	}
	var authErr *payments.AuthorizationError
	if errors.As(err, &authErr) {
		writeError(w, status, authErr.Reason, nil)
		return
	}
	if status == http.StatusNotFound {
		writeError(w, status, fallback, err)
		return
	}
	writeError(w, status, err.Error(), nil)
}

// decode reads a JSON body, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return false
	}
	return true
}

// parseDate accepts RFC 3339 timestamps or plain YYYY-MM-DD dates (UTC midnight).
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC 3339 or YYYY-MM-DD, got %q", s)
	}
	return t, nil
}

// maxPage keeps (page-1)*limit inside int for any limit up to 100.
const maxPage = math.MaxInt / 100

// intParam parses an optional positive query parameter. hi <= 0 means no cap.
func intParam(s string, def, lo, hi int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo {
		return 0, fmt.Errorf("expected an integer >= %d, got %q", lo, s)
	}
	if hi > 0 && n > hi {
		n = hi
	}
	return n, nil
}

func mutationResponse(msg string, m *payments.Mutation) MutationResponse {
	return MutationResponse{
		Message:     msg,
		Payment:     toPaymentDTO(m.Payment),
		DaysOverdue: m.DaysOverdue,
		Warnings:    m.Warnings,
	}
}
