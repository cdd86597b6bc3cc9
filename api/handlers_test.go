/*
handlers_test.go - HTTP tests for the payment, penalty, cron and email endpoints

Every test runs the real router over an in-memory sqlite store with the
production notification sink; only the mail transport is captured.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boma/rent-engine/notify"
	"github.com/boma/rent-engine/payments"
	"github.com/boma/rent-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

const testSecret = "cron-s3cret"

type capturingSender struct {
	mu      sync.Mutex
	to      []string
	subject []string
	err     error
}

func (c *capturingSender) Send(_ context.Context, to []string, subject string, _ []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.to = append(c.to, to...)
	c.subject = append(c.subject, subject)
	return nil
}

func (c *capturingSender) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subject)
}

type testEnv struct {
	store  *sqlite.Store
	h      *Handler
	router http.Handler
	sender *capturingSender
}

func newTestEnv(t *testing.T, tweak ...func(*Options)) *testEnv {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.SaveLandlord(ctx, payments.Landlord{ID: "landlord-1", Name: "Amina Otieno", Email: "amina@example.com"}))
	require.NoError(t, store.SaveLandlord(ctx, payments.Landlord{ID: "landlord-2", Name: "Baraka Mwangi", Email: "baraka@example.com"}))
	require.NoError(t, store.SaveTenant(ctx, payments.Tenant{ID: "tenant-1", FirstName: "Juma", LastName: "Kariuki", Email: "juma@example.com"}))
	require.NoError(t, store.SaveProperty(ctx, payments.Property{ID: "property-1", LandlordID: "landlord-1", Title: "Sunrise Apartments", City: "Nairobi"}))
	require.NoError(t, store.SaveLease(ctx, payments.Lease{
		ID: "lease-1", TenantID: "tenant-1", PropertyID: "property-1", LandlordID: "landlord-1",
		StartDate: testNow.AddDate(-1, 0, 0), EndDate: testNow.AddDate(1, 0, 0),
		MonthlyRent: decimal.NewFromInt(45000), Status: payments.LeaseActive,
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sender := &capturingSender{}
	sink := notify.NewSink(store, store, sender, logger)
	sink.Now = func() time.Time { return testNow }

	lc := payments.NewLifecycle(store, sink, payments.DefaultPolicy(), logger)
	lc.Now = func() time.Time { return testNow }

	opts := Options{CronSecret: testSecret, Job: payments.DefaultJobConfig()}
	for _, f := range tweak {
		f(&opts)
	}
	h := NewHandler(store, lc, opts, logger)
	return &testEnv{store: store, h: h, router: NewRouter(h, nil), sender: sender}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedPayment(t *testing.T, id string, amount int64, due time.Time) {
	t.Helper()
	p := payments.Payment{
		ID: id, LeaseID: "lease-1", TenantID: "tenant-1", PropertyID: "property-1", LandlordID: "landlord-1",
		Amount: decimal.NewFromInt(amount), DueDate: due,
		Status: payments.StatusPending, PenaltyAmount: decimal.Zero,
	}
	require.NoError(t, e.store.CreatePayment(context.Background(), &p))
}

func (e *testEnv) payment(t *testing.T, id string) *payments.Payment {
	t.Helper()
	p, err := e.store.GetPayment(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func (e *testEnv) notifications(t *testing.T) []payments.Notification {
	t.Helper()
	list, err := e.store.ListNotifications(context.Background(), "", 0)
	require.NoError(t, err)
	return list
}

func decodeAs[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func daysAgo(n int) time.Time { return testNow.AddDate(0, 0, -n) }

// =============================================================================
// CRON
// =============================================================================

func TestRunReminders_WrongSecret_NoMutations(t *testing.T) {
	// GIVEN: An overdue payment and a configured secret
	// WHEN: The cron endpoint is called with a wrong or missing secret
	// THEN: 401, the payment is untouched, nothing is recorded

	env := newTestEnv(t)
	env.seedPayment(t, "pay-1", 45000, daysAgo(10))

	for _, path := range []string{
		"/api/cron/payment-reminders?secret=guess",
		"/api/cron/payment-reminders",
	} {
		rec := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	p := env.payment(t, "pay-1")
	assert.True(t, p.PenaltyAmount.IsZero())
	assert.Equal(t, payments.StatusPending, p.Status)
	assert.Equal(t, 1, p.Version)
	assert.Empty(t, env.notifications(t))
	assert.Zero(t, env.sender.count())
}

func TestRunReminders_NoSecretConfigured_RejectsAll(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.CronSecret = "" })
	rec := env.do(t, http.MethodGet, "/api/cron/payment-reminders?secret=", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRunReminders_RunsJob(t *testing.T) {
	env := newTestEnv(t)
	env.seedPayment(t, "pay-late", 45000, daysAgo(10))
	env.seedPayment(t, "pay-soon", 30000, testNow.AddDate(0, 0, 2))

	rec := env.do(t, http.MethodGet, "/api/cron/payment-reminders?secret="+testSecret, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeAs[CronResponse](t, rec)
	assert.Equal(t, 1, resp.Results.UpcomingReminders)
	assert.Equal(t, 1, resp.Results.OverdueNotices)
	assert.Equal(t, 1, resp.Results.PenaltiesApplied)
	assert.Empty(t, resp.Results.Errors)

	p := env.payment(t, "pay-late")
	assert.Equal(t, "2250", p.PenaltyAmount.String())
	assert.Equal(t, payments.StatusOverdue, p.Status)
	assert.Equal(t, 2, env.sender.count())
}

func TestRunReminders_RateLimited(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		o.CronRatePerMinute = 1
		o.CronBurst = 1
	})

	first := env.do(t, http.MethodGet, "/api/cron/payment-reminders?secret="+testSecret, nil)
	assert.Equal(t, http.StatusOK, first.Code)
	second := env.do(t, http.MethodGet, "/api/cron/payment-reminders?secret="+testSecret, nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

// =============================================================================
// PAYMENTS
// =============================================================================

func TestCreatePayment(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/payments", map[string]any{
		"amount": 45000, "dueDate": "2026-04-01",
		"leaseId": "lease-1", "tenantId": "tenant-1", "landlordId": "landlord-1", "propertyId": "property-1",
		"paymentMethod": "MOBILE_MONEY",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeAs[MutationResponse](t, rec)
	assert.Equal(t, "PENDING", resp.Payment.Status)
	assert.Equal(t, 1, resp.Payment.Version)
	assert.Equal(t, 45000.0, resp.Payment.Amount)
	assert.Equal(t, "2026-04-01T00:00:00Z", resp.Payment.DueDate)
}

func TestCreatePayment_LeaseMismatch_Forbidden(t *testing.T) {
	// GIVEN: lease-1 belongs to landlord-1
	// WHEN: landlord-2 tries to create a payment against it
	// THEN: 403 and no record is created

	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/payments", map[string]any{
		"amount": 45000, "dueDate": "2026-04-01",
		"leaseId": "lease-1", "tenantId": "tenant-1", "landlordId": "landlord-2", "propertyId": "property-1",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid lease or unauthorized access", decodeAs[ErrorResponse](t, rec).Error)

	n, err := env.store.CountPayments(context.Background(), payments.PaymentFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreatePayment_BadInput(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name string
		body any
	}{
		{"missing amount", map[string]any{"dueDate": "2026-04-01", "leaseId": "lease-1", "tenantId": "tenant-1", "landlordId": "landlord-1", "propertyId": "property-1"}},
		{"missing lease", map[string]any{"amount": 100, "dueDate": "2026-04-01", "tenantId": "tenant-1", "landlordId": "landlord-1", "propertyId": "property-1"}},
		{"bad date", map[string]any{"amount": 100, "dueDate": "April 1st", "leaseId": "lease-1", "tenantId": "tenant-1", "landlordId": "landlord-1", "propertyId": "property-1"}},
		{"bad method", map[string]any{"amount": 100, "dueDate": "2026-04-01", "leaseId": "lease-1", "tenantId": "tenant-1", "landlordId": "landlord-1", "propertyId": "property-1", "paymentMethod": "BITCOIN"}},
		{"not json", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/payments", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestListPayments_Pagination(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 12; i++ {
		env.seedPayment(t, fmt.Sprintf("pay-%02d", i), 45000, testNow.AddDate(0, i, 0))
	}

	rec := env.do(t, http.MethodGet, "/api/payments?landlordId=landlord-1&page=3&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeAs[PaymentListResponse](t, rec)

	assert.Equal(t, PaginationDTO{Total: 12, Page: 3, Limit: 5, TotalPages: 3}, resp.Pagination)
	require.Len(t, resp.Payments, 2)
	assert.Equal(t, "pay-01", resp.Payments[0].ID, "newest due date first")
	assert.Equal(t, "pay-00", resp.Payments[1].ID)

	rec = env.do(t, http.MethodGet, "/api/payments?landlordId=landlord-1&page=500000000000000000&limit=100", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	far := decodeAs[PaymentListResponse](t, rec)
	assert.Empty(t, far.Payments)
	assert.Equal(t, maxPage, far.Pagination.Page)
	assert.Equal(t, 12, far.Pagination.Total)

	rec = env.do(t, http.MethodGet, "/api/payments", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/payments?landlordId=landlord-1&status=LOST", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePayment(t *testing.T) {
	env := newTestEnv(t)
	env.seedPayment(t, "pay-1", 45000, daysAgo(3))

	rec := env.do(t, http.MethodPatch, "/api/payments/pay-1", map[string]any{"status": "PAID", "transactionId": "MPESA123", "version": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeAs[MutationResponse](t, rec)
	assert.Equal(t, "PAID", resp.Payment.Status)
	require.NotNil(t, resp.Payment.PaidDate, "PAID without a date is stamped")
	assert.Equal(t, 2, resp.Payment.Version)

	rec = env.do(t, http.MethodPatch, "/api/payments/pay-1", map[string]any{"notes": "stale", "version": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/payments/pay-1", map[string]any{"penaltyAmount": -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/payments/ghost", map[string]any{"notes": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeletePayment(t *testing.T) {
	env := newTestEnv(t)
	env.seedPayment(t, "pay-1", 45000, daysAgo(3))

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/payments/pay-1", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/payments/pay-1", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/payments/pay-1", nil).Code)
}

func TestRecordPayment_SendsConfirmation(t *testing.T) {
	env := newTestEnv(t)
	env.seedPayment(t, "pay-1", 45000, daysAgo(1))

	rec := env.do(t, http.MethodPost, "/api/payments/pay-1/record", map[string]any{
		"paidDate": "2026-03-14", "paymentMethod": "MOBILE_MONEY", "transactionId": "MPESA999",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeAs[MutationResponse](t, rec)
	assert.Equal(t, "PAID", resp.Payment.Status)
	assert.Equal(t, "MPESA999", resp.Payment.TransactionID)
	assert.Equal(t, []string{"Payment Confirmation - Sunrise Apartments"}, env.sender.subject)
}

// =============================================================================
// PENALTIES
// =============================================================================

func TestManagePenalty_NotOverdue_400AndUnmutated(t *testing.T) {
	env := newTestEnv(t)
	env.seedPayment(t, "pay-future", 45000, testNow.AddDate(0, 0, 5))

	for _, waive := range []bool{false, true} {
		rec := env.do(t, http.MethodPost, "/api/penalties", map[string]any{"paymentId": "pay-future", "penaltyAmount": 1000, "waiveExisting": waive})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Payment is not overdue", decodeAs[ErrorResponse](t, rec).Error)
	}

	p := env.payment(t, "pay-future")
	assert.True(t, p.PenaltyAmount.IsZero())
	assert.Equal(t, 1, p.Version)
}

func TestManagePenalty_DefaultAmount(t *testing.T) {
	// GIVEN: 45,000 due 10 days ago
	// WHEN: A penalty is requested with amount 0
	// THEN: max(2250 + 100*10, 500) = 3250, status OVERDUE

	env := newTestEnv(t)
	env.seedPayment(t, "pay-1", 45000, daysAgo(10))

	rec := env.do(t, http.MethodPost, "/api/penalties", map[string]any{"paymentId": "pay-1", "penaltyAmount": 0})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeAs[PenaltyResponse](t, rec)
	assert.Equal(t, 3250.0, resp.PenaltyAmount)
	assert.Equal(t, 10, resp.DaysOverdue)
	assert.Equal(t, "OVERDUE", resp.Payment.Status)
	assert.Equal(t, []string{"Overdue Rent Payment - Sunrise Apartments"}, env.sender.subject)
}

func TestManagePenalty_ExplicitAndRule(t *testing.T) {
	env := newTestEnv(t)
	env.seedPayment(t, "pay-1", 45000, daysAgo(4))
	env.seedPayment(t, "pay-2", 45000, daysAgo(4))

	rec := env.do(t, http.MethodPost, "/api/penalties", map[string]any{"paymentId": "pay-1", "penaltyAmount": 750, "reason": "Agreed late fee"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "750", env.payment(t, "pay-1").PenaltyAmount.String())
	assert.Contains(t, env.payment(t, "pay-1").Notes, "Agreed late fee")
	assert.Equal(t, payments.StatusPending, env.payment(t, "pay-1").Status, "inside grace period")

	rec = env.do(t, http.MethodPost, "/api/penalties", map[string]any{"paymentId": "pay-2", "rule": map[string]any{"type": "daily", "dailyRate": 50}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "200", env.payment(t, "pay-2").PenaltyAmount.String())

	rec = env.do(t, http.MethodPost, "/api/penalties", map[string]any{"paymentId": "pay-2", "rule": map[string]any{"type": "compound"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestManagePenalty_Waive(t *testing.T) {
	env := newTestEnv(t)
	env.seedPayment(t, "pay-1", 45000, daysAgo(10))
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/penalties", map[string]any{"paymentId": "pay-1", "penaltyAmount": 2000}).Code)

	rec := env.do(t, http.MethodPost, "/api/penalties", map[string]any{"paymentId": "pay-1", "waiveExisting": true, "reason": "Hardship"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeAs[PenaltyResponse](t, rec)
	assert.Zero(t, resp.PenaltyAmount)
	assert.Zero(t, resp.Payment.PenaltyAmount)
	assert.Equal(t, "OVERDUE", resp.Payment.Status, "waiving leaves status alone")
	assert.Contains(t, resp.Payment.Notes, "Penalty waived: KES 2,000. Reason: Hardship")
}

func TestManagePenalty_MissingOrUnknown(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/penalties", map[string]any{}).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/penalties", map[string]any{"paymentId": "ghost"}).Code)
}

func TestBulkPenalties(t *testing.T) {
	env := newTestEnv(t)
	env.seedPayment(t, "pay-1", 45000, daysAgo(4))
	env.seedPayment(t, "pay-2", 45000, daysAgo(9))
	env.seedPayment(t, "pay-future", 45000, testNow.AddDate(0, 0, 3))

	rec := env.do(t, http.MethodPut, "/api/penalties", map[string]any{"landlordId": "landlord-1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decodeAs[BulkPenaltyResponse](t, rec)
	assert.Equal(t, 2, first.Results.PenaltiesApplied)
	assert.Equal(t, 5800.0, first.Results.TotalPenaltyAmount)

	rec = env.do(t, http.MethodPut, "/api/penalties", map[string]any{"landlordId": "landlord-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeAs[BulkPenaltyResponse](t, rec)
	assert.Zero(t, second.Results.PenaltiesApplied)
	assert.Zero(t, second.Results.TotalPenaltyAmount)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/api/penalties", map[string]any{}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/api/penalties", map[string]any{
		"landlordId": "landlord-1", "penaltyRules": map[string]any{"type": "fixed", "amount": -1},
	}).Code)
}

func TestListPenalties_Statistics(t *testing.T) {
	env := newTestEnv(t)
	env.seedPayment(t, "pay-1", 45000, daysAgo(20))
	env.seedPayment(t, "pay-2", 45000, daysAgo(10))
	env.seedPayment(t, "pay-clean", 45000, daysAgo(5))
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/penalties", map[string]any{"paymentId": "pay-1", "penaltyAmount": 1000}).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/penalties", map[string]any{"paymentId": "pay-2", "penaltyAmount": 2000}).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/payments/pay-1/record", map[string]any{"paymentMethod": "CASH"}).Code)

	rec := env.do(t, http.MethodGet, "/api/penalties?landlordId=landlord-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeAs[PenaltyListResponse](t, rec)

	require.Len(t, resp.Penalties, 2)
	assert.Equal(t, "pay-2", resp.Penalties[0].ID, "newest due date first")
	assert.Equal(t, PenaltyStatsDTO{
		TotalPenalties: 3000, PaidPenalties: 1000, PendingPenalties: 2000,
		TotalPenaltyCount: 2, AveragePenalty: 1500,
	}, resp.Statistics)
}

// =============================================================================
// EMAILS & NOTIFICATIONS
// =============================================================================

func TestSendEmail(t *testing.T) {
	env := newTestEnv(t)
	env.seedPayment(t, "pay-1", 45000, testNow.AddDate(0, 0, 2))

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/emails", map[string]any{"type": "PAYMENT_REMINDER"}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/emails", map[string]any{"type": "SPAM", "paymentId": "pay-1"}).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/emails", map[string]any{"type": "PAYMENT_REMINDER", "paymentId": "ghost"}).Code)

	rec := env.do(t, http.MethodPost, "/api/emails", map[string]any{"type": "PAYMENT_REMINDER", "paymentId": "pay-1", "customMessage": "Thanks!"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"juma@example.com"}, env.sender.to)

	sent := env.notifications(t)
	require.Len(t, sent, 1)
	assert.Equal(t, payments.NotifyEmailSent, sent[0].Type)
	assert.Equal(t, "landlord-1", sent[0].UserID)
}

func TestSendEmail_TransportFailure(t *testing.T) {
	env := newTestEnv(t)
	env.seedPayment(t, "pay-1", 45000, testNow.AddDate(0, 0, 2))
	env.sender.err = errors.New("dial tcp: connection refused")

	rec := env.do(t, http.MethodPost, "/api/emails", map[string]any{"type": "PAYMENT_REMINDER", "paymentId": "pay-1"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeAs[ErrorResponse](t, rec).Error)
}

func TestBulkEmails(t *testing.T) {
	env := newTestEnv(t)
	env.seedPayment(t, "pay-late-1", 45000, daysAgo(10))
	env.seedPayment(t, "pay-late-2", 45000, daysAgo(40))
	env.seedPayment(t, "pay-soon", 45000, testNow.AddDate(0, 0, 2))

	rec := env.do(t, http.MethodGet, "/api/emails?landlordId=landlord-1&type=overdue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeAs[BulkEmailResponse](t, rec)
	assert.Equal(t, 2, resp.TotalProcessed)
	assert.Equal(t, 2, resp.Successful)
	assert.Zero(t, resp.Failed)
	assert.Equal(t, "juma@example.com", resp.Results[0].TenantEmail)

	rec = env.do(t, http.MethodGet, "/api/emails?landlordId=landlord-1&type=upcoming", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeAs[BulkEmailResponse](t, rec).TotalProcessed)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/emails?landlordId=landlord-1&type=weekly", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/emails?type=overdue", nil).Code)
}

func TestListNotifications(t *testing.T) {
	env := newTestEnv(t)
	env.seedPayment(t, "pay-1", 45000, daysAgo(10))
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/penalties", map[string]any{"paymentId": "pay-1", "penaltyAmount": 500}).Code)

	rec := env.do(t, http.MethodGet, "/api/notifications?userId=landlord-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeAs[[]NotificationDTO](t, rec)
	require.Len(t, list, 2)

	var types []string
	for _, n := range list {
		types = append(types, n.Type)
	}
	assert.ElementsMatch(t, []string{"PENALTY_APPLIED", "EMAIL_SENT"}, types)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", nil).Code)
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{payments.Invalid("amount", "must be positive"), http.StatusBadRequest},
		{&payments.PolicyError{PaymentID: "p", Err: payments.ErrNotOverdue}, http.StatusBadRequest},
		{&payments.NotFoundError{Kind: "payment", ID: "p"}, http.StatusNotFound},
		{&payments.ConflictError{PaymentID: "p", ExpectedVersion: 1}, http.StatusConflict},
		{&payments.AuthorizationError{Reason: "no", Forbidden: true}, http.StatusForbidden},
		{&payments.AuthorizationError{Reason: "no"}, http.StatusUnauthorized},
		{fmt.Errorf("load: %w", &payments.NotFoundError{Kind: "lease", ID: "l"}), http.StatusNotFound},
		{errors.New("disk I/O error"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
