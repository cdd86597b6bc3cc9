package payments_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/boma/rent-engine/payments"
	"github.com/boma/rent-engine/payments/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sentEmail struct {
	Kind      payments.EmailKind
	PaymentID string
	LeaseID   string
	Message   string
}

// recordingSink keeps everything the engine reports.
type recordingSink struct {
	mu            sync.Mutex
	notifications []payments.Notification
	emails        []sentEmail
	emailErr      error
}

func (s *recordingSink) CreateNotification(_ context.Context, n payments.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *recordingSink) SendPaymentEmail(_ context.Context, kind payments.EmailKind, p payments.Payment, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailErr != nil {
		return s.emailErr
	}
	s.emails = append(s.emails, sentEmail{Kind: kind, PaymentID: p.ID, Message: msg})
	return nil
}

func (s *recordingSink) SendLeaseEmail(_ context.Context, l payments.Lease, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailErr != nil {
		return s.emailErr
	}
	s.emails = append(s.emails, sentEmail{Kind: "LEASE_EXPIRY", LeaseID: l.ID, Message: msg})
	return nil
}

func (s *recordingSink) emailsOf(kind payments.EmailKind) []sentEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sentEmail
	for _, e := range s.emails {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (s *recordingSink) notificationsOf(typ payments.NotificationType) []payments.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []payments.Notification
	for _, n := range s.notifications {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

// mockSink is used where a test needs the sink to fail.
type mockSink struct{ mock.Mock }

func (m *mockSink) CreateNotification(ctx context.Context, n payments.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockSink) SendPaymentEmail(ctx context.Context, kind payments.EmailKind, p payments.Payment, msg string) error {
	return m.Called(ctx, kind, p, msg).Error(0)
}

func (m *mockSink) SendLeaseEmail(ctx context.Context, l payments.Lease, msg string) error {
	return m.Called(ctx, l, msg).Error(0)
}

type fixture struct {
	store *store.Memory
	sink  *recordingSink
	lc    *payments.Lifecycle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	mem.Now = func() time.Time { return testNow }
	sink := &recordingSink{}

	lc := payments.NewLifecycle(mem, sink, payments.DefaultPolicy(), quietLogger())
	lc.Now = func() time.Time { return testNow }

	mem.PutLandlord(payments.Landlord{ID: "landlord-1", Name: "Wanjiru Kamau", Email: "wanjiru@example.com"})
	mem.PutTenant(payments.Tenant{ID: "tenant-1", FirstName: "Otieno", LastName: "Odhiambo", Email: "otieno@example.com"})
	mem.PutProperty(payments.Property{ID: "property-1", LandlordID: "landlord-1", Title: "Kilimani Heights 4B"})
	mem.PutLease(payments.Lease{
		ID: "lease-1", TenantID: "tenant-1", PropertyID: "property-1", LandlordID: "landlord-1",
		StartDate:   testNow.AddDate(-1, 0, 0),
		EndDate:     testNow.AddDate(1, 0, 0),
		MonthlyRent: decimal.NewFromInt(45000),
		Status:      payments.LeaseActive,
	})
	return &fixture{store: mem, sink: sink, lc: lc}
}

// seedPayment stores a PENDING payment for lease-1 due at due.
func (f *fixture) seedPayment(t *testing.T, id string, amount int64, due time.Time) payments.Payment {
	t.Helper()
	p := payments.Payment{
		ID:            id,
		LeaseID:       "lease-1",
		TenantID:      "tenant-1",
		PropertyID:    "property-1",
		LandlordID:    "landlord-1",
		Amount:        decimal.NewFromInt(amount),
		DueDate:       due,
		Status:        payments.StatusPending,
		PenaltyAmount: decimal.Zero,
		Version:       1,
	}
	require.NoError(t, f.store.CreatePayment(context.Background(), &p))
	return p
}

func (f *fixture) reload(t *testing.T, id string) payments.Payment {
	t.Helper()
	p, err := f.store.GetPayment(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return *p
}

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got.String())
}
