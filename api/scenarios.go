/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Each scenario creates one landlord's portfolio
	(properties, tenants, leases) and a payment ledger that exercises a
	specific part of the engine. All dates are relative to "now" so the
	reminder job always has something to do.

AVAILABLE SCENARIOS:

	portfolio:        Paid history, one upcoming, one in grace, one overdue
	overdue-backlog:  Months of unpaid rent with no penalties, for bulk runs
	expiring-leases:  Leases ending inside the 30-day notice window

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "portfolio"}

USAGE VIA CLI:

	rentd seed --scenario portfolio

NOTE:

	Scenarios reset the database. Only use in development/demo environments.
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/boma/rent-engine/payments"
	"github.com/boma/rent-engine/store/sqlite"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "portfolio",
		Name:        "Landlord Portfolio",
		Description: "Three leases with paid history, an upcoming payment, one in the grace period and one overdue",
		Category:    "payments",
	},
	{
		ID:          "overdue-backlog",
		Name:        "Overdue Backlog",
		Description: "Several months of unpaid rent without penalties, ready for bulk penalties",
		Category:    "penalties",
	},
	{
		ID:          "expiring-leases",
		Name:        "Expiring Leases",
		Description: "Leases ending within the next 30 days",
		Category:    "leases",
	},
}

// DemoLandlordID owns every scenario's data.
const DemoLandlordID = "landlord-demo"

// Scenarios lists the available scenario IDs.
func Scenarios() []ScenarioDTO {
	return scenarios
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decode(w, r, &req) {
		return
	}
	if err := LoadScenarioData(r.Context(), h.Store, req.ScenarioID, h.now()); err != nil {
		h.fail(w, r, "Failed to load scenario", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	h.Logger.Info("scenario loaded", "scenario", req.ScenarioID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "scenario": req.ScenarioID})
}

// LoadScenarioData resets store and fills it with scenario id, dated
// relative to now.
func LoadScenarioData(ctx context.Context, store *sqlite.Store, id string, now time.Time) error {
	var load func(context.Context, *seeder) error
	switch id {
	case "portfolio":
		load = loadPortfolioScenario
	case "overdue-backlog":
		load = loadOverdueBacklogScenario
	case "expiring-leases":
		load = loadExpiringLeasesScenario
	default:
		return payments.Invalid("scenario_id", "unknown scenario %q", id)
	}

	if err := store.Reset(ctx); err != nil {
		return err
	}
	s := &seeder{store: store, today: now.UTC().Truncate(24 * time.Hour)}
	if err := s.portfolio(ctx); err != nil {
		return fmt.Errorf("seed portfolio: %w", err)
	}
	if err := load(ctx, s); err != nil {
		return fmt.Errorf("load scenario %s: %w", id, err)
	}
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadPortfolioScenario(ctx context.Context, s *seeder) error {
	for _, lease := range []string{"lease-juma", "lease-wanjiru", "lease-ochieng"} {
		if err := s.paid(ctx, lease, -30); err != nil {
			return err
		}
	}
	if err := s.pending(ctx, "lease-juma", -10); err != nil {
		return err
	}
	if err := s.pending(ctx, "lease-wanjiru", 2); err != nil {
		return err
	}
	return s.pending(ctx, "lease-ochieng", -3)
}

func loadOverdueBacklogScenario(ctx context.Context, s *seeder) error {
	for _, lease := range []string{"lease-juma", "lease-wanjiru"} {
		for _, days := range []int{-65, -35, -5} {
			if err := s.pending(ctx, lease, days); err != nil {
				return err
			}
		}
	}
	return s.paid(ctx, "lease-ochieng", -5)
}

func loadExpiringLeasesScenario(ctx context.Context, s *seeder) error {
	ends := map[string]int{"lease-wanjiru": 10, "lease-ochieng": 25}
	for id, days := range ends {
		l := s.leases[id]
		l.EndDate = s.today.AddDate(0, 0, days)
		if err := s.store.SaveLease(ctx, l); err != nil {
			return err
		}
		s.leases[id] = l
		if err := s.paid(ctx, id, -5); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SEEDER
// =============================================================================

type seeder struct {
	store  *sqlite.Store
	today  time.Time
	leases map[string]payments.Lease
	seq    int
}

// portfolio creates the landlord, three properties, three tenants and
// their year-long leases.
func (s *seeder) portfolio(ctx context.Context) error {
	err := s.store.SaveLandlord(ctx, payments.Landlord{
		ID: DemoLandlordID, Name: "Amina Otieno", Email: "amina@boma.co.ke",
	})
	if err != nil {
		return err
	}

	units := []struct {
		lease    string
		tenant   payments.Tenant
		property payments.Property
		rent     int64
	}{
		{
			lease:    "lease-juma",
			tenant:   payments.Tenant{ID: "tenant-juma", FirstName: "Juma", LastName: "Kariuki", Email: "juma.kariuki@example.com", Phone: "+254700111222"},
			property: payments.Property{ID: "property-sunrise", Title: "Sunrise Apartments 4B", Address: "Ngong Road", City: "Nairobi"},
			rent:     45000,
		},
		{
			lease:    "lease-wanjiru",
			tenant:   payments.Tenant{ID: "tenant-wanjiru", FirstName: "Wanjiru", LastName: "Njeri", Email: "wanjiru.njeri@example.com", Phone: "+254700333444"},
			property: payments.Property{ID: "property-kilimani", Title: "Kilimani Court 12", Address: "Argwings Kodhek Road", City: "Nairobi"},
			rent:     30000,
		},
		{
			lease:    "lease-ochieng",
			tenant:   payments.Tenant{ID: "tenant-ochieng", FirstName: "Brian", LastName: "Ochieng", Email: "brian.ochieng@example.com", Phone: "+254700555666"},
			property: payments.Property{ID: "property-nyali", Title: "Nyali Beach Villa", Address: "Links Road", City: "Mombasa"},
			rent:     80000,
		},
	}

	s.leases = make(map[string]payments.Lease, len(units))
	for _, u := range units {
		u.property.LandlordID = DemoLandlordID
		if err := s.store.SaveTenant(ctx, u.tenant); err != nil {
			return err
		}
		if err := s.store.SaveProperty(ctx, u.property); err != nil {
			return err
		}
		l := payments.Lease{
			ID:          u.lease,
			TenantID:    u.tenant.ID,
			PropertyID:  u.property.ID,
			LandlordID:  DemoLandlordID,
			StartDate:   s.today.AddDate(0, -6, 0),
			EndDate:     s.today.AddDate(0, 6, 0),
			MonthlyRent: decimal.NewFromInt(u.rent),
			Status:      payments.LeaseActive,
		}
		if err := s.store.SaveLease(ctx, l); err != nil {
			return err
		}
		s.leases[l.ID] = l
	}
	return nil
}

func (s *seeder) payment(leaseID string, dueInDays int) payments.Payment {
	s.seq++
	l := s.leases[leaseID]
	return payments.Payment{
		ID:            fmt.Sprintf("pay-%s-%02d", l.TenantID[len("tenant-"):], s.seq),
		LeaseID:       l.ID,
		TenantID:      l.TenantID,
		PropertyID:    l.PropertyID,
		LandlordID:    l.LandlordID,
		Amount:        l.MonthlyRent,
		DueDate:       s.today.AddDate(0, 0, dueInDays),
		Status:        payments.StatusPending,
		PenaltyAmount: decimal.Zero,
		Version:       1,
	}
}

func (s *seeder) pending(ctx context.Context, leaseID string, dueInDays int) error {
	p := s.payment(leaseID, dueInDays)
	return s.store.CreatePayment(ctx, &p)
}

func (s *seeder) paid(ctx context.Context, leaseID string, dueInDays int) error {
	p := s.payment(leaseID, dueInDays)
	paid := p.DueDate.AddDate(0, 0, -1)
	p.Status = payments.StatusPaid
	p.PaidDate = &paid
	p.PaymentMethod = payments.MethodMobileMoney
	p.TransactionID = fmt.Sprintf("MPESA%06d", s.seq)
	return s.store.CreatePayment(ctx, &p)
}
