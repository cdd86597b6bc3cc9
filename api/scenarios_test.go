package api

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boma/rent-engine/payments"
)

func TestLoadScenarioData_AllScenarios(t *testing.T) {
	for _, sc := range Scenarios() {
		t.Run(sc.ID, func(t *testing.T) {
			env := newTestEnv(t)
			require.NoError(t, LoadScenarioData(context.Background(), env.store, sc.ID, testNow))

			lease, err := env.store.GetLease(context.Background(), "lease-juma")
			require.NoError(t, err)
			require.NotNil(t, lease)
			assert.Equal(t, DemoLandlordID, lease.LandlordID)

			n, err := env.store.CountPayments(context.Background(), payments.PaymentFilter{LandlordID: DemoLandlordID})
			require.NoError(t, err)
			assert.Positive(t, n)

			// Reset wiped the fixtures newTestEnv created.
			old, err := env.store.GetLease(context.Background(), "lease-1")
			require.NoError(t, err)
			assert.Nil(t, old)
		})
	}
}

func TestLoadScenarioData_Unknown(t *testing.T) {
	env := newTestEnv(t)
	err := LoadScenarioData(context.Background(), env.store, "nope", testNow)
	assert.ErrorIs(t, err, payments.ErrValidation)

	lease, err := env.store.GetLease(context.Background(), "lease-1")
	require.NoError(t, err)
	assert.NotNil(t, lease, "unknown scenario leaves data alone")
}

func TestPortfolioScenario_ReminderJobFindsWork(t *testing.T) {
	// GIVEN: The portfolio scenario (one upcoming, one in grace, one overdue)
	// WHEN: The reminder job runs
	// THEN: One reminder and two penalties; only the 10-day one flips to OVERDUE

	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, LoadScenarioData(ctx, env.store, "portfolio", testNow))

	res, err := env.h.Reminders.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.UpcomingReminders)
	assert.Equal(t, 2, res.OverdueNotices)
	assert.Equal(t, 2, res.PenaltiesApplied)
	assert.Empty(t, res.Errors)

	overdue, err := env.store.CountPayments(ctx, payments.PaymentFilter{Statuses: []payments.Status{payments.StatusOverdue}})
	require.NoError(t, err)
	assert.Equal(t, 1, overdue)
}

func TestExpiringLeasesScenario_LeaseNotices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, LoadScenarioData(ctx, env.store, "expiring-leases", testNow))

	res, err := env.h.Reminders.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.LeaseNotices)
	assert.Contains(t, env.sender.to, "amina@boma.co.ke")
}

func TestScenarioEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeAs[[]ScenarioDTO](t, rec), len(Scenarios()))

	rec = env.do(t, http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", string(bytes.TrimSpace(rec.Body.Bytes())))

	rec = env.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "overdue-backlog"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/scenarios/current", nil)
	assert.Equal(t, "overdue-backlog", decodeAs[ScenarioDTO](t, rec).ID)

	rec = env.do(t, http.MethodPut, "/api/penalties", map[string]any{"landlordId": DemoLandlordID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, decodeAs[BulkPenaltyResponse](t, rec).Results.PenaltiesApplied)

	rec = env.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "unknown"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
