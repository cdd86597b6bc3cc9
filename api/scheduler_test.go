package api

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderScheduler_RunNow(t *testing.T) {
	env := newTestEnv(t)
	env.seedPayment(t, "pay-1", 45000, daysAgo(10))

	s := NewReminderScheduler(env.h.Reminders, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Nil(t, s.LastRun())

	s.RunNow(context.Background())

	last := s.LastRun()
	require.NotNil(t, last)
	assert.Equal(t, 1, last.PenaltiesApplied)
}

func TestReminderScheduler_StartStop(t *testing.T) {
	env := newTestEnv(t)
	env.seedPayment(t, "pay-1", 45000, daysAgo(10))

	s := NewReminderScheduler(env.h.Reminders, nil)
	s.Interval = time.Hour
	s.Start()
	s.Start() // no second loop

	require.Eventually(t, func() bool { return s.LastRun() != nil }, 2*time.Second, 10*time.Millisecond)
	s.Stop()
	s.Stop()

	assert.Equal(t, "OVERDUE", string(env.payment(t, "pay-1").Status))
}

func TestReminderScheduler_Disabled(t *testing.T) {
	env := newTestEnv(t)
	s := NewReminderScheduler(env.h.Reminders, nil)
	s.Enabled = false
	s.Start()
	s.Stop()
	assert.Nil(t, s.LastRun())
}
