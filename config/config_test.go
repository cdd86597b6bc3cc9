package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boma/rent-engine/payments"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "KES", cfg.Currency)
	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, 5*time.Minute, cfg.JobTimeout)
	assert.Equal(t, payments.FormulaFlat, cfg.ReminderFormula)
	assert.True(t, cfg.Policy.Rate.Equal(payments.DefaultPolicy().Rate))
	assert.True(t, cfg.Policy.Floor.Equal(payments.DefaultPolicy().Floor))
	assert.Equal(t, 7, cfg.Policy.OverdueAfterDays)
	assert.Empty(t, cfg.CronSecret)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CRON_SECRET", "s3cret")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("PENALTY_FLOOR", "750")
	t.Setenv("REMINDER_FORMULA", "daily")
	t.Setenv("SCHEDULER_ENABLED", "true")
	t.Setenv("SCHEDULER_INTERVAL", "6h")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "s3cret", cfg.CronSecret)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "750", cfg.Policy.Floor.String())
	assert.Equal(t, payments.FormulaDaily, cfg.JobConfig().Formula)
	assert.True(t, cfg.SchedulerEnabled)
	assert.Equal(t, 6*time.Hour, cfg.SchedulerInterval)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rentd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7070\"\nworkers: 12\npenalty_rate: \"0.1\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, 12, cfg.JobConfig().Workers)
	assert.Equal(t, "0.1", cfg.Policy.Rate.String())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad decimal", "PENALTY_RATE", "five percent"},
		{"negative floor", "PENALTY_FLOOR", "-1"},
		{"unknown formula", "REMINDER_FORMULA", "compound"},
		{"no workers", "WORKERS", "0"},
		{"queue without redis", "MAIL_QUEUE", "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load("")
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: "warn", LogFormat: "json"}
	logger := cfg.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "payment", "pay-1")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"payment":"pay-1"`)
}
