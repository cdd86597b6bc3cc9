/*
config.go - Process configuration

PURPOSE:

	One Config struct for every rentd subcommand. Values come from, in
	increasing precedence: built-in defaults, an optional YAML file
	(CONFIG_FILE or --config), a .env file in the working directory, and
	the process environment. Keys are the environment variable names;
	YAML keys are the same names in any case.

	Secrets (CRON_SECRET, SMTP_PASSWORD, REDIS_PASSWORD) have no default.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/boma/rent-engine/payments"
)

type Config struct {
	// Server
	Port       string
	DBPath     string
	CronSecret string
	// CronRatePerMinute bounds calls to the cron endpoint; CronBurst is the bucket size.
	CronRatePerMinute float64
	CronBurst         int
	CORSOrigins       []string

	// Redis (reminder guard and mail queue). Empty address disables both.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Kafka notification events. No brokers disables publishing.
	KafkaBrokers []string
	KafkaTopic   string

	// Email
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	// MailQueue sends email through the asynq worker instead of inline SMTP.
	MailQueue         bool
	WorkerConcurrency int

	// Reminder job
	SchedulerEnabled  bool
	SchedulerInterval time.Duration
	JobTimeout        time.Duration
	Workers           int
	ReminderWindow    time.Duration
	LeaseWindow       time.Duration
	ReminderFormula   payments.Formula

	// Penalties
	Policy   payments.PenaltyPolicy
	Currency string

	// Logging
	LogLevel  string
	LogFormat string
}

func setDefaults(v *viper.Viper) {
	def := payments.DefaultPolicy()
	job := payments.DefaultJobConfig()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_PATH", "rent.db")
	v.SetDefault("CRON_RATE_PER_MINUTE", 6.0)
	v.SetDefault("CRON_BURST", 2)
	v.SetDefault("CORS_ORIGINS", "*")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("KAFKA_TOPIC", "rent.notifications")

	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "noreply@boma.co.ke")
	v.SetDefault("MAIL_QUEUE", false)
	v.SetDefault("WORKER_CONCURRENCY", 10)

	v.SetDefault("SCHEDULER_ENABLED", false)
	v.SetDefault("SCHEDULER_INTERVAL", "24h")
	v.SetDefault("JOB_TIMEOUT", "5m")
	v.SetDefault("WORKERS", job.Workers)
	v.SetDefault("REMINDER_WINDOW", job.ReminderWindow.String())
	v.SetDefault("LEASE_WINDOW", job.LeaseWindow.String())
	v.SetDefault("REMINDER_FORMULA", string(job.Formula))

	v.SetDefault("PENALTY_RATE", def.Rate.String())
	v.SetDefault("PENALTY_DAILY_RATE", def.DailyRate.String())
	v.SetDefault("PENALTY_FLOOR", def.Floor.String())
	v.SetDefault("OVERDUE_AFTER_DAYS", def.OverdueAfterDays)
	v.SetDefault("CURRENCY", "KES")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Load reads configuration. file may be empty, in which case CONFIG_FILE
// is consulted.
func Load(file string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file == "" {
		file = v.GetString("CONFIG_FILE")
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := &Config{
		Port:              v.GetString("PORT"),
		DBPath:            v.GetString("DB_PATH"),
		CronSecret:        v.GetString("CRON_SECRET"),
		CronRatePerMinute: v.GetFloat64("CRON_RATE_PER_MINUTE"),
		CronBurst:         v.GetInt("CRON_BURST"),
		CORSOrigins:       splitList(v.GetString("CORS_ORIGINS")),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		KafkaBrokers: splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:   v.GetString("KAFKA_TOPIC"),

		SMTPHost:          v.GetString("SMTP_HOST"),
		SMTPPort:          v.GetInt("SMTP_PORT"),
		SMTPUsername:      v.GetString("SMTP_USERNAME"),
		SMTPPassword:      v.GetString("SMTP_PASSWORD"),
		SMTPFrom:          v.GetString("SMTP_FROM"),
		MailQueue:         v.GetBool("MAIL_QUEUE"),
		WorkerConcurrency: v.GetInt("WORKER_CONCURRENCY"),

		SchedulerEnabled:  v.GetBool("SCHEDULER_ENABLED"),
		SchedulerInterval: v.GetDuration("SCHEDULER_INTERVAL"),
		JobTimeout:        v.GetDuration("JOB_TIMEOUT"),
		Workers:           v.GetInt("WORKERS"),
		ReminderWindow:    v.GetDuration("REMINDER_WINDOW"),
		LeaseWindow:       v.GetDuration("LEASE_WINDOW"),

		Currency:  v.GetString("CURRENCY"),
		LogLevel:  strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat: strings.ToLower(v.GetString("LOG_FORMAT")),
	}

	formula, err := payments.ParseFormula(v.GetString("REMINDER_FORMULA"))
	if err != nil {
		return nil, err
	}
	cfg.ReminderFormula = formula

	cfg.Policy.OverdueAfterDays = v.GetInt("OVERDUE_AFTER_DAYS")
	for key, dst := range map[string]*decimal.Decimal{
		"PENALTY_RATE":       &cfg.Policy.Rate,
		"PENALTY_DAILY_RATE": &cfg.Policy.DailyRate,
		"PENALTY_FLOOR":      &cfg.Policy.Floor,
	} {
		d, err := decimal.NewFromString(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	if c.Workers < 1 {
		return fmt.Errorf("WORKERS must be at least 1, got %d", c.Workers)
	}
	if c.SchedulerEnabled && c.SchedulerInterval <= 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL must be positive when the scheduler is enabled")
	}
	if c.MailQueue && c.RedisAddr == "" {
		return fmt.Errorf("MAIL_QUEUE requires REDIS_ADDR")
	}
	return nil
}

// JobConfig maps the reminder settings onto the job's own config.
func (c *Config) JobConfig() payments.JobConfig {
	job := payments.DefaultJobConfig()
	job.Workers = c.Workers
	job.ReminderWindow = c.ReminderWindow
	job.LeaseWindow = c.LeaseWindow
	job.Timeout = c.JobTimeout
	job.Formula = c.ReminderFormula
	return job
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
