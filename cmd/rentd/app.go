package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/boma/rent-engine/api"
	"github.com/boma/rent-engine/cache"
	"github.com/boma/rent-engine/config"
	"github.com/boma/rent-engine/notify"
	"github.com/boma/rent-engine/payments"
	"github.com/boma/rent-engine/store/sqlite"
)

// app is the wired engine shared by serve, remind and seed.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *sqlite.Store
	handler *api.Handler

	closers []func() error
}

func loadConfig(file string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(file)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func smtpConfig(cfg *config.Config) notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}
}

func redisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	// Redis makes the guard shared across replicas; without it the
	// database table does the same job for a single instance.
	var guard payments.ReminderGuard = store
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		guard = cache.NewReminderGuard(rdb)
	}

	var sender notify.Sender
	if cfg.MailQueue {
		client := asynq.NewClient(redisOpt(cfg))
		a.closers = append(a.closers, client.Close)
		sender = notify.NewQueueSender(client, "")
		logger.Info("email delivery queued", "redis", cfg.RedisAddr)
	} else {
		sender = notify.NewSender(smtpConfig(cfg), logger)
	}

	sink := notify.NewSink(store, store, sender, logger.With("component", "notify"))
	sink.From = cfg.SMTPFrom
	sink.Currency = cfg.Currency
	if len(cfg.KafkaBrokers) > 0 {
		pub, err := notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pub.Close)
		sink.Publisher = pub
		logger.Info("publishing notification events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	lc := payments.NewLifecycle(store, sink, cfg.Policy, logger.With("component", "payments"))
	lc.Currency = cfg.Currency

	a.handler = api.NewHandler(store, lc, api.Options{
		CronSecret:        cfg.CronSecret,
		CronRatePerMinute: cfg.CronRatePerMinute,
		CronBurst:         cfg.CronBurst,
		Job:               cfg.JobConfig(),
		Guard:             guard,
	}, logger)

	ok = true
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

func withApp(configFile string, fn func(context.Context, *app) error) error {
	cfg, logger, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(context.Background(), a)
}
