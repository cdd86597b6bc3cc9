package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boma/rent-engine/notify"
)

func workerCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Deliver queued email over SMTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			if cfg.RedisAddr == "" {
				return fmt.Errorf("worker requires REDIS_ADDR")
			}

			logger = logger.With("component", "email-worker")
			w := &notify.EmailWorker{
				Sender: notify.NewSender(smtpConfig(cfg), logger),
				Logger: logger,
			}
			srv, mux := notify.NewWorkerServer(redisOpt(cfg), cfg.WorkerConcurrency, w)
			logger.Info("worker starting", "redis", cfg.RedisAddr, "concurrency", cfg.WorkerConcurrency)
			// Run blocks until SIGTERM/SIGINT and shuts down gracefully.
			return srv.Run(mux)
		},
	}
}
