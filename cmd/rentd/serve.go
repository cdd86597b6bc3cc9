package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/boma/rent-engine/api"
)

func serveCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API.

With SCHEDULER_ENABLED=true the reminder job also runs in-process every
SCHEDULER_INTERVAL. Otherwise point a cron at
GET /api/cron/payment-reminders?secret=$CRON_SECRET or run "rentd remind".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*configFile, runServe)
		},
	}
}

func runServe(ctx context.Context, a *app) error {
	if a.cfg.CronSecret == "" {
		a.logger.Warn("CRON_SECRET is empty, the cron endpoint will reject every call")
	}

	scheduler := api.NewReminderScheduler(a.handler.Reminders, a.logger)
	scheduler.Enabled = a.cfg.SchedulerEnabled
	scheduler.Interval = a.cfg.SchedulerInterval
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      api.NewRouter(a.handler, a.cfg.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Minute, // the cron endpoint runs the whole job
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", "addr", server.Addr, "db", a.cfg.DBPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case sig := <-quit:
		a.logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.logger.Info("server stopped")
	return nil
}
