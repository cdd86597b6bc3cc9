/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the dashboard

ROUTE GROUPS:
  /api/payments/*       Payment lifecycle
  /api/penalties        Apply, waive, bulk, statistics
  /api/cron/*           Shared-secret job trigger
  /api/emails           Manual and bulk emails
  /api/notifications    Notification feed
  /api/scenarios/*      Demo data (dev only)
  /healthz              Liveness + database ping

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/rentd/serve.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured. An empty
// origins list allows any origin.
func NewRouter(h *Handler, origins []string) *chi.Mux {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.ListPayments)
			r.Post("/", h.CreatePayment)
			r.Get("/{id}", h.GetPayment)
			r.Patch("/{id}", h.UpdatePayment)
			r.Delete("/{id}", h.DeletePayment)
			r.Post("/{id}/record", h.RecordPayment)
		})

		r.Route("/penalties", func(r chi.Router) {
			r.Get("/", h.ListPenalties)
			r.Post("/", h.ManagePenalty)
			r.Put("/", h.BulkPenalties)
		})

		r.Get("/cron/payment-reminders", h.RunReminders)

		r.Route("/emails", func(r chi.Router) {
			r.Get("/", h.BulkEmails)
			r.Post("/", h.SendEmail)
		})

		r.Get("/notifications", h.ListNotifications)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
