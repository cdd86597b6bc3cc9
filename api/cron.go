package api

import (
	"crypto/subtle"
	"net/http"
)

// RunReminders triggers the reminder job. The secret must match the
// configured one; with no secret configured every call is rejected.
func (h *Handler) RunReminders(w http.ResponseWriter, r *http.Request) {
	if !h.cronLimiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "Too many requests", nil)
		return
	}
	if !h.cronAuthorized(r.URL.Query().Get("secret")) {
		h.Logger.Warn("cron trigger rejected", "remote", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	res, err := h.Reminders.Run(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to run automated tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, CronResponse{
		Message: "Automated tasks completed successfully",
		Results: toRunResultDTO(res),
	})
}

func (h *Handler) cronAuthorized(got string) bool {
	if h.cronSecret == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.cronSecret)) == 1
}
