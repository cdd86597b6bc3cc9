package api

import (
	"fmt"
	"net/http"

	"github.com/boma/rent-engine/payments"
)

// SendEmail sends one templated email about a payment to its tenant.
func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req SendEmailRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Type == "" || req.PaymentID == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields", nil)
		return
	}
	kind := payments.EmailKind(req.Type)
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid email type", fmt.Errorf("unknown type %q", req.Type))
		return
	}

	ctx := r.Context()
	p, err := h.Lifecycle.Load(ctx, req.PaymentID)
	if err != nil {
		h.fail(w, r, "Payment not found", err)
		return
	}
	if err := h.Lifecycle.Sink.SendPaymentEmail(ctx, kind, *p, req.CustomMessage); err != nil {
		h.fail(w, r, "Failed to send email", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Email sent successfully",
		"paymentId": p.ID,
		"type":      string(kind),
	})
}

// BulkEmails sends reminders (type=upcoming) or overdue notices
// (type=overdue) for every matching PENDING payment of a landlord. One
// failed recipient does not stop the rest.
func (h *Handler) BulkEmails(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	landlordID, typ := q.Get("landlordId"), q.Get("type")
	if landlordID == "" || typ == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters", nil)
		return
	}

	now := h.now()
	filter := payments.PaymentFilter{LandlordID: landlordID, Statuses: []payments.Status{payments.StatusPending}}
	var kind payments.EmailKind
	switch typ {
	case "upcoming":
		until := now.Add(h.Reminders.Config.ReminderWindow)
		filter.DueFrom, filter.DueTo = &now, &until
		kind = payments.EmailPaymentReminder
	case "overdue":
		filter.DueBefore = &now
		kind = payments.EmailOverdueNotice
	default:
		writeError(w, http.StatusBadRequest, "Invalid type", fmt.Errorf("expected upcoming or overdue, got %q", typ))
		return
	}

	ctx := r.Context()
	list, err := h.Store.FindPayments(ctx, filter)
	if err != nil {
		h.fail(w, r, "Failed to process bulk emails", err)
		return
	}

	resp := BulkEmailResponse{
		Message:        fmt.Sprintf("Bulk email process completed for %s payments", typ),
		Results:        make([]EmailResultDTO, 0, len(list)),
		TotalProcessed: len(list),
	}
	for _, p := range list {
		res := EmailResultDTO{PaymentID: p.ID, Status: "sent"}
		if t, err := h.Store.GetTenant(ctx, p.TenantID); err == nil && t != nil {
			res.TenantEmail = t.Email
		}
		if err := h.Lifecycle.Sink.SendPaymentEmail(ctx, kind, p, ""); err != nil {
			h.Logger.Warn("bulk email failed", "payment_id", p.ID, "error", err)
			res.Status, res.Error = "failed", err.Error()
			resp.Failed++
		} else {
			resp.Successful++
		}
		resp.Results = append(resp.Results, res)
	}
	writeJSON(w, http.StatusOK, resp)
}
