package api

import (
	"cmp"
	"net/http"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/boma/rent-engine/payments"
)

// =============================================================================
// PENALTY HANDLERS
// =============================================================================

// ListPenalties returns a landlord's penalized payments and their totals.
func (h *Handler) ListPenalties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	landlordID := q.Get("landlordId")
	if landlordID == "" {
		writeError(w, http.StatusBadRequest, "Landlord ID is required", nil)
		return
	}
	filter := payments.PaymentFilter{LandlordID: landlordID, PenaltyPositive: true}
	if s := q.Get("status"); s != "" && s != "all" {
		status := payments.Status(strings.ToUpper(s))
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "Invalid status", nil)
			return
		}
		filter.Statuses = []payments.Status{status}
	}

	list, err := h.Store.FindPayments(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "Failed to list penalties", err)
		return
	}
	slices.SortFunc(list, func(a, b payments.Payment) int {
		return cmp.Compare(b.DueDate.UnixNano(), a.DueDate.UnixNano())
	})

	writeJSON(w, http.StatusOK, PenaltyListResponse{
		Penalties:  toPaymentDTOs(list),
		Statistics: penaltyStats(list),
	})
}

func penaltyStats(list []payments.Payment) PenaltyStatsDTO {
	var total, paid, pending decimal.Decimal
	for _, p := range list {
		total = total.Add(p.PenaltyAmount)
		switch p.Status {
		case payments.StatusPaid:
			paid = paid.Add(p.PenaltyAmount)
		case payments.StatusPending, payments.StatusOverdue:
			pending = pending.Add(p.PenaltyAmount)
		}
	}
	stats := PenaltyStatsDTO{
		TotalPenalties:    total.InexactFloat64(),
		PaidPenalties:     paid.InexactFloat64(),
		PendingPenalties:  pending.InexactFloat64(),
		TotalPenaltyCount: len(list),
	}
	if len(list) > 0 {
		stats.AveragePenalty = total.Div(decimal.NewFromInt(int64(len(list)))).Round(2).InexactFloat64()
	}
	return stats
}

// ManagePenalty applies or waives the penalty on one payment. Either way
// the payment has to be past due.
func (h *Handler) ManagePenalty(w http.ResponseWriter, r *http.Request) {
	var req PenaltyRequest
	if !decode(w, r, &req) {
		return
	}
	if req.PaymentID == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields", payments.Invalid("paymentId", "is required"))
		return
	}

	ctx := r.Context()
	p, err := h.Lifecycle.Load(ctx, req.PaymentID)
	if err != nil {
		h.fail(w, r, "Payment not found", err)
		return
	}
	days := payments.DaysOverdue(p.DueDate, h.now())
	if days <= 0 {
		writeError(w, http.StatusBadRequest, "Payment is not overdue", nil)
		return
	}

	if req.WaiveExisting {
		m, err := h.Lifecycle.WaivePenalty(ctx, p, req.Reason)
		if err != nil {
			h.fail(w, r, "Failed to waive penalty", err)
			return
		}
		writeJSON(w, http.StatusOK, PenaltyResponse{
			Message:     "Penalty waived successfully",
			Payment:     toPaymentDTO(m.Payment),
			DaysOverdue: m.DaysOverdue,
			Warnings:    m.Warnings,
		})
		return
	}

	amount, err := h.penaltyAmount(p, days, req)
	if err != nil {
		h.fail(w, r, "Failed to compute penalty", err)
		return
	}
	m, err := h.Lifecycle.ApplyPenalty(ctx, p, payments.PenaltyInput{Amount: amount, Reason: req.Reason})
	if err != nil {
		h.fail(w, r, "Failed to apply penalty", err)
		return
	}
	writeJSON(w, http.StatusOK, PenaltyResponse{
		Message:       "Penalty applied successfully",
		Payment:       toPaymentDTO(m.Payment),
		PenaltyAmount: amount.InexactFloat64(),
		DaysOverdue:   m.DaysOverdue,
		Warnings:      m.Warnings,
	})
}

// penaltyAmount picks the explicit amount if one was given, then the rule,
// then the default daily formula.
func (h *Handler) penaltyAmount(p *payments.Payment, days int, req PenaltyRequest) (decimal.Decimal, error) {
	if req.PenaltyAmount != nil && !req.PenaltyAmount.IsZero() {
		return *req.PenaltyAmount, nil
	}
	if req.Rule != nil {
		rule, err := req.Rule.toRuleSpec().Rule()
		if err != nil {
			return decimal.Zero, err
		}
		return payments.RuledPenalty(p.Amount, days, rule)
	}
	return h.Lifecycle.Policy.DefaultPenalty(p.Amount, days, payments.FormulaDaily), nil
}

// BulkPenalties applies penalties to every eligible payment of a landlord.
func (h *Handler) BulkPenalties(w http.ResponseWriter, r *http.Request) {
	var req BulkPenaltyRequest
	if !decode(w, r, &req) {
		return
	}
	if req.LandlordID == "" {
		writeError(w, http.StatusBadRequest, "Landlord ID is required", nil)
		return
	}
	bulk := payments.BulkRequest{LandlordID: req.LandlordID, Reason: req.Reason}
	if req.PenaltyRules != nil {
		rule, err := req.PenaltyRules.toRuleSpec().Rule()
		if err != nil {
			h.fail(w, r, "Invalid penalty rules", err)
			return
		}
		bulk.Rule = rule
	}

	res, err := h.Bulk.Run(r.Context(), bulk)
	if err != nil {
		h.fail(w, r, "Bulk penalty process failed", err)
		return
	}
	writeJSON(w, http.StatusOK, BulkPenaltyResponse{
		Message: "Bulk penalty process completed",
		Results: toBulkResultDTO(res),
	})
}
