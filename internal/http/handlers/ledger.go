package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"cabin-order-services/internal/ledger"
	"cabin-order-services/internal/middleware"
	"cabin-order-services/internal/utils"
	"cabin-order-services/pkg/response"

	"go.uber.org/zap"
)

type ledgerEntryRequest struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Comment  string  `json:"comment"`
}

// StaffLedgerAppend records a manual entry. The ledger has no update or
// delete endpoint anywhere; mistakes are corrected by appending.
func (h *Handler) StaffLedgerAppend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing session")
		return
	}

	var body ledgerEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	category, err := ledger.ParseCategory(strings.TrimSpace(body.Category))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if body.Amount <= 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Amount must be positive")
		return
	}

	entry := ledger.Entry{
		Location: authCtx.Location,
		Category: category,
		Amount:   utils.Round2(body.Amount),
		Comment:  strings.TrimSpace(body.Comment),
	}
	if err := h.Ledger.Append(ctx, &entry); err != nil {
		h.Logger.Error("ledger append failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record entry")
		return
	}

	response.Created(w, entry)
}

// StaffLedgerToday lists the day's entries.
func (h *Handler) StaffLedgerToday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing session")
		return
	}

	entries, err := h.Ledger.Since(ctx, authCtx.Location, utils.StartOfDay(h.now()))
	if err != nil {
		h.Logger.Error("ledger fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch entries")
		return
	}
	response.Success(w, map[string]any{"entries": entries})
}

// StaffLedgerSummary folds today's fulfilled revenue with today's entries
// into the sales/expenses/UPI totals.
func (h *Handler) StaffLedgerSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing session")
		return
	}

	dayStart := utils.StartOfDay(h.now())
	fulfilled, err := h.Orders.FulfilledTotalSince(ctx, authCtx.Location, dayStart)
	if err != nil {
		h.Logger.Error("fulfilled total fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute summary")
		return
	}
	entries, err := h.Ledger.Since(ctx, authCtx.Location, dayStart)
	if err != nil {
		h.Logger.Error("ledger fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute summary")
		return
	}

	response.Success(w, ledger.Summarize(fulfilled, entries))
}

type verifyCounterRequest struct {
	CountedAmount float64 `json:"countedAmount"`
}

// StaffVerifyCounter compares the physically counted drawer cash against
// the computed all-time balance and appends the signed difference as an
// Extra Cash Payment (surplus) or Suspense (deficit) entry.
func (h *Handler) StaffVerifyCounter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing session")
		return
	}

	var body verifyCounterRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.CountedAmount < 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "countedAmount is required")
		return
	}

	fulfilled, err := h.Orders.FulfilledTotalSince(ctx, authCtx.Location, time.Time{})
	if err != nil {
		h.Logger.Error("fulfilled total fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute balance")
		return
	}
	extraCash, expenses, _, err := h.Ledger.AllTimeTotals(ctx, authCtx.Location)
	if err != nil {
		h.Logger.Error("ledger totals fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute balance")
		return
	}

	computed := utils.Round2(ledger.CounterBalance(fulfilled, extraCash, expenses))
	counted := utils.Round2(body.CountedAmount)

	category, amount, needsEntry := ledger.VerifyCounter(counted, computed)
	var appended *ledger.Entry
	if needsEntry {
		entry := ledger.Entry{
			Location: authCtx.Location,
			Category: category,
			Amount:   utils.Round2(amount),
			Comment:  "Counter balance verification",
		}
		if err := h.Ledger.Append(ctx, &entry); err != nil {
			h.Logger.Error("ledger append failed", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record correction")
			return
		}
		appended = &entry
	}

	response.Success(w, map[string]any{
		"countedAmount":  counted,
		"computedAmount": computed,
		"difference":     utils.Round2(counted - computed),
		"entry":          appended,
	})
}
