package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"cabin-order-services/internal/ledger"
	"cabin-order-services/internal/middleware"
	"cabin-order-services/internal/utils"
	"cabin-order-services/pkg/response"

	"go.uber.org/zap"
)

type dailyReport struct {
	Location  string         `json:"location"`
	Date      string         `json:"date"`
	Summary   ledger.Summary `json:"summary"`
	Entries   []ledger.Entry `json:"entries"`
	Generated string         `json:"generatedAt"`
}

// StaffArchiveDailyReport snapshots the day's reconciliation into the
// object store and returns the stored key. Safe to call more than once per
// day; the later upload overwrites the earlier one under the same key.
func (h *Handler) StaffArchiveDailyReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing session")
		return
	}
	if h.Reports == nil {
		response.Error(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Report archive is not configured")
		return
	}

	now := h.now()
	dayStart := utils.StartOfDay(now)

	fulfilled, err := h.Orders.FulfilledTotalSince(ctx, authCtx.Location, dayStart)
	if err != nil {
		h.Logger.Error("fulfilled total fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build report")
		return
	}
	entries, err := h.Ledger.Since(ctx, authCtx.Location, dayStart)
	if err != nil {
		h.Logger.Error("ledger fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build report")
		return
	}

	report := dailyReport{
		Location:  authCtx.Location,
		Date:      utils.DateString(now),
		Summary:   ledger.Summarize(fulfilled, entries),
		Entries:   entries,
		Generated: now.Format("2006-01-02T15:04:05-07:00"),
	}
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build report")
		return
	}

	key := fmt.Sprintf("reports/%s/%s.json", authCtx.Location, report.Date)
	url, err := h.Reports.PutReport(ctx, key, body, "application/json")
	if err != nil {
		h.Logger.Error("report upload failed", zap.String("key", key), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to archive report")
		return
	}

	response.Success(w, map[string]any{"key": key, "url": url})
}
