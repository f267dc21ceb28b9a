package handlers

import (
	"net/http"

	"cabin-order-services/internal/cabins"
	"cabin-order-services/internal/middleware"
	"cabin-order-services/internal/utils"
	"cabin-order-services/pkg/response"

	"go.uber.org/zap"
)

// StaffCabins evaluates every cabin of the staff member's branch from the
// live order and booking sets. Nothing here is stored; the response is a
// pure derivation at request time.
func (h *Handler) StaffCabins(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing session")
		return
	}

	now := h.now()
	current, payLater, err := h.Orders.FetchOrders(ctx, authCtx.Location, utils.StartOfDay(now))
	if err != nil {
		h.Logger.Error("order fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch orders")
		return
	}

	all := append(current, payLater...)
	open := all[:0]
	for _, o := range all {
		if o.Open() {
			open = append(open, o)
		}
	}

	dayBookings, err := h.Bookings.ForDate(ctx, authCtx.Location, utils.DateString(now))
	if err != nil {
		h.Logger.Error("booking fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch bookings")
		return
	}

	lastFulfilled, err := h.Orders.LastFulfilledByCabin(ctx, authCtx.Location)
	if err != nil {
		h.Logger.Error("fulfillment history fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch cabin history")
		return
	}

	statuses := cabins.EvaluateAll(h.Layout.Cabins(authCtx.Location), open, dayBookings, lastFulfilled, now)
	response.Success(w, map[string]any{"cabins": statuses})
}
