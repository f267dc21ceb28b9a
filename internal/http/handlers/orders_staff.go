package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"cabin-order-services/internal/middleware"
	"cabin-order-services/internal/orders"
	"cabin-order-services/internal/queue"
	"cabin-order-services/internal/store"
	"cabin-order-services/internal/utils"
	"cabin-order-services/pkg/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// StaffOrdersList returns today's orders split into tabs, plus the pay-later
// carryovers from previous days.
func (h *Handler) StaffOrdersList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing session")
		return
	}

	current, payLater, err := h.Orders.FetchOrders(ctx, authCtx.Location, utils.StartOfDay(h.now()))
	if err != nil {
		h.Logger.Error("order fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch orders")
		return
	}

	response.Success(w, map[string]any{
		"tabs":     orders.SplitTabs(current),
		"payLater": payLater,
	})
}

type batchRequest struct {
	OrderIDs []int64 `json:"orderIds"`
}

type batchResult struct {
	Updated []int64 `json:"updated"`
	Skipped []int64 `json:"skipped"`
}

// applyBatch runs a per-order mutation sequentially. There is no batch
// transaction: a failing order is skipped and the rest proceed.
func (h *Handler) applyBatch(ctx context.Context, ids []int64, op string, apply func(context.Context, int64) error) batchResult {
	result := batchResult{Updated: []int64{}, Skipped: []int64{}}
	for _, id := range ids {
		if err := apply(ctx, id); err != nil {
			if !errors.Is(err, store.ErrNoRows) {
				h.Logger.Warn("batch order update failed",
					zap.String("op", op), zap.Int64("orderId", id), zap.Error(err))
			}
			result.Skipped = append(result.Skipped, id)
			continue
		}
		result.Updated = append(result.Updated, id)
	}
	return result
}

func decodeBatch(w http.ResponseWriter, r *http.Request) ([]int64, bool) {
	var body batchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.OrderIDs) == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "orderIds is required")
		return nil, false
	}
	return body.OrderIDs, true
}

func (h *Handler) StaffOrdersDispatch(w http.ResponseWriter, r *http.Request) {
	ids, ok := decodeBatch(w, r)
	if !ok {
		return
	}
	result := h.applyBatch(r.Context(), ids, "dispatch", h.Orders.Dispatch)
	response.Success(w, result)
}

func (h *Handler) StaffOrdersFulfill(w http.ResponseWriter, r *http.Request) {
	ids, ok := decodeBatch(w, r)
	if !ok {
		return
	}
	result := h.applyBatch(r.Context(), ids, "fulfill", h.Orders.Fulfill)
	response.Success(w, result)
}

// StaffOrdersReject rejects a batch and notifies the customer once per
// batch, not once per order.
func (h *Handler) StaffOrdersReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ids, ok := decodeBatch(w, r)
	if !ok {
		return
	}

	result := h.applyBatch(ctx, ids, "reject", h.Orders.Reject)

	if len(result.Updated) > 0 {
		first, err := h.Orders.ByID(ctx, result.Updated[0])
		if err != nil {
			h.Logger.Warn("rejected order lookup failed",
				zap.Int64("orderId", result.Updated[0]), zap.Error(err))
		} else {
			h.publishEvent(ctx, queue.Event{
				Type:         queue.EventOrderRejected,
				Location:     first.Location,
				Cabin:        first.Cabin,
				OrderIDs:     result.Updated,
				Phone:        first.Phone,
				CustomerName: first.CustomerName,
			})
		}
	}

	response.Success(w, result)
}

type removeItemsRequest struct {
	Indices []int `json:"indices"`
}

// StaffOrderRemoveItems drops line items by index. Totals are recomputed
// from the remaining fixed line totals, never from the catalog.
func (h *Handler) StaffOrderRemoveItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order id")
		return
	}

	var body removeItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Indices) == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "indices is required")
		return
	}

	updated, err := h.Orders.RemoveItems(ctx, id, body.Indices)
	if err != nil {
		if errors.Is(err, store.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Order not found")
			return
		}
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	response.Success(w, updated)
}
