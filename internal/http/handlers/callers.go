package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"cabin-order-services/internal/middleware"
	"cabin-order-services/internal/queue"
	"cabin-order-services/internal/store"
	"cabin-order-services/pkg/response"

	"go.uber.org/zap"
)

// StaffCallersList shows the branch's registered caller numbers.
func (h *Handler) StaffCallersList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing session")
		return
	}

	list, err := h.Callers.List(ctx, authCtx.Location)
	if err != nil {
		h.Logger.Error("caller list failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch callers")
		return
	}
	response.Success(w, map[string]any{"callers": list})
}

type setActiveCallerRequest struct {
	Phone string `json:"phone"`
}

// StaffCallersSetActive switches which number rings on new orders. Exactly
// one caller per branch is active at a time.
func (h *Handler) StaffCallersSetActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing session")
		return
	}

	var body setActiveCallerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	phone := strings.TrimSpace(body.Phone)
	if !phonePattern.MatchString(phone) {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid phone number")
		return
	}

	if err := h.Callers.SetActive(ctx, authCtx.Location, phone); err != nil {
		h.Logger.Error("caller activation failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to set active caller")
		return
	}

	list, err := h.Callers.List(ctx, authCtx.Location)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch callers")
		return
	}
	response.Success(w, map[string]any{"callers": list})
}

// StaffTriggerCall rings the branch's active caller on demand, through the
// same job queue the automated order alert uses.
func (h *Handler) StaffTriggerCall(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing session")
		return
	}
	if h.Queue == nil {
		response.Error(w, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "Call notifications are disabled")
		return
	}

	caller, err := h.Callers.Active(ctx, authCtx.Location)
	if err != nil {
		if errors.Is(err, store.ErrNoRows) {
			response.Error(w, http.StatusConflict, "NO_ACTIVE_CALLER", "No active caller configured for this branch")
			return
		}
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve caller")
		return
	}

	job := queue.Job{
		Kind:     queue.JobCall,
		Location: authCtx.Location,
		Callee:   caller.Phone,
	}
	if err := h.Queue.PublishJSON(ctx, queue.JobsExchange, queue.JobsRK, job); err != nil {
		h.Logger.Error("call job publish failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to trigger call")
		return
	}

	response.Success(w, map[string]any{"callee": caller.Phone})
}
