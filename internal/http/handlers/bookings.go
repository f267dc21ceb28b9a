package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cabin-order-services/internal/bookings"
	"cabin-order-services/internal/middleware"
	"cabin-order-services/internal/store"
	"cabin-order-services/internal/utils"
	"cabin-order-services/pkg/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PublicBookingAvailability lists free cabins per slot for a date.
func (h *Handler) PublicBookingAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	location := strings.TrimSpace(r.URL.Query().Get("location"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))

	if !h.Layout.Knows(location) {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown location")
		return
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid date, expected YYYY-MM-DD")
		return
	}

	existing, err := h.Bookings.ForDate(ctx, location, date)
	if err != nil {
		h.Logger.Error("booking fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch bookings")
		return
	}

	response.Success(w, map[string]any{
		"date":         date,
		"availability": bookings.Availability(h.Layout.Cabins(location), existing, date),
	})
}

type bookingRequest struct {
	Location     string  `json:"location"`
	Cabin        string  `json:"cabin"`
	Date         string  `json:"date"`
	StartTime    string  `json:"startTime"`
	EndTime      string  `json:"endTime"`
	CustomerName string  `json:"customerName"`
	Phone        string  `json:"phone"`
	FinalPrice   float64 `json:"finalPrice"`
	PromoCode    *string `json:"promoCode"`
}

// PublicBookingCreate reserves a cabin for a canonical slot. The conflict
// check re-reads the day's bookings right before insert; two racing
// requests for the last cabin can still both pass and double-book, which
// staff resolve by moving one booking.
func (h *Handler) PublicBookingCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	slot, errMsg := h.validateBookingWindow(body.Location, body.Cabin, body.Date, body.StartTime, body.EndTime)
	if errMsg != "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", errMsg)
		return
	}
	if !phonePattern.MatchString(strings.TrimSpace(body.Phone)) {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid phone number")
		return
	}
	if strings.TrimSpace(body.CustomerName) == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Customer name is required")
		return
	}
	if body.FinalPrice < 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Price cannot be negative")
		return
	}

	free, err := h.freeForSlot(ctx, strings.TrimSpace(body.Location), body.Date, slot)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to check availability")
		return
	}
	if !cabinExists(free, body.Cabin) {
		response.Error(w, http.StatusConflict, "SLOT_TAKEN", "Cabin is already booked for this slot")
		return
	}

	booking := bookings.Booking{
		Location:     strings.TrimSpace(body.Location),
		Cabin:        body.Cabin,
		Date:         body.Date,
		StartTime:    slot.Start,
		EndTime:      slot.End,
		CustomerName: strings.TrimSpace(body.CustomerName),
		Phone:        strings.TrimSpace(body.Phone),
		FinalPrice:   utils.Round2(body.FinalPrice),
		PromoCode:    body.PromoCode,
	}
	if err := h.Bookings.Insert(ctx, &booking); err != nil {
		h.Logger.Error("booking insert failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create booking")
		return
	}

	response.Created(w, booking)
}

// StaffBookingsList shows bookings from today onward for the branch.
func (h *Handler) StaffBookingsList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing session")
		return
	}

	list, err := h.Bookings.FetchFrom(ctx, authCtx.Location, utils.DateString(h.now()))
	if err != nil {
		h.Logger.Error("booking fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch bookings")
		return
	}
	response.Success(w, map[string]any{"bookings": list})
}

type bookingModifyRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// StaffBookingModify moves a booking to another date or slot, re-running
// the same conflict check as creation against the booking's cabin.
func (h *Handler) StaffBookingModify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing session")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return
	}

	var body bookingModifyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	existing, err := h.Bookings.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Booking not found")
			return
		}
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load booking")
		return
	}
	if existing.Location != authCtx.Location {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Booking not found")
		return
	}

	slot, errMsg := h.validateBookingWindow(existing.Location, existing.Cabin, body.Date, body.StartTime, body.EndTime)
	if errMsg != "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", errMsg)
		return
	}

	free, err := h.freeForSlot(ctx, existing.Location, body.Date, slot)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to check availability")
		return
	}
	// Moving within the same slot is a no-op conflict-wise; the booking
	// itself occupies the cabin it is moving from.
	sameSlot := existing.Date == body.Date && existing.StartTime == slot.Start
	if !sameSlot && !cabinExists(free, existing.Cabin) {
		response.Error(w, http.StatusConflict, "SLOT_TAKEN", "Cabin is already booked for this slot")
		return
	}

	if err := h.Bookings.Modify(ctx, id, body.Date, slot); err != nil {
		h.Logger.Error("booking modify failed", zap.Int64("bookingId", id), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to modify booking")
		return
	}

	updated, err := h.Bookings.ByID(ctx, id)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load booking")
		return
	}
	response.Success(w, updated)
}

// validateBookingWindow checks location, cabin, date format, and that the
// window is one of the canonical slots. Returns the slot or an error text.
func (h *Handler) validateBookingWindow(location, cabin, date, start, end string) (bookings.Slot, string) {
	location = strings.TrimSpace(location)
	if !h.Layout.Knows(location) {
		return bookings.Slot{}, "Unknown location"
	}
	if !cabinExists(h.Layout.Cabins(location), cabin) {
		return bookings.Slot{}, "Unknown cabin for location"
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return bookings.Slot{}, "Invalid date, expected YYYY-MM-DD"
	}
	if !bookings.IsCanonical(start, end) {
		return bookings.Slot{}, "Booking window must be one of the fixed two-hour slots"
	}
	slot, err := bookings.ParseSlot(start)
	if err != nil {
		return bookings.Slot{}, err.Error()
	}
	return slot, ""
}

func (h *Handler) freeForSlot(ctx context.Context, location, date string, slot bookings.Slot) ([]string, error) {
	existing, err := h.Bookings.ForDate(ctx, location, date)
	if err != nil {
		h.Logger.Error("booking fetch failed", zap.Error(err))
		return nil, err
	}
	return bookings.AvailableCabins(h.Layout.Cabins(location), existing, date, slot), nil
}
