package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"cabin-order-services/internal/orders"
	"cabin-order-services/internal/utils"
	"cabin-order-services/pkg/response"

	"go.uber.org/zap"
)

var phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

type checkoutItem struct {
	Name           string                  `json:"name"`
	Options        orders.OptionSelections `json:"options"`
	Quantity       int32                   `json:"quantity"`
	SpecialRequest *string                 `json:"specialRequest"`
	Total          float64                 `json:"total"`
}

type checkoutRequest struct {
	Location     string         `json:"location"`
	Cabin        string         `json:"cabin"`
	Phone        string         `json:"phone"`
	CustomerName string         `json:"customerName"`
	PromoCode    *string        `json:"promoCode"`
	PromoPercent *int32         `json:"promoPercent"`
	Items        []checkoutItem `json:"items"`
}

// PublicOrderCreate is checkout. Line totals arrive precomputed and stay
// fixed for the life of the order; later menu price changes never touch
// placed orders.
func (h *Handler) PublicOrderCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	location := strings.TrimSpace(body.Location)
	if !h.Layout.Knows(location) {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown location")
		return
	}
	if !cabinExists(h.Layout.Cabins(location), body.Cabin) {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown cabin for location")
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
	if len(body.Items) == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order must have at least one item")
		return
	}

	items := make([]orders.LineItem, 0, len(body.Items))
	subtotal := 0.0
	for _, item := range body.Items {
		if strings.TrimSpace(item.Name) == "" || item.Quantity <= 0 || item.Total < 0 {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid line item")
			return
		}
		items = append(items, orders.LineItem{
			Name:           item.Name,
			Options:        item.Options,
			Quantity:       item.Quantity,
			SpecialRequest: item.SpecialRequest,
			Total:          utils.Round2(item.Total),
		})
		subtotal += item.Total
	}

	total := subtotal
	if body.PromoPercent != nil && *body.PromoPercent > 0 && *body.PromoPercent < 100 {
		total = subtotal * (1 - float64(*body.PromoPercent)/100)
	}

	order := orders.Order{
		Location:     location,
		Cabin:        body.Cabin,
		Items:        items,
		Total:        utils.Round2(total),
		PromoCode:    body.PromoCode,
		PromoPercent: body.PromoPercent,
		Phone:        strings.TrimSpace(body.Phone),
		CustomerName: strings.TrimSpace(body.CustomerName),
		Dispatch:     orders.DispatchPending,
		Payment:      orders.PaymentPending,
		Load:         orders.LoadPending,
	}
	if err := h.Orders.Insert(ctx, &order); err != nil {
		h.Logger.Error("order insert failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to place order")
		return
	}

	response.Created(w, order)
}

// PublicBill looks up today's orders for a phone number. An unknown number
// yields an empty list, not an error.
func (h *Handler) PublicBill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	location := strings.TrimSpace(r.URL.Query().Get("location"))
	phone := strings.TrimSpace(r.URL.Query().Get("phone"))

	if !h.Layout.Knows(location) {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown location")
		return
	}
	if !phonePattern.MatchString(phone) {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid phone number")
		return
	}

	list, err := h.Orders.ByPhoneSince(ctx, location, phone, utils.StartOfDay(h.now()))
	if err != nil {
		h.Logger.Error("bill lookup failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to look up bill")
		return
	}

	total := 0.0
	for _, o := range list {
		total += o.Total
	}
	response.Success(w, map[string]any{
		"orders": list,
		"total":  utils.Round2(total),
		"found":  len(list) > 0,
	})
}

func cabinExists(cabins []string, name string) bool {
	for _, c := range cabins {
		if c == name {
			return true
		}
	}
	return false
}
