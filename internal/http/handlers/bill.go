package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cabin-order-services/internal/orders"
	"cabin-order-services/internal/utils"
	"cabin-order-services/pkg/response"

	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"
)

var branchTitles = map[string]string{
	"brigade-road": "Cabin Cafe - Brigade Road",
	"indiranagar":  "Cabin Cafe - Indiranagar",
}

// PublicBillPDF renders today's bill for a phone number as a downloadable
// PDF. Rejected orders appear with their zeroed totals, so the grand total
// matches what the customer actually owes.
func (h *Handler) PublicBillPDF(w http.ResponseWriter, r *http.Request) {
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
	if len(list) == 0 {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "No orders found for this number today")
		return
	}

	buf, err := renderBillPDF(location, phone, list, h.now())
	if err != nil {
		h.Logger.Error("bill pdf render failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to render bill")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="bill_%s_%s.pdf"`, phone, utils.DateString(h.now())))
	_, _ = w.Write(buf.Bytes())
}

func renderBillPDF(location, phone string, list []orders.Order, now time.Time) (*bytes.Buffer, error) {
	title, ok := branchTitles[location]
	if !ok {
		title = location
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, title, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 5, fmt.Sprintf("Bill for %s", phone), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, now.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")

	grand := 0.0
	for _, o := range list {
		pdf.Ln(3)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("Order #%d - %s", o.ID, o.Cabin), "B", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, item := range o.Items {
			pdf.CellFormat(0, 5, fmt.Sprintf("%dx %s - Rs %.2f", item.Quantity, item.Name, item.Total), "", 1, "L", false, 0, "")
			for option, picks := range item.Options {
				pdf.CellFormat(0, 4, fmt.Sprintf("  %s: %s", option, strings.Join(picks, ", ")), "", 1, "L", false, 0, "")
			}
			if item.SpecialRequest != nil && *item.SpecialRequest != "" {
				pdf.MultiCell(0, 4, fmt.Sprintf("  Note: %s", *item.SpecialRequest), "", "L", false)
			}
		}
		if o.Dispatch == orders.DispatchRejected {
			pdf.CellFormat(0, 5, "Rejected", "", 1, "L", false, 0, "")
		}
		if o.PromoCode != nil && o.PromoPercent != nil {
			pdf.CellFormat(0, 5, fmt.Sprintf("Promo %s (-%d%%)", *o.PromoCode, *o.PromoPercent), "", 1, "L", false, 0, "")
		}
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(0, 5, fmt.Sprintf("Order total: Rs %.2f", o.Total), "", 1, "L", false, 0, "")
		grand += o.Total
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Grand total: Rs %.2f", utils.Round2(grand)), "T", 1, "L", false, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
