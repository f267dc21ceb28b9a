package orders

import "time"

// DispatchStatus tracks whether the kitchen has sent the order out to the
// cabin. It is independent of the payment axis.
type DispatchStatus string

const (
	DispatchPending  DispatchStatus = "pending"
	Dispatched       DispatchStatus = "dispatched"
	DispatchRejected DispatchStatus = "rejected"
)

// PaymentStatus tracks whether the bill has been settled by staff.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	Fulfilled       PaymentStatus = "fulfilled"
	PaymentRejected PaymentStatus = "rejected"
)

// LoadState drives the at-most-once new-order alert: orders are created
// "pending" and flipped to "loaded" once a dashboard has alerted on them.
type LoadState string

const (
	LoadPending LoadState = "pending"
	Loaded      LoadState = "loaded"
)

// OptionSelections groups chosen customization labels by option category,
// e.g. {"Spice Level": ["Medium"], "Toppings": ["Cheese", "Olives"]}.
type OptionSelections map[string][]string

// LineItem is a menu item as it was ordered. Total is fixed at submission
// time and is never recalculated from the catalog.
type LineItem struct {
	Name           string           `json:"name"`
	Options        OptionSelections `json:"options,omitempty"`
	Quantity       int32            `json:"quantity"`
	SpecialRequest *string          `json:"specialRequest,omitempty"`
	Total          float64          `json:"total"`
}

type Order struct {
	ID           int64          `json:"id"`
	Location     string         `json:"location"`
	Cabin        string         `json:"cabin"`
	Items        []LineItem     `json:"items"`
	Total        float64        `json:"total"`
	PromoCode    *string        `json:"promoCode,omitempty"`
	PromoPercent *int32         `json:"promoPercent,omitempty"`
	Phone        string         `json:"phone"`
	CustomerName string         `json:"customerName"`
	Dispatch     DispatchStatus `json:"dispatch"`
	Payment      PaymentStatus  `json:"payment"`
	Load         LoadState      `json:"-"`
	CreatedAt    time.Time      `json:"createdAt"`
	DispatchedAt *time.Time     `json:"dispatchedAt,omitempty"`
	FulfilledAt  *time.Time     `json:"fulfilledAt,omitempty"`
	RejectedAt   *time.Time     `json:"rejectedAt,omitempty"`
}

// Tab is the dashboard classification of an order.
type Tab string

const (
	TabNew      Tab = "new"
	TabActive   Tab = "active"
	TabPrevious Tab = "previous"
)

// Classify maps the two status axes to exactly one tab. Fulfillment or
// rejection on either axis wins over everything else, so an order rejected
// before dispatch still lands in Previous.
func Classify(o Order) Tab {
	if o.Payment == Fulfilled || o.Payment == PaymentRejected || o.Dispatch == DispatchRejected {
		return TabPrevious
	}
	if o.Dispatch == Dispatched {
		return TabActive
	}
	return TabNew
}

// Open reports whether the order still counts toward cabin occupancy.
func (o Order) Open() bool {
	return Classify(o) != TabPrevious
}

// Tabs is a classified view over a flat order list.
type Tabs struct {
	New      []Order `json:"new"`
	Active   []Order `json:"active"`
	Previous []Order `json:"previous"`
}

func SplitTabs(list []Order) Tabs {
	var t Tabs
	for _, o := range list {
		switch Classify(o) {
		case TabNew:
			t.New = append(t.New, o)
		case TabActive:
			t.Active = append(t.Active, o)
		default:
			t.Previous = append(t.Previous, o)
		}
	}
	return t
}
