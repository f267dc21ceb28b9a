package ledger

import (
	"fmt"
	"time"
)

// Category is the closed set of manual ledger entry kinds. Entries are
// append-only; history is never edited.
type Category string

const (
	CategorySupplier    Category = "Supplier"
	CategoryDrawings    Category = "Drawings"
	CategorySalary      Category = "Salary"
	CategoryRent        Category = "Rent"
	CategoryElectricity Category = "Electricity"
	CategoryOthers      Category = "Others"
	CategoryUPIPayment  Category = "UPI Payment"
	CategoryExtraCash   Category = "Extra Cash Payment"
	CategoryExtraUPI    Category = "Extra UPI Payment"
	CategoryOpeningCash Category = "Opening Cash"
	CategorySuspense    Category = "Suspense"
)

var allCategories = []Category{
	CategorySupplier, CategoryDrawings, CategorySalary, CategoryRent,
	CategoryElectricity, CategoryOthers, CategoryUPIPayment,
	CategoryExtraCash, CategoryExtraUPI, CategoryOpeningCash,
	CategorySuspense,
}

func ParseCategory(value string) (Category, error) {
	for _, c := range allCategories {
		if string(c) == value {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown ledger category %q", value)
}

// IsExpense reports whether the category counts toward total expenses.
// UPI/extra-payment and opening-cash entries are revenue or capital.
func (c Category) IsExpense() bool {
	switch c {
	case CategoryUPIPayment, CategoryExtraCash, CategoryExtraUPI, CategoryOpeningCash:
		return false
	}
	return true
}

type Entry struct {
	ID        int64     `json:"id"`
	Location  string    `json:"location"`
	Category  Category  `json:"category"`
	Amount    float64   `json:"amount"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary is the derived daily balance view.
type Summary struct {
	TotalSales    float64 `json:"totalSales"`
	TotalExpenses float64 `json:"totalExpenses"`
	TotalUPI      float64 `json:"totalUPI"`
}

// Summarize folds the day's fulfilled order revenue with the manual entries.
// Extra cash/UPI payments are revenue collected outside the per-order flow
// and therefore count toward sales, not expenses.
func Summarize(fulfilledTotal float64, entries []Entry) Summary {
	s := Summary{TotalSales: fulfilledTotal}
	for _, e := range entries {
		switch e.Category {
		case CategoryExtraCash:
			s.TotalSales += e.Amount
		case CategoryExtraUPI:
			s.TotalSales += e.Amount
			s.TotalUPI += e.Amount
		case CategoryUPIPayment:
			s.TotalUPI += e.Amount
		}
		if e.Category.IsExpense() {
			s.TotalExpenses += e.Amount
		}
	}
	return s
}

// CounterBalance is the cash expected in the counter drawer: every rupee
// ever fulfilled plus extra cash collected, minus every expense paid out.
func CounterBalance(allTimeFulfilled, allTimeExtraCash, allTimeExpenses float64) float64 {
	return allTimeFulfilled + allTimeExtraCash - allTimeExpenses
}

// VerifyCounter compares a physically counted amount against the computed
// balance. A surplus appends an Extra Cash Payment, a deficit appends a
// Suspense entry; an exact match appends nothing. Correction is always a new
// entry, never an edit.
func VerifyCounter(counted, computed float64) (Category, float64, bool) {
	switch {
	case counted > computed:
		return CategoryExtraCash, counted - computed, true
	case counted < computed:
		return CategorySuspense, computed - counted, true
	default:
		return "", 0, false
	}
}
