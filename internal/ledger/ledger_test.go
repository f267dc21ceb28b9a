package ledger

import "testing"

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("Extra UPI Payment")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != CategoryExtraUPI {
		t.Fatalf("expected extra UPI category, got %s", c)
	}
	if _, err := ParseCategory("Petty Cash"); err == nil {
		t.Fatalf("expected error for unknown category")
	}
}

func TestIsExpense(t *testing.T) {
	expenses := []Category{
		CategorySupplier, CategoryDrawings, CategorySalary, CategoryRent,
		CategoryElectricity, CategoryOthers, CategorySuspense,
	}
	for _, c := range expenses {
		if !c.IsExpense() {
			t.Fatalf("%s should count as expense", c)
		}
	}
	revenue := []Category{
		CategoryUPIPayment, CategoryExtraCash, CategoryExtraUPI, CategoryOpeningCash,
	}
	for _, c := range revenue {
		if c.IsExpense() {
			t.Fatalf("%s must not count as expense", c)
		}
	}
}

func TestSummarize(t *testing.T) {
	entries := []Entry{
		{Category: CategorySupplier, Amount: 1200},
		{Category: CategoryRent, Amount: 800},
		{Category: CategoryUPIPayment, Amount: 650},
		{Category: CategoryExtraCash, Amount: 150},
		{Category: CategoryExtraUPI, Amount: 90},
		{Category: CategoryOpeningCash, Amount: 2000},
		{Category: CategorySuspense, Amount: 40},
	}
	s := Summarize(5000, entries)

	if s.TotalSales != 5000+150+90 {
		t.Fatalf("expected sales 5240, got %.2f", s.TotalSales)
	}
	if s.TotalExpenses != 1200+800+40 {
		t.Fatalf("expected expenses 2040, got %.2f", s.TotalExpenses)
	}
	if s.TotalUPI != 650+90 {
		t.Fatalf("expected UPI 740, got %.2f", s.TotalUPI)
	}
}

func TestCounterBalance(t *testing.T) {
	if got := CounterBalance(10000, 500, 3200); got != 7300 {
		t.Fatalf("expected 7300, got %.2f", got)
	}
}

func TestVerifyCounter(t *testing.T) {
	cases := []struct {
		name     string
		counted  float64
		computed float64
		category Category
		amount   float64
		append_  bool
	}{
		{name: "surplus", counted: 5000, computed: 4800, category: CategoryExtraCash, amount: 200, append_: true},
		{name: "deficit", counted: 4500, computed: 4800, category: CategorySuspense, amount: 300, append_: true},
		{name: "exact", counted: 4800, computed: 4800, append_: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			category, amount, ok := VerifyCounter(tc.counted, tc.computed)
			if ok != tc.append_ {
				t.Fatalf("expected append=%v, got %v", tc.append_, ok)
			}
			if !ok {
				return
			}
			if category != tc.category {
				t.Fatalf("expected %s, got %s", tc.category, category)
			}
			if amount != tc.amount {
				t.Fatalf("expected amount %.2f, got %.2f", tc.amount, amount)
			}
		})
	}
}
