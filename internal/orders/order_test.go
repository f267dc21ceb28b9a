package orders

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		dispatch DispatchStatus
		payment  PaymentStatus
		expected Tab
	}{
		{
			name:     "fresh order",
			dispatch: DispatchPending,
			payment:  PaymentPending,
			expected: TabNew,
		},
		{
			name:     "dispatched and unpaid",
			dispatch: Dispatched,
			payment:  PaymentPending,
			expected: TabActive,
		},
		{
			name:     "dispatched and fulfilled",
			dispatch: Dispatched,
			payment:  Fulfilled,
			expected: TabPrevious,
		},
		{
			name:     "rejected before dispatch",
			dispatch: DispatchRejected,
			payment:  PaymentRejected,
			expected: TabPrevious,
		},
		{
			name:     "dispatch rejected alone",
			dispatch: DispatchRejected,
			payment:  PaymentPending,
			expected: TabPrevious,
		},
		{
			name:     "payment rejected alone",
			dispatch: DispatchPending,
			payment:  PaymentRejected,
			expected: TabPrevious,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(Order{Dispatch: tc.dispatch, Payment: tc.payment})
			if got != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestClassifyIgnoresOtherFields(t *testing.T) {
	// Fulfilled always wins regardless of cabin, totals or timestamps.
	o := Order{
		Cabin:    "Cabin 4",
		Total:    1250,
		Dispatch: Dispatched,
		Payment:  Fulfilled,
	}
	if got := Classify(o); got != TabPrevious {
		t.Fatalf("expected previous, got %s", got)
	}
	if o.Open() {
		t.Fatalf("fulfilled order must not count as open")
	}
}

func TestSplitTabs(t *testing.T) {
	list := []Order{
		{ID: 1, Dispatch: DispatchPending, Payment: PaymentPending},
		{ID: 2, Dispatch: Dispatched, Payment: PaymentPending},
		{ID: 3, Dispatch: Dispatched, Payment: Fulfilled},
		{ID: 4, Dispatch: DispatchRejected, Payment: PaymentRejected},
	}
	tabs := SplitTabs(list)
	if len(tabs.New) != 1 || tabs.New[0].ID != 1 {
		t.Fatalf("unexpected new tab: %+v", tabs.New)
	}
	if len(tabs.Active) != 1 || tabs.Active[0].ID != 2 {
		t.Fatalf("unexpected active tab: %+v", tabs.Active)
	}
	if len(tabs.Previous) != 2 {
		t.Fatalf("expected 2 previous orders, got %d", len(tabs.Previous))
	}
}
