package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"cabin-order-services/internal/bookings"
	"cabin-order-services/internal/orders"
	"cabin-order-services/internal/queue"

	"go.uber.org/zap"
)

type fakeOrderSource struct {
	current   []orders.Order
	payLater  []orders.Order
	fetchErr  error
	loadedIDs [][]int64
}

func (f *fakeOrderSource) FetchOrders(_ context.Context, _ string, _ time.Time) ([]orders.Order, []orders.Order, error) {
	if f.fetchErr != nil {
		return nil, nil, f.fetchErr
	}
	return f.current, f.payLater, nil
}

func (f *fakeOrderSource) MarkLoaded(_ context.Context, ids []int64) error {
	f.loadedIDs = append(f.loadedIDs, ids)
	for i := range f.current {
		for _, id := range ids {
			if f.current[i].ID == id {
				f.current[i].Load = orders.Loaded
			}
		}
	}
	return nil
}

func (f *fakeOrderSource) LastFulfilledByCabin(_ context.Context, _ string) (map[string]time.Time, error) {
	return nil, nil
}

type fakeBookingSource struct {
	bookings    []bookings.Booking
	notifiedIDs [][]int64
}

func (f *fakeBookingSource) FetchFrom(_ context.Context, _, _ string) ([]bookings.Booking, error) {
	return f.bookings, nil
}

func (f *fakeBookingSource) MarkNotified(_ context.Context, ids []int64) error {
	f.notifiedIDs = append(f.notifiedIDs, ids)
	return nil
}

type fakePublisher struct {
	events []queue.Event
}

func (f *fakePublisher) PublishJSON(_ context.Context, _, _ string, payload any) error {
	if evt, ok := payload.(queue.Event); ok {
		f.events = append(f.events, evt)
	}
	return nil
}

func (f *fakePublisher) byType(kind string) []queue.Event {
	var out []queue.Event
	for _, evt := range f.events {
		if evt.Type == kind {
			out = append(out, evt)
		}
	}
	return out
}

type fakeBroadcaster struct {
	frames []map[string]any
}

func (f *fakeBroadcaster) Broadcast(_ string, payload any) {
	if frame, ok := payload.(map[string]any); ok {
		f.frames = append(f.frames, frame)
	}
}

func (f *fakeBroadcaster) byType(kind string) []map[string]any {
	var out []map[string]any
	for _, frame := range f.frames {
		if frame["type"] == kind {
			out = append(out, frame)
		}
	}
	return out
}

type clock struct {
	at time.Time
}

func (c *clock) now() time.Time { return c.at }

func (c *clock) advance(d time.Duration) { c.at = c.at.Add(d) }

func newTestPoller(os *fakeOrderSource, bs *fakeBookingSource, pub *fakePublisher, bc *fakeBroadcaster, ck *clock) *Poller {
	return &Poller{
		Location:          "brigade-road",
		CabinNames:        []string{"Cabin 1", "Cabin 2"},
		Orders:            os,
		Bookings:          bs,
		Publisher:         pub,
		Broadcaster:       bc,
		Logger:            zap.NewNop(),
		OrderInterval:     3 * time.Second,
		BookingInterval:   10 * time.Minute,
		HousefullThrottle: 30 * time.Minute,
		Now:               ck.now,
	}
}

func TestCycleAlertsNewOrdersAtMostOnce(t *testing.T) {
	ck := &clock{at: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	os := &fakeOrderSource{current: []orders.Order{
		{ID: 7, Cabin: "Cabin 1", Dispatch: orders.DispatchPending, Payment: orders.PaymentPending,
			Load: orders.LoadPending, CreatedAt: ck.at},
	}}
	bs := &fakeBookingSource{}
	pub := &fakePublisher{}
	bc := &fakeBroadcaster{}
	p := newTestPoller(os, bs, pub, bc, ck)
	ctx := context.Background()

	p.Cycle(ctx)

	if got := bc.byType("orders.alert"); len(got) != 1 {
		t.Fatalf("expected 1 arrival alert, got %d", len(got))
	}
	if got := pub.byType(queue.EventOrderPlaced); len(got) != 1 || got[0].OrderIDs[0] != 7 {
		t.Fatalf("expected 1 order.placed event for id 7, got %+v", got)
	}
	if len(os.loadedIDs) != 1 {
		t.Fatalf("expected exactly one mark-loaded call")
	}

	// Next tick sees the same order already loaded: no duplicate alert.
	ck.advance(3 * time.Second)
	p.Cycle(ctx)
	if got := bc.byType("orders.alert"); len(got) != 1 {
		t.Fatalf("order must alert at most once, got %d alerts", len(got))
	}
}

func TestCycleAlertsUpcomingBookingOnce(t *testing.T) {
	ck := &clock{at: time.Date(2025, 3, 10, 16, 45, 0, 0, time.UTC)}
	os := &fakeOrderSource{}
	bs := &fakeBookingSource{bookings: []bookings.Booking{
		{ID: 3, Cabin: "Cabin 1", Date: "2025-03-10", StartTime: "17:00", EndTime: "19:00",
			CustomerName: "Ravi Kumar", Phone: "987"},
	}}
	pub := &fakePublisher{}
	bc := &fakeBroadcaster{}
	p := newTestPoller(os, bs, pub, bc, ck)
	ctx := context.Background()

	p.RefreshBookings(ctx)
	p.Cycle(ctx)

	if got := pub.byType(queue.EventBookingUpcoming); len(got) != 1 || got[0].BookingID != 3 {
		t.Fatalf("expected one booking.upcoming event, got %+v", got)
	}
	if len(bs.notifiedIDs) != 1 {
		t.Fatalf("expected mark-notified call")
	}

	// The fast tick runs again before the next booking refresh; the local
	// flag mirror must suppress a repeat.
	ck.advance(3 * time.Second)
	p.Cycle(ctx)
	if got := pub.byType(queue.EventBookingUpcoming); len(got) != 1 {
		t.Fatalf("booking alert must fire at most once, got %d", len(got))
	}
}

func TestCycleHousefullThrottle(t *testing.T) {
	ck := &clock{at: time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)}
	dispatched := ck.at.Add(-10 * time.Minute)
	os := &fakeOrderSource{current: []orders.Order{
		{ID: 1, Cabin: "Cabin 1", Total: 400, Dispatch: orders.Dispatched,
			Payment: orders.PaymentPending, Load: orders.Loaded, DispatchedAt: &dispatched, CreatedAt: dispatched},
		{ID: 2, Cabin: "Cabin 2", Total: 500, Dispatch: orders.Dispatched,
			Payment: orders.PaymentPending, Load: orders.Loaded, DispatchedAt: &dispatched, CreatedAt: dispatched},
	}}
	bs := &fakeBookingSource{}
	pub := &fakePublisher{}
	bc := &fakeBroadcaster{}
	p := newTestPoller(os, bs, pub, bc, ck)
	ctx := context.Background()

	p.Cycle(ctx)
	if got := pub.byType(queue.EventHousefull); len(got) != 1 {
		t.Fatalf("expected housefull event, got %d", len(got))
	}

	// Still full 3 seconds later: throttled.
	ck.advance(3 * time.Second)
	p.Cycle(ctx)
	if got := pub.byType(queue.EventHousefull); len(got) != 1 {
		t.Fatalf("housefull must be throttled, got %d events", len(got))
	}

	// Past the throttle window it may fire again.
	ck.advance(31 * time.Minute)
	p.Cycle(ctx)
	if got := pub.byType(queue.EventHousefull); len(got) != 2 {
		t.Fatalf("expected second housefull after throttle window, got %d", len(got))
	}
}

func TestCycleFetchFailureKeepsPolling(t *testing.T) {
	ck := &clock{at: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	os := &fakeOrderSource{fetchErr: errors.New("store unavailable")}
	p := newTestPoller(os, &fakeBookingSource{}, &fakePublisher{}, &fakeBroadcaster{}, ck)

	p.Cycle(context.Background())
	if _, ok := p.Latest(); ok {
		t.Fatalf("failed cycle must not produce a snapshot")
	}

	// Store recovers; the next tick works without any special handling.
	os.fetchErr = nil
	p.Cycle(context.Background())
	if _, ok := p.Latest(); !ok {
		t.Fatalf("expected snapshot after recovery")
	}
}

func TestBroadcastSuppressedWhenUnchanged(t *testing.T) {
	ck := &clock{at: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	os := &fakeOrderSource{}
	bc := &fakeBroadcaster{}
	p := newTestPoller(os, &fakeBookingSource{}, &fakePublisher{}, bc, ck)
	ctx := context.Background()

	p.Cycle(ctx)
	ck.advance(3 * time.Second)
	p.Cycle(ctx)

	if got := bc.byType("snapshot"); len(got) != 1 {
		t.Fatalf("identical derived state must broadcast once, got %d", len(got))
	}

	// A new order changes the digest.
	os.current = []orders.Order{{ID: 9, Cabin: "Cabin 1", Load: orders.Loaded,
		Dispatch: orders.DispatchPending, Payment: orders.PaymentPending, CreatedAt: ck.at}}
	ck.advance(3 * time.Second)
	p.Cycle(ctx)
	if got := bc.byType("snapshot"); len(got) != 2 {
		t.Fatalf("changed state must broadcast, got %d", len(got))
	}
}

func TestSnapshotClassifiesAndRanks(t *testing.T) {
	ck := &clock{at: time.Date(2025, 3, 10, 13, 5, 0, 0, time.UTC)}
	dispatched := ck.at.Add(-65 * time.Minute)
	os := &fakeOrderSource{current: []orders.Order{
		{ID: 1, Cabin: "Cabin 1", Total: 200, Dispatch: orders.Dispatched,
			Payment: orders.PaymentPending, Load: orders.Loaded, DispatchedAt: &dispatched, CreatedAt: dispatched},
	}}
	p := newTestPoller(os, &fakeBookingSource{}, &fakePublisher{}, &fakeBroadcaster{}, ck)

	p.Cycle(context.Background())
	snapshot, ok := p.Latest()
	if !ok {
		t.Fatalf("expected snapshot")
	}
	if len(snapshot.Tabs.Active) != 1 {
		t.Fatalf("expected the dispatched order in the active tab")
	}
	if snapshot.Cabins[0].Cabin != "Cabin 1" || snapshot.Cabins[0].Label != "Occupied (Critical)" {
		t.Fatalf("expected underspending cabin first and critical, got %+v", snapshot.Cabins[0])
	}
}
