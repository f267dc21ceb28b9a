package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cabin-order-services/internal/orders"
	"cabin-order-services/internal/queue"
	"cabin-order-services/internal/store"

	"go.uber.org/zap"
)

type fakeOrderStore struct {
	byID map[int64]*orders.Order
}

func newFakeOrderStore(list ...*orders.Order) *fakeOrderStore {
	f := &fakeOrderStore{byID: make(map[int64]*orders.Order)}
	for _, o := range list {
		f.byID[o.ID] = o
	}
	return f
}

func (f *fakeOrderStore) Insert(ctx context.Context, o *orders.Order) error {
	f.byID[o.ID] = o
	return nil
}

func (f *fakeOrderStore) FetchOrders(ctx context.Context, location string, dayStart time.Time) ([]orders.Order, []orders.Order, error) {
	return nil, nil, nil
}

func (f *fakeOrderStore) ByID(ctx context.Context, id int64) (orders.Order, error) {
	o, ok := f.byID[id]
	if !ok {
		return orders.Order{}, store.ErrNoRows
	}
	return *o, nil
}

func (f *fakeOrderStore) ByPhoneSince(ctx context.Context, location, phone string, since time.Time) ([]orders.Order, error) {
	return nil, nil
}

func (f *fakeOrderStore) Dispatch(ctx context.Context, id int64) error {
	o, ok := f.byID[id]
	if !ok || o.Dispatch != orders.DispatchPending {
		return store.ErrNoRows
	}
	o.Dispatch = orders.Dispatched
	return nil
}

func (f *fakeOrderStore) Fulfill(ctx context.Context, id int64) error {
	o, ok := f.byID[id]
	if !ok || o.Dispatch != orders.Dispatched || o.Payment != orders.PaymentPending {
		return store.ErrNoRows
	}
	o.Payment = orders.Fulfilled
	return nil
}

func (f *fakeOrderStore) Reject(ctx context.Context, id int64) error {
	o, ok := f.byID[id]
	if !ok || o.Payment != orders.PaymentPending {
		return store.ErrNoRows
	}
	o.Dispatch = orders.DispatchRejected
	o.Payment = orders.PaymentRejected
	o.Total = 0
	return nil
}

func (f *fakeOrderStore) RemoveItems(ctx context.Context, id int64, indices []int) (orders.Order, error) {
	return orders.Order{}, store.ErrNoRows
}

func (f *fakeOrderStore) FulfilledTotalSince(ctx context.Context, location string, since time.Time) (float64, error) {
	return 0, nil
}

func (f *fakeOrderStore) LastFulfilledByCabin(ctx context.Context, location string) (map[string]time.Time, error) {
	return nil, nil
}

type publishedEvent struct {
	exchange   string
	routingKey string
	payload    any
}

type fakePublisher struct {
	published []publishedEvent
}

func (f *fakePublisher) PublishJSON(ctx context.Context, exchange, routingKey string, payload any) error {
	f.published = append(f.published, publishedEvent{exchange: exchange, routingKey: routingKey, payload: payload})
	return nil
}

func rejectRequest(ids ...int64) *http.Request {
	body, _ := json.Marshal(map[string]any{"orderIds": ids})
	return httptest.NewRequest(http.MethodPost, "/api/staff/orders/reject", bytes.NewReader(body))
}

func TestStaffOrdersRejectBatch(t *testing.T) {
	orderA := &orders.Order{
		ID: 1, Location: "brigade-road", Cabin: "Cabin 4",
		Phone: "9876543210", CustomerName: "Asha Rao",
		Total: 420, Dispatch: orders.Dispatched, Payment: orders.PaymentPending,
	}
	orderB := &orders.Order{
		ID: 2, Location: "brigade-road", Cabin: "Cabin 4",
		Phone: "9876543210", CustomerName: "Asha Rao",
		Total: 180, Dispatch: orders.DispatchPending, Payment: orders.PaymentPending,
	}
	settled := &orders.Order{
		ID: 3, Location: "brigade-road", Cabin: "Cabin 5",
		Phone: "9876500000", CustomerName: "Ravi Kumar",
		Total: 260, Dispatch: orders.Dispatched, Payment: orders.Fulfilled,
	}

	fakeStore := newFakeOrderStore(orderA, orderB, settled)
	publisher := &fakePublisher{}
	h := &Handler{Orders: fakeStore, Queue: publisher, Logger: zap.NewNop()}

	rec := httptest.NewRecorder()
	h.StaffOrdersReject(rec, rejectRequest(1, 2, 3))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	for _, o := range []*orders.Order{orderA, orderB} {
		if o.Dispatch != orders.DispatchRejected {
			t.Fatalf("order %d: expected dispatch rejected, got %s", o.ID, o.Dispatch)
		}
		if o.Payment != orders.PaymentRejected {
			t.Fatalf("order %d: expected payment rejected, got %s", o.ID, o.Payment)
		}
		if o.Total != 0 {
			t.Fatalf("order %d: expected zeroed total, got %.2f", o.ID, o.Total)
		}
	}

	// Already-settled order is skipped, not touched.
	if settled.Payment != orders.Fulfilled || settled.Total != 260 {
		t.Fatalf("settled order was mutated: payment=%s total=%.2f", settled.Payment, settled.Total)
	}

	// One notification event for the whole batch.
	if len(publisher.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(publisher.published))
	}
	pub := publisher.published[0]
	if pub.exchange != queue.EventsExchange || pub.routingKey != queue.EventOrderRejected {
		t.Fatalf("unexpected publish target %s/%s", pub.exchange, pub.routingKey)
	}
	evt, ok := pub.payload.(queue.Event)
	if !ok {
		t.Fatalf("expected queue.Event payload, got %T", pub.payload)
	}
	if evt.Phone != "9876543210" || evt.CustomerName != "Asha Rao" {
		t.Fatalf("event carries wrong customer: %s / %s", evt.Phone, evt.CustomerName)
	}
	if len(evt.OrderIDs) != 2 || evt.OrderIDs[0] != 1 || evt.OrderIDs[1] != 2 {
		t.Fatalf("expected event order ids [1 2], got %v", evt.OrderIDs)
	}

	var resp struct {
		Data batchResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data.Updated) != 2 || len(resp.Data.Skipped) != 1 || resp.Data.Skipped[0] != 3 {
		t.Fatalf("unexpected batch result: updated=%v skipped=%v", resp.Data.Updated, resp.Data.Skipped)
	}
}

func TestStaffOrdersRejectAllSkippedPublishesNothing(t *testing.T) {
	settled := &orders.Order{
		ID: 7, Location: "indiranagar", Cabin: "Cabin 2",
		Phone: "9876500000", CustomerName: "Ravi Kumar",
		Total: 300, Dispatch: orders.Dispatched, Payment: orders.Fulfilled,
	}
	publisher := &fakePublisher{}
	h := &Handler{Orders: newFakeOrderStore(settled), Queue: publisher, Logger: zap.NewNop()}

	rec := httptest.NewRecorder()
	h.StaffOrdersReject(rec, rejectRequest(7, 99))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(publisher.published) != 0 {
		t.Fatalf("expected no events for an all-skipped batch, got %d", len(publisher.published))
	}
	if settled.Payment != orders.Fulfilled {
		t.Fatalf("settled order was mutated")
	}
}
