package handlers

import (
	"context"
	"time"

	"cabin-order-services/internal/cabins"
	"cabin-order-services/internal/config"
	"cabin-order-services/internal/orders"
	"cabin-order-services/internal/queue"
	"cabin-order-services/internal/storage"
	"cabin-order-services/internal/store"
	"cabin-order-services/internal/utils"

	"go.uber.org/zap"
)

// OrderStore is what the handlers need from the orders table;
// *store.OrderStore satisfies it.
type OrderStore interface {
	Insert(ctx context.Context, o *orders.Order) error
	FetchOrders(ctx context.Context, location string, dayStart time.Time) (current, payLater []orders.Order, err error)
	ByID(ctx context.Context, id int64) (orders.Order, error)
	ByPhoneSince(ctx context.Context, location, phone string, since time.Time) ([]orders.Order, error)
	Dispatch(ctx context.Context, id int64) error
	Fulfill(ctx context.Context, id int64) error
	Reject(ctx context.Context, id int64) error
	RemoveItems(ctx context.Context, id int64, indices []int) (orders.Order, error)
	FulfilledTotalSince(ctx context.Context, location string, since time.Time) (float64, error)
	LastFulfilledByCabin(ctx context.Context, location string) (map[string]time.Time, error)
}

// EventPublisher is the queue surface handlers publish on;
// *queue.Client satisfies it.
type EventPublisher interface {
	PublishJSON(ctx context.Context, exchange, routingKey string, payload any) error
}

type Handler struct {
	Orders   OrderStore
	Bookings *store.BookingStore
	Ledger   *store.LedgerStore
	Callers  *store.CallerStore
	Layout   cabins.Layout
	Logger   *zap.Logger
	Config   config.Config
	Queue    EventPublisher       // nil when rabbitmq is disabled
	Reports  *storage.ObjectStore // nil when the object store is not configured
}

func (h *Handler) now() time.Time {
	return time.Now().In(utils.Location(h.Config.Timezone))
}

// publishEvent is fire-and-forget: the mutation it follows has already
// committed, so a publish failure is logged and swallowed.
func (h *Handler) publishEvent(ctx context.Context, evt queue.Event) {
	if h.Queue == nil {
		return
	}
	if err := h.Queue.PublishJSON(ctx, queue.EventsExchange, evt.Type, evt); err != nil {
		h.Logger.Warn("event publish failed", zap.String("type", evt.Type), zap.Error(err))
	}
}
