package poll

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"cabin-order-services/internal/bookings"
	"cabin-order-services/internal/cabins"
	"cabin-order-services/internal/orders"
	"cabin-order-services/internal/queue"
	"cabin-order-services/internal/utils"

	"go.uber.org/zap"
)

type OrderSource interface {
	FetchOrders(ctx context.Context, location string, dayStart time.Time) (current, payLater []orders.Order, err error)
	MarkLoaded(ctx context.Context, ids []int64) error
	LastFulfilledByCabin(ctx context.Context, location string) (map[string]time.Time, error)
}

type BookingSource interface {
	FetchFrom(ctx context.Context, location, fromDate string) ([]bookings.Booking, error)
	MarkNotified(ctx context.Context, ids []int64) error
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, exchange, routingKey string, payload any) error
}

type Broadcaster interface {
	Broadcast(location string, payload any)
}

// Snapshot is one cycle's immutable derived view. Every dashboard value is
// recomputed from scratch each cycle; nothing patches the previous snapshot.
type Snapshot struct {
	Location string          `json:"location"`
	At       time.Time       `json:"at"`
	Tabs     orders.Tabs     `json:"tabs"`
	PayLater []orders.Order  `json:"payLaterOrders"`
	Cabins   []cabins.Status `json:"cabins"`
}

// Poller re-derives one branch's order and cabin state on a fast order tick
// and refreshes bookings on a slow tick. Alerts are advisory: a crash after
// alerting but before the mark-as-loaded write may repeat an alert, which is
// accepted.
type Poller struct {
	Location   string
	CabinNames []string

	Orders      OrderSource
	Bookings    BookingSource
	Publisher   EventPublisher // nil when rabbitmq is disabled
	Broadcaster Broadcaster    // nil in workers without a ws server
	Logger      *zap.Logger

	OrderInterval     time.Duration
	BookingInterval   time.Duration
	HousefullThrottle time.Duration
	BookingLookahead  time.Duration

	Now func() time.Time

	mu            sync.Mutex
	latest        Snapshot
	hasSnapshot   bool
	cachedBkgs    []bookings.Booking
	lastHousefull time.Time
	lastDigest    string
}

func (p *Poller) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Poller) lookahead() time.Duration {
	if p.BookingLookahead > 0 {
		return p.BookingLookahead
	}
	return cabins.BookingLookahead
}

// Latest returns the most recent snapshot for new dashboard connections.
func (p *Poller) Latest() (Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest, p.hasSnapshot
}

func (p *Poller) Run(ctx context.Context) {
	p.RefreshBookings(ctx)
	p.Cycle(ctx)

	orderTick := time.NewTicker(p.OrderInterval)
	defer orderTick.Stop()
	bookingTick := time.NewTicker(p.BookingInterval)
	defer bookingTick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-bookingTick.C:
			p.RefreshBookings(ctx)
		case <-orderTick.C:
			p.Cycle(ctx)
		}
	}
}

// RefreshBookings re-fetches the booking set from today onward. A fetch
// failure keeps the previous cache; the next slow tick tries again.
func (p *Poller) RefreshBookings(ctx context.Context) {
	today := utils.DateString(p.now())
	fetched, err := p.Bookings.FetchFrom(ctx, p.Location, today)
	if err != nil {
		p.Logger.Warn("booking fetch failed; keeping previous set",
			zap.String("location", p.Location), zap.Error(err))
		return
	}
	p.mu.Lock()
	p.cachedBkgs = fetched
	p.mu.Unlock()
}

// Cycle is one order-tick pass: fetch, re-derive, diff for alerts, publish.
func (p *Poller) Cycle(ctx context.Context) {
	now := p.now()

	current, payLater, err := p.Orders.FetchOrders(ctx, p.Location, utils.StartOfDay(now))
	if err != nil {
		// No backoff: the next tick simply tries again.
		p.Logger.Warn("order fetch failed", zap.String("location", p.Location), zap.Error(err))
		return
	}

	lastFulfilled, err := p.Orders.LastFulfilledByCabin(ctx, p.Location)
	if err != nil {
		p.Logger.Warn("vacant-dwell lookup failed", zap.Error(err))
		lastFulfilled = nil
	}

	p.mu.Lock()
	bkgs := p.cachedBkgs
	p.mu.Unlock()

	var open []orders.Order
	for _, o := range current {
		if o.Open() {
			open = append(open, o)
		}
	}
	for _, o := range payLater {
		if o.Open() {
			open = append(open, o)
		}
	}

	snapshot := Snapshot{
		Location: p.Location,
		At:       now,
		Tabs:     orders.SplitTabs(current),
		PayLater: payLater,
		Cabins:   cabins.EvaluateAll(p.CabinNames, open, bkgs, lastFulfilled, now),
	}

	p.alertNewOrders(ctx, current, now)
	p.alertUpcomingBookings(ctx, bkgs, now)
	p.alertHousefull(ctx, snapshot.Cabins, now)

	p.mu.Lock()
	p.latest = snapshot
	p.hasSnapshot = true
	p.mu.Unlock()

	p.broadcastSnapshot(snapshot)
}

// alertNewOrders fires the at-most-once arrival alert for orders still in
// load_state pending, then marks them loaded.
func (p *Poller) alertNewOrders(ctx context.Context, current []orders.Order, now time.Time) {
	var fresh []orders.Order
	for _, o := range current {
		if o.Load == orders.LoadPending {
			fresh = append(fresh, o)
		}
	}
	if len(fresh) == 0 {
		return
	}

	ids := make([]int64, 0, len(fresh))
	for _, o := range fresh {
		ids = append(ids, o.ID)
		if p.Broadcaster != nil {
			p.Broadcaster.Broadcast(p.Location, map[string]any{
				"type": "orders.alert",
				"data": o,
			})
		}
	}

	if p.Publisher != nil {
		evt := queue.Event{
			Type:     queue.EventOrderPlaced,
			Location: p.Location,
			OrderIDs: ids,
			At:       &now,
		}
		if err := p.Publisher.PublishJSON(ctx, queue.EventsExchange, queue.EventOrderPlaced, evt); err != nil {
			p.Logger.Warn("order.placed publish failed", zap.Error(err))
		}
	}

	if err := p.Orders.MarkLoaded(ctx, ids); err != nil {
		// Alert already went out; a failed mark may repeat it next cycle.
		p.Logger.Warn("mark loaded failed", zap.Error(err))
	}
}

func (p *Poller) alertUpcomingBookings(ctx context.Context, bkgs []bookings.Booking, now time.Time) {
	var due []bookings.Booking
	for _, b := range bkgs {
		if b.Notified {
			continue
		}
		if _, ok := b.StartsWithin(now, p.lookahead()); ok {
			due = append(due, b)
		}
	}
	if len(due) == 0 {
		return
	}

	ids := make([]int64, 0, len(due))
	for _, b := range due {
		ids = append(ids, b.ID)
		if p.Broadcaster != nil {
			p.Broadcaster.Broadcast(p.Location, map[string]any{
				"type": "bookings.alert",
				"data": b,
			})
		}
		if p.Publisher != nil {
			evt := queue.Event{
				Type:         queue.EventBookingUpcoming,
				Location:     p.Location,
				Cabin:        b.Cabin,
				BookingID:    b.ID,
				Phone:        b.Phone,
				CustomerName: b.CustomerName,
				StartsAt:     b.StartTime,
			}
			if err := p.Publisher.PublishJSON(ctx, queue.EventsExchange, queue.EventBookingUpcoming, evt); err != nil {
				p.Logger.Warn("booking.upcoming publish failed", zap.Error(err))
			}
		}
	}

	if err := p.Bookings.MarkNotified(ctx, ids); err != nil {
		p.Logger.Warn("mark notified failed", zap.Error(err))
	}

	// Mirror the flag locally so the next fast tick doesn't re-alert
	// before the slow booking refresh.
	p.mu.Lock()
	for i := range p.cachedBkgs {
		for _, id := range ids {
			if p.cachedBkgs[i].ID == id {
				p.cachedBkgs[i].Notified = true
			}
		}
	}
	p.mu.Unlock()
}

// alertHousefull fires when every cabin is occupied, throttled so a full
// house across hundreds of 3s cycles alerts once per throttle window.
func (p *Poller) alertHousefull(ctx context.Context, statuses []cabins.Status, now time.Time) {
	if len(statuses) == 0 {
		return
	}
	for _, st := range statuses {
		if !st.Occupied() {
			return
		}
	}

	p.mu.Lock()
	throttled := !p.lastHousefull.IsZero() && now.Sub(p.lastHousefull) < p.HousefullThrottle
	if !throttled {
		p.lastHousefull = now
	}
	p.mu.Unlock()
	if throttled {
		return
	}

	if p.Broadcaster != nil {
		p.Broadcaster.Broadcast(p.Location, map[string]any{
			"type": "cabins.housefull",
			"at":   now,
		})
	}
	if p.Publisher != nil {
		evt := queue.Event{Type: queue.EventHousefull, Location: p.Location, At: &now}
		if err := p.Publisher.PublishJSON(ctx, queue.EventsExchange, queue.EventHousefull, evt); err != nil {
			p.Logger.Warn("housefull publish failed", zap.Error(err))
		}
	}
}

// broadcastSnapshot pushes the derived view, suppressing cycles where
// nothing but the timestamp moved.
func (p *Poller) broadcastSnapshot(snapshot Snapshot) {
	if p.Broadcaster == nil {
		return
	}

	digest := snapshotDigest(snapshot)
	p.mu.Lock()
	unchanged := digest != "" && digest == p.lastDigest
	p.lastDigest = digest
	p.mu.Unlock()
	if unchanged {
		return
	}

	p.Broadcaster.Broadcast(p.Location, map[string]any{
		"type": "snapshot",
		"data": snapshot,
	})
}

func snapshotDigest(snapshot Snapshot) string {
	stripped := snapshot
	stripped.At = time.Time{}
	body, err := json.Marshal(stripped)
	if err != nil {
		return ""
	}
	return string(body)
}
