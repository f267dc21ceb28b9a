package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange = "cabin.events"
	EventsQueue    = "cabin.notifications"

	JobsExchange = "cabin.notification_jobs"
	JobsQueue    = "cabin.notification_jobs.process"
	JobsDLQ      = "cabin.notification_jobs.dlq"
	JobsRK       = "process"
	JobsDeadRK   = "dead"
)

// Event types published on the events exchange. Routing keys match the
// type, so the events queue binds "order.#" and "booking.#" and "cabins.#".
const (
	EventOrderPlaced     = "order.placed"
	EventOrderRejected   = "order.rejected"
	EventBookingUpcoming = "booking.upcoming"
	EventHousefull       = "cabins.housefull"
)

type Event struct {
	Type         string     `json:"type"`
	Location     string     `json:"location"`
	Cabin        string     `json:"cabin,omitempty"`
	OrderIDs     []int64    `json:"orderIds,omitempty"`
	BookingID    int64      `json:"bookingId,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	CustomerName string     `json:"customerName,omitempty"`
	Total        float64    `json:"total,omitempty"`
	StartsAt     string     `json:"startsAt,omitempty"`
	At           *time.Time `json:"at,omitempty"`
}

// Job kinds consumed by the notification worker.
const (
	JobSMS   = "sms.send"
	JobEmail = "email.send"
	JobCall  = "call.trigger"
)

type Job struct {
	Kind      string `json:"kind"`
	Location  string `json:"location"`
	Phone     string `json:"phone,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	Template  string `json:"template,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Body      string `json:"body,omitempty"`
	Callee    string `json:"callee,omitempty"`
}

// EnsureTopology declares the events exchange, the jobs exchange with its
// dead-letter queue, and the bindings between them.
func EnsureTopology(qc *Client) error {
	if qc == nil {
		return nil
	}

	if err := qc.EnsureExchange(EventsExchange, "topic"); err != nil {
		return err
	}
	if _, err := qc.EnsureQueue(EventsQueue, nil); err != nil {
		return err
	}
	// '#' matches multi-segment keys like order.status.updated; '*' would
	// only match one segment.
	for _, pattern := range []string{"order.#", "booking.#", "cabins.#"} {
		if err := qc.BindQueue(EventsQueue, EventsExchange, pattern); err != nil {
			return err
		}
	}

	if err := qc.EnsureExchange(JobsExchange, "direct"); err != nil {
		return err
	}
	if _, err := qc.EnsureQueue(JobsDLQ, nil); err != nil {
		return err
	}
	if err := qc.BindQueue(JobsDLQ, JobsExchange, JobsDeadRK); err != nil {
		return err
	}
	if _, err := qc.EnsureQueue(JobsQueue, amqp.Table{
		"x-dead-letter-exchange":    JobsExchange,
		"x-dead-letter-routing-key": JobsDeadRK,
	}); err != nil {
		return err
	}
	return qc.BindQueue(JobsQueue, JobsExchange, JobsRK)
}

type jobPublisher interface {
	PublishJSON(ctx context.Context, exchange, routingKey string, payload any) error
}

// activeCallerFunc resolves the branch's active outbound caller number.
type activeCallerFunc func(ctx context.Context, location string) (string, bool)

// Translator turns domain events into provider jobs. It runs in the
// daemon-mode worker, after the triggering mutation has already committed.
type Translator struct {
	Publisher    jobPublisher
	ActiveCaller activeCallerFunc
}

func NewTranslator(publisher jobPublisher, activeCaller activeCallerFunc) *Translator {
	return &Translator{Publisher: publisher, ActiveCaller: activeCaller}
}

func (t *Translator) ProcessEvent(ctx context.Context, body []byte) error {
	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return err
	}
	if strings.TrimSpace(evt.Type) == "" {
		// Unknown envelope; drop rather than poison the queue.
		return nil
	}

	jobs := t.jobsFor(ctx, evt)
	for _, job := range jobs {
		if err := t.Publisher.PublishJSON(ctx, JobsExchange, JobsRK, job); err != nil {
			return err
		}
	}
	return nil
}

func (t *Translator) jobsFor(ctx context.Context, evt Event) []Job {
	switch evt.Type {
	case EventOrderPlaced:
		// Phone-call automation: ring the branch's active caller so staff
		// off the dashboard still hear about the order.
		if t.ActiveCaller == nil {
			return nil
		}
		caller, ok := t.ActiveCaller(ctx, evt.Location)
		if !ok {
			return nil
		}
		return []Job{{
			Kind:     JobCall,
			Location: evt.Location,
			Callee:   caller,
		}}

	case EventOrderRejected:
		// One SMS per rejected batch, templated with the first name only.
		return []Job{{
			Kind:      JobSMS,
			Location:  evt.Location,
			Phone:     evt.Phone,
			FirstName: firstName(evt.CustomerName),
			Template:  "order_rejected",
		}}

	case EventBookingUpcoming:
		return []Job{
			{
				Kind:      JobSMS,
				Location:  evt.Location,
				Phone:     evt.Phone,
				FirstName: firstName(evt.CustomerName),
				Template:  "booking_reminder",
			},
			{
				Kind:     JobEmail,
				Location: evt.Location,
				Subject:  fmt.Sprintf("Upcoming booking: %s at %s", evt.Cabin, evt.StartsAt),
				Body:     fmt.Sprintf("%s has a booking for %s starting %s.", evt.CustomerName, evt.Cabin, evt.StartsAt),
			},
		}

	case EventHousefull:
		return []Job{{
			Kind:     JobEmail,
			Location: evt.Location,
			Subject:  "House full",
			Body:     fmt.Sprintf("All cabins at %s are occupied.", evt.Location),
		}}
	}
	return nil
}

func firstName(full string) string {
	fields := strings.Fields(strings.TrimSpace(full))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
