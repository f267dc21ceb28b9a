package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func New(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Client{conn: conn, ch: ch}, nil
}

func (c *Client) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) EnsureExchange(name, kind string) error {
	if kind == "" {
		kind = "topic"
	}
	return c.ch.ExchangeDeclare(name, kind, true, false, false, false, nil)
}

func (c *Client) EnsureQueue(name string, args amqp.Table) (amqp.Queue, error) {
	return c.ch.QueueDeclare(name, true, false, false, false, args)
}

func (c *Client) BindQueue(queueName, exchange, routingKey string) error {
	return c.ch.QueueBind(queueName, routingKey, exchange, false, nil)
}

func (c *Client) PublishJSON(ctx context.Context, exchange, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Timestamp:   time.Now(),
	})
}

type HandlerFunc func(ctx context.Context, body []byte) error

// ConsumeWithRetry delivers each message to handler, requeueing failures up
// to maxRetries with a flat delay. Exhausted messages are nacked without
// requeue and land in the queue's dead-letter exchange if one is bound.
func (c *Client) ConsumeWithRetry(queue string, handler HandlerFunc, maxRetries int, retryDelay time.Duration) error {
	msgs, err := c.ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for msg := range msgs {
		ctx := context.Background()
		if err := handler(ctx, msg.Body); err == nil {
			_ = msg.Ack(false)
			continue
		}

		retryCount := getRetryCount(msg.Headers)
		if retryCount >= maxRetries {
			_ = msg.Nack(false, false)
			continue
		}

		headers := msg.Headers
		if headers == nil {
			headers = amqp.Table{}
		}
		headers["x-retry-count"] = retryCount + 1

		time.Sleep(retryDelay)
		_ = c.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
			ContentType: msg.ContentType,
			Body:        msg.Body,
			Headers:     headers,
			Timestamp:   time.Now(),
		})
		_ = msg.Ack(false)
	}

	return errors.New("consumer closed")
}

func getRetryCount(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	if v, ok := headers["x-retry-count"]; ok {
		switch t := v.(type) {
		case int32:
			return int(t)
		case int64:
			return int(t)
		case int:
			return t
		}
	}
	return 0
}
