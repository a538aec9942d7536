package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Ashisharjun12/devfinder-final/internal/log"
)

type Consumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	q    string
}

// NewConsumer makes sure the exchange and queue exist and are bound by key.
func NewConsumer(url, exchange, queue, key string) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbit: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	qd, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(qd.Name, key, exchange, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &Consumer{conn: conn, ch: ch, q: qd.Name}, nil
}

func (c *Consumer) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Delivery is the part of an AMQP delivery a handler sees.
type Delivery struct {
	Key       string
	MessageID string
	RequestID string
	Body      []byte
}

// Handler returns nil to ack; any error nacks with requeue.
type Handler func(ctx context.Context, d Delivery) error

// Consume runs handle on a pool of workers until ctx is cancelled.
func (c *Consumer) Consume(ctx context.Context, workers int, handle Handler) error {
	if c == nil || c.ch == nil {
		return fmt.Errorf("consumer is not initialized")
	}
	if workers <= 0 {
		workers = 1
	}

	if err := c.ch.Qos(workers*2, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	msgs, err := c.ch.Consume(c.q, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	var wg sync.WaitGroup
	pool, err := ants.NewPoolWithFunc(workers, func(arg any) {
		defer wg.Done()
		Dispatch(ctx, arg.(amqp.Delivery), handle)
	}, ants.WithPanicHandler(func(v any) {
		log.L().Error("consumer handler panic", zap.Any("panic", v))
	}))
	if err != nil {
		return fmt.Errorf("worker pool: %w", err)
	}
	defer pool.Release()

	return pump(ctx, msgs, func(d amqp.Delivery) error {
		wg.Add(1)
		if err := pool.Invoke(d); err != nil {
			wg.Done()
			return err
		}
		return nil
	}, wg.Wait)
}

// ErrDeliveriesClosed means the broker side went away while the consumer was still
// wanted; the caller should restart or exit non-zero.
var ErrDeliveriesClosed = errors.New("consumer: delivery channel closed by broker")

// pump feeds deliveries to invoke until ctx ends or msgs closes. A delivery invoke
// refuses is requeued. wait drains in-flight work before returning.
func pump(ctx context.Context, msgs <-chan amqp.Delivery, invoke func(amqp.Delivery) error, wait func()) error {
	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				wait()
				if ctx.Err() != nil {
					return nil
				}
				return ErrDeliveriesClosed
			}
			if err := invoke(d); err != nil {
				_ = d.Nack(false, true)
			}
		case <-ctx.Done():
			wait()
			return nil
		}
	}
}

// Acknowledger is the ack side of amqp.Delivery.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Dispatch runs handle on one delivery and settles it.
func Dispatch(ctx context.Context, d amqp.Delivery, handle Handler) {
	reqID, _ := d.Headers["X-Request-ID"].(string)
	settle(d, handle(ctx, Delivery{
		Key:       d.RoutingKey,
		MessageID: d.MessageId,
		RequestID: reqID,
		Body:      d.Body,
	}))
}

func settle(a Acknowledger, err error) {
	if err != nil {
		_ = a.Nack(false, true)
		return
	}
	_ = a.Ack(false)
}
