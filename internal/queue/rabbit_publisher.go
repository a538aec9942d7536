package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Ashisharjun12/devfinder-final/internal/log"
)

const (
	publishTimeout = 3 * time.Second
	redialBackoff  = 5 * time.Second
)

var ErrBrokerUnavailable = errors.New("rabbit: broker unavailable, waiting to redial")

// RabbitPublisher publishes JSON events to a durable topic exchange in confirm mode.
// A channel is not safe for concurrent publishes, so writes are serialized. A closed
// connection is redialed on the next publish within that publish's deadline; after a
// failed redial, publishes fail fast until the backoff has passed.
type RabbitPublisher struct {
	url      string
	exchange string
	backoff  time.Duration

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	nextDial time.Time
}

// NewRabbit dials the broker and declares the exchange.
func NewRabbit(url, exchange string) (Publisher, error) {
	p := newRabbitPublisher(url, exchange)
	if err := p.dial(publishTimeout); err != nil {
		return nil, err
	}
	return p, nil
}

func newRabbitPublisher(url, exchange string) *RabbitPublisher {
	return &RabbitPublisher{url: url, exchange: exchange, backoff: redialBackoff}
}

// dial must be called with mu held (or before the publisher is shared). timeout
// bounds both the TCP connect and the AMQP handshake.
func (p *RabbitPublisher) dial(timeout time.Duration) error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Locale: "en_US",
		Dial:   amqp.DefaultDial(timeout),
	})
	if err != nil {
		return fmt.Errorf("rabbit dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("rabbit channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return fmt.Errorf("confirm mode: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *RabbitPublisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
	return nil
}

// Publish sends event with routing key key and waits for the broker to confirm it.
func (p *RabbitPublisher) Publish(ctx context.Context, exchange, key string, event any, reqID string) error {
	if p == nil {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if exchange == "" {
		exchange = p.exchange
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() {
		if time.Now().Before(p.nextDial) {
			return ErrBrokerUnavailable
		}
		timeout := publishTimeout
		if dl, ok := ctx.Deadline(); ok {
			timeout = time.Until(dl)
		}
		log.Ctx(ctx).Info("rabbit connection closed, redialing", zap.Duration("timeout", timeout))
		if err := p.dial(timeout); err != nil {
			p.nextDial = time.Now().Add(p.backoff)
			return err
		}
	}

	conf, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		AppId:        "devfinder-api",
		Type:         key,
		Body:         body,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Headers: amqp.Table{
			"X-Request-ID": reqID,
		},
	})
	if err != nil {
		return err
	}
	ok, err := conf.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !ok {
		log.Ctx(ctx).Warn("broker nacked event", zap.String("key", key))
		return errors.New("event nacked by broker")
	}
	return nil
}
