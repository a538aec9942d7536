package queue

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

type fakeAck struct{ acked, nacked, requeue bool }

func (f *fakeAck) Ack(bool) error {
	f.acked = true
	return nil
}

func (f *fakeAck) Nack(_, requeue bool) error {
	f.nacked, f.requeue = true, requeue
	return nil
}

func TestSettle(t *testing.T) {
	a := &fakeAck{}
	settle(a, nil)
	if !a.acked || a.nacked {
		t.Fatalf("ok path: %+v", a)
	}

	n := &fakeAck{}
	settle(n, errors.New("boom"))
	if n.acked || !n.nacked || !n.requeue {
		t.Fatalf("error path: %+v", n)
	}
}

func TestNoopPublish(t *testing.T) {
	p := NewNoop()
	if err := p.Publish(context.Background(), "x", "k", map[string]string{"a": "b"}, "rid"); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNilConsumer(t *testing.T) {
	var c *Consumer
	if err := c.Consume(context.Background(), 1, nil); err == nil {
		t.Fatal("expected error from nil consumer")
	}
	c.Close()
}

func TestPumpReportsBrokerClose(t *testing.T) {
	msgs := make(chan amqp.Delivery, 2)
	msgs <- amqp.Delivery{RoutingKey: "connection.requested"}
	close(msgs)

	var got []string
	waited := false
	err := pump(context.Background(), msgs, func(d amqp.Delivery) error {
		got = append(got, d.RoutingKey)
		return nil
	}, func() { waited = true })
	if !errors.Is(err, ErrDeliveriesClosed) {
		t.Fatalf("err=%v", err)
	}
	if len(got) != 1 || !waited {
		t.Fatalf("got=%v waited=%v", got, waited)
	}
}

func TestPumpStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	msgs := make(chan amqp.Delivery)
	if err := pump(ctx, msgs, func(amqp.Delivery) error { return nil }, func() {}); err != nil {
		t.Fatalf("err=%v", err)
	}

	closed := make(chan amqp.Delivery)
	close(closed)
	if err := pump(ctx, closed, func(amqp.Delivery) error { return nil }, func() {}); err != nil {
		t.Fatalf("shutdown close must not be an error: %v", err)
	}
}
