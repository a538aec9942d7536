package queue

import (
	"context"
)

// Publisher sends an event to an exchange under a routing key. Event types double as
// routing keys, so consumers bind with patterns such as "connection.*".
type Publisher interface {
	Publish(ctx context.Context, exchange, key string, event any, reqID string) error
	Close() error
}

// NoopPub drops every event; used when no broker is configured.
type NoopPub struct{}

func NewNoop() Publisher { return NoopPub{} }

func (NoopPub) Publish(context.Context, string, string, any, string) error { return nil }
func (NoopPub) Close() error                                              { return nil }
