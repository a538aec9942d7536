// Package events delivers domain events after a state change has been persisted: to
// RabbitMQ for the notifier and to the in-process room hub for open event streams.
package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/Ashisharjun12/devfinder-final/internal/domain"
	"github.com/Ashisharjun12/devfinder-final/internal/log"
	"github.com/Ashisharjun12/devfinder-final/internal/metrics"
	"github.com/Ashisharjun12/devfinder-final/internal/queue"
	"github.com/Ashisharjun12/devfinder-final/internal/realtime"
)

type Dispatcher struct {
	Pub      queue.Publisher
	Exchange string
	Hub      *realtime.Hub
}

func NewDispatcher(pub queue.Publisher, exchange string, hub *realtime.Hub) *Dispatcher {
	if pub == nil {
		pub = queue.NewNoop()
	}
	return &Dispatcher{Pub: pub, Exchange: exchange, Hub: hub}
}

// Notify never fails the caller: the write it reports on has already happened.
func (d *Dispatcher) Notify(ctx context.Context, ev domain.Event) {
	if d.Hub != nil {
		d.Hub.Broadcast(ev.ProjectID, ev)
		if ev.Type == domain.EventProjectDeleted {
			d.Hub.CloseRoom(ev.ProjectID)
		}
	}

	// the request may finish before the broker answers
	pctx := context.WithoutCancel(ctx)
	if err := d.Pub.Publish(pctx, d.Exchange, string(ev.Type), ev, log.RequestID(ctx)); err != nil {
		metrics.EventsPublished.WithLabelValues(string(ev.Type), "error").Inc()
		log.Ctx(ctx).Warn("event publish failed",
			zap.String("type", string(ev.Type)),
			zap.String("project_id", ev.ProjectID),
			zap.Error(err),
		)
		return
	}
	metrics.EventsPublished.WithLabelValues(string(ev.Type), "ok").Inc()
}
