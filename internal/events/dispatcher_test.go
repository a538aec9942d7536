package events_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Ashisharjun12/devfinder-final/internal/domain"
	"github.com/Ashisharjun12/devfinder-final/internal/events"
	"github.com/Ashisharjun12/devfinder-final/internal/log"
	"github.com/Ashisharjun12/devfinder-final/internal/realtime"
)

type recPub struct {
	mu   sync.Mutex
	keys []string
	rids []string
	err  error
}

func (p *recPub) Publish(_ context.Context, _, key string, _ any, reqID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.rids = append(p.rids, reqID)
	return p.err
}
func (p *recPub) Close() error { return nil }

func TestNotifyPublishesAndBroadcasts(t *testing.T) {
	pub := &recPub{}
	hub := realtime.NewHub()
	_, ch := hub.Subscribe("p1")
	d := events.NewDispatcher(pub, "devfinder.events", hub)

	ctx := log.WithRequestID(context.Background(), "rid-1")
	d.Notify(ctx, domain.Event{Type: domain.EventConnectionRequested, ProjectID: "p1"})

	if len(pub.keys) != 1 || pub.keys[0] != "connection.requested" || pub.rids[0] != "rid-1" {
		t.Fatalf("published %v %v", pub.keys, pub.rids)
	}
	if ev := <-ch; ev.Type != domain.EventConnectionRequested {
		t.Fatalf("hub got %+v", ev)
	}
}

func TestNotifySwallowsPublishError(t *testing.T) {
	pub := &recPub{err: errors.New("broker down")}
	d := events.NewDispatcher(pub, "x", nil)
	d.Notify(context.Background(), domain.Event{Type: domain.EventProjectCreated, ProjectID: "p"})
	if len(pub.keys) != 1 {
		t.Fatalf("publish not attempted")
	}
}

func TestDeleteClosesRoom(t *testing.T) {
	hub := realtime.NewHub()
	_, ch := hub.Subscribe("p1")
	d := events.NewDispatcher(nil, "x", hub)
	d.Notify(context.Background(), domain.Event{Type: domain.EventProjectDeleted, ProjectID: "p1"})

	if ev, ok := <-ch; !ok || ev.Type != domain.EventProjectDeleted {
		t.Fatalf("expected delete event first, got %+v ok=%v", ev, ok)
	}
	if _, ok := <-ch; ok {
		t.Fatal("room not closed")
	}
}
