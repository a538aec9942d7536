package realtime

import (
	"testing"

	"github.com/Ashisharjun12/devfinder-final/internal/domain"
)

func TestHubRooms(t *testing.T) {
	h := NewHub()
	id1, ch1 := h.Subscribe("p1")
	_, ch2 := h.Subscribe("p1")
	_, other := h.Subscribe("p2")

	if n := h.Broadcast("p1", domain.Event{Type: domain.EventProjectUpdated, ProjectID: "p1"}); n != 2 {
		t.Fatalf("delivered=%d", n)
	}
	if ev := <-ch1; ev.ProjectID != "p1" {
		t.Fatalf("ch1 got %+v", ev)
	}
	if ev := <-ch2; ev.Type != domain.EventProjectUpdated {
		t.Fatalf("ch2 got %+v", ev)
	}
	select {
	case ev := <-other:
		t.Fatalf("p2 subscriber got %+v", ev)
	default:
	}

	h.Unsubscribe("p1", id1)
	if _, ok := <-ch1; ok {
		t.Fatal("channel not closed after unsubscribe")
	}
	if h.RoomSize("p1") != 1 {
		t.Fatalf("room size=%d", h.RoomSize("p1"))
	}

	h.CloseRoom("p1")
	if _, ok := <-ch2; ok {
		t.Fatal("channel not closed after CloseRoom")
	}
	// unsubscribing after the room is gone is a no-op
	h.Unsubscribe("p1", 2)
}

func TestHubSlowSubscriberDrops(t *testing.T) {
	h := NewHub()
	_, ch := h.Subscribe("p")
	for i := 0; i < defaultBuffer+5; i++ {
		h.Broadcast("p", domain.Event{ProjectID: "p"})
	}
	if len(ch) != defaultBuffer {
		t.Fatalf("buffered=%d", len(ch))
	}
	if n := h.Broadcast("p", domain.Event{}); n != 0 {
		t.Fatalf("full subscriber should be skipped, delivered=%d", n)
	}
}
