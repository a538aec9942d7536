package realtime

import (
	"sync"

	"github.com/Ashisharjun12/devfinder-final/internal/domain"
)

const defaultBuffer = 16

// Hub fans events out to per-project rooms. Each subscriber owns a buffered channel;
// a subscriber that falls behind misses events instead of blocking the broadcaster.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[int64]chan domain.Event
	nextID int64
	buffer int
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[int64]chan domain.Event), buffer: defaultBuffer}
}

// Subscribe joins room and returns the subscription id and its event channel.
func (h *Hub) Subscribe(room string) (int64, <-chan domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[int64]chan domain.Event)
	}
	h.nextID++
	ch := make(chan domain.Event, h.buffer)
	h.rooms[room][h.nextID] = ch
	return h.nextID, ch
}

// Unsubscribe leaves room and closes the subscription channel.
func (h *Hub) Unsubscribe(room string, id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.rooms[room]
	if !ok {
		return
	}
	if ch, ok := conns[id]; ok {
		close(ch)
		delete(conns, id)
	}
	if len(conns) == 0 {
		delete(h.rooms, room)
	}
}

// Broadcast delivers ev to every subscriber of room that has buffer space and
// returns how many received it.
func (h *Hub) Broadcast(room string, ev domain.Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, ch := range h.rooms[room] {
		select {
		case ch <- ev:
			n++
		default:
		}
	}
	return n
}

// CloseRoom drops every subscriber of room, e.g. after the project is deleted.
func (h *Hub) CloseRoom(room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.rooms[room] {
		close(ch)
		delete(h.rooms[room], id)
	}
	delete(h.rooms, room)
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
