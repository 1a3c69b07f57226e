package session

import (
	"log/slog"
	"sync"

	"github.com/jacob1911/pencil-app/internal/document"
)

// DocLoader fetches the persisted document for a trace. Called once when the
// first client opens a room.
type DocLoader func(traceID string) (*document.TraceDocument, error)

// DocSaver persists a snapshot of a trace document. Called on doc.save and
// when a dirty room shuts down.
type DocSaver func(traceID string, doc *document.TraceDocument) error

// Hub owns the set of live trace rooms. Registration runs on the hub's own
// goroutine; everything inside a room runs on that room's goroutine.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room // traceID -> room

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup

	loadDoc DocLoader
	saveDoc DocSaver

	// Membership counts, owned by the Run goroutine. The room's own client
	// map lags behind by the queued join/leave events, so teardown decisions
	// are made here.
	members map[string]int
}

func NewHub(loadDoc DocLoader, saveDoc DocSaver) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		loadDoc:    loadDoc,
		saveDoc:    saveDoc,
		members:    make(map[string]int),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

// Register hands a new client to the Run loop. No-op once the hub has
// stopped; the caller's pumps will wind down when the connection closes.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Stop shuts down every room, saving dirty documents, and ends the Run loop.
// Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		rooms := make([]*Room, 0, len(h.rooms))
		for _, r := range h.rooms {
			rooms = append(rooms, r)
		}
		h.rooms = make(map[string]*Room)
		h.mu.Unlock()

		for _, r := range rooms {
			r.stop()
		}
		h.wg.Wait()
	})
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.TraceID]
	if !ok {
		room = newRoom(h, client.TraceID)
		h.rooms[client.TraceID] = room
		h.wg.Add(1)
		go room.run()
	}
	h.mu.Unlock()

	h.members[client.TraceID]++
	room.enqueue(event{kind: evJoin, client: client})

	slog.Info("client joined", "user", client.UserID, "trace", client.TraceID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.RLock()
	room, ok := h.rooms[client.TraceID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	room.enqueue(event{kind: evLeave, client: client})

	h.members[client.TraceID]--
	if h.members[client.TraceID] <= 0 {
		delete(h.members, client.TraceID)
		h.mu.Lock()
		delete(h.rooms, client.TraceID)
		h.mu.Unlock()
		room.stop()
	}

	slog.Info("client left", "user", client.UserID, "trace", client.TraceID)
}

// dispatch routes an inbound message to its room. Messages for rooms that
// are already gone are dropped.
func (h *Hub) dispatch(client *Client, msg *Message) {
	h.mu.RLock()
	room, ok := h.rooms[client.TraceID]
	h.mu.RUnlock()
	if !ok {
		slog.Debug("message for closed room", "trace", client.TraceID, "type", msg.Type)
		return
	}
	room.enqueue(event{kind: evMessage, client: client, msg: msg})
}
