package ws

import (
	"context"
	"errors"
	"sync"

	"github.com/Temutjin2k/fieldtrack/pkg/logger"
	wrap "github.com/Temutjin2k/fieldtrack/pkg/logger/wrapper"

	"github.com/google/uuid"
)

var (
	ErrEmptyConn      = errors.New("connection is empty")
	ErrConnIsNotFound = errors.New("connection not found")
)

// ConnectionHub keeps every live websocket subscriber.
type ConnectionHub struct {
	clients map[uuid.UUID]*Conn
	l       logger.Logger
	mu      sync.Mutex
	wg      sync.WaitGroup
	onCount func(n int)
}

func NewConnHub(l logger.Logger) *ConnectionHub {
	return &ConnectionHub{
		clients: make(map[uuid.UUID]*Conn),
		l:       l,
	}
}

// OnCount registers a callback invoked with the connection count after every change.
func (h *ConnectionHub) OnCount(fn func(n int)) {
	h.mu.Lock()
	h.onCount = fn
	h.mu.Unlock()
}

// Add registers newConn. An existing connection with the same id is closed and replaced.
func (h *ConnectionHub) Add(newConn *Conn) error {
	if newConn == nil {
		return ErrEmptyConn
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := wrap.WithAction(context.Background(), "add_ws_connection")

	if existing, ok := h.clients[newConn.entityID]; ok {
		h.l.Warn(ctx, "replacing existing connection", "entity_id", existing.entityID)
		if err := existing.Close(); err != nil {
			h.l.Warn(ctx, "failed to close existing conn", "entity_id", existing.entityID, "err", err.Error())
		}
		h.wg.Done()
	}

	h.clients[newConn.entityID] = newConn
	h.wg.Add(1)
	h.notify()

	return nil
}

// Delete closes and removes the connection with the given id.
func (h *ConnectionHub) Delete(entityID uuid.UUID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.clients[entityID]
	if !ok {
		return ErrConnIsNotFound
	}

	if err := conn.Close(); err != nil {
		h.l.Debug(wrap.WithAction(context.Background(), "ws_connection_delete"),
			"failed to close conn", "entity_id", conn.entityID, "err", err.Error())
	}

	delete(h.clients, entityID)
	h.wg.Done()
	h.notify()

	return nil
}

func (h *ConnectionHub) notify() {
	if h.onCount != nil {
		h.onCount(len(h.clients))
	}
}

// Broadcast queues payload on every connection and returns how many accepted it.
func (h *ConnectionHub) Broadcast(payload []byte) int {
	h.mu.Lock()
	clients := make([]*Conn, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	delivered := 0
	for _, c := range clients {
		if c.Enqueue(payload) {
			delivered++
		}
	}
	return delivered
}

// Close closes every websocket connection and waits for them to be removed.
func (h *ConnectionHub) Close() {
	h.mu.Lock()
	ids := make([]uuid.UUID, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	for _, id := range ids {
		_ = h.Delete(id)
	}

	h.wg.Wait()

	h.l.Info(wrap.WithAction(context.Background(), "hub_close"), "all websocket connections closed gracefully")
}

// Len returns the number of live connections.
func (h *ConnectionHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
