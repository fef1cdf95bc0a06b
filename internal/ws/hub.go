// Package ws owns the live dashboard channel: the per-unit registry of
// connected subscribers and the fan-out of chart updates to them. The
// registry is process-lifetime state; it is rebuilt empty on restart and
// never persisted.
package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"humidity-server/internal/modules/board/types"
	"humidity-server/internal/observability"
)

// writeTimeout bounds every delivery attempt so a stuck subscriber cannot
// stall the broadcaster; a timed-out send is treated as failed and the
// connection removed.
const writeTimeout = 5 * time.Second

// conn is the subset of *websocket.Conn the hub needs; narrowed for tests.
type conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type subscriber struct {
	id   string
	conn conn

	// mu serializes writes; the websocket library allows one writer at a time.
	mu sync.Mutex
}

func (s *subscriber) send(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, data)
}

// Hub tracks the live subscriber set per unit and delivers messages to it.
// All registry mutations and snapshots go through one mutex so no delivery
// iterates a set while a connect/disconnect mutates it.
type Hub struct {
	metrics *observability.Metrics

	mu          sync.Mutex
	subscribers map[int][]*subscriber

	// session is the ephemeral echo history per unit. Client-pushed messages
	// accumulate here for the lifetime of the process; they are never written
	// to the store.
	session map[int][]json.RawMessage
}

func NewHub(metrics *observability.Metrics) *Hub {
	return &Hub{
		metrics:     metrics,
		subscribers: make(map[int][]*subscriber),
		session:     make(map[int][]json.RawMessage),
	}
}

func (h *Hub) subscribe(unitID int, sub *subscriber) {
	h.mu.Lock()
	h.subscribers[unitID] = append(h.subscribers[unitID], sub)
	h.mu.Unlock()
	h.metrics.LiveSubscribers.Inc()
	slog.Info("subscriber connected", "unit_ID", unitID, "subscriber", sub.id)
}

// unsubscribe removes the subscriber; it is a no-op when already gone.
func (h *Hub) unsubscribe(unitID int, sub *subscriber) {
	h.mu.Lock()
	subs := h.subscribers[unitID]
	removed := false
	for i, s := range subs {
		if s == sub {
			h.subscribers[unitID] = append(subs[:i], subs[i+1:]...)
			removed = true
			break
		}
	}
	h.mu.Unlock()
	if removed {
		h.metrics.LiveSubscribers.Dec()
		slog.Info("subscriber removed", "unit_ID", unitID, "subscriber", sub.id)
	}
}

// HasSubscribers reports whether any live connection exists for the unit, so
// callers can skip computing a series nobody would receive.
func (h *Hub) HasSubscribers(unitID int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[unitID]) > 0
}

func (h *Hub) snapshot(unitID int) []*subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.subscribers[unitID]
	out := make([]*subscriber, len(subs))
	copy(out, subs)
	return out
}

// Broadcast delivers the serialized series to every live subscriber of the
// unit. A failed send removes that subscriber and delivery continues with the
// rest; Broadcast never reports an error to its caller.
func (h *Hub) Broadcast(unitID int, series types.ChartSeries) {
	subs := h.snapshot(unitID)
	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(map[string]any{"data": series})
	if err != nil {
		slog.Error("marshal chart series", "unit_ID", unitID, "error", err)
		return
	}
	h.deliver(unitID, subs, payload)
}

// Echo appends a client-pushed message to the unit's session history and
// re-broadcasts it verbatim to all subscribers of that unit. Echo messages
// are ephemeral and distinct from persisted history.
func (h *Hub) Echo(unitID int, payload []byte) {
	h.mu.Lock()
	h.session[unitID] = append(h.session[unitID], json.RawMessage(payload))
	h.mu.Unlock()
	h.metrics.EchoMessagesTotal.Inc()

	h.deliver(unitID, h.snapshot(unitID), payload)
}

// SessionHistory returns the accumulated echo messages for a unit.
func (h *Hub) SessionHistory(unitID int) []json.RawMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]json.RawMessage, len(h.session[unitID]))
	copy(out, h.session[unitID])
	return out
}

func (h *Hub) deliver(unitID int, subs []*subscriber, payload []byte) {
	for _, sub := range subs {
		if err := sub.send(textMessage, payload); err != nil {
			slog.Warn("delivery failed, removing subscriber",
				"unit_ID", unitID, "subscriber", sub.id, "error", err)
			h.metrics.DeliveryFailures.Inc()
			h.unsubscribe(unitID, sub)
			_ = sub.conn.Close()
		}
	}
}
