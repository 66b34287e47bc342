// Package events fans out payload-free "data changed" notifications to websocket subscribers.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// TypeDataChanged is emitted after every effective simulator mutation
const TypeDataChanged = "data-changed"

// Notifier receives mutation notifications for a workspace namespace
type Notifier interface {
	DataChanged(namespace string)
}

// NopNotifier discards notifications
type NopNotifier struct{}

func (NopNotifier) DataChanged(string) {}

// Event is the wire format sent to subscribers
type Event struct {
	Type      string `json:"type"`
	Timestamp string `json:"ts,omitempty"`
}

type message struct {
	namespace string
	payload   []byte
}

type subscriber struct {
	namespace string
	send      chan []byte
}

// Hub tracks subscribers per namespace and broadcasts to them
type Hub struct {
	register    chan *subscriber
	unregister  chan *subscriber
	broadcast   chan message
	subscribers map[string]map[*subscriber]bool
	done        chan struct{}
}

// NewHub creates a hub; call Run to start it
func NewHub() *Hub {
	return &Hub{
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		broadcast:   make(chan message, 256),
		subscribers: make(map[string]map[*subscriber]bool),
		done:        make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, subs := range h.subscribers {
				for sub := range subs {
					close(sub.send)
				}
			}
			h.subscribers = make(map[string]map[*subscriber]bool)
			return

		case sub := <-h.register:
			if h.subscribers[sub.namespace] == nil {
				h.subscribers[sub.namespace] = make(map[*subscriber]bool)
			}
			h.subscribers[sub.namespace][sub] = true

		case sub := <-h.unregister:
			h.remove(sub)

		case msg := <-h.broadcast:
			for sub := range h.subscribers[msg.namespace] {
				select {
				case sub.send <- msg.payload:
				default:
					// slow consumer
					h.remove(sub)
				}
			}
		}
	}
}

func (h *Hub) remove(sub *subscriber) {
	subs := h.subscribers[sub.namespace]
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.send)
	if len(subs) == 0 {
		delete(h.subscribers, sub.namespace)
	}
}

// DataChanged queues a notification; it never blocks the caller
func (h *Hub) DataChanged(namespace string) {
	payload, _ := json.Marshal(Event{
		Type:      TypeDataChanged,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})

	select {
	case h.broadcast <- message{namespace: namespace, payload: payload}:
	default:
		slog.Debug("event dropped, broadcast queue full", "namespace", namespace)
	}
}

// Subscribe registers a channel consumer for namespace.
// The returned cancel func unregisters it; the channel is closed afterwards.
func (h *Hub) Subscribe(ctx context.Context, namespace string) (<-chan []byte, func()) {
	sub := &subscriber{namespace: namespace, send: make(chan []byte, 16)}

	select {
	case h.register <- sub:
	case <-ctx.Done():
		close(sub.send)
		return sub.send, func() {}
	case <-h.done:
		close(sub.send)
		return sub.send, func() {}
	}

	cancel := func() {
		select {
		case h.unregister <- sub:
		case <-h.done:
		}
	}
	return sub.send, cancel
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS upgrades the request and streams namespace events until the peer goes away
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, namespace string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, unsubscribe := h.Subscribe(ctx, namespace)
	defer unsubscribe()

	slog.Debug("event subscriber connected", "namespace", namespace)

	// Read side only detects close; clients never send anything meaningful
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					slog.Debug("websocket read error", "error", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("event subscriber disconnected", "namespace", namespace)
			return
		case payload, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				slog.Debug("failed to send event", "error", err)
				return
			}
		}
	}
}
