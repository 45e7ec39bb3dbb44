package hub

import (
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-backoffice/utils"
)

const writeWait = 5 * time.Second

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub keeps the connected back-office dashboards and fans change events out to them.
type Hub struct {
	clients map[*websocket.Conn]string // conn -> role
	mutex   sync.Mutex
	onCount func(int)
}

type Option func(*Hub)

// WithClientCounter reports the number of connected clients after every change.
func WithClientCounter(fn func(int)) Option {
	return func(h *Hub) { h.onCount = fn }
}

func New(opts ...Option) *Hub {
	h := &Hub{
		clients: make(map[*websocket.Conn]string),
		onCount: func(int) {},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Register(conn *websocket.Conn, role string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = role
	h.onCount(len(h.clients))
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.drop(conn)
}

func (h *Hub) Count() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Publish sends one event to every client. Clients that fail to receive it are dropped.
func (h *Hub) Publish(event string, data interface{}) {
	payload, err := sonic.Marshal(Message{Event: event, Data: data})
	if err != nil {
		utils.ErrorLogger.WithField("event", event).WithError(err).Error("failed to encode hub message")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, role := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{"event": event, "role": role}).
				WithError(err).Warn("dropping hub client")
			h.drop(conn)
		}
	}
	utils.InfoLogger.WithFields(logrus.Fields{"event": event, "clients": len(h.clients)}).Debug("hub event published")
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn := range h.clients {
		h.drop(conn)
	}
}

// drop must be called with the mutex held.
func (h *Hub) drop(conn *websocket.Conn) {
	if _, ok := h.clients[conn]; !ok {
		return
	}
	delete(h.clients, conn)
	_ = conn.Close()
	h.onCount(len(h.clients))
}
