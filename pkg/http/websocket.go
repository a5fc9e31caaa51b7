package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"passroast-server/pkg/events"
	"passroast-server/pkg/metrics"
	"passroast-server/pkg/version"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// EventMessage is the envelope sent to websocket clients
type EventMessage struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Event     *events.Event          `json:"event,omitempty"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
}

// EventClient represents a connected websocket client
type EventClient struct {
	conn *websocket.Conn
	send chan []byte
	hub  *EventHub
}

// EventHub broadcasts sanitized analysis events to connected clients. It
// implements events.Listener so it can be registered on the dispatcher.
type EventHub struct {
	logger       *logrus.Logger
	upgrader     websocket.Upgrader
	clients      map[*EventClient]bool
	clientsMu    sync.RWMutex
	register     chan *EventClient
	unregister   chan *EventClient
	broadcast    chan *EventMessage
	pingInterval time.Duration
}

// NewEventHub creates a new websocket event hub
func NewEventHub(logger *logrus.Logger, allowedOrigins []string) *EventHub {
	return &EventHub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return originAllowed(origin, allowedOrigins)
			},
		},
		clients:      make(map[*EventClient]bool),
		register:     make(chan *EventClient),
		unregister:   make(chan *EventClient),
		broadcast:    make(chan *EventMessage, 256),
		pingInterval: 54 * time.Second,
	}
}

// Run manages client connections and message broadcasting until the
// context is canceled
func (h *EventHub) Run(ctx context.Context) {
	h.logger.Info("Starting websocket event hub")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Shutting down websocket event hub")
			h.closeAllClients()
			return

		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client] = true
			h.clientsMu.Unlock()
			metrics.IncWebsocketClients()
			h.logger.Debug("Websocket client registered")

		case client := <-h.unregister:
			h.cleanupClients([]*EventClient{client})

		case message := <-h.broadcast:
			stale := h.broadcastMessage(message)
			if len(stale) > 0 {
				h.cleanupClients(stale)
			}
		}
	}
}

// OnAnalysis implements events.Listener by queueing the event for
// broadcast. A full queue drops the event rather than stalling analysis.
func (h *EventHub) OnAnalysis(event events.Event) {
	message := &EventMessage{
		Type:      "analysis",
		Timestamp: time.Now().UTC(),
		Event:     &event,
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("Event broadcast channel full, dropping event")
	}
}

// broadcastMessage sends a message to all clients and returns the stale
// ones whose send buffers are full
func (h *EventHub) broadcastMessage(message *EventMessage) []*EventClient {
	if message == nil {
		return nil
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal event message")
		return nil
	}

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	var stale []*EventClient
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			stale = append(stale, client)
		}
	}

	return stale
}

// cleanupClients removes clients and closes their send channels
func (h *EventHub) cleanupClients(clients []*EventClient) {
	if len(clients) == 0 {
		return
	}

	h.clientsMu.Lock()
	for _, client := range clients {
		if _, ok := h.clients[client]; ok {
			delete(h.clients, client)
			close(client.send)
			metrics.DecWebsocketClients()
			h.logger.Debug("Websocket client unregistered")
		}
	}
	h.clientsMu.Unlock()
}

// closeAllClients drops every connected client during shutdown
func (h *EventHub) closeAllClients() {
	h.clientsMu.Lock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
		metrics.DecWebsocketClients()
	}
	h.clientsMu.Unlock()
}

// ServeHTTP handles websocket upgrade requests
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade to websocket")
		return
	}

	client := &EventClient{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}

	h.register <- client

	welcome := &EventMessage{
		Type:      "connected",
		Timestamp: time.Now().UTC(),
		Meta: map[string]interface{}{
			"service": serviceName,
			"version": version.Version,
		},
	}
	if data, err := json.Marshal(welcome); err == nil {
		client.send <- data
	}

	go client.writePump()
	go client.readPump()
}

// ClientCount returns the number of connected clients
func (h *EventHub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// readPump handles incoming messages from the client
func (c *EventClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).Debug("Websocket read error")
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump handles sending messages to the client
func (c *EventClient) writePump() {
	ticker := time.NewTicker(c.hub.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes incoming client messages
func (c *EventClient) handleMessage(message []byte) {
	var msg map[string]interface{}
	if err := json.Unmarshal(message, &msg); err != nil {
		c.hub.logger.WithError(err).Debug("Failed to parse client message")
		return
	}

	msgType, _ := msg["type"].(string)

	switch msgType {
	case "ping":
		pong := &EventMessage{
			Type:      "pong",
			Timestamp: time.Now().UTC(),
		}
		if data, err := json.Marshal(pong); err == nil {
			select {
			case c.send <- data:
			default:
			}
		}

	default:
		c.hub.logger.WithField("type", msgType).Debug("Unknown message type from client")
	}
}
