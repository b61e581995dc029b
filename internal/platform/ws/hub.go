// Package ws pushes change notifications to connected browser clients.
// Clients subscribe to workflow topics and receive invalidation hints;
// payloads carry no record data, clients refetch through the HTTP API.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medunion/medunion/internal/platform/bus"
)

// ClientMessage is an inbound frame from a connected client.
type ClientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

// Client is a single connected websocket peer.
type Client struct {
	ID     string
	Topics []string
	Send   chan []byte
}

// Hub tracks connected clients per topic and fans change events out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // topic -> subscribers
	all     map[*Client]struct{}
	log     zerolog.Logger
}

// NewHub returns an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
		log:     log,
	}
}

// Bridge forwards every bus event on the given topics to subscribed clients.
// The returned function detaches the bridge.
func (h *Hub) Bridge(b *bus.Bus, topics ...string) func() {
	unsubs := make([]func(), 0, len(topics))
	for _, topic := range topics {
		unsubs = append(unsubs, b.Subscribe(topic, func(ev bus.Event) {
			h.Broadcast(ev.Topic, ev)
		}))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Register adds a client and its initial topic subscriptions.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	for _, topic := range client.Topics {
		if h.clients[topic] == nil {
			h.clients[topic] = make(map[*Client]struct{})
		}
		h.clients[topic][client] = struct{}{}
	}
}

// Unregister removes a client from all topics and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	for _, topic := range client.Topics {
		if subs, ok := h.clients[topic]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.clients, topic)
			}
		}
	}
	delete(h.all, client)
	close(client.Send)
}

// Subscribe adds topics to an already-registered client.
func (h *Hub) Subscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range topics {
		if h.clients[topic] == nil {
			h.clients[topic] = make(map[*Client]struct{})
		}
		h.clients[topic][client] = struct{}{}
	}
	client.Topics = append(client.Topics, topics...)
}

// Unsubscribe removes topics from an already-registered client.
func (h *Hub) Unsubscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	removeSet := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		removeSet[t] = struct{}{}
	}
	for _, topic := range topics {
		if subs, ok := h.clients[topic]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.clients, topic)
			}
		}
	}
	remaining := make([]string, 0, len(client.Topics))
	for _, t := range client.Topics {
		if _, rm := removeSet[t]; !rm {
			remaining = append(remaining, t)
		}
	}
	client.Topics = remaining
}

// ProcessMessage dispatches an inbound client frame.
func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	switch msg.Action {
	case "subscribe":
		h.Subscribe(client, msg.Topics)
	case "unsubscribe":
		h.Unsubscribe(client, msg.Topics)
	}
}

// Broadcast sends a change event to every client subscribed to the topic.
// Slow clients with a full buffer are skipped rather than blocked on.
func (h *Hub) Broadcast(topic string, ev bus.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Warn().Err(err).Str("topic", topic).Msg("ws: event marshal failed")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[topic] {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// TopicCount returns the number of clients subscribed to a topic.
func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades HTTP connections and pumps hub traffic.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// RegisterRoutes mounts the websocket endpoint on the given group.
func (hd *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", hd.HandleConnect)
}

// HandleConnect upgrades the connection, registers the client, and starts
// the read and write pumps.
func (hd *Handler) HandleConnect(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:     uuid.New().String(),
		Topics: []string{},
		Send:   make(chan []byte, 256),
	}
	hd.hub.Register(client)

	go hd.writePump(client, conn)
	go hd.readPump(client, conn)

	return nil
}

func (hd *Handler) readPump(client *Client, conn *gorillawebsocket.Conn) {
	defer func() {
		hd.hub.Unregister(client)
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		hd.hub.ProcessMessage(client, msg)
	}
}

func (hd *Handler) writePump(client *Client, conn *gorillawebsocket.Conn) {
	defer conn.Close()

	for message := range client.Send {
		if err := conn.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			break
		}
	}
}
