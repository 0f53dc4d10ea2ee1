// Package feed fans message events out to connected SSE and WebSocket clients.
package feed

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/smalltalk/internal/monitoring"
)

// EventType represents the type of feed event
type EventType string

const (
	EventConnected      EventType = "connected"
	EventMessageCreated EventType = "message_created"
	EventMessageUpdated EventType = "message_updated"
	EventMessageDeleted EventType = "message_deleted"
	EventHeartbeat      EventType = "heartbeat"
)

// Event represents a feed event sent to clients
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// Client represents a connected feed client
type Client struct {
	ID       string
	Messages chan Event
}

// Broker manages client connections and event broadcasting
type Broker struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	done       chan struct{}
	stopOnce   sync.Once
	heartbeat  time.Duration
	origins    map[string]struct{}
	mu         sync.RWMutex
}

// NewBroker creates a broker that emits a heartbeat every interval.
// A non-positive interval falls back to 30s.
func NewBroker(heartbeat time.Duration) *Broker {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	b := &Broker{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 100),
		done:       make(chan struct{}),
		heartbeat:  heartbeat,
	}
	go b.run()
	return b
}

// run handles client registration and event broadcasting
func (b *Broker) run() {
	heartbeatTicker := time.NewTicker(b.heartbeat)
	defer heartbeatTicker.Stop()

	for {
		select {
		case <-b.done:
			b.mu.Lock()
			for _, client := range b.clients {
				close(client.Messages)
			}
			b.clients = make(map[string]*Client)
			b.mu.Unlock()
			monitoring.FeedClients.Set(0)
			log.Debug().Msg("Feed broker stopped")
			return

		case client := <-b.register:
			b.mu.Lock()
			b.clients[client.ID] = client
			total := len(b.clients)
			b.mu.Unlock()
			monitoring.FeedClients.Set(float64(total))
			log.Debug().Str("client_id", client.ID).Int("total_clients", total).Msg("Feed client connected")

		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client.ID]; ok {
				delete(b.clients, client.ID)
				close(client.Messages)
			}
			total := len(b.clients)
			b.mu.Unlock()
			monitoring.FeedClients.Set(float64(total))
			log.Debug().Str("client_id", client.ID).Int("total_clients", total).Msg("Feed client disconnected")

		case event := <-b.broadcast:
			b.mu.RLock()
			for _, client := range b.clients {
				select {
				case client.Messages <- event:
				default:
					log.Warn().Str("client_id", client.ID).Msg("Feed client buffer full, dropping event")
				}
			}
			b.mu.RUnlock()

		case <-heartbeatTicker.C:
			b.Broadcast(Event{Type: EventHeartbeat, Data: map[string]any{"time": time.Now().Unix()}})
		}
	}
}

// Broadcast sends an event to all connected clients without blocking
func (b *Broker) Broadcast(event Event) {
	select {
	case b.broadcast <- event:
	default:
		log.Warn().Str("event_type", string(event.Type)).Msg("Feed broadcast channel full, dropping event")
	}
}

// Stop shuts down the broker and closes every client channel
func (b *Broker) Stop() {
	b.stopOnce.Do(func() { close(b.done) })
}

// ClientCount returns the number of connected clients
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// subscribe registers a new client. It returns false once the broker is stopped.
func (b *Broker) subscribe(r *http.Request) (*Client, bool) {
	client := &Client{
		ID:       fmt.Sprintf("%p-%d", r, time.Now().UnixNano()),
		Messages: make(chan Event, 32),
	}
	select {
	case b.register <- client:
		return client, true
	case <-b.done:
		return nil, false
	}
}

func (b *Broker) unsubscribe(client *Client) {
	select {
	case b.unregister <- client:
	case <-b.done:
	}
}

func connectedEvent(client *Client) Event {
	return Event{
		Type: EventConnected,
		Data: map[string]any{
			"client_id": client.ID,
			"time":      time.Now().Unix(),
		},
	}
}

// ServeHTTP streams events to a client as Server-Sent Events
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	client, ok := b.subscribe(r)
	if !ok {
		http.Error(w, "Feed unavailable", http.StatusServiceUnavailable)
		return
	}
	defer b.unsubscribe(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	if err := writeSSE(w, connectedEvent(client)); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-client.Messages:
			if !ok {
				return
			}
			if err := writeSSE(w, event); err != nil {
				log.Debug().Err(err).Str("client_id", client.ID).Msg("SSE write failed")
				return
			}
			flusher.Flush()
		}
	}
}

// AllowOrigins restricts browser WebSocket handshakes to the given origins.
// With no origins every handshake is accepted: the feed only carries messages
// that GET /messages already serves to anyone. Requests without an Origin
// header are non-browser clients and always pass. Call before serving.
func (b *Broker) AllowOrigins(origins []string) {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o = strings.ToLower(strings.TrimSpace(o)); o != "" {
			allowed[o] = struct{}{}
		}
	}
	b.origins = allowed
}

func (b *Broker) checkOrigin(r *http.Request) bool {
	if len(b.origins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	_, ok := b.origins[strings.ToLower(origin)]
	if !ok {
		log.Warn().Str("origin", origin).Msg("WebSocket origin rejected")
	}
	return ok
}

const wsWriteWait = 10 * time.Second

// ServeWebSocket streams events to a client over a WebSocket as JSON frames.
// Inbound frames are discarded; the read loop only detects disconnects.
func (b *Broker) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     b.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	client, ok := b.subscribe(r)
	if !ok {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(wsWriteWait))
		return
	}
	defer b.unsubscribe(client)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(b.heartbeat)
	defer pingTicker.Stop()

	if err := writeWS(conn, connectedEvent(client)); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case event, ok := <-client.Messages:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(wsWriteWait))
				return
			}
			if err := writeWS(conn, event); err != nil {
				log.Debug().Err(err).Str("client_id", client.ID).Msg("WebSocket write failed")
				return
			}
		case <-pingTicker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal feed event")
		return nil
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
	return err
}

func writeWS(conn *websocket.Conn, event Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(event)
}
