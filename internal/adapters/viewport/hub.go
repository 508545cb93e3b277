// Package viewport pushes camera targets, narration and navigation state to
// map clients over websockets.
package viewport

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"turn-guidance-service/internal/api/dto"
	"turn-guidance-service/internal/domain"
	"turn-guidance-service/internal/platform/obs"
)

const (
	writeTimeout = 5 * time.Second
	sendBuffer   = 32
)

// Message is the envelope sent to every client.
type Message struct {
	Type    string              `json:"type"`
	Session string              `json:"session,omitempty"`
	Camera  *dto.CameraResponse `json:"camera,omitempty"`
	State   *dto.StateResponse  `json:"state,omitempty"`
	Text    string              `json:"text,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub implements ports.ViewportSink, ports.StateSink and ports.Speaker. Sends
// never block: a client whose buffer is full misses the message.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  map[*client]struct{}{},
	}
}

// ServeHTTP upgrades the request and registers the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("event=ws_upgrade_failed err=%v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.Printf("event=ws_connected remote=%s clients=%d", r.RemoteAddr, h.Clients())

	go h.writeLoop(c)

	// drain until the client goes away; map clients do not send commands here
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(c.send)
	log.Printf("event=ws_disconnected remote=%s", r.RemoteAddr)
}

func (h *Hub) writeLoop(c *client) {
	defer func() {
		if err := c.conn.Close(); err != nil {
			log.Printf("warning: close websocket: %v", err)
		}
	}()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(m Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("broadcast %s: encode: %w", m.Type, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
		}
	}
	return nil
}

func (h *Hub) SetCamera(ctx context.Context, target domain.CameraTarget, forced bool, duration time.Duration) error {
	cam := dto.CameraFromDomain(target, forced, duration)
	return h.broadcast(Message{Type: "camera", Session: obs.SessionID(ctx), Camera: &cam})
}

func (h *Hub) PublishState(ctx context.Context, state domain.NavigationState) error {
	st := dto.StateFromDomain(state)
	return h.broadcast(Message{Type: "state", Session: state.SessionID, State: &st})
}

func (h *Hub) Speak(ctx context.Context, text string) error {
	return h.broadcast(Message{Type: "speak", Session: obs.SessionID(ctx), Text: text})
}
