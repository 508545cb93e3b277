package viewport

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"turn-guidance-service/internal/domain"
	"turn-guidance-service/internal/platform/obs"
)

func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return m
}

func TestHubBroadcastsCameraSpeechAndState(t *testing.T) {
	h := NewHub()
	conn := dial(t, h)
	ctx := obs.WithSession(context.Background(), "s1")

	target := domain.CameraTarget{Center: domain.Coordinate{Lat: 1, Lng: 2}, Zoom: 18, Bearing: 90, Pitch: 45}
	if err := h.SetCamera(ctx, target, true, 600*time.Millisecond); err != nil {
		t.Fatalf("SetCamera: %v", err)
	}
	m := read(t, conn)
	if m.Type != "camera" || m.Session != "s1" || m.Camera == nil || m.Camera.Zoom != 18 || !m.Camera.Forced || m.Camera.Duration != 600 {
		t.Fatalf("unexpected camera message %+v", m)
	}

	if err := h.Speak(ctx, "Turn left"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if m := read(t, conn); m.Type != "speak" || m.Text != "Turn left" {
		t.Fatalf("unexpected speak message %+v", m)
	}

	if err := h.PublishState(ctx, domain.NavigationState{SessionID: "s1", IsNavigating: true}); err != nil {
		t.Fatalf("PublishState: %v", err)
	}
	if m := read(t, conn); m.Type != "state" || m.State == nil || !m.State.IsNavigating {
		t.Fatalf("unexpected state message %+v", m)
	}
}

func TestHubWithoutClientsDoesNotBlock(t *testing.T) {
	h := NewHub()
	for i := 0; i < 100; i++ {
		if err := h.Speak(context.Background(), "hello"); err != nil {
			t.Fatalf("Speak: %v", err)
		}
	}
}
