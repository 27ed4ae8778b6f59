package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketEcho(t *testing.T) {
	s := newTestServer(t, &stubDispatcher{}, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dialWS(t, ts.URL)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, reply, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(reply) != "Echo: hello" {
		t.Errorf("reply = %q, want %q", reply, "Echo: hello")
	}
}

func TestWebSocketBroadcast(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := newWSHub(logger, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", hub.handleUpgrade)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	a := dialWS(t, ts.URL)
	b := dialWS(t, ts.URL)

	// Wait for both registrations.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.ClientCount() != 2 {
		t.Fatalf("clients = %d, want 2", hub.ClientCount())
	}

	hub.Broadcast([]byte("announcement"))

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(msg) != "announcement" {
			t.Errorf("msg = %q", msg)
		}
	}
}

func TestWebSocketDisconnectUpdatesCount(t *testing.T) {
	s := newTestServer(t, &stubDispatcher{}, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dialWS(t, ts.URL)

	deadline := time.Now().Add(2 * time.Second)
	for s.Hub().ClientCount() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.Hub().ClientCount() != 1 {
		t.Fatalf("clients = %d, want 1", s.Hub().ClientCount())
	}

	conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for s.Hub().ClientCount() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.Hub().ClientCount() != 0 {
		t.Errorf("clients = %d after close, want 0", s.Hub().ClientCount())
	}
}
