package events

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/conduit-lang/metaregistry/internal/watch"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) watch.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev watch.Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	a := dial(t, srv)
	b := dial(t, srv)
	waitForClients(t, hub, 2)

	hub.Notify(watch.Event{Type: watch.EventReloaded, RunID: "run-1", Types: 3})

	for _, conn := range []*websocket.Conn{a, b} {
		ev := readEvent(t, conn)
		assert.Equal(t, watch.EventReloaded, ev.Type)
		assert.Equal(t, "run-1", ev.RunID)
		assert.Equal(t, 3, ev.Types)
	}
}

func TestHub_ReplaysLastEvent(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	hub.Notify(watch.Event{Type: watch.EventError, Error: &watch.ErrorInfo{Message: "boom"}})

	ev := readEvent(t, dial(t, srv))
	assert.Equal(t, watch.EventError, ev.Type)
	require.NotNil(t, ev.Error)
	assert.Equal(t, "boom", ev.Error.Message)
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, hub, 1)
	conn.Close()
	waitForClients(t, hub, 0)

	hub.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	if c, _, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		defer c.Close()
		c.SetReadDeadline(time.Now().Add(time.Second))
		_, _, err = c.ReadMessage()
		assert.Error(t, err, "closed hub drops new clients")
	}
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		origin string
		host   string
		want   bool
	}{
		{"", "example.com", true},
		{"http://localhost:3000", "example.com", true},
		{"http://127.0.0.1:8080", "example.com", true},
		{"https://example.com", "example.com", true},
		{"https://evil.test", "example.com", false},
		{"://bad", "example.com", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = tt.host
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, checkOrigin(r), tt.origin)
	}
}
