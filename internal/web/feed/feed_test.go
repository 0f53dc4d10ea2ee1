package feed

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func waitForClients(t *testing.T, b *Broker, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return b.ClientCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestBroker_SSE(t *testing.T) {
	b := NewBroker(time.Hour)
	t.Cleanup(b.Stop)

	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "event: connected\n", line)

	waitForClients(t, b, 1)
	b.Broadcast(Event{Type: EventMessageCreated, Data: map[string]any{"messageId": 1}})

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: message_created") {
			break
		}
	}
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, `"messageId":1`)

	cancel()
	waitForClients(t, b, 0)
}

func TestBroker_WebSocket(t *testing.T) {
	b := NewBroker(time.Hour)
	t.Cleanup(b.Stop)

	srv := httptest.NewServer(http.HandlerFunc(b.ServeWebSocket))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	require.Equal(t, EventConnected, ev.Type)

	waitForClients(t, b, 1)
	b.Broadcast(Event{Type: EventMessageDeleted, Data: map[string]any{"messageId": 9}})

	require.NoError(t, conn.ReadJSON(&ev))
	require.Equal(t, EventMessageDeleted, ev.Type)
	require.Equal(t, float64(9), ev.Data.(map[string]any)["messageId"])
}

func TestBroker_StopRejectsNewClients(t *testing.T) {
	b := NewBroker(time.Hour)
	b.Stop()
	b.Stop()

	rec := httptest.NewRecorder()
	b.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/messages/events", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBroker_AllowOrigins(t *testing.T) {
	b := NewBroker(time.Hour)
	t.Cleanup(b.Stop)

	withOrigin := func(origin string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/messages/ws", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		return req
	}

	require.True(t, b.checkOrigin(withOrigin("https://evil.example")), "no list accepts all")

	b.AllowOrigins([]string{" https://app.example ", ""})
	require.True(t, b.checkOrigin(withOrigin("https://APP.example")))
	require.True(t, b.checkOrigin(withOrigin("")))
	require.False(t, b.checkOrigin(withOrigin("https://evil.example")))

	srv := httptest.NewServer(http.HandlerFunc(b.ServeWebSocket))
	t.Cleanup(srv.Close)

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
	require.Error(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}
