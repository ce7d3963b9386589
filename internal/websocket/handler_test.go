package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"sessionhub/internal/hub"
	"sessionhub/internal/logger"
	"sessionhub/pkg/types"
)

func newLobby(t *testing.T, origin string) (*hub.Hub, string) {
	t.Helper()
	h := hub.NewHub(logger.Discard())
	require.NoError(t, h.Start(context.Background()))
	t.Cleanup(func() { _ = h.Stop() })

	srv := httptest.NewServer(NewHandler(h, origin, logger.Discard()))
	t.Cleanup(srv.Close)
	return h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// FUNCTIONAL VALIDATION TEST: Published transitions reach connected lobby clients
func TestHandler_DeliversEvents(t *testing.T) {
	h, url := newLobby(t, "*")
	first := dial(t, url, nil)
	second := dial(t, url, nil)
	require.Eventually(t, func() bool { return h.Subscribers() == 2 }, 2*time.Second, 10*time.Millisecond)

	h.Publish(types.SessionEvent{
		Type:    types.EventSessionCreated,
		Session: &types.Session{ID: "s1", CallID: "session_s1", Status: types.StatusActive},
		At:      time.Now().UTC(),
	})

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var got types.SessionEvent
		require.NoError(t, conn.ReadJSON(&got))
		require.Equal(t, types.EventSessionCreated, got.Type)
		require.Equal(t, "session_s1", got.Session.CallID)
	}
}

func TestHandler_ClientDisconnectUnregisters(t *testing.T) {
	h, url := newLobby(t, "*")
	conn := dial(t, url, nil)
	require.Eventually(t, func() bool { return h.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return h.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_HubStopClosesSockets(t *testing.T) {
	h, url := newLobby(t, "*")
	conn := dial(t, url, nil)
	require.Eventually(t, func() bool { return h.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, h.Stop())
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestHandler_OriginCheck(t *testing.T) {
	_, url := newLobby(t, "https://app.example.com")

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example.com"}})
	require.Error(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	dial(t, url, http.Header{"Origin": {"https://app.example.com"}})
	dial(t, url, nil)
}

func TestHandler_RejectsPlainHTTP(t *testing.T) {
	_, url := newLobby(t, "*")
	resp, err := http.Get("http" + strings.TrimPrefix(url, "ws"))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConnection_SendAfterClose(t *testing.T) {
	srvConn := make(chan *Connection, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		srvConn <- NewConnection(conn)
	}))
	t.Cleanup(srv.Close)
	dial(t, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)

	c := <-srvConn
	require.NoError(t, c.Close())
	<-c.Done()
	require.ErrorIs(t, c.Send(&types.SessionEvent{Type: types.EventSessionEnded}), ErrConnectionClosed)
}
