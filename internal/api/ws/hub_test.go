package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/orrery-labs/orrery/backend/internal/infrastructure/logging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func newTestHub(t *testing.T) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(logging.NewNop())
	go hub.Run()

	router := gin.New()
	router.GET("/stream", hub.Serve)
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var evt Event
	require.NoError(t, conn.ReadJSON(&evt))
	return evt
}

func TestServeSendsWelcome(t *testing.T) {
	_, url := newTestHub(t)
	conn := dial(t, url)

	welcome := readEvent(t, conn)
	assert.Equal(t, EventSystem, welcome.Type)
	assert.NotEmpty(t, welcome.ID)

	payload, ok := welcome.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, payload["client_id"])
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub, url := newTestHub(t)

	first := dial(t, url)
	second := dial(t, url)
	readEvent(t, first)
	readEvent(t, second)

	hub.Broadcast(NewEvent(EventWindowCreated, map[string]int{"id": 4}))

	for _, conn := range []*websocket.Conn{first, second} {
		evt := readEvent(t, conn)
		assert.Equal(t, EventWindowCreated, evt.Type)
		payload, ok := evt.Payload.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, float64(4), payload["id"])
	}
}

func TestBroadcastEventIDsUnique(t *testing.T) {
	hub, url := newTestHub(t)
	conn := dial(t, url)
	readEvent(t, conn)

	hub.Broadcast(NewEvent(EventWindowUpdated, nil))
	hub.Broadcast(NewEvent(EventWindowUpdated, nil))

	a := readEvent(t, conn)
	b := readEvent(t, conn)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.Time.IsZero())
}

func TestPingGetsPong(t *testing.T) {
	_, url := newTestHub(t)
	conn := dial(t, url)
	readEvent(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))

	evt := readEvent(t, conn)
	assert.Equal(t, EventPong, evt.Type)
}

func TestSlowClientDropped(t *testing.T) {
	hub, url := newTestHub(t)
	conn := dial(t, url)
	readEvent(t, conn)
	require.Equal(t, 1, hub.ClientCount())

	// Stop reading and keep the firehose on until the buffers jam.
	filler := strings.Repeat("x", 2048)
	require.Eventually(t, func() bool {
		for i := 0; i < 64; i++ {
			hub.Broadcast(NewEvent(EventWindowUpdated, map[string]string{"fill": filler}))
		}
		return hub.ClientCount() == 0
	}, 5*time.Second, 20*time.Millisecond, "a client that stops reading must be dropped")

	_ = conn.Close()
}

func TestCloseDisconnectsClients(t *testing.T) {
	hub, url := newTestHub(t)
	conn := dial(t, url)
	readEvent(t, conn)

	hub.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var evt Event
	err := conn.ReadJSON(&evt)
	require.Error(t, err, "close must reach the client as a close frame")
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure) ||
		websocket.IsUnexpectedCloseError(err))
}

func TestNilHubIsSafe(t *testing.T) {
	var hub *Hub
	hub.Broadcast(NewEvent(EventWindowRemoved, nil))
	assert.Zero(t, hub.ClientCount())
}
