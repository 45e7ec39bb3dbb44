package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHub(t *testing.T, h *Hub) *httptest.Server {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Register(conn, r.URL.Query().Get("role"))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.Unregister(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, role string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?role=" + role
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestPublishReachesEveryClient(t *testing.T) {
	counts := make(chan int, 8)
	h := New(WithClientCounter(func(n int) { counts <- n }))
	srv := serveHub(t, h)

	a := dial(t, srv, "admin")
	defer a.Close()
	b := dial(t, srv, "manager")
	defer b.Close()

	require.Eventually(t, func() bool { return h.Count() == 2 }, time.Second, 10*time.Millisecond)

	h.Publish("modifier_assignments_saved", map[string]string{"item_code": "W001"})

	for _, conn := range []*websocket.Conn{a, b} {
		var msg struct {
			Event string            `json:"event"`
			Data  map[string]string `json:"data"`
		}
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "modifier_assignments_saved", msg.Event)
		assert.Equal(t, "W001", msg.Data["item_code"])
	}

	assert.Equal(t, 1, <-counts)
	assert.Equal(t, 2, <-counts)
}

func TestUnregisterOnDisconnect(t *testing.T) {
	h := New()
	srv := serveHub(t, h)

	conn := dial(t, srv, "admin")
	require.Eventually(t, func() bool { return h.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return h.Count() == 0 }, time.Second, 10*time.Millisecond)

	assert.NotPanics(t, func() { h.Publish("menu_item_updated", nil) })
}

func TestCloseDisconnectsClients(t *testing.T) {
	h := New()
	srv := serveHub(t, h)

	conn := dial(t, srv, "admin")
	defer conn.Close()
	require.Eventually(t, func() bool { return h.Count() == 1 }, time.Second, 10*time.Millisecond)

	h.Close()
	assert.Equal(t, 0, h.Count())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
