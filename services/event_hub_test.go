package services

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTestHub(t *testing.T, hub *EventHub) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		hub.HandleConnection(c, 1)
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return hub.ConnectionCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
	return conn
}

// Broadcasts and ping replies share the connection's single writer, so a
// client hammering pings while the hub publishes must still receive every
// frame intact, with nothing lost or corrupted.
func TestEventHub_PingsDuringBroadcastStayIntact(t *testing.T) {
	hub := NewEventHub("")
	conn := dialTestHub(t, hub)

	const pings, broadcasts = 100, 100

	go func() {
		for i := 0; i < broadcasts; i++ {
			hub.Publish(EventContactMessage, map[string]interface{}{"seq": i})
		}
	}()
	go func() {
		for i := 0; i < pings; i++ {
			if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
				return
			}
		}
	}()

	var pongs, events int
	for pongs+events < pings+broadcasts {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg Event
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == eventPong {
			pongs++
		} else {
			assert.Equal(t, EventContactMessage, msg.Type)
			events++
		}
	}
	assert.Equal(t, pings, pongs)
	assert.Equal(t, broadcasts, events)
}

// A closed client leaves the hub's roster so later publishes skip it.
func TestEventHub_DisconnectUnregisters(t *testing.T) {
	hub := NewEventHub("")
	conn := dialTestHub(t, hub)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return hub.ConnectionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	hub.Publish(EventNewsletterSubscribed, nil)
	assert.Equal(t, 0, hub.ConnectionCount())
}
