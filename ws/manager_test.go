package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"donation_backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, manager *WebSocketManager) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewWebSocketHandler(manager)
	router.GET("/ws", func(c *gin.Context) {
		if id := c.Query("as"); id != "" {
			c.Set("userID", id)
		}
		handler.ServeWS(c)
	})
	return httptest.NewServer(router)
}

func TestDeliver_ToConnectedUser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := NewWebSocketManager()
	go manager.Run(ctx)

	server := newTestServer(t, manager)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?as=donor-1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return manager.IsClientConnected("donor-1") }, time.Second, 10*time.Millisecond)

	assert.False(t, manager.Deliver("someone-else", models.UserTypeDonor, "contribution.status", nil))
	assert.True(t, manager.Deliver("donor-1", models.UserTypeDonor, "contribution.status", map[string]string{"status": "APPROVED"}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Envelope
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "contribution.status", got.Event)
	assert.Equal(t, models.UserTypeDonor, got.UserType)
}

func TestServeWS_RequiresUser(t *testing.T) {
	manager := NewWebSocketManager()
	server := newTestServer(t, manager)
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRunClosesClientsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	manager := NewWebSocketManager()
	go manager.Run(ctx)

	client := &Client{UserID: "org-1", Send: make(chan Envelope, 1), Manager: manager}
	manager.Register(client)
	require.Eventually(t, func() bool { return manager.IsClientConnected("org-1") }, time.Second, 10*time.Millisecond)

	cancel()
	<-manager.done
	_, open := <-client.Send
	assert.False(t, open)
	assert.Equal(t, 0, manager.GetClientCount())

	// после остановки Register не блокируется
	manager.Register(&Client{UserID: "late"})
}
