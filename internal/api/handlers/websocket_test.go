package handlers

import (
	"context"
	"driverless-backend/internal/websocket"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWebSocketRoutes(t *testing.T, env *testEnv) *websocket.Manager {
	t.Helper()
	manager := websocket.NewManager()
	manager.SetSnapshotSource(env.unit.Status)
	env.unit.AddObserver(manager)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		manager.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	handler := NewWebSocketHandler(manager)
	env.protected.GET("/ws", handler.HandleWebSocket)
	env.protected.GET("/ws/clients", handler.GetConnectedClients)
	env.protected.DELETE("/ws/clients/:clientId", handler.DisconnectClient)
	return manager
}

func TestHandleWebSocketStreamsIncidents(t *testing.T) {
	env := newTestEnv(t)
	manager := setupWebSocketRoutes(t, env)
	token := env.login(t, "admin")

	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var greeting websocket.Message
	require.NoError(t, conn.ReadJSON(&greeting))
	assert.Equal(t, websocket.MessageTypeVehicleState, greeting.Type)
	assert.Equal(t, 1, manager.GetConnectedClients())

	_, err = env.unit.Start()
	require.NoError(t, err)

	var update websocket.Message
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, websocket.MessageTypeIncidents, update.Type)
	require.Len(t, update.Entries, 1)
	assert.Equal(t, "The car has been activated. The car's speed is set to 60 km/h.", update.Entries[0].Message)
	require.NotNil(t, update.Vehicle)
	assert.True(t, update.Vehicle.PoweredOn)
}

func TestHandleWebSocketRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	setupWebSocketRoutes(t, env)

	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	_, resp, err := gorilla.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetConnectedClients(t *testing.T) {
	env := newTestEnv(t)
	setupWebSocketRoutes(t, env)
	token := env.login(t, "admin")

	w := env.do(http.MethodGet, "/ws/clients", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		ConnectedClients int                   `json:"connectedClients"`
		Stats            websocket.ClientStats `json:"stats"`
	}
	decode(t, w, &body)
	assert.Equal(t, 0, body.ConnectedClients)
	assert.Equal(t, 0, body.Stats.TotalClients)
}

func TestDisconnectUnknownClient(t *testing.T) {
	env := newTestEnv(t)
	setupWebSocketRoutes(t, env)

	w := env.do(http.MethodDelete, "/ws/clients/nobody", env.login(t, "admin"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

