package websocket

import (
	"context"
	"driverless-backend/internal/models"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startManager(t *testing.T, m *Manager) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func dial(t *testing.T, m *Manager) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := m.GetUpgrader().Upgrade(w, r, nil)
		if err != nil {
			return
		}
		m.ServeClient("admin", conn)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestNewManager(t *testing.T) {
	manager := NewManager()

	assert.NotNil(t, manager.clients)
	assert.NotNil(t, manager.register)
	assert.NotNil(t, manager.unregister)
	assert.NotNil(t, manager.broadcast)
	assert.Equal(t, 0, manager.GetConnectedClients())
}

func TestRunStopsOnCancel(t *testing.T) {
	manager := NewManager()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- manager.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("manager did not stop")
	}

	_, err := manager.RegisterClient("admin", nil)
	assert.ErrorIs(t, err, ErrManagerStopped)
}

func TestServeClientGreetsWithSnapshot(t *testing.T) {
	manager := NewManager()
	car := models.NewCar()
	manager.SetSnapshotSource(func() models.Vehicle { return *car })
	startManager(t, manager)

	conn := dial(t, manager)

	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeVehicleState, msg.Type)
	require.NotNil(t, msg.Vehicle)
	assert.Equal(t, *car, *msg.Vehicle)
	assert.Equal(t, 1, manager.GetConnectedClients())
}

func TestObserveIncidentsReachesClients(t *testing.T) {
	manager := NewManager()
	manager.SetSnapshotSource(func() models.Vehicle { return *models.NewCar() })
	startManager(t, manager)

	first := dial(t, manager)
	second := dial(t, manager)
	readMessage(t, first)
	readMessage(t, second)

	vehicle := models.Vehicle{Type: "Car", Velocity: 60, Direction: models.North, Lane: models.LaneSlow, PoweredOn: true}
	entries := []models.LogEntry{{ID: "1", Message: "The car has been activated. The car's speed is set to 60 km/h."}}
	manager.ObserveIncidents(entries, vehicle)

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		assert.Equal(t, MessageTypeIncidents, msg.Type)
		require.Len(t, msg.Entries, 1)
		assert.Equal(t, entries[0].Message, msg.Entries[0].Message)
		require.NotNil(t, msg.Vehicle)
		assert.Equal(t, 60, msg.Vehicle.Velocity)
	}
}

func TestPingIsAnswered(t *testing.T) {
	manager := NewManager()
	manager.SetSnapshotSource(func() models.Vehicle { return *models.NewCar() })
	startManager(t, manager)

	conn := dial(t, manager)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": MessageTypePing}))
	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypePong, msg.Type)
}

func TestUnsupportedMessagesAreAnsweredWithError(t *testing.T) {
	manager := NewManager()
	manager.SetSnapshotSource(func() models.Vehicle { return *models.NewCar() })
	startManager(t, manager)

	conn := dial(t, manager)
	readMessage(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeError, msg.Type)
	assert.Equal(t, "invalid message format", msg.Error)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "subscribe"}))
	msg = readMessage(t, conn)
	assert.Equal(t, MessageTypeError, msg.Type)
	assert.Contains(t, msg.Error, "subscribe")

	// the connection stays usable
	require.NoError(t, conn.WriteJSON(map[string]string{"type": MessageTypePing}))
	assert.Equal(t, MessageTypePong, readMessage(t, conn).Type)
}

func TestDisconnectUnregistersClient(t *testing.T) {
	manager := NewManager()
	manager.SetSnapshotSource(func() models.Vehicle { return *models.NewCar() })
	startManager(t, manager)

	conn := dial(t, manager)
	readMessage(t, conn)
	require.Equal(t, 1, manager.GetConnectedClients())

	conn.Close()
	assert.Eventually(t, func() bool {
		return manager.GetConnectedClients() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	manager := NewManager()

	for i := 0; i < broadcastBufferSize; i++ {
		require.NoError(t, manager.Broadcast(Message{Type: MessageTypeIncidents}))
	}
	assert.ErrorIs(t, manager.Broadcast(Message{Type: MessageTypeIncidents}), ErrBroadcastFull)

	manager.ObserveIncidents(nil, models.Vehicle{})
	assert.Equal(t, int64(2), manager.GetClientStats().DroppedUpdates)
}

func TestSlowClientMarkedInactive(t *testing.T) {
	manager := NewManager()
	client := newClient("slow", "admin", nil)
	manager.clients[client.ID] = client

	for i := 0; i < clientBufferSize; i++ {
		manager.broadcastToClients(Message{Type: MessageTypeIncidents})
	}
	assert.Equal(t, 1, manager.GetClientStats().ActiveClients)

	manager.broadcastToClients(Message{Type: MessageTypeIncidents})
	stats := manager.GetClientStats()
	assert.Equal(t, 0, stats.ActiveClients)
	assert.Equal(t, 1, stats.InactiveClients)
	assert.Equal(t, int64(1), stats.DroppedUpdates)
}

func TestHealthCheckRemovesIdleClients(t *testing.T) {
	manager := NewManager()
	start := time.Now()
	manager.now = func() time.Time { return start }

	idle := newClient("idle", "admin", nil)
	idle.touch(start.Add(-2 * idleTimeout))
	fresh := newClient("fresh", "admin", nil)
	fresh.touch(start)
	manager.clients[idle.ID] = idle
	manager.clients[fresh.ID] = fresh

	manager.healthCheck()

	assert.Equal(t, 1, manager.GetConnectedClients())
	_, open := <-idle.Send
	assert.False(t, open)
}
