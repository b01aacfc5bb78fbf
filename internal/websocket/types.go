package websocket

import (
	"driverless-backend/internal/models"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Message is the envelope written to console clients.
type Message struct {
	Type      string            `json:"type"`
	Entries   []models.LogEntry `json:"entries,omitempty"`
	Vehicle   *models.Vehicle   `json:"vehicle,omitempty"`
	Error     string            `json:"error,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Client represents a WebSocket client connection
type Client struct {
	ID       string
	Username string
	Conn     *websocket.Conn
	Send     chan Message
	IsActive bool

	lastPing atomic.Int64
}

func newClient(id, username string, conn *websocket.Conn) *Client {
	c := &Client{
		ID:       id,
		Username: username,
		Conn:     conn,
		Send:     make(chan Message, clientBufferSize),
		IsActive: true,
	}
	c.touch(time.Now())
	return c
}

func (c *Client) touch(t time.Time) {
	c.lastPing.Store(t.UnixNano())
}

// LastPing is the last time the client answered a ping.
func (c *Client) LastPing() time.Time {
	return time.Unix(0, c.lastPing.Load())
}

// ClientStats provides statistics about connected clients
type ClientStats struct {
	TotalClients    int   `json:"totalClients"`
	ActiveClients   int   `json:"activeClients"`
	InactiveClients int   `json:"inactiveClients"`
	DroppedUpdates  int64 `json:"droppedUpdates"`
}

// Message types for WebSocket communication
const (
	MessageTypeIncidents    = "incidents"
	MessageTypeVehicleState = "vehicle_state"
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
	MessageTypeError        = "error"
)

const (
	clientBufferSize    = 256
	broadcastBufferSize = 1000

	pongWait     = 60 * time.Second
	pingPeriod   = 54 * time.Second
	writeWait    = 10 * time.Second
	idleTimeout  = 90 * time.Second
	healthPeriod = 30 * time.Second
)
