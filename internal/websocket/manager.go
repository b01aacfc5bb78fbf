package websocket

import (
	"context"
	"driverless-backend/internal/models"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	ErrManagerStopped = errors.New("websocket manager stopped")
	ErrBroadcastFull  = errors.New("broadcast channel full")
)

// Manager fans control unit updates out to connected console clients.
// It is a control unit observer: ObserveIncidents never blocks the caller.
type Manager struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	mutex      sync.RWMutex
	upgrader   websocket.Upgrader
	done       chan struct{}
	stopOnce   sync.Once
	dropped    atomic.Int64
	snapshot   func() models.Vehicle
	now        func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Message, broadcastBufferSize),
		upgrader: websocket.Upgrader{
			// origins are enforced by the CORS policy in front of the console
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		done: make(chan struct{}),
		now:  time.Now,
	}
}

// SetSnapshotSource makes the manager greet every new client with the
// current vehicle state.
func (m *Manager) SetSnapshotSource(snapshot func() models.Vehicle) {
	m.snapshot = snapshot
}

// Run is the manager's event loop. It returns when ctx is done, after
// closing every client connection.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(healthPeriod)
	defer ticker.Stop()

	log.Println("WebSocket manager started")
	for {
		select {
		case client := <-m.register:
			m.addClient(client)

		case client := <-m.unregister:
			m.removeClient(client)

		case msg := <-m.broadcast:
			m.broadcastToClients(msg)

		case <-ticker.C:
			m.healthCheck()

		case <-ctx.Done():
			m.stop()
			log.Println("WebSocket manager stopped")
			return nil
		}
	}
}

func (m *Manager) stop() {
	m.stopOnce.Do(func() {
		close(m.done)

		m.mutex.Lock()
		defer m.mutex.Unlock()
		for id, client := range m.clients {
			delete(m.clients, id)
			closeClient(client)
		}
	})
}

func closeClient(client *Client) {
	close(client.Send)
	if client.Conn != nil {
		client.Conn.Close()
	}
}

func (m *Manager) addClient(client *Client) {
	m.mutex.Lock()
	m.clients[client.ID] = client
	m.mutex.Unlock()
	log.Printf("Client %s (%s) registered", client.ID, client.Username)

	if m.snapshot != nil {
		vehicle := m.snapshot()
		client.Send <- Message{
			Type:      MessageTypeVehicleState,
			Vehicle:   &vehicle,
			Timestamp: m.now(),
		}
	}
}

func (m *Manager) removeClient(client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		delete(m.clients, client.ID)
		closeClient(client)
		log.Printf("Client %s unregistered", client.ID)
	}
}

// RegisterClient hands a connection to the manager. The returned client is
// owned by the manager from then on.
func (m *Manager) RegisterClient(username string, conn *websocket.Conn) (*Client, error) {
	client := newClient(uuid.NewString(), username, conn)

	select {
	case m.register <- client:
		return client, nil
	case <-m.done:
		return nil, ErrManagerStopped
	}
}

// UnregisterClient removes a client; unknown ids are ignored.
func (m *Manager) UnregisterClient(clientID string) error {
	m.mutex.RLock()
	client, exists := m.clients[clientID]
	m.mutex.RUnlock()

	if !exists {
		return nil
	}
	select {
	case m.unregister <- client:
		return nil
	case <-m.done:
		return ErrManagerStopped
	}
}

// ObserveIncidents queues one incidents message for all clients.
func (m *Manager) ObserveIncidents(entries []models.LogEntry, vehicle models.Vehicle) {
	msg := Message{
		Type:      MessageTypeIncidents,
		Entries:   entries,
		Vehicle:   &vehicle,
		Timestamp: m.now(),
	}
	if err := m.Broadcast(msg); err != nil {
		log.Printf("Dropping %d incident(s) for websocket clients: %v", len(entries), err)
	}
}

// Broadcast queues msg without blocking.
func (m *Manager) Broadcast(msg Message) error {
	select {
	case m.broadcast <- msg:
		return nil
	default:
		m.dropped.Add(1)
		return ErrBroadcastFull
	}
}

// GetConnectedClients returns the number of connected clients
func (m *Manager) GetConnectedClients() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

func (m *Manager) GetClientStats() ClientStats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	stats := ClientStats{
		TotalClients:   len(m.clients),
		DroppedUpdates: m.dropped.Load(),
	}
	for _, client := range m.clients {
		if client.IsActive {
			stats.ActiveClients++
		} else {
			stats.InactiveClients++
		}
	}
	return stats
}

// GetUpgrader returns the WebSocket upgrader for external use
func (m *Manager) GetUpgrader() *websocket.Upgrader {
	return &m.upgrader
}

func (m *Manager) broadcastToClients(msg Message) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, client := range m.clients {
		select {
		case client.Send <- msg:
			client.IsActive = true
		default:
			// slow reader, it will be dropped by the health check if it
			// stops answering pings
			client.IsActive = false
			m.dropped.Add(1)
			log.Printf("Client %s send channel full, marking as inactive", client.ID)
		}
	}
}

func (m *Manager) healthCheck() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := m.now()
	for id, client := range m.clients {
		if now.Sub(client.LastPing()) > idleTimeout {
			log.Printf("Client %s timed out, removing", id)
			delete(m.clients, id)
			closeClient(client)
		}
	}
}

// ServeClient registers conn and pumps messages until the peer goes away
// or the manager stops. It blocks, so callers run it on the request
// goroutine.
func (m *Manager) ServeClient(username string, conn *websocket.Conn) error {
	client, err := m.RegisterClient(username, conn)
	if err != nil {
		conn.Close()
		return err
	}

	go m.writeMessages(client)
	m.readMessages(client)

	select {
	case m.unregister <- client:
	case <-m.done:
	}
	return nil
}

// readMessages handles client pings. The stream is one way, so anything
// else is answered with an error message.
func (m *Manager) readMessages(client *Client) {
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.touch(m.now())
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error for client %s: %v", client.ID, err)
			}
			return
		}
		client.touch(m.now())

		var message struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &message); err != nil {
			m.reply(client, Message{Type: MessageTypeError, Error: "invalid message format", Timestamp: m.now()})
			continue
		}

		switch message.Type {
		case MessageTypePing:
			m.reply(client, Message{Type: MessageTypePong, Timestamp: m.now()})
		default:
			m.reply(client, Message{Type: MessageTypeError, Error: "unsupported message type: " + message.Type, Timestamp: m.now()})
		}
	}
}

func (m *Manager) reply(client *Client, msg Message) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	// the client may already have been closed by the run loop
	if _, ok := m.clients[client.ID]; !ok {
		return
	}
	select {
	case client.Send <- msg:
	default:
	}
}

func (m *Manager) writeMessages(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteJSON(msg); err != nil {
				log.Printf("Error writing message to client %s: %v", client.ID, err)
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("Error sending ping to client %s: %v", client.ID, err)
				return
			}
		}
	}
}
