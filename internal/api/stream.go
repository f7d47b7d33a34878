package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// AlertEvent describes websocket payloads emitted when a fraud case opens.
type AlertEvent struct {
	Type         string    `json:"type"`
	CaseID       string    `json:"case_id"`
	ApplicantID  string    `json:"applicant_id"`
	RiskCategory string    `json:"risk_category"`
	Confidence   float64   `json:"confidence"`
	Timestamp    time.Time `json:"timestamp"`
}

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// AlertNotifier keeps track of active websocket clients and broadcasts
// case alerts to the analyst dashboard.
type AlertNotifier struct {
	mu        sync.Mutex
	clients   map[*wsClient]struct{}
	lastAlert *AlertEvent
}

// NewAlertNotifier constructs a notifier instance.
func NewAlertNotifier() *AlertNotifier {
	return &AlertNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and returns a client handle.
// The most recent alert is replayed so a fresh dashboard is not blank.
func (n *AlertNotifier) Register(conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}
	n.mu.Lock()
	n.clients[client] = struct{}{}
	last := n.lastAlert
	n.mu.Unlock()

	if last != nil {
		_ = client.writeJSON(*last)
	}
	return client
}

// Unregister removes the websocket client and closes the socket.
func (n *AlertNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Broadcast sends the supplied event to all registered websocket clients.
func (n *AlertNotifier) Broadcast(event AlertEvent) {
	event.Timestamp = time.Now().UTC()

	n.mu.Lock()
	snapshot := event
	n.lastAlert = &snapshot

	for client := range n.clients {
		if err := client.writeJSON(event); err != nil {
			delete(n.clients, client)
			_ = client.conn.Close()
		}
	}
	n.mu.Unlock()
}

// LastAlert returns a copy of the most recently broadcast event.
func (n *AlertNotifier) LastAlert() *AlertEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.lastAlert == nil {
		return nil
	}
	copied := *n.lastAlert
	return &copied
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}
