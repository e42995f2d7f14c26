package web

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Monitor surface is read-only and unauthenticated; same-origin
		// checks buy nothing here.
		return true
	},
}

// WSMessage is the envelope every broadcast uses.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WSManager tracks connected monitor clients and fans broadcasts out to
// them.
type WSManager struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]string
}

func NewWSManager() *WSManager {
	return &WSManager{clients: make(map[*websocket.Conn]string)}
}

func (m *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}
	session := uuid.NewString()

	m.mu.Lock()
	m.clients[conn] = session
	m.mu.Unlock()
	log.Printf("Monitor client connected (session %s)", session)

	// Reader loop exists only to notice the close.
	go func() {
		defer m.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (m *WSManager) drop(conn *websocket.Conn) {
	m.mu.Lock()
	session, ok := m.clients[conn]
	delete(m.clients, conn)
	m.mu.Unlock()
	conn.Close()
	if ok {
		log.Printf("Monitor client disconnected (session %s)", session)
	}
}

func (m *WSManager) broadcast(msg WSMessage) {
	m.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(m.clients))
	for c := range m.clients {
		conns = append(conns, c)
	}
	m.mu.Unlock()

	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.WriteJSON(msg); err != nil {
			m.drop(c)
		}
	}
}

// BroadcastEvent pushes a client join/leave to every monitor.
func (m *WSManager) BroadcastEvent(kind, mac string) {
	m.broadcast(WSMessage{Type: "client_event", Payload: map[string]string{
		"kind": kind,
		"mac":  mac,
	}})
}

// BroadcastChat pushes a chat line to every monitor.
func (m *WSManager) BroadcastChat(fromMAC string, body []byte) {
	m.broadcast(WSMessage{Type: "chat", Payload: map[string]interface{}{
		"from": fromMAC,
		"body": body,
	}})
}
