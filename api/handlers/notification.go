package handlers

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust CORS as needed, e.g., check r.Header.Get("Origin")
	},
}

// ReportEventHub tracks connected clients (userId -> *websocket.Conn) that
// subscribed to live report events
type ReportEventHub struct {
	clients map[string]*websocket.Conn
	mutex   sync.Mutex
}

var hub = &ReportEventHub{
	clients: make(map[string]*websocket.Conn),
	mutex:   sync.Mutex{},
}

// HandleReportsWebSocket upgrades the connection and streams report status
// events to the client until it disconnects
func HandleReportsWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorf("WebSocket upgrade error: %v", err)
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		conn.Close()
		return
	}

	hub.mutex.Lock()
	hub.clients[userID] = conn
	hub.mutex.Unlock()
	zap.S().Debugf("User %s connected to /ws/reports", userID)

	conn.SetCloseHandler(func(code int, text string) error {
		hub.mutex.Lock()
		delete(hub.clients, userID)
		hub.mutex.Unlock()
		zap.S().Debugf("User %s disconnected from /ws/reports", userID)
		return nil
	})

	// Keep connection alive
	for {
		if _, _, err := conn.NextReader(); err != nil {
			conn.Close()
			break
		}
	}
}

// broadcastReportEvent pushes a report event to every connected client.
// Delivery is best-effort; a client with a dead connection is dropped.
func broadcastReportEvent(eventType string, data map[string]interface{}) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	for userID, conn := range hub.clients {
		err := conn.WriteJSON(map[string]interface{}{
			"event": eventType,
			"data":  data,
		})
		if err != nil {
			zap.S().Warnf("Error broadcasting report event to user %s: %v", userID, err)
			delete(hub.clients, userID)
			conn.Close()
		}
	}
}
