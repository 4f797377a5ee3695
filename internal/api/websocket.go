package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WebSocket message types for the live snapshot feed
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeSnapshot  = "snapshot"
	MsgTypePong      = "pong"
)

// WSMessage is the envelope for every frame on the feed.
type WSMessage struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WebSocketHandler pushes one snapshot message per completed poll to each
// connected client.
type WebSocketHandler struct {
	snapshots SnapshotSource
	upgrader  websocket.Upgrader
}

// NewWebSocketHandler creates the live feed handler.
func NewWebSocketHandler(snapshots SnapshotSource) *WebSocketHandler {
	return &WebSocketHandler{
		snapshots: snapshots,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
		},
	}
}

// HandleWebSocket upgrades the connection and streams snapshots until the
// client goes away. The select loop below is the connection's only writer;
// gorilla/websocket allows at most one concurrent writer per connection.
func (wsh *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	updates := wsh.snapshots.Subscribe()
	defer wsh.snapshots.Unsubscribe(updates)

	wsh.sendMessage(ws, WSMessage{Type: MsgTypeConnected, Timestamp: time.Now().UnixMilli()})

	// Initial state, then one message per poll.
	wsh.sendSnapshot(ws)

	// Reader goroutine: forwards inbound message types to the select
	// loop and detects the close. It never writes to the connection.
	inbound := make(chan string, 8)
	go func() {
		defer close(inbound)
		for {
			var msg WSMessage
			if err := ws.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					fmt.Printf("[WebSocket] Connection error: %v\n", err)
				}
				return
			}
			select {
			case inbound <- msg.Type:
			default:
				// Client is flooding faster than the loop drains;
				// dropping a ping is fine.
			}
		}
	}()

	for {
		select {
		case msgType, ok := <-inbound:
			if !ok {
				return nil
			}
			if msgType == MsgTypePing {
				wsh.sendMessage(ws, WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
			}
		case <-updates:
			wsh.sendSnapshot(ws)
		case <-c.Request().Context().Done():
			return nil
		}
	}
}

func (wsh *WebSocketHandler) sendSnapshot(ws *websocket.Conn) {
	wsh.sendMessage(ws, WSMessage{
		Type:      MsgTypeSnapshot,
		Payload:   mustJSON(wsh.snapshots.Snapshot()),
		Timestamp: time.Now().UnixMilli(),
	})
}

func (wsh *WebSocketHandler) sendMessage(ws *websocket.Conn, msg WSMessage) {
	if err := ws.WriteJSON(msg); err != nil {
		fmt.Printf("[WebSocket] Failed to send message: %v\n", err)
	}
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
