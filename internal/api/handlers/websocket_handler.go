package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/taskify-app/taskify-be/internal/auth"
	ws "github.com/taskify-app/taskify-be/internal/websocket"
)

// WebSocketHandler upgrades HTTP connections so clients can receive live task
// change events for their own account.
type WebSocketHandler struct {
	hub *ws.Hub
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins (consider tightening this in production).
		return true
	},
}

// Serve handles the WebSocket connection request. The route sits behind the
// auth gate, so the identity is always resolved by the time we upgrade.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, user.ID)
	h.hub.Register <- client

	go client.WritePump()
	go func() {
		// This connection only pushes events; inbound frames are drained so
		// pong handling keeps the connection alive.
		client.ReadPump(nil)
		h.hub.Unregister <- client
	}()
}
