package websocket

import "github.com/rs/zerolog/log"

// userMessage is a message targeted at all clients of one user.
type userMessage struct {
	userID  string
	message []byte
}

// Hub maintains the set of active clients and routes task events to the
// clients of the owning user. All map access happens inside Run.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Targeted messages from services.
	notify chan userMessage

	// A map of user IDs to the set of that user's connected clients.
	byUser map[string]map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		notify:     make(chan userMessage, 64),
		clients:    make(map[*Client]bool),
		byUser:     make(map[string]map[*Client]bool),
	}
}

// NotifyUser delivers a message to every connected client of the given user.
// Safe to call from any goroutine.
func (h *Hub) NotifyUser(userID string, message []byte) {
	h.notify <- userMessage{userID: userID, message: message}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			if h.byUser[client.UserID] == nil {
				h.byUser[client.UserID] = make(map[*Client]bool)
			}
			h.byUser[client.UserID][client] = true
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case um := <-h.notify:
			for client := range h.byUser[um.userID] {
				select {
				case client.Send <- um.message:
				default:
					// Slow client; drop it rather than block the hub.
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.Send)
	if subs, ok := h.byUser[client.UserID]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.byUser, client.UserID)
		}
	}
}
