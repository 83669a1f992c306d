package handlers

import (
	"log"

	"github.com/gofiber/contrib/websocket"
	ws "github.com/user/stocksim/internal/websocket"
)

// PriceWS serves the public WebSocket price feed. The connection receives
// every simulated price tick until the client disconnects.
func (h *Handler) PriceWS(c *websocket.Conn) {
	client := &ws.Client{
		Conn: c,
		Send: make(chan []byte, 256),
	}

	h.hub.Register <- client
	log.Printf("WebSocket connection established: %s", c.RemoteAddr())

	go h.clientWritePump(client)
	h.clientReadPump(client)
}

// clientWritePump pumps messages from the hub to the websocket connection.
func (h *Handler) clientWritePump(client *ws.Client) {
	defer client.Conn.Close()

	for message := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("Error writing message to %s: %v", client.Conn.RemoteAddr(), err)
			h.hub.Unregister <- client
			return
		}
	}
	// Send channel closed by the hub; the deferred Close drops the client.
}

// clientReadPump drains the connection so pings and close frames are
// processed; the feed expects no client messages.
func (h *Handler) clientReadPump(client *ws.Client) {
	defer func() {
		h.hub.Unregister <- client
		client.Conn.Close()
	}()

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Client disconnected unexpectedly %s: %v", client.Conn.RemoteAddr(), err)
			}
			return
		}
	}
}
