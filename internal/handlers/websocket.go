package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"pet-platform/internal/token"
	ws "pet-platform/internal/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler streams donation alerts to campaign creators.
type WebSocketHandler struct {
	Tokens *token.Service
	Hub    *ws.Hub
}

func NewWebSocketHandler(tokens *token.Service, hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{Tokens: tokens, Hub: hub}
}

// ServeWs upgrades the connection. Browsers cannot set headers on a
// websocket handshake, so the bearer token rides in a query parameter.
func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	claims, err := h.Tokens.Verify(c.Query("token"))
	if err != nil {
		log.Println("Invalid websocket token:", err)
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("Failed to upgrade connection:", err)
		return
	}

	client := &ws.Client{
		Hub:          h.Hub,
		Conn:         conn,
		Send:         make(chan []byte, 256),
		CreatorEmail: claims.Email,
	}

	client.Hub.Register <- client

	go h.writePump(client)
	go h.readPump(client)
}

func (h *WebSocketHandler) writePump(client *ws.Client) {
	defer func() {
		client.Conn.Close()
	}()

	for message := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}

	client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (h *WebSocketHandler) readPump(client *ws.Client) {
	defer func() {
		client.Hub.Unregister <- client
		client.Conn.Close()
	}()

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("readPump error: %v", err)
			}
			break
		}
	}
}
