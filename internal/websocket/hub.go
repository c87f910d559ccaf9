package websocket

import (
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"
)

// Client is one connected campaign creator listening for alerts.
type Client struct {
	Hub          *Hub
	Conn         *websocket.Conn
	Send         chan []byte
	CreatorEmail string
}

// DonationAlert is pushed to a campaign's creator when a donation to one
// of their campaigns is captured and recorded.
type DonationAlert struct {
	TargetCreatorEmail string  `json:"-"`
	CampaignID         string  `json:"campaign_id"`
	DonorEmail         string  `json:"donor_email"`
	Amount             float64 `json:"amount"`
}

type Hub struct {
	Clients        map[string]*Client
	Register       chan *Client
	Unregister     chan *Client
	BroadcastAlert chan DonationAlert
}

func NewHub() *Hub {
	return &Hub{
		Clients:        make(map[string]*Client),
		Register:       make(chan *Client),
		Unregister:     make(chan *Client),
		BroadcastAlert: make(chan DonationAlert, 16),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.Clients[client.CreatorEmail] = client
			log.Printf("WebSocket client registered for creator %s", client.CreatorEmail)

		case client := <-h.Unregister:
			if _, ok := h.Clients[client.CreatorEmail]; ok {
				delete(h.Clients, client.CreatorEmail)
				close(client.Send)
				log.Printf("WebSocket client unregistered for creator %s", client.CreatorEmail)
			}

		case alert := <-h.BroadcastAlert:
			if client, ok := h.Clients[alert.TargetCreatorEmail]; ok {
				jsonData, err := json.Marshal(alert)
				if err != nil {
					log.Println("Failed to marshal donation alert:", err)
					continue
				}

				select {
				case client.Send <- jsonData:
				default:
					close(client.Send)
					delete(h.Clients, client.CreatorEmail)
				}
			}
		}
	}
}

// Publish queues an alert without ever blocking the donation flow.
func (h *Hub) Publish(alert DonationAlert) {
	select {
	case h.BroadcastAlert <- alert:
	default:
		log.Println("Alert channel full, dropping alert for", alert.TargetCreatorEmail)
	}
}
