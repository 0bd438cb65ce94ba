// Package live pushes standings updates to websocket clients.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-tracker/models"
)

const MessageStandingsUpdated = "STANDINGS_UPDATED"

var errHubStopped = errors.New("live hub is not running")

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// EncodeStandings builds the wire form of a standings update.
func EncodeStandings(teams []models.Team) ([]byte, error) {
	if teams == nil {
		teams = []models.Team{}
	}
	data, err := json.Marshal(Message{Type: MessageStandingsUpdated, Payload: teams})
	if err != nil {
		return nil, fmt.Errorf("failed to encode standings message: %w", err)
	}
	return data, nil
}

// Hub fans messages out to every registered client. All client bookkeeping
// happens on the goroutine running Run.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	clients    map[*Client]struct{}
	// last is replayed to clients that connect after an update.
	last   []byte
	done   chan struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		clients:    make(map[*Client]struct{}),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves the hub until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			if h.last != nil {
				h.deliver(client, h.last)
			}
			h.logger.Debug("websocket client registered", "clients", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Debug("websocket client unregistered", "clients", len(h.clients))
			}

		case message := <-h.broadcast:
			h.last = message
			for client := range h.clients {
				h.deliver(client, message)
			}
		}
	}
}

// deliver never blocks the hub: a client that cannot keep up is dropped.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		h.logger.Warn("websocket client too slow, disconnecting")
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
}

// Broadcast queues an already encoded message for every client.
func (h *Hub) Broadcast(ctx context.Context, message []byte) error {
	select {
	case <-h.done:
		return errHubStopped
	default:
	}
	select {
	case h.broadcast <- message:
		return nil
	case <-h.done:
		return errHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishStandings makes the hub usable as the standings notifier of a
// single instance deployment.
func (h *Hub) PublishStandings(ctx context.Context, teams []models.Team) error {
	data, err := EncodeStandings(teams)
	if err != nil {
		return err
	}
	return h.Broadcast(ctx, data)
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) Register(ctx context.Context, client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.done:
		return errHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
