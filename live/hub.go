// Package live streams game updates to websocket subscribers. Each
// game is a room keyed by its public id; subscribers receive every
// round and the final result as it is recorded.
package live

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

const (
	MessageRoundRecorded = "ROUND_RECORDED"
	MessageGameFinished  = "GAME_FINISHED"
)

// Message — конверт, уходящий подписчикам партии.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	GameID  string      `json:"game_id,omitempty"`
}

type Hub struct {
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	mu         sync.RWMutex
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.logger.Debug("live client registered", "game", client.room, "clients", len(h.rooms[client.room]))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.room]; ok {
				if _, okClient := room[client]; okClient {
					client.closeSend()
					delete(room, client)
					if len(room) == 0 {
						delete(h.rooms, client.room)
					}
					h.logger.Debug("live client unregistered", "game", client.room)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToGame fans a message out to everyone watching the game.
// Slow subscribers are skipped rather than blocking the sender.
func (h *Hub) BroadcastToGame(gamePublicID, messageType string, payload interface{}) error {
	messageBytes, err := json.Marshal(Message{
		Type:    messageType,
		Payload: payload,
		GameID:  gamePublicID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal live message: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[gamePublicID] {
		if !client.trySend(messageBytes) {
			h.logger.Debug("live client send buffer full, skipping", "game", gamePublicID)
		}
	}
	return nil
}
