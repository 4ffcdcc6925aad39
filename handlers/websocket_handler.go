package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/pedrohrm/domino-league/live"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// В продакшене здесь должна быть проверка Origin.
		return true
	},
}

type WebSocketHandler struct {
	hub    *live.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *live.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		logger: logger,
	}
}

// ServeGame подписывает клиента на live-ленту одной партии.
// Подключение идёт на /ws/games/{publicID}.
func (h *WebSocketHandler) ServeGame(w http.ResponseWriter, r *http.Request) {
	publicID := chi.URLParam(r, "publicID")
	if publicID == "" {
		http.Error(w, "missing game public id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader.Upgrade сам отвечает клиенту ошибкой.
		h.logger.Warn("websocket upgrade failed", "game", publicID, "error", err)
		return
	}

	client := live.NewClient(h.hub, conn, publicID)
	go client.WritePump()
	go client.ReadPump()
}
