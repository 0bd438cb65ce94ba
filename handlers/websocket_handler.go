package handlers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/tournament-tracker/live"
)

type WebSocketHandler struct {
	hub      *live.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler accepts connections from allowedOrigins; "*" allows any.
func NewWebSocketHandler(hub *live.Hub, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
		logger: logger,
	}
}

// ServeStandings godoc
// @Summary Живая таблица через WebSocket
// @Tags live
// @Description Сервер присылает {"type":"STANDINGS_UPDATED","payload":[...]} после каждого пересчёта.
// @Router /ws/standings [get]
func (h *WebSocketHandler) ServeStandings(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже отправил клиенту HTTP-ошибку.
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := live.NewClient(h.hub, conn, h.logger)
	if err := h.hub.Register(r.Context(), client); err != nil {
		h.logger.Warn("websocket client rejected", "error", err)
		conn.Close()
		return
	}
	client.Serve()
}
