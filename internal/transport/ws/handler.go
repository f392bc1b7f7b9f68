package ws

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"avalon/internal/app"
	"avalon/internal/monitor"
)

// Handler upgrades HTTP requests to WebSocket connections and binds each
// one to a room. New players get a freshly minted ID; reconnecting players
// present the one they were given.
type Handler struct {
	hub      *app.GameHub
	upgrader websocket.Upgrader
	metrics  *monitor.Metrics
	logger   *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *app.GameHub, metrics *monitor.Metrics, logger *slog.Logger) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// TODO: restrict origins once the frontend host is pinned down
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		metrics: metrics,
		logger:  logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomCode := strings.ToUpper(r.URL.Query().Get("roomCode"))
	if roomCode == "" {
		http.Error(w, "roomCode is required", http.StatusBadRequest)
		return
	}

	session, err := h.hub.Room(roomCode)
	if err != nil {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}

	playerID := r.URL.Query().Get("playerId")
	reconnecting := playerID != ""
	if !reconnecting {
		if !session.CanJoin() {
			http.Error(w, "Cannot join this game", http.StatusForbidden)
			return
		}
		playerID = uuid.New().String()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(conn, session, playerID, h.metrics, h.logger)
	session.RegisterClient(playerID, client)

	h.logger.Info("websocket connected",
		"roomCode", roomCode,
		"playerID", playerID,
		"reconnecting", reconnecting,
	)

	if reconnecting {
		if _, err := session.ReconnectPlayer(playerID); err != nil {
			// Unknown ID: keep the socket open, the client can still join_lobby
			h.logger.Debug("reconnect failed, treating as new", "playerID", playerID, "error", err)
		} else {
			client.sendConnected()
		}
	}

	client.Run()
}
