package app

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"avalon/internal/config"
	"avalon/internal/domain"
	"avalon/internal/monitor"
)

const (
	// DefaultRoomCodeLength is the default length for room codes
	DefaultRoomCodeLength = 6

	// staleAfter is how long an abandoned room survives before the sweeper
	// reclaims it
	staleAfter = 2 * time.Hour

	// sweepInterval is how often the sweeper checks for abandoned rooms
	sweepInterval = 10 * time.Minute
)

// roomCodeChars are the characters room codes are built from. 0/O and 1/I
// are left out so codes read unambiguously off a shared screen.
const roomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GameHub owns every live room. Rooms enter through CreateRoom and leave
// through RemoveRoom or the staleness sweeper; nothing outside the hub
// holds the map.
type GameHub struct {
	mu      sync.RWMutex
	rooms   map[string]*GameSession
	codeLen int
	cfg     config.GameConfig
	metrics *monitor.Metrics
	logger  *slog.Logger
	done    chan struct{}
}

// NewGameHub creates the hub and starts its staleness sweeper
func NewGameHub(cfg config.GameConfig, metrics *monitor.Metrics, logger *slog.Logger) *GameHub {
	codeLen := cfg.RoomCodeLength
	if codeLen <= 0 {
		codeLen = DefaultRoomCodeLength
	}

	hub := &GameHub{
		rooms:   make(map[string]*GameSession),
		codeLen: codeLen,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		done:    make(chan struct{}),
	}

	go hub.sweepLoop()

	return hub
}

// CreateRoom opens a fresh room under a newly minted code
func (h *GameHub) CreateRoom() (*GameSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	code, err := h.mintRoomCode()
	if err != nil {
		return nil, err
	}

	game := domain.NewGame(code)
	if h.cfg.RoleRevealSeconds > 0 {
		game.Settings.RoleRevealTime = time.Duration(h.cfg.RoleRevealSeconds) * time.Second
	}

	session := NewGameSession(game, h.cfg, h.metrics, h.logger)
	h.rooms[code] = session

	if h.metrics != nil {
		h.metrics.SetActiveGames(len(h.rooms))
	}

	h.logger.Info("room created", "roomCode", code)

	return session, nil
}

// Room looks up a live room by its code
func (h *GameHub) Room(code string) (*GameSession, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	session, ok := h.rooms[code]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return session, nil
}

// RemoveRoom closes a room and drops it from the hub
func (h *GameHub) RemoveRoom(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropRoom(code, "removed")
}

// dropRoom closes and deletes one room. Caller must hold the write lock.
func (h *GameHub) dropRoom(code, why string) {
	session, ok := h.rooms[code]
	if !ok {
		return
	}

	session.Close()
	delete(h.rooms, code)

	if h.metrics != nil {
		h.metrics.SetActiveGames(len(h.rooms))
	}
	h.logger.Info("room closed", "roomCode", code, "reason", why)
}

// RoomCount returns the number of live rooms
func (h *GameHub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// PlayerCount returns the number of seated players across all rooms
func (h *GameHub) PlayerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, session := range h.rooms {
		total += session.GetPlayerCount()
	}
	return total
}

// Close shuts down the sweeper and every room
func (h *GameHub) Close() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, session := range h.rooms {
		session.Close()
	}
	h.rooms = make(map[string]*GameSession)
}

// mintRoomCode draws random codes until one is free. Caller must hold the
// write lock. Collisions are vanishingly rare at six characters, but a
// bounded retry keeps a pathological map from spinning forever.
func (h *GameHub) mintRoomCode() (string, error) {
	buf := make([]byte, h.codeLen)
	for attempt := 0; attempt < 10; attempt++ {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("mint room code: %w", err)
		}
		for i, b := range buf {
			buf[i] = roomCodeChars[int(b)%len(roomCodeChars)]
		}
		code := string(buf)
		if _, taken := h.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("mint room code: no free code after 10 attempts")
}

// sweepLoop periodically reclaims abandoned rooms
func (h *GameHub) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.sweepStaleRooms()
		}
	}
}

// sweepStaleRooms drops rooms nobody is connected to anymore. Seats
// persist for reconnection after a game starts, so staleness goes by live
// connections rather than the roster.
func (h *GameHub) sweepStaleRooms() {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := time.Now().Add(-staleAfter)
	for code, session := range h.rooms {
		if session.GetConnectedCount() == 0 && session.GetCreatedAt().Before(cutoff) {
			h.dropRoom(code, "stale")
		}
	}
}
