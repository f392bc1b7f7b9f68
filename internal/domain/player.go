package domain

import "time"

// ConnectionStatus represents a player's connection state
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "CONNECTED"
	StatusDisconnected ConnectionStatus = "DISCONNECTED"
)

// PlayerType distinguishes human seats from bot-filled ones
type PlayerType string

const (
	PlayerHuman PlayerType = "HUMAN"
	PlayerBot   PlayerType = "BOT"
)

// Player represents a seated participant. Seat order is join order and
// drives the leader rotation.
type Player struct {
	ID       string           `json:"id"`
	Nickname string           `json:"nickname"`
	Type     PlayerType       `json:"type"`
	Role     Role             `json:"role,omitempty"`
	Status   ConnectionStatus `json:"status"`
	JoinedAt time.Time        `json:"joinedAt"`
}

// NewPlayer creates a new human player with the given ID and nickname
func NewPlayer(id, nickname string) *Player {
	return &Player{
		ID:       id,
		Nickname: nickname,
		Type:     PlayerHuman,
		Role:     "",
		Status:   StatusConnected,
		JoinedAt: time.Now(),
	}
}

// NewBotPlayer creates a bot-controlled player
func NewBotPlayer(id, nickname string) *Player {
	player := NewPlayer(id, nickname)
	player.Type = PlayerBot
	return player
}

// IsBot returns true if the seat is bot-controlled
func (p *Player) IsBot() bool {
	return p.Type == PlayerBot
}

// IsConnected returns true if the player is currently connected
func (p *Player) IsConnected() bool {
	return p.Status == StatusConnected
}

// Disconnect marks the player as disconnected
func (p *Player) Disconnect() {
	p.Status = StatusDisconnected
}

// Reconnect marks the player as connected
func (p *Player) Reconnect() {
	p.Status = StatusConnected
}

// KnownPlayer is one entry of a player's secret knowledge: another
// participant plus the label the viewer is allowed to see for them.
// The label is an exact role name only for evil teammates; Merlin and
// Percival get deliberately vague labels.
type KnownPlayer struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	Label    string `json:"label"`
}

// PlayerInfo is a safe view of player data (hides role from other players)
type PlayerInfo struct {
	ID       string           `json:"id"`
	Nickname string           `json:"nickname"`
	Type     PlayerType       `json:"type"`
	Status   ConnectionStatus `json:"status"`
}

// ToInfo converts a Player to PlayerInfo (without role)
func (p *Player) ToInfo() PlayerInfo {
	return PlayerInfo{
		ID:       p.ID,
		Nickname: p.Nickname,
		Type:     p.Type,
		Status:   p.Status,
	}
}
