package ws

import (
	"encoding/json"
	"errors"
	"time"

	"avalon/internal/app"
	"avalon/internal/domain"
)

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgJoinLobby         MessageType = "join_lobby"
	MsgAddBots           MessageType = "add_bots"
	MsgStartGame         MessageType = "start_game"
	MsgProposeTeam       MessageType = "propose_team"
	MsgCastTeamVote      MessageType = "cast_team_vote"
	MsgCastMissionBallot MessageType = "cast_mission_ballot"
	MsgAssassinate       MessageType = "assassinate"
	MsgPing              MessageType = "ping"
)

// Server → Client message types. Game events are not wrapped: they go out
// as domain.GameEvent objects with their own uppercase type field.
const (
	MsgConnected MessageType = "connected"
	MsgError     MessageType = "error"
	MsgPong      MessageType = "pong"
)

// ClientMessage is the envelope for everything a client sends. The payload
// stays raw until the type is known, then decodes into the matching struct.
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Client message payloads

// JoinLobbyPayload is the payload for join_lobby message
type JoinLobbyPayload struct {
	Nickname string `json:"nickname"`
}

// AddBotsPayload is the payload for add_bots message
type AddBotsPayload struct {
	Count int `json:"count"`
}

// ProposeTeamPayload is the payload for propose_team message
type ProposeTeamPayload struct {
	TeamPlayerIDs []string `json:"teamPlayerIds"`
}

// CastTeamVotePayload is the payload for cast_team_vote message
type CastTeamVotePayload struct {
	Vote string `json:"vote"` // "APPROVE" or "REJECT"
}

// CastMissionBallotPayload is the payload for cast_mission_ballot message
type CastMissionBallotPayload struct {
	Ballot string `json:"ballot"` // "SUCCESS" or "FAIL"
}

// AssassinatePayload is the payload for assassinate message
type AssassinatePayload struct {
	TargetPlayerID string `json:"targetPlayerId"`
}

// Server message payloads

// ConnectedPayload is the payload for connected message
type ConnectedPayload struct {
	PlayerID  string          `json:"playerId"`
	GameID    string          `json:"gameId"`
	GameState domain.Snapshot `json:"gameState"`
}

// ErrorPayload is the payload for error message
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeInvalidMessage   = "INVALID_MESSAGE"
	ErrCodeGameNotFound     = "GAME_NOT_FOUND"
	ErrCodeGameFull         = "GAME_FULL"
	ErrCodeGameStarted      = "GAME_STARTED"
	ErrCodeGameFinished     = "GAME_FINISHED"
	ErrCodeNotEnoughPlayers = "NOT_ENOUGH_PLAYERS"
	ErrCodeInvalidAction    = "INVALID_ACTION"
	ErrCodeNotHost          = "NOT_HOST"
	ErrCodeNotLeader        = "NOT_LEADER"
	ErrCodeNotAssassin      = "NOT_ASSASSIN"
	ErrCodeNotOnTeam        = "NOT_ON_TEAM"
	ErrCodeInvalidTeam      = "INVALID_TEAM"
	ErrCodeAlreadyVoted     = "ALREADY_VOTED"
	ErrCodeForbiddenBallot  = "FORBIDDEN_BALLOT"
	ErrCodeUnknownPlayer    = "UNKNOWN_PLAYER"
	ErrCodeBotsDisabled     = "BOTS_DISABLED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// wireError maps a domain failure to the code and message sent over the
// socket. Every sentinel the engine can return has an entry; anything
// unrecognized surfaces as an internal error with its own text.
func wireError(err error) (string, string) {
	switch {
	case errors.Is(err, domain.ErrGameNotFound):
		return ErrCodeGameNotFound, "Game not found"
	case errors.Is(err, domain.ErrGameFull):
		return ErrCodeGameFull, "Game is full"
	case errors.Is(err, domain.ErrGameAlreadyStarted):
		return ErrCodeGameStarted, "Game has already started"
	case errors.Is(err, domain.ErrGameFinished):
		return ErrCodeGameFinished, "Game is over"
	case errors.Is(err, domain.ErrNotEnoughPlayers):
		return ErrCodeNotEnoughPlayers, "Not enough players to start"
	case errors.Is(err, domain.ErrInvalidPlayerCount):
		return ErrCodeNotEnoughPlayers, "Unsupported player count"
	case errors.Is(err, domain.ErrNotHost):
		return ErrCodeNotHost, "Only the host can do that"
	case errors.Is(err, domain.ErrNotLeader):
		return ErrCodeNotLeader, "Only the leader can propose a team"
	case errors.Is(err, domain.ErrNotAssassin):
		return ErrCodeNotAssassin, "Only the assassin can pick a target"
	case errors.Is(err, domain.ErrNotOnTeam):
		return ErrCodeNotOnTeam, "You are not on this mission"
	case errors.Is(err, domain.ErrInvalidTeam):
		return ErrCodeInvalidTeam, "That team is not valid for this mission"
	case errors.Is(err, domain.ErrAlreadyVoted):
		return ErrCodeAlreadyVoted, "You have already voted"
	case errors.Is(err, domain.ErrAlreadyPlayedCard):
		return ErrCodeAlreadyVoted, "You have already played your card"
	case errors.Is(err, domain.ErrGoodCannotFail):
		return ErrCodeForbiddenBallot, "Good players cannot fail a mission"
	case errors.Is(err, domain.ErrPlayerNotFound):
		return ErrCodeUnknownPlayer, "Unknown player"
	case errors.Is(err, domain.ErrAlreadyJoined):
		return ErrCodeInvalidAction, "You already joined this game"
	case errors.Is(err, domain.ErrInvalidPhase), errors.Is(err, domain.ErrInvalidTransition):
		return ErrCodeInvalidAction, "That action is not available right now"
	case errors.Is(err, domain.ErrInvalidVote), errors.Is(err, domain.ErrInvalidBallot):
		return ErrCodeInvalidMessage, "Unrecognized vote value"
	case errors.Is(err, app.ErrBotsDisabled):
		return ErrCodeBotsDisabled, "Bots are disabled on this server"
	default:
		return ErrCodeInternalError, err.Error()
	}
}
