package domain

import "time"

// EventType represents the type of game event
type EventType string

const (
	EventPlayerJoined         EventType = "PLAYER_JOINED"
	EventPlayerLeft           EventType = "PLAYER_LEFT"
	EventPlayerReconnected    EventType = "PLAYER_RECONNECTED"
	EventGameStarted          EventType = "GAME_STARTED"
	EventRoleAssigned         EventType = "ROLE_ASSIGNED"
	EventProposalStarted      EventType = "PROPOSAL_STARTED"
	EventTeamProposed         EventType = "TEAM_PROPOSED"
	EventTeamVoteCast         EventType = "TEAM_VOTE_CAST"
	EventTeamVoteResult       EventType = "TEAM_VOTE_RESULT"
	EventMissionStarted       EventType = "MISSION_STARTED"
	EventMissionPrompt        EventType = "MISSION_PROMPT"
	EventMissionBallotCast    EventType = "MISSION_BALLOT_CAST"
	EventMissionResult        EventType = "MISSION_RESULT"
	EventAssassinationStarted EventType = "ASSASSINATION_STARTED"
	EventAssassinPrompt       EventType = "ASSASSIN_PROMPT"
	EventGameEnded            EventType = "GAME_ENDED"
)

// GameEvent represents an event that occurred in the game
type GameEvent struct {
	Type      EventType   `json:"type"`
	GameID    string      `json:"gameId"`
	PlayerID  string      `json:"playerId,omitempty"` // If event is player-specific
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new game event
func NewEvent(eventType EventType, gameID string, payload interface{}) *GameEvent {
	return &GameEvent{
		Type:      eventType,
		GameID:    gameID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// NewPlayerEvent creates a new player-specific game event
func NewPlayerEvent(eventType EventType, gameID, playerID string, payload interface{}) *GameEvent {
	return &GameEvent{
		Type:      eventType,
		GameID:    gameID,
		PlayerID:  playerID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// Payload types for different events

// LobbyUpdatePayload is sent when lobby state changes
type LobbyUpdatePayload struct {
	Players       []PlayerInfo `json:"players"`
	HostID        string       `json:"hostId"`
	CanStart      bool         `json:"canStart"`
	PlayersNeeded int          `json:"playersNeeded"`
}

// GameStartedPayload announces the public setup. The table split and the
// roles in the deck are open information, only the holders are hidden.
type GameStartedPayload struct {
	PlayerCount  int    `json:"playerCount"`
	GoodCount    int    `json:"goodCount"`
	EvilCount    int    `json:"evilCount"`
	MissionSizes []int  `json:"missionSizes"`
	RolesInPlay  []Role `json:"rolesInPlay"`
}

// RoleAssignedPayload is sent privately to each player with their role
// and everything the role lets them see about the table
type RoleAssignedPayload struct {
	Role        Role          `json:"role"`
	DisplayName string        `json:"displayName"`
	Alignment   Alignment     `json:"alignment"`
	Description string        `json:"description"`
	Knowledge   []KnownPlayer `json:"knowledge"`
}

// ProposalStartedPayload is sent when a leader must pick a team
type ProposalStartedPayload struct {
	Round         int    `json:"round"`
	LeaderID      string `json:"leaderId"`
	LeaderName    string `json:"leaderName"`
	TeamSize      int    `json:"teamSize"`
	FailsRequired int    `json:"failsRequired"`
	VoteTrack     int    `json:"voteTrack"`
}

// TeamProposedPayload is sent when the leader has picked a team
type TeamProposedPayload struct {
	Round    int          `json:"round"`
	LeaderID string       `json:"leaderId"`
	Team     []PlayerInfo `json:"team"`
}

// TeamVoteProgressPayload is sent when a vote is cast (without revealing it)
type TeamVoteProgressPayload struct {
	VotedCount   int `json:"votedCount"`
	TotalPlayers int `json:"totalPlayers"`
}

// MissionStartedPayload is sent when a team was approved and goes on mission
type MissionStartedPayload struct {
	Round         int          `json:"round"`
	Team          []PlayerInfo `json:"team"`
	FailsRequired int          `json:"failsRequired"`
}

// MissionPromptPayload is sent privately to each team member
type MissionPromptPayload struct {
	Round   int  `json:"round"`
	CanFail bool `json:"canFail"` // only evil may play fail
}

// MissionProgressPayload is sent when a ballot is played (without revealing it)
type MissionProgressPayload struct {
	PlayedCount int `json:"playedCount"`
	TeamSize    int `json:"teamSize"`
}

// MissionResultPayload is sent when all ballots are in
type MissionResultPayload struct {
	Result         MissionResult `json:"result"`
	SucceededCount int           `json:"succeededCount"`
	FailedCount    int           `json:"failedCount"`
}

// AssassinPromptPayload is sent privately to the assassin
type AssassinPromptPayload struct {
	Candidates []PlayerInfo `json:"candidates"`
}

// RoleReveal is one row of the end-of-game role table
type RoleReveal struct {
	PlayerID  string    `json:"playerId"`
	Nickname  string    `json:"nickname"`
	Role      Role      `json:"role"`
	Alignment Alignment `json:"alignment"`
}

// GameEndedPayload is sent when a winner is decided
type GameEndedPayload struct {
	Winner           Alignment       `json:"winner"`
	Reason           WinReason       `json:"reason"`
	Roles            []RoleReveal    `json:"roles"`
	AssassinTargetID string          `json:"assassinTargetId,omitempty"`
	Missions         []MissionResult `json:"missions"`
}

// ErrorPayload is sent when an error occurs
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
