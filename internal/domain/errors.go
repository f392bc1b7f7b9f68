package domain

import "errors"

// Domain errors
var (
	ErrGameNotFound       = errors.New("game not found")
	ErrGameFull           = errors.New("game is full")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrGameFinished       = errors.New("game already finished")
	ErrNotEnoughPlayers   = errors.New("not enough players to start")
	ErrInvalidPlayerCount = errors.New("unsupported player count")
	ErrInvalidPhase       = errors.New("invalid action for current phase")
	ErrInvalidTransition  = errors.New("invalid phase transition")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrAlreadyJoined      = errors.New("player already joined")
	ErrNotHost            = errors.New("only host can perform this action")
	ErrNotLeader          = errors.New("only the current leader can propose a team")
	ErrNotAssassin        = errors.New("only the assassin can pick a target")
	ErrNotOnTeam          = errors.New("player is not on the mission team")
	ErrInvalidTeam        = errors.New("invalid team composition")
	ErrAlreadyVoted       = errors.New("already voted on this proposal")
	ErrAlreadyPlayedCard  = errors.New("already played a ballot on this mission")
	ErrGoodCannotFail     = errors.New("good players cannot play fail")
	ErrInvalidVote        = errors.New("invalid vote value")
	ErrInvalidBallot      = errors.New("invalid ballot value")
)
