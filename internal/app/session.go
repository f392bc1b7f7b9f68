package app

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"avalon/internal/config"
	"avalon/internal/domain"
	"avalon/internal/monitor"
	"avalon/internal/random"
)

// ClientConnection represents a connected client
type ClientConnection interface {
	Send(message interface{}) error
	GetPlayerID() string
	Close() error
}

// GameSession wraps a game with concurrency control and client management.
// Every game mutation runs under the session mutex, so the engine itself
// stays single-threaded per game. Unexported operation methods assume the
// caller holds the lock; exported ones take it.
type GameSession struct {
	game      *domain.Game
	mu        sync.RWMutex
	clients   map[string]ClientConnection // playerID -> client
	clientsMu sync.RWMutex
	cfg       config.GameConfig
	metrics   *monitor.Metrics
	logger    *slog.Logger

	botRng *rand.Rand

	// Ballot timers, armed only when the matching timeout is configured
	voteTimer    *time.Timer
	missionTimer *time.Timer

	// Event channel for broadcasting
	events chan *domain.GameEvent
	done   chan struct{}
}

// NewGameSession creates a new game session
func NewGameSession(game *domain.Game, cfg config.GameConfig, metrics *monitor.Metrics, logger *slog.Logger) *GameSession {
	seed, err := random.NewSeed()
	if err != nil {
		seed = time.Now().UnixNano()
	}

	session := &GameSession{
		game:    game,
		clients: make(map[string]ClientConnection),
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		botRng:  rand.New(rand.NewSource(seed)),
		events:  make(chan *domain.GameEvent, 100),
		done:    make(chan struct{}),
	}

	// Start event broadcaster
	go session.eventLoop()

	return session
}

// GetGame returns the underlying game (read-only operations should use specific methods)
func (s *GameSession) GetGame() *domain.Game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.game
}

// GetRoomCode returns the room code
func (s *GameSession) GetRoomCode() string {
	return s.game.ID
}

// GetCreatedAt returns when the game was created
func (s *GameSession) GetCreatedAt() time.Time {
	return s.game.CreatedAt
}

// GetPlayerCount returns the number of seated players, bots included
func (s *GameSession) GetPlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.game.Players)
}

// GetConnectedCount returns the number of live client connections
func (s *GameSession) GetConnectedCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// GetPhase returns the current game phase
func (s *GameSession) GetPhase() domain.Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.game.Phase
}

// CanJoin checks if a new player can join the game
func (s *GameSession) CanJoin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.game.Phase == domain.PhaseLobby && len(s.game.Players) < s.game.Settings.MaxPlayers
}

// RegisterClient registers a client connection for a player
func (s *GameSession) RegisterClient(playerID string, client ClientConnection) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[playerID] = client

	if s.metrics != nil {
		s.metrics.IncConnectedPlayers()
	}
}

// UnregisterClient removes a client connection
func (s *GameSession) UnregisterClient(playerID string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if _, ok := s.clients[playerID]; !ok {
		return
	}
	delete(s.clients, playerID)

	if s.metrics != nil {
		s.metrics.DecConnectedPlayers()
	}
}

// GetClient returns the client for a player
func (s *GameSession) GetClient(playerID string) (ClientConnection, bool) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	client, ok := s.clients[playerID]
	return client, ok
}

// AddPlayer adds a player to the game
func (s *GameSession) AddPlayer(playerID, nickname string) (*domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.game.AddPlayer(playerID, nickname)
	if err != nil {
		return nil, err
	}

	// Broadcast lobby update
	s.queueEvent(domain.NewEvent(domain.EventPlayerJoined, s.game.ID, s.game.GetLobbyState()))

	return player, nil
}

// RemovePlayer removes a player from the lobby
func (s *GameSession) RemovePlayer(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.game.RemovePlayer(playerID)
	if err != nil {
		return err
	}

	// Broadcast lobby update
	s.queueEvent(domain.NewEvent(domain.EventPlayerLeft, s.game.ID, s.game.GetLobbyState()))

	return nil
}

// DisconnectPlayer marks a player as disconnected. Started games keep the
// seat so the player can reconnect and pick up where they left off; a
// lobby seat is only held for the reconnect grace period.
func (s *GameSession) DisconnectPlayer(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.game.GetPlayer(playerID)
	if err != nil {
		return
	}

	player.Disconnect()
	s.queueEvent(domain.NewEvent(domain.EventPlayerLeft, s.game.ID, s.game.GetLobbyState()))

	if s.game.Phase == domain.PhaseLobby && s.cfg.ReconnectGracePeriod > 0 {
		time.AfterFunc(s.cfg.ReconnectGracePeriod, func() { s.evictIfStillGone(playerID) })
	}
}

// evictIfStillGone frees a lobby seat whose player never came back within
// the grace period
func (s *GameSession) evictIfStillGone(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.Phase != domain.PhaseLobby {
		return
	}
	player, err := s.game.GetPlayer(playerID)
	if err != nil || player.IsConnected() {
		return
	}

	if err := s.game.RemovePlayer(playerID); err != nil {
		return
	}
	s.logger.Info("lobby seat reclaimed", "roomCode", s.game.ID, "playerID", playerID)
	s.queueEvent(domain.NewEvent(domain.EventPlayerLeft, s.game.ID, s.game.GetLobbyState()))
}

// ReconnectPlayer marks a player as reconnected
func (s *GameSession) ReconnectPlayer(playerID string) (*domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.game.GetPlayer(playerID)
	if err != nil {
		return nil, err
	}

	player.Reconnect()
	s.queueEvent(domain.NewEvent(domain.EventPlayerReconnected, s.game.ID, s.game.GetLobbyState()))

	return player, nil
}

// StartGame deals roles and opens the game (host only). Each player gets
// their role and knowledge privately; after the reveal window the first
// proposal opens.
func (s *GameSession) StartGame(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.game.Start(playerID); err != nil {
		return err
	}

	rules := s.game.Rules
	s.queueEvent(domain.NewEvent(domain.EventGameStarted, s.game.ID, &domain.GameStartedPayload{
		PlayerCount:  rules.PlayerCount,
		GoodCount:    rules.GoodCount,
		EvilCount:    rules.EvilCount,
		MissionSizes: rules.MissionSizes[:],
		RolesInPlay:  rules.Roles,
	}))

	// Send each player their role privately
	for _, player := range s.game.Players {
		payload := &domain.RoleAssignedPayload{
			Role:        player.Role,
			DisplayName: player.Role.DisplayName(),
			Alignment:   player.Role.Alignment(),
			Description: player.Role.Description(),
			Knowledge:   s.game.KnowledgeFor(player.ID),
		}
		s.queueEvent(domain.NewPlayerEvent(domain.EventRoleAssigned, s.game.ID, player.ID, payload))
	}

	s.logger.Info("game started",
		"roomCode", s.game.ID,
		"players", rules.PlayerCount,
		"good", rules.GoodCount,
		"evil", rules.EvilCount,
	)

	// Open the first proposal after the role reveal window
	go func() {
		time.Sleep(s.game.Settings.RoleRevealTime)
		s.beginProposals()
	}()

	return nil
}

// beginProposals moves from role reveal to the first team proposal
func (s *GameSession) beginProposals() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.Phase != domain.PhaseRoleAssignment {
		return
	}

	if err := s.game.BeginProposals(); err != nil {
		s.logger.Error("failed to open proposals", "roomCode", s.game.ID, "error", err)
		return
	}

	s.announceProposal()
}

// announceProposal broadcasts whose turn it is to propose a team.
// Caller must hold the lock.
func (s *GameSession) announceProposal() {
	mission := s.game.CurrentMission
	leader := s.game.Leader()

	s.queueEvent(domain.NewEvent(domain.EventProposalStarted, s.game.ID, &domain.ProposalStartedPayload{
		Round:         mission.Round,
		LeaderID:      leader.ID,
		LeaderName:    leader.Nickname,
		TeamSize:      mission.TeamSize,
		FailsRequired: mission.FailsRequired,
		VoteTrack:     s.game.RejectedProposals,
	}))

	s.scheduleBotActions()
}

// ProposeTeam records the leader's team and opens the vote
func (s *GameSession) ProposeTeam(playerID string, teamIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proposeTeam(playerID, teamIDs)
}

// proposeTeam is ProposeTeam without locking. Caller must hold the lock.
func (s *GameSession) proposeTeam(playerID string, teamIDs []string) error {
	if err := s.game.ProposeTeam(playerID, teamIDs); err != nil {
		return err
	}

	s.queueEvent(domain.NewEvent(domain.EventTeamProposed, s.game.ID, &domain.TeamProposedPayload{
		Round:    s.game.CurrentMission.Round,
		LeaderID: playerID,
		Team:     s.game.TeamInfo(),
	}))

	s.startVoteTimer()
	s.scheduleBotActions()
	return nil
}

// CastTeamVote records one approve/reject vote
func (s *GameSession) CastTeamVote(playerID string, vote domain.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.castTeamVote(playerID, vote)
}

// castTeamVote is CastTeamVote without locking. Caller must hold the lock.
func (s *GameSession) castTeamVote(playerID string, vote domain.Vote) error {
	result, err := s.game.CastTeamVote(playerID, vote)
	if err != nil {
		return err
	}

	if result == nil {
		// Broadcast vote progress (without revealing the votes)
		s.queueEvent(domain.NewEvent(domain.EventTeamVoteCast, s.game.ID, &domain.TeamVoteProgressPayload{
			VotedCount:   s.game.CurrentMission.TeamVotesIn(),
			TotalPlayers: len(s.game.Players),
		}))
		return nil
	}

	s.handleTeamVoteResolved(result)
	return nil
}

// handleTeamVoteResolved follows up on a settled proposal vote.
// Caller must hold the lock.
func (s *GameSession) handleTeamVoteResolved(result *domain.TeamVoteResult) {
	s.stopVoteTimer()
	s.queueEvent(domain.NewEvent(domain.EventTeamVoteResult, s.game.ID, result))

	switch s.game.Phase {
	case domain.PhaseMission:
		s.startMission()
	case domain.PhaseTeamProposal:
		s.announceProposal()
	case domain.PhaseFinished:
		s.finishGame()
	}
}

// startMission announces the approved team and prompts its members.
// Caller must hold the lock.
func (s *GameSession) startMission() {
	mission := s.game.CurrentMission

	s.queueEvent(domain.NewEvent(domain.EventMissionStarted, s.game.ID, &domain.MissionStartedPayload{
		Round:         mission.Round,
		Team:          s.game.TeamInfo(),
		FailsRequired: mission.FailsRequired,
	}))

	// Prompt each team member privately
	for _, id := range mission.TeamIDs {
		player, err := s.game.GetPlayer(id)
		if err != nil {
			continue
		}
		s.queueEvent(domain.NewPlayerEvent(domain.EventMissionPrompt, s.game.ID, id, &domain.MissionPromptPayload{
			Round:   mission.Round,
			CanFail: player.Role.IsEvil(),
		}))
	}

	s.startMissionTimer()
	s.scheduleBotActions()
}

// CastMissionBallot records one success/fail ballot from a team member
func (s *GameSession) CastMissionBallot(playerID string, ballot domain.Ballot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.castMissionBallot(playerID, ballot)
}

// castMissionBallot is CastMissionBallot without locking. Caller must hold the lock.
func (s *GameSession) castMissionBallot(playerID string, ballot domain.Ballot) error {
	result, err := s.game.CastMissionBallot(playerID, ballot)
	if err != nil {
		return err
	}

	if result == nil {
		// Broadcast ballot progress (without revealing the ballots)
		s.queueEvent(domain.NewEvent(domain.EventMissionBallotCast, s.game.ID, &domain.MissionProgressPayload{
			PlayedCount: s.game.CurrentMission.BallotsIn(),
			TeamSize:    s.game.CurrentMission.TeamSize,
		}))
		return nil
	}

	s.handleMissionResolved(result)
	return nil
}

// handleMissionResolved follows up on a completed mission.
// Caller must hold the lock.
func (s *GameSession) handleMissionResolved(result *domain.MissionResult) {
	s.stopMissionTimer()

	successes, fails := s.game.Score()
	s.queueEvent(domain.NewEvent(domain.EventMissionResult, s.game.ID, &domain.MissionResultPayload{
		Result:         *result,
		SucceededCount: successes,
		FailedCount:    fails,
	}))

	switch s.game.Phase {
	case domain.PhaseTeamProposal:
		s.announceProposal()
	case domain.PhaseAssassination:
		s.startAssassination()
	case domain.PhaseFinished:
		s.finishGame()
	}
}

// startAssassination announces the endgame and prompts the assassin.
// Caller must hold the lock.
func (s *GameSession) startAssassination() {
	s.queueEvent(domain.NewEvent(domain.EventAssassinationStarted, s.game.ID, nil))

	if assassin := s.game.Assassin(); assassin != nil {
		s.queueEvent(domain.NewPlayerEvent(domain.EventAssassinPrompt, s.game.ID, assassin.ID, &domain.AssassinPromptPayload{
			Candidates: s.game.GetPlayerInfoList(),
		}))
	}

	s.scheduleBotActions()
}

// Assassinate resolves the assassin's pick and ends the game
func (s *GameSession) Assassinate(playerID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assassinate(playerID, targetID)
}

// assassinate is Assassinate without locking. Caller must hold the lock.
func (s *GameSession) assassinate(playerID, targetID string) error {
	if err := s.game.Assassinate(playerID, targetID); err != nil {
		return err
	}

	s.finishGame()
	return nil
}

// finishGame broadcasts the outcome and the full role reveal.
// Caller must hold the lock.
func (s *GameSession) finishGame() {
	s.stopVoteTimer()
	s.stopMissionTimer()

	s.queueEvent(domain.NewEvent(domain.EventGameEnded, s.game.ID, &domain.GameEndedPayload{
		Winner:           s.game.Winner,
		Reason:           s.game.WinReason,
		Roles:            s.game.RoleReveals(),
		AssassinTargetID: s.game.AssassinTargetID,
		Missions:         s.game.MissionResults(),
	}))

	if s.metrics != nil {
		s.metrics.IncGamesFinished(string(s.game.Winner))
	}

	s.logger.Info("game finished",
		"roomCode", s.game.ID,
		"winner", s.game.Winner,
		"reason", s.game.WinReason,
	)
}

// startVoteTimer arms the forced resolution of a stuck team vote
func (s *GameSession) startVoteTimer() {
	if s.cfg.TeamVoteTimeout <= 0 {
		return
	}
	s.stopVoteTimer()
	s.voteTimer = time.AfterFunc(s.cfg.TeamVoteTimeout, s.forceTeamVotes)
}

func (s *GameSession) stopVoteTimer() {
	if s.voteTimer != nil {
		s.voteTimer.Stop()
		s.voteTimer = nil
	}
}

// forceTeamVotes fills in a reject for everyone who has not voted when
// the team vote timeout expires. The default can never help a proposal:
// silence counts against the team.
func (s *GameSession) forceTeamVotes() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.Phase != domain.PhaseTeamVoting {
		return
	}

	s.logger.Info("team vote timed out, injecting defaults",
		"roomCode", s.game.ID,
		"round", s.game.CurrentMission.Round,
	)

	for _, player := range s.game.Players {
		if s.game.Phase != domain.PhaseTeamVoting {
			break
		}
		if s.game.CurrentMission.HasVoted(player.ID) {
			continue
		}
		result, err := s.game.CastTeamVote(player.ID, domain.VoteReject)
		if err != nil {
			s.logger.Error("forced team vote failed", "playerID", player.ID, "error", err)
			continue
		}
		if result != nil {
			s.handleTeamVoteResolved(result)
		}
	}
}

// startMissionTimer arms the forced resolution of a stuck mission
func (s *GameSession) startMissionTimer() {
	if s.cfg.MissionTimeout <= 0 {
		return
	}
	s.stopMissionTimer()
	s.missionTimer = time.AfterFunc(s.cfg.MissionTimeout, s.forceMissionBallots)
}

func (s *GameSession) stopMissionTimer() {
	if s.missionTimer != nil {
		s.missionTimer.Stop()
		s.missionTimer = nil
	}
}

// forceMissionBallots fills in a success for every missing ballot when
// the mission timeout expires. Idle players can never sabotage a mission.
func (s *GameSession) forceMissionBallots() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.Phase != domain.PhaseMission {
		return
	}

	s.logger.Info("mission timed out, injecting defaults",
		"roomCode", s.game.ID,
		"round", s.game.CurrentMission.Round,
	)

	for _, id := range s.game.CurrentMission.TeamIDs {
		if s.game.Phase != domain.PhaseMission {
			break
		}
		if s.game.CurrentMission.HasPlayedBallot(id) {
			continue
		}
		result, err := s.game.CastMissionBallot(id, domain.BallotSuccess)
		if err != nil {
			s.logger.Error("forced mission ballot failed", "playerID", id, "error", err)
			continue
		}
		if result != nil {
			s.handleMissionResolved(result)
		}
	}
}

// GetGameState returns the personalized state for a (re)connecting player
func (s *GameSession) GetGameState(playerID string) domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.game.Snapshot(playerID)
}

// queueEvent adds an event to the broadcast queue
func (s *GameSession) queueEvent(event *domain.GameEvent) {
	select {
	case s.events <- event:
	default:
		s.logger.Warn("event queue full, dropping event", "type", event.Type)
	}
}

// eventLoop processes events and broadcasts to clients
func (s *GameSession) eventLoop() {
	for {
		select {
		case <-s.done:
			return
		case event := <-s.events:
			s.broadcastEvent(event)
		}
	}
}

// broadcastEvent sends an event to appropriate clients
func (s *GameSession) broadcastEvent(event *domain.GameEvent) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	// If player-specific, send only to that player
	if event.PlayerID != "" {
		if client, ok := s.clients[event.PlayerID]; ok {
			if err := client.Send(event); err != nil {
				s.logger.Debug("failed to send to client", "playerID", event.PlayerID, "error", err)
			}
		}
		return
	}

	// Broadcast to all clients
	for playerID, client := range s.clients {
		if err := client.Send(event); err != nil {
			s.logger.Debug("failed to send to client", "playerID", playerID, "error", err)
		}
	}
}

// Close shuts down the session
func (s *GameSession) Close() {
	select {
	case <-s.done:
		return // Already closed
	default:
		close(s.done)
	}

	s.mu.Lock()
	s.stopVoteTimer()
	s.stopMissionTimer()
	s.mu.Unlock()

	// Close all client connections
	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clients = make(map[string]ClientConnection)
	s.clientsMu.Unlock()
}
