package domain

import (
	"math/rand"
	"time"

	"avalon/internal/random"
)

// WinReason explains how the game ended
type WinReason string

const (
	ReasonVoteTrack            WinReason = "VOTE_TRACK"            // five straight rejected proposals
	ReasonMissionsFailed       WinReason = "MISSIONS_FAILED"       // three missions failed
	ReasonAssassinationSuccess WinReason = "ASSASSINATION_SUCCESS" // assassin found Merlin
	ReasonAssassinationFailed  WinReason = "ASSASSINATION_FAILED"  // assassin missed, good wins
)

// GameSettings holds configurable game parameters
type GameSettings struct {
	MinPlayers     int           `json:"minPlayers"`
	MaxPlayers     int           `json:"maxPlayers"`
	RoleRevealTime time.Duration `json:"roleRevealTime"`
}

// DefaultGameSettings returns the default game settings
func DefaultGameSettings() GameSettings {
	return GameSettings{
		MinPlayers:     MinPlayers,
		MaxPlayers:     MaxPlayers,
		RoleRevealTime: 8 * time.Second,
	}
}

// Game is the state machine for one Avalon table. It is a pure state
// container: callers serialize access and deliver events, the game only
// validates and applies. Every mutating operation checks all of its
// preconditions before touching state.
type Game struct {
	ID                string       `json:"id"`
	HostID            string       `json:"hostId"`
	Players           []*Player    `json:"players"` // seat order == join order
	Phase             Phase        `json:"phase"`
	Rules             Rules        `json:"rules"`
	LeaderIdx         int          `json:"leaderIdx"`
	RejectedProposals int          `json:"rejectedProposals"` // consecutive, resets on approval
	CurrentMission    *Mission     `json:"currentMission,omitempty"`
	MissionHistory    []*Mission   `json:"missionHistory"`
	Winner            Alignment    `json:"winner,omitempty"`
	WinReason         WinReason    `json:"winReason,omitempty"`
	AssassinTargetID  string       `json:"assassinTargetId,omitempty"`
	Settings          GameSettings `json:"settings"`
	CreatedAt         time.Time    `json:"createdAt"`
	StartedAt         time.Time    `json:"startedAt,omitempty"`
	FinishedAt        time.Time    `json:"finishedAt,omitempty"`

	knowledge map[string][]KnownPlayer
	rng       *rand.Rand
}

// NewGame creates a new game with a crypto-seeded shuffle source
func NewGame(id string) *Game {
	seed, err := random.NewSeed()
	if err != nil {
		seed = time.Now().UnixNano()
	}
	return NewGameWithRand(id, rand.New(rand.NewSource(seed)))
}

// NewGameWithRand creates a game that uses the given source for every
// shuffle. Tests pass a fixed seed to make deals deterministic.
func NewGameWithRand(id string, rng *rand.Rand) *Game {
	return &Game{
		ID:             id,
		HostID:         "",
		Players:        make([]*Player, 0, MaxPlayers),
		Phase:          PhaseLobby,
		MissionHistory: make([]*Mission, 0, MissionCount),
		Settings:       DefaultGameSettings(),
		CreatedAt:      time.Now(),
		rng:            rng,
	}
}

// AddPlayer seats a human player. The first player to join becomes the host.
func (g *Game) AddPlayer(playerID, nickname string) (*Player, error) {
	return g.seat(NewPlayer(playerID, nickname))
}

// AddBot seats a bot-controlled player
func (g *Game) AddBot(playerID, nickname string) (*Player, error) {
	return g.seat(NewBotPlayer(playerID, nickname))
}

func (g *Game) seat(player *Player) (*Player, error) {
	if g.Phase != PhaseLobby {
		return nil, ErrGameAlreadyStarted
	}
	if len(g.Players) >= g.Settings.MaxPlayers {
		return nil, ErrGameFull
	}
	if g.findPlayer(player.ID) != nil {
		return nil, ErrAlreadyJoined
	}

	g.Players = append(g.Players, player)

	// First player becomes the host
	if g.HostID == "" {
		g.HostID = player.ID
	}

	return player, nil
}

// RemovePlayer unseats a player. Seats only change while the lobby is
// open; after the game starts, leaving is a connection status change,
// never a removal.
func (g *Game) RemovePlayer(playerID string) error {
	if g.Phase != PhaseLobby {
		return ErrGameAlreadyStarted
	}

	idx := -1
	for i, p := range g.Players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrPlayerNotFound
	}

	g.Players = append(g.Players[:idx], g.Players[idx+1:]...)

	// If host left, the oldest remaining seat takes over
	if g.HostID == playerID {
		g.HostID = ""
		if len(g.Players) > 0 {
			g.HostID = g.Players[0].ID
		}
	}

	return nil
}

func (g *Game) findPlayer(playerID string) *Player {
	for _, p := range g.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// GetPlayer returns a player by ID
func (g *Game) GetPlayer(playerID string) (*Player, error) {
	player := g.findPlayer(playerID)
	if player == nil {
		return nil, ErrPlayerNotFound
	}
	return player, nil
}

// Leader returns the participant whose turn it is to propose
func (g *Game) Leader() *Player {
	return g.Players[g.LeaderIdx]
}

// IsHost checks if the given player is the host
func (g *Game) IsHost(playerID string) bool {
	return g.HostID == playerID
}

// CanStart checks if the game can be started
func (g *Game) CanStart() bool {
	return g.Phase == PhaseLobby && len(g.Players) >= g.Settings.MinPlayers
}

// Start locks the roster, deals roles and knowledge, and seats the first
// leader. Only the host may start. The game moves to role reveal; the
// caller advances to the first proposal with BeginProposals.
func (g *Game) Start(requesterID string) error {
	if g.Phase != PhaseLobby {
		return ErrGameAlreadyStarted
	}
	if !g.IsHost(requesterID) {
		return ErrNotHost
	}
	if len(g.Players) < g.Settings.MinPlayers {
		return ErrNotEnoughPlayers
	}

	rules, err := RulesFor(len(g.Players))
	if err != nil {
		return err
	}

	g.Rules = rules
	g.knowledge = AssignRoles(g.Players, rules, g.rng)
	g.LeaderIdx = 0
	g.CurrentMission = NewMission(1, rules.TeamSize(1), rules.FailsRequired(1), g.Leader().ID)
	g.Phase = PhaseRoleAssignment
	g.StartedAt = time.Now()

	return nil
}

// BeginProposals moves from role reveal to the first team proposal
func (g *Game) BeginProposals() error {
	if g.Phase != PhaseRoleAssignment {
		return ErrInvalidTransition
	}
	g.Phase = PhaseTeamProposal
	return nil
}

// ProposeTeam records the leader's team and opens the vote. The team must
// have exactly the mission's size, with no duplicates, and every member
// must be a seated participant. Nothing is mutated on a failed check.
func (g *Game) ProposeTeam(leaderID string, teamIDs []string) error {
	if g.Phase.IsTerminal() {
		return ErrGameFinished
	}
	if g.Phase != PhaseTeamProposal {
		return ErrInvalidPhase
	}
	if g.Leader().ID != leaderID {
		if g.findPlayer(leaderID) == nil {
			return ErrPlayerNotFound
		}
		return ErrNotLeader
	}
	if len(teamIDs) != g.CurrentMission.TeamSize {
		return ErrInvalidTeam
	}

	seen := make(map[string]bool, len(teamIDs))
	for _, id := range teamIDs {
		if seen[id] {
			return ErrInvalidTeam
		}
		seen[id] = true
		if g.findPlayer(id) == nil {
			return ErrPlayerNotFound
		}
	}

	g.CurrentMission.Propose(leaderID, teamIDs)
	g.Phase = PhaseTeamVoting
	return nil
}

// CastTeamVote records one approve/reject vote. Every participant votes,
// team members included. When the last vote lands the proposal resolves:
// the result is returned and the game has already moved on, either to the
// mission, to the next leader's proposal, or to an evil win when the vote
// track runs out. Until then the result is nil.
func (g *Game) CastTeamVote(playerID string, vote Vote) (*TeamVoteResult, error) {
	if g.Phase.IsTerminal() {
		return nil, ErrGameFinished
	}
	if g.Phase != PhaseTeamVoting {
		return nil, ErrInvalidPhase
	}
	if !vote.Valid() {
		return nil, ErrInvalidVote
	}
	if g.findPlayer(playerID) == nil {
		return nil, ErrPlayerNotFound
	}

	if err := g.CurrentMission.AddTeamVote(playerID, vote); err != nil {
		return nil, err
	}

	if !g.CurrentMission.AllTeamVotesIn(len(g.Players)) {
		return nil, nil
	}
	return g.resolveTeamVote(), nil
}

func (g *Game) resolveTeamVote() *TeamVoteResult {
	approvals, rejections := g.CurrentMission.TallyTeamVotes()
	result := &TeamVoteResult{
		Round:      g.CurrentMission.Round,
		Approvals:  approvals,
		Rejections: rejections,
	}

	// Strict majority: ties reject
	if approvals > rejections {
		result.Approved = true
		g.RejectedProposals = 0
		result.VoteTrack = 0
		g.CurrentMission.Approved = true
		g.Phase = PhaseMission
		return result
	}

	g.RejectedProposals++
	result.VoteTrack = g.RejectedProposals

	if g.RejectedProposals >= VoteTrackLimit {
		g.finish(AlignmentEvil, ReasonVoteTrack)
		return result
	}

	g.advanceLeader()
	g.CurrentMission.ClearProposal(g.Leader().ID)
	g.Phase = PhaseTeamProposal
	return result
}

// CastMissionBallot records one success/fail ballot from a team member.
// Good players can only play success. When the last ballot lands the
// mission resolves: the result is returned and the game has already moved
// on, to the next round, to assassination after the third success, or to
// an evil win after the third fail. Until then the result is nil.
func (g *Game) CastMissionBallot(playerID string, ballot Ballot) (*MissionResult, error) {
	if g.Phase.IsTerminal() {
		return nil, ErrGameFinished
	}
	if g.Phase != PhaseMission {
		return nil, ErrInvalidPhase
	}
	if !ballot.Valid() {
		return nil, ErrInvalidBallot
	}

	player, err := g.GetPlayer(playerID)
	if err != nil {
		return nil, err
	}
	if !g.CurrentMission.OnTeam(playerID) {
		return nil, ErrNotOnTeam
	}
	if ballot == BallotFail && player.Role.IsGood() {
		return nil, ErrGoodCannotFail
	}

	if err := g.CurrentMission.AddBallot(playerID, ballot); err != nil {
		return nil, err
	}

	if !g.CurrentMission.AllBallotsIn() {
		return nil, nil
	}
	return g.resolveMission(), nil
}

func (g *Game) resolveMission() *MissionResult {
	mission := g.CurrentMission
	mission.Resolve()
	g.MissionHistory = append(g.MissionHistory, mission)
	result := mission.Result()

	successes, fails := g.Score()
	switch {
	case fails >= MissionsToWin:
		g.finish(AlignmentEvil, ReasonMissionsFailed)
	case successes >= MissionsToWin:
		g.Phase = PhaseAssassination
	default:
		g.advanceLeader()
		round := mission.Round + 1
		g.CurrentMission = NewMission(round, g.Rules.TeamSize(round), g.Rules.FailsRequired(round), g.Leader().ID)
		g.Phase = PhaseTeamProposal
	}

	return &result
}

// Assassinate resolves the endgame: evil wins if and only if the target
// is Merlin. Only the assassin may pick, and only once.
func (g *Game) Assassinate(assassinID, targetID string) error {
	if g.Phase.IsTerminal() {
		return ErrGameFinished
	}
	if g.Phase != PhaseAssassination {
		return ErrInvalidPhase
	}

	assassin, err := g.GetPlayer(assassinID)
	if err != nil {
		return err
	}
	if assassin.Role != RoleAssassin {
		return ErrNotAssassin
	}

	target, err := g.GetPlayer(targetID)
	if err != nil {
		return err
	}

	g.AssassinTargetID = targetID
	if target.Role == RoleMerlin {
		g.finish(AlignmentEvil, ReasonAssassinationSuccess)
	} else {
		g.finish(AlignmentGood, ReasonAssassinationFailed)
	}
	return nil
}

func (g *Game) finish(winner Alignment, reason WinReason) {
	g.Winner = winner
	g.WinReason = reason
	g.Phase = PhaseFinished
	g.FinishedAt = time.Now()
}

func (g *Game) advanceLeader() {
	g.LeaderIdx = (g.LeaderIdx + 1) % len(g.Players)
}

// Score returns the number of succeeded and failed missions so far
func (g *Game) Score() (successes, fails int) {
	for _, m := range g.MissionHistory {
		if m.Succeeded {
			successes++
		} else {
			fails++
		}
	}
	return successes, fails
}

// KnowledgeFor returns what a player learned at deal time. The slice is
// empty for roles that see nothing, and nil before roles are dealt.
func (g *Game) KnowledgeFor(playerID string) []KnownPlayer {
	return g.knowledge[playerID]
}

// RoleReveals returns the full role table, for the end of the game
func (g *Game) RoleReveals() []RoleReveal {
	reveals := make([]RoleReveal, 0, len(g.Players))
	for _, p := range g.Players {
		reveals = append(reveals, RoleReveal{
			PlayerID:  p.ID,
			Nickname:  p.Nickname,
			Role:      p.Role,
			Alignment: p.Role.Alignment(),
		})
	}
	return reveals
}

// Assassin returns the player holding the assassin role, nil before the deal
func (g *Game) Assassin() *Player {
	for _, p := range g.Players {
		if p.Role == RoleAssassin {
			return p
		}
	}
	return nil
}

// GetLobbyState returns the current lobby state for broadcasting
func (g *Game) GetLobbyState() *LobbyUpdatePayload {
	needed := g.Settings.MinPlayers - len(g.Players)
	if needed < 0 {
		needed = 0
	}
	return &LobbyUpdatePayload{
		Players:       g.GetPlayerInfoList(),
		HostID:        g.HostID,
		CanStart:      g.CanStart(),
		PlayersNeeded: needed,
	}
}

// GetPlayerInfoList returns all players as PlayerInfo, in seat order
func (g *Game) GetPlayerInfoList() []PlayerInfo {
	players := make([]PlayerInfo, 0, len(g.Players))
	for _, p := range g.Players {
		players = append(players, p.ToInfo())
	}
	return players
}

// TeamInfo returns the proposed team as PlayerInfo, in seat order
func (g *Game) TeamInfo() []PlayerInfo {
	if g.CurrentMission == nil {
		return nil
	}
	team := make([]PlayerInfo, 0, len(g.CurrentMission.TeamIDs))
	for _, p := range g.Players {
		if g.CurrentMission.OnTeam(p.ID) {
			team = append(team, p.ToInfo())
		}
	}
	return team
}

// MissionResults returns the public records of all completed missions
func (g *Game) MissionResults() []MissionResult {
	results := make([]MissionResult, 0, len(g.MissionHistory))
	for _, m := range g.MissionHistory {
		results = append(results, m.Result())
	}
	return results
}

// Snapshot is a personalized full-state view, safe to send to one player.
// Secret information is limited to the viewer's own role and knowledge;
// the full role table appears only once the game is finished.
type Snapshot struct {
	GameID          string          `json:"gameId"`
	Phase           Phase           `json:"phase"`
	Players         []PlayerInfo    `json:"players"`
	HostID          string          `json:"hostId"`
	Round           int             `json:"round,omitempty"`
	LeaderID        string          `json:"leaderId,omitempty"`
	TeamSize        int             `json:"teamSize,omitempty"`
	FailsRequired   int             `json:"failsRequired,omitempty"`
	ProposedTeam    []PlayerInfo    `json:"proposedTeam,omitempty"`
	VoteTrack       int             `json:"voteTrack"`
	TeamVotesIn     int             `json:"teamVotesIn,omitempty"`
	BallotsIn       int             `json:"ballotsIn,omitempty"`
	MissionSizes    []int           `json:"missionSizes,omitempty"`
	Missions        []MissionResult `json:"missions"`
	YourRole        Role            `json:"yourRole,omitempty"`
	YourAlignment   Alignment       `json:"yourAlignment,omitempty"`
	RoleDescription string          `json:"roleDescription,omitempty"`
	Knowledge       []KnownPlayer   `json:"knowledge,omitempty"`
	Winner          Alignment       `json:"winner,omitempty"`
	WinReason       WinReason       `json:"winReason,omitempty"`
	Roles           []RoleReveal    `json:"roles,omitempty"`
}

// Snapshot builds the personalized view for one player
func (g *Game) Snapshot(viewerID string) Snapshot {
	snap := Snapshot{
		GameID:    g.ID,
		Phase:     g.Phase,
		Players:   g.GetPlayerInfoList(),
		HostID:    g.HostID,
		VoteTrack: g.RejectedProposals,
		Missions:  g.MissionResults(),
	}

	if g.Phase != PhaseLobby {
		snap.MissionSizes = g.Rules.MissionSizes[:]
	}

	if g.CurrentMission != nil && !g.Phase.IsTerminal() {
		snap.Round = g.CurrentMission.Round
		snap.LeaderID = g.Leader().ID
		snap.TeamSize = g.CurrentMission.TeamSize
		snap.FailsRequired = g.CurrentMission.FailsRequired
		snap.ProposedTeam = g.TeamInfo()
		snap.TeamVotesIn = g.CurrentMission.TeamVotesIn()
		snap.BallotsIn = g.CurrentMission.BallotsIn()
	}

	if viewer := g.findPlayer(viewerID); viewer != nil && viewer.Role != "" {
		snap.YourRole = viewer.Role
		snap.YourAlignment = viewer.Role.Alignment()
		snap.RoleDescription = viewer.Role.Description()
		snap.Knowledge = g.KnowledgeFor(viewerID)
	}

	if g.Phase.IsTerminal() {
		snap.Winner = g.Winner
		snap.WinReason = g.WinReason
		snap.Roles = g.RoleReveals()
	}

	return snap
}
