package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"avalon/internal/config"
	"avalon/internal/domain"
)

type fakeClient struct {
	playerID string
	mu       sync.Mutex
	events   []*domain.GameEvent
}

func (c *fakeClient) Send(message interface{}) error {
	event, ok := message.(*domain.GameEvent)
	if !ok {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *fakeClient) GetPlayerID() string { return c.playerID }

func (c *fakeClient) Close() error { return nil }

func (c *fakeClient) eventsOfType(eventType domain.EventType) []*domain.GameEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var matched []*domain.GameEvent
	for _, e := range c.events {
		if e.Type == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

func waitForEvent(t *testing.T, c *fakeClient, eventType domain.EventType) *domain.GameEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if events := c.eventsOfType(eventType); len(events) > 0 {
			return events[0]
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", eventType)
	return nil
}

func waitForEventCount(t *testing.T, c *fakeClient, eventType domain.EventType, count int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(c.eventsOfType(eventType)) >= count {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d %s events, have %d", count, eventType, len(c.eventsOfType(eventType)))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testGameConfig() config.GameConfig {
	return config.GameConfig{
		RoomCodeLength: 6,
		BotActionDelay: time.Millisecond,
	}
}

func newTestSession(t *testing.T, playerCount int, cfg config.GameConfig) (*GameSession, []*fakeClient) {
	t.Helper()
	game := domain.NewGameWithRand("ROOM01", rand.New(rand.NewSource(42)))
	game.Settings.RoleRevealTime = 5 * time.Millisecond

	session := NewGameSession(game, cfg, nil, testLogger())
	t.Cleanup(session.Close)

	clients := make([]*fakeClient, 0, playerCount)
	for i := 0; i < playerCount; i++ {
		id := fmt.Sprintf("p%d", i)
		if _, err := session.AddPlayer(id, fmt.Sprintf("Player %d", i)); err != nil {
			t.Fatalf("add player %s: %v", id, err)
		}
		client := &fakeClient{playerID: id}
		session.RegisterClient(id, client)
		clients = append(clients, client)
	}
	return session, clients
}

func startSession(t *testing.T, playerCount int, cfg config.GameConfig) (*GameSession, []*fakeClient) {
	t.Helper()
	session, clients := newTestSession(t, playerCount, cfg)
	if err := session.StartGame("p0"); err != nil {
		t.Fatalf("start game: %v", err)
	}
	// The first proposal opens after the role reveal window
	waitForEvent(t, clients[0], domain.EventProposalStarted)
	return session, clients
}

func TestStartGameDealsRolesPrivately(t *testing.T) {
	session, clients := newTestSession(t, 5, testGameConfig())

	if err := session.StartGame("p1"); !errors.Is(err, domain.ErrNotHost) {
		t.Fatalf("start by guest error = %v, want %v", err, domain.ErrNotHost)
	}
	if err := session.StartGame("p0"); err != nil {
		t.Fatalf("start game: %v", err)
	}

	for _, client := range clients {
		waitForEvent(t, client, domain.EventGameStarted)

		event := waitForEvent(t, client, domain.EventRoleAssigned)
		if event.PlayerID != client.playerID {
			t.Errorf("role event addressed to %s arrived at %s", event.PlayerID, client.playerID)
		}
		payload, ok := event.Payload.(*domain.RoleAssignedPayload)
		if !ok {
			t.Fatalf("role payload has type %T", event.Payload)
		}
		if payload.Role == "" || payload.DisplayName == "" {
			t.Errorf("role payload incomplete: %+v", payload)
		}
		if payload.Knowledge == nil {
			t.Error("role payload missing knowledge slice")
		}
	}

	// Exactly one role reaches each player: their own
	for _, client := range clients {
		if got := len(client.eventsOfType(domain.EventRoleAssigned)); got != 1 {
			t.Errorf("%s received %d role events, want 1", client.playerID, got)
		}
	}

	event := waitForEvent(t, clients[0], domain.EventProposalStarted)
	payload, ok := event.Payload.(*domain.ProposalStartedPayload)
	if !ok {
		t.Fatalf("proposal payload has type %T", event.Payload)
	}
	if payload.LeaderID != "p0" || payload.Round != 1 {
		t.Errorf("first proposal = leader %s round %d, want p0 round 1", payload.LeaderID, payload.Round)
	}
}

func TestTeamVoteFlowThroughMission(t *testing.T) {
	session, clients := startSession(t, 5, testGameConfig())

	if err := session.ProposeTeam("p0", []string{"p0", "p1"}); err != nil {
		t.Fatalf("propose: %v", err)
	}
	waitForEvent(t, clients[2], domain.EventTeamProposed)

	if err := session.CastTeamVote("p0", domain.VoteApprove); err != nil {
		t.Fatalf("vote: %v", err)
	}
	progress := waitForEvent(t, clients[3], domain.EventTeamVoteCast)
	if p, ok := progress.Payload.(*domain.TeamVoteProgressPayload); !ok || p.VotedCount != 1 || p.TotalPlayers != 5 {
		t.Fatalf("progress payload = %+v, want 1/5", progress.Payload)
	}

	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		if err := session.CastTeamVote(id, domain.VoteApprove); err != nil {
			t.Fatalf("vote by %s: %v", id, err)
		}
	}

	result := waitForEvent(t, clients[4], domain.EventTeamVoteResult)
	if p, ok := result.Payload.(*domain.TeamVoteResult); !ok || !p.Approved {
		t.Fatalf("vote result payload = %+v, want approved", result.Payload)
	}

	waitForEvent(t, clients[2], domain.EventMissionStarted)

	// Only the two team members get a ballot prompt
	for i, client := range clients {
		prompts := client.eventsOfType(domain.EventMissionPrompt)
		onTeam := i == 0 || i == 1
		if onTeam {
			waitForEvent(t, client, domain.EventMissionPrompt)
		} else if len(prompts) != 0 {
			t.Errorf("%s got a mission prompt while off team", client.playerID)
		}
	}

	for _, id := range []string{"p0", "p1"} {
		if err := session.CastMissionBallot(id, domain.BallotSuccess); err != nil {
			t.Fatalf("ballot by %s: %v", id, err)
		}
	}

	missionResult := waitForEvent(t, clients[0], domain.EventMissionResult)
	payload, ok := missionResult.Payload.(*domain.MissionResultPayload)
	if !ok {
		t.Fatalf("mission result payload has type %T", missionResult.Payload)
	}
	if !payload.Result.Succeeded || payload.SucceededCount != 1 {
		t.Errorf("mission result = %+v, want clean success", payload)
	}

	// The next round's proposal opens automatically
	waitForEventCount(t, clients[0], domain.EventProposalStarted, 2)
}

func TestTeamVoteTimeoutInjectsRejects(t *testing.T) {
	cfg := testGameConfig()
	cfg.TeamVoteTimeout = 40 * time.Millisecond

	session, clients := startSession(t, 5, cfg)

	if err := session.ProposeTeam("p0", []string{"p0", "p1"}); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if err := session.CastTeamVote("p0", domain.VoteApprove); err != nil {
		t.Fatalf("vote: %v", err)
	}

	result := waitForEvent(t, clients[0], domain.EventTeamVoteResult)
	payload, ok := result.Payload.(*domain.TeamVoteResult)
	if !ok {
		t.Fatalf("vote result payload has type %T", result.Payload)
	}
	if payload.Approved {
		t.Fatal("forced resolution approved the team")
	}
	if payload.Approvals != 1 || payload.Rejections != 4 {
		t.Errorf("tally = %d/%d, want 1/4", payload.Approvals, payload.Rejections)
	}
	if payload.VoteTrack != 1 {
		t.Errorf("vote track = %d, want 1", payload.VoteTrack)
	}

	// The next leader's proposal opens after the forced rejection
	waitForEventCount(t, clients[0], domain.EventProposalStarted, 2)
	if got := session.GetPhase(); got != domain.PhaseTeamProposal {
		t.Errorf("phase = %s, want %s", got, domain.PhaseTeamProposal)
	}
}

func TestMissionTimeoutInjectsSuccesses(t *testing.T) {
	cfg := testGameConfig()
	cfg.MissionTimeout = 40 * time.Millisecond

	session, clients := startSession(t, 5, cfg)

	if err := session.ProposeTeam("p0", []string{"p0", "p1"}); err != nil {
		t.Fatalf("propose: %v", err)
	}
	for _, id := range []string{"p0", "p1", "p2", "p3", "p4"} {
		if err := session.CastTeamVote(id, domain.VoteApprove); err != nil {
			t.Fatalf("vote by %s: %v", id, err)
		}
	}
	waitForEvent(t, clients[0], domain.EventMissionStarted)

	// Nobody plays a ballot; the timeout fills in successes
	result := waitForEvent(t, clients[0], domain.EventMissionResult)
	payload, ok := result.Payload.(*domain.MissionResultPayload)
	if !ok {
		t.Fatalf("mission result payload has type %T", result.Payload)
	}
	if !payload.Result.Succeeded || payload.Result.Fails != 0 {
		t.Errorf("forced mission result = %+v, want clean success", payload.Result)
	}
}

func TestGameEndBroadcastsRevealAndOutcome(t *testing.T) {
	session, clients := startSession(t, 5, testGameConfig())

	// Five straight rejections hand evil the win
	for i := 0; i < domain.VoteTrackLimit; i++ {
		waitForEventCount(t, clients[0], domain.EventProposalStarted, i+1)

		leaderID := fmt.Sprintf("p%d", i)
		if err := session.ProposeTeam(leaderID, []string{"p0", "p1"}); err != nil {
			t.Fatalf("propose %d: %v", i, err)
		}
		for _, c := range clients {
			if err := session.CastTeamVote(c.playerID, domain.VoteReject); err != nil {
				t.Fatalf("vote: %v", err)
			}
		}
	}

	event := waitForEvent(t, clients[3], domain.EventGameEnded)
	payload, ok := event.Payload.(*domain.GameEndedPayload)
	if !ok {
		t.Fatalf("game ended payload has type %T", event.Payload)
	}
	if payload.Winner != domain.AlignmentEvil || payload.Reason != domain.ReasonVoteTrack {
		t.Errorf("outcome = %s/%s, want %s/%s", payload.Winner, payload.Reason, domain.AlignmentEvil, domain.ReasonVoteTrack)
	}
	if len(payload.Roles) != 5 {
		t.Errorf("role reveal = %d entries, want 5", len(payload.Roles))
	}
}

func TestSnapshotForReconnect(t *testing.T) {
	session, _ := startSession(t, 5, testGameConfig())

	snap := session.GetGameState("p2")
	if snap.Phase != domain.PhaseTeamProposal {
		t.Errorf("phase = %s, want %s", snap.Phase, domain.PhaseTeamProposal)
	}
	if snap.YourRole == "" {
		t.Error("snapshot missing the viewer's role")
	}
	if snap.Roles != nil {
		t.Error("snapshot exposes the role table mid-game")
	}

	if _, err := session.ReconnectPlayer("p2"); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if _, err := session.ReconnectPlayer("ghost"); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Errorf("reconnect stranger error = %v, want %v", err, domain.ErrPlayerNotFound)
	}
}

func TestDisconnectKeepsSeatAfterStart(t *testing.T) {
	session, clients := startSession(t, 5, testGameConfig())

	session.UnregisterClient("p3")
	session.DisconnectPlayer("p3")

	if got := session.GetPlayerCount(); got != 5 {
		t.Errorf("player count = %d, want 5 (seat persists)", got)
	}
	if got := session.GetConnectedCount(); got != 4 {
		t.Errorf("connected count = %d, want 4", got)
	}

	waitForEvent(t, clients[0], domain.EventPlayerLeft)

	player, err := session.ReconnectPlayer("p3")
	if err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if !player.IsConnected() {
		t.Error("player still marked disconnected after reconnect")
	}
}

func TestDisconnectFreesLobbySeatAfterGracePeriod(t *testing.T) {
	cfg := testGameConfig()
	cfg.ReconnectGracePeriod = 20 * time.Millisecond
	session, _ := newTestSession(t, 5, cfg)

	session.UnregisterClient("p3")
	session.DisconnectPlayer("p3")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && session.GetPlayerCount() > 4 {
		time.Sleep(2 * time.Millisecond)
	}
	if got := session.GetPlayerCount(); got != 4 {
		t.Fatalf("player count = %d, want 4 (lobby seat reclaimed)", got)
	}
	if _, err := session.ReconnectPlayer("p3"); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Errorf("reconnect after eviction error = %v, want %v", err, domain.ErrPlayerNotFound)
	}
}

func TestDisconnectKeepsLobbySeatOnQuickReconnect(t *testing.T) {
	cfg := testGameConfig()
	cfg.ReconnectGracePeriod = 40 * time.Millisecond
	session, _ := newTestSession(t, 5, cfg)

	session.UnregisterClient("p3")
	session.DisconnectPlayer("p3")

	if _, err := session.ReconnectPlayer("p3"); err != nil {
		t.Fatalf("reconnect: %v", err)
	}

	time.Sleep(80 * time.Millisecond)
	if got := session.GetPlayerCount(); got != 5 {
		t.Errorf("player count = %d, want 5 (reconnected seat kept)", got)
	}
}
