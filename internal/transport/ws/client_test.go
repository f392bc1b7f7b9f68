package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"avalon/internal/app"
	"avalon/internal/config"
	"avalon/internal/domain"
)

// newTestClient wires a Client to a real session without any socket. The
// dispatch path never touches the connection, so handleMessage can be
// exercised directly and replies read back off the send channel.
func newTestClient(t *testing.T, playerID string) (*Client, *app.GameSession) {
	t.Helper()

	game := domain.NewGameWithRand("ROOM01", rand.New(rand.NewSource(7)))
	session := app.NewGameSession(game, config.GameConfig{}, nil, testLogger())
	t.Cleanup(session.Close)

	client := NewClient(nil, session, playerID, nil, testLogger())
	return client, session
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// takeReply pops the next server message the client queued for the wire
func takeReply(t *testing.T, c *Client) *ServerMessage {
	t.Helper()

	select {
	case data := <-c.send:
		var msg ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("reply is not a server message: %v", err)
		}
		return &msg
	case <-time.After(time.Second):
		t.Fatal("no reply queued")
		return nil
	}
}

func expectErrorReply(t *testing.T, c *Client, code string) {
	t.Helper()

	msg := takeReply(t, c)
	if msg.Type != MsgError {
		t.Fatalf("reply type = %s, want %s", msg.Type, MsgError)
	}

	payload, ok := msg.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("error payload has type %T", msg.Payload)
	}
	if got := payload["code"]; got != code {
		t.Errorf("error code = %v, want %s", got, code)
	}
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	client, _ := newTestClient(t, "p0")

	client.handleMessage([]byte("not json"))
	expectErrorReply(t, client, ErrCodeInvalidMessage)

	client.handleMessage([]byte(`{"type":"teleport"}`))
	expectErrorReply(t, client, ErrCodeInvalidMessage)

	client.handleMessage([]byte(`{"type":"join_lobby"}`))
	expectErrorReply(t, client, ErrCodeInvalidMessage)

	client.handleMessage([]byte(`{"type":"join_lobby","payload":{"nickname":""}}`))
	expectErrorReply(t, client, ErrCodeInvalidMessage)

	client.handleMessage([]byte(`{"type":"cast_team_vote","payload":{"vote":"MAYBE"}}`))
	expectErrorReply(t, client, ErrCodeInvalidMessage)

	client.handleMessage([]byte(`{"type":"cast_mission_ballot","payload":{"ballot":"SHRUG"}}`))
	expectErrorReply(t, client, ErrCodeInvalidMessage)
}

func TestJoinLobbyRepliesConnected(t *testing.T) {
	client, session := newTestClient(t, "p0")

	client.handleMessage([]byte(`{"type":"join_lobby","payload":{"nickname":"Alice"}}`))

	msg := takeReply(t, client)
	if msg.Type != MsgConnected {
		t.Fatalf("reply type = %s, want %s", msg.Type, MsgConnected)
	}

	payload, ok := msg.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("connected payload has type %T", msg.Payload)
	}
	if payload["playerId"] != "p0" || payload["gameId"] != "ROOM01" {
		t.Errorf("connected payload = %v, want p0 in ROOM01", payload)
	}

	if got := session.GetPlayerCount(); got != 1 {
		t.Errorf("player count = %d, want 1", got)
	}

	// A second join from the same socket is an invalid action
	client.handleMessage([]byte(`{"type":"join_lobby","payload":{"nickname":"Alice"}}`))
	expectErrorReply(t, client, ErrCodeInvalidAction)
}

func TestDispatchMapsDomainFailures(t *testing.T) {
	client, session := newTestClient(t, "p1")
	for i := 0; i < 5; i++ {
		if _, err := session.AddPlayer(fmt.Sprintf("p%d", i), fmt.Sprintf("Player %d", i)); err != nil {
			t.Fatalf("seat p%d: %v", i, err)
		}
	}

	tests := []struct {
		name string
		raw  string
		code string
	}{
		{"guest cannot start", `{"type":"start_game"}`, ErrCodeNotHost},
		{"bots switched off", `{"type":"add_bots","payload":{"count":2}}`, ErrCodeBotsDisabled},
		{"no proposals in lobby", `{"type":"propose_team","payload":{"teamPlayerIds":["p0","p1"]}}`, ErrCodeInvalidAction},
		{"no votes in lobby", `{"type":"cast_team_vote","payload":{"vote":"APPROVE"}}`, ErrCodeInvalidAction},
		{"no ballots in lobby", `{"type":"cast_mission_ballot","payload":{"ballot":"SUCCESS"}}`, ErrCodeInvalidAction},
		{"no assassination in lobby", `{"type":"assassinate","payload":{"targetPlayerId":"p0"}}`, ErrCodeInvalidAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client.handleMessage([]byte(tt.raw))
			expectErrorReply(t, client, tt.code)
		})
	}
}

func TestPingPong(t *testing.T) {
	client, _ := newTestClient(t, "p0")

	client.handleMessage([]byte(`{"type":"ping"}`))

	msg := takeReply(t, client)
	if msg.Type != MsgPong {
		t.Errorf("reply type = %s, want %s", msg.Type, MsgPong)
	}
}

func TestWireErrorCoversEverySentinel(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{domain.ErrGameNotFound, ErrCodeGameNotFound},
		{domain.ErrGameFull, ErrCodeGameFull},
		{domain.ErrGameAlreadyStarted, ErrCodeGameStarted},
		{domain.ErrGameFinished, ErrCodeGameFinished},
		{domain.ErrNotEnoughPlayers, ErrCodeNotEnoughPlayers},
		{domain.ErrInvalidPlayerCount, ErrCodeNotEnoughPlayers},
		{domain.ErrNotHost, ErrCodeNotHost},
		{domain.ErrNotLeader, ErrCodeNotLeader},
		{domain.ErrNotAssassin, ErrCodeNotAssassin},
		{domain.ErrNotOnTeam, ErrCodeNotOnTeam},
		{domain.ErrInvalidTeam, ErrCodeInvalidTeam},
		{domain.ErrAlreadyVoted, ErrCodeAlreadyVoted},
		{domain.ErrAlreadyPlayedCard, ErrCodeAlreadyVoted},
		{domain.ErrGoodCannotFail, ErrCodeForbiddenBallot},
		{domain.ErrPlayerNotFound, ErrCodeUnknownPlayer},
		{domain.ErrAlreadyJoined, ErrCodeInvalidAction},
		{domain.ErrInvalidPhase, ErrCodeInvalidAction},
		{domain.ErrInvalidTransition, ErrCodeInvalidAction},
		{domain.ErrInvalidVote, ErrCodeInvalidMessage},
		{domain.ErrInvalidBallot, ErrCodeInvalidMessage},
		{app.ErrBotsDisabled, ErrCodeBotsDisabled},
		{errors.New("disk on fire"), ErrCodeInternalError},
	}

	for _, tt := range tests {
		code, message := wireError(tt.err)
		if code != tt.code {
			t.Errorf("wireError(%v) code = %s, want %s", tt.err, code, tt.code)
		}
		if message == "" {
			t.Errorf("wireError(%v) has no message", tt.err)
		}
	}
}
