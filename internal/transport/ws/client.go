package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"avalon/internal/app"
	"avalon/internal/domain"
	"avalon/internal/monitor"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 256
)

// Client represents a WebSocket client connection
type Client struct {
	conn     *websocket.Conn
	session  *app.GameSession
	playerID string
	send     chan []byte
	done     chan struct{}
	metrics  *monitor.Metrics
	logger   *slog.Logger
	mu       sync.Mutex
	closed   bool
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, session *app.GameSession, playerID string, metrics *monitor.Metrics, logger *slog.Logger) *Client {
	return &Client{
		conn:     conn,
		session:  session,
		playerID: playerID,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		metrics:  metrics,
		logger:   logger,
	}
}

// GetPlayerID returns the player ID for this client
func (c *Client) GetPlayerID() string {
	return c.playerID
}

// Send implements app.ClientConnection interface
func (c *Client) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer full, message dropped
		c.logger.Warn("send buffer full, message dropped", "playerID", c.playerID)
		return nil
	}
}

// Close implements app.ClientConnection interface
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.session.UnregisterClient(c.playerID)
		c.session.DisconnectPlayer(c.playerID)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage decodes one client message and dispatches it to the
// session operation it names. Op errors all flow through wireError, so
// the same domain failure always reaches the client under the same code.
func (c *Client) handleMessage(data []byte) {
	start := time.Now()
	if c.metrics != nil {
		c.metrics.IncMessagesReceived()
		defer func() {
			c.metrics.ObserveMessageLatency(time.Since(start))
		}()
	}

	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid message format")
		return
	}

	switch msg.Type {
	case MsgJoinLobby:
		c.handleJoinLobby(msg.Payload)
	case MsgAddBots:
		c.handleAddBots(msg.Payload)
	case MsgStartGame:
		c.dispatch(c.session.StartGame(c.playerID))
	case MsgProposeTeam:
		c.handleProposeTeam(msg.Payload)
	case MsgCastTeamVote:
		c.handleCastTeamVote(msg.Payload)
	case MsgCastMissionBallot:
		c.handleCastMissionBallot(msg.Payload)
	case MsgAssassinate:
		c.handleAssassinate(msg.Payload)
	case MsgPing:
		c.Send(NewServerMessage(MsgPong, nil))
	default:
		c.sendError(ErrCodeInvalidMessage, "Unknown message type")
	}
}

// decode unmarshals a raw payload into dst, reporting a malformed payload
// to the client on failure
func (c *Client) decode(raw json.RawMessage, dst interface{}) bool {
	if len(raw) == 0 {
		c.sendError(ErrCodeInvalidMessage, "Payload is required")
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return false
	}
	return true
}

// dispatch reports an operation error back to the client, if there is one
func (c *Client) dispatch(err error) {
	if err != nil {
		code, message := wireError(err)
		c.sendError(code, message)
	}
}

func (c *Client) handleJoinLobby(raw json.RawMessage) {
	var payload JoinLobbyPayload
	if !c.decode(raw, &payload) {
		return
	}
	if payload.Nickname == "" {
		c.sendError(ErrCodeInvalidMessage, "Nickname is required")
		return
	}

	if _, err := c.session.AddPlayer(c.playerID, payload.Nickname); err != nil {
		c.dispatch(err)
		return
	}

	c.sendConnected()
}

func (c *Client) handleAddBots(raw json.RawMessage) {
	var payload AddBotsPayload
	if !c.decode(raw, &payload) {
		return
	}
	if payload.Count < 1 {
		c.sendError(ErrCodeInvalidMessage, "Bot count is required")
		return
	}

	c.dispatch(c.session.AddBots(c.playerID, payload.Count))
}

func (c *Client) handleProposeTeam(raw json.RawMessage) {
	var payload ProposeTeamPayload
	if !c.decode(raw, &payload) {
		return
	}
	if len(payload.TeamPlayerIDs) == 0 {
		c.sendError(ErrCodeInvalidMessage, "Team player IDs are required")
		return
	}

	c.dispatch(c.session.ProposeTeam(c.playerID, payload.TeamPlayerIDs))
}

func (c *Client) handleCastTeamVote(raw json.RawMessage) {
	var payload CastTeamVotePayload
	if !c.decode(raw, &payload) {
		return
	}

	vote := domain.Vote(payload.Vote)
	if !vote.Valid() {
		c.sendError(ErrCodeInvalidMessage, "Vote must be APPROVE or REJECT")
		return
	}

	c.dispatch(c.session.CastTeamVote(c.playerID, vote))
}

func (c *Client) handleCastMissionBallot(raw json.RawMessage) {
	var payload CastMissionBallotPayload
	if !c.decode(raw, &payload) {
		return
	}

	ballot := domain.Ballot(payload.Ballot)
	if !ballot.Valid() {
		c.sendError(ErrCodeInvalidMessage, "Ballot must be SUCCESS or FAIL")
		return
	}

	c.dispatch(c.session.CastMissionBallot(c.playerID, ballot))
}

func (c *Client) handleAssassinate(raw json.RawMessage) {
	var payload AssassinatePayload
	if !c.decode(raw, &payload) {
		return
	}
	if payload.TargetPlayerID == "" {
		c.sendError(ErrCodeInvalidMessage, "Target player ID is required")
		return
	}

	c.dispatch(c.session.Assassinate(c.playerID, payload.TargetPlayerID))
}

// sendConnected sends the connected message to the client
func (c *Client) sendConnected() {
	payload := &ConnectedPayload{
		PlayerID:  c.playerID,
		GameID:    c.session.GetRoomCode(),
		GameState: c.session.GetGameState(c.playerID),
	}

	c.Send(NewServerMessage(MsgConnected, payload))
}

// sendError sends an error message to the client
func (c *Client) sendError(code, message string) {
	c.Send(NewServerMessage(MsgError, &ErrorPayload{
		Code:    code,
		Message: message,
	}))
}
