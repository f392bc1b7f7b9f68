package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"avalon/internal/domain"
)

// ErrBotsDisabled is returned when bot seats are requested but the feature
// is switched off in config
var ErrBotsDisabled = errors.New("bots are disabled")

// AddBots fills empty seats with bot players. Host only, lobby only. The
// requested count is capped at the free seats; asking for zero is a no-op.
func (s *GameSession) AddBots(requesterID string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.BotsEnabled {
		return ErrBotsDisabled
	}
	if s.game.Phase != domain.PhaseLobby {
		return domain.ErrGameAlreadyStarted
	}
	if !s.game.IsHost(requesterID) {
		return domain.ErrNotHost
	}

	free := s.game.Settings.MaxPlayers - len(s.game.Players)
	if count > free {
		count = free
	}

	seated := 0
	for _, player := range s.game.Players {
		if player.IsBot() {
			seated++
		}
	}

	added := 0
	for i := 0; i < count; i++ {
		nickname := fmt.Sprintf("Bot %d", seated+i+1)
		if _, err := s.game.AddBot(uuid.New().String(), nickname); err != nil {
			return err
		}
		added++
	}

	if added > 0 {
		s.logger.Info("bots added", "roomCode", s.game.ID, "count", added)
		s.queueEvent(domain.NewEvent(domain.EventPlayerJoined, s.game.ID, s.game.GetLobbyState()))
	}

	return nil
}

// scheduleBotActions arms delayed moves for every bot that owes an action
// in the current phase. Caller must hold the lock. Delays are staggered so
// bot moves land one at a time instead of in a burst.
func (s *GameSession) scheduleBotActions() {
	if !s.cfg.BotsEnabled {
		return
	}

	delay := s.cfg.BotActionDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}

	switch s.game.Phase {
	case domain.PhaseTeamProposal:
		leader := s.game.Leader()
		if leader != nil && leader.IsBot() {
			id := leader.ID
			time.AfterFunc(delay, func() { s.botProposeTeam(id) })
		}

	case domain.PhaseTeamVoting:
		pending := 0
		for _, player := range s.game.Players {
			if !player.IsBot() || s.game.CurrentMission.HasVoted(player.ID) {
				continue
			}
			pending++
			id := player.ID
			time.AfterFunc(delay*time.Duration(pending), func() { s.botCastTeamVote(id) })
		}

	case domain.PhaseMission:
		pending := 0
		for _, id := range s.game.CurrentMission.TeamIDs {
			player, err := s.game.GetPlayer(id)
			if err != nil || !player.IsBot() || s.game.CurrentMission.HasPlayedBallot(id) {
				continue
			}
			pending++
			botID := id
			time.AfterFunc(delay*time.Duration(pending), func() { s.botPlayBallot(botID) })
		}

	case domain.PhaseAssassination:
		assassin := s.game.Assassin()
		if assassin != nil && assassin.IsBot() {
			id := assassin.ID
			time.AfterFunc(delay, func() { s.botAssassinate(id) })
		}
	}
}

// botProposeTeam picks a team for a bot leader: itself plus random others
func (s *GameSession) botProposeTeam(botID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.Phase != domain.PhaseTeamProposal {
		return
	}
	leader := s.game.Leader()
	if leader == nil || leader.ID != botID || !leader.IsBot() {
		return
	}

	teamIDs := []string{botID}
	others := make([]string, 0, len(s.game.Players)-1)
	for _, player := range s.game.Players {
		if player.ID != botID {
			others = append(others, player.ID)
		}
	}
	s.botRng.Shuffle(len(others), func(i, j int) {
		others[i], others[j] = others[j], others[i]
	})
	for _, id := range others {
		if len(teamIDs) == s.game.CurrentMission.TeamSize {
			break
		}
		teamIDs = append(teamIDs, id)
	}

	if err := s.proposeTeam(botID, teamIDs); err != nil {
		s.logger.Error("bot proposal failed", "roomCode", s.game.ID, "botID", botID, "error", err)
	}
}

// botCastTeamVote votes on the proposed team. Good bots approve three
// times out of four. Evil bots approve any team they sit on themselves
// and flip a coin otherwise.
func (s *GameSession) botCastTeamVote(botID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.Phase != domain.PhaseTeamVoting {
		return
	}
	player, err := s.game.GetPlayer(botID)
	if err != nil || !player.IsBot() || s.game.CurrentMission.HasVoted(botID) {
		return
	}

	vote := domain.VoteApprove
	if player.Role.IsGood() {
		if s.botRng.Intn(4) == 0 {
			vote = domain.VoteReject
		}
	} else if !s.game.CurrentMission.OnTeam(botID) && s.botRng.Intn(2) == 0 {
		vote = domain.VoteReject
	}

	if err := s.castTeamVote(botID, vote); err != nil {
		s.logger.Error("bot team vote failed", "roomCode", s.game.ID, "botID", botID, "error", err)
	}
}

// botPlayBallot plays the mission card: good bots always succeed, evil
// bots always sabotage
func (s *GameSession) botPlayBallot(botID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.Phase != domain.PhaseMission {
		return
	}
	player, err := s.game.GetPlayer(botID)
	if err != nil || !player.IsBot() || s.game.CurrentMission.HasPlayedBallot(botID) {
		return
	}

	ballot := domain.BallotSuccess
	if player.Role.IsEvil() {
		ballot = domain.BallotFail
	}

	if err := s.castMissionBallot(botID, ballot); err != nil {
		s.logger.Error("bot mission ballot failed", "roomCode", s.game.ID, "botID", botID, "error", err)
	}
}

// botAssassinate picks a random good player as the target
func (s *GameSession) botAssassinate(botID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.Phase != domain.PhaseAssassination {
		return
	}
	assassin := s.game.Assassin()
	if assassin == nil || assassin.ID != botID || !assassin.IsBot() {
		return
	}

	good := make([]*domain.Player, 0, len(s.game.Players))
	for _, player := range s.game.Players {
		if player.Role.IsGood() {
			good = append(good, player)
		}
	}
	if len(good) == 0 {
		return
	}
	target := good[s.botRng.Intn(len(good))]

	if err := s.assassinate(botID, target.ID); err != nil {
		s.logger.Error("bot assassination failed", "roomCode", s.game.ID, "botID", botID, "error", err)
	}
}
