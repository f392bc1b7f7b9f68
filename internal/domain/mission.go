package domain

import "time"

// Mission is one of the five mission rounds. It carries the live proposal
// and ballot state while the round is open, and the outcome once resolved.
// Individual team votes and ballots stay unexported so they can never leak
// through serialization; only tallies are public.
type Mission struct {
	Round         int       `json:"round"` // 1-based
	TeamSize      int       `json:"teamSize"`
	FailsRequired int       `json:"failsRequired"`
	LeaderID      string    `json:"leaderId"`
	TeamIDs       []string  `json:"teamIds,omitempty"`
	Approved      bool      `json:"approved"`
	Fails         int       `json:"fails"`
	Succeeded     bool      `json:"succeeded"`
	StartedAt     time.Time `json:"startedAt"`
	EndedAt       time.Time `json:"endedAt,omitempty"`

	teamVotes map[string]Vote
	ballots   map[string]Ballot
}

// NewMission creates the round's mission with its size and fail threshold
func NewMission(round, teamSize, failsRequired int, leaderID string) *Mission {
	return &Mission{
		Round:         round,
		TeamSize:      teamSize,
		FailsRequired: failsRequired,
		LeaderID:      leaderID,
		teamVotes:     make(map[string]Vote),
		ballots:       make(map[string]Ballot),
		StartedAt:     time.Now(),
	}
}

// Propose records the leader's team and opens a fresh vote
func (m *Mission) Propose(leaderID string, teamIDs []string) {
	m.LeaderID = leaderID
	m.TeamIDs = teamIDs
	m.teamVotes = make(map[string]Vote)
}

// ClearProposal drops a rejected team and hands the proposal to the next leader
func (m *Mission) ClearProposal(nextLeaderID string) {
	m.LeaderID = nextLeaderID
	m.TeamIDs = nil
	m.teamVotes = make(map[string]Vote)
}

// AddTeamVote records one approve/reject vote, rejecting duplicates
func (m *Mission) AddTeamVote(playerID string, vote Vote) error {
	if _, ok := m.teamVotes[playerID]; ok {
		return ErrAlreadyVoted
	}
	m.teamVotes[playerID] = vote
	return nil
}

// HasVoted checks if a player has already voted on the current proposal
func (m *Mission) HasVoted(playerID string) bool {
	_, ok := m.teamVotes[playerID]
	return ok
}

// TeamVotesIn returns the number of votes cast on the current proposal
func (m *Mission) TeamVotesIn() int {
	return len(m.teamVotes)
}

// AllTeamVotesIn returns true once every participant has voted
func (m *Mission) AllTeamVotesIn(totalPlayers int) bool {
	return len(m.teamVotes) >= totalPlayers
}

// TallyTeamVotes counts the approvals and rejections
func (m *Mission) TallyTeamVotes() (approvals, rejections int) {
	for _, vote := range m.teamVotes {
		if vote == VoteApprove {
			approvals++
		} else {
			rejections++
		}
	}
	return approvals, rejections
}

// OnTeam checks if a player is on the proposed team
func (m *Mission) OnTeam(playerID string) bool {
	for _, id := range m.TeamIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// AddBallot records one success/fail ballot, rejecting duplicates
func (m *Mission) AddBallot(playerID string, ballot Ballot) error {
	if _, ok := m.ballots[playerID]; ok {
		return ErrAlreadyPlayedCard
	}
	m.ballots[playerID] = ballot
	return nil
}

// HasPlayedBallot checks if a team member has already played
func (m *Mission) HasPlayedBallot(playerID string) bool {
	_, ok := m.ballots[playerID]
	return ok
}

// BallotsIn returns the number of ballots played so far
func (m *Mission) BallotsIn() int {
	return len(m.ballots)
}

// AllBallotsIn returns true once every team member has played
func (m *Mission) AllBallotsIn() bool {
	return len(m.ballots) >= len(m.TeamIDs)
}

// Resolve counts the fail ballots and settles the mission outcome
func (m *Mission) Resolve() {
	fails := 0
	for _, ballot := range m.ballots {
		if ballot == BallotFail {
			fails++
		}
	}
	m.Fails = fails
	m.Succeeded = fails < m.FailsRequired
	m.EndedAt = time.Now()
}

// Result returns the public record of the mission
func (m *Mission) Result() MissionResult {
	return MissionResult{
		Round:         m.Round,
		LeaderID:      m.LeaderID,
		TeamIDs:       m.TeamIDs,
		Fails:         m.Fails,
		FailsRequired: m.FailsRequired,
		Succeeded:     m.Succeeded,
	}
}

// MissionResult is the public record of a finished mission. Fail counts
// are revealed, never who played them.
type MissionResult struct {
	Round         int      `json:"round"`
	LeaderID      string   `json:"leaderId"`
	TeamIDs       []string `json:"teamIds"`
	Fails         int      `json:"fails"`
	FailsRequired int      `json:"failsRequired"`
	Succeeded     bool     `json:"succeeded"`
}
