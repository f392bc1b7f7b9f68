package domain

// Phase represents the current phase of a game
type Phase string

const (
	PhaseLobby          Phase = "LOBBY"           // Waiting for players to join
	PhaseRoleAssignment Phase = "ROLE_ASSIGNMENT" // Secret roles dealt and revealed to each player
	PhaseTeamProposal   Phase = "TEAM_PROPOSAL"   // Leader picks a team for the mission
	PhaseTeamVoting     Phase = "TEAM_VOTING"     // Everyone approves or rejects the proposal
	PhaseMission        Phase = "MISSION"         // Team members play success/fail ballots
	PhaseAssassination  Phase = "ASSASSINATION"   // Assassin gets one shot at Merlin
	PhaseFinished       Phase = "FINISHED"        // Winner decided, state is read-only
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo checks if a transition from current phase to target phase is valid
func (p Phase) CanTransitionTo(target Phase) bool {
	validTransitions := map[Phase][]Phase{
		PhaseLobby:          {PhaseRoleAssignment},
		PhaseRoleAssignment: {PhaseTeamProposal},
		PhaseTeamProposal:   {PhaseTeamVoting},
		PhaseTeamVoting:     {PhaseMission, PhaseTeamProposal, PhaseFinished}, // approved, rejected, or vote track exhausted
		PhaseMission:        {PhaseTeamProposal, PhaseAssassination, PhaseFinished},
		PhaseAssassination:  {PhaseFinished},
	}

	allowed, ok := validTransitions[p]
	if !ok {
		return false
	}

	for _, phase := range allowed {
		if phase == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true once no further transitions are possible
func (p Phase) IsTerminal() bool {
	return p == PhaseFinished
}
