package domain

// Game-wide rule constants
const (
	MinPlayers     = 5
	MaxPlayers     = 10
	MissionCount   = 5
	MissionsToWin  = 3
	VoteTrackLimit = 5 // consecutive rejected proposals before evil wins outright
)

// teamSplits maps player count to the number of good and evil seats
var teamSplits = map[int]struct{ Good, Evil int }{
	5:  {3, 2},
	6:  {4, 2},
	7:  {4, 3},
	8:  {5, 3},
	9:  {6, 3},
	10: {6, 4},
}

// missionSizes maps player count to the team size of each of the five missions
var missionSizes = map[int][MissionCount]int{
	5:  {2, 3, 2, 3, 3},
	6:  {2, 3, 4, 3, 4},
	7:  {2, 3, 3, 4, 4},
	8:  {3, 4, 4, 5, 5},
	9:  {3, 4, 4, 5, 5},
	10: {3, 4, 4, 5, 5},
}

// twoFailRound is the 1-based round that needs two fail ballots to sink,
// for player counts that have one
var twoFailRound = map[int]int{
	7:  4,
	8:  4,
	9:  4,
	10: 4,
}

// Rules bundles every player-count-dependent rule for one game.
// It is fixed when the game starts and never changes afterwards.
type Rules struct {
	PlayerCount  int               `json:"playerCount"`
	GoodCount    int               `json:"goodCount"`
	EvilCount    int               `json:"evilCount"`
	MissionSizes [MissionCount]int `json:"missionSizes"`
	TwoFailRound int               `json:"twoFailRound,omitempty"` // 0 when no round needs two fails
	Roles        []Role            `json:"roles"`
}

// RulesFor returns the rule set for the given player count
func RulesFor(playerCount int) (Rules, error) {
	split, ok := teamSplits[playerCount]
	if !ok {
		return Rules{}, ErrInvalidPlayerCount
	}

	return Rules{
		PlayerCount:  playerCount,
		GoodCount:    split.Good,
		EvilCount:    split.Evil,
		MissionSizes: missionSizes[playerCount],
		TwoFailRound: twoFailRound[playerCount],
		Roles:        roleSetFor(playerCount, split.Good, split.Evil),
	}, nil
}

// roleSetFor builds the role list for a player count: Merlin and the
// Assassin always play, Percival and Morgana join at 7+, Mordred at 8+,
// and plain servants and minions fill the remaining seats.
func roleSetFor(playerCount, goodCount, evilCount int) []Role {
	good := []Role{RoleMerlin}
	evil := []Role{RoleAssassin}

	if playerCount >= 7 {
		good = append(good, RolePercival)
		evil = append(evil, RoleMorgana)
	}
	if playerCount >= 8 {
		evil = append(evil, RoleMordred)
	}

	for len(good) < goodCount {
		good = append(good, RoleServant)
	}
	for len(evil) < evilCount {
		evil = append(evil, RoleMinion)
	}

	return append(good, evil...)
}

// TeamSize returns the required team size for the given 1-based round
func (r Rules) TeamSize(round int) int {
	return r.MissionSizes[round-1]
}

// FailsRequired returns how many fail ballots sink the given 1-based round
func (r Rules) FailsRequired(round int) int {
	if round == r.TwoFailRound {
		return 2
	}
	return 1
}
