package domain

import "math/rand"

// Knowledge labels for players who see others without learning exact roles
const (
	LabelEvil            = "Evil"
	LabelMerlinOrMorgana = "Merlin or Morgana"
)

// AssignRoles deals the rule set's roles across the seated players using
// the given shuffle source, then computes each player's secret knowledge.
// The returned map is keyed by player ID; players who learn nothing get
// an empty slice, so every participant has an entry.
func AssignRoles(players []*Player, rules Rules, rng *rand.Rand) map[string][]KnownPlayer {
	roles := make([]Role, len(rules.Roles))
	copy(roles, rules.Roles)
	rng.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	for i, player := range players {
		player.Role = roles[i]
	}

	knowledge := make(map[string][]KnownPlayer, len(players))
	for _, viewer := range players {
		knowledge[viewer.ID] = knowledgeFor(viewer, players, rng)
	}
	return knowledge
}

// knowledgeFor computes what one player learns about the others at deal time:
//   - Merlin sees every evil player except Mordred, labeled generically.
//   - Percival sees Merlin and Morgana under one shared ambiguous label,
//     in shuffled order so position reveals nothing.
//   - Evil players see their fellow evil players with exact role names,
//     Mordred included.
//   - Everyone else sees nothing.
func knowledgeFor(viewer *Player, players []*Player, rng *rand.Rand) []KnownPlayer {
	known := make([]KnownPlayer, 0)

	switch {
	case viewer.Role == RoleMerlin:
		for _, other := range players {
			if other.Role.IsEvil() && other.Role != RoleMordred {
				known = append(known, KnownPlayer{PlayerID: other.ID, Nickname: other.Nickname, Label: LabelEvil})
			}
		}

	case viewer.Role == RolePercival:
		for _, other := range players {
			if other.Role == RoleMerlin || other.Role == RoleMorgana {
				known = append(known, KnownPlayer{PlayerID: other.ID, Nickname: other.Nickname, Label: LabelMerlinOrMorgana})
			}
		}
		rng.Shuffle(len(known), func(i, j int) {
			known[i], known[j] = known[j], known[i]
		})

	case viewer.Role.IsEvil():
		for _, other := range players {
			if other.ID == viewer.ID {
				continue
			}
			if other.Role.IsEvil() {
				known = append(known, KnownPlayer{PlayerID: other.ID, Nickname: other.Nickname, Label: other.Role.DisplayName()})
			}
		}
	}

	return known
}
