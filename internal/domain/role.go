package domain

// Alignment represents which side a player fights for
type Alignment string

const (
	AlignmentGood Alignment = "GOOD"
	AlignmentEvil Alignment = "EVIL"
)

// String returns the string representation of the alignment
func (a Alignment) String() string {
	return string(a)
}

// Role represents a player's secret role
type Role string

const (
	RoleMerlin   Role = "MERLIN"
	RolePercival Role = "PERCIVAL"
	RoleServant  Role = "SERVANT"
	RoleAssassin Role = "ASSASSIN"
	RoleMorgana  Role = "MORGANA"
	RoleMordred  Role = "MORDRED"
	RoleMinion   Role = "MINION"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// Alignment returns the side the role belongs to
func (r Role) Alignment() Alignment {
	switch r {
	case RoleAssassin, RoleMorgana, RoleMordred, RoleMinion:
		return AlignmentEvil
	case RoleMerlin, RolePercival, RoleServant:
		return AlignmentGood
	}
	return ""
}

// IsEvil returns true if the role fights for evil
func (r Role) IsEvil() bool {
	return r.Alignment() == AlignmentEvil
}

// IsGood returns true if the role fights for good
func (r Role) IsGood() bool {
	return r.Alignment() == AlignmentGood
}

var roleNames = map[Role]string{
	RoleMerlin:   "Merlin",
	RolePercival: "Percival",
	RoleServant:  "Servant of Arthur",
	RoleAssassin: "Assassin",
	RoleMorgana:  "Morgana",
	RoleMordred:  "Mordred",
	RoleMinion:   "Minion of Mordred",
}

// DisplayName returns the role's table-facing name
func (r Role) DisplayName() string {
	return roleNames[r]
}

var roleDescriptions = map[Role]string{
	RoleMerlin:   "You are Merlin! You know who the Minions of Mordred are (except Mordred). Guide the Servants of Arthur to victory, but stay hidden from the Assassin!",
	RolePercival: "You are Percival! You can see Merlin and Morgana, but you don't know which is which. Protect Merlin!",
	RoleServant:  "You are a loyal Servant of Arthur! Work with your fellow servants to complete 3 missions successfully.",
	RoleAssassin: "You are the Assassin! Work with your fellow Minions to sabotage missions. If the good team completes 3 missions, you get one chance to assassinate Merlin and win!",
	RoleMorgana:  "You are Morgana! You appear as Merlin to Percival. Work with your fellow Minions to sabotage missions and deceive the good team.",
	RoleMordred:  "You are Mordred! You are hidden from Merlin's sight. Work with your fellow Minions to sabotage missions.",
	RoleMinion:   "You are a Minion of Mordred! Work with your fellow Minions to sabotage missions and prevent the good team from succeeding.",
}

// Description returns the player-facing briefing for the role
func (r Role) Description() string {
	return roleDescriptions[r]
}

// AllRoles lists every role in the catalog
func AllRoles() []Role {
	return []Role{RoleMerlin, RolePercival, RoleServant, RoleAssassin, RoleMorgana, RoleMordred, RoleMinion}
}
