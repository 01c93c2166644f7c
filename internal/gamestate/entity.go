// Package gamestate defines the recognized game state: entities, the
// immutable Snapshot assembled once per pipeline cycle, and the error value
// sent in its place when a cycle cannot produce one.
package gamestate

// Entity is a recognized domain object: a Minion or a Hero.
type Entity interface {
	EntityName() string
}

// Minion is a recognized minion with the static stats of its metadata record.
//
// Golden, DivineShield and Reborn are never detected and are always false.
type Minion struct {
	Position     int    `json:"position"`
	Name         string `json:"name"`
	Attack       int    `json:"attack"`
	Health       int    `json:"health"`
	Tier         int    `json:"tier"`
	Tribe        string `json:"tribe"`
	Golden       bool   `json:"golden"`
	DivineShield bool   `json:"divine_shield"`
	Reborn       bool   `json:"reborn"`
}

// EntityName implements Entity.
func (m Minion) EntityName() string { return m.Name }

// Hero is the player's hero. Health and armor are not read from the screen.
type Hero struct {
	Name   string `json:"name"`
	Health int    `json:"health"`
	Armor  int    `json:"armor"`
}

// EntityName implements Entity.
func (h Hero) EntityName() string { return h.Name }
