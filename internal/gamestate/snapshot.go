package gamestate

import (
	"encoding/json"
	"time"
)

// Values used for fields the pipeline does not read from the screen.
const (
	DefaultTavernTier = 6
	DefaultGold       = 10
	DefaultTurn       = 1
	DefaultHeroName   = "Unknown"
	DefaultHeroHealth = 30
	DefaultHeroArmor  = 0
)

// Field paths listed in Snapshot.Defaulted.
const (
	FieldTavernTier = "tavern_tier"
	FieldGold       = "gold"
	FieldTurn       = "turn"
	FieldHeroName   = "hero.name"
	FieldHeroHealth = "hero.health"
	FieldHeroArmor  = "hero.armor"
	FieldShopFrozen = "shop.frozen"
)

// TimestampLayout is the wire format of every timestamp.
const TimestampLayout = time.RFC3339Nano

// DefaultHero is the hero reported when none is recognized.
func DefaultHero() Hero {
	return Hero{Name: DefaultHeroName, Health: DefaultHeroHealth, Armor: DefaultHeroArmor}
}

// Message is anything published to subscribers: a *Snapshot or a *Failure.
type Message interface {
	Time() time.Time
	IsFailure() bool
	Encode() ([]byte, error)
}

// Shop is the tavern shop row.
type Shop struct {
	Frozen  bool     `json:"frozen"`
	Minions []Minion `json:"minions"`
}

// Board is the player's warband.
type Board struct {
	Minions []Minion `json:"minions"`
}

// Snapshot is one reconstruction of game state. Every field is always
// present; fields that were not recognized hold their documented default and
// are named in Defaulted. The golden, divine_shield and reborn flags of every
// minion are never detected and are always false.
type Snapshot struct {
	Timestamp  time.Time
	TavernTier int
	Gold       int
	Turn       int
	Hero       Hero
	Shop       Shop
	Board      Board
	Defaulted  []string
}

// NewSnapshot assembles a snapshot at ts from the recognized entities. A nil
// hero selects DefaultHero. Tavern tier, gold, turn, hero health, hero armor
// and the shop's frozen flag are always defaults.
func NewSnapshot(ts time.Time, hero *Hero, shop, board []Minion) *Snapshot {
	s := &Snapshot{
		Timestamp:  ts,
		TavernTier: DefaultTavernTier,
		Gold:       DefaultGold,
		Turn:       DefaultTurn,
		Hero:       DefaultHero(),
		Shop:       Shop{Minions: nonNil(shop)},
		Board:      Board{Minions: nonNil(board)},
		Defaulted:  []string{FieldTavernTier, FieldGold, FieldTurn},
	}
	if hero != nil {
		s.Hero.Name = hero.Name
	} else {
		s.Defaulted = append(s.Defaulted, FieldHeroName)
	}
	s.Defaulted = append(s.Defaulted, FieldHeroHealth, FieldHeroArmor, FieldShopFrozen)
	return s
}

func nonNil(m []Minion) []Minion {
	if m == nil {
		return []Minion{}
	}
	return m
}

// Time implements Message.
func (s *Snapshot) Time() time.Time { return s.Timestamp }

// IsFailure implements Message.
func (s *Snapshot) IsFailure() bool { return false }

// Encode implements Message.
func (s *Snapshot) Encode() ([]byte, error) { return json.Marshal(s) }

type snapshotWire struct {
	Timestamp  string   `json:"timestamp"`
	TavernTier int      `json:"tavern_tier"`
	Gold       int      `json:"gold"`
	Turn       int      `json:"turn"`
	Hero       Hero     `json:"hero"`
	Shop       Shop     `json:"shop"`
	Board      Board    `json:"board"`
	Defaulted  []string `json:"defaulted"`
}

// MarshalJSON writes the snapshot wire format.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotWire{
		Timestamp:  FormatTimestamp(s.Timestamp),
		TavernTier: s.TavernTier,
		Gold:       s.Gold,
		Turn:       s.Turn,
		Hero:       s.Hero,
		Shop:       Shop{Frozen: s.Shop.Frozen, Minions: nonNil(s.Shop.Minions)},
		Board:      Board{Minions: nonNil(s.Board.Minions)},
		Defaulted:  append([]string{}, s.Defaulted...),
	})
}

// UnmarshalJSON reads the snapshot wire format.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var w snapshotWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	ts, err := time.Parse(TimestampLayout, w.Timestamp)
	if err != nil {
		return err
	}
	*s = Snapshot{
		Timestamp:  ts,
		TavernTier: w.TavernTier,
		Gold:       w.Gold,
		Turn:       w.Turn,
		Hero:       w.Hero,
		Shop:       w.Shop,
		Board:      w.Board,
		Defaulted:  w.Defaulted,
	}
	return nil
}

// FormatTimestamp renders t in the wire format, in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
