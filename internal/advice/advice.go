// Package advice derives canned coaching hints from a snapshot.
package advice

import (
	"fmt"

	"github.com/ironsheep/tavern-watch/internal/gamestate"
)

// Kind selects the advice topic.
type Kind string

const (
	KindBuy      Kind = "buy"
	KindPosition Kind = "position"
	KindUpgrade  Kind = "upgrade"
	KindGeneral  Kind = "general"
)

// Kinds lists the supported advice kinds.
var Kinds = []Kind{KindBuy, KindPosition, KindUpgrade, KindGeneral}

// Priority ranks a piece of advice.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// maxTavernTier is the highest tavern tier.
const maxTavernTier = 6

// Advice is one recommendation.
type Advice struct {
	Advice   string   `json:"advice"`
	Reason   string   `json:"reason"`
	Priority Priority `json:"priority"`
}

// Advise returns the recommendation of the given kind for snap. Unknown kinds
// produce a low-priority "invalid advice type" result rather than an error.
func Advise(snap *gamestate.Snapshot, kind Kind) Advice {
	switch kind {
	case KindBuy:
		return adviseBuy(snap)
	case KindPosition:
		return advisePosition(snap)
	case KindUpgrade:
		return adviseUpgrade(snap)
	case KindGeneral:
		return Advice{
			Advice: fmt.Sprintf("%d minions in shop, %d on board",
				len(snap.Shop.Minions), len(snap.Board.Minions)),
			Reason:   "summary of the current snapshot",
			Priority: PriorityMedium,
		}
	}
	return Advice{
		Advice:   "invalid advice type",
		Reason:   fmt.Sprintf("unsupported advice type: %q", string(kind)),
		Priority: PriorityLow,
	}
}

func adviseBuy(snap *gamestate.Snapshot) Advice {
	shop := snap.Shop.Minions
	if len(shop) == 0 {
		return Advice{
			Advice:   "refresh the shop",
			Reason:   "no minions recognized in the shop",
			Priority: PriorityMedium,
		}
	}

	best := shop[0]
	for _, m := range shop[1:] {
		if m.Tier > best.Tier {
			best = m
		}
	}
	return Advice{
		Advice:   "buy " + best.Name,
		Reason:   fmt.Sprintf("highest tier minion in the shop (tier %d)", best.Tier),
		Priority: PriorityHigh,
	}
}

func advisePosition(snap *gamestate.Snapshot) Advice {
	if len(snap.Board.Minions) == 0 {
		return Advice{
			Advice:   "no positioning needed",
			Reason:   "the board is empty",
			Priority: PriorityLow,
		}
	}
	return Advice{
		Advice:   "put divine shield minions in front and high attack minions in the back",
		Reason:   "protects shields and maximizes damage",
		Priority: PriorityMedium,
	}
}

func adviseUpgrade(snap *gamestate.Snapshot) Advice {
	tier := snap.TavernTier
	if tier < maxTavernTier {
		return Advice{
			Advice:   fmt.Sprintf("upgrade the tavern to tier %d", tier+1),
			Reason:   "higher tiers offer stronger minions",
			Priority: PriorityHigh,
		}
	}
	return Advice{
		Advice:   "no upgrade available",
		Reason:   fmt.Sprintf("tavern is already at tier %d", maxTavernTier),
		Priority: PriorityLow,
	}
}
