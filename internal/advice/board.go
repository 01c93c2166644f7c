package advice

import (
	"fmt"

	"github.com/ironsheep/tavern-watch/internal/gamestate"
)

// Board strength ratings.
const (
	StrengthVeryStrong = "very strong"
	StrengthStrong     = "strong"
	StrengthMedium     = "medium"
	StrengthWeak       = "weak"
	StrengthVeryWeak   = "very weak"
)

// TribeNeutral is reported for minions without a tribe.
const TribeNeutral = "neutral"

const fullBoard = 7

// TribeCount is the number of board minions of one tribe.
type TribeCount struct {
	Tribe string `json:"tribe"`
	Count int    `json:"count"`
}

// BoardAnalysis summarizes the player's board.
type BoardAnalysis struct {
	Composition string       `json:"current_composition"`
	Strength    string       `json:"strength"`
	Suggestions []string     `json:"suggestions"`
	Tribes      []TribeCount `json:"tribes"`
	MainTribe   string       `json:"main_tribe"`
	Minions     int          `json:"minions"`
	Golden      int          `json:"golden"`
	TotalAttack int          `json:"total_attack"`
	TotalHealth int          `json:"total_health"`
}

// AnalyzeBoard rates the board of snap. Tribes are listed in order of first
// appearance; the main tribe is the first one with the highest count.
func AnalyzeBoard(snap *gamestate.Snapshot) BoardAnalysis {
	board := snap.Board.Minions
	if len(board) == 0 {
		return BoardAnalysis{
			Composition: "empty board",
			Strength:    StrengthVeryWeak,
			Suggestions: []string{"buy minions as soon as possible", "consider upgrading the tavern"},
			Tribes:      []TribeCount{},
			MainTribe:   TribeNeutral,
		}
	}

	a := BoardAnalysis{Minions: len(board)}
	index := make(map[string]int)
	for _, m := range board {
		tribe := m.Tribe
		if tribe == "" {
			tribe = TribeNeutral
		}
		i, ok := index[tribe]
		if !ok {
			i = len(a.Tribes)
			index[tribe] = i
			a.Tribes = append(a.Tribes, TribeCount{Tribe: tribe})
		}
		a.Tribes[i].Count++

		if m.Golden {
			a.Golden++
		}
		a.TotalAttack += m.Attack
		a.TotalHealth += m.Health
	}

	top := a.Tribes[0]
	for _, tc := range a.Tribes[1:] {
		if tc.Count > top.Count {
			top = tc
		}
	}
	a.MainTribe = top.Tribe
	a.Composition = fmt.Sprintf("%s composition (%d)", top.Tribe, top.Count)
	a.Strength = strength(a.Minions, a.Golden)

	a.Suggestions = []string{}
	if a.Minions < fullBoard {
		a.Suggestions = append(a.Suggestions, "keep buying minions to fill the board")
	}
	if a.Golden == 0 {
		a.Suggestions = append(a.Suggestions, "look for a chance to make a golden minion")
	}
	if top.Tribe != TribeNeutral && top.Count >= 3 {
		a.Suggestions = append(a.Suggestions, "keep strengthening the "+top.Tribe+" composition")
	}
	return a
}

func strength(minions, golden int) string {
	switch {
	case minions >= 7 && golden >= 3:
		return StrengthVeryStrong
	case minions >= 5 && golden >= 1:
		return StrengthStrong
	case minions >= 3:
		return StrengthMedium
	}
	return StrengthWeak
}
