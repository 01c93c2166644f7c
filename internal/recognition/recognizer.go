// Package recognition turns screen regions into game entities and assembles
// them into snapshots.
//
// The Recognizer splits a region into equal-width slots and resolves the best
// matching template of each slot to a domain entity. The Builder runs the
// recognizer over the shop, board and hero regions of a frame and produces one
// gamestate.Message per frame.
package recognition

import (
	"image"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/tavern-watch/internal/gamestate"
	"github.com/ironsheep/tavern-watch/internal/library"
	"github.com/ironsheep/tavern-watch/internal/matching"
)

// Span is a half-open horizontal pixel range [Start, End).
type Span struct {
	Start int
	End   int
}

// Width returns the number of pixels in the span.
func (s Span) Width() int { return s.End - s.Start }

// Partition splits width into count contiguous slots of width/count pixels
// (integer division). Remainder pixels after the last slot belong to no slot.
func Partition(width, count int) []Span {
	if count <= 0 || width < 0 {
		return nil
	}
	slotWidth := width / count
	spans := make([]Span, count)
	for i := range spans {
		spans[i] = Span{Start: i * slotWidth, End: (i + 1) * slotWidth}
	}
	return spans
}

// Recognizer resolves template matches to entities.
type Recognizer struct {
	lib     *library.Library
	matcher *matching.Matcher
}

// NewRecognizer returns a recognizer matching templates from lib.
func NewRecognizer(lib *library.Library, matcher *matching.Matcher) *Recognizer {
	return &Recognizer{lib: lib, matcher: matcher}
}

// Recognize returns one entry per slot, left to right. An entry is nil when
// no template of the category scores above threshold in that slot, or when
// the winning template's name has no metadata record.
func (r *Recognizer) Recognize(region image.Image, category library.Category, slotCount int, threshold float64) []gamestate.Entity {
	spans := Partition(region.Bounds().Dx(), slotCount)
	results := make([]gamestate.Entity, len(spans))

	ids := r.lib.TemplateIDs(category.Prefix())
	if len(ids) == 0 {
		return results
	}

	bounds := region.Bounds()
	for i, span := range spans {
		if span.Width() == 0 {
			continue
		}
		slot := imaging.Crop(region, image.Rect(
			bounds.Min.X+span.Start, bounds.Min.Y,
			bounds.Min.X+span.End, bounds.Max.Y,
		))

		best, ok := r.bestMatch(matching.NewTarget(slot), ids, threshold)
		if !ok {
			continue
		}
		if e, ok := r.resolve(category, best.TemplateID, i); ok {
			results[i] = e
		}
	}
	return results
}

// bestMatch returns the highest-confidence candidate among ids. Earlier ids
// win ties.
func (r *Recognizer) bestMatch(target *matching.Target, ids []string, threshold float64) (matching.Candidate, bool) {
	var best matching.Candidate
	found := false
	for _, id := range ids {
		c, ok := r.matcher.MatchTarget(target, id, threshold)
		if !ok {
			continue
		}
		if !found || c.Confidence > best.Confidence {
			best = c
			found = true
		}
	}
	return best, found
}

func (r *Recognizer) resolve(category library.Category, templateID string, position int) (gamestate.Entity, bool) {
	name := strings.TrimPrefix(templateID, category.Prefix())

	switch category {
	case library.CategoryMinion:
		rec, ok := r.lib.Minion(name)
		if !ok {
			return nil, false
		}
		return gamestate.Minion{
			Position: position,
			Name:     name,
			Attack:   rec.Attack,
			Health:   rec.Health,
			Tier:     rec.Tier,
			Tribe:    rec.Tribe,
		}, true

	case library.CategoryHero:
		if _, ok := r.lib.Hero(name); !ok {
			return nil, false
		}
		return gamestate.Hero{
			Name:   name,
			Health: gamestate.DefaultHeroHealth,
			Armor:  gamestate.DefaultHeroArmor,
		}, true
	}
	return nil, false
}
