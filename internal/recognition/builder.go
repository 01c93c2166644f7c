package recognition

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ironsheep/tavern-watch/internal/gamestate"
	"github.com/ironsheep/tavern-watch/internal/imaging"
	"github.com/ironsheep/tavern-watch/internal/library"
)

// heroSlots is the slot count of the hero region.
const heroSlots = 1

// BuilderConfig configures a Builder.
type BuilderConfig struct {
	// Threshold is the minimum confidence (exclusive) for any match (default: 0.6).
	Threshold float64

	// ShopSlots is the slot count of both the shop and board regions (default: 7).
	ShopSlots int

	// Layout locates regions in the frame (default: imaging.DefaultLayout()).
	Layout *imaging.Layout

	// Clock supplies snapshot timestamps (default: time.Now).
	Clock func() time.Time

	Logger *slog.Logger
}

func (c *BuilderConfig) defaults() {
	if c.Threshold <= 0 {
		c.Threshold = 0.6
	}
	if c.ShopSlots <= 0 {
		c.ShopSlots = 7
	}
	if c.Layout == nil {
		c.Layout = imaging.DefaultLayout()
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Builder assembles snapshots from frames.
type Builder struct {
	rec *Recognizer
	cfg BuilderConfig

	mu   sync.Mutex
	last time.Time
}

// NewBuilder returns a builder recognizing entities with rec.
func NewBuilder(rec *Recognizer, cfg BuilderConfig) *Builder {
	cfg.defaults()
	return &Builder{rec: rec, cfg: cfg}
}

// Build recognizes the shop, board and hero regions of f. It never fails: a
// region that cannot be extracted, or a panic during recognition, produces a
// *gamestate.Failure instead of a *gamestate.Snapshot.
//
// The board is recognized with the same slot count and threshold as the shop.
// Slots without a resolved minion are dropped from the lists.
func (b *Builder) Build(f *imaging.Frame) (msg gamestate.Message) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("snapshot builder panic: %v", r)
			b.cfg.Logger.Error("build snapshot", "error", err)
			msg = gamestate.NewFailure(b.timestamp(), err)
		}
	}()

	layout := b.cfg.Layout
	shop, err := layout.Extract(f, imaging.RegionShop)
	if err != nil {
		return b.fail(err)
	}
	board, err := layout.Extract(f, imaging.RegionBoard)
	if err != nil {
		return b.fail(err)
	}
	heroRegion, err := layout.Extract(f, imaging.RegionHero)
	if err != nil {
		return b.fail(err)
	}

	thr := b.cfg.Threshold
	shopMinions := minions(b.rec.Recognize(shop, library.CategoryMinion, b.cfg.ShopSlots, thr))
	boardMinions := minions(b.rec.Recognize(board, library.CategoryMinion, b.cfg.ShopSlots, thr))

	var hero *gamestate.Hero
	for _, e := range b.rec.Recognize(heroRegion, library.CategoryHero, heroSlots, thr) {
		if h, ok := e.(gamestate.Hero); ok {
			hero = &h
			break
		}
	}

	return gamestate.NewSnapshot(b.timestamp(), hero, shopMinions, boardMinions)
}

func (b *Builder) fail(err error) *gamestate.Failure {
	b.cfg.Logger.Warn("build snapshot", "error", err)
	return gamestate.NewFailure(b.timestamp(), err)
}

// timestamp returns the clock reading, never earlier than the previous one.
func (b *Builder) timestamp() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.cfg.Clock()
	if now.Before(b.last) {
		now = b.last
	}
	b.last = now
	return now
}

func minions(entities []gamestate.Entity) []gamestate.Minion {
	out := make([]gamestate.Minion, 0, len(entities))
	for _, e := range entities {
		if m, ok := e.(gamestate.Minion); ok {
			out = append(out, m)
		}
	}
	return out
}
