package imaging

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/disintegration/imaging"
)

// Reference resolution the default layout is defined against.
const (
	ReferenceWidth  = 1920
	ReferenceHeight = 1080
)

// Region names of the default layout.
const (
	RegionShop       = "shop"
	RegionBoard      = "board"
	RegionHero       = "hero"
	RegionGold       = "gold"
	RegionTavernTier = "tavern_tier"
	RegionTurn       = "turn"
)

var (
	// ErrUnknownRegion means the region name is not part of the layout.
	ErrUnknownRegion = errors.New("imaging: unknown region")

	// ErrOutOfBounds means the region rectangle does not fit inside the frame.
	ErrOutOfBounds = errors.New("imaging: region out of frame bounds")
)

// RegionError reports a failed region lookup or extraction.
type RegionError struct {
	Region string
	Err    error
}

func (e *RegionError) Error() string {
	return fmt.Sprintf("region %q: %v", e.Region, e.Err)
}

func (e *RegionError) Unwrap() error { return e.Err }

// Rect is a region rectangle: top-left corner plus size.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rectangle converts r to an image.Rectangle anchored at origin.
func (r Rect) Rectangle(origin image.Point) image.Rectangle {
	tl := origin.Add(image.Pt(r.X, r.Y))
	return image.Rectangle{Min: tl, Max: tl.Add(image.Pt(r.Width, r.Height))}
}

// Layout is an immutable table of named regions.
type Layout struct {
	regions map[string]Rect
}

// NewLayout copies regions into a new layout. Every region needs a
// non-negative origin and a positive size.
func NewLayout(regions map[string]Rect) (*Layout, error) {
	l := &Layout{regions: make(map[string]Rect, len(regions))}
	for name, r := range regions {
		if r.X < 0 || r.Y < 0 || r.Width <= 0 || r.Height <= 0 {
			return nil, fmt.Errorf("invalid region %q: (%d,%d) %dx%d", name, r.X, r.Y, r.Width, r.Height)
		}
		l.regions[name] = r
	}
	return l, nil
}

// DefaultLayout returns the layout for a 1920x1080 game window.
func DefaultLayout() *Layout {
	l, err := NewLayout(map[string]Rect{
		RegionShop:       {X: 400, Y: 200, Width: 800, Height: 400},
		RegionBoard:      {X: 400, Y: 600, Width: 800, Height: 300},
		RegionHero:       {X: 100, Y: 800, Width: 200, Height: 200},
		RegionGold:       {X: 1600, Y: 800, Width: 100, Height: 50},
		RegionTavernTier: {X: 1600, Y: 700, Width: 100, Height: 50},
		RegionTurn:       {X: 1600, Y: 600, Width: 100, Height: 50},
	})
	if err != nil {
		panic(err)
	}
	return l
}

func (l *Layout) lookup(name string) (Rect, bool) {
	r, ok := l.regions[name]
	return r, ok
}

func (l *Layout) names() []string {
	names := make([]string, 0, len(l.regions))
	for name := range l.regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Extract copies the named region out of frame. The returned image has its
// origin at (0,0) and exactly the region's size.
//
// The region must lie entirely inside the frame; partial overlap is reported
// as ErrOutOfBounds instead of being clipped.
func (l *Layout) Extract(f *Frame, name string) (image.Image, error) {
	r, ok := l.lookup(name)
	if !ok {
		return nil, &RegionError{Region: name, Err: ErrUnknownRegion}
	}
	if f == nil {
		return nil, &RegionError{Region: name, Err: ErrEmptyFrame}
	}

	bounds := f.img.Bounds()
	rect := r.Rectangle(bounds.Min)
	if !rect.In(bounds) {
		return nil, &RegionError{
			Region: name,
			Err: fmt.Errorf("%w: (%d,%d)-(%d,%d) exceeds %dx%d frame", ErrOutOfBounds,
				r.X, r.Y, r.X+r.Width, r.Y+r.Height, bounds.Dx(), bounds.Dy()),
		}
	}

	return imaging.Crop(f.img, rect), nil
}
