package matching

import (
	"image"
	"sync"

	"github.com/anthonynsimon/bild/transform"

	"github.com/ironsheep/tavern-watch/internal/imaging"
	"github.com/ironsheep/tavern-watch/internal/library"
)

// DefaultScales are the scale factors tried when none are configured.
var DefaultScales = []float64{0.8, 0.9, 1.0, 1.1, 1.2}

// Candidate is the best match of one template inside a region.
type Candidate struct {
	TemplateID string      `json:"template_id"`
	Confidence float64     `json:"confidence"`
	Position   image.Point `json:"position"`
	Size       image.Point `json:"size"`
}

// TemplateSource resolves template identifiers to reference images.
type TemplateSource interface {
	Template(id string) (*library.Template, bool)
}

type scaleKey struct {
	id    string
	scale float64
}

// Matcher scores templates from a TemplateSource against regions.
type Matcher struct {
	source TemplateSource
	scales []float64

	mu     sync.Mutex
	scaled map[scaleKey]*kernel
}

// New returns a matcher trying scales in the given order. An empty scale list
// selects DefaultScales.
func New(source TemplateSource, scales []float64) *Matcher {
	if len(scales) == 0 {
		scales = DefaultScales
	}
	return &Matcher{
		source: source,
		scales: append([]float64(nil), scales...),
		scaled: make(map[scaleKey]*kernel),
	}
}

// Scales returns a copy of the scale factors in evaluation order.
func (m *Matcher) Scales() []float64 {
	return append([]float64(nil), m.scales...)
}

// Match finds templateID inside region. It reports false when the template is
// unknown or no scale scores strictly above threshold.
func (m *Matcher) Match(region image.Image, templateID string, threshold float64) (Candidate, bool) {
	return m.MatchTarget(NewTarget(region), templateID, threshold)
}

// MatchTarget is Match against a region already prepared with NewTarget.
// Preparing once pays off when many templates are tried on the same region.
func (m *Matcher) MatchTarget(t *Target, templateID string, threshold float64) (Candidate, bool) {
	tmpl, ok := m.source.Template(templateID)
	if !ok || t.plane.Empty() {
		return Candidate{}, false
	}

	results := make([]scaleResult, 0, len(m.scales))
	for _, s := range m.scales {
		k := m.kernelFor(tmpl, s)
		if k == nil || k.width > t.plane.Width || k.height > t.plane.Height {
			continue
		}
		score, pos := t.correlate(k)
		results = append(results, scaleResult{
			score:    score,
			position: pos,
			size:     image.Pt(k.width, k.height),
		})
	}

	return selectBest(templateID, results, threshold)
}

type scaleResult struct {
	score    float64
	position image.Point
	size     image.Point
}

// selectBest keeps the highest score, preferring the earliest result on ties,
// and accepts it only above threshold.
func selectBest(templateID string, results []scaleResult, threshold float64) (Candidate, bool) {
	if len(results) == 0 {
		return Candidate{}, false
	}

	best := 0
	for i := 1; i < len(results); i++ {
		if results[i].score > results[best].score {
			best = i
		}
	}

	r := results[best]
	if !(r.score > threshold) {
		return Candidate{}, false
	}
	return Candidate{
		TemplateID: templateID,
		Confidence: r.score,
		Position:   r.position,
		Size:       r.size,
	}, true
}

// kernelFor returns the zero-mean template plane for one scale, or nil when
// the scale produces a non-positive dimension.
func (m *Matcher) kernelFor(tmpl *library.Template, scale float64) *kernel {
	key := scaleKey{id: tmpl.ID, scale: scale}

	m.mu.Lock()
	k, cached := m.scaled[key]
	m.mu.Unlock()
	if cached {
		return k
	}

	bounds := tmpl.Image.Bounds()
	width := int(float64(bounds.Dx()) * scale)
	height := int(float64(bounds.Dy()) * scale)
	if width > 0 && height > 0 {
		img := tmpl.Image
		if width != bounds.Dx() || height != bounds.Dy() {
			img = transform.Resize(tmpl.Image, width, height, transform.Linear)
		}
		k = newKernel(imaging.NewPlane(img))
	}

	m.mu.Lock()
	m.scaled[key] = k
	m.mu.Unlock()
	return k
}
