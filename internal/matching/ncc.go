package matching

import (
	"image"
	"math"

	"github.com/ironsheep/tavern-watch/internal/imaging"
)

// minEnergy is the centred energy below which a window or template counts as flat.
const minEnergy = 1e-9

// kernel is a template plane with its per-channel mean removed.
type kernel struct {
	width    int
	height   int
	centered []float64
	energy   float64
}

func newKernel(p *imaging.Plane) *kernel {
	n := float64(p.Width * p.Height)

	var mean [imaging.Channels]float64
	for i, v := range p.Pix {
		mean[i%imaging.Channels] += v
	}
	for c := range mean {
		mean[c] /= n
	}

	k := &kernel{
		width:    p.Width,
		height:   p.Height,
		centered: make([]float64, len(p.Pix)),
	}
	for i, v := range p.Pix {
		d := v - mean[i%imaging.Channels]
		k.centered[i] = d
		k.energy += d * d
	}
	return k
}

// Target is a region prepared for correlation: its plane plus integral images
// of each channel and of the squared values.
type Target struct {
	plane *imaging.Plane
	sum   [imaging.Channels][]float64
	sumSq []float64
}

// NewTarget converts region into a plane and builds its integral images.
func NewTarget(region image.Image) *Target {
	p := imaging.NewPlane(region)
	stride := p.Width + 1
	size := stride * (p.Height + 1)

	t := &Target{plane: p, sumSq: make([]float64, size)}
	for c := range t.sum {
		t.sum[c] = make([]float64, size)
	}

	for y := 0; y < p.Height; y++ {
		var row [imaging.Channels]float64
		var rowSq float64
		for x := 0; x < p.Width; x++ {
			base := (y*p.Width + x) * imaging.Channels
			for c := 0; c < imaging.Channels; c++ {
				v := p.Pix[base+c]
				row[c] += v
				rowSq += v * v
			}
			i := (y+1)*stride + x + 1
			up := y*stride + x + 1
			for c := range t.sum {
				t.sum[c][i] = t.sum[c][up] + row[c]
			}
			t.sumSq[i] = t.sumSq[up] + rowSq
		}
	}
	return t
}

func (t *Target) windowSum(s []float64, u, v, w, h int) float64 {
	stride := t.plane.Width + 1
	return s[(v+h)*stride+u+w] - s[v*stride+u+w] - s[(v+h)*stride+u] + s[v*stride+u]
}

// correlate returns the best score of k over all placements and its
// top-left position. k must fit inside the target.
func (t *Target) correlate(k *kernel) (float64, image.Point) {
	p := t.plane
	n := float64(k.width * k.height)
	rowLen := k.width * imaging.Channels

	best := math.Inf(-1)
	var bestPos image.Point

	for v := 0; v+k.height <= p.Height; v++ {
		for u := 0; u+k.width <= p.Width; u++ {
			score := 0.0

			windowEnergy := t.windowSum(t.sumSq, u, v, k.width, k.height)
			for c := range t.sum {
				s := t.windowSum(t.sum[c], u, v, k.width, k.height)
				windowEnergy -= s * s / n
			}

			if k.energy > minEnergy && windowEnergy > minEnergy {
				var cross float64
				for y := 0; y < k.height; y++ {
					trow := k.centered[y*rowLen : (y+1)*rowLen]
					start := ((v+y)*p.Width + u) * imaging.Channels
					irow := p.Pix[start : start+rowLen]
					for i, tv := range trow {
						cross += tv * irow[i]
					}
				}
				score = clampUnit(cross / math.Sqrt(k.energy*windowEnergy))
			}

			if score > best {
				best = score
				bestPos = image.Pt(u, v)
			}
		}
	}
	return best, bestPos
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
