package imaging

import (
	"image"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Channels is the number of colour channels stored per plane pixel.
const Channels = 3

// Plane is an image converted to floating-point RGB, each channel in [0,1].
//
// Pixels are stored row-major with the three channels interleaved, so the
// value of channel c at (x, y) is Pix[(y*Width+x)*Channels+c].
type Plane struct {
	Width  int
	Height int
	Pix    []float64
}

// NewPlane converts img into a plane. The plane's (0,0) corresponds to
// img.Bounds().Min.
//
// Transparent pixels convert to black, matching how the alpha channel is
// discarded when templates are decoded.
func NewPlane(img image.Image) *Plane {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	p := &Plane{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height*Channels),
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c, _ := colorful.MakeColor(img.At(x, y))
			p.Pix[i] = c.R
			p.Pix[i+1] = c.G
			p.Pix[i+2] = c.B
			i += Channels
		}
	}
	return p
}

// Empty reports whether the plane has no pixels.
func (p *Plane) Empty() bool {
	return p == nil || p.Width <= 0 || p.Height <= 0
}
