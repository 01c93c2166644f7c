package imaging

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrEmptyFrame is returned when a frame would have no pixels.
var ErrEmptyFrame = errors.New("imaging: frame has no pixels")

// Frame is one captured screen image. A frame is owned by the pipeline cycle
// that captured it and is never modified after construction.
type Frame struct {
	img image.Image
}

// NewFrame wraps a decoded image as a frame.
//
// The image must not be mutated afterwards; callers that keep writing to the
// source buffer should pass a copy.
func NewFrame(img image.Image) (*Frame, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyFrame
	}
	return &Frame{img: img}, nil
}

// OpenFrame decodes the image file at path into a new frame. Every call
// decodes again, so frames opened from the same file never share pixels.
func OpenFrame(path string) (*Frame, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load frame %s: %w", path, err)
	}
	return NewFrame(img)
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.img.Bounds().Dx() }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.img.Bounds().Dy() }
