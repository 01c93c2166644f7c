// Package imaging provides the pixel-level building blocks of the recognition
// pipeline: captured frames, the region-of-interest layout and its extractor,
// a decoded-image cache, and the floating-point colour planes that template
// correlation runs on.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. A region is described as
// (x, y, width, height); its pixels span [x, x+width) by [y, y+height).
//
// # Reference Resolution
//
// The region layout is defined against a single reference resolution
// (1920x1080). Frames of a different size are not rescaled: a region that does
// not fit inside the frame is reported as out of bounds rather than truncated.
//
// # Thread Safety
//
// Frame, Layout and Plane values are immutable once constructed and may be
// shared between goroutines. ImageCache is safe for concurrent use.
//
// # Error Handling
//
// Region extraction failures are returned as *RegionError, which wraps either
// ErrUnknownRegion or ErrOutOfBounds:
//
//	sub, err := layout.Extract(frame, imaging.RegionShop)
//	if errors.Is(err, imaging.ErrOutOfBounds) {
//	    // frame smaller than the reference layout
//	}
package imaging
