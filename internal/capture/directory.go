// Package capture provides frame sources for the recognition pipeline.
//
// Live screen capture is platform specific and lives outside this module;
// DirectorySource replays recorded screenshots so the rest of the pipeline
// can run anywhere.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ironsheep/tavern-watch/internal/imaging"
)

// ErrNoFrames is returned when a frame directory contains no images.
var ErrNoFrames = errors.New("capture: no frames found")

// DirectorySource cycles through the image files of a directory in name
// order, wrapping around after the last one. Each capture decodes its file
// again; frames are not kept between captures.
type DirectorySource struct {
	dir   string
	paths []string

	mu   sync.Mutex
	next int
}

// NewDirectorySource lists dir once. An empty directory is accepted; every
// Capture then fails with ErrNoFrames.
func NewDirectorySource(dir string) (*DirectorySource, error) {
	paths, err := imaging.ListImages(dir)
	if err != nil {
		return nil, fmt.Errorf("capture: list frames in %s: %w", dir, err)
	}
	return &DirectorySource{dir: dir, paths: paths}, nil
}

// Len returns the number of frames in the rotation.
func (s *DirectorySource) Len() int { return len(s.paths) }

// Capture returns the next frame.
func (s *DirectorySource) Capture(ctx context.Context) (*imaging.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(s.paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFrames, s.dir)
	}

	s.mu.Lock()
	path := s.paths[s.next]
	s.next = (s.next + 1) % len(s.paths)
	s.mu.Unlock()

	return imaging.OpenFrame(path)
}
