//go:build !cgo

package renderer

import (
	"context"

	"github.com/achilleasa/heartglow/input"
)

// WindowSurface is unavailable in builds without cgo.
type WindowSurface struct{}

func NewWindowSurface(opts WindowOptions) (*WindowSurface, error) {
	return nil, ErrNoBackend
}

func (s *WindowSurface) Size() (int, int)                { return 0, 0 }
func (s *WindowSurface) PixelRatio() float32             { return 1 }
func (s *WindowSurface) CreateBackend() (Backend, error) { return nil, ErrNoBackend }
func (s *WindowSurface) AttachControl(h input.Handler)   {}
func (s *WindowSurface) Close()                          {}

func (s *WindowSurface) Run(ctx context.Context, frame func() error, resize func()) error {
	return ErrNoBackend
}
