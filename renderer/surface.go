package renderer

import (
	"context"

	"github.com/achilleasa/heartglow/input"
	"github.com/achilleasa/heartglow/scene"
)

// A Surface is a display target an Engine can be bound to.
type Surface interface {
	// Size returns the current drawable dimensions in pixels. It is
	// re-read on every call.
	Size() (width, height int)

	// PixelRatio returns the ratio between drawable and logical pixels.
	PixelRatio() float32

	// CreateBackend allocates the drawing context for the surface.
	CreateBackend() (Backend, error)

	// AttachControl forwards surface input to h.
	AttachControl(h input.Handler)

	// Run invokes frame once per display tick and resize whenever the
	// surface dimensions change. It returns when the surface is closed,
	// its tick budget is exhausted or ctx is cancelled.
	Run(ctx context.Context, frame func() error, resize func()) error
}

// A Backend draws scene snapshots into the surface it was created for.
type Backend interface {
	// Viewport updates the drawable area.
	Viewport(width, height int)

	// Draw renders a snapshot, including any attached post-processing.
	Draw(snap *scene.Snapshot) error

	// Close releases backend resources.
	Close()
}
