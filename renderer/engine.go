package renderer

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/achilleasa/heartglow/input"
	"github.com/achilleasa/heartglow/log"
	"github.com/achilleasa/heartglow/scene"
)

var (
	boundMu       sync.Mutex
	boundSurfaces = map[Surface]*Engine{}
)

// An Engine owns the rendering backend bound to exactly one Surface.
type Engine struct {
	logger  log.Logger
	surface Surface
	backend Backend

	mu      sync.Mutex
	width   int
	height  int
	resizes uint64
	closed  bool
}

// NewEngine binds a new engine to surface and applies the initial viewport.
// Surfaces must be pointer types; a surface can only be bound once.
func NewEngine(surface Surface) (*Engine, error) {
	if isNil(surface) {
		return nil, ErrNilSurface
	}
	if reflect.ValueOf(surface).Kind() != reflect.Ptr {
		return nil, ErrSurfaceValue
	}

	boundMu.Lock()
	defer boundMu.Unlock()
	if _, exists := boundSurfaces[surface]; exists {
		return nil, ErrSurfaceInUse
	}

	backend, err := surface.CreateBackend()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	e := &Engine{
		logger:  log.New("engine"),
		surface: surface,
		backend: backend,
	}
	e.width, e.height = surface.Size()
	backend.Viewport(e.width, e.height)
	boundSurfaces[surface] = e

	e.logger.Infof("bound engine to %dx%d surface (pixel ratio %.2f)", e.width, e.height, surface.PixelRatio())
	return e, nil
}

func isNil(surface Surface) bool {
	if surface == nil {
		return true
	}
	v := reflect.ValueOf(surface)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// Surface returns the surface the engine is bound to.
func (e *Engine) Surface() Surface {
	return e.surface
}

// AttachControl forwards surface input to h.
func (e *Engine) AttachControl(h input.Handler) {
	e.surface.AttachControl(h)
}

// Size returns the last applied surface dimensions.
func (e *Engine) Size() (width, height int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.width, e.height
}

// AspectRatio returns width / height of the last applied dimensions.
func (e *Engine) AspectRatio() float32 {
	w, h := e.Size()
	if h == 0 {
		return 1
	}
	return float32(w) / float32(h)
}

// Resizes returns the number of viewport changes applied so far.
func (e *Engine) Resizes() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resizes
}

// Resize reconciles the viewport with the current surface dimensions. It is a
// no-op returning false if the dimensions did not change.
func (e *Engine) Resize() bool {
	w, h := e.surface.Size()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || (w == e.width && h == e.height) {
		return false
	}

	e.logger.Debugf("resize %dx%d -> %dx%d", e.width, e.height, w, h)
	e.width, e.height = w, h
	e.resizes++
	e.backend.Viewport(w, h)
	return true
}

// Render draws the current state of sc.
func (e *Engine) Render(sc *scene.Scene) error {
	if sc == nil {
		return ErrSceneNotDefined
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}

	snap := sc.Snapshot()
	if snap.Camera != nil && e.height > 0 {
		snap.Camera.SetupProjection(float32(e.width) / float32(e.height))
	}
	return e.backend.Draw(snap)
}

// Close releases the backend and unbinds the surface.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.backend.Close()
	e.mu.Unlock()

	boundMu.Lock()
	delete(boundSurfaces, e.surface)
	boundMu.Unlock()
}
