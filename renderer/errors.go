package renderer

import (
	"errors"
	"fmt"
)

var (
	ErrInitialization = errors.New("renderer: initialization failed")
	ErrNoBackend      = fmt.Errorf("%w: no rendering backend available", ErrInitialization)
	ErrNilSurface     = fmt.Errorf("%w: nil surface", ErrInitialization)
	ErrSurfaceValue   = fmt.Errorf("%w: surface must be a pointer", ErrInitialization)
	ErrSurfaceInUse   = fmt.Errorf("%w: surface already bound to an engine", ErrInitialization)

	ErrEngineClosed    = errors.New("renderer: engine closed")
	ErrSceneNotDefined = errors.New("renderer: no scene defined")
	ErrAlreadyRunning  = errors.New("renderer: frame driver already running")
)
