package renderer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/achilleasa/heartglow/log"
	"github.com/achilleasa/heartglow/scene"
)

const (
	driverIdle uint32 = iota
	driverRunning
)

// The Driver renders the current scene once per surface tick and reconciles
// the engine viewport on resize notifications.
type Driver struct {
	logger  log.Logger
	engine  *Engine
	current func() *scene.Scene

	state atomic.Uint32

	mu    sync.Mutex
	stats FrameStats
}

// NewDriver creates an idle driver. current is called on every tick and may
// return a different scene each time.
func NewDriver(engine *Engine, current func() *scene.Scene) *Driver {
	return &Driver{
		logger:  log.New("driver"),
		engine:  engine,
		current: current,
	}
}

// Running returns true once Run has been called.
func (d *Driver) Running() bool {
	return d.state.Load() == driverRunning
}

// Run starts the frame loop and blocks until the surface loop ends. It may
// only be called once.
func (d *Driver) Run(ctx context.Context) error {
	if !d.state.CompareAndSwap(driverIdle, driverRunning) {
		return ErrAlreadyRunning
	}

	d.logger.Notice("frame loop started")
	err := d.engine.Surface().Run(ctx, d.tick, d.resize)
	d.logger.Noticef("frame loop exited after %d frames", d.Stats().Frames)
	return err
}

func (d *Driver) tick() error {
	sc := d.current()
	if sc == nil {
		d.mu.Lock()
		d.stats.Skipped++
		d.mu.Unlock()
		return nil
	}

	start := time.Now()
	if err := d.engine.Render(sc); err != nil {
		return err
	}
	took := time.Since(start)

	d.mu.Lock()
	d.stats.Frames++
	d.stats.LastFrameTime = took
	d.stats.TotalFrameTime += took
	d.stats.SceneVersion = sc.Version()
	d.mu.Unlock()
	return nil
}

func (d *Driver) resize() {
	if !d.engine.Resize() {
		return
	}
	d.mu.Lock()
	d.stats.Resizes++
	d.mu.Unlock()
}

// Stats returns a copy of the frame statistics.
func (d *Driver) Stats() FrameStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}
