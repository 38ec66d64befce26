package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/achilleasa/heartglow/asset"
	"github.com/achilleasa/heartglow/builder"
	"github.com/achilleasa/heartglow/config"
	"github.com/achilleasa/heartglow/renderer"
	"github.com/achilleasa/heartglow/scene"
)

// runScene binds an engine to surface, builds the scene and drives the frame
// loop until the surface loop ends or the process is interrupted.
func runScene(surface renderer.Surface, cfg config.Config, waitAssets bool) (*renderer.Engine, error) {
	engine, err := renderer.NewEngine(surface)
	if err != nil {
		return nil, err
	}

	loader := asset.NewLoader(cfg.Loader.Timeout.Duration)
	sc := builder.BuildScene(engine, loader, cfg.Scene)
	if waitAssets {
		logger.Notice("waiting for asset loads to complete")
		if err := loader.Wait(); err != nil {
			logger.Warningf("continuing with a partial scene: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := renderer.NewDriver(engine, func() *scene.Scene { return sc })
	err = driver.Run(ctx)
	logger.Noticef("frame statistics\n%s", driver.Stats().Table())

	if n := len(loader.Errors()); n != 0 {
		logger.Warningf("%d asset load(s) failed", n)
	}

	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return engine, err
}
