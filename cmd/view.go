package cmd

import (
	"github.com/achilleasa/heartglow/renderer"
	"github.com/urfave/cli"
)

// Open a window and render the scene interactively.
func View(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	surface, err := renderer.NewWindowSurface(renderer.WindowOptions{
		Title:  cfg.Window.Title,
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		VSync:  cfg.Window.VSync,
	})
	if err != nil {
		return err
	}
	defer surface.Close()

	engine, err := runScene(surface, cfg, false)
	if engine != nil {
		engine.Close()
	}
	return err
}
