package cmd

import (
	"errors"
	"image/png"
	"os"

	"github.com/achilleasa/heartglow/renderer"
	"github.com/urfave/cli"
)

// Render the scene without a window and save the last frame.
func Headless(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	surface, err := renderer.NewHeadlessSurface(renderer.HeadlessOptions{
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		Hz:     cfg.Headless.Hz,
		Ticks:  cfg.Headless.Frames,
	})
	if err != nil {
		return err
	}

	engine, err := runScene(surface, cfg, ctx.Bool("wait-assets"))
	if engine != nil {
		defer engine.Close()
	}
	if err != nil {
		return err
	}

	return writeFrame(surface, cfg.Headless.Out)
}

func writeFrame(surface *renderer.HeadlessSurface, imgFile string) error {
	if imgFile == "" {
		return nil
	}

	frame := surface.Frame()
	if frame == nil {
		return errors.New("no frame rendered")
	}

	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = png.Encode(f, frame); err != nil {
		return err
	}
	logger.Noticef("wrote %dx%d frame to %s", frame.Rect.Dx(), frame.Rect.Dy(), imgFile)
	return nil
}
