package cmd

import (
	"github.com/achilleasa/heartglow/config"
	"github.com/urfave/cli"
)

// Flags shared by all commands that build the scene.
var SceneFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "config, c",
		Usage:  "TOML file overriding the built-in scene defaults",
		EnvVar: "HEARTGLOW_CONFIG",
	},
	cli.IntFlag{
		Name:   "width",
		Value:  1024,
		Usage:  "surface width",
		EnvVar: "HEARTGLOW_WIDTH",
	},
	cli.IntFlag{
		Name:   "height",
		Value:  768,
		Usage:  "surface height",
		EnvVar: "HEARTGLOW_HEIGHT",
	},
	cli.StringFlag{
		Name:   "model",
		Usage:  "glTF model location (file path or http(s) url)",
		EnvVar: "HEARTGLOW_MODEL",
	},
	cli.StringFlag{
		Name:   "environment",
		Usage:  "prefiltered .env environment texture location (file path or http(s) url)",
		EnvVar: "HEARTGLOW_ENVIRONMENT",
	},
	cli.DurationFlag{
		Name:   "load-timeout",
		Usage:  "abort asset loads that take longer than this; 0 disables the timeout",
		EnvVar: "HEARTGLOW_LOAD_TIMEOUT",
	},
}

// Flags specific to the headless command.
var HeadlessFlags = []cli.Flag{
	cli.IntFlag{
		Name:   "hz",
		Value:  60,
		Usage:  "frame rate",
		EnvVar: "HEARTGLOW_HZ",
	},
	cli.Uint64Flag{
		Name:   "frames",
		Value:  120,
		Usage:  "number of frames to render; 0 renders until interrupted",
		EnvVar: "HEARTGLOW_FRAMES",
	},
	cli.StringFlag{
		Name:   "out, o",
		Value:  "frame.png",
		Usage:  "image filename for the last rendered frame",
		EnvVar: "HEARTGLOW_OUT",
	},
	cli.BoolFlag{
		Name:   "wait-assets",
		Usage:  "wait for all asset loads before starting the frame loop",
		EnvVar: "HEARTGLOW_WAIT_ASSETS",
	},
}

// loadConfig merges the optional config file with any explicitly set flags.
func loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return cfg, err
	}

	if ctx.IsSet("width") {
		cfg.Window.Width = ctx.Int("width")
	}
	if ctx.IsSet("height") {
		cfg.Window.Height = ctx.Int("height")
	}
	if ctx.IsSet("model") {
		cfg.Scene.ModelURI = ctx.String("model")
	}
	if ctx.IsSet("environment") {
		cfg.Scene.EnvironmentURI = ctx.String("environment")
	}
	if ctx.IsSet("load-timeout") {
		cfg.Loader.Timeout.Duration = ctx.Duration("load-timeout")
	}
	if ctx.IsSet("hz") {
		cfg.Headless.Hz = ctx.Int("hz")
	}
	if ctx.IsSet("frames") {
		cfg.Headless.Frames = ctx.Uint64("frames")
	}
	if ctx.IsSet("out") {
		cfg.Headless.Out = ctx.String("out")
	}

	return cfg, cfg.Validate()
}
