package main

import (
	"os"
	"runtime"

	"github.com/achilleasa/heartglow/cmd"
	"github.com/achilleasa/heartglow/log"
	"github.com/urfave/cli"
)

func init() {
	// glfw event handling and GL calls must run on the main thread.
	runtime.LockOSThread()
}

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "heartglow"
	app.Usage = "render a glowing heart with image based lighting"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:   "log-level",
			Usage:  "log level (debug, info, notice, warning, error)",
			EnvVar: "HEARTGLOW_LOG_LEVEL",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "view",
			Usage: "render the scene in a window",
			Description: `
Open a window, compose the scene and render it until the window is closed.

Environment textures and the model are loaded in the background; the scene is
rendered without them until they arrive. Arrow keys move the camera (shift
doubles the speed), dragging with the left mouse button rotates it and Home
restores the initial view.`,
			Flags:  cmd.SceneFlags,
			Action: cmd.View,
		},
		{
			Name:  "headless",
			Usage: "render the scene without a window",
			Description: `
Render a fixed number of frames into an in-memory surface and save the last
frame as a png image.`,
			Flags:  append(append([]cli.Flag{}, cmd.SceneFlags...), cmd.HeadlessFlags...),
			Action: cmd.Headless,
		},
		{
			Name:   "inspect",
			Usage:  "fetch the scene assets and display their contents",
			Flags:  cmd.SceneFlags,
			Action: cmd.Inspect,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.New("heartglow").Error(err.Error())
		os.Exit(1)
	}
}
