package cmd

import (
	"bytes"
	"flag"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/achilleasa/heartglow/asset/envmap"
	"github.com/achilleasa/heartglow/asset/model"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/urfave/cli"
)

// Write a model with a single "Heart" mesh and a uniform environment texture.
func writeAssets(t *testing.T) (modelFile, envFile string) {
	t.Helper()
	dir := t.TempDir()

	doc := gltf.NewDocument()
	doc.Meshes = []*gltf.Mesh{{
		Name: "Heart",
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]int{
				gltf.POSITION: modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}),
			},
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: "Heart", Mesh: gltf.Index(0)}}
	doc.Scenes = []*gltf.Scene{{Nodes: []int{0}}}
	doc.Scene = gltf.Index(0)

	modelFile = filepath.Join(dir, "demo-heart.glb")
	if err := gltf.SaveBinary(doc, modelFile); err != nil {
		t.Fatal(err)
	}

	rgb := [3]float32{0.5, 0.5, 0.5}
	var buf bytes.Buffer
	if err := envmap.Encode(&buf, 4, map[string][3]float32{"l00": rgb}, envmap.Uniform(4, rgb)); err != nil {
		t.Fatal(err)
	}
	envFile = filepath.Join(dir, "peppermint_blue.env")
	if err := os.WriteFile(envFile, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return modelFile, envFile
}

func newTestApp() *cli.App {
	app := cli.NewApp()
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "v"},
		cli.BoolFlag{Name: "vv"},
		cli.StringFlag{Name: "log-level"},
	}
	app.Commands = []cli.Command{
		{
			Name:   "headless",
			Flags:  append(append([]cli.Flag{}, SceneFlags...), HeadlessFlags...),
			Action: Headless,
		},
		{
			Name:   "inspect",
			Flags:  SceneFlags,
			Action: Inspect,
		},
	}
	return app
}

func newFlagContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range append(append([]cli.Flag{}, SceneFlags...), HeadlessFlags...) {
		f.Apply(set)
	}
	if err := set.Parse(args); err != nil {
		t.Fatal(err)
	}
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(newFlagContext(t))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Window.Width != 1024 || cfg.Window.Height != 768 {
		t.Fatalf("expected default window size; got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Scene.TargetMesh != "Heart" || cfg.Scene.MaterialRoughness != 0.2 {
		t.Fatalf("expected default scene; got %+v", cfg.Scene)
	}
	if cfg.Loader.Timeout.Duration != 0 {
		t.Fatalf("expected no load timeout; got %s", cfg.Loader.Timeout)
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "heartglow.toml")
	data := []byte("[scene]\nmodel = \"from-file.glb\"\n\n[window]\nwidth = 640\n")
	if err := os.WriteFile(cfgFile, data, 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := newFlagContext(t,
		"--config", cfgFile,
		"--height", "480",
		"--environment", "studio.env",
		"--load-timeout", "5s",
		"--frames", "7",
	)
	cfg, err := loadConfig(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Scene.ModelURI != "from-file.glb" {
		t.Fatalf("expected model from config file; got %s", cfg.Scene.ModelURI)
	}
	if cfg.Window.Width != 640 || cfg.Window.Height != 480 {
		t.Fatalf("expected window 640x480; got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Scene.EnvironmentURI != "studio.env" {
		t.Fatalf("expected environment flag to win; got %s", cfg.Scene.EnvironmentURI)
	}
	if cfg.Loader.Timeout.Duration != 5*time.Second {
		t.Fatalf("expected 5s timeout; got %s", cfg.Loader.Timeout)
	}
	if cfg.Headless.Frames != 7 {
		t.Fatalf("expected 7 frames; got %d", cfg.Headless.Frames)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	if _, err := loadConfig(newFlagContext(t, "--width", "0")); err == nil {
		t.Fatal("expected an error for a zero width")
	}
}

func TestHeadlessCommand(t *testing.T) {
	modelFile, envFile := writeAssets(t)
	out := filepath.Join(t.TempDir(), "frame.png")

	err := newTestApp().Run([]string{
		"heartglow", "headless",
		"--model", modelFile,
		"--environment", envFile,
		"--width", "32",
		"--height", "24",
		"--hz", "1000",
		"--frames", "2",
		"--wait-assets",
		"--out", out,
	})
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 24 {
		t.Fatalf("expected 32x24 frame; got %v", b)
	}
}

func TestHeadlessCommandMissingModel(t *testing.T) {
	_, envFile := writeAssets(t)
	out := filepath.Join(t.TempDir(), "frame.png")

	// Asset failures degrade the scene but never fail the command
	err := newTestApp().Run([]string{
		"heartglow", "headless",
		"--model", filepath.Join(t.TempDir(), "missing.glb"),
		"--environment", envFile,
		"--width", "8",
		"--height", "8",
		"--hz", "1000",
		"--frames", "1",
		"--wait-assets",
		"--out", out,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err = os.Stat(out); err != nil {
		t.Fatalf("expected frame to be written; got %v", err)
	}
}

func TestInspectCommand(t *testing.T) {
	modelFile, envFile := writeAssets(t)

	err := newTestApp().Run([]string{
		"heartglow", "inspect",
		"--model", modelFile,
		"--environment", envFile,
	})
	if err != nil {
		t.Fatal(err)
	}

	err = newTestApp().Run([]string{
		"heartglow", "inspect",
		"--model", filepath.Join(t.TempDir(), "missing.glb"),
		"--environment", envFile,
	})
	if err == nil {
		t.Fatal("expected inspect to fail for a missing model")
	}
}

func TestModelAndEnvironmentTables(t *testing.T) {
	modelFile, envFile := writeAssets(t)

	data, err := os.ReadFile(envFile)
	if err != nil {
		t.Fatal(err)
	}
	tex, err := envmap.Decode("peppermint_blue.env", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if table := environmentTable(tex); !strings.Contains(table, "Mip levels") {
		t.Fatalf("unexpected environment table:\n%s", table)
	}

	data, err = os.ReadFile(modelFile)
	if err != nil {
		t.Fatal(err)
	}
	m, err := model.Import(modelFile, "demo-heart.glb", data)
	if err != nil {
		t.Fatal(err)
	}
	table := modelTable(m, "Heart")
	for _, exp := range []string{"Heart", "yes"} {
		if !strings.Contains(table, exp) {
			t.Errorf("expected model table to contain %q:\n%s", exp, table)
		}
	}
}
