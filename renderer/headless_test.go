package renderer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/achilleasa/heartglow/input"
	"github.com/achilleasa/heartglow/scene"
	"github.com/go-gl/mathgl/mgl32"
)

type countingPostProcess struct {
	cam     *scene.Camera
	applied int
}

func (pp *countingPostProcess) AttachedTo(cam *scene.Camera) bool { return cam == pp.cam }
func (pp *countingPostProcess) Apply(frame *image.RGBA) {
	pp.applied++
	frame.SetRGBA(0, 0, color.RGBA{1, 2, 3, 255})
}

type recordingHandler struct {
	keys  []input.Key
	drags int
}

func (h *recordingHandler) Key(key input.Key, mods input.Modifier)   { h.keys = append(h.keys, key) }
func (h *recordingHandler) Drag(button input.Button, dx, dy float32) { h.drags++ }

func TestHeadlessRunTickLimit(t *testing.T) {
	surface, err := NewHeadlessSurface(HeadlessOptions{Width: 4, Height: 4, Hz: 1000, Ticks: 5})
	if err != nil {
		t.Fatal(err)
	}

	frames := 0
	err = surface.Run(context.Background(), func() error { frames++; return nil }, func() {})
	if err != nil {
		t.Fatal(err)
	}
	if frames != 5 {
		t.Fatalf("expected 5 frames; got %d", frames)
	}
}

func TestHeadlessRunCancel(t *testing.T) {
	surface, err := NewHeadlessSurface(HeadlessOptions{Width: 4, Height: 4, Hz: 1000})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	frames := 0
	err = surface.Run(ctx, func() error { frames++; return nil }, func() {})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded; got %v", err)
	}
	if frames == 0 {
		t.Fatal("expected at least one frame before cancellation")
	}
}

func TestHeadlessRunFrameError(t *testing.T) {
	surface, err := NewHeadlessSurface(HeadlessOptions{Width: 4, Height: 4, Hz: 1000})
	if err != nil {
		t.Fatal(err)
	}

	expErr := errors.New("boom")
	err = surface.Run(context.Background(), func() error { return expErr }, func() {})
	if err != expErr {
		t.Fatalf("expected frame error to be returned; got %v", err)
	}
}

func TestHeadlessResizeNotification(t *testing.T) {
	surface, err := NewHeadlessSurface(HeadlessOptions{Width: 4, Height: 4, Hz: 1000})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resizes := 0
	surface.SetSize(8, 2)
	err = surface.Run(ctx, func() error { return nil }, func() {
		resizes++
		cancel()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled; got %v", err)
	}
	if resizes != 1 {
		t.Fatalf("expected 1 resize notification; got %d", resizes)
	}
	if w, h := surface.Size(); w != 8 || h != 2 {
		t.Fatalf("expected size 8x2; got %dx%d", w, h)
	}
}

func TestHeadlessControlForwarding(t *testing.T) {
	surface, err := NewHeadlessSurface(HeadlessOptions{Width: 4, Height: 4})
	if err != nil {
		t.Fatal(err)
	}

	// No control attached yet
	surface.SendKey(input.KeyUp, 0)

	h := &recordingHandler{}
	surface.AttachControl(h)
	surface.SendKey(input.KeyUp, 0)
	surface.SendKey(input.KeyLeft, input.ModShift)
	surface.SendDrag(input.ButtonLeft, 1, 1)

	if len(h.keys) != 2 || h.keys[0] != input.KeyUp || h.keys[1] != input.KeyLeft {
		t.Fatalf("expected keys [up left]; got %v", h.keys)
	}
	if h.drags != 1 {
		t.Fatalf("expected 1 drag; got %d", h.drags)
	}
}

func TestHeadlessBackendDraw(t *testing.T) {
	surface, engine := newHeadlessEngine(t, HeadlessOptions{Width: 33, Height: 33})
	if surface.Frame() == nil {
		t.Fatal("expected frame to be allocated by the initial viewport")
	}

	sc := scene.New("scene")
	if err := engine.Render(sc); err != nil {
		t.Fatal(err)
	}

	expBg := toRGBA(scene.DefaultBackground)
	if got := surface.Frame().RGBAAt(16, 16); got != expBg {
		t.Fatalf("expected background %v; got %v", expBg, got)
	}

	cam := scene.NewCamera("camera1", mgl32.Vec3{0, 0, 4})
	cam.SetTarget(mgl32.Vec3{})
	mat := scene.NewPBRMetallicRoughnessMaterial("pbr")
	mat.BaseColor = mgl32.Vec3{1, 0, 0}
	mat.Metallic = 0
	pp := &countingPostProcess{cam: cam}

	sc.Update(func(tx *scene.Tx) {
		tx.AddCamera(cam)
		tx.SetPostProcess(pp)
		tx.AddMesh(&scene.Mesh{
			Name:      "Heart",
			Positions: [][3]float32{{0, 0, 0}},
			Normals:   [][3]float32{{0, 0, 1}},
			Indices:   []uint32{0},
			Transform: mgl32.Ident4(),
			Material:  mat,
		})
	})
	if err := engine.Render(sc); err != nil {
		t.Fatal(err)
	}

	frame := surface.Frame()
	if got := frame.RGBAAt(16, 16); got == expBg || got.R == 0 || got.G != 0 {
		t.Fatalf("expected red vertex at the frame centre; got %v", got)
	}
	if pp.applied != 1 {
		t.Fatalf("expected post-process to run once; got %d", pp.applied)
	}
	if got := frame.RGBAAt(0, 0); got != (color.RGBA{1, 2, 3, 255}) {
		t.Fatalf("expected post-process output in frame; got %v", got)
	}
}

func TestShadeRoughness(t *testing.T) {
	n := mgl32.Vec3{0, 0, 1}
	viewDir := mgl32.Vec3{0, 0, -1}

	rough := scene.NewPBRMetallicRoughnessMaterial("rough")
	smooth := scene.NewPBRMetallicRoughnessMaterial("smooth")
	smooth.Roughness = 0.2

	r := shade(rough, n, viewDir, mgl32.Vec3{})
	s := shade(smooth, n, viewDir, mgl32.Vec3{})
	if s.Len() <= r.Len() {
		t.Fatalf("expected smoother material to reflect more; got %v vs %v", s, r)
	}

	// Untextured meshes fall back to grey
	got := shade(nil, n, viewDir, mgl32.Vec3{})
	if !got.ApproxEqualThreshold(defaultMeshColor, 1e-4) {
		t.Fatalf("expected default color %v; got %v", defaultMeshColor, got)
	}
}
