package renderer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/achilleasa/heartglow/scene"
)

func TestDriverRunsOnce(t *testing.T) {
	_, engine := newHeadlessEngine(t, HeadlessOptions{Width: 8, Height: 8, Hz: 1000, Ticks: 3})
	sc := scene.New("scene")

	d := NewDriver(engine, func() *scene.Scene { return sc })
	if d.Running() {
		t.Fatal("expected driver to start idle")
	}

	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !d.Running() {
		t.Fatal("expected driver to stay in running state")
	}
	if err := d.Run(context.Background()); err != ErrAlreadyRunning {
		t.Fatalf("expected ErrAlreadyRunning; got %v", err)
	}

	stats := d.Stats()
	if stats.Frames != 3 {
		t.Fatalf("expected 3 frames; got %d", stats.Frames)
	}
	if stats.Skipped != 0 {
		t.Fatalf("expected no skipped ticks; got %d", stats.Skipped)
	}
}

func TestDriverRendersCurrentScene(t *testing.T) {
	_, engine := newHeadlessEngine(t, HeadlessOptions{Width: 8, Height: 8, Hz: 1000, Ticks: 4})

	scenes := []*scene.Scene{nil, scene.New("first"), scene.New("second"), scene.New("third")}
	scenes[3].Update(func(tx *scene.Tx) { tx.AddMesh(&scene.Mesh{Name: "Heart"}) })

	tick := 0
	d := NewDriver(engine, func() *scene.Scene {
		sc := scenes[tick%len(scenes)]
		tick++
		return sc
	})
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	stats := d.Stats()
	if stats.Skipped != 1 {
		t.Fatalf("expected 1 skipped tick; got %d", stats.Skipped)
	}
	if stats.Frames != 3 {
		t.Fatalf("expected 3 frames; got %d", stats.Frames)
	}
	if stats.SceneVersion != 1 {
		t.Fatalf("expected last scene version 1; got %d", stats.SceneVersion)
	}
}

func TestDriverResize(t *testing.T) {
	surface, engine := newHeadlessEngine(t, HeadlessOptions{Width: 8, Height: 8, Hz: 1000})
	sc := scene.New("scene")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDriver(engine, func() *scene.Scene { return sc })
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	surface.SetSize(16, 4)
	deadline := time.After(2 * time.Second)
	for d.Stats().Resizes == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for resize")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	<-done

	if w, h := engine.Size(); w != 16 || h != 4 {
		t.Fatalf("expected engine size 16x4; got %dx%d", w, h)
	}
	if frame := surface.Frame(); frame.Bounds().Dx() != 16 || frame.Bounds().Dy() != 4 {
		t.Fatalf("expected 16x4 frame; got %v", frame.Bounds())
	}
}

func TestFrameStatsTable(t *testing.T) {
	stats := FrameStats{
		Frames:         4,
		TotalFrameTime: 8 * time.Millisecond,
		LastFrameTime:  time.Millisecond,
	}
	if stats.AvgFrameTime() != 2*time.Millisecond {
		t.Fatalf("expected avg frame time 2ms; got %s", stats.AvgFrameTime())
	}
	if (FrameStats{}).AvgFrameTime() != 0 {
		t.Fatal("expected zero avg frame time without frames")
	}

	table := stats.Table()
	for _, exp := range []string{"Frames", "Avg frame", "2ms", "8ms"} {
		if !strings.Contains(table, exp) {
			t.Errorf("expected table to contain %q:\n%s", exp, table)
		}
	}
}
