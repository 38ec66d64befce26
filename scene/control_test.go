package scene

import (
	"testing"

	"github.com/achilleasa/heartglow/input"
	"github.com/go-gl/mathgl/mgl32"
)

func newControlledScene() (*Scene, *Camera, *FreeCameraControl) {
	sc := New("scene")
	cam := NewCamera("camera1", mgl32.Vec3{0, 0, 4})
	cam.SetTarget(mgl32.Vec3{})
	sc.Update(func(tx *Tx) { tx.AddCamera(cam) })
	return sc, cam, NewFreeCameraControl(sc, cam)
}

func TestFreeCameraControlKeys(t *testing.T) {
	sc, cam, ctrl := newControlledScene()
	version := sc.Version()

	ctrl.Key(input.KeyUp, 0)
	expVec3(t, "position", mgl32.Vec3{0, 0, 4 - cameraMoveSpeed}, cam.Position)
	if sc.Version() != version+1 {
		t.Fatalf("expected key press to bump version to %d; got %d", version+1, sc.Version())
	}

	ctrl.Key(input.KeyDown, input.ModShift)
	expVec3(t, "position", mgl32.Vec3{0, 0, 4 + cameraMoveSpeed}, cam.Position)

	// Unmapped keys are ignored
	version = sc.Version()
	ctrl.Key(input.KeyUnknown, 0)
	if sc.Version() != version {
		t.Fatal("expected unmapped key to leave the scene untouched")
	}

	ctrl.Key(input.KeyRight, 0)
	ctrl.Key(input.KeyHome, 0)
	expVec3(t, "position", mgl32.Vec3{0, 0, 4}, cam.Position)
	expVec3(t, "look-at", mgl32.Vec3{}, cam.LookAt)
}

func TestFreeCameraControlDrag(t *testing.T) {
	sc, cam, ctrl := newControlledScene()

	version := sc.Version()
	ctrl.Drag(input.ButtonRight, 100, 100)
	if sc.Version() != version {
		t.Fatal("expected right drag to be ignored")
	}
	expVec3(t, "look-at", mgl32.Vec3{}, cam.LookAt)

	ctrl.Drag(input.ButtonLeft, 100, 0)
	if sc.Version() != version+1 {
		t.Fatal("expected left drag to update the scene")
	}
	expVec3(t, "position", mgl32.Vec3{0, 0, 4}, cam.Position)
	if cam.LookAt.ApproxEqualThreshold(mgl32.Vec3{}, epsilon) {
		t.Fatal("expected left drag to rotate the look-at point")
	}
	if mgl32.Abs(cam.LookAt[1]) > epsilon {
		t.Fatalf("expected horizontal drag to keep look-at height; got %f", cam.LookAt[1])
	}
}
