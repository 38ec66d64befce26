package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type CameraDirection uint8

const (
	Forward CameraDirection = iota
	Backward
	Left
	Right
)

// Defaults for new cameras.
const (
	DefaultFOV  float32 = 0.8
	DefaultNear float32 = 0.1
	DefaultFar  float32 = 20000
)

// The camera type controls the scene camera.
type Camera struct {
	Name string

	Position mgl32.Vec3
	LookAt   mgl32.Vec3
	Up       mgl32.Vec3

	// Rotation deltas in radians; consumed by Update.
	Pitch float32
	Yaw   float32

	// Vertical field of view in radians and clip planes.
	FOV  float32
	Near float32
	Far  float32

	ViewMat mgl32.Mat4
	ProjMat mgl32.Mat4
}

// NewCamera creates a camera at position looking down the -Z axis.
func NewCamera(name string, position mgl32.Vec3) *Camera {
	c := &Camera{
		Name:     name,
		Position: position,
		LookAt:   position.Add(mgl32.Vec3{0, 0, -1}),
		Up:       mgl32.Vec3{0, 1, 0},
		FOV:      DefaultFOV,
		Near:     DefaultNear,
		Far:      DefaultFar,
		ProjMat:  mgl32.Ident4(),
	}
	c.Update()
	return c
}

func (c *Camera) String() string {
	return fmt.Sprintf("camera %q at (%3.3f, %3.3f, %3.3f) looking at (%3.3f, %3.3f, %3.3f)",
		c.Name,
		c.Position[0], c.Position[1], c.Position[2],
		c.LookAt[0], c.LookAt[1], c.LookAt[2],
	)
}

// SetTarget points the camera at target.
func (c *Camera) SetTarget(target mgl32.Vec3) {
	c.LookAt = target
	c.Pitch, c.Yaw = 0, 0
	c.Update()
}

// Setup camera projection matrix.
func (c *Camera) SetupProjection(aspect float32) {
	if aspect <= 0 {
		aspect = 1
	}
	c.ProjMat = mgl32.Perspective(c.FOV, aspect, c.Near, c.Far)
}

// Direction returns the normalized view direction.
func (c *Camera) Direction() mgl32.Vec3 {
	dir := c.LookAt.Sub(c.Position)
	if dir.Len() < 1e-6 {
		return mgl32.Vec3{0, 0, -1}
	}
	return dir.Normalize()
}

// Update applies pending pitch/yaw deltas and refreshes the view matrix. The
// distance between the eye and the look-at point is preserved.
func (c *Camera) Update() {
	dist := c.LookAt.Sub(c.Position).Len()
	if dist < 1e-6 {
		dist = 1
	}
	dir := c.Direction()

	if c.Pitch != 0 || c.Yaw != 0 {
		pitchAxis := dir.Cross(c.Up)
		if pitchAxis.Len() > 1e-6 {
			pitchAxis = pitchAxis.Normalize()
		}
		pitchQuat := mgl32.QuatRotate(c.Pitch, pitchAxis)
		yawQuat := mgl32.QuatRotate(c.Yaw, c.Up)

		orientQuat := pitchQuat.Mul(yawQuat).Normalize()
		dir = orientQuat.Rotate(dir)
		c.LookAt = c.Position.Add(dir.Mul(dist))
		c.Pitch, c.Yaw = 0, 0
	}

	c.ViewMat = mgl32.LookAtV(c.Position, c.LookAt, c.Up)
}

// Move translates both the eye and the look-at point.
func (c *Camera) Move(dir CameraDirection, amount float32) {
	var delta mgl32.Vec3
	viewDir := c.Direction()
	switch dir {
	case Forward:
		delta = viewDir.Mul(amount)
	case Backward:
		delta = viewDir.Mul(-amount)
	case Left, Right:
		right := viewDir.Cross(c.Up)
		if right.Len() < 1e-6 {
			return
		}
		delta = right.Normalize().Mul(amount)
		if dir == Left {
			delta = delta.Mul(-1)
		}
	}

	c.Position = c.Position.Add(delta)
	c.LookAt = c.LookAt.Add(delta)
	c.Update()
}

// ViewProjection returns ProjMat * ViewMat.
func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.ProjMat.Mul4(c.ViewMat)
}
