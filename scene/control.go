package scene

import (
	"github.com/achilleasa/heartglow/input"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// Coefficients for converting delta cursor movements to yaw/pitch camera angles.
	mouseSensitivityX float32 = 0.005
	mouseSensitivityY float32 = 0.005

	// Camera movement speed
	cameraMoveSpeed float32 = 0.05
)

// FreeCameraControl moves a scene camera in response to surface input. Arrow
// keys move the camera, shift doubles the speed, left-drag rotates the look-at
// point around the eye and Home restores the initial pose.
type FreeCameraControl struct {
	sc  *Scene
	cam *Camera

	MoveSpeed    float32
	SensitivityX float32
	SensitivityY float32

	homePosition mgl32.Vec3
	homeTarget   mgl32.Vec3
}

// NewFreeCameraControl creates a control for cam. The current camera pose
// becomes the home pose.
func NewFreeCameraControl(sc *Scene, cam *Camera) *FreeCameraControl {
	return &FreeCameraControl{
		sc:           sc,
		cam:          cam,
		MoveSpeed:    cameraMoveSpeed,
		SensitivityX: mouseSensitivityX,
		SensitivityY: mouseSensitivityY,
		homePosition: cam.Position,
		homeTarget:   cam.LookAt,
	}
}

func (c *FreeCameraControl) Key(key input.Key, mods input.Modifier) {
	var moveDir CameraDirection
	switch key {
	case input.KeyUp:
		moveDir = Forward
	case input.KeyDown:
		moveDir = Backward
	case input.KeyLeft:
		moveDir = Left
	case input.KeyRight:
		moveDir = Right
	case input.KeyHome:
		c.sc.Update(func(tx *Tx) {
			c.cam.Position = c.homePosition
			c.cam.SetTarget(c.homeTarget)
			tx.Touch()
		})
		return
	default:
		return
	}

	// Double speed if shift is pressed
	var speedScaler float32 = 1.0
	if mods.Has(input.ModShift) {
		speedScaler = 2.0
	}
	c.sc.Update(func(tx *Tx) {
		c.cam.Move(moveDir, speedScaler*c.MoveSpeed)
		tx.Touch()
	})
}

func (c *FreeCameraControl) Drag(button input.Button, dx, dy float32) {
	// Only the left button rotates the look-at point around the eye
	if button != input.ButtonLeft {
		return
	}

	c.sc.Update(func(tx *Tx) {
		c.cam.Pitch = -dy * c.SensitivityY
		c.cam.Yaw = -dx * c.SensitivityX
		c.cam.Update()
		tx.Touch()
	})
}
