//go:build cgo

package renderer

import (
	"context"
	"fmt"
	"image"

	"github.com/achilleasa/heartglow/input"
	"github.com/achilleasa/heartglow/scene"
	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	leftMouseButton  = 0
	rightMouseButton = 1
)

// WindowSurface is a glfw window with an OpenGL 2.1 context. All methods must
// be called from the main thread.
type WindowSurface struct {
	opts   WindowOptions
	window *glfw.Window

	control input.Handler

	// state
	lastCursorPos mgl32.Vec2
	mousePressed  [2]bool
	resized       bool
}

// NewWindowSurface opens a window and makes its GL context current.
func NewWindowSurface(opts WindowOptions) (*WindowSurface, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid window size %dx%d", ErrInitialization, opts.Width, opts.Height)
	}

	var err error
	if err = glfw.Init(); err != nil {
		return nil, fmt.Errorf("%w: failed to initialize glfw: %w", ErrNoBackend, err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)

	s := &WindowSurface{opts: opts}
	s.window, err = glfw.CreateWindow(opts.Width, opts.Height, opts.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("%w: could not create opengl window: %w", ErrNoBackend, err)
	}
	s.window.MakeContextCurrent()

	if opts.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	// Bind event callbacks
	s.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	s.window.SetKeyCallback(s.onKeyEvent)
	s.window.SetMouseButtonCallback(s.onMouseEvent)
	s.window.SetCursorPosCallback(s.onCursorPosEvent)
	s.window.SetFramebufferSizeCallback(s.onFramebufferSizeEvent)

	return s, nil
}

func (s *WindowSurface) Size() (int, int) {
	return s.window.GetFramebufferSize()
}

func (s *WindowSurface) PixelRatio() float32 {
	fbW, _ := s.window.GetFramebufferSize()
	winW, _ := s.window.GetSize()
	if winW == 0 {
		return 1
	}
	return float32(fbW) / float32(winW)
}

func (s *WindowSurface) CreateBackend() (Backend, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("%w: could not init opengl: %w", ErrNoBackend, err)
	}
	return &glBackend{}, nil
}

func (s *WindowSurface) AttachControl(h input.Handler) {
	s.control = h
}

// Run polls window events and renders one frame per buffer swap until the
// window is closed.
func (s *WindowSurface) Run(ctx context.Context, frame func() error, resize func()) error {
	for !s.window.ShouldClose() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		glfw.PollEvents()
		if s.resized {
			s.resized = false
			resize()
		}

		if err := frame(); err != nil {
			return err
		}
		s.window.SwapBuffers()
	}
	return nil
}

// Close destroys the window and terminates glfw.
func (s *WindowSurface) Close() {
	if s.window != nil {
		s.window.Destroy()
		s.window = nil
	}
	glfw.Terminate()
}

func (s *WindowSurface) onFramebufferSizeEvent(w *glfw.Window, width, height int) {
	s.resized = true
}

func (s *WindowSurface) onKeyEvent(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press && action != glfw.Repeat {
		return
	}

	var inKey input.Key
	switch key {
	case glfw.KeyEscape:
		s.window.SetShouldClose(true)
		return
	case glfw.KeyUp:
		inKey = input.KeyUp
	case glfw.KeyDown:
		inKey = input.KeyDown
	case glfw.KeyLeft:
		inKey = input.KeyLeft
	case glfw.KeyRight:
		inKey = input.KeyRight
	case glfw.KeyHome:
		inKey = input.KeyHome
	default:
		return
	}

	if s.control == nil {
		return
	}

	var inMods input.Modifier
	if (mods & glfw.ModShift) == glfw.ModShift {
		inMods |= input.ModShift
	}
	if (mods & glfw.ModControl) == glfw.ModControl {
		inMods |= input.ModControl
	}
	if (mods & glfw.ModAlt) == glfw.ModAlt {
		inMods |= input.ModAlt
	}
	s.control.Key(inKey, inMods)
}

func (s *WindowSurface) onMouseEvent(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mod glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft && button != glfw.MouseButtonRight {
		return
	}

	s.mousePressed[leftMouseButton] = false
	s.mousePressed[rightMouseButton] = false

	if action == glfw.Press {
		xPos, yPos := w.GetCursorPos()
		s.lastCursorPos[0], s.lastCursorPos[1] = float32(xPos), float32(yPos)

		buttonIndex := leftMouseButton
		if button == glfw.MouseButtonRight {
			buttonIndex = rightMouseButton
		}

		s.mousePressed[buttonIndex] = true
	}
}

func (s *WindowSurface) onCursorPosEvent(w *glfw.Window, xPos, yPos float64) {
	if !s.mousePressed[leftMouseButton] && !s.mousePressed[rightMouseButton] {
		return
	}

	newPos := mgl32.Vec2{float32(xPos), float32(yPos)}
	delta := newPos.Sub(s.lastCursorPos)
	s.lastCursorPos = newPos

	if s.control == nil {
		return
	}

	button := input.ButtonLeft
	if s.mousePressed[rightMouseButton] {
		button = input.ButtonRight
	}
	s.control.Drag(button, delta[0], delta[1])
}

// glBackend draws snapshots with the fixed function pipeline. Post-processing
// reads the color buffer back, applies the effects on the CPU and writes the
// result over the frame.
type glBackend struct {
	width  int
	height int
	frame  *image.RGBA
}

func (b *glBackend) Viewport(width, height int) {
	b.width, b.height = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
	b.frame = nil
}

func (b *glBackend) Draw(snap *scene.Snapshot) error {
	bg := snap.Background
	gl.ClearColor(bg[0], bg[1], bg[2], 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	if snap.Camera != nil && len(snap.Meshes) > 0 {
		b.drawMeshes(snap)
	}

	if snap.PostProcess != nil && b.width > 0 && b.height > 0 {
		b.postProcess(snap.PostProcess)
	}
	return nil
}

func (b *glBackend) drawMeshes(snap *scene.Snapshot) {
	cam := snap.Camera

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.LIGHTING)
	gl.Enable(gl.LIGHT0)
	gl.Enable(gl.NORMALIZE)

	gl.MatrixMode(gl.PROJECTION)
	gl.LoadMatrixf(&cam.ProjMat[0])

	// Headlight in eye space
	gl.MatrixMode(gl.MODELVIEW)
	gl.LoadIdentity()
	lightPos := [4]float32{0, 0, 1, 0}
	gl.Lightfv(gl.LIGHT0, gl.POSITION, &lightPos[0])
	ambient := [4]float32{snap.Ambient[0], snap.Ambient[1], snap.Ambient[2], 1}
	gl.LightModelfv(gl.LIGHT_MODEL_AMBIENT, &ambient[0])

	for i := range snap.Meshes {
		mesh := &snap.Meshes[i]
		model := mesh.Transform
		if model == (mgl32.Mat4{}) {
			model = mgl32.Ident4()
		}
		modelView := cam.ViewMat.Mul4(model)
		gl.LoadMatrixf(&modelView[0])

		applyMaterial(mesh.Material)

		gl.Begin(gl.TRIANGLES)
		for _, index := range mesh.Indices {
			if int(index) >= len(mesh.Positions) {
				continue
			}
			if int(index) < len(mesh.Normals) {
				n := mesh.Normals[index]
				gl.Normal3f(n[0], n[1], n[2])
			}
			p := mesh.Positions[index]
			gl.Vertex3f(p[0], p[1], p[2])
		}
		gl.End()
	}

	gl.Disable(gl.LIGHTING)
	gl.Disable(gl.DEPTH_TEST)
}

func applyMaterial(mat *scene.PBRMetallicRoughnessMaterial) {
	base := defaultMeshColor
	var alpha, metallic, roughness float32 = 1, 0, 1
	if mat != nil {
		base, alpha, metallic, roughness = mat.BaseColor, mat.Alpha, mat.Metallic, mat.Roughness
	}

	diffuse := [4]float32{base[0] * (1 - metallic), base[1] * (1 - metallic), base[2] * (1 - metallic), alpha}
	ambient := [4]float32{base[0], base[1], base[2], alpha}
	f0 := mgl32.Vec3{0.04, 0.04, 0.04}.Mul(1 - metallic).Add(base.Mul(metallic)).Mul(1 - roughness)
	specular := [4]float32{f0[0], f0[1], f0[2], 1}

	gl.Materialfv(gl.FRONT_AND_BACK, gl.AMBIENT, &ambient[0])
	gl.Materialfv(gl.FRONT_AND_BACK, gl.DIFFUSE, &diffuse[0])
	gl.Materialfv(gl.FRONT_AND_BACK, gl.SPECULAR, &specular[0])
	gl.Materialf(gl.FRONT_AND_BACK, gl.SHININESS, 128*(1-roughness))
}

func (b *glBackend) postProcess(pp scene.PostProcess) {
	if b.frame == nil {
		b.frame = image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	}

	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(b.width), int32(b.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(b.frame.Pix))

	// GL rows are bottom-up
	flipRows(b.frame)
	pp.Apply(b.frame)
	flipRows(b.frame)

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.WindowPos2i(0, 0)
	gl.DrawPixels(int32(b.width), int32(b.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(b.frame.Pix))
}

func (b *glBackend) Close() {
	b.frame = nil
}
