package renderer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"
	"time"

	"github.com/achilleasa/heartglow/input"
	"github.com/achilleasa/heartglow/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// Mesh color used when no material is assigned.
var defaultMeshColor = mgl32.Vec3{0.8, 0.8, 0.8}

type HeadlessOptions struct {
	Width  int
	Height int

	// Defaults to 1.
	PixelRatio float32

	// Tick rate; defaults to 60.
	Hz int

	// Stop after this many ticks; 0 runs until the context is cancelled.
	Ticks uint64
}

// HeadlessSurface is an in-memory surface driven by a ticker.
type HeadlessSurface struct {
	opts HeadlessOptions

	mu      sync.Mutex
	width   int
	height  int
	control input.Handler
	backend *headlessBackend

	resized chan struct{}
}

// NewHeadlessSurface creates a surface with the given dimensions.
func NewHeadlessSurface(opts HeadlessOptions) (*HeadlessSurface, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid surface size %dx%d", ErrInitialization, opts.Width, opts.Height)
	}
	if opts.PixelRatio <= 0 {
		opts.PixelRatio = 1
	}
	if opts.Hz <= 0 {
		opts.Hz = 60
	}

	return &HeadlessSurface{
		opts:    opts,
		width:   opts.Width,
		height:  opts.Height,
		resized: make(chan struct{}, 1),
	}, nil
}

func (s *HeadlessSurface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *HeadlessSurface) PixelRatio() float32 {
	return s.opts.PixelRatio
}

// SetSize changes the surface dimensions and queues a resize notification.
func (s *HeadlessSurface) SetSize(width, height int) {
	s.mu.Lock()
	s.width, s.height = width, height
	s.mu.Unlock()

	select {
	case s.resized <- struct{}{}:
	default:
	}
}

func (s *HeadlessSurface) CreateBackend() (Backend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backend = &headlessBackend{}
	return s.backend, nil
}

func (s *HeadlessSurface) AttachControl(h input.Handler) {
	s.mu.Lock()
	s.control = h
	s.mu.Unlock()
}

// SendKey delivers a key press to the attached control.
func (s *HeadlessSurface) SendKey(key input.Key, mods input.Modifier) {
	if h := s.attachedControl(); h != nil {
		h.Key(key, mods)
	}
}

// SendDrag delivers a pointer drag to the attached control.
func (s *HeadlessSurface) SendDrag(button input.Button, dx, dy float32) {
	if h := s.attachedControl(); h != nil {
		h.Drag(button, dx, dy)
	}
}

func (s *HeadlessSurface) attachedControl() input.Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.control
}

// Frame returns a copy of the last rendered frame or nil if nothing has been
// rendered yet.
func (s *HeadlessSurface) Frame() *image.RGBA {
	s.mu.Lock()
	b := s.backend
	s.mu.Unlock()
	if b == nil {
		return nil
	}
	return b.lastFrame()
}

// Run renders the first frame immediately and then one frame per tick.
func (s *HeadlessSurface) Run(ctx context.Context, frame func() error, resize func()) error {
	d := time.Second / time.Duration(s.opts.Hz)
	if d <= 0 {
		return fmt.Errorf("renderer: invalid headless hz: %d", s.opts.Hz)
	}
	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	step := func() error {
		if err := frame(); err != nil {
			return err
		}
		tick++
		return nil
	}

	if err := step(); err != nil {
		return err
	}
	for {
		if s.opts.Ticks > 0 && tick >= s.opts.Ticks {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.resized:
			resize()
		case <-t.C:
			if err := step(); err != nil {
				return err
			}
		}
	}
}

// headlessBackend splats mesh vertices into an RGBA frame on the CPU.
type headlessBackend struct {
	mu    sync.Mutex
	frame *image.RGBA
}

func (b *headlessBackend) Viewport(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
}

func (b *headlessBackend) Draw(snap *scene.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frame == nil {
		return nil
	}

	frame := b.frame
	bg := toRGBA(snap.Background)
	for i := 0; i < len(frame.Pix); i += 4 {
		frame.Pix[i], frame.Pix[i+1], frame.Pix[i+2], frame.Pix[i+3] = bg.R, bg.G, bg.B, bg.A
	}

	if snap.Camera != nil {
		for i := range snap.Meshes {
			splatMesh(frame, snap.Camera, &snap.Meshes[i], snap.Ambient)
		}
	}

	if snap.PostProcess != nil {
		snap.PostProcess.Apply(frame)
	}
	return nil
}

func (b *headlessBackend) lastFrame() *image.RGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frame == nil {
		return nil
	}
	out := image.NewRGBA(b.frame.Rect)
	copy(out.Pix, b.frame.Pix)
	return out
}

func (b *headlessBackend) Close() {
	b.mu.Lock()
	b.frame = nil
	b.mu.Unlock()
}

func splatMesh(frame *image.RGBA, cam *scene.Camera, mesh *scene.Mesh, ambient mgl32.Vec3) {
	w, h := frame.Rect.Dx(), frame.Rect.Dy()
	model := mesh.Transform
	if model == (mgl32.Mat4{}) {
		model = mgl32.Ident4()
	}
	mvp := cam.ViewProjection().Mul4(model)
	normalMat := model.Mat3().Inv().Transpose()
	viewDir := cam.Direction()

	for i, p := range mesh.Positions {
		clip := mvp.Mul4x1(mgl32.Vec4{p[0], p[1], p[2], 1})
		if clip[3] <= 0 {
			continue
		}
		ndc := clip.Vec3().Mul(1 / clip[3])
		if ndc[0] < -1 || ndc[0] > 1 || ndc[1] < -1 || ndc[1] > 1 || ndc[2] < -1 || ndc[2] > 1 {
			continue
		}

		var n mgl32.Vec3
		if i < len(mesh.Normals) {
			n = normalMat.Mul3x1(mgl32.Vec3(mesh.Normals[i]))
		}
		c := shade(mesh.Material, n, viewDir, ambient)

		x := int((ndc[0] + 1) * 0.5 * float32(w))
		y := int((1 - ndc[1]) * 0.5 * float32(h))
		frame.SetRGBA(min(x, w-1), min(y, h-1), toRGBA(c))
	}
}

// shade evaluates a headlight model: ambient plus a lambert term toward the
// eye with a specular lobe narrowed by low roughness.
func shade(mat *scene.PBRMetallicRoughnessMaterial, n, viewDir, ambient mgl32.Vec3) mgl32.Vec3 {
	base := defaultMeshColor
	var metallic, roughness float32 = 0, 1
	if mat != nil {
		base, metallic, roughness = mat.BaseColor, mat.Metallic, mat.Roughness
	}

	var ndl float32 = 1
	if n.Len() > 1e-6 {
		ndl = max(n.Normalize().Dot(viewDir.Mul(-1)), 0)
	}

	diffuse := base.Mul((1 - metallic) * ndl)
	shininess := 2/(roughness*roughness+1e-4) - 2
	specular := float32(math.Pow(float64(ndl), float64(max(shininess, 1)))) * (1 - roughness)
	f0 := mgl32.Vec3{0.04, 0.04, 0.04}.Mul(1 - metallic).Add(base.Mul(metallic))

	out := diffuse.Add(f0.Mul(specular))
	return mgl32.Vec3{
		out[0] + ambient[0]*base[0],
		out[1] + ambient[1]*base[1],
		out[2] + ambient[2]*base[2],
	}
}

func toRGBA(c mgl32.Vec3) color.RGBA {
	return color.RGBA{unitToByte(c[0]), unitToByte(c[1]), unitToByte(c[2]), 255}
}

func unitToByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
