package scene

import (
	"errors"
	"image"
	"sync"

	"github.com/achilleasa/heartglow/asset/envmap"
	"github.com/achilleasa/heartglow/asset/model"
)

var (
	ErrDuplicateMaterial = errors.New("scene: material already added")
	ErrDuplicateMesh     = errors.New("scene: mesh already added")
)

// PostProcess is a chain of full-frame effects applied after the main pass.
type PostProcess interface {
	// AttachedTo reports whether the chain runs for frames rendered by cam.
	AttachedTo(cam *Camera) bool

	// Apply runs the effect chain on frame in place.
	Apply(frame *image.RGBA)
}

// Scene is the mutable render state shared by asset completions and the
// render tick. All mutation goes through Update; readers use Snapshot.
type Scene struct {
	Name string

	mu      sync.RWMutex
	version uint64

	activeCamera *Camera
	cameras      []*Camera

	environment *envmap.Texture
	skybox      *Skybox

	meshes    []*Mesh
	materials []*PBRMetallicRoughnessMaterial

	postProcess PostProcess
}

// New creates an empty scene.
func New(name string) *Scene {
	return &Scene{
		Name: name,
	}
}

// Update runs fn with exclusive access to the scene. Changes made by fn are
// visible to the next Snapshot.
func (s *Scene) Update(fn func(tx *Tx)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{s: s}
	fn(tx)
	if tx.dirty {
		s.version++
	}
}

// Version is incremented by every Update that changed the scene.
func (s *Scene) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// ActiveCamera returns the camera used for rendering or nil.
func (s *Scene) ActiveCamera() *Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeCamera
}

// MeshByName returns the first mesh called name or nil if no such mesh exists
// yet. The returned mesh must only be modified inside Update.
func (s *Scene) MeshByName(name string) *Mesh {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meshByName(name)
}

func (s *Scene) meshByName(name string) *Mesh {
	for _, m := range s.meshes {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// MeshCount returns the number of meshes attached to the scene.
func (s *Scene) MeshCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meshes)
}

// Materials returns the registered materials.
func (s *Scene) Materials() []*PBRMetallicRoughnessMaterial {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*PBRMetallicRoughnessMaterial(nil), s.materials...)
}

// Environment returns the lighting texture and the skybox; either may be nil.
func (s *Scene) Environment() (*envmap.Texture, *Skybox) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.environment, s.skybox
}

// PostProcess returns the registered effect chain or nil.
func (s *Scene) PostProcess() PostProcess {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.postProcess
}

// A Tx is a write handle to a locked scene. It must not escape the Update
// callback it was passed to.
type Tx struct {
	s     *Scene
	dirty bool
}

// AddCamera attaches a camera. The first camera becomes the active one.
func (tx *Tx) AddCamera(cam *Camera) {
	tx.s.cameras = append(tx.s.cameras, cam)
	if tx.s.activeCamera == nil {
		tx.s.activeCamera = cam
	}
	tx.dirty = true
}

// SetActiveCamera selects the rendering camera, attaching it if needed.
func (tx *Tx) SetActiveCamera(cam *Camera) {
	found := false
	for _, c := range tx.s.cameras {
		if c == cam {
			found = true
			break
		}
	}
	if !found {
		tx.s.cameras = append(tx.s.cameras, cam)
	}
	tx.s.activeCamera = cam
	tx.dirty = true
}

// ActiveCamera returns the active camera or nil.
func (tx *Tx) ActiveCamera() *Camera {
	return tx.s.activeCamera
}

// SetEnvironmentTexture sets the texture used for ambient lighting.
func (tx *Tx) SetEnvironmentTexture(tex *envmap.Texture) {
	tx.s.environment = tex
	tx.dirty = true
}

// SetSkybox sets the scene background.
func (tx *Tx) SetSkybox(sb *Skybox) {
	tx.s.skybox = sb
	tx.dirty = true
}

// SetPostProcess registers the effect chain.
func (tx *Tx) SetPostProcess(pp PostProcess) {
	tx.s.postProcess = pp
	tx.dirty = true
}

// AddMesh attaches a mesh to the scene.
func (tx *Tx) AddMesh(mesh *Mesh) error {
	for _, m := range tx.s.meshes {
		if m == mesh {
			return ErrDuplicateMesh
		}
	}
	tx.s.meshes = append(tx.s.meshes, mesh)
	tx.dirty = true
	return nil
}

// AddModel converts the meshes of an imported model and attaches them to the
// scene. It returns the newly attached meshes.
func (tx *Tx) AddModel(m *model.ImportedModel) []*Mesh {
	added := make([]*Mesh, 0, len(m.Meshes))
	for _, src := range m.Meshes {
		mesh := meshFromModel(src)
		tx.s.meshes = append(tx.s.meshes, mesh)
		added = append(added, mesh)
	}
	if len(added) > 0 {
		tx.dirty = true
	}
	return added
}

// MeshByName returns the first mesh called name or nil.
func (tx *Tx) MeshByName(name string) *Mesh {
	return tx.s.meshByName(name)
}

// AddMaterial registers a material with the scene.
func (tx *Tx) AddMaterial(material *PBRMetallicRoughnessMaterial) error {
	for _, mat := range tx.s.materials {
		if mat == material {
			return ErrDuplicateMaterial
		}
	}
	tx.s.materials = append(tx.s.materials, material)
	tx.dirty = true
	return nil
}

// SetMaterial assigns material to mesh, registering the material if needed.
func (tx *Tx) SetMaterial(mesh *Mesh, material *PBRMetallicRoughnessMaterial) {
	_ = tx.AddMaterial(material)
	mesh.Material = material
	tx.dirty = true
}

// Touch marks the scene as changed. It is used by callers that mutate objects
// owned by the scene directly, such as camera controls.
func (tx *Tx) Touch() {
	tx.dirty = true
}
