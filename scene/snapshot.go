package scene

import "github.com/go-gl/mathgl/mgl32"

// Ambient light used when no environment texture is loaded.
var DefaultAmbient = mgl32.Vec3{0.2, 0.2, 0.2}

// Background used when no skybox is loaded.
var DefaultBackground = mgl32.Vec3{0.2, 0.2, 0.3}

// A Snapshot is an immutable copy of the scene state taken at the start of a
// render tick. Mesh geometry is shared with the scene and is read-only.
type Snapshot struct {
	Name    string
	Version uint64

	// Copy of the active camera; nil if the scene has no camera.
	Camera *Camera

	Ambient        mgl32.Vec3
	Background     mgl32.Vec3
	HasEnvironment bool
	HasSkybox      bool

	Meshes []Mesh

	// Set only if the post-process chain is attached to the active camera.
	PostProcess PostProcess
}

// Snapshot copies the current scene state.
func (s *Scene) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		Name:       s.Name,
		Version:    s.version,
		Ambient:    DefaultAmbient,
		Background: DefaultBackground,
		Meshes:     make([]Mesh, len(s.meshes)),
	}

	if s.activeCamera != nil {
		cam := *s.activeCamera
		snap.Camera = &cam
		if s.postProcess != nil && s.postProcess.AttachedTo(s.activeCamera) {
			snap.PostProcess = s.postProcess
		}
	}

	if s.environment != nil {
		snap.Ambient = mgl32.Vec3(s.environment.Ambient())
		snap.HasEnvironment = true
	}
	if s.skybox != nil {
		snap.Background = s.skybox.Tint
		snap.HasSkybox = true
	}

	for i, m := range s.meshes {
		snap.Meshes[i] = *m
		if m.Material != nil {
			mat := *m.Material
			snap.Meshes[i].Material = &mat
		}
	}

	return snap
}
