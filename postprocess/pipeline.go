// Package postprocess implements the full-frame effects applied to a rendered
// frame before it is presented.
package postprocess

import (
	"image"
	"sync"
	"time"

	"github.com/achilleasa/heartglow/log"
	"github.com/achilleasa/heartglow/scene"
)

// An alias for functions that can be used as part of the post-processing pipeline.
type PipelineStage func(frame *image.RGBA) time.Duration

// The default rendering pipeline. Effects run in a fixed order: bloom first,
// then chromatic aberration. Each effect is skipped while disabled.
type Pipeline struct {
	Name string

	// Requests a high dynamic range intermediate target. Frames are 8-bit
	// RGBA, so this only affects backends that allocate float targets.
	HDR bool

	BloomEnabled bool
	Bloom        Bloom

	ChromaticAberrationEnabled bool
	ChromaticAberration        ChromaticAberration

	logger log.Logger

	mu      sync.Mutex
	cameras []*scene.Camera
	frames  uint64
}

// NewDefaultPipeline creates a pipeline with all effects disabled and default
// settings, binds it to cameras and registers it with sc.
func NewDefaultPipeline(name string, hdr bool, sc *scene.Scene, cameras ...*scene.Camera) *Pipeline {
	p := &Pipeline{
		Name:                name,
		HDR:                 hdr,
		Bloom:               DefaultBloom(),
		ChromaticAberration: DefaultChromaticAberration(),
		logger:              log.New("postprocess"),
		cameras:             append([]*scene.Camera(nil), cameras...),
	}

	if sc != nil {
		sc.Update(func(tx *scene.Tx) {
			tx.SetPostProcess(p)
		})
	}
	return p
}

// AttachCamera binds the pipeline to an additional camera.
func (p *Pipeline) AttachCamera(cam *scene.Camera) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.cameras {
		if c == cam {
			return
		}
	}
	p.cameras = append(p.cameras, cam)
}

// DetachCamera removes a camera binding.
func (p *Pipeline) DetachCamera(cam *scene.Camera) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, c := range p.cameras {
		if c == cam {
			p.cameras = append(p.cameras[:i], p.cameras[i+1:]...)
			return
		}
	}
}

// AttachedTo implements scene.PostProcess.
func (p *Pipeline) AttachedTo(cam *scene.Camera) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.cameras {
		if c == cam {
			return true
		}
	}
	return false
}

// Stages returns the names of the enabled stages in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, 0, 2)
	for _, st := range p.stages() {
		names = append(names, st.name)
	}
	return names
}

type namedStage struct {
	name string
	run  PipelineStage
}

func (p *Pipeline) stages() []namedStage {
	var list []namedStage
	if p.BloomEnabled {
		list = append(list, namedStage{"bloom", p.Bloom.Stage()})
	}
	if p.ChromaticAberrationEnabled {
		list = append(list, namedStage{"chromaticAberration", p.ChromaticAberration.Stage()})
	}
	return list
}

// Apply implements scene.PostProcess.
func (p *Pipeline) Apply(frame *image.RGBA) {
	if frame == nil || frame.Rect.Empty() {
		return
	}

	p.mu.Lock()
	p.frames++
	first := p.frames == 1
	p.mu.Unlock()

	for _, st := range p.stages() {
		took := st.run(frame)
		if first {
			p.logger.Debugf("%s: stage %s took %d us on first frame", p.Name, st.name, took.Microseconds())
		}
	}
}
