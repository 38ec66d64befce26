// Package builder composes the viewer scene.
package builder

import (
	"github.com/achilleasa/heartglow/asset"
	"github.com/achilleasa/heartglow/asset/envmap"
	"github.com/achilleasa/heartglow/asset/model"
	"github.com/achilleasa/heartglow/config"
	"github.com/achilleasa/heartglow/log"
	"github.com/achilleasa/heartglow/postprocess"
	"github.com/achilleasa/heartglow/renderer"
	"github.com/achilleasa/heartglow/scene"
	"github.com/go-gl/mathgl/mgl32"
)

var logger = log.New("builder")

// BuildScene composes the scene rendered by engine and returns it without
// waiting for any asset. Environment textures and the model are fetched by
// loader in the background and patched into the returned scene as they
// complete. Load failures are reported through loader only.
func BuildScene(engine *renderer.Engine, loader *asset.Loader, cfg config.Scene) *scene.Scene {
	sc := scene.New(cfg.Name)

	cam := scene.NewCamera(cfg.CameraName, mgl32.Vec3(cfg.CameraPosition))
	cam.SetTarget(mgl32.Vec3(cfg.CameraTarget))
	sc.Update(func(tx *scene.Tx) {
		tx.AddCamera(cam)
	})
	engine.AttachControl(scene.NewFreeCameraControl(sc, cam))

	loadEnvironment(sc, loader, cfg)
	loadModel(sc, loader, cfg)

	pipeline := postprocess.NewDefaultPipeline(cfg.PipelineName, cfg.PipelineHDR, sc, cam)
	configurePipeline(pipeline, cfg)

	logger.Infof("built scene %q; %d asset loads pending", sc.Name, loader.Pending())
	return sc
}

// loadEnvironment starts two independent loads of the environment texture,
// one for ambient lighting and one for the skybox.
func loadEnvironment(sc *scene.Scene, loader *asset.Loader, cfg config.Scene) {
	loader.Go(cfg.EnvironmentURI, func(blob *asset.Blob) error {
		tex, err := envmap.Decode(blob.Name, blob.Reader())
		if err != nil {
			return err
		}
		sc.Update(func(tx *scene.Tx) {
			tx.SetEnvironmentTexture(tex)
		})
		return nil
	})

	loader.Go(cfg.EnvironmentURI, func(blob *asset.Blob) error {
		tex, err := envmap.Decode(blob.Name, blob.Reader())
		if err != nil {
			return err
		}
		skybox, err := scene.NewSkybox(tex, cfg.SkyboxSize, cfg.SkyboxBlur)
		if err != nil {
			return err
		}
		sc.Update(func(tx *scene.Tx) {
			tx.SetSkybox(skybox)
		})
		return nil
	})
}

// loadModel imports the model and patches the target mesh material in the
// same update that attaches the meshes.
func loadModel(sc *scene.Scene, loader *asset.Loader, cfg config.Scene) {
	loader.Go(cfg.ModelURI, func(blob *asset.Blob) error {
		imported, err := model.Import(blob.URI, blob.Name, blob.Data)
		if err != nil {
			return err
		}

		mat := scene.NewPBRMetallicRoughnessMaterial(cfg.MaterialName)
		mat.Roughness = cfg.MaterialRoughness

		sc.Update(func(tx *scene.Tx) {
			tx.AddModel(imported)
			patchMaterial(tx, cfg.TargetMesh, mat)
		})
		return nil
	})
}

// patchMaterial assigns mat to the named mesh. A missing mesh leaves the scene
// untouched.
func patchMaterial(tx *scene.Tx, meshName string, mat *scene.PBRMetallicRoughnessMaterial) bool {
	mesh := tx.MeshByName(meshName)
	if mesh == nil {
		logger.Debugf("mesh %q not found; material %q not applied", meshName, mat.Name)
		return false
	}

	tx.SetMaterial(mesh, mat)
	logger.Infof("assigned material %q to mesh %q", mat.Name, meshName)
	return true
}

func configurePipeline(p *postprocess.Pipeline, cfg config.Scene) {
	p.BloomEnabled = cfg.Bloom.Enabled
	p.Bloom.Threshold = cfg.Bloom.Threshold
	p.Bloom.Weight = cfg.Bloom.Weight
	p.Bloom.Kernel = cfg.Bloom.Kernel
	p.Bloom.Scale = cfg.Bloom.Scale

	p.ChromaticAberrationEnabled = cfg.ChromaticAberration.Enabled
	p.ChromaticAberration.Amount = cfg.ChromaticAberration.AberrationAmount
	p.ChromaticAberration.RadialIntensity = cfg.ChromaticAberration.RadialIntensity
}
