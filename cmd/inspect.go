package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/heartglow/asset"
	"github.com/achilleasa/heartglow/asset/envmap"
	"github.com/achilleasa/heartglow/asset/model"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Fetch the scene assets and display their contents.
func Inspect(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	loader := asset.NewLoader(cfg.Loader.Timeout.Duration)

	blob, err := loader.Fetch(cfg.Scene.ModelURI)
	if err != nil {
		return err
	}
	m, err := model.Import(blob.URI, blob.Name, blob.Data)
	if err != nil {
		return err
	}
	logger.Noticef("model information:\n%s", modelTable(m, cfg.Scene.TargetMesh))

	blob, err = loader.Fetch(cfg.Scene.EnvironmentURI)
	if err != nil {
		return err
	}
	tex, err := envmap.Decode(blob.Name, blob.Reader())
	if err != nil {
		return err
	}
	logger.Noticef("environment information:\n%s", environmentTable(tex))

	if m.MeshByName(cfg.Scene.TargetMesh) == nil {
		logger.Warningf("model does not contain mesh %q; material %q will not be applied", cfg.Scene.TargetMesh, cfg.Scene.MaterialName)
	}
	return nil
}

func modelTable(m *model.ImportedModel, target string) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Mesh", "Vertices", "Triangles", "Material", "Roughness", "Target"})

	var vertices, triangles int
	for _, mesh := range m.Meshes {
		matName, roughness := "-", "-"
		if mesh.Material != nil {
			matName = mesh.Material.Name
			roughness = fmt.Sprintf("%.2f", mesh.Material.Roughness)
		}
		isTarget := ""
		if mesh.Name == target {
			isTarget = "yes"
		}
		table.Append([]string{
			mesh.Name,
			fmt.Sprintf("%d", len(mesh.Positions)),
			fmt.Sprintf("%d", mesh.Triangles()),
			matName,
			roughness,
			isTarget,
		})
		vertices += len(mesh.Positions)
		triangles += mesh.Triangles()
	}
	table.SetFooter([]string{"Total", fmt.Sprintf("%d", vertices), fmt.Sprintf("%d", triangles), " ", " ", " "})
	table.Render()
	return buf.String()
}

func environmentTable(tex *envmap.Texture) string {
	ambient := tex.Ambient()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Property", "Value"})
	table.Append([]string{"Name", tex.Name})
	table.Append([]string{"Version", fmt.Sprintf("%d", tex.Version)})
	table.Append([]string{"Face size", fmt.Sprintf("%d", tex.Width)})
	table.Append([]string{"Mip levels", fmt.Sprintf("%d", tex.Levels())})
	table.Append([]string{"Image type", tex.ImageType})
	table.Append([]string{"Ambient", fmt.Sprintf("(%.3f, %.3f, %.3f)", ambient[0], ambient[1], ambient[2])})
	table.Render()
	return buf.String()
}
