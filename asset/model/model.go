// Package model imports glTF / glTF-binary and wavefront obj assets into flat
// lists of named meshes that can be attached to a scene.
package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

var (
	ErrBadModel          = errors.New("model: could not decode model")
	ErrUnsupportedFormat = errors.New("model: unsupported model format")
)

// The glTF material attached to an imported mesh.
type Material struct {
	Name      string
	BaseColor [4]float32
	Metallic  float32
	Roughness float32
}

// A Mesh is a named triangle list with a world transform. All primitives of a
// glTF mesh are merged into a single index list.
type Mesh struct {
	Name      string
	Positions [][3]float32
	Normals   [][3]float32
	Indices   []uint32
	Transform mgl32.Mat4
	Material  *Material
}

// Triangles returns the triangle count.
func (m *Mesh) Triangles() int {
	return len(m.Indices) / 3
}

// An ImportedModel is the result of importing a model asset.
type ImportedModel struct {
	URI    string
	Meshes []*Mesh
}

// MeshByName returns the first mesh with the given name or nil.
func (m *ImportedModel) MeshByName(name string) *Mesh {
	for _, mesh := range m.Meshes {
		if mesh.Name == name {
			return mesh
		}
	}
	return nil
}

// Supported returns true if the asset name has a glTF or wavefront extension.
func Supported(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".glb") ||
		strings.HasSuffix(lower, ".gltf") ||
		strings.HasSuffix(lower, ".obj")
}

// Import decodes a model blob whose format is selected by its name.
func Import(uri, name string, data []byte) (*ImportedModel, error) {
	if !Supported(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if strings.HasSuffix(strings.ToLower(name), ".obj") {
		return decodeWavefront(uri, bytes.NewReader(data))
	}
	return Decode(uri, bytes.NewReader(data))
}

// Decode reads a glTF document from r. Binary and JSON documents are
// detected automatically; buffers must be embedded.
func Decode(uri string, r io.Reader) (*ImportedModel, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadModel, uri, err)
	}

	imp := &importer{
		doc:       doc,
		materials: make(map[int]*Material),
		model:     &ImportedModel{URI: uri},
	}
	for _, root := range rootNodes(doc) {
		if err := imp.visit(root, mgl32.Ident4(), 0); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadModel, uri, err)
		}
	}
	return imp.model, nil
}

// Nodes may reference each other in cycles in malformed files.
const maxNodeDepth = 64

type importer struct {
	doc       *gltf.Document
	materials map[int]*Material
	model     *ImportedModel
}

func rootNodes(doc *gltf.Document) []int {
	if len(doc.Scenes) != 0 {
		sceneIndex := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			sceneIndex = *doc.Scene
		}
		return doc.Scenes[sceneIndex].Nodes
	}

	// No scenes; treat every node that is not a child as a root
	isChild := make(map[int]bool)
	for _, n := range doc.Nodes {
		for _, child := range n.Children {
			isChild[child] = true
		}
	}
	var roots []int
	for index := range doc.Nodes {
		if !isChild[index] {
			roots = append(roots, index)
		}
	}
	return roots
}

func (imp *importer) visit(nodeIndex int, parent mgl32.Mat4, depth int) error {
	if nodeIndex < 0 || nodeIndex >= len(imp.doc.Nodes) {
		return fmt.Errorf("node index %d out of range", nodeIndex)
	}
	if depth > maxNodeDepth {
		return fmt.Errorf("node hierarchy deeper than %d", maxNodeDepth)
	}

	node := imp.doc.Nodes[nodeIndex]
	world := parent.Mul4(localTransform(node))

	if node.Mesh != nil {
		mesh, err := imp.mesh(nodeIndex, node, world)
		if err != nil {
			return err
		}
		imp.model.Meshes = append(imp.model.Meshes, mesh)
	}

	for _, child := range node.Children {
		if err := imp.visit(child, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (imp *importer) mesh(nodeIndex int, node *gltf.Node, world mgl32.Mat4) (*Mesh, error) {
	meshIndex := *node.Mesh
	if meshIndex < 0 || meshIndex >= len(imp.doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", meshIndex)
	}
	src := imp.doc.Meshes[meshIndex]

	mesh := &Mesh{
		Name:      node.Name,
		Transform: world,
	}
	if mesh.Name == "" {
		mesh.Name = src.Name
	}
	if mesh.Name == "" {
		mesh.Name = fmt.Sprintf("node%d", nodeIndex)
	}

	for _, prim := range src.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}

		posIndex, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		posAcr, err := imp.accessor(posIndex)
		if err != nil {
			return nil, fmt.Errorf("mesh %q: positions: %v", mesh.Name, err)
		}
		positions, err := modeler.ReadPosition(imp.doc, posAcr, nil)
		if err != nil {
			return nil, fmt.Errorf("mesh %q: positions: %v", mesh.Name, err)
		}

		var normals [][3]float32
		if normIndex, ok := prim.Attributes[gltf.NORMAL]; ok {
			normAcr, err := imp.accessor(normIndex)
			if err != nil {
				return nil, fmt.Errorf("mesh %q: normals: %v", mesh.Name, err)
			}
			if normals, err = modeler.ReadNormal(imp.doc, normAcr, nil); err != nil {
				return nil, fmt.Errorf("mesh %q: normals: %v", mesh.Name, err)
			}
		}
		if len(normals) != len(positions) {
			normals = make([][3]float32, len(positions))
		}

		var indices []uint32
		if prim.Indices != nil {
			idxAcr, err := imp.accessor(*prim.Indices)
			if err != nil {
				return nil, fmt.Errorf("mesh %q: indices: %v", mesh.Name, err)
			}
			if indices, err = modeler.ReadIndices(imp.doc, idxAcr, nil); err != nil {
				return nil, fmt.Errorf("mesh %q: indices: %v", mesh.Name, err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		base := uint32(len(mesh.Positions))
		for _, idx := range indices {
			if int(idx) >= len(positions) {
				return nil, fmt.Errorf("mesh %q: index %d out of range", mesh.Name, idx)
			}
			mesh.Indices = append(mesh.Indices, base+idx)
		}
		mesh.Positions = append(mesh.Positions, positions...)
		mesh.Normals = append(mesh.Normals, normals...)

		if mesh.Material == nil && prim.Material != nil {
			mesh.Material = imp.material(*prim.Material)
		}
	}

	return mesh, nil
}

func (imp *importer) accessor(index int) (*gltf.Accessor, error) {
	if index < 0 || index >= len(imp.doc.Accessors) || imp.doc.Accessors[index] == nil {
		return nil, fmt.Errorf("accessor index %d out of range", index)
	}
	return imp.doc.Accessors[index], nil
}

func (imp *importer) material(index int) *Material {
	if index < 0 || index >= len(imp.doc.Materials) {
		return nil
	}
	if mat, ok := imp.materials[index]; ok {
		return mat
	}

	src := imp.doc.Materials[index]
	mat := &Material{
		Name:      src.Name,
		BaseColor: [4]float32{1, 1, 1, 1},
		Metallic:  1,
		Roughness: 1,
	}
	if pbr := src.PBRMetallicRoughness; pbr != nil {
		bc := pbr.BaseColorFactorOrDefault()
		mat.BaseColor = [4]float32{float32(bc[0]), float32(bc[1]), float32(bc[2]), float32(bc[3])}
		mat.Metallic = float32(pbr.MetallicFactorOrDefault())
		mat.Roughness = float32(pbr.RoughnessFactorOrDefault())
	}

	imp.materials[index] = mat
	return mat
}

var identity = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

func localTransform(node *gltf.Node) mgl32.Mat4 {
	if m := node.MatrixOrDefault(); m != identity {
		var out mgl32.Mat4
		for i, v := range m {
			out[i] = float32(v)
		}
		return out
	}

	t := node.TranslationOrDefault()
	r := node.RotationOrDefault()
	s := node.ScaleOrDefault()

	rot := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	return mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(rot.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))
}
