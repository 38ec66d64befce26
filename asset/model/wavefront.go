package model

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

type wavefrontReader struct {
	uri string

	model *ImportedModel

	// Materials referenced by usemtl, keyed by name.
	materials   map[string]*Material
	curMaterial *Material

	// List of vertices and normals.
	vertexList [][3]float32
	normalList [][3]float32
}

// decodeWavefront reads a wavefront obj model. Each "o" or "g" statement
// starts a new mesh. Material libraries are not fetched; "usemtl" assigns a
// material with default PBR values and the referenced name.
func decodeWavefront(uri string, r io.Reader) (*ImportedModel, error) {
	wr := &wavefrontReader{
		uri:       uri,
		model:     &ImportedModel{URI: uri},
		materials: make(map[string]*Material),
	}
	if err := wr.parse(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadModel, err)
	}

	// Drop groups that never received a face
	meshes := wr.model.Meshes[:0]
	for _, mesh := range wr.model.Meshes {
		if len(mesh.Indices) != 0 {
			meshes = append(meshes, mesh)
		}
	}
	wr.model.Meshes = meshes
	return wr.model, nil
}

func (r *wavefrontReader) emitError(line int, msgFormat string, args ...interface{}) error {
	return fmt.Errorf("[%s: %d] error: %s", r.uri, line, fmt.Sprintf(msgFormat, args...))
}

func (r *wavefrontReader) parse(in io.Reader) error {
	var lineNum int = 0

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(lineNum, "unsupported syntax for 'usemtl'; expected 1 argument; got %d", len(lineTokens)-1)
			}
			r.selectMaterial(lineTokens[1])
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(lineNum, "%s", err)
			}
			r.vertexList = append(r.vertexList, v)
		case "vn":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(lineNum, "%s", err)
			}
			r.normalList = append(r.normalList, v)
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(lineNum, "unsupported syntax for '%s'; expected 1 argument for object name; got %d", lineTokens[0], len(lineTokens)-1)
			}
			r.model.Meshes = append(r.model.Meshes, newWavefrontMesh(lineTokens[1]))
		case "f":
			if err := r.parseFace(lineTokens); err != nil {
				return r.emitError(lineNum, "%s", err)
			}
		}
	}

	return scanner.Err()
}

func newWavefrontMesh(name string) *Mesh {
	return &Mesh{
		Name:      name,
		Transform: mgl32.Ident4(),
	}
}

func (r *wavefrontReader) selectMaterial(name string) {
	mat, exists := r.materials[name]
	if !exists {
		mat = &Material{
			Name:      name,
			BaseColor: [4]float32{1, 1, 1, 1},
			Metallic:  1,
			Roughness: 1,
		}
		r.materials[name] = mat
	}
	r.curMaterial = mat
}

// Parse face definition. Each face definitions consists of 3 arguments,
// one for each vertex. The following vertex formats are supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate an offset off the end
// of the vertex list. Texture coordinates are ignored.
func (r *wavefrontReader) parseFace(lineTokens []string) error {
	if len(lineTokens) != 4 {
		return fmt.Errorf("unsupported syntax for 'f'; expected 3 arguments for triangular face; got %d. Select the triangulation option in your exporter.", len(lineTokens)-1)
	}

	// If no object has been defined create a default one
	if len(r.model.Meshes) == 0 {
		r.model.Meshes = append(r.model.Meshes, newWavefrontMesh("default"))
	}
	mesh := r.model.Meshes[len(r.model.Meshes)-1]
	if mesh.Material == nil {
		mesh.Material = r.curMaterial
	}

	var vertices, normals [3][3]float32
	hasNormals := false
	expIndices := 0
	for arg := 0; arg < 3; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		// Faces must at least define a vertex coord
		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList))
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		vertices[arg] = r.vertexList[vOffset]

		// Parse normal coords if specified
		if len(vTokens) == 3 && vTokens[2] != "" {
			vOffset, err = selectFaceCoordIndex(vTokens[2], len(r.normalList))
			if err != nil {
				return fmt.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
			normals[arg] = r.normalList[vOffset]
			hasNormals = true
		}
	}

	// Use the face normal when the file does not provide vertex normals
	if !hasNormals {
		v0, v1, v2 := mgl32.Vec3(vertices[0]), mgl32.Vec3(vertices[1]), mgl32.Vec3(vertices[2])
		n := v1.Sub(v0).Cross(v2.Sub(v0))
		if n.Len() > 0 {
			n = n.Normalize()
		}
		normals = [3][3]float32{n, n, n}
	}

	base := uint32(len(mesh.Positions))
	mesh.Positions = append(mesh.Positions, vertices[:]...)
	mesh.Normals = append(mesh.Normals, normals[:]...)
	mesh.Indices = append(mesh.Indices, base, base+1, base+2)
	return nil
}

// Given an index for a face coord type (vertex, normal) calculate the proper
// offset into the coord list. Wavefront format can also use negative indices
// to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int = 0
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = int(index - 1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) ([3]float32, error) {
	var v [3]float32
	if len(lineTokens) < 4 {
		return v, fmt.Errorf("unsupported syntax for '%s'; expected 3 arguments; got %d", lineTokens[0], len(lineTokens)-1)
	}

	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
