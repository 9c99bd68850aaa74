// Package scene defines the read-only scene graph the compiler consumes.
// Source adapters (glTF, RSM) fill the in-memory types in this package;
// the compiler only ever sees the interfaces.
package scene

// Scene is a fully loaded source scene.
type Scene interface {
	RootNode() Node
	NumMeshes() int
	Mesh(i int) Mesh
	NumMaterials() int
	Material(i int) Material
}

// Mesh exposes one mesh's vertex attributes and triangle faces.
// Attribute arrays hold one entry per vertex when the matching Has* reports true.
type Mesh interface {
	Name() string
	NumVertices() int

	HasPositions() bool
	Positions() [][3]float32

	HasNormals() bool
	Normals() [][3]float32

	HasTangentsAndBitangents() bool
	Tangents() [][3]float32
	Bitangents() [][3]float32

	HasTextureCoords(set int) bool
	TextureCoords(set int) [][2]float32

	HasColors(set int) bool
	Colors(set int) [][4]float32

	// Faces returns triangles as indices local to this mesh.
	Faces() [][3]uint32

	// MaterialIndex returns the index into the scene's materials, or -1.
	MaterialIndex() int
}

// Material exposes named material parameters. Getters report false when the
// source does not define the parameter.
type Material interface {
	Name() string
	ShadingMode() ShadingMode
	Color(key ColorKey) ([3]float32, bool)
	Scalar(key ScalarKey) (float32, bool)
	TextureCount(slot TextureSlot) int
	Texture(slot TextureSlot, index int) (string, bool)
}

// Node is one entry of the scene's node tree.
type Node interface {
	Name() string
	// Transform returns the local transform as a row-major 4x4 matrix.
	Transform() [16]float32
	Children() []Node
	MeshIndices() []int
}

// IdentityTransform is the row-major identity matrix.
var IdentityTransform = [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}
