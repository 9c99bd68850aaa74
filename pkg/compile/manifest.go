package compile

import (
	"fmt"
	"unicode/utf8"

	"go.uber.org/multierr"

	"github.com/Faultbox/modelbake/pkg/value"
)

// Manifest assembles the model's value tree. Typed arrays under "sections"
// hold the vertex section followed by the index section, so rendering the
// tree produces the payload in the same layout VertexOffset and IndexOffset
// describe.
//
// Name collisions between materials, attributes or objects keep the later
// entry. Compile records them, along with names and paths that are not valid
// UTF-8, in Diagnostics.
func (m *Model) Manifest() *value.Node {
	root, _ := m.manifest()
	return root
}

// manifestBuilder collects recoverable anomalies while the tree is built.
type manifestBuilder struct {
	diag error
}

func (b *manifestBuilder) set(obj *value.Node, name string, v *value.Node) {
	b.diag = multierr.Append(b.diag, obj.Set(name, v))
}

// text returns s as a string node. Renderers replace invalid UTF-8 with
// U+FFFD, so such strings are recorded.
func (b *manifestBuilder) text(kind, s string) *value.Node {
	if !utf8.ValidString(s) {
		b.diag = multierr.Append(b.diag, fmt.Errorf("%w: %s %q", value.ErrInvalidUTF8, kind, s))
	}
	return value.String(s)
}

func (m *Model) manifest() (*value.Node, error) {
	b := &manifestBuilder{}

	root := value.NewObject()
	root.Set("name", b.text("model name", m.Name))
	root.Set("data", b.text("payload name", m.Data))
	root.Set("vertexCount", value.Int(m.VertexCount))
	root.Set("indexCount", value.Int(m.IndexCount))
	root.Set("indexSize", value.Int(int(m.IndexWidth)))
	root.Set("vertexOffset", value.Int(m.VertexOffset))
	root.Set("indexOffset", value.Int(m.IndexOffset))
	root.Set("vertexSize", value.Int(m.Layout.Stride))
	if m.HasBounds {
		root.Set("bounds", boundsNode(m.Bounds))
	}

	meshes := value.NewArray()
	for _, mesh := range m.Meshes {
		meshes.Append(m.meshNode(b, mesh))
	}
	root.Set("meshes", meshes)

	materials := value.NewObject()
	for _, mat := range m.Materials {
		b.text("material name", mat.Name)
		b.set(materials, mat.Name, materialNode(b, mat))
	}
	root.Set("materials", materials)

	attributes := value.NewObject()
	for _, a := range m.Layout.Attributes {
		node := value.NewObject()
		node.Set("index", value.Int(a.Index))
		node.Set("size", value.Int(a.Size))
		node.Set("offset", value.Int(a.Offset))
		b.set(attributes, a.Name, node)
	}
	root.Set("attributes", attributes)

	objects := value.NewObject()
	for _, obj := range m.Objects {
		b.text("object name", obj.Name)
		b.set(objects, obj.Name, objectNode(obj))
	}
	root.Set("objects", objects)

	root.Set("sections", value.NewArray(
		value.Float32s(m.Vertices),
		value.Uints(int(m.IndexWidth), m.Indices),
	))
	return root, b.diag
}

func (m *Model) meshNode(b *manifestBuilder, mesh Mesh) *value.Node {
	node := value.NewObject()
	node.Set("name", b.text("mesh name", mesh.Name))
	node.Set("index", value.Int(mesh.Index))
	node.Set("baseVertex", value.Int(mesh.BaseVertex))
	node.Set("vertexCount", value.Int(mesh.VertexCount))
	node.Set("indexOffset", value.Int(mesh.IndexOffset))
	node.Set("indexCount", value.Int(mesh.IndexCount))
	if mesh.Material >= 0 {
		node.Set("material", value.String(m.Materials[mesh.Material].Name))
	} else {
		node.Set("material", value.Null())
	}
	if mesh.HasBounds {
		node.Set("bounds", boundsNode(mesh.Bounds))
	}
	return node
}

func materialNode(b *manifestBuilder, mat Material) *value.Node {
	node := value.NewObject()
	node.Set("index", value.Int(mat.Index))
	node.Set("shadingModel", value.String(mat.ShadingModel))
	node.Set("ambientColor", value.Vector(mat.AmbientColor[:]...))
	node.Set("diffuseColor", value.Vector(mat.DiffuseColor[:]...))
	node.Set("specularColor", value.Vector(mat.SpecularColor[:]...))
	node.Set("roughness", value.Float(float64(mat.Roughness)))
	node.Set("specularPower", value.Float(float64(mat.SpecularPower)))
	node.Set("ambientCoeff", value.Float(float64(mat.AmbientCoeff)))
	node.Set("diffuseCoeff", value.Float(float64(mat.DiffuseCoeff)))
	node.Set("fresnelPower", value.Float(float64(mat.FresnelPower)))

	textures := value.NewObject()
	for slot, path := range mat.Textures {
		textures.Set(slot, b.text("texture path", path))
	}
	node.Set("textures", textures)
	return node
}

func objectNode(obj Object) *value.Node {
	node := value.NewObject()
	node.Set("transform", value.Vector(obj.Transform[:]...))
	node.Set("meshes", value.Ints(obj.Meshes...))
	if obj.Parent != "" {
		node.Set("parent", value.String(obj.Parent))
	} else {
		node.Set("parent", value.Null())
	}
	if obj.HasBounds {
		node.Set("bounds", boundsNode(obj.Bounds))
	}
	return node
}

func boundsNode(b BoundingVolume) *value.Node {
	node := value.NewObject()
	node.Set("center", value.Vector(b.Center.X, b.Center.Y, b.Center.Z))
	node.Set("extents", value.Vector(b.Extents.X, b.Extents.Y, b.Extents.Z))
	return node
}
