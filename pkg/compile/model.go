package compile

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/modelbake/pkg/scene"
)

// PayloadExt is appended to the model name to form the payload filename.
const PayloadExt = ".modeldata"

// Options control a single Compile call.
type Options struct {
	// Name of the model. Defaults to the root node name, then "model".
	Name string
	// DataFile is the payload filename recorded in the manifest.
	// Defaults to Name + PayloadExt.
	DataFile string
	// Logger receives per-mesh debug lines and collision warnings.
	Logger *zap.Logger
}

// Mesh is one compiled mesh. Its vertices and indices live in the model's
// shared buffers at the location described by Range.
type Mesh struct {
	Index int
	Name  string
	Range
	Material  int // -1 when the mesh has no material
	Bounds    BoundingVolume
	HasBounds bool
}

// Object is one node of the scene tree.
type Object struct {
	Name      string
	Parent    string // empty for the root
	Transform [16]float32
	Meshes    []int
	Bounds    BoundingVolume
	HasBounds bool
}

// Model is a compiled scene. It is immutable once Compile returns.
type Model struct {
	Name string
	Data string

	VertexCount int
	IndexCount  int
	IndexWidth  IndexWidth

	// Byte offsets of the vertex and index sections inside the payload.
	VertexOffset int
	IndexOffset  int

	Layout    Layout
	Meshes    []Mesh
	Materials []Material
	Objects   []Object

	Bounds    BoundingVolume
	HasBounds bool

	Vertices []float32
	Indices  []byte

	diagnostics error
}

// Stride returns the vertex size in components.
func (m *Model) Stride() int { return m.Layout.Stride }

// Diagnostics returns the non-fatal anomalies Compile found in the manifest
// (name collisions, invalid UTF-8), or nil. Use multierr.Errors to split it.
func (m *Model) Diagnostics() error { return m.diagnostics }

// Compile compiles a scene into a model. Any error aborts the whole model.
func Compile(s scene.Scene, opts Options) (*Model, error) {
	root := s.RootNode()
	if root == nil {
		return nil, ErrEmptyScene
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	name := opts.Name
	if name == "" {
		name = root.Name()
	}
	if name == "" {
		name = "model"
	}
	data := opts.DataFile
	if data == "" {
		data = name + PayloadExt
	}

	model := &Model{Name: name, Data: data}

	for i := 0; i < s.NumMaterials(); i++ {
		mat := CompileMaterial(i, s.Material(i))
		if mat.Name == "" {
			mat.Name = fmt.Sprintf("Material%d", i)
		}
		model.Materials = append(model.Materials, mat)
	}

	meshes := make([]scene.Mesh, s.NumMeshes())
	var planner Planner
	for i := range meshes {
		meshes[i] = s.Mesh(i)
		meshName := meshes[i].Name()
		if meshName == "" {
			meshName = fmt.Sprintf("Mesh%d", i)
		}
		if err := planner.Check(meshName, PlanLayout(PresenceOf(meshes[i]))); err != nil {
			return nil, err
		}
	}
	model.Layout, _ = planner.Canonical()

	b, err := NewBuilder(model.Layout, meshes)
	if err != nil {
		return nil, err
	}

	var all []BoundingVolume
	for i, src := range meshes {
		r, err := b.WriteMesh(i, src)
		if err != nil {
			return nil, err
		}

		mesh := Mesh{
			Index:    i,
			Name:     src.Name(),
			Range:    r,
			Material: src.MaterialIndex(),
		}
		if mesh.Name == "" {
			mesh.Name = fmt.Sprintf("Mesh%d", i)
		}
		if mesh.Material < -1 || mesh.Material >= len(model.Materials) {
			return nil, fmt.Errorf("%w: mesh %q references material %d of %d",
				ErrMalformedMesh, mesh.Name, mesh.Material, len(model.Materials))
		}
		if src.HasPositions() {
			mesh.Bounds, mesh.HasBounds = BoundsOf(src.Positions()[:r.VertexCount])
		}
		if mesh.HasBounds {
			all = append(all, mesh.Bounds)
		}
		model.Meshes = append(model.Meshes, mesh)

		log.Debug("compiled mesh",
			zap.String("mesh", mesh.Name),
			zap.Int("baseVertex", r.BaseVertex),
			zap.Int("vertices", r.VertexCount),
			zap.Int("indices", r.IndexCount))
	}

	model.VertexCount = b.VertexCount()
	model.IndexCount = b.IndexCount()
	model.IndexWidth = b.Width()
	model.Vertices = b.Vertices()
	model.Indices = b.Indices()
	model.Bounds, model.HasBounds = UnionAll(all...)

	if err := model.walk(root, ""); err != nil {
		return nil, err
	}

	// Vertex section first, index section right after it.
	model.VertexOffset = 0
	model.IndexOffset = len(model.Vertices) * bytesPerComponent

	_, model.diagnostics = model.manifest()
	for _, err := range multierr.Errors(model.diagnostics) {
		log.Warn("manifest diagnostic", zap.String("model", model.Name), zap.Error(err))
	}

	log.Debug("compiled model",
		zap.String("model", model.Name),
		zap.Stringer("layout", model.Layout),
		zap.Int("vertices", model.VertexCount),
		zap.Int("indices", model.IndexCount),
		zap.Stringer("indexWidth", model.IndexWidth))
	return model, nil
}

// walk appends n and its descendants depth-first, parents before children.
func (m *Model) walk(n scene.Node, parent string) error {
	obj := Object{
		Name:      n.Name(),
		Parent:    parent,
		Transform: n.Transform(),
	}
	if obj.Name == "" {
		obj.Name = fmt.Sprintf("Object%d", len(m.Objects))
	}

	var volumes []BoundingVolume
	for _, idx := range n.MeshIndices() {
		if idx < 0 || idx >= len(m.Meshes) {
			return fmt.Errorf("%w: node %q references mesh %d of %d",
				ErrMalformedMesh, obj.Name, idx, len(m.Meshes))
		}
		obj.Meshes = append(obj.Meshes, idx)
		if mesh := m.Meshes[idx]; mesh.HasBounds {
			volumes = append(volumes, mesh.Bounds)
		}
	}
	obj.Bounds, obj.HasBounds = UnionAll(volumes...)
	m.Objects = append(m.Objects, obj)

	for _, child := range n.Children() {
		if err := m.walk(child, obj.Name); err != nil {
			return err
		}
	}
	return nil
}
