package compile

import (
	"encoding/binary"
	"errors"
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"

	"github.com/Faultbox/modelbake/pkg/scene"
	"github.com/Faultbox/modelbake/pkg/value"
)

func triangleScene() *scene.Graph {
	return &scene.Graph{
		Root: scene.NewNode("tri", 0),
		MeshList: []*scene.MeshData{{
			Label:     "tri",
			Position:  [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Triangles: [][3]uint32{{0, 1, 2}},
		}},
		MaterialSet: []*scene.MaterialData{{Label: "plain"}},
	}
}

func TestCompileSingleTriangle(t *testing.T) {
	m, err := Compile(triangleScene(), Options{})
	require.NoError(t, err)

	assert.Equal(t, "tri", m.Name)
	assert.Equal(t, "tri.modeldata", m.Data)
	assert.Equal(t, "[Position(3@0)]", m.Layout.String())
	assert.Equal(t, 3, m.Stride())
	assert.Equal(t, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, m.Vertices)
	assert.Equal(t, Index8, m.IndexWidth)
	assert.Equal(t, []byte{0, 1, 2}, m.Indices)
	assert.Equal(t, 3, m.VertexCount)
	assert.Equal(t, 3, m.IndexCount)
	assert.Equal(t, 0, m.VertexOffset)
	assert.Equal(t, 36, m.IndexOffset)

	require.True(t, m.HasBounds)
	assert.Equal(t, math32.Vec3(0.5, 0.5, 0), m.Bounds.Center)
	assert.Equal(t, math32.Vec3(0.5, 0.5, 0), m.Bounds.Extents)

	require.Len(t, m.Meshes, 1)
	assert.Equal(t, 0, m.Meshes[0].Material)
	require.Len(t, m.Objects, 1)
	assert.Equal(t, scene.IdentityTransform, m.Objects[0].Transform)
	assert.Equal(t, m.Bounds, m.Objects[0].Bounds)
}

func TestCompileTwoMeshesSixteenBit(t *testing.T) {
	g := &scene.Graph{
		Root:     scene.NewNode("root", 0, 1),
		MeshList: []*scene.MeshData{gridMesh("a", 200), gridMesh("b", 200)},
	}
	g.MeshList[0].MaterialIdx = -1
	g.MeshList[1].MaterialIdx = -1

	m, err := Compile(g, Options{})
	require.NoError(t, err)
	require.Equal(t, Index16, m.IndexWidth)

	a, b := m.Meshes[0], m.Meshes[1]
	assert.Equal(t, 0, a.BaseVertex)
	assert.Equal(t, 200, b.BaseVertex)
	assert.Equal(t, a.IndexCount*2, b.IndexOffset)

	first := [3]uint16{}
	for k := range first {
		first[k] = binary.LittleEndian.Uint16(m.Indices[b.IndexOffset+k*2:])
	}
	assert.Equal(t, [3]uint16{200, 201, 202}, first)
}

func TestCompileObjects(t *testing.T) {
	root := scene.NewNode("root")
	arm := root.AddChild(scene.NewNode("arm", 0))
	arm.AddChild(scene.NewNode("", 1))
	root.AddChild(scene.NewNode("empty"))
	arm.Matrix[3] = 5

	g := &scene.Graph{
		Root: root,
		MeshList: []*scene.MeshData{
			{Position: [][3]float32{{0, 0, 0}, {2, 2, 2}}, MaterialIdx: -1},
			{Label: "hand", Position: [][3]float32{{-2, 0, 0}, {0, 0, 0}}, MaterialIdx: -1},
		},
	}

	m, err := Compile(g, Options{Name: "robot"})
	require.NoError(t, err)
	assert.Equal(t, "robot", m.Name)
	assert.Equal(t, "Mesh0", m.Meshes[0].Name)
	assert.Equal(t, "hand", m.Meshes[1].Name)

	require.Len(t, m.Objects, 4)
	names := []string{}
	parents := []string{}
	for _, o := range m.Objects {
		names = append(names, o.Name)
		parents = append(parents, o.Parent)
	}
	assert.Equal(t, []string{"root", "arm", "Object2", "empty"}, names)
	assert.Equal(t, []string{"", "root", "arm", "root"}, parents)
	assert.Equal(t, float32(5), m.Objects[1].Transform[3])

	assert.False(t, m.Objects[0].HasBounds)
	assert.True(t, m.Objects[1].HasBounds)
	assert.False(t, m.Objects[3].HasBounds)
	assert.Equal(t, math32.Vec3(-2, 0, 0), m.Bounds.Min())
	assert.Equal(t, math32.Vec3(2, 2, 2), m.Bounds.Max())
}

func TestCompileErrors(t *testing.T) {
	t.Run("no root", func(t *testing.T) {
		_, err := Compile(&scene.Graph{}, Options{})
		assert.True(t, errors.Is(err, ErrEmptyScene))
	})

	t.Run("layout mismatch", func(t *testing.T) {
		g := triangleScene()
		g.MeshList = append(g.MeshList, &scene.MeshData{
			Label:    "lit",
			Position: make([][3]float32, 3),
			Normal:   make([][3]float32, 3),
		})
		_, err := Compile(g, Options{})
		var lm *LayoutMismatchError
		require.True(t, errors.As(err, &lm))
		assert.Equal(t, "lit", lm.Mesh)
	})

	t.Run("material out of range", func(t *testing.T) {
		g := triangleScene()
		g.MeshList[0].MaterialIdx = 4
		_, err := Compile(g, Options{})
		assert.True(t, errors.Is(err, ErrMalformedMesh))
	})

	t.Run("node references missing mesh", func(t *testing.T) {
		g := triangleScene()
		g.Root.MeshRefs = []int{0, 1}
		_, err := Compile(g, Options{})
		assert.True(t, errors.Is(err, ErrMalformedMesh))
	})

	t.Run("local index overflow", func(t *testing.T) {
		g := triangleScene()
		g.MeshList[0].Triangles[0][2] = 3
		_, err := Compile(g, Options{})
		assert.True(t, errors.Is(err, ErrIndexOverflow))
	})
}

func TestManifestTree(t *testing.T) {
	g := triangleScene()
	g.MaterialSet[0].SetTexture(scene.TextureDiffuse, "tri.png")

	m, err := Compile(g, Options{})
	require.NoError(t, err)
	root := m.Manifest()
	require.NoError(t, m.Diagnostics())

	get := func(n *value.Node, key string) *value.Node {
		t.Helper()
		v, ok := n.Get(key)
		require.True(t, ok, key)
		return v
	}

	assert.Equal(t, int64(1), get(root, "indexSize").AsInt())
	assert.Equal(t, int64(3), get(root, "vertexSize").AsInt())
	assert.Equal(t, int64(36), get(root, "indexOffset").AsInt())
	assert.Equal(t, "tri.modeldata", get(root, "data").AsString())

	mesh := get(root, "meshes").Items()[0]
	assert.Equal(t, "plain", get(mesh, "material").AsString())
	assert.Equal(t, int64(3), get(mesh, "indexCount").AsInt())

	pos := get(get(root, "attributes"), AttrPosition)
	assert.Equal(t, int64(0), get(pos, "index").AsInt())
	assert.Equal(t, int64(3), get(pos, "size").AsInt())
	assert.Equal(t, int64(0), get(pos, "offset").AsInt())

	mat := get(get(root, "materials"), "plain")
	assert.Equal(t, "unknown", get(mat, "shadingModel").AsString())
	assert.Equal(t, []string{"diffuse"}, get(mat, "textures").Keys())

	obj := get(get(root, "objects"), "tri")
	assert.Equal(t, value.KindNull, get(obj, "parent").Kind())
	assert.Equal(t, 16, get(obj, "transform").Len())

	r, err := value.ManifestRenderer{}.Render(root)
	require.NoError(t, err)
	require.Len(t, r.Payload, 39)
	assert.Equal(t, []byte{0, 1, 2}, r.Payload[m.IndexOffset:])
}

func TestManifestCollision(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	g := triangleScene()
	g.MaterialSet = []*scene.MaterialData{
		{Label: "dup", Shading: scene.ShadingFlat},
		{Label: "dup", Shading: scene.ShadingPhong},
	}

	m, err := Compile(g, Options{Logger: zap.New(core)})
	require.NoError(t, err)
	root := m.Manifest()

	diag := m.Diagnostics()
	require.Error(t, diag)
	assert.True(t, errors.Is(diag, value.ErrNameCollision))
	assert.Equal(t, 1, logs.Len())

	materials, _ := root.Get("materials")
	assert.Equal(t, 1, materials.Len())
	dup, _ := materials.Get("dup")
	shading, _ := dup.Get("shadingModel")
	assert.Equal(t, "phong", shading.AsString())
}

func TestManifestRenderingStable(t *testing.T) {
	m, err := Compile(triangleScene(), Options{})
	require.NoError(t, err)

	for _, format := range []value.Format{value.FormatJSON, value.FormatYAML} {
		a, err := value.ManifestRenderer{Format: format}.Render(m.Manifest())
		require.NoError(t, err)
		b, err := value.ManifestRenderer{Format: format}.Render(m.Manifest())
		require.NoError(t, err)
		assert.Equal(t, a.Document, b.Document, format.String())
		assert.Equal(t, a.Payload, b.Payload, format.String())
	}
}

func TestCompileDiagnostics(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	g := triangleScene()
	g.MaterialSet[0].Label = "\xc7\xd1"
	g.MaterialSet[0].SetTexture(scene.TextureDiffuse, "ok.bmp")
	g.Root.AddChild(scene.NewNode("tri"))

	m, err := Compile(g, Options{Logger: zap.New(core)})
	require.NoError(t, err)

	diag := multierr.Errors(m.Diagnostics())
	require.Len(t, diag, 2)
	assert.True(t, errors.Is(diag[0], value.ErrInvalidUTF8))
	assert.True(t, errors.Is(diag[1], value.ErrNameCollision))
	assert.Equal(t, 2, logs.Len())

	m.Manifest()
	assert.Len(t, multierr.Errors(m.Diagnostics()), 2, "building the manifest again records nothing new")
	assert.Equal(t, 2, logs.Len())
}
