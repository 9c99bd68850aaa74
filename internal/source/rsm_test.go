package source

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/modelbake/pkg/compile"
	"github.com/Faultbox/modelbake/pkg/formats"
	"github.com/Faultbox/modelbake/pkg/formats/rsmtest"
	"github.com/Faultbox/modelbake/pkg/math"
	"github.com/Faultbox/modelbake/pkg/scene"
)

func treeModel() rsmtest.Model {
	return rsmtest.Model{
		Shading:  int32(formats.RSMShadingFlat),
		Textures: []string{"a.bmp", "b.bmp"},
		Root:     "main",
		Nodes: []rsmtest.Node{
			{
				Name:      "main",
				Textures:  []int32{0, 1},
				Vertices:  [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
				TexCoords: [][2]float32{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
				Faces: []rsmtest.Face{
					{Vertices: [3]uint16{0, 1, 2}, TexCoords: [3]uint16{0, 1, 2}},
					{Vertices: [3]uint16{1, 3, 2}, TexCoords: [3]uint16{1, 3, 2}, Texture: 1, TwoSide: true},
					{Vertices: [3]uint16{0, 0, 1}},
					{Vertices: [3]uint16{0, 1, 9}},
				},
			},
			{
				Name:     "child",
				Parent:   "main",
				Textures: []int32{1},
				Position: [3]float32{5, 0, 0},
				Vertices: [][3]float32{{0, 0, 0}, {0, 0, 1}, {1, 0, 0}},
				Faces:    []rsmtest.Face{{Vertices: [3]uint16{0, 1, 2}}},
			},
		},
	}
}

func parseModel(t *testing.T, m rsmtest.Model) *formats.RSM {
	t.Helper()
	rsm, err := formats.ParseRSM(rsmtest.Build(m))
	require.NoError(t, err)
	return rsm
}

func TestFromRSM(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	g, err := FromRSM(parseModel(t, treeModel()), Options{Name: "tree", Logger: zap.New(core)})
	require.NoError(t, err)

	require.Len(t, g.MaterialSet, 2)
	for i, name := range []string{"a.bmp", "b.bmp"} {
		mat := g.MaterialSet[i]
		assert.Equal(t, name, mat.Name())
		assert.Equal(t, scene.ShadingFlat, mat.ShadingMode())
		tex, ok := mat.Texture(scene.TextureDiffuse, 0)
		require.True(t, ok)
		assert.Equal(t, name, tex)
	}

	require.Len(t, g.MeshList, 3)
	names := []string{}
	for _, m := range g.MeshList {
		names = append(names, m.Name())
	}
	assert.Equal(t, []string{"main_0", "main_1", "child"}, names)

	front := g.MeshList[0]
	assert.Equal(t, 0, front.MaterialIndex())
	assert.Equal(t, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, front.Positions())
	assert.Equal(t, [][2]float32{{0, 0}, {1, 0}, {0, 1}}, front.TextureCoords(0))
	assert.Equal(t, [4]float32{1, 1, 1, 1}, front.Colors(0)[0])
	assert.Equal(t, [][3]uint32{{0, 1, 2}}, front.Faces())

	twoSided := g.MeshList[1]
	assert.Equal(t, 1, twoSided.MaterialIndex())
	assert.Equal(t, 6, twoSided.NumVertices())
	assert.Equal(t, [3]float32{0, 0, 1}, twoSided.Normals()[0])
	assert.Equal(t, [3]float32{0, 0, -1}, twoSided.Normals()[3])
	assert.Equal(t, [3]float32{0, 1, 0}, twoSided.Positions()[3], "back face is reversed")
	assert.Equal(t, [][3]uint32{{0, 1, 2}, {3, 4, 5}}, twoSided.Faces())

	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(2), logs.All()[0].ContextMap()["faces"])
}

func TestFromRSMTree(t *testing.T) {
	g, err := FromRSM(parseModel(t, treeModel()), Options{Name: "tree"})
	require.NoError(t, err)

	root := g.Root
	assert.Equal(t, "tree", root.Name())
	assert.Equal(t, math.Scale(1, -1, 1).RowMajor(), root.Transform())
	require.Len(t, root.Kids, 1)

	main := root.Kids[0]
	assert.Equal(t, "main", main.Name())
	assert.Equal(t, []int{0, 1}, main.MeshIndices())
	require.Len(t, main.Kids, 1)

	child := main.Kids[0]
	assert.Equal(t, "child", child.Name())
	assert.Equal(t, []int{2}, child.MeshIndices())
	assert.Equal(t, float32(5), child.Transform()[3])
}

func TestFromRSMOrphansAndCycles(t *testing.T) {
	m := treeModel()
	m.Nodes[0].Parent = "child"
	m.Nodes[1].Parent = "main"
	m.Nodes = append(m.Nodes, rsmtest.Node{Name: "orphan", Parent: "missing"})

	g, err := FromRSM(parseModel(t, m), Options{Name: "loop"})
	require.NoError(t, err)

	var names []string
	for _, k := range g.Root.Kids {
		names = append(names, k.Name())
	}
	assert.Equal(t, []string{"orphan", "main"}, names)
	assert.Equal(t, "child", g.Root.Kids[1].Kids[0].Name())
}

func TestFromRSMSmoothNormals(t *testing.T) {
	m := rsmtest.Model{
		Shading:  int32(formats.RSMShadingSmooth),
		Textures: []string{"t.bmp"},
		Nodes: []rsmtest.Node{{
			Name:     "fold",
			Textures: []int32{0},
			Vertices: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
			Faces: []rsmtest.Face{
				{Vertices: [3]uint16{0, 1, 2}},
				{Vertices: [3]uint16{0, 3, 1}},
			},
		}},
	}
	g, err := FromRSM(parseModel(t, m), Options{Name: "fold"})
	require.NoError(t, err)
	assert.Equal(t, scene.ShadingGouraud, g.MaterialSet[0].ShadingMode())

	normals := g.MeshList[0].Normals()
	const h = 0.70710677
	assert.InDeltaSlice(t, []float32{0, h, h}, normals[0][:], 1e-6)
	assert.InDeltaSlice(t, []float32{0, h, h}, normals[1][:], 1e-6)
	assert.Equal(t, [3]float32{0, 0, 1}, normals[2])
	assert.Equal(t, normals[0], normals[3])
	assert.Equal(t, [3]float32{0, 1, 0}, normals[4])
}

func TestFromRSMOptions(t *testing.T) {
	m := treeModel()
	g, err := FromRSM(parseModel(t, m), Options{Name: "tree", TwoSided: true, ReverseWinding: true})
	require.NoError(t, err)

	front := g.MeshList[0]
	assert.Equal(t, 6, front.NumVertices())
	assert.Equal(t, [3]float32{0, 1, 0}, front.Positions()[0], "front face is reversed")
	assert.Equal(t, [3]float32{0, 0, 0}, front.Positions()[3], "back face keeps file order")
}

func TestFromRSMNoNodes(t *testing.T) {
	_, err := FromRSM(&formats.RSM{}, Options{})
	assert.True(t, errors.Is(err, ErrNoNodes))
}

func TestNodeMatrix(t *testing.T) {
	const h = 0.70710677
	node := &formats.RSMNode{
		Position: [3]float32{0, 0, 2},
		Scale:    [3]float32{2, 2, 2},
		RotAngle: 1, // ignored: keys win
		RotAxis:  [3]float32{1, 0, 0},
		RotKeys:  []formats.RSMRotKeyframe{{Frame: 0, Quaternion: [4]float32{0, 0, h, h}}},
	}
	p := nodeMatrix(node, 0).TransformPoint([3]float32{1, 0, 0})
	assert.InDeltaSlice(t, []float32{0, 2, 2}, p[:], 1e-5)
}

func TestSampleKeys(t *testing.T) {
	scales := []formats.RSMScaleKeyframe{
		{Frame: 0, Scale: [3]float32{1, 1, 1}},
		{Frame: 100, Scale: [3]float32{3, 1, 1}},
	}
	tests := []struct {
		time float32
		want float32
	}{
		{-10, 1},
		{0, 1},
		{50, 2},
		{100, 3},
		{500, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sampleScaleKeys(scales, tt.time)[0], "time=%v", tt.time)
	}

	rots := []formats.RSMRotKeyframe{
		{Frame: 0, Quaternion: [4]float32{0, 0, 0, 1}},
		{Frame: 10, Quaternion: [4]float32{0, 1, 0, 0}},
	}
	q := sampleRotKeys(rots, 5)
	const h = 0.70710677
	assert.InDeltaSlice(t, []float32{0, h, 0, h}, []float32{q.X, q.Y, q.Z, q.W}, 1e-5)
}

func TestRSMCompiles(t *testing.T) {
	g, err := FromRSM(parseModel(t, treeModel()), Options{Name: "tree"})
	require.NoError(t, err)

	m, err := compile.Compile(g, compile.Options{})
	require.NoError(t, err)
	assert.Equal(t, "[Position(3@0) Normal(3@12) UV0(2@24) Color0(4@32)]", m.Layout.String())
	assert.Equal(t, 12, m.VertexCount)
	assert.Equal(t, compile.Index8, m.IndexWidth)
	assert.Len(t, m.Objects, 3)
}
