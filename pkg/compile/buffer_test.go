package compile

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/modelbake/pkg/scene"
)

func TestSelectIndexWidth(t *testing.T) {
	tests := []struct {
		vertices int
		want     IndexWidth
	}{
		{0, Index8},
		{1, Index8},
		{255, Index8},
		{256, Index16},
		{65535, Index16},
		{65536, Index32},
		{math.MaxUint32, Index32},
	}

	for _, tt := range tests {
		got, err := SelectIndexWidth(tt.vertices)
		require.NoError(t, err, "vertices=%d", tt.vertices)
		assert.Equal(t, tt.want, got, "vertices=%d", tt.vertices)
	}

	over := uint64(math.MaxUint32)
	_, err := SelectIndexWidth(int(over + 1))
	assert.True(t, errors.Is(err, ErrIndexOverflow))

	_, err = SelectIndexWidth(-1)
	assert.True(t, errors.Is(err, ErrIndexOverflow))
}

func TestSelectIndexWidthMonotonic(t *testing.T) {
	prev := IndexWidth(0)
	for n := 0; n <= 70000; n += 97 {
		w, err := SelectIndexWidth(n)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, int(w), int(prev), "n=%d", n)
		assert.LessOrEqual(t, uint64(n), w.Max(), "n=%d", n)
		prev = w
	}
}

func TestIndexWidthString(t *testing.T) {
	assert.Equal(t, "uint8", Index8.String())
	assert.Equal(t, "uint16", Index16.String())
	assert.Equal(t, "uint32", Index32.String())
}

func gridMesh(name string, vertices int) *scene.MeshData {
	m := &scene.MeshData{Label: name, Position: make([][3]float32, vertices)}
	for i := range m.Position {
		m.Position[i] = [3]float32{float32(i), 0, 0}
	}
	for i := 0; i+2 < vertices; i += 3 {
		m.Triangles = append(m.Triangles, [3]uint32{uint32(i), uint32(i + 1), uint32(i + 2)})
	}
	return m
}

func TestPlanRanges(t *testing.T) {
	meshes := []scene.Mesh{gridMesh("a", 6), gridMesh("b", 9), gridMesh("c", 3)}
	ranges := PlanRanges(meshes, Index16)

	assert.Equal(t, []Range{
		{BaseVertex: 0, VertexCount: 6, IndexOffset: 0, IndexCount: 6},
		{BaseVertex: 6, VertexCount: 9, IndexOffset: 12, IndexCount: 9},
		{BaseVertex: 15, VertexCount: 3, IndexOffset: 30, IndexCount: 3},
	}, ranges)
}

func TestBuilderInterleaves(t *testing.T) {
	m := &scene.MeshData{
		Label:     "quad",
		Position:  [][3]float32{{1, 2, 3}, {4, 5, 6}},
		Normal:    [][3]float32{{0, 0, 1}, {0, 1, 0}},
		UV:        [][][2]float32{{{0.25, 0.75}, {1, 0}}},
		Triangles: [][3]uint32{{0, 1, 1}},
	}
	layout := PlanLayout(PresenceOf(m))
	b, err := NewBuilder(layout, []scene.Mesh{m})
	require.NoError(t, err)

	_, err = b.WriteMesh(0, m)
	require.NoError(t, err)
	assert.Equal(t, []float32{
		1, 2, 3, 0, 0, 1, 0.25, 0.75,
		4, 5, 6, 0, 1, 0, 1, 0,
	}, b.Vertices())
	assert.Equal(t, []byte{0, 1, 1}, b.Indices())
}

func TestBuilderGlobalIndexRanges(t *testing.T) {
	meshes := []scene.Mesh{gridMesh("a", 30), gridMesh("b", 300), gridMesh("c", 12)}
	b, err := NewBuilder(PlanLayout(Presence{Positions: true}), meshes)
	require.NoError(t, err)
	require.Equal(t, Index16, b.Width())

	// Writing out of order must land in the reserved regions.
	for _, i := range []int{2, 0, 1} {
		_, err := b.WriteMesh(i, meshes[i])
		require.NoError(t, err)
	}

	for _, r := range b.Ranges() {
		for k := 0; k < r.IndexCount; k++ {
			off := r.IndexOffset + k*2
			idx := int(binary.LittleEndian.Uint16(b.Indices()[off:]))
			assert.GreaterOrEqual(t, idx, r.BaseVertex)
			assert.Less(t, idx, r.BaseVertex+r.VertexCount)
		}
	}
	assert.Equal(t, 342, b.VertexCount())
	assert.Equal(t, 342, b.IndexCount())
}

func TestBuilderErrors(t *testing.T) {
	t.Run("local index outside mesh", func(t *testing.T) {
		m := &scene.MeshData{
			Label:     "bad",
			Position:  make([][3]float32, 3),
			Triangles: [][3]uint32{{0, 1, 3}},
		}
		b, err := NewBuilder(PlanLayout(PresenceOf(m)), []scene.Mesh{m})
		require.NoError(t, err)
		_, err = b.WriteMesh(0, m)
		assert.True(t, errors.Is(err, ErrIndexOverflow))
	})

	t.Run("short attribute", func(t *testing.T) {
		m := &scene.MeshData{
			Label:    "short",
			Position: make([][3]float32, 3),
			Normal:   make([][3]float32, 2),
		}
		b, err := NewBuilder(PlanLayout(PresenceOf(m)), []scene.Mesh{m})
		require.NoError(t, err)
		_, err = b.WriteMesh(0, m)
		assert.True(t, errors.Is(err, ErrMalformedMesh))
	})

	t.Run("written twice", func(t *testing.T) {
		m := gridMesh("twice", 3)
		b, err := NewBuilder(PlanLayout(PresenceOf(m)), []scene.Mesh{m})
		require.NoError(t, err)
		_, err = b.WriteMesh(0, m)
		require.NoError(t, err)
		_, err = b.WriteMesh(0, m)
		assert.True(t, errors.Is(err, ErrMalformedMesh))
	})

	t.Run("out of range", func(t *testing.T) {
		m := gridMesh("only", 3)
		b, err := NewBuilder(PlanLayout(PresenceOf(m)), []scene.Mesh{m})
		require.NoError(t, err)
		_, err = b.WriteMesh(1, m)
		assert.True(t, errors.Is(err, ErrMalformedMesh))
	})
}
