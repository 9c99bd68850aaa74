package compile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/modelbake/pkg/scene"
)

func TestPlanLayout(t *testing.T) {
	tests := []struct {
		name     string
		presence Presence
		want     string
		stride   int
	}{
		{
			name:     "positions only",
			presence: Presence{Positions: true},
			want:     "[Position(3@0)]",
			stride:   3,
		},
		{
			name:     "positions and normals",
			presence: Presence{Positions: true, Normals: true},
			want:     "[Position(3@0) Normal(3@12)]",
			stride:   6,
		},
		{
			name:     "everything",
			presence: Presence{Positions: true, Normals: true, TangentsAndBitangents: true, UV0: true, Color0: true},
			want:     "[Position(3@0) Normal(3@12) Tangent(3@24) Bitangent(3@36) UV0(2@48) Color0(4@56)]",
			stride:   18,
		},
		{
			name:     "uv without normals",
			presence: Presence{Positions: true, UV0: true},
			want:     "[Position(3@0) UV0(2@12)]",
			stride:   5,
		},
		{
			name:     "nothing",
			presence: Presence{},
			want:     "[]",
			stride:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := PlanLayout(tt.presence)
			assert.Equal(t, tt.want, l.String())
			assert.Equal(t, tt.stride, l.Stride)
			assert.Equal(t, tt.stride*4, l.StrideBytes())
			for i, a := range l.Attributes {
				assert.Equal(t, i, a.Index)
			}
		})
	}
}

func TestLayoutIndependentOfCounts(t *testing.T) {
	small := &scene.MeshData{
		Position: make([][3]float32, 3),
		Normal:   make([][3]float32, 3),
	}
	large := &scene.MeshData{
		Position: make([][3]float32, 5000),
		Normal:   make([][3]float32, 5000),
	}
	a := PlanLayout(PresenceOf(small))
	b := PlanLayout(PresenceOf(large))
	assert.True(t, a.Equal(b))
}

func TestAttributeEqualIgnoresIndex(t *testing.T) {
	a := Attribute{Name: AttrNormal, Index: 1, Size: 3, Offset: 12}
	b := Attribute{Name: AttrNormal, Index: 7, Size: 3, Offset: 12}
	assert.True(t, a.Equal(b))
	b.Offset = 16
	assert.False(t, a.Equal(b))
}

func TestLayoutLookup(t *testing.T) {
	l := PlanLayout(Presence{Positions: true, UV0: true})
	uv, ok := l.Lookup(AttrUV0)
	require.True(t, ok)
	assert.Equal(t, 12, uv.Offset)
	_, ok = l.Lookup(AttrNormal)
	assert.False(t, ok)
}

func TestPlannerMismatch(t *testing.T) {
	var p Planner
	_, ok := p.Canonical()
	assert.False(t, ok)

	require.NoError(t, p.Check("first", PlanLayout(Presence{Positions: true})))
	require.NoError(t, p.Check("same", PlanLayout(Presence{Positions: true})))

	err := p.Check("withNormals", PlanLayout(Presence{Positions: true, Normals: true}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLayoutMismatch))

	var lm *LayoutMismatchError
	require.True(t, errors.As(err, &lm))
	assert.Equal(t, "withNormals", lm.Mesh)
	assert.Equal(t, AttrNormal, lm.Attribute)
	assert.Equal(t, "missing", lm.Want)

	canonical, ok := p.Canonical()
	require.True(t, ok)
	assert.Equal(t, "[Position(3@0)]", canonical.String())
}

func TestPlannerMismatchDifferentAttribute(t *testing.T) {
	var p Planner
	require.NoError(t, p.Check("a", PlanLayout(Presence{Positions: true, Normals: true})))

	err := p.Check("b", PlanLayout(Presence{Positions: true, UV0: true}))
	var lm *LayoutMismatchError
	require.True(t, errors.As(err, &lm))
	assert.Equal(t, "b", lm.Mesh)
	assert.Equal(t, AttrNormal, lm.Attribute)
	assert.Equal(t, "Normal(3@12)", lm.Want)
	assert.Equal(t, "UV0(2@12)", lm.Got)
}
