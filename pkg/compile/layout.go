// Package compile turns a scene graph into an interleaved vertex/index
// payload plus the metadata needed to describe it.
package compile

import (
	"fmt"
	"strings"

	"github.com/Faultbox/modelbake/pkg/scene"
)

// Attribute names in canonical order.
const (
	AttrPosition  = "Position"
	AttrNormal    = "Normal"
	AttrTangent   = "Tangent"
	AttrBitangent = "Bitangent"
	AttrUV0       = "UV0"
	AttrColor0    = "Color0"
)

// bytesPerComponent is the size of one vertex component in the payload.
const bytesPerComponent = 4

// Attribute is one vertex attribute inside an interleaved vertex.
type Attribute struct {
	Name   string
	Index  int // position in the layout
	Size   int // components
	Offset int // bytes from the start of the vertex
}

// Equal compares name, size and offset. Index is not part of identity.
func (a Attribute) Equal(o Attribute) bool {
	return a.Name == o.Name && a.Size == o.Size && a.Offset == o.Offset
}

// String returns "Name(size@offset)".
func (a Attribute) String() string {
	return fmt.Sprintf("%s(%d@%d)", a.Name, a.Size, a.Offset)
}

// Layout is the ordered attribute list of a vertex plus its stride in components.
type Layout struct {
	Attributes []Attribute
	Stride     int
}

// Equal reports whether both layouts hold equal attributes in the same order.
func (l Layout) Equal(o Layout) bool {
	if l.Stride != o.Stride || len(l.Attributes) != len(o.Attributes) {
		return false
	}
	for i := range l.Attributes {
		if !l.Attributes[i].Equal(o.Attributes[i]) {
			return false
		}
	}
	return true
}

// Lookup returns the attribute with the given name.
func (l Layout) Lookup(name string) (Attribute, bool) {
	for _, a := range l.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// StrideBytes returns the vertex size in bytes.
func (l Layout) StrideBytes() int {
	return l.Stride * bytesPerComponent
}

// String lists the attributes, e.g. "[Position(3@0) Normal(3@12)]".
func (l Layout) String() string {
	parts := make([]string, len(l.Attributes))
	for i, a := range l.Attributes {
		parts[i] = a.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Presence holds the attribute flags of one mesh.
type Presence struct {
	Positions             bool
	Normals               bool
	TangentsAndBitangents bool
	UV0                   bool
	Color0                bool
}

// PresenceOf reads the attribute flags of a mesh.
func PresenceOf(m scene.Mesh) Presence {
	return Presence{
		Positions:             m.HasPositions(),
		Normals:               m.HasNormals(),
		TangentsAndBitangents: m.HasTangentsAndBitangents(),
		UV0:                   m.HasTextureCoords(0),
		Color0:                m.HasColors(0),
	}
}

// PlanLayout derives a layout from attribute flags. Kinds are walked in
// canonical order and absent kinds take no space.
func PlanLayout(p Presence) Layout {
	var l Layout
	add := func(name string, size int) {
		l.Attributes = append(l.Attributes, Attribute{
			Name:   name,
			Index:  len(l.Attributes),
			Size:   size,
			Offset: l.Stride * bytesPerComponent,
		})
		l.Stride += size
	}

	if p.Positions {
		add(AttrPosition, 3)
	}
	if p.Normals {
		add(AttrNormal, 3)
	}
	if p.TangentsAndBitangents {
		add(AttrTangent, 3)
		add(AttrBitangent, 3)
	}
	if p.UV0 {
		add(AttrUV0, 2)
	}
	if p.Color0 {
		add(AttrColor0, 4)
	}
	return l
}

// Planner fixes the canonical layout from the first mesh it sees and checks
// every later mesh against it.
type Planner struct {
	canonical Layout
	first     string
	seen      bool
}

// Check validates the layout of the named mesh. The first call always succeeds
// and defines the canonical layout.
func (p *Planner) Check(mesh string, l Layout) error {
	if !p.seen {
		p.canonical = l
		p.first = mesh
		p.seen = true
		return nil
	}
	if p.canonical.Equal(l) {
		return nil
	}
	return mismatch(mesh, p.canonical, l)
}

// Canonical returns the canonical layout and whether one has been fixed.
func (p *Planner) Canonical() (Layout, bool) {
	return p.canonical, p.seen
}

// mismatch builds an error naming the first attribute that differs.
func mismatch(mesh string, want, got Layout) error {
	n := max(len(want.Attributes), len(got.Attributes))
	for i := 0; i < n; i++ {
		switch {
		case i >= len(got.Attributes):
			a := want.Attributes[i]
			return &LayoutMismatchError{Mesh: mesh, Attribute: a.Name, Want: a.String(), Got: "missing"}
		case i >= len(want.Attributes):
			a := got.Attributes[i]
			return &LayoutMismatchError{Mesh: mesh, Attribute: a.Name, Want: "missing", Got: a.String()}
		case !want.Attributes[i].Equal(got.Attributes[i]):
			return &LayoutMismatchError{
				Mesh:      mesh,
				Attribute: want.Attributes[i].Name,
				Want:      want.Attributes[i].String(),
				Got:       got.Attributes[i].String(),
			}
		}
	}
	return &LayoutMismatchError{
		Mesh:      mesh,
		Attribute: "stride",
		Want:      fmt.Sprint(want.Stride),
		Got:       fmt.Sprint(got.Stride),
	}
}
