// Package rsmtest builds RSM files in memory for tests.
package rsmtest

import (
	"bytes"
	"encoding/binary"

	"github.com/Faultbox/modelbake/pkg/encoding"
)

// Face is a triangle of a Node.
type Face struct {
	Vertices  [3]uint16
	TexCoords [3]uint16
	Texture   uint16
	TwoSide   bool
}

// Node is one node of a Model.
type Node struct {
	Name, Parent string
	Textures     []int32
	Matrix       [9]float32 // identity when zero
	Offset       [3]float32
	Position     [3]float32
	RotAngle     float32
	RotAxis      [3]float32
	Scale        [3]float32 // {1,1,1} when zero
	Vertices     [][3]float32
	TexCoords    [][2]float32
	Faces        []Face
	RotKeys      [][4]float32
}

// Model describes an RSM file.
type Model struct {
	Major, Minor uint8 // 1.5 when zero
	Shading      int32
	Alpha        uint8
	Textures     []string
	Root         string
	Nodes        []Node
}

// Build encodes m.
func Build(m Model) []byte {
	if m.Major == 0 {
		m.Major, m.Minor = 1, 5
	}
	atLeast := func(minor uint8) bool { return m.Major > 1 || m.Minor >= minor }

	var buf bytes.Buffer
	w := func(v any) { binary.Write(&buf, binary.LittleEndian, v) }
	name := func(s string) { buf.Write(encoding.UTF8ToFixedString(s, 40)) }

	buf.WriteString("GRSM")
	w([]uint8{m.Major, m.Minor})
	w(int32(0)) // animation length
	w(m.Shading)
	if atLeast(4) {
		w(m.Alpha)
	}
	buf.Write(make([]byte, 16))

	w(int32(len(m.Textures)))
	for _, t := range m.Textures {
		name(t)
	}
	name(m.Root)

	w(int32(len(m.Nodes)))
	for _, n := range m.Nodes {
		name(n.Name)
		name(n.Parent)
		w(int32(len(n.Textures)))
		w(n.Textures)

		if n.Matrix == ([9]float32{}) {
			n.Matrix = [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1}
		}
		if n.Scale == ([3]float32{}) {
			n.Scale = [3]float32{1, 1, 1}
		}
		w(n.Matrix)
		w(n.Offset)
		w(n.Position)
		w(n.RotAngle)
		w(n.RotAxis)
		w(n.Scale)

		w(int32(len(n.Vertices)))
		w(n.Vertices)

		w(int32(len(n.TexCoords)))
		for _, tc := range n.TexCoords {
			if atLeast(2) {
				w([4]uint8{255, 255, 255, 255})
			}
			w(tc)
		}

		w(int32(len(n.Faces)))
		for _, f := range n.Faces {
			w(f.Vertices)
			w(f.TexCoords)
			w(f.Texture)
			w(uint16(0))
			twoSide := int32(0)
			if f.TwoSide {
				twoSide = 1
			}
			w(twoSide)
			if atLeast(2) {
				w(int32(0))
			}
		}

		if !atLeast(5) {
			w(int32(0)) // position keys
		}
		w(int32(len(n.RotKeys)))
		for i, q := range n.RotKeys {
			w(int32(i))
			w(q)
		}
		if atLeast(5) {
			w(int32(0)) // scale keys
		}
	}
	w(int32(0)) // volume boxes
	return buf.Bytes()
}
