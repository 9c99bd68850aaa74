package compile

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Faultbox/modelbake/pkg/scene"
)

// IndexWidth is the number of bytes per encoded index.
type IndexWidth int

const (
	Index8  IndexWidth = 1
	Index16 IndexWidth = 2
	Index32 IndexWidth = 4
)

// Max returns the largest index value the width can encode.
func (w IndexWidth) Max() uint64 {
	switch w {
	case Index8:
		return math.MaxUint8
	case Index16:
		return math.MaxUint16
	default:
		return math.MaxUint32
	}
}

// String returns "uint8", "uint16" or "uint32".
func (w IndexWidth) String() string {
	return fmt.Sprintf("uint%d", int(w)*8)
}

// SelectIndexWidth picks the narrowest width for a merged vertex count.
// It must be given the final count of the whole model, never a running one.
func SelectIndexWidth(vertexCount int) (IndexWidth, error) {
	switch {
	case vertexCount < 0:
		return 0, fmt.Errorf("%w: negative vertex count %d", ErrIndexOverflow, vertexCount)
	case vertexCount <= math.MaxUint8:
		return Index8, nil
	case vertexCount <= math.MaxUint16:
		return Index16, nil
	case uint64(vertexCount) <= math.MaxUint32:
		return Index32, nil
	default:
		return 0, fmt.Errorf("%w: %d vertices cannot be addressed by 32-bit indices", ErrIndexOverflow, vertexCount)
	}
}

// Range locates one mesh inside the shared buffers.
type Range struct {
	BaseVertex  int // vertices written before this mesh
	VertexCount int
	IndexOffset int // byte offset into the index section
	IndexCount  int
}

// PlanRanges is the sequential prefix-sum pass that reserves every mesh's
// vertex and index region before anything is written.
func PlanRanges(meshes []scene.Mesh, width IndexWidth) []Range {
	ranges := make([]Range, len(meshes))
	var vertices, indices int
	for i, m := range meshes {
		n := m.NumVertices()
		c := len(m.Faces()) * 3
		ranges[i] = Range{
			BaseVertex:  vertices,
			VertexCount: n,
			IndexOffset: indices * int(width),
			IndexCount:  c,
		}
		vertices += n
		indices += c
	}
	return ranges
}

// Builder accumulates the shared vertex and index buffers of one model.
// Regions are reserved up front by PlanRanges, so meshes may be written in
// any order and each mesh exactly once.
type Builder struct {
	layout   Layout
	width    IndexWidth
	ranges   []Range
	written  []bool
	vertices []float32
	indices  []byte

	vertexCount int
	indexCount  int
}

// NewBuilder selects the index width from the merged vertex count of meshes
// and reserves their regions.
func NewBuilder(layout Layout, meshes []scene.Mesh) (*Builder, error) {
	total := 0
	for _, m := range meshes {
		total += m.NumVertices()
	}
	width, err := SelectIndexWidth(total)
	if err != nil {
		return nil, err
	}

	ranges := PlanRanges(meshes, width)
	indexCount := 0
	if n := len(ranges); n > 0 {
		last := ranges[n-1]
		indexCount = last.IndexOffset/int(width) + last.IndexCount
	}

	return &Builder{
		layout:      layout,
		width:       width,
		ranges:      ranges,
		written:     make([]bool, len(meshes)),
		vertices:    make([]float32, total*layout.Stride),
		indices:     make([]byte, indexCount*int(width)),
		vertexCount: total,
		indexCount:  indexCount,
	}, nil
}

// Width returns the model-wide index width.
func (b *Builder) Width() IndexWidth { return b.width }

// Ranges returns the reserved range of every mesh.
func (b *Builder) Ranges() []Range { return b.ranges }

// VertexCount returns the merged vertex count.
func (b *Builder) VertexCount() int { return b.vertexCount }

// IndexCount returns the merged index count.
func (b *Builder) IndexCount() int { return b.indexCount }

// Vertices returns the interleaved vertex components.
func (b *Builder) Vertices() []float32 { return b.vertices }

// Indices returns the little-endian encoded index section.
func (b *Builder) Indices() []byte { return b.indices }

// WriteMesh interleaves mesh i's vertices and encodes its faces with
// indices remapped to the shared buffer.
func (b *Builder) WriteMesh(i int, m scene.Mesh) (Range, error) {
	if i < 0 || i >= len(b.ranges) {
		return Range{}, fmt.Errorf("%w: mesh index %d out of range", ErrMalformedMesh, i)
	}
	if b.written[i] {
		return Range{}, fmt.Errorf("%w: mesh %q written twice", ErrMalformedMesh, m.Name())
	}
	r := b.ranges[i]
	if m.NumVertices() != r.VertexCount || len(m.Faces())*3 != r.IndexCount {
		return Range{}, fmt.Errorf("%w: mesh %q changed size after planning", ErrMalformedMesh, m.Name())
	}

	if err := b.writeVertices(r, m); err != nil {
		return Range{}, err
	}
	if err := b.writeIndices(r, m); err != nil {
		return Range{}, err
	}
	b.written[i] = true
	return r, nil
}

// vertexSource copies one vertex's components of an attribute into dst.
type vertexSource func(dst []float32, v int)

func (b *Builder) sourceFor(a Attribute, m scene.Mesh) (vertexSource, int) {
	switch a.Name {
	case AttrPosition:
		src := m.Positions()
		return func(dst []float32, v int) { copy(dst, src[v][:]) }, len(src)
	case AttrNormal:
		src := m.Normals()
		return func(dst []float32, v int) { copy(dst, src[v][:]) }, len(src)
	case AttrTangent:
		src := m.Tangents()
		return func(dst []float32, v int) { copy(dst, src[v][:]) }, len(src)
	case AttrBitangent:
		src := m.Bitangents()
		return func(dst []float32, v int) { copy(dst, src[v][:]) }, len(src)
	case AttrUV0:
		src := m.TextureCoords(0)
		return func(dst []float32, v int) { copy(dst, src[v][:]) }, len(src)
	case AttrColor0:
		src := m.Colors(0)
		return func(dst []float32, v int) { copy(dst, src[v][:]) }, len(src)
	}
	return nil, 0
}

func (b *Builder) writeVertices(r Range, m scene.Mesh) error {
	stride := b.layout.Stride
	sources := make([]vertexSource, len(b.layout.Attributes))
	for k, a := range b.layout.Attributes {
		src, n := b.sourceFor(a, m)
		if src == nil {
			return fmt.Errorf("%w: mesh %q: unknown attribute %s", ErrMalformedMesh, m.Name(), a.Name)
		}
		if n < r.VertexCount {
			return fmt.Errorf("%w: mesh %q: %s has %d entries for %d vertices",
				ErrMalformedMesh, m.Name(), a.Name, n, r.VertexCount)
		}
		sources[k] = src
	}

	base := r.BaseVertex * stride
	for v := 0; v < r.VertexCount; v++ {
		vert := b.vertices[base+v*stride : base+(v+1)*stride]
		for k, a := range b.layout.Attributes {
			off := a.Offset / bytesPerComponent
			sources[k](vert[off:off+a.Size], v)
		}
	}
	return nil
}

func (b *Builder) writeIndices(r Range, m scene.Mesh) error {
	w := int(b.width)
	limit := b.width.Max()
	pos := r.IndexOffset

	for f, face := range m.Faces() {
		for _, local := range face {
			if int(local) >= r.VertexCount {
				return fmt.Errorf("%w: mesh %q face %d: index %d outside %d vertices",
					ErrIndexOverflow, m.Name(), f, local, r.VertexCount)
			}
			global := uint64(r.BaseVertex) + uint64(local)
			if global > limit {
				return fmt.Errorf("%w: mesh %q face %d: global index %d exceeds %s",
					ErrIndexOverflow, m.Name(), f, global, b.width)
			}

			dst := b.indices[pos : pos+w]
			switch b.width {
			case Index8:
				dst[0] = uint8(global)
			case Index16:
				binary.LittleEndian.PutUint16(dst, uint16(global))
			default:
				binary.LittleEndian.PutUint32(dst, uint32(global))
			}
			pos += w
		}
	}
	return nil
}
