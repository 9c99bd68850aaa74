package scene

// Graph is an in-memory Scene. Source adapters build one of these and tests
// construct them directly.
type Graph struct {
	Root        *NodeData
	MeshList    []*MeshData
	MaterialSet []*MaterialData
}

// RootNode returns the root of the node tree, or nil.
func (g *Graph) RootNode() Node {
	if g.Root == nil {
		return nil
	}
	return g.Root
}

// NumMeshes returns the number of meshes.
func (g *Graph) NumMeshes() int { return len(g.MeshList) }

// Mesh returns mesh i.
func (g *Graph) Mesh(i int) Mesh { return g.MeshList[i] }

// NumMaterials returns the number of materials.
func (g *Graph) NumMaterials() int { return len(g.MaterialSet) }

// Material returns material i.
func (g *Graph) Material(i int) Material { return g.MaterialSet[i] }

// MeshData is an in-memory Mesh. Nil attribute slices mean the attribute is absent.
type MeshData struct {
	Label       string
	Position    [][3]float32
	Normal      [][3]float32
	Tangent     [][3]float32
	Bitangent   [][3]float32
	UV          [][][2]float32 // per texture coordinate set
	Color       [][][4]float32 // per color set
	Triangles   [][3]uint32
	MaterialIdx int
}

// Name returns the mesh name.
func (m *MeshData) Name() string { return m.Label }

// NumVertices returns the vertex count, taken from the first present attribute.
func (m *MeshData) NumVertices() int {
	switch {
	case m.Position != nil:
		return len(m.Position)
	case m.Normal != nil:
		return len(m.Normal)
	case m.Tangent != nil:
		return len(m.Tangent)
	}
	for _, set := range m.UV {
		if set != nil {
			return len(set)
		}
	}
	for _, set := range m.Color {
		if set != nil {
			return len(set)
		}
	}
	return 0
}

func (m *MeshData) HasPositions() bool      { return m.Position != nil }
func (m *MeshData) Positions() [][3]float32 { return m.Position }
func (m *MeshData) HasNormals() bool        { return m.Normal != nil }
func (m *MeshData) Normals() [][3]float32   { return m.Normal }

func (m *MeshData) HasTangentsAndBitangents() bool {
	return m.Tangent != nil && m.Bitangent != nil
}

func (m *MeshData) Tangents() [][3]float32   { return m.Tangent }
func (m *MeshData) Bitangents() [][3]float32 { return m.Bitangent }

func (m *MeshData) HasTextureCoords(set int) bool {
	return set >= 0 && set < len(m.UV) && m.UV[set] != nil
}

func (m *MeshData) TextureCoords(set int) [][2]float32 {
	if !m.HasTextureCoords(set) {
		return nil
	}
	return m.UV[set]
}

func (m *MeshData) HasColors(set int) bool {
	return set >= 0 && set < len(m.Color) && m.Color[set] != nil
}

func (m *MeshData) Colors(set int) [][4]float32 {
	if !m.HasColors(set) {
		return nil
	}
	return m.Color[set]
}

func (m *MeshData) Faces() [][3]uint32 { return m.Triangles }
func (m *MeshData) MaterialIndex() int { return m.MaterialIdx }

// MaterialData is an in-memory Material.
type MaterialData struct {
	Label    string
	Shading  ShadingMode
	Colors   map[ColorKey][3]float32
	Scalars  map[ScalarKey]float32
	Textures map[TextureSlot][]string
}

func (m *MaterialData) Name() string             { return m.Label }
func (m *MaterialData) ShadingMode() ShadingMode { return m.Shading }

func (m *MaterialData) Color(key ColorKey) ([3]float32, bool) {
	c, ok := m.Colors[key]
	return c, ok
}

func (m *MaterialData) Scalar(key ScalarKey) (float32, bool) {
	v, ok := m.Scalars[key]
	return v, ok
}

func (m *MaterialData) TextureCount(slot TextureSlot) int {
	return len(m.Textures[slot])
}

func (m *MaterialData) Texture(slot TextureSlot, index int) (string, bool) {
	paths := m.Textures[slot]
	if index < 0 || index >= len(paths) || paths[index] == "" {
		return "", false
	}
	return paths[index], true
}

// SetTexture appends a texture path to a slot.
func (m *MaterialData) SetTexture(slot TextureSlot, path string) {
	if m.Textures == nil {
		m.Textures = make(map[TextureSlot][]string)
	}
	m.Textures[slot] = append(m.Textures[slot], path)
}

// NodeData is an in-memory Node.
type NodeData struct {
	Label    string
	Matrix   [16]float32 // row-major
	Kids     []*NodeData
	MeshRefs []int
}

// NewNode returns a node with an identity transform.
func NewNode(name string, meshes ...int) *NodeData {
	return &NodeData{Label: name, Matrix: IdentityTransform, MeshRefs: meshes}
}

func (n *NodeData) Name() string           { return n.Label }
func (n *NodeData) Transform() [16]float32 { return n.Matrix }
func (n *NodeData) MeshIndices() []int     { return n.MeshRefs }

func (n *NodeData) Children() []Node {
	kids := make([]Node, len(n.Kids))
	for i, k := range n.Kids {
		kids[i] = k
	}
	return kids
}

// AddChild appends a child node and returns it.
func (n *NodeData) AddChild(child *NodeData) *NodeData {
	n.Kids = append(n.Kids, child)
	return child
}
