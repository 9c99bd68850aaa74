package source

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/modelbake/pkg/formats"
	"github.com/Faultbox/modelbake/pkg/math"
	"github.com/Faultbox/modelbake/pkg/scene"
)

// ErrNoNodes is returned for RSM models without any node.
var ErrNoNodes = errors.New("model has no nodes")

// yFlip converts RSM's Y-down space to Y-up.
var yFlip = math.Scale(1, -1, 1)

// LoadRSM parses an RSM file from disk and converts it.
func LoadRSM(path string, opts Options) (*scene.Graph, error) {
	rsm, err := formats.ParseRSMFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if opts.Name == "" {
		opts.Name = BaseName(path)
	}
	return FromRSM(rsm, opts)
}

// FromRSM converts a parsed RSM model into a scene graph.
//
// Every texture becomes one material with that texture in the diffuse slot.
// Each RSM node becomes a scene node carrying its local transform, with one
// mesh per texture used by the node's faces. Vertices are unwelded (three
// per face) and already include the node's vertex-only offset and matrix.
func FromRSM(rsm *formats.RSM, opts Options) (*scene.Graph, error) {
	if len(rsm.Nodes) == 0 {
		return nil, ErrNoNodes
	}
	log := opts.logger()

	g := &scene.Graph{}
	shading := rsmShading(rsm.Shading)
	for _, tex := range rsm.Textures {
		mat := &scene.MaterialData{Label: tex, Shading: shading}
		mat.SetTexture(scene.TextureDiffuse, tex)
		g.MaterialSet = append(g.MaterialSet, mat)
	}

	nodes := make([]*scene.NodeData, len(rsm.Nodes))
	skipped := 0
	for i := range rsm.Nodes {
		node := &rsm.Nodes[i]
		n := &scene.NodeData{
			Label:  node.Name,
			Matrix: nodeMatrix(node, opts.AnimTimeMs).RowMajor(),
		}
		for _, mesh := range buildNodeMeshes(rsm, node, opts, &skipped) {
			n.MeshRefs = append(n.MeshRefs, len(g.MeshList))
			g.MeshList = append(g.MeshList, mesh)
		}
		nodes[i] = n
	}
	if skipped > 0 {
		log.Warn("skipped invalid RSM faces", zap.String("model", opts.Name), zap.Int("faces", skipped))
	}

	root := scene.NewNode(opts.Name)
	root.Matrix = yFlip.RowMajor()
	attachRSMNodes(rsm, nodes, root)
	g.Root = root

	log.Debug("converted RSM model",
		zap.String("model", opts.Name),
		zap.Stringer("version", rsm.Version),
		zap.Int("nodes", len(rsm.Nodes)),
		zap.Int("meshes", len(g.MeshList)),
		zap.Int("materials", len(g.MaterialSet)))
	return g, nil
}

func rsmShading(s formats.RSMShadingType) scene.ShadingMode {
	switch s {
	case formats.RSMShadingNone:
		return scene.ShadingNone
	case formats.RSMShadingFlat:
		return scene.ShadingFlat
	case formats.RSMShadingSmooth:
		return scene.ShadingGouraud
	default:
		return scene.ShadingUnspecified
	}
}

// attachRSMNodes links nodes into a tree under root by parent name. Nodes
// whose parent is missing, themselves, or part of a cycle hang off root.
func attachRSMNodes(rsm *formats.RSM, nodes []*scene.NodeData, root *scene.NodeData) {
	byName := make(map[string]int, len(rsm.Nodes))
	for i := len(rsm.Nodes) - 1; i >= 0; i-- {
		byName[rsm.Nodes[i].Name] = i
	}

	children := make(map[int][]int)
	var tops []int
	for i := range rsm.Nodes {
		node := &rsm.Nodes[i]
		parent, ok := byName[node.Parent]
		if node.Parent == "" || !ok || parent == i {
			tops = append(tops, i)
			continue
		}
		children[parent] = append(children[parent], i)
	}

	attached := make([]bool, len(nodes))
	var link func(parent *scene.NodeData, i int)
	link = func(parent *scene.NodeData, i int) {
		if attached[i] {
			return
		}
		attached[i] = true
		parent.AddChild(nodes[i])
		for _, c := range children[i] {
			link(nodes[i], c)
		}
	}
	for _, i := range tops {
		link(root, i)
	}
	for i := range nodes {
		link(root, i)
	}
}

// nodeMatrix is the transform children inherit: Position * Rotation * Scale.
// Rotation keys, when present, replace the axis-angle rotation.
func nodeMatrix(node *formats.RSMNode, animTimeMs float32) math.Mat4 {
	m := math.Translate(node.Position[0], node.Position[1], node.Position[2])

	if len(node.RotKeys) > 0 {
		m = m.Mul(sampleRotKeys(node.RotKeys, animTimeMs).ToMat4())
	} else if node.RotAngle != 0 {
		m = m.Mul(math.RotateAxis(node.RotAxis, node.RotAngle))
	}

	m = m.Mul(math.Scale(node.Scale[0], node.Scale[1], node.Scale[2]))
	if len(node.ScaleKeys) > 0 {
		s := sampleScaleKeys(node.ScaleKeys, animTimeMs)
		m = m.Mul(math.Scale(s[0], s[1], s[2]))
	}
	return m
}

// vertexMatrix applies the node's pivot offset and 3x3 matrix. Children do
// not inherit it.
func vertexMatrix(node *formats.RSMNode) math.Mat4 {
	return math.Translate(node.Offset[0], node.Offset[1], node.Offset[2]).
		Mul(math.FromMat3x3(node.Matrix))
}

// keySpan finds the keys surrounding time and the blend factor between them.
func keySpan(frames int, frame func(int) int32, time float32) (prev, next int, t float32) {
	for i := 0; i < frames; i++ {
		if float32(frame(i)) > time {
			next = i
			break
		}
		prev, next = i, i
	}
	if prev == next {
		return prev, next, 0
	}
	f0, f1 := frame(prev), frame(next)
	if f1 != f0 {
		t = (time - float32(f0)) / float32(f1-f0)
	}
	return prev, next, t
}

func sampleRotKeys(keys []formats.RSMRotKeyframe, time float32) math.Quat {
	prev, next, t := keySpan(len(keys), func(i int) int32 { return keys[i].Frame }, time)
	q0 := math.QuatFromArray(keys[prev].Quaternion)
	if prev == next {
		return q0
	}
	return q0.Slerp(math.QuatFromArray(keys[next].Quaternion), t)
}

func sampleScaleKeys(keys []formats.RSMScaleKeyframe, time float32) [3]float32 {
	prev, next, t := keySpan(len(keys), func(i int) int32 { return keys[i].Frame }, time)
	s0, s1 := keys[prev].Scale, keys[next].Scale
	return [3]float32{
		s0[0] + t*(s1[0]-s0[0]),
		s0[1] + t*(s1[1]-s0[1]),
		s0[2] + t*(s1[2]-s0[2]),
	}
}

// meshBuilder accumulates the unwelded triangles of one node/texture pair.
type meshBuilder struct {
	mesh   *scene.MeshData
	smooth []smoothKey
}

type smoothKey struct {
	group int32
	back  bool
}

// buildNodeMeshes splits a node's faces by texture. Faces referencing
// missing vertices or with zero area are skipped and counted.
func buildNodeMeshes(rsm *formats.RSM, node *formats.RSMNode, opts Options, skipped *int) []*scene.MeshData {
	vm := vertexMatrix(node)
	positions := make([][3]float32, len(node.Vertices))
	for i, v := range node.Vertices {
		positions[i] = vm.TransformPoint(v)
	}

	builders := make(map[int]*meshBuilder)
	for _, face := range node.Faces {
		if !validFace(face, len(positions)) {
			*skipped++
			continue
		}
		v0 := math.V3(positions[face.VertexIDs[0]])
		v1 := math.V3(positions[face.VertexIDs[1]])
		v2 := math.V3(positions[face.VertexIDs[2]])
		cross := v1.Sub(v0).Cross(v2.Sub(v0))
		if cross.Length() < 1e-5 {
			*skipped++
			continue
		}
		normal := cross.Normalize().Array()

		tex := -1
		if int(face.TextureID) < len(node.TextureIDs) {
			tex = int(node.TextureIDs[face.TextureID])
		}
		if tex >= len(rsm.Textures) {
			tex = -1
		}
		b, ok := builders[tex]
		if !ok {
			b = &meshBuilder{mesh: &scene.MeshData{
				Label:       node.Name,
				MaterialIdx: tex,
				Position:    [][3]float32{},
				Normal:      [][3]float32{},
				UV:          [][][2]float32{{}},
				Color:       [][][4]float32{{}},
			}}
			builders[tex] = b
		}

		b.addFace(node, positions, face, normal, opts.ReverseWinding, false)
		if face.TwoSide != 0 || opts.TwoSided {
			b.addFace(node, positions, face, normal, !opts.ReverseWinding, true)
		}
	}

	textures := make([]int, 0, len(builders))
	for tex := range builders {
		textures = append(textures, tex)
	}
	sort.Ints(textures)

	meshes := make([]*scene.MeshData, 0, len(textures))
	for _, tex := range textures {
		b := builders[tex]
		if rsm.Shading == formats.RSMShadingSmooth {
			b.smoothNormals()
		}
		if len(textures) > 1 {
			b.mesh.Label = fmt.Sprintf("%s_%d", node.Name, tex)
		}
		meshes = append(meshes, b.mesh)
	}
	return meshes
}

func validFace(face formats.RSMFace, vertices int) bool {
	for _, id := range face.VertexIDs {
		if int(id) >= vertices {
			return false
		}
	}
	return true
}

func (b *meshBuilder) addFace(node *formats.RSMNode, positions [][3]float32, face formats.RSMFace, normal [3]float32, reverse, back bool) {
	if back {
		normal = [3]float32{-normal[0], -normal[1], -normal[2]}
	}
	order := [3]int{0, 1, 2}
	if reverse {
		order = [3]int{2, 1, 0}
	}

	m := b.mesh
	base := uint32(len(m.Position))
	for _, k := range order {
		m.Position = append(m.Position, positions[face.VertexIDs[k]])
		m.Normal = append(m.Normal, normal)

		uv := [2]float32{}
		color := [4]float32{1, 1, 1, 1}
		if id := int(face.TexCoordIDs[k]); id < len(node.TexCoords) {
			tc := node.TexCoords[id]
			uv = [2]float32{tc.U, tc.V}
			for c := range color {
				color[c] = float32(tc.Color[c]) / 255
			}
		}
		m.UV[0] = append(m.UV[0], uv)
		m.Color[0] = append(m.Color[0], color)
		b.smooth = append(b.smooth, smoothKey{group: face.SmoothGroup, back: back})
	}
	m.Triangles = append(m.Triangles, [3]uint32{base, base + 1, base + 2})
}

// smoothNormals averages normals of vertices sharing a position, smoothing
// group and facing.
func (b *meshBuilder) smoothNormals() {
	const epsilon float32 = 0.001

	type key struct {
		pos [3]int32
		smoothKey
	}
	groups := make(map[key][]int)
	for i, p := range b.mesh.Position {
		k := key{
			pos:       [3]int32{int32(p[0] / epsilon), int32(p[1] / epsilon), int32(p[2] / epsilon)},
			smoothKey: b.smooth[i],
		}
		groups[k] = append(groups[k], i)
	}

	for _, idxs := range groups {
		if len(idxs) < 2 {
			continue
		}
		var sum math.Vec3
		for _, i := range idxs {
			sum = sum.Add(math.V3(b.mesh.Normal[i]))
		}
		avg := sum.Normalize().Array()
		for _, i := range idxs {
			b.mesh.Normal[i] = avg
		}
	}
}
