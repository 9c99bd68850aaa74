package source

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/modelbake/pkg/math"
	"github.com/Faultbox/modelbake/pkg/scene"
)

// glTF conversion errors.
var (
	// ErrNoScene is returned for glTF documents without nodes.
	ErrNoScene = errors.New("document has no nodes")
	// ErrBadAccessor is returned when a primitive references a missing accessor.
	ErrBadAccessor = errors.New("accessor index out of range")
)

const unlitExtension = "KHR_materials_unlit"

var identity64 = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// LoadGLTF opens a .gltf or .glb file and converts it.
func LoadGLTF(path string, opts Options) (*scene.Graph, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if opts.Name == "" {
		opts.Name = BaseName(path)
	}
	return FromGLTF(doc, opts)
}

// FromGLTF converts a glTF document into a scene graph. Each primitive
// becomes one mesh; the document's default scene hangs under a root node
// named after the model.
func FromGLTF(doc *gltf.Document, opts Options) (*scene.Graph, error) {
	if len(doc.Nodes) == 0 {
		return nil, ErrNoScene
	}
	log := opts.logger()
	g := &scene.Graph{}

	for _, m := range doc.Materials {
		g.MaterialSet = append(g.MaterialSet, gltfMaterial(doc, m))
	}

	// meshes maps a glTF mesh to the scene meshes of its primitives.
	meshes := make([][]int, len(doc.Meshes))
	for mi, m := range doc.Meshes {
		for pi, prim := range m.Primitives {
			name := m.Name
			if len(m.Primitives) > 1 && name != "" {
				name = fmt.Sprintf("%s_%d", m.Name, pi)
			}
			mesh, err := gltfPrimitive(doc, prim, name)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			if mesh == nil {
				log.Warn("skipped primitive",
					zap.Int("mesh", mi), zap.Int("primitive", pi), zap.Int("mode", int(prim.Mode)))
				continue
			}
			if mesh.MaterialIdx >= len(g.MaterialSet) {
				mesh.MaterialIdx = -1
			}
			meshes[mi] = append(meshes[mi], len(g.MeshList))
			g.MeshList = append(g.MeshList, mesh)
		}
	}

	root := scene.NewNode(opts.Name)
	visited := make([]bool, len(doc.Nodes))
	for _, i := range sceneRoots(doc) {
		if n := gltfNode(doc, i, meshes, visited); n != nil {
			root.AddChild(n)
		}
	}
	g.Root = root

	log.Debug("converted glTF document",
		zap.String("model", opts.Name),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("meshes", len(g.MeshList)),
		zap.Int("materials", len(g.MaterialSet)))
	return g, nil
}

// sceneRoots returns the top-level nodes of the default scene, or every
// parentless node when the document has no scenes.
func sceneRoots(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		s := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			s = *doc.Scene
		}
		if nodes := doc.Scenes[s].Nodes; len(nodes) > 0 {
			return nodes
		}
	}

	child := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c < len(child) {
				child[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !child[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func gltfNode(doc *gltf.Document, i int, meshes [][]int, visited []bool) *scene.NodeData {
	if i < 0 || i >= len(doc.Nodes) || visited[i] {
		return nil
	}
	visited[i] = true

	src := doc.Nodes[i]
	n := &scene.NodeData{Label: src.Name, Matrix: nodeTransform(src).RowMajor()}
	if src.Mesh != nil && *src.Mesh < len(meshes) {
		n.MeshRefs = append(n.MeshRefs, meshes[*src.Mesh]...)
	}
	for _, c := range src.Children {
		if child := gltfNode(doc, c, meshes, visited); child != nil {
			n.AddChild(child)
		}
	}
	return n
}

func nodeTransform(n *gltf.Node) math.Mat4 {
	if m := n.MatrixOrDefault(); m != identity64 {
		return math.FromColumnMajor64(m)
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	return math.TRS(
		math.Vec3{X: float32(t[0]), Y: float32(t[1]), Z: float32(t[2])},
		math.Quat{X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3])},
		math.Vec3{X: float32(s[0]), Y: float32(s[1]), Z: float32(s[2])},
	)
}

// gltfPrimitive reads one triangle primitive. It returns nil for primitives
// that are not triangle lists or carry no positions.
func gltfPrimitive(doc *gltf.Document, prim *gltf.Primitive, name string) (*scene.MeshData, error) {
	if prim.Mode != gltf.PrimitiveTriangles {
		return nil, nil
	}
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil
	}

	mesh := &scene.MeshData{Label: name, MaterialIdx: -1}
	if prim.Material != nil {
		mesh.MaterialIdx = *prim.Material
	}

	acc, err := accessor(doc, posIdx)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	if mesh.Position, err = modeler.ReadPosition(doc, acc, nil); err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if acc, err = accessor(doc, idx); err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
		if mesh.Normal, err = modeler.ReadNormal(doc, acc, nil); err != nil {
			return nil, fmt.Errorf("reading normals: %w", err)
		}
	}
	if idx, ok := prim.Attributes[gltf.TANGENT]; ok && mesh.Normal != nil {
		if acc, err = accessor(doc, idx); err != nil {
			return nil, fmt.Errorf("tangents: %w", err)
		}
		tangents, err := modeler.ReadTangent(doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("reading tangents: %w", err)
		}
		mesh.Tangent, mesh.Bitangent = splitTangents(mesh.Normal, tangents)
	}

	for set := 0; ; set++ {
		idx, ok := prim.Attributes[fmt.Sprintf("TEXCOORD_%d", set)]
		if !ok {
			break
		}
		if acc, err = accessor(doc, idx); err != nil {
			return nil, fmt.Errorf("texture coordinates %d: %w", set, err)
		}
		uv, err := modeler.ReadTextureCoord(doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("reading texture coordinates %d: %w", set, err)
		}
		mesh.UV = append(mesh.UV, uv)
	}
	for set := 0; ; set++ {
		idx, ok := prim.Attributes[fmt.Sprintf("COLOR_%d", set)]
		if !ok {
			break
		}
		if acc, err = accessor(doc, idx); err != nil {
			return nil, fmt.Errorf("colors %d: %w", set, err)
		}
		rgba, err := modeler.ReadColor(doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("reading colors %d: %w", set, err)
		}
		colors := make([][4]float32, len(rgba))
		for i, c := range rgba {
			colors[i] = [4]float32{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, float32(c[3]) / 255}
		}
		mesh.Color = append(mesh.Color, colors)
	}

	var indices []uint32
	if prim.Indices != nil {
		if acc, err = accessor(doc, *prim.Indices); err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
		if indices, err = modeler.ReadIndices(doc, acc, nil); err != nil {
			return nil, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(mesh.Position))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	mesh.Triangles = make([][3]uint32, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		mesh.Triangles = append(mesh.Triangles, [3]uint32{indices[i], indices[i+1], indices[i+2]})
	}
	return mesh, nil
}

func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) || doc.Accessors[idx] == nil {
		return nil, fmt.Errorf("%w: %d of %d", ErrBadAccessor, idx, len(doc.Accessors))
	}
	return doc.Accessors[idx], nil
}

// splitTangents turns glTF's vec4 tangents into tangent and bitangent
// arrays. The bitangent is cross(normal, tangent) scaled by the handedness w.
func splitTangents(normals [][3]float32, tangents [][4]float32) (t, b [][3]float32) {
	t = make([][3]float32, len(tangents))
	b = make([][3]float32, len(tangents))
	for i, tan := range tangents {
		t[i] = [3]float32{tan[0], tan[1], tan[2]}
		if i < len(normals) {
			b[i] = math.V3(normals[i]).Cross(math.V3(t[i])).Scale(tan[3]).Array()
		}
	}
	return t, b
}

func gltfMaterial(doc *gltf.Document, m *gltf.Material) *scene.MaterialData {
	mat := &scene.MaterialData{
		Label:   m.Name,
		Shading: scene.ShadingPBR,
		Colors:  map[scene.ColorKey][3]float32{},
		Scalars: map[scene.ScalarKey]float32{},
	}
	if _, ok := m.Extensions[unlitExtension]; ok {
		mat.Shading = scene.ShadingNone
	}

	if pbr := m.PBRMetallicRoughness; pbr != nil {
		if c := pbr.BaseColorFactor; c != nil {
			mat.Colors[scene.ColorDiffuse] = [3]float32{float32(c[0]), float32(c[1]), float32(c[2])}
		}
		if r := pbr.RoughnessFactor; r != nil {
			mat.Scalars[scene.ScalarRoughness] = float32(*r)
		}
		if t := pbr.BaseColorTexture; t != nil {
			setGLTFTexture(doc, mat, scene.TextureDiffuse, t.Index)
		}
		if t := pbr.MetallicRoughnessTexture; t != nil {
			setGLTFTexture(doc, mat, scene.TextureRoughness, t.Index)
		}
	}
	if t := m.NormalTexture; t != nil && t.Index != nil {
		setGLTFTexture(doc, mat, scene.TextureNormals, *t.Index)
	}
	if t := m.OcclusionTexture; t != nil && t.Index != nil {
		setGLTFTexture(doc, mat, scene.TextureOcclusion, *t.Index)
	}
	if t := m.EmissiveTexture; t != nil {
		setGLTFTexture(doc, mat, scene.TextureEmissive, t.Index)
	}
	return mat
}

func setGLTFTexture(doc *gltf.Document, mat *scene.MaterialData, slot scene.TextureSlot, texture int) {
	if p := texturePath(doc, texture); p != "" {
		mat.SetTexture(slot, p)
	}
}

// texturePath resolves a texture to its image URI. Embedded images are
// named by the image name or index.
func texturePath(doc *gltf.Document, texture int) string {
	if texture < 0 || texture >= len(doc.Textures) {
		return ""
	}
	src := doc.Textures[texture].Source
	if src == nil || *src >= len(doc.Images) {
		return ""
	}

	img := doc.Images[*src]
	switch {
	case img.URI != "" && !strings.HasPrefix(img.URI, "data:"):
		if p, err := url.PathUnescape(img.URI); err == nil {
			return p
		}
		return img.URI
	case img.Name != "":
		return img.Name
	default:
		return fmt.Sprintf("image%d", *src)
	}
}
