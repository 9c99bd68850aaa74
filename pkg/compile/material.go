package compile

import (
	"strconv"

	"github.com/Faultbox/modelbake/pkg/scene"
)

// Shading model names. Unknown source modes map to ShadingUnknown.
const (
	ShadingFlat         = "flat"
	ShadingGouraud      = "gouraud"
	ShadingPhong        = "phong"
	ShadingBlinn        = "blinn"
	ShadingToon         = "toon"
	ShadingOrenNayar    = "orennayar"
	ShadingMinnaert     = "minnaert"
	ShadingCookTorrance = "cooktorrance"
	ShadingNone         = "none"
	ShadingFresnel      = "fresnel"
	ShadingPBR          = "pbr"
	ShadingUnknown      = "unknown"
)

var shadingNames = map[scene.ShadingMode]string{
	scene.ShadingFlat:         ShadingFlat,
	scene.ShadingGouraud:      ShadingGouraud,
	scene.ShadingPhong:        ShadingPhong,
	scene.ShadingBlinn:        ShadingBlinn,
	scene.ShadingToon:         ShadingToon,
	scene.ShadingOrenNayar:    ShadingOrenNayar,
	scene.ShadingMinnaert:     ShadingMinnaert,
	scene.ShadingCookTorrance: ShadingCookTorrance,
	scene.ShadingNone:         ShadingNone,
	scene.ShadingFresnel:      ShadingFresnel,
	scene.ShadingPBR:          ShadingPBR,
}

// ShadingModelName maps a source shading mode onto the closed set of names.
func ShadingModelName(mode scene.ShadingMode) string {
	if name, ok := shadingNames[mode]; ok {
		return name
	}
	return ShadingUnknown
}

// Neutral parameter values used when the source leaves one out.
var (
	DefaultAmbientColor  = [3]float32{0.2, 0.2, 0.2}
	DefaultDiffuseColor  = [3]float32{1, 1, 1}
	DefaultSpecularColor = [3]float32{0, 0, 0}
)

const (
	DefaultRoughness     float32 = 0
	DefaultSpecularPower float32 = 0
	DefaultAmbientCoeff  float32 = 1
	DefaultDiffuseCoeff  float32 = 1
	DefaultFresnelPower  float32 = 0
)

// Material is a compiled material.
type Material struct {
	Index        int
	Name         string
	ShadingModel string

	AmbientColor  [3]float32
	DiffuseColor  [3]float32
	SpecularColor [3]float32

	Roughness     float32
	SpecularPower float32
	AmbientCoeff  float32
	DiffuseCoeff  float32
	FresnelPower  float32

	// Textures maps slot key to path. Only slots the source supplies are present.
	Textures map[string]string
}

// CompileMaterial normalizes a source material. It never fails: missing
// parameters fall back to the neutral defaults.
func CompileMaterial(index int, src scene.Material) Material {
	m := Material{
		Index:         index,
		Name:          src.Name(),
		ShadingModel:  ShadingModelName(src.ShadingMode()),
		AmbientColor:  colorOr(src, scene.ColorAmbient, DefaultAmbientColor),
		DiffuseColor:  colorOr(src, scene.ColorDiffuse, DefaultDiffuseColor),
		SpecularColor: colorOr(src, scene.ColorSpecular, DefaultSpecularColor),
		Roughness:     scalarOr(src, scene.ScalarRoughness, DefaultRoughness),
		SpecularPower: scalarOr(src, scene.ScalarSpecularPower, DefaultSpecularPower),
		AmbientCoeff:  scalarOr(src, scene.ScalarAmbientCoeff, DefaultAmbientCoeff),
		DiffuseCoeff:  scalarOr(src, scene.ScalarDiffuseCoeff, DefaultDiffuseCoeff),
		FresnelPower:  scalarOr(src, scene.ScalarFresnelPower, DefaultFresnelPower),
		Textures:      make(map[string]string),
	}

	for _, slot := range scene.TextureSlots() {
		for i := 0; i < src.TextureCount(slot); i++ {
			path, ok := src.Texture(slot, i)
			if !ok {
				continue
			}
			m.Textures[TextureKey(slot, i)] = path
		}
	}
	return m
}

// TextureKey returns the map key for the i-th texture of a slot: the bare
// slot name for the first texture, the name with an index suffix after that.
func TextureKey(slot scene.TextureSlot, i int) string {
	if i == 0 {
		return slot.String()
	}
	return slot.String() + strconv.Itoa(i)
}

func colorOr(src scene.Material, key scene.ColorKey, def [3]float32) [3]float32 {
	if c, ok := src.Color(key); ok {
		return c
	}
	return def
}

func scalarOr(src scene.Material, key scene.ScalarKey, def float32) float32 {
	if v, ok := src.Scalar(key); ok {
		return v
	}
	return def
}
