package scene

import "fmt"

// ShadingMode is the source scene's shading enumeration.
type ShadingMode int32

const (
	ShadingUnspecified  ShadingMode = 0
	ShadingFlat         ShadingMode = 1
	ShadingGouraud      ShadingMode = 2
	ShadingPhong        ShadingMode = 3
	ShadingBlinn        ShadingMode = 4
	ShadingToon         ShadingMode = 5
	ShadingOrenNayar    ShadingMode = 6
	ShadingMinnaert     ShadingMode = 7
	ShadingCookTorrance ShadingMode = 8
	ShadingNone         ShadingMode = 9
	ShadingFresnel      ShadingMode = 10
	ShadingPBR          ShadingMode = 11
)

// String returns a human-readable shading mode name.
func (s ShadingMode) String() string {
	switch s {
	case ShadingUnspecified:
		return "Unspecified"
	case ShadingFlat:
		return "Flat"
	case ShadingGouraud:
		return "Gouraud"
	case ShadingPhong:
		return "Phong"
	case ShadingBlinn:
		return "Blinn"
	case ShadingToon:
		return "Toon"
	case ShadingOrenNayar:
		return "OrenNayar"
	case ShadingMinnaert:
		return "Minnaert"
	case ShadingCookTorrance:
		return "CookTorrance"
	case ShadingNone:
		return "None"
	case ShadingFresnel:
		return "Fresnel"
	case ShadingPBR:
		return "PBR"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(s))
	}
}

// ColorKey names a material color parameter.
type ColorKey int

const (
	ColorAmbient ColorKey = iota
	ColorDiffuse
	ColorSpecular
)

// ScalarKey names a material scalar parameter.
type ScalarKey int

const (
	ScalarRoughness ScalarKey = iota
	ScalarSpecularPower
	ScalarAmbientCoeff
	ScalarDiffuseCoeff
	ScalarFresnelPower
)

// TextureSlot is a recognized texture slot kind.
type TextureSlot int

const (
	TextureDiffuse TextureSlot = iota
	TextureSpecular
	TextureAmbient
	TextureEmissive
	TextureHeight
	TextureNormals
	TextureShininess
	TextureOpacity
	TextureDisplacement
	TextureLightmap
	TextureReflection
	TextureBaseColor
	TextureMetalness
	TextureRoughness
	TextureOcclusion

	numTextureSlots
)

var textureSlotNames = [numTextureSlots]string{
	TextureDiffuse:      "diffuse",
	TextureSpecular:     "specular",
	TextureAmbient:      "ambient",
	TextureEmissive:     "emissive",
	TextureHeight:       "height",
	TextureNormals:      "normals",
	TextureShininess:    "shininess",
	TextureOpacity:      "opacity",
	TextureDisplacement: "displacement",
	TextureLightmap:     "lightmap",
	TextureReflection:   "reflection",
	TextureBaseColor:    "basecolor",
	TextureMetalness:    "metalness",
	TextureRoughness:    "roughness",
	TextureOcclusion:    "occlusion",
}

// TextureSlots returns every recognized slot in canonical order.
func TextureSlots() []TextureSlot {
	slots := make([]TextureSlot, numTextureSlots)
	for i := range slots {
		slots[i] = TextureSlot(i)
	}
	return slots
}

// String returns the stable lowercase slot name.
func (t TextureSlot) String() string {
	if t >= 0 && t < numTextureSlots {
		return textureSlotNames[t]
	}
	return fmt.Sprintf("slot%d", int(t))
}
