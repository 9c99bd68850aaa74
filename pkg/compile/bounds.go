package compile

import (
	"cogentcore.org/core/math32"
)

// BoundingVolume is an axis-aligned box exposed as center and half extents.
// It is only ever produced by BoundsOf or Union.
//
// The scanned min/max box is kept alongside, and unions work on it, so
// chained unions never shrink through center/extents rounding.
type BoundingVolume struct {
	Center  math32.Vector3
	Extents math32.Vector3

	box math32.Box3
}

// fromBox derives center and extents from a min/max box.
func fromBox(b math32.Box3) BoundingVolume {
	center := b.Center()
	return BoundingVolume{
		Center:  center,
		Extents: b.Max.Sub(center),
		box:     b,
	}
}

// Box returns the volume as a min/max box.
func (v BoundingVolume) Box() math32.Box3 {
	return v.box
}

// Min returns the minimum corner.
func (v BoundingVolume) Min() math32.Vector3 {
	return v.box.Min
}

// Max returns the maximum corner.
func (v BoundingVolume) Max() math32.Vector3 {
	return v.box.Max
}

// Union returns the smallest volume containing both v and other.
func (v BoundingVolume) Union(other BoundingVolume) BoundingVolume {
	return fromBox(v.Box().Union(other.Box()))
}

// BoundsOf scans positions for their min/max. It reports false when there are
// no positions, since an empty scan has no meaningful volume.
func BoundsOf(positions [][3]float32) (BoundingVolume, bool) {
	if len(positions) == 0 {
		return BoundingVolume{}, false
	}
	box := math32.B3Empty()
	for _, p := range positions {
		box.ExpandByPoint(math32.Vec3(p[0], p[1], p[2]))
	}
	return fromBox(box), true
}

// UnionAll unions every volume. It reports false for zero volumes.
func UnionAll(volumes ...BoundingVolume) (BoundingVolume, bool) {
	if len(volumes) == 0 {
		return BoundingVolume{}, false
	}
	out := volumes[0]
	for _, v := range volumes[1:] {
		out = out.Union(v)
	}
	return out, true
}
