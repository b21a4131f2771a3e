package asset

import "github.com/go-gl/mathgl/mgl32"

// degenerateUV is the smallest UV determinant treated as solvable.
const degenerateUV = 1e-12

// FaceTangents solves edge = du*T + dv*B for the triangle's tangent and
// bitangent. Zero-area UV mappings fall back to a basis built from the first
// edge and the face normal.
func FaceTangents(p0, p1, p2 mgl32.Vec3, uv0, uv1, uv2 mgl32.Vec2) (tangent, bitangent mgl32.Vec3) {
	e1 := p1.Sub(p0)
	e2 := p2.Sub(p0)
	d1 := uv1.Sub(uv0)
	d2 := uv2.Sub(uv0)

	det := d1[0]*d2[1] - d2[0]*d1[1]
	if det*det < degenerateUV {
		return fallbackBasis(e1, e2)
	}
	r := 1 / det

	tangent = e1.Mul(d2[1]).Sub(e2.Mul(d1[1])).Mul(r)
	bitangent = e2.Mul(d1[0]).Sub(e1.Mul(d2[0])).Mul(r)
	return safeNormalize(tangent), safeNormalize(bitangent)
}

func fallbackBasis(e1, e2 mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	t := safeNormalize(e1)
	n := safeNormalize(e1.Cross(e2))
	return t, safeNormalize(n.Cross(t))
}

func safeNormalize(v mgl32.Vec3) mgl32.Vec3 {
	if l := v.Len(); l > 0 {
		return v.Mul(1 / l)
	}
	return v
}
