// Package debug provides diagnostic geometry and frame capture.
package debug

import "github.com/go-gl/mathgl/mgl32"

// Ray is a line segment from Origin along Dir.
type Ray struct {
	Origin mgl32.Vec3
	Dir    mgl32.Vec3
}

// FacingLines returns two [x, y, z] endpoints per ray, origin first.
func FacingLines(rays []Ray) []float32 {
	out := make([]float32, 0, len(rays)*6)
	for _, r := range rays {
		end := r.Origin.Add(r.Dir)
		out = append(out,
			r.Origin[0], r.Origin[1], r.Origin[2],
			end[0], end[1], end[2],
		)
	}
	return out
}
