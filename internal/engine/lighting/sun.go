// Package lighting derives the directional light of a scene.
package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SunDirection returns the unit vector pointing toward a sun at longitude
// degrees around +Y and latitude degrees above the horizon.
func SunDirection(longitude, latitude float32) mgl32.Vec3 {
	lon := float64(mgl32.DegToRad(longitude))
	lat := float64(mgl32.DegToRad(latitude))

	return mgl32.Vec3{
		float32(math.Cos(lat) * math.Sin(lon)),
		float32(math.Sin(lat)),
		float32(math.Cos(lat) * math.Cos(lon)),
	}
}

// LightDirection is the direction sunlight travels, away from the sun.
func LightDirection(longitude, latitude float32) mgl32.Vec3 {
	return SunDirection(longitude, latitude).Mul(-1)
}
