// Package camera provides the trackball camera used by the viewer.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/orbitview/internal/engine/input"
)

const (
	// DefaultMinRadius is the zoom floor used when none is configured.
	DefaultMinRadius = 0.05

	// SkyOffset replaces the radius translation for the sky view so the sky
	// cube never moves relative to the eye.
	SkyOffset = 0.01

	// radiusExponent shapes how pan and zoom speed scale with distance.
	radiusExponent = 1.225

	// panScale folds the fixed pan divisors (factor/5, delta/10).
	panScale = 1.0 / 50.0
)

// Config holds the projection and interaction constants.
type Config struct {
	FovYDegrees      float32
	Near             float32
	Far              float32
	OrbitSensitivity float32
	MinRadius        float32
}

// DefaultConfig returns the standard camera constants.
func DefaultConfig() Config {
	return Config{
		FovYDegrees:      45,
		Near:             0.01,
		Far:              8000,
		OrbitSensitivity: 0.01,
		MinRadius:        DefaultMinRadius,
	}
}

// Preset is the framing a scene applies to the camera when it becomes active.
type Preset struct {
	Pitch  float32
	Yaw    float32
	Radius float32
	Focus  mgl32.Vec3
}

// Trackball orbits a focus point at a given radius.
//
// Focus is expressed in the vertex buffer's space (Y already negated by the
// loader). Eye is reported in the source data's Y-up convention.
type Trackball struct {
	Radius float32
	Pitch  float32
	Yaw    float32
	Focus  mgl32.Vec3
	Aspect float32

	cfg Config

	view        mgl32.Mat4
	viewProj    mgl32.Mat4
	viewProjSky mgl32.Mat4
	right       mgl32.Vec3
	up          mgl32.Vec3
	front       mgl32.Vec3
	eye         mgl32.Vec3
}

// NewTrackball creates a camera with the given constants, framed by preset.
func NewTrackball(cfg Config, aspect float32, preset Preset) *Trackball {
	if cfg.MinRadius <= 0 {
		cfg.MinRadius = DefaultMinRadius
	}
	if aspect <= 0 {
		aspect = 1
	}
	c := &Trackball{cfg: cfg, Aspect: aspect}
	c.Reframe(preset)
	return c
}

// Reframe applies a preset and recomputes.
func (c *Trackball) Reframe(p Preset) {
	c.Pitch = p.Pitch
	c.Yaw = p.Yaw
	c.Focus = p.Focus
	c.Radius = c.clampRadius(p.Radius)
	c.Recompute()
}

// SetAspect updates the viewport ratio.
func (c *Trackball) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.Aspect = aspect
	c.Recompute()
}

// rotation is the pitch-then-yaw look rotation with the vertical axis flipped.
func (c *Trackball) rotation() mgl32.Mat4 {
	flip := mgl32.Scale3D(1, -1, 1)
	return flip.Mul4(mgl32.HomogRotate3DX(c.Pitch)).Mul4(mgl32.HomogRotate3DY(c.Yaw))
}

// Recompute derives matrices, basis vectors and eye position from the state.
func (c *Trackball) Recompute() {
	rot := c.rotation()
	proj := mgl32.Perspective(mgl32.DegToRad(c.cfg.FovYDegrees), c.Aspect, c.cfg.Near, c.cfg.Far)

	c.view = mgl32.Translate3D(0, 0, -c.Radius).Mul4(rot).Mul4(mgl32.Translate3D(-c.Focus[0], -c.Focus[1], -c.Focus[2]))
	c.viewProj = proj.Mul4(c.view)
	c.viewProjSky = proj.Mul4(mgl32.Translate3D(0, 0, -SkyOffset).Mul4(rot))

	// Rows of the rotation part are the camera axes in buffer space.
	c.right = mgl32.Vec3{c.view.At(0, 0), c.view.At(0, 1), c.view.At(0, 2)}
	c.up = mgl32.Vec3{c.view.At(1, 0), c.view.At(1, 1), c.view.At(1, 2)}
	c.front = mgl32.Vec3{-c.view.At(2, 0), -c.view.At(2, 1), -c.view.At(2, 2)}

	inv := c.view.Inv()
	c.eye = mgl32.Vec3{inv.At(0, 3), -inv.At(1, 3), inv.At(2, 3)}
}

// RadiusFactor returns (radius/10)^1.225.
func (c *Trackball) RadiusFactor() float32 {
	return RadiusFactor(c.Radius)
}

// RadiusFactor scales pan and zoom speed with distance from the focus.
func RadiusFactor(radius float32) float32 {
	return float32(math.Pow(float64(radius)/10.0, radiusExponent))
}

// Update applies one tick: wheel zoom first, then the cursor mode.
func (c *Trackball) Update(t input.Tick) {
	factor := c.RadiusFactor()

	if t.Cursor.Wheel != 0 {
		c.zoom(factor, t.Cursor.Wheel)
	}

	switch t.Cursor.Mode {
	case input.ModeOrbit:
		c.Orbit(float32(t.Cursor.DX), float32(t.Cursor.DY))
	case input.ModePan:
		c.pan(factor, float32(t.Cursor.DX), float32(t.Cursor.DY))
	}
}

// Zoom moves the camera toward (positive wheel) or away from the focus.
func (c *Trackball) Zoom(wheel int) {
	c.zoom(c.RadiusFactor(), wheel)
}

func (c *Trackball) zoom(factor float32, wheel int) {
	if wheel == 0 {
		return
	}
	sign := float32(1)
	if wheel > 0 {
		sign = -1
	}
	d := sign * float32(math.Abs(float64(factor*float32(wheel)))) / 100
	c.Radius = c.clampRadius(c.Radius + d)
	c.Recompute()
}

// Orbit rotates around the focus by a cursor delta.
func (c *Trackball) Orbit(dx, dy float32) {
	c.Yaw -= dx * c.cfg.OrbitSensitivity
	c.Pitch += dy * c.cfg.OrbitSensitivity
	c.Recompute()
}

// Pan shifts the focus along the camera's right and up axes.
func (c *Trackball) Pan(dx, dy float32) {
	c.pan(c.RadiusFactor(), dx, dy)
}

func (c *Trackball) pan(factor, dx, dy float32) {
	s := factor * panScale
	c.Focus = c.Focus.Add(c.right.Mul(s * dx)).Sub(c.up.Mul(s * dy))
	c.Recompute()
}

func (c *Trackball) clampRadius(r float32) float32 {
	if r < c.cfg.MinRadius || math.IsNaN(float64(r)) {
		return c.cfg.MinRadius
	}
	return r
}

// View returns the view matrix.
func (c *Trackball) View() mgl32.Mat4 { return c.view }

// ViewProj returns projection * view.
func (c *Trackball) ViewProj() mgl32.Mat4 { return c.viewProj }

// ViewProjSky returns the un-translated view-projection used for the sky.
func (c *Trackball) ViewProjSky() mgl32.Mat4 { return c.viewProjSky }

// Right returns the camera right axis.
func (c *Trackball) Right() mgl32.Vec3 { return c.right }

// Up returns the camera up axis.
func (c *Trackball) Up() mgl32.Vec3 { return c.up }

// Front returns the viewing direction.
func (c *Trackball) Front() mgl32.Vec3 { return c.front }

// Eye returns the camera position in the data's Y-up convention.
func (c *Trackball) Eye() mgl32.Vec3 { return c.eye }
