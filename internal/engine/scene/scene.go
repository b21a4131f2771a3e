// Package scene holds the active dataset and switches between the scenes
// declared in the manifest.
package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/orbitview/internal/engine/asset"
	"github.com/Faultbox/orbitview/internal/engine/camera"
	"github.com/Faultbox/orbitview/internal/engine/gpu"
	"github.com/Faultbox/orbitview/internal/engine/material"
)

// VoidID is the built-in empty scene loaded at startup.
const VoidID = "void"

// VoidPreset frames the void scene.
var VoidPreset = camera.Preset{
	Pitch:  -math.Pi / 8,
	Yaw:    -math.Pi / 4,
	Radius: 64,
	Focus:  mgl32.Vec3{64, 0, 0},
}

// Billboard is a camera-facing quad. Position and Facing are in buffer space.
type Billboard struct {
	Position mgl32.Vec3
	Facing   mgl32.Vec3
	Size     float32
	Texture  gpu.Texture
}

// Scene is everything one loaded dataset owns. It is replaced wholesale by
// Manager and never mutated mid-frame.
type Scene struct {
	ID            string
	NormalMapping bool

	Opaque      []asset.Object
	Transparent []asset.Object
	Materials   *material.Table
	Billboards  []Billboard
	Preset      camera.Preset
	LightDir    mgl32.Vec3

	// Shared vertex buffer; zero when the scene has no geometry.
	Vertices    gpu.VertexArray
	VertexCount int32

	// Billboard facing lines; zero when there are no billboards.
	Lines     gpu.VertexArray
	LineCount int32

	// Files are the resolved paths the scene was built from.
	Files []string
}

func voidScene() *Scene {
	return &Scene{
		ID:        VoidID,
		Materials: material.NewTable(),
		Preset:    VoidPreset,
		LightDir:  DefaultLightDir,
	}
}

// release frees every device handle the scene owns.
func (s *Scene) release(dev gpu.Device) {
	s.Materials.Release(dev)
	for i := range s.Billboards {
		if s.Billboards[i].Texture != 0 {
			dev.DeleteTexture(s.Billboards[i].Texture)
			s.Billboards[i].Texture = 0
		}
	}
	if s.Vertices != 0 {
		dev.DeleteVertexArray(s.Vertices)
		s.Vertices = 0
	}
	if s.Lines != 0 {
		dev.DeleteVertexArray(s.Lines)
		s.Lines = 0
	}
}

// SkyBox is the cubemap and gamma drawn behind a scene.
type SkyBox struct {
	Cubemap gpu.Texture
	Gamma   float32
}
