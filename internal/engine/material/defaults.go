package material

import "github.com/Faultbox/orbitview/internal/engine/gpu"

// Defaults are the shared 1x1 textures bound when a material has none.
type Defaults struct {
	White      gpu.Texture
	FlatNormal gpu.Texture
}

// NewDefaults uploads the fallback textures.
func NewDefaults(dev gpu.Device) (Defaults, error) {
	white, err := dev.CreateTexture(gpu.SolidImage(255, 255, 255, 255))
	if err != nil {
		return Defaults{}, err
	}
	// Tangent-space +Z.
	flat, err := dev.CreateTexture(gpu.SolidImage(128, 128, 255, 255))
	if err != nil {
		dev.DeleteTexture(white)
		return Defaults{}, err
	}
	return Defaults{White: white, FlatNormal: flat}, nil
}

// Resolve returns the diffuse and normal textures to bind for m.
func (d Defaults) Resolve(m *Material) (diffuse, normal gpu.Texture) {
	diffuse, normal = d.White, d.FlatNormal
	if m.DiffuseTexture != 0 {
		diffuse = m.DiffuseTexture
	}
	if m.NormalTexture != 0 {
		normal = m.NormalTexture
	}
	return diffuse, normal
}

// Release deletes the fallback textures.
func (d *Defaults) Release(dev gpu.Device) {
	dev.DeleteTexture(d.White)
	dev.DeleteTexture(d.FlatNormal)
	*d = Defaults{}
}
