// Package material holds per-scene shading parameters keyed by name.
package material

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/orbitview/internal/engine/gpu"
)

// DefaultShininess is the specular exponent of a material without Ns.
const DefaultShininess = 20

// Material is the shading state of one named material.
type Material struct {
	Name     string
	Ambient  mgl32.Vec3
	Diffuse  mgl32.Vec3
	Specular mgl32.Vec4 // RGB + shininess

	// Transparency is 0 for opaque through 1 for fully transparent.
	Transparency float32

	// Zero handles fall back to the shared defaults at draw time.
	DiffuseTexture gpu.Texture
	NormalTexture  gpu.Texture
}

// New returns a material with the default shading parameters.
func New(name string) *Material {
	return &Material{
		Name:     name,
		Specular: mgl32.Vec4{0, 0, 0, DefaultShininess},
	}
}

// IsTransparent reports whether the material belongs to the sorted pass.
func (m *Material) IsTransparent() bool {
	return m.Transparency > 0
}

// Table maps material names to materials, preserving declaration order.
type Table struct {
	byName map[string]*Material
	order  []string
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{byName: make(map[string]*Material)}
}

// Add creates a material with default parameters. Redeclaring a name replaces
// the earlier entry.
func (t *Table) Add(name string) *Material {
	m := New(name)
	if _, exists := t.byName[name]; !exists {
		t.order = append(t.order, name)
	}
	t.byName[name] = m
	return m
}

// Get looks up a material by name.
func (t *Table) Get(name string) (*Material, bool) {
	m, ok := t.byName[name]
	return m, ok
}

// Len returns the number of materials.
func (t *Table) Len() int {
	return len(t.order)
}

// Names returns material names in declaration order.
func (t *Table) Names() []string {
	return append([]string(nil), t.order...)
}

// Textures returns every non-zero texture handle owned by the table.
func (t *Table) Textures() []gpu.Texture {
	var out []gpu.Texture
	for _, name := range t.order {
		m := t.byName[name]
		if m.DiffuseTexture != 0 {
			out = append(out, m.DiffuseTexture)
		}
		if m.NormalTexture != 0 {
			out = append(out, m.NormalTexture)
		}
	}
	return out
}

// Release deletes every texture owned by the table and empties it.
func (t *Table) Release(dev gpu.Device) {
	for _, tex := range t.Textures() {
		dev.DeleteTexture(tex)
	}
	t.byName = make(map[string]*Material)
	t.order = nil
}
