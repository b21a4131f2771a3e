package scene

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/orbitview/internal/engine/camera"
)

// Vec3 is an [x, y, z] triple in the dataset's Y-up convention.
type Vec3 [3]float32

// Buffer converts to the vertex buffer's convention (Y negated).
func (v Vec3) Buffer() mgl32.Vec3 {
	return mgl32.Vec3{v[0], -v[1], v[2]}
}

// World returns the value unchanged as an mgl32 vector.
func (v Vec3) World() mgl32.Vec3 {
	return mgl32.Vec3(v)
}

// Manifest declares every loadable scene.
type Manifest struct {
	Scenes map[string]Spec `yaml:"scenes" toml:"scenes"`
}

// Spec describes one scene's files, framing and decorations. Paths are
// relative to the data root except texture references inside the material
// stream, which are relative to the material file.
type Spec struct {
	Mesh          string          `yaml:"mesh" toml:"mesh"`
	Material      string          `yaml:"material" toml:"material"`
	NormalMapping bool            `yaml:"normal_mapping" toml:"normal_mapping"`
	Camera        CameraSpec      `yaml:"camera" toml:"camera"`
	Sky           *SkySpec        `yaml:"sky,omitempty" toml:"sky,omitempty"`
	LightDir      *Vec3           `yaml:"light_dir,omitempty" toml:"light_dir,omitempty"`
	Sun           *SunSpec        `yaml:"sun,omitempty" toml:"sun,omitempty"`
	Billboards    []BillboardSpec `yaml:"billboards,omitempty" toml:"billboards,omitempty"`
	Placements    map[string]Vec3 `yaml:"placements,omitempty" toml:"placements,omitempty"`
}

// CameraSpec is the framing applied when the scene becomes active.
type CameraSpec struct {
	Pitch  float32 `yaml:"pitch" toml:"pitch"`
	Yaw    float32 `yaml:"yaw" toml:"yaw"`
	Radius float32 `yaml:"radius" toml:"radius"`
	Focus  Vec3    `yaml:"focus" toml:"focus"`
}

// Preset converts to camera framing in buffer space.
func (c CameraSpec) Preset() camera.Preset {
	r := c.Radius
	if r <= 0 {
		r = VoidPreset.Radius
	}
	return camera.Preset{Pitch: c.Pitch, Yaw: c.Yaw, Radius: r, Focus: c.Focus.Buffer()}
}

// SkySpec lists cubemap faces in +X, -X, +Y, -Y, +Z, -Z order.
type SkySpec struct {
	Faces [6]string `yaml:"faces" toml:"faces"`
	Gamma float32   `yaml:"gamma" toml:"gamma"`
}

// SunSpec places the directional light by angle, in degrees.
type SunSpec struct {
	Longitude float32 `yaml:"longitude" toml:"longitude"`
	Latitude  float32 `yaml:"latitude" toml:"latitude"`
}

// BillboardSpec is one camera-facing textured quad.
type BillboardSpec struct {
	Position Vec3    `yaml:"position" toml:"position"`
	Facing   Vec3    `yaml:"facing" toml:"facing"`
	Size     float32 `yaml:"size" toml:"size"`
	Texture  string  `yaml:"texture" toml:"texture"`
}

// DefaultLightDir is used by scenes that do not set light_dir.
var DefaultLightDir = mgl32.Vec3{-0.3, -1, -0.4}

// ParseManifest decodes YAML, or TOML when name ends in .toml.
func ParseManifest(name string, data []byte) (*Manifest, error) {
	var m Manifest
	var err error
	if strings.EqualFold(filepath.Ext(name), ".toml") {
		err = toml.Unmarshal(data, &m)
	} else {
		err = yaml.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", name, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", name, err)
	}
	return &m, nil
}

// Validate checks that every scene names its streams.
func (m *Manifest) Validate() error {
	for id, s := range m.Scenes {
		if id == VoidID {
			return fmt.Errorf("scene %q is built in", VoidID)
		}
		if s.Mesh == "" || s.Material == "" {
			return fmt.Errorf("scene %q: mesh and material are required", id)
		}
		if s.LightDir != nil && s.Sun != nil {
			return fmt.Errorf("scene %q: light_dir and sun are exclusive", id)
		}
		if s.Sky != nil {
			for i, f := range s.Sky.Faces {
				if f == "" {
					return fmt.Errorf("scene %q: sky face %d missing", id, i)
				}
			}
		}
	}
	return nil
}

// IDs returns the declared scene ids, sorted.
func (m *Manifest) IDs() []string {
	ids := make([]string, 0, len(m.Scenes))
	for id := range m.Scenes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
