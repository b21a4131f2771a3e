// Package asset loads line-oriented mesh and material streams into one
// interleaved vertex buffer, a material table and transparency-partitioned
// object lists.
package asset

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/Faultbox/orbitview/internal/engine/gpu"
	"github.com/Faultbox/orbitview/internal/engine/material"
)

// Vertex strides in floats.
const (
	StrideBasic = 8  // position, uv, normal
	StrideFull  = 14 // + tangent, bitangent
)

// Attribute locations shared with the surface shader.
const (
	LocPosition uint32 = iota
	LocUV
	LocNormal
	LocTangent
	LocBitangent
)

// ImageLoader resolves a texture reference from a material stream and
// decodes it.
type ImageLoader func(ref string) (gpu.Image, error)

// Options configure a load.
type Options struct {
	// NormalMapping selects the 14-float layout with a tangent basis.
	NormalMapping bool
	// Images decodes map directives. Nil skips textures.
	Images ImageLoader
	Log    *zap.Logger
}

// Dataset is the CPU-side result of a load. Nothing in it touches the device
// until Upload.
type Dataset struct {
	Vertices    []float32
	Layout      gpu.Layout
	Objects     []Object // declaration order
	Opaque      []Object
	Transparent []Object
	Materials   *material.Table
	Textures    []PendingTexture
}

// VertexCount returns the number of vertices in the buffer.
func (d *Dataset) VertexCount() int {
	if d.Layout.Stride == 0 {
		return 0
	}
	return len(d.Vertices) / int(d.Layout.Stride)
}

// Load parses the material stream, then the mesh stream. It stops at the
// first malformed line with a *LoadError; missing textures are logged and
// skipped.
func Load(mesh, mtl io.Reader, opts Options) (*Dataset, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	table, textures, err := parseMaterials(mtl, opts.Images, log)
	if err != nil {
		return nil, err
	}

	p, err := parseMesh(mesh, opts.NormalMapping, log)
	if err != nil {
		return nil, err
	}

	d := &Dataset{
		Vertices:  p.vertices,
		Layout:    VertexLayout(opts.NormalMapping),
		Objects:   p.objects,
		Materials: table,
		Textures:  textures,
	}

	for _, o := range p.objects {
		m, ok := table.Get(o.Material)
		if !ok {
			return nil, &LoadError{
				Stream: StreamMesh,
				Line:   o.line,
				Text:   "g " + o.Name,
				Err:    fmt.Errorf("%w: %q", ErrUnknownMaterial, o.Material),
			}
		}
		if m.IsTransparent() {
			d.Transparent = append(d.Transparent, o)
		} else {
			d.Opaque = append(d.Opaque, o)
		}
	}

	log.Debug("dataset parsed",
		zap.Int("vertices", d.VertexCount()),
		zap.Int("objects", len(d.Objects)),
		zap.Int("transparent", len(d.Transparent)),
		zap.Int("materials", table.Len()),
		zap.Int("textures", len(textures)),
	)
	return d, nil
}

// VertexLayout returns the attribute layout of the shared buffer.
func VertexLayout(normalMapping bool) gpu.Layout {
	l := gpu.Layout{
		Stride: StrideBasic,
		Attributes: []gpu.Attribute{
			{Location: LocPosition, Components: 3, Offset: 0},
			{Location: LocUV, Components: 2, Offset: 3},
			{Location: LocNormal, Components: 3, Offset: 5},
		},
	}
	if normalMapping {
		l.Stride = StrideFull
		l.Attributes = append(l.Attributes,
			gpu.Attribute{Location: LocTangent, Components: 3, Offset: 8},
			gpu.Attribute{Location: LocBitangent, Components: 3, Offset: 11},
		)
	}
	return l
}

// Upload creates the pending textures and hands their handles to the
// material table. Images the device rejects are logged and left unset.
func (d *Dataset) Upload(dev gpu.Device, log *zap.Logger) {
	for _, pt := range d.Textures {
		m, ok := d.Materials.Get(pt.Material)
		if !ok {
			continue
		}
		tex, err := dev.CreateTexture(pt.Image)
		if err != nil {
			log.Warn("texture upload failed, using default",
				zap.String("material", pt.Material),
				zap.String("path", pt.Path),
				zap.Error(err),
			)
			continue
		}

		slot := &m.DiffuseTexture
		if pt.Slot == SlotNormal {
			slot = &m.NormalTexture
		}
		if *slot != 0 {
			dev.DeleteTexture(*slot)
		}
		*slot = tex
	}
	d.Textures = nil
}
