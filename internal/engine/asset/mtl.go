package asset

import (
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/orbitview/internal/engine/gpu"
	"github.com/Faultbox/orbitview/internal/engine/material"
)

// TextureSlot names the material texture a map directive fills.
type TextureSlot int

const (
	SlotDiffuse TextureSlot = iota
	SlotNormal
)

func (s TextureSlot) String() string {
	if s == SlotNormal {
		return "normal"
	}
	return "diffuse"
}

// PendingTexture is a decoded image waiting to be uploaded for a material.
type PendingTexture struct {
	Material string
	Slot     TextureSlot
	Path     string
	Image    gpu.Image
}

type mtlParser struct {
	table   *material.Table
	active  *material.Material
	images  ImageLoader
	log     *zap.Logger
	pending []PendingTexture
}

type mtlHandler func(p *mtlParser, l line) error

var mtlDirectives = map[string]mtlHandler{
	"newmtl":   (*mtlParser).newMaterial,
	"Ka":       colorSetter(func(m *material.Material, c mgl32.Vec3) { m.Ambient = c }),
	"Kd":       colorSetter(func(m *material.Material, c mgl32.Vec3) { m.Diffuse = c }),
	"Ks":       colorSetter(func(m *material.Material, c mgl32.Vec3) { m.Specular = c.Vec4(m.Specular[3]) }),
	"Ns":       scalarSetter(func(m *material.Material, v float32) { m.Specular[3] = v }),
	"Tf":       scalarSetter(func(m *material.Material, t float32) { m.Transparency = clamp01(1 - t) }),
	"d":        scalarSetter(func(m *material.Material, d float32) { m.Transparency = clamp01(1 - d) }),
	"Tr":       scalarSetter(func(m *material.Material, tr float32) { m.Transparency = clamp01(tr) }),
	"map_Kd":   textureLoader(SlotDiffuse),
	"bump":     textureLoader(SlotNormal),
	"map_Bump": textureLoader(SlotNormal),
	"map_bump": textureLoader(SlotNormal),
	"norm":     textureLoader(SlotNormal),
}

func parseMaterials(r io.Reader, images ImageLoader, log *zap.Logger) (*material.Table, []PendingTexture, error) {
	p := &mtlParser{table: material.NewTable(), images: images, log: log}

	err := scanLines(StreamMaterial, r, func(l line) error {
		h, ok := mtlDirectives[l.keyword]
		if !ok {
			p.log.Debug("ignoring material directive", zap.String("keyword", l.keyword), zap.Int("line", l.num))
			return nil
		}
		if err := h(p, l); err != nil {
			return l.fail(StreamMaterial, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return p.table, p.pending, nil
}

func (p *mtlParser) newMaterial(l line) error {
	if l.rest == "" {
		return fmt.Errorf("%w: newmtl without a name", ErrMalformedDirective)
	}
	// A redeclared material starts over, textures included.
	kept := p.pending[:0]
	for _, pt := range p.pending {
		if pt.Material != l.rest {
			kept = append(kept, pt)
		}
	}
	p.pending = kept
	p.active = p.table.Add(l.rest)
	return nil
}

func (p *mtlParser) current(l line) (*material.Material, error) {
	if p.active == nil {
		return nil, fmt.Errorf("%w: %s before newmtl", ErrNoActiveMaterial, l.keyword)
	}
	return p.active, nil
}

func colorSetter(set func(*material.Material, mgl32.Vec3)) mtlHandler {
	return func(p *mtlParser, l line) error {
		m, err := p.current(l)
		if err != nil {
			return err
		}
		v, err := l.floats(3)
		if err != nil {
			return err
		}
		set(m, mgl32.Vec3{v[0], v[1], v[2]})
		return nil
	}
}

// scalarSetter reads the first value; Tf carries three but only the first
// is used.
func scalarSetter(set func(*material.Material, float32)) mtlHandler {
	return func(p *mtlParser, l line) error {
		m, err := p.current(l)
		if err != nil {
			return err
		}
		v, err := l.floats(1)
		if err != nil {
			return err
		}
		set(m, v[0])
		return nil
	}
}

func textureLoader(slot TextureSlot) mtlHandler {
	return func(p *mtlParser, l line) error {
		m, err := p.current(l)
		if err != nil {
			return err
		}
		ref, err := texturePath(l.args)
		if err != nil {
			return err
		}
		if p.images == nil {
			return nil
		}

		img, err := p.images(ref)
		if err != nil {
			p.log.Warn("texture unavailable, using default",
				zap.String("material", m.Name),
				zap.String("path", ref),
				zap.Int("line", l.num),
				zap.Error(err),
			)
			return nil
		}

		p.pending = append(p.pending, PendingTexture{Material: m.Name, Slot: slot, Path: ref, Image: img})
		if slot == SlotDiffuse {
			m.Diffuse = mgl32.Vec3{1, 1, 1}
		}
		return nil
	}
}

// optionArity is the maximum number of values each map option takes.
var optionArity = map[string]int{
	"-mm":      2,
	"-bm":      1,
	"-o":       3,
	"-s":       3,
	"-t":       3,
	"-blendu":  1,
	"-blendv":  1,
	"-boost":   1,
	"-texres":  1,
	"-clamp":   1,
	"-imfchan": 1,
	"-cc":      1,
	"-type":    1,
}

// mmPrefix matches an exported "-mm_<base>_<gain>_" filename prefix.
var mmPrefix = regexp.MustCompile(`^-mm_[-+0-9.eE]+_[-+0-9.eE]+_`)

// texturePath skips map options and strips the -mm filename prefix.
func texturePath(args []string) (string, error) {
	i := 0
	for i < len(args) {
		n, ok := optionArity[args[i]]
		if !ok {
			break
		}
		i++
		taken := 0
		for taken < n && i < len(args) && isNumber(args[i]) {
			i++
			taken++
		}
		// -clamp, -imfchan and -type take a word.
		if n == 1 && taken == 0 && i+1 < len(args) {
			i++
		}
	}
	if i >= len(args) {
		return "", fmt.Errorf("%w: texture directive without a path", ErrMalformedDirective)
	}

	ref := strings.Join(args[i:], " ")
	dir, file := path.Split(strings.ReplaceAll(ref, "\\", "/"))
	file = mmPrefix.ReplaceAllString(file, "")
	if file == "" {
		return "", fmt.Errorf("%w: empty texture filename", ErrMalformedDirective)
	}
	return dir + file, nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 32)
	return err == nil
}

func clamp01(v float32) float32 {
	return mgl32.Clamp(v, 0, 1)
}
