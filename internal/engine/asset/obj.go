package asset

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// DefaultGroup is the placeholder group name that does not start an object.
const DefaultGroup = "default"

// Object is a contiguous vertex range drawn with one material.
type Object struct {
	Name     string
	Start    int32
	Count    int32
	Material string

	// Centroid is the mean vertex position in the source's Y-up convention.
	Centroid mgl32.Vec3

	// Position overrides Centroid for placement and sorting when Placed is
	// set.
	Position mgl32.Vec3
	Placed   bool

	line   int
	sum    mgl32.Vec3
	points int
}

// SortPosition is the point used to order transparent objects.
func (o Object) SortPosition() mgl32.Vec3 {
	if o.Placed {
		return o.Position
	}
	return o.Centroid
}

type corner struct {
	v, t, n int // zero-based, -1 when absent
}

type objParser struct {
	positions []mgl32.Vec3
	uvs       []mgl32.Vec2
	normals   []mgl32.Vec3

	objects []Object
	active  int

	vertices      []float32
	normalMapping bool
	log           *zap.Logger
}

type objHandler func(p *objParser, l line) error

var objDirectives = map[string]objHandler{
	"g":      (*objParser).group,
	"v":      (*objParser).position,
	"vt":     (*objParser).texcoord,
	"vn":     (*objParser).normal,
	"f":      (*objParser).face,
	"usemtl": (*objParser).useMaterial,
}

func parseMesh(r io.Reader, normalMapping bool, log *zap.Logger) (*objParser, error) {
	p := &objParser{active: -1, normalMapping: normalMapping, log: log}

	err := scanLines(StreamMesh, r, func(l line) error {
		h, ok := objDirectives[l.keyword]
		if !ok {
			p.log.Debug("ignoring mesh directive", zap.String("keyword", l.keyword), zap.Int("line", l.num))
			return nil
		}
		if err := h(p, l); err != nil {
			return l.fail(StreamMesh, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range p.objects {
		o := &p.objects[i]
		if o.points > 0 {
			o.Centroid = o.sum.Mul(1 / float32(o.points))
		}
	}
	return p, nil
}

func (p *objParser) group(l line) error {
	if l.rest == "" || l.rest == DefaultGroup {
		return nil
	}
	p.objects = append(p.objects, Object{
		Name:  l.rest,
		Start: int32(p.vertexCount()),
		line:  l.num,
	})
	p.active = len(p.objects) - 1
	return nil
}

func (p *objParser) position(l line) error {
	v, err := l.floats(3)
	if err != nil {
		return err
	}
	p.positions = append(p.positions, mgl32.Vec3{v[0], v[1], v[2]})
	return nil
}

func (p *objParser) texcoord(l line) error {
	v, err := l.floats(2)
	if err != nil {
		return err
	}
	p.uvs = append(p.uvs, mgl32.Vec2{v[0], v[1]})
	return nil
}

func (p *objParser) normal(l line) error {
	v, err := l.floats(3)
	if err != nil {
		return err
	}
	p.normals = append(p.normals, mgl32.Vec3{v[0], v[1], v[2]})
	return nil
}

func (p *objParser) useMaterial(l line) error {
	if p.active < 0 {
		return fmt.Errorf("%w: usemtl outside a group", ErrNoActiveGroup)
	}
	if l.rest == "" {
		return fmt.Errorf("%w: usemtl without a name", ErrMalformedDirective)
	}
	p.objects[p.active].Material = l.rest
	return nil
}

func (p *objParser) face(l line) error {
	if len(l.args) < 3 {
		return fmt.Errorf("%w: face needs at least 3 corners, got %d", ErrMalformedDirective, len(l.args))
	}
	if p.active < 0 {
		return fmt.Errorf("%w: face outside a group", ErrNoActiveGroup)
	}

	corners := make([]corner, len(l.args))
	for i, arg := range l.args {
		c, err := p.parseCorner(arg)
		if err != nil {
			return err
		}
		corners[i] = c
	}

	// Fan triangulation around the first corner.
	for i := 1; i+1 < len(corners); i++ {
		p.triangle(corners[0], corners[i], corners[i+1])
	}
	return nil
}

// parseCorner reads v, v/t, v//n or v/t/n. Negative indices count back from
// the most recent entry.
func (p *objParser) parseCorner(s string) (corner, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 || parts[0] == "" {
		return corner{}, fmt.Errorf("%w: face corner %q", ErrMalformedDirective, s)
	}

	c := corner{t: -1, n: -1}
	var err error
	if c.v, err = resolveIndex(parts[0], len(p.positions), "position"); err != nil {
		return corner{}, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if c.t, err = resolveIndex(parts[1], len(p.uvs), "uv"); err != nil {
			return corner{}, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if c.n, err = resolveIndex(parts[2], len(p.normals), "normal"); err != nil {
			return corner{}, err
		}
	}
	return c, nil
}

func resolveIndex(s string, declared int, kind string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s index %q", ErrMalformedDirective, kind, s)
	}
	idx := i - 1
	if i < 0 {
		idx = declared + i
	}
	if i == 0 || idx < 0 || idx >= declared {
		return 0, fmt.Errorf("%w: %s %d of %d declared", ErrIndexOutOfRange, kind, i, declared)
	}
	return idx, nil
}

func (p *objParser) triangle(a, b, c corner) {
	cs := [3]corner{a, b, c}
	var (
		pos [3]mgl32.Vec3
		uv  [3]mgl32.Vec2
	)
	for i, k := range cs {
		pos[i] = p.positions[k.v]
		if k.t >= 0 {
			uv[i] = p.uvs[k.t]
		}
	}

	tangent, bitangent := FaceTangents(pos[0], pos[1], pos[2], uv[0], uv[1], uv[2])
	faceNormal := safeNormalize(pos[1].Sub(pos[0]).Cross(pos[2].Sub(pos[0])))

	o := &p.objects[p.active]
	for i, k := range cs {
		n := faceNormal
		if k.n >= 0 {
			n = p.normals[k.n]
		}
		// Buffer space has Y negated; normals and tangents stay in the
		// source convention.
		p.vertices = append(p.vertices,
			pos[i][0], -pos[i][1], pos[i][2],
			uv[i][0], uv[i][1],
			n[0], n[1], n[2],
		)
		if p.normalMapping {
			p.vertices = append(p.vertices,
				tangent[0], tangent[1], tangent[2],
				bitangent[0], bitangent[1], bitangent[2],
			)
		}
		o.sum = o.sum.Add(pos[i])
		o.points++
	}
	o.Count += 3
}

func (p *objParser) stride() int {
	if p.normalMapping {
		return StrideFull
	}
	return StrideBasic
}

func (p *objParser) vertexCount() int {
	return len(p.vertices) / p.stride()
}
