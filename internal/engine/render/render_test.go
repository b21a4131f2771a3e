package render

import (
	"errors"
	"regexp"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/orbitview/internal/engine/asset"
	"github.com/Faultbox/orbitview/internal/engine/camera"
	"github.com/Faultbox/orbitview/internal/engine/gpu"
	"github.com/Faultbox/orbitview/internal/engine/gpu/gputest"
	"github.com/Faultbox/orbitview/internal/engine/material"
	"github.com/Faultbox/orbitview/internal/engine/scene"
	"github.com/Faultbox/orbitview/internal/engine/shaders"
)

func newContext(t *testing.T) (*Context, *gputest.Recorder) {
	t.Helper()
	dev := gputest.NewRecorder()
	c, err := NewContext(dev, shaders.Embedded{}, 640, 480, DefaultOptions(), nil)
	require.NoError(t, err)
	return c, dev
}

func newCamera() *camera.Trackball {
	return camera.NewTrackball(camera.DefaultConfig(), 640.0/480.0, camera.Preset{Radius: 10})
}

// testScene builds a scene with one vertex buffer and the given objects.
func testScene(t *testing.T, dev *gputest.Recorder, opaque, transparent []asset.Object) *scene.Scene {
	t.Helper()
	table := material.NewTable()
	table.Add("solid")
	glass := table.Add("glass")
	glass.Transparency = 0.5

	va, err := dev.CreateVertexArray(make([]float32, 8*3), asset.VertexLayout(false))
	require.NoError(t, err)
	return &scene.Scene{
		ID:          "test",
		Opaque:      opaque,
		Transparent: transparent,
		Materials:   table,
		Vertices:    va,
		VertexCount: 3,
		LightDir:    scene.DefaultLightDir,
	}
}

// programKind maps a program handle back to its kind.
func programKind(c *Context, p gpu.Program) ProgramKind {
	for k, h := range c.programs.handles {
		if h == p {
			return ProgramKind(k)
		}
	}
	return -1
}

func programOrder(c *Context, dev *gputest.Recorder) []ProgramKind {
	var out []ProgramKind
	for _, call := range dev.Filter("UseProgram") {
		k := programKind(c, call.Args[0].(gpu.Program))
		if len(out) == 0 || out[len(out)-1] != k {
			out = append(out, k)
		}
	}
	return out
}

// surfaceDraws returns the Start of every triangle draw made with the surface
// program bound.
func surfaceDraws(c *Context, dev *gputest.Recorder) []int32 {
	var starts []int32
	bound := ProgramKind(-1)
	for _, call := range dev.Calls {
		switch call.Op {
		case "UseProgram":
			bound = programKind(c, call.Args[0].(gpu.Program))
		case "DrawTriangles":
			if bound == ProgramSurface {
				starts = append(starts, call.Args[0].(int32))
			}
		}
	}
	return starts
}

func TestNewContextCompilesEveryProgram(t *testing.T) {
	c, dev := newContext(t)
	assert.Equal(t, int(programCount), dev.Live("program"))
	assert.Equal(t, 1, dev.Live("target"))
	assert.Equal(t, 3, dev.Live("vertexarray"))
	assert.Equal(t, 2, dev.Live("texture"))
	assert.Equal(t, "uDiffuseMap", dev.UniformName(c.programs.surface.diffuseMap))
	assert.Equal(t, "uGamma", dev.UniformName(c.programs.sky.gamma))
}

func TestCompileFailureReturnsDeviceError(t *testing.T) {
	dev := gputest.NewRecorder()
	dev.FailCompile = true
	_, err := NewContext(dev, shaders.Embedded{}, 640, 480, DefaultOptions(), nil)

	var de *gpu.DeviceError
	require.True(t, errors.As(err, &de), "got %v", err)
	assert.ErrorIs(t, err, gpu.ErrCompile)
	assert.NotEmpty(t, de.Log)
	assert.Zero(t, dev.Live("program"))
}

func TestSortBackToFront(t *testing.T) {
	objs := []asset.Object{
		{Name: "two", Centroid: mgl32.Vec3{2, 0, 0}},
		{Name: "five", Centroid: mgl32.Vec3{0, 5, 0}},
		{Name: "one", Centroid: mgl32.Vec3{0, 0, 1}},
	}
	got := SortBackToFront(objs, mgl32.Vec3{})
	names := []string{got[0].Name, got[1].Name, got[2].Name}
	assert.Equal(t, []string{"five", "two", "one"}, names)
}

func TestSortIsStableAndUsesPlacement(t *testing.T) {
	objs := []asset.Object{
		{Name: "a", Centroid: mgl32.Vec3{3, 0, 0}},
		{Name: "b", Centroid: mgl32.Vec3{0, 3, 0}},
		{Name: "placed", Centroid: mgl32.Vec3{1, 0, 0}, Position: mgl32.Vec3{9, 0, 0}, Placed: true},
	}
	got := SortBackToFront(objs, mgl32.Vec3{})
	assert.Equal(t, "placed", got[0].Name)
	assert.Equal(t, "a", got[1].Name)
	assert.Equal(t, "b", got[2].Name)
}

func TestRenderPassOrder(t *testing.T) {
	c, dev := newContext(t)
	s := testScene(t, dev,
		[]asset.Object{{Name: "wall", Start: 0, Count: 3, Material: "solid"}},
		[]asset.Object{{Name: "window", Start: 0, Count: 3, Material: "glass"}},
	)
	s.Billboards = []scene.Billboard{{Size: 1}}
	lines, err := dev.CreateVertexArray([]float32{0, 0, 0, 0, 0, 1}, gpu.Layout{Stride: 3})
	require.NoError(t, err)
	s.Lines, s.LineCount = lines, 2
	sky, err := dev.CreateCubemap([6]gpu.Image{
		gpu.SolidImage(1, 1, 1, 1), gpu.SolidImage(1, 1, 1, 1), gpu.SolidImage(1, 1, 1, 1),
		gpu.SolidImage(1, 1, 1, 1), gpu.SolidImage(1, 1, 1, 1), gpu.SolidImage(1, 1, 1, 1),
	})
	require.NoError(t, err)
	dev.Reset()

	c.Render(Frame{Camera: newCamera(), Scene: s, Sky: &scene.SkyBox{Cubemap: sky, Gamma: 2.2}})

	assert.Equal(t, []ProgramKind{ProgramSky, ProgramBillboard, ProgramLine, ProgramSurface, ProgramDisplay},
		programOrder(c, dev))

	targets := dev.Filter("BindRenderTarget")
	require.Len(t, targets, 2)
	assert.Equal(t, c.Target(), targets[0].Args[0])
	assert.Equal(t, gpu.DefaultTarget, targets[1].Args[0])

	assert.Len(t, dev.Filter("DrawLines"), 1)
	// Opaque once, transparent twice.
	assert.Len(t, surfaceDraws(c, dev), 3)
}

func TestSkyPassRestoresState(t *testing.T) {
	c, dev := newContext(t)
	s := testScene(t, dev, nil, nil)
	dev.Reset()

	c.Render(Frame{Camera: newCamera(), Scene: s, Sky: &scene.SkyBox{Cubemap: 77, Gamma: 1}})

	var writes []any
	for _, call := range dev.Filter("SetDepthWrite") {
		writes = append(writes, call.Args[0])
	}
	assert.Equal(t, []any{true, false, true}, writes)

	faces := dev.Filter("SetFrontFace")
	require.GreaterOrEqual(t, len(faces), 3)
	assert.Equal(t, gpu.Clockwise, faces[1].Args[0])
	assert.Equal(t, gpu.CounterClockwise, faces[2].Args[0])
	assert.Len(t, dev.Filter("BindCubemap"), 1)
}

func TestTransparentDrawnBackToFrontTwice(t *testing.T) {
	c, dev := newContext(t)
	cam := newCamera()
	eye := cam.Eye()
	at := func(d float32) mgl32.Vec3 { return eye.Add(mgl32.Vec3{d, 0, 0}) }

	s := testScene(t, dev, nil, []asset.Object{
		{Name: "d2", Start: 10, Count: 3, Material: "glass", Position: at(2), Placed: true},
		{Name: "d5", Start: 20, Count: 3, Material: "glass", Position: at(5), Placed: true},
		{Name: "d1", Start: 30, Count: 3, Material: "glass", Position: at(1), Placed: true},
	})
	dev.Reset()

	c.Render(Frame{Camera: cam, Scene: s})

	assert.Equal(t, []int32{20, 10, 30, 20, 10, 30}, surfaceDraws(c, dev))

	var faces []any
	for _, call := range dev.Filter("SetFrontFace") {
		faces = append(faces, call.Args[0])
	}
	assert.Equal(t, []any{gpu.CounterClockwise, gpu.Clockwise, gpu.CounterClockwise}, faces)

	var blends []any
	for _, call := range dev.Filter("SetBlend") {
		blends = append(blends, call.Args[0])
	}
	assert.Equal(t, []any{false, true, false}, blends)
}

func TestPlacedObjectTranslatesInBufferSpace(t *testing.T) {
	m := placementModel(asset.Object{Position: mgl32.Vec3{1, 2, 3}, Placed: true})
	assert.Equal(t, mgl32.Vec3{1, -2, 3}, m.Col(3).Vec3())
	assert.Equal(t, mgl32.Ident4(), placementModel(asset.Object{Position: mgl32.Vec3{1, 2, 3}}))
}

func TestOpaqueFallsBackToDefaultTextures(t *testing.T) {
	c, dev := newContext(t)
	s := testScene(t, dev, []asset.Object{{Name: "wall", Start: 0, Count: 3, Material: "solid"}}, nil)
	solid, _ := s.Materials.Get("solid")
	solid.NormalTexture = 55
	dev.Reset()

	c.Render(Frame{Camera: newCamera(), Scene: s})

	binds := dev.Filter("BindTexture")
	require.GreaterOrEqual(t, len(binds), 2)
	assert.Equal(t, []any{unitDiffuse, c.defaults.White}, binds[0].Args)
	assert.Equal(t, []any{unitNormal, gpu.Texture(55)}, binds[1].Args)
}

func TestSurfaceUniforms(t *testing.T) {
	c, dev := newContext(t)
	s := testScene(t, dev, []asset.Object{{Name: "wall", Start: 0, Count: 3, Material: "solid"}}, nil)
	s.NormalMapping = true
	dev.Reset()

	c.Render(Frame{Camera: newCamera(), Scene: s})

	set := map[string]any{}
	for _, call := range dev.Filter("SetInt", "SetFloat", "SetVec3") {
		set[call.Args[0].(string)] = call.Args[1]
	}
	assert.Equal(t, int32(1), set["uNormalMapping"])
	assert.Equal(t, float32(0), set["uTransparency"])
	light := set["uLightDir"].(mgl32.Vec3)
	assert.InDelta(t, 1, light.Len(), 1e-5)
}

func TestVoidSceneStillComposites(t *testing.T) {
	c, dev := newContext(t)
	dev.Reset()

	c.Render(Frame{Camera: newCamera(), Scene: &scene.Scene{ID: scene.VoidID, Materials: material.NewTable()}})

	assert.Equal(t, []ProgramKind{ProgramDisplay}, programOrder(c, dev))
	draws := dev.Filter("DrawTriangles")
	require.Len(t, draws, 1)
	assert.Equal(t, []any{int32(0), int32(quadVertices)}, draws[0].Args)

	res := dev.Filter("SetVec2")
	require.Len(t, res, 1)
	assert.Equal(t, mgl32.Vec2{640, 480}, res[0].Args[1])
}

func TestBillboardModel(t *testing.T) {
	pos := mgl32.Vec3{1, 2, 3}
	m := BillboardModel(pos, 4, 0.3, 1.1)
	assert.Equal(t, pos, m.Col(3).Vec3())

	right := m.Mul4x1(mgl32.Vec4{1, 0, 0, 0}).Vec3()
	assert.InDelta(t, 4, right.Len(), 1e-5)
	// No roll: the quad's right edge stays horizontal.
	assert.InDelta(t, 0, right[1], 1e-5)
}

func TestBillboardFacesCamera(t *testing.T) {
	cam := camera.NewTrackball(camera.DefaultConfig(), 1, camera.Preset{Pitch: -0.4, Yaw: 0.9, Radius: 20})
	m := cam.View().Mul4(BillboardModel(mgl32.Vec3{}, 1, cam.Pitch, cam.Yaw))

	normal := m.Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3()
	assert.InDelta(t, 1, normal[2], 1e-5)

	// Texture top (v = 1) lands at the top of the screen.
	up := m.Mul4x1(mgl32.Vec4{0, -1, 0, 0}).Vec3()
	assert.InDelta(t, 1, up[1], 1e-5)
}

func TestResizeAndRelease(t *testing.T) {
	c, dev := newContext(t)
	c.Resize(800, 0)
	w, h := c.Size()
	assert.Equal(t, int32(800), w)
	assert.Equal(t, int32(1), h)

	dev.Reset()
	c.Resize(800, 1)
	assert.Empty(t, dev.Filter("ResizeRenderTarget"))

	c.Release()
	for _, kind := range []string{"program", "target", "vertexarray", "texture"} {
		assert.Zero(t, dev.Live(kind), kind)
	}
}

var uniformDecl = regexp.MustCompile(`uniform\s+(\w+)\s+(\w+)\s*;`)

// declaredUniforms returns the GLSL type of every uniform in a program.
func declaredUniforms(t *testing.T, kind ProgramKind) map[string]string {
	t.Helper()
	vs, fs, err := shaders.Embedded{}.Program(kind.String())
	require.NoError(t, err)
	out := make(map[string]string)
	for _, m := range uniformDecl.FindAllStringSubmatch(vs+"\n"+fs, -1) {
		out[m[2]] = m[1]
	}
	return out
}

// setterTypes lists the GLSL types each device setter can write.
var setterTypes = map[string][]string{
	"SetMat4":  {"mat4"},
	"SetVec2":  {"vec2"},
	"SetVec3":  {"vec3"},
	"SetVec4":  {"vec4"},
	"SetFloat": {"float"},
	"SetInt":   {"int", "bool", "sampler2D", "samplerCube"},
}

func TestUniformSettersMatchShaderTypes(t *testing.T) {
	c, dev := newContext(t)
	s := testScene(t, dev,
		[]asset.Object{{Name: "wall", Start: 0, Count: 3, Material: "solid"}},
		[]asset.Object{{Name: "window", Start: 0, Count: 3, Material: "glass"}},
	)
	s.Billboards = []scene.Billboard{{Size: 1}}
	lines, err := dev.CreateVertexArray([]float32{0, 0, 0, 0, 0, 1}, gpu.Layout{Stride: 3})
	require.NoError(t, err)
	s.Lines, s.LineCount = lines, 2
	dev.Reset()

	c.Render(Frame{Camera: newCamera(), Scene: s, Sky: &scene.SkyBox{Cubemap: 77, Gamma: 1}})

	declared := make(map[ProgramKind]map[string]string)
	seen := make(map[ProgramKind]bool)
	bound := ProgramKind(-1)
	for _, call := range dev.Calls {
		if call.Op == "UseProgram" {
			bound = programKind(c, call.Args[0].(gpu.Program))
			continue
		}
		types, ok := setterTypes[call.Op]
		if !ok {
			continue
		}
		require.NotEqual(t, ProgramKind(-1), bound, "%s with no program bound", call)
		if declared[bound] == nil {
			declared[bound] = declaredUniforms(t, bound)
		}
		name := call.Args[0].(string)
		glslType, ok := declared[bound][name]
		if assert.True(t, ok, "%s program has no uniform %s", bound, name) {
			assert.Contains(t, types, glslType, "%s program: %s set with %s", bound, name, call.Op)
		}
		seen[bound] = true
	}
	for k := ProgramKind(0); k < programCount; k++ {
		assert.True(t, seen[k], "no uniforms set for %s program", k)
	}
}

func TestLinePassUploadsConfiguredColor(t *testing.T) {
	c, dev := newContext(t)
	s := testScene(t, dev, nil, nil)
	lines, err := dev.CreateVertexArray([]float32{0, 0, 0, 0, 0, 1}, gpu.Layout{Stride: 3})
	require.NoError(t, err)
	s.Lines, s.LineCount = lines, 2
	dev.Reset()

	c.Render(Frame{Camera: newCamera(), Scene: s})

	var colors []any
	for _, call := range dev.Filter("SetVec3") {
		if call.Args[0] == "uColor" {
			colors = append(colors, call.Args[1])
		}
	}
	assert.Equal(t, []any{DefaultOptions().LineColor}, colors)
	assert.Equal(t, "vec3", declaredUniforms(t, ProgramLine)["uColor"])
}

func TestEmptyPassesLeaveStateAlone(t *testing.T) {
	c, dev := newContext(t)
	s := testScene(t, dev, nil, nil)
	dev.Reset()

	c.Render(Frame{Camera: newCamera(), Scene: s})

	assert.Equal(t, []ProgramKind{ProgramDisplay}, programOrder(c, dev))
	for _, call := range dev.Filter("SetDepthWrite", "SetFrontFace", "SetBlend") {
		switch call.Op {
		case "SetDepthWrite":
			assert.Equal(t, true, call.Args[0], "depth write turned off")
		case "SetFrontFace":
			assert.Equal(t, gpu.CounterClockwise, call.Args[0], "front face flipped")
		case "SetBlend":
			assert.Equal(t, false, call.Args[0], "blending turned on")
		}
	}
}
