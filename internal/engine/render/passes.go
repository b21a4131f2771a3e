package render

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/orbitview/internal/engine/asset"
	"github.com/Faultbox/orbitview/internal/engine/camera"
	"github.com/Faultbox/orbitview/internal/engine/gpu"
	"github.com/Faultbox/orbitview/internal/engine/material"
	"github.com/Faultbox/orbitview/internal/engine/scene"
)

// Frame is what one Render call draws.
type Frame struct {
	Camera *camera.Trackball
	Scene  *scene.Scene
	// Sky is nil when the scene has none.
	Sky *scene.SkyBox
}

// Render invokes every pass in order on each frame. A pass with nothing to
// draw returns without touching device state.
func (c *Context) Render(f Frame) {
	c.targetPass()
	c.skyPass(f)
	c.billboardPass(f)
	c.linePass(f)
	c.opaquePass(f)
	c.transparentPass(f)
	c.compositePass()
}

func (c *Context) targetPass() {
	cc := c.opts.ClearColor
	c.dev.BindRenderTarget(c.target)
	c.dev.SetDepthTest(true)
	c.dev.SetDepthWrite(true)
	c.dev.SetBlend(false)
	c.dev.SetFrontFace(gpu.CounterClockwise)
	c.dev.Clear(cc[0], cc[1], cc[2], cc[3])
}

func (c *Context) skyPass(f Frame) {
	if f.Sky == nil || f.Sky.Cubemap == 0 {
		return
	}
	u := c.programs.sky
	c.dev.SetDepthWrite(false)
	c.dev.SetFrontFace(gpu.Clockwise)

	c.programs.use(c.dev, ProgramSky)
	c.dev.SetMat4(u.viewProj, f.Camera.ViewProjSky())
	c.dev.SetInt(u.sky, unitDiffuse)
	c.dev.SetFloat(u.gamma, f.Sky.Gamma)
	c.dev.BindCubemap(unitDiffuse, f.Sky.Cubemap)
	c.dev.BindVertexArray(c.sky)
	c.dev.DrawTriangles(0, skyVertices)

	c.dev.SetFrontFace(gpu.CounterClockwise)
	c.dev.SetDepthWrite(true)
}

// BillboardModel orients the billboard quad toward the camera using yaw and
// pitch only.
func BillboardModel(pos mgl32.Vec3, size, pitch, yaw float32) mgl32.Mat4 {
	return mgl32.Translate3D(pos[0], pos[1], pos[2]).
		Mul4(mgl32.HomogRotate3DY(-yaw + math.Pi)).
		Mul4(mgl32.HomogRotate3DX(pitch)).
		Mul4(mgl32.Scale3D(size, size, size))
}

func (c *Context) billboardPass(f Frame) {
	if len(f.Scene.Billboards) == 0 {
		return
	}
	u := c.programs.billboard
	c.programs.use(c.dev, ProgramBillboard)
	c.dev.SetMat4(u.viewProj, f.Camera.ViewProj())
	c.dev.SetInt(u.texture, unitDiffuse)
	c.dev.SetBlend(true)
	c.dev.BindVertexArray(c.quad)
	for _, b := range f.Scene.Billboards {
		tex := b.Texture
		if tex == 0 {
			tex = c.defaults.White
		}
		c.dev.SetMat4(u.model, BillboardModel(b.Position, b.Size, f.Camera.Pitch, f.Camera.Yaw))
		c.dev.BindTexture(unitDiffuse, tex)
		c.dev.DrawTriangles(0, quadVertices)
	}
	c.dev.SetBlend(false)
}

func (c *Context) linePass(f Frame) {
	if !c.opts.DebugLines || f.Scene.Lines == 0 {
		return
	}
	u := c.programs.line
	c.programs.use(c.dev, ProgramLine)
	c.dev.SetMat4(u.viewProj, f.Camera.ViewProj())
	c.dev.SetVec3(u.color, c.opts.LineColor)
	c.dev.BindVertexArray(f.Scene.Lines)
	c.dev.DrawLines(0, f.Scene.LineCount)
}

// beginSurface binds the surface program, the shared buffer and the frame
// uniforms.
func (c *Context) beginSurface(f Frame) {
	u := c.programs.surface
	light := f.Scene.LightDir
	if light.Len() > 0 {
		light = light.Normalize()
	}
	normalMapping := int32(0)
	if f.Scene.NormalMapping {
		normalMapping = 1
	}

	c.programs.use(c.dev, ProgramSurface)
	c.dev.SetMat4(u.viewProj, f.Camera.ViewProj())
	c.dev.SetVec3(u.lightDir, light)
	c.dev.SetVec3(u.eye, f.Camera.Eye())
	c.dev.SetInt(u.normalMapping, normalMapping)
	c.dev.SetInt(u.diffuseMap, unitDiffuse)
	c.dev.SetInt(u.normalMap, unitNormal)
	c.dev.BindVertexArray(f.Scene.Vertices)
}

func (c *Context) drawObject(o asset.Object, m *material.Material, model mgl32.Mat4) {
	u := c.programs.surface
	diffuse, normal := c.defaults.Resolve(m)
	c.dev.SetMat4(u.model, model)
	c.dev.SetVec3(u.ambient, m.Ambient)
	c.dev.SetVec3(u.diffuse, m.Diffuse)
	c.dev.SetVec4(u.specular, m.Specular)
	c.dev.SetFloat(u.transparency, m.Transparency)
	c.dev.BindTexture(unitDiffuse, diffuse)
	c.dev.BindTexture(unitNormal, normal)
	c.dev.DrawTriangles(o.Start, o.Count)
}

// fallback is drawn for objects whose material disappeared from the table.
var fallback = material.New("")

func (c *Context) lookup(s *scene.Scene, name string) *material.Material {
	if m, ok := s.Materials.Get(name); ok {
		return m
	}
	return fallback
}

func (c *Context) opaquePass(f Frame) {
	if len(f.Scene.Opaque) == 0 || f.Scene.Vertices == 0 {
		return
	}
	c.beginSurface(f)
	for _, o := range f.Scene.Opaque {
		c.drawObject(o, c.lookup(f.Scene, o.Material), mgl32.Ident4())
	}
}

type sortable struct {
	obj  asset.Object
	dist float32
}

// SortBackToFront orders objects by decreasing distance from eye. Equal
// distances keep their input order.
func SortBackToFront(objs []asset.Object, eye mgl32.Vec3) []asset.Object {
	s := sortByDistance(nil, objs, eye)
	out := make([]asset.Object, len(s))
	for i := range s {
		out[i] = s[i].obj
	}
	return out
}

func sortByDistance(buf []sortable, objs []asset.Object, eye mgl32.Vec3) []sortable {
	buf = buf[:0]
	for _, o := range objs {
		buf = append(buf, sortable{obj: o, dist: o.SortPosition().Sub(eye).Len()})
	}
	sort.SliceStable(buf, func(i, j int) bool { return buf[i].dist > buf[j].dist })
	return buf
}

// placementModel translates a placed object; positions are Y-up.
func placementModel(o asset.Object) mgl32.Mat4 {
	if !o.Placed {
		return mgl32.Ident4()
	}
	return mgl32.Translate3D(o.Position[0], -o.Position[1], o.Position[2])
}

func (c *Context) transparentPass(f Frame) {
	if len(f.Scene.Transparent) == 0 || f.Scene.Vertices == 0 {
		return
	}
	c.transparent = sortByDistance(c.transparent, f.Scene.Transparent, f.Camera.Eye())

	c.beginSurface(f)
	c.dev.SetBlend(true)
	// Back faces first, then front faces.
	for _, face := range []gpu.FrontFace{gpu.Clockwise, gpu.CounterClockwise} {
		c.dev.SetFrontFace(face)
		for _, e := range c.transparent {
			c.drawObject(e.obj, c.lookup(f.Scene, e.obj.Material), placementModel(e.obj))
		}
	}
	c.dev.SetBlend(false)
}

func (c *Context) compositePass() {
	u := c.programs.display
	c.dev.BindRenderTarget(gpu.DefaultTarget)
	c.dev.SetDepthTest(false)
	c.dev.Clear(0, 0, 0, 1)

	c.programs.use(c.dev, ProgramDisplay)
	c.dev.SetInt(u.scene, unitDiffuse)
	c.dev.SetVec2(u.resolution, mgl32.Vec2{float32(c.width), float32(c.height)})
	c.dev.BindTexture(unitDiffuse, c.dev.RenderTargetTexture(c.target))
	c.dev.BindVertexArray(c.screen)
	c.dev.DrawTriangles(0, quadVertices)
	c.dev.SetDepthTest(true)
}
