// Package gldevice implements gpu.Device on OpenGL 4.1 core.
//
// All methods must be called from the thread that owns the GL context.
package gldevice

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/orbitview/internal/engine/framebuffer"
	"github.com/Faultbox/orbitview/internal/engine/gpu"
	"github.com/Faultbox/orbitview/internal/engine/shader"
)

type vertexArray struct {
	vao uint32
	vbo uint32
}

// Device issues gpu.Device calls to the current OpenGL context.
type Device struct {
	log *zap.Logger

	arrays  map[gpu.VertexArray]vertexArray
	targets map[gpu.RenderTarget]*framebuffer.Framebuffer
	nextRT  gpu.RenderTarget

	// size of the default framebuffer, used when DefaultTarget is bound
	width, height int32
}

// New initializes OpenGL bindings. It must be called after the context is
// created.
func New(log *zap.Logger) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.String("glsl", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	return &Device{
		log:     log,
		arrays:  make(map[gpu.VertexArray]vertexArray),
		targets: make(map[gpu.RenderTarget]*framebuffer.Framebuffer),
	}, nil
}

// CompileProgram compiles and links a program, returning *gpu.DeviceError
// with the driver log on failure.
func (d *Device) CompileProgram(vertexSrc, fragmentSrc string) (gpu.Program, error) {
	p, err := shader.CompileProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return 0, err
	}
	d.log.Debug("program linked", zap.Uint32("program", p))
	return gpu.Program(p), nil
}

// DeleteProgram frees a program. Zero is ignored.
func (d *Device) DeleteProgram(p gpu.Program) {
	if p != 0 {
		gl.DeleteProgram(uint32(p))
	}
}

// UseProgram binds p for subsequent uniform and draw calls.
func (d *Device) UseProgram(p gpu.Program) {
	gl.UseProgram(uint32(p))
}

// UniformLocation looks up a uniform by name; -1 when the program lacks it.
func (d *Device) UniformLocation(p gpu.Program, name string) gpu.Uniform {
	return gpu.Uniform(shader.Uniform(uint32(p), name))
}

// SetMat4 uploads a column-major matrix to the bound program.
func (d *Device) SetMat4(u gpu.Uniform, m mgl32.Mat4) {
	gl.UniformMatrix4fv(int32(u), 1, false, &m[0])
}

// SetVec2 uploads a vec2.
func (d *Device) SetVec2(u gpu.Uniform, v mgl32.Vec2) { gl.Uniform2f(int32(u), v[0], v[1]) }

// SetVec3 uploads a vec3.
func (d *Device) SetVec3(u gpu.Uniform, v mgl32.Vec3) { gl.Uniform3f(int32(u), v[0], v[1], v[2]) }

// SetVec4 uploads a vec4.
func (d *Device) SetVec4(u gpu.Uniform, v mgl32.Vec4) {
	gl.Uniform4f(int32(u), v[0], v[1], v[2], v[3])
}

// SetFloat uploads a float.
func (d *Device) SetFloat(u gpu.Uniform, f float32) { gl.Uniform1f(int32(u), f) }

// SetInt uploads an int, bool or sampler unit.
func (d *Device) SetInt(u gpu.Uniform, i int32)     { gl.Uniform1i(int32(u), i) }

func pixelFormat(channels int) (internal int32, format uint32) {
	switch channels {
	case 1:
		return gl.R8, gl.RED
	case 3:
		return gl.RGB8, gl.RGB
	default:
		return gl.RGBA8, gl.RGBA
	}
}

// CreateTexture uploads a mipmapped, repeating 2D texture.
func (d *Device) CreateTexture(img gpu.Image) (gpu.Texture, error) {
	if err := img.Validate(); err != nil {
		return 0, err
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)

	internal, format := pixelFormat(img.Channels)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(img.Width), int32(img.Height), 0, format, gl.UNSIGNED_BYTE, gl.Ptr(img.Pixels))
	gl.GenerateMipmap(gl.TEXTURE_2D)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return gpu.Texture(tex), nil
}

// CreateCubemap uploads faces in +X, -X, +Y, -Y, +Z, -Z order.
func (d *Device) CreateCubemap(faces [6]gpu.Image) (gpu.Texture, error) {
	for i, f := range faces {
		if err := f.Validate(); err != nil {
			return 0, fmt.Errorf("face %d: %w", i, err)
		}
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, tex)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	for i, f := range faces {
		internal, format := pixelFormat(f.Channels)
		target := gl.TEXTURE_CUBE_MAP_POSITIVE_X + uint32(i)
		gl.TexImage2D(target, 0, internal, int32(f.Width), int32(f.Height), 0, format, gl.UNSIGNED_BYTE, gl.Ptr(f.Pixels))
	}

	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)

	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
	return gpu.Texture(tex), nil
}

// DeleteTexture frees a 2D or cubemap texture. Zero is ignored.
func (d *Device) DeleteTexture(t gpu.Texture) {
	if t == 0 {
		return
	}
	id := uint32(t)
	gl.DeleteTextures(1, &id)
}

// BindTexture binds a 2D texture to a texture unit.
func (d *Device) BindTexture(unit int, t gpu.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
}

// BindCubemap binds a cubemap to a texture unit.
func (d *Device) BindCubemap(unit int, t gpu.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, uint32(t))
}

// CreateVertexArray uploads interleaved floats and enables the layout's
// attributes.
func (d *Device) CreateVertexArray(data []float32, layout gpu.Layout) (gpu.VertexArray, error) {
	if len(data) == 0 {
		return 0, gpu.ErrEmptyBuffer
	}

	var va vertexArray
	gl.GenVertexArrays(1, &va.vao)
	gl.BindVertexArray(va.vao)

	gl.GenBuffers(1, &va.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, va.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	stride := layout.Stride * 4
	for _, a := range layout.Attributes {
		gl.VertexAttribPointerWithOffset(a.Location, a.Components, gl.FLOAT, false, stride, uintptr(a.Offset*4))
		gl.EnableVertexAttribArray(a.Location)
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	id := gpu.VertexArray(va.vao)
	d.arrays[id] = va
	d.log.Debug("vertex array created",
		zap.Uint32("vao", va.vao),
		zap.Int("floats", len(data)),
		zap.Int32("stride", layout.Stride),
	)
	return id, nil
}

// DeleteVertexArray frees the array and its buffer.
func (d *Device) DeleteVertexArray(id gpu.VertexArray) {
	va, ok := d.arrays[id]
	if !ok {
		return
	}
	gl.DeleteBuffers(1, &va.vbo)
	gl.DeleteVertexArrays(1, &va.vao)
	delete(d.arrays, id)
}

// BindVertexArray binds va for drawing.
func (d *Device) BindVertexArray(va gpu.VertexArray) {
	gl.BindVertexArray(uint32(va))
}

// DrawTriangles draws count vertices from first as triangles.
func (d *Device) DrawTriangles(first, count int32) {
	gl.DrawArrays(gl.TRIANGLES, first, count)
}

// DrawLines draws count vertices from first as line segments.
func (d *Device) DrawLines(first, count int32) {
	gl.DrawArrays(gl.LINES, first, count)
}

// CreateRenderTarget allocates an offscreen color and depth target.
func (d *Device) CreateRenderTarget(width, height int32) (gpu.RenderTarget, error) {
	fb, err := framebuffer.New(width, height)
	if err != nil {
		return 0, err
	}
	d.nextRT++
	d.targets[d.nextRT] = fb
	return d.nextRT, nil
}

// ResizeRenderTarget reallocates an offscreen target, or records the window
// size for gpu.DefaultTarget.
func (d *Device) ResizeRenderTarget(rt gpu.RenderTarget, width, height int32) {
	if rt == gpu.DefaultTarget {
		d.width, d.height = width, height
		return
	}
	if fb, ok := d.targets[rt]; ok {
		fb.Resize(width, height)
	}
}

// DeleteRenderTarget frees an offscreen target.
func (d *Device) DeleteRenderTarget(rt gpu.RenderTarget) {
	if fb, ok := d.targets[rt]; ok {
		fb.Destroy()
		delete(d.targets, rt)
	}
}

// RenderTargetTexture returns the color attachment of an offscreen target.
func (d *Device) RenderTargetTexture(rt gpu.RenderTarget) gpu.Texture {
	if fb, ok := d.targets[rt]; ok {
		return gpu.Texture(fb.ColorTexture())
	}
	return 0
}

// BindRenderTarget makes rt current and sets the viewport to its size.
func (d *Device) BindRenderTarget(rt gpu.RenderTarget) {
	if fb, ok := d.targets[rt]; ok {
		fb.Bind()
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if d.width > 0 && d.height > 0 {
		gl.Viewport(0, 0, d.width, d.height)
	}
}

// ReadPixels returns the target's RGBA pixels, bottom row first, and its
// size.
func (d *Device) ReadPixels(rt gpu.RenderTarget) ([]byte, int32, int32) {
	fb, ok := d.targets[rt]
	if !ok {
		return nil, 0, 0
	}
	w, h := fb.Size()
	return fb.ReadPixels(), w, h
}

// Viewport sets the viewport rectangle from the origin.
func (d *Device) Viewport(width, height int32) {
	gl.Viewport(0, 0, width, height)
}

// Clear clears color and depth.
func (d *Device) Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// SetDepthTest toggles depth testing.
func (d *Device) SetDepthTest(enabled bool) { toggle(gl.DEPTH_TEST, enabled) }

// SetBlend toggles source-alpha blending.
func (d *Device) SetBlend(enabled bool)     { toggle(gl.BLEND, enabled) }

// SetDepthWrite toggles depth buffer writes.
func (d *Device) SetDepthWrite(enabled bool) {
	gl.DepthMask(enabled)
}

// SetFrontFace selects the winding treated as front facing.
func (d *Device) SetFrontFace(f gpu.FrontFace) {
	if f == gpu.Clockwise {
		gl.FrontFace(gl.CW)
		return
	}
	gl.FrontFace(gl.CCW)
}

func toggle(capability uint32, enabled bool) {
	if enabled {
		gl.Enable(capability)
	} else {
		gl.Disable(capability)
	}
}

// Close releases every vertex array and render target still owned by the
// device.
func (d *Device) Close() {
	for id := range d.arrays {
		d.DeleteVertexArray(id)
	}
	for rt := range d.targets {
		d.DeleteRenderTarget(rt)
	}
}

var _ gpu.Device = (*Device)(nil)
