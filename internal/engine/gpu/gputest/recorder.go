// Package gputest provides a recording gpu.Device for tests.
package gputest

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/orbitview/internal/engine/gpu"
)

// Call is one recorded device operation.
type Call struct {
	Op   string
	Args []any
}

func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Op
	}
	return fmt.Sprintf("%s%v", c.Op, c.Args)
}

// Recorder implements gpu.Device in memory and records every call.
type Recorder struct {
	Calls []Call

	// FailCompile makes CompileProgram return a compile DeviceError.
	FailCompile bool

	next     uint32
	programs map[gpu.Program]string
	uniforms map[gpu.Uniform]string
	live     map[string]map[uint32]bool

	// Allocations counts every create call by kind ("texture", "cubemap",
	// "vertexarray", "program", "target").
	Allocations map[string]int
	Deletions   map[string]int

	// VertexData keeps the uploaded buffer of each vertex array.
	VertexData map[gpu.VertexArray][]float32
	Layouts    map[gpu.VertexArray]gpu.Layout
	Images     map[gpu.Texture]gpu.Image

	boundProgram gpu.Program
	targetSize   map[gpu.RenderTarget][2]int32
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		programs:    make(map[gpu.Program]string),
		uniforms:    make(map[gpu.Uniform]string),
		live:        make(map[string]map[uint32]bool),
		Allocations: make(map[string]int),
		Deletions:   make(map[string]int),
		VertexData:  make(map[gpu.VertexArray][]float32),
		Layouts:     make(map[gpu.VertexArray]gpu.Layout),
		Images:      make(map[gpu.Texture]gpu.Image),
		targetSize:  make(map[gpu.RenderTarget][2]int32),
	}
}

func (r *Recorder) record(op string, args ...any) {
	r.Calls = append(r.Calls, Call{Op: op, Args: args})
}

func (r *Recorder) alloc(kind string) uint32 {
	r.next++
	if r.live[kind] == nil {
		r.live[kind] = make(map[uint32]bool)
	}
	r.live[kind][r.next] = true
	r.Allocations[kind]++
	return r.next
}

func (r *Recorder) free(kind string, id uint32) {
	if id == 0 {
		return
	}
	if r.live[kind][id] {
		delete(r.live[kind], id)
		r.Deletions[kind]++
	}
}

// Live returns the number of handles of a kind that are still allocated.
func (r *Recorder) Live(kind string) int {
	return len(r.live[kind])
}

// IsLive reports whether a handle of the given kind is allocated.
func (r *Recorder) IsLive(kind string, id uint32) bool {
	return r.live[kind][id]
}

// TotalAllocations sums Allocations over every kind.
func (r *Recorder) TotalAllocations() int {
	n := 0
	for _, v := range r.Allocations {
		n += v
	}
	return n
}

// Reset clears the call log but keeps handle state.
func (r *Recorder) Reset() {
	r.Calls = nil
}

// Ops returns the recorded operation names in order.
func (r *Recorder) Ops() []string {
	ops := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Filter returns the calls whose op is in names.
func (r *Recorder) Filter(names ...string) []Call {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Call
	for _, c := range r.Calls {
		if want[c.Op] {
			out = append(out, c)
		}
	}
	return out
}

// UniformName returns the name a uniform location was resolved from.
func (r *Recorder) UniformName(u gpu.Uniform) string {
	return r.uniforms[u]
}

func (r *Recorder) CompileProgram(vertexSrc, fragmentSrc string) (gpu.Program, error) {
	r.record("CompileProgram")
	if r.FailCompile {
		return 0, &gpu.DeviceError{Stage: "vertex", Log: "0:1(1): error: syntax error", Err: gpu.ErrCompile}
	}
	p := gpu.Program(r.alloc("program"))
	r.programs[p] = vertexSrc
	return p, nil
}

func (r *Recorder) DeleteProgram(p gpu.Program) {
	r.record("DeleteProgram", p)
	r.free("program", uint32(p))
}

func (r *Recorder) UseProgram(p gpu.Program) {
	r.boundProgram = p
	r.record("UseProgram", p)
}

// BoundProgram returns the program of the last UseProgram call.
func (r *Recorder) BoundProgram() gpu.Program {
	return r.boundProgram
}

func (r *Recorder) UniformLocation(p gpu.Program, name string) gpu.Uniform {
	u := gpu.Uniform(int32(p)*1000 + int32(len(r.uniforms)) + 1)
	r.uniforms[u] = name
	return u
}

func (r *Recorder) SetMat4(u gpu.Uniform, m mgl32.Mat4) { r.record("SetMat4", r.uniforms[u], m) }
func (r *Recorder) SetVec2(u gpu.Uniform, v mgl32.Vec2) { r.record("SetVec2", r.uniforms[u], v) }
func (r *Recorder) SetVec3(u gpu.Uniform, v mgl32.Vec3) { r.record("SetVec3", r.uniforms[u], v) }
func (r *Recorder) SetVec4(u gpu.Uniform, v mgl32.Vec4) { r.record("SetVec4", r.uniforms[u], v) }
func (r *Recorder) SetFloat(u gpu.Uniform, f float32)   { r.record("SetFloat", r.uniforms[u], f) }
func (r *Recorder) SetInt(u gpu.Uniform, i int32)       { r.record("SetInt", r.uniforms[u], i) }

func (r *Recorder) CreateTexture(img gpu.Image) (gpu.Texture, error) {
	if err := img.Validate(); err != nil {
		return 0, err
	}
	t := gpu.Texture(r.alloc("texture"))
	r.Images[t] = img
	r.record("CreateTexture", t)
	return t, nil
}

func (r *Recorder) CreateCubemap(faces [6]gpu.Image) (gpu.Texture, error) {
	for _, f := range faces {
		if err := f.Validate(); err != nil {
			return 0, err
		}
	}
	t := gpu.Texture(r.alloc("cubemap"))
	r.record("CreateCubemap", t)
	return t, nil
}

func (r *Recorder) DeleteTexture(t gpu.Texture) {
	r.record("DeleteTexture", t)
	if r.live["cubemap"][uint32(t)] {
		r.free("cubemap", uint32(t))
		return
	}
	r.free("texture", uint32(t))
}

func (r *Recorder) BindTexture(unit int, t gpu.Texture) { r.record("BindTexture", unit, t) }
func (r *Recorder) BindCubemap(unit int, t gpu.Texture) { r.record("BindCubemap", unit, t) }

func (r *Recorder) CreateVertexArray(data []float32, layout gpu.Layout) (gpu.VertexArray, error) {
	if len(data) == 0 {
		return 0, gpu.ErrEmptyBuffer
	}
	va := gpu.VertexArray(r.alloc("vertexarray"))
	r.VertexData[va] = append([]float32(nil), data...)
	r.Layouts[va] = layout
	r.record("CreateVertexArray", va)
	return va, nil
}

func (r *Recorder) DeleteVertexArray(va gpu.VertexArray) {
	r.record("DeleteVertexArray", va)
	r.free("vertexarray", uint32(va))
}

func (r *Recorder) BindVertexArray(va gpu.VertexArray) { r.record("BindVertexArray", va) }
func (r *Recorder) DrawTriangles(first, count int32)    { r.record("DrawTriangles", first, count) }
func (r *Recorder) DrawLines(first, count int32)        { r.record("DrawLines", first, count) }

func (r *Recorder) CreateRenderTarget(width, height int32) (gpu.RenderTarget, error) {
	rt := gpu.RenderTarget(r.alloc("target"))
	r.targetSize[rt] = [2]int32{width, height}
	r.record("CreateRenderTarget", rt)
	return rt, nil
}

func (r *Recorder) ResizeRenderTarget(rt gpu.RenderTarget, width, height int32) {
	r.targetSize[rt] = [2]int32{width, height}
	r.record("ResizeRenderTarget", rt, width, height)
}

func (r *Recorder) DeleteRenderTarget(rt gpu.RenderTarget) {
	r.record("DeleteRenderTarget", rt)
	r.free("target", uint32(rt))
}

// RenderTargetTexture returns a synthetic texture id derived from the target.
func (r *Recorder) RenderTargetTexture(rt gpu.RenderTarget) gpu.Texture {
	return gpu.Texture(100000 + uint32(rt))
}

func (r *Recorder) BindRenderTarget(rt gpu.RenderTarget) { r.record("BindRenderTarget", rt) }

func (r *Recorder) ReadPixels(rt gpu.RenderTarget) ([]byte, int32, int32) {
	size := r.targetSize[rt]
	r.record("ReadPixels", rt)
	return make([]byte, size[0]*size[1]*4), size[0], size[1]
}

func (r *Recorder) Viewport(width, height int32)  { r.record("Viewport", width, height) }
func (r *Recorder) Clear(cr, cg, cb, ca float32)  { r.record("Clear") }
func (r *Recorder) SetDepthTest(enabled bool)     { r.record("SetDepthTest", enabled) }
func (r *Recorder) SetDepthWrite(enabled bool)    { r.record("SetDepthWrite", enabled) }
func (r *Recorder) SetFrontFace(f gpu.FrontFace)  { r.record("SetFrontFace", f) }
func (r *Recorder) SetBlend(enabled bool)         { r.record("SetBlend", enabled) }

var _ gpu.Device = (*Recorder)(nil)
