// Package gpu defines the abstract graphics device the viewer core draws
// against. Concrete backends live in sub-packages.
package gpu

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Handles are opaque backend identifiers. Zero is never a valid handle.
type (
	Program      uint32
	Texture      uint32
	VertexArray  uint32
	RenderTarget uint32
	Uniform      int32
)

// DefaultTarget is the on-screen surface.
const DefaultTarget RenderTarget = 0

// NoUniform is returned for names the program does not use.
const NoUniform Uniform = -1

// Device errors.
var (
	ErrCompile          = errors.New("shader compilation failed")
	ErrLink             = errors.New("program link failed")
	ErrIncompleteTarget = errors.New("render target incomplete")
	ErrEmptyBuffer      = errors.New("empty vertex buffer")
	ErrBadImage         = errors.New("invalid image buffer")
)

// DeviceError carries the driver diagnostic for a failed device operation.
type DeviceError struct {
	Stage string // "vertex", "fragment", "link", "target"
	Log   string
	Err   error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Stage, e.Err, e.Log)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Image is a decoded pixel buffer ready for upload. Rows are bottom-up.
type Image struct {
	Width    int
	Height   int
	Channels int // 1, 3 or 4
	Pixels   []byte
}

// Validate checks the buffer length against the declared dimensions.
func (img Image) Validate() error {
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrBadImage, img.Width, img.Height)
	}
	switch img.Channels {
	case 1, 3, 4:
	default:
		return fmt.Errorf("%w: %d channels", ErrBadImage, img.Channels)
	}
	if want := img.Width * img.Height * img.Channels; len(img.Pixels) != want {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrBadImage, want, len(img.Pixels))
	}
	return nil
}

// SolidImage returns a 1x1 RGBA image.
func SolidImage(r, g, b, a byte) Image {
	return Image{Width: 1, Height: 1, Channels: 4, Pixels: []byte{r, g, b, a}}
}

// Attribute describes one float vertex attribute in an interleaved buffer.
type Attribute struct {
	Location   uint32
	Components int32
	Offset     int32 // in floats
}

// Layout describes an interleaved float vertex buffer.
type Layout struct {
	Stride     int32 // in floats
	Attributes []Attribute
}

// FrontFace is the winding treated as front-facing.
type FrontFace int

const (
	CounterClockwise FrontFace = iota
	Clockwise
)

// Device is the set of graphics operations used by the core. Every call
// blocks until issued.
type Device interface {
	CompileProgram(vertexSrc, fragmentSrc string) (Program, error)
	DeleteProgram(p Program)
	UseProgram(p Program)
	UniformLocation(p Program, name string) Uniform

	SetMat4(u Uniform, m mgl32.Mat4)
	SetVec2(u Uniform, v mgl32.Vec2)
	SetVec3(u Uniform, v mgl32.Vec3)
	SetVec4(u Uniform, v mgl32.Vec4)
	SetFloat(u Uniform, f float32)
	SetInt(u Uniform, i int32)

	CreateTexture(img Image) (Texture, error)
	CreateCubemap(faces [6]Image) (Texture, error)
	DeleteTexture(t Texture)
	BindTexture(unit int, t Texture)
	BindCubemap(unit int, t Texture)

	CreateVertexArray(data []float32, layout Layout) (VertexArray, error)
	DeleteVertexArray(va VertexArray)
	BindVertexArray(va VertexArray)
	DrawTriangles(first, count int32)
	DrawLines(first, count int32)

	CreateRenderTarget(width, height int32) (RenderTarget, error)
	ResizeRenderTarget(rt RenderTarget, width, height int32)
	DeleteRenderTarget(rt RenderTarget)
	RenderTargetTexture(rt RenderTarget) Texture
	BindRenderTarget(rt RenderTarget)
	ReadPixels(rt RenderTarget) (pixels []byte, width, height int32)

	Viewport(width, height int32)
	Clear(r, g, b, a float32)
	SetDepthTest(enabled bool)
	SetDepthWrite(enabled bool)
	SetFrontFace(f FrontFace)
	SetBlend(enabled bool)
}
