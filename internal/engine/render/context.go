// Package render sequences the per-frame passes against a gpu.Device.
package render

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/orbitview/internal/engine/gpu"
	"github.com/Faultbox/orbitview/internal/engine/material"
	"github.com/Faultbox/orbitview/internal/engine/shaders"
)

// Options tune what the pipeline draws.
type Options struct {
	// DebugLines draws billboard facing lines.
	DebugLines bool
	ClearColor mgl32.Vec4
	LineColor  mgl32.Vec3
}

// DefaultOptions returns the standard pipeline options.
func DefaultOptions() Options {
	return Options{
		DebugLines: true,
		ClearColor: mgl32.Vec4{0.1, 0.1, 0.12, 1},
		LineColor:  mgl32.Vec3{1, 1, 0},
	}
}

// Context is the renderer state shared by every pass.
type Context struct {
	dev      gpu.Device
	log      *zap.Logger
	opts     Options
	programs *programs
	defaults material.Defaults

	target        gpu.RenderTarget
	width, height int32

	sky    gpu.VertexArray
	quad   gpu.VertexArray
	screen gpu.VertexArray

	// transparent is reused across frames for sorting.
	transparent []sortable
}

// NewContext compiles every program and creates the offscreen target and
// static geometry. Any failure releases what was created.
func NewContext(dev gpu.Device, src shaders.Source, width, height int32, opts Options, log *zap.Logger) (*Context, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Context{dev: dev, log: log, opts: opts, width: max(width, 1), height: max(height, 1)}

	progs, err := compilePrograms(dev, src)
	if err != nil {
		return nil, err
	}
	c.programs = progs

	if c.defaults, err = material.NewDefaults(dev); err != nil {
		c.Release()
		return nil, fmt.Errorf("creating default textures: %w", err)
	}
	if c.target, err = dev.CreateRenderTarget(c.width, c.height); err != nil {
		c.Release()
		return nil, fmt.Errorf("creating offscreen target: %w", err)
	}

	for _, g := range []struct {
		dst    *gpu.VertexArray
		data   []float32
		layout gpu.Layout
	}{
		{&c.sky, skyCube, skyLayout},
		{&c.quad, billboardQuad, billboardLayout},
		{&c.screen, screenQuad, screenLayout},
	} {
		if *g.dst, err = dev.CreateVertexArray(g.data, g.layout); err != nil {
			c.Release()
			return nil, fmt.Errorf("creating static geometry: %w", err)
		}
	}

	dev.ResizeRenderTarget(gpu.DefaultTarget, c.width, c.height)
	log.Info("render context ready", zap.Int32("width", c.width), zap.Int32("height", c.height))
	return c, nil
}

// Size returns the offscreen target size.
func (c *Context) Size() (width, height int32) {
	return c.width, c.height
}

// Target returns the offscreen render target.
func (c *Context) Target() gpu.RenderTarget {
	return c.target
}

// Resize reallocates the offscreen target and the default viewport.
func (c *Context) Resize(width, height int32) {
	width, height = max(width, 1), max(height, 1)
	if width == c.width && height == c.height {
		return
	}
	c.width, c.height = width, height
	c.dev.ResizeRenderTarget(c.target, width, height)
	c.dev.ResizeRenderTarget(gpu.DefaultTarget, width, height)
	c.log.Debug("render target resized", zap.Int32("width", width), zap.Int32("height", height))
}

// ReadPixels returns the offscreen color in bottom-up rows.
func (c *Context) ReadPixels() ([]byte, int32, int32) {
	return c.dev.ReadPixels(c.target)
}

// Release frees everything the context created.
func (c *Context) Release() {
	for _, va := range []*gpu.VertexArray{&c.sky, &c.quad, &c.screen} {
		if *va != 0 {
			c.dev.DeleteVertexArray(*va)
			*va = 0
		}
	}
	if c.target != 0 {
		c.dev.DeleteRenderTarget(c.target)
		c.target = 0
	}
	c.defaults.Release(c.dev)
	if c.programs != nil {
		c.programs.release(c.dev)
		c.programs = nil
	}
}
