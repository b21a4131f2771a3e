package render

import (
	"fmt"

	"github.com/Faultbox/orbitview/internal/engine/gpu"
	"github.com/Faultbox/orbitview/internal/engine/shaders"
)

// ProgramKind indexes the program table.
type ProgramKind int

const (
	ProgramSky ProgramKind = iota
	ProgramBillboard
	ProgramLine
	ProgramSurface
	ProgramDisplay
	programCount
)

var programNames = [programCount]string{
	ProgramSky:       shaders.Sky,
	ProgramBillboard: shaders.Billboard,
	ProgramLine:      shaders.Line,
	ProgramSurface:   shaders.Surface,
	ProgramDisplay:   shaders.Display,
}

// String returns the shader name of the kind.
func (k ProgramKind) String() string {
	if k < 0 || k >= programCount {
		return fmt.Sprintf("ProgramKind(%d)", int(k))
	}
	return programNames[k]
}

// Texture units.
const (
	unitDiffuse = 0
	unitNormal  = 1
)

type skyUniforms struct {
	viewProj gpu.Uniform
	sky      gpu.Uniform
	gamma    gpu.Uniform
}

type billboardUniforms struct {
	viewProj gpu.Uniform
	model    gpu.Uniform
	texture  gpu.Uniform
}

type lineUniforms struct {
	viewProj gpu.Uniform
	color    gpu.Uniform
}

type surfaceUniforms struct {
	viewProj      gpu.Uniform
	model         gpu.Uniform
	ambient       gpu.Uniform
	diffuse       gpu.Uniform
	specular      gpu.Uniform
	transparency  gpu.Uniform
	diffuseMap    gpu.Uniform
	normalMap     gpu.Uniform
	normalMapping gpu.Uniform
	lightDir      gpu.Uniform
	eye           gpu.Uniform
}

type displayUniforms struct {
	scene      gpu.Uniform
	resolution gpu.Uniform
}

// programs holds every compiled program and its uniform locations.
type programs struct {
	handles [programCount]gpu.Program

	sky       skyUniforms
	billboard billboardUniforms
	line      lineUniforms
	surface   surfaceUniforms
	display   displayUniforms
}

func compilePrograms(dev gpu.Device, src shaders.Source) (*programs, error) {
	p := &programs{}
	for k := ProgramKind(0); k < programCount; k++ {
		vs, fs, err := src.Program(k.String())
		if err != nil {
			p.release(dev)
			return nil, fmt.Errorf("reading %s shader: %w", k, err)
		}
		h, err := dev.CompileProgram(vs, fs)
		if err != nil {
			p.release(dev)
			return nil, fmt.Errorf("compiling %s program: %w", k, err)
		}
		p.handles[k] = h
	}

	loc := func(k ProgramKind, name string) gpu.Uniform {
		return dev.UniformLocation(p.handles[k], name)
	}
	p.sky = skyUniforms{
		viewProj: loc(ProgramSky, "uViewProj"),
		sky:      loc(ProgramSky, "uSky"),
		gamma:    loc(ProgramSky, "uGamma"),
	}
	p.billboard = billboardUniforms{
		viewProj: loc(ProgramBillboard, "uViewProj"),
		model:    loc(ProgramBillboard, "uModel"),
		texture:  loc(ProgramBillboard, "uTexture"),
	}
	p.line = lineUniforms{
		viewProj: loc(ProgramLine, "uViewProj"),
		color:    loc(ProgramLine, "uColor"),
	}
	p.surface = surfaceUniforms{
		viewProj:      loc(ProgramSurface, "uViewProj"),
		model:         loc(ProgramSurface, "uModel"),
		ambient:       loc(ProgramSurface, "uAmbient"),
		diffuse:       loc(ProgramSurface, "uDiffuse"),
		specular:      loc(ProgramSurface, "uSpecular"),
		transparency:  loc(ProgramSurface, "uTransparency"),
		diffuseMap:    loc(ProgramSurface, "uDiffuseMap"),
		normalMap:     loc(ProgramSurface, "uNormalMap"),
		normalMapping: loc(ProgramSurface, "uNormalMapping"),
		lightDir:      loc(ProgramSurface, "uLightDir"),
		eye:           loc(ProgramSurface, "uEye"),
	}
	p.display = displayUniforms{
		scene:      loc(ProgramDisplay, "uScene"),
		resolution: loc(ProgramDisplay, "uResolution"),
	}
	return p, nil
}

func (p *programs) use(dev gpu.Device, k ProgramKind) {
	dev.UseProgram(p.handles[k])
}

func (p *programs) release(dev gpu.Device) {
	for i, h := range p.handles {
		if h != 0 {
			dev.DeleteProgram(h)
			p.handles[i] = 0
		}
	}
}
