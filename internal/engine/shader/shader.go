// Package shader compiles and links GLSL programs.
package shader

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/orbitview/internal/engine/gpu"
)

// CompileProgram compiles vertex and fragment shaders and links them into a
// program. Failures carry the driver info log in a *gpu.DeviceError.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		gl.DeleteProgram(program)
		return 0, &gpu.DeviceError{Stage: "link", Log: readLog(logLen, func(buf *uint8) {
			gl.GetProgramInfoLog(program, logLen, nil, buf)
		}), Err: gpu.ErrLink}
	}

	// Shaders stay attached until the program is deleted; detach so the
	// deferred DeleteShader frees them now.
	gl.DetachShader(program, vertShader)
	gl.DetachShader(program, fragShader)

	return program, nil
}

func compileShader(source string, shaderType uint32, stage string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		msg := readLog(logLen, func(buf *uint8) {
			gl.GetShaderInfoLog(shader, logLen, nil, buf)
		})
		gl.DeleteShader(shader)
		return 0, &gpu.DeviceError{Stage: stage, Log: msg, Err: gpu.ErrCompile}
	}

	return shader, nil
}

func readLog(n int32, fill func(*uint8)) string {
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	fill(&buf[0])
	return gl.GoStr(&buf[0])
}

// Uniform returns the location of a named uniform, or -1 when the program
// does not use it.
func Uniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}
