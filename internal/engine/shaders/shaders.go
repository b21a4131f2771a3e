// Package shaders provides the GLSL sources of the viewer's programs.
package shaders

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed *.vert *.frag
var embedded embed.FS

// Program names.
const (
	Sky       = "sky"
	Billboard = "billboard"
	Line      = "line"
	Surface   = "surface"
	Display   = "display"
)

// Source supplies the vertex and fragment text of a named program.
type Source interface {
	Program(name string) (vertex, fragment string, err error)
}

// Embedded reads the sources compiled into the binary.
type Embedded struct{}

// Program implements Source.
func (Embedded) Program(name string) (string, string, error) {
	return readPair(embedded, name)
}

// Dir reads sources from a directory, falling back to the embedded copy for
// programs the directory does not override.
type Dir struct {
	Path string
}

// Program implements Source.
func (d Dir) Program(name string) (string, string, error) {
	vs, fsrc, err := readPair(os.DirFS(d.Path), name)
	if errors.Is(err, fs.ErrNotExist) {
		return Embedded{}.Program(name)
	}
	if err != nil {
		return "", "", fmt.Errorf("shader dir %s: %w", filepath.Clean(d.Path), err)
	}
	return vs, fsrc, nil
}

// New returns Dir when dir is set, Embedded otherwise.
func New(dir string) Source {
	if dir == "" {
		return Embedded{}
	}
	return Dir{Path: dir}
}

func readPair(fsys fs.FS, name string) (string, string, error) {
	vs, err := fs.ReadFile(fsys, name+".vert")
	if err != nil {
		return "", "", err
	}
	fsrc, err := fs.ReadFile(fsys, name+".frag")
	if err != nil {
		return "", "", err
	}
	return string(vs), string(fsrc), nil
}
