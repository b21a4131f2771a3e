package shaders

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedProgramsPresent(t *testing.T) {
	for _, name := range []string{Sky, Billboard, Line, Surface, Display} {
		vs, fs, err := Embedded{}.Program(name)
		require.NoError(t, err, name)
		assert.True(t, strings.HasPrefix(vs, "#version 410 core"), name)
		assert.Contains(t, fs, "FragColor", name)
	}
}

func TestEmbeddedUnknown(t *testing.T) {
	_, _, err := Embedded{}.Program("nope")
	assert.Error(t, err)
}

func TestDirOverridesAndFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "line.vert"), []byte("custom vs"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "line.frag"), []byte("custom fs"), 0o644))

	src := New(dir)
	vs, fs, err := src.Program(Line)
	require.NoError(t, err)
	assert.Equal(t, "custom vs", vs)
	assert.Equal(t, "custom fs", fs)

	vs, _, err = src.Program(Sky)
	require.NoError(t, err)
	assert.Contains(t, vs, "uViewProj")

	assert.IsType(t, Embedded{}, New(""))
}
