package scene

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/orbitview/internal/assets"
	"github.com/Faultbox/orbitview/internal/engine/asset"
	"github.com/Faultbox/orbitview/internal/engine/camera"
	"github.com/Faultbox/orbitview/internal/engine/debug"
	"github.com/Faultbox/orbitview/internal/engine/gpu"
	"github.com/Faultbox/orbitview/internal/engine/lighting"
	"github.com/Faultbox/orbitview/internal/engine/texture"
)

// ErrUnknownScene is returned for ids missing from the manifest.
var ErrUnknownScene = errors.New("unknown scene")

// lineLayout is the position-only layout of the facing line buffer.
var lineLayout = gpu.Layout{
	Stride:     3,
	Attributes: []gpu.Attribute{{Location: 0, Components: 3, Offset: 0}},
}

// Options tune how scene assets are prepared.
type Options struct {
	// MaxTextureSize downscales larger images. Zero keeps the source size.
	MaxTextureSize int
}

// Manager owns the active scene and the per-scene sky cubemaps.
type Manager struct {
	dev      gpu.Device
	files    *assets.Manager
	manifest *Manifest
	cam      *camera.Trackball
	log      *zap.Logger
	opts     Options

	current *Scene
	skies   map[string]SkyBox
}

// NewManager creates a manager. Nothing is loaded until SwitchScene.
func NewManager(dev gpu.Device, files *assets.Manager, manifest *Manifest, cam *camera.Trackball, log *zap.Logger, opts Options) *Manager {
	if manifest == nil {
		manifest = &Manifest{}
	}
	return &Manager{
		dev:      dev,
		files:    files,
		manifest: manifest,
		cam:      cam,
		log:      log,
		opts:     opts,
		skies:    make(map[string]SkyBox),
	}
}

// Current returns the active scene, or nil before the first switch.
func (m *Manager) Current() *Scene {
	return m.current
}

// Sky returns the cubemap registered for a scene id.
func (m *Manager) Sky(id string) (SkyBox, bool) {
	s, ok := m.skies[id]
	return s, ok
}

// Manifest returns the scene declarations.
func (m *Manager) Manifest() *Manifest {
	return m.manifest
}

// SwitchScene makes id the active scene. Switching to the scene that is
// already loaded only reapplies its camera preset. A failed load leaves the
// previous scene active.
func (m *Manager) SwitchScene(id string) error {
	if m.current != nil && m.current.ID == id && id != VoidID {
		m.cam.Reframe(m.current.Preset)
		m.log.Debug("scene already active, camera reframed", zap.String("scene", id))
		return nil
	}
	return m.load(id, false)
}

// Reload rebuilds the active scene from disk, including its sky.
func (m *Manager) Reload() error {
	if m.current == nil || m.current.ID == VoidID {
		return nil
	}
	return m.load(m.current.ID, true)
}

// staged is a scene whose CPU-side data is ready but not yet on the device.
type staged struct {
	scene      *Scene
	dataset    *asset.Dataset
	billboards []gpu.Image // zero Width when the texture is unavailable
	sky        *[6]gpu.Image
	skyGamma   float32
	lines      []float32
}

func (m *Manager) load(id string, refresh bool) error {
	log := m.log.With(zap.String("scene", id), zap.String("load_id", uuid.NewString()))
	start := time.Now()

	next, err := m.stage(id, refresh, log)
	if err != nil {
		log.Error("scene load failed, keeping previous scene", zap.Error(err))
		return err
	}

	// Release before create.
	if m.current != nil {
		m.current.release(m.dev)
		m.current = nil
	}
	if refresh && next.sky != nil {
		m.dropSky(id)
	}

	if err := m.upload(next, log); err != nil {
		next.scene.release(m.dev)
		m.current = voidScene()
		m.cam.Reframe(m.current.Preset)
		log.Error("scene upload failed, fell back to void", zap.Error(err))
		return err
	}

	m.current = next.scene
	m.cam.Reframe(next.scene.Preset)
	log.Info("scene loaded",
		zap.Int("opaque", len(next.scene.Opaque)),
		zap.Int("transparent", len(next.scene.Transparent)),
		zap.Int("billboards", len(next.scene.Billboards)),
		zap.Int32("vertices", next.scene.VertexCount),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// stage reads and parses everything for id without touching the device.
func (m *Manager) stage(id string, refresh bool, log *zap.Logger) (*staged, error) {
	if id == VoidID {
		return &staged{scene: voidScene()}, nil
	}
	spec, ok := m.manifest.Scenes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, id)
	}

	s := &Scene{
		ID:            id,
		NormalMapping: spec.NormalMapping,
		Preset:        spec.Camera.Preset(),
		LightDir:      DefaultLightDir,
	}
	switch {
	case spec.LightDir != nil && spec.LightDir.World().Len() > 0:
		s.LightDir = spec.LightDir.World().Normalize()
	case spec.Sun != nil:
		s.LightDir = lighting.LightDirection(spec.Sun.Longitude, spec.Sun.Latitude)
	}
	st := &staged{scene: s}

	meshData, err := m.read(spec.Mesh, s)
	if err != nil {
		return nil, err
	}
	mtlData, err := m.read(spec.Material, s)
	if err != nil {
		return nil, err
	}

	mtlDir := path.Dir(filepath.ToSlash(spec.Material))
	ds, err := asset.Load(bytes.NewReader(meshData), bytes.NewReader(mtlData), asset.Options{
		NormalMapping: spec.NormalMapping,
		Images: func(ref string) (gpu.Image, error) {
			return m.image(joinRef(mtlDir, ref), s, texture.Options{MaxSize: m.opts.MaxTextureSize})
		},
		Log: log,
	})
	if err != nil {
		return nil, err
	}
	st.dataset = ds
	s.Materials = ds.Materials
	s.Opaque = ds.Opaque
	s.Transparent = ds.Transparent
	s.VertexCount = int32(ds.VertexCount())

	for i := range s.Transparent {
		if p, ok := spec.Placements[s.Transparent[i].Name]; ok {
			s.Transparent[i].Position = p.World()
			s.Transparent[i].Placed = true
		}
	}

	var rays []debug.Ray
	for _, b := range spec.Billboards {
		facing := b.Facing.Buffer()
		if facing.Len() > 0 {
			facing = facing.Normalize()
		}
		size := b.Size
		if size <= 0 {
			size = 1
		}
		bb := Billboard{Position: b.Position.Buffer(), Facing: facing, Size: size}
		s.Billboards = append(s.Billboards, bb)
		rays = append(rays, debug.Ray{Origin: bb.Position, Dir: bb.Facing})

		var img gpu.Image
		if b.Texture != "" {
			img, err = m.image(b.Texture, s, texture.Options{MaxSize: m.opts.MaxTextureSize})
			if err != nil {
				log.Warn("billboard texture unavailable, using default", zap.String("path", b.Texture), zap.Error(err))
				img = gpu.Image{}
			}
		}
		st.billboards = append(st.billboards, img)
	}
	st.lines = debug.FacingLines(rays)

	if spec.Sky != nil {
		if _, cached := m.skies[id]; !cached || refresh {
			st.sky, st.skyGamma = m.stageSky(spec.Sky, s, log)
		}
	}
	return st, nil
}

func (m *Manager) stageSky(spec *SkySpec, s *Scene, log *zap.Logger) (*[6]gpu.Image, float32) {
	var faces [6]gpu.Image
	for i, ref := range spec.Faces {
		img, err := m.image(ref, s, texture.Options{TopDown: true, MaxSize: m.opts.MaxTextureSize})
		if err != nil {
			log.Warn("sky face unavailable, scene has no sky", zap.String("path", ref), zap.Error(err))
			return nil, 0
		}
		faces[i] = img
	}
	gamma := spec.Gamma
	if gamma <= 0 {
		gamma = 1
	}
	return &faces, gamma
}

// upload creates the device resources of a staged scene.
func (m *Manager) upload(st *staged, log *zap.Logger) error {
	s := st.scene
	if st.dataset != nil {
		st.dataset.Upload(m.dev, log)
		if len(st.dataset.Vertices) > 0 {
			va, err := m.dev.CreateVertexArray(st.dataset.Vertices, st.dataset.Layout)
			if err != nil {
				return fmt.Errorf("uploading vertices: %w", err)
			}
			s.Vertices = va
		}
	}

	for i, img := range st.billboards {
		if img.Width == 0 {
			continue
		}
		tex, err := m.dev.CreateTexture(img)
		if err != nil {
			log.Warn("billboard texture rejected, using default", zap.Error(err))
			continue
		}
		s.Billboards[i].Texture = tex
	}

	if len(st.lines) > 0 {
		va, err := m.dev.CreateVertexArray(st.lines, lineLayout)
		if err != nil {
			return fmt.Errorf("uploading facing lines: %w", err)
		}
		s.Lines = va
		s.LineCount = int32(len(st.lines) / 3)
	}

	if st.sky != nil {
		tex, err := m.dev.CreateCubemap(*st.sky)
		if err != nil {
			log.Warn("sky cubemap rejected", zap.Error(err))
		} else {
			m.skies[s.ID] = SkyBox{Cubemap: tex, Gamma: st.skyGamma}
		}
	}
	return nil
}

func (m *Manager) dropSky(id string) {
	if sky, ok := m.skies[id]; ok {
		m.dev.DeleteTexture(sky.Cubemap)
		delete(m.skies, id)
	}
}

// read loads a data file and records it as a scene dependency.
func (m *Manager) read(ref string, s *Scene) ([]byte, error) {
	if p, err := m.files.Path(ref); err == nil {
		s.Files = append(s.Files, p)
	}
	return m.files.Load(ref)
}

func (m *Manager) image(ref string, s *Scene, opts texture.Options) (gpu.Image, error) {
	data, err := m.read(ref, s)
	if err != nil {
		return gpu.Image{}, err
	}
	return texture.Decode(ref, data, opts)
}

// joinRef resolves a material-relative texture reference.
func joinRef(dir, ref string) string {
	if filepath.IsAbs(ref) || path.IsAbs(ref) || dir == "." {
		return ref
	}
	return path.Join(dir, ref)
}

// Release frees the active scene and every cached sky.
func (m *Manager) Release() {
	if m.current != nil {
		m.current.release(m.dev)
		m.current = nil
	}
	for id := range m.skies {
		m.dropSky(id)
	}
}
