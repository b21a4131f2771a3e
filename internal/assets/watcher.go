package assets

import (
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports changes to the files of the active scene. It never touches
// the graphics device; the frame loop drains Reloads between frames.
type Watcher struct {
	fs      *fsnotify.Watcher
	manager *Manager
	log     *zap.Logger

	mu      sync.Mutex
	tracked map[string]bool

	reloads chan string
	done    chan struct{}
	wg      sync.WaitGroup
}

// Watch starts watching root and its sub-directories.
func Watch(root string, m *Manager, log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fs:      fsw,
		manager: m,
		log:     log,
		tracked: make(map[string]bool),
		reloads: make(chan string, 1),
		done:    make(chan struct{}),
	}

	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fs.Add(path)
		}
		return nil
	})
}

// Track replaces the set of files whose changes trigger a reload.
func (w *Watcher) Track(paths []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tracked = make(map[string]bool, len(paths))
	for _, p := range paths {
		w.tracked[filepath.Clean(p)] = true
	}
}

// Reloads delivers the path of a changed tracked file. Bursts of events
// collapse into one pending request.
func (w *Watcher) Reloads() <-chan string {
	return w.reloads
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(e)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error", zap.Error(err))
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(e fsnotify.Event) {
	if e.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	path := filepath.Clean(e.Name)
	if e.Op&fsnotify.Create != 0 {
		// New sub-directories are watched too; errors mean it was a file.
		_ = w.addRecursive(path)
	}

	w.mu.Lock()
	tracked := w.tracked[path]
	w.mu.Unlock()

	w.manager.Invalidate(path)
	if !tracked {
		return
	}

	w.log.Debug("tracked file changed", zap.String("path", path), zap.String("op", e.Op.String()))
	select {
	case w.reloads <- path:
	default:
	}
}

// Close stops the watcher and waits for its goroutine.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()
	return err
}
