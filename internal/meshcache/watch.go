package meshcache

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/g3d"
)

// Watcher drops cache entries when their model files change on disk, so
// the next load parses the new contents.
type Watcher struct {
	cache    *Cache
	fs       *fsnotify.Watcher
	onChange func(path string)

	mu    sync.Mutex
	files map[string]bool
	dirs  map[string]bool

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// Watch starts watching for changes. onChange, if not nil, runs on the
// watcher goroutine after a changed file's entries were dropped.
func (c *Cache) Watch(onChange func(path string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		cache:    c,
		fs:       fw,
		onChange: onChange,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Add watches path. The parent directory is watched so that editors which
// replace files on save are noticed too.
func (w *Watcher) Add(path string) error {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.dirs[dir] {
		if err := w.fs.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = true
	}
	w.files[path] = true
	return nil
}

// Close stops the watcher and waits for its goroutine to exit. It is safe
// to call from several goroutines; every call returns the same error.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		w.closeErr = w.fs.Close()
		w.wg.Wait()
	})
	return w.closeErr
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			g3d.Logger().Warn("meshcache: watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	path := filepath.Clean(ev.Name)

	w.mu.Lock()
	watched := w.files[path]
	w.mu.Unlock()
	if !watched {
		return
	}

	n := w.cache.Invalidate(path)
	g3d.Logger().Debug("meshcache: model changed", "path", path, "op", ev.Op.String(), "dropped", n)
	if w.onChange != nil {
		w.onChange(path)
	}
}
