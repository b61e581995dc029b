package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

var errWriteUnavailable = errors.New("store: write unavailable")

// FileBackend persists the envelope as a single JSON file per namespace under
// a shared data directory. External writers are observed with a filesystem
// watch on the directory; rename-based atomic writes keep a watch on the file
// itself from going stale.
type FileBackend struct {
	dir       string
	namespace string
	log       zerolog.Logger

	mu       sync.Mutex
	watchers []*fsnotify.Watcher
}

// NewFileBackend creates the data directory if needed and returns a backend
// for the given namespace.
func NewFileBackend(dir, namespace string, log zerolog.Logger) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileBackend{dir: dir, namespace: namespace, log: log}, nil
}

func (f *FileBackend) path() string {
	return filepath.Join(f.dir, f.namespace+".json")
}

func (f *FileBackend) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Save writes to a temp file and renames it into place so that concurrent
// readers never observe a partial envelope.
func (f *FileBackend) Save(_ context.Context, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, f.namespace+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, f.path()); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Watch observes the data directory and invokes onChange whenever the
// namespace file is created, written, or renamed into place. Writes made
// through this same backend also trigger the watch; subscribers reload either
// way, so the duplicate signal is harmless.
func (f *FileBackend) Watch(onChange func()) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(f.dir); err != nil {
		watcher.Close()
		return nil, err
	}

	f.mu.Lock()
	f.watchers = append(f.watchers, watcher)
	f.mu.Unlock()

	target := f.path()
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					onChange()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				f.log.Warn().Err(err).Str("namespace", f.namespace).Msg("store watch error")
			}
		}
	}()

	return func() { watcher.Close() }, nil
}

func (f *FileBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.watchers {
		w.Close()
	}
	f.watchers = nil
	return nil
}
