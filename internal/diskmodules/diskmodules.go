// Package diskmodules implements rt.ModuleSource by reading named .wasm
// files out of a directory, and optionally watches that directory with
// fsnotify so actorhostd's serve command (with watch enabled in its config)
// is told when an actor's .wasm file changes during local development.
package diskmodules

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Dir implements rt.ModuleSource against a directory of <name>.wasm files.
type Dir struct {
	root string
	log  *zap.Logger

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	onChange func(name string)
}

// New returns a Dir rooted at root.
func New(root string, log *zap.Logger) *Dir {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dir{root: root, log: log}
}

// ModuleBytes reads <root>/<name>.wasm.
func (d *Dir) ModuleBytes(name string) ([]byte, error) {
	path := filepath.Join(d.root, name+".wasm")
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading module %q from %s: %w", name, path, err)
	}
	return bytes, nil
}

// Watch starts an fsnotify watch on the module directory and invokes
// onChange with the bare actor name (without .wasm) whenever one of its
// .wasm files is written or created; other files are ignored. It is purely a development convenience — the spec's
// Non-goals rule out any durable or automatic actor lifecycle management,
// so the caller decides what "reload" means (typically: re-Spawn with the
// actor's well-known address as spawner, producing a new instance; the
// well-known address constant itself is unaffected since that identifies a
// slot, not an instance).
func (d *Dir) Watch(onChange func(name string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting module directory watcher: %w", err)
	}
	if err := watcher.Add(d.root); err != nil {
		watcher.Close()
		return fmt.Errorf("watching module directory %s: %w", d.root, err)
	}

	d.mu.Lock()
	d.watcher = watcher
	d.onChange = onChange
	d.mu.Unlock()

	go d.loop(watcher)
	return nil
}

func (d *Dir) loop(watcher *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			ext := filepath.Ext(name)
			if ext != ".wasm" {
				continue
			}
			d.onChange(name[:len(name)-len(ext)])
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			d.log.Warn("module directory watch error", zap.Error(err))
		}
	}
}

// Close stops the watcher, if one was started.
func (d *Dir) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.watcher == nil {
		return nil
	}
	return d.watcher.Close()
}
