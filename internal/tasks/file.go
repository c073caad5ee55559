package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// taskFile is the on-disk layout of a local task list.
type taskFile struct {
	Tasks []Item `yaml:"tasks"`
}

// FileSource serves tasks from a YAML file. The parsed file is cached until
// Watch sees it change.
type FileSource struct {
	Path string

	mu     sync.Mutex
	items  []Item
	loaded bool
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (f *FileSource) Upcoming(_ context.Context, now time.Time) ([]Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.loaded {
		items, err := readTaskFile(f.Path)
		if err != nil {
			return nil, err
		}
		f.items = items
		f.loaded = true
	}

	today := startOfDay(now)
	var out []Item
	for _, it := range f.items {
		w, ok := parseWhen(it.Start)
		if !ok || w.t.Before(today) {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// Invalidate drops the cached file contents.
func (f *FileSource) Invalidate() {
	f.mu.Lock()
	f.loaded = false
	f.items = nil
	f.mu.Unlock()
}

// Watch invalidates the cache whenever the file is written, created, renamed
// or removed, until ctx is done. onChange may be nil.
func (f *FileSource) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Editors replace files on save, so watch the directory.
	if err := w.Add(filepath.Dir(f.Path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(f.Path), err)
	}

	go func() {
		defer w.Close()
		target := filepath.Clean(f.Path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				f.Invalidate()
				if onChange != nil {
					onChange()
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}

func readTaskFile(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}
	var tf taskFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse task file %s: %w", path, err)
	}
	return tf.Tasks, nil
}
