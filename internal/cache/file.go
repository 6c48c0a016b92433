package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/DeafMist/newsdesk/internal/models"
	"github.com/DeafMist/newsdesk/internal/newserr"
)

// File keeps every entry in one JSON object on disk, mapping key to entry.
//
// Each Put reads, merges and rewrites the whole container. Puts through the
// same File are serialized; separate File values (or processes) sharing a
// path are not, and the last writer wins for the whole container.
type File struct {
	path string
	mu   sync.Mutex
	opts options
}

// NewFile returns a File store backed by path. The file is created lazily.
func NewFile(path string, opts ...Option) *File {
	return &File{path: path, opts: buildOptions(opts)}
}

// Get implements Store.
func (f *File) Get(_ context.Context, key string) (models.NewsResult, bool, error) {
	container, err := f.read()
	if errors.Is(err, fs.ErrNotExist) {
		return models.NewsResult{}, false, nil
	}
	if err != nil {
		return models.NewsResult{}, false, newserr.Cache("read", err)
	}

	entry, ok := container[key]
	if !ok {
		return models.NewsResult{}, false, nil
	}
	if !entry.fresh(f.opts.now(), f.opts.ttl) {
		f.opts.log.Debug("cache expired", slog.String("key", key))
		return models.NewsResult{}, false, nil
	}
	return entry.Data, true, nil
}

// Put implements Store. An unreadable container is replaced by a fresh one.
func (f *File) Put(_ context.Context, key string, value models.NewsResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	container, err := f.read()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.opts.log.Warn("cache container unreadable, starting a new one",
				slog.String("path", f.path),
				slog.Any("err", err),
			)
		}
		container = make(map[string]Entry)
	}

	container[key] = newEntry(f.opts.now(), value)

	if err := f.write(container); err != nil {
		return newserr.Cache("write", err)
	}
	return nil
}

func (f *File) read() (map[string]Entry, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	container := make(map[string]Entry)
	if err := json.Unmarshal(raw, &container); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return container, nil
}

func (f *File) write(container map[string]Entry) error {
	payload, err := json.Marshal(container)
	if err != nil {
		return fmt.Errorf("encode container: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace container: %w", err)
	}
	return nil
}
