package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists history for a single-user client as one JSON document
// on disk, keyed by session id.
type FileStore struct {
	mu         sync.Mutex
	path       string
	maxPrompts int
}

func NewFileStore(path string, maxPrompts int) *FileStore {
	return &FileStore{path: path, maxPrompts: maxPrompts}
}

func (f *FileStore) Append(_ context.Context, sessionID, prompt string) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	all, err := f.readLocked()
	if err != nil {
		return err
	}
	h := append(all[sessionID], prompt)
	if f.maxPrompts > 0 && len(h) > f.maxPrompts {
		h = h[len(h)-f.maxPrompts:]
	}
	all[sessionID] = h
	return f.writeLocked(all)
}

func (f *FileStore) Load(_ context.Context, sessionID string) ([]string, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	all, err := f.readLocked()
	if err != nil {
		return nil, err
	}
	return all[sessionID], nil
}

func (f *FileStore) Clear(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	all, err := f.readLocked()
	if err != nil {
		return err
	}
	if _, ok := all[sessionID]; !ok {
		return nil
	}
	delete(all, sessionID)
	if len(all) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	return f.writeLocked(all)
}

func (f *FileStore) readLocked() (map[string][]string, error) {
	all := make(map[string][]string)
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return all, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (f *FileStore) writeLocked(all map[string][]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
