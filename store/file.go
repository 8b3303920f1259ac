package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/leeforge/hookkit/hook"
	"github.com/leeforge/hookkit/json"
	"github.com/leeforge/hookkit/utils"
)

const fileVersion = 1

type document struct {
	Version   int            `json:"version" default:"1"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Enabled   []hook.OwnedID `json:"enabled"`
}

// File stores the set as a JSON document, replaced atomically on save.
type File struct {
	path string
	mu   sync.Mutex
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Load(context.Context) ([]hook.OwnedID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists, err := utils.Exists(f.path); err != nil || !exists {
		return nil, err
	}

	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	defer file.Close()

	var doc document
	if err := json.NewDecoder(file).Decode(&doc); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", f.path, err)
	}
	if doc.Version != fileVersion {
		return nil, fmt.Errorf("store: %s has unsupported version %d", f.path, doc.Version)
	}
	return normalize(doc.Enabled), nil
}

func (f *File) Save(_ context.Context, ids []hook.OwnedID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := document{Version: fileVersion, UpdatedAt: time.Now().UTC(), Enabled: normalize(ids)}
	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}
