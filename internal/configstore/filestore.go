package configstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/virtualloop/internal/annotation"
	"github.com/banshee-data/virtualloop/internal/fsutil"
	"github.com/banshee-data/virtualloop/internal/security"
)

// ErrNotFound reports that no saved config exists yet. Callers treat it as
// "start from an empty document" rather than a failure.
var ErrNotFound = errors.New("config not found")

// FileStore persists the active annotation document as a single JSON file.
// Writes go through a temp file in the same directory followed by a rename,
// so a crash mid-save never leaves a half-written config behind.
type FileStore struct {
	path string
}

// NewFileStore resolves name inside dir and rejects names that escape it.
// The directory is created if it does not exist.
func NewFileStore(dir, name string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := security.ValidatePathWithinDirectory(path, dir); err != nil {
		return nil, fmt.Errorf("config path %q: %w", name, err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the resolved config file path.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes the document atomically, replacing any previous save.
func (s *FileStore) Save(doc annotation.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// Load reads the saved document. A missing file reports ErrNotFound.
func (s *FileStore) Load() (annotation.Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return annotation.Document{}, fmt.Errorf("load %s: %w", s.path, ErrNotFound)
	}
	if err != nil {
		return annotation.Document{}, fmt.Errorf("read config: %w", err)
	}

	var doc annotation.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return annotation.Document{}, fmt.Errorf("decode config %s: %w", s.path, err)
	}
	return doc, nil
}
