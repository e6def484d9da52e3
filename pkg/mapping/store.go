package mapping

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by a Store when no mapping exists for a schema.
var ErrNotFound = errors.New("mapping not found")

// Store persists compiled mappings between schema upload and instance
// ingestion. Implementations must round-trip a Mapping exactly.
type Store interface {
	Put(ctx context.Context, schemaID string, m *Mapping) error
	Get(ctx context.Context, schemaID string) (*Mapping, error)
}

// FileStore keeps one YAML file per schema under Dir.
type FileStore struct {
	Dir string
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

// Key returns the object name used for a schema's mapping.
func Key(schemaID string) (string, error) {
	if schemaID == "" || strings.ContainsAny(schemaID, `/\`) || schemaID == "." || schemaID == ".." {
		return "", fmt.Errorf("invalid schema id %q", schemaID)
	}
	return schemaID + ".mapping.yaml", nil
}

// SchemaIDFromPath derives a schema id from a mapping file name, the
// inverse of Key.
func SchemaIDFromPath(path string) string {
	base := filepath.Base(path)
	if id, ok := strings.CutSuffix(base, ".mapping.yaml"); ok {
		return id
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Put writes m for schemaID.
func (s *FileStore) Put(ctx context.Context, schemaID string, m *Mapping) error {
	key, err := Key(schemaID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create mapping directory: %w", err)
	}
	return WriteFile(m, filepath.Join(s.Dir, key))
}

// Get reads the mapping for schemaID.
func (s *FileStore) Get(ctx context.Context, schemaID string) (*Mapping, error) {
	key, err := Key(schemaID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := LoadFile(filepath.Join(s.Dir, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, schemaID)
	}
	return m, err
}
