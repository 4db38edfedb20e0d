package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nao1215/docdrift/internal/model"
)

// DefaultDir is the snapshot directory used when none is configured.
const DefaultDir = "snapshots"

// Store saves and loads snapshot files in one directory.
type Store struct {
	dir       string
	overwrite bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithOverwrite allows Save to replace an existing file.
func WithOverwrite(overwrite bool) StoreOption {
	return func(s *Store) {
		s.overwrite = overwrite
	}
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string, opts ...StoreOption) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	s := &Store{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the snapshot directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path for id.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes tree to <dir>/<id>.json and returns the path.
func (s *Store) Save(tree *model.SiteNode, id string) (string, error) {
	if id == "" {
		return "", ErrEmptyID
	}
	if tree == nil {
		return "", fmt.Errorf("%w: nil tree", ErrSnapshotParse)
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, tree); err != nil {
		return "", err
	}

	path := s.Path(id)
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !s.overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o600) //nolint:gosec // path is built from a sanitized id
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrSnapshotExists, path)
		}
		return "", fmt.Errorf("failed to create snapshot file: %w", err)
	}

	if _, err := buf.WriteTo(f); err != nil {
		_ = f.Close() //nolint:errcheck // write error takes precedence
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close snapshot file: %w", err)
	}
	return path, nil
}

// Load reads the snapshot at path.
func Load(path string) (*model.SiteNode, error) {
	f, err := os.Open(path) //nolint:gosec // user supplied snapshot path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, path)
		}
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	tree, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tree, nil
}
