// Package fs stores each key as a file under a root directory.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"countingsheep/internal/persistence"
)

var _ persistence.Store = (*Store)(nil)

// Store maps keys to files under root. A sidecar (filename + `.meta`) records
// the content hash and update time. Writes go through a temp file and a
// rename so readers never observe a partial blob. The sidecar is advisory: a
// blob that was renamed into place counts as written even if its sidecar
// could not be refreshed.
type Store struct {
	root string
	log  *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger routes sidecar failures to log.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// New returns a store rooted at root, creating the directory if needed.
func New(root string, opts ...Option) (*Store, error) {
	if root == "" {
		root = "./sheepdata"
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create root: %w", err)
	}
	s := &Store{root: root, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Driver returns the driver identifier.
func (s *Store) Driver() persistence.Driver { return persistence.DriverFS }

// Root returns the directory holding the data files.
func (s *Store) Root() string { return s.root }

// sanitizeKey rejects keys that would escape root.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key contains '..'")
	}
	if strings.HasPrefix(key, "/") || filepath.IsAbs(key) {
		return "", fmt.Errorf("invalid absolute key")
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}

func (s *Store) pathFor(key string) (dataPath, metaPath string, err error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", "", err
	}
	dataPath = filepath.Join(s.root, filepath.FromSlash(k))
	metaPath = dataPath + ".meta"
	return
}

type metaFile struct {
	ETag      string    `json:"etag"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Read returns the file contents for key.
func (s *Store) Read(_ context.Context, key string) ([]byte, error) {
	dataPath, _, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- path is sanitized and joined under root
	b, err := os.ReadFile(dataPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return b, nil
}

// Write atomically replaces the file for key and refreshes its sidecar.
// Only a failure to place the data file is returned.
func (s *Store) Write(_ context.Context, key string, data []byte) error {
	dataPath, metaPath, err := s.pathFor(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(dataPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), dataPath); err != nil {
		return fmt.Errorf("replace %s: %w", key, err)
	}
	sum := sha256.Sum256(data)
	mf := metaFile{ETag: hex.EncodeToString(sum[:]), Size: int64(len(data)), UpdatedAt: time.Now().UTC()}
	if err := writeJSON(metaPath, mf); err != nil {
		// A stale sidecar is worse than none.
		_ = os.Remove(metaPath)
		s.log.Warn("sidecar write failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// ETag returns the content hash recorded for key. ErrNotFound means the key
// was never written or its sidecar is missing.
func (s *Store) ETag(key string) (string, error) {
	_, metaPath, err := s.pathFor(key)
	if err != nil {
		return "", err
	}
	mf, err := readMeta(metaPath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", persistence.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return mf.ETag, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func writeJSON(path string, v any) error {
	b, err := jsonMarshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

func readMeta(path string) (metaFile, error) {
	// #nosec G304 -- metadata path derives from a sanitized key
	b, err := os.ReadFile(path)
	if err != nil {
		return metaFile{}, err
	}
	var mf metaFile
	if err := jsonUnmarshal(b, &mf); err != nil {
		return metaFile{}, err
	}
	return mf, nil
}

var (
	jsonMarshal   = func(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") }
	jsonUnmarshal = func(b []byte, v any) error { return json.Unmarshal(b, v) }
)
