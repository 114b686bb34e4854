// Package cache stores raw provider pages on disk with a time-to-live.
//
// Layout: <root>/<provider>/<slug>_<mod-id>/page-<n>.json. The file
// modification time is the staleness clock, so an external tool may delete
// any part of the tree at any time.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cwygoda/modscope/internal/domain"
)

// DefaultTTL is how long a cached page stays fresh.
const DefaultTTL = 24 * time.Hour

// Key identifies one cached page.
type Key struct {
	Provider domain.ProviderName
	Slug     string
	ModID    string
	Page     int
}

// Store is a file-per-page cache. It is safe for concurrent use: writes go
// through a temp file and a rename, so readers never see partial pages.
type Store struct {
	root string
	ttl  time.Duration
	now  func() time.Time
}

// New creates a Store rooted at root. The directory need not exist.
func New(root string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		root: filepath.Clean(strings.TrimSpace(root)),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Root returns the cache directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the file backing key.
func (s *Store) Path(key Key) string {
	dir := SanitizeName(key.Slug) + "_" + SanitizeName(key.ModID)
	return filepath.Join(s.root, SanitizeName(string(key.Provider)), dir, fmt.Sprintf("page-%d.json", key.Page))
}

// Get returns the payload for key if it exists and is younger than the TTL.
func (s *Store) Get(key Key) ([]byte, bool, error) {
	path := s.Path(key)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if s.now().Sub(info.ModTime()) >= s.ttl {
		return nil, false, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

// Put stores payload under key, replacing any previous page. Failures are
// reported as *domain.CacheWriteError.
func (s *Store) Put(key Key, payload []byte) error {
	path := s.Path(key)
	if err := writeFileAtomic(path, payload); err != nil {
		return &domain.CacheWriteError{Path: path, Err: err}
	}
	return nil
}

// Clear removes the whole cache tree. A missing tree is not an error.
func (s *Store) Clear() error {
	return os.RemoveAll(s.root)
}

// writeFileAtomic writes via a temp file in the target directory and renames
// it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
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
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// SanitizeName maps s onto [A-Za-z0-9._-]; every other rune becomes '_'.
func SanitizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
