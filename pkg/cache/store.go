package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Store owns the persisted cache document and the single process-wide lock
// that serializes every read-modify-write cycle against it. The document is
// always read fully, mutated in memory, and written fully under the lock.
type Store struct {
	path   string
	logger *slog.Logger

	mu  sync.Mutex
	now func() time.Time
}

// NewStore creates a Store persisting to path. A nil logger falls back to
// slog.Default().
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:   path,
		logger: logger,
		now:    time.Now,
	}
}

// Path returns the cache document location.
func (s *Store) Path() string {
	return s.path
}

// timestamp renders the current time in the persisted form: RFC 3339 with
// sub-second precision, normalized to UTC.
func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// read loads and deserializes the cache document. A missing file yields an
// empty cache silently; an unreadable, unparseable, or structurally invalid
// document yields an empty cache with a logged warning. Losing the cache
// only costs a full reprocess, never an incorrect skip.
func (s *Store) read() Cache {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("cache file unreadable; invalidating all caches",
				"path", s.path, "error", err)
		}
		return Cache{}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Cache{}
	}

	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		s.logger.Warn("cache file is invalid; invalidating all caches",
			"path", s.path, "error", err)
		return Cache{}
	}
	if c == nil {
		s.logger.Warn("cache file has unexpected format; invalidating all caches",
			"path", s.path)
		return Cache{}
	}
	return c
}

// write serializes c and replaces the cache document. The content is written
// to a temporary file in the same directory and renamed into place, so a
// concurrent reader never observes a partially-written document.
func (s *Store) write(c Cache) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cache: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, ".cache-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

// ShouldSkip reports whether journal can be skipped for id: true only when a
// cached fingerprint exists for the journal under the derived processor key
// and it matches the journal's current content hash. A missing or unreadable
// journal is never skippable.
func (s *Store) ShouldSkip(id Identity, journal string) (bool, error) {
	key, err := id.Key()
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.read()
	rec := c[key]
	if rec == nil {
		return false, nil
	}

	cur, err := HashFile(journal)
	if err != nil {
		return false, nil
	}

	fp := rec.Files[journal]
	return fp != nil && fp.Hash == cur, nil
}

// MarkProcessed records the journal's current content hash as successfully
// processed for id and persists immediately. A journal that has vanished is
// ignored: there is nothing to mark.
func (s *Store) MarkProcessed(id Identity, journal string) error {
	key, err := id.Key()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.read()
	now := s.timestamp()
	rec := c.record(key)
	rec.LastAccess = now

	cur, err := HashFile(journal)
	if err != nil {
		return nil
	}
	rec.Files[journal] = &FileFingerprint{Hash: cur, LastSeen: now}

	Evict(c, s.now(), DefaultScriptMaxAge, DefaultFileMaxAge)
	return s.write(c)
}
