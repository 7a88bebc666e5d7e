package cachefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/couchcryptid/photo-geocache/internal/domain"
)

// Policy controls when new entries reach the durable file.
type Policy string

const (
	// PolicyEager flushes after every new entry.
	PolicyEager Policy = "eager"
	// PolicyLazy flushes once, when the store is closed.
	PolicyLazy Policy = "lazy"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyEager, PolicyLazy:
		return p, nil
	default:
		return "", fmt.Errorf("unknown cache policy %q (want %q or %q)", s, PolicyEager, PolicyLazy)
	}
}

// Store is an in-memory map of cache keys to place names mirrored to a
// single JSON file. It is safe for concurrent use within one process.
type Store struct {
	path   string
	policy Policy
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]string
	dirty   bool

	closeOnce sync.Once
	closeErr  error
}

// Load reads the durable file at path. A missing or malformed file yields an
// empty store; the problem is logged, never returned.
func Load(path string, policy Policy, logger *slog.Logger) *Store {
	s := &Store{
		path:    path,
		policy:  policy,
		logger:  logger,
		entries: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("geocache file not found, starting empty", "path", path)
		return s
	case err != nil:
		logger.Warn("geocache file unreadable, starting empty", "path", path, "error", err)
		return s
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn("geocache file malformed, starting empty", "path", path, "error", err)
		return s
	}
	for k, v := range entries {
		s.entries[k] = v
	}
	logger.Info("geocache loaded", "path", path, "entries", len(s.entries), "policy", policy)
	return s
}

// Path returns the durable file location.
func (s *Store) Path() string { return s.path }

// Policy returns the persistence policy chosen at load time.
func (s *Store) Policy() Policy { return s.policy }

// Get returns the place name stored under key.
func (s *Store) Get(key domain.CacheKey) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.entries[string(key)]
	return name, ok
}

// Put inserts name under key if the key is absent. Existing entries are
// never overwritten; Put reports whether a new entry was added.
func (s *Store) Put(key domain.CacheKey, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[string(key)]; ok {
		return false
	}
	s.entries[string(key)] = name
	s.dirty = true
	return true
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns a copy of all entries.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Commit applies the persistence policy after a successful Put: eager stores
// flush immediately, lazy stores defer to Close.
func (s *Store) Commit() error {
	if s.policy != PolicyEager {
		return nil
	}
	return s.Flush()
}

// Flush writes the full map to the durable file. The write goes to a
// temporary file in the same directory which is then renamed over the
// target, so a crash never leaves a truncated cache behind.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode geocache: %w", err)
	}
	if err := writeFileAtomic(s.path, append(data, '\n')); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// Close performs the final flush for the process. Only the first call does
// any work, and nothing is written when no entries were added.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.mu.RLock()
		dirty := s.dirty
		s.mu.RUnlock()
		if !dirty {
			return
		}
		s.closeErr = s.Flush()
		if s.closeErr == nil {
			s.logger.Info("geocache flushed", "path", s.path, "entries", s.Len())
		}
	})
	return s.closeErr
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create geocache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error takes precedence
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck,gosec // sync error takes precedence
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename geocache file: %w", err)
	}
	return nil
}
