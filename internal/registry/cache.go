package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/projgen-labs/projgen/internal/manifest"
)

// indexFile is the name of the persisted cache index inside the cache dir.
const indexFile = "index.json"

// CacheEntry is a resolved template held by the Store. Entries are written
// whole: a key transitions directly from absent to fully populated and is
// replaced, never merged, on re-resolution.
type CacheEntry struct {
	Metadata     manifest.Metadata `json:"metadata"`
	ResolvedPath string            `json:"resolved_path"`
	CachedAt     time.Time         `json:"cached_at"`
}

// Store maps (project_type, template_name) keys to resolved templates and
// enforces a time-to-live. Staleness is evaluated lazily on read; there is
// no background eviction. Safe for concurrent readers; concurrent writers
// for the same key are last-put-wins.
type Store struct {
	dir string
	ttl time.Duration
	now func() time.Time
	log *zap.Logger

	mu      sync.RWMutex
	entries map[string]CacheEntry
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreClock overrides the clock used for expiry checks.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithStoreLogger sets the logger used for best-effort persistence warnings.
func WithStoreLogger(log *zap.Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// NewStore creates a Store rooted at dir with the given TTL. A previously
// persisted index is loaded best-effort so separate invocations share the
// TTL window.
func NewStore(dir string, ttl time.Duration, opts ...StoreOption) *Store {
	s := &Store{
		dir:     dir,
		ttl:     ttl,
		now:     time.Now,
		log:     zap.NewNop(),
		entries: make(map[string]CacheEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.loadIndex()
	return s
}

// CacheKey builds the composite cache key for a resolution.
func CacheKey(projectType, templateName string) string {
	return projectType + ":" + templateName
}

// Dir returns the cache directory root. Adapters materialize fetched
// content underneath it.
func (s *Store) Dir() string {
	return s.dir
}

// Now returns the store's current time. Exposed so the manager stamps
// entries with the same clock the expiry check uses.
func (s *Store) Now() time.Time {
	return s.now()
}

// Get returns the entry for key, or nil if absent or expired. An entry
// whose resolved path no longer exists on disk is treated as absent; the
// persisted index can outlive the materialized content.
func (s *Store) Get(key string) *CacheEntry {
	s.mu.RLock()
	ent, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	if s.IsExpired(ent) {
		return nil
	}
	if _, err := os.Stat(ent.ResolvedPath); err != nil {
		return nil
	}
	return &ent
}

// Put stores the entry under key, unconditionally overwriting any previous
// value, and persists the index best-effort. The index is written under
// the same lock as the map update so a concurrent Put cannot persist an
// older snapshot last.
func (s *Store) Put(key string, ent CacheEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = ent
	s.writeIndex()
}

// IsExpired reports whether the entry's age exceeds the TTL. A clock
// regression (negative elapsed time) is treated conservatively as expired.
func (s *Store) IsExpired(ent CacheEntry) bool {
	elapsed := s.now().Sub(ent.CachedAt)
	if elapsed < 0 {
		return true
	}
	return elapsed > s.ttl
}

// Len returns the number of entries currently held, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear drops all entries and removes every materialized template and the
// persisted index from the cache directory.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.entries = make(map[string]CacheEntry)
	s.mu.Unlock()

	items, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := os.RemoveAll(filepath.Join(s.dir, item.Name())); err != nil {
			return err
		}
	}
	return nil
}

// loadIndex reads the persisted index. Missing or corrupt indexes are
// ignored; the cache rebuilds itself on the next resolution.
func (s *Store) loadIndex() {
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if err != nil {
		return
	}
	var entries map[string]CacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.log.Warn("ignoring corrupt cache index", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
}

// writeIndex serializes the entries to the cache dir. Best effort —
// resolution still works without persistence. Callers must hold the
// write lock.
func (s *Store) writeIndex() {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		s.log.Warn("cannot create cache directory", zap.String("dir", s.dir), zap.Error(err))
		return
	}
	if err := os.WriteFile(filepath.Join(s.dir, indexFile), data, 0644); err != nil {
		s.log.Warn("cannot persist cache index", zap.Error(err))
	}
}
