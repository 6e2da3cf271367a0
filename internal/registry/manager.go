package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/projgen-labs/projgen/internal/manifest"
)

// Manager orchestrates the registry entries, the cache store, and the
// source adapters. It owns the store; construct one per process (or per
// test) rather than sharing globals.
type Manager struct {
	entries  []Entry // sorted by ascending priority
	store    *Store
	log      *zap.Logger
	adapters map[SourceKind]Adapter
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithClock overrides the clock used for cache stamping and expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithAdapter replaces the adapter for a source kind. Used by tests to
// substitute deterministic fakes.
func WithAdapter(kind SourceKind, a Adapter) Option {
	return func(m *Manager) {
		m.adapters[kind] = a
	}
}

// NewManager validates the configuration and builds a Manager. Entries are
// copied and sorted by ascending priority; config order breaks ties.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	entries := make([]Entry, len(cfg.Entries))
	copy(entries, cfg.Entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Priority < entries[j].Priority
	})

	m := &Manager{
		entries:  entries,
		log:      zap.NewNop(),
		adapters: make(map[SourceKind]Adapter),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	for kind, a := range defaultAdapters(cfg.CacheDir, m.log) {
		if _, ok := m.adapters[kind]; !ok {
			m.adapters[kind] = a
		}
	}

	m.store = NewStore(cfg.CacheDir, cfg.CacheTTL,
		WithStoreClock(m.now), WithStoreLogger(m.log))
	return m, nil
}

// Store exposes the cache store for maintenance commands.
func (m *Manager) Store() *Store {
	return m.store
}

// List returns metadata for all templates across enabled entries in
// ascending priority order, optionally filtered by project type. A failing
// entry is logged and skipped; partial results are success, not failure.
// Listings are not deduplicated: each source is authoritative for its own
// entries, and cross-source name collisions surface as distinct records.
func (m *Manager) List(ctx context.Context, projectType string) ([]manifest.Metadata, error) {
	var result []manifest.Metadata
	for _, e := range m.enabled() {
		listed, err := m.adapters[e.Source.Kind].FetchList(ctx, e.Source)
		if err != nil {
			m.log.Warn("skipping registry entry",
				zap.String("entry", e.Name),
				zap.String("source", e.Source.Describe()),
				zap.Error(err))
			continue
		}
		for _, md := range listed {
			if projectType != "" && md.ProjectType != projectType {
				continue
			}
			result = append(result, md)
		}
	}
	return result, nil
}

// Resolve turns (projectType, templateName) into a filesystem location and
// metadata. A fresh cache hit returns immediately without consulting any
// adapter. On a miss, enabled entries are tried sequentially in ascending
// priority order and the first adapter to succeed wins; its result is
// cached and returned. Unavailable sources and per-source misses move on
// to the next entry; integrity and descriptor errors abort immediately.
func (m *Manager) Resolve(ctx context.Context, projectType, templateName string) (string, *manifest.Metadata, error) {
	key := CacheKey(projectType, templateName)

	if ent := m.store.Get(key); ent != nil {
		m.log.Debug("cache hit", zap.String("key", key), zap.String("path", ent.ResolvedPath))
		md := ent.Metadata
		return ent.ResolvedPath, &md, nil
	}

	for _, e := range m.enabled() {
		path, md, err := m.adapters[e.Source.Kind].FetchOne(ctx, e.Source, templateName)
		if err != nil {
			if errors.Is(err, ErrSourceUnavailable) || errors.Is(err, ErrTemplateNotFound) {
				m.log.Warn("registry entry failed, trying next",
					zap.String("entry", e.Name),
					zap.String("source", e.Source.Describe()),
					zap.Error(err))
				continue
			}
			return "", nil, err
		}
		if md.ProjectType != projectType {
			m.log.Warn("template project type mismatch, trying next",
				zap.String("entry", e.Name),
				zap.String("template", templateName),
				zap.String("want", projectType),
				zap.String("got", md.ProjectType))
			continue
		}

		m.store.Put(key, CacheEntry{
			Metadata:     *md,
			ResolvedPath: path,
			CachedAt:     m.store.Now(),
		})
		m.log.Info("template resolved",
			zap.String("key", key),
			zap.String("entry", e.Name),
			zap.String("path", path))
		return path, md, nil
	}

	return "", nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, key)
}

// Refresh warms every enabled source concurrently and reports how many
// templates each one lists. Like List, it is fail-soft per source.
func (m *Manager) Refresh(ctx context.Context) (map[string]int, error) {
	var mu sync.Mutex
	counts := make(map[string]int)

	g, gctx := errgroup.WithContext(ctx)
	for _, e := range m.enabled() {
		g.Go(func() error {
			listed, err := m.adapters[e.Source.Kind].FetchList(gctx, e.Source)
			if err != nil {
				m.log.Warn("refresh failed for registry entry",
					zap.String("entry", e.Name),
					zap.String("source", e.Source.Describe()),
					zap.Error(err))
				return nil
			}
			mu.Lock()
			counts[e.Name] = len(listed)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

// enabled returns the enabled entries in resolution order.
func (m *Manager) enabled() []Entry {
	var out []Entry
	for _, e := range m.entries {
		if e.Enabled {
			out = append(out, e)
		}
	}
	return out
}
