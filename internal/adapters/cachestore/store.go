// Package cachestore implements the two-tier record store that drives incremental builds.
package cachestore

import (
	"context"
	"maps"
	"sync"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
)

var (
	_ ports.CacheStore  = (*Store)(nil)
	_ ports.CacheOpener = (*Opener)(nil)
)

// Opener opens session-scoped stores.
type Opener struct {
	logger     ports.Logger
	globalPath func() string
}

// NewOpener creates an Opener whose Global scope lives at domain.GlobalCachePath.
func NewOpener(logger ports.Logger) *Opener {
	return &Opener{logger: logger, globalPath: domain.GlobalCachePath}
}

// NewOpenerWithGlobalPath creates an Opener with an explicit Global store file.
func NewOpenerWithGlobalPath(logger ports.Logger, globalPath string) *Opener {
	return &Opener{logger: logger, globalPath: func() string { return globalPath }}
}

// Open loads both scopes for the project at root. Unreadable or corrupt files are
// reported as warnings and start out empty.
func (o *Opener) Open(_ context.Context, root string) (ports.CacheStore, error) {
	s := &Store{logger: o.logger}
	s.scopes[domain.ScopeGlobal] = s.load(o.globalPath(), true)
	s.scopes[domain.ScopeLocal] = s.load(domain.LocalCachePath(root), false)
	return s, nil
}

// scope is one record store and the changes made to it during the session.
type scope struct {
	mu      sync.Mutex
	path    string
	shared  bool
	records map[domain.CacheKey]*domain.CacheRecord
	// written and forgotten hold the keys this session changed, replayed over the
	// disk copy when a shared scope is flushed.
	written   map[domain.CacheKey]bool
	forgotten map[domain.CacheKey]bool
	dirty     bool
}

// Store is a CacheStore over a Global and a Local JSON file.
type Store struct {
	logger ports.Logger
	scopes [2]*scope
}

func (s *Store) load(path string, shared bool) *scope {
	records, err := readRecords(path)
	if err != nil {
		s.logger.Warn(domain.ErrCacheCorrupt.Error() + ": " + path)
	}
	return &scope{
		path:      path,
		shared:    shared,
		records:   records,
		written:   make(map[domain.CacheKey]bool),
		forgotten: make(map[domain.CacheKey]bool),
	}
}

// IsStale reports whether key must be rebuilt. A fresh verdict clears NeedsUpdate, so
// dependents consulting this key later in the session see it as up to date.
func (s *Store) IsStale(sc domain.CacheScope, key domain.CacheKey, current domain.Fingerprint, deps ...domain.CacheKey) bool {
	st := s.scopes[sc]
	st.mu.Lock()
	defer st.mu.Unlock()

	rec, ok := st.records[key]
	stale := !ok || !rec.Fingerprint.Equal(current)
	for _, dep := range deps {
		if depRec, ok := st.records[dep]; !ok || depRec.NeedsUpdate {
			stale = true
		}
	}

	if ok {
		rec.NeedsUpdate = stale
	}
	return stale
}

// Record upserts the record for key. The key stays marked as updated for the rest of
// the session so that dependents rebuild too.
func (s *Store) Record(sc domain.CacheScope, key domain.CacheKey, record domain.CacheRecord) error {
	st := s.scopes[sc]
	st.mu.Lock()
	defer st.mu.Unlock()

	record.NeedsUpdate = true
	record.Data = maps.Clone(record.Data)
	st.records[key] = &record
	st.written[key] = true
	delete(st.forgotten, key)
	st.dirty = true
	return nil
}

// Forget removes the record for key.
func (s *Store) Forget(sc domain.CacheScope, key domain.CacheKey) {
	st := s.scopes[sc]
	st.mu.Lock()
	defer st.mu.Unlock()

	delete(st.records, key)
	delete(st.written, key)
	st.forgotten[key] = true
	st.dirty = true
}

// Lookup returns a copy of the record stored for key.
func (s *Store) Lookup(sc domain.CacheScope, key domain.CacheKey) (domain.CacheRecord, bool) {
	st := s.scopes[sc]
	st.mu.Lock()
	defer st.mu.Unlock()

	rec, ok := st.records[key]
	if !ok {
		return domain.CacheRecord{}, false
	}
	out := *rec
	out.Data = maps.Clone(rec.Data)
	return out, true
}

// Flush writes both scopes. The Global scope is merged with the file on disk first:
// keys this session wrote or forgot win, everything else keeps what another session stored.
func (s *Store) Flush(ctx context.Context) error {
	for _, st := range s.scopes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.flushScope(st); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) flushScope(st *scope) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.dirty {
		return nil
	}

	out := st.records
	if st.shared {
		disk, err := readRecords(st.path)
		if err != nil {
			s.logger.Warn(domain.ErrCacheCorrupt.Error() + ": " + st.path)
		}
		for key := range st.written {
			disk[key] = st.records[key]
		}
		for key := range st.forgotten {
			delete(disk, key)
		}
		out = disk
	}

	if err := writeRecords(st.path, out); err != nil {
		return err
	}
	st.dirty = false
	return nil
}

// Close flushes pending changes.
func (s *Store) Close() error {
	return s.Flush(context.Background())
}
