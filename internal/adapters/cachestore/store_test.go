package cachestore_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/anvil/internal/adapters/cachestore"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/anvil/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func fp(digest string) domain.Fingerprint {
	return domain.Fingerprint{LastWrite: 1700000000, Size: 42, Digest: digest}
}

func key(name string) domain.CacheKey {
	return domain.CacheKey{Target: name, Path: "build/" + name}
}

type env struct {
	root   string
	global string
	opener *cachestore.Opener
	logger *mocks.MockLogger
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	global := filepath.Join(t.TempDir(), "global.json")
	return &env{
		root:   t.TempDir(),
		global: global,
		opener: cachestore.NewOpenerWithGlobalPath(logger, global),
		logger: logger,
	}
}

func (e *env) open(t *testing.T) ports.CacheStore {
	t.Helper()
	store, err := e.opener.Open(context.Background(), e.root)
	require.NoError(t, err)
	return store
}

func TestStore_Incrementality(t *testing.T) {
	e := newEnv(t)

	first := e.open(t)
	assert.True(t, first.IsStale(domain.ScopeLocal, key("lib"), fp("a")), "no record means stale")
	require.NoError(t, first.Record(domain.ScopeLocal, key("lib"), domain.CacheRecord{Fingerprint: fp("a")}))
	require.NoError(t, first.Close())

	second := e.open(t)
	assert.False(t, second.IsStale(domain.ScopeLocal, key("lib"), fp("a")), "unchanged fingerprint is fresh")
	assert.True(t, second.IsStale(domain.ScopeLocal, key("lib"), fp("b")), "changed fingerprint is stale")
}

func TestStore_TransitiveStaleness(t *testing.T) {
	e := newEnv(t)

	seed := e.open(t)
	require.NoError(t, seed.Record(domain.ScopeLocal, key("lib"), domain.CacheRecord{Fingerprint: fp("lib-1")}))
	require.NoError(t, seed.Record(domain.ScopeLocal, key("app"), domain.CacheRecord{Fingerprint: fp("app-1")}))
	require.NoError(t, seed.Close())

	t.Run("fresh dependency keeps dependent fresh", func(t *testing.T) {
		s := e.open(t)
		assert.False(t, s.IsStale(domain.ScopeLocal, key("lib"), fp("lib-1")))
		assert.False(t, s.IsStale(domain.ScopeLocal, key("app"), fp("app-1"), key("lib")))
	})

	t.Run("rebuilt dependency forces dependent", func(t *testing.T) {
		s := e.open(t)
		assert.True(t, s.IsStale(domain.ScopeLocal, key("lib"), fp("lib-2")))
		require.NoError(t, s.Record(domain.ScopeLocal, key("lib"), domain.CacheRecord{Fingerprint: fp("lib-2")}))
		assert.True(t, s.IsStale(domain.ScopeLocal, key("app"), fp("app-1"), key("lib")))
	})

	t.Run("unevaluated dependency counts as stale", func(t *testing.T) {
		s := e.open(t)
		assert.True(t, s.IsStale(domain.ScopeLocal, key("app"), fp("app-1"), key("lib")))
	})
}

func TestStore_Forget(t *testing.T) {
	e := newEnv(t)

	s := e.open(t)
	require.NoError(t, s.Record(domain.ScopeLocal, key("gen"), domain.CacheRecord{Fingerprint: fp("g")}))
	require.NoError(t, s.Close())

	s = e.open(t)
	s.Forget(domain.ScopeLocal, key("gen"))
	_, ok := s.Lookup(domain.ScopeLocal, key("gen"))
	assert.False(t, ok)
	require.NoError(t, s.Close())

	s = e.open(t)
	assert.True(t, s.IsStale(domain.ScopeLocal, key("gen"), fp("g")), "a failed target is never up to date")
}

func TestStore_CorruptFileIsEmpty(t *testing.T) {
	e := newEnv(t)

	path := domain.LocalCachePath(e.root)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), domain.FilePerm))

	e.logger.EXPECT().Warn(gomock.Any()).Do(func(msg string) {
		assert.Contains(t, msg, domain.ErrCacheCorrupt.Error())
	})

	s := e.open(t)
	assert.True(t, s.IsStale(domain.ScopeLocal, key("lib"), fp("a")))

	require.NoError(t, s.Record(domain.ScopeLocal, key("lib"), domain.CacheRecord{Fingerprint: fp("a")}))
	require.NoError(t, s.Close())

	s = e.open(t)
	assert.False(t, s.IsStale(domain.ScopeLocal, key("lib"), fp("a")), "a corrupt store is rewritten on flush")
}

func TestStore_UnknownVersionIsCorrupt(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(e.global, []byte(`{"version":99,"records":[]}`), domain.FilePerm))
	e.logger.EXPECT().Warn(gomock.Any())

	s := e.open(t)
	_, ok := s.Lookup(domain.ScopeGlobal, key("x"))
	assert.False(t, ok)
}

func TestStore_PersistedFormat(t *testing.T) {
	e := newEnv(t)

	s := e.open(t)
	require.NoError(t, s.Record(domain.ScopeGlobal, domain.ToolchainCacheKey(domain.ToolchainGNU, "/usr/bin/gcc"), domain.CacheRecord{
		Fingerprint: fp("tc"),
		Data:        map[string]string{"version": "13.2.0"},
	}))
	require.NoError(t, s.Flush(context.Background()))

	data, err := os.ReadFile(e.global)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"version": 1,
		"records": [{
			"target": "toolchain/gnu",
			"path": "/usr/bin/gcc",
			"lastWrite": 1700000000,
			"size": 42,
			"digest": "tc",
			"data": {"version": "13.2.0"}
		}]
	}`, string(data))
	assert.NotContains(t, string(data), "NeedsUpdate")
}

func TestStore_GlobalLastWriterWins(t *testing.T) {
	e := newEnv(t)

	a := e.open(t)
	b := e.open(t)

	require.NoError(t, a.Record(domain.ScopeGlobal, key("shared"), domain.CacheRecord{Fingerprint: fp("from-a")}))
	require.NoError(t, a.Record(domain.ScopeGlobal, key("only-a"), domain.CacheRecord{Fingerprint: fp("a")}))
	require.NoError(t, b.Record(domain.ScopeGlobal, key("shared"), domain.CacheRecord{Fingerprint: fp("from-b")}))
	require.NoError(t, b.Record(domain.ScopeGlobal, key("only-b"), domain.CacheRecord{Fingerprint: fp("b")}))

	require.NoError(t, a.Flush(context.Background()))
	require.NoError(t, b.Flush(context.Background()))

	merged := e.open(t)
	rec, ok := merged.Lookup(domain.ScopeGlobal, key("shared"))
	require.True(t, ok)
	assert.Equal(t, "from-b", rec.Fingerprint.Digest)

	_, ok = merged.Lookup(domain.ScopeGlobal, key("only-a"))
	assert.True(t, ok, "keys written by another session survive")
	_, ok = merged.Lookup(domain.ScopeGlobal, key("only-b"))
	assert.True(t, ok)
}

func TestStore_LookupReturnsCopy(t *testing.T) {
	e := newEnv(t)
	s := e.open(t)

	require.NoError(t, s.Record(domain.ScopeGlobal, key("dep"), domain.CacheRecord{Data: map[string]string{"revision": "abc"}}))
	rec, ok := s.Lookup(domain.ScopeGlobal, key("dep"))
	require.True(t, ok)
	rec.Data["revision"] = "mutated"

	again, _ := s.Lookup(domain.ScopeGlobal, key("dep"))
	assert.Equal(t, "abc", again.Data["revision"])
}

func TestStore_ConcurrentRecords(t *testing.T) {
	e := newEnv(t)
	s := e.open(t)

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Go(func() {
			k := key(fmt.Sprintf("t%d", i))
			_ = s.IsStale(domain.ScopeLocal, k, fp("x"))
			assert.NoError(t, s.Record(domain.ScopeLocal, k, domain.CacheRecord{Fingerprint: fp("x")}))
		})
	}
	wg.Wait()
	require.NoError(t, s.Close())

	reopened := e.open(t)
	for i := range 32 {
		assert.False(t, reopened.IsStale(domain.ScopeLocal, key(fmt.Sprintf("t%d", i)), fp("x")))
	}
}

func TestStore_FlushCancelled(t *testing.T) {
	e := newEnv(t)
	s := e.open(t)
	require.NoError(t, s.Record(domain.ScopeLocal, key("lib"), domain.CacheRecord{Fingerprint: fp("a")}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Flush(ctx), context.Canceled)

	require.NoError(t, s.Flush(context.WithoutCancel(ctx)))
	_, err := os.Stat(domain.LocalCachePath(e.root))
	assert.NoError(t, err)
}
