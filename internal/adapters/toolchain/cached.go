package toolchain

import (
	"context"
	"os"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
)

var _ ports.ToolchainResolver = (*CachedResolver)(nil)

// CachedResolver remembers detected compilers in the Global cache scope.
// A record is trusted while the compiler executable keeps its modification time and size.
type CachedResolver struct {
	resolver *Resolver
	store    ports.CacheStore
}

// NewCachedResolver wraps resolver with a session's cache store.
func NewCachedResolver(resolver *Resolver, store ports.CacheStore) *CachedResolver {
	return &CachedResolver{resolver: resolver, store: store}
}

// Resolve behaves like Resolver.Resolve but skips the version and target queries for
// compilers identified in an earlier session.
func (c *CachedResolver) Resolve(ctx context.Context, kind domain.ToolchainKind, hints ports.SearchHints) (*domain.ToolchainDescriptor, error) {
	return c.resolver.resolve(ctx, kind, hints, c)
}

func (c *CachedResolver) load(kind domain.ToolchainKind, compiler string) (detection, bool) {
	fp, ok := compilerFingerprint(compiler)
	if !ok {
		return detection{}, false
	}
	key := domain.ToolchainCacheKey(kind, compiler)
	if c.store.IsStale(domain.ScopeGlobal, key, fp) {
		return detection{}, false
	}
	rec, ok := c.store.Lookup(domain.ScopeGlobal, key)
	if !ok {
		return detection{}, false
	}

	detected, err := domain.ParseToolchainKind(rec.Data["kind"])
	if err != nil || detected == domain.ToolchainUnknown || rec.Data["version"] == "" {
		return detection{}, false
	}
	if kind != domain.ToolchainUnknown && detected != kind {
		return detection{}, false
	}
	return detection{Kind: detected, Version: rec.Data["version"], Arch: rec.Data["arch"]}, true
}

func (c *CachedResolver) save(kind domain.ToolchainKind, compiler string, result detection) {
	fp, ok := compilerFingerprint(compiler)
	if !ok {
		return
	}
	_ = c.store.Record(domain.ScopeGlobal, domain.ToolchainCacheKey(kind, compiler), domain.CacheRecord{
		Fingerprint: fp,
		Data: map[string]string{
			"kind":    result.Kind.String(),
			"version": result.Version,
			"arch":    result.Arch,
		},
	})
}

func compilerFingerprint(path string) (domain.Fingerprint, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Fingerprint{}, false
	}
	return domain.Fingerprint{LastWrite: info.ModTime().Unix(), Size: info.Size()}, true
}
