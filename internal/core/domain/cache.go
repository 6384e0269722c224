package domain

// CacheScope selects one of the two record stores.
type CacheScope int

const (
	// ScopeGlobal records are machine-wide and shared between projects (detected toolchains, externals).
	ScopeGlobal CacheScope = iota
	// ScopeLocal records belong to one project (target fingerprints).
	ScopeLocal
)

func (s CacheScope) String() string {
	if s == ScopeGlobal {
		return "global"
	}
	return "local"
}

// CacheKey identifies a record within a scope.
type CacheKey struct {
	Target string
	Path   string
}

func (k CacheKey) String() string {
	return k.Target + "@" + k.Path
}

// ToolchainCacheKey is the Global key of a detected compiler.
func ToolchainCacheKey(kind ToolchainKind, compiler string) CacheKey {
	return CacheKey{Target: "toolchain/" + kind.String(), Path: compiler}
}

// DependencyCacheKey is the Global key of a resolved external dependency.
func DependencyCacheKey(name, path string) CacheKey {
	return CacheKey{Target: "dependency/" + name, Path: path}
}

// Fingerprint summarises the observable state of an input set.
// LastWrite is in whole seconds so that file systems with different timestamp
// resolutions reach the same verdict.
type Fingerprint struct {
	LastWrite int64
	Size      int64
	Digest    string
}

// Equal reports whether two fingerprints describe the same state.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f == other
}

// IsZero reports whether the fingerprint was never computed.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// CacheRecord is a persisted verdict about a key.
type CacheRecord struct {
	Fingerprint Fingerprint
	Data        map[string]string
	// NeedsUpdate is session state. Loaded records start stale and are cleared
	// only once proven fresh in the current session.
	NeedsUpdate bool `json:"-"`
}
