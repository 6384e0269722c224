package domain

import (
	"os"
	"path/filepath"
)

const (
	// AnvilDirName is the name of the per-project metadata directory.
	AnvilDirName = ".anvil"

	// LocalCacheFileName is the name of the Local scope record store inside AnvilDirName.
	LocalCacheFileName = "cache.json"

	// GlobalCacheFileName is the name of the Global scope record store inside the global cache directory.
	GlobalCacheFileName = "global.json"

	// ReportFileName is the name of the persisted last build report inside AnvilDirName.
	ReportFileName = "report.json"

	// ExternalsDirName is the default location of external dependencies inside AnvilDirName.
	ExternalsDirName = "externals"

	// YAMLFileName is the name of the YAML project file.
	YAMLFileName = "anvil.yaml"

	// HCLFileName is the name of the HCL project file.
	HCLFileName = "anvil.hcl"

	// DefaultBuildDir is the build output directory used when the project does not set one.
	DefaultBuildDir = "build"

	// GlobalCacheDirEnv overrides the machine-wide cache directory.
	GlobalCacheDirEnv = "ANVIL_CACHE_DIR"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// LocalCachePath returns the Local scope record store for the project at root.
func LocalCachePath(root string) string {
	return filepath.Join(root, AnvilDirName, LocalCacheFileName)
}

// ReportPath returns where the last build report of the project at root is stored.
func ReportPath(root string) string {
	return filepath.Join(root, AnvilDirName, ReportFileName)
}

// DefaultExternalPath returns the default checkout location of an external dependency.
func DefaultExternalPath(root, name string) string {
	return filepath.Join(root, AnvilDirName, ExternalsDirName, name)
}

// GlobalCacheDir returns the machine-wide cache directory.
// ANVIL_CACHE_DIR takes precedence over the user cache directory.
func GlobalCacheDir() string {
	if dir := os.Getenv(GlobalCacheDirEnv); dir != "" {
		return dir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "anvil")
	}
	return filepath.Join(os.TempDir(), "anvil-cache")
}

// GlobalCachePath returns the Global scope record store.
func GlobalCachePath() string {
	return filepath.Join(GlobalCacheDir(), GlobalCacheFileName)
}
