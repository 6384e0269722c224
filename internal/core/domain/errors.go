package domain

import "go.trai.ch/zerr"

var (
	// ErrToolchainNotFound is returned when no executable matching the requested toolchain kind resolves.
	ErrToolchainNotFound = zerr.New("toolchain not found")

	// ErrToolchainVersionUnsupported is returned when a detected toolchain is older than the supported minimum.
	ErrToolchainVersionUnsupported = zerr.New("toolchain version unsupported")

	// ErrUnknownToolchainKind is returned when a toolchain kind name cannot be parsed.
	ErrUnknownToolchainKind = zerr.New("unknown toolchain kind")

	// ErrDependencyUnavailable is returned when an external dependency is not present on disk.
	ErrDependencyUnavailable = zerr.New("dependency unavailable")

	// ErrDependencyCycle is returned when the target graph contains a cycle.
	ErrDependencyCycle = zerr.New("dependency cycle detected")

	// ErrDuplicateTarget is returned when two targets share the same name.
	ErrDuplicateTarget = zerr.New("duplicate target name")

	// ErrMissingDependency is returned when a target references a dependency that is not declared.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrInvalidTargetName is returned when a target name is empty or contains invalid characters.
	ErrInvalidTargetName = zerr.New("invalid target name")

	// ErrUnknownTargetKind is returned when a target declares an unsupported kind.
	ErrUnknownTargetKind = zerr.New("unknown target kind")

	// ErrInvalidTarget is returned when a target declaration is incomplete for its kind.
	ErrInvalidTarget = zerr.New("invalid target declaration")

	// ErrTargetNotFound is returned when a requested target does not exist in the graph.
	ErrTargetNotFound = zerr.New("target not found")

	// ErrTargetExecutionFailed is returned when an external process exits nonzero or cannot be spawned.
	ErrTargetExecutionFailed = zerr.New("target execution failed")

	// ErrInputNotFound is returned when a declared source or input matches no file.
	ErrInputNotFound = zerr.New("input not found")

	// ErrFingerprintFailed is returned when the inputs of a target cannot be fingerprinted.
	ErrFingerprintFailed = zerr.New("failed to fingerprint inputs")

	// ErrCacheCorrupt is reported when a persisted cache store cannot be decoded. It is never fatal.
	ErrCacheCorrupt = zerr.New("cache store is corrupt, treating as empty")

	// ErrCacheVersionUnsupported is wrapped by ErrCacheCorrupt when a store was written in another format version.
	ErrCacheVersionUnsupported = zerr.New("unsupported cache format version")

	// ErrCacheReadFailed is returned when a cache store cannot be read.
	ErrCacheReadFailed = zerr.New("failed to read cache store")

	// ErrCacheWriteFailed is returned when a cache store cannot be written.
	ErrCacheWriteFailed = zerr.New("failed to write cache store")

	// ErrCancelled is returned when a build session is interrupted.
	ErrCancelled = zerr.New("build cancelled")

	// ErrBuildFailed is returned when at least one target failed.
	ErrBuildFailed = zerr.New("build failed")

	// ErrBuildCancelled is returned when the build session ended due to cancellation.
	ErrBuildCancelled = zerr.New("build cancelled")

	// ErrConfigNotFound is returned when no project file is found.
	ErrConfigNotFound = zerr.New("could not find anvil.yaml or anvil.hcl")

	// ErrConfigReadFailed is returned when the project file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read project file")

	// ErrConfigParseFailed is returned when the project file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse project file")

	// ErrUnknownConfiguration is returned when a build configuration name is not recognized.
	ErrUnknownConfiguration = zerr.New("unknown build configuration, expected debug, release, minsize or relwithdebinfo")

	// ErrInvalidFingerprintMode is returned when the fingerprint mode is not recognized.
	ErrInvalidFingerprintMode = zerr.New("invalid fingerprint mode, expected 'timestamp' or 'content'")

	// ErrUnknownExportFormat is returned when an export format is not supported.
	ErrUnknownExportFormat = zerr.New("unknown export format")

	// ErrReportNotFound is returned when no previous build report exists.
	ErrReportNotFound = zerr.New("no build report found, run 'anvil build' first")

	// ErrReportWriteFailed is returned when the build report cannot be persisted.
	ErrReportWriteFailed = zerr.New("failed to write build report")
)
