// Package toolchain locates native compilers and validates them against the supported version policy.
package toolchain

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

var _ ports.ToolchainResolver = (*Resolver)(nil)

// autoCandidates are the drivers tried when no toolchain kind is requested.
var autoCandidates = []string{"cc", "clang", "gcc", "cl"}

// runFunc runs an executable and returns its combined output.
type runFunc func(ctx context.Context, exe string, args, env []string) (string, error)

// detection is what running a compiler tells us about it.
type detection struct {
	Kind    domain.ToolchainKind
	Version string
	Arch    string
}

// detectionCache short-circuits compiler detection.
type detectionCache interface {
	load(kind domain.ToolchainKind, compiler string) (detection, bool)
	save(kind domain.ToolchainKind, compiler string, result detection)
}

// Resolver implements ports.ToolchainResolver by running executables on disk.
type Resolver struct {
	run   runFunc
	group singleflight.Group
}

// NewResolver creates a Resolver that runs compilers to identify them.
func NewResolver() *Resolver {
	return &Resolver{run: runCommand}
}

// Resolve locates and validates a toolchain of kind.
// Concurrent calls with the same kind and hints share a single detection.
func (r *Resolver) Resolve(ctx context.Context, kind domain.ToolchainKind, hints ports.SearchHints) (*domain.ToolchainDescriptor, error) {
	return r.resolve(ctx, kind, hints, nil)
}

func (r *Resolver) resolve(
	ctx context.Context,
	kind domain.ToolchainKind,
	hints ports.SearchHints,
	cache detectionCache,
) (*domain.ToolchainDescriptor, error) {
	key := flightKey(kind, hints)
	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.resolveOnce(ctx, kind, hints, cache)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.ToolchainDescriptor), nil
}

func flightKey(kind domain.ToolchainKind, hints ports.SearchHints) string {
	return fmt.Sprintf("%s\x00%s\x00%s\x00%s\x00%s",
		kind, hints.CC, hints.CXX, strings.Join(hints.Paths, "\x01"), strings.Join(hints.Env, "\x01"))
}

func (r *Resolver) resolveOnce(
	ctx context.Context,
	kind domain.ToolchainKind,
	hints ports.SearchHints,
	cache detectionCache,
) (*domain.ToolchainDescriptor, error) {
	candidates := autoCandidates
	if kind != domain.ToolchainUnknown {
		spec, ok := domain.SpecFor(kind)
		if !ok {
			return nil, zerr.With(domain.ErrUnknownToolchainKind, "toolchain", kind.String())
		}
		candidates = spec.CC
	}

	dirs := searchDirs(hints)
	cc, ok := locate(hints.CC, candidates, dirs)
	if !ok {
		if hints.CC != "" {
			candidates = []string{hints.CC}
		}
		return nil, notFound(kind, candidates)
	}

	var result detection
	cached := false
	if cache != nil {
		result, cached = cache.load(kind, cc)
	}
	if !cached {
		var err error
		result, err = r.detect(ctx, kind, cc, hints.Env)
		if err != nil {
			return nil, err
		}
	}

	desc, err := assemble(result, cc, hints, dirs)
	if err != nil {
		return nil, err
	}
	if cache != nil && !cached {
		cache.save(kind, cc, result)
	}
	return desc, nil
}

// detect identifies the compiler at cc. An unknown kind is detected from the version banner,
// trying the most specific banners first.
func (r *Resolver) detect(ctx context.Context, kind domain.ToolchainKind, cc string, env []string) (detection, error) {
	versionArgs := []string{"--version"}
	if kind != domain.ToolchainUnknown {
		spec, _ := domain.SpecFor(kind)
		versionArgs = spec.VersionArgs
	} else if isMSVCDriver(cc) {
		versionArgs = nil
	}

	banner, err := r.run(ctx, cc, versionArgs, env)
	if err != nil {
		return detection{}, zerr.With(zerr.With(zerr.Wrap(err, domain.ErrToolchainNotFound.Error()), "kind", kind.String()), "compiler", cc)
	}

	if kind != domain.ToolchainUnknown {
		spec, _ := domain.SpecFor(kind)
		return r.match(ctx, spec, cc, banner, env)
	}

	for _, k := range domain.DetectionOrder() {
		spec, _ := domain.SpecFor(k)
		if result, err := r.match(ctx, spec, cc, banner, env); err == nil {
			return result, nil
		}
	}
	return detection{}, zerr.With(zerr.With(domain.ErrToolchainNotFound, "kind", kind.String()), "compiler", cc)
}

// match checks that banner belongs to spec's kind and determines the target triple.
func (r *Resolver) match(ctx context.Context, spec domain.ToolchainSpec, cc, banner string, env []string) (detection, error) {
	_, version, ok := spec.MatchVersion(banner)
	if !ok {
		err := zerr.With(zerr.With(domain.ErrToolchainNotFound, "kind", spec.Kind.String()), "compiler", cc)
		return detection{}, zerr.With(err, "reason", "version banner does not match")
	}

	arch := r.arch(ctx, spec, cc, banner, env)
	if !spec.MatchTriple(arch) {
		err := zerr.With(zerr.With(domain.ErrToolchainNotFound, "kind", spec.Kind.String()), "compiler", cc)
		return detection{}, zerr.With(err, "reason", "unexpected target "+arch)
	}
	return detection{Kind: spec.Kind, Version: version, Arch: arch}, nil
}

func (r *Resolver) arch(ctx context.Context, spec domain.ToolchainSpec, cc, banner string, env []string) string {
	if spec.FixedArch != "" {
		return spec.FixedArch
	}
	if len(spec.ArchArgs) > 0 {
		if out, err := r.run(ctx, cc, spec.ArchArgs, env); err == nil {
			if line, _, _ := strings.Cut(strings.TrimSpace(out), "\n"); line != "" {
				return strings.TrimSpace(line)
			}
		}
	}
	if spec.ArchPattern != nil {
		if m := spec.ArchPattern.FindStringSubmatch(banner); m != nil {
			return m[1]
		}
	}
	return hostTriple()
}

// assemble enforces the version policy and locates the companion tools.
func assemble(result detection, cc string, hints ports.SearchHints, dirs []string) (*domain.ToolchainDescriptor, error) {
	spec, ok := domain.SpecFor(result.Kind)
	if !ok {
		return nil, zerr.With(domain.ErrUnknownToolchainKind, "toolchain", result.Kind.String())
	}

	version, ok := domain.ParseVersion(result.Version)
	if !ok || version.Less(spec.Minimum) {
		err := zerr.With(domain.ErrToolchainVersionUnsupported, "kind", result.Kind.String())
		return nil, zerr.With(zerr.With(err, "version", result.Version), "minimum", spec.Minimum.String())
	}

	near := siblingsFirst(cc, dirs)
	cxx, ok := locate(hints.CXX, spec.CXX, near)
	if !ok {
		cxx = cc
	}

	linker := cxx
	if len(spec.Linker) > 0 {
		if linker, ok = locate("", spec.Linker, near); !ok {
			err := notFound(result.Kind, spec.Linker)
			return nil, zerr.With(err, "role", "linker")
		}
	}

	// The archiver is only needed for static libraries; planning reports it when missing.
	archiver, _ := locate("", spec.Archiver, near)

	return &domain.ToolchainDescriptor{
		Kind:     result.Kind,
		CC:       cc,
		CXX:      cxx,
		Linker:   linker,
		Archiver: archiver,
		Version:  result.Version,
		Arch:     result.Arch,
		Profile:  spec.Profile,
	}, nil
}

func notFound(kind domain.ToolchainKind, candidates []string) error {
	return zerr.With(zerr.With(domain.ErrToolchainNotFound, "kind", kind.String()), "candidates", strings.Join(candidates, ", "))
}

func isMSVCDriver(path string) bool {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	return base == "cl"
}

// runCommand runs a compiler query. cl prints its banner on stderr and exits nonzero without
// inputs, so any output counts as an answer.
func runCommand(ctx context.Context, exe string, args, env []string) (string, error) {
	cmd := exec.CommandContext(ctx, exe, args...) //nolint:gosec // running user-selected compilers
	if len(env) > 0 {
		cmd.Env = env
	}
	out, err := cmd.CombinedOutput()
	if err != nil && len(out) == 0 {
		return "", err
	}
	return string(out), nil
}

var hostArchNames = map[string]string{
	"amd64":   "x86_64",
	"386":     "i686",
	"arm64":   "aarch64",
	"arm":     "arm",
	"riscv64": "riscv64",
}

var hostOSNames = map[string]string{
	"linux":   "unknown-linux-gnu",
	"darwin":  "apple-darwin",
	"windows": "pc-windows-msvc",
	"freebsd": "unknown-freebsd",
}

// hostTriple approximates the target triple of the running machine.
func hostTriple() string {
	arch, ok := hostArchNames[runtime.GOARCH]
	if !ok {
		arch = runtime.GOARCH
	}
	osName, ok := hostOSNames[runtime.GOOS]
	if !ok {
		osName = "unknown-" + runtime.GOOS
	}
	return arch + "-" + osName
}
