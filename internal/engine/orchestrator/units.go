package orchestrator

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/anvil/internal/engine/action"
)

// includesKey is the record data entry listing the headers a unit included, one per line.
const includesKey = "includes"

// unit is one translation unit of a Project target. Units are recorded in the Local scope
// under the target name and the source path.
type unit struct {
	entry action.CompileEntry
	key   domain.CacheKey
	stale bool
}

// checkUnits decides which sources of t must be compiled again. A unit is stale when it has
// no record, its source, any header it included last time or its arguments changed, or its
// object is missing.
func (s *session) checkUnits(t *domain.Target, tc *domain.ToolchainDescriptor, entries []action.CompileEntry) []unit {
	units := make([]unit, 0, len(entries))
	for _, e := range entries {
		u := unit{entry: e, key: domain.CacheKey{Target: t.Name.String(), Path: e.File}}
		u.stale = s.opts.Force || s.unitStale(tc, u)
		units = append(units, u)
	}
	return units
}

func (s *session) unitStale(tc *domain.ToolchainDescriptor, u unit) bool {
	rec, ok := s.cache.Lookup(domain.ScopeLocal, u.key)
	if !ok {
		return true
	}
	// A header that disappeared fails the fingerprint; the unit is rebuilt to find out
	// whether it is still needed.
	fp, err := s.unitFingerprint(tc, u.entry, includesOf(rec))
	if err != nil {
		return true
	}
	if s.cache.IsStale(domain.ScopeLocal, u.key, fp) {
		return true
	}
	present, err := s.o.verifier.VerifyOutputs(s.opts.Root, []string{u.entry.Object})
	return err != nil || !present
}

// compile runs one unit and records the headers the compiler reported for it.
// The previous object is removed first so that a failed compile never leaves it behind.
func (s *session) compile(ctx context.Context, t *domain.Target, tc *domain.ToolchainDescriptor, u unit, span ports.Span) error {
	_ = os.Remove(u.entry.Object)
	if u.entry.DepFile != "" {
		_ = os.Remove(u.entry.DepFile)
	}

	var (
		out    io.Writer = span
		filter *action.IncludeFilter
	)
	if tc.Profile.DepFormat == domain.DepFormatShowIncludes {
		filter = action.NewIncludeFilter(span)
		out = filter
	}

	_, err := s.o.executor.Run(ctx, u.entry.Command(), out)
	if filter != nil {
		_ = filter.Flush()
	}
	if err != nil {
		s.cache.Forget(domain.ScopeLocal, u.key)
		return err
	}

	includes := reportedIncludes(u.entry, filter)
	fp, err := s.unitFingerprint(tc, u.entry, includes)
	if err != nil {
		s.cache.Forget(domain.ScopeLocal, u.key)
		s.o.logger.Warn("failed to record " + t.Name.String() + ": " + err.Error())
		return nil
	}
	record := domain.CacheRecord{Fingerprint: fp}
	if len(includes) > 0 {
		record.Data = map[string]string{includesKey: strings.Join(includes, "\n")}
	}
	if err := s.cache.Record(domain.ScopeLocal, u.key, record); err != nil {
		s.o.logger.Warn("failed to record " + t.Name.String() + ": " + err.Error())
	}
	return nil
}

// unitFingerprint digests the source and headers of a unit together with its arguments and
// the toolchain identity.
func (s *session) unitFingerprint(tc *domain.ToolchainDescriptor, e action.CompileEntry, includes []string) (domain.Fingerprint, error) {
	files := append([]string{e.File}, includes...)
	salt := []string{
		"args=" + strings.Join(e.Args, "\x00"),
		"toolchain=" + tc.Identity(),
	}
	return s.o.fingerprinter.FingerprintFiles(s.opts.Root, files, s.opts.FingerprintMode, salt)
}

// reportedIncludes returns the absolute headers the last compile of e reported, without the
// source itself. Units whose compiler reports nothing are tracked by their source alone.
func reportedIncludes(e action.CompileEntry, filter *action.IncludeFilter) []string {
	var reported []string
	switch {
	case filter != nil:
		reported = filter.Includes()
	case e.DepFile != "":
		data, err := os.ReadFile(e.DepFile) //nolint:gosec // Path is derived from the build directory
		if err != nil {
			return nil
		}
		reported = action.ParseDepFile(data)
	}

	includes := make([]string, 0, len(reported))
	for _, path := range reported {
		if !filepath.IsAbs(path) {
			path = filepath.Join(e.Dir, path)
		}
		path = filepath.Clean(path)
		if path != e.File {
			includes = append(includes, path)
		}
	}
	return includes
}

func includesOf(rec domain.CacheRecord) []string {
	if rec.Data[includesKey] == "" {
		return nil
	}
	return strings.Split(rec.Data[includesKey], "\n")
}
