package orchestrator_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/anvil/internal/adapters/cachestore"
	anvilfs "go.trai.ch/anvil/internal/adapters/fs"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/anvil/internal/core/ports/mocks"
	"go.trai.ch/anvil/internal/engine/orchestrator"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

// fakeExecutor creates the files a command would produce instead of running it.
type fakeExecutor struct {
	mu    sync.Mutex
	calls []string
	// headers lists what each source includes, reported through the dependency file.
	headers map[string][]string
	// hook runs before the command is simulated. A non-nil error fails the command.
	hook func(ctx context.Context, cmd domain.Command) error
}

func (f *fakeExecutor) run(ctx context.Context, cmd domain.Command, out io.Writer) (ports.ExecResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd.String())
	f.mu.Unlock()

	if f.hook != nil {
		if err := f.hook(ctx, cmd); err != nil {
			return ports.ExecResult{ExitCode: -1}, err
		}
	}
	if cmd.Args[0] == "false" {
		return ports.ExecResult{ExitCode: 1}, zerr.With(domain.ErrTargetExecutionFailed, "exit_code", 1)
	}

	products := make(map[string]string)
	switch {
	case cmd.Args[0] == "touch":
		for _, p := range cmd.Args[1:] {
			products[p] = "artifact"
		}
	case cmd.Args[0] == "/usr/bin/ar":
		products[cmd.Args[2]] = "artifact"
	case cmd.Args[0] == "cmake" && cmd.Args[1] == "--build":
		products[filepath.Join(cmd.Args[2], "libfmt.a")] = "artifact"
	default:
		if i := slices.Index(cmd.Args, "-o"); i >= 0 {
			products[cmd.Args[i+1]] = "artifact"
			if j := slices.Index(cmd.Args, "-MF"); j >= 0 && i > 0 {
				src := cmd.Args[i-1]
				f.mu.Lock()
				deps := append([]string{src}, f.headers[filepath.Base(src)]...)
				f.mu.Unlock()
				products[cmd.Args[j+1]] = cmd.Args[i+1] + ": " + strings.Join(deps, " \\\n  ") + "\n"
			}
		}
	}
	for p, content := range products {
		if err := os.MkdirAll(filepath.Dir(p), domain.DirPerm); err != nil {
			return ports.ExecResult{}, err
		}
		if err := os.WriteFile(p, []byte(content), domain.FilePerm); err != nil {
			return ports.ExecResult{}, err
		}
	}
	_, _ = out.Write([]byte("ok\n"))
	return ports.ExecResult{}, nil
}

// compiled returns the base names of the sources compiled since the last reset.
func (f *fakeExecutor) compiled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, call := range f.calls {
		fields := strings.Fields(call)
		if !slices.Contains(fields, "-c") {
			continue
		}
		if i := slices.Index(fields, "-o"); i > 0 {
			out = append(out, filepath.Base(fields[i-1]))
		}
	}
	slices.Sort(out)
	return out
}

func (f *fakeExecutor) reset() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.calls)
	f.calls = nil
	return n
}

type env struct {
	root       string
	exec       *fakeExecutor
	orch       *orchestrator.Orchestrator
	opener     *cachestore.Opener
	toolchains orchestrator.Toolchains

	mu    sync.Mutex
	attrs map[string]map[string]any
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctrl := gomock.NewController(t)
	root := t.TempDir()

	e := &env{
		root:  root,
		exec:  &fakeExecutor{},
		attrs: make(map[string]map[string]any),
	}

	executor := mocks.NewMockExecutor(ctrl)
	executor.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, cmd domain.Command, out io.Writer) (ports.ExecResult, error) {
			return e.exec.run(ctx, cmd, out)
		},
	).AnyTimes()

	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, name string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			span := mocks.NewMockSpan(ctrl)
			span.EXPECT().End().AnyTimes()
			span.EXPECT().RecordError(gomock.Any()).AnyTimes()
			span.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) { return len(p), nil }).AnyTimes()
			span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).Do(func(key string, value any) {
				e.mu.Lock()
				defer e.mu.Unlock()
				if e.attrs[name] == nil {
					e.attrs[name] = make(map[string]any)
				}
				e.attrs[name][key] = value
			}).AnyTimes()
			return ctx, span
		},
	).AnyTimes()

	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()

	walker := anvilfs.NewWalker()
	resolver := anvilfs.NewResolver()
	e.orch = orchestrator.New(executor, anvilfs.NewFingerprinter(walker, resolver), anvilfs.NewVerifier(), tracer, logger, resolver)
	e.opener = cachestore.NewOpenerWithGlobalPath(logger, filepath.Join(t.TempDir(), "global.json"))

	spec, ok := domain.SpecFor(domain.ToolchainGNU)
	require.True(t, ok)
	profile := spec.Profile
	profile.SharedExt = ".so"
	profile.ExecutableExt = ""
	e.toolchains = orchestrator.Toolchains{
		Default: domain.ToolchainGNU,
		Resolved: map[domain.ToolchainKind]*domain.ToolchainDescriptor{
			domain.ToolchainGNU: {
				Kind: domain.ToolchainGNU, CC: "/usr/bin/gcc", CXX: "/usr/bin/g++", Linker: "/usr/bin/g++",
				Archiver: "/usr/bin/ar", Version: "13.2.0", Arch: "x86_64-linux-gnu", Profile: profile,
			},
		},
	}
	return e
}

func (e *env) write(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(e.root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
}

func (e *env) options() orchestrator.Options {
	return orchestrator.Options{
		Root:            e.root,
		BuildDir:        filepath.Join(e.root, "build"),
		Configuration:   domain.ConfigurationRelease,
		FingerprintMode: domain.FingerprintContent,
		Parallelism:     4,
	}
}

// session runs one build with a freshly opened cache, as a separate process would.
func (e *env) session(t *testing.T, ctx context.Context, g *domain.Graph, opts orchestrator.Options) *domain.BuildReport {
	t.Helper()
	store, err := e.opener.Open(ctx, e.root)
	require.NoError(t, err)
	report, err := e.orch.Run(ctx, g, store, e.toolchains, opts)
	require.NoError(t, err)
	require.NoError(t, store.Flush(context.WithoutCancel(ctx)))
	return report
}

func script(name string, command []string, inputs []string, output string, deps ...string) *domain.Target {
	return &domain.Target{
		Name:         domain.NewInternedString(name),
		Kind:         domain.TargetScript,
		Dependencies: domain.NewInternedStrings(deps),
		Output:       output,
		Script:       &domain.ScriptSpec{Command: command, Inputs: inputs},
	}
}

func project(name string, typ domain.ProjectType, source string, deps ...string) *domain.Target {
	return &domain.Target{
		Name:         domain.NewInternedString(name),
		Kind:         domain.TargetProject,
		Dependencies: domain.NewInternedStrings(deps),
		Project:      &domain.ProjectSpec{Type: typ, Sources: []string{source}},
	}
}

// libAppGen declares a generator script, a static library depending on it and an
// executable linking the library.
func libAppGen(t *testing.T, e *env) *domain.Graph {
	t.Helper()
	e.write(t, "gen.in", "one")
	e.write(t, "lib.c", "int lib(void) { return 1; }\n")
	e.write(t, "main.c", "int main(void) { return 0; }\n")

	g, err := domain.BuildGraph([]*domain.Target{
		project("app", domain.ProjectExecutable, "main.c", "lib"),
		project("lib", domain.ProjectStaticLibrary, "lib.c", "gen"),
		script("gen", []string{"touch", filepath.Join(e.root, "gen.h")}, []string{"gen.in"}, "gen.h"),
	})
	require.NoError(t, err)
	return g
}

func outcomes(r *domain.BuildReport) map[string]domain.Outcome {
	out := make(map[string]domain.Outcome, len(r.Targets))
	for _, t := range r.Targets {
		out[t.Name] = t.Outcome
	}
	return out
}

func names(r *domain.BuildReport) []string {
	out := make([]string, 0, len(r.Targets))
	for _, t := range r.Targets {
		out = append(out, t.Name)
	}
	return out
}

func TestRun_LibAppGen(t *testing.T) {
	e := newEnv(t)
	g := libAppGen(t, e)
	ctx := context.Background()

	first := e.session(t, ctx, g, e.options())
	assert.Equal(t, domain.RunSucceeded, first.Status)
	assert.Equal(t, []string{"gen", "lib", "app"}, names(first))
	assert.Equal(t, map[string]domain.Outcome{
		"gen": domain.OutcomeBuilt, "lib": domain.OutcomeBuilt, "app": domain.OutcomeBuilt,
	}, outcomes(first))
	assert.Equal(t, 5, e.exec.reset(), "gen once, lib compile and archive, app compile and link")
	assert.FileExists(t, filepath.Join(e.root, "build", "release", "liblib.a"))
	assert.FileExists(t, filepath.Join(e.root, "build", "release", "app"))

	second := e.session(t, ctx, g, e.options())
	assert.Equal(t, map[string]domain.Outcome{
		"gen": domain.OutcomeSkipped, "lib": domain.OutcomeSkipped, "app": domain.OutcomeSkipped,
	}, outcomes(second))
	assert.Zero(t, e.exec.reset(), "an unchanged project runs no commands")
	assert.Equal(t, true, e.attrs["app"][ports.AttrSkipped])
	assert.Equal(t, "skipped", e.attrs["app"][ports.AttrOutcome])

	e.write(t, "lib.c", "int lib(void) { return 2; }\n")
	third := e.session(t, ctx, g, e.options())
	assert.Equal(t, map[string]domain.Outcome{
		"gen": domain.OutcomeSkipped, "lib": domain.OutcomeBuilt, "app": domain.OutcomeBuilt,
	}, outcomes(third))

	e.write(t, "gen.in", "two")
	fourth := e.session(t, ctx, g, e.options())
	assert.Equal(t, map[string]domain.Outcome{
		"gen": domain.OutcomeBuilt, "lib": domain.OutcomeBuilt, "app": domain.OutcomeBuilt,
	}, outcomes(fourth), "a rebuilt dependency makes its dependents stale")
}

// generatedInRoot declares targets whose inputs are the whole project root, which also holds
// the build directory, an explicit CMake binary directory and a declared output.
func generatedInRoot(t *testing.T, e *env) *domain.Graph {
	t.Helper()
	e.write(t, "main.c", "int main(void) { return 0; }\n")
	e.write(t, "api.h", "#pragma once\n")
	e.write(t, "CMakeLists.txt", "project(fmt)\n")

	app := project("app", domain.ProjectExecutable, "main.c")
	app.Project.IncludeDirs = []string{"."}
	cmake := &domain.Target{
		Name:  domain.NewInternedString("fmt"),
		Kind:  domain.TargetCMake,
		CMake: &domain.CMakeSpec{Location: ".", BuildDir: "cmake-out"},
	}
	gen := script("gen", []string{"touch", filepath.Join(e.root, "gen.h")}, []string{"."}, "gen.h")

	g, err := domain.BuildGraph([]*domain.Target{app, cmake, gen})
	require.NoError(t, err)
	return g
}

func TestRun_GeneratedPathsAreNotInputs(t *testing.T) {
	for _, mode := range []domain.FingerprintMode{domain.FingerprintTimestamp, domain.FingerprintContent} {
		t.Run(string(mode), func(t *testing.T) {
			e := newEnv(t)
			g := generatedInRoot(t, e)
			ctx := context.Background()
			opts := e.options()
			opts.FingerprintMode = mode

			first := e.session(t, ctx, g, opts)
			assert.Equal(t, map[string]domain.Outcome{
				"app": domain.OutcomeBuilt, "fmt": domain.OutcomeBuilt, "gen": domain.OutcomeBuilt,
			}, outcomes(first))
			assert.FileExists(t, filepath.Join(e.root, "build", "release", "app"))
			assert.FileExists(t, filepath.Join(e.root, "cmake-out", "libfmt.a"))
			assert.FileExists(t, filepath.Join(e.root, "gen.h"))
			e.exec.reset()

			for range 2 {
				again := e.session(t, ctx, g, opts)
				assert.Equal(t, map[string]domain.Outcome{
					"app": domain.OutcomeSkipped, "fmt": domain.OutcomeSkipped, "gen": domain.OutcomeSkipped,
				}, outcomes(again), "what a build writes must not make it stale")
				assert.Zero(t, e.exec.reset())
			}

			e.write(t, "api.h", "#pragma once\nint api(void);\n")
			changed := e.session(t, ctx, g, opts)
			assert.Equal(t, map[string]domain.Outcome{
				"app": domain.OutcomeBuilt, "fmt": domain.OutcomeBuilt, "gen": domain.OutcomeBuilt,
			}, outcomes(changed), "sources next to the build directory are still inputs")
		})
	}
}

func TestRun_RecompilesOnlyStaleUnits(t *testing.T) {
	e := newEnv(t)
	e.write(t, "a.c", "int a;\n")
	e.write(t, "b.c", "#include \"inc/b.h\"\n")
	e.write(t, "inc/b.h", "extern int b;\n")
	e.exec.headers = map[string][]string{"b.c": {"inc/b.h"}}

	app := project("app", domain.ProjectExecutable, "a.c")
	app.Project.Sources = []string{"a.c", "b.c"}
	g, err := domain.BuildGraph([]*domain.Target{app})
	require.NoError(t, err)
	ctx := context.Background()

	e.session(t, ctx, g, e.options())
	assert.Equal(t, []string{"a.c", "b.c"}, e.exec.compiled())
	assert.Equal(t, 3, e.exec.reset())

	store, err := e.opener.Open(ctx, e.root)
	require.NoError(t, err)
	rec, ok := store.Lookup(domain.ScopeLocal, domain.CacheKey{Target: "app", Path: filepath.Join(e.root, "b.c")})
	require.True(t, ok, "each source is recorded under its target")
	assert.Equal(t, filepath.Join(e.root, "inc", "b.h"), rec.Data["includes"])
	require.NoError(t, store.Close())

	steps := []struct {
		name     string
		change   func()
		compiled []string
	}{
		{
			name:     "edited source",
			change:   func() { e.write(t, "b.c", "#include \"inc/b.h\"\nint b;\n") },
			compiled: []string{"b.c"},
		},
		{
			name:     "edited header outside the include dirs",
			change:   func() { e.write(t, "inc/b.h", "extern long b;\n") },
			compiled: []string{"b.c"},
		},
		{
			name: "deleted object",
			change: func() {
				require.NoError(t, os.Remove(filepath.Join(e.root, "build", "release", "obj", "app", "a.o")))
			},
			compiled: []string{"a.c"},
		},
		{
			name: "header no longer exists",
			change: func() {
				require.NoError(t, os.Remove(filepath.Join(e.root, "inc", "b.h")))
				e.write(t, "b.c", "int b;\n")
				e.exec.headers = nil
			},
			compiled: []string{"b.c"},
		},
	}
	for _, step := range steps {
		step.change()
		report := e.session(t, ctx, g, e.options())
		assert.Equal(t, domain.OutcomeBuilt, outcomes(report)["app"], step.name)
		assert.Equal(t, step.compiled, e.exec.compiled(), step.name)
		assert.Equal(t, len(step.compiled)+1, e.exec.reset(), step.name+": compiles and one link")
	}

	report := e.session(t, ctx, g, e.options())
	assert.Equal(t, domain.OutcomeSkipped, outcomes(report)["app"])
	assert.Zero(t, e.exec.reset())
}

func TestRun_DependencyChangeRelinksWithoutCompiling(t *testing.T) {
	e := newEnv(t)
	g := libAppGen(t, e)
	ctx := context.Background()

	e.session(t, ctx, g, e.options())
	e.exec.reset()

	e.write(t, "lib.c", "int lib(void) { return 3; }\n")
	report := e.session(t, ctx, g, e.options())
	assert.Equal(t, domain.OutcomeBuilt, outcomes(report)["app"])
	assert.Equal(t, []string{"lib.c"}, e.exec.compiled(), "main.c is unchanged")
	assert.Equal(t, 3, e.exec.reset(), "lib compile and archive, app link")
}

func TestRun_FailedUnitIsRetried(t *testing.T) {
	e := newEnv(t)
	e.write(t, "a.c", "int a;\n")
	e.write(t, "b.c", "int b;\n")

	app := project("app", domain.ProjectExecutable, "a.c")
	app.Project.Sources = []string{"a.c", "b.c"}
	g, err := domain.BuildGraph([]*domain.Target{app})
	require.NoError(t, err)
	ctx := context.Background()

	e.exec.hook = func(_ context.Context, cmd domain.Command) error {
		if slices.Contains(cmd.Args, filepath.Join(e.root, "b.c")) {
			return zerr.With(domain.ErrTargetExecutionFailed, "exit_code", 1)
		}
		return nil
	}
	report := e.session(t, ctx, g, e.options())
	res, _ := report.Result("app")
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
	assert.Contains(t, res.Error, domain.ErrTargetExecutionFailed.Error())
	assert.NoFileExists(t, filepath.Join(e.root, "build", "release", "obj", "app", "b.o"))
	e.exec.reset()

	e.exec.hook = nil
	report = e.session(t, ctx, g, e.options())
	assert.Equal(t, domain.OutcomeBuilt, outcomes(report)["app"])
	assert.Equal(t, []string{"b.c"}, e.exec.compiled())
}

func TestRun_MissingOutputRebuilds(t *testing.T) {
	e := newEnv(t)
	g := libAppGen(t, e)
	ctx := context.Background()

	e.session(t, ctx, g, e.options())
	require.NoError(t, os.Remove(filepath.Join(e.root, "gen.h")))

	report := e.session(t, ctx, g, e.options())
	assert.Equal(t, domain.OutcomeBuilt, outcomes(report)["gen"])
	assert.FileExists(t, filepath.Join(e.root, "gen.h"))
}

func TestRun_ToolchainIdentityInvalidates(t *testing.T) {
	e := newEnv(t)
	g := libAppGen(t, e)
	ctx := context.Background()

	e.session(t, ctx, g, e.options())

	upgraded := *e.toolchains.Resolved[domain.ToolchainGNU]
	upgraded.Version = "14.1.0"
	e.toolchains.Resolved = map[domain.ToolchainKind]*domain.ToolchainDescriptor{domain.ToolchainGNU: &upgraded}

	report := e.session(t, ctx, g, e.options())
	assert.Equal(t, map[string]domain.Outcome{
		"gen": domain.OutcomeSkipped, "lib": domain.OutcomeBuilt, "app": domain.OutcomeBuilt,
	}, outcomes(report))
}

func TestRun_ConfigurationInvalidates(t *testing.T) {
	e := newEnv(t)
	g := libAppGen(t, e)
	ctx := context.Background()

	e.session(t, ctx, g, e.options())

	opts := e.options()
	opts.Configuration = domain.ConfigurationDebug
	report := e.session(t, ctx, g, opts)
	for _, res := range report.Targets {
		assert.Equal(t, domain.OutcomeBuilt, res.Outcome, res.Name)
	}
}

func TestRun_Force(t *testing.T) {
	e := newEnv(t)
	g := libAppGen(t, e)
	ctx := context.Background()

	e.session(t, ctx, g, e.options())
	e.exec.reset()

	opts := e.options()
	opts.Force = true
	report := e.session(t, ctx, g, opts)
	assert.Equal(t, 0, report.Count(domain.OutcomeSkipped))
	assert.Equal(t, 5, e.exec.reset())
}

func TestRun_FailurePropagation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	g, err := domain.BuildGraph([]*domain.Target{
		script("A", []string{"touch", filepath.Join(e.root, "a")}, nil, "", "B"),
		script("B", []string{"false"}, nil, ""),
		script("C", []string{"touch", filepath.Join(e.root, "c")}, nil, ""),
	})
	require.NoError(t, err)

	report := e.session(t, ctx, g, e.options())
	assert.Equal(t, domain.RunFailed, report.Status)
	assert.True(t, report.Failed())
	assert.Equal(t, map[string]domain.Outcome{
		"A": domain.OutcomeBlocked, "B": domain.OutcomeFailed, "C": domain.OutcomeBuilt,
	}, outcomes(report))

	b, _ := report.Result("B")
	assert.Contains(t, b.Error, domain.ErrTargetExecutionFailed.Error())
	assert.NoFileExists(t, filepath.Join(e.root, "a"))

	again := e.session(t, ctx, g, e.options())
	assert.Equal(t, domain.OutcomeFailed, outcomes(again)["B"], "a failed target is never up to date")
	assert.Equal(t, domain.OutcomeSkipped, outcomes(again)["C"])
}

func TestRun_BlockedIsTransitive(t *testing.T) {
	e := newEnv(t)

	g, err := domain.BuildGraph([]*domain.Target{
		script("top", []string{"true"}, nil, "", "mid"),
		script("mid", []string{"true"}, nil, "", "bottom"),
		script("bottom", []string{"false"}, nil, ""),
	})
	require.NoError(t, err)

	report := e.session(t, context.Background(), g, e.options())
	assert.Equal(t, map[string]domain.Outcome{
		"bottom": domain.OutcomeFailed, "mid": domain.OutcomeBlocked, "top": domain.OutcomeBlocked,
	}, outcomes(report))
}

func TestRun_Cancellation(t *testing.T) {
	e := newEnv(t)
	g := libAppGen(t, e)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e.exec.hook = func(ctx context.Context, cmd domain.Command) error {
		if slices.Contains(cmd.Args, "-c") {
			cancel()
			return ctx.Err()
		}
		return nil
	}

	report := e.session(t, ctx, g, e.options())
	assert.Equal(t, domain.RunCancelled, report.Status)
	assert.Equal(t, map[string]domain.Outcome{
		"gen": domain.OutcomeBuilt, "lib": domain.OutcomeCancelled, "app": domain.OutcomeCancelled,
	}, outcomes(report))

	e.exec.hook = nil
	next := e.session(t, context.Background(), g, e.options())
	assert.Equal(t, map[string]domain.Outcome{
		"gen": domain.OutcomeSkipped, "lib": domain.OutcomeBuilt, "app": domain.OutcomeBuilt,
	}, outcomes(next), "targets completed before cancellation stay recorded")
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	e := newEnv(t)
	g := libAppGen(t, e)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := e.session(t, ctx, g, e.options())
	assert.Equal(t, domain.RunCancelled, report.Status)
	assert.Equal(t, 3, report.Count(domain.OutcomeCancelled))
	assert.Zero(t, e.exec.reset())
}

func TestRun_SelectsClosure(t *testing.T) {
	e := newEnv(t)
	g := libAppGen(t, e)

	opts := e.options()
	opts.Targets = []string{"lib"}
	report := e.session(t, context.Background(), g, opts)
	assert.Equal(t, []string{"gen", "lib"}, names(report))
}

func TestRun_UnknownTarget(t *testing.T) {
	e := newEnv(t)
	g := libAppGen(t, e)
	store, err := e.opener.Open(context.Background(), e.root)
	require.NoError(t, err)

	opts := e.options()
	opts.Targets = []string{"nope"}
	_, err = e.orch.Run(context.Background(), g, store, e.toolchains, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrTargetNotFound.Error())
}

func TestRun_MissingToolchain(t *testing.T) {
	e := newEnv(t)
	g := libAppGen(t, e)
	e.toolchains.Resolved = nil

	report := e.session(t, context.Background(), g, e.options())
	lib, _ := report.Result("lib")
	assert.Equal(t, domain.OutcomeFailed, lib.Outcome)
	assert.Contains(t, lib.Error, domain.ErrToolchainNotFound.Error())
	assert.Equal(t, domain.OutcomeBlocked, outcomes(report)["app"])
	assert.Equal(t, domain.OutcomeBuilt, outcomes(report)["gen"])
}

func TestRun_DeterministicReport(t *testing.T) {
	e := newEnv(t)

	var targets []*domain.Target
	for _, n := range []string{"e", "d", "c", "b", "a"} {
		targets = append(targets, script(n, []string{"true"}, nil, ""))
	}
	targets = append(targets, script("z", []string{"true"}, nil, "", "a", "e"))
	g, err := domain.BuildGraph(targets)
	require.NoError(t, err)

	for range 5 {
		report := e.session(t, context.Background(), g, e.options())
		assert.Equal(t, []string{"e", "d", "c", "b", "a", "z"}, names(report))
	}
}

func TestRun_ParallelismBound(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e := newEnv(t)

		var running, peak atomic.Int32
		e.exec.hook = func(context.Context, domain.Command) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Second)
			running.Add(-1)
			return nil
		}

		var targets []*domain.Target
		for _, n := range []string{"a", "b", "c", "d", "e", "f"} {
			targets = append(targets, script(n, []string{"true"}, nil, ""))
		}
		g, err := domain.BuildGraph(targets)
		require.NoError(t, err)

		opts := e.options()
		opts.Parallelism = 2
		start := time.Now()
		report := e.session(t, context.Background(), g, opts)

		assert.Equal(t, domain.RunSucceeded, report.Status)
		assert.Equal(t, int32(2), peak.Load())
		assert.Equal(t, 3*time.Second, time.Since(start))
	})
}

func TestToolchains_For(t *testing.T) {
	gnu := &domain.ToolchainDescriptor{Kind: domain.ToolchainGNU}
	llvm := &domain.ToolchainDescriptor{Kind: domain.ToolchainLLVM}
	tc := orchestrator.Toolchains{
		Default:  domain.ToolchainGNU,
		Resolved: map[domain.ToolchainKind]*domain.ToolchainDescriptor{domain.ToolchainGNU: gnu, domain.ToolchainLLVM: llvm},
	}

	own := project("a", domain.ProjectExecutable, "a.c")
	own.Project.Toolchain = domain.ToolchainLLVM
	assert.Same(t, llvm, tc.For(own))
	assert.Same(t, gnu, tc.For(project("b", domain.ProjectExecutable, "b.c")))
	assert.Nil(t, tc.For(script("s", []string{"true"}, nil, "")))

	cm := &domain.Target{Kind: domain.TargetCMake, CMake: &domain.CMakeSpec{Location: "x"}}
	assert.Same(t, gnu, tc.For(cm))
	tc.Default = domain.ToolchainUnknown
	assert.Nil(t, tc.For(cm))
}
