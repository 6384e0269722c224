// Package app implements the application layer for anvil.
package app

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"go.trai.ch/anvil/internal/adapters/detector"
	"go.trai.ch/anvil/internal/adapters/linear"
	"go.trai.ch/anvil/internal/adapters/telemetry"
	"go.trai.ch/anvil/internal/adapters/toolchain"
	"go.trai.ch/anvil/internal/adapters/tui"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/anvil/internal/engine/orchestrator"
	"go.trai.ch/anvil/internal/ui/output"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// ToolchainSource returns the resolver used by one session. The store lets it reuse
// compiler detections recorded by earlier sessions.
type ToolchainSource func(store ports.CacheStore) ports.ToolchainResolver

// App represents the main application logic.
type App struct {
	loader       ports.ConfigLoader
	deps         ports.DependencyProvider
	toolchains   ToolchainSource
	cache        ports.CacheOpener
	orchestrator *orchestrator.Orchestrator
	exporters    []ports.ProjectExporter
	watcher      ports.Watcher
	logger       ports.Logger

	stdout     io.Writer
	stderr     io.Writer
	workDir    string
	environ    func() []string
	teaOptions []tea.ProgramOption
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	deps ports.DependencyProvider,
	toolchains ToolchainSource,
	cache ports.CacheOpener,
	orch *orchestrator.Orchestrator,
	exporters []ports.ProjectExporter,
	watcher ports.Watcher,
	logger ports.Logger,
) *App {
	return &App{
		loader:       loader,
		deps:         deps,
		toolchains:   toolchains,
		cache:        cache,
		orchestrator: orch,
		exporters:    exporters,
		watcher:      watcher,
		logger:       logger,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		environ:      os.Environ,
	}
}

// CachedToolchains is the ToolchainSource used outside of tests.
func CachedToolchains(resolver *toolchain.Resolver) ToolchainSource {
	return func(store ports.CacheStore) ports.ToolchainResolver {
		return toolchain.NewCachedResolver(resolver, store)
	}
}

// WithTeaOptions adds bubbletea program options to the App.
// This is primarily used for testing to disable input/output.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// WithOutput redirects what the App prints.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// WithWorkDir sets the directory the project file is searched from. The default is the
// process working directory.
func (a *App) WithWorkDir(dir string) *App {
	a.workDir = dir
	return a
}

// WithEnviron replaces the environment used for toolchain search hints.
func (a *App) WithEnviron(environ func() []string) *App {
	a.environ = environ
	return a
}

// BuildOptions are the command line overrides of a build.
type BuildOptions struct {
	// Configuration overrides the project configuration when set.
	Configuration string
	// Jobs caps concurrently running targets when positive.
	Jobs int
	// Toolchain overrides the project default toolchain when set.
	Toolchain string
	Force     bool
	// OutputMode is one of auto, tui, linear or ci.
	OutputMode string
}

func (a *App) loadProject(opts BuildOptions) (*domain.Project, error) {
	cwd := a.workDir
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, zerr.Wrap(err, "failed to get working directory")
		}
		cwd = wd
	}
	cwd, err := filepath.Abs(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve working directory")
	}

	project, err := a.loader.Load(cwd)
	if err != nil {
		return nil, err
	}

	if opts.Configuration != "" {
		cfg, err := domain.ParseConfiguration(opts.Configuration)
		if err != nil {
			return nil, err
		}
		project.Configuration = cfg
	}
	if opts.Toolchain != "" {
		kind, err := domain.ParseToolchainKind(opts.Toolchain)
		if err != nil {
			return nil, err
		}
		project.Toolchain = kind
	}
	if opts.Jobs > 0 {
		project.Jobs = opts.Jobs
	}
	return project, nil
}

// Build builds the given targets and their dependencies, or every target when none are named.
// Construction problems (configuration, unknown targets, missing externals or toolchains) are
// returned before anything runs. Otherwise the result is nil, domain.ErrBuildFailed or
// domain.ErrBuildCancelled, joined with any error from persisting the session.
func (a *App) Build(ctx context.Context, targets []string, opts BuildOptions) error {
	project, err := a.loadProject(opts)
	if err != nil {
		return err
	}

	externals, err := a.resolveExternals(ctx, project)
	if err != nil {
		return err
	}

	graph, err := domain.BuildGraph(project.Targets)
	if err != nil {
		return err
	}
	selected, err := selectTargets(graph, targets)
	if err != nil {
		return err
	}

	store, err := a.cache.Open(ctx, project.Root)
	if err != nil {
		return err
	}

	result, err := a.build(ctx, project, graph, store, selected, externals, targets, opts)
	if flushErr := store.Flush(context.WithoutCancel(ctx)); flushErr != nil {
		err = errors.Join(err, flushErr)
	}
	return errors.Join(result, err)
}

func (a *App) build(
	ctx context.Context,
	project *domain.Project,
	graph *domain.Graph,
	store ports.CacheStore,
	selected []*domain.Target,
	externals map[string]domain.ResolvedDependency,
	targets []string,
	opts BuildOptions,
) (result, err error) {
	a.recordExternals(store, externals)

	toolchains, err := a.resolveToolchains(ctx, project, selected, store)
	if err != nil {
		return nil, err
	}

	mode := detector.ResolveMode(detector.DetectEnvironment(), opts.OutputMode)
	renderer, profile := a.newRenderer(mode)

	provider := telemetry.NewProvider(renderer)
	defer func() { _ = provider.Shutdown(context.WithoutCancel(ctx)) }()
	tracer := telemetry.NewOTelTracer(telemetry.InstrumentationName).
		WithProvider(provider, telemetry.InstrumentationName).
		WithRenderer(renderer)
	orch := a.orchestrator.WithTracer(tracer)

	var report *domain.BuildReport
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := renderer.Start(gctx); err != nil {
			return err
		}
		return renderer.Wait()
	})

	g.Go(func() error {
		defer func() { _ = renderer.Stop() }()

		var err error
		report, err = orch.Run(gctx, graph, store, toolchains, orchestrator.Options{
			Root:            project.Root,
			BuildDir:        project.BuildDir,
			Configuration:   project.Configuration,
			FingerprintMode: project.FingerprintMode,
			Parallelism:     project.Jobs,
			Force:           opts.Force,
			Targets:         targets,
			Externals:       externals,
		})
		return err
	})

	runErr := g.Wait()
	if report == nil {
		return nil, runErr
	}

	if err := saveReport(project.Root, report); err != nil {
		a.logger.Warn(err.Error())
	}
	linear.WriteSummary(a.stdout, profile, report)

	switch {
	case report.Status == domain.RunCancelled, errors.Is(runErr, domain.ErrBuildCancelled):
		return domain.ErrBuildCancelled, nil
	case report.Failed():
		return domain.ErrBuildFailed, nil
	case runErr != nil:
		return nil, runErr
	}
	return nil, nil
}

func (a *App) newRenderer(mode detector.OutputMode) (ports.Renderer, termenv.Profile) {
	if mode == detector.ModeTUI {
		model := tui.NewModel(a.stderr)
		opts := append([]tea.ProgramOption{tea.WithOutput(a.stderr)}, a.teaOptions...)
		return tui.NewRenderer(&model, opts...), output.ColorProfile()
	}
	return linear.NewRenderer(a.stdout, a.stderr), output.ColorProfileANSI()
}

// selectTargets returns the requested targets and their dependencies in topological order.
func selectTargets(graph *domain.Graph, names []string) ([]*domain.Target, error) {
	closure, err := graph.Closure(names)
	if err != nil {
		return nil, err
	}
	var selected []*domain.Target
	for _, t := range graph.TopologicalOrder() {
		if closure[t.Name] {
			selected = append(selected, t)
		}
	}
	return selected, nil
}
