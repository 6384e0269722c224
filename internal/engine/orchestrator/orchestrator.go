// Package orchestrator runs the targets of a graph in dependency order, skipping those
// whose inputs are unchanged.
package orchestrator

import (
	"context"
	"os"
	"runtime"
	"slices"
	"time"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/anvil/internal/engine/action"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Options configure one build session.
type Options struct {
	Root            string
	BuildDir        string
	Configuration   domain.Configuration
	FingerprintMode domain.FingerprintMode
	// Parallelism caps concurrently running targets. Zero means runtime.NumCPU().
	Parallelism int
	// Force rebuilds every selected target.
	Force bool
	// Targets selects what to build together with its dependencies. Empty selects everything.
	Targets   []string
	Externals map[string]domain.ResolvedDependency
}

// Orchestrator executes build sessions.
type Orchestrator struct {
	executor      ports.Executor
	fingerprinter ports.Fingerprinter
	verifier      ports.Verifier
	tracer        ports.Tracer
	logger        ports.Logger
	sources       action.SourceResolver
}

// New creates an Orchestrator.
func New(
	executor ports.Executor,
	fingerprinter ports.Fingerprinter,
	verifier ports.Verifier,
	tracer ports.Tracer,
	logger ports.Logger,
	sources action.SourceResolver,
) *Orchestrator {
	return &Orchestrator{
		executor:      executor,
		fingerprinter: fingerprinter,
		verifier:      verifier,
		tracer:        tracer,
		logger:        logger,
		sources:       sources,
	}
}

// WithTracer returns a copy of o that reports spans to tracer.
func (o *Orchestrator) WithTracer(tracer ports.Tracer) *Orchestrator {
	c := *o
	c.tracer = tracer
	return &c
}

// outcome is the session state of one target.
type outcome struct {
	result domain.TargetResult
	key    domain.CacheKey
	fp     domain.Fingerprint
}

type session struct {
	o          *Orchestrator
	graph      *domain.Graph
	cache      ports.CacheStore
	toolchains Toolchains
	opts       Options
	planner    *action.Planner
	selected   map[domain.InternedString]bool
	// generated are the paths builds write to, left out when walking input directories.
	generated domain.PathSet
	// outcomes is indexed by topological position. Each slot is written by the single
	// worker running that target and read only after its ready set has completed.
	outcomes []outcome
}

// Run builds the selected targets one ready set at a time. Targets of a set run
// concurrently, bounded by opts.Parallelism.
// The only error is an unknown target name; build failures are reported per target.
func (o *Orchestrator) Run(
	ctx context.Context,
	graph *domain.Graph,
	cache ports.CacheStore,
	toolchains Toolchains,
	opts Options,
) (*domain.BuildReport, error) {
	selected, err := graph.Closure(opts.Targets)
	if err != nil {
		return nil, err
	}

	s := &session{
		o:          o,
		graph:      graph,
		cache:      cache,
		toolchains: toolchains,
		opts:       opts,
		selected:   selected,
		outcomes:   make([]outcome, graph.Len()),
		planner: &action.Planner{
			Root:          opts.Root,
			BuildDir:      opts.BuildDir,
			Configuration: opts.Configuration,
			Externals:     opts.Externals,
			Sources:       o.sources,
			ToolchainFor:  toolchains.For,
		},
	}

	s.generated = s.planner.Generated(graph.TopologicalOrder())

	started := time.Now()
	s.emitPlan(ctx)

	for _, group := range graph.IndependentGroups() {
		s.runGroup(ctx, group)
	}

	return s.report(ctx, started), nil
}

func (s *session) emitPlan(ctx context.Context) {
	var names []string
	deps := make(map[string][]string)
	for _, t := range s.graph.TopologicalOrder() {
		if !s.selected[t.Name] {
			continue
		}
		name := t.Name.String()
		names = append(names, name)
		depNames := make([]string, len(t.Dependencies))
		for i, d := range t.Dependencies {
			depNames[i] = d.String()
		}
		deps[name] = depNames
	}
	s.o.tracer.EmitPlan(ctx, names, deps)
}

func (s *session) runGroup(ctx context.Context, group []*domain.Target) {
	limit := s.opts.Parallelism
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	// A failing target does not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(limit)

	for _, t := range group {
		if !s.selected[t.Name] {
			continue
		}
		slot := &s.outcomes[s.graph.Position(t.Name)]

		if blocked := s.blockedBy(t); blocked != "" {
			*slot = s.terminal(t, blocked, nil)
			continue
		}
		if ctx.Err() != nil {
			*slot = s.terminal(t, domain.OutcomeCancelled, nil)
			continue
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				*slot = s.terminal(t, domain.OutcomeCancelled, nil)
				return nil
			}
			*slot = s.runTarget(ctx, t)
			return nil
		})
	}
	_ = g.Wait()
}

// blockedBy returns the outcome forced on t by its dependencies, or "" when t may run.
func (s *session) blockedBy(t *domain.Target) domain.Outcome {
	var cancelled bool
	for _, dep := range t.Dependencies {
		switch s.outcomes[s.graph.Position(dep)].result.Outcome {
		case domain.OutcomeFailed, domain.OutcomeBlocked:
			return domain.OutcomeBlocked
		case domain.OutcomeCancelled:
			cancelled = true
		}
	}
	if cancelled {
		return domain.OutcomeCancelled
	}
	return ""
}

func (s *session) terminal(t *domain.Target, o domain.Outcome, err error) outcome {
	res := domain.TargetResult{Name: t.Name.String(), Kind: t.Kind, Outcome: o}
	if err != nil {
		res.Error = err.Error()
	}
	return outcome{result: res}
}

func (s *session) runTarget(ctx context.Context, t *domain.Target) outcome {
	ctx, span := s.o.tracer.Start(ctx, t.Name.String(), ports.WithKind(t.Kind.String()))
	defer span.End()
	span.SetAttribute(ports.AttrKind, t.Kind.String())

	start := time.Now()
	out := s.execute(ctx, t, span)
	out.result.Elapsed = time.Since(start)

	span.SetAttribute(ports.AttrOutcome, string(out.result.Outcome))
	if out.result.Outcome == domain.OutcomeSkipped {
		span.SetAttribute(ports.AttrSkipped, true)
	}
	return out
}

func (s *session) execute(ctx context.Context, t *domain.Target, span ports.Span) outcome {
	name := t.Name.String()
	key := domain.CacheKey{Target: name, Path: s.planner.Output(t)}

	fail := func(err error) outcome {
		span.RecordError(err)
		s.cache.Forget(domain.ScopeLocal, key)
		if ctx.Err() != nil {
			return s.terminal(t, domain.OutcomeCancelled, ctx.Err())
		}
		out := s.terminal(t, domain.OutcomeFailed, err)
		out.key = key
		return out
	}

	tc := s.toolchains.For(t)
	if t.Kind == domain.TargetProject && tc == nil {
		return fail(zerr.With(zerr.With(domain.ErrToolchainNotFound, "kind", s.toolchainKind(t).String()), "target", name))
	}

	fp, err := s.o.fingerprinter.Fingerprint(s.opts.Root, t, s.opts.FingerprintMode, s.salt(t, tc), s.generated)
	if err != nil {
		return fail(zerr.With(err, "target", name))
	}

	stale, err := s.stale(t, key, fp)
	if err != nil {
		return fail(zerr.With(err, "target", name))
	}

	// Project targets are planned up front: a stale translation unit makes the target stale
	// even when nothing the target fingerprint covers has changed.
	var (
		plan  action.Plan
		units []unit
	)
	if t.Kind == domain.TargetProject {
		if plan, err = s.planner.Plan(t, s.graph); err != nil {
			return fail(err)
		}
		units = s.checkUnits(t, tc, plan.Units)
		stale = stale || slices.ContainsFunc(units, func(u unit) bool { return u.stale })
	}

	if !stale {
		out := s.terminal(t, domain.OutcomeSkipped, nil)
		out.key, out.fp = key, fp
		return out
	}

	if t.Kind != domain.TargetProject {
		if plan, err = s.planner.Plan(t, s.graph); err != nil {
			return fail(err)
		}
	}
	for _, dir := range plan.Dirs {
		if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
			return fail(zerr.With(zerr.Wrap(err, domain.ErrTargetExecutionFailed.Error()), "target", name))
		}
	}
	for _, u := range units {
		if !u.stale {
			continue
		}
		if err := s.compile(ctx, t, tc, u, span); err != nil {
			return fail(zerr.With(zerr.With(err, "source", u.entry.File), "target", name))
		}
	}
	for _, cmd := range plan.Commands {
		if _, err := s.o.executor.Run(ctx, cmd, span); err != nil {
			return fail(zerr.With(err, "target", name))
		}
	}

	if err := s.cache.Record(domain.ScopeLocal, key, domain.CacheRecord{Fingerprint: fp}); err != nil {
		s.o.logger.Warn("failed to record " + name + ": " + err.Error())
	}
	out := s.terminal(t, domain.OutcomeBuilt, nil)
	out.key, out.fp = key, fp
	return out
}

// stale decides whether t must be rebuilt. The cache is always consulted so that its
// verdict propagates to dependents later in the session.
func (s *session) stale(t *domain.Target, key domain.CacheKey, fp domain.Fingerprint) (bool, error) {
	var depKeys []domain.CacheKey
	for _, dep := range t.Dependencies {
		depKeys = append(depKeys, s.outcomes[s.graph.Position(dep)].key)
	}
	stale := s.cache.IsStale(domain.ScopeLocal, key, fp, depKeys...)

	if key.Path != "" {
		present, err := s.o.verifier.VerifyOutputs(s.opts.Root, []string{key.Path})
		if err != nil {
			return false, err
		}
		stale = stale || !present
	}
	return stale || s.opts.Force, nil
}

// salt returns everything besides the input files that determines the result of t.
func (s *session) salt(t *domain.Target, tc *domain.ToolchainDescriptor) []string {
	salt := []string{
		"definition=" + t.Definition(),
		"configuration=" + string(s.opts.Configuration),
	}
	if tc != nil {
		salt = append(salt, "toolchain="+tc.Identity())
	}
	for _, dep := range t.Dependencies {
		salt = append(salt, "dependency="+dep.String()+":"+s.outcomes[s.graph.Position(dep)].fp.Digest)
	}
	if t.Kind == domain.TargetProject {
		externals := slices.Sorted(slices.Values(t.Project.Externals))
		for _, name := range externals {
			salt = append(salt, "external="+name+":"+s.opts.Externals[name].Revision)
		}
	}
	return salt
}

func (s *session) toolchainKind(t *domain.Target) domain.ToolchainKind {
	if t.Kind == domain.TargetProject && t.Project.Toolchain != domain.ToolchainUnknown {
		return t.Project.Toolchain
	}
	return s.toolchains.Default
}

func (s *session) report(ctx context.Context, started time.Time) *domain.BuildReport {
	r := &domain.BuildReport{
		Status:        domain.RunSucceeded,
		Configuration: s.opts.Configuration,
		Started:       started,
		Elapsed:       time.Since(started),
	}
	for _, t := range s.graph.TopologicalOrder() {
		if !s.selected[t.Name] {
			continue
		}
		r.Targets = append(r.Targets, s.outcomes[s.graph.Position(t.Name)].result)
	}

	switch {
	case ctx.Err() != nil || r.Count(domain.OutcomeCancelled) > 0:
		r.Status = domain.RunCancelled
	case r.Failed():
		r.Status = domain.RunFailed
	}
	return r
}
