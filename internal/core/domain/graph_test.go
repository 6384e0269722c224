package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/zerr"
)

func script(name string, deps ...string) *domain.Target {
	return &domain.Target{
		Name:         domain.NewInternedString(name),
		Kind:         domain.TargetScript,
		Dependencies: domain.NewInternedStrings(deps),
		Script:       &domain.ScriptSpec{Command: []string{"true"}},
	}
}

func names(targets []*domain.Target) []string {
	out := make([]string, len(targets))
	for i, t := range targets {
		out[i] = t.Name.String()
	}
	return out
}

func TestBuildGraph_Cycle(t *testing.T) {
	_, err := domain.BuildGraph([]*domain.Target{
		script("A", "B"),
		script("B", "C"),
		script("C", "A"),
		script("D"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrDependencyCycle.Error())

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", err)
	meta := zErr.Metadata()
	assert.Equal(t, "A -> B -> C -> A", meta["cycle"])
	assert.Equal(t, []string{"A", "B", "C"}, meta["members"])
}

func TestBuildGraph_SelfDependency(t *testing.T) {
	_, err := domain.BuildGraph([]*domain.Target{script("A", "A")})
	require.Error(t, err)

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok)
	assert.Equal(t, "A -> A", zErr.Metadata()["cycle"])
}

func TestBuildGraph_Errors(t *testing.T) {
	tests := []struct {
		name    string
		targets []*domain.Target
		want    error
	}{
		{
			name:    "duplicate",
			targets: []*domain.Target{script("lib"), script("lib")},
			want:    domain.ErrDuplicateTarget,
		},
		{
			name:    "missing dependency",
			targets: []*domain.Target{script("app", "lib")},
			want:    domain.ErrMissingDependency,
		},
		{
			name:    "invalid name",
			targets: []*domain.Target{script("my app")},
			want:    domain.ErrInvalidTargetName,
		},
		{
			name:    "empty name",
			targets: []*domain.Target{{Kind: domain.TargetScript}},
			want:    domain.ErrInvalidTargetName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.BuildGraph(tt.targets)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want.Error())
		})
	}
}

func TestGraph_TopologicalOrder(t *testing.T) {
	// gen and lib are independent, app needs both.
	g, err := domain.BuildGraph([]*domain.Target{
		script("app", "lib", "gen"),
		script("lib"),
		script("gen"),
		script("docs"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"lib", "gen", "app", "docs"}, names(g.TopologicalOrder()))
	assert.Equal(t, 4, g.Len())

	groups := g.IndependentGroups()
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"lib", "gen", "docs"}, names(groups[0]))
	assert.Equal(t, []string{"app"}, names(groups[1]))
}

func TestGraph_TopologicalOrder_Deterministic(t *testing.T) {
	build := func() []string {
		g, err := domain.BuildGraph([]*domain.Target{
			script("e", "c", "d"),
			script("d", "a"),
			script("c", "b", "a"),
			script("b"),
			script("a"),
		})
		require.NoError(t, err)
		return names(g.TopologicalOrder())
	}

	first := build()
	assert.Equal(t, []string{"b", "a", "d", "c", "e"}, first)
	for range 20 {
		assert.Equal(t, first, build())
	}
}

func TestGraph_DependenciesBeforeDependents(t *testing.T) {
	g, err := domain.BuildGraph([]*domain.Target{
		script("z", "y"),
		script("y", "x"),
		script("x"),
		script("w", "x", "x"),
	})
	require.NoError(t, err)

	for _, target := range g.TopologicalOrder() {
		for _, dep := range g.Dependencies(target.Name) {
			assert.Less(t, g.Position(dep.Name), g.Position(target.Name), "%s must come after %s", target.Name, dep.Name)
		}
	}
	assert.Len(t, g.Dependencies(domain.NewInternedString("w")), 1)
	assert.Equal(t, []string{"y", "w"}, names(g.Dependents(domain.NewInternedString("x"))))
}

func TestGraph_Closure(t *testing.T) {
	g, err := domain.BuildGraph([]*domain.Target{
		script("lib"),
		script("gen"),
		script("app", "lib"),
	})
	require.NoError(t, err)

	t.Run("named targets pull their dependencies", func(t *testing.T) {
		selected, err := g.Closure([]string{"app"})
		require.NoError(t, err)
		assert.True(t, selected[domain.NewInternedString("app")])
		assert.True(t, selected[domain.NewInternedString("lib")])
		assert.False(t, selected[domain.NewInternedString("gen")])
	})

	t.Run("no names selects everything", func(t *testing.T) {
		selected, err := g.Closure(nil)
		require.NoError(t, err)
		assert.Len(t, selected, 3)
	})

	t.Run("unknown target", func(t *testing.T) {
		_, err := g.Closure([]string{"nope"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), domain.ErrTargetNotFound.Error())
	})
}
