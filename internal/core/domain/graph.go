// Package domain contains the core model of the build orchestrator: toolchains, targets,
// the target graph, cache records and build reports.
package domain

import (
	"regexp"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

var targetNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Graph is a validated, acyclic dependency graph of targets.
// Edges point from a dependent to its dependencies. A Graph is read-only after BuildGraph.
type Graph struct {
	targets    map[InternedString]*Target
	deps       map[InternedString][]*Target
	dependents map[InternedString][]*Target
	order      []*Target
	position   map[InternedString]int
	groups     [][]*Target
}

// BuildGraph validates the declarations and computes the topological order.
// Each target's Index is set to its position in targets.
func BuildGraph(targets []*Target) (*Graph, error) {
	g := &Graph{
		targets:    make(map[InternedString]*Target, len(targets)),
		deps:       make(map[InternedString][]*Target, len(targets)),
		dependents: make(map[InternedString][]*Target, len(targets)),
		position:   make(map[InternedString]int, len(targets)),
	}

	for i, t := range targets {
		if t.Name.IsZero() {
			return nil, zerr.With(ErrInvalidTargetName, "index", i)
		}
		name := t.Name.String()
		if !targetNamePattern.MatchString(name) {
			return nil, zerr.With(ErrInvalidTargetName, "target", name)
		}
		if _, exists := g.targets[t.Name]; exists {
			return nil, zerr.With(ErrDuplicateTarget, "target", name)
		}
		t.Index = i
		g.targets[t.Name] = t
	}

	for _, t := range targets {
		seen := make(map[InternedString]bool, len(t.Dependencies))
		for _, dep := range t.Dependencies {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			d, ok := g.targets[dep]
			if !ok {
				return nil, zerr.With(zerr.With(ErrMissingDependency, "target", t.Name.String()), "dependency", dep.String())
			}
			g.deps[t.Name] = append(g.deps[t.Name], d)
			g.dependents[dep] = append(g.dependents[dep], t)
		}
	}

	if err := g.checkCycles(targets); err != nil {
		return nil, err
	}

	g.sort(targets)
	g.group()
	return g, nil
}

func (g *Graph) checkCycles(targets []*Target) error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[InternedString]int, len(targets))
	var path []*Target

	var visit func(t *Target) error
	visit = func(t *Target) error {
		state[t.Name] = visiting
		path = append(path, t)
		for _, d := range g.deps[t.Name] {
			switch state[d.Name] {
			case visiting:
				return cycleError(path, d)
			case unvisited:
				if err := visit(d); err != nil {
					return err
				}
			}
		}
		state[t.Name] = done
		path = path[:len(path)-1]
		return nil
	}

	for _, t := range targets {
		if state[t.Name] == unvisited {
			if err := visit(t); err != nil {
				return err
			}
		}
	}
	return nil
}

func cycleError(path []*Target, back *Target) error {
	start := slices.IndexFunc(path, func(t *Target) bool { return t.Name == back.Name })
	loop := path[start:]

	names := make([]string, 0, len(loop)+1)
	for _, t := range loop {
		names = append(names, t.Name.String())
	}
	members := slices.Clone(names)
	slices.Sort(members)
	names = append(names, back.Name.String())

	err := zerr.With(ErrDependencyCycle, "cycle", strings.Join(names, " -> "))
	return zerr.With(err, "members", members)
}

// sort runs Kahn's algorithm, always releasing the ready target declared first.
func (g *Graph) sort(targets []*Target) {
	inDegree := make(map[InternedString]int, len(targets))
	var ready []*Target
	for _, t := range targets {
		inDegree[t.Name] = len(g.deps[t.Name])
		if inDegree[t.Name] == 0 {
			ready = append(ready, t)
		}
	}

	byIndex := func(a, b *Target) int { return a.Index - b.Index }
	g.order = make([]*Target, 0, len(targets))
	for len(ready) > 0 {
		t := ready[0]
		ready = ready[1:]
		g.position[t.Name] = len(g.order)
		g.order = append(g.order, t)

		for _, dependent := range g.dependents[t.Name] {
			inDegree[dependent.Name]--
			if inDegree[dependent.Name] == 0 {
				i, _ := slices.BinarySearchFunc(ready, dependent, byIndex)
				ready = slices.Insert(ready, i, dependent)
			}
		}
	}
}

// group assigns each target to the ready set of its depth.
func (g *Graph) group() {
	depth := make(map[InternedString]int, len(g.order))
	for _, t := range g.order {
		level := 0
		for _, d := range g.deps[t.Name] {
			level = max(level, depth[d.Name]+1)
		}
		depth[t.Name] = level
		for len(g.groups) <= level {
			g.groups = append(g.groups, nil)
		}
		g.groups[level] = append(g.groups[level], t)
	}
}

// TopologicalOrder returns every target after all of its dependencies.
// The order is deterministic: ties are broken by declaration index.
func (g *Graph) TopologicalOrder() []*Target {
	return g.order
}

// IndependentGroups returns successive ready sets. Targets within a group do not depend
// on each other and every dependency lives in an earlier group.
func (g *Graph) IndependentGroups() [][]*Target {
	return g.groups
}

// Target returns the target with the given name.
func (g *Graph) Target(name InternedString) (*Target, bool) {
	t, ok := g.targets[name]
	return t, ok
}

// Dependencies returns the direct dependencies of a target, deduplicated, in declaration order.
func (g *Graph) Dependencies(name InternedString) []*Target {
	return g.deps[name]
}

// Dependents returns the targets that depend directly on name.
func (g *Graph) Dependents(name InternedString) []*Target {
	return g.dependents[name]
}

// Position returns the topological position of a target.
func (g *Graph) Position(name InternedString) int {
	return g.position[name]
}

// Len returns the number of targets.
func (g *Graph) Len() int {
	return len(g.order)
}

// Closure returns the named targets plus all of their transitive dependencies.
// No names selects every target.
func (g *Graph) Closure(names []string) (map[InternedString]bool, error) {
	selected := make(map[InternedString]bool, len(g.order))
	if len(names) == 0 {
		for _, t := range g.order {
			selected[t.Name] = true
		}
		return selected, nil
	}

	var stack []*Target
	for _, n := range names {
		t, ok := g.targets[NewInternedString(n)]
		if !ok {
			return nil, zerr.With(ErrTargetNotFound, "target", n)
		}
		stack = append(stack, t)
	}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if selected[t.Name] {
			continue
		}
		selected[t.Name] = true
		stack = append(stack, g.deps[t.Name]...)
	}
	return selected, nil
}
