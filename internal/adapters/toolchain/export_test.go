package toolchain

import "context"

// RunFunc mirrors the compiler runner for tests.
type RunFunc = func(ctx context.Context, exe string, args, env []string) (string, error)

// NewResolverWithRunner creates a Resolver whose compiler queries go through run.
func NewResolverWithRunner(run RunFunc) *Resolver {
	return &Resolver{run: run}
}

// HostTriple exposes hostTriple for tests.
func HostTriple() string {
	return hostTriple()
}
