// Package main is the entry point for the anvil build orchestrator.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/anvil/cmd/anvil/commands"
	"go.trai.ch/anvil/internal/app"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	_ "go.trai.ch/anvil/internal/wiring"
)

const (
	exitFailure   = 1
	exitCancelled = 130
)

// ComponentProvider is a function that returns the application components.
type ComponentProvider func(context.Context) (*app.Components, func(), error)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr, func(ctx context.Context) (*app.Components, func(), error) {
		c, _, err := graft.ExecuteFor[*app.Components](ctx)
		return c, func() {}, err
	}))
}

func run(
	ctx context.Context,
	args []string,
	stderr io.Writer,
	provider ComponentProvider,
	opts ...func(*app.App),
) int {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	components, cleanup, err := provider(ctx)
	if err != nil {
		// The logger is not available when initialization failed.
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return exitFailure
	}
	defer cleanup()

	for _, opt := range opts {
		opt(components.App)
	}

	cli := commands.New(components.App)
	cli.SetArgs(args)
	cli.SetOutput(os.Stdout, stderr)

	if err := cli.Execute(ctx); err != nil {
		return exitCode(err, components.Logger)
	}
	return 0
}

// exitCode maps a command error to the process exit code. Build failures and cancellations
// were already reported by the build summary.
func exitCode(err error, logger ports.Logger) int {
	switch {
	case errors.Is(err, domain.ErrBuildCancelled):
		if other := withoutSentinel(err, domain.ErrBuildCancelled); other != nil {
			logger.Error(other)
		}
		return exitCancelled
	case errors.Is(err, domain.ErrBuildFailed):
		if other := withoutSentinel(err, domain.ErrBuildFailed); other != nil {
			logger.Error(other)
		}
		return exitFailure
	}
	logger.Error(err)
	return exitFailure
}

// withoutSentinel returns what is left of a joined error once sentinel is removed.
func withoutSentinel(err, sentinel error) error {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return nil
	}
	var rest []error
	for _, e := range joined.Unwrap() {
		if e != sentinel { //nolint:errorlint // Joined run results hold the bare sentinel
			rest = append(rest, e)
		}
	}
	return errors.Join(rest...)
}
