// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"
	"time"

	"go.trai.ch/anvil/internal/core/domain"
)

// ExecResult is the structured outcome of one process.
type ExecResult struct {
	ExitCode int
	// Output is the tail of the combined output, bounded in size.
	Output   []byte
	Duration time.Duration
}

// Executor runs external processes.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Run executes cmd, streaming its combined output to out.
	// A non-zero exit returns domain.ErrTargetExecutionFailed along with the result.
	// Cancelling ctx kills the process and returns ctx.Err().
	Run(ctx context.Context, cmd domain.Command, out io.Writer) (ExecResult, error)
}
