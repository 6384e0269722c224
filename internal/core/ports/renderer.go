package ports

import (
	"context"
	"time"
)

// Renderer is the abstraction for output rendering.
// The same event stream drives either the interactive view or linear CI logs.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer and begins its lifecycle.
	Start(ctx context.Context) error

	// Stop signals the renderer to stop accepting new events and flush buffered output.
	Stop() error

	// Wait blocks until the renderer has fully terminated.
	Wait() error

	// OnPlanEmit is called once the selected targets are known, in topological order.
	OnPlanEmit(targets []string, deps map[string][]string)

	// OnTargetStart is called when a target begins.
	OnTargetStart(spanID, name string, startTime time.Time)

	// OnTargetLog is called when a target emits output. data may hold partial lines.
	OnTargetLog(spanID string, data []byte)

	// OnTargetComplete is called when a target finishes.
	// skipped is true when the target was up to date and no command ran.
	OnTargetComplete(spanID string, endTime time.Time, err error, skipped bool)
}
