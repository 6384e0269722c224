package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/anvil/internal/adapters/telemetry"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer wraps the bubbletea model as a ports.Renderer.
type Renderer struct {
	program *tea.Program
	model   *Model
	errCh   chan error
}

// NewRenderer creates a new TUI renderer.
func NewRenderer(model *Model, opts ...tea.ProgramOption) *Renderer {
	return &Renderer{
		program: tea.NewProgram(model, opts...),
		model:   model,
		errCh:   make(chan error, 1),
	}
}

// Start launches the program in a background goroutine.
func (r *Renderer) Start(_ context.Context) error {
	go func() {
		_, err := r.program.Run()
		r.errCh <- err
	}()
	return nil
}

// Stop signals the program to quit.
func (r *Renderer) Stop() error {
	r.program.Quit()
	return nil
}

// Wait blocks until the program has terminated. A user interrupt is reported as
// domain.ErrBuildCancelled so that the build stops too.
func (r *Renderer) Wait() error {
	err := <-r.errCh
	if err == nil && r.model.Interrupted {
		return domain.ErrBuildCancelled
	}
	return err
}

// OnPlanEmit resets the target list.
func (r *Renderer) OnPlanEmit(targets []string, deps map[string][]string) {
	r.program.Send(telemetry.MsgInitTargets{Targets: targets, Dependencies: deps})
}

// OnTargetStart forwards target start events.
func (r *Renderer) OnTargetStart(spanID, name string, startTime time.Time) {
	r.program.Send(telemetry.MsgTargetStart{SpanID: spanID, Name: name, StartTime: startTime})
}

// OnTargetLog forwards process output.
func (r *Renderer) OnTargetLog(spanID string, data []byte) {
	r.program.Send(telemetry.MsgTargetLog{SpanID: spanID, Data: data})
}

// OnTargetComplete forwards target completion events.
func (r *Renderer) OnTargetComplete(spanID string, endTime time.Time, err error, skipped bool) {
	r.program.Send(telemetry.MsgTargetComplete{SpanID: spanID, EndTime: endTime, Err: err, Skipped: skipped})
}
