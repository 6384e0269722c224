// Package linear provides a line-oriented renderer for CI and other non-interactive output.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/anvil/internal/ui/output"
	"go.trai.ch/anvil/internal/ui/style"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer prints target lifecycle events to stderr and prefixed process output to stdout,
// in the order they happen.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output

	mu      sync.Mutex
	targets map[string]*targetState // spanID -> state
}

type targetState struct {
	name      string
	startTime time.Time
	partial   bytes.Buffer
}

// NewRenderer creates a Renderer. Nil writers default to the process streams.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Renderer{
		stdout:  stdout,
		stderr:  stderr,
		output:  output.NewWithProfile(stderr, output.ColorProfileANSI),
		targets: make(map[string]*targetState),
	}
}

// Start is a no-op; the renderer writes synchronously.
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop prints any partial lines still buffered.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, st := range r.targets {
		r.flushLocked(st)
	}
	return nil
}

// Wait is a no-op; the renderer writes synchronously.
func (r *Renderer) Wait() error {
	return nil
}

// OnPlanEmit prints how many targets were selected.
func (r *Renderer) OnPlanEmit(targets []string, _ map[string][]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.stderr, "Planning %d target(s)\n", len(targets))
}

// OnTargetStart records the target. Nothing is printed until the target produces
// output or finishes, so up-to-date targets stay on a single line.
func (r *Renderer) OnTargetStart(spanID, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.targets[spanID] = &targetState{name: name, startTime: startTime}
}

// OnTargetLog prints complete lines prefixed with the target name and keeps the rest buffered.
func (r *Renderer) OnTargetLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.targets[spanID]
	if !ok {
		return
	}

	st.partial.Write(data)
	for {
		line, err := st.partial.ReadBytes('\n')
		if err != nil {
			// ReadBytes consumed the incomplete tail; put it back.
			st.partial.Write(line)
			return
		}
		r.printLineLocked(st.name, line)
	}
}

// OnTargetComplete prints the result line of a target.
func (r *Renderer) OnTargetComplete(spanID string, endTime time.Time, err error, skipped bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.targets[spanID]
	if !ok {
		return
	}
	r.flushLocked(st)
	delete(r.targets, spanID)

	prefix := r.output.String(fmt.Sprintf("[%s]", st.name)).Faint().String()
	duration := endTime.Sub(st.startTime).Round(time.Millisecond)

	switch {
	case err != nil:
		symbol := r.output.String(style.Cross).Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %v\n", prefix, symbol, duration, err)
	case skipped:
		symbol := r.output.String(style.Tilde).Foreground(termenv.ANSIBrightBlack).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Up to date\n", prefix, symbol)
	default:
		symbol := r.output.String(style.Check).Foreground(termenv.ANSIGreen).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Built in %v\n", prefix, symbol, duration)
	}
}

// flushLocked prints the buffered partial line of st. Must be called with r.mu held.
func (r *Renderer) flushLocked(st *targetState) {
	if st.partial.Len() > 0 {
		r.printLineLocked(st.name, st.partial.Bytes())
		st.partial.Reset()
	}
}

// printLineLocked must be called with r.mu held.
func (r *Renderer) printLineLocked(name string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}
	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", name, line)
}
