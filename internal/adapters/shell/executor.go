// Package shell runs target commands as external processes.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Executor = (*Executor)(nil)

// DefaultTailSize is how much trailing output an ExecResult keeps.
const DefaultTailSize = 64 * 1024

// Executor implements ports.Executor using os/exec, attaching a pseudo-terminal where the
// platform supports one so that compilers keep their coloured diagnostics.
type Executor struct {
	tailSize int
}

// Option configures an Executor.
type Option func(*Executor)

// WithTailSize sets how many trailing output bytes a result keeps. Non-positive sizes are ignored.
func WithTailSize(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.tailSize = n
		}
	}
}

// NewExecutor creates a new Executor.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{tailSize: DefaultTailSize}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes cmd and streams its combined output to out.
func (e *Executor) Run(ctx context.Context, cmd domain.Command, out io.Writer) (ports.ExecResult, error) {
	if len(cmd.Args) == 0 {
		return ports.ExecResult{ExitCode: -1}, zerr.With(domain.ErrTargetExecutionFailed, "reason", "empty command")
	}
	if out == nil {
		out = io.Discard
	}

	tail := &tailBuffer{limit: e.tailSize}
	w := io.MultiWriter(out, tail)

	c := e.command(ctx, cmd)
	started := time.Now()
	waitErr := start(ctx, c, w)
	result := ports.ExecResult{
		ExitCode: exitCode(c, waitErr),
		Output:   tail.Bytes(),
		Duration: time.Since(started),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}
	if waitErr != nil {
		err := zerr.With(zerr.Wrap(waitErr, domain.ErrTargetExecutionFailed.Error()), "exit_code", result.ExitCode)
		return result, zerr.With(err, "command", cmd.Args[0])
	}
	return result, nil
}

func (e *Executor) command(ctx context.Context, cmd domain.Command) *exec.Cmd {
	env := resolveEnvironment(os.Environ(), cmd.Env)

	name := cmd.Args[0]
	executable := name
	if !filepath.IsAbs(name) && !strings.ContainsRune(name, filepath.Separator) {
		if lp, err := lookPath(name, env); err == nil {
			executable = lp
		}
	}

	c := exec.CommandContext(ctx, executable, cmd.Args[1:]...) //nolint:gosec // commands come from the project file
	c.Args[0] = name
	c.Dir = cmd.Dir
	c.Env = env
	c.WaitDelay = time.Second
	return c
}

// start runs c to completion, preferring a pty and falling back to pipes.
func start(ctx context.Context, c *exec.Cmd, w io.Writer) error {
	ptmx, err := pty.Start(c)
	if errors.Is(err, pty.ErrUnsupported) {
		c.Stdout = w
		c.Stderr = w
		return c.Run()
	}
	if err != nil {
		return err
	}

	var copyDone sync.WaitGroup
	copyDone.Go(func() {
		// The copy ends with EIO once the child and all its descendants close the terminal.
		_, _ = io.Copy(w, ptmx)
	})

	err = c.Wait()
	if ctx.Err() != nil {
		// Descendants of a killed process may keep the terminal open.
		_ = ptmx.Close()
	}
	copyDone.Wait()
	_ = ptmx.Close()
	return err
}

func exitCode(c *exec.Cmd, err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if c.ProcessState != nil {
		return c.ProcessState.ExitCode()
	}
	return -1
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) Bytes() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.buf...)
}

// resolveEnvironment overlays the command's variables on the system environment.
// A PATH override is prepended to the system PATH so that tools keep resolving.
func resolveEnvironment(sysEnv, cmdEnv []string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(cmdEnv))
	order := make([]string, 0, len(sysEnv)+len(cmdEnv))
	set := func(k, v string) {
		if _, exists := envMap[k]; !exists {
			order = append(order, k)
		}
		envMap[k] = v
	}

	for _, entry := range sysEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			set(k, v)
		}
	}
	for _, entry := range cmdEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if k == "PATH" {
			if sysPath := envMap["PATH"]; sysPath != "" {
				v = v + string(os.PathListSeparator) + sysPath
			}
		}
		set(k, v)
	}

	result := make([]string, 0, len(order))
	for _, k := range order {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

// lookPath searches for an executable in the directories named by the PATH environment variable.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if v, ok := strings.CutPrefix(e, "PATH="); ok {
			path = v
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
