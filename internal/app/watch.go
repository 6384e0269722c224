package app

import (
	"context"
	"errors"
	"path/filepath"

	"go.trai.ch/anvil/internal/adapters/watcher"
	"go.trai.ch/anvil/internal/core/domain"
)

// Watch builds once and then again whenever files below the project root change, until ctx
// is cancelled. Failed builds are reported and do not end the loop. The interactive renderer
// is only used when asked for explicitly.
func (a *App) Watch(ctx context.Context, targets []string, opts BuildOptions) error {
	if opts.OutputMode == "" || opts.OutputMode == "auto" {
		opts.OutputMode = "linear"
	}

	project, err := a.loadProject(opts)
	if err != nil {
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := a.watcher.Start(watchCtx, project.Root); err != nil {
		return err
	}
	defer func() { _ = a.watcher.Stop() }()

	ignored := ignoredPaths(project)
	trigger := make(chan struct{}, 1)
	debouncer := watcher.NewDebouncer(watcher.DefaultDebounceWindow, func([]string) {
		select {
		case trigger <- struct{}{}:
		default:
		}
	})
	defer debouncer.Stop()

	go func() {
		for event := range a.watcher.Events() {
			if !ignored(event.Path) {
				debouncer.Add(event.Path)
			}
		}
	}()

	for {
		if err := a.Build(ctx, targets, opts); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !errors.Is(err, domain.ErrBuildFailed) {
				a.logger.Error(err)
			}
		}
		a.logger.Info("watching for changes in " + project.Root)

		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
		}
	}
}

// ignoredPaths matches what builds write: the build directory, explicit CMake binary
// directories and declared outputs.
func ignoredPaths(project *domain.Project) func(string) bool {
	abs := func(path string) string {
		if path == "" || filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(project.Root, path)
	}

	paths := []string{project.BuildDir}
	for _, t := range project.Targets {
		paths = append(paths, abs(t.Output))
		if t.Kind == domain.TargetCMake {
			paths = append(paths, abs(t.CMake.BuildDir))
		}
	}
	return domain.NewPathSet(paths...).Contains
}
