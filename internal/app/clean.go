package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/zerr"
)

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	// All also removes the machine-wide Global cache.
	All bool
}

// Clean removes the build directory, the Local cache and the last build report.
// External dependencies below the metadata directory are kept.
func (a *App) Clean(_ context.Context, options CleanOptions) error {
	project, err := a.loadProject(BuildOptions{})
	if err != nil {
		return err
	}

	var errs error
	remove := func(path, name string) {
		if _, err := os.Stat(path); err != nil {
			return
		}
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, fmt.Sprintf("failed to remove %s", name)), "path", path))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	remove(project.BuildDir, "build directory")
	remove(domain.LocalCachePath(project.Root), "local cache")
	remove(domain.ReportPath(project.Root), "build report")

	if options.All {
		remove(domain.GlobalCachePath(), "global cache")
	}

	return errs
}
