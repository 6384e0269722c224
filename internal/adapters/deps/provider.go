// Package deps locates external dependencies that are already present on disk.
package deps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	anvilfs "go.trai.ch/anvil/internal/adapters/fs"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.DependencyProvider = (*Provider)(nil)

// revisionFunc returns the checked out revision of a git work tree.
type revisionFunc func(ctx context.Context, dir string) (string, error)

// Provider implements ports.DependencyProvider for directories on the local file system.
type Provider struct {
	walker   *anvilfs.Walker
	revision revisionFunc
}

// NewProvider creates a Provider that reads git revisions with the git executable.
func NewProvider(walker *anvilfs.Walker) *Provider {
	return &Provider{walker: walker, revision: gitRevision}
}

// Resolve locates every declared dependency concurrently.
// The first missing dependency cancels the remaining work.
func (p *Provider) Resolve(ctx context.Context, root string, decls []domain.DependencyDecl) ([]domain.ResolvedDependency, error) {
	resolved := make([]domain.ResolvedDependency, len(decls))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, decl := range decls {
		g.Go(func() error {
			path := externalPath(root, decl)
			info, err := os.Stat(path)
			if err != nil || !info.IsDir() {
				err := zerr.With(zerr.With(domain.ErrDependencyUnavailable, "dependency", decl.Name), "path", path)
				if decl.Repository != "" {
					err = zerr.With(err, "repository", decl.Repository)
				}
				return err
			}

			rev, err := p.revisionOf(groupCtx, path)
			if err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrDependencyUnavailable.Error()), "dependency", decl.Name)
			}
			resolved[i] = domain.ResolvedDependency{Name: decl.Name, Path: path, Revision: rev}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}

func externalPath(root string, decl domain.DependencyDecl) string {
	p := domain.Project{Root: root}
	return p.ExternalPath(decl)
}

// revisionOf prefers the git revision of a checkout and falls back to a digest of the tree.
func (p *Provider) revisionOf(ctx context.Context, dir string) (string, error) {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		if rev, err := p.revision(ctx, dir); err == nil && rev != "" {
			return rev, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.treeDigest(dir)
}

// treeDigest hashes relative paths and contents of every file below dir.
func (p *Provider) treeDigest(dir string) (string, error) {
	files := slices.Collect(p.walker.WalkFiles(dir, nil, domain.PathSet{}))
	slices.Sort(files)

	h := xxhash.New()
	for _, file := range files {
		rel, err := filepath.Rel(dir, file)
		if err != nil {
			return "", err
		}
		_, _ = h.WriteString(filepath.ToSlash(rel))
		_, _ = h.Write([]byte{0})
		if err := copyFile(h, file); err != nil {
			return "", zerr.With(zerr.Wrap(err, "failed to digest dependency tree"), "file", file)
		}
	}
	return fmt.Sprintf("tree:%016x", h.Sum64()), nil
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path) //nolint:gosec // path comes from walking a declared dependency
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = io.Copy(w, f)
	return err
}

func gitRevision(ctx context.Context, dir string) (string, error) {
	out, err := exec.CommandContext(ctx, "git", "-C", dir, "rev-parse", "HEAD").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
