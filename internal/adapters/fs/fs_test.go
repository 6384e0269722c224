package fs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/anvil/internal/adapters/fs"
	"go.trai.ch/anvil/internal/core/domain"
)

func mustCreateDir(t *testing.T, root, rel string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, rel), domain.DirPerm))
}

func mustCreateFile(t *testing.T, root, rel string) {
	t.Helper()
	mustWriteFile(t, root, rel, rel)
}

func mustWriteFile(t *testing.T, root, rel, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, rel), []byte(content), domain.PrivateFilePerm))
}

func projectTarget(sources ...string) *domain.Target {
	return &domain.Target{
		Name: domain.NewInternedString("app"),
		Kind: domain.TargetProject,
		Project: &domain.ProjectSpec{
			Type:    domain.ProjectExecutable,
			Sources: sources,
		},
	}
}

func newFingerprinter() *fs.Fingerprinter {
	return fs.NewFingerprinter(fs.NewWalker(), fs.NewResolver())
}

func TestFingerprinter_Timestamp(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, root, "main.cpp", "int main() { return 0; }")
	mustWriteFile(t, root, "util.cpp", "int util() { return 1; }")

	f := newFingerprinter()
	target := projectTarget("*.cpp")

	first, err := f.Fingerprint(root, target, domain.FingerprintTimestamp, nil, domain.PathSet{})
	require.NoError(t, err)
	assert.NotEmpty(t, first.Digest)
	assert.Equal(t, int64(48), first.Size)

	t.Run("stable", func(t *testing.T) {
		again, err := f.Fingerprint(root, target, domain.FingerprintTimestamp, nil, domain.PathSet{})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	})

	t.Run("sub-second touches are invisible", func(t *testing.T) {
		path := filepath.Join(root, "main.cpp")
		info, err := os.Stat(path)
		require.NoError(t, err)
		base := info.ModTime().Truncate(time.Second)
		require.NoError(t, os.Chtimes(path, base, base.Add(300*time.Millisecond)))

		again, err := f.Fingerprint(root, target, domain.FingerprintTimestamp, nil, domain.PathSet{})
		require.NoError(t, err)
		assert.Equal(t, first.Digest, again.Digest)
	})

	t.Run("mtime change", func(t *testing.T) {
		future := time.Now().Add(time.Hour)
		require.NoError(t, os.Chtimes(filepath.Join(root, "util.cpp"), future, future))

		again, err := f.Fingerprint(root, target, domain.FingerprintTimestamp, nil, domain.PathSet{})
		require.NoError(t, err)
		assert.NotEqual(t, first.Digest, again.Digest)
		assert.Equal(t, future.Unix(), again.LastWrite)
	})
}

func TestFingerprinter_Content(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, root, "main.c", "int main(void) { return 0; }")

	f := newFingerprinter()
	target := projectTarget("main.c")

	first, err := f.Fingerprint(root, target, domain.FingerprintContent, nil, domain.PathSet{})
	require.NoError(t, err)

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "main.c"), future, future))
	touched, err := f.Fingerprint(root, target, domain.FingerprintContent, nil, domain.PathSet{})
	require.NoError(t, err)
	assert.True(t, first.Equal(touched), "content mode ignores timestamps")

	mustWriteFile(t, root, "main.c", "int main(void) { return 1; }")
	changed, err := f.Fingerprint(root, target, domain.FingerprintContent, nil, domain.PathSet{})
	require.NoError(t, err)
	assert.NotEqual(t, first.Digest, changed.Digest)
}

func TestFingerprinter_OrderAndSalt(t *testing.T) {
	root := t.TempDir()
	mustCreateFile(t, root, "a.cpp")
	mustCreateFile(t, root, "b.cpp")

	f := newFingerprinter()

	ab, err := f.Fingerprint(root, projectTarget("a.cpp", "b.cpp"), domain.FingerprintTimestamp, []string{"gcc-13"}, domain.PathSet{})
	require.NoError(t, err)
	ba, err := f.Fingerprint(root, projectTarget("b.cpp", "a.cpp"), domain.FingerprintTimestamp, []string{"gcc-13"}, domain.PathSet{})
	require.NoError(t, err)
	assert.Equal(t, ab.Digest, ba.Digest, "declaration order must not matter")

	clang, err := f.Fingerprint(root, projectTarget("a.cpp", "b.cpp"), domain.FingerprintTimestamp, []string{"clang-17"}, domain.PathSet{})
	require.NoError(t, err)
	assert.NotEqual(t, ab.Digest, clang.Digest, "salt must change the digest")
}

func TestFingerprinter_Directories(t *testing.T) {
	root := t.TempDir()
	mustCreateDir(t, root, "include/lib")
	mustCreateFile(t, root, "include/lib/lib.h")
	mustCreateFile(t, root, "main.cpp")

	f := newFingerprinter()
	target := projectTarget("main.cpp")
	target.Project.IncludeDirs = []string{"include"}

	first, err := f.Fingerprint(root, target, domain.FingerprintContent, nil, domain.PathSet{})
	require.NoError(t, err)

	mustWriteFile(t, root, "include/lib/lib.h", "#pragma once\nint lib();")
	second, err := f.Fingerprint(root, target, domain.FingerprintContent, nil, domain.PathSet{})
	require.NoError(t, err)
	assert.NotEqual(t, first.Digest, second.Digest, "header edits must be detected")
}

func TestFingerprinter_MissingInput(t *testing.T) {
	root := t.TempDir()

	_, err := newFingerprinter().Fingerprint(root, projectTarget("missing.cpp"), domain.FingerprintTimestamp, nil, domain.PathSet{})
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrFingerprintFailed.Error())
}

func TestFingerprinter_NoInputs(t *testing.T) {
	target := &domain.Target{
		Name:   domain.NewInternedString("stamp"),
		Kind:   domain.TargetScript,
		Script: &domain.ScriptSpec{Command: []string{"date"}},
	}

	a, err := newFingerprinter().Fingerprint(t.TempDir(), target, domain.FingerprintTimestamp, []string{"x"}, domain.PathSet{})
	require.NoError(t, err)
	b, err := newFingerprinter().Fingerprint(t.TempDir(), target, domain.FingerprintTimestamp, []string{"x"}, domain.PathSet{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFingerprinter_ExcludesGeneratedPaths(t *testing.T) {
	root := t.TempDir()
	mustCreateDir(t, root, "build/release")
	mustWriteFile(t, root, "main.c", "int main(void) { return 0; }")
	mustWriteFile(t, root, "api.h", "#pragma once")

	f := newFingerprinter()
	target := projectTarget("main.c")
	target.Project.IncludeDirs = []string{"."}
	exclude := domain.NewPathSet(filepath.Join(root, "build"))

	first, err := f.Fingerprint(root, target, domain.FingerprintTimestamp, nil, exclude)
	require.NoError(t, err)

	mustWriteFile(t, root, "build/release/app", "artifact")
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "build", "release", "app"), later, later))

	second, err := f.Fingerprint(root, target, domain.FingerprintTimestamp, nil, exclude)
	require.NoError(t, err)
	assert.Equal(t, first, second, "files the build writes must not feed back into its inputs")

	unexcluded, err := f.Fingerprint(root, target, domain.FingerprintTimestamp, nil, domain.PathSet{})
	require.NoError(t, err)
	assert.NotEqual(t, first.Digest, unexcluded.Digest)
}

func TestFingerprinter_FingerprintFiles(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, root, "a.c", "int a;")
	mustWriteFile(t, root, "a.h", "extern int a;")

	f := newFingerprinter()
	first, err := f.FingerprintFiles(root, []string{"a.c", filepath.Join(root, "a.h"), "a.c"}, domain.FingerprintContent, []string{"-O2"})
	require.NoError(t, err)
	assert.Equal(t, int64(19), first.Size)

	reordered, err := f.FingerprintFiles(root, []string{"a.h", "a.c"}, domain.FingerprintContent, []string{"-O2"})
	require.NoError(t, err)
	assert.Equal(t, first, reordered)

	mustWriteFile(t, root, "a.h", "extern long a;")
	changed, err := f.FingerprintFiles(root, []string{"a.c", "a.h"}, domain.FingerprintContent, []string{"-O2"})
	require.NoError(t, err)
	assert.NotEqual(t, first.Digest, changed.Digest)

	_, err = f.FingerprintFiles(root, []string{"gone.h"}, domain.FingerprintContent, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrFingerprintFailed.Error())
}
