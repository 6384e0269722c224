package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/anvil/internal/core/domain"
)

func TestIgnoredPaths(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "work", "proj")
	project := &domain.Project{
		Root:     root,
		BuildDir: filepath.Join(root, "out"),
		Targets: []*domain.Target{
			{Name: domain.NewInternedString("gen"), Kind: domain.TargetScript, Output: "gen.h", Script: &domain.ScriptSpec{}},
			{Name: domain.NewInternedString("fmt"), Kind: domain.TargetCMake, CMake: &domain.CMakeSpec{Location: ".", BuildDir: "fmt-build"}},
			{Name: domain.NewInternedString("zlib"), Kind: domain.TargetCMake, CMake: &domain.CMakeSpec{Location: "zlib"}},
		},
	}
	ignored := ignoredPaths(project)

	assert.True(t, ignored(filepath.Join(root, "out", "release", "app")))
	assert.True(t, ignored(filepath.Join(root, "gen.h")))
	assert.True(t, ignored(filepath.Join(root, "fmt-build", "CMakeCache.txt")))
	assert.False(t, ignored(filepath.Join(root, "zlib", "zlib.c")))
	assert.False(t, ignored(filepath.Join(root, "outline.c")))
	assert.False(t, ignored(filepath.Join(root, "main.c")))
}
