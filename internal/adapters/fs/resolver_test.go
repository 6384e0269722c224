package fs_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/anvil/internal/adapters/fs"
	"go.trai.ch/anvil/internal/core/domain"
)

func TestResolver_ResolveInputs(t *testing.T) {
	root := t.TempDir()
	mustCreateDir(t, root, "src")
	mustCreateDir(t, root, "include")
	mustCreateFile(t, root, "src/main.cpp")
	mustCreateFile(t, root, "src/util.cpp")
	mustCreateFile(t, root, "src/util.h")
	mustCreateFile(t, root, "include/api.h")

	abs := func(rel string) string { return filepath.Join(root, rel) }

	tests := []struct {
		name   string
		inputs []string
		want   []string
	}{
		{
			name:   "literal file",
			inputs: []string{"src/main.cpp"},
			want:   []string{abs("src/main.cpp")},
		},
		{
			name:   "glob is sorted",
			inputs: []string{"src/*.cpp"},
			want:   []string{abs("src/main.cpp"), abs("src/util.cpp")},
		},
		{
			name:   "overlapping patterns are de-duplicated",
			inputs: []string{"src/util.*", "src/*.cpp"},
			want:   []string{abs("src/main.cpp"), abs("src/util.cpp"), abs("src/util.h")},
		},
		{
			name:   "directory is returned as is",
			inputs: []string{"include"},
			want:   []string{abs("include")},
		},
		{
			name:   "absolute pattern",
			inputs: []string{abs("include/*.h")},
			want:   []string{abs("include/api.h")},
		},
		{
			name:   "no inputs",
			inputs: nil,
			want:   []string{},
		},
	}

	r := fs.NewResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveInputs(tt.inputs, root)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_Errors(t *testing.T) {
	root := t.TempDir()
	mustCreateFile(t, root, "main.c")
	r := fs.NewResolver()

	t.Run("missing file", func(t *testing.T) {
		_, err := r.ResolveInputs([]string{"main.c", "missing.c"}, root)
		require.Error(t, err)
		assert.Contains(t, err.Error(), domain.ErrInputNotFound.Error())
	})

	t.Run("glob without matches", func(t *testing.T) {
		_, err := r.ResolveInputs([]string{"*.cpp"}, root)
		require.Error(t, err)
		assert.Contains(t, err.Error(), domain.ErrInputNotFound.Error())
	})

	t.Run("malformed pattern", func(t *testing.T) {
		_, err := r.ResolveInputs([]string{"src/[.c"}, root)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to glob path")
	})
}
