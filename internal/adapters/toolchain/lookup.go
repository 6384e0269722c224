package toolchain

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"go.trai.ch/anvil/internal/core/ports"
)

// searchDirs returns the directories searched for executables: explicit hint paths
// first, then PATH from the hinted environment or the process environment.
func searchDirs(hints ports.SearchHints) []string {
	dirs := append([]string{}, hints.Paths...)
	env := hints.Env
	if len(env) == 0 {
		env = os.Environ()
	}
	for _, e := range env {
		if v, ok := strings.CutPrefix(e, "PATH="); ok {
			for _, dir := range filepath.SplitList(v) {
				if dir == "" {
					// Unix shell semantics: path element "" means "."
					dir = "."
				}
				dirs = append(dirs, dir)
			}
			break
		}
	}
	return dirs
}

// locate returns the first executable among an explicit hint and the candidates.
// A hint that is a path is used as-is; a bare name is searched like a candidate.
func locate(hint string, candidates, dirs []string) (string, bool) {
	if hint != "" {
		if strings.ContainsRune(hint, filepath.Separator) || filepath.IsAbs(hint) {
			abs, err := filepath.Abs(hint)
			if err == nil && findExecutable(abs) == nil {
				return abs, true
			}
			return "", false
		}
		return lookPath(hint, dirs)
	}
	for _, name := range candidates {
		if p, ok := lookPath(name, dirs); ok {
			return p, true
		}
	}
	return "", false
}

// lookPath searches dirs for an executable named file.
func lookPath(file string, dirs []string) (string, bool) {
	names := []string{file}
	if runtime.GOOS == "windows" && filepath.Ext(file) == "" {
		names = append(names, file+".exe")
	}
	for _, dir := range dirs {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if findExecutable(path) == nil {
				if abs, err := filepath.Abs(path); err == nil {
					return abs, true
				}
				return path, true
			}
		}
	}
	return "", false
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && (runtime.GOOS == "windows" || m&0o111 != 0) {
		return nil
	}
	if d.IsDir() {
		return exec.ErrNotFound
	}
	return os.ErrPermission
}

// siblingsFirst puts the directory of compiler ahead of dirs, so that companion
// tools come from the same installation.
func siblingsFirst(compiler string, dirs []string) []string {
	return append([]string{filepath.Dir(compiler)}, dirs...)
}
