package toolchain

import (
	"path/filepath"
	"strings"

	"go.trai.ch/anvil/internal/core/ports"
)

// HintsFromEnv builds search hints from an environment and the project's extra toolchain paths.
// CC and CXX name explicit compilers; EMSDK and ONEAPI_ROOT add the usual install layouts.
func HintsFromEnv(env, paths []string) ports.SearchHints {
	lookup := make(map[string]string, len(env))
	for _, e := range env {
		if k, v, ok := strings.Cut(e, "="); ok {
			lookup[k] = v
		}
	}

	hints := ports.SearchHints{
		Paths: append([]string{}, paths...),
		CC:    lookup["CC"],
		CXX:   lookup["CXX"],
		Env:   env,
	}
	if emsdk := lookup["EMSDK"]; emsdk != "" {
		hints.Paths = append(hints.Paths, filepath.Join(emsdk, "upstream", "emscripten"))
	}
	if oneapi := lookup["ONEAPI_ROOT"]; oneapi != "" {
		hints.Paths = append(hints.Paths, filepath.Join(oneapi, "compiler", "latest", "bin"))
	}
	return hints
}

// WithoutCompilers drops the explicit CC and CXX hints. They describe a single toolchain
// and only apply to the kind the project selects by default.
func WithoutCompilers(hints ports.SearchHints) ports.SearchHints {
	hints.CC = ""
	hints.CXX = ""
	return hints
}
