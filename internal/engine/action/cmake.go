package action

import (
	"maps"
	"path/filepath"
	"slices"

	"go.trai.ch/anvil/internal/core/domain"
)

// CMakeBuildDir returns the binary directory of a CMake target.
func (p *Planner) CMakeBuildDir(t *domain.Target) string {
	if t.CMake.BuildDir != "" {
		return p.abs(t.CMake.BuildDir)
	}
	return filepath.Join(p.ConfigDir(), "cmake", t.Name.String())
}

func (p *Planner) planCMake(t *domain.Target) (Plan, error) {
	c := t.CMake
	buildDir := p.CMakeBuildDir(t)
	buildType := p.Configuration.CMakeBuildType()

	configure := []string{"cmake", "-S", p.abs(c.Location), "-B", buildDir}
	if c.Generator != "" {
		configure = append(configure, "-G", c.Generator)
	}
	configure = append(configure, "-DCMAKE_BUILD_TYPE="+buildType)
	if tc := p.toolchain(t); tc != nil {
		configure = append(configure, "-DCMAKE_C_COMPILER="+tc.CC, "-DCMAKE_CXX_COMPILER="+tc.CXX)
	}
	for _, k := range slices.Sorted(maps.Keys(c.Defines)) {
		configure = append(configure, "-D"+k+"="+c.Defines[k])
	}

	build := []string{"cmake", "--build", buildDir, "--config", buildType}
	for _, target := range c.Targets {
		build = append(build, "--target", target)
	}

	plan := Plan{
		Commands: []domain.Command{
			{Args: configure, Dir: p.Root},
			{Args: build, Dir: p.Root},
		},
		Dirs: []string{buildDir},
	}
	if out := p.Output(t); out != "" {
		plan.Outputs = []string{out}
	}
	return plan, nil
}
