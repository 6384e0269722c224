package action

import (
	"path/filepath"
	"strings"

	"go.trai.ch/anvil/internal/core/domain"
)

// interpreters maps script extensions to the command line that runs them.
var interpreters = map[string][]string{
	".sh":   {"sh"},
	".bash": {"bash"},
	".py":   {"python3"},
	".rb":   {"ruby"},
	".pl":   {"perl"},
	".js":   {"node"},
	".mjs":  {"node"},
	".lua":  {"lua"},
	".ps1":  {"pwsh", "-NoProfile", "-File"},
	".bat":  {"cmd", "/c"},
	".cmd":  {"cmd", "/c"},
	".tcl":  {"tclsh", "-encoding", "utf-8"},
	".awk":  {"awk", "-f"},
}

// Interpreter returns the command prefix that runs a script file, or nil when the
// file is executed directly.
func Interpreter(file string) []string {
	return interpreters[strings.ToLower(filepath.Ext(file))]
}

func (p *Planner) planScript(t *domain.Target) (Plan, error) {
	s := t.Script

	var args []string
	if len(s.Command) > 0 {
		args = append(args, s.Command...)
	} else {
		file := p.abs(s.File)
		args = append(args, Interpreter(file)...)
		args = append(args, file)
	}
	args = append(args, s.Args...)

	dir := s.WorkingDir
	if dir == "" {
		dir = p.Root
	}

	env := envList(s.Env)
	env = append(env,
		"ANVIL_TARGET="+t.Name.String(),
		"ANVIL_CONFIGURATION="+string(p.Configuration),
		"ANVIL_BUILD_DIR="+p.BuildDir,
	)

	plan := Plan{Commands: []domain.Command{{Args: args, Dir: dir, Env: env}}}
	if out := p.Output(t); out != "" {
		plan.Outputs = []string{out}
		plan.Dirs = []string{filepath.Dir(out)}
	}
	return plan, nil
}
