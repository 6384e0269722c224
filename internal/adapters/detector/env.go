// Package detector chooses how build progress is rendered.
package detector

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// OutputMode represents the rendering mode for the application.
type OutputMode int

const (
	// ModeAuto picks a mode from the environment.
	ModeAuto OutputMode = iota
	// ModeTUI is the interactive full-screen renderer.
	ModeTUI
	// ModeLinear prints one line per event, suitable for logs and CI.
	ModeLinear
)

func (m OutputMode) String() string {
	switch m {
	case ModeTUI:
		return "tui"
	case ModeLinear:
		return "linear"
	default:
		return "auto"
	}
}

// Environment is what mode detection looks at.
type Environment struct {
	Getenv func(string) string
	// Interactive reports whether both the keyboard and the progress stream are terminals.
	Interactive bool
}

// CurrentEnvironment describes the running process. The interactive renderer draws on stderr
// and reads keys from stdin.
func CurrentEnvironment() Environment {
	return Environment{
		Getenv:      os.Getenv,
		Interactive: term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd())),
	}
}

// Detect returns ModeLinear for non-interactive sessions, CI runners and dumb terminals,
// and ModeTUI otherwise.
func Detect(env Environment) OutputMode {
	if !env.Interactive || isCI(env.Getenv("CI")) || env.Getenv("TERM") == "dumb" {
		return ModeLinear
	}
	return ModeTUI
}

// DetectEnvironment detects the mode for the running process.
func DetectEnvironment() OutputMode {
	return Detect(CurrentEnvironment())
}

func isCI(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "no":
		return false
	}
	return true
}

// ResolveMode applies the --output-mode flag to the detected mode.
// "ci" is an alias of "linear"; "auto", empty and unknown values keep the detected mode.
func ResolveMode(detected OutputMode, flag string) OutputMode {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "tui":
		return ModeTUI
	case "linear", "ci":
		return ModeLinear
	}
	return detected
}
