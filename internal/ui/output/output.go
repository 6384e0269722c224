// Package output builds termenv outputs whose colour profile honours NO_COLOR,
// FORCE_COLOR and dumb terminals.
package output

import (
	"io"
	"os"

	"github.com/muesli/termenv"
)

// Profile resolves the colour profile from the environment. NO_COLOR and TERM=dumb turn
// colours off; FORCE_COLOR or CLICOLOR_FORCE guarantee at least ANSI colours. Otherwise
// fallback is used.
func Profile(getenv func(string) string, fallback termenv.Profile) termenv.Profile {
	if getenv("NO_COLOR") != "" || getenv("TERM") == "dumb" {
		return termenv.Ascii
	}
	if forced(getenv("FORCE_COLOR")) || forced(getenv("CLICOLOR_FORCE")) {
		// Lower profile values carry more colours.
		return min(fallback, termenv.ANSI)
	}
	return fallback
}

func forced(value string) bool {
	return value != "" && value != "0" && value != "false"
}

// ColorProfile returns the profile for the interactive renderer, detected from the terminal.
func ColorProfile() termenv.Profile {
	return Profile(os.Getenv, termenv.EnvColorProfile())
}

// ColorProfileANSI returns the profile for line-oriented output. It uses plain ANSI colours,
// which CI log viewers render even when the output is not a terminal.
func ColorProfileANSI() termenv.Profile {
	return Profile(os.Getenv, termenv.ANSI)
}

// New creates an output on w using ColorProfile. A nil writer means stderr.
func New(w io.Writer, opts ...termenv.OutputOption) *termenv.Output {
	return NewWithProfile(w, ColorProfile, opts...)
}

// NewWithProfile creates an output on w whose profile is chosen by profileFn.
// A nil writer means stderr.
func NewWithProfile(w io.Writer, profileFn func() termenv.Profile, opts ...termenv.OutputOption) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}

	opts = append(opts,
		termenv.WithProfile(profileFn()),
		termenv.WithTTY(true),
	)

	return termenv.NewOutput(w, opts...)
}
