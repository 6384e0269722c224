package output_test

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/anvil/internal/ui/output"
)

func TestProfile(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		fallback termenv.Profile
		want     termenv.Profile
	}{
		{name: "fallback", fallback: termenv.TrueColor, want: termenv.TrueColor},
		{name: "NO_COLOR", env: map[string]string{"NO_COLOR": "1"}, fallback: termenv.TrueColor, want: termenv.Ascii},
		{name: "dumb terminal", env: map[string]string{"TERM": "dumb"}, fallback: termenv.ANSI, want: termenv.Ascii},
		{name: "FORCE_COLOR raises Ascii", env: map[string]string{"FORCE_COLOR": "1"}, fallback: termenv.Ascii, want: termenv.ANSI},
		{name: "FORCE_COLOR keeps richer profile", env: map[string]string{"FORCE_COLOR": "1"}, fallback: termenv.ANSI256, want: termenv.ANSI256},
		{name: "CLICOLOR_FORCE", env: map[string]string{"CLICOLOR_FORCE": "1"}, fallback: termenv.Ascii, want: termenv.ANSI},
		{name: "FORCE_COLOR=0", env: map[string]string{"FORCE_COLOR": "0"}, fallback: termenv.Ascii, want: termenv.Ascii},
		{name: "NO_COLOR wins", env: map[string]string{"NO_COLOR": "1", "FORCE_COLOR": "1"}, fallback: termenv.ANSI, want: termenv.Ascii},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(key string) string { return tt.env[key] }
			assert.Equal(t, tt.want, output.Profile(getenv, tt.fallback))
		})
	}
}

func TestColorProfileANSI(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("TERM", "xterm")
	assert.Equal(t, termenv.ANSI, output.ColorProfileANSI())

	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, termenv.Ascii, output.ColorProfileANSI())
	assert.Equal(t, termenv.Ascii, output.ColorProfile())
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	out := output.NewWithProfile(&buf, output.ColorProfileANSI)

	_, _ = out.WriteString("test")
	assert.Equal(t, "test", buf.String())
	assert.NotNil(t, output.New(nil), "nil writer defaults to stderr")
}
