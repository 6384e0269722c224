package tui_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/anvil/internal/adapters/tui"
	"go.trai.ch/anvil/internal/core/domain"
)

func newRenderer(model *tui.Model) *tui.Renderer {
	return tui.NewRenderer(model,
		tea.WithInput(strings.NewReader("")),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
		tea.WithoutRenderer(),
	)
}

func TestRenderer_Lifecycle(t *testing.T) {
	model := tui.NewModel(io.Discard)
	r := newRenderer(&model)

	require.NoError(t, r.Start(context.Background()))

	now := time.Now()
	r.OnPlanEmit([]string{"lib", "app"}, map[string][]string{"app": {"lib"}})
	r.OnTargetStart("s1", "lib", now)
	r.OnTargetLog("s1", []byte("ar rcs liblib.a\n"))
	r.OnTargetComplete("s1", now.Add(time.Second), nil, false)
	r.OnTargetStart("s2", "app", now)
	r.OnTargetComplete("s2", now, errors.New("link failed"), false)

	require.NoError(t, r.Stop())
	require.NoError(t, r.Wait())

	assert.Equal(t, tui.StatusBuilt, model.TargetMap["lib"].Status)
	assert.Equal(t, "ar rcs liblib.a", model.TargetMap["lib"].Logs.String())
	assert.Equal(t, tui.StatusFailed, model.TargetMap["app"].Status)
}

func TestRenderer_InterruptCancelsBuild(t *testing.T) {
	model := tui.NewModel(io.Discard)
	r := tui.NewRenderer(&model,
		tea.WithInput(strings.NewReader("q")),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
		tea.WithoutRenderer(),
	)

	require.NoError(t, r.Start(context.Background()))
	err := r.Wait()

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBuildCancelled)
}
