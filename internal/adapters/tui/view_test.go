package tui_test

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/anvil/internal/adapters/telemetry"
	"go.trai.ch/anvil/internal/adapters/tui"
)

func TestView_Initializing(t *testing.T) {
	m := tui.NewModel(io.Discard)
	assert.Equal(t, "Initializing...", m.View())
}

func TestView_Waiting(t *testing.T) {
	m := newModel(t, "gen", "app")

	view := m.View()
	assert.Contains(t, view, "TARGETS")
	assert.Contains(t, view, "○ gen")
	assert.Contains(t, view, "LOGS (Waiting...)")
}

func TestView_StatusAndLogs(t *testing.T) {
	m := newModel(t, "gen", "app")
	start := time.Unix(0, 0)

	m.Update(telemetry.MsgTargetStart{SpanID: "s1", Name: "gen", StartTime: start})
	m.Update(telemetry.MsgTargetComplete{SpanID: "s1", EndTime: start.Add(1500 * time.Millisecond)})
	m.Update(telemetry.MsgTargetStart{SpanID: "s2", Name: "app", StartTime: start})
	m.Update(telemetry.MsgTargetLog{SpanID: "s2", Data: []byte("main.c:3: error: expected ';'\n")})

	view := m.View()
	assert.Contains(t, view, "✓ gen 1.5s")
	assert.Contains(t, view, "● app")
	assert.Contains(t, view, "LOGS: app (Following)")
	assert.Contains(t, view, "expected ';'")

	m.Update(telemetry.MsgTargetComplete{SpanID: "s2", EndTime: start, Err: errors.New("exit status 1")})
	m.Update(key("k"))
	view = m.View()
	assert.Contains(t, view, "✗ app")
	assert.Contains(t, view, "LOGS: gen (Manual)")
}

func TestView_TruncatesLongLines(t *testing.T) {
	m := newModel(t, "app")
	m.Update(telemetry.MsgTargetStart{SpanID: "s1", Name: "app"})

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	m.Update(telemetry.MsgTargetLog{SpanID: "s1", Data: append(long, '\n')})

	assert.NotContains(t, m.View(), string(long))
}
