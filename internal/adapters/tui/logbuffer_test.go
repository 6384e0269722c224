package tui_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/anvil/internal/adapters/tui"
)

func TestLogBuffer_Lines(t *testing.T) {
	b := tui.NewLogBuffer(0)
	_, _ = b.Write([]byte("compiling a.c\ncompiling "))
	_, _ = b.Write([]byte("b.c\nlinking"))

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []string{"compiling b.c", "linking"}, b.Tail(2))
	assert.Equal(t, "compiling a.c\ncompiling b.c\nlinking", b.String())
}

func TestLogBuffer_CarriageReturn(t *testing.T) {
	b := tui.NewLogBuffer(0)
	_, _ = b.Write([]byte("10%\r50%\r100%\ndone\n"))

	assert.Equal(t, []string{"100%", "done"}, b.Tail(10))
}

func TestLogBuffer_Bounded(t *testing.T) {
	b := tui.NewLogBuffer(3)
	for i := range 10 {
		_, _ = fmt.Fprintf(b, "line %d\n", i)
	}

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []string{"line 7", "line 8", "line 9"}, b.Tail(-1))
}

func TestLogBuffer_TailDoesNotAlias(t *testing.T) {
	b := tui.NewLogBuffer(0)
	_, _ = b.Write([]byte("one\ntwo\npartial"))

	tail := b.Tail(-1)
	tail[0] = "changed"
	_, _ = b.Write([]byte("\nthree\n"))

	assert.Equal(t, []string{"one", "two", "partial", "three"}, b.Tail(-1))
}
