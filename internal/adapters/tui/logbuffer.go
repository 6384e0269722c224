package tui

import (
	"bytes"
	"strings"
)

// DefaultLogLines bounds how many lines of output are kept per target.
const DefaultLogLines = 1000

// LogBuffer keeps the most recent lines of a target's output.
// A carriage return rewinds the current line, so progress bars collapse into one line.
type LogBuffer struct {
	lines   []string
	current bytes.Buffer
	limit   int
}

// NewLogBuffer creates a LogBuffer holding at most limit complete lines.
func NewLogBuffer(limit int) *LogBuffer {
	if limit <= 0 {
		limit = DefaultLogLines
	}
	return &LogBuffer{limit: limit}
}

// Write appends output.
func (b *LogBuffer) Write(p []byte) (int, error) {
	for _, c := range p {
		switch c {
		case '\n':
			b.lines = append(b.lines, b.current.String())
			b.current.Reset()
			if over := len(b.lines) - b.limit; over > 0 {
				b.lines = b.lines[over:]
			}
		case '\r':
			b.current.Reset()
		default:
			b.current.WriteByte(c)
		}
	}
	return len(p), nil
}

// Len returns the number of lines, including a pending partial line.
func (b *LogBuffer) Len() int {
	if b.current.Len() > 0 {
		return len(b.lines) + 1
	}
	return len(b.lines)
}

// Tail returns the last n lines, or fewer if less output was written.
func (b *LogBuffer) Tail(n int) []string {
	all := b.lines
	if b.current.Len() > 0 {
		all = append(all[:len(all):len(all)], b.current.String())
	}
	if n >= 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all
}

// String returns all kept output.
func (b *LogBuffer) String() string {
	return strings.Join(b.Tail(-1), "\n")
}
