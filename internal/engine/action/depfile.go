package action

import (
	"bytes"
	"io"
	"strings"
)

// ParseDepFile returns the prerequisites of the Make rules in data, in order of first
// appearance. Rule targets are dropped. Escaped spaces, "\#", "$$" and line continuations
// are understood the way gcc and clang write them.
func ParseDepFile(data []byte) []string {
	var (
		deps []string
		word strings.Builder
		// pending is the index of the last prerequisite read on the current line, -1 for none.
		pending = -1
	)
	seen := make(map[string]bool)

	flush := func() {
		if word.Len() == 0 {
			return
		}
		w := word.String()
		word.Reset()
		switch {
		case w == ":":
			// "target : prereq" with a spaced colon; the previous word was a target.
			if pending >= 0 {
				delete(seen, deps[pending])
				deps = append(deps[:pending], deps[pending+1:]...)
				pending = -1
			}
		case strings.HasSuffix(w, ":"):
		case !seen[w]:
			seen[w] = true
			deps = append(deps, w)
			pending = len(deps) - 1
		default:
			pending = -1
		}
	}

	for i := 0; i < len(data); i++ {
		c := data[i]
		next := byte(0)
		if i+1 < len(data) {
			next = data[i+1]
		}
		switch {
		case c == '\\' && (next == ' ' || next == '#'):
			word.WriteByte(next)
			i++
		case c == '\\' && next == '\n':
			flush()
			i++
		case c == '\\' && next == '\r' && i+2 < len(data) && data[i+2] == '\n':
			flush()
			i += 2
		case c == '$' && next == '$':
			word.WriteByte('$')
			i++
		case c == '\n':
			flush()
			pending = -1
		case c == ' ' || c == '\t' || c == '\r':
			flush()
		default:
			word.WriteByte(c)
		}
	}
	flush()
	return deps
}

// showIncludesPrefix starts every line cl and clang-cl print for /showIncludes.
const showIncludesPrefix = "Note: including file:"

// IncludeFilter collects the headers reported by /showIncludes and passes every other line
// of the compiler output on to out.
type IncludeFilter struct {
	out      io.Writer
	partial  []byte
	includes []string
	seen     map[string]bool
}

// NewIncludeFilter creates an IncludeFilter writing to out.
func NewIncludeFilter(out io.Writer) *IncludeFilter {
	return &IncludeFilter{out: out, seen: make(map[string]bool)}
}

// Write consumes complete lines of p and keeps a trailing partial line for the next call.
func (f *IncludeFilter) Write(p []byte) (int, error) {
	f.partial = append(f.partial, p...)
	for {
		i := bytes.IndexByte(f.partial, '\n')
		if i < 0 {
			break
		}
		line := f.partial[:i+1]
		if err := f.line(line); err != nil {
			return len(p), err
		}
		f.partial = f.partial[i+1:]
	}
	return len(p), nil
}

// Flush handles a final line that was not terminated.
func (f *IncludeFilter) Flush() error {
	if len(f.partial) == 0 {
		return nil
	}
	line := f.partial
	f.partial = nil
	return f.line(line)
}

// Includes returns the reported headers in order of first appearance.
func (f *IncludeFilter) Includes() []string {
	return f.includes
}

func (f *IncludeFilter) line(line []byte) error {
	text := strings.TrimRight(string(line), "\r\n")
	if rest, ok := strings.CutPrefix(text, showIncludesPrefix); ok {
		header := strings.TrimSpace(rest)
		if header != "" && !f.seen[header] {
			f.seen[header] = true
			f.includes = append(f.includes, header)
		}
		return nil
	}
	_, err := f.out.Write(line)
	return err
}
