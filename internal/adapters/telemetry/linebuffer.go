// Package telemetry turns target execution into OpenTelemetry spans and forwards them,
// together with buffered process output, to a renderer.
package telemetry

import (
	"bytes"
	"sync"
	"time"

	"go.trai.ch/zerr"
)

const (
	// DefaultSizeLimit is the buffered byte count that forces a flush.
	DefaultSizeLimit = 4096
	// DefaultTimeLimit is the flush interval.
	DefaultTimeLimit = 50 * time.Millisecond
)

// ErrOutputClosed is returned by Write once the buffer has been closed.
var ErrOutputClosed = zerr.New("output buffer closed")

// LineBuffer batches process output for a renderer. Chunks are cut at line
// boundaries, so a compiler diagnostic is never split across two log events.
// A trailing partial line is held back for one interval, then emitted as is.
type LineBuffer struct {
	sizeLimit int
	interval  time.Duration
	emit      func([]byte)

	mu     sync.Mutex
	buf    bytes.Buffer
	stale  bool
	ticker *time.Ticker
	done   chan struct{}
	closed bool
}

// NewLineBuffer starts a LineBuffer that hands chunks to emit.
// Non-positive limits select the defaults. Close stops the background flusher.
func NewLineBuffer(sizeLimit int, interval time.Duration, emit func([]byte)) *LineBuffer {
	if sizeLimit <= 0 {
		sizeLimit = DefaultSizeLimit
	}
	if interval <= 0 {
		interval = DefaultTimeLimit
	}

	b := &LineBuffer{
		sizeLimit: sizeLimit,
		interval:  interval,
		emit:      emit,
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
	}
	go b.run()
	return b
}

// Write buffers p. Crossing the size limit emits every complete line; a single
// line longer than the limit is emitted whole.
func (b *LineBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrOutputClosed
	}

	n, _ := b.buf.Write(p)
	if bytes.IndexByte(p, '\n') >= 0 {
		b.stale = false
	}

	if b.buf.Len() >= b.sizeLimit {
		if !b.emitLinesLocked() {
			b.emitLocked(b.buf.Len())
		}
		b.ticker.Reset(b.interval)
	}
	return n, nil
}

// Flush emits everything buffered, including a partial line.
func (b *LineBuffer) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.emitLocked(b.buf.Len())
	}
}

// Close stops the flusher and emits what is left. It is safe to call twice.
func (b *LineBuffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)
	b.emitLocked(b.buf.Len())
	return nil
}

func (b *LineBuffer) run() {
	defer b.ticker.Stop()
	for {
		select {
		case <-b.ticker.C:
			b.tick()
		case <-b.done:
			return
		}
	}
}

func (b *LineBuffer) tick() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	b.emitLinesLocked()
	if b.buf.Len() == 0 {
		b.stale = false
		return
	}
	if b.stale {
		b.emitLocked(b.buf.Len())
		b.stale = false
		return
	}
	b.stale = true
}

// emitLinesLocked emits up to and including the last newline and reports
// whether there was one.
func (b *LineBuffer) emitLinesLocked() bool {
	i := bytes.LastIndexByte(b.buf.Bytes(), '\n')
	if i < 0 {
		return false
	}
	b.emitLocked(i + 1)
	return true
}

// emitLocked hands the first n buffered bytes to emit. Called under mu so
// chunks arrive in write order.
func (b *LineBuffer) emitLocked(n int) {
	if n == 0 {
		return
	}
	chunk := bytes.Clone(b.buf.Next(n))
	if b.emit != nil {
		b.emit(chunk)
	}
}
