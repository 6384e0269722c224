// Package watcher reports source changes below a project root for anvil watch.
package watcher

import (
	"slices"
	"sync"
	"time"
)

// Debouncer coalesces bursts of file events into one rebuild request. The callback runs
// once the window passes without new events, and no later than maxWait after the first
// event of a burst so that a file written continuously cannot postpone rebuilds forever.
type Debouncer struct {
	mu       sync.Mutex
	pending  map[string]struct{}
	timer    *time.Timer
	first    time.Time
	window   time.Duration
	maxWait  time.Duration
	stopped  bool
	callback func(paths []string)
}

// NewDebouncer creates a debouncer whose maximum wait is ten windows.
func NewDebouncer(window time.Duration, callback func(paths []string)) *Debouncer {
	return &Debouncer{
		pending:  make(map[string]struct{}),
		window:   window,
		maxWait:  10 * window,
		callback: callback,
	}
}

// WithMaxWait bounds how long a burst of events can defer the callback.
func (d *Debouncer) WithMaxWait(maxWait time.Duration) *Debouncer {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.maxWait = max(maxWait, d.window)
	return d
}

// Add records a changed path and restarts the window.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	now := time.Now()
	if len(d.pending) == 0 {
		d.first = now
	}
	d.pending[path] = struct{}{}

	delay := min(d.window, max(d.first.Add(d.maxWait).Sub(now), 0))
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(delay, d.fire)
}

// take empties the pending set and returns it sorted. Callers hold mu.
func (d *Debouncer) take() []string {
	paths := make([]string, 0, len(d.pending))
	for path := range d.pending {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	clear(d.pending)
	d.timer = nil
	return paths
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	paths := d.take()
	d.mu.Unlock()

	if len(paths) > 0 && d.callback != nil {
		go d.callback(paths)
	}
}

// Flush runs the callback for pending paths right away and waits for it to return.
// It does nothing when the timer already fired.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil && !d.timer.Stop() {
		d.mu.Unlock()
		return
	}
	paths := d.take()
	d.mu.Unlock()

	if len(paths) > 0 && d.callback != nil {
		d.callback(paths)
	}
}

// Stop drops pending paths and ignores later events.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.take()
}
