package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/anvil/internal/adapters/watcher"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/anvil/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func startWatcher(t *testing.T, root string) (*watcher.Watcher, <-chan ports.WatchEvent) {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()

	w := watcher.NewWatcher(logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
	})
	require.NoError(t, w.Start(ctx, root))

	events := make(chan ports.WatchEvent, 100)
	go func() {
		defer close(events)
		for ev := range w.Events() {
			events <- ev
		}
	}()
	return w, events
}

func waitFor(t *testing.T, events <-chan ports.WatchEvent, path string) ports.WatchEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "event stream closed before %s", path)
			if ev.Path == path {
				return ev
			}
		case <-timeout:
			t.Fatalf("no event for %s", path)
		}
	}
}

func TestWatcher_ReportsWrites(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "main.c")
	require.NoError(t, os.WriteFile(src, []byte("int main(void){}"), domain.PrivateFilePerm))

	_, events := startWatcher(t, root)

	require.NoError(t, os.WriteFile(src, []byte("int main(void){return 1;}"), domain.PrivateFilePerm))
	ev := waitFor(t, events, src)
	assert.Contains(t, []ports.WatchOp{ports.OpWrite, ports.OpCreate}, ev.Operation)
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	_, events := startWatcher(t, root)

	dir := filepath.Join(root, "src")
	require.NoError(t, os.Mkdir(dir, domain.DirPerm))
	waitFor(t, events, dir)

	// The new directory is added right after its create event is delivered.
	time.Sleep(100 * time.Millisecond)

	file := filepath.Join(dir, "util.c")
	require.NoError(t, os.WriteFile(file, []byte("int util;"), domain.PrivateFilePerm))
	ev := waitFor(t, events, file)
	assert.Equal(t, ports.OpCreate, ev.Operation)
}

func TestWatcher_SkipsMetadataDirectories(t *testing.T) {
	root := t.TempDir()
	meta := filepath.Join(root, domain.AnvilDirName)
	require.NoError(t, os.Mkdir(meta, domain.DirPerm))

	_, events := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(meta, "cache.json"), []byte("{}"), domain.PrivateFilePerm))
	marker := filepath.Join(root, "marker")
	require.NoError(t, os.WriteFile(marker, nil, domain.PrivateFilePerm))

	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			assert.NotEqual(t, meta, filepath.Dir(ev.Path), "metadata directory must not be watched")
			if ev.Path == marker {
				return
			}
		case <-timeout:
			t.Fatal("no event for marker")
		}
	}
}

func TestWatcher_EventsEndOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)

	w := watcher.NewWatcher(logger)
	defer func() { _ = w.Stop() }()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx, t.TempDir()))
	cancel()

	done := make(chan struct{})
	go func() {
		for range w.Events() {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("event stream did not end")
	}
}
