package assets

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestListFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.PNG", "a.jpg", "c.JPEG", "notes.txt", ".hidden.jpg", "clip.mp4", "other.MOV"} {
		touch(t, dir, name)
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "d.jpg"), 0o755))

	images, err := ListImages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.PNG"),
		filepath.Join(dir, "c.JPEG"),
	}, images)

	videos, err := ListVideos(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "clip.mp4"),
		filepath.Join(dir, "other.MOV"),
	}, videos)
}

func TestListMissingDir(t *testing.T) {
	_, err := ListImages(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSnapshotPath(t *testing.T) {
	at := time.Date(2023, 7, 4, 9, 5, 3, 0, time.Local)
	assert.Equal(t, filepath.Join("output", "07-04-2023_09-05-03.png"), SnapshotPath("output", at))
}

func TestWatcherReportsNewFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.jpg")

	l := logrus.New()
	l.SetOutput(io.Discard)

	var mu sync.Mutex
	var got []string
	w, err := NewWatcher(dir, ListImages, func(paths []string) {
		mu.Lock()
		got = paths
		mu.Unlock()
	}, l)
	require.NoError(t, err)
	w.SetDebounce(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	touch(t, dir, "b.png")
	touch(t, dir, "readme.txt")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherMissingDir(t *testing.T) {
	l := logrus.New()
	l.SetOutput(io.Discard)
	_, err := NewWatcher(filepath.Join(t.TempDir(), "nope"), ListImages, func([]string) {}, l)
	assert.Error(t, err)
}
