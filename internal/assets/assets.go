// Package assets finds the style, image and video files the application
// plays, and names the snapshots it writes.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var (
	ImageExtensions = []string{".jpg", ".jpeg", ".png"}
	VideoExtensions = []string{".mov", ".mp4", ".avi"}
)

// SnapshotTimeFormat names saved snapshots, month first
const SnapshotTimeFormat = "01-02-2006_15-04-05"

// ListFunc lists the playable files of a directory
type ListFunc func(dir string) ([]string, error)

// ListImages returns the image files in dir sorted by name
func ListImages(dir string) ([]string, error) {
	return List(dir, ImageExtensions)
}

// ListVideos returns the video files in dir sorted by name
func ListVideos(dir string) ([]string, error) {
	return List(dir, VideoExtensions)
}

// List returns the regular files in dir whose extension matches one of exts,
// case-insensitively, sorted by name
func List(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if HasExtension(e.Name(), exts) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// HasExtension reports whether path ends in one of exts, ignoring case
func HasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// SnapshotPath is the file a snapshot taken at t is written to
func SnapshotPath(dir string, t time.Time) string {
	return filepath.Join(dir, t.Format(SnapshotTimeFormat)+".png")
}
