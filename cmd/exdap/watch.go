package main

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchDir returns the directory to watch for changes to path.
func watchDir(path string) string {
	dir := filepath.Dir(path)
	if dir == "" {
		return "."
	}
	return dir
}

// watchRelevant reports whether a filesystem event should trigger a rerun.
// Only writes and creates of the watched file count; chmods and sibling
// files in the same directory do not.
func watchRelevant(ev fsnotify.Event, file string) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	same, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	want, err := filepath.Abs(file)
	if err != nil {
		return false
	}
	return same == want
}
