package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var photoExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".bmp": true, ".gif": true,
}

// isPhoto reports whether path has a recognized image extension
func isPhoto(path string) bool {
	return photoExtensions[strings.ToLower(filepath.Ext(path))]
}

// IndexOptions controls how BuildIndex reads capture dates
type IndexOptions struct {
	DateSource DateSource
	Location   *time.Location
	// ExcludeDirs are skipped entirely (e.g. the frame temp dir under the photo folder).
	// Only directories strictly inside root are honored.
	ExcludeDirs []string
	Progress    chan<- Progress
}

// IndexReport lists what the walk saw but did not index
type IndexReport struct {
	Scanned int
	Skipped []SkippedFile
}

// PhotoIndex is an immutable snapshot of the photo library
type PhotoIndex struct {
	entries []PhotoEntry
}

// NewPhotoIndex wraps already-built entries; the slice is copied
func NewPhotoIndex(entries []PhotoEntry) *PhotoIndex {
	return &PhotoIndex{entries: append([]PhotoEntry(nil), entries...)}
}

func (x *PhotoIndex) Len() int { return len(x.entries) }

// Entries returns a copy of the indexed entries in index order
func (x *PhotoIndex) Entries() []PhotoEntry {
	return append([]PhotoEntry(nil), x.entries...)
}

// OnDate returns the paths captured on d, in index order
func (x *PhotoIndex) OnDate(d Date) []string {
	var paths []string
	for _, e := range x.entries {
		if e.CaptureDate == d {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

// BuildIndex walks root once and records a capture date for every photo.
// Unreadable entries are reported and skipped; only a failure on root itself is an error.
func BuildIndex(root string, opts IndexOptions) (*PhotoIndex, IndexReport, error) {
	var report IndexReport

	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, report, fmt.Errorf("photo folder: %w", err)
	}
	if !info.IsDir() {
		return nil, report, fmt.Errorf("photo folder %s is not a directory", root)
	}

	excluded := excludedBelow(root, opts.ExcludeDirs)
	var entries []PhotoEntry

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			report.Skipped = append(report.Skipped, SkippedFile{Path: path, Stage: StageIndex, Reason: walkErr.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && isUnderAny(path, excluded) {
				return filepath.SkipDir
			}
			return nil
		}

		if !isPhoto(path) {
			return nil
		}
		report.Scanned++

		date, err := captureDate(path, d, opts.DateSource, opts.Location)
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedFile{Path: path, Stage: StageIndex, Reason: err.Error()})
			return nil
		}

		entries = append(entries, PhotoEntry{Path: path, CaptureDate: date})
		sendProgress(opts.Progress, Progress{
			Phase:       PhaseIndexing,
			Processed:   report.Scanned,
			PhotosFound: len(entries),
			CurrentFile: path,
		})
		return nil
	})
	if err != nil {
		return nil, report, fmt.Errorf("walk %s: %w", root, err)
	}

	// Stable order regardless of filesystem iteration quirks
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return &PhotoIndex{entries: entries}, report, nil
}

// excludedBelow cleans paths and keeps those that lie strictly inside root.
// A base equal to root or above it would prune the whole library.
func excludedBelow(root string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		p = filepath.Clean(p)
		if p != root && isUnderAny(p, []string{root}) {
			out = append(out, p)
		}
	}
	return out
}

func isUnderAny(path string, bases []string) bool {
	path = filepath.Clean(path)
	sep := string(filepath.Separator)
	for _, base := range bases {
		prefix := base
		if !strings.HasSuffix(prefix, sep) {
			prefix += sep
		}
		if path == base || strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
