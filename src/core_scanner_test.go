package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestBuildIndex_DatesFromModTime(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "2023", "a.jpg"), noon(2023, time.July, 4))
	touch(t, filepath.Join(root, "2023", "b.png"), noon(2023, time.July, 4))
	touch(t, filepath.Join(root, "c.gif"), noon(2022, time.July, 1))
	touch(t, filepath.Join(root, "notes.txt"), noon(2023, time.July, 4))

	idx, report, err := BuildIndex(root, IndexOptions{Location: time.Local})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Len() != 3 {
		t.Fatalf("want 3 photos, got %d", idx.Len())
	}
	if report.Scanned != 3 || len(report.Skipped) != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	got := idx.OnDate(Date{2023, time.July, 4})
	want := []string{filepath.Join(root, "2023", "a.jpg"), filepath.Join(root, "2023", "b.png")}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("OnDate: want %v, got %v", want, got)
	}
	if n := len(idx.OnDate(Date{2022, time.July, 1})); n != 1 {
		t.Fatalf("want 1 photo on 2022-07-01, got %d", n)
	}
}

func TestBuildIndex_ExtCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "IMG_0001.JPG"), noon(2023, time.July, 4))
	touch(t, filepath.Join(root, "Scan.Bmp"), noon(2023, time.July, 4))
	touch(t, filepath.Join(root, "clip.mov"), noon(2023, time.July, 4))

	idx, _, err := BuildIndex(root, IndexOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Len() != 2 {
		t.Fatalf("want 2 photos, got %d", idx.Len())
	}
}

func TestBuildIndex_ExcludeDirs(t *testing.T) {
	root := t.TempDir()
	tmp := filepath.Join(root, "MoviePy_temp")
	touch(t, filepath.Join(tmp, "frame_abc_000.png"), noon(2023, time.July, 4))
	touch(t, filepath.Join(root, "keep.png"), noon(2023, time.July, 4))

	idx, _, err := BuildIndex(root, IndexOptions{ExcludeDirs: []string{tmp, ""}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries := idx.Entries()
	if len(entries) != 1 || entries[0].Path != filepath.Join(root, "keep.png") {
		t.Fatalf("want only keep.png, got %+v", entries)
	}
}

func TestBuildIndex_ExcludeAtOrAboveRootIgnored(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "Camera")
	touch(t, filepath.Join(root, "top.jpg"), noon(2023, time.July, 4))
	touch(t, filepath.Join(root, "2023", "july", "a.jpg"), noon(2023, time.July, 4))
	touch(t, filepath.Join(root, "MoviePy_temp", "frame_abc_000.png"), noon(2023, time.July, 4))

	tests := []struct {
		name    string
		exclude []string
	}{
		{"output is the photo folder", []string{root, filepath.Join(root, "MoviePy_temp")}},
		{"output is above the photo folder", []string{parent, filepath.Join(root, "MoviePy_temp")}},
		{"trailing separator", []string{root + string(filepath.Separator), filepath.Join(root, "MoviePy_temp")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, report, err := BuildIndex(root, IndexOptions{ExcludeDirs: tt.exclude})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			entries := idx.Entries()
			if len(entries) != 2 || len(report.Skipped) != 0 {
				t.Fatalf("want top.jpg and the nested photo, got %+v (skipped %+v)", entries, report.Skipped)
			}
			if entries[0].Path != filepath.Join(root, "2023", "july", "a.jpg") {
				t.Fatalf("nested photo missing: %+v", entries)
			}
		})
	}
}

func TestBuildIndex_SymlinkDatedByTarget(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(t.TempDir(), "original.jpg")
	touch(t, target, noon(2021, time.March, 9))
	link := filepath.Join(root, "linked.jpg")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	idx, _, err := BuildIndex(root, IndexOptions{Location: time.Local})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := idx.OnDate(Date{2021, time.March, 9}); len(got) != 1 || got[0] != link {
		t.Fatalf("want the link dated 2021-03-09, got %+v", idx.Entries())
	}
}

func TestBuildIndex_SortedByPath(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"c.png", "a.png", "b.png"} {
		touch(t, filepath.Join(root, name), noon(2023, time.July, 4))
	}

	idx, _, err := BuildIndex(root, IndexOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries := idx.Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Path > entries[i].Path {
			t.Fatalf("entries not sorted: %v", entries)
		}
	}
}

func TestBuildIndex_EXIFFallsBackToModTime(t *testing.T) {
	root := t.TempDir()
	// No EXIF block in a plain PNG
	writePNG(t, filepath.Join(root, "plain.png"), 4, 4, colorRed, noon(2021, time.March, 2))

	idx, _, err := BuildIndex(root, IndexOptions{DateSource: DateFromEXIF, Location: time.Local})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(idx.OnDate(Date{2021, time.March, 2})); n != 1 {
		t.Fatalf("want mtime date to be used, got %d matches", n)
	}
}

func TestBuildIndex_RootErrors(t *testing.T) {
	root := t.TempDir()

	if _, _, err := BuildIndex(filepath.Join(root, "missing"), IndexOptions{}); err == nil {
		t.Fatal("want error for missing root")
	}

	file := filepath.Join(root, "file.png")
	touch(t, file, time.Time{})
	if _, _, err := BuildIndex(file, IndexOptions{}); err == nil {
		t.Fatal("want error when root is a file")
	}
}

func TestBuildIndex_UnreadableDirIsSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	touch(t, filepath.Join(locked, "hidden.png"), noon(2023, time.July, 4))
	touch(t, filepath.Join(root, "ok.png"), noon(2023, time.July, 4))
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	idx, report, err := BuildIndex(root, IndexOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Len() != 1 {
		t.Fatalf("want 1 photo, got %d", idx.Len())
	}
	if len(report.Skipped) != 1 || report.Skipped[0].Stage != StageIndex {
		t.Fatalf("want one index skip, got %+v", report.Skipped)
	}
}

func TestBuildIndex_Progress(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.png"), noon(2023, time.July, 4))
	touch(t, filepath.Join(root, "b.png"), noon(2023, time.July, 4))

	ch := make(chan Progress, 10)
	if _, _, err := BuildIndex(root, IndexOptions{Progress: ch}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	close(ch)

	var last Progress
	n := 0
	for p := range ch {
		last = p
		n++
	}
	if n != 2 || last.Phase != PhaseIndexing || last.PhotosFound != 2 {
		t.Fatalf("unexpected progress: n=%d last=%+v", n, last)
	}
}
