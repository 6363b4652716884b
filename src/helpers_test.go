package main

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

var (
	colorRed  = color.RGBA{R: 255, A: 255}
	colorBlue = color.RGBA{B: 255, A: 255}
)

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	setMtime(t, path, mtime)
}

func setMtime(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if mtime.IsZero() {
		return
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

// writePNG writes a solid w×h image
func writePNG(t *testing.T, path string, w, h int, c color.Color, mtime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		t.Fatalf("encode: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	setMtime(t, path, mtime)
}

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noon(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.Local)
}

// fakeEncoder records jobs and writes a placeholder output file
type fakeEncoder struct {
	mu   sync.Mutex
	jobs []EncodeJob
	// missing lists frame paths that did not exist when Encode ran
	missing []string
	err     error
}

func (f *fakeEncoder) Encode(ctx context.Context, job EncodeJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	for _, c := range job.Clips {
		if _, err := os.Stat(c.FramePath); err != nil {
			f.missing = append(f.missing, c.FramePath)
		}
	}
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(job.OutputPath, []byte("video"), 0o644)
}

func testSettings(photos, output string) *Settings {
	return &Settings{
		PhotoFolder:         photos,
		YearsBack:           []int{1},
		RandomPhotosLimit:   10,
		PhotoDisplaySeconds: 2,
		OutputFolder:        output,
		ScheduleTime:        "18:00",
		DateSource:          DateFromModTime,
		Video: VideoSettings{
			Format:  "mp4",
			Codec:   "libx264",
			FPS:     24,
			Bitrate: "5000k",
			Width:   36,
			Height:  64,
		},
		TempDir: filepath.Join(output, "MoviePy_temp"),
	}
}
