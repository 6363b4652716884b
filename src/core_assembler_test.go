package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestAssembler(t *testing.T, enc Encoder) (*Assembler, string) {
	t.Helper()
	out := t.TempDir()
	a := NewAssembler(testSettings(t.TempDir(), out), enc, testRand(), quietLogger())
	a.Now = func() time.Time { return time.Date(2024, time.July, 4, 9, 30, 0, 0, time.Local) }
	a.Workers = 2
	return a, out
}

func TestAssemble_WritesVideo(t *testing.T) {
	enc := &fakeEncoder{}
	a, out := newTestAssembler(t, enc)
	src := t.TempDir()
	var photos []string
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		p := filepath.Join(src, name)
		writePNG(t, p, 20, 10, colorRed, time.Time{})
		photos = append(photos, p)
	}

	res, err := a.Assemble(context.Background(), photos, "Memories_This_Week_1_year_back.mp4", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantPath := filepath.Join(out, "04-07-2024", "Memories_This_Week_1_year_back.mp4")
	if res.OutputPath != wantPath {
		t.Fatalf("want output %s, got %s", wantPath, res.OutputPath)
	}
	if _, err := os.Stat(wantPath); err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if len(enc.jobs) != 1 {
		t.Fatalf("want 1 encode, got %d", len(enc.jobs))
	}

	job := enc.jobs[0]
	if len(job.Clips) != 3 || job.Duration() != 6 || res.Duration != 6 {
		t.Fatalf("want 3 clips totalling 6s, got %d clips, %vs", len(job.Clips), job.Duration())
	}
	for i, c := range job.Clips {
		if c.Source != photos[i] {
			t.Fatalf("clip %d: want source %s, got %s", i, photos[i], c.Source)
		}
		if c.Duration != 2 {
			t.Fatalf("clip %d: want 2s, got %v", i, c.Duration)
		}
	}
	if job.Video.Width != 36 || job.Video.Height != 64 {
		t.Fatalf("unexpected video settings %+v", job.Video)
	}
	if len(enc.missing) != 0 {
		t.Fatalf("frames missing during encode: %v", enc.missing)
	}
	if job.AudioPath != "" || res.HasAudio {
		t.Fatal("want no audio")
	}

	// Frame files are cleaned up afterwards
	left, _ := filepath.Glob(filepath.Join(a.TempDir, "frame_*.png"))
	if len(left) != 0 {
		t.Fatalf("frames left behind: %v", left)
	}
}

func TestAssemble_SkipsUndecodablePhotos(t *testing.T) {
	enc := &fakeEncoder{}
	a, _ := newTestAssembler(t, enc)
	src := t.TempDir()

	good := filepath.Join(src, "good.png")
	bad := filepath.Join(src, "bad.jpg")
	writePNG(t, good, 10, 10, colorBlue, time.Time{})
	touch(t, bad, time.Time{})

	res, err := a.Assemble(context.Background(), []string{bad, good}, "out.mp4", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Clips) != 1 || res.Clips[0].Source != good {
		t.Fatalf("want only the good photo, got %+v", res.Clips)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Path != bad || res.Skipped[0].Stage != StageCompose {
		t.Fatalf("want bad photo skipped, got %+v", res.Skipped)
	}
}

func TestAssemble_AllPhotosBad(t *testing.T) {
	enc := &fakeEncoder{}
	a, out := newTestAssembler(t, enc)
	src := t.TempDir()
	bad := filepath.Join(src, "bad.png")
	touch(t, bad, time.Time{})

	_, err := a.Assemble(context.Background(), []string{bad}, "out.mp4", "")
	if !errors.Is(err, ErrNoFrames) {
		t.Fatalf("want ErrNoFrames, got %v", err)
	}
	if len(enc.jobs) != 0 {
		t.Fatal("encoder should not run")
	}
	if _, err := os.Stat(filepath.Join(out, "04-07-2024")); !os.IsNotExist(err) {
		t.Fatal("daily folder should not be created")
	}
}

func TestAssemble_EmptyIsNoop(t *testing.T) {
	enc := &fakeEncoder{}
	a, out := newTestAssembler(t, enc)

	res, err := a.Assemble(context.Background(), nil, "out.mp4", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OutputPath != "" || len(enc.jobs) != 0 {
		t.Fatalf("want nothing written, got %+v", res)
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Fatalf("output folder should stay empty, got %d entries", len(entries))
	}
}

func TestAssemble_Audio(t *testing.T) {
	enc := &fakeEncoder{}
	a, _ := newTestAssembler(t, enc)
	src := t.TempDir()
	photo := filepath.Join(src, "a.png")
	writePNG(t, photo, 10, 10, colorRed, time.Time{})

	music := filepath.Join(src, "song.mp3")
	touch(t, music, time.Time{})

	res, err := a.Assemble(context.Background(), []string{photo}, "with.mp4", music)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.HasAudio || enc.jobs[0].AudioPath != music {
		t.Fatalf("want audio attached, got %q", enc.jobs[0].AudioPath)
	}

	res, err = a.Assemble(context.Background(), []string{photo}, "without.mp4", filepath.Join(src, "missing.mp3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.HasAudio || enc.jobs[1].AudioPath != "" {
		t.Fatal("missing music should produce a silent video")
	}

	// A directory is not a music file
	if _, ok := resolveAudio(src); ok {
		t.Fatal("directory accepted as audio")
	}
}

func TestAssemble_EncoderError(t *testing.T) {
	boom := errors.New("boom")
	enc := &fakeEncoder{err: boom}
	a, _ := newTestAssembler(t, enc)
	photo := filepath.Join(t.TempDir(), "a.png")
	writePNG(t, photo, 10, 10, colorRed, time.Time{})

	_, err := a.Assemble(context.Background(), []string{photo}, "out.mp4", "")
	if !errors.Is(err, boom) {
		t.Fatalf("want wrapped encoder error, got %v", err)
	}
	if !strings.Contains(err.Error(), "out.mp4") {
		t.Fatalf("error should name the output: %v", err)
	}
	left, _ := filepath.Glob(filepath.Join(a.TempDir, "frame_*.png"))
	if len(left) != 0 {
		t.Fatalf("frames left behind: %v", left)
	}
}

func TestAssemble_Cancelled(t *testing.T) {
	enc := &fakeEncoder{}
	a, _ := newTestAssembler(t, enc)
	photo := filepath.Join(t.TempDir(), "a.png")
	writePNG(t, photo, 10, 10, colorRed, time.Time{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Assemble(ctx, []string{photo}, "out.mp4", ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if len(enc.jobs) != 0 {
		t.Fatal("encoder should not run")
	}
}
