package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestModel_FollowsProgress(t *testing.T) {
	gen := &Generator{Settings: testSettings("/photos", "/out")}
	m := initialModel(context.Background(), gen)
	if gen.Progress == nil {
		t.Fatal("model should attach a progress channel")
	}

	next, _ := m.Update(progressMsg(Progress{Phase: PhaseComposing, Processed: 1, Total: 4, CurrentFile: "/photos/a.png"}))
	m = next.(model)
	if m.currentPhase != PhaseComposing || m.statusMsg != "Composing frames..." {
		t.Fatalf("unexpected state %v %q", m.currentPhase, m.statusMsg)
	}
	if view := m.View(); !strings.Contains(view, "(1/4 photos)") {
		t.Fatalf("view should show frame progress:\n%s", view)
	}

	sum := RunSummary{Offsets: []OffsetResult{
		{Selection: Selection{YearOffset: 1}, Assembled: AssembleResult{OutputPath: "/out/04-07-2024/Memories_This_Week_1_year_back.mp4"}},
		{Selection: Selection{YearOffset: 2, Target: Date{2022, time.July, 4}}},
	}}
	next, _ = m.Update(runCompleteMsg{summary: sum})
	m = next.(model)
	if m.currentPhase != PhaseDone || m.statusMsg != "Complete! 1 slideshow written" {
		t.Fatalf("unexpected done state %v %q", m.currentPhase, m.statusMsg)
	}
	view := m.View()
	if !strings.Contains(view, "no photos near 2022-07-04") {
		t.Fatalf("summary should list empty offsets:\n%s", view)
	}
}

func TestModel_ShowsRunError(t *testing.T) {
	gen := &Generator{Settings: testSettings("/photos", "/out")}
	m := initialModel(context.Background(), gen)

	next, _ := m.Update(runCompleteMsg{err: errors.New("encode failed")})
	if view := next.(model).View(); !strings.Contains(view, "encode failed") {
		t.Fatalf("view should show the error:\n%s", view)
	}
}

func TestOffsetLine(t *testing.T) {
	o := OffsetResult{
		Selection: Selection{YearOffset: 2, MatchedDate: Date{2022, time.July, 1}, FallbackDays: 3},
		Assembled: AssembleResult{OutputPath: "/nowhere/out.mp4", Clips: make([]Clip, 4)},
	}
	got := offsetLine(o)
	want := "2 years back: 4 photos from 2022-07-01 (3 days early) → out.mp4"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	o = OffsetResult{Selection: Selection{YearOffset: 1}, Err: ErrNoFrames}
	if got := offsetLine(o); got != "1 year back: "+ErrNoFrames.Error() {
		t.Fatalf("got %q", got)
	}
}

func TestProgressBar(t *testing.T) {
	bar := progressBar(50)
	if len(bar) != 50 || !strings.HasPrefix(bar, strings.Repeat("=", 25)+">") {
		t.Fatalf("got %q", bar)
	}
	if bar := progressBar(150); bar != strings.Repeat("=", 50) {
		t.Fatalf("overflow: got %q", bar)
	}
}

func TestTruncatePaths(t *testing.T) {
	if got := truncatePath("/a/very/long/path/to/photo.png", 15); got != "...to/photo.png" {
		t.Fatalf("truncatePath: %q", got)
	}
	if got := truncateFilePath("/a/very/long/path/to/photo.png", 15); got != "...photo.png" {
		t.Fatalf("truncateFilePath: %q", got)
	}
	if got := truncateFilePath("short.png", 15); got != "short.png" {
		t.Fatalf("short: %q", got)
	}
}
