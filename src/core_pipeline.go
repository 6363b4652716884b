package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Generator runs the whole daily job: index, select per year offset, assemble
type Generator struct {
	Settings *Settings
	Encoder  Encoder
	Rand     *rand.Rand
	Now      func() time.Time
	Logger   *slog.Logger
	// History is optional
	History  *History
	Progress chan<- Progress
}

// OffsetResult is the outcome for one configured year offset
type OffsetResult struct {
	Selection Selection
	Filename  string
	Assembled AssembleResult
	// Err is set when the offset produced nothing because every frame failed
	Err error
}

// RunSummary describes one completed run
type RunSummary struct {
	RunID   string
	Index   IndexReport
	Indexed int
	Offsets []OffsetResult
	Elapsed time.Duration
}

// Written returns the paths of every slideshow the run produced
func (s RunSummary) Written() []string {
	var paths []string
	for _, o := range s.Offsets {
		if o.Assembled.OutputPath != "" {
			paths = append(paths, o.Assembled.OutputPath)
		}
	}
	return paths
}

// NewGenerator wires a Generator with wall-clock time and a random seed
func NewGenerator(s *Settings, enc Encoder, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		Settings: s,
		Encoder:  enc,
		Rand:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		Now:      time.Now,
		Logger:   logger,
	}
}

// slideshowFilename names the video for a year offset
func slideshowFilename(n int) string {
	unit := "years"
	if n == 1 {
		unit = "year"
	}
	return fmt.Sprintf("Memories_This_Week_%d_%s_back.mp4", n, unit)
}

// Run indexes the photo folder once and writes one slideshow per year offset.
// Offsets with no photos are skipped; an encoder failure stops the run.
func (g *Generator) Run(ctx context.Context) (RunSummary, error) {
	s := g.Settings
	start := g.Now()
	var sum RunSummary

	runCtx := context.WithoutCancel(ctx)
	if g.History != nil {
		id, err := g.History.BeginRun(runCtx, start)
		if err != nil {
			g.Logger.Warn("history unavailable", "error", err)
		} else {
			sum.RunID = id
		}
	}

	sendProgress(g.Progress, Progress{Phase: PhaseIndexing})
	idx, report, err := BuildIndex(s.PhotoFolder, IndexOptions{
		DateSource:  s.DateSource,
		Location:    time.Local,
		ExcludeDirs: []string{s.TempDir, s.OutputFolder, stateDir(s.OutputFolder)},
		Progress:    g.Progress,
	})
	if err != nil {
		return sum, fmt.Errorf("index %s: %w", s.PhotoFolder, err)
	}
	sum.Index = report
	sum.Indexed = idx.Len()
	for _, sk := range report.Skipped {
		g.Logger.Warn("skipping file", "path", sk.Path, "reason", sk.Reason)
	}
	g.Logger.Info("photo index built", "photos", idx.Len(), "skipped", len(report.Skipped))

	asm := NewAssembler(s, g.Encoder, g.Rand, g.Logger)
	asm.Now = g.Now
	asm.Progress = g.Progress

	today := DateOf(start, time.Local)
	for _, n := range s.YearsBack {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		sendProgress(g.Progress, Progress{Phase: PhaseSelecting, YearOffset: n})
		sel := SelectForYearOffset(idx, n, s.RandomPhotosLimit, today, g.Rand)
		res := OffsetResult{Selection: sel, Filename: slideshowFilename(n)}

		if sel.Empty() {
			g.Logger.Info("no photos found", "years_back", n, "target", sel.Target.String())
			sum.Offsets = append(sum.Offsets, res)
			continue
		}
		g.Logger.Info("photos selected", "years_back", n, "count", len(sel.Paths),
			"date", sel.MatchedDate.String(), "fallback_days", sel.FallbackDays)

		res.Assembled, err = asm.Assemble(ctx, sel.Paths, res.Filename, s.MusicFilePath)
		if errors.Is(err, ErrNoFrames) {
			res.Err = err
			sum.Offsets = append(sum.Offsets, res)
			continue
		}
		if err != nil {
			sum.Offsets = append(sum.Offsets, res)
			return sum, err
		}
		sum.Offsets = append(sum.Offsets, res)

		if sum.RunID != "" {
			rec := SlideshowRecord{
				YearOffset: n,
				OutputPath: res.Assembled.OutputPath,
				Photos:     len(res.Assembled.Clips),
				Duration:   time.Duration(res.Assembled.Duration * float64(time.Second)),
				CreatedAt:  g.Now(),
			}
			if err := g.History.RecordSlideshow(runCtx, sum.RunID, rec); err != nil {
				g.Logger.Warn("history write failed", "error", err)
			}
		}
	}

	sum.Elapsed = g.Now().Sub(start)
	if sum.RunID != "" {
		if err := g.History.FinishRun(runCtx, sum.RunID, g.Now(), sum.Indexed, len(report.Skipped)); err != nil {
			g.Logger.Warn("history write failed", "error", err)
		}
	}
	sendProgress(g.Progress, Progress{Phase: PhaseDone})
	return sum, nil
}
