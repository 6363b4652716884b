package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrNoFrames means every photo in a batch failed to compose
var ErrNoFrames = errors.New("no valid frames to assemble")

// Clip is one photo's slot in the output video
type Clip struct {
	Source    string
	FramePath string
	Duration  float64
	Animation Animation
	Placement Placement
}

// EncodeJob is everything an Encoder needs to write one video
type EncodeJob struct {
	Clips      []Clip
	AudioPath  string
	OutputPath string
	Video      VideoSettings
}

// Duration is the sum of all clip durations
func (j EncodeJob) Duration() float64 {
	var total float64
	for _, c := range j.Clips {
		total += c.Duration
	}
	return total
}

// Encoder turns composed frames into a video file. Encode blocks until the file is written.
type Encoder interface {
	Encode(ctx context.Context, job EncodeJob) error
}

// AssembleResult describes one finished (or skipped) slideshow
type AssembleResult struct {
	OutputPath string
	Clips      []Clip
	Skipped    []SkippedFile
	Duration   float64
	HasAudio   bool
}

// Assembler composes photos into frames and hands them to an Encoder
type Assembler struct {
	Video          VideoSettings
	DisplaySeconds int
	OutputFolder   string
	// TempDir holds intermediate frame files; shared by every Assemble call
	TempDir string
	// Workers is how many frames are composed at once
	Workers  int
	Encoder  Encoder
	Rand     *rand.Rand
	Now      func() time.Time
	Logger   *slog.Logger
	Progress chan<- Progress
}

// NewAssembler wires an Assembler from resolved settings
func NewAssembler(s *Settings, enc Encoder, rng *rand.Rand, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		Video:          s.Video,
		DisplaySeconds: s.PhotoDisplaySeconds,
		OutputFolder:   s.OutputFolder,
		TempDir:        s.TempDir,
		Workers:        defaultWorkers(),
		Encoder:        enc,
		Rand:           rng,
		Now:            time.Now,
		Logger:         logger,
	}
}

// Assemble renders photoPaths, in order, into outputFilename under today's output folder.
// Photos that fail to decode are skipped. An empty photoPaths is a no-op.
func (a *Assembler) Assemble(ctx context.Context, photoPaths []string, outputFilename, audioPath string) (AssembleResult, error) {
	var res AssembleResult
	if len(photoPaths) == 0 {
		a.Logger.Info("no photos to create slideshow")
		return res, nil
	}

	if err := os.MkdirAll(a.TempDir, 0755); err != nil {
		return res, fmt.Errorf("create temp dir: %w", err)
	}

	token := uuid.NewString()[:8]
	defer func() {
		for _, c := range res.Clips {
			os.Remove(c.FramePath)
		}
	}()

	frames := composeFrames(ctx, photoPaths, a.TempDir, token, a.Video.Width, a.Video.Height, a.Workers, a.Progress)
	if err := ctx.Err(); err != nil {
		for _, f := range frames {
			os.Remove(f.FramePath)
		}
		return res, err
	}

	for _, f := range frames {
		if f.Err != nil {
			os.Remove(f.FramePath)
			a.Logger.Warn("skipping photo", "path", f.Source, "reason", f.Err.Error())
			res.Skipped = append(res.Skipped, SkippedFile{Path: f.Source, Stage: StageCompose, Reason: f.Err.Error()})
			continue
		}

		res.Clips = append(res.Clips, Clip{
			Source:    f.Source,
			FramePath: f.FramePath,
			Duration:  float64(a.DisplaySeconds),
			Animation: RandomAnimation(a.Rand),
			Placement: f.Placement,
		})
	}

	if len(res.Clips) == 0 {
		a.Logger.Warn("no valid clips to create slideshow", "photos", len(photoPaths))
		return res, ErrNoFrames
	}

	job := EncodeJob{Clips: res.Clips, Video: a.Video}
	if p, ok := resolveAudio(audioPath); ok {
		job.AudioPath = p
		res.HasAudio = true
	} else {
		a.Logger.Info("no music file found, creating slideshow without music", "path", audioPath)
	}

	outputDir := filepath.Join(a.OutputFolder, DateOf(a.Now(), time.Local).FolderName())
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return res, fmt.Errorf("create output dir: %w", err)
	}
	job.OutputPath = filepath.Join(outputDir, outputFilename)
	res.Duration = job.Duration()

	sendProgress(a.Progress, Progress{
		Phase:       PhaseEncoding,
		Processed:   len(photoPaths),
		Total:       len(photoPaths),
		CurrentFile: job.OutputPath,
	})

	if err := a.Encoder.Encode(ctx, job); err != nil {
		return res, fmt.Errorf("encode %s: %w", job.OutputPath, err)
	}

	res.OutputPath = job.OutputPath
	a.Logger.Info("slideshow created", "path", res.OutputPath, "clips", len(res.Clips))
	return res, nil
}

// resolveAudio returns path when it names an existing regular file
func resolveAudio(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return path, true
}
