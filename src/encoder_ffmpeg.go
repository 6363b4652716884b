package main

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// audioCodec is used for the music track whenever one is attached
const audioCodec = "aac"

// FFmpegEncoder renders an EncodeJob by running the ffmpeg binary
type FFmpegEncoder struct {
	// Binary defaults to "ffmpeg" on PATH
	Binary string
}

// Encode builds the filter graph for job and blocks until ffmpeg exits
func (e FFmpegEncoder) Encode(ctx context.Context, job EncodeJob) error {
	if len(job.Clips) == 0 {
		return ErrNoFrames
	}

	bin := e.Binary
	if bin == "" {
		bin = "ffmpeg"
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, buildFFmpegArgs(job)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, lastLines(stderr.String(), 5))
	}
	return nil
}

// buildFFmpegArgs returns the ffmpeg command line (without the binary) for job
func buildFFmpegArgs(job EncodeJob) []string {
	v := job.Video
	size := fmt.Sprintf("%dx%d", v.Width, v.Height)

	clips := make([]*ffmpeg.Stream, 0, len(job.Clips))
	for _, c := range job.Clips {
		dur := seconds(c.Duration)
		in := ffmpeg.Input(c.FramePath, ffmpeg.KwArgs{
			"loop":      1,
			"framerate": v.FPS,
			"t":         dur,
		})

		var s *ffmpeg.Stream
		if c.Animation.IsZoom() {
			frames := max(1, int(math.Round(c.Duration*float64(v.FPS))))
			s = in.Filter("zoompan", ffmpeg.Args{}, ffmpeg.KwArgs{
				"z":   c.Animation.zoomExpr(frames),
				"x":   "iw/2-(iw/zoom/2)",
				"y":   "ih/2-(ih/zoom/2)",
				"d":   1,
				"s":   size,
				"fps": v.FPS,
			})
		} else {
			// Pans slide the frame over black, the way a positioned clip composes
			bg := ffmpeg.Input(fmt.Sprintf("color=c=black:s=%s:r=%d:d=%s", size, v.FPS, dur), ffmpeg.KwArgs{"f": "lavfi"})
			x, y := c.Animation.overlayExpr(v.Width, v.Height, c.Duration)
			s = ffmpeg.Filter([]*ffmpeg.Stream{bg, in}, "overlay", ffmpeg.Args{}, ffmpeg.KwArgs{
				"x":        x,
				"y":        y,
				"shortest": 1,
			})
		}

		s = s.Filter("setsar", ffmpeg.Args{"1"}).Filter("format", ffmpeg.Args{"yuv420p"})
		clips = append(clips, s)
	}

	total := seconds(job.Duration())
	streams := []*ffmpeg.Stream{ffmpeg.Concat(clips)}

	out := ffmpeg.KwArgs{
		"c:v":      v.Codec,
		"r":        v.FPS,
		"pix_fmt":  "yuv420p",
		"movflags": "+faststart",
		"t":        total,
	}
	if v.Format != "" {
		out["f"] = v.Format
	}
	if v.Bitrate != "" {
		out["b:v"] = v.Bitrate
	}

	if job.AudioPath != "" {
		// Loop short tracks, then cut to exactly the video length
		audio := ffmpeg.Input(job.AudioPath, ffmpeg.KwArgs{"stream_loop": -1}).Audio().
			Filter("atrim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": total}).
			Filter("asetpts", ffmpeg.Args{"PTS-STARTPTS"})
		streams = append(streams, audio)
		out["c:a"] = audioCodec
	}

	return ffmpeg.Output(streams, job.OutputPath, out).OverWriteOutput().GetArgs()
}

func seconds(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}

// lastLines keeps the tail of ffmpeg's chatty stderr for error messages
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
