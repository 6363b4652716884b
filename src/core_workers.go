package main

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
)

// defaultWorkers is half the CPUs, at least one
func defaultWorkers() int {
	return max(1, runtime.NumCPU()/2)
}

type frameJob struct {
	index int
	path  string
}

// frameResult is one composed (or failed) photo, at its input position
type frameResult struct {
	Source    string
	FramePath string
	Placement Placement
	Err       error
}

// composeFrames writes one frame PNG per photo using a worker pool.
// Results come back in input order; a failure only affects its own slot.
func composeFrames(ctx context.Context, paths []string, tempDir, token string, videoW, videoH, workers int, progressChan chan<- Progress) []frameResult {
	results := make([]frameResult, len(paths))
	jobs := make(chan frameJob, len(paths))
	var wg sync.WaitGroup
	var mu sync.Mutex
	processed := 0

	for i := 0; i < max(1, workers); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				r := frameResult{
					Source:    job.path,
					FramePath: filepath.Join(tempDir, fmt.Sprintf("frame_%s_%03d.png", token, job.index)),
				}
				if err := ctx.Err(); err != nil {
					r.Err = err
				} else {
					r.Placement, r.Err = composeFile(job.path, r.FramePath, videoW, videoH)
				}
				// Each worker owns its slot
				results[job.index] = r

				mu.Lock()
				processed++
				sendProgress(progressChan, Progress{
					Phase:       PhaseComposing,
					Processed:   processed,
					Total:       len(paths),
					CurrentFile: job.path,
				})
				mu.Unlock()
			}
		}()
	}

	for i, p := range paths {
		jobs <- frameJob{index: i, path: p}
	}
	close(jobs)

	wg.Wait()
	return results
}
