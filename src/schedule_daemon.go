package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Daemon runs a job every day at a fixed local time until its context ends
type Daemon struct {
	cron   *cron.Cron
	job    func(ctx context.Context) error
	logger *slog.Logger

	mu      sync.Mutex
	running sync.Mutex
	entry   cron.EntryID
	ctx     context.Context
}

// dailySpec turns "HH:MM" into a five-field cron expression
func dailySpec(hhmm string) (string, error) {
	hour, minute, err := parseScheduleTime(hhmm)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

func NewDaemon(job func(ctx context.Context) error, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{cron: cron.New(), job: job, logger: logger}
}

// Schedule registers the job at hhmm, replacing any earlier registration
func (d *Daemon) Schedule(hhmm string) error {
	spec, err := dailySpec(hhmm)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.entry != 0 {
		d.cron.Remove(d.entry)
	}
	id, err := d.cron.AddFunc(spec, d.trigger)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	d.entry = id
	return nil
}

// trigger runs the job unless the previous run is still going
func (d *Daemon) trigger() {
	if !d.running.TryLock() {
		d.logger.Warn("scheduled run skipped, previous run still busy")
		return
	}
	defer d.running.Unlock()

	d.mu.Lock()
	ctx := d.ctx
	d.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	d.logger.Info("scheduled run starting")
	if err := d.job(ctx); err != nil {
		d.logger.Error("scheduled run failed", "error", err)
		return
	}
	d.logger.Info("scheduled run finished")
}

// Run blocks until ctx is done, then waits for an in-flight job to return
func (d *Daemon) Run(ctx context.Context) {
	d.mu.Lock()
	d.ctx = ctx
	d.mu.Unlock()

	d.cron.Start()
	d.logger.Info("daemon started", "next", d.Next())
	<-ctx.Done()
	<-d.cron.Stop().Done()
	d.logger.Info("daemon stopped")
}

// Next is the time of the next scheduled run, formatted, or "" when none
func (d *Daemon) Next() string {
	d.mu.Lock()
	id := d.entry
	d.mu.Unlock()
	if id == 0 {
		return ""
	}
	next := d.cron.Entry(id).Next
	if next.IsZero() {
		return ""
	}
	return next.Format("2006-01-02 15:04")
}
