package main

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// taskName is the OS-level name of the daily job
const taskName = "MemoriesSlideshow"

// TaskScheduler registers a command to run once a day
type TaskScheduler interface {
	RegisterDailyTask(ctx context.Context, name, command, hhmm string) error
	UnregisterTask(ctx context.Context, name string) error
}

// commandRunner runs an external program, feeding stdin and returning stdout
type commandRunner func(ctx context.Context, stdin string, name string, args ...string) (string, error)

func execRunner(ctx context.Context, stdin string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// newTaskScheduler picks the scheduler for the running OS
func newTaskScheduler() TaskScheduler {
	if runtime.GOOS == "windows" {
		return &schtasksScheduler{run: execRunner}
	}
	return &crontabScheduler{run: execRunner}
}

// schtasksScheduler drives the Windows Task Scheduler
type schtasksScheduler struct {
	run commandRunner
}

func (s *schtasksScheduler) RegisterDailyTask(ctx context.Context, name, command, hhmm string) error {
	if _, _, err := parseScheduleTime(hhmm); err != nil {
		return err
	}
	_, err := s.run(ctx, "", "schtasks",
		"/create", "/tn", name, "/tr", command, "/sc", "daily", "/st", hhmm, "/f", "/rl", "HIGHEST")
	if err != nil {
		return fmt.Errorf("register task %s: %w", name, err)
	}
	return nil
}

// schtasks messages for a task that is not registered
var taskMissingMessages = []string{
	"The system cannot find the file specified",
	"The specified task name does not exist",
}

func (s *schtasksScheduler) UnregisterTask(ctx context.Context, name string) error {
	_, err := s.run(ctx, "", "schtasks", "/delete", "/tn", name, "/f")
	if err == nil {
		return nil
	}
	for _, msg := range taskMissingMessages {
		if strings.Contains(err.Error(), msg) {
			return nil
		}
	}
	return fmt.Errorf("unregister task %s: %w", name, err)
}

// crontabScheduler keeps one tagged line per task in the user crontab
type crontabScheduler struct {
	run commandRunner
}

func cronMarker(name string) string { return "# memories:" + name }

func (c *crontabScheduler) current(ctx context.Context) string {
	// crontab -l fails when the user has no crontab yet
	out, err := c.run(ctx, "", "crontab", "-l")
	if err != nil {
		return ""
	}
	return out
}

func (c *crontabScheduler) RegisterDailyTask(ctx context.Context, name, command, hhmm string) error {
	hour, minute, err := parseScheduleTime(hhmm)
	if err != nil {
		return err
	}
	// cron reads a bare % as a newline
	line := fmt.Sprintf("%d %d * * * %s %s", minute, hour, strings.ReplaceAll(command, "%", `\%`), cronMarker(name))
	table := upsertCronLine(c.current(ctx), name, line)
	if _, err := c.run(ctx, table, "crontab", "-"); err != nil {
		return fmt.Errorf("register task %s: %w", name, err)
	}
	return nil
}

func (c *crontabScheduler) UnregisterTask(ctx context.Context, name string) error {
	cur := c.current(ctx)
	table, removed := removeCronLine(cur, name)
	if !removed {
		return nil
	}
	if _, err := c.run(ctx, table, "crontab", "-"); err != nil {
		return fmt.Errorf("unregister task %s: %w", name, err)
	}
	return nil
}

// upsertCronLine replaces the tagged line for name, or appends it
func upsertCronLine(table, name, line string) string {
	rest, _ := removeCronLine(table, name)
	if rest != "" && !strings.HasSuffix(rest, "\n") {
		rest += "\n"
	}
	return rest + line + "\n"
}

// removeCronLine drops every line tagged for name
func removeCronLine(table, name string) (string, bool) {
	if table == "" {
		return "", false
	}
	marker := cronMarker(name)
	var kept []string
	removed := false
	for _, l := range strings.Split(strings.TrimRight(table, "\n"), "\n") {
		if strings.HasSuffix(strings.TrimSpace(l), marker) {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	if len(kept) == 0 {
		return "", removed
	}
	return strings.Join(kept, "\n") + "\n", removed
}

// scheduledCommand is the command line the OS scheduler should run
func scheduledCommand(executable, configPath string) string {
	return fmt.Sprintf("%s --run-slideshow --no-tui --config %s", quoteArg(executable), quoteArg(configPath))
}

func quoteArg(s string) string {
	if !strings.ContainsAny(s, " \t\"'") {
		return s
	}
	if runtime.GOOS == "windows" {
		return `"` + s + `"`
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
