package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	runSlideshow bool
	guiMode      bool
	noTUI        bool
	verbose      bool
	seed         uint64
	historyLimit int
)

var rootCmd = &cobra.Command{
	Use:   "memories",
	Short: "Daily \"on this day\" photo slideshows",
	Long: `memories looks through your photo folder for pictures taken on today's
date one or more years ago and turns each year into a short video:
  - letterboxed to a fixed resolution
  - a gentle zoom or pan per photo
  - optional background music

Slideshows are written to <output>/DD-MM-YYYY/.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent slideshow runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Stay running and create slideshows every day at schedule_time",
	Args:  cobra.NoArgs,
	RunE:  runDaemon,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage the OS-level daily task and login script",
}

var scheduleApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Register or remove the daily task and login script according to config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(configPath())
		if err != nil {
			return err
		}
		return applySchedule(cmd.Context(), s, cmd.OutOrStdout())
	},
}

var scheduleRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the daily task and login script",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return removeSchedule(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.memories.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	rootCmd.Flags().BoolVar(&runSlideshow, "run-slideshow", false, "Create today's slideshows and exit (the default action)")
	rootCmd.Flags().BoolVar(&guiMode, "gui", false, "Edit settings in an interactive form")
	rootCmd.Flags().BoolVar(&noTUI, "no-tui", false, "Disable TUI, use simple CLI output")
	rootCmd.Flags().Uint64Var(&seed, "seed", 0, "Fixed random seed for photo and animation choice")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to show")

	scheduleCmd.AddCommand(scheduleApplyCmd, scheduleRemoveCmd)
	rootCmd.AddCommand(historyCmd, daemonCmd, scheduleCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func configPath() string {
	if cfgFile == "" {
		return getConfigPath()
	}
	if abs, err := filepath.Abs(cfgFile); err == nil {
		return abs
	}
	return cfgFile
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// ensureConfig runs the setup wizard when path does not exist yet
func ensureConfig(path string) error {
	if configExists(path) {
		return nil
	}
	if !isTerminal(os.Stdin) {
		return fmt.Errorf("config file %s not found; run memories interactively once to create it", path)
	}
	_, err := runSetupWizard(path, os.Stdin, os.Stdout)
	return err
}

func loadSettings(path string) (*Settings, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	return Resolve(cfg)
}

func runRoot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := configPath()
	if err := ensureConfig(path); err != nil {
		return err
	}

	if guiMode {
		return runSettingsEditor(ctx, path)
	}

	s, err := loadSettings(path)
	if err != nil {
		return err
	}

	useTUI := !noTUI && isTerminal(os.Stdout)
	logOut, closeLog := io.Writer(os.Stderr), func() {}
	if useTUI {
		// Log lines would tear the alt screen
		logOut, closeLog = openLogFile(s.OutputFolder)
	}
	defer closeLog()
	logger := newLogger(logOut)

	gen := NewGenerator(s, FFmpegEncoder{}, logger)
	if cmd.Flags().Changed("seed") {
		gen.Rand = rand.New(rand.NewPCG(seed, seed))
	}
	history, err := OpenHistory(s.OutputFolder)
	if err != nil {
		logger.Warn("history disabled", "error", err)
	} else {
		defer history.Close()
		gen.History = history
	}

	if useTUI {
		_, err = runTUI(ctx, gen)
	} else {
		_, err = runCLI(ctx, gen, os.Stdout)
	}
	if err != nil {
		return err
	}

	refreshStartupScript(s, logger)
	return nil
}

// openLogFile appends to <output>/.memories/memories.log, or discards logs if that fails
func openLogFile(outputFolder string) (io.Writer, func()) {
	dir := stateDir(outputFolder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return io.Discard, func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, "memories.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return io.Discard, func() {}
	}
	return f, func() { f.Close() }
}

// refreshStartupScript points the login script at today's folder
func refreshStartupScript(s *Settings, logger *slog.Logger) {
	if !s.EnableStartupFolderOpen {
		return
	}
	script, err := newStartupScript()
	if err != nil {
		logger.Warn("startup script unavailable", "error", err)
		return
	}
	today := filepath.Join(s.OutputFolder, DateOf(time.Now(), time.Local).FolderName())
	if err := script.WriteOpenScript(today); err != nil {
		logger.Warn("startup script not updated", "error", err)
	}
}

func runSettingsEditor(ctx context.Context, path string) error {
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	saved, err := runConfigForm(path, cfg)
	if err != nil {
		return err
	}
	if !saved {
		fmt.Println("Settings unchanged.")
		return nil
	}
	fmt.Println("✓ Settings saved to:", path)

	s, err := Resolve(cfg)
	if err != nil {
		return err
	}
	return applySchedule(ctx, s, os.Stdout)
}

func runCLI(ctx context.Context, gen *Generator, out io.Writer) (*RunSummary, error) {
	s := gen.Settings

	fmt.Fprintln(out, "Memories")
	fmt.Fprintln(out, "========")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "  Photos:      %s\n", s.PhotoFolder)
	fmt.Fprintf(out, "  Output:      %s\n", s.OutputFolder)
	fmt.Fprintf(out, "  Years back:  %s\n", joinInts(s.YearsBack))
	fmt.Fprintf(out, "  Per video:   %d photos × %ds\n", s.RandomPhotosLimit, s.PhotoDisplaySeconds)
	fmt.Fprintf(out, "  Video:       %dx%d %s @ %dfps, %s\n", s.Video.Width, s.Video.Height, s.Video.Codec, s.Video.FPS, s.Video.Bitrate)
	if s.MusicFilePath != "" {
		fmt.Fprintf(out, "  Music:       %s\n", s.MusicFilePath)
	}
	fmt.Fprintln(out)

	progressChan := make(chan Progress, 10)
	gen.Progress = progressChan
	done := make(chan struct{})
	go func() {
		defer close(done)
		last := Phase(-1)
		lastOffset := -1
		for prog := range progressChan {
			if prog.Phase != last || (prog.Phase == PhaseSelecting && prog.YearOffset != lastOffset) {
				fmt.Fprintf(out, "\r%s\r", strings.Repeat(" ", 150))
				if line := phaseStatus(prog); line != "" {
					fmt.Fprintln(out, line)
				}
				last, lastOffset = prog.Phase, prog.YearOffset
			}
			if prog.Phase == PhaseComposing && prog.Total > 0 {
				percent := float64(prog.Processed) * 100 / float64(prog.Total)
				fmt.Fprintf(out, "\r  Progress: [%-50s] %3.0f%% (%d/%d) %s",
					progressBar(percent),
					percent,
					prog.Processed,
					prog.Total,
					truncateFilePath(prog.CurrentFile, 60))
			}
		}
		fmt.Fprintf(out, "\r%s\r", strings.Repeat(" ", 150))
	}()

	summary, err := gen.Run(ctx)
	close(progressChan)
	<-done
	gen.Progress = nil

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Indexed %s photos (%d skipped) in %s\n",
		humanize.Comma(int64(summary.Indexed)), len(summary.Index.Skipped), summary.Elapsed.Round(100*time.Millisecond))
	for _, o := range summary.Offsets {
		fmt.Fprintf(out, "  %s\n", offsetLine(o))
	}
	if err != nil {
		return &summary, err
	}

	written := len(summary.Written())
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Done: %d slideshow%s written\n", written, plural(written))
	return &summary, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(configPath())
	if err != nil {
		return err
	}
	history, err := OpenHistory(s.OutputFolder)
	if err != nil {
		return err
	}
	defer history.Close()

	runs, err := history.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}
	for _, r := range runs {
		status := "unfinished"
		if r.FinishedAt != nil {
			status = fmt.Sprintf("took %s", r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
		}
		fmt.Fprintf(out, "%s  %s (%s) • %s photos indexed • %s\n",
			r.ID[:8], r.StartedAt.Format("2006-01-02 15:04"), humanize.Time(r.StartedAt),
			humanize.Comma(int64(r.Indexed)), status)
		if len(r.Slideshows) == 0 {
			fmt.Fprintln(out, "    no slideshows")
		}
		for _, sh := range r.Slideshows {
			fmt.Fprintf(out, "    %d %s back: %d photos, %s → %s\n",
				sh.YearOffset, yearWord(sh.YearOffset), sh.Photos, sh.Duration, sh.OutputPath)
		}
	}
	return nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	path := configPath()
	s, err := loadSettings(path)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr)

	job := func(ctx context.Context) error {
		// Pick up edits made since the daemon started
		s, err := loadSettings(path)
		if err != nil {
			return err
		}
		gen := NewGenerator(s, FFmpegEncoder{}, logger)
		if history, err := OpenHistory(s.OutputFolder); err != nil {
			logger.Warn("history disabled", "error", err)
		} else {
			defer history.Close()
			gen.History = history
		}
		summary, err := gen.Run(ctx)
		if err != nil {
			return err
		}
		logger.Info("run complete", "slideshows", len(summary.Written()), "elapsed", summary.Elapsed)
		refreshStartupScript(s, logger)
		return nil
	}

	d := NewDaemon(job, logger)
	if err := d.Schedule(s.ScheduleTime); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Creating slideshows daily at %s (Ctrl+C to stop)\n", s.ScheduleTime)
	d.Run(cmd.Context())
	return nil
}

// applySchedule makes the OS task and login script match s
func applySchedule(ctx context.Context, s *Settings, out io.Writer) error {
	sched := newTaskScheduler()
	if s.EnableScheduling {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locate executable: %w", err)
		}
		if err := sched.RegisterDailyTask(ctx, taskName, scheduledCommand(exe, configPath()), s.ScheduleTime); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Daily task %s registered for %s\n", taskName, s.ScheduleTime)
	} else {
		if err := sched.UnregisterTask(ctx, taskName); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Daily task %s removed\n", taskName)
	}

	script, err := newStartupScript()
	if err != nil {
		return err
	}
	if s.EnableStartupFolderOpen {
		today := filepath.Join(s.OutputFolder, DateOf(time.Now(), time.Local).FolderName())
		if err := script.WriteOpenScript(today); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Login script written to %s\n", script.Path())
	} else {
		if err := script.DeleteOpenScript(); err != nil {
			return err
		}
		fmt.Fprintln(out, "✓ Login script removed")
	}
	return nil
}

func removeSchedule(ctx context.Context, out io.Writer) error {
	if err := newTaskScheduler().UnregisterTask(ctx, taskName); err != nil {
		return err
	}
	script, err := newStartupScript()
	if err != nil {
		return err
	}
	if err := script.DeleteOpenScript(); err != nil {
		return err
	}
	fmt.Fprintln(out, "✓ Daily task and login script removed")
	return nil
}

// progressBar creates a text progress bar
func progressBar(percent float64) string {
	const width = 50
	filled := min(int(percent/2), width) // 50 chars = 100%
	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i < filled:
			b.WriteByte('=')
		case i == filled:
			b.WriteByte('>')
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// truncateFilePath shortens a file path for display
func truncateFilePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	// Show just the filename
	base := filepath.Base(path)
	if len(base) <= maxLen {
		return "..." + base
	}
	return "..." + base[len(base)-maxLen+3:]
}
