package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

type model struct {
	settings *Settings
	gen      *Generator
	ctx      context.Context
	cancel   context.CancelFunc

	currentPhase Phase
	spinner      spinner.Model
	progress     progress.Model

	progressChan chan Progress
	current      Progress
	statusMsg    string

	summary *RunSummary
	err     error

	width  int
	height int
}

type progressMsg Progress

type runCompleteMsg struct {
	summary RunSummary
	err     error
}

func initialModel(ctx context.Context, gen *Generator) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithoutPercentage(),
	)
	// Updated when WindowSizeMsg arrives
	p.Width = 60

	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan Progress, 100)
	gen.Progress = ch

	return model{
		settings:     gen.Settings,
		gen:          gen,
		ctx:          ctx,
		cancel:       cancel,
		spinner:      s,
		progress:     p,
		progressChan: ch,
		currentPhase: PhaseIndexing,
		statusMsg:    "Indexing photos...",
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		runGenerator(m.ctx, m.gen, m.progressChan),
		waitForProgress(m.progressChan),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(msg.Width-35, 20)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		case "enter":
			if m.currentPhase == PhaseDone {
				m.cancel()
				return m, tea.Quit
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressMsg:
		m.current = Progress(msg)
		m.currentPhase = m.current.Phase
		m.statusMsg = phaseStatus(m.current)
		return m, waitForProgress(m.progressChan)

	case runCompleteMsg:
		m.currentPhase = PhaseDone
		m.summary = &msg.summary
		m.err = msg.err
		written := len(msg.summary.Written())
		m.statusMsg = fmt.Sprintf("Complete! %d slideshow%s written", written, plural(written))
		return m, nil
	}

	return m, nil
}

func phaseStatus(p Progress) string {
	switch p.Phase {
	case PhaseIndexing:
		if p.PhotosFound > 0 {
			return fmt.Sprintf("Indexing photos... %d found", p.PhotosFound)
		}
		return "Indexing photos..."
	case PhaseSelecting:
		return fmt.Sprintf("Selecting photos from %d %s ago...", p.YearOffset, yearWord(p.YearOffset))
	case PhaseComposing:
		return "Composing frames..."
	case PhaseEncoding:
		return "Encoding " + filepath.Base(p.CurrentFile) + "..."
	}
	return ""
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString("\n")

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		MarginLeft(2)

	b.WriteString(titleStyle.Render("Memories"))
	b.WriteString("\n\n")

	if m.currentPhase != PhaseDone {
		configStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginLeft(2)
		b.WriteString(configStyle.Render(fmt.Sprintf(
			"%s → %s | Years: %s | %d photos × %ds",
			truncatePath(m.settings.PhotoFolder, 25),
			truncatePath(m.settings.OutputFolder, 25),
			joinInts(m.settings.YearsBack),
			m.settings.RandomPhotosLimit,
			m.settings.PhotoDisplaySeconds,
		)))
		b.WriteString("\n\n")
	}

	// Phase indicator
	b.WriteString("  ")
	for i := PhaseIndexing; i <= PhaseDone; i++ {
		if i > 0 {
			b.WriteString(" → ")
		}
		switch {
		case m.currentPhase == i:
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render(i.String()))
		case m.currentPhase > i:
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("✓"))
		default:
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(i.String()))
		}
	}
	b.WriteString("\n\n")

	switch m.currentPhase {
	case PhaseDone:
		b.WriteString(m.renderSummary())

	default:
		b.WriteString(fmt.Sprintf("  %s %s\n\n", m.spinner.View(), m.statusMsg))

		if m.currentPhase == PhaseComposing && m.current.Total > 0 {
			percent := float64(m.current.Processed) / float64(m.current.Total)
			b.WriteString("  ")
			b.WriteString(m.progress.ViewAs(percent))
			b.WriteString(fmt.Sprintf(" %d%% (%d/%d photos)\n\n",
				int(percent*100), m.current.Processed, m.current.Total))
		}

		if m.current.CurrentFile != "" {
			maxLen := max(m.width-20, 40)
			fileStyle := lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true).
				MarginLeft(2)
			b.WriteString(fmt.Sprintf("\n%s", fileStyle.Render(truncatePath(m.current.CurrentFile, maxLen))))
		}
	}

	b.WriteString("\n\n")
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		MarginLeft(2)
	if m.currentPhase == PhaseDone {
		b.WriteString(helpStyle.Render("enter: quit • q: quit"))
	} else {
		b.WriteString(helpStyle.Render("q: cancel"))
	}
	b.WriteString("\n")

	return b.String()
}

func (m model) renderSummary() string {
	var b strings.Builder

	if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).MarginLeft(2)
		b.WriteString(errStyle.Render("✗ " + m.err.Error()))
		b.WriteString("\n\n")
	} else {
		doneStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true).MarginLeft(2)
		b.WriteString(doneStyle.Render("✓ " + m.statusMsg))
		b.WriteString("\n\n")
	}
	if m.summary == nil {
		return b.String()
	}

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		MarginLeft(2)

	var lines []string
	lines = append(lines, fmt.Sprintf("Indexed: %s photos • Skipped: %d • Took %s",
		humanize.Comma(int64(m.summary.Indexed)), len(m.summary.Index.Skipped), m.summary.Elapsed.Round(100*time.Millisecond)))
	for _, o := range m.summary.Offsets {
		lines = append(lines, offsetLine(o))
	}
	b.WriteString(boxStyle.Render(strings.Join(lines, "\n")))
	return b.String()
}

// offsetLine summarizes one year offset for the CLI and TUI
func offsetLine(o OffsetResult) string {
	n := o.Selection.YearOffset
	label := fmt.Sprintf("%d %s back", n, yearWord(n))
	switch {
	case o.Assembled.OutputPath != "":
		size := ""
		if info, err := os.Stat(o.Assembled.OutputPath); err == nil {
			size = ", " + humanize.Bytes(uint64(info.Size()))
		}
		from := o.Selection.MatchedDate.String()
		if o.Selection.FallbackDays > 0 {
			from += fmt.Sprintf(" (%d days early)", o.Selection.FallbackDays)
		}
		return fmt.Sprintf("%s: %d photos from %s → %s%s",
			label, len(o.Assembled.Clips), from, filepath.Base(o.Assembled.OutputPath), size)
	case o.Err != nil:
		return fmt.Sprintf("%s: %v", label, o.Err)
	default:
		return fmt.Sprintf("%s: no photos near %s", label, o.Selection.Target)
	}
}

// Commands
func runGenerator(ctx context.Context, gen *Generator, progressChan chan Progress) tea.Cmd {
	return func() tea.Msg {
		summary, err := gen.Run(ctx)
		close(progressChan)
		return runCompleteMsg{summary: summary, err: err}
	}
}

// waitForProgress polls the progress channel and sends updates
func waitForProgress(progressChan <-chan Progress) tea.Cmd {
	return func() tea.Msg {
		prog, ok := <-progressChan
		if !ok {
			return nil
		}
		return progressMsg(prog)
	}
}

func runTUI(ctx context.Context, gen *Generator) (*RunSummary, error) {
	p := tea.NewProgram(initialModel(ctx, gen), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m := final.(model)
	if m.summary == nil {
		return nil, context.Canceled
	}
	return m.summary, m.err
}

func yearWord(n int) string {
	if n == 1 {
		return "year"
	}
	return "years"
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ",")
}

// truncatePath shortens a file path for display
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	if maxLen > 10 {
		return "..." + path[len(path)-maxLen+3:]
	}
	return path[:maxLen]
}
