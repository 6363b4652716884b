package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// configForm edits every config key in place
type configForm struct {
	path   string
	cfg    *ConfigFile
	inputs []textinput.Model
	focus  int

	saved bool
	err   error
}

func newConfigForm(path string, cfg *ConfigFile) configForm {
	f := configForm{path: path, cfg: cfg}
	for i, k := range configKeys {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = k.Default
		ti.CharLimit = 512
		ti.Width = 50
		ti.SetValue(*k.field(cfg))
		if i == 0 {
			ti.Focus()
		}
		f.inputs = append(f.inputs, ti)
	}
	return f
}

func (f configForm) Init() tea.Cmd {
	return textinput.Blink
}

func (f configForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			return f, tea.Quit

		case "ctrl+s":
			f.apply()
			if _, err := Resolve(f.cfg); err != nil {
				f.err = err
				return f, nil
			}
			if err := saveConfig(f.path, f.cfg); err != nil {
				f.err = err
				return f, nil
			}
			f.saved = true
			f.err = nil
			return f, tea.Quit

		case "tab", "down", "enter":
			return f, f.move(1)

		case "shift+tab", "up":
			return f, f.move(-1)
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

// move shifts focus by delta, wrapping around
func (f *configForm) move(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	return f.inputs[f.focus].Focus()
}

// apply copies input values back into the config file
func (f *configForm) apply() {
	for i, k := range configKeys {
		*k.field(f.cfg) = strings.TrimSpace(f.inputs[i].Value())
	}
}

func (f configForm) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		MarginLeft(2)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).MarginLeft(2)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(46)
	focusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Width(46)

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Memories Settings"))
	b.WriteString("\n")

	section := ""
	for i, k := range configKeys {
		if k.Section != section {
			section = k.Section
			b.WriteString("\n")
			b.WriteString(sectionStyle.Render(section))
			b.WriteString("\n")
		}
		label := labelStyle.Render(k.Label)
		cursor := "    "
		if i == f.focus {
			label = focusStyle.Render(k.Label)
			cursor = "  ► "
		}
		b.WriteString(fmt.Sprintf("%s%s %s\n", cursor, label, f.inputs[i].View()))
	}

	b.WriteString("\n")
	if f.err != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).MarginLeft(2).Render(f.err.Error()))
		b.WriteString("\n")
	}
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginLeft(2)
	b.WriteString(helpStyle.Render("tab/↓: next • shift+tab/↑: previous • ctrl+s: save • esc: discard"))
	b.WriteString("\n")
	return b.String()
}

// runConfigForm shows the editor and reports whether the file was saved
func runConfigForm(path string, cfg *ConfigFile) (bool, error) {
	p := tea.NewProgram(newConfigForm(path, cfg), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	return final.(configForm).saved, nil
}
