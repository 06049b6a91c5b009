package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/lifelog/internal/cli/formatter"
	"github.com/alexanderramin/lifelog/internal/importer"
	"github.com/alexanderramin/lifelog/internal/service"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

var errInterrupted = errors.New("import interrupted")

type progressMsg importer.Progress

type importDoneMsg struct {
	out *service.ImportOutcome
	err error
}

// progressModel shows a running import: a spinner, the current stage, and
// a bar driven by the pipeline's percentages.
type progressModel struct {
	bar     progress.Model
	spinner spinner.Model
	cancel  context.CancelFunc

	current importer.Progress
	done    bool
	out     *service.ImportOutcome
	err     error
}

func newProgressModel(cancel context.CancelFunc) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = formatter.StylePurple
	return progressModel{
		bar:     progress.New(progress.WithGradient(string(formatter.ColorBlue), string(formatter.ColorGreen)), progress.WithWidth(40)),
		spinner: s,
		cancel:  cancel,
	}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.current = importer.Progress(msg)
		return m, nil
	case importDoneMsg:
		m.done = true
		m.out, m.err = msg.out, msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			if m.cancel != nil {
				m.cancel()
			}
			m.done = true
			m.err = errInterrupted
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-24, 10), 60)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	label := formatter.StageLabel(m.current.Stage)
	if m.current.Stage == "" {
		label = "Starting"
	}
	fmt.Fprintf(&b, "%s %s  %s\n", m.spinner.View(), formatter.Bold(label), m.bar.ViewAs(float64(m.current.Percent)/100))
	if m.current.Message != "" {
		b.WriteString("  " + formatter.Dim(m.current.Message) + "\n")
	}
	return b.String()
}
