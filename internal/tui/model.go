package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avokadi/husk/internal/job"
)

// Messages
type (
	tickMsg time.Time

	// DoneMsg ends the program when packaging finishes.
	DoneMsg struct{ Err error }
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Model displays the jobs of one packaging run.
type Model struct {
	title    string
	jobs     func() []job.Status
	onCancel func()

	frame    int
	finished bool
	err      error
}

// NewModel creates a progress model. jobs is polled every frame;
// onCancel is invoked when the user aborts.
func NewModel(title string, jobs func() []job.Status, onCancel func()) *Model {
	return &Model{title: title, jobs: jobs, onCancel: onCancel}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Init() tea.Cmd {
	return tick()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.onCancel != nil {
				m.onCancel()
			}
			return m, tea.Quit
		}
	case tickMsg:
		m.frame++
		return m, tick()
	case DoneMsg:
		m.finished = true
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(titleStyle.Render(m.title)))
	b.WriteString("\n\n")

	for _, s := range m.jobs() {
		b.WriteString("  ")
		b.WriteString(m.renderJob(s))
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	switch {
	case m.finished && m.err != nil:
		b.WriteString(failStyle.Render(fmt.Sprintf("✗ packaging failed: %v", m.err)))
	case m.finished:
		b.WriteString(doneStyle.Render("✓ packaging complete"))
	default:
		b.WriteString(helpStyle.Render("q: cancel"))
	}
	b.WriteByte('\n')

	return b.String()
}

func (m *Model) renderJob(s job.Status) string {
	name := normalStyle.Render(s.Name)
	switch s.State {
	case job.StateRunning:
		spin := spinnerFrames[m.frame%len(spinnerFrames)]
		return fmt.Sprintf("%s %s %s", runningStyle.Render(spin), name, dimStyle.Render("running"))
	case job.StateCompleted:
		return fmt.Sprintf("%s %s", doneStyle.Render("✓"), name)
	case job.StateFailed:
		detail := ""
		if s.Err != nil {
			detail = " " + dimStyle.Render(s.Err.Error())
		}
		return fmt.Sprintf("%s %s%s", failStyle.Render("✗"), name, detail)
	case job.StateCanceled:
		return fmt.Sprintf("%s %s", cancelStyle.Render("⊘"), name)
	default:
		return fmt.Sprintf("%s %s", dimStyle.Render("·"), name)
	}
}
