// Package tui renders the live synthesis log during space creation as a
// scrolling bubbletea view. The CLI feeds it stage changes and streamed
// log messages via program messages; the model itself holds no I/O.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
)

// StageMsg reports a generation progress stage change.
type StageMsg domain.GenerationProgress

// LogMsg carries one streamed log message.
type LogMsg domain.LogMessage

// StatusMsg reports the log stream connection status.
type StatusMsg domain.StreamStatus

// DoneMsg ends the view. Err is nil on success.
type DoneMsg struct {
	Err error
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	stageStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	loggerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
)

// Model is the log view.
type Model struct {
	name     string
	spinner  spinner.Model
	viewport viewport.Model

	stage    domain.GenerationProgress
	status   domain.StreamStatus
	messages []domain.LogMessage
	err      error
	done     bool
	ready    bool
}

// NewModel creates a log view for the named space.
func NewModel(name string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = stageStyle

	return Model{
		name:    name,
		spinner: sp,
		stage:   domain.ProgressGatheringData,
		status:  domain.StreamConnecting,
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles view messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || (m.done && msg.String() == "q") {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		headerHeight := 2
		footerHeight := 1
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - headerHeight - footerHeight
		if m.viewport.Height < 1 {
			m.viewport.Height = 1
		}
		m.ready = true
		m.refreshContent()

	case StageMsg:
		m.stage = domain.GenerationProgress(msg)

	case StatusMsg:
		m.status = domain.StreamStatus(msg)

	case LogMsg:
		m.messages = append(m.messages, domain.LogMessage(msg))
		m.refreshContent()

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		if m.err != nil {
			m.stage = domain.ProgressFailed
		}
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the log view.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Creating space"))
	if m.name != "" {
		b.WriteString(" " + titleStyle.Render(m.name))
	}
	b.WriteString("\n")

	if m.done && m.err == nil {
		b.WriteString(stageStyle.Render(string(domain.ProgressCompleted)))
	} else if m.stage == domain.ProgressFailed {
		b.WriteString(errorStyle.Render(string(domain.ProgressFailed)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(": " + m.err.Error()))
		}
	} else {
		b.WriteString(fmt.Sprintf("%s%s (%.0f%%)",
			m.spinner.View(),
			stageStyle.Render(string(m.stage)),
			m.stage.Percent()*100))
	}
	b.WriteString("\n")

	if m.ready {
		b.WriteString(m.viewport.View())
	} else {
		b.WriteString(m.renderMessages())
	}
	b.WriteString("\n")

	b.WriteString(mutedStyle.Render(fmt.Sprintf("log stream: %s", m.status)))
	return b.String()
}

// Messages returns the messages received so far.
func (m Model) Messages() []domain.LogMessage {
	return m.messages
}

// Err returns the terminal error, if any.
func (m Model) Err() error {
	return m.err
}

// refreshContent re-renders the viewport and follows the tail.
func (m *Model) refreshContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

// renderMessages styles each message by level.
func (m Model) renderMessages() string {
	lines := make([]string, 0, len(m.messages))
	for _, message := range m.messages {
		lines = append(lines, renderMessage(message))
	}
	return strings.Join(lines, "\n")
}

func renderMessage(message domain.LogMessage) string {
	style := infoStyle
	switch {
	case message.Type == domain.LogTypeError || message.Level == "ERROR":
		style = errorStyle
	case message.Level == "WARNING":
		style = warnStyle
	case message.Type == domain.LogTypeProgress:
		style = stageStyle
	}

	line := style.Render(message.Message)
	if message.Logger != "" {
		line = loggerStyle.Render(message.Logger+" ") + line
	}
	if !message.Timestamp.IsZero() {
		line = mutedStyle.Render(message.Timestamp.Format("15:04:05")+" ") + line
	}
	return line
}
