package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()

	updated, cmd := m.Update(msg)
	model, ok := updated.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestStageProgression(t *testing.T) {
	m := NewModel("Histamine")
	assert.Contains(t, m.View(), "Gathering Data")

	m, _ = update(t, m, StageMsg(domain.ProgressCreatingSpace))
	view := m.View()
	assert.Contains(t, view, "Creating Space")
	assert.Contains(t, view, "33%")
}

func TestLogMessagesAccumulate(t *testing.T) {
	m := NewModel("Histamine")

	m, _ = update(t, m, LogMsg(domain.LogMessage{
		Type:    domain.LogTypeLog,
		Level:   "INFO",
		Message: "Connected to log stream",
	}))
	m, _ = update(t, m, LogMsg(domain.LogMessage{
		Type:      domain.LogTypeProgress,
		Message:   "Embedding records",
		Timestamp: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}))

	require.Len(t, m.Messages(), 2)
	view := m.View()
	assert.Contains(t, view, "Connected to log stream")
	assert.Contains(t, view, "Embedding records")
	assert.Contains(t, view, "09:30:00")
}

func TestStreamStatusShown(t *testing.T) {
	m := NewModel("Histamine")
	m, _ = update(t, m, StatusMsg(domain.StreamConnected))
	assert.Contains(t, m.View(), "log stream: connected")
}

func TestDoneQuits(t *testing.T) {
	m := NewModel("Histamine")

	m, cmd := update(t, m, DoneMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Contains(t, m.View(), "Completed")
	assert.NoError(t, m.Err())
}

func TestFailureShowsError(t *testing.T) {
	m := NewModel("Histamine")

	m, _ = update(t, m, DoneMsg{Err: errors.New("task failed: embedding error")})
	view := m.View()
	assert.Contains(t, view, "Failed")
	assert.Contains(t, view, "embedding error")
}

func TestCtrlCQuits(t *testing.T) {
	m := NewModel("Histamine")

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
