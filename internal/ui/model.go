// ABOUTME: Bubbletea model for the receiver status view
// ABOUTME: Defines display state and update logic driven by session status messages
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/heywifi/heywifi-go/internal/session"
	"github.com/heywifi/heywifi-go/internal/version"
)

// Model represents the TUI state
type Model struct {
	// Session
	sessionID string
	state     session.State
	err       error

	// Capture
	device string
	format string

	// Stats
	frames    uint64
	messages  int
	truncated int

	// Result
	ssid string
	done bool

	// Debug
	showDebug bool

	// Dimensions
	width  int
	height int

	quit func()
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	case DoneMsg:
		m.done = true
		if msg.Err != nil {
			m.err = msg.Err
		}
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	s := ""
	s += m.renderHeader()
	s += m.renderCapture()
	s += m.renderStats()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders session state
func (m Model) renderHeader() string {
	icon := "…"
	switch m.state {
	case session.StateListening:
		icon = "♪"
	case session.StateExtracted:
		icon = "✓"
	case session.StateAborted:
		icon = "✗"
	case session.StateClosed:
		if m.err != nil {
			icon = "✗"
		} else {
			icon = "✓"
		}
	}

	return fmt.Sprintf(`┌─ %-51s┐
│ State:  %s %-42s │
├──────────────────────────────────────────────────────┤
`, version.String()+" ", icon, m.state)
}

// renderCapture renders the device and negotiated format
func (m Model) renderCapture() string {
	device := m.device
	if device == "" {
		device = "(none)"
	}
	format := m.format
	if format == "" {
		format = "(negotiating)"
	}
	return fmt.Sprintf("│ Device: %-44s │\n│ Format: %-44s │\n",
		truncate(device, 44), truncate(format, 44))
}

// renderStats renders loop counters and the result
func (m Model) renderStats() string {
	s := fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Frames: %-12d Messages: %-6d Truncated: %-4d│
`, m.frames, m.messages, m.truncated)

	switch {
	case m.ssid != "":
		s += fmt.Sprintf("│ SSID:   %-44s │\n", truncate(m.ssid, 44))
	case m.err != nil:
		s += fmt.Sprintf("│ Error:  %-44s │\n", truncate(m.err.Error(), 44))
	default:
		s += "│ Waiting for a transmission...                        │\n"
	}
	return s
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ d:Debug  q:Quit                                      │
└──────────────────────────────────────────────────────┘
`
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	return fmt.Sprintf("│ DEBUG:                                               │\n│   Session: %-41s │\n",
		truncate(m.sessionID, 41))
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.quit != nil {
			m.quit()
		}
		return m, tea.Quit
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	st := msg.Status
	m.sessionID = st.ID
	m.state = st.State
	if st.Device != "" {
		m.device = st.Device
	}
	if st.Format.SampleRate != 0 {
		m.format = st.Format.String()
	}
	m.frames = st.Frames
	m.messages = st.Messages
	m.truncated = st.Truncated
	if st.SSID != "" {
		m.ssid = st.SSID
	}
	if st.Err != nil {
		m.err = st.Err
	}
}

// StatusMsg updates TUI state
type StatusMsg struct {
	Status session.Status
}

// DoneMsg ends the program once the session has returned
type DoneMsg struct {
	Err error
}

// Utility functions
func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
