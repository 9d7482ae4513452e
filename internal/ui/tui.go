// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the receiver status view
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/heywifi/heywifi-go/internal/session"
)

// NewModel creates a new TUI model. quit is called when the user exits.
func NewModel(quit func()) Model {
	return Model{
		state: session.StateIdle,
		quit:  quit,
	}
}

// Program drives the status view from session callbacks
type Program struct {
	p *tea.Program
}

// New creates the status view program. Call Run in its own goroutine.
func New(quit func(), opts ...tea.ProgramOption) *Program {
	return &Program{p: tea.NewProgram(NewModel(quit), opts...)}
}

// Run blocks until the program exits
func (p *Program) Run() error {
	_, err := p.p.Run()
	return err
}

// OnStatus forwards a session snapshot; use it as session.Deps.OnStatus
func (p *Program) OnStatus(st session.Status) {
	p.p.Send(StatusMsg{Status: st})
}

// Done tells the view the session returned err
func (p *Program) Done(err error) {
	p.p.Send(DoneMsg{Err: err})
}
