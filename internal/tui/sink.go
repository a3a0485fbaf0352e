package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/reqforge/internal/workflow"
)

// EventMsg carries a workflow event into the program.
type EventMsg struct {
	Event workflow.Event
}

// ProgramSink forwards workflow events to a running tea.Program.
// Events emitted before Attach are dropped.
type ProgramSink struct {
	mu      sync.Mutex
	program *tea.Program
}

var _ workflow.Sink = (*ProgramSink)(nil)

// Attach sets the receiving program.
func (s *ProgramSink) Attach(p *tea.Program) {
	s.mu.Lock()
	s.program = p
	s.mu.Unlock()
}

// Emit sends e to the attached program.
func (s *ProgramSink) Emit(e workflow.Event) {
	s.mu.Lock()
	p := s.program
	s.mu.Unlock()
	if p != nil {
		p.Send(EventMsg{Event: e})
	}
}
