package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/reqforge/internal/workflow"
)

const maxLogLines = 12

// RunFunc runs the workflow for a requirement. It is called once, off the UI goroutine.
type RunFunc func(requirement string) (*workflow.Report, error)

// RunDoneMsg is sent when the run returns.
type RunDoneMsg struct {
	Report *workflow.Report
	Err    error
}

// RunState tracks progress of the current run.
type RunState struct {
	Requirement string
	RunID       string
	Stage       workflow.Stage
	ParentKey   string
	LinkType    string
	// Generated is the number of development records produced.
	Generated int
	// Created and Failed count development items.
	Created int
	Failed  int
	// TestsCreated counts test-case items; TestsFailed counts failed test items.
	TestsCreated int
	TestsFailed  int
	// Current is the development item whose test cases are being generated.
	Current      string
	CurrentIndex int
}

// LogEntry is one line of the activity log.
type LogEntry struct {
	Timestamp time.Time
	Symbol    string
	Message   string
}

// RunApp is the bubbletea model for a single run.
type RunApp struct {
	run     RunFunc
	input   *InputField
	spinner spinner.Model

	state    RunState
	logs     []LogEntry
	width    int
	height   int
	started  bool
	done     bool
	quitting bool
	report   *workflow.Report
	err      error

	headerStyle lipgloss.Style
	labelStyle  lipgloss.Style
	valueStyle  lipgloss.Style
	okStyle     lipgloss.Style
	warnStyle   lipgloss.Style
	errorStyle  lipgloss.Style
	dimStyle    lipgloss.Style
}

// NewRunApp creates a RunApp. With an empty requirement it asks for one first.
func NewRunApp(requirement string, run RunFunc) *RunApp {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	a := &RunApp{
		run:     run,
		spinner: s,
		width:   80,
		state:   RunState{Requirement: strings.TrimSpace(requirement), Stage: workflow.StageReceived},

		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")),
		labelStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(16),
		valueStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true),
		okStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")),
		warnStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		dimStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
	}
	if a.state.Requirement == "" {
		a.input = NewInputField()
	}
	return a
}

// NewRunProgram creates a program for the run view.
func NewRunProgram(requirement string, run RunFunc, opts ...tea.ProgramOption) (*tea.Program, *RunApp) {
	app := NewRunApp(requirement, run)
	p := tea.NewProgram(app, opts...)
	return p, app
}

// Result returns the report and error of a finished run.
func (a *RunApp) Result() (*workflow.Report, error) {
	return a.report, a.err
}

// Done reports whether the run returned.
func (a *RunApp) Done() bool {
	return a.done
}

// State returns the current run state.
func (a *RunApp) State() RunState {
	return a.state
}

// Init implements tea.Model.
func (a *RunApp) Init() tea.Cmd {
	if a.input != nil {
		return textinput.Blink
	}
	return tea.Batch(a.spinner.Tick, a.start(a.state.Requirement))
}

func (a *RunApp) start(requirement string) tea.Cmd {
	a.started = true
	a.state.Requirement = requirement
	run := a.run
	return func() tea.Msg {
		report, err := run(requirement)
		return RunDoneMsg{Report: report, Err: err}
	}
}

// Update implements tea.Model.
func (a *RunApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			a.quitting = true
			return a, tea.Quit
		case "esc":
			if !a.started {
				a.quitting = true
				return a, tea.Quit
			}
		case "q":
			if a.done {
				return a, tea.Quit
			}
		}
		if !a.started && a.input != nil {
			var cmd tea.Cmd
			a.input, cmd = a.input.Update(msg)
			return a, cmd
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.input != nil {
			a.input.SetWidth(msg.Width)
		}

	case RequirementSubmittedMsg:
		if a.started {
			return a, nil
		}
		return a, tea.Batch(a.spinner.Tick, a.start(msg.Requirement))

	case EventMsg:
		a.apply(msg.Event)

	case RunDoneMsg:
		a.done = true
		a.report = msg.Report
		a.err = msg.Err
		if msg.Report != nil {
			a.state.Stage = msg.Report.Stage
		}

	case spinner.TickMsg:
		if a.done {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	default:
		if !a.started && a.input != nil {
			var cmd tea.Cmd
			a.input, cmd = a.input.Update(msg)
			return a, cmd
		}
	}

	return a, nil
}

// apply folds an event into the state and the activity log.
func (a *RunApp) apply(e workflow.Event) {
	a.state.RunID = e.RunID
	a.state.Stage = e.Stage

	switch e.Type {
	case workflow.EventParentCreated:
		a.state.ParentKey = e.Key
		a.log("✓", "Created parent %s", e.Key)
	case workflow.EventParentFailed:
		a.log("✗", "Parent creation failed: %v", e.Err)
	case workflow.EventDecomposing:
		a.log("•", "Generating subtasks")
	case workflow.EventSubtasksGenerated:
		a.state.Generated = len(e.Subtasks)
		a.log("✓", "Generated %d subtasks", len(e.Subtasks))
	case workflow.EventDecompositionFailed:
		a.log("⚠", "No subtasks generated: %v", e.Err)
	case workflow.EventLinkTypes:
		if e.Err != nil {
			a.log("⚠", "Link types unavailable: %v", e.Err)
		}
	case workflow.EventLinkTypeChosen:
		a.state.LinkType = e.LinkType
	case workflow.EventSubtaskCreated:
		a.state.Created++
		a.log("✓", "Created %s: %s", e.Key, e.Title)
	case workflow.EventSubtaskFailed:
		a.state.Failed++
		a.log("✗", "Failed %q: %v", e.Title, e.Err)
	case workflow.EventLinkFailed:
		a.log("⚠", "Could not link %s", e.Key)
	case workflow.EventTestCasesGenerating:
		a.state.Current = e.Key
		a.state.CurrentIndex = e.Index
		a.log("•", "Generating test cases for %s", e.Key)
	case workflow.EventTestCaseGenerationFailed:
		a.log("⚠", "No test cases for %s: %v", e.Key, e.Err)
	case workflow.EventTestCaseCreated:
		a.state.TestsCreated++
	case workflow.EventTestCaseFailed:
		a.state.TestsFailed++
		a.log("✗", "Failed test item under %s: %v", e.ParentKey, e.Err)
	case workflow.EventItemsListed:
		a.log("✓", "Project has %d visible items", len(e.Items))
	case workflow.EventListFailed:
		a.log("⚠", "Listing failed: %v", e.Err)
	}
}

func (a *RunApp) log(symbol, format string, args ...any) {
	a.logs = append(a.logs, LogEntry{
		Timestamp: time.Now(),
		Symbol:    symbol,
		Message:   fmt.Sprintf(format, args...),
	})
}

// View implements tea.Model.
func (a *RunApp) View() string {
	if a.quitting && !a.done {
		return "Run cancelled.\n"
	}

	var b strings.Builder
	b.WriteString(a.headerStyle.Render("=== reqforge ==="))
	b.WriteString("\n\n")

	if !a.started && a.input != nil {
		b.WriteString("Enter the main task/requirement:\n")
		b.WriteString(a.input.View())
		b.WriteString("\n")
		b.WriteString(a.dimStyle.Render("Enter to start, Esc to cancel"))
		b.WriteString("\n")
		return b.String()
	}

	a.field(&b, "Requirement:", a.state.Requirement)
	if a.state.RunID != "" {
		a.field(&b, "Run:", a.state.RunID)
	}
	stage := string(a.state.Stage)
	if !a.done {
		stage = a.spinner.View() + " " + stage
	}
	a.field(&b, "Stage:", stage)
	if a.state.ParentKey != "" {
		a.field(&b, "Parent:", a.state.ParentKey)
	}
	if a.state.LinkType != "" {
		a.field(&b, "Link type:", a.state.LinkType)
	}
	if a.state.Generated > 0 {
		a.field(&b, "Subtasks:", fmt.Sprintf("%d/%d created, %d failed", a.state.Created, a.state.Generated, a.state.Failed))
		b.WriteString(a.renderProgressBar(a.progress(), 30))
		b.WriteString("\n")
	}
	if a.state.TestsCreated > 0 || a.state.TestsFailed > 0 {
		a.field(&b, "Test items:", fmt.Sprintf("%d created, %d failed", a.state.TestsCreated, a.state.TestsFailed))
	}

	b.WriteString("\n")
	b.WriteString(a.renderLogs())

	b.WriteString("\n")
	switch {
	case a.done && a.err != nil:
		b.WriteString(a.errorStyle.Render(fmt.Sprintf("Error: %v", a.err)))
	case a.done:
		b.WriteString(a.okStyle.Render("Run complete! Press q to exit."))
	default:
		b.WriteString(a.dimStyle.Render("Press Ctrl+C to cancel"))
	}
	b.WriteString("\n")

	return b.String()
}

func (a *RunApp) field(b *strings.Builder, label, value string) {
	b.WriteString(a.labelStyle.Render(label))
	b.WriteString(a.valueStyle.Render(value))
	b.WriteString("\n")
}

// progress is the share of development items whose test cases were processed.
func (a *RunApp) progress() float64 {
	if a.state.Created == 0 {
		return 0
	}
	done := a.state.CurrentIndex
	if a.done {
		done = a.state.Created
	}
	return float64(done) / float64(a.state.Created) * 100
}

func (a *RunApp) renderProgressBar(pct float64, width int) string {
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}

	filled := int(pct / 100 * float64(width))
	empty := width - filled

	bar := a.okStyle.Render(strings.Repeat("█", filled)) +
		a.dimStyle.Render(strings.Repeat("░", empty))

	return fmt.Sprintf("  %s %.0f%%", bar, pct)
}

func (a *RunApp) renderLogs() string {
	if len(a.logs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("252")).
		Render("Activity Log"))
	b.WriteString("\n")

	start := 0
	if len(a.logs) > maxLogLines {
		start = len(a.logs) - maxLogLines
	}

	for _, entry := range a.logs[start:] {
		ts := a.dimStyle.Render(entry.Timestamp.Format("15:04:05"))
		b.WriteString(fmt.Sprintf("  %s %s %s\n", ts, entry.Symbol, entry.Message))
	}

	return b.String()
}
