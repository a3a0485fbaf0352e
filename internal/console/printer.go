// Package console renders run events as status lines on a terminal or any writer.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/ShayCichocki/reqforge/internal/tracker"
	"github.com/ShayCichocki/reqforge/internal/workflow"
	"github.com/ShayCichocki/reqforge/pkg/models"
)

const defaultWidth = 100

// Options configures a Printer.
type Options struct {
	// Color enables ANSI styling.
	Color bool
	// Width is the column budget for long lines. Zero means no truncation.
	Width int
	// Verbose prints every generated record in full.
	Verbose bool
}

// Printer is a workflow.Sink writing human-readable progress.
type Printer struct {
	mu   sync.Mutex
	out  io.Writer
	opts Options

	ok, fail, warn, info *color.Color
	heading              lipgloss.Style
	dim                  lipgloss.Style

	created, failed, tests int
}

var _ workflow.Sink = (*Printer)(nil)

// New creates a Printer for w, enabling color and sizing to the terminal when w is one.
func New(w io.Writer) *Printer {
	tty := IsTerminal(w)
	opts := Options{Color: tty, Verbose: true}
	if tty {
		opts.Width = TerminalWidth(w)
	}
	return NewWithOptions(w, opts)
}

// NewWithOptions creates a Printer with explicit options.
func NewWithOptions(w io.Writer, opts Options) *Printer {
	p := &Printer{
		out:  w,
		opts: opts,
		ok:   color.New(color.FgGreen),
		fail: color.New(color.FgRed),
		warn: color.New(color.FgYellow),
		info: color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{p.ok, p.fail, p.warn, p.info} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	p.heading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#45B7D1"))
	p.dim = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	if !opts.Color {
		p.heading = lipgloss.NewStyle()
		p.dim = lipgloss.NewStyle()
	}
	return p
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of the terminal behind w, or a default.
func TerminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			return tw
		}
	}
	return defaultWidth
}

// Truncate shortens s to width terminal cells. A non-positive width leaves s intact.
func Truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// Emit renders one event.
func (p *Printer) Emit(e workflow.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Type {
	case workflow.EventRunStarted:
		p.created, p.failed, p.tests = 0, 0, 0
		p.section("reqforge run " + e.RunID)
		p.line("Requirement: %s", e.Message)

	case workflow.EventParentCreated:
		p.status(p.ok, "✓", "Created parent %s: %s", e.Key, e.Title)
	case workflow.EventParentFailed:
		p.status(p.fail, "✗", "Failed to create parent item: %v", e.Err)

	case workflow.EventDecomposing:
		p.section("Generating subtasks")
	case workflow.EventSubtasksGenerated:
		p.line("Generated %d subtasks:", len(e.Subtasks))
		for i, s := range e.Subtasks {
			p.subtask(i+1, s)
		}
	case workflow.EventDecompositionFailed:
		p.status(p.warn, "⚠", "No subtasks generated: %v", e.Err)

	case workflow.EventLinkTypes:
		if e.Err != nil {
			p.status(p.warn, "⚠", "Could not fetch link types: %v", e.Err)
			return
		}
		p.printLinkTypes(e.LinkTypes)
	case workflow.EventLinkTypeChosen:
		if e.LinkType == "" {
			p.status(p.warn, "⚠", "%s", e.Message)
			return
		}
		p.line("Will use link type: %s", e.LinkType)

	case workflow.EventSubtaskCreated:
		p.created++
		p.status(p.ok, "✓", "[%d/%d] Created %s: %s", e.Index, e.Total, e.Key, e.Title)
	case workflow.EventSubtaskFailed:
		p.failed++
		p.status(p.fail, "✗", "[%d/%d] Failed to create %q: %v", e.Index, e.Total, e.Title, e.Err)
	case workflow.EventLinked:
		p.status(p.ok, "✓", "Linked %s → %s (%s)", e.ParentKey, e.Key, e.LinkType)
	case workflow.EventLinkFailed:
		p.status(p.warn, "⚠", "Could not link %s → %s: %v", e.ParentKey, e.Key, e.Err)

	case workflow.EventSubtaskSkipped:
		p.status(p.warn, "⚠", "Skipping %s: %s", e.Key, e.Message)
	case workflow.EventTestCasesGenerating:
		p.section(fmt.Sprintf("Test cases for %s: %s (%d/%d)", e.Key, e.Title, e.Index, e.Total))
	case workflow.EventTestCasesGenerated:
		p.line("Generated %d test cases for %s", len(e.TestCases), e.Key)
		if p.opts.Verbose {
			for _, tc := range e.TestCases {
				p.testCase(tc)
			}
		}
	case workflow.EventTestCaseGenerationFailed:
		p.status(p.warn, "⚠", "No test cases for %s: %v", e.Key, e.Err)
	case workflow.EventTestCaseCreated:
		p.tests++
		p.status(p.ok, "✓", "Created test item %s under %s", e.Key, e.ParentKey)
	case workflow.EventTestCaseFailed:
		p.failed++
		p.status(p.fail, "✗", "Failed to create %q under %s: %v", e.Title, e.ParentKey, e.Err)

	case workflow.EventItemsListed:
		p.printItems(e.Items)
	case workflow.EventListFailed:
		p.status(p.warn, "⚠", "Could not list project items: %v", e.Err)

	case workflow.EventRunDone:
		if e.Stage == workflow.StageFailed {
			p.status(p.fail, "✗", "Run %s failed", e.RunID)
			return
		}
		p.section("Done")
		p.line("%d development items, %d test items created, %d failures", p.created, p.tests, p.failed)
	}
}

// PrintLinkTypes prints a relationship vocabulary.
func (p *Printer) PrintLinkTypes(types []tracker.LinkType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printLinkTypes(types)
}

// printLinkTypes is PrintLinkTypes for callers already holding the lock.
func (p *Printer) printLinkTypes(types []tracker.LinkType) {
	p.section("Available link types")
	if len(types) == 0 {
		p.line("(none)")
		return
	}
	for _, lt := range types {
		p.line("- %s (inward: %s, outward: %s)", lt.Name, lt.Inward, lt.Outward)
	}
}

// PrintItems prints a project listing.
func (p *Printer) PrintItems(items []tracker.Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printItems(items)
}

// printItems is PrintItems for callers already holding the lock.
func (p *Printer) printItems(items []tracker.Item) {
	p.section("Visible items")
	if len(items) == 0 {
		p.line("No items found.")
		return
	}
	for _, it := range items {
		p.line("%s: %s [Status: %s] (Assigned to: %s)", it.Key, it.Summary, it.Status, it.Assignee)
	}
}

// Status prints a single status line.
func (p *Printer) Status(ok bool, format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ok {
		p.status(p.ok, "✓", format, args...)
		return
	}
	p.status(p.fail, "✗", format, args...)
}

// Field prints an aligned "key: value" line.
func (p *Printer) Field(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s %s\n", p.info.Sprint(key+":"), value)
}

func (p *Printer) subtask(n int, s models.Subtask) {
	p.line("%d. %s: %s", n, s.Title, s.Summary)
	p.line("   %s", p.dim.Render(fmt.Sprintf("category %s, component %s", s.Category, s.Component)))
}

func (p *Printer) testCase(tc models.TestCase) {
	p.line("--- %s: %s (Priority: %s) ---", tc.TestID, tc.TestName, tc.Priority)
	p.line("Description: %s", tc.Description)
	p.line("Steps:")
	for i, step := range tc.Steps {
		p.line("  %d. %s", i+1, step)
	}
	p.line("Expected Result: %s", tc.ExpectedResult)
}

func (p *Printer) section(title string) {
	fmt.Fprintf(p.out, "\n%s\n", p.heading.Render(Truncate(title, p.opts.Width)))
}

func (p *Printer) status(c *color.Color, symbol, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	msg = Truncate(msg, p.opts.Width-runewidth.StringWidth(symbol)-1)
	fmt.Fprintf(p.out, "%s %s\n", c.Sprint(symbol), msg)
}

func (p *Printer) line(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.opts.Width > 0 {
		msg = Truncate(strings.ReplaceAll(msg, "\n", " "), p.opts.Width)
	}
	fmt.Fprintln(p.out, msg)
}
