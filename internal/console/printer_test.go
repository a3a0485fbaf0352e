package console

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ShayCichocki/reqforge/internal/tracker"
	"github.com/ShayCichocki/reqforge/internal/workflow"
	"github.com/ShayCichocki/reqforge/pkg/models"
)

func plain(buf *bytes.Buffer) *Printer {
	return NewWithOptions(buf, Options{Verbose: true})
}

func TestNew_NonTerminalHasNoColor(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)
	p.Status(true, "ready")

	assert.Equal(t, "✓ ready\n", buf.String())
	assert.False(t, IsTerminal(&buf))
	assert.Equal(t, defaultWidth, TerminalWidth(&buf))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "unlimited text", Truncate("unlimited text", 0))

	got := Truncate("abcdefghij", 5)
	assert.Equal(t, "abcd…", got)

	// Wide runes count as two cells.
	got = Truncate("日本語のテキスト", 6)
	assert.LessOrEqual(t, len([]rune(got)), 3)
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestEmit_RunLifecycle(t *testing.T) {
	var buf bytes.Buffer
	p := plain(&buf)

	p.Emit(workflow.Event{Type: workflow.EventRunStarted, RunID: "r1", Message: "Add user login"})
	p.Emit(workflow.Event{Type: workflow.EventParentCreated, Key: "CPG-1", Title: "Main Task: Add user login"})
	p.Emit(workflow.Event{Type: workflow.EventSubtasksGenerated, Subtasks: []models.Subtask{
		{Title: "Login API", Summary: "Build endpoint", Category: models.CategoryBackend, Component: "auth"},
	}})
	p.Emit(workflow.Event{Type: workflow.EventLinkTypes, LinkTypes: []tracker.LinkType{{Name: "Relates", Inward: "relates to", Outward: "relates to"}}})
	p.Emit(workflow.Event{Type: workflow.EventLinkTypeChosen, LinkType: "Relates"})
	p.Emit(workflow.Event{Type: workflow.EventSubtaskCreated, Key: "CPG-2", Title: "Login API", Index: 1, Total: 2})
	p.Emit(workflow.Event{Type: workflow.EventSubtaskFailed, Title: "Login form", Index: 2, Total: 2, Err: errors.New("400")})
	p.Emit(workflow.Event{Type: workflow.EventLinked, Key: "CPG-2", ParentKey: "CPG-1", LinkType: "Relates"})
	p.Emit(workflow.Event{Type: workflow.EventTestCasesGenerated, Key: "CPG-2", TestCases: []models.TestCase{{
		TestID: "TC-1", TestName: "Valid login", Description: "d", Steps: []string{"open", "submit"},
		ExpectedResult: "ok", Priority: models.PriorityHigh,
	}}})
	p.Emit(workflow.Event{Type: workflow.EventTestCaseCreated, Key: "CPG-3", ParentKey: "CPG-2"})
	p.Emit(workflow.Event{Type: workflow.EventItemsListed, Items: []tracker.Item{
		{Key: "CPG-1", Summary: "Main Task: Add user login", Status: "To Do", Assignee: "Unassigned"},
	}})
	p.Emit(workflow.Event{Type: workflow.EventRunDone, Stage: workflow.StageDone})

	out := buf.String()
	for _, want := range []string{
		"reqforge run r1",
		"Requirement: Add user login",
		"✓ Created parent CPG-1: Main Task: Add user login",
		"1. Login API: Build endpoint",
		"- Relates (inward: relates to, outward: relates to)",
		"Will use link type: Relates",
		"✓ [1/2] Created CPG-2: Login API",
		`✗ [2/2] Failed to create "Login form": 400`,
		"✓ Linked CPG-1 → CPG-2 (Relates)",
		"--- TC-1: Valid login (Priority: High) ---",
		"  2. submit",
		"Expected Result: ok",
		"✓ Created test item CPG-3 under CPG-2",
		"CPG-1: Main Task: Add user login [Status: To Do] (Assigned to: Unassigned)",
		"1 development items, 1 test items created, 1 failures",
	} {
		assert.Contains(t, out, want)
	}
}

func TestEmit_ParentFailure(t *testing.T) {
	var buf bytes.Buffer
	p := plain(&buf)

	p.Emit(workflow.Event{Type: workflow.EventParentFailed, Err: errors.New("status 401")})
	p.Emit(workflow.Event{Type: workflow.EventRunDone, RunID: "r2", Stage: workflow.StageFailed})

	out := buf.String()
	assert.Contains(t, out, "✗ Failed to create parent item: status 401")
	assert.Contains(t, out, "✗ Run r2 failed")
	assert.NotContains(t, out, "Done")
}

func TestEmit_TruncatesToWidth(t *testing.T) {
	var buf bytes.Buffer
	p := NewWithOptions(&buf, Options{Width: 20})

	p.Emit(workflow.Event{Type: workflow.EventSubtaskCreated, Key: "CPG-2", Title: strings.Repeat("x", 50), Index: 1, Total: 1})

	line := strings.TrimSuffix(buf.String(), "\n")
	assert.LessOrEqual(t, len([]rune(line)), 20)
	assert.True(t, strings.HasSuffix(line, "…"))
}

func TestPrintItems_Empty(t *testing.T) {
	var buf bytes.Buffer
	plain(&buf).PrintItems(nil)
	assert.Contains(t, buf.String(), "No items found.")
}

func TestPrintLinkTypes_Empty(t *testing.T) {
	var buf bytes.Buffer
	plain(&buf).PrintLinkTypes(nil)
	assert.Contains(t, buf.String(), "(none)")
}
