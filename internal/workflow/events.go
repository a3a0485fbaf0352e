package workflow

import (
	"time"

	"github.com/ShayCichocki/reqforge/internal/tracker"
	"github.com/ShayCichocki/reqforge/pkg/models"
)

// EventType represents the type of workflow event.
type EventType string

const (
	// EventRunStarted indicates a requirement was received.
	EventRunStarted EventType = "run_started"
	// EventParentCreated indicates the parent item exists.
	EventParentCreated EventType = "parent_created"
	// EventParentFailed indicates the parent item could not be created; the run stops.
	EventParentFailed EventType = "parent_failed"
	// EventDecomposing indicates subtask generation has started.
	EventDecomposing EventType = "decomposing"
	// EventSubtasksGenerated carries the generated subtask records.
	EventSubtasksGenerated EventType = "subtasks_generated"
	// EventDecompositionFailed indicates generation or extraction failed; no subtasks follow.
	EventDecompositionFailed EventType = "decomposition_failed"
	// EventLinkTypes carries the discovered relationship vocabulary.
	EventLinkTypes EventType = "link_types"
	// EventLinkTypeChosen names the relationship type that will be tried first.
	EventLinkTypeChosen EventType = "link_type_chosen"
	// EventSubtaskCreated indicates a development item was created.
	EventSubtaskCreated EventType = "subtask_created"
	// EventSubtaskFailed indicates a development item could not be created.
	EventSubtaskFailed EventType = "subtask_failed"
	// EventLinked indicates a development item was linked to the parent.
	EventLinked EventType = "linked"
	// EventLinkFailed indicates every link attempt for an item failed.
	EventLinkFailed EventType = "link_failed"
	// EventSubtaskSkipped indicates a created item had no record to generate test cases from.
	EventSubtaskSkipped EventType = "subtask_skipped"
	// EventTestCasesGenerating indicates test-case generation for an item has started.
	EventTestCasesGenerating EventType = "test_cases_generating"
	// EventTestCasesGenerated carries the generated test-case records for an item.
	EventTestCasesGenerated EventType = "test_cases_generated"
	// EventTestCaseGenerationFailed indicates generation or extraction failed for an item.
	EventTestCaseGenerationFailed EventType = "test_case_generation_failed"
	// EventTestCaseCreated indicates a test-case item was created.
	EventTestCaseCreated EventType = "test_case_created"
	// EventTestCaseFailed indicates a test-case item could not be created.
	EventTestCaseFailed EventType = "test_case_failed"
	// EventItemsListed carries the final project listing.
	EventItemsListed EventType = "items_listed"
	// EventListFailed indicates the final listing failed.
	EventListFailed EventType = "list_failed"
	// EventRunDone indicates the run reached a terminal stage.
	EventRunDone EventType = "run_done"
)

// Event is a progress notification emitted by a run.
// Only the fields relevant to Type are set.
type Event struct {
	Type  EventType
	Stage Stage
	// RunID identifies the run.
	RunID string
	// Key is the item the event is about.
	Key string
	// ParentKey is the hierarchical or link parent of Key.
	ParentKey string
	// Title is a human label for the item.
	Title   string
	Message string
	// Index and Total position the item within its batch, counting from 1.
	Index int
	Total int

	LinkType  string
	LinkTypes []tracker.LinkType
	Subtasks  []models.Subtask
	TestCases []models.TestCase
	Items     []tracker.Item

	Err       error
	Timestamp time.Time
}

// Sink receives run events. Emit is called from the goroutine running the workflow.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})
