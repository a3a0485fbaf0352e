// Package workflow runs the requirement-to-work-hierarchy state machine:
// parent item, generated development items linked to it, and generated
// test-case items under each development item.
//
// A run moves forward only. Failures after the parent exists are recorded in
// the Report and the run continues; only parent creation failure stops it.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/reqforge/internal/debuglog"
	"github.com/ShayCichocki/reqforge/internal/linker"
	"github.com/ShayCichocki/reqforge/internal/throttle"
	"github.com/ShayCichocki/reqforge/internal/tracker"
	"github.com/ShayCichocki/reqforge/pkg/models"
)

// Decomposer generates structured records through the completion service.
type Decomposer interface {
	Subtasks(ctx context.Context, requirement string) ([]models.Subtask, error)
	TestCases(ctx context.Context, summary string) ([]models.TestCase, error)
}

// Linker links a development item to the parent.
type Linker interface {
	Choose(available []tracker.LinkType) (string, bool)
	ChooseAndLink(ctx context.Context, outwardKey, inwardKey string, available []tracker.LinkType) linker.Result
}

// Config wires a Workflow.
type Config struct {
	Decomposer Decomposer
	Tracker    tracker.Tracker
	Linker     Linker
	// Project is the tracker project for the final listing.
	Project string
	// ExcludeKeys are hidden from the final listing.
	ExcludeKeys []string
	Sink        Sink
	Throttle    *throttle.Policy
	Logger      *debuglog.Logger
	// NewRunID overrides run id generation.
	NewRunID func() string
}

// Workflow runs requirements one at a time.
type Workflow struct {
	cfg  Config
	sink Sink
	log  *debuglog.Logger
}

// New creates a Workflow. Decomposer, Tracker and Linker are required.
func New(cfg Config) (*Workflow, error) {
	if cfg.Decomposer == nil || cfg.Tracker == nil || cfg.Linker == nil {
		return nil, fmt.Errorf("workflow: decomposer, tracker and linker are required")
	}
	if cfg.NewRunID == nil {
		cfg.NewRunID = func() string { return uuid.New().String() }
	}
	sink := cfg.Sink
	if sink == nil {
		sink = Discard
	}
	return &Workflow{cfg: cfg, sink: sink, log: cfg.Logger}, nil
}

// Run processes one requirement to a terminal stage. The returned error is non-nil
// only when the parent item could not be created; the report is always returned.
func (w *Workflow) Run(ctx context.Context, requirement string) (*Report, error) {
	rep := &Report{
		RunID:       w.cfg.NewRunID(),
		Requirement: requirement,
		Project:     w.cfg.Project,
		Stage:       StageReceived,
		StartedAt:   time.Now(),
		TaskData:    make(map[string]models.Subtask),
	}
	w.log.Log("[workflow] run %s started: %q", rep.RunID, requirement)
	w.emit(rep, Event{Type: EventRunStarted, Message: requirement})

	parent, err := w.cfg.Tracker.CreateItem(ctx, tracker.CreateRequest{
		Summary:     ParentSummary(requirement),
		Description: ParentDescription(requirement),
		Kind:        tracker.KindTask,
	})
	if err != nil {
		rep.Stage = StageFailed
		rep.Error = err.Error()
		rep.FinishedAt = time.Now()
		w.log.Log("[workflow] run %s failed creating parent: %v", rep.RunID, err)
		w.emit(rep, Event{Type: EventParentFailed, Err: err})
		w.emit(rep, Event{Type: EventRunDone})
		return rep, fmt.Errorf("create parent item: %w", err)
	}
	rep.ParentKey = parent.Key
	rep.Stage = StageParentCreated
	w.emit(rep, Event{Type: EventParentCreated, Key: parent.Key, Title: parent.Summary})

	subtasks := w.decompose(ctx, rep)
	rep.Stage = StageSubtasksDecomposed

	if len(subtasks) > 0 {
		w.createSubtasks(ctx, rep, subtasks)
	}
	rep.Stage = StageSubtasksCreated

	for i, key := range rep.CreatedKeys {
		w.createTestCases(ctx, rep, key, i+1)
	}

	w.list(ctx, rep)

	rep.Stage = StageDone
	rep.FinishedAt = time.Now()
	w.log.Log("[workflow] run %s done: %d development items, %d test items",
		rep.RunID, len(rep.CreatedKeys), rep.TestCaseCount())
	w.emit(rep, Event{Type: EventRunDone})
	return rep, nil
}

func (w *Workflow) decompose(ctx context.Context, rep *Report) []models.Subtask {
	w.emit(rep, Event{Type: EventDecomposing, Message: rep.Requirement})

	subtasks, err := w.cfg.Decomposer.Subtasks(ctx, rep.Requirement)
	if err != nil {
		rep.DecompositionError = err.Error()
		w.log.Log("[workflow] decomposition failed: %v", err)
		w.emit(rep, Event{Type: EventDecompositionFailed, Err: err})
		return nil
	}

	rep.Generated = subtasks
	w.emit(rep, Event{Type: EventSubtasksGenerated, Subtasks: subtasks, Total: len(subtasks)})
	return subtasks
}

func (w *Workflow) createSubtasks(ctx context.Context, rep *Report, subtasks []models.Subtask) {
	available, err := w.cfg.Tracker.ListLinkTypes(ctx)
	if err != nil {
		rep.LinkTypesError = err.Error()
		w.log.Log("[workflow] link types unavailable: %v", err)
		available = nil
	}
	rep.LinkTypes = available
	w.emit(rep, Event{Type: EventLinkTypes, LinkTypes: available, Err: err})

	if chosen, ok := w.cfg.Linker.Choose(available); ok {
		rep.LinkType = chosen
		w.emit(rep, Event{Type: EventLinkTypeChosen, LinkType: chosen})
	} else {
		w.emit(rep, Event{Type: EventLinkTypeChosen, Message: "no link types available; items will not be linked"})
	}

	for i, s := range subtasks {
		outcome := SubtaskOutcome{Title: s.Title}

		item, err := w.cfg.Tracker.CreateItem(ctx, tracker.CreateRequest{
			Summary:     s.Title,
			Description: SubtaskDescription(s, rep.ParentKey),
			Kind:        tracker.KindTask,
		})
		if err != nil {
			outcome.Error = err.Error()
			rep.Subtasks = append(rep.Subtasks, outcome)
			w.log.Log("[workflow] subtask %d %q not created: %v", i+1, s.Title, err)
			w.emit(rep, Event{Type: EventSubtaskFailed, Title: s.Title, Index: i + 1, Total: len(subtasks), Err: err})
			continue
		}

		outcome.Key = item.Key
		rep.CreatedKeys = append(rep.CreatedKeys, item.Key)
		rep.TaskData[item.Key] = s
		w.emit(rep, Event{Type: EventSubtaskCreated, Key: item.Key, ParentKey: rep.ParentKey, Title: s.Title, Index: i + 1, Total: len(subtasks)})

		if len(available) > 0 {
			outcome.Link = w.cfg.Linker.ChooseAndLink(ctx, rep.ParentKey, item.Key, available)
			if outcome.Link.Linked {
				w.emit(rep, Event{Type: EventLinked, Key: item.Key, ParentKey: rep.ParentKey, LinkType: outcome.Link.Type})
			} else {
				w.emit(rep, Event{Type: EventLinkFailed, Key: item.Key, ParentKey: rep.ParentKey, LinkType: outcome.Link.Type, Err: lastAttemptErr(outcome.Link)})
			}
		}
		rep.Subtasks = append(rep.Subtasks, outcome)
	}
}

func lastAttemptErr(res linker.Result) error {
	if len(res.Attempts) == 0 {
		return nil
	}
	return res.Attempts[len(res.Attempts)-1].Err
}

func (w *Workflow) createTestCases(ctx context.Context, rep *Report, key string, index int) {
	record, ok := rep.TaskData[key]
	if !ok {
		w.log.Log("[workflow] no record for %s, skipping test cases", key)
		w.emit(rep, Event{Type: EventSubtaskSkipped, Key: key, Message: "no task data"})
		return
	}
	outcome := rep.outcome(key)
	total := len(rep.CreatedKeys)

	w.emit(rep, Event{Type: EventTestCasesGenerating, Key: key, Title: record.Title, Index: index, Total: total})

	cases, err := w.cfg.Decomposer.TestCases(ctx, record.Summary)
	if err != nil {
		outcome.TestGenerationError = err.Error()
		w.log.Log("[workflow] test cases for %s not generated: %v", key, err)
		w.emit(rep, Event{Type: EventTestCaseGenerationFailed, Key: key, Title: record.Title, Err: err})
	} else {
		w.emit(rep, Event{Type: EventTestCasesGenerated, Key: key, Title: record.Title, TestCases: cases, Total: len(cases)})
	}

	for i, tc := range cases {
		tco := TestCaseOutcome{TestID: tc.TestID, Name: tc.TestName}

		item, err := w.cfg.Tracker.CreateItem(ctx, tracker.CreateRequest{
			Summary:     TestCaseSummary(tc),
			Description: TestCaseDescription(tc),
			Kind:        tracker.KindSubtask,
			ParentKey:   key,
		})
		if err != nil {
			tco.Error = err.Error()
			outcome.TestCases = append(outcome.TestCases, tco)
			w.emit(rep, Event{Type: EventTestCaseFailed, ParentKey: key, Title: TestCaseSummary(tc), Index: i + 1, Total: len(cases), Err: err})
			continue
		}

		tco.Key = item.Key
		outcome.TestCases = append(outcome.TestCases, tco)
		w.emit(rep, Event{Type: EventTestCaseCreated, Key: item.Key, ParentKey: key, Title: TestCaseSummary(tc), Index: i + 1, Total: len(cases)})
		w.cfg.Throttle.Pause(throttle.CallTestCase)
	}

	w.cfg.Throttle.Pause(throttle.CallSubtaskBatch)
}

func (w *Workflow) list(ctx context.Context, rep *Report) {
	items, err := w.cfg.Tracker.ListItems(ctx, w.cfg.Project, w.cfg.ExcludeKeys)
	if err != nil {
		rep.ListError = err.Error()
		w.log.Log("[workflow] listing failed: %v", err)
		w.emit(rep, Event{Type: EventListFailed, Err: err})
		return
	}
	rep.Listed = items
	w.emit(rep, Event{Type: EventItemsListed, Items: items, Total: len(items)})
}

func (w *Workflow) emit(rep *Report, e Event) {
	e.RunID = rep.RunID
	e.Stage = rep.Stage
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	w.sink.Emit(e)
}
