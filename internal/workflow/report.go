package workflow

import (
	"time"

	"github.com/ShayCichocki/reqforge/internal/linker"
	"github.com/ShayCichocki/reqforge/internal/tracker"
	"github.com/ShayCichocki/reqforge/pkg/models"
)

// Stage is a point in the run state machine.
type Stage string

const (
	StageReceived           Stage = "received"
	StageParentCreated      Stage = "parent_created"
	StageSubtasksDecomposed Stage = "subtasks_decomposed"
	StageSubtasksCreated    Stage = "subtasks_created"
	StageDone               Stage = "done"
	StageFailed             Stage = "failed"
)

// Terminal reports whether no further transition happens from s.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// Report records everything a run created. Runs move forward only; nothing in the
// report is ever rolled back.
type Report struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	Requirement string    `json:"requirement" yaml:"requirement"`
	Project     string    `json:"project" yaml:"project"`
	Stage       Stage     `json:"stage" yaml:"stage"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time `json:"finished_at" yaml:"finished_at"`

	ParentKey string `json:"parent_key,omitempty" yaml:"parent_key,omitempty"`
	// Error is set when parent creation failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	Generated          []models.Subtask `json:"generated,omitempty" yaml:"generated,omitempty"`
	DecompositionError string           `json:"decomposition_error,omitempty" yaml:"decomposition_error,omitempty"`

	LinkTypes      []tracker.LinkType `json:"link_types,omitempty" yaml:"link_types,omitempty"`
	LinkTypesError string             `json:"link_types_error,omitempty" yaml:"link_types_error,omitempty"`
	LinkType       string             `json:"link_type,omitempty" yaml:"link_type,omitempty"`

	// CreatedKeys lists development item keys in creation order.
	CreatedKeys []string `json:"created_keys,omitempty" yaml:"created_keys,omitempty"`
	// TaskData maps each created development key to the record it was built from.
	TaskData map[string]models.Subtask `json:"task_data,omitempty" yaml:"task_data,omitempty"`
	Subtasks []SubtaskOutcome          `json:"subtasks,omitempty" yaml:"subtasks,omitempty"`

	Listed    []tracker.Item `json:"listed,omitempty" yaml:"listed,omitempty"`
	ListError string         `json:"list_error,omitempty" yaml:"list_error,omitempty"`

	Usage *Usage `json:"usage,omitempty" yaml:"usage,omitempty"`
}

// SubtaskOutcome is the fate of one generated subtask record.
type SubtaskOutcome struct {
	Title string `json:"title" yaml:"title"`
	// Key is empty when creation failed.
	Key   string        `json:"key,omitempty" yaml:"key,omitempty"`
	Error string        `json:"error,omitempty" yaml:"error,omitempty"`
	Link  linker.Result `json:"link" yaml:"link"`

	TestCases           []TestCaseOutcome `json:"test_cases,omitempty" yaml:"test_cases,omitempty"`
	TestGenerationError string            `json:"test_generation_error,omitempty" yaml:"test_generation_error,omitempty"`
}

// TestCaseOutcome is the fate of one generated test case.
type TestCaseOutcome struct {
	TestID string `json:"test_id" yaml:"test_id"`
	Name   string `json:"name" yaml:"name"`
	Key    string `json:"key,omitempty" yaml:"key,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Usage is completion token accounting for a run.
type Usage struct {
	Calls        int     `json:"calls" yaml:"calls"`
	InputTokens  int64   `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int64   `json:"output_tokens" yaml:"output_tokens"`
	CostUSD      float64 `json:"cost_usd" yaml:"cost_usd"`
}

// AllKeys returns every item key the run created: parent, development items and
// test-case items, in creation order.
func (r *Report) AllKeys() []string {
	var keys []string
	if r.ParentKey != "" {
		keys = append(keys, r.ParentKey)
	}
	for _, s := range r.Subtasks {
		if s.Key == "" {
			continue
		}
		keys = append(keys, s.Key)
	}
	for _, s := range r.Subtasks {
		for _, tc := range s.TestCases {
			if tc.Key != "" {
				keys = append(keys, tc.Key)
			}
		}
	}
	return keys
}

// TestCaseCount returns the number of test-case items created.
func (r *Report) TestCaseCount() int {
	n := 0
	for _, s := range r.Subtasks {
		for _, tc := range s.TestCases {
			if tc.Key != "" {
				n++
			}
		}
	}
	return n
}

func (r *Report) outcome(key string) *SubtaskOutcome {
	for i := range r.Subtasks {
		if r.Subtasks[i].Key == key {
			return &r.Subtasks[i]
		}
	}
	return nil
}
