// Package decompose turns a requirement into subtask records and a subtask into
// test-case records by prompting the completion service and validating its reply.
package decompose

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/reqforge/pkg/models"
)

// Completer produces raw text for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Decomposer prompts the completion service and extracts structured records.
type Decomposer struct {
	completer Completer
}

// New creates a new Decomposer with the given completer.
func New(completer Completer) *Decomposer {
	return &Decomposer{completer: completer}
}

// Subtasks returns 3 to 5 development subtasks for requirement.
// Errors are either a completion failure or a *MalformedResponseError.
func (d *Decomposer) Subtasks(ctx context.Context, requirement string) ([]models.Subtask, error) {
	raw, err := d.completer.Complete(ctx, SubtaskPrompt(requirement))
	if err != nil {
		return nil, fmt.Errorf("complete decomposition: %w", err)
	}
	return ExtractSubtasks(raw)
}

// TestCases returns 3 to 5 test cases for the subtask described by summary.
func (d *Decomposer) TestCases(ctx context.Context, summary string) ([]models.TestCase, error) {
	raw, err := d.completer.Complete(ctx, TestCasePrompt(summary))
	if err != nil {
		return nil, fmt.Errorf("complete test cases: %w", err)
	}
	return ExtractTestCases(raw)
}

// SubtaskPrompt builds the decomposition prompt for requirement.
func SubtaskPrompt(requirement string) string {
	return fmt.Sprintf(subtaskPrompt, requirement)
}

// TestCasePrompt builds the test-case prompt for a subtask summary.
func TestCasePrompt(summary string) string {
	return fmt.Sprintf(testCasePrompt, summary)
}
