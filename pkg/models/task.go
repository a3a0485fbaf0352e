// Package models holds the records produced by requirement decomposition.
package models

const (
	// MinRecords is the fewest records a single generation may yield.
	MinRecords = 3
	// MaxRecords is the most records a single generation may yield.
	MaxRecords = 5
)

// Subtask is one development subtask produced by decomposing a requirement.
type Subtask struct {
	// Summary describes the work in under 100 words.
	Summary string `json:"summary" yaml:"summary"`
	// Category is the area of work.
	Category Category `json:"category" yaml:"category"`
	// Component is the suggested module or component name.
	Component string `json:"component" yaml:"component"`
	// Title is the short title used as the tracker item summary.
	Title string `json:"title" yaml:"title"`
}

// TestCase is one verification checklist entry for a subtask.
type TestCase struct {
	// TestID is a short identifier such as "TC-1".
	TestID string `json:"test_id" yaml:"test_id"`
	// TestName is the short descriptive name.
	TestName string `json:"test_name" yaml:"test_name"`
	// Description explains what the test covers.
	Description string `json:"description" yaml:"description"`
	// Steps are the ordered steps to perform. Never empty.
	Steps []string `json:"steps" yaml:"steps"`
	// ExpectedResult is the observable outcome of a passing test.
	ExpectedResult string `json:"expected_result" yaml:"expected_result"`
	// Priority ranks the test case.
	Priority Priority `json:"priority" yaml:"priority"`
}
