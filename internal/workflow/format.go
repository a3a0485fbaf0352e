package workflow

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/reqforge/pkg/models"
)

// ParentSummary is the summary of the parent item for requirement.
func ParentSummary(requirement string) string {
	return "Main Task: " + requirement
}

// ParentDescription is the description of the parent item for requirement.
func ParentDescription(requirement string) string {
	return fmt.Sprintf("This is the parent ticket for: %s\n\nSubtasks will be linked to this ticket.", requirement)
}

// SubtaskDescription is the description of a development item.
func SubtaskDescription(s models.Subtask, parentKey string) string {
	return fmt.Sprintf("%s\n\nCategory: %s\nComponent: %s\nParent Task: %s",
		s.Summary, s.Category, s.Component, parentKey)
}

// TestCaseSummary is the summary of a test-case item.
func TestCaseSummary(tc models.TestCase) string {
	return fmt.Sprintf("Test: %s [%s]", tc.TestName, tc.Priority)
}

// TestCaseDescription is the description of a test-case item.
func TestCaseDescription(tc models.TestCase) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Test Case: %s\n\n", tc.TestName)
	fmt.Fprintf(&b, "Description: %s\n\n", tc.Description)
	b.WriteString("Steps:\n")
	b.WriteString(NumberedSteps(tc.Steps))
	fmt.Fprintf(&b, "\n\nExpected Result: %s\n\n", tc.ExpectedResult)
	fmt.Fprintf(&b, "Priority: %s\n", tc.Priority)
	return b.String()
}

// NumberedSteps renders steps as "1. a\n2. b".
func NumberedSteps(steps []string) string {
	lines := make([]string, len(steps))
	for i, s := range steps {
		lines[i] = fmt.Sprintf("%d. %s", i+1, s)
	}
	return strings.Join(lines, "\n")
}
