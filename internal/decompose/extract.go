package decompose

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ShayCichocki/reqforge/pkg/models"
)

// ErrMalformedResponse matches every extraction failure via errors.Is.
var ErrMalformedResponse = errors.New("malformed completion response")

// MalformedResponseError reports why a completion could not be turned into records.
// Raw holds the full completion text for diagnostics.
type MalformedResponseError struct {
	Raw    string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedResponse, e.Reason)
}

// Is lets errors.Is(err, ErrMalformedResponse) match.
func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// Preview returns at most n bytes of the raw response.
func (e *MalformedResponseError) Preview(n int) string {
	if len(e.Raw) <= n {
		return e.Raw
	}
	return e.Raw[:n] + "... (truncated)"
}

// ExtractSubtasks parses raw completion text into 3 to 5 validated subtask records.
func ExtractSubtasks(raw string) ([]models.Subtask, error) {
	objects, err := extractObjects(raw)
	if err != nil {
		return nil, err
	}

	records := make([]models.Subtask, 0, len(objects))
	for i, obj := range objects {
		rec, reason := subtaskFrom(obj)
		if reason != "" {
			return nil, malformed(raw, "record %d: %s", i, reason)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ExtractTestCases parses raw completion text into 3 to 5 validated test-case records.
func ExtractTestCases(raw string) ([]models.TestCase, error) {
	objects, err := extractObjects(raw)
	if err != nil {
		return nil, err
	}

	records := make([]models.TestCase, 0, len(objects))
	for i, obj := range objects {
		rec, reason := testCaseFrom(obj)
		if reason != "" {
			return nil, malformed(raw, "record %d: %s", i, reason)
		}
		records = append(records, rec)
	}
	return records, nil
}

// locateArray returns the slice from the first '[' to the last ']' inclusive,
// or raw unchanged when there is no such ordered pair.
func locateArray(raw string) string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end <= start {
		return raw
	}
	return raw[start : end+1]
}

// extractObjects parses the untyped tree and checks it is an array of 3-5 objects.
func extractObjects(raw string) ([]gjson.Result, error) {
	doc := strings.TrimSpace(locateArray(raw))
	if doc == "" {
		return nil, malformed(raw, "empty response")
	}
	if !gjson.Valid(doc) {
		return nil, malformed(raw, "invalid JSON")
	}

	root := gjson.Parse(doc)
	if !root.IsArray() {
		return nil, malformed(raw, "top-level value is not an array")
	}

	items := root.Array()
	if len(items) < models.MinRecords || len(items) > models.MaxRecords {
		return nil, malformed(raw, "got %d records, want %d to %d", len(items), models.MinRecords, models.MaxRecords)
	}
	for i, item := range items {
		if !item.IsObject() {
			return nil, malformed(raw, "record %d is not an object", i)
		}
	}
	return items, nil
}

func subtaskFrom(obj gjson.Result) (models.Subtask, string) {
	var rec models.Subtask
	var reason string

	if rec.Summary, reason = requiredString(obj, "summary"); reason != "" {
		return rec, reason
	}
	var category string
	if category, reason = requiredString(obj, "category"); reason != "" {
		return rec, reason
	}
	rec.Category = models.Category(category)
	if !rec.Category.Valid() {
		return rec, fmt.Sprintf("unknown category %q", category)
	}
	if rec.Component, reason = requiredString(obj, "component"); reason != "" {
		return rec, reason
	}
	if rec.Title, reason = requiredString(obj, "title"); reason != "" {
		return rec, reason
	}
	return rec, ""
}

func testCaseFrom(obj gjson.Result) (models.TestCase, string) {
	var rec models.TestCase
	var reason string

	if rec.TestID, reason = requiredString(obj, "test_id"); reason != "" {
		return rec, reason
	}
	if rec.TestName, reason = requiredString(obj, "test_name"); reason != "" {
		return rec, reason
	}
	if rec.Description, reason = requiredString(obj, "description"); reason != "" {
		return rec, reason
	}

	steps := obj.Get("steps")
	if !steps.Exists() {
		return rec, `missing field "steps"`
	}
	if !steps.IsArray() {
		return rec, `field "steps" is not an array`
	}
	for j, step := range steps.Array() {
		if step.Type != gjson.String {
			return rec, fmt.Sprintf("step %d is not a string", j)
		}
		rec.Steps = append(rec.Steps, step.String())
	}
	if len(rec.Steps) == 0 {
		return rec, `field "steps" is empty`
	}

	if rec.ExpectedResult, reason = requiredString(obj, "expected_result"); reason != "" {
		return rec, reason
	}
	var priority string
	if priority, reason = requiredString(obj, "priority"); reason != "" {
		return rec, reason
	}
	rec.Priority = models.Priority(priority)
	if !rec.Priority.Valid() {
		return rec, fmt.Sprintf("unknown priority %q", priority)
	}
	return rec, ""
}

// requiredString returns the string field name of obj, or a reason it is unusable.
func requiredString(obj gjson.Result, name string) (string, string) {
	v := obj.Get(name)
	if !v.Exists() {
		return "", fmt.Sprintf("missing field %q", name)
	}
	if v.Type != gjson.String {
		return "", fmt.Sprintf("field %q is not a string", name)
	}
	return v.String(), ""
}

func malformed(raw, format string, args ...interface{}) *MalformedResponseError {
	return &MalformedResponseError{Raw: raw, Reason: fmt.Sprintf(format, args...)}
}
