package tracker

import (
	"errors"
	"fmt"
)

// Kind is the lifecycle role of a created item.
type Kind string

const (
	// KindTask is a top-level item.
	KindTask Kind = "task"
	// KindSubtask is a child item; it requires a parent key.
	KindSubtask Kind = "subtask"
)

// Item is a tracker item as seen by reqforge.
type Item struct {
	Key      string `json:"key" yaml:"key"`
	Summary  string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Status   string `json:"status,omitempty" yaml:"status,omitempty"`
	Assignee string `json:"assignee,omitempty" yaml:"assignee,omitempty"`
}

// LinkType is one entry of the tracker's relationship vocabulary.
type LinkType struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Inward  string `json:"inward"`
	Outward string `json:"outward"`
}

// CreateRequest describes an item to create.
type CreateRequest struct {
	// Project overrides the client's default project key.
	Project     string
	Summary     string
	Description string
	Kind        Kind
	// ParentKey is the hierarchical parent. Required for KindSubtask.
	ParentKey string
}

// ErrRequestFailed matches every non-success tracker response via errors.Is.
var ErrRequestFailed = errors.New("tracker request failed")

// RequestFailedError carries the status and body of a failed tracker call.
// StatusCode is zero when the request never got a response.
type RequestFailedError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestFailedError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s: %v", ErrRequestFailed, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s: status %d: %s", ErrRequestFailed, e.Op, e.StatusCode, e.Body)
}

// Is lets errors.Is(err, ErrRequestFailed) match.
func (e *RequestFailedError) Is(target error) bool {
	return target == ErrRequestFailed
}

// Unwrap returns the transport error, if any.
func (e *RequestFailedError) Unwrap() error {
	return e.Err
}
