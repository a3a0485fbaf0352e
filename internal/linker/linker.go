// Package linker picks a relationship type from the tracker's vocabulary and
// links a child item to its parent, with a single fallback attempt.
package linker

import (
	"context"

	"github.com/ShayCichocki/reqforge/internal/debuglog"
	"github.com/ShayCichocki/reqforge/internal/throttle"
	"github.com/ShayCichocki/reqforge/internal/tracker"
)

// DefaultPreference is the ordered list of relationship names tried first.
var DefaultPreference = []string{"Relates", "Relates to", "Dependency", "Parent/Child", "Blocks"}

// LinkCreator records one relationship between two items.
type LinkCreator interface {
	CreateLink(ctx context.Context, outwardKey, inwardKey, typeName string) error
}

// Attempt is one relationship request and its outcome.
type Attempt struct {
	Type  string `json:"type" yaml:"type"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
	Err   error  `json:"-" yaml:"-"`
}

// Result summarizes ChooseAndLink.
type Result struct {
	// Linked is true when any attempt succeeded.
	Linked bool `json:"linked" yaml:"linked"`
	// Type is the type of the successful attempt, or the chosen type when none succeeded.
	Type     string    `json:"type,omitempty" yaml:"type,omitempty"`
	Attempts []Attempt `json:"attempts,omitempty" yaml:"attempts,omitempty"`
}

// Choose returns the first preferred name present in available, else the first
// available name. It returns false when available is empty.
func Choose(available []tracker.LinkType, preference []string) (string, bool) {
	if len(available) == 0 {
		return "", false
	}
	names := make(map[string]bool, len(available))
	for _, lt := range available {
		names[lt.Name] = true
	}
	for _, want := range preference {
		if names[want] {
			return want, true
		}
	}
	return available[0].Name, true
}

// Negotiator links items using the discovered vocabulary.
type Negotiator struct {
	creator    LinkCreator
	preference []string
	throttle   *throttle.Policy
	log        *debuglog.Logger
}

// New creates a Negotiator. A nil preference uses DefaultPreference.
func New(creator LinkCreator, preference []string, policy *throttle.Policy, log *debuglog.Logger) *Negotiator {
	if preference == nil {
		preference = DefaultPreference
	}
	return &Negotiator{
		creator:    creator,
		preference: append([]string(nil), preference...),
		throttle:   policy,
		log:        log,
	}
}

// Choose applies the negotiator's preference to available.
func (n *Negotiator) Choose(available []tracker.LinkType) (string, bool) {
	return Choose(available, n.preference)
}

// ChooseAndLink links outwardKey to inwardKey. When the first attempt fails and the
// vocabulary has a second entry, it retries once with that entry, whatever the
// first choice was. Failures are reported in the Result and never returned.
func (n *Negotiator) ChooseAndLink(ctx context.Context, outwardKey, inwardKey string, available []tracker.LinkType) Result {
	chosen, ok := n.Choose(available)
	if !ok {
		n.log.Log("[linker] no link types available, leaving %s unlinked", inwardKey)
		return Result{}
	}

	res := Result{Type: chosen}
	if n.try(ctx, &res, outwardKey, inwardKey, chosen) {
		return res
	}

	if len(available) < 2 {
		return res
	}
	n.try(ctx, &res, outwardKey, inwardKey, available[1].Name)
	return res
}

func (n *Negotiator) try(ctx context.Context, res *Result, outwardKey, inwardKey, typeName string) bool {
	n.throttle.Pause(throttle.CallLink)

	err := n.creator.CreateLink(ctx, outwardKey, inwardKey, typeName)
	attempt := Attempt{Type: typeName, Err: err}
	if err != nil {
		attempt.Error = err.Error()
	}
	res.Attempts = append(res.Attempts, attempt)
	if err != nil {
		n.log.Log("[linker] %s -> %s (%s) failed: %v", outwardKey, inwardKey, typeName, err)
		return false
	}

	n.log.Log("[linker] %s -> %s linked as %s", outwardKey, inwardKey, typeName)
	res.Linked = true
	res.Type = typeName
	return true
}
