// Package throttle holds the fixed pauses used to stay under remote rate limits.
//
// Every pause in a run goes through a Policy so the whole delay table can be
// configured in one place and replaced with zero delays in tests. Pauses are
// unconditional sleeps; they do not adapt and are not cancellable.
package throttle

import "time"

// Call names a point in a run where a fixed pause is applied.
type Call string

const (
	// CallRateLimited is the pause after a completion attempt failed with a
	// rate-limit or quota signal.
	CallRateLimited Call = "rate_limited"
	// CallKeysCycled is the extra pause once every credential has been tried.
	CallKeysCycled Call = "keys_cycled"
	// CallLink is the pause before every relationship attempt.
	CallLink Call = "link"
	// CallTestCase is the pause after each test-case item is created.
	CallTestCase Call = "test_case"
	// CallSubtaskBatch is the pause between consecutive subtasks during
	// test-case generation.
	CallSubtaskBatch Call = "subtask_batch"
)

// Policy maps calls to fixed delays.
type Policy struct {
	delays map[Call]time.Duration
	sleep  func(time.Duration)
}

// New creates a policy from a delay table. Calls missing from the table do not pause.
func New(delays map[Call]time.Duration) *Policy {
	table := make(map[Call]time.Duration, len(delays))
	for call, d := range delays {
		table[call] = d
	}
	return &Policy{delays: table, sleep: time.Sleep}
}

// Default returns the standard delay table.
func Default() *Policy {
	return New(map[Call]time.Duration{
		CallRateLimited:  time.Second,
		CallKeysCycled:   2 * time.Second,
		CallLink:         time.Second,
		CallTestCase:     time.Second,
		CallSubtaskBatch: 2 * time.Second,
	})
}

// Zero returns a policy that never pauses.
func Zero() *Policy {
	return New(nil)
}

// WithSleeper returns a copy of the policy that pauses through fn instead of time.Sleep.
func (p *Policy) WithSleeper(fn func(time.Duration)) *Policy {
	cp := New(p.delays)
	cp.sleep = fn
	return cp
}

// Delay returns the configured delay for call.
func (p *Policy) Delay(call Call) time.Duration {
	if p == nil {
		return 0
	}
	return p.delays[call]
}

// Pause blocks for the delay configured for call.
// A nil policy or a zero delay returns immediately.
func (p *Policy) Pause(call Call) {
	d := p.Delay(call)
	if d <= 0 {
		return
	}
	p.sleep(d)
}
