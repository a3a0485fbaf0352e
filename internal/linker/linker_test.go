package linker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/reqforge/internal/throttle"
	"github.com/ShayCichocki/reqforge/internal/tracker"
)

type call struct {
	outward, inward, typeName string
}

type fakeCreator struct {
	calls []call
	fail  map[string]bool
}

func (f *fakeCreator) CreateLink(_ context.Context, outward, inward, typeName string) error {
	f.calls = append(f.calls, call{outward, inward, typeName})
	if f.fail[typeName] {
		return errors.New("link rejected")
	}
	return nil
}

func vocab(names ...string) []tracker.LinkType {
	out := make([]tracker.LinkType, len(names))
	for i, n := range names {
		out[i] = tracker.LinkType{Name: n}
	}
	return out
}

func TestChoose(t *testing.T) {
	tests := []struct {
		name      string
		available []tracker.LinkType
		want      string
		ok        bool
	}{
		{"preferred listed last", vocab("Blocks", "Cloners", "Duplicate", "Relates"), "Relates", true},
		{"second preference", vocab("Cloners", "Relates to"), "Relates to", true},
		{"earlier preference wins over order", vocab("Blocks", "Dependency"), "Dependency", true},
		{"no preferred name", vocab("Custom"), "Custom", true},
		{"empty vocabulary", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Choose(tt.available, DefaultPreference)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChoose_CaseSensitive(t *testing.T) {
	got, ok := Choose(vocab("relates", "Other"), DefaultPreference)
	require.True(t, ok)
	assert.Equal(t, "relates", got, "falls back to the first entry")
}

func TestChooseAndLink_FirstAttemptSucceeds(t *testing.T) {
	fc := &fakeCreator{}
	n := New(fc, nil, throttle.Zero(), nil)

	res := n.ChooseAndLink(context.Background(), "CPG-1", "CPG-2", vocab("Blocks", "Relates"))

	assert.True(t, res.Linked)
	assert.Equal(t, "Relates", res.Type)
	require.Len(t, res.Attempts, 1)
	assert.Equal(t, []call{{"CPG-1", "CPG-2", "Relates"}}, fc.calls)
}

func TestChooseAndLink_RetriesWithSecondEntry(t *testing.T) {
	fc := &fakeCreator{fail: map[string]bool{"Relates": true}}
	n := New(fc, nil, throttle.Zero(), nil)

	res := n.ChooseAndLink(context.Background(), "CPG-1", "CPG-2", vocab("Blocks", "Cloners", "Relates"))

	assert.True(t, res.Linked)
	assert.Equal(t, "Cloners", res.Type)
	require.Len(t, res.Attempts, 2)
	assert.Error(t, res.Attempts[0].Err)
	assert.NoError(t, res.Attempts[1].Err)
}

func TestChooseAndLink_RetryUsesSecondEntryEvenIfSameType(t *testing.T) {
	fc := &fakeCreator{fail: map[string]bool{"Relates": true}}
	n := New(fc, nil, throttle.Zero(), nil)

	res := n.ChooseAndLink(context.Background(), "P", "C", vocab("Blocks", "Relates"))

	assert.False(t, res.Linked)
	assert.Equal(t, "Relates", res.Type)
	assert.Equal(t, []call{{"P", "C", "Relates"}, {"P", "C", "Relates"}}, fc.calls)
}

func TestChooseAndLink_NoRetryWithSingleEntry(t *testing.T) {
	fc := &fakeCreator{fail: map[string]bool{"Custom": true}}
	n := New(fc, nil, throttle.Zero(), nil)

	res := n.ChooseAndLink(context.Background(), "P", "C", vocab("Custom"))

	assert.False(t, res.Linked)
	assert.Len(t, fc.calls, 1)
}

func TestChooseAndLink_EmptyVocabulary(t *testing.T) {
	fc := &fakeCreator{}
	n := New(fc, nil, throttle.Zero(), nil)

	res := n.ChooseAndLink(context.Background(), "P", "C", nil)

	assert.False(t, res.Linked)
	assert.Empty(t, res.Attempts)
	assert.Empty(t, fc.calls)
}

func TestChooseAndLink_PausesBeforeEveryAttempt(t *testing.T) {
	var pauses []time.Duration
	policy := throttle.New(map[throttle.Call]time.Duration{throttle.CallLink: 5 * time.Millisecond}).
		WithSleeper(func(d time.Duration) { pauses = append(pauses, d) })

	fc := &fakeCreator{fail: map[string]bool{"Relates": true}}
	n := New(fc, nil, policy, nil)
	n.ChooseAndLink(context.Background(), "P", "C", vocab("Relates", "Blocks"))

	assert.Equal(t, []time.Duration{5 * time.Millisecond, 5 * time.Millisecond}, pauses)
}

func TestNew_CustomPreference(t *testing.T) {
	n := New(&fakeCreator{}, []string{"Blocks"}, throttle.Zero(), nil)
	got, ok := n.Choose(vocab("Relates", "Blocks"))
	require.True(t, ok)
	assert.Equal(t, "Blocks", got)
}
