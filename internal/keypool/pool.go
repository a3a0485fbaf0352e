// Package keypool holds the interchangeable credentials used for completion
// calls and the cursor that selects the current one.
package keypool

import "errors"

// ErrEmptyPool is returned when a pool is built without credentials.
var ErrEmptyPool = errors.New("credential pool is empty")

// Pool is an ordered set of credentials with a cursor.
// The cursor is always a valid index. A Pool is not safe for concurrent use;
// it is owned by a single completion client.
type Pool struct {
	keys   []string
	cursor int
}

// New creates a pool over keys, starting at the first one.
// The slice is copied.
func New(keys []string) (*Pool, error) {
	if len(keys) == 0 {
		return nil, ErrEmptyPool
	}
	owned := make([]string, len(keys))
	copy(owned, keys)
	return &Pool{keys: owned}, nil
}

// Current returns the credential under the cursor.
func (p *Pool) Current() string {
	return p.keys[p.cursor]
}

// Advance moves the cursor to the next credential, wrapping at the end.
func (p *Pool) Advance() {
	p.cursor = (p.cursor + 1) % len(p.keys)
}

// Cursor returns the index of the current credential.
func (p *Pool) Cursor() int {
	return p.cursor
}

// Len returns the number of credentials in the pool.
func (p *Pool) Len() int {
	return len(p.keys)
}

// Mask returns a display-safe form of a credential.
// Shows the first 7 and last 4 characters of long values.
func Mask(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 15 {
		return "***"
	}
	return key[:7] + "..." + key[len(key)-4:]
}
