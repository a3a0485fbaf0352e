package api

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/reqforge/internal/debuglog"
	"github.com/ShayCichocki/reqforge/internal/keypool"
	"github.com/ShayCichocki/reqforge/internal/throttle"
)

// ErrAllCredentialsExhausted is returned when every credential in the pool
// failed for a single completion call.
var ErrAllCredentialsExhausted = errors.New("all completion credentials failed")

// Completer runs completions with failover across a credential pool.
// It owns the pool: nothing else advances its cursor.
type Completer struct {
	gen      Generator
	pool     *keypool.Pool
	throttle *throttle.Policy
	log      *debuglog.Logger
}

// NewCompleter creates a completer. A nil policy never pauses and a nil logger discards.
func NewCompleter(gen Generator, pool *keypool.Pool, policy *throttle.Policy, log *debuglog.Logger) *Completer {
	return &Completer{
		gen:      gen,
		pool:     pool,
		throttle: policy,
		log:      log,
	}
}

// Complete returns the generated text for prompt.
//
// Starting at the current credential, each credential is tried at most once.
// Every failure advances the cursor; rate-limit failures also pause first.
// When the cursor has come back around to where it started, one more pause lets
// shared rate limits cool down before ErrAllCredentialsExhausted is reported.
// On success the cursor stays on the credential that worked.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	start := c.pool.Cursor()
	n := c.pool.Len()

	for attempt := 1; attempt <= n; attempt++ {
		idx := c.pool.Cursor()
		key := c.pool.Current()

		text, err := c.gen.Generate(ctx, key, prompt)
		if err == nil {
			c.log.Log("[completion] credential #%d succeeded on attempt %d/%d", idx, attempt, n)
			return text, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		c.log.Log("[completion] credential #%d (%s) failed: %v", idx, keypool.Mask(key), err)
		if IsRateLimited(err) {
			c.throttle.Pause(throttle.CallRateLimited)
		}
		c.pool.Advance()
		if c.pool.Cursor() == start {
			c.throttle.Pause(throttle.CallKeysCycled)
		}
	}

	c.log.Log("[completion] all %d credentials failed", n)
	return "", ErrAllCredentialsExhausted
}

// IsRateLimited reports whether err signals rate limiting or quota exhaustion.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == 429 {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "rate limit")
}
