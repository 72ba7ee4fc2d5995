// Package retry retries credential lookups that fail transiently, such as a
// slow metadata server while resolving Application Default Credentials.
//
// Provisioning stages and connectivity checks are single-attempt and must
// not be wrapped in Get.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Policy controls how many attempts Get makes and how long it waits between
// them. The wait before attempt n+1 is a random duration in
// [0, min(Initial*2^(n-1), Max)].
type Policy struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration

	// Retryable reports whether an error is worth another attempt.
	// Nil means Transient.
	Retryable func(error) bool

	// OnRetry, when set, is called before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// CredentialPolicy is the policy used for token lookups.
func CredentialPolicy() Policy {
	return Policy{
		Attempts: 3,
		Initial:  250 * time.Millisecond,
		Max:      2 * time.Second,
	}
}

// Get calls fn until it succeeds, returns a non-retryable error, or the
// attempts run out. The last error is returned as is.
func Get[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := max(p.Attempts, 1)
	retryable := p.Retryable
	if retryable == nil {
		retryable = Transient
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= attempts || !retryable(err) {
			return zero, err
		}

		wait := p.wait(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
		if wait == 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (p Policy) wait(attempt int) time.Duration {
	if p.Initial <= 0 {
		return 0
	}
	ceiling := p.Initial << min(attempt-1, 30)
	if ceiling <= 0 || (p.Max > 0 && ceiling > p.Max) {
		ceiling = max(p.Max, p.Initial)
	}
	return rand.N(ceiling + 1)
}

// Transient reports whether err looks temporary: network timeouts, deadline
// overruns, and token endpoint responses of 429 or 5xx. Cancellation is
// never transient.
func Transient(err error) bool {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, context.DeadlineExceeded):
		return true
	}

	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		code := re.Response.StatusCode
		return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
