package genai

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"time"
)

// errRetryBudget reports a retry wait that would outlast the caller's deadline.
var errRetryBudget = errors.New("timeout during retry")

// delayBefore returns the wait before retry number attempt (1-based): a
// uniform draw below the doubled InitialDelay, capped at MaxDelay. A longer
// Retry-After hint on cause wins but is capped at MaxDelay too.
func (c RetryConfig) delayBefore(attempt int, cause error) time.Duration {
	if attempt <= 0 {
		return 0
	}

	ceiling := c.InitialDelay
	for i := 1; i < attempt && ceiling < c.MaxDelay; i++ {
		ceiling *= 2
	}
	delay := jitter(min(ceiling, c.MaxDelay))

	if hint := retryAfter(cause); hint > delay {
		delay = min(hint, c.MaxDelay)
	}
	return delay
}

func jitter(ceiling time.Duration) time.Duration {
	if ceiling <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(ceiling)+1))
	if err != nil {
		return ceiling / 2
	}
	return time.Duration(n.Int64())
}

// waitRetry sleeps for d unless ctx ends first. When ctx's deadline falls
// inside d it returns errRetryBudget without sleeping.
func waitRetry(ctx context.Context, d time.Duration) error {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < d {
		return errRetryBudget
	}
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
