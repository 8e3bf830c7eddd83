// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultBackoffStep is the delay unit between attempts.
const DefaultBackoffStep = time.Second

// linearBackOff waits step*n after the n-th failed attempt.
type linearBackOff struct {
	step    time.Duration
	attempt int
}

var _ backoff.BackOff = (*linearBackOff)(nil)

// NextBackOff implements backoff.BackOff.
func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.step * time.Duration(b.attempt)
}

// Reset implements backoff.BackOff.
func (b *linearBackOff) Reset() { b.attempt = 0 }

// retryPolicy allows retry extra attempts with linear delays and stops as soon as ctx is done.
func retryPolicy(ctx context.Context, step time.Duration, retry int) backoff.BackOffContext {
	if retry < 0 {
		retry = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(&linearBackOff{step: step}, uint64(retry)), ctx)
}
