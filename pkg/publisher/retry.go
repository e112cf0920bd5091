package publisher

import (
	"context"
	"time"

	"github.com/tkarvine/draftgate/pkg/api"
)

// RetryPolicy controls how a retrying publisher spaces its attempts.
type RetryPolicy struct {
	// MaxAttempts is the total number of publish attempts.
	// Values <= 0 are treated as 1 (no retries).
	MaxAttempts int

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration

	// BackoffMultiplier grows the delay each attempt; <= 0 means 2.0.
	BackoffMultiplier float64

	// MaxBackoff caps the delay; <= 0 means no cap.
	MaxBackoff time.Duration
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.BackoffMultiplier <= 0 {
		p.BackoffMultiplier = 2.0
	}
	return p
}

type retryingPublisher struct {
	next   api.Publisher
	policy RetryPolicy
}

var _ api.Publisher = (*retryingPublisher)(nil)

// WithRetry wraps a publisher with bounded retries and exponential backoff.
// The workflow engine treats publishing as a single attempt, so transient
// platform errors are absorbed here.
func WithRetry(next api.Publisher, policy RetryPolicy) api.Publisher {
	return &retryingPublisher{next: next, policy: policy.normalized()}
}

func (r *retryingPublisher) Publish(ctx context.Context, content string, platform api.Platform) (api.PublishResult, error) {
	var lastErr error
	backoff := r.policy.InitialBackoff

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if attempt > 1 && backoff > 0 {
			select {
			case <-ctx.Done():
				return api.PublishResult{}, ctx.Err()
			case <-time.After(backoff):
			}
			backoff = time.Duration(float64(backoff) * r.policy.BackoffMultiplier)
			if r.policy.MaxBackoff > 0 && backoff > r.policy.MaxBackoff {
				backoff = r.policy.MaxBackoff
			}
		}

		res, err := r.next.Publish(ctx, content, platform)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return api.PublishResult{}, ctx.Err()
		}
	}

	return api.PublishResult{}, lastErr
}
