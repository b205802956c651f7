package events

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/retry"
)

// RetryingPublisher retries failed publishes according to a backoff policy.
type RetryingPublisher struct {
	next   Publisher
	policy retry.Policy
}

// WithRetry wraps p so transient publish failures are retried.
func WithRetry(p Publisher, policy retry.Policy) *RetryingPublisher {
	return &RetryingPublisher{next: p, policy: policy}
}

func (r *RetryingPublisher) Publish(ctx context.Context, event BundleEvent) error {
	attempt := 0
	return r.policy.Do(ctx, func(ctx context.Context) error {
		attempt++
		err := r.next.Publish(ctx, event)
		if err != nil && attempt <= r.policy.MaxRetries {
			slog.Debug("Publish failed, retrying",
				logfields.Bundle(event.Bundle),
				slog.Int("attempt", attempt),
				logfields.Error(err))
		}
		return err
	})
}

func (r *RetryingPublisher) Close() error { return r.next.Close() }
